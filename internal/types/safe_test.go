package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func testAddr(last byte) Address {
	var a Address
	a[AddressLength-1] = last
	return a
}

func TestSafe_Balance(t *testing.T) {
	safe := NewSafe(testAddr(1))
	token := testAddr(2)

	assert.True(t, safe.Balance(token).IsZero(), "absent token reads as zero")

	safe.Balances[token] = NewU256(100)
	assert.Equal(t, NewU256(100), safe.Balance(token))
}

func TestSafe_TrustTransferLimit(t *testing.T) {
	senderToken := testAddr(0x10)
	receiverToken := testAddr(0x20)

	newSender := func(ownBalance uint64) *Safe {
		s := NewSafe(senderToken)
		s.Balances[senderToken] = NewU256(ownBalance)
		return s
	}
	newReceiver := func(ownBalance, senderTokenHeld uint64) *Safe {
		r := NewSafe(receiverToken)
		r.Balances[receiverToken] = NewU256(ownBalance)
		if senderTokenHeld > 0 {
			r.Balances[senderToken] = NewU256(senderTokenHeld)
		}
		return r
	}

	tests := []struct {
		name     string
		sender   *Safe
		receiver *Safe
		trustPct uint8
		want     U256
	}{
		{
			name:     "half_trust_nothing_held",
			sender:   newSender(1000),
			receiver: newReceiver(200, 0),
			trustPct: 50,
			want:     NewU256(100), // 200 * 50% = 100, держит 0
		},
		{
			name:     "held_counts_against_cap",
			sender:   newSender(1000),
			receiver: newReceiver(200, 30),
			trustPct: 50,
			want:     NewU256(70), // 100 - 30
		},
		{
			name:     "held_at_cap",
			sender:   newSender(1000),
			receiver: newReceiver(200, 100),
			trustPct: 50,
			want:     U256{},
		},
		{
			name:     "held_above_cap",
			sender:   newSender(1000),
			receiver: newReceiver(200, 150),
			trustPct: 50,
			want:     U256{},
		},
		{
			name:     "bounded_by_sender_balance",
			sender:   newSender(40),
			receiver: newReceiver(200, 0),
			trustPct: 50,
			want:     NewU256(40),
		},
		{
			name:     "zero_trust",
			sender:   newSender(1000),
			receiver: newReceiver(200, 0),
			trustPct: 0,
			want:     U256{},
		},
		{
			name:     "full_trust",
			sender:   newSender(1000),
			receiver: newReceiver(200, 0),
			trustPct: 100,
			want:     NewU256(200),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.sender.TrustTransferLimit(tt.receiver, tt.trustPct))
		})
	}
}

func TestSafe_TrustTransferLimit_Organization(t *testing.T) {
	sender := NewSafe(testAddr(0x10))
	sender.Balances[sender.TokenAddress] = NewU256(777)

	org := NewSafe(testAddr(0x20))
	org.Organization = true

	// Организация ограничена только балансом отправителя,
	// процент доверия не участвует.
	assert.Equal(t, NewU256(777), sender.TrustTransferLimit(org, 0))
	assert.Equal(t, NewU256(777), sender.TrustTransferLimit(org, 100))
}

func TestEdge_Cmp(t *testing.T) {
	a, b, tok := testAddr(1), testAddr(2), testAddr(3)

	e1 := Edge{From: a, To: b, Token: tok, Capacity: NewU256(10)}
	e2 := Edge{From: a, To: b, Token: tok, Capacity: NewU256(99)}
	e3 := Edge{From: b, To: a, Token: tok}

	assert.Equal(t, 0, e1.Cmp(e2), "capacity does not participate in ordering")
	assert.Equal(t, -1, e1.Cmp(e3))
	assert.Equal(t, 1, e3.Cmp(e1))
}
