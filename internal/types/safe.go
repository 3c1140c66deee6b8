package types

// Safe is one participant of the trust network. Every safe mints its
// own token under TokenAddress and holds balances in its own and other
// participants' tokens. LimitPercentage is keyed by receiver address
// and caps, in percent of the receiver's own-token holdings, how much
// of this safe's token the receiver accepts ("send to" direction).
//
// An organization safe is sink-like: transfers into it are constrained
// by the sender's balance only, never by a trust percentage.
type Safe struct {
	TokenAddress    Address
	Balances        map[Address]U256
	LimitPercentage map[Address]uint8
	Organization    bool
}

// NewSafe returns an empty safe minting the given token.
func NewSafe(token Address) *Safe {
	return &Safe{
		TokenAddress:    token,
		Balances:        make(map[Address]U256),
		LimitPercentage: make(map[Address]uint8),
	}
}

// Balance returns the safe's holdings in the given token, zero when the
// token is absent from the balance map.
func (s *Safe) Balance(token Address) U256 {
	return s.Balances[token]
}

// TrustTransferLimit returns how much of its own token this safe can
// send to receiver under the given trust percentage.
//
// Organizations accept the sender's full own-token balance. For a
// regular receiver the cap is trustPct percent of the receiver's
// own-token holdings; whatever the receiver already holds of the
// sender's token counts against that cap, and the remainder is bounded
// by the sender's balance.
func (s *Safe) TrustTransferLimit(receiver *Safe, trustPct uint8) U256 {
	if receiver.Organization {
		return s.Balance(s.TokenAddress)
	}

	trusted := receiver.Balance(receiver.TokenAddress).
		Mul(NewU256(uint64(trustPct))).
		Div(NewU256(100))
	held := receiver.Balance(s.TokenAddress)
	if trusted.Cmp(held) <= 0 {
		return U256{}
	}
	return MinU256(trusted.Sub(held), s.Balance(s.TokenAddress))
}
