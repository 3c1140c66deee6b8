package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestU256_String(t *testing.T) {
	assert.Equal(t, "0x0", NewU256(0).String())
	assert.Equal(t, "0xffffffffffffffffffffffffffffffff",
		MustParseU256("0xffffffffffffffffffffffffffffffff").String())
}

func TestU256_AddWrapping(t *testing.T) {
	u128max := MustParseU256("0xffffffffffffffffffffffffffffffff")

	assert.Equal(t, "0x1fffffffffffffffffffffffffffffffe", u128max.Add(u128max).String())
	assert.Equal(t, "0x100000000000000000000000000000000", u128max.Add(NewU256(1)).String())

	// Полный оборот: MAX + 1 = 0
	assert.True(t, MaxU256().Add(NewU256(1)).IsZero())
}

func TestU256_SubNeg(t *testing.T) {
	// 0 - 1 = MAX - так движок получает "бесконечность"
	assert.Equal(t, MaxU256(), U256{}.Sub(NewU256(1)))
	assert.Equal(t, MaxU256(), NewU256(1).Neg())

	assert.Equal(t, NewU256(7), NewU256(10).Sub(NewU256(3)))
	assert.True(t, NewU256(5).Sub(NewU256(5)).IsZero())
}

func TestU256_Compare(t *testing.T) {
	assert.True(t, NewU256(0).Less(NewU256(1)))
	assert.True(t, NewU256(1).Less(MustParseU256("0x100000000000000000000000000000000")))
	assert.Equal(t, 0, NewU256(42).Cmp(NewU256(42)))
	assert.Equal(t, 1, MaxU256().Cmp(NewU256(1)))
}

func TestU256_FromHex(t *testing.T) {
	u128max := MustParseU256("340282366920938463463374607431768211455")

	tests := []struct {
		name  string
		input string
		want  U256
	}{
		{"bare_prefix", "0x", NewU256(0)},
		{"zero", "0x0", NewU256(0)},
		{"one", "0x1", NewU256(1)},
		{"leading_zero", "0x01", NewU256(1)},
		{"mixed_case", "0xAbCdEf", NewU256(0xabcdef)},
		{"span_halves", "0x1fffffffffffffffffffffffffffffffe", u128max.Add(u128max)},
		{"leading_zeros_span", "0x001fffffffffffffffffffffffffffffffe", u128max.Add(u128max)},
		{"high_half_one", "0x100000000000000000000000000000000", u128max.Add(NewU256(1))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseHexU256(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestU256_FromHexRejects(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"no_prefix", "123"},
		{"plus_sign", "0x+1"},
		{"minus_sign", "0x-1"},
		{"minus_in_tail", "0x0000000000000000000000000000000000-1"},
		{"too_long", "0x" + strings.Repeat("f", 65)},
		{"garbage", "0x12g4"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseHexU256(tt.input)
			assert.Error(t, err)
		})
	}
}

func TestU256_FromDecimal(t *testing.T) {
	u128max := MustParseU256("0xffffffffffffffffffffffffffffffff")

	assert.Equal(t, NewU256(0), MustParseU256("0"))
	assert.Equal(t, NewU256(10), MustParseU256("10"))
	assert.Equal(t, u128max.Add(u128max), MustParseU256("680564733841876926926749214863536422910"))
	assert.Equal(t, u128max.Add(u128max), MustParseU256("000680564733841876926926749214863536422910"))
	assert.Equal(t, u128max.Add(NewU256(1)), MustParseU256("340282366920938463463374607431768211456"))

	// Переполнение усекается до младших 256 бит: 2^256 -> 0
	overflowed, err := ParseDecimalU256("115792089237316195423570985008687907853269984665640564039457584007913129639936")
	require.NoError(t, err)
	assert.True(t, overflowed.IsZero())

	_, err = ParseDecimalU256("")
	assert.Error(t, err)
	_, err = ParseDecimalU256("-5")
	assert.Error(t, err)
	_, err = ParseDecimalU256("12x3")
	assert.Error(t, err)
}

func TestU256_ToDecimal(t *testing.T) {
	tests := []string{
		"0",
		"680564733841876926926749214863536422910",
		"340282366920938463463374607431768211456",
	}
	for _, want := range tests {
		assert.Equal(t, want, MustParseU256(want).Dec())
	}
}

func TestU256_DecimalRoundTrip(t *testing.T) {
	values := []U256{
		NewU256(0),
		NewU256(1),
		NewU256(100),
		MustParseU256("0xffffffffffffffffffffffffffffffff"),
		MaxU256(),
	}
	for _, v := range values {
		parsed, err := ParseDecimalU256(v.Dec())
		require.NoError(t, err)
		assert.Equal(t, v, parsed)

		parsed, err = ParseHexU256(v.String())
		require.NoError(t, err)
		assert.Equal(t, v, parsed)
	}
}

func TestU256_MulDiv(t *testing.T) {
	two := MustParseU256("2")
	three := NewU256(3)
	large := MustParseU256("0x100000000000000000000000000000000")

	assert.Equal(t, NewU256(6), two.Mul(three))
	assert.Equal(t, NewU256(1), three.Div(two))
	assert.Equal(t, large, large.Mul(two).Div(two))
	assert.Equal(t, MustParseU256("0x55555555555555555555555555555555"), large.Div(three))

	// Умножение усекается до младших 256 бит
	assert.True(t, large.Mul(large).IsZero())
	assert.Equal(t,
		MustParseU256("0x8000000000000000000000000000000000000000000000000000000000000000"),
		large.Div(two).Mul(large))

	// Деление на ноль даёт ноль, не панику
	assert.True(t, NewU256(7).Div(NewU256(0)).IsZero())
}

func TestU256_Bytes(t *testing.T) {
	assert.Empty(t, NewU256(0).Bytes())
	assert.Equal(t, []byte{2}, MustParseU256("2").Bytes())

	seventeen := MustParseU256("0x100000000000000000000000000000000").Bytes()
	assert.Len(t, seventeen, 17)
	assert.Equal(t, append([]byte{1}, make([]byte, 16)...), seventeen)

	withTail := MustParseU256("0xff00000000000000000000000000000001").Bytes()
	want := make([]byte, 17)
	want[0] = 0xff
	want[16] = 1
	assert.Equal(t, want, withTail)

	full := MaxU256().Bytes()
	assert.Len(t, full, 32)
	for _, b := range full {
		assert.Equal(t, byte(0xff), b)
	}
}

func TestU256_BytesRoundTrip(t *testing.T) {
	values := []U256{NewU256(0), NewU256(2), MustParseU256("0x100000000000000000000000000000000"), MaxU256()}
	for _, v := range values {
		assert.Equal(t, v, U256FromBytes(v.Bytes()))
	}
}

func TestU256_DecimalFraction(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"one_and_a_half_tokens", "1500000000000000000", "1.50"},
		{"exactly_one", "1000000000000000000", "1.00"},
		{"seventeen_digits", "50000000000000000", "0.05"},
		{"below_precision", "1234", "0.00"},
		{"zero", "0", "0.00"},
		{"large", "123450000000000000000", "123.45"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MustParseU256(tt.input).DecimalFraction())
		})
	}
}

func TestMustParseU256_PanicsOnMalformed(t *testing.T) {
	assert.Panics(t, func() { MustParseU256("0x-1") })
	assert.Panics(t, func() { MustParseU256("not a number") })
}

func TestU256_MapKey(t *testing.T) {
	m := map[U256]string{
		NewU256(1):  "one",
		MaxU256():   "max",
		MustParseU256("0x100000000000000000000000000000000"): "large",
	}
	assert.Equal(t, "one", m[MustParseU256("1")])
	assert.Equal(t, "max", m[U256{}.Sub(NewU256(1))])
	assert.Equal(t, "large", m[MustParseU256("340282366920938463463374607431768211456")])
}
