package types

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/holiman/uint256"
)

// U256 is an unsigned 256-bit integer with wrapping two's-complement
// arithmetic. The flow engine leans on the wrapping behavior: the
// additive inverse of a capacity acts as a signed adjustment, and
// MaxU256 (= 0 - 1) serves as "unbounded" when seeding a search.
//
// U256 is a comparable value type: == is exact equality and values can
// key maps directly. The zero value is the number zero.
type U256 struct {
	n uint256.Int
}

// MaxU256 returns the largest representable value, 2^256 - 1.
func MaxU256() U256 {
	var z U256
	z.n.SetAllOne()
	return z
}

// NewU256 builds a U256 from a uint64.
func NewU256(v uint64) U256 {
	var z U256
	z.n.SetUint64(v)
	return z
}

// =============================================================================
// Parsing
// =============================================================================

// ParseU256 parses either a decimal literal or a "0x"-prefixed hex
// literal. This is the wire format accepted at the system boundary.
func ParseU256(s string) (U256, error) {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return ParseHexU256(s)
	}
	return ParseDecimalU256(s)
}

// ParseHexU256 parses a "0x"-prefixed hex literal of up to 64 digits.
// Both character cases are accepted, leading zero digits are allowed,
// and a bare "0x" parses as zero. Sign characters are rejected.
func ParseHexU256(s string) (U256, error) {
	body, ok := strings.CutPrefix(strings.ToLower(s), "0x")
	if !ok {
		return U256{}, fmt.Errorf("u256 %q: missing 0x prefix", s)
	}
	if len(body) > 64 {
		return U256{}, fmt.Errorf("u256 %q: more than 64 hex digits", s)
	}
	if strings.ContainsAny(body, "+-") {
		return U256{}, fmt.Errorf("u256 %q: sign characters are not allowed", s)
	}
	trimmed := strings.TrimLeft(body, "0")
	if trimmed == "" {
		// "0x", "0x0", "0x0000…" all denote zero.
		return U256{}, nil
	}
	var z U256
	if err := z.n.SetFromHex("0x" + trimmed); err != nil {
		return U256{}, fmt.Errorf("u256 %q: %w", s, err)
	}
	return z, nil
}

// ParseDecimalU256 parses a decimal literal via arbitrary precision and
// truncates the result to the low 256 bits. Leading zeros are allowed.
func ParseDecimalU256(s string) (U256, error) {
	if s == "" {
		return U256{}, fmt.Errorf("u256: empty decimal literal")
	}
	b, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return U256{}, fmt.Errorf("u256 %q: malformed decimal literal", s)
	}
	if b.Sign() < 0 {
		return U256{}, fmt.Errorf("u256 %q: negative literal", s)
	}
	var z U256
	z.n.SetFromBig(b)
	return z, nil
}

// MustParseU256 is like ParseU256 but panics on malformed input.
func MustParseU256(s string) U256 {
	z, err := ParseU256(s)
	if err != nil {
		panic(err)
	}
	return z
}

// =============================================================================
// Arithmetic
// =============================================================================
//
// All operations wrap modulo 2^256 and never fail. Division by zero
// yields zero, matching the backing library.

// Add returns u + v, wrapping.
func (u U256) Add(v U256) U256 {
	var z U256
	z.n.Add(&u.n, &v.n)
	return z
}

// Sub returns u - v, wrapping. Subtracting a larger value from a
// smaller one wraps around; the engine uses this deliberately when it
// applies negative capacity adjustments.
func (u U256) Sub(v U256) U256 {
	var z U256
	z.n.Sub(&u.n, &v.n)
	return z
}

// Neg returns the two's-complement additive inverse (~u) + 1.
func (u U256) Neg() U256 {
	var z U256
	z.n.Neg(&u.n)
	return z
}

// Mul returns u * v truncated to the low 256 bits of the full product.
func (u U256) Mul(v U256) U256 {
	var z U256
	z.n.Mul(&u.n, &v.n)
	return z
}

// Div returns the floor of u / v, or zero if v is zero.
func (u U256) Div(v U256) U256 {
	var z U256
	z.n.Div(&u.n, &v.n)
	return z
}

// Cmp returns -1, 0 or +1 depending on the unsigned order of u and v.
func (u U256) Cmp(v U256) int {
	return u.n.Cmp(&v.n)
}

// Less reports u < v.
func (u U256) Less(v U256) bool {
	return u.n.Lt(&v.n)
}

// IsZero reports whether u is zero.
func (u U256) IsZero() bool {
	return u.n.IsZero()
}

// MinU256 returns the smaller of a and b.
func MinU256(a, b U256) U256 {
	if a.Less(b) {
		return a
	}
	return b
}

// =============================================================================
// Rendering
// =============================================================================

// String renders compact lowercase hex: "0x0" for zero, otherwise the
// minimal digit string with no leading zeros.
func (u U256) String() string {
	return u.n.Hex()
}

// Dec renders the value as a decimal string.
func (u U256) Dec() string {
	return u.n.Dec()
}

// DecimalFraction renders the value as a fixed-point token amount,
// treating it as an 18-decimal quantity truncated to two fraction
// digits (e.g. 1.5 * 10^18 renders "1.50"). Amounts below the rendered
// precision collapse to "0.00".
func (u U256) DecimalFraction() string {
	d := u.n.Dec()
	switch {
	case len(d) >= 18:
		whole := d[:len(d)-18]
		if whole == "" {
			whole = "0"
		}
		return whole + "." + d[len(d)-18:len(d)-16]
	case len(d) == 17:
		return "0.0" + d[:1]
	default:
		return "0.00"
	}
}

// Bytes returns the value as a big-endian byte slice with all leading
// zero bytes stripped. Zero maps to the empty slice.
func (u U256) Bytes() []byte {
	return u.n.Bytes()
}

// U256FromBytes interprets a big-endian byte slice of up to 32 bytes.
func U256FromBytes(b []byte) U256 {
	var z U256
	z.n.SetBytes(b)
	return z
}
