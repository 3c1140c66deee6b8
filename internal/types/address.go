// Package types defines the primitive value types of the pathfinder:
// 160-bit addresses, 256-bit unsigned integers, trust-network safes and
// capacity edges. All types are plain values, safe to copy and usable as
// map keys.
package types

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"
)

// AddressLength is the byte length of an Address.
const AddressLength = 20

// Address is an opaque 160-bit participant identifier. Safes and tokens
// share this identifier space: every safe mints a token under its own
// token address.
type Address [AddressLength]byte

// ZeroAddress is the all-zero address. It never identifies a real safe.
var ZeroAddress Address

// ParseAddress parses a hex-encoded address. The "0x" prefix is optional
// and both character cases are accepted. The input must encode exactly
// 20 bytes.
func ParseAddress(s string) (Address, error) {
	body := strings.TrimPrefix(s, "0x")
	if len(body) != 2*AddressLength {
		return Address{}, fmt.Errorf("address %q: want %d hex digits, got %d", s, 2*AddressLength, len(body))
	}
	var a Address
	if _, err := hex.Decode(a[:], []byte(body)); err != nil {
		return Address{}, fmt.Errorf("address %q: %w", s, err)
	}
	return a, nil
}

// MustParseAddress is like ParseAddress but panics on malformed input.
// Intended for tests and compile-time-known constants.
func MustParseAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

// AddressFromBytes builds an Address from a byte slice, left-padding
// short input with zeros. Input longer than 20 bytes keeps the trailing
// 20 bytes.
func AddressFromBytes(b []byte) Address {
	var a Address
	if len(b) > AddressLength {
		b = b[len(b)-AddressLength:]
	}
	copy(a[AddressLength-len(b):], b)
	return a
}

// Bytes returns the address as a 20-byte slice.
func (a Address) Bytes() []byte {
	return a[:]
}

// IsZero reports whether the address is all zeros.
func (a Address) IsZero() bool {
	return a == ZeroAddress
}

// Cmp compares two addresses byte-wise, returning -1, 0 or +1.
// The ordering is total and is used for deterministic iteration.
func (a Address) Cmp(b Address) int {
	return bytes.Compare(a[:], b[:])
}

// Less reports whether a orders before b.
func (a Address) Less(b Address) bool {
	return a.Cmp(b) < 0
}

// String renders the address as lowercase hex with a "0x" prefix.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Short renders an abbreviated form (0x1234…abcd) for log output.
func (a Address) Short() string {
	s := hex.EncodeToString(a[:])
	return "0x" + s[:4] + "…" + s[len(s)-4:]
}
