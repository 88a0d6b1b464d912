// Package addresscodec converts 32-byte ledger identities to and from their
// base58 text form.
package addresscodec

import (
	"errors"
	"fmt"

	"github.com/mr-tron/base58"
)

// AddressLength is the size of a decoded address in bytes.
const AddressLength = 32

var (
	ErrEmptyAddress  = errors.New("empty address")
	ErrInvalidLength = errors.New("address must decode to 32 bytes")
)

// Encode returns the base58 text form of b.
func Encode(b []byte) string {
	return base58.Encode(b)
}

// Decode parses a base58 address into its 32 raw bytes.
func Decode(s string) ([AddressLength]byte, error) {
	var out [AddressLength]byte
	if s == "" {
		return out, ErrEmptyAddress
	}
	raw, err := base58.Decode(s)
	if err != nil {
		return out, fmt.Errorf("decode %q: %w", s, err)
	}
	if len(raw) != AddressLength {
		return out, fmt.Errorf("decode %q: %w (got %d)", s, ErrInvalidLength, len(raw))
	}
	copy(out[:], raw)
	return out, nil
}

// IsValid reports whether s decodes to a 32-byte address.
func IsValid(s string) bool {
	_, err := Decode(s)
	return err == nil
}
