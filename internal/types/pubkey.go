// Package types holds the identity type shared by every ledger component and
// the addresses of the built-in programs.
package types

import (
	addresscodec "github.com/LeJamon/goEscrowd/internal/codec/address-codec"
)

// Pubkey is a 32-byte ledger identity: a wallet key, an account address or a
// program id.
type Pubkey [32]byte

// ParsePubkey decodes a base58 address.
func ParsePubkey(s string) (Pubkey, error) {
	raw, err := addresscodec.Decode(s)
	if err != nil {
		return Pubkey{}, err
	}
	return Pubkey(raw), nil
}

// MustParsePubkey is ParsePubkey for compile-time constants. It panics on
// malformed input.
func MustParsePubkey(s string) Pubkey {
	p, err := ParsePubkey(s)
	if err != nil {
		panic(err)
	}
	return p
}

// String returns the base58 form.
func (p Pubkey) String() string {
	return addresscodec.Encode(p[:])
}

// Bytes returns a copy of the key as a slice.
func (p Pubkey) Bytes() []byte {
	b := make([]byte, len(p))
	copy(b, p[:])
	return b
}

// IsZero reports whether every byte is zero. The system program id is the
// zero key.
func (p Pubkey) IsZero() bool {
	return p == Pubkey{}
}

// MarshalText implements encoding.TextMarshaler.
func (p Pubkey) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Pubkey) UnmarshalText(text []byte) error {
	parsed, err := ParsePubkey(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
