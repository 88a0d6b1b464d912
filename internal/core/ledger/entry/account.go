// Package entry defines the account envelope stored in the ledger and its
// persisted encoding.
package entry

import (
	"bytes"

	"github.com/LeJamon/goEscrowd/internal/types"
)

// Account is the envelope every ledger address holds while it exists.
// Only Owner may change Data or debit Lamports.
type Account struct {
	Lamports   uint64
	Owner      types.Pubkey
	Executable bool
	Data       []byte
}

// Clone returns a deep copy of a. A nil account clones to nil.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	if a.Data != nil {
		c.Data = append([]byte(nil), a.Data...)
	}
	return &c
}

// Equal reports whether a and b hold the same state. Two nil accounts are
// equal; a nil Data and an empty Data are equal.
func (a *Account) Equal(b *Account) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Lamports == b.Lamports &&
		a.Owner == b.Owner &&
		a.Executable == b.Executable &&
		bytes.Equal(a.Data, b.Data)
}

// IsOwnedBy reports whether program owns a.
func (a *Account) IsOwnedBy(program types.Pubkey) bool {
	return a != nil && a.Owner == program
}
