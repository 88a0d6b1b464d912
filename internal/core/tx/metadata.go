package tx

import (
	"github.com/LeJamon/goEscrowd/internal/types"
)

// AffectedAccount describes how one account changed.
type AffectedAccount struct {
	Pubkey         types.Pubkey
	Action         Action
	LamportsBefore uint64
	LamportsAfter  uint64
}

// Metadata summarises a committed transaction.
type Metadata struct {
	TxHash   [32]byte
	Affected []AffectedAccount
}

// Created returns the accounts the transaction created.
func (m *Metadata) Created() []types.Pubkey {
	return m.filter(ActionInsert)
}

// Deleted returns the accounts the transaction closed.
func (m *Metadata) Deleted() []types.Pubkey {
	return m.filter(ActionErase)
}

// Modified returns the accounts that existed before and after.
func (m *Metadata) Modified() []types.Pubkey {
	return m.filter(ActionModify)
}

func (m *Metadata) filter(a Action) []types.Pubkey {
	if m == nil {
		return nil
	}
	var out []types.Pubkey
	for _, acc := range m.Affected {
		if acc.Action == a {
			out = append(out, acc.Pubkey)
		}
	}
	return out
}
