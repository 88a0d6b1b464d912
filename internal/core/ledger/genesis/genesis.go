// Package genesis installs the built-in program accounts into an empty
// ledger.
package genesis

import (
	"context"
	"fmt"

	"github.com/LeJamon/goEscrowd/internal/core/ledger"
	"github.com/LeJamon/goEscrowd/internal/core/ledger/entry"
	"github.com/LeJamon/goEscrowd/internal/types"
)

// NativeLoaderID owns every built-in program account.
var NativeLoaderID = types.MustParsePubkey("NativeLoader1111111111111111111111111111111")

// ProgramLamports is the balance each program account is created with.
const ProgramLamports = 1

// Committer is the subset of *ledger.Ledger genesis needs.
type Committer interface {
	Get(ctx context.Context, key types.Pubkey) (*entry.Account, error)
	Commit(ctx context.Context, changes []ledger.Change) error
}

// ProgramAccount returns the executable account for a built-in program.
func ProgramAccount(name string) *entry.Account {
	return &entry.Account{
		Lamports:   ProgramLamports,
		Owner:      NativeLoaderID,
		Executable: true,
		Data:       []byte(name),
	}
}

// Install creates an executable account for every program that is missing.
// Existing accounts are left untouched, so Install is idempotent.
func Install(ctx context.Context, state Committer, programs map[types.Pubkey]string) error {
	var changes []ledger.Change
	for id, name := range programs {
		existing, err := state.Get(ctx, id)
		if err != nil {
			return fmt.Errorf("genesis: read %s: %w", name, err)
		}
		if existing != nil {
			continue
		}
		changes = append(changes, ledger.Change{Key: id, Next: ProgramAccount(name), Write: true})
	}
	if len(changes) == 0 {
		return nil
	}
	if err := state.Commit(ctx, changes); err != nil {
		return fmt.Errorf("genesis: %w", err)
	}
	return nil
}

// FundWallet creates a system-owned wallet holding lamports at key. It is a
// no-op when key already exists and reports whether it created the wallet.
func FundWallet(ctx context.Context, state Committer, key types.Pubkey, lamports uint64) (bool, error) {
	existing, err := state.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("genesis: read %s: %w", key, err)
	}
	if existing != nil || lamports == 0 {
		return false, nil
	}
	err = state.Commit(ctx, []ledger.Change{{
		Key:   key,
		Next:  &entry.Account{Lamports: lamports, Owner: types.SystemProgramID},
		Write: true,
	}})
	if err != nil {
		return false, fmt.Errorf("genesis: fund %s: %w", key, err)
	}
	return true, nil
}
