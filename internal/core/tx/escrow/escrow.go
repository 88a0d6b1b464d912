// Package escrow implements the two-party exchange program. A maker locks
// an amount of one asset in a vault controlled by a derived record address;
// a taker settles by paying the requested amount of another asset, or the
// maker refunds. Either way the record and vault are closed and their rent
// returns to the maker.
package escrow

import (
	"go.uber.org/zap"

	"github.com/LeJamon/goEscrowd/internal/core/ledger/entry"
	"github.com/LeJamon/goEscrowd/internal/core/ledger/keylet"
	"github.com/LeJamon/goEscrowd/internal/core/tx"
	"github.com/LeJamon/goEscrowd/internal/core/tx/associated"
	"github.com/LeJamon/goEscrowd/internal/core/tx/token"
	"github.com/LeJamon/goEscrowd/internal/types"
)

func init() {
	tx.Register(Program{})
}

// Program is the escrow program.
type Program struct{}

func (Program) ProgramID() types.Pubkey { return types.EscrowProgramID }

func (Program) Name() string { return "escrow" }

// Process validates the instruction against its schema and runs the
// transition.
func (Program) Process(ctx *tx.ApplyContext) tx.Result {
	d, err := Decode(ctx.Data)
	if err != nil {
		return ctx.Fail(tx.MalformedInstruction, "undecodable escrow instruction", zap.Error(err))
	}
	if r := ctx.RequireAccounts(schemas[d.Op]...); r != tx.Success {
		return r
	}

	switch d.Op {
	case OpOpen:
		return open(ctx, d)
	case OpSettle:
		return settle(ctx)
	default:
		return refund(ctx)
	}
}

// requirePrograms checks the trailing associated, token and system program
// accounts starting at index i.
func requirePrograms(ctx *tx.ApplyContext, i int) tx.Result {
	if ctx.Key(i) != types.AssociatedTokenProgramID ||
		ctx.Key(i+1) != types.TokenProgramID ||
		ctx.Key(i+2) != types.SystemProgramID {
		return ctx.Fail(tx.AccountRoleMismatch, "unexpected program account")
	}
	return tx.Success
}

// requireAddress checks that got is the address derived by k.
func requireAddress(ctx *tx.ApplyContext, what string, got types.Pubkey, k keylet.Keylet, err error) tx.Result {
	if err != nil {
		return ctx.Fail(tx.InvalidSeeds, "cannot derive "+what, zap.Error(err))
	}
	if k.Address != got {
		return ctx.Fail(tx.AccountRoleMismatch, what+" is not at the derived address",
			zap.Stringer("want", k.Address), zap.Stringer("got", got))
	}
	return tx.Success
}

// requireMint checks key is an initialized mint.
func requireMint(ctx *tx.ApplyContext, key types.Pubkey) tx.Result {
	acc, r := ctx.Load(key)
	if r != tx.Success {
		return r
	}
	if acc == nil || acc.Owner != types.TokenProgramID {
		return ctx.Fail(tx.InvalidAccountData, "not a mint", zap.Stringer("mint", key))
	}
	if _, err := token.UnpackMint(acc.Data); err != nil {
		return ctx.Fail(tx.InvalidAccountData, "not a mint", zap.Stringer("mint", key), zap.Error(err))
	}
	return tx.Success
}

// holdingBalance returns the balance of a holding account, zero if it does
// not exist.
func holdingBalance(ctx *tx.ApplyContext, key types.Pubkey) (uint64, tx.Result) {
	acc, r := ctx.Load(key)
	if r != tx.Success || acc == nil {
		return 0, r
	}
	if acc.Owner != types.TokenProgramID {
		return 0, ctx.Fail(tx.AccountOwnerMismatch, "holding account not owned by token program", zap.Stringer("account", key))
	}
	h, err := token.UnpackAccount(acc.Data)
	if err != nil {
		return 0, ctx.Fail(tx.InvalidAccountData, "bad holding account", zap.Stringer("account", key), zap.Error(err))
	}
	return h.Amount, tx.Success
}

// loadRecord reads the record at key.
func loadRecord(ctx *tx.ApplyContext, key types.Pubkey) (*entry.Account, *Record, tx.Result) {
	acc, r := ctx.Load(key)
	if r != tx.Success {
		return nil, nil, r
	}
	if acc == nil {
		return nil, nil, ctx.Fail(tx.RecordNotFound, "no escrow record", zap.Stringer("escrow", key))
	}
	if acc.Owner != types.EscrowProgramID {
		return nil, nil, ctx.Fail(tx.AccountOwnerMismatch, "record not owned by escrow program", zap.Stringer("escrow", key))
	}
	rec, err := UnpackRecord(acc.Data)
	if err != nil {
		return nil, nil, ctx.Fail(tx.InvalidAccountData, "bad escrow record", zap.Stringer("escrow", key), zap.Error(err))
	}
	return acc, rec, tx.Success
}

// drainAndClose moves the whole vault balance to dest, closes the vault and
// then the record. All rent goes to maker.
func drainAndClose(ctx *tx.ApplyContext, rec *Record, escrowKey, vaultKey, dest, maker types.Pubkey) tx.Result {
	proof, r := ctx.ProveAuthority(rec.Seeds()...)
	if r != tx.Success {
		return r
	}
	if proof.Address() != escrowKey {
		return ctx.Fail(tx.InvalidSeeds, "record seeds do not derive its address")
	}

	amount, r := holdingBalance(ctx, vaultKey)
	if r != tx.Success {
		return r
	}
	if r := ctx.Invoke(token.Transfer(vaultKey, dest, escrowKey, amount), proof); r != tx.Success {
		return r
	}
	if r := ctx.Invoke(token.CloseAccount(vaultKey, maker, escrowKey), proof); r != tx.Success {
		return r
	}
	return ctx.Close(escrowKey, maker)
}

// createIdempotent makes sure owner's holding account for mint exists.
func createIdempotent(ctx *tx.ApplyContext, payer, owner, mint types.Pubkey) tx.Result {
	return ctx.Invoke(associated.CreateIdempotent(payer, owner, mint))
}
