package system

import (
	"go.uber.org/zap"

	"github.com/LeJamon/goEscrowd/internal/core/tx"
	"github.com/LeJamon/goEscrowd/internal/types"
)

// CreateDerived creates the program-derived account key with space bytes
// owned by owner, paid by payer. The calling invocation must list the
// system program, payer and key.
//
// A plain wallet already sitting at key (anyone can send lamports to an
// address) is adopted: it is topped up to the rent-exempt minimum, then
// allocated and assigned under proof. Any other account at key fails
// RecordAlreadyExists.
func CreateDerived(ctx *tx.ApplyContext, payer, key types.Pubkey, space int, owner types.Pubkey, proof tx.ProgramAuthority) tx.Result {
	minimum := ctx.Rent().MinimumBalance(space)
	existing, r := ctx.Load(key)
	if r != tx.Success {
		return r
	}
	if existing == nil {
		return ctx.Invoke(CreateAccount(payer, key, minimum, uint64(space), owner), proof)
	}
	if existing.Owner != types.SystemProgramID || len(existing.Data) != 0 || existing.Executable {
		return ctx.Fail(tx.RecordAlreadyExists, "account already in use", zap.Stringer("account", key))
	}

	ctx.Logger.Debug("adopting prefunded account",
		zap.Stringer("account", key), zap.Uint64("lamports", existing.Lamports))
	if existing.Lamports < minimum {
		if r := ctx.Invoke(Transfer(payer, key, minimum-existing.Lamports)); r != tx.Success {
			return r
		}
	}
	if r := ctx.Invoke(Allocate(key, uint64(space)), proof); r != tx.Success {
		return r
	}
	return ctx.Invoke(Assign(key, owner), proof)
}
