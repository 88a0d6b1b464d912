// Package associated implements the holding-account program, which creates
// the canonical holding account of an (owner, mint) pair at its derived
// address.
package associated

import (
	"go.uber.org/zap"

	"github.com/LeJamon/goEscrowd/internal/core/ledger/entry"
	"github.com/LeJamon/goEscrowd/internal/core/ledger/keylet"
	"github.com/LeJamon/goEscrowd/internal/core/tx"
	"github.com/LeJamon/goEscrowd/internal/core/tx/system"
	"github.com/LeJamon/goEscrowd/internal/core/tx/token"
	"github.com/LeJamon/goEscrowd/internal/types"
)

// Instruction tags. Empty data means Create.
const (
	InstructionCreate           uint8 = 0
	InstructionCreateIdempotent uint8 = 1
)

func init() {
	tx.Register(Program{})
}

// Program is the holding-account program.
type Program struct{}

func (Program) ProgramID() types.Pubkey { return types.AssociatedTokenProgramID }

func (Program) Name() string { return "associated-token" }

func instruction(tag uint8, payer, owner, mint types.Pubkey) tx.Instruction {
	ata, err := keylet.AssociatedToken(owner, mint)
	if err != nil {
		panic(err)
	}
	return tx.Instruction{
		ProgramID: types.AssociatedTokenProgramID,
		Accounts: []tx.AccountMeta{
			tx.WritableSigner(payer),
			tx.Writable(ata.Address),
			tx.Readonly(owner),
			tx.Readonly(mint),
			tx.Readonly(types.SystemProgramID),
			tx.Readonly(types.TokenProgramID),
		},
		Data: []byte{tag},
	}
}

// Create builds an instruction creating owner's holding account for mint,
// paid by payer.
func Create(payer, owner, mint types.Pubkey) tx.Instruction {
	return instruction(InstructionCreate, payer, owner, mint)
}

// CreateIdempotent is Create that succeeds when the account already exists.
func CreateIdempotent(payer, owner, mint types.Pubkey) tx.Instruction {
	return instruction(InstructionCreateIdempotent, payer, owner, mint)
}

// Process creates the holding account.
func (Program) Process(ctx *tx.ApplyContext) tx.Result {
	idempotent := false
	switch {
	case len(ctx.Data) == 0 || (len(ctx.Data) == 1 && ctx.Data[0] == InstructionCreate):
	case len(ctx.Data) == 1 && ctx.Data[0] == InstructionCreateIdempotent:
		idempotent = true
	default:
		return tx.MalformedInstruction
	}

	if r := ctx.RequireAccounts(
		tx.RoleWritableSigner,
		tx.RoleWritable,
		tx.RoleReadonly,
		tx.RoleReadonly,
		tx.RoleReadonly,
		tx.RoleReadonly,
	); r != tx.Success {
		return r
	}
	payer, ataKey, owner, mint := ctx.Key(0), ctx.Key(1), ctx.Key(2), ctx.Key(3)
	if ctx.Key(4) != types.SystemProgramID || ctx.Key(5) != types.TokenProgramID {
		return ctx.Fail(tx.AccountRoleMismatch, "unexpected program account")
	}

	derived, err := keylet.AssociatedToken(owner, mint)
	if err != nil {
		return ctx.Fail(tx.InvalidSeeds, "cannot derive holding account", zap.Error(err))
	}
	if derived.Address != ataKey {
		return ctx.Fail(tx.InvalidSeeds, "holding account is not at the derived address",
			zap.Stringer("want", derived.Address), zap.Stringer("got", ataKey))
	}

	existing, r := ctx.Load(ataKey)
	if r != tx.Success {
		return r
	}
	if existing != nil && !isPlainWallet(existing) {
		if !idempotent {
			return ctx.Fail(tx.RecordAlreadyExists, "holding account exists", zap.Stringer("account", ataKey))
		}
		if existing.Owner != types.TokenProgramID {
			return ctx.Fail(tx.AccountOwnerMismatch, "account at derived address not owned by token program")
		}
		h, err := token.UnpackAccount(existing.Data)
		if err != nil {
			return ctx.Fail(tx.InvalidAccountData, "account at derived address is not a holding account", zap.Error(err))
		}
		if h.Owner != owner || h.Mint != mint {
			return ctx.Fail(tx.AccountOwnerMismatch, "holding account owner or mint differs")
		}
		return tx.Success
	}

	proof, r := ctx.ProveAuthority(keylet.WithBump([][]byte{owner[:], types.TokenProgramID[:], mint[:]}, derived.Bump)...)
	if r != tx.Success {
		return r
	}
	if r := system.CreateDerived(ctx, payer, ataKey, token.AccountLen, types.TokenProgramID, proof); r != tx.Success {
		return r
	}
	return ctx.Invoke(token.InitializeAccount3(ataKey, mint, owner))
}

// isPlainWallet reports whether acc is lamports only, which is what a
// transfer to a not-yet-created holding address leaves behind.
func isPlainWallet(acc *entry.Account) bool {
	return acc.Owner == types.SystemProgramID && len(acc.Data) == 0 && !acc.Executable
}
