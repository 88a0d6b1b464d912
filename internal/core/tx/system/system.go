// Package system implements the allocator program: it creates accounts,
// hands them to their owning program and moves lamports between wallets.
package system

import (
	"math"

	"go.uber.org/zap"

	binarycodec "github.com/LeJamon/goEscrowd/internal/codec/binary-codec"
	"github.com/LeJamon/goEscrowd/internal/core/ledger/entry"
	"github.com/LeJamon/goEscrowd/internal/core/tx"
	"github.com/LeJamon/goEscrowd/internal/types"
)

// MaxPermittedDataLength caps the space of a single account.
const MaxPermittedDataLength = 10 * 1024 * 1024

func init() {
	tx.Register(Program{})
}

// Program is the system program.
type Program struct{}

func (Program) ProgramID() types.Pubkey { return types.SystemProgramID }

func (Program) Name() string { return "system" }

// Process decodes the u32 tag and dispatches.
func (p Program) Process(ctx *tx.ApplyContext) tx.Result {
	parser := binarycodec.NewBinaryParser(ctx.Data)
	tag, err := parser.ReadU32()
	if err != nil {
		return tx.MalformedInstruction
	}

	switch tag {
	case InstructionCreateAccount:
		lamports, err1 := parser.ReadU64()
		space, err2 := parser.ReadU64()
		owner, err3 := parser.ReadKey()
		if err1 != nil || err2 != nil || err3 != nil || parser.HasMore() {
			return tx.MalformedInstruction
		}
		return createAccount(ctx, lamports, space, owner)
	case InstructionAssign:
		owner, err := parser.ReadKey()
		if err != nil || parser.HasMore() {
			return tx.MalformedInstruction
		}
		return assign(ctx, owner)
	case InstructionTransfer:
		lamports, err := parser.ReadU64()
		if err != nil || parser.HasMore() {
			return tx.MalformedInstruction
		}
		return transfer(ctx, lamports)
	case InstructionAllocate:
		space, err := parser.ReadU64()
		if err != nil || parser.HasMore() {
			return tx.MalformedInstruction
		}
		return allocate(ctx, space)
	default:
		return tx.MalformedInstruction
	}
}

// debit loads a wallet and checks it can pay lamports.
func debit(ctx *tx.ApplyContext, key types.Pubkey, lamports uint64) (*entry.Account, tx.Result) {
	acc, r := ctx.Load(key)
	if r != tx.Success {
		return nil, r
	}
	if acc == nil || acc.Lamports < lamports {
		return nil, ctx.Fail(tx.InsufficientFunds, "payer balance too low",
			zap.Stringer("account", key), zap.Uint64("need", lamports))
	}
	if acc.Owner != types.SystemProgramID || len(acc.Data) != 0 {
		return nil, ctx.Fail(tx.InvalidAccountData, "payer must be a plain wallet", zap.Stringer("account", key))
	}
	return acc, tx.Success
}

func createAccount(ctx *tx.ApplyContext, lamports, space uint64, owner types.Pubkey) tx.Result {
	if r := ctx.RequireAccounts(tx.RoleWritableSigner, tx.RoleWritableSigner); r != tx.Success {
		return r
	}
	fromKey, newKey := ctx.Key(0), ctx.Key(1)

	if space > MaxPermittedDataLength {
		return ctx.Fail(tx.InvalidAccountData, "space too large", zap.Uint64("space", space))
	}
	if lamports == 0 {
		return ctx.Fail(tx.InvalidAmount, "new account needs lamports")
	}
	if !ctx.Rent().IsExempt(lamports, int(space)) {
		return ctx.Fail(tx.InsufficientFunds, "new account below rent-exempt minimum",
			zap.Uint64("lamports", lamports), zap.Uint64("minimum", ctx.Rent().MinimumBalance(int(space))))
	}

	existing, r := ctx.Load(newKey)
	if r != tx.Success {
		return r
	}
	if existing != nil {
		return ctx.Fail(tx.RecordAlreadyExists, "account already in use", zap.Stringer("account", newKey))
	}

	from, r := debit(ctx, fromKey, lamports)
	if r != tx.Success {
		return r
	}
	from.Lamports -= lamports
	if r := ctx.Store(fromKey, from); r != tx.Success {
		return r
	}
	return ctx.Store(newKey, &entry.Account{
		Lamports: lamports,
		Owner:    owner,
		Data:     make([]byte, space),
	})
}

func assign(ctx *tx.ApplyContext, owner types.Pubkey) tx.Result {
	if r := ctx.RequireAccounts(tx.RoleWritableSigner); r != tx.Success {
		return r
	}
	key := ctx.Key(0)
	acc, r := ctx.Load(key)
	if r != tx.Success {
		return r
	}
	if acc == nil {
		return ctx.Fail(tx.RecordNotFound, "assign of missing account", zap.Stringer("account", key))
	}
	if acc.Owner == owner {
		return tx.Success
	}
	acc.Owner = owner
	return ctx.Store(key, acc)
}

func transfer(ctx *tx.ApplyContext, lamports uint64) tx.Result {
	if r := ctx.RequireAccounts(tx.RoleWritableSigner, tx.RoleWritable); r != tx.Success {
		return r
	}
	fromKey, toKey := ctx.Key(0), ctx.Key(1)

	from, r := debit(ctx, fromKey, lamports)
	if r != tx.Success {
		return r
	}
	if lamports == 0 || fromKey == toKey {
		return tx.Success
	}

	to, r := ctx.Load(toKey)
	if r != tx.Success {
		return r
	}
	if to == nil {
		to = &entry.Account{Owner: types.SystemProgramID}
	}
	if to.Lamports > math.MaxUint64-lamports {
		return ctx.Fail(tx.InvalidAmount, "destination balance overflow", zap.Stringer("account", toKey))
	}

	from.Lamports -= lamports
	to.Lamports += lamports
	if r := ctx.Store(fromKey, from); r != tx.Success {
		return r
	}
	return ctx.Store(toKey, to)
}

func allocate(ctx *tx.ApplyContext, space uint64) tx.Result {
	if r := ctx.RequireAccounts(tx.RoleWritableSigner); r != tx.Success {
		return r
	}
	key := ctx.Key(0)
	if space > MaxPermittedDataLength {
		return ctx.Fail(tx.InvalidAccountData, "space too large", zap.Uint64("space", space))
	}
	acc, r := ctx.Load(key)
	if r != tx.Success {
		return r
	}
	if acc == nil {
		return ctx.Fail(tx.RecordNotFound, "allocate of missing account", zap.Stringer("account", key))
	}
	if acc.Owner != types.SystemProgramID || len(acc.Data) != 0 {
		return ctx.Fail(tx.RecordAlreadyExists, "account already in use", zap.Stringer("account", key))
	}
	acc.Data = make([]byte, space)
	return ctx.Store(key, acc)
}
