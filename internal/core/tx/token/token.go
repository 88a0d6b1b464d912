// Package token implements the asset program: mints, holding accounts and
// the transfers between them.
package token

import (
	"math"

	"go.uber.org/zap"

	binarycodec "github.com/LeJamon/goEscrowd/internal/codec/binary-codec"
	"github.com/LeJamon/goEscrowd/internal/core/ledger/entry"
	"github.com/LeJamon/goEscrowd/internal/core/tx"
	"github.com/LeJamon/goEscrowd/internal/types"
)

func init() {
	tx.Register(Program{})
}

// Program is the asset program.
type Program struct{}

func (Program) ProgramID() types.Pubkey { return types.TokenProgramID }

func (Program) Name() string { return "token" }

// Process decodes the one-byte tag and dispatches.
func (Program) Process(ctx *tx.ApplyContext) tx.Result {
	parser := binarycodec.NewBinaryParser(ctx.Data)
	tag, err := parser.ReadByte()
	if err != nil {
		return tx.MalformedInstruction
	}

	switch tag {
	case InstructionInitializeMint2:
		decimals, err1 := parser.ReadByte()
		authority, err2 := parser.ReadKey()
		hasFreeze, err3 := parser.ReadBool()
		if err1 != nil || err2 != nil || err3 != nil {
			return tx.MalformedInstruction
		}
		var freeze *types.Pubkey
		if hasFreeze {
			k, err := parser.ReadKey()
			if err != nil {
				return tx.MalformedInstruction
			}
			fk := types.Pubkey(k)
			freeze = &fk
		}
		if parser.HasMore() {
			return tx.MalformedInstruction
		}
		return initializeMint(ctx, decimals, types.Pubkey(authority), freeze)
	case InstructionInitializeAccount3:
		owner, err := parser.ReadKey()
		if err != nil || parser.HasMore() {
			return tx.MalformedInstruction
		}
		return initializeAccount(ctx, types.Pubkey(owner))
	case InstructionRevoke:
		if parser.HasMore() {
			return tx.MalformedInstruction
		}
		return revoke(ctx)
	case InstructionCloseAccount:
		if parser.HasMore() {
			return tx.MalformedInstruction
		}
		return closeAccount(ctx)
	case InstructionMintTo, InstructionTransfer, InstructionApprove, InstructionBurn:
		amount, err := parser.ReadU64()
		if err != nil || parser.HasMore() {
			return tx.MalformedInstruction
		}
		switch tag {
		case InstructionMintTo:
			return mintTo(ctx, amount)
		case InstructionTransfer:
			return transfer(ctx, amount)
		case InstructionApprove:
			return approve(ctx, amount)
		default:
			return burn(ctx, amount)
		}
	default:
		return tx.MalformedInstruction
	}
}

func loadOwned(ctx *tx.ApplyContext, key types.Pubkey) (*entry.Account, tx.Result) {
	acc, r := ctx.Load(key)
	if r != tx.Success {
		return nil, r
	}
	if acc == nil {
		return nil, ctx.Fail(tx.InvalidAccountData, "account missing", zap.Stringer("account", key))
	}
	if acc.Owner != types.TokenProgramID {
		return nil, ctx.Fail(tx.AccountOwnerMismatch, "account not owned by token program", zap.Stringer("account", key))
	}
	return acc, tx.Success
}

func loadMint(ctx *tx.ApplyContext, key types.Pubkey) (*entry.Account, *Mint, tx.Result) {
	acc, r := loadOwned(ctx, key)
	if r != tx.Success {
		return nil, nil, r
	}
	mint, err := UnpackMint(acc.Data)
	if err != nil {
		return nil, nil, ctx.Fail(tx.InvalidAccountData, "bad mint", zap.Stringer("mint", key), zap.Error(err))
	}
	return acc, mint, tx.Success
}

func loadHolding(ctx *tx.ApplyContext, key types.Pubkey) (*entry.Account, *Account, tx.Result) {
	acc, r := loadOwned(ctx, key)
	if r != tx.Success {
		return nil, nil, r
	}
	holding, err := UnpackAccount(acc.Data)
	if err != nil {
		return nil, nil, ctx.Fail(tx.InvalidAccountData, "bad holding account", zap.Stringer("account", key), zap.Error(err))
	}
	return acc, holding, tx.Success
}

// authorize checks that authority may move amount out of h and consumes
// the delegated allowance when a delegate signs.
func authorize(ctx *tx.ApplyContext, h *Account, authority types.Pubkey, amount uint64) tx.Result {
	if authority == h.Owner {
		return tx.Success
	}
	if h.Delegate != nil && *h.Delegate == authority {
		if h.DelegatedAmount < amount {
			return ctx.Fail(tx.InsufficientFunds, "delegated allowance too low",
				zap.Uint64("allowance", h.DelegatedAmount), zap.Uint64("amount", amount))
		}
		h.DelegatedAmount -= amount
		if h.DelegatedAmount == 0 {
			h.Delegate = nil
		}
		return tx.Success
	}
	return ctx.Fail(tx.UnauthorizedSigner, "authority is neither owner nor delegate", zap.Stringer("authority", authority))
}

func initializeMint(ctx *tx.ApplyContext, decimals uint8, authority types.Pubkey, freeze *types.Pubkey) tx.Result {
	if r := ctx.RequireAccounts(tx.RoleWritable); r != tx.Success {
		return r
	}
	key := ctx.Key(0)
	acc, r := loadOwned(ctx, key)
	if r != tx.Success {
		return r
	}
	if len(acc.Data) != MintLen {
		return ctx.Fail(tx.InvalidAccountData, "mint has wrong size", zap.Int("size", len(acc.Data)))
	}
	if _, err := UnpackMint(acc.Data); err == nil {
		return ctx.Fail(tx.RecordAlreadyExists, "mint already initialized", zap.Stringer("mint", key))
	}
	if !ctx.Rent().IsExempt(acc.Lamports, MintLen) {
		return ctx.Fail(tx.InsufficientFunds, "mint not rent exempt", zap.Stringer("mint", key))
	}

	m := &Mint{MintAuthority: &authority, Decimals: decimals, IsInitialized: true, FreezeAuthority: freeze}
	acc.Data = m.Pack()
	return ctx.Store(key, acc)
}

func initializeAccount(ctx *tx.ApplyContext, owner types.Pubkey) tx.Result {
	if r := ctx.RequireAccounts(tx.RoleWritable, tx.RoleReadonly); r != tx.Success {
		return r
	}
	key, mintKey := ctx.Key(0), ctx.Key(1)
	acc, r := loadOwned(ctx, key)
	if r != tx.Success {
		return r
	}
	if len(acc.Data) != AccountLen {
		return ctx.Fail(tx.InvalidAccountData, "holding account has wrong size", zap.Int("size", len(acc.Data)))
	}
	if _, err := UnpackAccount(acc.Data); err == nil {
		return ctx.Fail(tx.RecordAlreadyExists, "holding account already initialized", zap.Stringer("account", key))
	}
	if _, _, r := loadMint(ctx, mintKey); r != tx.Success {
		return r
	}
	if !ctx.Rent().IsExempt(acc.Lamports, AccountLen) {
		return ctx.Fail(tx.InsufficientFunds, "holding account not rent exempt", zap.Stringer("account", key))
	}

	h := &Account{Mint: mintKey, Owner: owner, State: AccountInitialized}
	acc.Data = h.Pack()
	return ctx.Store(key, acc)
}

func mintTo(ctx *tx.ApplyContext, amount uint64) tx.Result {
	if r := ctx.RequireAccounts(tx.RoleWritable, tx.RoleWritable, tx.RoleReadonlySigner); r != tx.Success {
		return r
	}
	mintKey, destKey, authority := ctx.Key(0), ctx.Key(1), ctx.Key(2)

	mintAcc, mint, r := loadMint(ctx, mintKey)
	if r != tx.Success {
		return r
	}
	if mint.MintAuthority == nil || *mint.MintAuthority != authority {
		return ctx.Fail(tx.UnauthorizedSigner, "not the mint authority", zap.Stringer("authority", authority))
	}
	destAcc, dest, r := loadHolding(ctx, destKey)
	if r != tx.Success {
		return r
	}
	if dest.Mint != mintKey {
		return ctx.Fail(tx.InvalidAccountData, "destination holds another mint", zap.Stringer("account", destKey))
	}
	if dest.State == AccountFrozen {
		return ctx.Fail(tx.InvalidAccountData, "destination frozen", zap.Stringer("account", destKey))
	}
	if mint.Supply > math.MaxUint64-amount || dest.Amount > math.MaxUint64-amount {
		return ctx.Fail(tx.InvalidAmount, "supply overflow", zap.Uint64("amount", amount))
	}

	mint.Supply += amount
	dest.Amount += amount
	mintAcc.Data = mint.Pack()
	destAcc.Data = dest.Pack()
	if r := ctx.Store(mintKey, mintAcc); r != tx.Success {
		return r
	}
	return ctx.Store(destKey, destAcc)
}

func transfer(ctx *tx.ApplyContext, amount uint64) tx.Result {
	if r := ctx.RequireAccounts(tx.RoleWritable, tx.RoleWritable, tx.RoleReadonlySigner); r != tx.Success {
		return r
	}
	srcKey, destKey, authority := ctx.Key(0), ctx.Key(1), ctx.Key(2)

	srcAcc, src, r := loadHolding(ctx, srcKey)
	if r != tx.Success {
		return r
	}
	destAcc, dest, r := loadHolding(ctx, destKey)
	if r != tx.Success {
		return r
	}
	if src.Mint != dest.Mint {
		return ctx.Fail(tx.InvalidAccountData, "mint mismatch", zap.Stringer("source", srcKey), zap.Stringer("dest", destKey))
	}
	if src.State == AccountFrozen || dest.State == AccountFrozen {
		return ctx.Fail(tx.InvalidAccountData, "account frozen")
	}
	if src.Amount < amount {
		return ctx.Fail(tx.InsufficientFunds, "source balance too low",
			zap.Uint64("balance", src.Amount), zap.Uint64("amount", amount))
	}
	if r := authorize(ctx, src, authority, amount); r != tx.Success {
		return r
	}
	if srcKey == destKey {
		srcAcc.Data = src.Pack()
		return ctx.Store(srcKey, srcAcc)
	}
	if dest.Amount > math.MaxUint64-amount {
		return ctx.Fail(tx.InvalidAmount, "destination balance overflow", zap.Stringer("account", destKey))
	}

	src.Amount -= amount
	srcAcc.Data = src.Pack()
	if r := ctx.Store(srcKey, srcAcc); r != tx.Success {
		return r
	}
	dest.Amount += amount
	destAcc.Data = dest.Pack()
	return ctx.Store(destKey, destAcc)
}

func approve(ctx *tx.ApplyContext, amount uint64) tx.Result {
	if r := ctx.RequireAccounts(tx.RoleWritable, tx.RoleReadonly, tx.RoleReadonlySigner); r != tx.Success {
		return r
	}
	srcKey, delegate, owner := ctx.Key(0), ctx.Key(1), ctx.Key(2)
	acc, h, r := loadHolding(ctx, srcKey)
	if r != tx.Success {
		return r
	}
	if h.Owner != owner {
		return ctx.Fail(tx.UnauthorizedSigner, "only the owner approves", zap.Stringer("owner", owner))
	}
	h.Delegate = &delegate
	h.DelegatedAmount = amount
	acc.Data = h.Pack()
	return ctx.Store(srcKey, acc)
}

func revoke(ctx *tx.ApplyContext) tx.Result {
	if r := ctx.RequireAccounts(tx.RoleWritable, tx.RoleReadonlySigner); r != tx.Success {
		return r
	}
	srcKey, owner := ctx.Key(0), ctx.Key(1)
	acc, h, r := loadHolding(ctx, srcKey)
	if r != tx.Success {
		return r
	}
	if h.Owner != owner {
		return ctx.Fail(tx.UnauthorizedSigner, "only the owner revokes", zap.Stringer("owner", owner))
	}
	h.Delegate = nil
	h.DelegatedAmount = 0
	acc.Data = h.Pack()
	return ctx.Store(srcKey, acc)
}

func burn(ctx *tx.ApplyContext, amount uint64) tx.Result {
	if r := ctx.RequireAccounts(tx.RoleWritable, tx.RoleWritable, tx.RoleReadonlySigner); r != tx.Success {
		return r
	}
	key, mintKey, authority := ctx.Key(0), ctx.Key(1), ctx.Key(2)

	acc, h, r := loadHolding(ctx, key)
	if r != tx.Success {
		return r
	}
	mintAcc, mint, r := loadMint(ctx, mintKey)
	if r != tx.Success {
		return r
	}
	if h.Mint != mintKey {
		return ctx.Fail(tx.InvalidAccountData, "mint mismatch", zap.Stringer("account", key))
	}
	if h.State == AccountFrozen {
		return ctx.Fail(tx.InvalidAccountData, "account frozen", zap.Stringer("account", key))
	}
	if h.Amount < amount {
		return ctx.Fail(tx.InsufficientFunds, "balance too low to burn",
			zap.Uint64("balance", h.Amount), zap.Uint64("amount", amount))
	}
	if r := authorize(ctx, h, authority, amount); r != tx.Success {
		return r
	}

	h.Amount -= amount
	mint.Supply -= amount
	acc.Data = h.Pack()
	mintAcc.Data = mint.Pack()
	if r := ctx.Store(key, acc); r != tx.Success {
		return r
	}
	return ctx.Store(mintKey, mintAcc)
}

func closeAccount(ctx *tx.ApplyContext) tx.Result {
	if r := ctx.RequireAccounts(tx.RoleWritable, tx.RoleWritable, tx.RoleReadonlySigner); r != tx.Success {
		return r
	}
	key, destKey, authority := ctx.Key(0), ctx.Key(1), ctx.Key(2)

	_, h, r := loadHolding(ctx, key)
	if r != tx.Success {
		return r
	}
	if h.IsNative == nil && h.Amount != 0 {
		return ctx.Fail(tx.InvalidAccountData, "cannot close account with balance",
			zap.Stringer("account", key), zap.Uint64("balance", h.Amount))
	}
	allowed := h.Owner
	if h.CloseAuthority != nil {
		allowed = *h.CloseAuthority
	}
	if authority != allowed {
		return ctx.Fail(tx.UnauthorizedSigner, "not the close authority", zap.Stringer("authority", authority))
	}
	return ctx.Close(key, destKey)
}
