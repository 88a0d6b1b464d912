// Package vault implements a per-user lamport vault: a program-owned state
// account plus a system-owned account at a derived address that only the
// program can sign for.
package vault

import (
	"go.uber.org/zap"

	binarycodec "github.com/LeJamon/goEscrowd/internal/codec/binary-codec"
	"github.com/LeJamon/goEscrowd/internal/core/ledger/keylet"
	"github.com/LeJamon/goEscrowd/internal/core/tx"
	"github.com/LeJamon/goEscrowd/internal/core/tx/system"
	crypto "github.com/LeJamon/goEscrowd/internal/crypto/common"
	"github.com/LeJamon/goEscrowd/internal/types"
)

// Instruction discriminators.
var (
	InitializeDiscriminator = crypto.Discriminator("global", "initialize")
	DepositDiscriminator    = crypto.Discriminator("global", "deposit")
	WithdrawDiscriminator   = crypto.Discriminator("global", "withdraw")
	CloseDiscriminator      = crypto.Discriminator("global", "close")
)

func init() {
	tx.Register(Program{})
}

// Program is the vault program.
type Program struct{}

func (Program) ProgramID() types.Pubkey { return types.VaultProgramID }

func (Program) Name() string { return "vault" }

// Process dispatches on the discriminator.
func (Program) Process(ctx *tx.ApplyContext) tx.Result {
	p := binarycodec.NewBinaryParser(ctx.Data)
	disc, err := p.ReadDiscriminator()
	if err != nil {
		return tx.MalformedInstruction
	}

	switch disc {
	case InitializeDiscriminator, CloseDiscriminator:
		if p.HasMore() {
			return tx.MalformedInstruction
		}
		if disc == InitializeDiscriminator {
			return initialize(ctx)
		}
		return closeVault(ctx)
	case DepositDiscriminator, WithdrawDiscriminator:
		amount, err := p.ReadU64()
		if err != nil || p.HasMore() {
			return tx.MalformedInstruction
		}
		if disc == DepositDiscriminator {
			return deposit(ctx, amount)
		}
		return withdraw(ctx, amount)
	default:
		return tx.MalformedInstruction
	}
}

func requireSystem(ctx *tx.ApplyContext, i int) tx.Result {
	if ctx.Key(i) != types.SystemProgramID {
		return ctx.Fail(tx.AccountRoleMismatch, "unexpected program account")
	}
	return tx.Success
}

// loadState checks stateKey is user's state account and vaultKey the
// vault it controls.
func loadState(ctx *tx.ApplyContext, user, stateKey, vaultKey types.Pubkey) (*State, tx.Result) {
	acc, r := ctx.Load(stateKey)
	if r != tx.Success {
		return nil, r
	}
	if acc == nil {
		return nil, ctx.Fail(tx.RecordNotFound, "vault not initialized", zap.Stringer("user", user))
	}
	if acc.Owner != types.VaultProgramID {
		return nil, ctx.Fail(tx.AccountOwnerMismatch, "state not owned by vault program")
	}
	st, err := UnpackState(acc.Data)
	if err != nil {
		return nil, ctx.Fail(tx.InvalidAccountData, "bad vault state", zap.Error(err))
	}
	want, err := keylet.CreateProgramAddress(keylet.WithBump(keylet.VaultStateSeeds(user), st.StateBump), types.VaultProgramID)
	if err != nil || want != stateKey {
		return nil, ctx.Fail(tx.AccountRoleMismatch, "state is not user's vault state", zap.Stringer("state", stateKey))
	}
	want, err = keylet.CreateProgramAddress(keylet.WithBump(keylet.LamportVaultSeeds(stateKey), st.VaultBump), types.VaultProgramID)
	if err != nil || want != vaultKey {
		return nil, ctx.Fail(tx.AccountRoleMismatch, "vault is not the state's vault", zap.Stringer("vault", vaultKey))
	}
	return st, tx.Success
}

func vaultAuthority(ctx *tx.ApplyContext, stateKey types.Pubkey, st *State) (tx.ProgramAuthority, tx.Result) {
	return ctx.ProveAuthority(keylet.WithBump(keylet.LamportVaultSeeds(stateKey), st.VaultBump)...)
}

// initialize creates the state account and funds the vault with the
// rent-exempt minimum so it exists from the start.
func initialize(ctx *tx.ApplyContext) tx.Result {
	if r := ctx.RequireAccounts(tx.RoleWritableSigner, tx.RoleWritable, tx.RoleWritable, tx.RoleReadonly); r != tx.Success {
		return r
	}
	user, stateKey, vaultKey := ctx.Key(0), ctx.Key(1), ctx.Key(2)
	if r := requireSystem(ctx, 3); r != tx.Success {
		return r
	}

	stateK, err := keylet.VaultState(user)
	if err != nil || stateK.Address != stateKey {
		return ctx.Fail(tx.AccountRoleMismatch, "state is not at the derived address", zap.Stringer("state", stateKey))
	}
	vaultK, err := keylet.LamportVault(stateKey)
	if err != nil || vaultK.Address != vaultKey {
		return ctx.Fail(tx.AccountRoleMismatch, "vault is not at the derived address", zap.Stringer("vault", vaultKey))
	}

	existing, r := ctx.Load(stateKey)
	if r != tx.Success {
		return r
	}
	if existing != nil && existing.Owner == types.VaultProgramID {
		return ctx.Fail(tx.RecordAlreadyExists, "vault already initialized", zap.Stringer("user", user))
	}

	proof, r := ctx.ProveAuthority(keylet.WithBump(keylet.VaultStateSeeds(user), stateK.Bump)...)
	if r != tx.Success {
		return r
	}
	if r := system.CreateDerived(ctx, user, stateKey, StateLen, types.VaultProgramID, proof); r != tx.Success {
		return r
	}
	acc, r := ctx.Load(stateKey)
	if r != tx.Success {
		return r
	}
	acc.Data = (&State{VaultBump: vaultK.Bump, StateBump: stateK.Bump}).Pack()
	if r := ctx.Store(stateKey, acc); r != tx.Success {
		return r
	}

	return ctx.Invoke(system.Transfer(user, vaultKey, ctx.Rent().MinimumBalance(0)))
}

func deposit(ctx *tx.ApplyContext, amount uint64) tx.Result {
	if r := ctx.RequireAccounts(tx.RoleWritableSigner, tx.RoleWritable, tx.RoleReadonly, tx.RoleReadonly); r != tx.Success {
		return r
	}
	user, vaultKey, stateKey := ctx.Key(0), ctx.Key(1), ctx.Key(2)
	if r := requireSystem(ctx, 3); r != tx.Success {
		return r
	}
	if amount == 0 {
		return ctx.Fail(tx.InvalidAmount, "deposit must be positive")
	}
	if _, r := loadState(ctx, user, stateKey, vaultKey); r != tx.Success {
		return r
	}
	return ctx.Invoke(system.Transfer(user, vaultKey, amount))
}

func withdraw(ctx *tx.ApplyContext, amount uint64) tx.Result {
	if r := ctx.RequireAccounts(tx.RoleWritableSigner, tx.RoleWritable, tx.RoleWritable, tx.RoleReadonly); r != tx.Success {
		return r
	}
	user, stateKey, vaultKey := ctx.Key(0), ctx.Key(1), ctx.Key(2)
	if r := requireSystem(ctx, 3); r != tx.Success {
		return r
	}
	if amount == 0 {
		return ctx.Fail(tx.InvalidAmount, "withdrawal must be positive")
	}
	st, r := loadState(ctx, user, stateKey, vaultKey)
	if r != tx.Success {
		return r
	}
	v, r := ctx.Load(vaultKey)
	if r != tx.Success {
		return r
	}
	if v == nil || v.Lamports < amount {
		return ctx.Fail(tx.InsufficientFunds, "vault balance too low", zap.Uint64("amount", amount))
	}
	proof, r := vaultAuthority(ctx, stateKey, st)
	if r != tx.Success {
		return r
	}
	return ctx.Invoke(system.Transfer(vaultKey, user, amount), proof)
}

// closeVault drains the vault to the user and closes the state account.
func closeVault(ctx *tx.ApplyContext) tx.Result {
	if r := ctx.RequireAccounts(tx.RoleWritableSigner, tx.RoleWritable, tx.RoleWritable, tx.RoleReadonly); r != tx.Success {
		return r
	}
	user, vaultKey, stateKey := ctx.Key(0), ctx.Key(1), ctx.Key(2)
	if r := requireSystem(ctx, 3); r != tx.Success {
		return r
	}
	st, r := loadState(ctx, user, stateKey, vaultKey)
	if r != tx.Success {
		return r
	}
	v, r := ctx.Load(vaultKey)
	if r != tx.Success {
		return r
	}
	if v != nil && v.Lamports > 0 {
		proof, r := vaultAuthority(ctx, stateKey, st)
		if r != tx.Success {
			return r
		}
		if r := ctx.Invoke(system.Transfer(vaultKey, user, v.Lamports), proof); r != tx.Success {
			return r
		}
	}
	return ctx.Close(stateKey, user)
}

// Initialize builds an initialize instruction for user.
func Initialize(user types.Pubkey) tx.Instruction {
	state, vault := addresses(user)
	return tx.Instruction{
		ProgramID: types.VaultProgramID,
		Accounts: []tx.AccountMeta{
			tx.WritableSigner(user),
			tx.Writable(state),
			tx.Writable(vault),
			tx.Readonly(types.SystemProgramID),
		},
		Data: append([]byte(nil), InitializeDiscriminator[:]...),
	}
}

// Deposit builds a deposit of amount lamports.
func Deposit(user types.Pubkey, amount uint64) tx.Instruction {
	state, vault := addresses(user)
	return tx.Instruction{
		ProgramID: types.VaultProgramID,
		Accounts: []tx.AccountMeta{
			tx.WritableSigner(user),
			tx.Writable(vault),
			tx.Readonly(state),
			tx.Readonly(types.SystemProgramID),
		},
		Data: binarycodec.NewBinarySerializer(16).WriteDiscriminator(DepositDiscriminator).WriteU64(amount).GetSink(),
	}
}

// Withdraw builds a withdrawal of amount lamports.
func Withdraw(user types.Pubkey, amount uint64) tx.Instruction {
	state, vault := addresses(user)
	return tx.Instruction{
		ProgramID: types.VaultProgramID,
		Accounts: []tx.AccountMeta{
			tx.WritableSigner(user),
			tx.Writable(state),
			tx.Writable(vault),
			tx.Readonly(types.SystemProgramID),
		},
		Data: binarycodec.NewBinarySerializer(16).WriteDiscriminator(WithdrawDiscriminator).WriteU64(amount).GetSink(),
	}
}

// Close builds a close instruction for user's vault.
func Close(user types.Pubkey) tx.Instruction {
	state, vault := addresses(user)
	return tx.Instruction{
		ProgramID: types.VaultProgramID,
		Accounts: []tx.AccountMeta{
			tx.WritableSigner(user),
			tx.Writable(vault),
			tx.Writable(state),
			tx.Readonly(types.SystemProgramID),
		},
		Data: append([]byte(nil), CloseDiscriminator[:]...),
	}
}

// addresses returns user's state and vault addresses.
func addresses(user types.Pubkey) (state, vault types.Pubkey) {
	s, err := keylet.VaultState(user)
	if err != nil {
		panic(err)
	}
	v, err := keylet.LamportVault(s.Address)
	if err != nil {
		panic(err)
	}
	return s.Address, v.Address
}
