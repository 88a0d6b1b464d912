// Package staking implements NFT staking. A staker keeps the NFT in their
// own holding account and delegates it to the program's config address;
// unstaking after the minimum duration revokes the delegation and credits
// points for every full day staked.
package staking

import (
	"go.uber.org/zap"

	"github.com/LeJamon/goEscrowd/internal/core/ledger/entry"
	"github.com/LeJamon/goEscrowd/internal/core/ledger/keylet"
	"github.com/LeJamon/goEscrowd/internal/core/tx"
	"github.com/LeJamon/goEscrowd/internal/core/tx/system"
	"github.com/LeJamon/goEscrowd/internal/core/tx/token"
	"github.com/LeJamon/goEscrowd/internal/types"
)

const (
	// MaxNFTsPerUser caps the NFTs one user may have staked at once.
	MaxNFTsPerUser = 10

	// MinStakeDuration is how long, in seconds, an NFT stays staked before
	// it can be unstaked.
	MinStakeDuration = int64(86400)

	secondsPerDay = int64(86400)
)

func init() {
	tx.Register(Program{})
}

// Program is the staking program.
type Program struct{}

func (Program) ProgramID() types.Pubkey { return types.StakingProgramID }

func (Program) Name() string { return "staking" }

// Process decodes the instruction, checks its account list and dispatches.
func (Program) Process(ctx *tx.ApplyContext) tx.Result {
	d, err := decode(ctx.Data)
	if err != nil {
		return ctx.Fail(tx.MalformedInstruction, "undecodable staking instruction", zap.Error(err))
	}

	switch d.disc {
	case InitConfigDiscriminator:
		if r := ctx.RequireAccounts(initConfigRoles...); r != tx.Success {
			return r
		}
		return initConfig(ctx, d.rewardRate)
	case InitUserDiscriminator:
		if r := ctx.RequireAccounts(initUserRoles...); r != tx.Success {
			return r
		}
		return initUser(ctx)
	case SetPausedDiscriminator:
		if r := ctx.RequireAccounts(setPausedRoles...); r != tx.Success {
			return r
		}
		return setPaused(ctx, d.paused)
	case StakeDiscriminator:
		if r := ctx.RequireAccounts(stakeRoles...); r != tx.Success {
			return r
		}
		return stake(ctx)
	default:
		if r := ctx.RequireAccounts(stakeRoles...); r != tx.Success {
			return r
		}
		return unstake(ctx)
	}
}

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

// loadOwned reads a staking account at key and decodes it with parse.
func loadOwned[T any](ctx *tx.ApplyContext, what string, key types.Pubkey, parse func([]byte) (T, error)) (*entry.Account, T, tx.Result) {
	var zero T
	acc, r := ctx.Load(key)
	if r != tx.Success {
		return nil, zero, r
	}
	if acc == nil {
		return nil, zero, ctx.Fail(tx.RecordNotFound, what+" missing", zap.Stringer("account", key))
	}
	if acc.Owner != types.StakingProgramID {
		return nil, zero, ctx.Fail(tx.AccountOwnerMismatch, what+" not owned by staking program", zap.Stringer("account", key))
	}
	v, err := parse(acc.Data)
	if err != nil {
		return nil, zero, ctx.Fail(tx.InvalidAccountData, "bad "+what, zap.Stringer("account", key), zap.Error(err))
	}
	return acc, v, tx.Success
}

// requireVacant fails if a staking account already lives at key.
func requireVacant(ctx *tx.ApplyContext, what string, key types.Pubkey) tx.Result {
	existing, r := ctx.Load(key)
	if r != tx.Success {
		return r
	}
	if existing != nil && existing.Owner == types.StakingProgramID {
		return ctx.Fail(tx.RecordAlreadyExists, what+" already exists", zap.Stringer("account", key))
	}
	return tx.Success
}

// create allocates the derived account k (seeds without bump) paid by payer
// and writes data into it.
func create(ctx *tx.ApplyContext, payer types.Pubkey, k keylet.Keylet, seeds [][]byte, data []byte) tx.Result {
	proof, r := ctx.ProveAuthority(keylet.WithBump(seeds, k.Bump)...)
	if r != tx.Success {
		return r
	}
	if r := system.CreateDerived(ctx, payer, k.Address, len(data), types.StakingProgramID, proof); r != tx.Success {
		return r
	}
	acc, r := ctx.Load(k.Address)
	if r != tx.Success {
		return r
	}
	acc.Data = data
	return ctx.Store(k.Address, acc)
}

// store writes packed data back into acc.
func store(ctx *tx.ApplyContext, key types.Pubkey, acc *entry.Account, data []byte) tx.Result {
	acc.Data = data
	return ctx.Store(key, acc)
}
