package staking

import (
	"go.uber.org/zap"

	"github.com/LeJamon/goEscrowd/internal/core/ledger/keylet"
	"github.com/LeJamon/goEscrowd/internal/core/tx"
	"github.com/LeJamon/goEscrowd/internal/types"
)

func initConfig(ctx *tx.ApplyContext, rewardRate uint64) tx.Result {
	authority, configKey, rewardMint, collection := ctx.Key(0), ctx.Key(1), ctx.Key(2), ctx.Key(3)
	if ctx.Key(4) != types.SystemProgramID {
		return ctx.Fail(tx.AccountRoleMismatch, "unexpected program account")
	}
	k, err := keylet.StakeConfig()
	if r := requireAddress(ctx, "stake config", configKey, k, err); r != tx.Success {
		return r
	}
	if r := requireVacant(ctx, "stake config", configKey); r != tx.Success {
		return r
	}
	for _, mint := range []types.Pubkey{rewardMint, collection} {
		if r := requireMint(ctx, mint); r != tx.Success {
			return r
		}
	}

	cfg := &Config{
		Authority:  authority,
		RewardMint: rewardMint,
		Collection: collection,
		RewardRate: rewardRate,
		Bump:       k.Bump,
	}
	return create(ctx, authority, k, keylet.StakeConfigSeeds(), cfg.Pack())
}

func initUser(ctx *tx.ApplyContext) tx.Result {
	user, userKey := ctx.Key(0), ctx.Key(1)
	if ctx.Key(2) != types.SystemProgramID {
		return ctx.Fail(tx.AccountRoleMismatch, "unexpected program account")
	}
	k, err := keylet.StakeUser(user)
	if r := requireAddress(ctx, "user account", userKey, k, err); r != tx.Success {
		return r
	}
	if r := requireVacant(ctx, "user account", userKey); r != tx.Success {
		return r
	}

	u := &User{Owner: user, LastClaimTime: ctx.UnixTime(), Bump: k.Bump}
	return create(ctx, user, k, keylet.StakeUserSeeds(user), u.Pack())
}

func setPaused(ctx *tx.ApplyContext, paused bool) tx.Result {
	authority, configKey := ctx.Key(0), ctx.Key(1)
	k, err := keylet.StakeConfig()
	if r := requireAddress(ctx, "stake config", configKey, k, err); r != tx.Success {
		return r
	}
	acc, cfg, r := loadOwned(ctx, "stake config", configKey, UnpackConfig)
	if r != tx.Success {
		return r
	}
	if cfg.Authority != authority {
		return ctx.Fail(tx.UnauthorizedSigner, "only the config authority pauses staking",
			zap.Stringer("signer", authority), zap.Stringer("authority", cfg.Authority))
	}
	cfg.Paused = paused
	return store(ctx, configKey, acc, cfg.Pack())
}
