package staking

import (
	"math"

	"go.uber.org/zap"

	"github.com/LeJamon/goEscrowd/internal/core/ledger/entry"
	"github.com/LeJamon/goEscrowd/internal/core/ledger/keylet"
	"github.com/LeJamon/goEscrowd/internal/core/tx"
	"github.com/LeJamon/goEscrowd/internal/core/tx/token"
	"github.com/LeJamon/goEscrowd/internal/types"
)

// stakeContext is the validated account list shared by stake and unstake.
type stakeContext struct {
	user, userKey, configKey, stakeKey, mint, holding types.Pubkey

	userAcc   *entry.Account
	u         *User
	configAcc *entry.Account
	cfg       *Config
	stakeK    keylet.Keylet
}

func loadStakeContext(ctx *tx.ApplyContext) (*stakeContext, tx.Result) {
	sc := &stakeContext{
		user:      ctx.Key(0),
		userKey:   ctx.Key(1),
		configKey: ctx.Key(2),
		stakeKey:  ctx.Key(3),
		mint:      ctx.Key(4),
		holding:   ctx.Key(5),
	}
	if ctx.Key(8) != types.SystemProgramID ||
		ctx.Key(9) != types.TokenProgramID ||
		ctx.Key(10) != types.AssociatedTokenProgramID ||
		ctx.Key(11) != types.MetadataProgramID {
		return nil, ctx.Fail(tx.AccountRoleMismatch, "unexpected program account")
	}

	checks := []struct {
		what string
		got  types.Pubkey
		k    func() (keylet.Keylet, error)
		dst  *keylet.Keylet
	}{
		{"user account", sc.userKey, func() (keylet.Keylet, error) { return keylet.StakeUser(sc.user) }, nil},
		{"stake config", sc.configKey, keylet.StakeConfig, nil},
		{"stake account", sc.stakeKey, func() (keylet.Keylet, error) { return keylet.StakeAccount(sc.mint) }, &sc.stakeK},
		{"nft holding account", sc.holding, func() (keylet.Keylet, error) { return keylet.AssociatedToken(sc.user, sc.mint) }, nil},
		{"metadata", ctx.Key(6), func() (keylet.Keylet, error) { return keylet.Metadata(sc.mint) }, nil},
		{"master edition", ctx.Key(7), func() (keylet.Keylet, error) { return keylet.MasterEdition(sc.mint) }, nil},
	}
	for _, c := range checks {
		k, err := c.k()
		if r := requireAddress(ctx, c.what, c.got, k, err); r != tx.Success {
			return nil, r
		}
		if c.dst != nil {
			*c.dst = k
		}
	}

	var r tx.Result
	if sc.configAcc, sc.cfg, r = loadOwned(ctx, "stake config", sc.configKey, UnpackConfig); r != tx.Success {
		return nil, r
	}
	if sc.userAcc, sc.u, r = loadOwned(ctx, "user account", sc.userKey, UnpackUser); r != tx.Success {
		return nil, r
	}
	if sc.u.Owner != sc.user {
		return nil, ctx.Fail(tx.UnauthorizedSigner, "user account belongs to someone else",
			zap.Stringer("signer", sc.user), zap.Stringer("owner", sc.u.Owner))
	}
	return sc, tx.Success
}

// save writes the user account and config back.
func (sc *stakeContext) save(ctx *tx.ApplyContext) tx.Result {
	if r := store(ctx, sc.userKey, sc.userAcc, sc.u.Pack()); r != tx.Success {
		return r
	}
	return store(ctx, sc.configKey, sc.configAcc, sc.cfg.Pack())
}

// stake delegates one unit of the NFT to the config address and records
// the stake.
func stake(ctx *tx.ApplyContext) tx.Result {
	sc, r := loadStakeContext(ctx)
	if r != tx.Success {
		return r
	}
	if sc.cfg.Paused {
		return ctx.Fail(tx.StakingPaused, "staking is paused")
	}
	if sc.u.TotalStaked >= MaxNFTsPerUser {
		return ctx.Fail(tx.StakeLimitReached, "stake limit reached",
			zap.Stringer("user", sc.user), zap.Uint64("staked", sc.u.TotalStaked))
	}
	if r := requireMint(ctx, sc.mint); r != tx.Success {
		return r
	}

	acc, r := ctx.Load(sc.holding)
	if r != tx.Success {
		return r
	}
	if acc == nil {
		return ctx.Fail(tx.RecordNotFound, "no nft holding account", zap.Stringer("account", sc.holding))
	}
	if acc.Owner != types.TokenProgramID {
		return ctx.Fail(tx.AccountOwnerMismatch, "holding account not owned by token program")
	}
	h, err := token.UnpackAccount(acc.Data)
	if err != nil {
		return ctx.Fail(tx.InvalidAccountData, "bad holding account", zap.Error(err))
	}
	if h.Amount != 1 {
		return ctx.Fail(tx.AccountOwnerMismatch, "user does not hold the nft",
			zap.Stringer("mint", sc.mint), zap.Uint64("amount", h.Amount))
	}
	if r := requireVacant(ctx, "stake account", sc.stakeKey); r != tx.Success {
		return r
	}

	if r := ctx.Invoke(token.Approve(sc.holding, sc.configKey, sc.user, 1)); r != tx.Success {
		return r
	}
	now := ctx.UnixTime()
	rec := &StakeRecord{
		Owner:         sc.user,
		Mint:          sc.mint,
		StakeTime:     now,
		LastClaimTime: now,
		Staked:        true,
		Bump:          sc.stakeK.Bump,
	}
	if r := create(ctx, sc.user, sc.stakeK, keylet.StakeAccountSeeds(sc.mint), rec.Pack()); r != tx.Success {
		return r
	}

	sc.u.TotalStaked++
	sc.cfg.TotalStaked++
	return sc.save(ctx)
}

// unstake revokes the delegation, credits points for every full day
// staked and closes the stake account.
func unstake(ctx *tx.ApplyContext) tx.Result {
	sc, r := loadStakeContext(ctx)
	if r != tx.Success {
		return r
	}
	_, rec, r := loadOwned(ctx, "stake account", sc.stakeKey, UnpackStake)
	if r != tx.Success {
		return r
	}
	if rec.Owner != sc.user {
		return ctx.Fail(tx.UnauthorizedSigner, "nft staked by someone else",
			zap.Stringer("signer", sc.user), zap.Stringer("owner", rec.Owner))
	}
	if !rec.Staked {
		return ctx.Fail(tx.RecordNotFound, "nft is not staked", zap.Stringer("mint", sc.mint))
	}

	now := ctx.UnixTime()
	held := now - rec.StakeTime
	if held < MinStakeDuration {
		return ctx.Fail(tx.StakeLocked, "minimum stake duration not met",
			zap.Int64("held", held), zap.Int64("minimum", MinStakeDuration))
	}
	points := earned(uint64(held/secondsPerDay), sc.cfg.RewardRate)
	if points > math.MaxUint64-sc.u.RewardClaimed {
		return ctx.Fail(tx.InvalidAmount, "reward overflow", zap.Stringer("user", sc.user))
	}

	if r := ctx.Invoke(token.Revoke(sc.holding, sc.user)); r != tx.Success {
		return r
	}

	sc.u.RewardClaimed += points
	sc.u.LastClaimTime = now
	if sc.u.TotalStaked > 0 {
		sc.u.TotalStaked--
	}
	if sc.cfg.TotalStaked > 0 {
		sc.cfg.TotalStaked--
	}
	if r := sc.save(ctx); r != tx.Success {
		return r
	}
	ctx.Logger.Debug("unstaked",
		zap.Stringer("user", sc.user), zap.Stringer("mint", sc.mint), zap.Uint64("points", points))
	return ctx.Close(sc.stakeKey, sc.user)
}

// earned is days times rate, saturating.
func earned(days, rate uint64) uint64 {
	if rate != 0 && days > math.MaxUint64/rate {
		return math.MaxUint64
	}
	return days * rate
}
