package staking_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goEscrowd/internal/core/ledger/keylet"
	"github.com/LeJamon/goEscrowd/internal/core/tx"
	"github.com/LeJamon/goEscrowd/internal/core/tx/staking"
	jtx "github.com/LeJamon/goEscrowd/internal/testing"
	"github.com/LeJamon/goEscrowd/internal/types"
)

const rewardRate = 10

type fixture struct {
	env       *jtx.TestEnv
	admin     *jtx.Account
	alice     *jtx.Account
	configKey types.Pubkey
}

// setup creates the staking config and alice's user account.
func setup(t *testing.T) *fixture {
	t.Helper()
	env := jtx.NewTestEnv(t)
	admin := jtx.NewAccount("admin")
	alice := jtx.NewAccount("alice")
	env.Fund(admin, alice)

	reward := env.CreateMint("REWARD", admin, 6)
	collection := env.CreateMint("COLLECTION", admin, 0)
	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{admin},
		staking.InitConfig(admin.Pubkey, reward.Pubkey, collection.Pubkey, rewardRate)))
	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{alice}, staking.InitUser(alice.Pubkey)))

	k, err := keylet.StakeConfig()
	require.NoError(t, err)
	return &fixture{env: env, admin: admin, alice: alice, configKey: k.Address}
}

// nft mints a fresh single-unit token to owner.
func (f *fixture) nft(name string, owner *jtx.Account) *jtx.Account {
	mint := f.env.CreateMint(name, f.admin, 0)
	f.env.MintTo(mint, f.admin, owner, 1)
	return mint
}

func (f *fixture) config(t *testing.T) *staking.Config {
	t.Helper()
	acc := f.env.Account(f.configKey)
	require.NotNil(t, acc)
	cfg, err := staking.UnpackConfig(acc.Data)
	require.NoError(t, err)
	return cfg
}

func (f *fixture) user(t *testing.T, owner *jtx.Account) *staking.User {
	t.Helper()
	k, err := keylet.StakeUser(owner.Pubkey)
	require.NoError(t, err)
	acc := f.env.Account(k.Address)
	require.NotNil(t, acc)
	u, err := staking.UnpackUser(acc.Data)
	require.NoError(t, err)
	return u
}

func stakeKey(t *testing.T, mint *jtx.Account) types.Pubkey {
	t.Helper()
	k, err := keylet.StakeAccount(mint.Pubkey)
	require.NoError(t, err)
	return k.Address
}

func TestLifecycle(t *testing.T) {
	f := setup(t)
	env, alice := f.env, f.alice
	total := env.TotalLamports()
	start := env.Now().Unix()

	cfg := f.config(t)
	assert.Equal(t, f.admin.Pubkey, cfg.Authority)
	assert.Equal(t, uint64(rewardRate), cfg.RewardRate)
	assert.False(t, cfg.Paused)
	assert.Equal(t, start, f.user(t, alice).LastClaimTime)

	mint := f.nft("NFT", alice)
	holding := env.ATA(alice.Pubkey, mint.Pubkey)
	before := env.Balance(alice)

	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{alice}, staking.Stake(alice.Pubkey, mint.Pubkey)))

	h := env.TokenAccount(holding)
	require.NotNil(t, h.Delegate)
	assert.Equal(t, f.configKey, *h.Delegate)
	assert.Equal(t, uint64(1), h.DelegatedAmount)
	assert.Equal(t, uint64(1), h.Amount)

	recAcc := env.Account(stakeKey(t, mint))
	require.NotNil(t, recAcc)
	assert.Equal(t, types.StakingProgramID, recAcc.Owner)
	assert.Equal(t, env.Rent(staking.StakeLen), recAcc.Lamports)
	rec, err := staking.UnpackStake(recAcc.Data)
	require.NoError(t, err)
	assert.Equal(t, alice.Pubkey, rec.Owner)
	assert.Equal(t, mint.Pubkey, rec.Mint)
	assert.Equal(t, start, rec.StakeTime)
	assert.True(t, rec.Staked)
	assert.Equal(t, uint64(1), f.user(t, alice).TotalStaked)
	assert.Equal(t, uint64(1), f.config(t).TotalStaked)
	jtx.RequireBalance(t, env, alice, before-env.Rent(staking.StakeLen))

	env.Advance(3*24*time.Hour + time.Hour)
	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{alice}, staking.Unstake(alice.Pubkey, mint.Pubkey)))

	h = env.TokenAccount(holding)
	assert.Nil(t, h.Delegate)
	assert.Zero(t, h.DelegatedAmount)
	assert.Equal(t, uint64(1), h.Amount)
	jtx.RequireNotExists(t, env, stakeKey(t, mint))

	u := f.user(t, alice)
	assert.Equal(t, uint64(3*rewardRate), u.RewardClaimed)
	assert.Zero(t, u.TotalStaked)
	assert.Equal(t, env.Now().Unix(), u.LastClaimTime)
	assert.Zero(t, f.config(t).TotalStaked)
	jtx.RequireBalance(t, env, alice, before)
	jtx.RequireConserved(t, env, total)
}

func TestUnstakeHonoursMinimumDuration(t *testing.T) {
	f := setup(t)
	env, alice := f.env, f.alice
	mint := f.nft("NFT", alice)
	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{alice}, staking.Stake(alice.Pubkey, mint.Pubkey)))

	unstake := staking.Unstake(alice.Pubkey, mint.Pubkey)
	jtx.RequireTxFail(t, env.Submit([]*jtx.Account{alice}, unstake), tx.StakeLocked)

	env.Advance(time.Duration(staking.MinStakeDuration-1) * time.Second)
	jtx.RequireTxFail(t, env.Submit([]*jtx.Account{alice}, unstake), tx.StakeLocked)
	jtx.RequireExists(t, env, stakeKey(t, mint))
	require.NotNil(t, env.TokenAccount(env.ATA(alice.Pubkey, mint.Pubkey)).Delegate)

	env.Advance(time.Second)
	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{alice}, unstake))
	assert.Equal(t, uint64(rewardRate), f.user(t, alice).RewardClaimed)
}

func TestStakeLimit(t *testing.T) {
	f := setup(t)
	env, alice := f.env, f.alice

	for i := 0; i < staking.MaxNFTsPerUser; i++ {
		mint := f.nft(fmt.Sprintf("NFT-%d", i), alice)
		jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{alice}, staking.Stake(alice.Pubkey, mint.Pubkey)))
	}
	assert.Equal(t, uint64(staking.MaxNFTsPerUser), f.user(t, alice).TotalStaked)

	extra := f.nft("EXTRA", alice)
	jtx.RequireTxFail(t, env.Submit([]*jtx.Account{alice}, staking.Stake(alice.Pubkey, extra.Pubkey)), tx.StakeLimitReached)
	jtx.RequireNotExists(t, env, stakeKey(t, extra))
	assert.Nil(t, env.TokenAccount(env.ATA(alice.Pubkey, extra.Pubkey)).Delegate)
}

func TestPause(t *testing.T) {
	f := setup(t)
	env, alice := f.env, f.alice
	mint := f.nft("NFT", alice)

	jtx.RequireTxFail(t, env.Submit([]*jtx.Account{alice}, staking.SetPaused(alice.Pubkey, true)), tx.UnauthorizedSigner)
	assert.False(t, f.config(t).Paused)

	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{f.admin}, staking.SetPaused(f.admin.Pubkey, true)))
	assert.True(t, f.config(t).Paused)
	jtx.RequireTxFail(t, env.Submit([]*jtx.Account{alice}, staking.Stake(alice.Pubkey, mint.Pubkey)), tx.StakingPaused)

	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{f.admin}, staking.SetPaused(f.admin.Pubkey, false)))
	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{alice}, staking.Stake(alice.Pubkey, mint.Pubkey)))
}

func TestInitTwice(t *testing.T) {
	f := setup(t)
	env, alice := f.env, f.alice
	cfg := f.config(t)

	jtx.RequireTxFail(t, env.Submit([]*jtx.Account{alice},
		staking.InitConfig(alice.Pubkey, cfg.RewardMint, cfg.Collection, 1)), tx.RecordAlreadyExists)
	jtx.RequireTxFail(t, env.Submit([]*jtx.Account{alice}, staking.InitUser(alice.Pubkey)), tx.RecordAlreadyExists)
	assert.Equal(t, f.admin.Pubkey, f.config(t).Authority)
}

func TestRejections(t *testing.T) {
	f := setup(t)
	env, alice := f.env, f.alice
	bob := jtx.NewAccount("bob")
	carol := jtx.NewAccount("carol")
	env.Fund(bob, carol)
	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{bob}, staking.InitUser(bob.Pubkey)))

	staked := f.nft("STAKED", alice)
	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{alice}, staking.Stake(alice.Pubkey, staked.Pubkey)))
	env.Advance(48 * time.Hour)

	unheld := env.CreateMint("UNHELD", f.admin, 0)
	double := env.CreateMint("DOUBLE", f.admin, 0)
	env.MintTo(double, f.admin, alice, 2)
	idle := f.nft("IDLE", alice)
	fresh := f.nft("FRESH", carol)

	badMetadata := staking.Stake(alice.Pubkey, idle.Pubkey)
	badMetadata.Accounts[6].Pubkey = types.Pubkey{9}
	badProgram := staking.Stake(alice.Pubkey, idle.Pubkey)
	badProgram.Accounts[11].Pubkey = types.TokenProgramID
	foreignUser := staking.Stake(bob.Pubkey, idle.Pubkey)
	foreignUser.Accounts[1] = staking.Stake(alice.Pubkey, idle.Pubkey).Accounts[1]

	tests := []struct {
		name     string
		signer   *jtx.Account
		ix       tx.Instruction
		expected tx.Result
	}{
		{"stake without user account", carol, staking.Stake(carol.Pubkey, fresh.Pubkey), tx.RecordNotFound},
		{"stake without holding", alice, staking.Stake(alice.Pubkey, unheld.Pubkey), tx.RecordNotFound},
		{"stake fungible amount", alice, staking.Stake(alice.Pubkey, double.Pubkey), tx.AccountOwnerMismatch},
		{"stake someone else's nft", bob, staking.Stake(bob.Pubkey, staked.Pubkey), tx.RecordNotFound},
		{"stake twice", alice, staking.Stake(alice.Pubkey, staked.Pubkey), tx.RecordAlreadyExists},
		{"wrong metadata address", alice, badMetadata, tx.AccountRoleMismatch},
		{"wrong metadata program", alice, badProgram, tx.AccountRoleMismatch},
		{"borrowed user account", bob, foreignUser, tx.AccountRoleMismatch},
		{"unstake never staked", alice, staking.Unstake(alice.Pubkey, idle.Pubkey), tx.RecordNotFound},
		{"unstake someone else's stake", bob, staking.Unstake(bob.Pubkey, staked.Pubkey), tx.UnauthorizedSigner},
		{"set paused by stranger", bob, staking.SetPaused(bob.Pubkey, true), tx.UnauthorizedSigner},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			jtx.RequireTxFail(t, env.Submit([]*jtx.Account{tc.signer}, tc.ix), tc.expected)
		})
	}

	assert.Equal(t, uint64(1), f.user(t, alice).TotalStaked)
	assert.Zero(t, f.user(t, bob).TotalStaked)
	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{alice}, staking.Unstake(alice.Pubkey, staked.Pubkey)))
	assert.Equal(t, uint64(2*rewardRate), f.user(t, alice).RewardClaimed)
}

func TestMalformed(t *testing.T) {
	f := setup(t)
	env, alice := f.env, f.alice

	ix := staking.SetPaused(f.admin.Pubkey, true)
	ix.Data = ix.Data[:8]
	jtx.RequireTxFail(t, env.Submit([]*jtx.Account{f.admin}, ix), tx.MalformedInstruction)

	ix = staking.InitUser(alice.Pubkey)
	ix.Data = append(ix.Data, 0)
	jtx.RequireTxFail(t, env.Submit([]*jtx.Account{alice}, ix), tx.MalformedInstruction)

	ix = staking.InitUser(alice.Pubkey)
	ix.Data = []byte{1, 2, 3, 4, 5, 6, 7, 8}
	jtx.RequireTxFail(t, env.Submit([]*jtx.Account{alice}, ix), tx.MalformedInstruction)

	ix = staking.Stake(alice.Pubkey, f.nft("NFT", alice).Pubkey)
	ix.Accounts = ix.Accounts[:8]
	jtx.RequireTxFail(t, env.Submit([]*jtx.Account{alice}, ix), tx.AccountRoleMismatch)
}
