package escrow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goEscrowd/internal/core/tx"
	escrowtx "github.com/LeJamon/goEscrowd/internal/core/tx/escrow"
	"github.com/LeJamon/goEscrowd/internal/core/tx/system"
	"github.com/LeJamon/goEscrowd/internal/core/tx/token"
	jtx "github.com/LeJamon/goEscrowd/internal/testing"
	"github.com/LeJamon/goEscrowd/internal/testing/escrow"
	"github.com/LeJamon/goEscrowd/internal/types"
)

const (
	makerA = uint64(1_000)
	takerB = uint64(500)
)

func TestEscrow_OpenAndSettle(t *testing.T) {
	f := escrow.NewFixture(t, makerA, takerB)
	env := f.Env
	total := env.TotalLamports()
	makerLamports := env.Balance(f.Maker)
	takerLamports := env.Balance(f.Taker)

	result := f.Open(1, 100, 50)
	jtx.RequireTxSuccess(t, result)
	assert.ElementsMatch(t,
		[]types.Pubkey{escrow.Address(f.Maker, 1), escrow.VaultAddress(f.Maker, f.MintA, 1)},
		result.Metadata.Created())

	jtx.RequireTokenBalance(t, env, f.Maker, f.MintA, makerA-100)
	require.Equal(t, uint64(100), env.TokenAmount(escrow.VaultAddress(f.Maker, f.MintA, 1)))

	acc := env.Account(escrow.Address(f.Maker, 1))
	require.NotNil(t, acc)
	assert.Equal(t, types.EscrowProgramID, acc.Owner)
	assert.Equal(t, env.Rent(escrowtx.RecordLen), acc.Lamports)
	rec, err := escrowtx.UnpackRecord(acc.Data)
	require.NoError(t, err)
	assert.Equal(t, escrowtx.Record{
		Seed:    1,
		Maker:   f.Maker.Pubkey,
		MintA:   f.MintA.Pubkey,
		MintB:   f.MintB.Pubkey,
		Deposit: 100,
		Receive: 50,
		Bump:    rec.Bump,
	}, *rec)

	vault := env.TokenAccount(escrow.VaultAddress(f.Maker, f.MintA, 1))
	assert.Equal(t, escrow.Address(f.Maker, 1), vault.Owner)
	assert.Equal(t, f.MintA.Pubkey, vault.Mint)

	jtx.RequireBalance(t, env, f.Maker, makerLamports-env.Rent(escrowtx.RecordLen)-env.Rent(token.AccountLen))

	result = f.Settle(1)
	jtx.RequireTxSuccess(t, result)

	jtx.RequireTokenBalance(t, env, f.Maker, f.MintA, makerA-100)
	jtx.RequireTokenBalance(t, env, f.Taker, f.MintA, 100)
	jtx.RequireTokenBalance(t, env, f.Maker, f.MintB, 50)
	jtx.RequireTokenBalance(t, env, f.Taker, f.MintB, takerB-50)
	jtx.RequireNotExists(t, env, escrow.Address(f.Maker, 1))
	jtx.RequireNotExists(t, env, escrow.VaultAddress(f.Maker, f.MintA, 1))

	// record and vault rent return to the maker; the taker pays for the two
	// holding accounts settle creates
	jtx.RequireBalance(t, env, f.Maker, makerLamports)
	jtx.RequireBalance(t, env, f.Taker, takerLamports-2*env.Rent(token.AccountLen))
	jtx.RequireConserved(t, env, total)
}

func TestEscrow_OpenAndRefund(t *testing.T) {
	f := escrow.NewFixture(t, makerA, takerB)
	env := f.Env
	makerLamports := env.Balance(f.Maker)

	jtx.RequireTxSuccess(t, f.Open(2, 300, 10))
	jtx.RequireTokenBalance(t, env, f.Maker, f.MintA, makerA-300)

	jtx.RequireTxSuccess(t, f.Refund(2))
	jtx.RequireTokenBalance(t, env, f.Maker, f.MintA, makerA)
	jtx.RequireBalance(t, env, f.Maker, makerLamports)
	jtx.RequireNotExists(t, env, escrow.Address(f.Maker, 2))
	jtx.RequireNotExists(t, env, escrow.VaultAddress(f.Maker, f.MintA, 2))

	// the seed is free again
	jtx.RequireTxSuccess(t, f.Open(2, 300, 10))
}

func TestEscrow_OpenRejections(t *testing.T) {
	tests := []struct {
		name    string
		seed    uint64
		deposit uint64
		receive uint64
		want    tx.Result
	}{
		{"zero deposit", 1, 0, 50, tx.InvalidAmount},
		{"zero receive", 1, 100, 0, tx.InvalidAmount},
		{"deposit above balance", 1, makerA + 1, 50, tx.InsufficientFunds},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := escrow.NewFixture(t, makerA, takerB)
			total := f.Env.TotalLamports()

			jtx.RequireTxFail(t, f.Open(tc.seed, tc.deposit, tc.receive), tc.want)
			jtx.RequireNotExists(t, f.Env, escrow.Address(f.Maker, tc.seed))
			jtx.RequireTokenBalance(t, f.Env, f.Maker, f.MintA, makerA)
			jtx.RequireConserved(t, f.Env, total)
		})
	}
}

func TestEscrow_OpenTwice(t *testing.T) {
	f := escrow.NewFixture(t, makerA, takerB)
	jtx.RequireTxSuccess(t, f.Open(7, 100, 50))
	jtx.RequireTxFail(t, f.Open(7, 100, 50), tx.RecordAlreadyExists)
	jtx.RequireTokenBalance(t, f.Env, f.Maker, f.MintA, makerA-100)

	// a different seed is a different escrow
	jtx.RequireTxSuccess(t, f.Open(8, 100, 50))
	jtx.RequireTokenBalance(t, f.Env, f.Maker, f.MintA, makerA-200)
}

func TestEscrow_OpenOverPrefundedAddress(t *testing.T) {
	tests := []struct {
		name   string
		target func(f *escrow.Fixture) types.Pubkey
		space  int
	}{
		{"record", func(f *escrow.Fixture) types.Pubkey { return escrow.Address(f.Maker, 1) }, escrowtx.RecordLen},
		{"vault", func(f *escrow.Fixture) types.Pubkey { return escrow.VaultAddress(f.Maker, f.MintA, 1) }, token.AccountLen},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := escrow.NewFixture(t, makerA, takerB)
			env := f.Env
			stranger := jtx.NewAccount("stranger")
			env.Fund(stranger)
			total := env.TotalLamports()
			makerLamports := env.Balance(f.Maker)

			target := tc.target(f)
			jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{stranger}, system.Transfer(stranger.Pubkey, target, 1)))

			jtx.RequireTxSuccess(t, f.Open(1, 100, 50))
			assert.Equal(t, env.Rent(tc.space), env.Lamports(target))
			jtx.RequireBalance(t, env, f.Maker,
				makerLamports-env.Rent(escrowtx.RecordLen)-env.Rent(token.AccountLen)+1)
			_, err := escrowtx.UnpackRecord(env.Account(escrow.Address(f.Maker, 1)).Data)
			require.NoError(t, err)
			require.Equal(t, uint64(100), env.TokenAmount(escrow.VaultAddress(f.Maker, f.MintA, 1)))

			// the adopted account behaves like any other escrow
			jtx.RequireTxFail(t, f.Open(1, 100, 50), tx.RecordAlreadyExists)
			jtx.RequireTxSuccess(t, f.Settle(1))
			jtx.RequireTokenBalance(t, env, f.Taker, f.MintA, 100)
			jtx.RequireNotExists(t, env, target)
			jtx.RequireConserved(t, env, total)
		})
	}
}

func TestEscrow_OpenWithoutHolding(t *testing.T) {
	f := escrow.NewFixture(t, 0, takerB)
	jtx.RequireTxFail(t, f.Open(1, 1, 1), tx.InsufficientFunds)
}

func TestEscrow_OpenWithBadMint(t *testing.T) {
	f := escrow.NewFixture(t, makerA, takerB)
	// a plain wallet is not a mint
	b := escrow.Make(f.Maker, f.MintA, f.Taker).Deposit(10).Receive(10)
	jtx.RequireTxFail(t, f.Env.Submit(b.Signers(), b.Build()), tx.InvalidAccountData)
}

func TestEscrow_OpenWithWrongAddresses(t *testing.T) {
	f := escrow.NewFixture(t, makerA, takerB)
	stranger := jtx.NewAccount("stranger")

	tests := []struct {
		name  string
		index int
		key   types.Pubkey
	}{
		{"escrow", 4, escrow.Address(f.Maker, 99)},
		{"vault", 5, escrow.VaultAddress(f.Maker, f.MintA, 99)},
		{"maker holding", 3, f.Env.ATA(stranger.Pubkey, f.MintA.Pubkey)},
		{"token program", 7, types.SystemProgramID},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			ix := escrow.Make(f.Maker, f.MintA, f.MintB).Deposit(10).Receive(10).Build()
			ix.Accounts[tc.index].Pubkey = tc.key
			jtx.RequireTxFail(t, f.Env.Submit([]*jtx.Account{f.Maker}, ix), tx.AccountRoleMismatch)
		})
	}
}

func TestEscrow_MalformedInstructions(t *testing.T) {
	f := escrow.NewFixture(t, makerA, takerB)

	t.Run("unknown discriminator", func(t *testing.T) {
		ix := escrow.Refund(f.Maker, f.MintA).Build()
		ix.Data = []byte{1, 2, 3, 4, 5, 6, 7, 8}
		jtx.RequireTxFail(t, f.Env.Submit([]*jtx.Account{f.Maker}, ix), tx.MalformedInstruction)
	})

	t.Run("short make payload", func(t *testing.T) {
		ix := escrow.Make(f.Maker, f.MintA, f.MintB).Deposit(10).Receive(10).Build()
		ix.Data = ix.Data[:len(ix.Data)-1]
		jtx.RequireTxFail(t, f.Env.Submit([]*jtx.Account{f.Maker}, ix), tx.MalformedInstruction)
	})

	t.Run("missing account", func(t *testing.T) {
		ix := escrow.Refund(f.Maker, f.MintA).Build()
		ix.Accounts = ix.Accounts[:len(ix.Accounts)-1]
		jtx.RequireTxFail(t, f.Env.Submit([]*jtx.Account{f.Maker}, ix), tx.AccountRoleMismatch)
	})

	t.Run("maker not marked signer", func(t *testing.T) {
		ix := escrow.Make(f.Maker, f.MintA, f.MintB).Deposit(10).Receive(10).Build()
		ix.Accounts[0].IsSigner = false
		jtx.RequireTxFail(t, f.Env.Submit([]*jtx.Account{f.Maker}, ix), tx.AccountRoleMismatch)
	})

	t.Run("signature missing", func(t *testing.T) {
		ix := escrow.Make(f.Maker, f.MintA, f.MintB).Deposit(10).Receive(10).Build()
		jtx.RequireTxFail(t, f.Env.Submit(nil, ix), tx.AccountRoleMismatch)
	})
}

func TestEscrow_SettleRejections(t *testing.T) {
	t.Run("no record", func(t *testing.T) {
		f := escrow.NewFixture(t, makerA, takerB)
		jtx.RequireTxFail(t, f.Settle(1), tx.RecordNotFound)
	})

	t.Run("taker short of receive", func(t *testing.T) {
		f := escrow.NewFixture(t, makerA, 10)
		jtx.RequireTxSuccess(t, f.Open(1, 100, 50))
		jtx.RequireTxFail(t, f.Settle(1), tx.InsufficientFunds)
		jtx.RequireTokenBalance(t, f.Env, f.Taker, f.MintB, 10)
		jtx.RequireExists(t, f.Env, escrow.Address(f.Maker, 1))
	})

	t.Run("mint other than recorded", func(t *testing.T) {
		f := escrow.NewFixture(t, makerA, takerB)
		jtx.RequireTxSuccess(t, f.Open(1, 100, 50))
		other := f.Env.CreateMint("mint-c", f.Taker, 0)
		f.Env.MintTo(other, f.Taker, f.Taker, 100)

		b := escrow.Take(f.Taker, f.Maker, f.MintA, other)
		jtx.RequireTxFail(t, f.Env.Submit(b.Signers(), b.Build()), tx.AccountRoleMismatch)
		jtx.RequireExists(t, f.Env, escrow.Address(f.Maker, 1))
	})

	t.Run("settled twice", func(t *testing.T) {
		f := escrow.NewFixture(t, makerA, takerB)
		jtx.RequireTxSuccess(t, f.Open(1, 100, 50))
		jtx.RequireTxSuccess(t, f.Settle(1))
		jtx.RequireTxFail(t, f.Settle(1), tx.RecordNotFound)
		jtx.RequireTxFail(t, f.Refund(1), tx.RecordNotFound)
		jtx.RequireTokenBalance(t, f.Env, f.Taker, f.MintB, takerB-50)
	})
}

func TestEscrow_RefundRejections(t *testing.T) {
	t.Run("no record", func(t *testing.T) {
		f := escrow.NewFixture(t, makerA, takerB)
		jtx.RequireTxFail(t, f.Refund(3), tx.RecordNotFound)
	})

	t.Run("signer is not the maker", func(t *testing.T) {
		f := escrow.NewFixture(t, makerA, takerB)
		jtx.RequireTxSuccess(t, f.Open(1, 100, 50))

		b := escrow.Refund(f.Maker, f.MintA).SignedBy(f.Taker)
		jtx.RequireTxFail(t, f.Env.Submit(b.Signers(), b.Build()), tx.UnauthorizedSigner)
		require.Equal(t, uint64(100), f.Env.TokenAmount(escrow.VaultAddress(f.Maker, f.MintA, 1)))
	})

	t.Run("refunded twice", func(t *testing.T) {
		f := escrow.NewFixture(t, makerA, takerB)
		jtx.RequireTxSuccess(t, f.Open(1, 100, 50))
		jtx.RequireTxSuccess(t, f.Refund(1))
		jtx.RequireTxFail(t, f.Refund(1), tx.RecordNotFound)
		jtx.RequireTxFail(t, f.Settle(1), tx.RecordNotFound)
	})
}

func TestEscrow_SettleOrRefundRace(t *testing.T) {
	for i := 0; i < 10; i++ {
		f := escrow.NewFixture(t, makerA, takerB)
		env := f.Env
		total := env.TotalLamports()
		jtx.RequireTxSuccess(t, f.Open(1, 100, 50))

		take := escrow.Take(f.Taker, f.Maker, f.MintA, f.MintB)
		refund := escrow.Refund(f.Maker, f.MintA)
		results := env.Engine().SubmitAll(context.Background(), []tx.Transaction{
			tx.NewTransaction(jtx.Keys(take.Signers()...), take.Build()),
			tx.NewTransaction(jtx.Keys(refund.Signers()...), refund.Build()),
		})

		applied := 0
		for _, r := range results {
			if r.Applied {
				applied++
				continue
			}
			assert.Contains(t, []tx.Result{tx.RecordNotFound, tx.CommitConflict}, r.Result)
		}
		require.Equal(t, 1, applied, "exactly one of settle and refund applies")

		jtx.RequireNotExists(t, env, escrow.Address(f.Maker, 1))
		settled := results[0].Applied
		if settled {
			jtx.RequireTokenBalance(t, env, f.Taker, f.MintA, 100)
			jtx.RequireTokenBalance(t, env, f.Maker, f.MintB, 50)
		} else {
			jtx.RequireTokenBalance(t, env, f.Maker, f.MintA, makerA)
			jtx.RequireTokenBalance(t, env, f.Taker, f.MintB, takerB)
		}
		assert.Equal(t, makerA, env.TokenBalance(f.Maker, f.MintA)+env.TokenBalance(f.Taker, f.MintA))
		jtx.RequireConserved(t, env, total)
	}
}

func TestEscrow_ManySeeds(t *testing.T) {
	f := escrow.NewFixture(t, makerA, takerB)
	for seed := uint64(1); seed <= 5; seed++ {
		jtx.RequireTxSuccess(t, f.Open(seed, 10*seed, seed))
	}
	jtx.RequireTokenBalance(t, f.Env, f.Maker, f.MintA, makerA-150)

	for seed := uint64(1); seed <= 5; seed += 2 {
		jtx.RequireTxSuccess(t, f.Settle(seed))
	}
	for seed := uint64(2); seed <= 5; seed += 2 {
		jtx.RequireTxSuccess(t, f.Refund(seed))
	}
	jtx.RequireTokenBalance(t, f.Env, f.Taker, f.MintA, 10+30+50)
	jtx.RequireTokenBalance(t, f.Env, f.Maker, f.MintA, makerA-90)
	jtx.RequireTokenBalance(t, f.Env, f.Maker, f.MintB, 1+3+5)
	assert.Equal(t, makerA, f.Env.Supply(f.MintA))
}

func TestEscrow_Journal(t *testing.T) {
	f := escrow.NewFixture(t, makerA, takerB, jtx.WithHistory())
	result := f.Open(1, 100, 50)
	jtx.RequireTxSuccess(t, result)

	recs, err := f.Env.Journal().AccountTransactions(context.Background(), escrow.Address(f.Maker, 1).String(), 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, tx.Success.String(), recs[0].Result)
	assert.Equal(t, 1, recs[0].Instructions)
}
