package escrow

import (
	gotesting "testing"

	"github.com/LeJamon/goEscrowd/internal/testing"
)

// Fixture is a maker holding mint A and a taker holding mint B.
type Fixture struct {
	Env   *testing.TestEnv
	Maker *testing.Account
	Taker *testing.Account
	MintA *testing.Account
	MintB *testing.Account
}

// NewFixture funds maker and taker, creates both mints and gives the maker
// makerA units of mint A and the taker takerB units of mint B.
func NewFixture(t *gotesting.T, makerA, takerB uint64, opts ...testing.Option) *Fixture {
	t.Helper()
	env := testing.NewTestEnv(t, opts...)

	f := &Fixture{
		Env:   env,
		Maker: testing.NewAccount("maker"),
		Taker: testing.NewAccount("taker"),
	}
	env.Fund(f.Maker, f.Taker)
	f.MintA = env.CreateMint("mint-a", f.Maker, 6)
	f.MintB = env.CreateMint("mint-b", f.Taker, 6)
	if makerA > 0 {
		env.MintTo(f.MintA, f.Maker, f.Maker, makerA)
	}
	if takerB > 0 {
		env.MintTo(f.MintB, f.Taker, f.Taker, takerB)
	}
	return f
}

// Open submits a make for the fixture's maker.
func (f *Fixture) Open(seed, deposit, receive uint64) testing.TxResult {
	b := Make(f.Maker, f.MintA, f.MintB).Seed(seed).Deposit(deposit).Receive(receive)
	return f.Env.Submit(b.Signers(), b.Build())
}

// Settle submits a take by the fixture's taker.
func (f *Fixture) Settle(seed uint64) testing.TxResult {
	b := Take(f.Taker, f.Maker, f.MintA, f.MintB).Seed(seed)
	return f.Env.Submit(b.Signers(), b.Build())
}

// Refund submits a refund by the fixture's maker.
func (f *Fixture) Refund(seed uint64) testing.TxResult {
	b := Refund(f.Maker, f.MintA).Seed(seed)
	return f.Env.Submit(b.Signers(), b.Build())
}
