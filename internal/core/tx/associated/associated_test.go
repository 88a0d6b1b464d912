package associated_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goEscrowd/internal/core/tx"
	"github.com/LeJamon/goEscrowd/internal/core/tx/associated"
	"github.com/LeJamon/goEscrowd/internal/core/tx/system"
	"github.com/LeJamon/goEscrowd/internal/core/tx/token"
	jtx "github.com/LeJamon/goEscrowd/internal/testing"
	"github.com/LeJamon/goEscrowd/internal/types"
)

func TestCreate(t *testing.T) {
	env := jtx.NewTestEnv(t)
	payer := jtx.NewAccount("payer")
	owner := jtx.NewAccount("owner")
	env.Fund(payer)
	mint := env.CreateMint("mint", payer, 0)
	ata := env.ATA(owner.Pubkey, mint.Pubkey)

	res := env.Submit([]*jtx.Account{payer}, associated.Create(payer.Pubkey, owner.Pubkey, mint.Pubkey))
	jtx.RequireTxSuccess(t, res)
	assert.Equal(t, []types.Pubkey{ata}, res.Metadata.Created())

	acc := env.Account(ata)
	require.NotNil(t, acc)
	assert.Equal(t, types.TokenProgramID, acc.Owner)
	assert.Equal(t, env.Rent(token.AccountLen), acc.Lamports)
	holding := env.TokenAccount(ata)
	assert.Equal(t, owner.Pubkey, holding.Owner)
	assert.Equal(t, mint.Pubkey, holding.Mint)
	assert.Zero(t, holding.Amount)
	jtx.RequireBalance(t, env, payer, jtx.DefaultFund-env.Rent(token.AccountLen))

	// owner never signed and holds no lamports
	jtx.RequireNotExists(t, env, owner.Pubkey)

	jtx.RequireTxFail(t, env.Submit([]*jtx.Account{payer}, associated.Create(payer.Pubkey, owner.Pubkey, mint.Pubkey)), tx.RecordAlreadyExists)
	jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{payer}, associated.CreateIdempotent(payer.Pubkey, owner.Pubkey, mint.Pubkey)))
	jtx.RequireBalance(t, env, payer, jtx.DefaultFund-env.Rent(token.AccountLen))
}

func TestCreateRejectsWrongAddress(t *testing.T) {
	env := jtx.NewTestEnv(t)
	payer := jtx.NewAccount("payer")
	owner := jtx.NewAccount("owner")
	env.Fund(payer)
	mint := env.CreateMint("mint", payer, 0)

	ix := associated.Create(payer.Pubkey, owner.Pubkey, mint.Pubkey)
	ix.Accounts[1].Pubkey = env.ATA(payer.Pubkey, mint.Pubkey)
	jtx.RequireTxFail(t, env.Submit([]*jtx.Account{payer}, ix), tx.InvalidSeeds)
}

func TestCreateRequiresMint(t *testing.T) {
	env := jtx.NewTestEnv(t)
	payer := jtx.NewAccount("payer")
	owner := jtx.NewAccount("owner")
	env.Fund(payer)

	// payer's wallet is not a mint
	res := env.Submit([]*jtx.Account{payer}, associated.Create(payer.Pubkey, owner.Pubkey, payer.Pubkey))
	jtx.RequireTxFail(t, res, tx.AccountOwnerMismatch)
}

func TestCreateAdoptsPrefundedAddress(t *testing.T) {
	rent := tx.DefaultRent().MinimumBalance(token.AccountLen)
	tests := []struct {
		name     string
		build    func(payer, owner, mint types.Pubkey) tx.Instruction
		prefund  uint64
		topUp    uint64
		lamports uint64
	}{
		{"create after one lamport", associated.Create, 1, rent - 1, rent},
		{"idempotent after one lamport", associated.CreateIdempotent, 1, rent - 1, rent},
		{"create above rent", associated.Create, rent + 500, 0, rent + 500},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			env := jtx.NewTestEnv(t)
			payer := jtx.NewAccount("payer")
			stranger := jtx.NewAccount("stranger")
			owner := jtx.NewAccount("owner")
			env.Fund(payer, stranger)
			mint := env.CreateMint("mint", payer, 0)
			ata := env.ATA(owner.Pubkey, mint.Pubkey)
			before := env.Balance(payer)
			total := env.TotalLamports()

			// lamports sent to the derived address leave a plain wallet there
			jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{stranger}, system.Transfer(stranger.Pubkey, ata, tc.prefund)))

			jtx.RequireTxSuccess(t, env.Submit([]*jtx.Account{payer}, tc.build(payer.Pubkey, owner.Pubkey, mint.Pubkey)))
			acc := env.Account(ata)
			require.NotNil(t, acc)
			assert.Equal(t, types.TokenProgramID, acc.Owner)
			assert.Equal(t, tc.lamports, acc.Lamports)
			holding := env.TokenAccount(ata)
			assert.Equal(t, owner.Pubkey, holding.Owner)
			assert.Equal(t, mint.Pubkey, holding.Mint)
			jtx.RequireBalance(t, env, payer, before-tc.topUp)
			jtx.RequireConserved(t, env, total)

			jtx.RequireTxFail(t, env.Submit([]*jtx.Account{payer}, associated.Create(payer.Pubkey, owner.Pubkey, mint.Pubkey)), tx.RecordAlreadyExists)
		})
	}
}

func TestMalformed(t *testing.T) {
	env := jtx.NewTestEnv(t)
	payer := jtx.NewAccount("payer")
	env.Fund(payer)
	mint := env.CreateMint("mint", payer, 0)

	ix := associated.Create(payer.Pubkey, payer.Pubkey, mint.Pubkey)
	ix.Data = []byte{7}
	jtx.RequireTxFail(t, env.Submit([]*jtx.Account{payer}, ix), tx.MalformedInstruction)

	ix = associated.Create(payer.Pubkey, payer.Pubkey, mint.Pubkey)
	ix.Accounts[4].Pubkey = types.TokenProgramID
	jtx.RequireTxFail(t, env.Submit([]*jtx.Account{payer}, ix), tx.AccountRoleMismatch)
}
