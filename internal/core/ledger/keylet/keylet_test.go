package keylet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	crypto "github.com/LeJamon/goEscrowd/internal/crypto/common"
	"github.com/LeJamon/goEscrowd/internal/types"
)

// Fixed identities: sha256("maker") and sha256("mint").
var (
	testMaker = types.Pubkey(crypto.Sha256([]byte("maker")))
	testMint  = types.Pubkey(crypto.Sha256([]byte("mint")))
)

func TestFixtureIdentities(t *testing.T) {
	assert.Equal(t, "A87ysNWAmmqQHafLSQGbYSLhtcV3BjXctR88EWuSobGP", testMaker.String())
	assert.Equal(t, "FqUwnBMN1shpeqKVm7W5fN73tvrjVr19TQFFgkoFFzhq", testMint.String())
}

func TestEscrowAddress(t *testing.T) {
	tests := []struct {
		seed      uint64
		escrow    string
		bump      uint8
		vault     string
		vaultBump uint8
	}{
		{1, "EuxC2Z6VLmQDXEqsxKX9ohFgrdPaNxvBnyrwwFvEZH5L", 254, "CRVvB5QSaZsdd7pHo7CNF3LanrMedimJBKTAjxQKPr8V", 254},
		{2, "4mHM5RXvUPPYazn1zYKsBj5p65nqNMJSxMnmE4T4LwGc", 255, "FAKdBsgbC8wMnun6a8jVgQktigZZJkJV3fpCnyGRbAV1", 251},
	}

	for _, tt := range tests {
		k, err := Escrow(testMaker, tt.seed)
		require.NoError(t, err)
		assert.Equal(t, tt.escrow, k.Address.String(), "seed %d", tt.seed)
		assert.Equal(t, tt.bump, k.Bump, "seed %d", tt.seed)

		v, err := Vault(k.Address, testMint)
		require.NoError(t, err)
		assert.Equal(t, tt.vault, v.Address.String(), "seed %d", tt.seed)
		assert.Equal(t, tt.vaultBump, v.Bump, "seed %d", tt.seed)
	}
}

func TestAssociatedToken(t *testing.T) {
	k, err := AssociatedToken(testMaker, testMint)
	require.NoError(t, err)
	assert.Equal(t, "HVVpJqFyZJTypBQ7tLwqDJn2UnnGnvBg7ADNMy8Jf4kM", k.Address.String())
	assert.Equal(t, uint8(255), k.Bump)

	wallet := types.MustParsePubkey("9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM")
	usdc := types.MustParsePubkey("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	k, err = AssociatedToken(wallet, usdc)
	require.NoError(t, err)
	assert.Equal(t, "FGETo8T8wMcN2wCjav8VK6eh3dLk63evNDPxzLSJra8B", k.Address.String())
}

func TestLamportVaultAddresses(t *testing.T) {
	state, err := VaultState(testMaker)
	require.NoError(t, err)
	assert.Equal(t, "DsBVh3Y1vRqjU9mt9kd4oHFms1KgMKHn5iYpxcsHyXpi", state.Address.String())
	assert.Equal(t, uint8(254), state.Bump)

	vault, err := LamportVault(state.Address)
	require.NoError(t, err)
	assert.Equal(t, "5C89YKBpWRtFfpNEQAp4kYUB23i6aKXoUJub32P2SiM8", vault.Address.String())
	assert.Equal(t, uint8(251), vault.Bump)
}

func TestStakingAddresses(t *testing.T) {
	config, err := StakeConfig()
	require.NoError(t, err)
	user, err := StakeUser(testMaker)
	require.NoError(t, err)
	stake, err := StakeAccount(testMint)
	require.NoError(t, err)

	tests := []struct {
		name  string
		k     Keylet
		seeds [][]byte
	}{
		{"config", config, StakeConfigSeeds()},
		{"user", user, StakeUserSeeds(testMaker)},
		{"stake", stake, StakeAccountSeeds(testMint)},
	}
	for _, tc := range tests {
		addr, err := CreateProgramAddress(WithBump(tc.seeds, tc.k.Bump), types.StakingProgramID)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.k.Address, addr, tc.name)
	}

	other, err := StakeAccount(testMaker)
	require.NoError(t, err)
	assert.NotEqual(t, stake.Address, other.Address)

	metadata, err := Metadata(testMint)
	require.NoError(t, err)
	edition, err := MasterEdition(testMint)
	require.NoError(t, err)
	assert.NotEqual(t, metadata.Address, edition.Address)
	addr, err := CreateProgramAddress(
		WithBump([][]byte{[]byte("metadata"), types.MetadataProgramID[:], testMint[:], []byte("edition")}, edition.Bump),
		types.MetadataProgramID)
	require.NoError(t, err)
	assert.Equal(t, edition.Address, addr)
}

func TestDerivationIsDeterministic(t *testing.T) {
	for seed := uint64(0); seed < 32; seed++ {
		a, err := Escrow(testMaker, seed)
		require.NoError(t, err)
		b, err := Escrow(testMaker, seed)
		require.NoError(t, err)
		require.Equal(t, a, b)
		require.False(t, IsOnCurve(a.Address))

		// The bump reproduces the address through CreateProgramAddress.
		addr, err := CreateProgramAddress(WithBump(EscrowSeeds(testMaker, seed), a.Bump), types.EscrowProgramID)
		require.NoError(t, err)
		require.Equal(t, a.Address, addr)
	}
}

func TestDistinctSeedsGiveDistinctRecords(t *testing.T) {
	seen := make(map[types.Pubkey]uint64)
	for seed := uint64(0); seed < 64; seed++ {
		k, err := Escrow(testMaker, seed)
		require.NoError(t, err)
		prev, dup := seen[k.Address]
		require.False(t, dup, "seed %d collides with seed %d", seed, prev)
		seen[k.Address] = seed
	}
}

func TestCreateProgramAddressLimits(t *testing.T) {
	tooMany := make([][]byte, MaxSeeds+1)
	for i := range tooMany {
		tooMany[i] = []byte{byte(i)}
	}
	_, err := CreateProgramAddress(tooMany, types.EscrowProgramID)
	require.ErrorIs(t, err, ErrMaxSeedLengthExceeded)

	_, err = CreateProgramAddress([][]byte{bytes.Repeat([]byte{1}, MaxSeedLength+1)}, types.EscrowProgramID)
	require.ErrorIs(t, err, ErrMaxSeedLengthExceeded)

	_, err = FindProgramAddress(tooMany[:MaxSeeds], types.EscrowProgramID)
	require.ErrorIs(t, err, ErrMaxSeedLengthExceeded)
}

func TestCreateProgramAddressRejectsOnCurve(t *testing.T) {
	// Bump 255 for seed 1 lands on the curve; the search settles on 254.
	_, err := CreateProgramAddress(WithBump(EscrowSeeds(testMaker, 1), 255), types.EscrowProgramID)
	require.ErrorIs(t, err, ErrInvalidSeeds)
}

func TestIsOnCurve(t *testing.T) {
	var identity [32]byte
	identity[0] = 1
	assert.True(t, IsOnCurve(identity))
	assert.True(t, IsOnCurve([32]byte{}))
	assert.True(t, IsOnCurve(testMaker))
}
