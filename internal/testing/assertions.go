package testing

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goEscrowd/internal/core/tx"
	"github.com/LeJamon/goEscrowd/internal/types"
)

// RequireTxSuccess asserts that a transaction was committed.
func RequireTxSuccess(t *testing.T, result TxResult) {
	t.Helper()
	require.True(t, result.Success,
		"Expected transaction success, got %s: %s", result.Code, result.Message)
	require.Equal(t, tx.Success, result.Result)
}

// RequireTxFail asserts that a transaction failed with a specific result.
func RequireTxFail(t *testing.T, result TxResult, expected tx.Result) {
	t.Helper()
	require.False(t, result.Success,
		"Expected transaction failure with %s, but transaction succeeded", expected)
	require.Equal(t, expected, result.Result,
		"Expected failure %s, got %s: %s", expected, result.Code, result.Message)
}

// RequireBalance asserts that an account holds exactly lamports.
func RequireBalance(t *testing.T, env *TestEnv, acc *Account, expected uint64) {
	t.Helper()
	actual := env.Balance(acc)
	require.Equal(t, expected, actual,
		"Account %s balance mismatch: expected %d lamports, got %d", acc.Name, expected, actual)
}

// RequireTokenBalance asserts owner's associated token balance for mint.
func RequireTokenBalance(t *testing.T, env *TestEnv, owner, mint *Account, expected uint64) {
	t.Helper()
	actual := env.TokenBalance(owner, mint)
	require.Equal(t, expected, actual,
		"Account %s balance of %s mismatch: expected %d, got %d", owner.Name, mint.Name, expected, actual)
}

// RequireExists asserts that an account is stored at key.
func RequireExists(t *testing.T, env *TestEnv, key types.Pubkey) {
	t.Helper()
	require.True(t, env.Exists(key), "Expected account %s to exist, but it does not", key)
}

// RequireNotExists asserts that no account is stored at key.
func RequireNotExists(t *testing.T, env *TestEnv, key types.Pubkey) {
	t.Helper()
	require.False(t, env.Exists(key), "Expected account %s not to exist, but it does", key)
}

// RequireConserved asserts the ledger's lamport total equals expected.
func RequireConserved(t *testing.T, env *TestEnv, expected uint64) {
	t.Helper()
	require.Equal(t, expected, env.TotalLamports(), "Total lamports changed")
}
