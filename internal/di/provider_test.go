package di

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goEscrowd/internal/config"
	"github.com/LeJamon/goEscrowd/internal/core/ledger"
	"github.com/LeJamon/goEscrowd/internal/storage/database/backends"
	"github.com/LeJamon/goEscrowd/internal/types"
)

func newProvided(t *testing.T, cfg *config.Config) *Container {
	t.Helper()
	c := New()
	require.NoError(t, NewProvider(c, cfg).WithContext(context.Background()).RegisterAll())
	t.Cleanup(func() { require.NoError(t, Close(c)) })
	return c
}

func TestProviderBuildsEngine(t *testing.T) {
	c := newProvided(t, config.Default())

	engine, err := Engine(c)
	require.NoError(t, err)
	require.NotNil(t, engine)

	journal, err := Journal(c)
	require.NoError(t, err)
	assert.Nil(t, journal)

	// every registered program is installed by Bootstrap
	l, err := Resolve[*ledger.Ledger](c, ServiceLedger)
	require.NoError(t, err)
	for _, id := range []types.Pubkey{types.SystemProgramID, types.TokenProgramID, types.AssociatedTokenProgramID, types.EscrowProgramID, types.VaultProgramID, types.StakingProgramID} {
		acc, err := l.Get(context.Background(), id)
		require.NoError(t, err)
		require.NotNil(t, acc, id.String())
		assert.True(t, acc.Executable)
	}

	reg, err := Resolve[*prometheus.Registry](c, ServiceMetrics)
	require.NoError(t, err)
	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestProviderWithHistoryAndDisk(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default()
	cfg.Ledger.Backend = backends.Pebble
	cfg.Ledger.Path = filepath.Join(dir, "ledger")
	cfg.History.Driver = "sqlite"
	cfg.History.DSN = filepath.Join(dir, "history.db")

	c := newProvided(t, cfg)
	_, err := Engine(c)
	require.NoError(t, err)

	journal, err := Journal(c)
	require.NoError(t, err)
	require.NotNil(t, journal)

	n, err := journal.Count(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProviderRejectsNilConfig(t *testing.T) {
	require.Error(t, NewProvider(New(), nil).RegisterAll())
}
