package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "escrowd.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	assert.Equal(t, "memory", cfg.Ledger.Backend)
	assert.Equal(t, "lz4", cfg.Ledger.Compression)
	assert.Equal(t, uint64(3480), cfg.Rent.LamportsPerByteYear)
	assert.Equal(t, 2.0, cfg.Rent.ExemptionThreshold)
	assert.Equal(t, 8, cfg.Engine.MaxCommitAttempts)
	assert.False(t, cfg.HistoryEnabled())
	assert.Equal(t, 10*time.Second, cfg.History.Timeout)

	ec := cfg.EngineConfig()
	assert.Equal(t, uint64(2039280), ec.Rent.MinimumBalance(165))
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
[ledger]
backend = "pebble"
path = "/var/lib/escrowd"
cache_size = 128
compression = "none"

[rent]
lamports_per_byte_year = 10
exemption_threshold = 1.0

[engine]
max_commit_attempts = 3

[history]
driver = "sqlite"
dsn = "/var/lib/escrowd/history.db"

[log]
level = "debug"
format = "json"
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, path, cfg.ConfigPath())
	assert.Equal(t, "pebble", cfg.Ledger.Backend)
	assert.Equal(t, 128, cfg.LedgerOptions().CacheSize)
	assert.Equal(t, "none", cfg.LedgerOptions().Compression)
	assert.Equal(t, uint64(1280), cfg.EngineConfig().Rent.MinimumBalance(0))
	assert.Equal(t, 3, cfg.EngineConfig().MaxCommitAttempts)
	assert.True(t, cfg.HistoryEnabled())
	assert.Equal(t, "sqlite", cfg.JournalConfig().Driver)
	assert.Equal(t, 1, cfg.JournalConfig().MaxOpenConns)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("ESCROWD_LEDGER_BACKEND", "bbolt")
	t.Setenv("ESCROWD_LEDGER_PATH", t.TempDir())
	t.Setenv("ESCROWD_ENGINE_MAX_COMMIT_ATTEMPTS", "2")

	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, "bbolt", cfg.Ledger.Backend)
	assert.Equal(t, 2, cfg.Engine.MaxCommitAttempts)
}

func TestMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name:    "unknown backend",
			content: "[ledger]\nbackend = \"rocksdb\"\n",
			wantErr: "unknown backend",
		},
		{
			name:    "disk backend without path",
			content: "[ledger]\nbackend = \"leveldb\"\n",
			wantErr: "requires ledger.path",
		},
		{
			name:    "unknown compression",
			content: "[ledger]\ncompression = \"zstd\"\n",
			wantErr: "unknown compression",
		},
		{
			name:    "zero rent rate",
			content: "[rent]\nlamports_per_byte_year = 0\n",
			wantErr: "lamports_per_byte_year",
		},
		{
			name:    "no commit attempts",
			content: "[engine]\nmax_commit_attempts = 0\n",
			wantErr: "max_commit_attempts",
		},
		{
			name:    "history driver without dsn",
			content: "[history]\ndriver = \"postgres\"\n",
			wantErr: "requires history.dsn",
		},
		{
			name:    "unknown history driver",
			content: "[history]\ndriver = \"mysql\"\ndsn = \"x\"\n",
			wantErr: "unknown driver",
		},
		{
			name:    "bad log level",
			content: "[log]\nlevel = \"loud\"\n",
			wantErr: "log",
		},
		{
			name:    "bad log format",
			content: "[log]\nformat = \"xml\"\n",
			wantErr: "unknown format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
