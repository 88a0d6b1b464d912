// Package config loads escrowd configuration with viper: built-in defaults,
// then an optional TOML file, then ESCROWD_ environment variables.
package config

import (
	"time"

	"github.com/LeJamon/goEscrowd/internal/core/ledger"
	"github.com/LeJamon/goEscrowd/internal/core/tx"
	"github.com/LeJamon/goEscrowd/internal/storage/relationaldb"
)

// Config represents the complete escrowd configuration
type Config struct {
	Ledger  LedgerConfig  `toml:"ledger" mapstructure:"ledger"`
	Rent    RentConfig    `toml:"rent" mapstructure:"rent"`
	Engine  EngineConfig  `toml:"engine" mapstructure:"engine"`
	History HistoryConfig `toml:"history" mapstructure:"history"`
	Log     LogConfig     `toml:"log" mapstructure:"log"`

	configPath string
}

// LedgerConfig selects the account store.
type LedgerConfig struct {
	// Backend is memory, pebble, bbolt or leveldb.
	Backend     string `toml:"backend" mapstructure:"backend"`
	Path        string `toml:"path" mapstructure:"path"`
	CacheSize   int    `toml:"cache_size" mapstructure:"cache_size"`
	Compression string `toml:"compression" mapstructure:"compression"`
}

// RentConfig sets the rent-exempt minimum.
type RentConfig struct {
	LamportsPerByteYear uint64  `toml:"lamports_per_byte_year" mapstructure:"lamports_per_byte_year"`
	ExemptionThreshold  float64 `toml:"exemption_threshold" mapstructure:"exemption_threshold"`
}

// EngineConfig tunes transaction processing.
type EngineConfig struct {
	MaxCommitAttempts int `toml:"max_commit_attempts" mapstructure:"max_commit_attempts"`
	SubmitConcurrency int `toml:"submit_concurrency" mapstructure:"submit_concurrency"`
}

// HistoryConfig selects the transaction journal. Driver "none" disables it.
type HistoryConfig struct {
	Driver  string        `toml:"driver" mapstructure:"driver"`
	DSN     string        `toml:"dsn" mapstructure:"dsn"`
	Timeout time.Duration `toml:"timeout" mapstructure:"timeout"`
}

// LogConfig configures zap.
type LogConfig struct {
	Level  string `toml:"level" mapstructure:"level"`
	Format string `toml:"format" mapstructure:"format"`
}

// ConfigPath returns the file the configuration was read from, if any.
func (c *Config) ConfigPath() string {
	return c.configPath
}

// LedgerOptions converts the ledger section.
func (c *Config) LedgerOptions() ledger.Options {
	return ledger.Options{
		CacheSize:   c.Ledger.CacheSize,
		Compression: c.Ledger.Compression,
	}
}

// EngineConfig converts the rent and engine sections.
func (c *Config) EngineConfig() tx.EngineConfig {
	return tx.EngineConfig{
		Rent: tx.Rent{
			LamportsPerByteYear: c.Rent.LamportsPerByteYear,
			ExemptionThreshold:  c.Rent.ExemptionThreshold,
		},
		MaxCommitAttempts: c.Engine.MaxCommitAttempts,
		SubmitConcurrency: c.Engine.SubmitConcurrency,
	}
}

// HistoryEnabled reports whether a journal is configured.
func (c *Config) HistoryEnabled() bool {
	return c.History.Driver != "" && c.History.Driver != HistoryNone
}

// JournalConfig converts the history section.
func (c *Config) JournalConfig() *relationaldb.Config {
	cfg := relationaldb.NewConfig(c.History.Driver, c.History.DSN)
	if c.History.Timeout > 0 {
		cfg.DefaultTimeout = c.History.Timeout
	}
	return cfg
}
