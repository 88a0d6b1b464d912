package config

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap/zapcore"

	"github.com/LeJamon/goEscrowd/internal/storage/compression"
	"github.com/LeJamon/goEscrowd/internal/storage/database/backends"
	"github.com/LeJamon/goEscrowd/internal/storage/relationaldb"
)

// ValidateConfig checks every section.
func ValidateConfig(config *Config) error {
	if err := config.Ledger.Validate(); err != nil {
		return fmt.Errorf("ledger: %w", err)
	}
	if err := config.Rent.Validate(); err != nil {
		return fmt.Errorf("rent: %w", err)
	}
	if err := config.Engine.Validate(); err != nil {
		return fmt.Errorf("engine: %w", err)
	}
	if err := config.History.Validate(); err != nil {
		return fmt.Errorf("history: %w", err)
	}
	if err := config.Log.Validate(); err != nil {
		return fmt.Errorf("log: %w", err)
	}
	return nil
}

// Validate checks the ledger section.
func (c *LedgerConfig) Validate() error {
	if !slices.Contains(backends.Names(), c.Backend) {
		return fmt.Errorf("unknown backend %q (supported: %v)", c.Backend, backends.Names())
	}
	if c.Backend != backends.Memory && c.Path == "" {
		return fmt.Errorf("backend %s requires ledger.path", c.Backend)
	}
	if c.CacheSize < 0 {
		return errors.New("cache_size must be >= 0")
	}
	if !compression.IsAvailable(c.Compression) {
		return fmt.Errorf("unknown compression %q (supported: %v)", c.Compression, compression.Available())
	}
	return nil
}

// Validate checks the rent section.
func (c *RentConfig) Validate() error {
	if c.LamportsPerByteYear == 0 {
		return errors.New("lamports_per_byte_year must be positive")
	}
	if c.ExemptionThreshold <= 0 {
		return errors.New("exemption_threshold must be positive")
	}
	return nil
}

// Validate checks the engine section.
func (c *EngineConfig) Validate() error {
	if c.MaxCommitAttempts < 1 {
		return errors.New("max_commit_attempts must be at least 1")
	}
	if c.SubmitConcurrency < 0 {
		return errors.New("submit_concurrency must be >= 0")
	}
	return nil
}

// Validate checks the history section.
func (c *HistoryConfig) Validate() error {
	switch c.Driver {
	case "", HistoryNone:
		return nil
	case relationaldb.DriverSQLite, relationaldb.DriverPostgres:
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}
	if c.DSN == "" {
		return fmt.Errorf("driver %s requires history.dsn", c.Driver)
	}
	return nil
}

// Validate checks the log section.
func (c *LogConfig) Validate() error {
	if _, err := zapcore.ParseLevel(c.Level); err != nil {
		return err
	}
	switch c.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("unknown format %q (console or json)", c.Format)
	}
}
