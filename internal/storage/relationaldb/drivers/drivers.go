// Package drivers opens a relationaldb.Journal by driver name.
package drivers

import (
	"context"
	"fmt"

	"github.com/LeJamon/goEscrowd/internal/storage/relationaldb"
	"github.com/LeJamon/goEscrowd/internal/storage/relationaldb/postgres"
	"github.com/LeJamon/goEscrowd/internal/storage/relationaldb/sqlite"
)

// None disables the journal.
const None = "none"

// Open returns the journal for driver with default settings, or nil when
// driver is None.
func Open(ctx context.Context, driver, dsn string) (relationaldb.Journal, error) {
	if driver == None || driver == "" {
		return nil, nil
	}
	return OpenConfig(ctx, relationaldb.NewConfig(driver, dsn))
}

// OpenConfig opens the journal described by cfg.
func OpenConfig(ctx context.Context, cfg *relationaldb.Config) (relationaldb.Journal, error) {
	var dialect relationaldb.Dialect
	switch cfg.Driver {
	case relationaldb.DriverSQLite:
		dialect = sqlite.Dialect
	case relationaldb.DriverPostgres:
		dialect = postgres.Dialect
	default:
		return nil, fmt.Errorf("%w: %s", relationaldb.ErrInvalidDriver, cfg.Driver)
	}
	j, err := relationaldb.Open(ctx, cfg, dialect)
	if err != nil {
		return nil, err
	}
	return j, nil
}
