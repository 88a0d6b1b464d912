// Package sqlite opens the transaction journal on an embedded SQLite file.
package sqlite

import (
	"context"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/LeJamon/goEscrowd/internal/storage/relationaldb"
)

// Dialect is the SQLite flavour of the journal schema.
var Dialect = relationaldb.Dialect{
	Name: relationaldb.DriverSQLite,
	Schema: []string{
		`CREATE TABLE IF NOT EXISTS transactions (
			seq INTEGER PRIMARY KEY AUTOINCREMENT,
			tx_hash TEXT NOT NULL,
			result TEXT NOT NULL,
			code INTEGER NOT NULL,
			instructions INTEGER NOT NULL,
			attempts INTEGER NOT NULL,
			applied_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS transactions_hash_idx ON transactions (tx_hash)`,
		`CREATE TABLE IF NOT EXISTS account_transactions (
			account TEXT NOT NULL,
			seq INTEGER NOT NULL REFERENCES transactions (seq),
			PRIMARY KEY (account, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS account_transactions_seq_idx ON account_transactions (seq)`,
	},
}

// Open opens or creates the journal at path.
func Open(ctx context.Context, path string) (*relationaldb.SQLJournal, error) {
	return relationaldb.Open(ctx, relationaldb.NewConfig(relationaldb.DriverSQLite, path), Dialect)
}
