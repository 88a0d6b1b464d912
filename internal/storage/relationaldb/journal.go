// Package relationaldb keeps a relational journal of applied transactions.
// The sqlite and postgres sub-packages supply the drivers and dialects.
package relationaldb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// TxRecord is one applied transaction.
type TxRecord struct {
	Seq          int64
	Hash         string
	Result       string
	Code         int
	Instructions int
	Attempts     int
	Accounts     []string
	AppliedAt    time.Time
}

// Journal stores and queries TxRecords.
type Journal interface {
	Record(ctx context.Context, rec *TxRecord) error
	ByHash(ctx context.Context, hash string) ([]TxRecord, error)
	AccountTransactions(ctx context.Context, account string, limit int) ([]TxRecord, error)
	Count(ctx context.Context) (int64, error)
	Close() error
}

// Dialect captures what differs between SQL engines.
type Dialect struct {
	Name string

	// Placeholder returns the bind marker for the n-th argument (1-based).
	Placeholder func(n int) string

	// Schema is executed statement by statement when the journal opens.
	Schema []string
}

// SQLJournal implements Journal over database/sql.
type SQLJournal struct {
	db      *sql.DB
	dialect Dialect
	timeout time.Duration
}

// Open connects with cfg, verifies the connection and applies the schema.
func Open(ctx context.Context, cfg *Config, dialect Dialect) (*SQLJournal, error) {
	if err := cfg.Validate(); err != nil {
		return nil, NewConfigurationError("open", "invalid configuration", err)
	}

	db, err := sql.Open(cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, NewConnectionError("open", "failed to open database connection", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	j := &SQLJournal{db: db, dialect: dialect, timeout: cfg.DefaultTimeout}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DefaultTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, NewConnectionError("open", "failed to ping database", err)
	}

	if err := j.initSchema(ctx); err != nil {
		db.Close()
		return nil, NewSchemaError("open", "failed to initialize schema", err)
	}
	return j, nil
}

func (j *SQLJournal) initSchema(ctx context.Context) error {
	for _, stmt := range j.dialect.Schema {
		if _, err := j.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("%s: %w", firstLine(stmt), err)
		}
	}
	return nil
}

// query rewrites ? markers into the dialect's placeholders.
func (j *SQLJournal) query(q string) string {
	if j.dialect.Placeholder == nil {
		return q
	}
	var b strings.Builder
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteString(j.dialect.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Record inserts rec and its account index rows in one transaction, setting
// rec.Seq.
func (j *SQLJournal) Record(ctx context.Context, rec *TxRecord) error {
	if j.db == nil {
		return ErrDatabaseClosed
	}
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return NewConnectionError("record", "failed to begin transaction", err)
	}
	defer tx.Rollback()

	if rec.AppliedAt.IsZero() {
		rec.AppliedAt = time.Now().UTC()
	}

	err = tx.QueryRowContext(ctx, j.query(
		`INSERT INTO transactions (tx_hash, result, code, instructions, attempts, applied_at)
		 VALUES (?, ?, ?, ?, ?, ?) RETURNING seq`),
		rec.Hash, rec.Result, rec.Code, rec.Instructions, rec.Attempts, rec.AppliedAt.UnixNano(),
	).Scan(&rec.Seq)
	if err != nil {
		return NewQueryError("record", "failed to insert transaction", err)
	}

	for _, account := range uniqueStrings(rec.Accounts) {
		_, err := tx.ExecContext(ctx, j.query(
			`INSERT INTO account_transactions (account, seq) VALUES (?, ?)`),
			account, rec.Seq,
		)
		if err != nil {
			return NewQueryError("record", "failed to index account", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return NewQueryError("record", "failed to commit", err)
	}
	return nil
}

const selectColumns = `t.seq, t.tx_hash, t.result, t.code, t.instructions, t.attempts, t.applied_at`

// ByHash returns every record with hash, oldest first.
func (j *SQLJournal) ByHash(ctx context.Context, hash string) ([]TxRecord, error) {
	if j.db == nil {
		return nil, ErrDatabaseClosed
	}
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	rows, err := j.db.QueryContext(ctx, j.query(
		`SELECT `+selectColumns+` FROM transactions t WHERE t.tx_hash = ? ORDER BY t.seq`), hash)
	if err != nil {
		return nil, NewQueryError("by_hash", "query failed", err)
	}
	return j.collect(ctx, rows)
}

// AccountTransactions returns the newest records touching account.
func (j *SQLJournal) AccountTransactions(ctx context.Context, account string, limit int) ([]TxRecord, error) {
	if j.db == nil {
		return nil, ErrDatabaseClosed
	}
	if limit <= 0 {
		return nil, ErrInvalidLimit
	}
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	rows, err := j.db.QueryContext(ctx, j.query(
		`SELECT `+selectColumns+` FROM transactions t
		 JOIN account_transactions a ON a.seq = t.seq
		 WHERE a.account = ? ORDER BY t.seq DESC LIMIT ?`), account, limit)
	if err != nil {
		return nil, NewQueryError("account_transactions", "query failed", err)
	}
	return j.collect(ctx, rows)
}

func (j *SQLJournal) collect(ctx context.Context, rows *sql.Rows) ([]TxRecord, error) {
	defer rows.Close()

	var out []TxRecord
	for rows.Next() {
		var (
			rec   TxRecord
			nanos int64
		)
		if err := rows.Scan(&rec.Seq, &rec.Hash, &rec.Result, &rec.Code, &rec.Instructions, &rec.Attempts, &nanos); err != nil {
			return nil, NewQueryError("scan", "failed to scan transaction", err)
		}
		rec.AppliedAt = time.Unix(0, nanos).UTC()
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, NewQueryError("scan", "row iteration failed", err)
	}
	rows.Close()

	for i := range out {
		accounts, err := j.accountsOf(ctx, out[i].Seq)
		if err != nil {
			return nil, err
		}
		out[i].Accounts = accounts
	}
	return out, nil
}

func (j *SQLJournal) accountsOf(ctx context.Context, seq int64) ([]string, error) {
	rows, err := j.db.QueryContext(ctx, j.query(
		`SELECT account FROM account_transactions WHERE seq = ? ORDER BY account`), seq)
	if err != nil {
		return nil, NewQueryError("accounts", "query failed", err)
	}
	defer rows.Close()

	var accounts []string
	for rows.Next() {
		var a string
		if err := rows.Scan(&a); err != nil {
			return nil, NewQueryError("accounts", "failed to scan account", err)
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Count returns the number of recorded transactions.
func (j *SQLJournal) Count(ctx context.Context) (int64, error) {
	if j.db == nil {
		return 0, ErrDatabaseClosed
	}
	var n int64
	if err := j.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&n); err != nil {
		return 0, NewQueryError("count", "query failed", err)
	}
	return n, nil
}

// Close closes the database connection
func (j *SQLJournal) Close() error {
	if j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	if err != nil {
		return NewConnectionError("close", "failed to close database connection", err)
	}
	return nil
}

func uniqueStrings(in []string) []string {
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
