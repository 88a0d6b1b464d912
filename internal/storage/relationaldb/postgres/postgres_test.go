package postgres

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goEscrowd/internal/storage/relationaldb"
)

// Set ESCROWD_TEST_POSTGRES_DSN to run against a live server.
func TestPostgresJournal(t *testing.T) {
	dsn := os.Getenv("ESCROWD_TEST_POSTGRES_DSN")
	if dsn == "" {
		t.Skip("ESCROWD_TEST_POSTGRES_DSN not set")
	}
	ctx := context.Background()

	j, err := Open(ctx, dsn)
	require.NoError(t, err)
	defer j.Close()

	rec := &relationaldb.TxRecord{Hash: "pg-test", Result: "Success", Accounts: []string{"a"}}
	require.NoError(t, j.Record(ctx, rec))

	got, err := j.ByHash(ctx, "pg-test")
	require.NoError(t, err)
	require.NotEmpty(t, got)
}

func TestPlaceholder(t *testing.T) {
	require.Equal(t, "$3", Dialect.Placeholder(3))
}
