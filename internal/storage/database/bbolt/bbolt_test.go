package bbolt

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goEscrowd/internal/storage/database"
	"github.com/LeJamon/goEscrowd/internal/storage/database/dbtest"
)

func TestBBoltDB(t *testing.T) {
	dbtest.Run(t, func(t *testing.T) database.DB {
		db, err := Open(filepath.Join(t.TempDir(), "ledger.bolt"))
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		return db
	})
}

func TestBBoltReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.bolt")
	ctx := context.Background()

	db, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, db.Write(ctx, []byte("k"), []byte("v")))
	require.NoError(t, db.Close())

	db, err = Open(path)
	require.NoError(t, err)
	defer db.Close()

	got, err := db.Read(ctx, []byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte("v"), got)
}
