package leveldb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goEscrowd/internal/storage/database"
	"github.com/LeJamon/goEscrowd/internal/storage/database/dbtest"
)

func TestLevelDB(t *testing.T) {
	dbtest.Run(t, func(t *testing.T) database.DB {
		db, err := Open(filepath.Join(t.TempDir(), "ledger"))
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		return db
	})
}
