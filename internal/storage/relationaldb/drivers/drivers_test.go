package drivers

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goEscrowd/internal/storage/relationaldb"
)

func TestOpenNone(t *testing.T) {
	for _, driver := range []string{"", None} {
		j, err := Open(context.Background(), driver, "")
		require.NoError(t, err)
		require.Nil(t, j)
	}
}

func TestOpenSQLite(t *testing.T) {
	ctx := context.Background()
	j, err := Open(ctx, relationaldb.DriverSQLite, filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	defer j.Close()

	n, err := j.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn")
	require.ErrorIs(t, err, relationaldb.ErrInvalidDriver)
}
