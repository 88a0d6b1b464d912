// Package dbtest holds the behaviour every database.DB backend must share.
package dbtest

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeJamon/goEscrowd/internal/storage/database"
)

// Run exercises a backend produced by open. Each subtest gets a fresh DB.
func Run(t *testing.T, open func(t *testing.T) database.DB) {
	ctx := context.Background()

	t.Run("ReadWriteDelete", func(t *testing.T) {
		db := open(t)

		_, err := db.Read(ctx, []byte("missing"))
		require.ErrorIs(t, err, database.ErrKeyNotFound)

		require.NoError(t, db.Write(ctx, []byte("k"), []byte("v1")))
		got, err := db.Read(ctx, []byte("k"))
		require.NoError(t, err)
		assert.Equal(t, []byte("v1"), got)

		require.NoError(t, db.Write(ctx, []byte("k"), []byte("v2")))
		got, err = db.Read(ctx, []byte("k"))
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), got)

		require.NoError(t, db.Delete(ctx, []byte("k")))
		_, err = db.Read(ctx, []byte("k"))
		require.ErrorIs(t, err, database.ErrKeyNotFound)

		// Deleting an absent key is not an error.
		require.NoError(t, db.Delete(ctx, []byte("k")))
	})

	t.Run("Batch", func(t *testing.T) {
		db := open(t)
		require.NoError(t, db.Write(ctx, []byte("gone"), []byte("x")))

		err := db.Batch(ctx, []database.BatchOperation{
			{Type: database.BatchPut, Key: []byte("a"), Value: []byte("1")},
			{Type: database.BatchPut, Key: []byte("b"), Value: []byte("2")},
			{Type: database.BatchDelete, Key: []byte("gone")},
		})
		require.NoError(t, err)

		for k, want := range map[string]string{"a": "1", "b": "2"} {
			got, err := db.Read(ctx, []byte(k))
			require.NoError(t, err)
			assert.Equal(t, want, string(got))
		}
		_, err = db.Read(ctx, []byte("gone"))
		require.ErrorIs(t, err, database.ErrKeyNotFound)

		err = db.Batch(ctx, []database.BatchOperation{{Type: database.BatchOpType(9), Key: []byte("z")}})
		require.Error(t, err)
	})

	t.Run("IteratorRange", func(t *testing.T) {
		db := open(t)
		for i := 0; i < 10; i++ {
			key := []byte(fmt.Sprintf("key-%02d", i))
			require.NoError(t, db.Write(ctx, key, []byte{byte(i)}))
		}
		require.NoError(t, db.Write(ctx, []byte("other"), []byte{0xff}))

		it, err := db.Iterator(ctx, []byte("key-03"), []byte("key-07"))
		require.NoError(t, err)
		defer it.Close()

		var keys []string
		for it.Next() {
			keys = append(keys, string(it.Key()))
			assert.Len(t, it.Value(), 1)
		}
		require.NoError(t, it.Error())
		assert.Equal(t, []string{"key-03", "key-04", "key-05", "key-06"}, keys)
	})

	t.Run("IteratorPrefix", func(t *testing.T) {
		db := open(t)
		require.NoError(t, db.Write(ctx, []byte("a1"), []byte("x")))
		require.NoError(t, db.Write(ctx, []byte("a2"), []byte("y")))
		require.NoError(t, db.Write(ctx, []byte("b1"), []byte("z")))

		it, err := db.Iterator(ctx, []byte("a"), database.PrefixEnd([]byte("a")))
		require.NoError(t, err)
		defer it.Close()

		count := 0
		for it.Next() {
			count++
		}
		assert.Equal(t, 2, count)
	})

	t.Run("Closed", func(t *testing.T) {
		db := open(t)
		require.NoError(t, db.Close())

		_, err := db.Read(ctx, []byte("k"))
		require.ErrorIs(t, err, database.ErrDBClosed)
		require.ErrorIs(t, db.Write(ctx, []byte("k"), nil), database.ErrDBClosed)
		_, err = db.Iterator(ctx, nil, nil)
		require.ErrorIs(t, err, database.ErrDBClosed)
	})
}
