// Package leveldb stores ledger data in a goleveldb database.
package leveldb

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/LeJamon/goEscrowd/internal/storage/database"
)

var syncWrites = &opt.WriteOptions{Sync: true}

type DB struct {
	db     *leveldb.DB
	closed atomic.Bool
}

// Open opens or creates a leveldb directory at path.
func Open(path string) (*DB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open leveldb database %s: %w", path, err)
	}
	return &DB{db: db}, nil
}

func (l *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	if l.closed.Load() {
		return nil, database.ErrDBClosed
	}

	val, err := l.db.Get(key, nil)
	if err != nil {
		if errors.Is(err, leveldb.ErrNotFound) {
			return nil, database.ErrKeyNotFound
		}
		return nil, err
	}
	return val, nil
}

func (l *DB) Write(ctx context.Context, key, value []byte) error {
	if l.closed.Load() {
		return database.ErrDBClosed
	}
	return l.db.Put(key, value, syncWrites)
}

func (l *DB) Delete(ctx context.Context, key []byte) error {
	if l.closed.Load() {
		return database.ErrDBClosed
	}
	return l.db.Delete(key, syncWrites)
}

func (l *DB) Batch(ctx context.Context, ops []database.BatchOperation) error {
	if l.closed.Load() {
		return database.ErrDBClosed
	}

	batch := new(leveldb.Batch)
	for _, op := range ops {
		switch op.Type {
		case database.BatchPut:
			batch.Put(op.Key, op.Value)
		case database.BatchDelete:
			batch.Delete(op.Key)
		default:
			return fmt.Errorf("unknown batch operation type: %d", op.Type)
		}
	}
	return l.db.Write(batch, syncWrites)
}

func (l *DB) Close() error {
	if l.closed.Swap(true) {
		return nil
	}
	return l.db.Close()
}

func (l *DB) Iterator(ctx context.Context, start, end []byte) (database.Iterator, error) {
	if l.closed.Load() {
		return nil, database.ErrDBClosed
	}
	return Wrap(l.db.NewIterator(&util.Range{Start: start, Limit: end}, nil)), nil
}

// Iterator adapts a goleveldb iterator. The memory backend shares it.
type Iterator struct {
	iter  iterator.Iterator
	key   []byte
	value []byte
}

// Wrap adapts iter to database.Iterator.
func Wrap(iter iterator.Iterator) *Iterator {
	return &Iterator{iter: iter}
}

func (it *Iterator) Next() bool {
	if !it.iter.Next() {
		it.key, it.value = nil, nil
		return false
	}
	it.key = append([]byte(nil), it.iter.Key()...)
	it.value = append([]byte(nil), it.iter.Value()...)
	return true
}

func (it *Iterator) Key() []byte   { return it.key }
func (it *Iterator) Value() []byte { return it.value }
func (it *Iterator) Error() error  { return it.iter.Error() }

func (it *Iterator) Close() error {
	it.iter.Release()
	return nil
}
