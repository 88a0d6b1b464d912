// Package memory keeps ledger data in a goleveldb skiplist. Nothing is
// persisted; it backs tests and the default simulate configuration.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb/comparer"
	"github.com/syndtr/goleveldb/leveldb/memdb"
	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/LeJamon/goEscrowd/internal/storage/database"
	"github.com/LeJamon/goEscrowd/internal/storage/database/leveldb"
)

const initialCapacity = 64 << 10

type DB struct {
	// mu makes Batch atomic with respect to readers.
	mu     sync.RWMutex
	db     *memdb.DB
	closed bool
}

func New() *DB {
	return &DB{db: memdb.New(comparer.DefaultComparer, initialCapacity)}
}

func (m *DB) Read(ctx context.Context, key []byte) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, database.ErrDBClosed
	}

	val, err := m.db.Get(key)
	if err != nil {
		if errors.Is(err, memdb.ErrNotFound) {
			return nil, database.ErrKeyNotFound
		}
		return nil, err
	}
	return append([]byte(nil), val...), nil
}

func (m *DB) Write(ctx context.Context, key, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return database.ErrDBClosed
	}
	return m.db.Put(key, value)
}

func (m *DB) Delete(ctx context.Context, key []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return database.ErrDBClosed
	}
	return m.delete(key)
}

func (m *DB) delete(key []byte) error {
	if err := m.db.Delete(key); err != nil && !errors.Is(err, memdb.ErrNotFound) {
		return err
	}
	return nil
}

func (m *DB) Batch(ctx context.Context, ops []database.BatchOperation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return database.ErrDBClosed
	}

	for _, op := range ops {
		if op.Type != database.BatchPut && op.Type != database.BatchDelete {
			return fmt.Errorf("unknown batch operation type: %d", op.Type)
		}
	}
	for _, op := range ops {
		var err error
		if op.Type == database.BatchPut {
			err = m.db.Put(op.Key, op.Value)
		} else {
			err = m.delete(op.Key)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// Iterator returns a snapshot of [start, end) taken under the read lock.
func (m *DB) Iterator(ctx context.Context, start, end []byte) (database.Iterator, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, database.ErrDBClosed
	}

	snapshot := memdb.New(comparer.DefaultComparer, 0)
	iter := m.db.NewIterator(&util.Range{Start: start, Limit: end})
	defer iter.Release()
	for iter.Next() {
		if err := snapshot.Put(iter.Key(), iter.Value()); err != nil {
			return nil, err
		}
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return leveldb.Wrap(snapshot.NewIterator(nil)), nil
}

func (m *DB) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.db.Reset()
	return nil
}
