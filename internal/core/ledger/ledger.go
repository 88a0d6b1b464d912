// Package ledger holds the current account state over a database.DB.
//
// Reads go through an LRU cache that also remembers absent addresses. Writes
// happen only through Commit, which checks every change's expected prior
// state before applying the whole set in one batch.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/LeJamon/goEscrowd/internal/core/ledger/entry"
	"github.com/LeJamon/goEscrowd/internal/storage/database"
	"github.com/LeJamon/goEscrowd/internal/types"
)

const (
	accountPrefix = 'a'

	// DefaultCacheSize is used when Options.CacheSize is not positive.
	DefaultCacheSize = 4096
)

// ErrConflict is returned by Commit when an account no longer matches the
// state the change was computed from.
var ErrConflict = errors.New("ledger: state changed since read")

// Change is one account's transition within a Commit. Expected is the state
// the caller observed (nil for absent). When Write is false the change only
// asserts Expected. A nil Next, or one with zero lamports, removes the
// account.
type Change struct {
	Key      types.Pubkey
	Expected *entry.Account
	Next     *entry.Account
	Write    bool
}

// Options configures a Ledger.
type Options struct {
	CacheSize   int
	Compression string
	Logger      *zap.Logger
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits    uint64
	Misses  uint64
	Commits uint64
}

type Ledger struct {
	// mu orders cache fills against commits so a fill never caches a value
	// older than one already committed.
	mu sync.RWMutex

	db     database.DB
	codec  *entry.Codec
	cache  *lru.Cache[types.Pubkey, *entry.Account]
	logger *zap.Logger

	hits    atomic.Uint64
	misses  atomic.Uint64
	commits atomic.Uint64
}

// New wraps db.
func New(db database.DB, opts Options) (*Ledger, error) {
	if opts.CacheSize <= 0 {
		opts.CacheSize = DefaultCacheSize
	}
	if opts.Compression == "" {
		opts.Compression = "none"
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	c, err := entry.NewCodec(opts.Compression)
	if err != nil {
		return nil, err
	}
	cache, err := lru.New[types.Pubkey, *entry.Account](opts.CacheSize)
	if err != nil {
		return nil, err
	}

	return &Ledger{
		db:     db,
		codec:  c,
		cache:  cache,
		logger: opts.Logger,
	}, nil
}

func accountKey(key types.Pubkey) []byte {
	k := make([]byte, 0, 1+len(key))
	k = append(k, accountPrefix)
	return append(k, key[:]...)
}

// Get returns a copy of the account at key, or nil if it does not exist.
func (l *Ledger) Get(ctx context.Context, key types.Pubkey) (*entry.Account, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	acc, err := l.load(ctx, key)
	if err != nil {
		return nil, err
	}
	return acc.Clone(), nil
}

// load returns the cached account without copying. Callers hold mu.
func (l *Ledger) load(ctx context.Context, key types.Pubkey) (*entry.Account, error) {
	if acc, ok := l.cache.Get(key); ok {
		l.hits.Add(1)
		return acc, nil
	}
	l.misses.Add(1)

	raw, err := l.db.Read(ctx, accountKey(key))
	switch {
	case errors.Is(err, database.ErrKeyNotFound):
		l.cache.Add(key, nil)
		return nil, nil
	case err != nil:
		return nil, fmt.Errorf("read account %s: %w", key, err)
	}

	acc, err := l.codec.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("decode account %s: %w", key, err)
	}
	l.cache.Add(key, acc)
	return acc, nil
}

// Commit verifies every change's Expected state against the ledger and, if
// all match, applies the writes atomically. On mismatch nothing is written
// and ErrConflict is returned.
func (l *Ledger) Commit(ctx context.Context, changes []Change) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	ops := make([]database.BatchOperation, 0, len(changes))
	next := make(map[types.Pubkey]*entry.Account, len(changes))

	for _, c := range changes {
		current, err := l.load(ctx, c.Key)
		if err != nil {
			return err
		}
		if !current.Equal(c.Expected) {
			l.logger.Debug("commit conflict", zap.Stringer("account", c.Key))
			return fmt.Errorf("%w: %s", ErrConflict, c.Key)
		}
		if !c.Write {
			continue
		}

		if c.Next == nil || c.Next.Lamports == 0 {
			ops = append(ops, database.BatchOperation{Type: database.BatchDelete, Key: accountKey(c.Key)})
			next[c.Key] = nil
			continue
		}

		raw, err := l.codec.Encode(c.Next)
		if err != nil {
			return err
		}
		ops = append(ops, database.BatchOperation{Type: database.BatchPut, Key: accountKey(c.Key), Value: raw})
		next[c.Key] = c.Next.Clone()
	}

	if len(ops) == 0 {
		return nil
	}
	if err := l.db.Batch(ctx, ops); err != nil {
		// the cache may now disagree with storage
		l.cache.Purge()
		return fmt.Errorf("commit batch: %w", err)
	}
	for key, acc := range next {
		l.cache.Add(key, acc)
	}
	l.commits.Add(1)
	return nil
}

// ForEach calls fn for every stored account in address order until fn
// returns false.
func (l *Ledger) ForEach(ctx context.Context, fn func(key types.Pubkey, acc *entry.Account) bool) error {
	l.mu.RLock()
	defer l.mu.RUnlock()

	prefix := []byte{accountPrefix}
	it, err := l.db.Iterator(ctx, prefix, database.PrefixEnd(prefix))
	if err != nil {
		return err
	}
	defer it.Close()

	for it.Next() {
		var key types.Pubkey
		if len(it.Key()) != 1+len(key) {
			continue
		}
		copy(key[:], it.Key()[1:])

		acc, err := l.codec.Decode(it.Value())
		if err != nil {
			return fmt.Errorf("decode account %s: %w", key, err)
		}
		if !fn(key, acc) {
			break
		}
	}
	return it.Error()
}

// Stats returns cache and commit counters.
func (l *Ledger) Stats() Stats {
	return Stats{
		Hits:    l.hits.Load(),
		Misses:  l.misses.Load(),
		Commits: l.commits.Load(),
	}
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache.Purge()
	return l.db.Close()
}
