// Package backends opens a database.DB by backend name.
package backends

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/LeJamon/goEscrowd/internal/storage/database"
	"github.com/LeJamon/goEscrowd/internal/storage/database/bbolt"
	"github.com/LeJamon/goEscrowd/internal/storage/database/leveldb"
	"github.com/LeJamon/goEscrowd/internal/storage/database/memory"
	"github.com/LeJamon/goEscrowd/internal/storage/database/pebble"
)

// Backend names accepted by Open.
const (
	Memory  = "memory"
	Pebble  = "pebble"
	BBolt   = "bbolt"
	LevelDB = "leveldb"
)

// Names lists every supported backend.
func Names() []string {
	return []string{Memory, Pebble, BBolt, LevelDB}
}

// Open opens the named backend rooted at dir. The memory backend ignores dir.
func Open(backend, dir string) (database.DB, error) {
	if backend == Memory {
		return memory.New(), nil
	}

	if dir == "" {
		return nil, fmt.Errorf("backend %s requires a path", backend)
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create ledger directory: %w", err)
	}

	switch backend {
	case Pebble:
		return pebble.Open(filepath.Join(dir, "ledger.pebble"))
	case BBolt:
		return bbolt.Open(filepath.Join(dir, "ledger.bolt"))
	case LevelDB:
		return leveldb.Open(filepath.Join(dir, "ledger.leveldb"))
	default:
		return nil, fmt.Errorf("%w: %s", database.ErrUnknownBackend, backend)
	}
}
