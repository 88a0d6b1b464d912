// Package compression provides the block compressors applied to persisted
// account envelopes.
package compression

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrIncompressible is returned when compressing would not shrink the input.
var ErrIncompressible = errors.New("data is incompressible")

// Compressor compresses and restores whole blocks. Compressed output is
// self-describing: Decompress needs no out-of-band length.
type Compressor interface {
	Name() string
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// Factory creates a compressor instance.
type Factory func() Compressor

var (
	mu          sync.RWMutex
	compressors = make(map[string]Factory)
)

// Register registers a compressor factory under name.
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()
	compressors[name] = factory
}

// Get returns a new compressor registered under name.
func Get(name string) (Compressor, error) {
	mu.RLock()
	factory, ok := compressors[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown compressor: %s", name)
	}
	return factory(), nil
}

// Available returns the registered compressor names in sorted order.
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(compressors))
	for name := range compressors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsAvailable reports whether name is registered.
func IsAvailable(name string) bool {
	mu.RLock()
	_, ok := compressors[name]
	mu.RUnlock()
	return ok
}

func init() {
	Register("none", func() Compressor { return NoCompressor{} })
	Register("lz4", func() Compressor { return LZ4Compressor{} })
}
