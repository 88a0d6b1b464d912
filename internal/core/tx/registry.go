package tx

import (
	"fmt"
	"sort"
	"sync"

	"github.com/LeJamon/goEscrowd/internal/types"
)

// Program is a built-in program the runtime can dispatch to.
type Program interface {
	ProgramID() types.Pubkey
	Name() string

	// Process runs one instruction. Any non-success result aborts the
	// whole transaction.
	Process(ctx *ApplyContext) Result
}

// Registry maps program ids to programs.
// It provides thread-safe registration and lookup.
type Registry struct {
	mu       sync.RWMutex
	programs map[types.Pubkey]Program
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		programs: make(map[types.Pubkey]Program),
	}
}

// Register adds p. Returns an error if its id is already taken.
func (r *Registry) Register(p Program) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := p.ProgramID()
	if existing, exists := r.programs[id]; exists {
		return fmt.Errorf("program %s already registered as %s", id, existing.Name())
	}
	r.programs[id] = p
	return nil
}

// MustRegister adds p and panics if registration fails.
// Useful for init() functions.
func (r *Registry) MustRegister(p Program) {
	if err := r.Register(p); err != nil {
		panic(err)
	}
}

// Get returns the program with id, or nil.
func (r *Registry) Get(id types.Pubkey) Program {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.programs[id]
}

// Programs returns every registered program ordered by name.
func (r *Registry) Programs() []Program {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Program, 0, len(r.programs))
	for _, p := range r.programs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Names returns id to name for every registered program.
func (r *Registry) Names() map[types.Pubkey]string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[types.Pubkey]string, len(r.programs))
	for id, p := range r.programs {
		out[id] = p.Name()
	}
	return out
}

// DefaultRegistry is the registry programs add themselves to from init().
var DefaultRegistry = NewRegistry()

// Register adds a program to the default registry, panicking on a
// duplicate id.
func Register(p Program) {
	DefaultRegistry.MustRegister(p)
}
