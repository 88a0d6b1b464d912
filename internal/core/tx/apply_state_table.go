package tx

import (
	"bytes"
	"context"
	"math/bits"
	"sort"

	"github.com/LeJamon/goEscrowd/internal/core/ledger"
	"github.com/LeJamon/goEscrowd/internal/core/ledger/entry"
	"github.com/LeJamon/goEscrowd/internal/types"
)

// Action represents the type of modification to an account
type Action int

const (
	// ActionCache means the account was read but not modified
	ActionCache Action = iota
	// ActionInsert means a new account was created
	ActionInsert
	// ActionModify means an existing account was modified
	ActionModify
	// ActionErase means an account was closed
	ActionErase
)

func (a Action) String() string {
	switch a {
	case ActionCache:
		return "cache"
	case ActionInsert:
		return "insert"
	case ActionModify:
		return "modify"
	case ActionErase:
		return "erase"
	default:
		return "unknown"
	}
}

// State is the committed account store a transaction reads from and
// commits to.
type State interface {
	Get(ctx context.Context, key types.Pubkey) (*entry.Account, error)
	Commit(ctx context.Context, changes []ledger.Change) error
}

// TrackedEntry is an account touched by the transaction. Original is the
// committed state at first read (nil if absent); Current is the working
// state (nil once closed).
type TrackedEntry struct {
	Original *entry.Account
	Current  *entry.Account
}

// Action classifies the entry by comparing Original and Current.
func (e *TrackedEntry) Action() Action {
	switch {
	case e.Original == nil && e.Current == nil:
		return ActionCache
	case e.Original == nil:
		return ActionInsert
	case e.Current == nil:
		return ActionErase
	case e.Original.Equal(e.Current):
		return ActionCache
	default:
		return ActionModify
	}
}

// ApplyStateTable buffers every read and write of one transaction attempt.
// Nothing reaches State until the engine commits the table.
type ApplyStateTable struct {
	ctx   context.Context
	base  State
	items map[types.Pubkey]*TrackedEntry
}

// NewApplyStateTable creates a table over base. ctx bounds every base read.
func NewApplyStateTable(ctx context.Context, base State) *ApplyStateTable {
	return &ApplyStateTable{
		ctx:   ctx,
		base:  base,
		items: make(map[types.Pubkey]*TrackedEntry),
	}
}

func (t *ApplyStateTable) track(key types.Pubkey) (*TrackedEntry, error) {
	if e, ok := t.items[key]; ok {
		return e, nil
	}
	acc, err := t.base.Get(t.ctx, key)
	if err != nil {
		return nil, err
	}
	e := &TrackedEntry{Original: acc, Current: acc.Clone()}
	t.items[key] = e
	return e, nil
}

// Read returns a copy of the working state of key, or nil if it does not
// exist.
func (t *ApplyStateTable) Read(key types.Pubkey) (*entry.Account, error) {
	e, err := t.track(key)
	if err != nil {
		return nil, err
	}
	return e.Current.Clone(), nil
}

// Exists reports whether key currently holds an account.
func (t *ApplyStateTable) Exists(key types.Pubkey) (bool, error) {
	e, err := t.track(key)
	if err != nil {
		return false, err
	}
	return e.Current != nil, nil
}

// Write replaces the working state of key. A nil account, or one without
// lamports, closes it.
func (t *ApplyStateTable) Write(key types.Pubkey, acc *entry.Account) error {
	e, err := t.track(key)
	if err != nil {
		return err
	}
	if acc == nil || acc.Lamports == 0 {
		e.Current = nil
		return nil
	}
	e.Current = acc.Clone()
	return nil
}

func (t *ApplyStateTable) sortedKeys() []types.Pubkey {
	keys := make([]types.Pubkey, 0, len(t.items))
	for k := range t.items {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return bytes.Compare(keys[i][:], keys[j][:]) < 0 })
	return keys
}

// Changes returns one ledger.Change per tracked account. Read-only entries
// become preconditions so a commit fails if anything the transaction
// looked at has moved.
func (t *ApplyStateTable) Changes() []ledger.Change {
	keys := t.sortedKeys()
	changes := make([]ledger.Change, 0, len(keys))
	for _, k := range keys {
		e := t.items[k]
		changes = append(changes, ledger.Change{
			Key:      k,
			Expected: e.Original,
			Next:     e.Current,
			Write:    e.Action() != ActionCache,
		})
	}
	return changes
}

// Metadata lists the accounts the table changes, in address order.
func (t *ApplyStateTable) Metadata(txHash [32]byte) *Metadata {
	md := &Metadata{TxHash: txHash}
	for _, k := range t.sortedKeys() {
		e := t.items[k]
		a := e.Action()
		if a == ActionCache {
			continue
		}
		md.Affected = append(md.Affected, AffectedAccount{
			Pubkey:         k,
			Action:         a,
			LamportsBefore: lamportsOf(e.Original),
			LamportsAfter:  lamportsOf(e.Current),
		})
	}
	return md
}

// LamportsBalanced reports whether the tracked accounts hold the same total
// before and after. ok is false if either sum overflows.
func (t *ApplyStateTable) LamportsBalanced() (balanced, ok bool) {
	var before, after, carry uint64
	for _, e := range t.items {
		before, carry = bits.Add64(before, lamportsOf(e.Original), 0)
		if carry != 0 {
			return false, false
		}
		after, carry = bits.Add64(after, lamportsOf(e.Current), 0)
		if carry != 0 {
			return false, false
		}
	}
	return before == after, true
}

func lamportsOf(a *entry.Account) uint64 {
	if a == nil {
		return 0
	}
	return a.Lamports
}
