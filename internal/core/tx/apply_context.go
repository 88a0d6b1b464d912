package tx

import (
	"bytes"
	"math"

	"go.uber.org/zap"

	"github.com/LeJamon/goEscrowd/internal/core/ledger/entry"
	"github.com/LeJamon/goEscrowd/internal/core/ledger/keylet"
	"github.com/LeJamon/goEscrowd/internal/types"
)

// MaxInvokeDepth bounds nested cross-program invocations.
const MaxInvokeDepth = 4

// AccountRole is the signer/writable shape a program expects at one
// position of its account list.
type AccountRole struct {
	Signer   bool
	Writable bool
}

var (
	RoleReadonly       = AccountRole{}
	RoleWritable       = AccountRole{Writable: true}
	RoleWritableSigner = AccountRole{Signer: true, Writable: true}
	RoleReadonlySigner = AccountRole{Signer: true}
)

// ProgramAuthority proves that the program holding it derived address from
// its own id. Passing it to Invoke grants signer status to address. The
// zero value grants nothing; only ApplyContext.ProveAuthority creates one.
type ProgramAuthority struct {
	program types.Pubkey
	address types.Pubkey
}

// Address returns the derived address the proof signs for.
func (a ProgramAuthority) Address() types.Pubkey {
	return a.address
}

// ApplyContext is one program invocation: the instruction being processed,
// the privileges it carries and access to the transaction's state table.
type ApplyContext struct {
	// ProgramID is the program being run.
	ProgramID types.Pubkey

	// Accounts and Data are the instruction's inputs.
	Accounts []AccountMeta
	Data     []byte

	// View is the transaction's buffered state.
	View *ApplyStateTable

	// Config holds engine configuration (rent, limits).
	Config EngineConfig

	Logger *zap.Logger

	engine   *Engine
	depth    int
	signers  map[types.Pubkey]bool
	writable map[types.Pubkey]bool
}

// Key returns the i-th account. Callers check the count first with
// RequireAccounts.
func (c *ApplyContext) Key(i int) types.Pubkey {
	return c.Accounts[i].Pubkey
}

// IsSigner reports whether key carries signer privilege in this invocation.
func (c *ApplyContext) IsSigner(key types.Pubkey) bool {
	return c.signers[key]
}

// IsWritable reports whether key may be modified in this invocation.
func (c *ApplyContext) IsWritable(key types.Pubkey) bool {
	return c.writable[key]
}

// Depth is 0 for a top-level instruction.
func (c *ApplyContext) Depth() int {
	return c.depth
}

func (c *ApplyContext) listed(key types.Pubkey) bool {
	if key == c.ProgramID {
		return true
	}
	for _, m := range c.Accounts {
		if m.Pubkey == key {
			return true
		}
	}
	return false
}

// Rent returns the rent parameters in effect.
func (c *ApplyContext) Rent() Rent {
	return c.Config.Rent
}

// UnixTime returns the engine clock in seconds.
func (c *ApplyContext) UnixTime() int64 {
	return c.Config.Now().Unix()
}

// Fail logs why the invocation is rejected and returns r.
func (c *ApplyContext) Fail(r Result, msg string, fields ...zap.Field) Result {
	c.Logger.Debug(msg, append(fields, zap.Stringer("result", r), zap.Int("depth", c.depth))...)
	return r
}

// RequireAccounts checks that the account list has exactly len(roles)
// entries whose signer and writable flags equal the roles, and that every
// account flagged as signer really holds signer privilege.
func (c *ApplyContext) RequireAccounts(roles ...AccountRole) Result {
	if len(c.Accounts) != len(roles) {
		return c.Fail(AccountRoleMismatch, "account count mismatch",
			zap.Int("want", len(roles)), zap.Int("got", len(c.Accounts)))
	}
	for i, role := range roles {
		m := c.Accounts[i]
		if m.IsSigner != role.Signer || m.IsWritable != role.Writable {
			return c.Fail(AccountRoleMismatch, "account flags mismatch",
				zap.Int("index", i), zap.Stringer("account", m.Pubkey))
		}
		if m.IsSigner && !c.signers[m.Pubkey] {
			return c.Fail(AccountRoleMismatch, "account flagged signer did not sign",
				zap.Int("index", i), zap.Stringer("account", m.Pubkey))
		}
	}
	return Success
}

// Load returns a copy of the working state of key, nil if it does not
// exist. key must be one of the invocation's accounts.
func (c *ApplyContext) Load(key types.Pubkey) (*entry.Account, Result) {
	if !c.listed(key) {
		return nil, c.Fail(Internal, "load of unlisted account", zap.Stringer("account", key))
	}
	acc, err := c.View.Read(key)
	if err != nil {
		return nil, c.Fail(Internal, "state read failed", zap.Stringer("account", key), zap.Error(err))
	}
	return acc, Success
}

// Store replaces the working state of key, enforcing the ownership rules:
//   - the account must be writable in this invocation
//   - only the system program creates accounts with data or a non-system
//     owner; any program may fund a new plain wallet
//   - executable accounts never change
//   - a program that does not own the account may only credit lamports
//   - the owner may reassign an account only with zeroed data
//
// A nil account or zero lamports closes it.
func (c *ApplyContext) Store(key types.Pubkey, next *entry.Account) Result {
	prior, r := c.Load(key)
	if r != Success {
		return r
	}
	closing := next == nil || next.Lamports == 0
	if prior.Equal(next) || (prior == nil && closing) {
		return Success
	}
	if !c.writable[key] {
		return c.Fail(AccountRoleMismatch, "write to readonly account", zap.Stringer("account", key))
	}

	switch {
	case prior == nil:
		wallet := next.Owner == types.SystemProgramID && len(next.Data) == 0 && !next.Executable
		if c.ProgramID != types.SystemProgramID && !wallet {
			return c.Fail(AccountOwnerMismatch, "only the system program creates accounts", zap.Stringer("account", key))
		}
	case prior.Executable:
		return c.Fail(AccountOwnerMismatch, "executable account is immutable", zap.Stringer("account", key))
	case prior.Owner != c.ProgramID:
		if closing || next.Lamports < prior.Lamports {
			return c.Fail(AccountOwnerMismatch, "debit from account owned by another program", zap.Stringer("account", key))
		}
		if next.Owner != prior.Owner || next.Executable != prior.Executable || !bytes.Equal(next.Data, prior.Data) {
			return c.Fail(AccountOwnerMismatch, "modify account owned by another program", zap.Stringer("account", key))
		}
	default:
		if !closing && next.Executable != prior.Executable {
			return c.Fail(AccountOwnerMismatch, "executable flag is immutable", zap.Stringer("account", key))
		}
		if !closing && next.Owner != prior.Owner && !isZeroed(next.Data) {
			return c.Fail(AccountOwnerMismatch, "reassign account with data", zap.Stringer("account", key))
		}
	}

	if err := c.View.Write(key, next); err != nil {
		return c.Fail(Internal, "state write failed", zap.Stringer("account", key), zap.Error(err))
	}
	return Success
}

// Credit adds lamports to key, creating a plain wallet if it does not
// exist.
func (c *ApplyContext) Credit(key types.Pubkey, lamports uint64) Result {
	acc, r := c.Load(key)
	if r != Success {
		return r
	}
	if lamports == 0 {
		return Success
	}
	if acc == nil {
		acc = &entry.Account{Owner: types.SystemProgramID}
	}
	if acc.Lamports > math.MaxUint64-lamports {
		return c.Fail(InvalidAmount, "balance overflow", zap.Stringer("account", key))
	}
	acc.Lamports += lamports
	return c.Store(key, acc)
}

// Close removes key and credits its lamports to dest. The invoking program
// must own key.
func (c *ApplyContext) Close(key, dest types.Pubkey) Result {
	if key == dest {
		return c.Fail(InvalidAccountData, "close into itself", zap.Stringer("account", key))
	}
	acc, r := c.Load(key)
	if r != Success {
		return r
	}
	if acc == nil {
		return Success
	}
	if r := c.Store(key, nil); r != Success {
		return r
	}
	return c.Credit(dest, acc.Lamports)
}

func isZeroed(b []byte) bool {
	for _, v := range b {
		if v != 0 {
			return false
		}
	}
	return true
}

// ProveAuthority derives an address from seeds (bump included) under this
// invocation's program and returns a proof that signs for it.
func (c *ApplyContext) ProveAuthority(seeds ...[]byte) (ProgramAuthority, Result) {
	addr, err := keylet.CreateProgramAddress(seeds, c.ProgramID)
	if err != nil {
		return ProgramAuthority{}, c.Fail(InvalidSeeds, "cannot derive program authority", zap.Error(err))
	}
	return ProgramAuthority{program: c.ProgramID, address: addr}, Success
}

// Invoke runs ix as a nested call. Accounts keep at most the privileges
// they hold here; a proof from ProveAuthority adds signer status for its
// address. The program and every account must be in this invocation's
// account list.
func (c *ApplyContext) Invoke(ix Instruction, proofs ...ProgramAuthority) Result {
	if c.depth+1 > MaxInvokeDepth {
		return c.Fail(CallDepthExceeded, "invoke depth exceeded", zap.Stringer("program", ix.ProgramID))
	}
	if !c.listed(ix.ProgramID) {
		return c.Fail(AccountRoleMismatch, "invoked program not in account list", zap.Stringer("program", ix.ProgramID))
	}

	derived := make(map[types.Pubkey]bool, len(proofs))
	for _, p := range proofs {
		if p.program == c.ProgramID {
			derived[p.address] = true
		}
	}

	for _, m := range ix.Accounts {
		if !c.listed(m.Pubkey) {
			return c.Fail(AccountRoleMismatch, "invoke with unlisted account", zap.Stringer("account", m.Pubkey))
		}
		if m.IsWritable && !c.writable[m.Pubkey] {
			return c.Fail(AccountRoleMismatch, "writable escalation", zap.Stringer("account", m.Pubkey))
		}
		if m.IsSigner && !c.signers[m.Pubkey] && !derived[m.Pubkey] {
			return c.Fail(UnauthorizedSigner, "signer escalation", zap.Stringer("account", m.Pubkey))
		}
	}

	return c.engine.process(c.View, ix, c.depth+1)
}
