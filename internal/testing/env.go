package testing

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/LeJamon/goEscrowd/internal/core/ledger"
	"github.com/LeJamon/goEscrowd/internal/core/ledger/entry"
	"github.com/LeJamon/goEscrowd/internal/core/ledger/genesis"
	"github.com/LeJamon/goEscrowd/internal/core/ledger/keylet"
	"github.com/LeJamon/goEscrowd/internal/core/tx"
	_ "github.com/LeJamon/goEscrowd/internal/core/tx/all"
	"github.com/LeJamon/goEscrowd/internal/core/tx/associated"
	"github.com/LeJamon/goEscrowd/internal/core/tx/system"
	"github.com/LeJamon/goEscrowd/internal/core/tx/token"
	"github.com/LeJamon/goEscrowd/internal/storage/database/backends"
	"github.com/LeJamon/goEscrowd/internal/storage/relationaldb"
	"github.com/LeJamon/goEscrowd/internal/storage/relationaldb/drivers"
	"github.com/LeJamon/goEscrowd/internal/types"
)

const (
	// GenesisLamports is the master account's starting balance.
	GenesisLamports = uint64(1) << 60

	// DefaultFund is what Fund gives each account.
	DefaultFund = uint64(10_000_000_000)
)

// GenesisTime is the engine clock of a new TestEnv.
var GenesisTime = time.Unix(1_700_000_000, 0).UTC()

// manualClock only moves when told to.
type manualClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// TestEnv manages a test ledger for transaction testing.
// It wires a real Ledger and Engine over a database backend, funds accounts
// from a genesis master account and wraps submission results for assertions.
type TestEnv struct {
	t        *testing.T
	ctx      context.Context
	ledger   *ledger.Ledger
	engine   *tx.Engine
	registry *prometheus.Registry
	metrics  *tx.Metrics
	journal  relationaldb.Journal
	master   *Account
	clock    *manualClock
}

type envOptions struct {
	backend string
	history bool
	config  tx.EngineConfig
	logger  *zap.Logger
}

// Option customises NewTestEnv.
type Option func(*envOptions)

// WithBackend stores the ledger in the named database backend under t.TempDir().
func WithBackend(name string) Option {
	return func(o *envOptions) { o.backend = name }
}

// WithHistory journals committed transactions to a sqlite file.
func WithHistory() Option {
	return func(o *envOptions) { o.history = true }
}

// WithEngineConfig replaces the default engine configuration.
func WithEngineConfig(cfg tx.EngineConfig) Option {
	return func(o *envOptions) { o.config = cfg }
}

// WithLogger sets the engine and ledger logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *envOptions) { o.logger = l }
}

// NewTestEnv creates a test environment with every program installed and a
// funded master account.
func NewTestEnv(t *testing.T, opts ...Option) *TestEnv {
	t.Helper()

	o := envOptions{
		backend: backends.Memory,
		config:  tx.DefaultEngineConfig(),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	dir := t.TempDir()
	db, err := backends.Open(o.backend, filepath.Join(dir, "ledger"))
	if err != nil {
		t.Fatalf("Failed to open %s database: %v", o.backend, err)
	}
	l, err := ledger.New(db, ledger.Options{Compression: "lz4", Logger: o.logger})
	if err != nil {
		t.Fatalf("Failed to create ledger: %v", err)
	}
	t.Cleanup(func() { _ = l.Close() })

	env := &TestEnv{
		t:        t,
		ctx:      context.Background(),
		ledger:   l,
		registry: prometheus.NewRegistry(),
		master:   MasterAccount(),
	}
	env.metrics = tx.NewMetrics(env.registry)

	engineOpts := []tx.EngineOption{tx.WithLogger(o.logger), tx.WithMetrics(env.metrics)}
	if o.history {
		j, err := drivers.Open(env.ctx, relationaldb.DriverSQLite, filepath.Join(dir, "history.db"))
		if err != nil {
			t.Fatalf("Failed to open journal: %v", err)
		}
		t.Cleanup(func() { _ = j.Close() })
		env.journal = j
		engineOpts = append(engineOpts, tx.WithRecorder(j))
	}
	if o.config.Clock == nil {
		env.clock = &manualClock{now: GenesisTime}
		o.config.Clock = env.clock.Now
	}
	env.engine = tx.NewEngine(l, o.config, engineOpts...)

	if err := env.engine.Bootstrap(env.ctx); err != nil {
		t.Fatalf("Failed to install programs: %v", err)
	}
	if _, err := genesis.FundWallet(env.ctx, l, env.master.Pubkey, GenesisLamports); err != nil {
		t.Fatalf("Failed to fund master account: %v", err)
	}
	return env
}

// Fund transfers DefaultFund lamports from the master account to each account.
func (e *TestEnv) Fund(accounts ...*Account) {
	e.t.Helper()
	for _, acc := range accounts {
		e.FundAmount(acc, DefaultFund)
	}
}

// FundAmount transfers lamports from the master account to acc.
func (e *TestEnv) FundAmount(acc *Account, lamports uint64) {
	e.t.Helper()
	result := e.Submit([]*Account{e.master}, system.Transfer(e.master.Pubkey, acc.Pubkey, lamports))
	if !result.Success {
		e.t.Fatalf("Failed to fund %s: %s", acc.Name, result.Code)
	}
}

// CreateMint creates and initializes a mint named name under authority.
// The master account pays the rent.
func (e *TestEnv) CreateMint(name string, authority *Account, decimals uint8) *Account {
	e.t.Helper()
	mint := NewAccount(name)
	rent := e.engine.Config().Rent.MinimumBalance(token.MintLen)
	result := e.Submit([]*Account{e.master, mint},
		system.CreateAccount(e.master.Pubkey, mint.Pubkey, rent, token.MintLen, types.TokenProgramID),
		token.InitializeMint2(mint.Pubkey, decimals, authority.Pubkey, nil),
	)
	if !result.Success {
		e.t.Fatalf("Failed to create mint %s: %s %s", name, result.Code, result.Message)
	}
	return mint
}

// MintTo mints amount of mint into owner's associated token account,
// creating it if needed.
func (e *TestEnv) MintTo(mint, authority, owner *Account, amount uint64) {
	e.t.Helper()
	result := e.Submit([]*Account{e.master, authority},
		associated.CreateIdempotent(e.master.Pubkey, owner.Pubkey, mint.Pubkey),
		token.MintTo(mint.Pubkey, e.ATA(owner.Pubkey, mint.Pubkey), authority.Pubkey, amount),
	)
	if !result.Success {
		e.t.Fatalf("Failed to mint %d to %s: %s %s", amount, owner.Name, result.Code, result.Message)
	}
}

// Submit applies the instructions as one transaction signed by signers.
func (e *TestEnv) Submit(signers []*Account, ixs ...tx.Instruction) TxResult {
	e.t.Helper()
	return newTxResult(e.engine.Submit(e.ctx, tx.NewTransaction(Keys(signers...), ixs...)))
}

// SubmitTx applies a prepared transaction.
func (e *TestEnv) SubmitTx(txn tx.Transaction) TxResult {
	e.t.Helper()
	return newTxResult(e.engine.Submit(e.ctx, txn))
}

// Account returns the stored account at key, or nil.
func (e *TestEnv) Account(key types.Pubkey) *entry.Account {
	e.t.Helper()
	acc, err := e.ledger.Get(e.ctx, key)
	if err != nil {
		e.t.Fatalf("Failed to read %s: %v", key, err)
	}
	return acc
}

// Exists reports whether an account is stored at key.
func (e *TestEnv) Exists(key types.Pubkey) bool {
	e.t.Helper()
	return e.Account(key) != nil
}

// Lamports returns the balance at key, zero when absent.
func (e *TestEnv) Lamports(key types.Pubkey) uint64 {
	e.t.Helper()
	acc := e.Account(key)
	if acc == nil {
		return 0
	}
	return acc.Lamports
}

// Balance returns acc's lamport balance.
func (e *TestEnv) Balance(acc *Account) uint64 {
	e.t.Helper()
	return e.Lamports(acc.Pubkey)
}

// ATA returns the associated token account address of owner for mint.
func (e *TestEnv) ATA(owner, mint types.Pubkey) types.Pubkey {
	e.t.Helper()
	k, err := keylet.AssociatedToken(owner, mint)
	if err != nil {
		e.t.Fatalf("Failed to derive token account: %v", err)
	}
	return k.Address
}

// TokenAccount decodes the token account at key, or returns nil when absent.
func (e *TestEnv) TokenAccount(key types.Pubkey) *token.Account {
	e.t.Helper()
	acc := e.Account(key)
	if acc == nil {
		return nil
	}
	holding, err := token.UnpackAccount(acc.Data)
	if err != nil {
		e.t.Fatalf("Account %s is not a token account: %v", key, err)
	}
	return holding
}

// TokenBalance returns owner's associated token balance for mint, zero when
// the account does not exist.
func (e *TestEnv) TokenBalance(owner, mint *Account) uint64 {
	e.t.Helper()
	return e.TokenAmount(e.ATA(owner.Pubkey, mint.Pubkey))
}

// TokenAmount returns the balance of the token account at key, zero when absent.
func (e *TestEnv) TokenAmount(key types.Pubkey) uint64 {
	e.t.Helper()
	holding := e.TokenAccount(key)
	if holding == nil {
		return 0
	}
	return holding.Amount
}

// Supply returns a mint's total supply.
func (e *TestEnv) Supply(mint *Account) uint64 {
	e.t.Helper()
	acc := e.Account(mint.Pubkey)
	if acc == nil {
		e.t.Fatalf("Mint %s does not exist", mint.Name)
	}
	m, err := token.UnpackMint(acc.Data)
	if err != nil {
		e.t.Fatalf("Failed to decode mint %s: %v", mint.Name, err)
	}
	return m.Supply
}

// TotalLamports sums every stored balance.
func (e *TestEnv) TotalLamports() uint64 {
	e.t.Helper()
	var total uint64
	err := e.ledger.ForEach(e.ctx, func(_ types.Pubkey, acc *entry.Account) bool {
		total += acc.Lamports
		return true
	})
	if err != nil {
		e.t.Fatalf("Failed to walk ledger: %v", err)
	}
	return total
}

// Rent returns the rent-exempt minimum for dataLen bytes.
func (e *TestEnv) Rent(dataLen int) uint64 {
	return e.engine.Config().Rent.MinimumBalance(dataLen)
}

// Now returns the engine clock.
func (e *TestEnv) Now() time.Time {
	return e.engine.Config().Now()
}

// Advance moves the engine clock forward by d. It fails the test when
// WithEngineConfig supplied its own clock.
func (e *TestEnv) Advance(d time.Duration) {
	e.t.Helper()
	if e.clock == nil {
		e.t.Fatalf("Cannot advance a caller-supplied clock")
	}
	e.clock.advance(d)
}

// Context returns the context used for submissions.
func (e *TestEnv) Context() context.Context {
	return e.ctx
}

// Ledger returns the underlying ledger.
func (e *TestEnv) Ledger() *ledger.Ledger {
	return e.ledger
}

// Engine returns the transaction engine.
func (e *TestEnv) Engine() *tx.Engine {
	return e.engine
}

// Metrics returns the engine metrics.
func (e *TestEnv) Metrics() *tx.Metrics {
	return e.metrics
}

// Registry returns the prometheus registry the metrics are registered in.
func (e *TestEnv) Registry() *prometheus.Registry {
	return e.registry
}

// Journal returns the transaction journal, nil unless WithHistory was set.
func (e *TestEnv) Journal() relationaldb.Journal {
	return e.journal
}

// MasterAccount returns the genesis faucet account.
func (e *TestEnv) MasterAccount() *Account {
	return e.master
}
