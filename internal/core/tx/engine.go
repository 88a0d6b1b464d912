package tx

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/LeJamon/goEscrowd/internal/core/ledger"
	"github.com/LeJamon/goEscrowd/internal/core/ledger/genesis"
	"github.com/LeJamon/goEscrowd/internal/storage/relationaldb"
	"github.com/LeJamon/goEscrowd/internal/types"
)

// DefaultMaxCommitAttempts is used when EngineConfig.MaxCommitAttempts is
// not positive.
const DefaultMaxCommitAttempts = 8

// EngineConfig holds configuration for the transaction engine
type EngineConfig struct {
	// Rent sets the minimum balance of every account a program creates.
	Rent Rent

	// MaxCommitAttempts bounds how often a transaction is re-evaluated
	// after losing a commit race.
	MaxCommitAttempts int

	// SubmitConcurrency bounds SubmitAll. Zero means unbounded.
	SubmitConcurrency int

	// Clock is the time source programs read. Nil means time.Now.
	Clock func() time.Time
}

// Now returns the current time according to Clock.
func (c EngineConfig) Now() time.Time {
	if c.Clock == nil {
		return time.Now()
	}
	return c.Clock()
}

// DefaultEngineConfig returns the configuration used by escrowd.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		Rent:              DefaultRent(),
		MaxCommitAttempts: DefaultMaxCommitAttempts,
	}
}

// Recorder receives every committed transaction.
type Recorder interface {
	Record(ctx context.Context, rec *relationaldb.TxRecord) error
}

// Engine processes transactions against a ledger
type Engine struct {
	state    State
	config   EngineConfig
	registry *Registry
	logger   *zap.Logger
	metrics  *Metrics
	recorder Recorder
}

// EngineOption customises an Engine.
type EngineOption func(*Engine)

// WithRegistry replaces DefaultRegistry.
func WithRegistry(r *Registry) EngineOption {
	return func(e *Engine) { e.registry = r }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// WithMetrics sets the collectors updated on every submission.
func WithMetrics(m *Metrics) EngineOption {
	return func(e *Engine) { e.metrics = m }
}

// WithRecorder sets where committed transactions are journaled.
func WithRecorder(r Recorder) EngineOption {
	return func(e *Engine) { e.recorder = r }
}

// NewEngine creates an engine over state.
func NewEngine(state State, config EngineConfig, opts ...EngineOption) *Engine {
	if config.MaxCommitAttempts <= 0 {
		config.MaxCommitAttempts = DefaultMaxCommitAttempts
	}
	e := &Engine{
		state:    state,
		config:   config,
		registry: DefaultRegistry,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = NewMetrics(nil)
	}
	return e
}

// Config returns the engine configuration.
func (e *Engine) Config() EngineConfig {
	return e.config
}

// Registry returns the programs the engine dispatches to.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Bootstrap installs an executable account for every registered program.
// Instructions addressed to a program without one fail with UnknownProgram.
func (e *Engine) Bootstrap(ctx context.Context) error {
	return genesis.Install(ctx, e.state, e.registry.Names())
}

// Submit applies txn atomically: every instruction succeeds and the whole
// set of changes commits, or nothing does. A commit that loses a race is
// re-evaluated against fresh state up to MaxCommitAttempts times.
func (e *Engine) Submit(ctx context.Context, txn Transaction) ApplyResult {
	hash := txn.Hash()
	log := e.logger.With(zap.String("tx", fmt.Sprintf("%x", hash[:8])))

	if r := e.preflight(txn); r != Success {
		return e.finish(ctx, log, txn, ApplyResult{Result: r, Message: r.Message()})
	}

	for attempt := 1; attempt <= e.config.MaxCommitAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return e.finish(ctx, log, txn, ApplyResult{Result: Internal, Attempts: attempt - 1, Message: err.Error()})
		}

		table := NewApplyStateTable(ctx, e.state)
		r := e.apply(table, txn)
		if r == Success {
			if balanced, ok := table.LamportsBalanced(); !ok || !balanced {
				log.Error("transaction does not conserve lamports")
				r = UnbalancedLamports
			}
		}
		if r != Success {
			return e.finish(ctx, log, txn, ApplyResult{Result: r, Attempts: attempt, Message: r.Message()})
		}

		err := e.state.Commit(ctx, table.Changes())
		if errors.Is(err, ledger.ErrConflict) {
			e.metrics.Conflicts.Inc()
			log.Debug("commit conflict, retrying", zap.Int("attempt", attempt))
			continue
		}
		if err != nil {
			log.Error("commit failed", zap.Error(err))
			return e.finish(ctx, log, txn, ApplyResult{Result: Internal, Attempts: attempt, Message: err.Error()})
		}

		return e.finish(ctx, log, txn, ApplyResult{
			Result:   Success,
			Applied:  true,
			Attempts: attempt,
			Metadata: table.Metadata(hash),
			Message:  Success.Message(),
		})
	}

	return e.finish(ctx, log, txn, ApplyResult{
		Result:   CommitConflict,
		Attempts: e.config.MaxCommitAttempts,
		Message:  CommitConflict.Message(),
	})
}

// SubmitAll submits every transaction concurrently and returns the results
// in input order.
func (e *Engine) SubmitAll(ctx context.Context, txns []Transaction) []ApplyResult {
	results := make([]ApplyResult, len(txns))
	var g errgroup.Group
	if e.config.SubmitConcurrency > 0 {
		g.SetLimit(e.config.SubmitConcurrency)
	}
	for i := range txns {
		g.Go(func() error {
			results[i] = e.Submit(ctx, txns[i])
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// preflight checks what can be checked without state: the transaction is
// not empty and every account claimed as a top-level signer really signed.
func (e *Engine) preflight(txn Transaction) Result {
	if len(txn.Instructions) == 0 {
		return MalformedInstruction
	}
	for _, ix := range txn.Instructions {
		for _, m := range ix.Accounts {
			if m.IsSigner && !txn.HasSigner(m.Pubkey) {
				return AccountRoleMismatch
			}
		}
	}
	return Success
}

func (e *Engine) apply(table *ApplyStateTable, txn Transaction) Result {
	for i, ix := range txn.Instructions {
		if r := e.process(table, ix, 0); r != Success {
			e.logger.Debug("instruction failed",
				zap.Int("index", i),
				zap.Stringer("program", ix.ProgramID),
				zap.Stringer("result", r))
			return r
		}
	}
	return Success
}

// process dispatches one instruction. The caller has already checked that
// every signer and writable flag in ix is backed by a real privilege.
func (e *Engine) process(table *ApplyStateTable, ix Instruction, depth int) Result {
	program := e.registry.Get(ix.ProgramID)
	if program == nil {
		return UnknownProgram
	}
	acc, err := table.Read(ix.ProgramID)
	if err != nil {
		e.logger.Error("program account read failed", zap.Stringer("program", ix.ProgramID), zap.Error(err))
		return Internal
	}
	if acc == nil || !acc.Executable {
		return UnknownProgram
	}

	signers := make(map[types.Pubkey]bool)
	writable := make(map[types.Pubkey]bool)
	for _, m := range ix.Accounts {
		if m.IsSigner {
			signers[m.Pubkey] = true
		}
		if m.IsWritable {
			writable[m.Pubkey] = true
		}
	}

	e.metrics.Instructions.WithLabelValues(program.Name()).Inc()
	ctx := &ApplyContext{
		ProgramID: ix.ProgramID,
		Accounts:  ix.Accounts,
		Data:      ix.Data,
		View:      table,
		Config:    e.config,
		Logger:    e.logger.With(zap.String("program", program.Name())),
		engine:    e,
		depth:     depth,
		signers:   signers,
		writable:  writable,
	}
	return program.Process(ctx)
}

func (e *Engine) finish(ctx context.Context, log *zap.Logger, txn Transaction, res ApplyResult) ApplyResult {
	e.metrics.Transactions.WithLabelValues(res.Result.String()).Inc()
	if res.Attempts > 0 {
		e.metrics.CommitAttempts.Observe(float64(res.Attempts))
	}

	if !res.Applied {
		log.Debug("transaction rejected", zap.Stringer("result", res.Result), zap.Int("attempts", res.Attempts))
		return res
	}
	log.Debug("transaction applied", zap.Int("attempts", res.Attempts), zap.Int("affected", len(res.Metadata.Affected)))

	if e.recorder != nil {
		rec := &relationaldb.TxRecord{
			Hash:         txn.HashHex(),
			Result:       res.Result.String(),
			Code:         int(res.Result),
			Instructions: len(txn.Instructions),
			Attempts:     res.Attempts,
			AppliedAt:    time.Now().UTC(),
		}
		for _, a := range res.Metadata.Affected {
			rec.Accounts = append(rec.Accounts, a.Pubkey.String())
		}
		// The ledger already holds the change; a journal failure is logged
		// and does not undo it.
		if err := e.recorder.Record(ctx, rec); err != nil {
			log.Warn("journal write failed", zap.Error(err))
		}
	}
	return res
}
