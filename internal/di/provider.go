package di

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/LeJamon/goEscrowd/internal/config"
	"github.com/LeJamon/goEscrowd/internal/core/ledger"
	"github.com/LeJamon/goEscrowd/internal/core/tx"
	_ "github.com/LeJamon/goEscrowd/internal/core/tx/all"
	"github.com/LeJamon/goEscrowd/internal/logging"
	"github.com/LeJamon/goEscrowd/internal/storage/database"
	"github.com/LeJamon/goEscrowd/internal/storage/database/backends"
	"github.com/LeJamon/goEscrowd/internal/storage/relationaldb"
	"github.com/LeJamon/goEscrowd/internal/storage/relationaldb/drivers"
)

// Provider configures and registers services in the container.
type Provider struct {
	container *Container
	config    *config.Config
	ctx       context.Context
}

// NewProvider creates a new service provider.
func NewProvider(container *Container, cfg *config.Config) *Provider {
	return &Provider{
		container: container,
		config:    cfg,
		ctx:       context.Background(),
	}
}

// WithContext sets the context used by builders that touch the network or
// disk while constructing a service.
func (p *Provider) WithContext(ctx context.Context) *Provider {
	p.ctx = ctx
	return p
}

// RegisterAll registers all services.
func (p *Provider) RegisterAll() error {
	if p.config == nil {
		return errors.New("di: nil config")
	}
	p.container.Register(ServiceConfig, p.config)

	p.registerAmbientBuilders()
	p.registerStorageBuilders()
	p.registerEngineBuilders()
	return nil
}

func (p *Provider) registerAmbientBuilders() {
	p.container.RegisterBuilder(ServiceLogger, func(c *Container) (interface{}, error) {
		return logging.New(p.config.Log.Level, p.config.Log.Format)
	})

	p.container.RegisterBuilder(ServiceMetrics, func(c *Container) (interface{}, error) {
		return prometheus.NewRegistry(), nil
	})
}

// registerStorageBuilders registers storage service builders.
func (p *Provider) registerStorageBuilders() {
	p.container.RegisterBuilder(ServiceDatabase, func(c *Container) (interface{}, error) {
		db, err := backends.Open(p.config.Ledger.Backend, p.config.Ledger.Path)
		if err != nil {
			return nil, fmt.Errorf("open %s ledger database: %w", p.config.Ledger.Backend, err)
		}
		return db, nil
	})

	p.container.RegisterBuilder(ServiceLedger, func(c *Container) (interface{}, error) {
		db, err := Resolve[database.DB](c, ServiceDatabase)
		if err != nil {
			return nil, err
		}
		logger, err := Resolve[*zap.Logger](c, ServiceLogger)
		if err != nil {
			return nil, err
		}
		opts := p.config.LedgerOptions()
		opts.Logger = logger.Named("ledger")
		return ledger.New(db, opts)
	})

	// Journal resolves to a nil interface when history is disabled.
	p.container.RegisterBuilder(ServiceJournal, func(c *Container) (interface{}, error) {
		if !p.config.HistoryEnabled() {
			return nil, nil
		}
		return drivers.OpenConfig(p.ctx, p.config.JournalConfig())
	})
}

func (p *Provider) registerEngineBuilders() {
	p.container.RegisterBuilder(ServiceTxEngine, func(c *Container) (interface{}, error) {
		state, err := Resolve[*ledger.Ledger](c, ServiceLedger)
		if err != nil {
			return nil, err
		}
		logger, err := Resolve[*zap.Logger](c, ServiceLogger)
		if err != nil {
			return nil, err
		}
		reg, err := Resolve[*prometheus.Registry](c, ServiceMetrics)
		if err != nil {
			return nil, err
		}
		journal, err := Journal(c)
		if err != nil {
			return nil, err
		}

		opts := []tx.EngineOption{
			tx.WithLogger(logger.Named("engine")),
			tx.WithMetrics(tx.NewMetrics(reg)),
		}
		if journal != nil {
			opts = append(opts, tx.WithRecorder(journal))
		}
		engine := tx.NewEngine(state, p.config.EngineConfig(), opts...)
		if err := engine.Bootstrap(p.ctx); err != nil {
			return nil, fmt.Errorf("install programs: %w", err)
		}
		return engine, nil
	})
}

// Resolve fetches name and asserts its type.
func Resolve[T any](c *Container, name string) (T, error) {
	var zero T
	service, err := c.Get(name)
	if err != nil {
		return zero, err
	}
	typed, ok := service.(T)
	if !ok {
		return zero, fmt.Errorf("di: service %q is %T", name, service)
	}
	return typed, nil
}

// Journal returns the configured journal, or nil when history is disabled.
func Journal(c *Container) (relationaldb.Journal, error) {
	service, err := c.Get(ServiceJournal)
	if err != nil || service == nil {
		return nil, err
	}
	j, ok := service.(relationaldb.Journal)
	if !ok {
		return nil, fmt.Errorf("di: service %q is %T", ServiceJournal, service)
	}
	return j, nil
}

// Engine builds, if needed, and returns the transaction engine.
func Engine(c *Container) (*tx.Engine, error) {
	return Resolve[*tx.Engine](c, ServiceTxEngine)
}

// Close releases every built service that holds resources, newest first.
// The ledger owns its database, so the database is only closed directly
// when no ledger was built.
func Close(c *Container) error {
	var errs []error
	ledgerBuilt := false
	for _, name := range c.Built() {
		service, _ := c.Get(name)
		switch s := service.(type) {
		case *ledger.Ledger:
			ledgerBuilt = true
			errs = append(errs, s.Close())
		case database.DB:
			if !ledgerBuilt {
				errs = append(errs, s.Close())
			}
		case *zap.Logger:
			_ = s.Sync()
		case io.Closer:
			errs = append(errs, s.Close())
		}
	}
	return errors.Join(errs...)
}
