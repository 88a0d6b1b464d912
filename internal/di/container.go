// Package di wires escrowd's services from a config.Config.
package di

import (
	"errors"
	"sort"
	"sync"
)

// Container is the dependency injection container.
// It manages service registration and resolution.
type Container struct {
	mu       sync.Mutex
	services map[string]interface{}
	builders map[string]Builder
	order    []string
}

// Builder is a function that creates a service instance.
type Builder func(c *Container) (interface{}, error)

// ErrServiceNotFound is returned by Get for a name with neither a service
// nor a builder.
var ErrServiceNotFound = errors.New("service not found")

// New creates a new dependency injection container.
func New() *Container {
	return &Container{
		services: make(map[string]interface{}),
		builders: make(map[string]Builder),
	}
}

// Register registers a service instance.
func (c *Container) Register(name string, service interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.services[name] = service
	c.order = append(c.order, name)
}

// RegisterBuilder registers a builder function for lazy instantiation.
func (c *Container) RegisterBuilder(name string, builder Builder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.builders[name] = builder
}

// Get retrieves a service by name, building it on first use. Builders may
// call Get for their own dependencies.
func (c *Container) Get(name string) (interface{}, error) {
	c.mu.Lock()
	if service, exists := c.services[name]; exists {
		c.mu.Unlock()
		return service, nil
	}
	builder, hasBuilder := c.builders[name]
	c.mu.Unlock()

	if !hasBuilder {
		return nil, errors.Join(ErrServiceNotFound, errors.New(name))
	}

	service, err := builder(c)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// another caller may have built it meanwhile; keep the first
	if existing, exists := c.services[name]; exists {
		return existing, nil
	}
	c.services[name] = service
	c.order = append(c.order, name)
	return service, nil
}

// MustGet retrieves a service or panics if not found.
func (c *Container) MustGet(name string) interface{} {
	service, err := c.Get(name)
	if err != nil {
		panic(err)
	}
	return service
}

// Has checks if a service is registered.
func (c *Container) Has(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.services[name]; exists {
		return true
	}
	_, exists := c.builders[name]
	return exists
}

// ServiceNames returns all registered service names, sorted.
func (c *Container) ServiceNames() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	names := make(map[string]bool)
	for name := range c.services {
		names[name] = true
	}
	for name := range c.builders {
		names[name] = true
	}

	result := make([]string, 0, len(names))
	for name := range names {
		result = append(result, name)
	}
	sort.Strings(result)
	return result
}

// Built returns the names of instantiated services, most recent first.
// Close uses it to release services in reverse dependency order.
func (c *Container) Built() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.order))
	for i, name := range c.order {
		out[len(c.order)-1-i] = name
	}
	return out
}

// Service names constants for type-safe access.
const (
	ServiceConfig   = "config"
	ServiceLogger   = "logger"
	ServiceMetrics  = "metrics"
	ServiceDatabase = "database"
	ServiceLedger   = "ledger"
	ServiceJournal  = "journal"
	ServiceTxEngine = "tx.engine"
)
