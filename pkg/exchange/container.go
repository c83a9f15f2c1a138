package exchange

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"bursa/pkg/core"
)

// Factory builds a venue client from a validated config.
type Factory func(config *core.Config) (Exchange, error)

// Container is a thread-safe registry of venue factories and the clients
// opened from them.
type Container struct {
	mu        sync.RWMutex
	factories map[string]Factory
	exchanges map[string]Exchange
}

// NewContainer creates and returns a new empty exchange container.
func NewContainer() *Container {
	return &Container{
		factories: make(map[string]Factory),
		exchanges: make(map[string]Exchange),
	}
}

// RegisterFactory makes a venue available to Open under name.
func (c *Container) RegisterFactory(name string, factory Factory) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.factories[name] = factory
}

// Open builds a client for config.Exchange with its registered factory and
// registers it. An already open client of the same name is closed first.
func (c *Container) Open(config *core.Config) (Exchange, error) {
	if config == nil {
		return nil, errors.New("config is required")
	}

	c.mu.RLock()
	factory, ok := c.factories[config.Exchange]
	c.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no factory registered for exchange %q", config.Exchange)
	}

	ex, err := factory(config)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", config.Exchange, err)
	}

	c.mu.Lock()
	prev := c.exchanges[config.Exchange]
	c.exchanges[config.Exchange] = ex
	c.mu.Unlock()

	if prev != nil {
		_ = prev.Close()
	}
	return ex, nil
}

// Register adds an exchange instance to the container with the given name.
// If an exchange with the same name exists, it will be overwritten.
func (c *Container) Register(name string, ex Exchange) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.exchanges[name] = ex
}

// Get retrieves an exchange instance by name.
func (c *Container) Get(name string) (Exchange, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ex, exists := c.exchanges[name]
	if !exists {
		return nil, fmt.Errorf("exchange %q not found", name)
	}
	return ex, nil
}

// Names returns the registered exchange names in order.
func (c *Container) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.exchanges))
	for name := range c.exchanges {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Unregister removes an exchange from the container by name without closing it.
func (c *Container) Unregister(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.exchanges, name)
}

// Close closes every registered exchange and empties the container.
func (c *Container) Close() error {
	c.mu.Lock()
	exchanges := c.exchanges
	c.exchanges = make(map[string]Exchange)
	c.mu.Unlock()

	var errs []error
	for name, ex := range exchanges {
		if err := ex.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// Exists checks whether an exchange with the given name is registered.
func (c *Container) Exists(name string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, exists := c.exchanges[name]
	return exists
}
