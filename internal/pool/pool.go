// Package pool caches one engine adapter per host.
package pool

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"evalgo.org/dockboard/internal/engine"
	"evalgo.org/dockboard/internal/hosts"
)

type entry struct {
	cfg     hosts.Config
	adapter engine.Adapter
}

// Pool manages engine adapters for multiple hosts. Adapters are created
// lazily on first use and replaced when the host config they were built
// from changes.
//
// Thread-safe for concurrent access. Adapters returned by Get are used
// without holding the pool lock.
type Pool struct {
	factory engine.Factory
	logger  *slog.Logger

	mu      sync.Mutex
	entries map[string]entry
}

// New creates a pool that builds adapters with factory.
func New(factory engine.Factory, logger *slog.Logger) *Pool {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pool{
		factory: factory,
		logger:  logger,
		entries: make(map[string]entry),
	}
}

// Get returns the adapter for cfg.ID. A cached adapter is reused only when
// it was built from an identical config; otherwise it is closed and
// rebuilt.
func (p *Pool) Get(cfg hosts.Config) (engine.Adapter, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.entries[cfg.ID]; ok {
		if e.cfg == cfg {
			return e.adapter, nil
		}
		p.logger.Debug("Host config changed, replacing engine client", "host_id", cfg.ID)
		p.closeEntry(cfg.ID, e)
	}

	a, err := p.factory(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine client for host %s: %w", cfg.ID, err)
	}
	p.entries[cfg.ID] = entry{cfg: cfg, adapter: a}
	return a, nil
}

// Invalidate closes and forgets the adapter for id, if any.
func (p *Pool) Invalidate(id string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.entries[id]; ok {
		p.closeEntry(id, e)
		p.logger.Debug("Invalidated engine client", "host_id", id)
	}
}

// Len returns the number of cached adapters.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.entries)
}

// Close closes all adapters and empties the pool.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for id, e := range p.entries {
		if err := e.adapter.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close client for host %s: %w", id, err))
		}
	}
	p.entries = make(map[string]entry)
	return errors.Join(errs...)
}

// closeEntry must be called with p.mu held.
func (p *Pool) closeEntry(id string, e entry) {
	if err := e.adapter.Close(); err != nil {
		p.logger.Warn("Failed to close engine client", "host_id", id, "error", err)
	}
	delete(p.entries, id)
}
