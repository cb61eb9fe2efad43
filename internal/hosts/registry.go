package hosts

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"evalgo.org/dockboard/internal/validation"
)

// Invalidator drops cached engine connections for a host. The connection
// pool implements it.
type Invalidator interface {
	Invalidate(id string)
}

// Option configures a Registry.
type Option func(*Registry)

// WithInvalidator registers the connection cache notified on update,
// delete and switch.
func WithInvalidator(inv Invalidator) Option {
	return func(r *Registry) { r.invalidator = inv }
}

// WithLogger sets the logger used for registry events.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// Registry is the ordered set of host configs plus the current host pointer.
// Every mutation is persisted before it becomes visible.
//
// Thread-safe for concurrent access.
type Registry struct {
	mu          sync.RWMutex
	path        string
	hosts       []Config
	current     string
	validator   *validation.Validator
	invalidator Invalidator
	logger      *slog.Logger
}

// Open loads the registry stored at path. Every stored entry must pass the
// same checks as Add. An absent or empty file is replaced by a single
// local host, and a current pointer that does not resolve is repaired to
// the default host. Repairs are written back.
func Open(path string, opts ...Option) (*Registry, error) {
	r := &Registry{
		path:      path,
		validator: validation.New(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	snap, err := readSnapshot(path)
	if err != nil {
		return nil, err
	}
	for i := range snap.hosts {
		h := normalize(snap.hosts[i])
		if err := r.check(h); err != nil {
			return nil, fmt.Errorf("host registry %s: entry %q: %w", path, h.ID, err)
		}
		snap.hosts[i] = h
	}

	dirty := false
	if len(snap.hosts) == 0 {
		r.logger.Info("Host registry empty, using local Docker socket", "path", path)
		snap = snapshot{hosts: []Config{LocalConfig()}, current: LocalID}
		dirty = true
	}

	// keep the first default flag only
	seenDefault := false
	for i := range snap.hosts {
		if snap.hosts[i].IsDefault {
			if seenDefault {
				snap.hosts[i].IsDefault = false
				dirty = true
			}
			seenDefault = true
		}
	}

	if indexOf(snap.hosts, snap.current) < 0 {
		repaired := fallbackCurrent(snap.hosts)
		r.logger.Warn("Current host missing from registry, repairing",
			"current_host", snap.current, "repaired_to", repaired)
		snap.current = repaired
		dirty = true
	}

	if dirty {
		if err := writeSnapshot(path, snap); err != nil {
			return nil, err
		}
	}

	r.hosts = snap.hosts
	r.current = snap.current
	return r, nil
}

// Path returns the backing file.
func (r *Registry) Path() string {
	return r.path
}

// List returns all hosts in insertion order.
func (r *Registry) List() []Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.hosts)
}

// Get returns the host with the given id.
func (r *Registry) Get(id string) (Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i := indexOf(r.hosts, id)
	if i < 0 {
		return Config{}, errNotFound(id)
	}
	return r.hosts[i], nil
}

// Current returns the host the dashboard is focused on.
func (r *Registry) Current() Config {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hosts[indexOf(r.hosts, r.current)]
}

// CurrentID returns the id of the current host.
func (r *Registry) CurrentID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.current
}

// Add appends a new host. Setting the default flag clears it on every
// other host.
func (r *Registry) Add(cfg Config) (Config, error) {
	cfg = normalize(cfg)
	if err := r.check(cfg); err != nil {
		return Config{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if indexOf(r.hosts, cfg.ID) >= 0 {
		return Config{}, errConflict(cfg.ID)
	}

	next := append(slices.Clone(r.hosts), cfg)
	if cfg.IsDefault {
		clearDefaults(next, cfg.ID)
	}
	if err := r.commit(next, r.current); err != nil {
		return Config{}, err
	}

	r.logger.Info("Host added", "host_id", cfg.ID, "uri", cfg.ConnectionURI)
	return cfg, nil
}

// Update applies a partial update. The id itself cannot be changed.
func (r *Registry) Update(id string, patch Patch) (Config, error) {
	if patch.ID != nil {
		return Config{}, validation.FieldError("id", "host id cannot be changed")
	}

	r.mu.Lock()
	i := indexOf(r.hosts, id)
	if i < 0 {
		r.mu.Unlock()
		return Config{}, errNotFound(id)
	}

	updated := normalize(patch.Apply(r.hosts[i]))
	if err := r.check(updated); err != nil {
		r.mu.Unlock()
		return Config{}, err
	}

	next := slices.Clone(r.hosts)
	next[i] = updated
	if updated.IsDefault {
		clearDefaults(next, id)
	}
	if err := r.commit(next, r.current); err != nil {
		r.mu.Unlock()
		return Config{}, err
	}
	r.mu.Unlock()

	r.invalidate(id)
	r.logger.Info("Host updated", "host_id", id)
	return updated, nil
}

// Delete removes a host. The current host and the last remaining host
// cannot be deleted.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	i := indexOf(r.hosts, id)
	if i < 0 {
		r.mu.Unlock()
		return errNotFound(id)
	}
	if len(r.hosts) == 1 {
		r.mu.Unlock()
		return errInvalidOperation("cannot delete the last host %q", id)
	}
	if id == r.current {
		r.mu.Unlock()
		return errInvalidOperation("cannot delete the current host %q, switch to another host first", id)
	}

	next := slices.Delete(slices.Clone(r.hosts), i, i+1)
	if err := r.commit(next, r.current); err != nil {
		r.mu.Unlock()
		return err
	}
	r.mu.Unlock()

	r.invalidate(id)
	r.logger.Info("Host deleted", "host_id", id)
	return nil
}

// SetCurrent moves the current host pointer.
func (r *Registry) SetCurrent(id string) (Config, error) {
	r.mu.Lock()
	i := indexOf(r.hosts, id)
	if i < 0 {
		r.mu.Unlock()
		return Config{}, errNotFound(id)
	}
	cfg := r.hosts[i]
	if err := r.commit(r.hosts, id); err != nil {
		r.mu.Unlock()
		return Config{}, err
	}
	r.mu.Unlock()

	r.invalidate(id)
	r.logger.Info("Switched current host", "host_id", id)
	return cfg, nil
}

// check validates field shape and the connection URI.
func (r *Registry) check(cfg Config) error {
	if err := r.validator.Validate(&cfg).Err(); err != nil {
		return err
	}
	if _, err := cfg.Endpoint(); err != nil {
		return err
	}
	return nil
}

// commit persists the candidate state and swaps it in. Must hold r.mu.
func (r *Registry) commit(hosts []Config, current string) error {
	if err := writeSnapshot(r.path, snapshot{hosts: hosts, current: current}); err != nil {
		r.logger.Error("Failed to persist host registry", "path", r.path, "error", err)
		return err
	}
	r.hosts = hosts
	r.current = current
	return nil
}

func (r *Registry) invalidate(id string) {
	if r.invalidator != nil {
		r.invalidator.Invalidate(id)
	}
}

func indexOf(hosts []Config, id string) int {
	return slices.IndexFunc(hosts, func(c Config) bool { return c.ID == id })
}

func clearDefaults(hosts []Config, keep string) {
	for i := range hosts {
		if hosts[i].ID != keep {
			hosts[i].IsDefault = false
		}
	}
}

func fallbackCurrent(hosts []Config) string {
	for _, h := range hosts {
		if h.IsDefault {
			return h.ID
		}
	}
	return hosts[0].ID
}
