// Package aggregate probes every registered host concurrently and merges
// the results into one dashboard. A failing host never fails the pass.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	cerrdefs "github.com/containerd/errdefs"
	"golang.org/x/sync/errgroup"

	"evalgo.org/dockboard/internal/engine"
	"evalgo.org/dockboard/internal/format"
	"evalgo.org/dockboard/internal/hosts"
)

// Registry is the read side of the host registry.
type Registry interface {
	List() []hosts.Config
	Get(id string) (hosts.Config, error)
	CurrentID() string
}

// Adapters hands out engine adapters per host. The connection pool
// implements it.
type Adapters interface {
	Get(cfg hosts.Config) (engine.Adapter, error)
}

// Config tunes the aggregator.
type Config struct {
	// PassTimeout bounds one Collect call. Hosts still running are
	// reported as timed out.
	PassTimeout time.Duration
	// DetailWorkers bounds concurrent inspect/stats calls per host.
	DetailWorkers int
	// BaseURL supplies the link host for local engines.
	BaseURL string
	// EnvSampleSize bounds the environment sample of full views.
	EnvSampleSize int
	Policy        Policy
}

// Options select the fidelity of one pass.
type Options struct {
	Fidelity format.Fidelity
	// DeferStats skips stats in full fidelity; views are marked pending.
	DeferStats bool
}

// ErrStatsDisabled is returned by the stats operations when stats
// collection is turned off.
var ErrStatsDisabled = fmt.Errorf("container stats are disabled: %w", cerrdefs.ErrFailedPrecondition)

// Aggregator builds dashboards from the registry and the adapter pool.
type Aggregator struct {
	reg      Registry
	adapters Adapters
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
}

// New creates an Aggregator.
func New(reg Registry, adapters Adapters, cfg Config, logger *slog.Logger) *Aggregator {
	if cfg.PassTimeout <= 0 {
		cfg.PassTimeout = 15 * time.Second
	}
	if cfg.DetailWorkers <= 0 {
		cfg.DetailWorkers = 4
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{reg: reg, adapters: adapters, cfg: cfg, logger: logger, now: time.Now}
}

// Options resolves a requested fidelity against the configured policy.
func (a *Aggregator) Options(requested format.Fidelity) Options {
	return a.cfg.Policy.Options(requested)
}

// Collect runs one aggregation pass over every registered host.
func (a *Aggregator) Collect(ctx context.Context, opts Options) (*Dashboard, error) {
	list := a.reg.List()
	if len(list) == 0 {
		return nil, fmt.Errorf("host registry is empty: %w", cerrdefs.ErrFailedPrecondition)
	}
	current := a.reg.CurrentID()
	if opts.Fidelity == "" {
		opts.Fidelity = format.Fast
	}

	passCtx, cancel := context.WithTimeout(ctx, a.cfg.PassTimeout)
	defer cancel()

	type result struct {
		index int
		state HostState
	}
	results := make(chan result, len(list))
	for i, cfg := range list {
		go func() {
			results <- result{index: i, state: a.probe(passCtx, cfg, current, opts)}
		}()
	}

	states := make([]HostState, len(list))
	done := make([]bool, len(list))
	for remaining := len(list); remaining > 0; {
		select {
		case r := <-results:
			states[r.index] = r.state
			done[r.index] = true
			remaining--
		case <-passCtx.Done():
			remaining = 0
		}
	}

	for i, cfg := range list {
		if done[i] {
			continue
		}
		err := fmt.Errorf("host did not answer within %s: %w", a.cfg.PassTimeout, context.DeadlineExceeded)
		a.logger.Warn("Host probe timed out", "host_id", cfg.ID, "timeout", a.cfg.PassTimeout)
		states[i] = failed(identity(cfg, current), err)
	}

	return &Dashboard{
		Hosts:        states,
		Global:       Global(states),
		CurrentHost:  current,
		Fidelity:     opts.Fidelity,
		StatsPending: opts.Fidelity == format.Full && opts.DeferStats,
		GeneratedAt:  a.now().UTC(),
	}, nil
}

// probe collects the state of one host.
func (a *Aggregator) probe(ctx context.Context, cfg hosts.Config, current string, opts Options) HostState {
	st := identity(cfg, current)

	adapter, err := a.adapters.Get(cfg)
	if err != nil {
		a.logger.Warn("Host unavailable", "host_id", cfg.ID, "error", err)
		return failed(st, err)
	}

	info, err := adapter.Ping(ctx)
	if err != nil {
		a.logger.Warn("Host unavailable", "host_id", cfg.ID, "error", err)
		return failed(st, err)
	}
	st.SystemName = info.Name
	st.EngineVersion = info.EngineVersion
	st.APIVersion = info.APIVersion
	st.OS = info.OS
	st.Architecture = info.Architecture
	st.ImageCount = info.Images

	containers, err := adapter.ListContainers(ctx, true)
	if err != nil {
		a.logger.Warn("Failed to list containers", "host_id", cfg.ID, "error", err)
		return failed(st, err)
	}

	if images, err := adapter.ListImages(ctx); err != nil {
		a.logger.Warn("Failed to list images", "host_id", cfg.ID, "error", err)
	} else {
		st.ImageCount = images.Count
		st.ImageSize = images.Size
		st.ImageSizeHuman = format.Bytes(uint64(max(images.Size, 0)))
	}

	views := a.views(ctx, adapter, a.formatter(cfg), containers, opts)
	st.Containers = format.Bucket(views)
	st.Counts = st.Containers.Counts()
	st.Connected = true
	return st
}

// views formats containers. Full fidelity fans the per-container calls out
// over a bounded worker group; each call failure lands on its own view.
func (a *Aggregator) views(ctx context.Context, adapter engine.Adapter, f format.Formatter, containers []engine.Container, opts Options) []format.ContainerView {
	views := make([]format.ContainerView, len(containers))
	if opts.Fidelity != format.Full {
		for i, c := range containers {
			views[i] = f.View(c, nil, nil, format.Options{Fidelity: format.Fast})
		}
		return views
	}

	var g errgroup.Group
	g.SetLimit(a.cfg.DetailWorkers)
	for i, c := range containers {
		g.Go(func() error {
			views[i] = a.fullView(ctx, adapter, f, c, opts.DeferStats)
			return nil
		})
	}
	_ = g.Wait()
	return views
}

func (a *Aggregator) fullView(ctx context.Context, adapter engine.Adapter, f format.Formatter, c engine.Container, deferStats bool) format.ContainerView {
	var errs []error

	detail, err := adapter.Inspect(ctx, c.ID)
	if err != nil {
		errs = append(errs, err)
		detail = nil
	}

	var stats *engine.Stats
	if format.StatusOf(c.State) == format.StatusRunning && !deferStats {
		if stats, err = adapter.Stats(ctx, c.ID); err != nil {
			errs = append(errs, err)
			stats = nil
		}
	}

	v := f.View(c, detail, stats, format.Options{Fidelity: format.Full, StatsPending: deferStats})
	if err := errors.Join(errs...); err != nil {
		v.Error = err.Error()
	}
	return v
}

func (a *Aggregator) formatter(cfg hosts.Config) format.Formatter {
	var endpointHost string
	if ep, err := cfg.Endpoint(); err == nil {
		endpointHost = ep.LinkHost()
	}
	return format.Formatter{
		LinkHost:      format.ResolveLinkHost(endpointHost, a.cfg.BaseURL),
		EnvSampleSize: a.cfg.EnvSampleSize,
		Now:           a.now,
	}
}

func failed(st HostState, err error) HostState {
	st.Connected = false
	st.Error = err.Error()
	st.ErrorKind = engine.Kind(err)
	st.Hint = engine.Suggestion(err)
	return st
}
