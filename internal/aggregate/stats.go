package aggregate

import (
	"context"

	"golang.org/x/sync/errgroup"

	"evalgo.org/dockboard/internal/engine"
	"evalgo.org/dockboard/internal/format"
)

// ContainerStats samples one container on one host.
func (a *Aggregator) ContainerStats(ctx context.Context, hostID, containerID string) (*format.StatsView, error) {
	if !a.cfg.Policy.EnableStats {
		return nil, ErrStatsDisabled
	}
	adapter, f, err := a.hostAdapter(hostID)
	if err != nil {
		return nil, err
	}

	s, err := adapter.Stats(ctx, containerID)
	if err != nil {
		return nil, err
	}
	sv := f.Stats(containerID, s)
	return &sv, nil
}

// HostStats samples every running container of a host. Per-container
// failures are reported on the entry.
func (a *Aggregator) HostStats(ctx context.Context, hostID string) ([]format.StatsView, error) {
	if !a.cfg.Policy.EnableStats {
		return nil, ErrStatsDisabled
	}
	adapter, f, err := a.hostAdapter(hostID)
	if err != nil {
		return nil, err
	}

	containers, err := adapter.ListContainers(ctx, false)
	if err != nil {
		return nil, err
	}

	var running []engine.Container
	for _, c := range containers {
		if format.StatusOf(c.State) == format.StatusRunning {
			running = append(running, c)
		}
	}

	out := make([]format.StatsView, len(running))
	var g errgroup.Group
	g.SetLimit(a.cfg.DetailWorkers)
	for i, c := range running {
		g.Go(func() error {
			s, err := adapter.Stats(ctx, c.ID)
			if err != nil {
				out[i] = f.Stats(c.ID, nil)
				out[i].Error = err.Error()
			} else {
				out[i] = f.Stats(c.ID, s)
			}
			out[i].Name = c.Name
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

// ContainerDetail returns a full-fidelity view of one container. Stats are
// included for running containers when enabled; a stats failure is
// reported on the view.
func (a *Aggregator) ContainerDetail(ctx context.Context, hostID, containerID string) (*format.ContainerView, error) {
	adapter, f, err := a.hostAdapter(hostID)
	if err != nil {
		return nil, err
	}

	detail, err := adapter.Inspect(ctx, containerID)
	if err != nil {
		return nil, err
	}

	var (
		stats    *engine.Stats
		statsErr error
	)
	if a.cfg.Policy.EnableStats && format.StatusOf(detail.State) == format.StatusRunning {
		stats, statsErr = adapter.Stats(ctx, containerID)
	}

	v := f.View(detail.Container, detail, stats, format.Options{Fidelity: format.Full})
	if statsErr != nil {
		v.Error = statsErr.Error()
	}
	return &v, nil
}

func (a *Aggregator) hostAdapter(hostID string) (engine.Adapter, format.Formatter, error) {
	cfg, err := a.reg.Get(hostID)
	if err != nil {
		return nil, format.Formatter{}, err
	}
	adapter, err := a.adapters.Get(cfg)
	if err != nil {
		return nil, format.Formatter{}, err
	}
	return adapter, a.formatter(cfg), nil
}
