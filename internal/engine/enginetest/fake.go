// Package enginetest provides an in-memory engine.Adapter for tests.
package enginetest

import (
	"context"
	"fmt"
	"sync"
	"time"

	cerrdefs "github.com/containerd/errdefs"

	"evalgo.org/dockboard/internal/engine"
)

// Operation names counted by Fake.
const (
	OpPing         = "ping"
	OpList         = "list"
	OpInspect      = "inspect"
	OpStats        = "stats"
	OpListImages   = "images"
	OpListVolumes  = "volumes"
	OpListNetworks = "networks"
	OpClose        = "close"
)

// Fake is a scripted engine.Adapter that counts calls.
type Fake struct {
	Info       engine.Info
	Containers []engine.Container
	Details    map[string]*engine.Detail
	StatsByID  map[string]*engine.Stats
	Images     engine.ImageSummary
	Volumes    []engine.Volume
	Networks   []engine.NetworkInfo

	PingErr     error
	ListErr     error
	ImagesErr   error
	VolumesErr  error
	NetworksErr error
	InspectErr  map[string]error
	StatsErr    map[string]error

	// PingDelay blocks Ping until it elapses or the context ends.
	PingDelay time.Duration

	mu    sync.Mutex
	calls map[string]int
}

var _ engine.Adapter = (*Fake)(nil)

// Calls returns how often op was invoked.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// Closed reports whether Close was called.
func (f *Fake) Closed() bool {
	return f.Calls(OpClose) > 0
}

func (f *Fake) count(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[op]++
}

func (f *Fake) Ping(ctx context.Context) (*engine.Info, error) {
	f.count(OpPing)
	if f.PingDelay > 0 {
		select {
		case <-time.After(f.PingDelay):
		case <-ctx.Done():
			return nil, fmt.Errorf("ping: %w", ctx.Err())
		}
	}
	if f.PingErr != nil {
		return nil, f.PingErr
	}
	info := f.Info
	return &info, nil
}

func (f *Fake) ListContainers(_ context.Context, _ bool) ([]engine.Container, error) {
	f.count(OpList)
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return append([]engine.Container(nil), f.Containers...), nil
}

func (f *Fake) Inspect(_ context.Context, id string) (*engine.Detail, error) {
	f.count(OpInspect)
	if err := f.InspectErr[id]; err != nil {
		return nil, err
	}
	if d, ok := f.Details[id]; ok {
		return d, nil
	}
	for _, c := range f.Containers {
		if c.ID == id {
			return &engine.Detail{Container: c}, nil
		}
	}
	return nil, fmt.Errorf("no such container %s: %w", id, cerrdefs.ErrNotFound)
}

func (f *Fake) Stats(_ context.Context, id string) (*engine.Stats, error) {
	f.count(OpStats)
	if err := f.StatsErr[id]; err != nil {
		return nil, err
	}
	if s, ok := f.StatsByID[id]; ok {
		return s, nil
	}
	return &engine.Stats{}, nil
}

func (f *Fake) ListImages(_ context.Context) (*engine.ImageSummary, error) {
	f.count(OpListImages)
	if f.ImagesErr != nil {
		return nil, f.ImagesErr
	}
	sum := f.Images
	return &sum, nil
}

func (f *Fake) ListVolumes(_ context.Context) ([]engine.Volume, error) {
	f.count(OpListVolumes)
	if f.VolumesErr != nil {
		return nil, f.VolumesErr
	}
	return append([]engine.Volume(nil), f.Volumes...), nil
}

func (f *Fake) ListNetworks(_ context.Context) ([]engine.NetworkInfo, error) {
	f.count(OpListNetworks)
	if f.NetworksErr != nil {
		return nil, f.NetworksErr
	}
	return append([]engine.NetworkInfo(nil), f.Networks...), nil
}

func (f *Fake) Close() error {
	f.count(OpClose)
	return nil
}

// Unreachable returns a ConnectionError like the one a dead engine produces.
func Unreachable(host string) error {
	return fmt.Errorf("cannot connect to the Docker daemon at %s. Is the docker daemon running?: %w", host, cerrdefs.ErrUnavailable)
}
