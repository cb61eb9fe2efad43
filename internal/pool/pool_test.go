package pool

import (
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	cerrdefs "github.com/containerd/errdefs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/dockboard/internal/engine"
	"evalgo.org/dockboard/internal/engine/enginetest"
	"evalgo.org/dockboard/internal/hosts"
)

type countingFactory struct {
	mu    sync.Mutex
	built []*enginetest.Fake
	err   error
}

func (f *countingFactory) build(_ hosts.Config) (engine.Adapter, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	a := &enginetest.Fake{}
	f.built = append(f.built, a)
	return a, nil
}

func (f *countingFactory) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.built)
}

func cfg(id string) hosts.Config {
	return hosts.Config{ID: id, Name: id, ConnectionURI: "tcp://" + id + ":2375"}
}

func TestGet_ReusesAdapter(t *testing.T) {
	f := &countingFactory{}
	p := New(f.build, nil)

	a1, err := p.Get(cfg("a"))
	require.NoError(t, err)
	a2, err := p.Get(cfg("a"))
	require.NoError(t, err)

	assert.Same(t, a1, a2)
	assert.Equal(t, 1, f.count())
	assert.Equal(t, 1, p.Len())
}

func TestGet_ConfigChangeRebuilds(t *testing.T) {
	f := &countingFactory{}
	p := New(f.build, nil)

	_, err := p.Get(cfg("a"))
	require.NoError(t, err)

	changed := cfg("a")
	changed.ConnectionURI = "tcp://elsewhere:2375"
	_, err = p.Get(changed)
	require.NoError(t, err)

	assert.Equal(t, 2, f.count())
	assert.True(t, f.built[0].Closed(), "stale adapter closed")
	assert.False(t, f.built[1].Closed())
	assert.Equal(t, 1, p.Len())
}

func TestGet_FactoryError(t *testing.T) {
	f := &countingFactory{err: fmt.Errorf("bad bundle: %w", cerrdefs.ErrInvalidArgument)}
	p := New(f.build, nil)

	_, err := p.Get(cfg("a"))
	require.Error(t, err)
	assert.True(t, cerrdefs.IsInvalidArgument(err))
	assert.Equal(t, 0, p.Len())
}

func TestInvalidate(t *testing.T) {
	f := &countingFactory{}
	p := New(f.build, nil)

	_, err := p.Get(cfg("a"))
	require.NoError(t, err)
	p.Invalidate("a")
	p.Invalidate("unknown")

	assert.True(t, f.built[0].Closed())
	assert.Equal(t, 0, p.Len())

	_, err = p.Get(cfg("a"))
	require.NoError(t, err)
	assert.Equal(t, 2, f.count())
}

func TestSwitchInvalidatesPooledAdapter(t *testing.T) {
	f := &countingFactory{}
	p := New(f.build, nil)

	reg, err := hosts.Open(filepath.Join(t.TempDir(), "docker_hosts.json"), hosts.WithInvalidator(p))
	require.NoError(t, err)
	_, err = reg.Add(cfg("edge"))
	require.NoError(t, err)

	edge, err := reg.Get("edge")
	require.NoError(t, err)
	_, err = p.Get(edge)
	require.NoError(t, err)
	require.Equal(t, 1, f.count())

	_, err = reg.SetCurrent("edge")
	require.NoError(t, err)
	assert.True(t, f.built[0].Closed())

	_, err = p.Get(edge)
	require.NoError(t, err)
	assert.Equal(t, 2, f.count(), "next use builds a fresh adapter")
}

func TestClose(t *testing.T) {
	f := &countingFactory{}
	p := New(f.build, nil)

	for _, id := range []string{"a", "b", "c"} {
		_, err := p.Get(cfg(id))
		require.NoError(t, err)
	}
	require.NoError(t, p.Close())

	assert.Equal(t, 0, p.Len())
	for _, a := range f.built {
		assert.True(t, a.Closed())
	}
}

func TestConcurrentGet(t *testing.T) {
	f := &countingFactory{}
	p := New(f.build, nil)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Get(cfg("a"))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, f.count())
}
