package format

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evalgo.org/dockboard/internal/engine"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testFormatter() Formatter {
	return Formatter{LinkHost: "10.0.0.5", Now: func() time.Time { return fixedNow }}
}

func nginx() engine.Container {
	return engine.Container{
		ID:      "4f66ad9a0b2e1234567890abcdef",
		Name:    "/web",
		Image:   "nginx:1.25",
		State:   "running",
		Status:  "Up 2 hours (healthy)",
		Created: fixedNow.Add(-2 * time.Hour),
		Ports: []engine.Port{
			{IP: "0.0.0.0", PrivatePort: 80, PublicPort: 8080, Type: "tcp"},
			{IP: "::", PrivatePort: 80, PublicPort: 8080, Type: "tcp"},
			{PrivatePort: 443, Type: "tcp"},
		},
		Labels: map[string]string{},
	}
}

func TestView_Fast(t *testing.T) {
	v := testFormatter().View(nginx(), nil, nil, Options{Fidelity: Fast})

	assert.Equal(t, "4f66ad9a0b2e", v.ID)
	assert.Equal(t, "web", v.Name)
	assert.Equal(t, StatusRunning, v.Status)
	assert.Equal(t, "Up 2 hours (healthy)", v.StateText)
	assert.Equal(t, HealthHealthy, v.Health)
	assert.Equal(t, "2 hours ago", v.CreatedHuman)
	assert.Equal(t, []string{"8080:80/tcp", "443/tcp"}, v.Ports)
	assert.Equal(t, "http://10.0.0.5:8080", v.FirstPortURL)
	assert.Equal(t, iconBase+"nginx.png", v.IconURL)
	assert.Equal(t, NA, v.CPUPercent)
	assert.Equal(t, NA, v.MemoryUsage)
	assert.False(t, v.StatsPending)
	assert.Empty(t, v.Networks)
	assert.Empty(t, v.EnvironmentSample)
}

func TestView_FullWithStats(t *testing.T) {
	c := nginx()
	d := &engine.Detail{
		Container:     c,
		Health:        "unhealthy",
		RestartPolicy: "unless-stopped",
		NetworkMode:   "bridge",
		Env:           []string{"PATH=/usr/bin", "TZ=UTC", "DB_PASSWORD=hunter2"},
		Networks:      []engine.Network{{Name: "bridge", IP: "172.17.0.2"}},
	}
	s := &engine.Stats{
		MemoryUsage: 47396659,
		MemoryLimit: 473966590,
		CPUDelta:    200000000,
		SystemDelta: 10000000000,
		OnlineCPUs:  4,
	}

	v := testFormatter().View(c, d, s, Options{Fidelity: Full, StatsPending: true})

	assert.Equal(t, HealthUnhealthy, v.Health)
	assert.Equal(t, "unless-stopped", v.RestartPolicy)
	assert.Equal(t, []string{"TZ=UTC", "DB_PASSWORD=****"}, v.EnvironmentSample)
	assert.Equal(t, d.Networks, v.Networks)
	assert.Equal(t, "45.2 MB", v.MemoryUsage)
	assert.Equal(t, "452.0 MB", v.MemoryLimit)
	assert.Equal(t, "10.0%", v.MemoryPercent)
	assert.Equal(t, "8.0%", v.CPUPercent)
	assert.False(t, v.StatsPending, "stats present")
	assert.Equal(t, Full, v.Fidelity)
}

func TestView_FullDeferredStats(t *testing.T) {
	c := nginx()
	v := testFormatter().View(c, &engine.Detail{Container: c}, nil, Options{Fidelity: Full, StatsPending: true})
	assert.True(t, v.StatsPending)
	assert.Equal(t, NA, v.CPUPercent)
	assert.Equal(t, "no", v.RestartPolicy)

	c.State = "exited"
	v = testFormatter().View(c, &engine.Detail{Container: c}, nil, Options{Fidelity: Full, StatsPending: true})
	assert.False(t, v.StatsPending, "only running containers have pending stats")
}

func TestView_EnvSampleBounded(t *testing.T) {
	c := nginx()
	env := []string{}
	for i := 0; i < 30; i++ {
		env = append(env, "VAR=x")
	}
	f := testFormatter()
	f.EnvSampleSize = 3
	v := f.View(c, &engine.Detail{Container: c, Env: env}, nil, Options{Fidelity: Full})
	assert.Len(t, v.EnvironmentSample, 3)

	f.EnvSampleSize = 0
	v = f.View(c, &engine.Detail{Container: c, Env: env}, nil, Options{Fidelity: Full})
	assert.Len(t, v.EnvironmentSample, DefaultEnvSampleSize)
}

func TestView_FirstPortURL(t *testing.T) {
	c := nginx()
	c.Ports = nil
	c.Labels = map[string]string{"PORT": "8123"}

	v := testFormatter().View(c, nil, nil, Options{})
	assert.Equal(t, []string{"8123 (host)"}, v.Ports)
	assert.Equal(t, "http://10.0.0.5:8123", v.FirstPortURL)

	c.State = "exited"
	v = testFormatter().View(c, nil, nil, Options{})
	assert.Empty(t, v.FirstPortURL, "no link for stopped containers")

	c.State = "running"
	c.Labels = nil
	v = testFormatter().View(c, nil, nil, Options{})
	assert.Empty(t, v.FirstPortURL)
	assert.Empty(t, v.Ports)
}

func TestStatusOf(t *testing.T) {
	for state, want := range map[string]string{
		"running":    StatusRunning,
		"Exited":     StatusExited,
		"created":    StatusCreated,
		"paused":     StatusPaused,
		"restarting": StatusOther,
		"dead":       StatusOther,
		"":           StatusOther,
	} {
		assert.Equal(t, want, StatusOf(state), state)
	}
}

func TestHealthFromStatus(t *testing.T) {
	assert.Equal(t, HealthHealthy, healthFromStatus("Up 5 minutes (healthy)"))
	assert.Equal(t, HealthUnhealthy, healthFromStatus("Up 5 minutes (unhealthy)"))
	assert.Equal(t, HealthStarting, healthFromStatus("Up 3 seconds (health: starting)"))
	assert.Equal(t, HealthNone, healthFromStatus("Exited (0) 2 days ago"))
}

func TestIconURL(t *testing.T) {
	assert.Equal(t, "https://example.com/x.png", IconURL(map[string]string{"net.unraid.docker.icon": "https://example.com/x.png"}, "nginx"))
	assert.Equal(t, "https://a/icon.png", IconURL(map[string]string{"icon": "https://a/icon.png", "app.icon": "https://b"}, ""))
	assert.Equal(t, iconBase+"postgresql.png", IconURL(nil, "postgres:16"))
	assert.Equal(t, iconBase+"mysql.png", IconURL(nil, "mariadb:11"))
	assert.Equal(t, iconBase+"mongodb.png", IconURL(nil, "mongo:7"))
	assert.Equal(t, DefaultIcon, IconURL(nil, "traefik:v3"))
}

func TestResolveLinkHost(t *testing.T) {
	assert.Equal(t, "10.0.0.5", ResolveLinkHost("10.0.0.5", "http://dash.lan"))
	assert.Equal(t, "dash.lan", ResolveLinkHost("", "https://dash.lan:5000/path"))
	assert.Equal(t, "dash.lan", ResolveLinkHost("", "dash.lan"))
	assert.Equal(t, "localhost", ResolveLinkHost("", ""))
}

func TestBucket(t *testing.T) {
	views := []ContainerView{
		{Name: "a", Status: StatusRunning},
		{Name: "b", Status: StatusExited},
		{Name: "c", Status: StatusRunning},
		{Name: "d", Status: StatusOther},
		{Name: "e", Status: StatusPaused},
	}
	b := Bucket(views)
	require.Len(t, b.Running, 2)
	assert.Equal(t, "a", b.Running[0].Name)
	assert.Equal(t, "c", b.Running[1].Name)
	assert.NotNil(t, b.Created)

	assert.Equal(t, Counts{Total: 5, Running: 2, Exited: 1, Paused: 1, Other: 1}, b.Counts())
}

func TestCountsAdd(t *testing.T) {
	a := Counts{Total: 3, Running: 2, Exited: 1}
	b := Counts{Total: 2, Running: 1, Paused: 1}
	assert.Equal(t, Counts{Total: 5, Running: 3, Exited: 1, Paused: 1}, a.Add(b))
}

func TestFormatterStats(t *testing.T) {
	sv := testFormatter().Stats("4f66ad9a0b2e1234", nil)
	assert.Equal(t, NA, sv.CPUPercent)

	assert.Empty(t, sv.Name)

	sv = testFormatter().Stats("4f66ad9a0b2e1234", &engine.Stats{Name: "web", MemoryUsage: 1024})
	assert.Equal(t, "4f66ad9a0b2e", sv.ContainerID)
	assert.Equal(t, "web", sv.Name)
	assert.Equal(t, "1.0 KB", sv.MemoryUsage)
	assert.Equal(t, NA, sv.MemoryLimit)
	assert.Equal(t, NA, sv.CPUPercent)
}
