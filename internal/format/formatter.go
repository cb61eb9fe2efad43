// Package format turns engine records into display-ready container views.
// It performs no I/O; every input comes from the engine adapter.
package format

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"evalgo.org/dockboard/internal/engine"
)

// Fidelity selects how much per-container data a view carries.
type Fidelity string

const (
	// Fast views use listing data only.
	Fast Fidelity = "fast"
	// Full views add inspect data and resource stats.
	Full Fidelity = "full"
)

// ParseFidelity maps a query value to a Fidelity. Unknown values yield
// ok=false.
func ParseFidelity(s string) (Fidelity, bool) {
	switch Fidelity(strings.ToLower(strings.TrimSpace(s))) {
	case Fast:
		return Fast, true
	case Full:
		return Full, true
	}
	return "", false
}

// Status buckets.
const (
	StatusRunning = "running"
	StatusExited  = "exited"
	StatusCreated = "created"
	StatusPaused  = "paused"
	StatusOther   = "other"
)

// Health values.
const (
	HealthHealthy   = "healthy"
	HealthUnhealthy = "unhealthy"
	HealthStarting  = "starting"
	HealthNone      = "none"
)

// DefaultEnvSampleSize bounds the environment sample when none is configured.
const DefaultEnvSampleSize = 10

var sensitiveEnvKeys = []string{"PASSWORD", "SECRET", "TOKEN", "KEY"}

// ContainerView is the display record of one container.
type ContainerView struct {
	ID                string           `json:"id"`
	FullID            string           `json:"full_id"`
	Name              string           `json:"name"`
	Image             string           `json:"image"`
	Status            string           `json:"status"`
	StateText         string           `json:"state_text"`
	Health            string           `json:"health"`
	CreatedAt         time.Time        `json:"created_at"`
	CreatedHuman      string           `json:"created_human"`
	Networks          []engine.Network `json:"networks,omitempty"`
	Ports             []string         `json:"ports"`
	RestartPolicy     string           `json:"restart_policy,omitempty"`
	NetworkMode       string           `json:"network_mode,omitempty"`
	Command           string           `json:"command,omitempty"`
	EnvironmentSample []string         `json:"environment_sample,omitempty"`
	MemoryUsage       string           `json:"memory_usage"`
	MemoryLimit       string           `json:"memory_limit"`
	MemoryPercent     string           `json:"memory_percent"`
	CPUPercent        string           `json:"cpu_percent"`
	StatsPending      bool             `json:"stats_pending"`
	IconURL           string           `json:"icon_url"`
	FirstPortURL      string           `json:"first_port_url,omitempty"`
	Fidelity          Fidelity         `json:"fidelity"`
	Error             string           `json:"error,omitempty"`
}

// StatsView is the payload of the asynchronous stats endpoints.
type StatsView struct {
	ContainerID      string  `json:"container_id"`
	Name             string  `json:"name,omitempty"`
	CPUPercent       string  `json:"cpu_percent"`
	MemoryUsage      string  `json:"memory_usage"`
	MemoryLimit      string  `json:"memory_limit"`
	MemoryPercent    string  `json:"memory_percent"`
	CPUValue         float64 `json:"cpu_value"`
	MemoryUsageBytes uint64  `json:"memory_usage_bytes"`
	MemoryLimitBytes uint64  `json:"memory_limit_bytes"`
	Error            string  `json:"error,omitempty"`
}

// Options control a single View call.
type Options struct {
	Fidelity Fidelity
	// StatsPending marks running containers whose stats will be polled later.
	StatsPending bool
}

// Formatter builds views for containers of one host.
type Formatter struct {
	// LinkHost is the host name used in first-port URLs.
	LinkHost string
	// EnvSampleSize bounds the environment sample. Zero means the default.
	EnvSampleSize int
	// Now is the clock used for created_human. Defaults to time.Now.
	Now func() time.Time
}

// ResolveLinkHost picks the host name for container links: the remote
// engine's host name when there is one, else the host of baseURL, else
// localhost.
func ResolveLinkHost(endpointHost, baseURL string) string {
	if endpointHost != "" {
		return endpointHost
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return "localhost"
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	u, err := url.Parse(baseURL)
	if err != nil || u.Hostname() == "" {
		return "localhost"
	}
	return u.Hostname()
}

// View builds the display record of c. d and s may be nil; they are only
// consulted in full fidelity.
func (f Formatter) View(c engine.Container, d *engine.Detail, s *engine.Stats, opts Options) ContainerView {
	if opts.Fidelity == "" {
		opts.Fidelity = Fast
	}

	v := ContainerView{
		ID:            ShortID(c.ID),
		FullID:        c.ID,
		Name:          strings.TrimPrefix(c.Name, "/"),
		Image:         imageName(c.Image),
		Status:        StatusOf(c.State),
		StateText:     c.Status,
		Health:        healthFromStatus(c.Status),
		CreatedAt:     c.Created,
		CreatedHuman:  Ago(c.Created, f.now()),
		Ports:         Ports(c.Ports),
		IconURL:       IconURL(c.Labels, c.Image),
		MemoryUsage:   NA,
		MemoryLimit:   NA,
		MemoryPercent: NA,
		CPUPercent:    NA,
		Fidelity:      opts.Fidelity,
	}
	if v.StateText == "" {
		v.StateText = c.State
	}

	portLabel := labelPort(c.Labels)
	if len(v.Ports) == 0 && portLabel != "" {
		v.Ports = []string{portLabel + " (host)"}
	}
	if v.Status == StatusRunning {
		if p := firstPublished(c.Ports); p != 0 {
			v.FirstPortURL = f.portURL(strconv.Itoa(int(p)))
		} else if portLabel != "" {
			v.FirstPortURL = f.portURL(portLabel)
		}
	}

	if opts.Fidelity != Full {
		return v
	}

	if d != nil {
		if d.Health != "" {
			v.Health = normalizeHealth(d.Health)
		}
		v.Networks = d.Networks
		v.RestartPolicy = d.RestartPolicy
		if v.RestartPolicy == "" {
			v.RestartPolicy = "no"
		}
		v.NetworkMode = d.NetworkMode
		v.Command = d.Command
		v.EnvironmentSample = f.envSample(d.Env)
	}

	if v.Status == StatusRunning {
		if s != nil {
			f.applyStats(&v, s)
		} else {
			v.StatsPending = opts.StatsPending
		}
	}
	return v
}

// Stats builds the asynchronous stats payload for one container.
func (f Formatter) Stats(containerID string, s *engine.Stats) StatsView {
	sv := StatsView{
		ContainerID:   ShortID(containerID),
		CPUPercent:    NA,
		MemoryUsage:   NA,
		MemoryLimit:   NA,
		MemoryPercent: NA,
	}
	if s == nil {
		return sv
	}
	sv.Name = s.Name
	if pct, ok := CPUPercent(s.CPUDelta, s.SystemDelta, s.OnlineCPUs); ok {
		sv.CPUPercent = Percent(pct)
		sv.CPUValue = pct
	}
	sv.MemoryUsageBytes = s.MemoryUsage
	sv.MemoryLimitBytes = s.MemoryLimit
	sv.MemoryUsage = Bytes(s.MemoryUsage)
	if s.MemoryLimit > 0 {
		sv.MemoryLimit = Bytes(s.MemoryLimit)
		sv.MemoryPercent = Percent(float64(s.MemoryUsage) / float64(s.MemoryLimit) * 100)
	}
	return sv
}

func (f Formatter) applyStats(v *ContainerView, s *engine.Stats) {
	sv := f.Stats(v.FullID, s)
	v.CPUPercent = sv.CPUPercent
	v.MemoryUsage = sv.MemoryUsage
	v.MemoryLimit = sv.MemoryLimit
	v.MemoryPercent = sv.MemoryPercent
}

func (f Formatter) now() time.Time {
	if f.Now != nil {
		return f.Now()
	}
	return time.Now()
}

func (f Formatter) portURL(port string) string {
	host := f.LinkHost
	if host == "" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func (f Formatter) envSample(env []string) []string {
	limit := f.EnvSampleSize
	if limit <= 0 {
		limit = DefaultEnvSampleSize
	}
	out := make([]string, 0, min(limit, len(env)))
	for _, kv := range env {
		if len(out) == limit {
			break
		}
		if strings.HasPrefix(kv, "PATH=") {
			continue
		}
		out = append(out, maskEnv(kv))
	}
	return out
}

func maskEnv(kv string) string {
	key, _, found := strings.Cut(kv, "=")
	if !found {
		return kv
	}
	upper := strings.ToUpper(key)
	for _, s := range sensitiveEnvKeys {
		if strings.Contains(upper, s) {
			return key + "=****"
		}
	}
	return kv
}

// ShortID truncates an engine id to the 12 characters the CLI shows.
func ShortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

// StatusOf maps an engine state to a dashboard bucket.
func StatusOf(state string) string {
	switch s := strings.ToLower(state); s {
	case StatusRunning, StatusExited, StatusCreated, StatusPaused:
		return s
	default:
		return StatusOther
	}
}

// Ports renders port bindings as "host:container/proto" or
// "container/proto", dropping the duplicate entries engines report for
// IPv4 and IPv6 listeners.
func Ports(ports []engine.Port) []string {
	out := make([]string, 0, len(ports))
	seen := make(map[string]struct{}, len(ports))
	for _, p := range ports {
		proto := p.Type
		if proto == "" {
			proto = "tcp"
		}
		s := fmt.Sprintf("%d/%s", p.PrivatePort, proto)
		if p.PublicPort != 0 {
			s = fmt.Sprintf("%d:%s", p.PublicPort, s)
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

func firstPublished(ports []engine.Port) uint16 {
	for _, p := range ports {
		if p.PublicPort != 0 {
			return p.PublicPort
		}
	}
	return 0
}

func labelPort(labels map[string]string) string {
	if v := strings.TrimSpace(labels["PORT"]); v != "" {
		return v
	}
	return strings.TrimSpace(labels["port"])
}

func imageName(image string) string {
	if rest, ok := strings.CutPrefix(image, "sha256:"); ok {
		return ShortID(rest)
	}
	return image
}

func healthFromStatus(status string) string {
	s := strings.ToLower(status)
	switch {
	case strings.Contains(s, "(unhealthy)"):
		return HealthUnhealthy
	case strings.Contains(s, "(healthy)"):
		return HealthHealthy
	case strings.Contains(s, "(health: starting)"):
		return HealthStarting
	default:
		return HealthNone
	}
}

func normalizeHealth(h string) string {
	switch h = strings.ToLower(h); h {
	case HealthHealthy, HealthUnhealthy, HealthStarting:
		return h
	default:
		return HealthNone
	}
}
