package aggregate

import (
	"time"

	"evalgo.org/dockboard/internal/format"
	"evalgo.org/dockboard/internal/hosts"
)

// HostState is the per-pass view of one host. It is rebuilt on every pass.
type HostState struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Host        string `json:"host"`
	Current     bool   `json:"current"`
	Default     bool   `json:"default"`

	Connected bool   `json:"connected"`
	Error     string `json:"error,omitempty"`
	ErrorKind string `json:"error_kind,omitempty"`
	Hint      string `json:"hint,omitempty"`

	SystemName     string `json:"system_name,omitempty"`
	EngineVersion  string `json:"engine_version,omitempty"`
	APIVersion     string `json:"api_version,omitempty"`
	OS             string `json:"os,omitempty"`
	Architecture   string `json:"architecture,omitempty"`
	ImageCount     int    `json:"image_count"`
	ImageSize      int64  `json:"image_size"`
	ImageSizeHuman string `json:"image_size_human,omitempty"`

	Counts     format.Counts  `json:"counts"`
	Containers format.Buckets `json:"containers"`
}

func identity(cfg hosts.Config, currentID string) HostState {
	return HostState{
		ID:          cfg.ID,
		Name:        cfg.Name,
		Description: cfg.Description,
		Host:        cfg.ConnectionURI,
		Current:     cfg.ID == currentID,
		Default:     cfg.IsDefault,
		Containers:  format.Bucket(nil),
	}
}

// GlobalStats sums the counts of every connected host.
type GlobalStats struct {
	TotalContainers   int `json:"total_containers"`
	RunningContainers int `json:"running_containers"`
	ExitedContainers  int `json:"exited_containers"`
	CreatedContainers int `json:"created_containers"`
	PausedContainers  int `json:"paused_containers"`
	OtherContainers   int `json:"other_containers"`
	TotalImages       int `json:"total_images"`
	ConnectedHosts    int `json:"connected_hosts"`
	TotalHosts        int `json:"total_hosts"`
}

// Global computes the global stats of a pass.
func Global(states []HostState) GlobalStats {
	g := GlobalStats{TotalHosts: len(states)}
	var sum format.Counts
	for _, s := range states {
		if !s.Connected {
			continue
		}
		g.ConnectedHosts++
		g.TotalImages += s.ImageCount
		sum = sum.Add(s.Counts)
	}
	g.TotalContainers = sum.Total
	g.RunningContainers = sum.Running
	g.ExitedContainers = sum.Exited
	g.CreatedContainers = sum.Created
	g.PausedContainers = sum.Paused
	g.OtherContainers = sum.Other
	return g
}

// Dashboard is the result of one aggregation pass.
type Dashboard struct {
	Hosts        []HostState     `json:"hosts"`
	Global       GlobalStats     `json:"global_stats"`
	CurrentHost  string          `json:"current_host"`
	Fidelity     format.Fidelity `json:"fidelity"`
	StatsPending bool            `json:"stats_pending"`
	GeneratedAt  time.Time       `json:"generated_at"`
}
