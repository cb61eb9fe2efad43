package api

import (
	"evalgo.org/dockboard/internal/apps"
	"evalgo.org/dockboard/internal/format"
	"evalgo.org/dockboard/internal/hosts"
	"evalgo.org/dockboard/internal/version"
)

// MessageResponse represents a simple message response.
type MessageResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status  string       `json:"status"`
	Service string       `json:"service"`
	Version version.Info `json:"version"`
	Hosts   int          `json:"hosts"`
}

// HostsResponse represents the registry.
type HostsResponse struct {
	Count   int            `json:"count"`
	Current string         `json:"current"`
	Hosts   []hosts.Config `json:"hosts"`
}

// HostStatsResponse carries one sample per running container.
type HostStatsResponse struct {
	HostID string             `json:"host_id"`
	Count  int                `json:"count"`
	Stats  []format.StatsView `json:"stats"`
}

// AppsResponse represents the app catalog.
type AppsResponse struct {
	Count int        `json:"count"`
	Apps  []apps.App `json:"apps"`
}

// CategoriesResponse groups the catalog by category.
type CategoriesResponse struct {
	Count      int             `json:"count"`
	Categories []apps.Category `json:"categories"`
}

// WebSocketStats describes the event feed.
type WebSocketStats struct {
	ConnectedClients int    `json:"connected_clients"`
	Status           string `json:"status"`
}
