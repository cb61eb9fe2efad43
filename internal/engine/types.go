package engine

import "time"

// Info is the identity and summary an engine reports on ping.
type Info struct {
	Name          string `json:"name"`
	EngineVersion string `json:"engine_version"`
	APIVersion    string `json:"api_version"`
	OS            string `json:"os"`
	Architecture  string `json:"architecture"`
	Containers    int    `json:"containers"`
	Images        int    `json:"images"`
}

// Port is one port binding of a container.
type Port struct {
	IP          string `json:"ip,omitempty"`
	PrivatePort uint16 `json:"private_port"`
	PublicPort  uint16 `json:"public_port,omitempty"`
	Type        string `json:"type"`
}

// Container is the listing record of a container.
type Container struct {
	ID      string
	Name    string
	Image   string
	State   string
	Status  string
	Created time.Time
	Ports   []Port
	Labels  map[string]string

	ImageID string
	// Volumes names the named volumes mounted by the container.
	Volumes []string
	// NetworkNames lists the networks the container is attached to.
	NetworkNames []string
}

// Network is a container's attachment to one network.
type Network struct {
	Name string `json:"name"`
	IP   string `json:"ip"`
}

// Detail is the inspect record of a container.
type Detail struct {
	Container

	Health        string
	RestartPolicy string
	NetworkMode   string
	Command       string
	Env           []string
	Networks      []Network
}

// Stats is a single resource sample. CPU counters are deltas between the
// sample and the previous one taken by the engine.
type Stats struct {
	Name        string
	MemoryUsage uint64
	MemoryLimit uint64
	CPUDelta    uint64
	SystemDelta uint64
	OnlineCPUs  uint32
}

// ImageSummary aggregates the images stored on a host.
type ImageSummary struct {
	Count int     `json:"count"`
	Size  int64   `json:"size"`
	Items []Image `json:"-"`
}

// Image is one stored image.
type Image struct {
	ID      string
	Tags    []string
	Size    int64
	Created time.Time
}

// Volume is one named volume.
type Volume struct {
	Name      string
	Driver    string
	CreatedAt string
}

// NetworkInfo is one engine network.
type NetworkInfo struct {
	ID      string
	Name    string
	Driver  string
	Created time.Time
}
