package aggregate

import (
	"context"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"evalgo.org/dockboard/internal/engine"
	"evalgo.org/dockboard/internal/format"
)

// builtinNetworks are never reported as unused.
var builtinNetworks = []string{"bridge", "host", "none"}

// UnusedImage is a tagged image no container refers to.
type UnusedImage struct {
	ID        string    `json:"id"`
	Tags      []string  `json:"tags"`
	Size      int64     `json:"size"`
	SizeHuman string    `json:"size_human"`
	Created   time.Time `json:"created"`
}

// UnusedVolume is a named volume no container mounts.
type UnusedVolume struct {
	Name    string `json:"name"`
	Driver  string `json:"driver"`
	Created string `json:"created,omitempty"`
}

// UnusedNetwork is a user network no container is attached to.
type UnusedNetwork struct {
	ID      string    `json:"id"`
	Name    string    `json:"name"`
	Driver  string    `json:"driver"`
	Created time.Time `json:"created"`
}

// Unused reports the resources of one host that no container uses,
// stopped containers included. Nothing is removed.
type Unused struct {
	HostID   string          `json:"host_id"`
	Images   []UnusedImage   `json:"images"`
	Volumes  []UnusedVolume  `json:"volumes"`
	Networks []UnusedNetwork `json:"networks"`
}

// UnusedResources lists the images, volumes and networks of a host that
// no container refers to. Untagged images are left out.
func (a *Aggregator) UnusedResources(ctx context.Context, hostID string) (*Unused, error) {
	adapter, _, err := a.hostAdapter(hostID)
	if err != nil {
		return nil, err
	}

	var (
		containers []engine.Container
		images     *engine.ImageSummary
		volumes    []engine.Volume
		networks   []engine.NetworkInfo
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		containers, err = adapter.ListContainers(gctx, true)
		return err
	})
	g.Go(func() (err error) {
		images, err = adapter.ListImages(gctx)
		return err
	})
	g.Go(func() (err error) {
		volumes, err = adapter.ListVolumes(gctx)
		return err
	})
	g.Go(func() (err error) {
		networks, err = adapter.ListNetworks(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	usedImages := make(map[string]bool)
	usedVolumes := make(map[string]bool)
	usedNetworks := make(map[string]bool)
	for _, n := range builtinNetworks {
		usedNetworks[n] = true
	}
	for _, c := range containers {
		usedImages[c.ImageID] = true
		for _, v := range c.Volumes {
			usedVolumes[v] = true
		}
		for _, n := range c.NetworkNames {
			usedNetworks[n] = true
		}
	}

	out := &Unused{
		HostID:   hostID,
		Images:   []UnusedImage{},
		Volumes:  []UnusedVolume{},
		Networks: []UnusedNetwork{},
	}
	for _, img := range images.Items {
		if usedImages[img.ID] || len(img.Tags) == 0 {
			continue
		}
		out.Images = append(out.Images, UnusedImage{
			ID:        format.ShortID(strings.TrimPrefix(img.ID, "sha256:")),
			Tags:      img.Tags,
			Size:      img.Size,
			SizeHuman: format.Bytes(uint64(max(img.Size, 0))),
			Created:   img.Created,
		})
	}
	for _, v := range volumes {
		if usedVolumes[v.Name] {
			continue
		}
		out.Volumes = append(out.Volumes, UnusedVolume{Name: v.Name, Driver: v.Driver, Created: v.CreatedAt})
	}
	for _, n := range networks {
		if usedNetworks[n.Name] {
			continue
		}
		out.Networks = append(out.Networks, UnusedNetwork{
			ID:      format.ShortID(n.ID),
			Name:    n.Name,
			Driver:  n.Driver,
			Created: n.Created,
		})
	}
	return out, nil
}
