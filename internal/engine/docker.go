package engine

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/api/types/network"
	"github.com/docker/docker/api/types/volume"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"
)

// dockerAdapter implements Adapter on top of the Docker SDK client.
type dockerAdapter struct {
	cli     *client.Client
	timeout time.Duration
	closer  func() error
}

func (a *dockerAdapter) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.timeout)
}

func (a *dockerAdapter) Ping(ctx context.Context) (*Info, error) {
	ctx, cancel := a.callContext(ctx)
	defer cancel()

	version, err := a.cli.ServerVersion(ctx)
	if err != nil {
		return nil, classify(ctx, "version", err)
	}
	info, err := a.cli.Info(ctx)
	if err != nil {
		return nil, classify(ctx, "info", err)
	}

	return &Info{
		Name:          info.Name,
		EngineVersion: version.Version,
		APIVersion:    version.APIVersion,
		OS:            info.OperatingSystem,
		Architecture:  info.Architecture,
		Containers:    info.Containers,
		Images:        info.Images,
	}, nil
}

func (a *dockerAdapter) ListContainers(ctx context.Context, all bool) ([]Container, error) {
	ctx, cancel := a.callContext(ctx)
	defer cancel()

	list, err := a.cli.ContainerList(ctx, container.ListOptions{All: all})
	if err != nil {
		return nil, classify(ctx, "list containers", err)
	}

	out := make([]Container, 0, len(list))
	for _, s := range list {
		c := Container{
			ID:      s.ID,
			Image:   s.Image,
			State:   string(s.State),
			Status:  s.Status,
			Created: time.Unix(s.Created, 0).UTC(),
			Labels:  s.Labels,
			ImageID: s.ImageID,
		}
		if len(s.Names) > 0 {
			c.Name = strings.TrimPrefix(s.Names[0], "/")
		}
		for _, m := range s.Mounts {
			if m.Type == mount.TypeVolume && m.Name != "" {
				c.Volumes = append(c.Volumes, m.Name)
			}
		}
		if s.NetworkSettings != nil {
			for name := range s.NetworkSettings.Networks {
				c.NetworkNames = append(c.NetworkNames, name)
			}
			sort.Strings(c.NetworkNames)
		}
		for _, p := range s.Ports {
			c.Ports = append(c.Ports, Port{
				IP:          p.IP,
				PrivatePort: p.PrivatePort,
				PublicPort:  p.PublicPort,
				Type:        p.Type,
			})
		}
		out = append(out, c)
	}
	return out, nil
}

func (a *dockerAdapter) Inspect(ctx context.Context, id string) (*Detail, error) {
	ctx, cancel := a.callContext(ctx)
	defer cancel()

	resp, err := a.cli.ContainerInspect(ctx, id)
	if err != nil {
		return nil, classify(ctx, "inspect "+id, err)
	}

	d := &Detail{}
	if resp.ContainerJSONBase != nil {
		d.ID = resp.ID
		d.Name = strings.TrimPrefix(resp.Name, "/")
		if t, err := time.Parse(time.RFC3339Nano, resp.Created); err == nil {
			d.Created = t
		}
		if resp.State != nil {
			d.State = string(resp.State.Status)
			d.Status = string(resp.State.Status)
			if resp.State.Health != nil {
				d.Health = string(resp.State.Health.Status)
			}
		}
		if resp.HostConfig != nil {
			d.RestartPolicy = string(resp.HostConfig.RestartPolicy.Name)
			d.NetworkMode = string(resp.HostConfig.NetworkMode)
		}
	}
	if resp.Config != nil {
		d.Image = resp.Config.Image
		d.Labels = resp.Config.Labels
		d.Env = resp.Config.Env
		d.Command = strings.Join(resp.Config.Cmd, " ")
	}
	if resp.NetworkSettings != nil {
		names := make([]string, 0, len(resp.NetworkSettings.Networks))
		for name := range resp.NetworkSettings.Networks {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			n := Network{Name: name}
			if es := resp.NetworkSettings.Networks[name]; es != nil {
				n.IP = es.IPAddress
			}
			d.Networks = append(d.Networks, n)
		}
		d.Ports = portsFromMap(resp.NetworkSettings.Ports)
	}
	return d, nil
}

func (a *dockerAdapter) Stats(ctx context.Context, id string) (*Stats, error) {
	ctx, cancel := a.callContext(ctx)
	defer cancel()

	resp, err := a.cli.ContainerStats(ctx, id, false)
	if err != nil {
		return nil, classify(ctx, "stats "+id, err)
	}
	defer resp.Body.Close()

	var v container.StatsResponse
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		return nil, classify(ctx, "decode stats "+id, err)
	}

	cpus := v.CPUStats.OnlineCPUs
	if cpus == 0 {
		cpus = uint32(len(v.CPUStats.CPUUsage.PercpuUsage))
	}
	return &Stats{
		Name:        strings.TrimPrefix(v.Name, "/"),
		MemoryUsage: v.MemoryStats.Usage,
		MemoryLimit: v.MemoryStats.Limit,
		CPUDelta:    delta(v.CPUStats.CPUUsage.TotalUsage, v.PreCPUStats.CPUUsage.TotalUsage),
		SystemDelta: delta(v.CPUStats.SystemUsage, v.PreCPUStats.SystemUsage),
		OnlineCPUs:  cpus,
	}, nil
}

func (a *dockerAdapter) ListImages(ctx context.Context) (*ImageSummary, error) {
	ctx, cancel := a.callContext(ctx)
	defer cancel()

	list, err := a.cli.ImageList(ctx, image.ListOptions{})
	if err != nil {
		return nil, classify(ctx, "list images", err)
	}

	sum := &ImageSummary{Count: len(list), Items: make([]Image, 0, len(list))}
	for _, img := range list {
		sum.Size += img.Size
		sum.Items = append(sum.Items, Image{
			ID:      img.ID,
			Tags:    img.RepoTags,
			Size:    img.Size,
			Created: time.Unix(img.Created, 0).UTC(),
		})
	}
	return sum, nil
}

func (a *dockerAdapter) ListVolumes(ctx context.Context) ([]Volume, error) {
	ctx, cancel := a.callContext(ctx)
	defer cancel()

	resp, err := a.cli.VolumeList(ctx, volume.ListOptions{})
	if err != nil {
		return nil, classify(ctx, "list volumes", err)
	}

	out := make([]Volume, 0, len(resp.Volumes))
	for _, v := range resp.Volumes {
		if v == nil {
			continue
		}
		out = append(out, Volume{Name: v.Name, Driver: v.Driver, CreatedAt: v.CreatedAt})
	}
	return out, nil
}

func (a *dockerAdapter) ListNetworks(ctx context.Context) ([]NetworkInfo, error) {
	ctx, cancel := a.callContext(ctx)
	defer cancel()

	list, err := a.cli.NetworkList(ctx, network.ListOptions{})
	if err != nil {
		return nil, classify(ctx, "list networks", err)
	}

	out := make([]NetworkInfo, 0, len(list))
	for _, n := range list {
		out = append(out, NetworkInfo{ID: n.ID, Name: n.Name, Driver: n.Driver, Created: n.Created})
	}
	return out, nil
}

func (a *dockerAdapter) Close() error {
	err := a.cli.Close()
	if a.closer != nil {
		if cerr := a.closer(); err == nil {
			err = cerr
		}
	}
	return err
}

// delta returns cur-prev, or zero when the counter went backwards.
func delta(cur, prev uint64) uint64 {
	if cur < prev {
		return 0
	}
	return cur - prev
}

// portsFromMap flattens an inspect port map, sorted by container port.
func portsFromMap(pm nat.PortMap) []Port {
	keys := make([]nat.Port, 0, len(pm))
	for k := range pm {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Int() != keys[j].Int() {
			return keys[i].Int() < keys[j].Int()
		}
		return keys[i].Proto() < keys[j].Proto()
	})

	var out []Port
	for _, k := range keys {
		private := uint16(k.Int())
		bindings := pm[k]
		if len(bindings) == 0 {
			out = append(out, Port{PrivatePort: private, Type: k.Proto()})
			continue
		}
		for _, b := range bindings {
			p := Port{IP: b.HostIP, PrivatePort: private, Type: k.Proto()}
			if hp, err := nat.ParsePort(b.HostPort); err == nil {
				p.PublicPort = uint16(hp)
			}
			out = append(out, p)
		}
	}
	return out
}
