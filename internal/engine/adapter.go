// Package engine talks to Docker engines. Every transport (local socket,
// plain TCP, TLS-verified TCP, SSH tunnel) sits behind the same Adapter
// interface so callers never branch on how a host is reached.
package engine

import (
	"context"
	"log/slog"
	"time"

	"evalgo.org/dockboard/internal/hosts"
)

// Adapter is the capability set the dashboard needs from one engine.
// Implementations bound every call by their configured timeout.
type Adapter interface {
	// Ping returns engine version and summary info.
	Ping(ctx context.Context) (*Info, error)
	// ListContainers lists containers, including stopped ones when all is set.
	ListContainers(ctx context.Context, all bool) ([]Container, error)
	// Inspect returns the detail record of one container.
	Inspect(ctx context.Context, id string) (*Detail, error)
	// Stats takes a single resource sample of one container.
	Stats(ctx context.Context, id string) (*Stats, error)
	// ListImages returns the stored images with their count and total size.
	ListImages(ctx context.Context) (*ImageSummary, error)
	// ListVolumes returns the named volumes.
	ListVolumes(ctx context.Context) ([]Volume, error)
	// ListNetworks returns the engine networks.
	ListNetworks(ctx context.Context) ([]NetworkInfo, error)
	// Close releases the underlying connection.
	Close() error
}

// Factory builds an adapter for a host config.
type Factory func(cfg hosts.Config) (Adapter, error)

// SSHOptions configure the ssh transport.
type SSHOptions struct {
	// ConfigFile is parsed for HostName, Port, User and IdentityFile.
	ConfigFile string
	// KnownHostsFile is used for host key verification.
	KnownHostsFile string
	// IdentityFile is tried in addition to the agent and default keys.
	IdentityFile string
	// InsecureIgnoreHostKey disables host key verification.
	InsecureIgnoreHostKey bool
	// DialTimeout bounds the TCP connect and ssh handshake.
	DialTimeout time.Duration
}

// Options configure adapters built by New.
type Options struct {
	// CallTimeout bounds every engine call.
	CallTimeout time.Duration
	SSH         SSHOptions
	Logger      *slog.Logger
}

// DefaultCallTimeout is used when Options.CallTimeout is zero.
const DefaultCallTimeout = 5 * time.Second

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		CallTimeout: DefaultCallTimeout,
		SSH: SSHOptions{
			DialTimeout: 10 * time.Second,
		},
	}
}

func (o Options) withDefaults() Options {
	if o.CallTimeout <= 0 {
		o.CallTimeout = DefaultCallTimeout
	}
	if o.SSH.DialTimeout <= 0 {
		o.SSH.DialTimeout = 10 * time.Second
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// NewFactory returns a Factory that builds adapters with opts.
func NewFactory(opts Options) Factory {
	return func(cfg hosts.Config) (Adapter, error) {
		return New(cfg, opts)
	}
}
