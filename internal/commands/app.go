package commands

import (
	"errors"
	"fmt"

	"evalgo.org/dockboard/internal/aggregate"
	"evalgo.org/dockboard/internal/apps"
	"evalgo.org/dockboard/internal/config"
	"evalgo.org/dockboard/internal/engine"
	"evalgo.org/dockboard/internal/hosts"
	"evalgo.org/dockboard/internal/logging"
	"evalgo.org/dockboard/internal/pool"
)

// app holds the components shared by the server and the one-shot commands.
type app struct {
	factory    engine.Factory
	pool       *pool.Pool
	registry   *hosts.Registry
	aggregator *aggregate.Aggregator
	catalog    *apps.Catalog
}

// openApp wires the registry, the adapter pool and the aggregator. The
// apps catalog is opened only when withCatalog is set.
func openApp(withCatalog bool) (*app, error) {
	a := &app{factory: engine.NewFactory(engineOptions(cfg))}
	a.pool = pool.New(a.factory, logging.Component(logger, "pool"))

	reg, err := hosts.Open(cfg.Storage.HostsFile,
		hosts.WithInvalidator(a.pool),
		hosts.WithLogger(logging.Component(logger, "hosts")),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to open host registry: %w", err)
	}
	a.registry = reg

	if withCatalog {
		cat, err := apps.Open(cfg.Storage.AppsDB, logging.Component(logger, "apps"))
		if err != nil {
			return nil, fmt.Errorf("failed to open apps catalog: %w", err)
		}
		a.catalog = cat
	}

	a.aggregator = aggregate.New(reg, a.pool, aggregateConfig(cfg), logging.Component(logger, "aggregate"))
	return a, nil
}

func (a *app) Close() error {
	var errs []error
	if err := a.pool.Close(); err != nil {
		errs = append(errs, err)
	}
	if a.catalog != nil {
		if err := a.catalog.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func engineOptions(c *config.Config) engine.Options {
	return engine.Options{
		CallTimeout: c.Engine.CallTimeout,
		SSH: engine.SSHOptions{
			ConfigFile:            c.Engine.SSH.ConfigFile,
			KnownHostsFile:        c.Engine.SSH.KnownHostsFile,
			IdentityFile:          c.Engine.SSH.IdentityFile,
			InsecureIgnoreHostKey: c.Engine.SSH.InsecureIgnoreHostKey,
			DialTimeout:           c.Engine.SSH.DialTimeout,
		},
		Logger: logging.Component(logger, "engine"),
	}
}

func aggregateConfig(c *config.Config) aggregate.Config {
	return aggregate.Config{
		PassTimeout:   c.Engine.PassTimeout,
		DetailWorkers: c.Engine.DetailWorkers,
		BaseURL:       c.Dashboard.BaseURL,
		EnvSampleSize: c.Dashboard.EnvSampleSize,
		Policy: aggregate.Policy{
			EnableStats:      c.Dashboard.EnableStats,
			FastInitialLoad:  c.Dashboard.FastInitialLoad,
			SkipInitialStats: c.Dashboard.SkipInitialStats,
		},
	}
}
