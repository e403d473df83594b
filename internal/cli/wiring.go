package cli

import (
	"context"

	"github.com/qchemtools/corrflux/internal/cluster"
	"github.com/qchemtools/corrflux/internal/config"
	"github.com/qchemtools/corrflux/internal/flux"
	"github.com/qchemtools/corrflux/internal/handler"
	"github.com/qchemtools/corrflux/internal/jobs"
	"github.com/qchemtools/corrflux/internal/registry"
	"github.com/qchemtools/corrflux/internal/results"
	"github.com/qchemtools/corrflux/internal/scheduler"
)

func openRegistry(cfg *config.Config) (*registry.Registry, error) {
	return registry.Open(cfg.DatabasePath(cfgFile), logger)
}

func sessionFactory(cfg *config.Config) scheduler.SessionFactory {
	return func(ctx context.Context) (cluster.Session, error) {
		return cluster.Dial(cluster.Options{
			Host:     cfg.Cluster.Host,
			Port:     cfg.Cluster.Port,
			User:     cfg.Cluster.User,
			Password: cfg.Cluster.Password,
			KeyFile:  cfg.Cluster.KeyFile,
		}, logger)
	}
}

func handlerFactory(cfg *config.Config, reg *registry.Registry) scheduler.HandlerFactory {
	return func(session cluster.Session) scheduler.TaskHandler {
		jm := jobs.NewManager(session, logger)
		orch := flux.New(session, jm, cfg.Cluster.ColonyDir, cfg.Cluster.ScratchDir, logger)
		res := results.NewManager(session, cfg.Cluster.ColonyDir, cfg.ResultsDir, logger)
		return handler.New(reg, orch, res, logger)
	}
}
