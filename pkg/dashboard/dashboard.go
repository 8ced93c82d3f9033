// Package dashboard re-exports the engine's entry points for applications
// that should not reach into components/.
package dashboard

import (
	core "github.com/goliatone/go-dashgrid/components/dashboard"
)

// Service exposes the underlying components/dashboard.Service type.
type Service = core.Service

// Options re-export for convenience.
type Options = core.Options

// Config re-export for convenience.
type Config = core.Config

// Dashboard is the aggregate handed out by Service.
type Dashboard = core.Dashboard

// NewService proxies to the internal constructor.
func NewService(opts Options) *Service {
	return core.NewService(opts)
}

// NewMemoryService builds a service backed by an in-process gateway, suitable
// for demos and tests.
func NewMemoryService(executor core.QueryExecutor, cfg Config) *Service {
	return core.NewService(Options{
		Gateway:  core.NewMemoryGateway(),
		Executor: executor,
		Config:   cfg,
	})
}

// LoadConfig reads a YAML config file.
func LoadConfig(path string) (Config, error) {
	return core.LoadConfig(path)
}
