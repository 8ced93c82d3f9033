package commands

import (
	"context"

	dashboard "github.com/goliatone/go-dashgrid/components/dashboard"
)

// Telemetry allows commands to emit structured events.
type Telemetry = dashboard.Telemetry

type noopTelemetry struct{}

func (noopTelemetry) Record(context.Context, string, map[string]any) {}

func normalizeTelemetry(t Telemetry) Telemetry {
	if t == nil {
		return noopTelemetry{}
	}
	return t
}

// Actor carries the identifiers recorded on activity events.
type Actor struct {
	ActorID  string `json:"actor_id"`
	UserID   string `json:"user_id"`
	TenantID string `json:"tenant_id"`
}

func (a Actor) context(ctx context.Context) context.Context {
	if a == (Actor{}) {
		return ctx
	}
	return dashboard.ContextWithActivity(ctx, dashboard.ActivityContext{
		ActorID:  a.ActorID,
		UserID:   a.UserID,
		TenantID: a.TenantID,
	})
}

// service is the slice of *dashboard.Service the commands depend on.
type service interface {
	CreateDashboard(ctx context.Context, name string) (*dashboard.Dashboard, error)
	OpenDashboard(ctx context.Context, slug string) (*dashboard.Dashboard, error)
	Archive(ctx context.Context, d *dashboard.Dashboard) error
	Unarchive(ctx context.Context, d *dashboard.Dashboard) error
	CreateQuery(ctx context.Context, input dashboard.CreateQueryInput) (dashboard.Query, error)
	PublishQuery(ctx context.Context, queryID int64) error
}

var _ service = (*dashboard.Service)(nil)
