package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-dashgrid/components/dashboard"
)

type viewService interface {
	View(ctx context.Context, slug string) (dashboard.DashboardView, error)
}

// DashboardViewQuery loads a dashboard's read model by slug.
type DashboardViewQuery struct {
	service viewService
}

// NewDashboardViewQuery builds the query. *dashboard.Controller satisfies the
// service contract.
func NewDashboardViewQuery(service viewService) *DashboardViewQuery {
	return &DashboardViewQuery{service: service}
}

var _ gocommand.Querier[string, dashboard.DashboardView] = (*DashboardViewQuery)(nil)

// Query resolves the view for slug.
func (q *DashboardViewQuery) Query(ctx context.Context, slug string) (dashboard.DashboardView, error) {
	return q.service.View(ctx, slug)
}
