package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-dashgrid/components/dashboard"
)

type listService interface {
	ListDashboards(ctx context.Context, opts dashboard.ListOptions) ([]dashboard.DashboardSummary, error)
}

// ListDashboardsQuery returns dashboard summaries, hiding archived ones
// unless asked.
type ListDashboardsQuery struct {
	service listService
}

// NewListDashboardsQuery builds the query.
func NewListDashboardsQuery(service listService) *ListDashboardsQuery {
	return &ListDashboardsQuery{service: service}
}

var _ gocommand.Querier[dashboard.ListOptions, []dashboard.DashboardSummary] = (*ListDashboardsQuery)(nil)

// Query lists dashboards.
func (q *ListDashboardsQuery) Query(ctx context.Context, opts dashboard.ListOptions) ([]dashboard.DashboardSummary, error) {
	return q.service.ListDashboards(ctx, opts)
}
