package queries

import (
	"context"
	"testing"

	dashboard "github.com/goliatone/go-dashgrid/components/dashboard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubListService struct {
	calls int
	opts  dashboard.ListOptions
}

func (s *stubListService) ListDashboards(_ context.Context, opts dashboard.ListOptions) ([]dashboard.DashboardSummary, error) {
	s.calls++
	s.opts = opts
	return []dashboard.DashboardSummary{{Slug: "ops"}}, nil
}

func TestListDashboardsQuery(t *testing.T) {
	service := &stubListService{}
	query := NewListDashboardsQuery(service)
	list, err := query.Query(context.Background(), dashboard.ListOptions{IncludeArchived: true})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if service.calls != 1 || !service.opts.IncludeArchived {
		t.Fatalf("expected one call with options forwarded, got %d %+v", service.calls, service.opts)
	}
	if len(list) != 1 || list[0].Slug != "ops" {
		t.Fatalf("unexpected list %+v", list)
	}
}

func TestDashboardViewQuery(t *testing.T) {
	ctx := context.Background()
	svc := dashboard.NewService(dashboard.Options{Gateway: dashboard.NewMemoryGateway()})
	d, err := svc.CreateDashboard(ctx, "Ops")
	require.NoError(t, err)
	_, err = d.AddTextbox(ctx, "left")
	require.NoError(t, err)
	_, err = d.AddTextbox(ctx, "below")
	require.NoError(t, err)
	_, err = d.AddWidget(ctx, dashboard.TextboxContent{Text: "right"}, &dashboard.Rect{Col: 3, Row: 0, Width: 3, Height: 1})
	require.NoError(t, err)

	view, err := NewDashboardViewQuery(dashboard.NewController(svc)).Query(ctx, "ops")
	require.NoError(t, err)
	require.Len(t, view.Widgets, 3)
	assert.Equal(t, []string{"left", "right", "below"}, []string{view.Widgets[0].Text, view.Widgets[1].Text, view.Widgets[2].Text})
	assert.Equal(t, 2, view.Widgets[2].Options.Position.Row)

	_, err = NewDashboardViewQuery(dashboard.NewController(svc)).Query(ctx, "missing")
	assert.ErrorIs(t, err, dashboard.ErrNotFound)
}
