package dashboard

import (
	"context"
	"time"
)

// DashboardStore persists dashboards and their lifecycle flags.
// Implementations must report slug collisions with ErrSlugTaken.
type DashboardStore interface {
	CreateDashboard(ctx context.Context, input CreateDashboardInput) (DashboardRecord, error)
	GetDashboard(ctx context.Context, slug string) (DashboardRecord, error)
	ListDashboards(ctx context.Context, opts ListOptions) ([]DashboardRecord, error)
	PublishDashboard(ctx context.Context, dashboardID int64) error
	ArchiveDashboard(ctx context.Context, dashboardID int64) error
	UnarchiveDashboard(ctx context.Context, dashboardID int64) error
	UpdateDashboardLayout(ctx context.Context, dashboardID int64, deltas []LayoutDelta) error
}

// WidgetStore persists individual widgets.
type WidgetStore interface {
	CreateWidget(ctx context.Context, widget PersistableWidget) (int64, error)
	UpdateWidget(ctx context.Context, widget PersistableWidget) error
	DeleteWidget(ctx context.Context, widgetID int64) error
}

// QueryStore owns saved queries. Dashboards only reference them.
type QueryStore interface {
	CreateQuery(ctx context.Context, input CreateQueryInput) (int64, error)
	PublishQuery(ctx context.Context, queryID int64) error
	GetQuery(ctx context.Context, queryID int64) (Query, error)
}

// PersistenceGateway is the union of the stores the engine talks to.
type PersistenceGateway interface {
	DashboardStore
	WidgetStore
	QueryStore
}

// QueryExecutor returns the current result set for a saved query.
type QueryExecutor interface {
	Execute(ctx context.Context, queryID int64) (QueryResult, error)
}

// QueryExecutorFunc adapts a function into a QueryExecutor.
type QueryExecutorFunc func(ctx context.Context, queryID int64) (QueryResult, error)

// Execute calls f.
func (f QueryExecutorFunc) Execute(ctx context.Context, queryID int64) (QueryResult, error) {
	return f(ctx, queryID)
}

// RefreshHook notifies transports (REST/WebSocket) about dashboard changes.
type RefreshHook interface {
	DashboardUpdated(ctx context.Context, event DashboardEvent) error
}

// LifecycleState is the publish axis of a dashboard.
type LifecycleState string

const (
	StateDraft     LifecycleState = "draft"
	StatePublished LifecycleState = "published"
)

// CreateDashboardInput is sent to the gateway on creation.
type CreateDashboardInput struct {
	Name string
	Slug string
}

// DashboardRecord is the persisted view of a dashboard.
type DashboardRecord struct {
	ID        int64               `json:"id"`
	Slug      string              `json:"slug"`
	Name      string              `json:"name"`
	State     LifecycleState      `json:"state"`
	Archived  bool                `json:"is_archived"`
	Widgets   []PersistableWidget `json:"widgets,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// ListOptions filters dashboard listings. Archived dashboards are hidden by default.
type ListOptions struct {
	IncludeArchived bool
}

// CreateQueryInput describes a new saved query.
type CreateQueryInput struct {
	Name         string `json:"name"`
	SQL          string `json:"query"`
	DataSourceID int64  `json:"data_source_id"`
}

// Query is a saved query referenced by visualization widgets.
type Query struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	SQL          string `json:"query"`
	DataSourceID int64  `json:"data_source_id"`
	IsDraft      bool   `json:"is_draft"`
}

// QueryResult is the slice of an execution result the engine consumes.
type QueryResult struct {
	RowCount int      `json:"row_count"`
	Columns  []string `json:"columns"`
	Rows     [][]any  `json:"rows"`
}

// LayoutDelta is a buffered position/size change for one widget.
type LayoutDelta struct {
	WidgetID   int64 `json:"widget_id"`
	Position   Rect  `json:"position"`
	AutoHeight *bool `json:"auto_height,omitempty"`
}

// DashboardEvent describes changes that transports might care about.
type DashboardEvent struct {
	DashboardID int64  `json:"dashboard_id"`
	Slug        string `json:"slug"`
	WidgetID    int64  `json:"widget_id,omitempty"`
	Reason      string `json:"reason"`
}

// ViewerContext identifies the interactive session owner.
type ViewerContext struct {
	UserID string `json:"user_id"`
}

// DashboardSummary is the listing view.
type DashboardSummary struct {
	ID       int64          `json:"id"`
	Slug     string         `json:"slug"`
	Name     string         `json:"name"`
	State    LifecycleState `json:"state"`
	Archived bool           `json:"is_archived"`
}

func summaryFromRecord(rec DashboardRecord) DashboardSummary {
	return DashboardSummary{
		ID:       rec.ID,
		Slug:     rec.Slug,
		Name:     rec.Name,
		State:    rec.State,
		Archived: rec.Archived,
	}
}
