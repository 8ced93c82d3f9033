package dashboard

import (
	"context"
	"maps"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryGateway is a concurrency-safe PersistenceGateway kept in process
// memory. It backs tests, the CLI planner and the example server.
type MemoryGateway struct {
	mu            sync.RWMutex
	now           func() time.Time
	nextDashboard int64
	nextWidget    int64
	nextQuery     int64
	dashboards    map[int64]DashboardRecord
	slugs         map[string]int64
	widgets       map[int64]PersistableWidget
	queries       map[int64]Query
}

var _ PersistenceGateway = (*MemoryGateway)(nil)

// NewMemoryGateway creates an empty gateway.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		now:        time.Now,
		dashboards: make(map[int64]DashboardRecord),
		slugs:      make(map[string]int64),
		widgets:    make(map[int64]PersistableWidget),
		queries:    make(map[int64]Query),
	}
}

func (g *MemoryGateway) CreateDashboard(_ context.Context, input CreateDashboardInput) (DashboardRecord, error) {
	slug := strings.TrimSpace(input.Slug)
	if slug == "" {
		return DashboardRecord{}, validationError("create", "slug is required")
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, taken := g.slugs[slug]; taken {
		return DashboardRecord{}, ErrSlugTaken
	}
	g.nextDashboard++
	now := g.now()
	rec := DashboardRecord{
		ID:        g.nextDashboard,
		Slug:      slug,
		Name:      input.Name,
		State:     StateDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
	g.dashboards[rec.ID] = rec
	g.slugs[slug] = rec.ID
	return rec, nil
}

func (g *MemoryGateway) GetDashboard(_ context.Context, slug string) (DashboardRecord, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	id, ok := g.slugs[slug]
	if !ok {
		return DashboardRecord{}, notFoundError("get", "dashboard %q not found", slug)
	}
	rec := g.dashboards[id]
	rec.Widgets = g.widgetsFor(id)
	return rec, nil
}

func (g *MemoryGateway) ListDashboards(_ context.Context, opts ListOptions) ([]DashboardRecord, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]DashboardRecord, 0, len(g.dashboards))
	for _, rec := range g.dashboards {
		if rec.Archived && !opts.IncludeArchived {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (g *MemoryGateway) PublishDashboard(_ context.Context, id int64) error {
	return g.updateDashboard("publish", id, func(rec *DashboardRecord) { rec.State = StatePublished })
}

func (g *MemoryGateway) ArchiveDashboard(_ context.Context, id int64) error {
	return g.updateDashboard("archive", id, func(rec *DashboardRecord) { rec.Archived = true })
}

func (g *MemoryGateway) UnarchiveDashboard(_ context.Context, id int64) error {
	return g.updateDashboard("unarchive", id, func(rec *DashboardRecord) { rec.Archived = false })
}

// UpdateDashboardLayout applies every delta or none.
func (g *MemoryGateway) UpdateDashboardLayout(_ context.Context, id int64, deltas []LayoutDelta) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.dashboards[id]; !ok {
		return notFoundError("update_layout", "dashboard %d not found", id)
	}
	for _, delta := range deltas {
		w, ok := g.widgets[delta.WidgetID]
		if !ok || w.DashboardID != id {
			return notFoundError("update_layout", "widget %d not found on dashboard %d", delta.WidgetID, id)
		}
	}
	for _, delta := range deltas {
		w := g.widgets[delta.WidgetID]
		pos := w.Options.Position
		pos.Col, pos.Row = delta.Position.Col, delta.Position.Row
		pos.SizeX, pos.SizeY = delta.Position.Width, delta.Position.Height
		if delta.AutoHeight != nil {
			pos.AutoHeight = *delta.AutoHeight
		}
		w.Options.Position = pos
		g.widgets[delta.WidgetID] = w
	}
	g.touch(id)
	return nil
}

func (g *MemoryGateway) CreateWidget(_ context.Context, w PersistableWidget) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.dashboards[w.DashboardID]; !ok {
		return 0, notFoundError("create_widget", "dashboard %d not found", w.DashboardID)
	}
	if w.QueryID != 0 {
		if _, ok := g.queries[w.QueryID]; !ok {
			return 0, notFoundError("create_widget", "query %d not found", w.QueryID)
		}
	}
	g.nextWidget++
	w.ID = g.nextWidget
	g.widgets[w.ID] = cloneWidget(w)
	g.touch(w.DashboardID)
	return w.ID, nil
}

func (g *MemoryGateway) UpdateWidget(_ context.Context, w PersistableWidget) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	existing, ok := g.widgets[w.ID]
	if !ok {
		return notFoundError("update_widget", "widget %d not found", w.ID)
	}
	w.DashboardID = existing.DashboardID
	g.widgets[w.ID] = cloneWidget(w)
	g.touch(w.DashboardID)
	return nil
}

func (g *MemoryGateway) DeleteWidget(_ context.Context, id int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	w, ok := g.widgets[id]
	if !ok {
		return notFoundError("delete_widget", "widget %d not found", id)
	}
	delete(g.widgets, id)
	g.touch(w.DashboardID)
	return nil
}

func (g *MemoryGateway) CreateQuery(_ context.Context, input CreateQueryInput) (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextQuery++
	g.queries[g.nextQuery] = Query{
		ID:           g.nextQuery,
		Name:         input.Name,
		SQL:          input.SQL,
		DataSourceID: input.DataSourceID,
		IsDraft:      true,
	}
	return g.nextQuery, nil
}

func (g *MemoryGateway) PublishQuery(_ context.Context, id int64) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	q, ok := g.queries[id]
	if !ok {
		return notFoundError("publish_query", "query %d not found", id)
	}
	q.IsDraft = false
	g.queries[id] = q
	return nil
}

func (g *MemoryGateway) GetQuery(_ context.Context, id int64) (Query, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	q, ok := g.queries[id]
	if !ok {
		return Query{}, notFoundError("get_query", "query %d not found", id)
	}
	return q, nil
}

// WidgetCount reports how many widgets are stored for a dashboard.
func (g *MemoryGateway) WidgetCount(dashboardID int64) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	count := 0
	for _, w := range g.widgets {
		if w.DashboardID == dashboardID {
			count++
		}
	}
	return count
}

func (g *MemoryGateway) updateDashboard(op string, id int64, mutate func(*DashboardRecord)) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	rec, ok := g.dashboards[id]
	if !ok {
		return notFoundError(op, "dashboard %d not found", id)
	}
	mutate(&rec)
	rec.UpdatedAt = g.now()
	g.dashboards[id] = rec
	return nil
}

func (g *MemoryGateway) touch(id int64) {
	if rec, ok := g.dashboards[id]; ok {
		rec.UpdatedAt = g.now()
		g.dashboards[id] = rec
	}
}

func (g *MemoryGateway) widgetsFor(dashboardID int64) []PersistableWidget {
	var out []PersistableWidget
	for _, w := range g.widgets {
		if w.DashboardID == dashboardID {
			out = append(out, cloneWidget(w))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func cloneWidget(w PersistableWidget) PersistableWidget {
	w.Options.Visualization = maps.Clone(w.Options.Visualization)
	return w
}

// StaticExecutor returns canned query results, keyed by query id.
type StaticExecutor struct {
	mu      sync.RWMutex
	results map[int64]QueryResult
}

// NewStaticExecutor creates an executor with no results.
func NewStaticExecutor() *StaticExecutor {
	return &StaticExecutor{results: make(map[int64]QueryResult)}
}

// SetRowCount stores a result that only carries a row count.
func (e *StaticExecutor) SetRowCount(queryID int64, rows int) {
	e.Set(queryID, QueryResult{RowCount: rows})
}

func (e *StaticExecutor) Set(queryID int64, result QueryResult) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.results[queryID] = result
}

func (e *StaticExecutor) Execute(_ context.Context, queryID int64) (QueryResult, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	res, ok := e.results[queryID]
	if !ok {
		return QueryResult{}, notFoundError("execute", "no result for query %d", queryID)
	}
	return res, nil
}
