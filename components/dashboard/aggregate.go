package dashboard

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Dashboard is the aggregate owning a dashboard's widget set and grid. Every
// mutation round-trips to the persistence gateway before local state changes,
// so a failed call leaves the aggregate as it was.
type Dashboard struct {
	mu       sync.Mutex
	svc      *Service
	id       int64
	slug     string
	name     string
	state    LifecycleState
	archived bool
	dirty    bool
	widgets  []*Widget
	grid     *Grid
}

// ID is the gateway-assigned dashboard id.
func (d *Dashboard) ID() int64 { return d.id }

// Slug is fixed at creation; renaming never changes it.
func (d *Dashboard) Slug() string { return d.slug }

// Name is the display name given at creation.
func (d *Dashboard) Name() string { return d.name }

// State reports draft or published.
func (d *Dashboard) State() LifecycleState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Archived reports whether the dashboard is hidden from default listings.
func (d *Dashboard) Archived() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.archived
}

// Dirty reports whether an edit session holds layout changes not yet applied.
func (d *Dashboard) Dirty() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.dirty
}

// Widgets returns copies of the widgets in insertion order.
func (d *Dashboard) Widgets() []*Widget {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]*Widget, 0, len(d.widgets))
	for _, w := range d.widgets {
		out = append(out, w.Clone())
	}
	return out
}

// Widget returns a copy of the widget with the given id.
func (d *Dashboard) Widget(id int64) (*Widget, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	idx := d.indexOf(id)
	if idx < 0 {
		return nil, false
	}
	return d.widgets[idx].Clone(), true
}

// Layout returns the current grid rectangles keyed by widget id.
func (d *Dashboard) Layout() map[int64]Rect {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.grid.Rects()
}

// Summary returns the listing view of the dashboard.
func (d *Dashboard) Summary() DashboardSummary {
	d.mu.Lock()
	defer d.mu.Unlock()
	return DashboardSummary{ID: d.id, Slug: d.slug, Name: d.name, State: d.state, Archived: d.archived}
}

// AddWidget validates the content, publishes a draft dashboard and persists a
// new widget placed at the requested rectangle, or at the next free row when
// requested is nil. Auto-height visualizations take their height from the
// executor's row count unless requested carries an explicit height; when no
// result is available they start at the auto-height floor.
func (d *Dashboard) AddWidget(ctx context.Context, content Content, requested *Rect) (*Widget, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	const op = "add_widget"

	gw, err := d.svc.gateway()
	if err != nil {
		return nil, err
	}
	if err := d.ensureMutable(op); err != nil {
		return nil, err
	}

	w := &Widget{DashboardID: d.id}
	switch c := content.(type) {
	case VisualizationContent:
		c, def, err := d.checkVisualization(ctx, gw, op, c)
		if err != nil {
			return nil, err
		}
		w.Content = c
		w.AutoHeight = def.AutoHeight
	case TextboxContent:
		if strings.TrimSpace(c.Text) == "" {
			return nil, validationError(op, "textbox text is required")
		}
		w.Content = c
	case nil:
		return nil, validationError(op, "widget content is required")
	default:
		return nil, validationError(op, "unsupported widget content %T", c)
	}

	rect := d.defaultRect(w)
	if requested != nil {
		rect = *requested
		if rect.Height > 0 {
			w.AutoHeight = false
		}
	}
	if w.AutoHeight {
		// Without a row count the widget still gets the chrome floor.
		rows, _ := d.fetchRowCount(ctx, w.QueryID(), false)
		rect.Height = d.svc.heights.ComputeAutoHeight(rows)
	}
	return d.insertLocked(ctx, gw, op, w, rect)
}

// AddTextbox adds a textbox of the default textbox size at the next free row.
func (d *Dashboard) AddTextbox(ctx context.Context, text string) (*Widget, error) {
	return d.AddWidget(ctx, TextboxContent{Text: text}, nil)
}

func (d *Dashboard) insertLocked(ctx context.Context, gw PersistenceGateway, op string, w *Widget, rect Rect) (*Widget, error) {
	if err := d.publishLocked(ctx); err != nil {
		return nil, err
	}
	w.Position = d.grid.Resolve(0, rect)
	p, err := w.ToPersistable()
	if err != nil {
		return nil, err
	}
	id, err := gw.CreateWidget(ctx, p)
	if err != nil {
		return nil, persistenceError(op, err)
	}
	w.ID = id
	w.Position = d.grid.Place(id, w.Position)
	d.widgets = append(d.widgets, w)
	d.afterChange(ctx, "widget_added", id, map[string]any{"kind": string(w.Content.Kind())})
	return w.Clone(), nil
}

// RemoveWidget deletes the widget and leaves its grid area empty. The query a
// visualization referenced is left untouched.
func (d *Dashboard) RemoveWidget(ctx context.Context, widgetID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	const op = "remove_widget"

	gw, err := d.svc.gateway()
	if err != nil {
		return err
	}
	if err := d.ensureMutable(op); err != nil {
		return err
	}
	idx := d.indexOf(widgetID)
	if idx < 0 {
		return notFoundError(op, "widget %d is not on dashboard %s", widgetID, d.slug)
	}
	if err := d.publishLocked(ctx); err != nil {
		return err
	}
	if err := gw.DeleteWidget(ctx, widgetID); err != nil {
		return persistenceError(op, err)
	}
	d.grid.Remove(widgetID)
	d.widgets = append(d.widgets[:idx], d.widgets[idx+1:]...)
	d.afterChange(ctx, "widget_removed", widgetID, nil)
	return nil
}

// EditTextbox replaces a textbox's text. Identity and position are unchanged.
func (d *Dashboard) EditTextbox(ctx context.Context, widgetID int64, text string) (*Widget, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	const op = "edit_textbox"

	gw, err := d.svc.gateway()
	if err != nil {
		return nil, err
	}
	if err := d.ensureMutable(op); err != nil {
		return nil, err
	}
	idx := d.indexOf(widgetID)
	if idx < 0 {
		return nil, notFoundError(op, "widget %d is not on dashboard %s", widgetID, d.slug)
	}
	next := d.widgets[idx].Clone()
	if err := next.ApplyEdit(text); err != nil {
		return nil, err
	}
	if err := d.publishLocked(ctx); err != nil {
		return nil, err
	}
	if err := d.updateWidget(ctx, gw, op, next); err != nil {
		return nil, err
	}
	d.widgets[idx] = next
	d.afterChange(ctx, "widget_edited", widgetID, nil)
	return next.Clone(), nil
}

// ApplyLayoutChanges commits a batch of position and size changes. Every delta
// is validated and the whole batch is resolved on a copy of the grid before
// the gateway sees it; nothing changes unless every step succeeds.
func (d *Dashboard) ApplyLayoutChanges(ctx context.Context, deltas []LayoutDelta) ([]*Widget, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.applyLayoutLocked(ctx, deltas)
}

func (d *Dashboard) applyLayoutLocked(ctx context.Context, deltas []LayoutDelta) ([]*Widget, error) {
	const op = "apply_layout"

	gw, err := d.svc.gateway()
	if err != nil {
		return nil, err
	}
	if err := d.ensureMutable(op); err != nil {
		return nil, err
	}

	staged := d.grid.Clone()
	seen := make(map[int64]struct{}, len(deltas))
	for _, delta := range deltas {
		if d.indexOf(delta.WidgetID) < 0 {
			return nil, validationError(op, "widget %d is not on dashboard %s", delta.WidgetID, d.slug)
		}
		if _, dup := seen[delta.WidgetID]; dup {
			return nil, validationError(op, "widget %d appears twice in one batch", delta.WidgetID)
		}
		seen[delta.WidgetID] = struct{}{}
		if err := validateDeltaRect(op, delta); err != nil {
			return nil, err
		}
		staged.Remove(delta.WidgetID)
	}

	resolved := make([]LayoutDelta, 0, len(deltas))
	for _, delta := range deltas {
		current := d.widgets[d.indexOf(delta.WidgetID)]
		rect := staged.Place(delta.WidgetID, delta.Position)
		auto := current.AutoHeight
		if delta.AutoHeight != nil {
			auto = *delta.AutoHeight
		} else if auto && delta.Position.Height != current.Position.Height {
			auto = false
		}
		resolved = append(resolved, LayoutDelta{WidgetID: delta.WidgetID, Position: rect, AutoHeight: &auto})
	}
	if a, b, overlap := staged.Overlaps(); overlap {
		return nil, &Error{Kind: KindPlacementConflict, Op: op, Message: fmt.Sprintf("widgets %d and %d overlap", a, b)}
	}

	if err := d.publishLocked(ctx); err != nil {
		return nil, err
	}
	if len(resolved) > 0 {
		if err := gw.UpdateDashboardLayout(ctx, d.id, resolved); err != nil {
			return nil, persistenceError(op, err)
		}
	}

	d.grid = staged
	out := make([]*Widget, 0, len(resolved))
	for _, delta := range resolved {
		idx := d.indexOf(delta.WidgetID)
		next := d.widgets[idx].Clone()
		next.Position = delta.Position
		next.AutoHeight = *delta.AutoHeight
		d.widgets[idx] = next
		out = append(out, next.Clone())
	}
	d.dirty = false
	d.afterChange(ctx, "layout_applied", 0, map[string]any{"changes": len(resolved)})
	return out, nil
}

func validateDeltaRect(op string, delta LayoutDelta) error {
	r := delta.Position
	if r.Width <= 0 || r.Height <= 0 {
		return validationError(op, "widget %d size must be positive, got %dx%d", delta.WidgetID, r.Width, r.Height)
	}
	if r.Col < 0 || r.Row < 0 {
		return validationError(op, "widget %d position must not be negative, got (%d,%d)", delta.WidgetID, r.Col, r.Row)
	}
	return nil
}

// ApplyQueryResult resizes an auto-height widget for a fetched row count. Only
// that widget is re-placed; widgets without auto-height ignore the result.
func (d *Dashboard) ApplyQueryResult(ctx context.Context, widgetID int64, rowCount int) (*Widget, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	const op = "auto_height"

	gw, err := d.svc.gateway()
	if err != nil {
		return nil, err
	}
	idx := d.indexOf(widgetID)
	if idx < 0 {
		return nil, notFoundError(op, "widget %d is not on dashboard %s", widgetID, d.slug)
	}
	current := d.widgets[idx]
	if !current.AutoHeight {
		return current.Clone(), nil
	}
	height := d.svc.heights.ComputeAutoHeight(rowCount)
	if height == current.Position.Height {
		return current.Clone(), nil
	}

	staged := d.grid.Clone()
	rect, err := staged.Resize(widgetID, current.Position.Width, height)
	if err != nil {
		return nil, err
	}
	next := current.Clone()
	next.Position = rect
	if err := d.updateWidget(ctx, gw, op, next); err != nil {
		return nil, err
	}
	d.grid = staged
	d.widgets[idx] = next
	d.afterChange(ctx, "widget_resized", widgetID, map[string]any{"rows": rowCount, "height": height})
	return next.Clone(), nil
}

// RefreshAutoHeight re-executes the widget's query, bypassing any result cache,
// and applies the new row count. The lock is not held while the query runs.
func (d *Dashboard) RefreshAutoHeight(ctx context.Context, widgetID int64) (*Widget, error) {
	const op = "refresh"
	if d.svc.opts.Executor == nil {
		return nil, validationError(op, "no query executor configured")
	}
	d.mu.Lock()
	idx := d.indexOf(widgetID)
	var queryID int64
	if idx >= 0 {
		queryID = d.widgets[idx].QueryID()
	}
	d.mu.Unlock()
	if idx < 0 {
		return nil, notFoundError(op, "widget %d is not on dashboard %s", widgetID, d.slug)
	}
	if queryID == 0 {
		return nil, validationError(op, "widget %d has no query", widgetID)
	}
	res, err := d.execute(ctx, queryID, true)
	if err != nil {
		return nil, &Error{Kind: KindPersistence, Op: op, Message: fmt.Sprintf("execute query %d", queryID), Err: err}
	}
	return d.ApplyQueryResult(ctx, widgetID, res.RowCount)
}

// RefreshAll re-executes the queries of every auto-height widget concurrently,
// then applies the row counts one widget at a time.
func (d *Dashboard) RefreshAll(ctx context.Context) error {
	const op = "refresh_all"
	if d.svc.opts.Executor == nil {
		return validationError(op, "no query executor configured")
	}
	type target struct {
		widgetID int64
		queryID  int64
		rows     int
	}
	d.mu.Lock()
	var targets []*target
	for _, w := range d.widgets {
		if w.AutoHeight && w.QueryID() != 0 {
			targets = append(targets, &target{widgetID: w.ID, queryID: w.QueryID()})
		}
	}
	d.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	for _, t := range targets {
		g.Go(func() error {
			res, err := d.execute(gctx, t.queryID, true)
			if err != nil {
				return fmt.Errorf("dashboard: execute query %d: %w", t.queryID, err)
			}
			t.rows = res.RowCount
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return &Error{Kind: KindPersistence, Op: op, Message: "refresh failed", Err: err}
	}
	for _, t := range targets {
		if _, err := d.ApplyQueryResult(ctx, t.widgetID, t.rows); err != nil {
			if KindOf(err) == KindNotFound {
				continue
			}
			return err
		}
	}
	return nil
}

func (d *Dashboard) execute(ctx context.Context, queryID int64, refresh bool) (QueryResult, error) {
	exec := d.svc.opts.Executor
	if cached, ok := exec.(*CachedExecutor); ok && refresh {
		return cached.Refresh(ctx, queryID)
	}
	return exec.Execute(ctx, queryID)
}

// fetchRowCount is best effort; failures report zero rows.
func (d *Dashboard) fetchRowCount(ctx context.Context, queryID int64, refresh bool) (int, bool) {
	if d.svc.opts.Executor == nil || queryID == 0 {
		return 0, false
	}
	res, err := d.execute(ctx, queryID, refresh)
	if err != nil {
		d.svc.recordTelemetry(ctx, "dashboard.auto_height.error", map[string]any{
			"slug":     d.slug,
			"query_id": queryID,
			"error":    err.Error(),
		})
		return 0, false
	}
	return res.RowCount, true
}

func (d *Dashboard) checkVisualization(ctx context.Context, gw PersistenceGateway, op string, c VisualizationContent) (VisualizationContent, VisualizationDefinition, error) {
	if c.QueryID <= 0 {
		return c, VisualizationDefinition{}, validationError(op, "visualization requires a query")
	}
	q, err := gw.GetQuery(ctx, c.QueryID)
	if err != nil {
		return c, VisualizationDefinition{}, persistenceError(op, err)
	}
	if q.IsDraft {
		return c, VisualizationDefinition{}, &Error{
			Kind:    KindInvalidQueryState,
			Op:      op,
			Message: fmt.Sprintf("query %d is a draft; publish it first", c.QueryID),
		}
	}
	if c.Type == "" {
		c.Type = VisualizationTable
	}
	def, ok := d.svc.opts.Visualizations.Definition(c.Type)
	if !ok {
		return c, VisualizationDefinition{}, validationError(op, "unknown visualization type %q", c.Type)
	}
	if err := d.svc.opts.Validator.Validate(def, c.Options); err != nil {
		if KindOf(err) == "" {
			err = &Error{Kind: KindValidation, Op: op, Message: "invalid visualization options", Err: err}
		}
		return c, VisualizationDefinition{}, err
	}
	return c, def, nil
}

func (d *Dashboard) updateWidget(ctx context.Context, gw PersistenceGateway, op string, w *Widget) error {
	p, err := w.ToPersistable()
	if err != nil {
		return err
	}
	if err := gw.UpdateWidget(ctx, p); err != nil {
		return persistenceError(op, err)
	}
	return nil
}

func (d *Dashboard) defaultRect(w *Widget) Rect {
	opts := d.grid.Options()
	r := Rect{Col: 0, Row: d.grid.Bottom(), Width: opts.DefaultWidth, Height: opts.DefaultHeight}
	if w.IsTextbox() {
		r.Width, r.Height = opts.TextboxWidth, opts.TextboxHeight
	}
	return r
}

func (d *Dashboard) ensureMutable(op string) error {
	if d.archived {
		return validationError(op, errArchived)
	}
	return nil
}

// publishLocked runs before the first change on a draft dashboard is
// persisted, so a failed publish aborts the change. A publish that succeeded
// stays in effect when the change itself then fails.
func (d *Dashboard) publishLocked(ctx context.Context) error {
	if d.state == StatePublished {
		return nil
	}
	gw, err := d.svc.gateway()
	if err != nil {
		return err
	}
	if err := gw.PublishDashboard(ctx, d.id); err != nil {
		return persistenceError("publish", err)
	}
	d.state = StatePublished
	d.afterChange(ctx, "publish", 0, nil)
	return nil
}

func (d *Dashboard) setDirty(dirty bool) {
	d.mu.Lock()
	d.dirty = dirty
	d.mu.Unlock()
}

func (d *Dashboard) indexOf(widgetID int64) int {
	for i, w := range d.widgets {
		if w.ID == widgetID {
			return i
		}
	}
	return -1
}

func (d *Dashboard) snapshotEvent(reason string) DashboardEvent {
	return DashboardEvent{DashboardID: d.id, Slug: d.slug, Reason: reason}
}

func (d *Dashboard) afterChange(ctx context.Context, reason string, widgetID int64, payload map[string]any) {
	event := d.snapshotEvent(reason)
	event.WidgetID = widgetID
	d.svc.afterChange(ctx, event, payload)
}
