package dashboard

import (
	"context"
	"errors"
	"strings"
)

// CreateDashboard validates the name, allocates a unique slug and persists an
// empty draft dashboard. Slug collisions are retried with numeric suffixes.
func (s *Service) CreateDashboard(ctx context.Context, name string) (*Dashboard, error) {
	gw, err := s.gateway()
	if err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, validationError("create", "dashboard name is required")
	}
	base := Slugify(name)
	for attempt := 0; attempt <= s.opts.Config.SlugRetries; attempt++ {
		rec, err := gw.CreateDashboard(ctx, CreateDashboardInput{
			Name: name,
			Slug: suffixedSlug(base, attempt),
		})
		if errors.Is(err, ErrSlugTaken) {
			continue
		}
		if err != nil {
			return nil, persistenceError("create", err)
		}
		if rec.State == "" {
			rec.State = StateDraft
		}
		d, err := s.dashboardFromRecord(rec)
		if err != nil {
			return nil, err
		}
		s.afterChange(ctx, d.snapshotEvent("create"), map[string]any{"name": name})
		return d, nil
	}
	return nil, &Error{Kind: KindPersistence, Op: "create", Message: "no free slug for " + base, Err: ErrSlugTaken}
}

// OpenDashboard loads a dashboard by slug, archived ones included, and rebuilds its grid.
func (s *Service) OpenDashboard(ctx context.Context, slug string) (*Dashboard, error) {
	gw, err := s.gateway()
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(slug) == "" {
		return nil, validationError("open", "slug is required")
	}
	rec, err := gw.GetDashboard(ctx, slug)
	if err != nil {
		return nil, persistenceError("open", err)
	}
	return s.dashboardFromRecord(rec)
}

// ListDashboards returns dashboard summaries. Archived dashboards are left out
// unless opts.IncludeArchived is set.
func (s *Service) ListDashboards(ctx context.Context, opts ListOptions) ([]DashboardSummary, error) {
	gw, err := s.gateway()
	if err != nil {
		return nil, err
	}
	records, err := gw.ListDashboards(ctx, opts)
	if err != nil {
		return nil, persistenceError("list", err)
	}
	out := make([]DashboardSummary, 0, len(records))
	for _, rec := range records {
		if rec.Archived && !opts.IncludeArchived {
			continue
		}
		out = append(out, summaryFromRecord(rec))
	}
	return out, nil
}

// Publish moves a draft dashboard to published. Publishing twice is a no-op.
func (s *Service) Publish(ctx context.Context, d *Dashboard) error {
	if d == nil {
		return validationError("publish", "dashboard is required")
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.publishLocked(ctx)
}

// Archive hides the dashboard from default listings. The caller is responsible
// for obtaining user confirmation. Archiving an archived dashboard is a no-op.
func (s *Service) Archive(ctx context.Context, d *Dashboard) error {
	return s.setArchived(ctx, d, true)
}

// Unarchive restores an archived dashboard to default listings.
func (s *Service) Unarchive(ctx context.Context, d *Dashboard) error {
	return s.setArchived(ctx, d, false)
}

func (s *Service) setArchived(ctx context.Context, d *Dashboard, archived bool) error {
	op := "archive"
	if !archived {
		op = "unarchive"
	}
	if d == nil {
		return validationError(op, "dashboard is required")
	}
	gw, err := s.gateway()
	if err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.archived == archived {
		return nil
	}
	if archived {
		err = gw.ArchiveDashboard(ctx, d.id)
	} else {
		err = gw.UnarchiveDashboard(ctx, d.id)
	}
	if err != nil {
		return persistenceError(op, err)
	}
	d.archived = archived
	s.afterChange(ctx, d.snapshotEvent(op), nil)
	return nil
}

// CreateQuery stores a new draft query through the gateway.
func (s *Service) CreateQuery(ctx context.Context, input CreateQueryInput) (Query, error) {
	gw, err := s.gateway()
	if err != nil {
		return Query{}, err
	}
	if strings.TrimSpace(input.SQL) == "" {
		return Query{}, validationError("create_query", "query text is required")
	}
	id, err := gw.CreateQuery(ctx, input)
	if err != nil {
		return Query{}, persistenceError("create_query", err)
	}
	s.recordTelemetry(ctx, "dashboard.query.create", map[string]any{"query_id": id})
	return Query{ID: id, Name: input.Name, SQL: input.SQL, DataSourceID: input.DataSourceID, IsDraft: true}, nil
}

// PublishQuery makes a query selectable as a widget source. Queries keep their
// explicit publish step even though dashboards publish implicitly.
func (s *Service) PublishQuery(ctx context.Context, queryID int64) error {
	gw, err := s.gateway()
	if err != nil {
		return err
	}
	if err := gw.PublishQuery(ctx, queryID); err != nil {
		return persistenceError("publish_query", err)
	}
	s.recordTelemetry(ctx, "dashboard.query.publish", map[string]any{"query_id": queryID})
	return nil
}

func (s *Service) afterChange(ctx context.Context, event DashboardEvent, extra map[string]any) {
	payload := map[string]any{"slug": event.Slug, "dashboard_id": event.DashboardID}
	if event.WidgetID != 0 {
		payload["widget_id"] = event.WidgetID
	}
	for k, v := range extra {
		payload[k] = v
	}
	if err := s.notify(ctx, event); err != nil {
		s.recordTelemetry(ctx, "dashboard.hook.error", map[string]any{"reason": event.Reason, "error": err.Error()})
	}
	s.recordTelemetry(ctx, "dashboard."+event.Reason, payload)
	s.emitActivity(ctx, "dashboard."+event.Reason, "dashboard", event.Slug, payload)
}

func (s *Service) dashboardFromRecord(rec DashboardRecord) (*Dashboard, error) {
	d := &Dashboard{
		svc:      s,
		id:       rec.ID,
		slug:     rec.Slug,
		name:     rec.Name,
		state:    rec.State,
		archived: rec.Archived,
		grid:     NewGrid(s.grid),
	}
	if d.state == "" {
		d.state = StateDraft
	}
	persisted := sortByPosition(rec.Widgets)
	for _, p := range persisted {
		w, err := WidgetFromPersistable(p)
		if err != nil {
			return nil, err
		}
		w.DashboardID = d.id
		w.Position = d.grid.Place(w.ID, w.Position)
		d.widgets = append(d.widgets, w)
	}
	return d, nil
}
