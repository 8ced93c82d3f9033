package dashboard

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// EditSession buffers drag and resize changes for one viewer on one dashboard.
// Nothing reaches the gateway until Apply; Discard drops the buffer.
type EditSession struct {
	ID     string
	Viewer ViewerContext

	mu        sync.Mutex
	dashboard *Dashboard
	order     []int64
	pending   map[int64]LayoutDelta
}

func newEditSession(viewer ViewerContext, d *Dashboard) *EditSession {
	return &EditSession{
		ID:        uuid.NewString(),
		Viewer:    viewer,
		dashboard: d,
		pending:   make(map[int64]LayoutDelta),
	}
}

// Dashboard returns the aggregate being edited.
func (s *EditSession) Dashboard() *Dashboard { return s.dashboard }

// Move buffers a new origin for the widget, keeping any buffered size.
func (s *EditSession) Move(widgetID int64, col, row int) error {
	rect, err := s.current(widgetID)
	if err != nil {
		return err
	}
	rect.Col, rect.Row = col, row
	return s.Stage(LayoutDelta{WidgetID: widgetID, Position: rect})
}

// Resize buffers a new size for the widget, keeping any buffered origin.
func (s *EditSession) Resize(widgetID int64, width, height int) error {
	rect, err := s.current(widgetID)
	if err != nil {
		return err
	}
	rect.Width, rect.Height = width, height
	return s.Stage(LayoutDelta{WidgetID: widgetID, Position: rect})
}

// Stage buffers a delta, replacing an earlier one for the same widget.
func (s *EditSession) Stage(delta LayoutDelta) error {
	if err := validateDeltaRect("stage", delta); err != nil {
		return err
	}
	if _, ok := s.dashboard.Widget(delta.WidgetID); !ok {
		return notFoundError("stage", "widget %d is not on dashboard %s", delta.WidgetID, s.dashboard.Slug())
	}
	s.mu.Lock()
	if _, ok := s.pending[delta.WidgetID]; !ok {
		s.order = append(s.order, delta.WidgetID)
	}
	s.pending[delta.WidgetID] = delta
	s.mu.Unlock()
	s.dashboard.setDirty(true)
	return nil
}

// Pending returns the buffered deltas in the order widgets were first touched.
func (s *EditSession) Pending() []LayoutDelta {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LayoutDelta, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.pending[id])
	}
	return out
}

// Dirty reports whether the session holds changes not yet applied.
func (s *EditSession) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order) > 0
}

// Apply flushes the buffer as one atomic layout change. On failure the buffer
// is kept so the caller can adjust and retry.
func (s *EditSession) Apply(ctx context.Context) ([]*Widget, error) {
	deltas := s.Pending()
	out, err := s.dashboard.ApplyLayoutChanges(ctx, deltas)
	if err != nil {
		return nil, err
	}
	s.clear()
	return out, nil
}

// Discard drops buffered changes without contacting the gateway.
func (s *EditSession) Discard() {
	s.clear()
	s.dashboard.setDirty(false)
}

func (s *EditSession) clear() {
	s.mu.Lock()
	s.order = nil
	s.pending = make(map[int64]LayoutDelta)
	s.mu.Unlock()
}

func (s *EditSession) current(widgetID int64) (Rect, error) {
	s.mu.Lock()
	delta, ok := s.pending[widgetID]
	s.mu.Unlock()
	if ok {
		return delta.Position, nil
	}
	w, found := s.dashboard.Widget(widgetID)
	if !found {
		return Rect{}, notFoundError("stage", "widget %d is not on dashboard %s", widgetID, s.dashboard.Slug())
	}
	return w.Position, nil
}

// SessionStore tracks open edit sessions per viewer and dashboard.
type SessionStore interface {
	Put(session *EditSession) error
	Get(viewer ViewerContext, slug string) (*EditSession, bool)
	Delete(viewer ViewerContext, slug string) (*EditSession, bool)
}

// InMemorySessionStore is a concurrency-safe SessionStore.
type InMemorySessionStore struct {
	mu   sync.RWMutex
	data map[string]*EditSession
}

// NewInMemorySessionStore creates an empty session store.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		data: make(map[string]*EditSession),
	}
}

func (s *InMemorySessionStore) Put(session *EditSession) error {
	if session == nil || session.dashboard == nil {
		return fmt.Errorf("dashboard: session store requires a dashboard session")
	}
	if session.Viewer.UserID == "" {
		return fmt.Errorf("dashboard: session store requires viewer user id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[s.key(session.Viewer, session.dashboard.Slug())] = session
	return nil
}

func (s *InMemorySessionStore) Get(viewer ViewerContext, slug string) (*EditSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.data[s.key(viewer, slug)]
	return session, ok
}

func (s *InMemorySessionStore) Delete(viewer ViewerContext, slug string) (*EditSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := s.key(viewer, slug)
	session, ok := s.data[key]
	delete(s.data, key)
	return session, ok
}

func (s *InMemorySessionStore) key(viewer ViewerContext, slug string) string {
	return viewer.UserID + "::" + slug
}

// BeginEdit opens the dashboard and starts an edit session for the viewer, or
// returns the viewer's open session for that dashboard.
func (s *Service) BeginEdit(ctx context.Context, viewer ViewerContext, slug string) (*EditSession, error) {
	if viewer.UserID == "" {
		return nil, validationError("begin_edit", "viewer user id is required")
	}
	if existing, ok := s.opts.Sessions.Get(viewer, slug); ok {
		return existing, nil
	}
	d, err := s.OpenDashboard(ctx, slug)
	if err != nil {
		return nil, err
	}
	if d.Archived() {
		return nil, validationError("begin_edit", errArchived)
	}
	session := newEditSession(viewer, d)
	if err := s.opts.Sessions.Put(session); err != nil {
		return nil, err
	}
	s.recordTelemetry(ctx, "dashboard.session.begin", map[string]any{
		"slug":       slug,
		"user_id":    viewer.UserID,
		"session_id": session.ID,
	})
	return session, nil
}

// Session returns the viewer's open session for slug.
func (s *Service) Session(viewer ViewerContext, slug string) (*EditSession, bool) {
	return s.opts.Sessions.Get(viewer, slug)
}

// Leave ends the viewer's session. Unapplied changes are discarded, never flushed.
func (s *Service) Leave(ctx context.Context, viewer ViewerContext, slug string) bool {
	session, ok := s.opts.Sessions.Delete(viewer, slug)
	if !ok {
		return false
	}
	discarded := len(session.Pending())
	session.Discard()
	s.recordTelemetry(ctx, "dashboard.session.leave", map[string]any{
		"slug":       slug,
		"user_id":    viewer.UserID,
		"session_id": session.ID,
		"discarded":  discarded,
	})
	return true
}
