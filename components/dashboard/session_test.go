package dashboard

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditSessionBuffersUntilApply(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := newDashboard(t, f, "Ops")
	a, err := d.AddTextbox(ctx, "a")
	require.NoError(t, err)
	viewer := ViewerContext{UserID: "user-1"}

	session, err := f.svc.BeginEdit(ctx, viewer, d.Slug())
	require.NoError(t, err)
	require.NotEmpty(t, session.ID)

	require.NoError(t, session.Move(a.ID, 3, 1))
	require.NoError(t, session.Resize(a.ID, 2, 4))
	assert.True(t, session.Dirty())
	assert.True(t, session.Dashboard().Dirty())
	assert.Equal(t, []LayoutDelta{{WidgetID: a.ID, Position: Rect{Col: 3, Row: 1, Width: 2, Height: 4}}}, session.Pending())

	rec, err := f.gw.GetDashboard(ctx, d.Slug())
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Widgets[0].Options.Position.Col, "nothing persisted before apply")

	moved, err := session.Apply(ctx)
	require.NoError(t, err)
	require.Len(t, moved, 1)
	assert.Equal(t, Rect{Col: 3, Row: 1, Width: 2, Height: 4}, moved[0].Position)
	assert.False(t, session.Dirty())
	assert.False(t, session.Dashboard().Dirty())

	rec, err = f.gw.GetDashboard(ctx, d.Slug())
	require.NoError(t, err)
	assert.Equal(t, PositionOptions{Col: 3, Row: 1, SizeX: 2, SizeY: 4}, rec.Widgets[0].Options.Position)
}

func TestLeaveDiscardsPendingChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := newDashboard(t, f, "Ops")
	a, err := d.AddTextbox(ctx, "a")
	require.NoError(t, err)
	viewer := ViewerContext{UserID: "user-1"}

	session, err := f.svc.BeginEdit(ctx, viewer, d.Slug())
	require.NoError(t, err)
	require.NoError(t, session.Move(a.ID, 3, 0))

	assert.True(t, f.svc.Leave(ctx, viewer, d.Slug()))
	assert.False(t, f.svc.Leave(ctx, viewer, d.Slug()))
	assert.Empty(t, session.Pending())
	assert.False(t, session.Dashboard().Dirty())

	_, ok := f.svc.Session(viewer, d.Slug())
	assert.False(t, ok)

	rec, err := f.gw.GetDashboard(ctx, d.Slug())
	require.NoError(t, err)
	assert.Equal(t, 0, rec.Widgets[0].Options.Position.Col)
}

func TestEditSessionsAreScopedPerViewer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := newDashboard(t, f, "Ops")
	a, err := d.AddTextbox(ctx, "a")
	require.NoError(t, err)

	alice, err := f.svc.BeginEdit(ctx, ViewerContext{UserID: "alice"}, d.Slug())
	require.NoError(t, err)
	bob, err := f.svc.BeginEdit(ctx, ViewerContext{UserID: "bob"}, d.Slug())
	require.NoError(t, err)
	require.NotEqual(t, alice.ID, bob.ID)

	require.NoError(t, alice.Move(a.ID, 3, 0))
	assert.Empty(t, bob.Pending())

	again, err := f.svc.BeginEdit(ctx, ViewerContext{UserID: "alice"}, d.Slug())
	require.NoError(t, err)
	assert.Same(t, alice, again)
}

func TestEditSessionValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	d := newDashboard(t, f, "Ops")
	a, err := d.AddTextbox(ctx, "a")
	require.NoError(t, err)

	_, err = f.svc.BeginEdit(ctx, ViewerContext{}, d.Slug())
	assert.ErrorIs(t, err, ErrValidation)

	session, err := f.svc.BeginEdit(ctx, ViewerContext{UserID: "u"}, d.Slug())
	require.NoError(t, err)
	assert.ErrorIs(t, session.Move(404, 0, 0), ErrNotFound)
	assert.ErrorIs(t, session.Resize(a.ID, 0, 2), ErrValidation)
	assert.False(t, session.Dirty())

	require.NoError(t, f.svc.Archive(ctx, d))
	_, err = f.svc.BeginEdit(ctx, ViewerContext{UserID: "other"}, d.Slug())
	assert.ErrorIs(t, err, ErrValidation)
}

func TestInMemorySessionStoreRequiresViewer(t *testing.T) {
	store := NewInMemorySessionStore()
	err := store.Put(&EditSession{dashboard: &Dashboard{slug: "ops"}})
	if err == nil {
		t.Fatalf("expected error for session without viewer")
	}
	session := &EditSession{Viewer: ViewerContext{UserID: "u"}, dashboard: &Dashboard{slug: "ops"}}
	if err := store.Put(session); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if got, ok := store.Get(ViewerContext{UserID: "u"}, "ops"); !ok || got != session {
		t.Fatalf("expected stored session, got %v %v", got, ok)
	}
	if _, ok := store.Get(ViewerContext{UserID: "u"}, "other"); ok {
		t.Fatalf("sessions must be keyed by slug")
	}
}
