package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/goliatone/go-dashgrid/components/dashboard"
	"github.com/goliatone/go-dashgrid/components/dashboard/commands"
	"github.com/goliatone/go-dashgrid/components/dashboard/queries"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCommander[T any] struct {
	last  T
	calls int
	err   error
}

func (s *stubCommander[T]) Execute(ctx context.Context, msg T) error {
	s.last = msg
	s.calls++
	return s.err
}

func TestHandleRemoveWidget(t *testing.T) {
	remove := &stubCommander[commands.RemoveWidgetInput]{}
	api := &Handlers{RemoveWidget: remove}
	req := httptest.NewRequest(http.MethodDelete, "/dashboards/ops/widgets/7", nil)
	rec := httptest.NewRecorder()
	api.Mux().ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if remove.last.WidgetID != 7 || remove.last.Slug != "ops" {
		t.Fatalf("expected path propagation, got %+v", remove.last)
	}
}

func TestHandleRemoveWidgetRejectsBadID(t *testing.T) {
	remove := &stubCommander[commands.RemoveWidgetInput]{}
	api := &Handlers{RemoveWidget: remove}
	rec := httptest.NewRecorder()
	api.HandleRemoveWidget(rec, httptest.NewRequest(http.MethodDelete, "/", nil), "ops", "abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, remove.calls)
}

func TestHandleRefreshPassesWidgetID(t *testing.T) {
	refresh := &stubCommander[commands.RefreshWidgetInput]{}
	api := &Handlers{Refresh: refresh}
	rec := httptest.NewRecorder()
	api.Mux().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/dashboards/ops/refresh?widget_id=3", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, commands.RefreshWidgetInput{Slug: "ops", WidgetID: 3}, refresh.last)
}

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		dashboard.ErrValidation:        http.StatusBadRequest,
		dashboard.ErrInvalidQueryState: http.StatusConflict,
		dashboard.ErrPlacementConflict: http.StatusConflict,
		dashboard.ErrNotFound:          http.StatusNotFound,
		dashboard.ErrPersistence:       http.StatusBadGateway,
		&dashboard.Error{Kind: dashboard.KindPersistence, Err: dashboard.ErrSlugTaken}: http.StatusConflict,
		errors.New("boom"): http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, StatusFor(err), err.Error())
	}
}

func newHandlers() *Handlers {
	svc := dashboard.NewService(dashboard.Options{Gateway: dashboard.NewMemoryGateway()})
	return &Handlers{
		Create:       commands.NewCreateDashboardCommand(svc, nil),
		SetArchived:  commands.NewSetArchivedCommand(svc, nil),
		AddWidget:    commands.NewAddWidgetCommand(svc, nil),
		RemoveWidget: commands.NewRemoveWidgetCommand(svc, nil),
		EditTextbox:  commands.NewEditTextboxCommand(svc, nil),
		ApplyLayout:  commands.NewApplyLayoutCommand(svc, nil),
		Refresh:      commands.NewRefreshWidgetCommand(svc, nil),
		CreateQuery:  commands.NewCreateQueryCommand(svc, nil),
		PublishQuery: commands.NewPublishQueryCommand(svc, nil),
		List:         queries.NewListDashboardsQuery(svc),
		View:         queries.NewDashboardViewQuery(dashboard.NewController(svc)),
	}
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestDashboardFlowOverHTTP(t *testing.T) {
	mux := newHandlers().Mux()

	rec := do(t, mux, http.MethodPost, "/dashboards", `{"name":"Foo Bar"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var summary dashboard.DashboardSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, "foo-bar", summary.Slug)

	rec = do(t, mux, http.MethodPost, "/dashboards/foo-bar/widgets", `{"text":"hello"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var widget dashboard.PersistableWidget
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &widget))
	assert.Equal(t, "hello", widget.Text)

	rec = do(t, mux, http.MethodPost, "/dashboards/foo-bar/layout",
		fmt.Sprintf(`{"deltas":[{"widget_id":%d,"position":{"col":2,"row":0,"sizeX":4,"sizeY":3}}]}`, widget.ID))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, mux, http.MethodGet, "/dashboards/foo-bar", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var view dashboard.DashboardView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	require.Len(t, view.Widgets, 1)
	assert.Equal(t, dashboard.PositionOptions{Col: 2, Row: 0, SizeX: 4, SizeY: 3}, view.Widgets[0].Options.Position)
	assert.Equal(t, dashboard.StatePublished, view.State)

	rec = do(t, mux, http.MethodPost, "/dashboards/foo-bar/archive", "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, mux, http.MethodGet, "/dashboards", "")
	assert.JSONEq(t, `[]`, rec.Body.String())

	rec = do(t, mux, http.MethodPost, "/dashboards/foo-bar/widgets", `{"text":"late"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"validation"`)
}

func TestDraftQueryWidgetIsConflict(t *testing.T) {
	mux := newHandlers().Mux()
	require.Equal(t, http.StatusCreated, do(t, mux, http.MethodPost, "/dashboards", `{"name":"Sales"}`).Code)

	rec := do(t, mux, http.MethodPost, "/queries", `{"name":"Revenue","query":"select 1"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var q dashboard.Query
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &q))
	assert.True(t, q.IsDraft)

	body := fmt.Sprintf(`{"query_id":%d}`, q.ID)
	rec = do(t, mux, http.MethodPost, "/dashboards/sales/widgets", body)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = do(t, mux, http.MethodPost, fmt.Sprintf("/queries/%d/publish", q.ID), "")
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(t, mux, http.MethodPost, "/dashboards/sales/widgets", body)
	assert.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = do(t, mux, http.MethodGet, "/dashboards/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
