package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-dashgrid/components/dashboard"
	"github.com/goliatone/go-dashgrid/components/dashboard/commands"
)

// Handlers exposes HTTP endpoints backed by shared commands and queries.
type Handlers struct {
	Create       gocommand.Commander[commands.CreateDashboardInput]
	SetArchived  gocommand.Commander[commands.SetArchivedInput]
	AddWidget    gocommand.Commander[commands.AddWidgetInput]
	RemoveWidget gocommand.Commander[commands.RemoveWidgetInput]
	EditTextbox  gocommand.Commander[commands.EditTextboxInput]
	ApplyLayout  gocommand.Commander[commands.ApplyLayoutInput]
	Refresh      gocommand.Commander[commands.RefreshWidgetInput]
	CreateQuery  gocommand.Commander[commands.CreateQueryInput]
	PublishQuery gocommand.Commander[commands.PublishQueryInput]
	List         gocommand.Querier[dashboard.ListOptions, []dashboard.DashboardSummary]
	View         gocommand.Querier[string, dashboard.DashboardView]
}

// Mux registers every handler on a ServeMux using method and wildcard patterns.
func (h *Handlers) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /dashboards", h.HandleListDashboards)
	mux.HandleFunc("POST /dashboards", h.HandleCreateDashboard)
	mux.HandleFunc("GET /dashboards/{slug}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleViewDashboard(w, r, r.PathValue("slug"))
	})
	mux.HandleFunc("POST /dashboards/{slug}/archive", func(w http.ResponseWriter, r *http.Request) {
		h.HandleSetArchived(w, r, r.PathValue("slug"), true)
	})
	mux.HandleFunc("POST /dashboards/{slug}/unarchive", func(w http.ResponseWriter, r *http.Request) {
		h.HandleSetArchived(w, r, r.PathValue("slug"), false)
	})
	mux.HandleFunc("POST /dashboards/{slug}/widgets", func(w http.ResponseWriter, r *http.Request) {
		h.HandleAddWidget(w, r, r.PathValue("slug"))
	})
	mux.HandleFunc("PUT /dashboards/{slug}/widgets/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleEditTextbox(w, r, r.PathValue("slug"), r.PathValue("id"))
	})
	mux.HandleFunc("DELETE /dashboards/{slug}/widgets/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.HandleRemoveWidget(w, r, r.PathValue("slug"), r.PathValue("id"))
	})
	mux.HandleFunc("POST /dashboards/{slug}/layout", func(w http.ResponseWriter, r *http.Request) {
		h.HandleApplyLayout(w, r, r.PathValue("slug"))
	})
	mux.HandleFunc("POST /dashboards/{slug}/refresh", func(w http.ResponseWriter, r *http.Request) {
		h.HandleRefresh(w, r, r.PathValue("slug"))
	})
	mux.HandleFunc("POST /queries", h.HandleCreateQuery)
	mux.HandleFunc("POST /queries/{id}/publish", func(w http.ResponseWriter, r *http.Request) {
		h.HandlePublishQuery(w, r, r.PathValue("id"))
	})
	return mux
}

func (h *Handlers) HandleListDashboards(w http.ResponseWriter, r *http.Request) {
	opts := dashboard.ListOptions{IncludeArchived: r.URL.Query().Get("include_archived") == "true"}
	list, err := h.List.Query(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *Handlers) HandleCreateDashboard(w http.ResponseWriter, r *http.Request) {
	var payload commands.CreateDashboardInput
	if !decode(w, r, &payload) {
		return
	}
	var summary dashboard.DashboardSummary
	payload.Result = &summary
	if err := h.Create.Execute(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, summary)
}

func (h *Handlers) HandleViewDashboard(w http.ResponseWriter, r *http.Request, slug string) {
	view, err := h.View.Query(r.Context(), slug)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) HandleSetArchived(w http.ResponseWriter, r *http.Request, slug string, archived bool) {
	if err := h.SetArchived.Execute(r.Context(), commands.SetArchivedInput{Slug: slug, Archived: archived}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleAddWidget(w http.ResponseWriter, r *http.Request, slug string) {
	var payload commands.AddWidgetInput
	if !decode(w, r, &payload) {
		return
	}
	var widget dashboard.Widget
	payload.Slug = slug
	payload.Result = &widget
	if err := h.AddWidget.Execute(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	writeWidget(w, http.StatusCreated, &widget)
}

func (h *Handlers) HandleEditTextbox(w http.ResponseWriter, r *http.Request, slug, widgetID string) {
	id, ok := parseID(w, widgetID)
	if !ok {
		return
	}
	var payload commands.EditTextboxInput
	if !decode(w, r, &payload) {
		return
	}
	var widget dashboard.Widget
	payload.Slug, payload.WidgetID, payload.Result = slug, id, &widget
	if err := h.EditTextbox.Execute(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	writeWidget(w, http.StatusOK, &widget)
}

func (h *Handlers) HandleRemoveWidget(w http.ResponseWriter, r *http.Request, slug, widgetID string) {
	id, ok := parseID(w, widgetID)
	if !ok {
		return
	}
	if err := h.RemoveWidget.Execute(r.Context(), commands.RemoveWidgetInput{Slug: slug, WidgetID: id}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleApplyLayout(w http.ResponseWriter, r *http.Request, slug string) {
	var payload commands.ApplyLayoutInput
	if !decode(w, r, &payload) {
		return
	}
	var moved []*dashboard.Widget
	payload.Slug = slug
	payload.Result = &moved
	if err := h.ApplyLayout.Execute(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	out := make([]dashboard.PersistableWidget, 0, len(moved))
	for _, m := range moved {
		p, err := m.ToPersistable()
		if err != nil {
			writeError(w, err)
			return
		}
		out = append(out, p)
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handlers) HandleRefresh(w http.ResponseWriter, r *http.Request, slug string) {
	input := commands.RefreshWidgetInput{Slug: slug}
	if raw := r.URL.Query().Get("widget_id"); raw != "" {
		id, ok := parseID(w, raw)
		if !ok {
			return
		}
		input.WidgetID = id
	}
	if err := h.Refresh.Execute(r.Context(), input); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers) HandleCreateQuery(w http.ResponseWriter, r *http.Request) {
	var payload commands.CreateQueryInput
	if !decode(w, r, &payload) {
		return
	}
	var q dashboard.Query
	payload.Result = &q
	if err := h.CreateQuery.Execute(r.Context(), payload); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, q)
}

func (h *Handlers) HandlePublishQuery(w http.ResponseWriter, r *http.Request, queryID string) {
	id, ok := parseID(w, queryID)
	if !ok {
		return
	}
	if err := h.PublishQuery.Execute(r.Context(), commands.PublishQueryInput{QueryID: id}); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StatusFor maps engine error kinds onto HTTP status codes.
func StatusFor(err error) int {
	switch dashboard.KindOf(err) {
	case dashboard.KindValidation:
		return http.StatusBadRequest
	case dashboard.KindInvalidQueryState, dashboard.KindPlacementConflict:
		return http.StatusConflict
	case dashboard.KindNotFound:
		return http.StatusNotFound
	case dashboard.KindPersistence:
		if errors.Is(err, dashboard.ErrSlugTaken) {
			return http.StatusConflict
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

type errorBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), errorBody{Error: err.Error(), Kind: string(dashboard.KindOf(err))})
}

func writeWidget(w http.ResponseWriter, status int, widget *dashboard.Widget) {
	p, err := widget.ToPersistable()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, status, p)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error(), Kind: string(dashboard.KindValidation)})
		return false
	}
	return true
}

func parseID(w http.ResponseWriter, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid id " + strconv.Quote(raw), Kind: string(dashboard.KindValidation)})
		return 0, false
	}
	return id, true
}
