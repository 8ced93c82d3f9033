package gorouter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-dashgrid/components/dashboard"
	"github.com/goliatone/go-dashgrid/components/dashboard/commands"
	"github.com/goliatone/go-dashgrid/components/dashboard/httpapi"
)

// ActorResolver extracts activity identifiers from a router.Context.
type ActorResolver func(router.Context) commands.Actor

// Config wires go-router with the dashboard commands, queries, and hooks.
type Config[T any] struct {
	Router        router.Router[T]
	API           *httpapi.Handlers
	Broadcast     *dashboard.BroadcastHook
	ActorResolver ActorResolver
	BasePath      string
	Routes        RouteConfig
}

// RouteConfig customizes the relative paths used for dashboard endpoints.
type RouteConfig struct {
	Dashboards string
	Dashboard  string
	Archive    string
	Unarchive  string
	Widgets    string
	WidgetID   string
	Layout     string
	Refresh    string
	Queries    string
	Publish    string
	WebSocket  string
}

// Register mounts dashboard JSON and WebSocket routes on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.API == nil {
		return errors.New("gorouter: api handlers are required")
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := cfg.BasePath
	if base == "" {
		base = "/api"
	}
	resolver := cfg.ActorResolver
	if resolver == nil {
		resolver = defaultActorResolver
	}

	group := cfg.Router.Group(base)
	registerDashboards(group, cfg.API, resolver, routes)
	registerWidgets(group, cfg.API, resolver, routes)
	registerQueries(group, cfg.API, routes)

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, routes.WebSocket)
	}
	return nil
}

func registerDashboards[T any](r router.Router[T], api *httpapi.Handlers, resolver ActorResolver, routes RouteConfig) {
	r.Get(routes.Dashboards, router.WrapHandler(func(ctx router.Context) error {
		opts := dashboard.ListOptions{IncludeArchived: ctx.Query("include_archived") == "true"}
		list, err := api.List.Query(ctx.Context(), opts)
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, list)
	}))

	r.Post(routes.Dashboards, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.CreateDashboardInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		var summary dashboard.DashboardSummary
		payload.Actor = resolver(ctx)
		payload.Result = &summary
		if err := api.Create.Execute(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusCreated, summary)
	}))

	r.Get(routes.Dashboard, router.WrapHandler(func(ctx router.Context) error {
		view, err := api.View.Query(ctx.Context(), ctx.Param("slug"))
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, view)
	}))

	archive := func(archived bool) router.HandlerFunc {
		return router.WrapHandler(func(ctx router.Context) error {
			input := commands.SetArchivedInput{Actor: resolver(ctx), Slug: ctx.Param("slug"), Archived: archived}
			if err := api.SetArchived.Execute(ctx.Context(), input); err != nil {
				return respondError(ctx, err)
			}
			return ctx.JSON(http.StatusOK, map[string]bool{"archived": archived})
		})
	}
	r.Post(routes.Archive, archive(true))
	r.Post(routes.Unarchive, archive(false))
}

func registerWidgets[T any](r router.Router[T], api *httpapi.Handlers, resolver ActorResolver, routes RouteConfig) {
	r.Post(routes.Widgets, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.AddWidgetInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		var widget dashboard.Widget
		payload.Actor = resolver(ctx)
		payload.Slug = ctx.Param("slug")
		payload.Result = &widget
		if err := api.AddWidget.Execute(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return respondWidget(ctx, http.StatusCreated, &widget)
	}))

	r.Put(routes.WidgetID, router.WrapHandler(func(ctx router.Context) error {
		id, err := paramID(ctx, "id")
		if err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		var payload commands.EditTextboxInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		var widget dashboard.Widget
		payload.Actor = resolver(ctx)
		payload.Slug, payload.WidgetID, payload.Result = ctx.Param("slug"), id, &widget
		if err := api.EditTextbox.Execute(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return respondWidget(ctx, http.StatusOK, &widget)
	}))

	r.Delete(routes.WidgetID, router.WrapHandler(func(ctx router.Context) error {
		id, err := paramID(ctx, "id")
		if err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		input := commands.RemoveWidgetInput{Actor: resolver(ctx), Slug: ctx.Param("slug"), WidgetID: id}
		if err := api.RemoveWidget.Execute(ctx.Context(), input); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]int64{"removed": id})
	}))

	r.Post(routes.Layout, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.ApplyLayoutInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		var moved []*dashboard.Widget
		payload.Actor = resolver(ctx)
		payload.Slug = ctx.Param("slug")
		payload.Result = &moved
		if err := api.ApplyLayout.Execute(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		layout := make(map[int64]dashboard.Rect, len(moved))
		for _, w := range moved {
			layout[w.ID] = w.Position
		}
		return ctx.JSON(http.StatusOK, layout)
	}))

	r.Post(routes.Refresh, router.WrapHandler(func(ctx router.Context) error {
		input := commands.RefreshWidgetInput{Slug: ctx.Param("slug")}
		if raw := ctx.Query("widget_id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return respondStatus(ctx, http.StatusBadRequest, err)
			}
			input.WidgetID = id
		}
		if err := api.Refresh.Execute(ctx.Context(), input); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusAccepted, map[string]string{"status": "refreshed"})
	}))
}

func registerQueries[T any](r router.Router[T], api *httpapi.Handlers, routes RouteConfig) {
	r.Post(routes.Queries, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.CreateQueryInput
		if err := json.Unmarshal(ctx.Body(), &payload); err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		var q dashboard.Query
		payload.Result = &q
		if err := api.CreateQuery.Execute(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusCreated, q)
	}))

	r.Post(routes.Publish, router.WrapHandler(func(ctx router.Context) error {
		id, err := paramID(ctx, "id")
		if err != nil {
			return respondStatus(ctx, http.StatusBadRequest, err)
		}
		if err := api.PublishQuery.Execute(ctx.Context(), commands.PublishQueryInput{QueryID: id}); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, map[string]int64{"published": id})
	}))
}

// registerWebSocket streams every dashboard's events; clients filter by slug.
func registerWebSocket[T any](r router.Router[T], hook *dashboard.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe("")
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func defaultActorResolver(ctx router.Context) commands.Actor {
	var actor commands.Actor
	if v, ok := ctx.Locals("user_id").(string); ok {
		actor.UserID = v
		actor.ActorID = v
	}
	if v, ok := ctx.Locals("tenant_id").(string); ok {
		actor.TenantID = v
	}
	return actor
}

func paramID(ctx router.Context, name string) (int64, error) {
	raw := strings.TrimSpace(ctx.Param(name))
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("gorouter: invalid " + name + " " + strconv.Quote(raw))
	}
	return id, nil
}

func respondWidget(ctx router.Context, status int, w *dashboard.Widget) error {
	p, err := w.ToPersistable()
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(status, p)
}

func respondError(ctx router.Context, err error) error {
	return ctx.JSON(httpapi.StatusFor(err), map[string]string{
		"error": err.Error(),
		"kind":  string(dashboard.KindOf(err)),
	})
}

func respondStatus(ctx router.Context, status int, err error) error {
	return ctx.JSON(status, map[string]string{"error": err.Error()})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.Dashboards == "" {
		routes.Dashboards = "/dashboards"
	}
	if routes.Dashboard == "" {
		routes.Dashboard = "/dashboards/:slug"
	}
	if routes.Archive == "" {
		routes.Archive = "/dashboards/:slug/archive"
	}
	if routes.Unarchive == "" {
		routes.Unarchive = "/dashboards/:slug/unarchive"
	}
	if routes.Widgets == "" {
		routes.Widgets = "/dashboards/:slug/widgets"
	}
	if routes.WidgetID == "" {
		routes.WidgetID = "/dashboards/:slug/widgets/:id"
	}
	if routes.Layout == "" {
		routes.Layout = "/dashboards/:slug/layout"
	}
	if routes.Refresh == "" {
		routes.Refresh = "/dashboards/:slug/refresh"
	}
	if routes.Queries == "" {
		routes.Queries = "/queries"
	}
	if routes.Publish == "" {
		routes.Publish = "/queries/:id/publish"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/ws"
	}
	return routes
}
