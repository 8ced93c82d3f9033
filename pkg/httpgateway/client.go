// Package httpgateway implements the dashboard persistence gateway and query
// executor against a Redash-style REST API.
package httpgateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	dashboard "github.com/goliatone/go-dashgrid/components/dashboard"
)

// Config configures the REST client.
type Config struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// Client talks to a remote dashboard server. It satisfies both
// dashboard.PersistenceGateway and dashboard.QueryExecutor.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

var (
	_ dashboard.PersistenceGateway = (*Client)(nil)
	_ dashboard.QueryExecutor      = (*Client)(nil)
)

// StatusError reports a non-2xx response.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("httpgateway: remote error %d: %s", e.Status, e.Body)
}

// New builds a client for the server at cfg.BaseURL.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("httpgateway: base url is required")
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  httpClient,
	}, nil
}

func (c *Client) CreateDashboard(ctx context.Context, input dashboard.CreateDashboardInput) (dashboard.DashboardRecord, error) {
	var resp dashboardPayload
	err := c.do(ctx, http.MethodPost, "/api/dashboards", dashboardCreate{Name: input.Name, Slug: input.Slug}, &resp)
	if err != nil {
		var status *StatusError
		if errors.As(err, &status) && status.Status == http.StatusConflict {
			return dashboard.DashboardRecord{}, dashboard.ErrSlugTaken
		}
		return dashboard.DashboardRecord{}, classify("create", err)
	}
	return resp.record(), nil
}

func (c *Client) GetDashboard(ctx context.Context, slug string) (dashboard.DashboardRecord, error) {
	var resp dashboardPayload
	if err := c.do(ctx, http.MethodGet, "/api/dashboards/"+url.PathEscape(slug), nil, &resp); err != nil {
		return dashboard.DashboardRecord{}, classify("get", err)
	}
	return resp.record(), nil
}

func (c *Client) ListDashboards(ctx context.Context, opts dashboard.ListOptions) ([]dashboard.DashboardRecord, error) {
	path := "/api/dashboards"
	if opts.IncludeArchived {
		path += "?include_archived=true"
	}
	var resp []dashboardPayload
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, classify("list", err)
	}
	out := make([]dashboard.DashboardRecord, 0, len(resp))
	for _, p := range resp {
		if p.IsArchived && !opts.IncludeArchived {
			continue
		}
		out = append(out, p.record())
	}
	return out, nil
}

func (c *Client) PublishDashboard(ctx context.Context, id int64) error {
	draft := false
	return classify("publish", c.do(ctx, http.MethodPost, dashboardPath(id), dashboardUpdate{IsDraft: &draft}, nil))
}

func (c *Client) ArchiveDashboard(ctx context.Context, id int64) error {
	archived := true
	return classify("archive", c.do(ctx, http.MethodPost, dashboardPath(id), dashboardUpdate{IsArchived: &archived}, nil))
}

func (c *Client) UnarchiveDashboard(ctx context.Context, id int64) error {
	archived := false
	return classify("unarchive", c.do(ctx, http.MethodPost, dashboardPath(id), dashboardUpdate{IsArchived: &archived}, nil))
}

// UpdateDashboardLayout sends the whole batch in one request; the server is
// expected to apply it in a single transaction.
func (c *Client) UpdateDashboardLayout(ctx context.Context, id int64, deltas []dashboard.LayoutDelta) error {
	body := layoutUpdate{Deltas: deltas}
	return classify("update_layout", c.do(ctx, http.MethodPost, dashboardPath(id)+"/layout", body, nil))
}

func (c *Client) CreateWidget(ctx context.Context, w dashboard.PersistableWidget) (int64, error) {
	var resp dashboard.PersistableWidget
	if err := c.do(ctx, http.MethodPost, "/api/widgets", w, &resp); err != nil {
		return 0, classify("create_widget", err)
	}
	return resp.ID, nil
}

func (c *Client) UpdateWidget(ctx context.Context, w dashboard.PersistableWidget) error {
	return classify("update_widget", c.do(ctx, http.MethodPost, widgetPath(w.ID), w, nil))
}

func (c *Client) DeleteWidget(ctx context.Context, id int64) error {
	return classify("delete_widget", c.do(ctx, http.MethodDelete, widgetPath(id), nil, nil))
}

func (c *Client) CreateQuery(ctx context.Context, input dashboard.CreateQueryInput) (int64, error) {
	var resp dashboard.Query
	if err := c.do(ctx, http.MethodPost, "/api/queries", input, &resp); err != nil {
		return 0, classify("create_query", err)
	}
	return resp.ID, nil
}

func (c *Client) PublishQuery(ctx context.Context, id int64) error {
	return classify("publish_query", c.do(ctx, http.MethodPost, queryPath(id), map[string]bool{"is_draft": false}, nil))
}

func (c *Client) GetQuery(ctx context.Context, id int64) (dashboard.Query, error) {
	var resp dashboard.Query
	if err := c.do(ctx, http.MethodGet, queryPath(id), nil, &resp); err != nil {
		return dashboard.Query{}, classify("get_query", err)
	}
	return resp, nil
}

// Execute asks the server for the query's latest result.
func (c *Client) Execute(ctx context.Context, queryID int64) (dashboard.QueryResult, error) {
	var resp resultEnvelope
	if err := c.do(ctx, http.MethodPost, queryPath(queryID)+"/results", map[string]any{}, &resp); err != nil {
		return dashboard.QueryResult{}, classify("execute", err)
	}
	return resp.result(), nil
}

func (c *Client) do(ctx context.Context, method, path string, payload any, target any) error {
	var body bytes.Buffer
	if payload != nil {
		if err := json.NewEncoder(&body).Encode(payload); err != nil {
			return fmt.Errorf("httpgateway: encode payload: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &body)
	if err != nil {
		return fmt.Errorf("httpgateway: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Key "+c.apiKey)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("httpgateway: http request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		var buf bytes.Buffer
		_, _ = buf.ReadFrom(resp.Body)
		return &StatusError{Status: resp.StatusCode, Body: buf.String()}
	}
	if target == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("httpgateway: decode response: %w", err)
	}
	return nil
}

// classify turns 404 and 400 responses into kinded dashboard errors. Other
// failures are left for the engine to wrap as persistence errors.
func classify(op string, err error) error {
	var status *StatusError
	if !errors.As(err, &status) {
		return err
	}
	switch status.Status {
	case http.StatusNotFound:
		return &dashboard.Error{Kind: dashboard.KindNotFound, Op: op, Message: "remote resource not found", Err: err}
	case http.StatusBadRequest:
		return &dashboard.Error{Kind: dashboard.KindValidation, Op: op, Message: "remote rejected request", Err: err}
	}
	return err
}

func dashboardPath(id int64) string { return "/api/dashboards/" + strconv.FormatInt(id, 10) }
func widgetPath(id int64) string    { return "/api/widgets/" + strconv.FormatInt(id, 10) }
func queryPath(id int64) string     { return "/api/queries/" + strconv.FormatInt(id, 10) }

type dashboardCreate struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type dashboardUpdate struct {
	IsDraft    *bool `json:"is_draft,omitempty"`
	IsArchived *bool `json:"is_archived,omitempty"`
}

type layoutUpdate struct {
	Deltas []dashboard.LayoutDelta `json:"layout"`
}

type dashboardPayload struct {
	ID         int64                         `json:"id"`
	Slug       string                        `json:"slug"`
	Name       string                        `json:"name"`
	IsDraft    bool                          `json:"is_draft"`
	IsArchived bool                          `json:"is_archived"`
	CreatedAt  time.Time                     `json:"created_at"`
	UpdatedAt  time.Time                     `json:"updated_at"`
	Widgets    []dashboard.PersistableWidget `json:"widgets"`
}

func (p dashboardPayload) record() dashboard.DashboardRecord {
	state := dashboard.StatePublished
	if p.IsDraft {
		state = dashboard.StateDraft
	}
	return dashboard.DashboardRecord{
		ID:        p.ID,
		Slug:      p.Slug,
		Name:      p.Name,
		State:     state,
		Archived:  p.IsArchived,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		Widgets:   p.Widgets,
	}
}

type resultEnvelope struct {
	QueryResult struct {
		Data struct {
			Columns []struct {
				Name string `json:"name"`
			} `json:"columns"`
			Rows []map[string]any `json:"rows"`
		} `json:"data"`
	} `json:"query_result"`
}

func (e resultEnvelope) result() dashboard.QueryResult {
	data := e.QueryResult.Data
	res := dashboard.QueryResult{RowCount: len(data.Rows)}
	for _, col := range data.Columns {
		res.Columns = append(res.Columns, col.Name)
	}
	for _, row := range data.Rows {
		values := make([]any, len(res.Columns))
		for i, name := range res.Columns {
			values[i] = row[name]
		}
		res.Rows = append(res.Rows, values)
	}
	return res
}
