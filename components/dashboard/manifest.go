package dashboard

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

// ManifestDocument models a YAML/JSON manifest describing queries and dashboards.
type ManifestDocument struct {
	Version    string              `json:"version" yaml:"version"`
	Queries    []ManifestQuery     `json:"queries,omitempty" yaml:"queries,omitempty"`
	Dashboards []ManifestDashboard `json:"dashboards" yaml:"dashboards"`
	Source     string              `json:"-" yaml:"-"`
}

// ManifestQuery declares a saved query. Widgets reference queries by name.
type ManifestQuery struct {
	Name         string `json:"name" yaml:"name"`
	SQL          string `json:"sql" yaml:"sql"`
	DataSourceID int64  `json:"data_source_id,omitempty" yaml:"data_source_id,omitempty"`
	Draft        bool   `json:"draft,omitempty" yaml:"draft,omitempty"`
}

// ManifestDashboard describes a dashboard and its widgets in reading order.
// Slug is informational; imports derive slugs from the name.
type ManifestDashboard struct {
	Name     string           `json:"name" yaml:"name"`
	Slug     string           `json:"slug,omitempty" yaml:"slug,omitempty"`
	Archived bool             `json:"archived,omitempty" yaml:"archived,omitempty"`
	Widgets  []ManifestWidget `json:"widgets,omitempty" yaml:"widgets,omitempty"`
}

// ManifestWidget is either a textbox (Text) or a visualization (Query).
type ManifestWidget struct {
	Text          string         `json:"text,omitempty" yaml:"text,omitempty"`
	Query         string         `json:"query,omitempty" yaml:"query,omitempty"`
	Visualization string         `json:"visualization,omitempty" yaml:"visualization,omitempty"`
	Options       map[string]any `json:"options,omitempty" yaml:"options,omitempty"`
	Position      *Rect          `json:"position,omitempty" yaml:"position,omitempty"`
	AutoHeight    *bool          `json:"auto_height,omitempty" yaml:"auto_height,omitempty"`
}

// ReadManifest loads a manifest file from disk.
func ReadManifest(path string) (*ManifestDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("dashboard: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("dashboard: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest reads a manifest from any reader.
func DecodeManifest(r io.Reader) (*ManifestDocument, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc ManifestDocument
	if err := decoder.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("dashboard: manifest is empty")
		}
		return nil, fmt.Errorf("dashboard: parse manifest: %w", err)
	}
	doc.applyDefaults()
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// EncodeManifest writes doc as YAML.
func EncodeManifest(w io.Writer, doc *ManifestDocument) error {
	if doc == nil {
		return fmt.Errorf("dashboard: manifest document is nil")
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("dashboard: encode manifest: %w", err)
	}
	return enc.Close()
}

// Validate ensures the manifest satisfies required fields and references.
func (doc *ManifestDocument) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("dashboard: unsupported manifest version %q", doc.Version)
	}
	queries := make(map[string]struct{}, len(doc.Queries))
	for idx, q := range doc.Queries {
		if strings.TrimSpace(q.Name) == "" {
			return fmt.Errorf("dashboard: manifest query at index %d is missing name", idx)
		}
		if strings.TrimSpace(q.SQL) == "" {
			return fmt.Errorf("dashboard: manifest query %s is missing sql", q.Name)
		}
		if _, exists := queries[q.Name]; exists {
			return fmt.Errorf("dashboard: manifest duplicates query %s", q.Name)
		}
		queries[q.Name] = struct{}{}
	}
	for di, d := range doc.Dashboards {
		if strings.TrimSpace(d.Name) == "" {
			return fmt.Errorf("dashboard: manifest dashboard at index %d is missing name", di)
		}
		for wi, w := range d.Widgets {
			switch {
			case w.Text != "" && w.Query != "":
				return fmt.Errorf("dashboard: manifest widget %d on %s sets both text and query", wi, d.Name)
			case w.Text == "" && w.Query == "":
				return fmt.Errorf("dashboard: manifest widget %d on %s needs text or query", wi, d.Name)
			case w.Query != "":
				if _, ok := queries[w.Query]; !ok {
					return fmt.Errorf("dashboard: manifest widget %d on %s references unknown query %s", wi, d.Name, w.Query)
				}
			}
		}
	}
	return nil
}

func (doc *ManifestDocument) applyDefaults() {
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
}

// ImportManifest creates the manifest's queries and dashboards through the
// service. Non-draft queries are published so visualizations can use them.
func (s *Service) ImportManifest(ctx context.Context, doc *ManifestDocument) ([]*Dashboard, error) {
	if doc == nil {
		return nil, fmt.Errorf("dashboard: manifest document is nil")
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	queryIDs := make(map[string]int64, len(doc.Queries))
	for _, mq := range doc.Queries {
		q, err := s.CreateQuery(ctx, CreateQueryInput{Name: mq.Name, SQL: mq.SQL, DataSourceID: mq.DataSourceID})
		if err != nil {
			return nil, fmt.Errorf("dashboard: import query %s: %w", mq.Name, err)
		}
		if !mq.Draft {
			if err := s.PublishQuery(ctx, q.ID); err != nil {
				return nil, fmt.Errorf("dashboard: import query %s: %w", mq.Name, err)
			}
		}
		queryIDs[mq.Name] = q.ID
	}
	out := make([]*Dashboard, 0, len(doc.Dashboards))
	for _, md := range doc.Dashboards {
		d, err := s.CreateDashboard(ctx, md.Name)
		if err != nil {
			return out, fmt.Errorf("dashboard: import %s: %w", md.Name, err)
		}
		for wi, mw := range md.Widgets {
			if err := importWidget(ctx, d, mw, queryIDs); err != nil {
				return out, fmt.Errorf("dashboard: import %s widget %d: %w", md.Name, wi, err)
			}
		}
		if md.Archived {
			if err := s.Archive(ctx, d); err != nil {
				return out, fmt.Errorf("dashboard: import %s: %w", md.Name, err)
			}
		}
		out = append(out, d)
	}
	return out, nil
}

func importWidget(ctx context.Context, d *Dashboard, mw ManifestWidget, queryIDs map[string]int64) error {
	var content Content = TextboxContent{Text: mw.Text}
	if mw.Query != "" {
		content = VisualizationContent{QueryID: queryIDs[mw.Query], Type: mw.Visualization, Options: mw.Options}
	}
	w, err := d.AddWidget(ctx, content, mw.Position)
	if err != nil {
		return err
	}
	if mw.AutoHeight != nil && *mw.AutoHeight != w.AutoHeight {
		_, err = d.ApplyLayoutChanges(ctx, []LayoutDelta{{WidgetID: w.ID, Position: w.Position, AutoHeight: mw.AutoHeight}})
	}
	return err
}

// ExportManifest builds a manifest for the dashboards with the given slugs,
// including every query their widgets reference.
func (s *Service) ExportManifest(ctx context.Context, slugs ...string) (*ManifestDocument, error) {
	gw, err := s.gateway()
	if err != nil {
		return nil, err
	}
	doc := &ManifestDocument{Version: ManifestVersion}
	names := make(map[int64]string)
	used := make(map[string]bool)
	for _, slug := range slugs {
		d, err := s.OpenDashboard(ctx, slug)
		if err != nil {
			return nil, err
		}
		md := ManifestDashboard{Name: d.Name(), Slug: d.Slug(), Archived: d.Archived()}
		for _, w := range ReadingOrder(d.Widgets()) {
			pos := w.Position
			auto := w.AutoHeight
			mw := ManifestWidget{Position: &pos, AutoHeight: &auto}
			switch c := w.Content.(type) {
			case TextboxContent:
				mw.Text = c.Text
			case VisualizationContent:
				name, ok := names[c.QueryID]
				if !ok {
					q, err := gw.GetQuery(ctx, c.QueryID)
					if err != nil {
						return nil, persistenceError("export", err)
					}
					name = q.Name
					if name == "" || used[name] {
						name = fmt.Sprintf("%s-%d", strings.TrimSpace(q.Name+" query"), q.ID)
					}
					used[name] = true
					names[c.QueryID] = name
					doc.Queries = append(doc.Queries, ManifestQuery{
						Name:         name,
						SQL:          q.SQL,
						DataSourceID: q.DataSourceID,
						Draft:        q.IsDraft,
					})
				}
				mw.Query = name
				mw.Visualization = c.Type
				mw.Options = c.Options
			}
			md.Widgets = append(md.Widgets, mw)
		}
		doc.Dashboards = append(doc.Dashboards, md)
	}
	return doc, nil
}
