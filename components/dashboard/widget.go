package dashboard

import (
	"fmt"
	"maps"
	"strings"
)

// ContentKind tags the widget content variant on the wire.
type ContentKind string

const (
	KindVisualization ContentKind = "visualization"
	KindTextbox       ContentKind = "textbox"
)

// Content is the closed set of widget payloads: VisualizationContent or TextboxContent.
type Content interface {
	Kind() ContentKind
	isContent()
}

// VisualizationContent renders a saved query with a visualization type.
type VisualizationContent struct {
	QueryID int64          `json:"query_id"`
	Type    string         `json:"type"`
	Options map[string]any `json:"options,omitempty"`
}

func (VisualizationContent) Kind() ContentKind { return KindVisualization }
func (VisualizationContent) isContent()        {}

// TextboxContent is free text placed on the dashboard.
type TextboxContent struct {
	Text string `json:"text"`
}

func (TextboxContent) Kind() ContentKind { return KindTextbox }
func (TextboxContent) isContent()        {}

// Widget is one positioned cell on a dashboard.
type Widget struct {
	ID          int64
	DashboardID int64
	Position    Rect
	Content     Content
	AutoHeight  bool
}

// PersistableWidget is the wire shape exchanged with the persistence gateway.
type PersistableWidget struct {
	ID            int64         `json:"id,omitempty"`
	DashboardID   int64         `json:"dashboard_id"`
	QueryID       int64         `json:"query_id,omitempty"`
	Visualization string        `json:"visualization,omitempty"`
	Text          string        `json:"text"`
	Options       WidgetOptions `json:"options"`
}

// WidgetOptions groups layout and visualization settings.
type WidgetOptions struct {
	Position      PositionOptions `json:"position"`
	Visualization map[string]any  `json:"visualization,omitempty"`
}

// PositionOptions is the persisted position including the auto-height flag.
type PositionOptions struct {
	Col        int  `json:"col"`
	Row        int  `json:"row"`
	SizeX      int  `json:"sizeX"`
	SizeY      int  `json:"sizeY"`
	AutoHeight bool `json:"autoHeight"`
}

// ToPersistable converts the widget into its wire shape.
func (w *Widget) ToPersistable() (PersistableWidget, error) {
	out := PersistableWidget{
		ID:          w.ID,
		DashboardID: w.DashboardID,
		Options: WidgetOptions{
			Position: PositionOptions{
				Col:        w.Position.Col,
				Row:        w.Position.Row,
				SizeX:      w.Position.Width,
				SizeY:      w.Position.Height,
				AutoHeight: w.AutoHeight,
			},
		},
	}
	switch c := w.Content.(type) {
	case VisualizationContent:
		out.QueryID = c.QueryID
		out.Visualization = c.Type
		out.Options.Visualization = maps.Clone(c.Options)
	case TextboxContent:
		out.Text = c.Text
	case nil:
		return PersistableWidget{}, validationError("persist", "widget %d has no content", w.ID)
	default:
		return PersistableWidget{}, validationError("persist", "unsupported widget content %T", c)
	}
	return out, nil
}

// WidgetFromPersistable rebuilds a widget from its wire shape.
func WidgetFromPersistable(p PersistableWidget) (*Widget, error) {
	w := &Widget{
		ID:          p.ID,
		DashboardID: p.DashboardID,
		Position: Rect{
			Col:    p.Options.Position.Col,
			Row:    p.Options.Position.Row,
			Width:  p.Options.Position.SizeX,
			Height: p.Options.Position.SizeY,
		},
		AutoHeight: p.Options.Position.AutoHeight,
	}
	switch {
	case p.QueryID != 0:
		w.Content = VisualizationContent{
			QueryID: p.QueryID,
			Type:    p.Visualization,
			Options: maps.Clone(p.Options.Visualization),
		}
	case p.Visualization == "":
		w.Content = TextboxContent{Text: p.Text}
	default:
		return nil, fmt.Errorf("dashboard: widget %d declares visualization %q without a query", p.ID, p.Visualization)
	}
	return w, nil
}

// ApplyEdit replaces textbox text in place; identity and position are untouched.
func (w *Widget) ApplyEdit(text string) error {
	if _, ok := w.Content.(TextboxContent); !ok {
		return validationError("edit", "widget %d is not a textbox", w.ID)
	}
	if strings.TrimSpace(text) == "" {
		return validationError("edit", "textbox text is required")
	}
	w.Content = TextboxContent{Text: text}
	return nil
}

// IsTextbox reports whether the widget holds a textbox.
func (w *Widget) IsTextbox() bool {
	_, ok := w.Content.(TextboxContent)
	return ok
}

// QueryID returns the referenced query, or zero for textboxes.
func (w *Widget) QueryID() int64 {
	if v, ok := w.Content.(VisualizationContent); ok {
		return v.QueryID
	}
	return 0
}

// PixelHeight is the rendered height of the widget on the given grid.
func (w *Widget) PixelHeight(grid GridOptions) int {
	return grid.normalized().PixelHeight(w.Position.Height)
}

// Clone returns a deep copy safe to hand to callers.
func (w *Widget) Clone() *Widget {
	if w == nil {
		return nil
	}
	cp := *w
	if v, ok := w.Content.(VisualizationContent); ok {
		v.Options = maps.Clone(v.Options)
		cp.Content = v
	}
	return &cp
}
