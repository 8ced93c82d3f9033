package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-dashgrid/components/dashboard"
)

// AddWidgetInput adds a textbox when Text is set and a visualization when
// QueryID is set. A nil Position places the widget below existing content.
type AddWidgetInput struct {
	Actor
	Slug          string            `json:"slug"`
	QueryID       int64             `json:"query_id,omitempty"`
	Visualization string            `json:"visualization,omitempty"`
	Options       map[string]any    `json:"options,omitempty"`
	Text          string            `json:"text,omitempty"`
	Position      *dashboard.Rect   `json:"position,omitempty"`
	Result        *dashboard.Widget `json:"-"`
}

func (m AddWidgetInput) content() dashboard.Content {
	if m.QueryID != 0 {
		return dashboard.VisualizationContent{QueryID: m.QueryID, Type: m.Visualization, Options: m.Options}
	}
	return dashboard.TextboxContent{Text: m.Text}
}

// AddWidgetCommand adds a widget to a dashboard.
type AddWidgetCommand struct {
	service   service
	telemetry Telemetry
}

// NewAddWidgetCommand creates the command.
func NewAddWidgetCommand(service service, telemetry Telemetry) *AddWidgetCommand {
	return &AddWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[AddWidgetInput] = (*AddWidgetCommand)(nil)

// Execute validates and persists the widget.
func (c *AddWidgetCommand) Execute(ctx context.Context, msg AddWidgetInput) error {
	if c.service == nil {
		return errors.New("add widget command requires service")
	}
	ctx = msg.context(ctx)
	d, err := c.service.OpenDashboard(ctx, msg.Slug)
	if err != nil {
		return err
	}
	w, err := d.AddWidget(ctx, msg.content(), msg.Position)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = *w
	}
	c.telemetry.Record(ctx, "dashboard.command.add_widget", map[string]any{
		"slug":      msg.Slug,
		"widget_id": w.ID,
		"kind":      string(w.Content.Kind()),
	})
	return nil
}

// RemoveWidgetInput identifies the widget to delete.
type RemoveWidgetInput struct {
	Actor
	Slug     string `json:"slug"`
	WidgetID int64  `json:"widget_id"`
}

// RemoveWidgetCommand deletes a widget.
type RemoveWidgetCommand struct {
	service   service
	telemetry Telemetry
}

// NewRemoveWidgetCommand creates the command.
func NewRemoveWidgetCommand(service service, telemetry Telemetry) *RemoveWidgetCommand {
	return &RemoveWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RemoveWidgetInput] = (*RemoveWidgetCommand)(nil)

// Execute removes the widget.
func (c *RemoveWidgetCommand) Execute(ctx context.Context, msg RemoveWidgetInput) error {
	if c.service == nil {
		return errors.New("remove widget command requires service")
	}
	if msg.WidgetID == 0 {
		return errors.New("widget id is required")
	}
	ctx = msg.context(ctx)
	d, err := c.service.OpenDashboard(ctx, msg.Slug)
	if err != nil {
		return err
	}
	if err := d.RemoveWidget(ctx, msg.WidgetID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.remove_widget", map[string]any{
		"slug":      msg.Slug,
		"widget_id": msg.WidgetID,
	})
	return nil
}

// EditTextboxInput replaces a textbox's markdown.
type EditTextboxInput struct {
	Actor
	Slug     string            `json:"slug"`
	WidgetID int64             `json:"widget_id"`
	Text     string            `json:"text"`
	Result   *dashboard.Widget `json:"-"`
}

// EditTextboxCommand edits textbox content.
type EditTextboxCommand struct {
	service   service
	telemetry Telemetry
}

// NewEditTextboxCommand creates the command.
func NewEditTextboxCommand(service service, telemetry Telemetry) *EditTextboxCommand {
	return &EditTextboxCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[EditTextboxInput] = (*EditTextboxCommand)(nil)

// Execute edits the textbox.
func (c *EditTextboxCommand) Execute(ctx context.Context, msg EditTextboxInput) error {
	if c.service == nil {
		return errors.New("edit textbox command requires service")
	}
	ctx = msg.context(ctx)
	d, err := c.service.OpenDashboard(ctx, msg.Slug)
	if err != nil {
		return err
	}
	w, err := d.EditTextbox(ctx, msg.WidgetID, msg.Text)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = *w
	}
	c.telemetry.Record(ctx, "dashboard.command.edit_textbox", map[string]any{
		"slug":      msg.Slug,
		"widget_id": msg.WidgetID,
	})
	return nil
}

// ApplyLayoutInput commits a batch of buffered layout changes.
type ApplyLayoutInput struct {
	Actor
	Slug   string                  `json:"slug"`
	Deltas []dashboard.LayoutDelta `json:"deltas"`
	Result *[]*dashboard.Widget    `json:"-"`
}

// ApplyLayoutCommand persists a layout batch atomically.
type ApplyLayoutCommand struct {
	service   service
	telemetry Telemetry
}

// NewApplyLayoutCommand creates the command.
func NewApplyLayoutCommand(service service, telemetry Telemetry) *ApplyLayoutCommand {
	return &ApplyLayoutCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ApplyLayoutInput] = (*ApplyLayoutCommand)(nil)

// Execute applies the batch.
func (c *ApplyLayoutCommand) Execute(ctx context.Context, msg ApplyLayoutInput) error {
	if c.service == nil {
		return errors.New("apply layout command requires service")
	}
	ctx = msg.context(ctx)
	d, err := c.service.OpenDashboard(ctx, msg.Slug)
	if err != nil {
		return err
	}
	moved, err := d.ApplyLayoutChanges(ctx, msg.Deltas)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = moved
	}
	c.telemetry.Record(ctx, "dashboard.command.apply_layout", map[string]any{
		"slug":    msg.Slug,
		"changes": len(msg.Deltas),
	})
	return nil
}

// RefreshWidgetInput re-runs a widget's query. WidgetID 0 refreshes every
// auto-height widget on the dashboard.
type RefreshWidgetInput struct {
	Slug     string `json:"slug"`
	WidgetID int64  `json:"widget_id,omitempty"`
}

// RefreshWidgetCommand recomputes auto heights from fresh query results.
type RefreshWidgetCommand struct {
	service   service
	telemetry Telemetry
}

// NewRefreshWidgetCommand creates the command.
func NewRefreshWidgetCommand(service service, telemetry Telemetry) *RefreshWidgetCommand {
	return &RefreshWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[RefreshWidgetInput] = (*RefreshWidgetCommand)(nil)

// Execute refreshes one widget or the whole dashboard.
func (c *RefreshWidgetCommand) Execute(ctx context.Context, msg RefreshWidgetInput) error {
	if c.service == nil {
		return errors.New("refresh command requires service")
	}
	d, err := c.service.OpenDashboard(ctx, msg.Slug)
	if err != nil {
		return err
	}
	if msg.WidgetID == 0 {
		err = d.RefreshAll(ctx)
	} else {
		_, err = d.RefreshAutoHeight(ctx, msg.WidgetID)
	}
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.refresh", map[string]any{
		"slug":      msg.Slug,
		"widget_id": msg.WidgetID,
	})
	return nil
}
