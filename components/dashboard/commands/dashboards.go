package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	dashboard "github.com/goliatone/go-dashgrid/components/dashboard"
)

// CreateDashboardInput names a new dashboard. Result receives the created
// dashboard's summary when set.
type CreateDashboardInput struct {
	Actor
	Name   string                      `json:"name"`
	Result *dashboard.DashboardSummary `json:"-"`
}

// CreateDashboardCommand wraps Service.CreateDashboard.
type CreateDashboardCommand struct {
	service   service
	telemetry Telemetry
}

// NewCreateDashboardCommand creates the command.
func NewCreateDashboardCommand(service service, telemetry Telemetry) *CreateDashboardCommand {
	return &CreateDashboardCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[CreateDashboardInput] = (*CreateDashboardCommand)(nil)

// Execute creates the dashboard.
func (c *CreateDashboardCommand) Execute(ctx context.Context, msg CreateDashboardInput) error {
	if c.service == nil {
		return errors.New("create dashboard command requires service")
	}
	d, err := c.service.CreateDashboard(msg.context(ctx), msg.Name)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = d.Summary()
	}
	c.telemetry.Record(ctx, "dashboard.command.create", map[string]any{"slug": d.Slug()})
	return nil
}

// SetArchivedInput archives or restores a dashboard. Callers confirm with the
// user before sending Archived=true.
type SetArchivedInput struct {
	Actor
	Slug     string `json:"slug"`
	Archived bool   `json:"archived"`
}

// SetArchivedCommand wraps Service.Archive and Service.Unarchive.
type SetArchivedCommand struct {
	service   service
	telemetry Telemetry
}

// NewSetArchivedCommand creates the command.
func NewSetArchivedCommand(service service, telemetry Telemetry) *SetArchivedCommand {
	return &SetArchivedCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SetArchivedInput] = (*SetArchivedCommand)(nil)

// Execute toggles the archive flag; repeating a toggle is a no-op.
func (c *SetArchivedCommand) Execute(ctx context.Context, msg SetArchivedInput) error {
	if c.service == nil {
		return errors.New("archive command requires service")
	}
	ctx = msg.context(ctx)
	d, err := c.service.OpenDashboard(ctx, msg.Slug)
	if err != nil {
		return err
	}
	if msg.Archived {
		err = c.service.Archive(ctx, d)
	} else {
		err = c.service.Unarchive(ctx, d)
	}
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.archive", map[string]any{
		"slug":     msg.Slug,
		"archived": msg.Archived,
	})
	return nil
}

// SeedDashboardsInput points at a manifest to import into an empty store.
type SeedDashboardsInput struct {
	ManifestPath string `json:"manifest_path"`
}

// SeedDashboardsCommand wraps dashboard.Seed.
type SeedDashboardsCommand struct {
	service   *dashboard.Service
	telemetry Telemetry
}

// NewSeedDashboardsCommand wires dependencies.
func NewSeedDashboardsCommand(service *dashboard.Service, telemetry Telemetry) *SeedDashboardsCommand {
	return &SeedDashboardsCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SeedDashboardsInput] = (*SeedDashboardsCommand)(nil)

// Execute runs the seed.
func (c *SeedDashboardsCommand) Execute(ctx context.Context, msg SeedDashboardsInput) error {
	if c.service == nil {
		return errors.New("seed command requires service")
	}
	if msg.ManifestPath == "" {
		return errors.New("seed command requires manifest path")
	}
	created, err := dashboard.Seed(ctx, c.service, msg.ManifestPath)
	if err != nil {
		return err
	}
	c.telemetry.Record(ctx, "dashboard.command.seed", map[string]any{
		"manifest":   msg.ManifestPath,
		"dashboards": len(created),
	})
	return nil
}
