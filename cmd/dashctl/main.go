package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/alecthomas/kong"
	"go.uber.org/zap"

	"github.com/goliatone/go-dashgrid/components/dashboard"
	"github.com/goliatone/go-dashgrid/pkg/httpgateway"
	"github.com/goliatone/go-dashgrid/pkg/pgstore"
	"github.com/goliatone/go-dashgrid/pkg/zaptelemetry"
)

type cli struct {
	Config  string `type:"path" help:"Engine config YAML (grid and auto-height tunables)."`
	Verbose bool   `short:"v" help:"Log engine telemetry to stderr."`

	Slug       slugCmd       `cmd:"" help:"Print the slug a dashboard name produces."`
	Autoheight autoheightCmd `cmd:"" help:"Compute the grid height of an auto-sized widget for a row count."`
	Plan       planCmd       `cmd:"" help:"Import a manifest into memory and print the resolved layout."`
	Push       pushCmd       `cmd:"" help:"Import a manifest into a remote dashboard server."`
	Export     exportCmd     `cmd:"" help:"Export dashboards from a remote server as a manifest."`
	Migrate    migrateCmd    `cmd:"" help:"Create the Postgres tables used by pgstore."`
}

func main() {
	var root cli
	ctx := kong.Parse(&root,
		kong.Name("dashctl"),
		kong.Description("Dashboard layout tooling for go-dashgrid manifests."),
		kong.UsageOnError(),
		kong.BindTo(context.Background(), (*context.Context)(nil)),
		kong.BindTo(io.Writer(os.Stdout), (*io.Writer)(nil)),
		kong.Bind(&root),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}

func (c *cli) engineConfig() (dashboard.Config, error) {
	if c.Config == "" {
		return dashboard.DefaultConfig(), nil
	}
	return dashboard.LoadConfig(c.Config)
}

func (c *cli) telemetry() dashboard.Telemetry {
	if !c.Verbose {
		return nil
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil
	}
	return zaptelemetry.New(logger)
}

type slugCmd struct {
	Name string `arg:"" help:"Dashboard name."`
}

func (cmd *slugCmd) Run(out io.Writer) error {
	_, err := fmt.Fprintln(out, dashboard.Slugify(cmd.Name))
	return err
}

type autoheightCmd struct {
	Rows int `required:"" help:"Row count of the query result."`
}

func (cmd *autoheightCmd) Run(root *cli, out io.Writer) error {
	cfg, err := root.engineConfig()
	if err != nil {
		return err
	}
	calc := dashboard.NewAutoHeightCalculator(cfg.AutoHeight, cfg.Grid)
	_, err = fmt.Fprintf(out, "rows=%d grid_rows=%d pixels=%d\n",
		cmd.Rows, calc.ComputeAutoHeight(cmd.Rows), calc.PixelHeight(cmd.Rows))
	return err
}

type planCmd struct {
	Manifest string         `required:"" type:"existingfile" help:"Manifest YAML to import."`
	Rows     map[string]int `help:"Row counts per manifest query (query=rows)."`
}

func (cmd *planCmd) Run(ctx context.Context, root *cli, out io.Writer) error {
	cfg, err := root.engineConfig()
	if err != nil {
		return err
	}
	doc, err := dashboard.ReadManifest(cmd.Manifest)
	if err != nil {
		return err
	}
	exec := dashboard.NewStaticExecutor()
	svc := dashboard.NewService(dashboard.Options{
		Gateway:   dashboard.NewMemoryGateway(),
		Executor:  exec,
		Telemetry: root.telemetry(),
		Config:    cfg,
	})
	// Query ids are assigned in manifest order by the memory gateway.
	for idx, q := range doc.Queries {
		exec.SetRowCount(int64(idx+1), cmd.Rows[q.Name])
	}
	created, err := svc.ImportManifest(ctx, doc)
	if err != nil {
		return err
	}
	return printLayouts(out, svc.GridOptions(), created)
}

func printLayouts(out io.Writer, grid dashboard.GridOptions, dashboards []*dashboard.Dashboard) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, d := range dashboards {
		fmt.Fprintf(tw, "%s (%s)\n", d.Slug(), d.State())
		fmt.Fprintln(tw, "  ID\tKIND\tCOL\tROW\tWIDTH\tHEIGHT\tAUTO\tPIXELS")
		for _, w := range dashboard.ReadingOrder(d.Widgets()) {
			r := w.Position
			fmt.Fprintf(tw, "  %d\t%s\t%d\t%d\t%d\t%d\t%t\t%d\n",
				w.ID, w.Content.Kind(), r.Col, r.Row, r.Width, r.Height, w.AutoHeight, w.PixelHeight(grid))
		}
	}
	return tw.Flush()
}

type remoteFlags struct {
	Remote string `required:"" env:"DASHGRID_REMOTE" help:"Base URL of the dashboard server."`
	APIKey string `env:"DASHGRID_API_KEY" help:"API key sent with every request."`
}

func (f remoteFlags) service(root *cli) (*dashboard.Service, error) {
	client, err := httpgateway.New(httpgateway.Config{BaseURL: f.Remote, APIKey: f.APIKey})
	if err != nil {
		return nil, err
	}
	cfg, err := root.engineConfig()
	if err != nil {
		return nil, err
	}
	return dashboard.NewService(dashboard.Options{
		Gateway:   client,
		Executor:  client,
		Telemetry: root.telemetry(),
		Config:    cfg,
	}), nil
}

type pushCmd struct {
	remoteFlags `embed:""`
	Manifest    string `required:"" type:"existingfile" help:"Manifest YAML to import."`
}

func (cmd *pushCmd) Run(ctx context.Context, root *cli, out io.Writer) error {
	svc, err := cmd.service(root)
	if err != nil {
		return err
	}
	doc, err := dashboard.ReadManifest(cmd.Manifest)
	if err != nil {
		return err
	}
	created, err := svc.ImportManifest(ctx, doc)
	if err != nil {
		return err
	}
	for _, d := range created {
		fmt.Fprintf(out, "created %s\n", d.Slug())
	}
	return nil
}

type exportCmd struct {
	remoteFlags `embed:""`
	Slugs       []string `arg:"" optional:"" help:"Dashboards to export (all unarchived when empty)."`
}

func (cmd *exportCmd) Run(ctx context.Context, root *cli, out io.Writer) error {
	svc, err := cmd.service(root)
	if err != nil {
		return err
	}
	slugs := cmd.Slugs
	if len(slugs) == 0 {
		list, err := svc.ListDashboards(ctx, dashboard.ListOptions{})
		if err != nil {
			return err
		}
		for _, s := range list {
			slugs = append(slugs, s.Slug)
		}
		sort.Strings(slugs)
	}
	doc, err := svc.ExportManifest(ctx, slugs...)
	if err != nil {
		return err
	}
	return dashboard.EncodeManifest(out, doc)
}

type migrateCmd struct {
	DSN string `required:"" env:"DASHGRID_DSN" help:"Postgres connection string."`
}

func (cmd *migrateCmd) Run(ctx context.Context, out io.Writer) error {
	db, err := pgstore.Open(cmd.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := pgstore.New(db).Migrate(ctx); err != nil {
		return fmt.Errorf("dashctl: migrate: %w", err)
	}
	_, err = fmt.Fprintln(out, "schema ready")
	return err
}
