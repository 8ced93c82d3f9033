package dashboard

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const salesManifest = `
version: "1"
queries:
  - name: Revenue by day
    sql: select day, sum(total) from orders group by day
  - name: Scratch
    sql: select 1
    draft: true
dashboards:
  - name: Sales Overview
    widgets:
      - text: "## Weekly numbers"
      - query: Revenue by day
        visualization: table
        options:
          itemsPerPage: 25
      - query: Revenue by day
        visualization: line
        position: {col: 3, row: 0, width: 3, height: 4}
  - name: Old Board
    archived: true
`

func TestDecodeManifest(t *testing.T) {
	doc, err := DecodeManifest(strings.NewReader(salesManifest))
	require.NoError(t, err)
	assert.Equal(t, ManifestVersion, doc.Version)
	require.Len(t, doc.Queries, 2)
	require.Len(t, doc.Dashboards, 2)

	widgets := doc.Dashboards[0].Widgets
	require.Len(t, widgets, 3)
	assert.Equal(t, "## Weekly numbers", widgets[0].Text)
	assert.Equal(t, 25, widgets[1].Options["itemsPerPage"])
	require.NotNil(t, widgets[2].Position)
	assert.Equal(t, Rect{Col: 3, Row: 0, Width: 3, Height: 4}, *widgets[2].Position)
}

func TestDecodeManifestValidation(t *testing.T) {
	cases := map[string]string{
		"empty":           "",
		"bad version":     "version: \"2\"\ndashboards: []\n",
		"unknown field":   "version: \"1\"\nboards: []\n",
		"unknown query":   "dashboards:\n  - name: A\n    widgets:\n      - query: nope\n",
		"text and query":  "queries:\n  - {name: q, sql: select 1}\ndashboards:\n  - name: A\n    widgets:\n      - {text: hi, query: q}\n",
		"empty widget":    "dashboards:\n  - name: A\n    widgets:\n      - {visualization: table}\n",
		"duplicate query": "queries:\n  - {name: q, sql: select 1}\n  - {name: q, sql: select 2}\ndashboards: []\n",
		"missing name":    "dashboards:\n  - widgets: []\n",
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeManifest(strings.NewReader(payload))
			assert.Error(t, err)
		})
	}
}

func TestImportManifestCreatesDashboards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc, err := DecodeManifest(strings.NewReader(salesManifest))
	require.NoError(t, err)

	created, err := f.svc.ImportManifest(ctx, doc)
	require.NoError(t, err)
	require.Len(t, created, 2)

	sales := created[0]
	assert.Equal(t, "sales-overview", sales.Slug())
	assert.Equal(t, StatePublished, sales.State())
	widgets := sales.Widgets()
	require.Len(t, widgets, 3)
	assert.True(t, widgets[0].IsTextbox())
	assert.True(t, widgets[1].AutoHeight)
	assert.Equal(t, Rect{Col: 3, Row: 0, Width: 3, Height: 4}, widgets[2].Position)
	for i := range widgets {
		for j := i + 1; j < len(widgets); j++ {
			assert.False(t, widgets[i].Position.Overlaps(widgets[j].Position))
		}
	}

	assert.True(t, created[1].Archived())
	list, err := f.svc.ListDashboards(ctx, ListOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"sales-overview"}, slugs(list))
}

func TestExportManifestRoundTrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	doc, err := DecodeManifest(strings.NewReader(salesManifest))
	require.NoError(t, err)
	_, err = f.svc.ImportManifest(ctx, doc)
	require.NoError(t, err)

	exported, err := f.svc.ExportManifest(ctx, "sales-overview")
	require.NoError(t, err)
	require.Len(t, exported.Dashboards, 1)
	require.Len(t, exported.Queries, 1, "a query shared by two widgets is exported once")
	assert.Equal(t, "Revenue by day", exported.Queries[0].Name)

	var buf bytes.Buffer
	require.NoError(t, EncodeManifest(&buf, exported))
	decoded, err := DecodeManifest(&buf)
	require.NoError(t, err)

	other := newFixture(t)
	recreated, err := other.svc.ImportManifest(ctx, decoded)
	require.NoError(t, err)
	require.Len(t, recreated, 1)
	original, err := f.svc.OpenDashboard(ctx, "sales-overview")
	require.NoError(t, err)
	assert.Equal(t, positions(original.Widgets()), positions(recreated[0].Widgets()))
}

func TestReadManifestRecordsSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dashboards.yaml")
	require.NoError(t, os.WriteFile(path, []byte(salesManifest), 0o600))
	doc, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Source)

	_, err = ReadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func positions(widgets []*Widget) []Rect {
	out := make([]Rect, 0, len(widgets))
	for _, w := range ReadingOrder(widgets) {
		out = append(out, w.Position)
	}
	return out
}
