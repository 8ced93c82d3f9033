package main

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

const planManifest = `
queries:
  - name: revenue
    sql: select * from revenue
dashboards:
  - name: Sales Overview
    widgets:
      - text: "# Sales"
      - query: revenue
`

func TestSlugCommand(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, (&slugCmd{Name: "Foo Bar"}).Run(&out))
	assert.Equal(t, "foo-bar\n", out.String())
}

func TestAutoheightCommand(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, (&autoheightCmd{Rows: 5}).Run(&cli{}, &out))
	assert.Equal(t, "rows=5 grid_rows=7 pixels=335\n", out.String())
}

func TestPlanCommandPrintsLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(planManifest), 0o600))

	var out bytes.Buffer
	cmd := &planCmd{Manifest: path, Rows: map[string]int{"revenue": 2}}
	require.NoError(t, cmd.Run(context.Background(), &cli{}, &out))

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "sales-overview (published)", lines[0])
	assert.Equal(t, []string{"1", "textbox", "0", "0", "3", "2", "false", "85"}, strings.Fields(lines[2]))
	assert.Equal(t, []string{"2", "visualization", "0", "2", "3", "5", "true", "235"}, strings.Fields(lines[3]))
}

func TestPlanCommandRejectsMissingConfig(t *testing.T) {
	err := (&planCmd{Manifest: "unused"}).Run(context.Background(), &cli{Config: filepath.Join(t.TempDir(), "none.yaml")}, &bytes.Buffer{})
	assert.Error(t, err)
}
