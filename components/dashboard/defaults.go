package dashboard

import (
	"github.com/go-echarts/go-echarts/v2/types"
)

// VisualizationTable renders raw result rows; its height follows the row count.
const VisualizationTable = "table"

var defaultVisualizationDefinitions = []VisualizationDefinition{
	{
		Type:        VisualizationTable,
		Name:        "Table",
		Description: "Result rows rendered as a table",
		AutoHeight:  true,
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"itemsPerPage": map[string]any{"type": "integer", "minimum": 1, "maximum": 1000},
				"columns": map[string]any{
					"type":  "array",
					"items": map[string]any{"type": "string"},
				},
			},
		},
	},
	{
		Type:        types.ChartLine,
		Name:        "Line Chart",
		Description: "Series plotted over a category axis",
		Schema:      chartSchema(true),
	},
	{
		Type:        types.ChartBar,
		Name:        "Bar Chart",
		Description: "Grouped or stacked bars",
		Schema:      chartSchema(true),
	},
	{
		Type:        types.ChartScatter,
		Name:        "Scatter Chart",
		Description: "Points plotted on two value axes",
		Schema:      chartSchema(true),
	},
	{
		Type:        types.ChartPie,
		Name:        "Pie Chart",
		Description: "Share of a whole",
		Schema:      chartSchema(false),
	},
	{
		Type:        types.ChartFunnel,
		Name:        "Funnel",
		Description: "Conversion steps",
		Schema:      chartSchema(false),
	},
	{
		Type:        types.ChartGauge,
		Name:        "Counter",
		Description: "Single value against a target",
		Schema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"valueColumn":  map[string]any{"type": "string"},
				"targetColumn": map[string]any{"type": "string"},
			},
		},
	},
}

// chartThemes are the theme names a chart renderer can apply.
var chartThemes = []string{
	types.ThemeChalk,
	types.ThemeEssos,
	types.ThemeInfographic,
	types.ThemeMacarons,
	types.ThemePurplePassion,
	types.ThemeRoma,
	types.ThemeRomantic,
	types.ThemeShine,
	types.ThemeVintage,
	types.ThemeWalden,
}

func chartSchema(includeAxis bool) map[string]any {
	props := map[string]any{
		"title":      map[string]any{"type": "string"},
		"legend":     map[string]any{"type": "boolean"},
		"valueField": map[string]any{"type": "string"},
		"series": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
	}
	props["theme"] = map[string]any{"type": "string", "enum": chartThemes}
	if includeAxis {
		props["xAxis"] = map[string]any{"type": "string"}
		props["stacking"] = map[string]any{"type": "string", "enum": []string{"none", "stack", "percent"}}
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": true,
	}
}

// DefaultVisualizationDefinitions returns the built-in visualization types.
func DefaultVisualizationDefinitions() []VisualizationDefinition {
	out := make([]VisualizationDefinition, len(defaultVisualizationDefinitions))
	copy(out, defaultVisualizationDefinitions)
	return out
}
