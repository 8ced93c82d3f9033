package dashboard

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWidgetPersistableWireShape(t *testing.T) {
	w := &Widget{
		ID:          7,
		DashboardID: 1,
		Position:    Rect{Col: 0, Row: 0, Width: 3, Height: 5},
		Content:     VisualizationContent{QueryID: 3, Type: VisualizationTable, Options: map[string]any{"itemsPerPage": 25}},
		AutoHeight:  true,
	}
	p, err := w.ToPersistable()
	require.NoError(t, err)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.EqualValues(t, 3, decoded["query_id"])
	assert.Equal(t, "table", decoded["visualization"])
	position := decoded["options"].(map[string]any)["position"].(map[string]any)
	assert.EqualValues(t, 3, position["sizeX"])
	assert.EqualValues(t, 5, position["sizeY"])
	assert.Equal(t, true, position["autoHeight"])

	back, err := WidgetFromPersistable(p)
	require.NoError(t, err)
	assert.Equal(t, w, back)
}

func TestWidgetFromPersistableTextbox(t *testing.T) {
	w, err := WidgetFromPersistable(PersistableWidget{ID: 2, Text: "hello"})
	require.NoError(t, err)
	assert.True(t, w.IsTextbox())
	assert.Equal(t, int64(0), w.QueryID())

	_, err = WidgetFromPersistable(PersistableWidget{ID: 3, Visualization: "bar"})
	assert.Error(t, err)
}

func TestWidgetToPersistableRejectsMissingContent(t *testing.T) {
	_, err := (&Widget{ID: 1}).ToPersistable()
	assert.ErrorIs(t, err, ErrValidation)
}

func TestWidgetApplyEdit(t *testing.T) {
	w := &Widget{ID: 4, Position: Rect{Col: 1, Row: 2, Width: 3, Height: 2}, Content: TextboxContent{Text: "a"}}
	require.NoError(t, w.ApplyEdit("b"))
	assert.Equal(t, TextboxContent{Text: "b"}, w.Content)
	assert.Equal(t, Rect{Col: 1, Row: 2, Width: 3, Height: 2}, w.Position)
	assert.ErrorIs(t, w.ApplyEdit(""), ErrValidation)

	viz := &Widget{ID: 5, Content: VisualizationContent{QueryID: 1}}
	assert.ErrorIs(t, viz.ApplyEdit("x"), ErrValidation)
}

func TestWidgetCloneIsDeep(t *testing.T) {
	w := &Widget{ID: 1, Content: VisualizationContent{QueryID: 1, Options: map[string]any{"title": "a"}}}
	cp := w.Clone()
	cp.Content.(VisualizationContent).Options["title"] = "b"
	assert.Equal(t, "a", w.Content.(VisualizationContent).Options["title"])
}
