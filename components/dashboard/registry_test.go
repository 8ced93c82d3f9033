package dashboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryDefaults(t *testing.T) {
	reg := NewRegistry()
	table, ok := reg.Definition(VisualizationTable)
	require.True(t, ok)
	assert.True(t, table.AutoHeight)

	bar, ok := reg.Definition("bar")
	require.True(t, ok)
	assert.False(t, bar.AutoHeight)

	defs := reg.Definitions()
	require.Len(t, defs, len(DefaultVisualizationDefinitions()))
	for i := 1; i < len(defs); i++ {
		assert.Less(t, defs[i-1].Type, defs[i].Type)
	}
}

func TestRegistryRegisterRequiresType(t *testing.T) {
	reg := NewRegistry()
	assert.Error(t, reg.Register(VisualizationDefinition{Name: "nameless"}))
	require.NoError(t, reg.Register(VisualizationDefinition{Type: "map", Name: "Map"}))
	_, ok := reg.Definition("map")
	assert.True(t, ok)
}

func TestRegistryAppliesGlobalHooks(t *testing.T) {
	globalHookMu.Lock()
	saved := globalHooks
	globalHooks = nil
	globalHookMu.Unlock()
	t.Cleanup(func() {
		globalHookMu.Lock()
		globalHooks = saved
		globalHookMu.Unlock()
	})

	RegisterVisualizationHook(func(reg *Registry) error {
		return reg.Register(VisualizationDefinition{Type: "cohort", Name: "Cohort", AutoHeight: true})
	})
	def, ok := NewRegistry().Definition("cohort")
	require.True(t, ok)
	assert.True(t, def.AutoHeight)
}
