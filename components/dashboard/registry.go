package dashboard

import (
	"fmt"
	"sort"
	"sync"
)

// VisualizationDefinition describes a visualization type widgets may use.
type VisualizationDefinition struct {
	Type        string         `json:"type" yaml:"type"`
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description,omitempty" yaml:"description,omitempty"`
	Schema      map[string]any `json:"schema,omitempty" yaml:"schema,omitempty"`
	// AutoHeight marks types whose natural height follows the result row count.
	AutoHeight bool `json:"auto_height" yaml:"auto_height"`
}

// VisualizationHook lets packages register visualization types during init().
type VisualizationHook func(reg *Registry) error

var (
	globalHookMu sync.Mutex
	globalHooks  []VisualizationHook
)

// RegisterVisualizationHook registers a hook executed against new registries.
func RegisterVisualizationHook(h VisualizationHook) {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	globalHooks = append(globalHooks, h)
}

// VisualizationRegistry resolves visualization types.
type VisualizationRegistry interface {
	Register(def VisualizationDefinition) error
	Definition(kind string) (VisualizationDefinition, bool)
	Definitions() []VisualizationDefinition
}

// Registry implements VisualizationRegistry with hook support.
type Registry struct {
	mu          sync.RWMutex
	definitions map[string]VisualizationDefinition
}

// NewRegistry builds a registry with the default visualization types and applies global hooks.
func NewRegistry() *Registry {
	reg := &Registry{definitions: map[string]VisualizationDefinition{}}
	for _, def := range DefaultVisualizationDefinitions() {
		_ = reg.Register(def)
	}
	_ = reg.ApplyHooks()
	return reg
}

// ApplyHooks executes registered visualization hooks.
func (r *Registry) ApplyHooks() error {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	for _, hook := range globalHooks {
		if err := hook(r); err != nil {
			return err
		}
	}
	return nil
}

// Register stores or replaces a visualization definition.
func (r *Registry) Register(def VisualizationDefinition) error {
	if def.Type == "" {
		return fmt.Errorf("visualization type is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.definitions[def.Type] = def
	return nil
}

// Definition fetches a visualization definition by type.
func (r *Registry) Definition(kind string) (VisualizationDefinition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.definitions[kind]
	return def, ok
}

// Definitions returns all registered definitions sorted by type.
func (r *Registry) Definitions() []VisualizationDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]VisualizationDefinition, 0, len(r.definitions))
	for _, def := range r.definitions {
		defs = append(defs, def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Type < defs[j].Type })
	return defs
}
