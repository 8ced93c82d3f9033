package dashboard

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// OptionsValidator validates visualization options against their schema.
type OptionsValidator interface {
	Validate(def VisualizationDefinition, options map[string]any) error
}

// JSONSchemaValidator compiles visualization schemas and validates option maps.
type JSONSchemaValidator struct {
	mu       sync.RWMutex
	compiled map[string]*jsonschema.Schema
}

// NewJSONSchemaValidator builds a validator backed by jsonschema v5.
func NewJSONSchemaValidator() *JSONSchemaValidator {
	return &JSONSchemaValidator{
		compiled: make(map[string]*jsonschema.Schema),
	}
}

// Validate ensures the provided options satisfy the visualization schema.
func (v *JSONSchemaValidator) Validate(def VisualizationDefinition, options map[string]any) error {
	if len(def.Schema) == 0 {
		return nil
	}
	schema, err := v.schemaFor(def)
	if err != nil {
		return err
	}
	var payload map[string]any
	if options == nil {
		payload = map[string]any{}
	} else {
		// round trip so typed Go values (ints, []string) match the JSON model
		data, err := json.Marshal(options)
		if err != nil {
			return fmt.Errorf("dashboard: marshal options for %s: %w", def.Type, err)
		}
		if err := json.Unmarshal(data, &payload); err != nil {
			return fmt.Errorf("dashboard: normalize options for %s: %w", def.Type, err)
		}
	}
	if err := schema.Validate(payload); err != nil {
		msg := fmt.Sprintf("options for %s failed validation", def.Type)
		var verr *jsonschema.ValidationError
		if errors.As(err, &verr) {
			msg += " at " + strings.Join(invalidOptionPaths(verr), ", ")
		}
		return &Error{Kind: KindValidation, Op: "validate", Message: msg, Err: err}
	}
	return nil
}

// invalidOptionPaths lists the option locations of the leaf failures, sorted.
func invalidOptionPaths(verr *jsonschema.ValidationError) []string {
	var paths []string
	var walk func(*jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			loc := e.InstanceLocation
			if loc == "" {
				loc = "/"
			}
			paths = append(paths, loc)
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(verr)
	slices.Sort(paths)
	return slices.Compact(paths)
}

func (v *JSONSchemaValidator) schemaFor(def VisualizationDefinition) (*jsonschema.Schema, error) {
	v.mu.RLock()
	schema, ok := v.compiled[def.Type]
	v.mu.RUnlock()
	if ok {
		return schema, nil
	}
	data, err := json.Marshal(def.Schema)
	if err != nil {
		return nil, fmt.Errorf("dashboard: marshal schema %s: %w", def.Type, err)
	}
	compiler := jsonschema.NewCompiler()
	name := def.Type + ".json"
	if err := compiler.AddResource(name, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("dashboard: load schema %s: %w", def.Type, err)
	}
	compiled, err := compiler.Compile(name)
	if err != nil {
		return nil, fmt.Errorf("dashboard: compile schema %s: %w", def.Type, err)
	}
	v.mu.Lock()
	v.compiled[def.Type] = compiled
	v.mu.Unlock()
	return compiled, nil
}
