package tools

import (
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/wearforce/convo-core/internal/apperr"
)

const component = "tool_dispatcher"

// Registry is threadsafe and holds ToolDefinitions keyed by name, plus their
// compiled-once JSON Schema validators.
type Registry struct {
	mu    sync.RWMutex
	defs  map[string]ToolDefinition
	valid map[string]*jsonschema.Schema
}

func NewRegistry() *Registry {
	return &Registry{
		defs:  make(map[string]ToolDefinition),
		valid: make(map[string]*jsonschema.Schema),
	}
}

// Register compiles name's parameter schema once and stores the definition.
// Definitions are immutable after this call; re-registering the same name
// replaces both the definition and its compiled validator.
func (r *Registry) Register(def ToolDefinition) error {
	sch, err := compileParameterSchema(def.Name, def.ParameterSchema)
	if err != nil {
		return apperr.Wrap(component, apperr.Validation, fmt.Sprintf("compile schema for %q", def.Name), err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.Name] = def
	r.valid[def.Name] = sch
	return nil
}

func (r *Registry) lookup(name string) (ToolDefinition, *jsonschema.Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.defs[name]
	if !ok {
		return ToolDefinition{}, nil, false
	}
	return def, r.valid[name], true
}

// List returns the registered definitions in no particular order.
func (r *Registry) List() []ToolDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]ToolDefinition, 0, len(r.defs))
	for _, d := range r.defs {
		out = append(out, d)
	}
	return out
}

// compileParameterSchema translates the dispatcher's field-level
// ParameterSpec table into a JSON Schema document and compiles it once, so
// validation at call time is a cheap, pre-compiled check.
func compileParameterSchema(name string, fields map[string]ParameterSpec) (*jsonschema.Schema, error) {
	props := make(map[string]any, len(fields))
	required := make([]any, 0, len(fields))
	for field, spec := range fields {
		prop := map[string]any{"type": jsonType(spec.Type)}
		if len(spec.Enum) > 0 {
			enum := make([]any, len(spec.Enum))
			for i, e := range spec.Enum {
				enum[i] = e
			}
			prop["enum"] = enum
		}
		props[field] = prop
		if spec.Required {
			required = append(required, field)
		}
	}
	doc := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": true,
	}
	if len(required) > 0 {
		doc["required"] = required
	}
	url := "tool://" + name + "/params.json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, err
	}
	return c.Compile(url)
}

func jsonType(t ParameterType) string {
	switch t {
	case TypeInteger:
		return "integer"
	case TypeNumber:
		return "number"
	case TypeBoolean:
		return "boolean"
	case TypeArray:
		return "array"
	case TypeObject:
		return "object"
	default:
		return "string"
	}
}
