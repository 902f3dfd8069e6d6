// Package tools defines the tool abstraction exposed to the language model
// and a registry for dispatching tool calls by name.
package tools

import (
	"context"
	"errors"
	"fmt"
)

// ErrUnknownTool is returned when executing a name no tool was registered under.
var ErrUnknownTool = errors.New("unknown tool")

// Property describes a single field of a tool's input schema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
}

// InputSchema is a JSON Schema object describing a tool's arguments.
type InputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
}

// Definition is the model-facing description of a tool.
type Definition struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	InputSchema InputSchema `json:"input_schema"`
}

// Tool executes a named operation on behalf of the model. Execute returns
// the text shown to the model and the source labels backing it.
type Tool interface {
	Definition() Definition
	Execute(ctx context.Context, args map[string]any) (string, []string, error)
}

// Registry holds registered tools in registration order.
type Registry struct {
	names []string
	tools map[string]Tool
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool. Registering the same name again replaces the
// earlier tool but keeps its position.
func (r *Registry) Register(t Tool) error {
	def := t.Definition()
	if def.Name == "" {
		return errors.New("tool has no name")
	}
	if _, ok := r.tools[def.Name]; !ok {
		r.names = append(r.names, def.Name)
	}
	r.tools[def.Name] = t
	return nil
}

// Definitions returns the definitions of all registered tools in
// registration order.
func (r *Registry) Definitions() []Definition {
	defs := make([]Definition, 0, len(r.names))
	for _, name := range r.names {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Execute dispatches a call to the named tool.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (string, []string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return t.Execute(ctx, args)
}
