package tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/SaiNageswarS/course-rag/models"
	"github.com/ollama/ollama/api"
)

// ErrUnknownTool marks a dispatch request for a name that was never
// registered. It fails closed instead of guessing.
var ErrUnknownTool = errors.New("unknown tool")

// Registry is the dispatch table between the generation model and the
// retrieval tools: name to (schema, handler), plus citation-source tracking
// across one query.
type Registry struct {
	tools map[string]Tool
	order []string
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool under its declared name.
func (r *Registry) Register(tool Tool) error {
	name := tool.Definition().Function.Name
	if name == "" {
		return fmt.Errorf("tool definition has no name")
	}
	if _, exists := r.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	r.tools[name] = tool
	r.order = append(r.order, name)
	return nil
}

// Definitions returns the declared schemas in registration order.
func (r *Registry) Definitions() []api.Tool {
	defs := make([]api.Tool, 0, len(r.order))
	for _, name := range r.order {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Execute dispatches one tool call by name.
func (r *Registry) Execute(ctx context.Context, name string, args api.ToolCallFunctionArguments) (string, error) {
	tool, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownTool, name)
	}
	return tool.Execute(ctx, args)
}

// DrainSources returns the citation sources accumulated by the most recent
// tool executions and clears them. Called once per completed query.
func (r *Registry) DrainSources() []models.Source {
	var sources []models.Source
	for _, name := range r.order {
		if tracker, ok := r.tools[name].(sourceTracker); ok {
			sources = append(sources, tracker.lastSources()...)
			tracker.clearSources()
		}
	}
	return sources
}
