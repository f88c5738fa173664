package tools

import (
	"context"
	"fmt"

	"github.com/SaiNageswarS/course-rag/models"
	"github.com/ollama/ollama/api"
)

// Tool is one operation the generation model can invoke. The definition is
// the declared schema contract; Execute always answers with model-facing
// text, converting retrieval misses into quotable messages rather than
// errors.
type Tool interface {
	Definition() api.Tool
	Execute(ctx context.Context, args api.ToolCallFunctionArguments) (string, error)
}

// sourceTracker is implemented by tools that produce citation sources for
// the client. The registry drains them once per completed query.
type sourceTracker interface {
	lastSources() []models.Source
	clearSources()
}

func stringArg(args api.ToolCallFunctionArguments, name string) string {
	if v, ok := args[name].(string); ok {
		return v
	}
	return ""
}

// intArg tolerates the number encodings tool arguments arrive in: JSON
// numbers decode as float64, but tests and local callers may pass ints.
func intArg(args api.ToolCallFunctionArguments, name string) *int {
	switch v := args[name].(type) {
	case float64:
		n := int(v)
		return &n
	case int:
		n := v
		return &n
	}
	return nil
}

func requireStringArg(args api.ToolCallFunctionArguments, name string) (string, error) {
	v := stringArg(args, name)
	if v == "" {
		return "", fmt.Errorf("missing required parameter %q", name)
	}
	return v, nil
}
