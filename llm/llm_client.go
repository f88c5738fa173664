package llm

import (
	"context"

	"github.com/ollama/ollama/api"
)

// LLMClient is the generation model boundary. One call is one model
// invocation; the completion either carries final text or tool-use requests.
type LLMClient interface {
	GenerateInference(ctx context.Context, messages []Message, opts ...LLMOption) (*Completion, error)
	GetModel() string
}

// Embedder converts text into a vector representation.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type LLMSettings struct {
	model       string
	temperature float64
	maxTokens   int
	system      string
	tools       []api.Tool
}

type LLMOption func(*LLMSettings)

// ApplyOptions folds options into a settings snapshot. Client
// implementations outside this package read the result through the
// accessors below.
func ApplyOptions(opts ...LLMOption) *LLMSettings {
	settings := &LLMSettings{}
	for _, opt := range opts {
		opt(settings)
	}
	return settings
}

func (s *LLMSettings) Temperature() float64 { return s.temperature }
func (s *LLMSettings) MaxTokens() int       { return s.maxTokens }
func (s *LLMSettings) System() string       { return s.system }
func (s *LLMSettings) Tools() []api.Tool    { return s.tools }

func WithTemperature(temp float64) LLMOption {
	return func(s *LLMSettings) { s.temperature = temp }
}

func WithMaxTokens(tokens int) LLMOption {
	return func(s *LLMSettings) { s.maxTokens = tokens }
}

func WithSystemPrompt(prompt string) LLMOption {
	return func(s *LLMSettings) { s.system = prompt }
}

func WithTools(tools []api.Tool) LLMOption {
	return func(s *LLMSettings) { s.tools = tools }
}

// ToolUse is one tool invocation requested by the model.
type ToolUse struct {
	ID    string         `json:"id"`
	Name  string         `json:"name"`
	Input map[string]any `json:"input"`
}

// ToolResult carries one executed tool outcome back to the model.
type ToolResult struct {
	ToolUseID string `json:"tool_use_id"`
	Content   string `json:"content"`
	IsError   bool   `json:"is_error,omitempty"`
}

// Message is one entry of the working conversation. Assistant messages may
// carry tool-use requests; user messages may carry tool results.
type Message struct {
	Role        string       `json:"role"` // "user" or "assistant"
	Content     string       `json:"content"`
	ToolUses    []ToolUse    `json:"tool_uses,omitempty"`
	ToolResults []ToolResult `json:"tool_results,omitempty"`
}

// Completion is one model response. ToolUses is non-empty exactly when the
// model stopped to call tools.
type Completion struct {
	Text       string
	ToolUses   []ToolUse
	StopReason string
}

// RequestedTools reports whether the model asked for a tool round.
func (c *Completion) RequestedTools() bool { return len(c.ToolUses) > 0 }
