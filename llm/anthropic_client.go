package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/ollama/ollama/api"
)

const anthropicVersion = "2023-06-01"

// AnthropicClient talks to the Anthropic messages API with native tool use.
type AnthropicClient struct {
	apiKey     string
	httpClient *http.Client
	url        string
	model      string
}

// NewAnthropicClient reads the API key from ANTHROPIC_API_KEY.
func NewAnthropicClient(model string) (*AnthropicClient, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable is not set")
	}

	return &AnthropicClient{
		apiKey:     apiKey,
		httpClient: &http.Client{},
		url:        "https://api.anthropic.com/v1/messages",
		model:      model,
	}, nil
}

func (c *AnthropicClient) GetModel() string {
	return c.model
}

func (c *AnthropicClient) GenerateInference(ctx context.Context, messages []Message, opts ...LLMOption) (*Completion, error) {
	settings := LLMSettings{
		model:       c.model,
		temperature: 0.0,
		maxTokens:   800,
	}
	for _, opt := range opts {
		opt(&settings)
	}

	request := anthropicRequest{
		Model:       settings.model,
		MaxTokens:   settings.maxTokens,
		Temperature: settings.temperature,
		System:      settings.system,
		Messages:    toWireMessages(messages),
		Tools:       toWireTools(settings.tools),
	}

	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("error marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("anthropic-version", anthropicVersion)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error making request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response anthropicResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %w", err)
	}

	completion := &Completion{StopReason: response.StopReason}
	for _, block := range response.Content {
		switch block.Type {
		case "text":
			completion.Text += block.Text
		case "tool_use":
			completion.ToolUses = append(completion.ToolUses, ToolUse{
				ID:    block.ID,
				Name:  block.Name,
				Input: block.Input,
			})
		}
	}

	if completion.Text == "" && len(completion.ToolUses) == 0 {
		return nil, fmt.Errorf("no content in response")
	}
	return completion, nil
}

// toWireMessages flattens the module's message shape into Anthropic content
// blocks. Text, tool_use and tool_result blocks may coexist in one message.
func toWireMessages(messages []Message) []anthropicMessage {
	wire := make([]anthropicMessage, 0, len(messages))
	for _, m := range messages {
		var blocks []anthropicContent
		for _, tr := range m.ToolResults {
			blocks = append(blocks, anthropicContent{
				Type:      "tool_result",
				ToolUseID: tr.ToolUseID,
				Content:   tr.Content,
				IsError:   tr.IsError,
			})
		}
		if m.Content != "" {
			blocks = append(blocks, anthropicContent{Type: "text", Text: m.Content})
		}
		for _, tu := range m.ToolUses {
			blocks = append(blocks, anthropicContent{
				Type:  "tool_use",
				ID:    tu.ID,
				Name:  tu.Name,
				Input: tu.Input,
			})
		}
		wire = append(wire, anthropicMessage{Role: m.Role, Content: blocks})
	}
	return wire
}

// toWireTools converts declared tool schemas into the Anthropic tool shape.
// The ollama parameter object already serializes as a JSON schema, so it is
// passed through as the input_schema.
func toWireTools(tools []api.Tool) []anthropicTool {
	if len(tools) == 0 {
		return nil
	}
	wire := make([]anthropicTool, len(tools))
	for i, t := range tools {
		wire[i] = anthropicTool{
			Name:        t.Function.Name,
			Description: t.Function.Description,
			InputSchema: t.Function.Parameters,
		}
	}
	return wire
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Messages    []anthropicMessage `json:"messages"`
	System      string             `json:"system,omitempty"`
	Temperature float64            `json:"temperature"`
	Tools       []anthropicTool    `json:"tools,omitempty"`
}

type anthropicMessage struct {
	Role    string             `json:"role"`
	Content []anthropicContent `json:"content"`
}

type anthropicContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`

	// tool_use fields
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`

	// tool_result fields
	ToolUseID string `json:"tool_use_id,omitempty"`
	Content   string `json:"content,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

type anthropicTool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	InputSchema any    `json:"input_schema"`
}

type anthropicResponse struct {
	Content    []anthropicContent `json:"content"`
	ID         string             `json:"id"`
	Model      string             `json:"model"`
	Role       string             `json:"role"`
	StopReason string             `json:"stop_reason"`
	Type       string             `json:"type"`
}
