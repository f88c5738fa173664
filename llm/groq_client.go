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

// GroqClient is an alternative generation provider speaking the
// OpenAI-compatible chat completions API. Tool calls arrive with JSON-string
// arguments and are converted into the module's ToolUse shape.
type GroqClient struct {
	apiKey     string
	httpClient *http.Client
	url        string
	model      string
}

// NewGroqClient reads the API key from GROQ_API_KEY.
func NewGroqClient(model string) (*GroqClient, error) {
	apiKey := os.Getenv("GROQ_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GROQ_API_KEY environment variable is not set")
	}

	return &GroqClient{
		apiKey:     apiKey,
		httpClient: &http.Client{},
		url:        "https://api.groq.com/openai/v1/chat/completions",
		model:      model,
	}, nil
}

func (c *GroqClient) GetModel() string {
	return c.model
}

func (c *GroqClient) GenerateInference(ctx context.Context, messages []Message, opts ...LLMOption) (*Completion, error) {
	settings := LLMSettings{
		model:       c.model,
		temperature: 0.0,
		maxTokens:   800,
	}
	for _, opt := range opts {
		opt(&settings)
	}

	request := groqRequest{
		Model:       settings.model,
		Messages:    toGroqMessages(settings.system, messages),
		Temperature: settings.temperature,
		MaxTokens:   settings.maxTokens,
		Tools:       convertToolsToGroqFormat(settings.tools),
	}
	if len(request.Tools) > 0 {
		request.ToolChoice = "auto"
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
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

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

	var response groqResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("error unmarshaling response: %w", err)
	}
	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	choice := response.Choices[0]
	completion := &Completion{
		Text:       choice.Message.Content,
		StopReason: choice.FinishReason,
	}
	for _, tc := range choice.Message.ToolCalls {
		var args map[string]any
		if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
			return nil, fmt.Errorf("error parsing tool call arguments: %w", err)
		}
		completion.ToolUses = append(completion.ToolUses, ToolUse{
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: args,
		})
	}

	if completion.Text == "" && len(completion.ToolUses) == 0 {
		return nil, fmt.Errorf("no content in response")
	}
	return completion, nil
}

// toGroqMessages flattens the module's message shape into the OpenAI chat
// format: assistant tool requests become tool_calls, tool results become
// role "tool" messages keyed by tool_call_id.
func toGroqMessages(system string, messages []Message) []groqMessage {
	var wire []groqMessage
	if system != "" {
		wire = append(wire, groqMessage{Role: "system", Content: system})
	}

	for _, m := range messages {
		for _, tr := range m.ToolResults {
			wire = append(wire, groqMessage{
				Role:       "tool",
				Content:    tr.Content,
				ToolCallID: tr.ToolUseID,
			})
		}
		if m.Content == "" && len(m.ToolUses) == 0 {
			continue
		}

		msg := groqMessage{Role: m.Role, Content: m.Content}
		for _, tu := range m.ToolUses {
			args, err := json.Marshal(tu.Input)
			if err != nil {
				args = []byte("{}")
			}
			msg.ToolCalls = append(msg.ToolCalls, groqToolCall{
				ID:   tu.ID,
				Type: "function",
				Function: groqToolCallFunction{
					Name:      tu.Name,
					Arguments: string(args),
				},
			})
		}
		wire = append(wire, msg)
	}
	return wire
}

// convertToolsToGroqFormat converts declared tool schemas to Groq format.
func convertToolsToGroqFormat(tools []api.Tool) []groqTool {
	if len(tools) == 0 {
		return nil
	}

	groqTools := make([]groqTool, len(tools))
	for i, tool := range tools {
		groqTools[i] = groqTool{
			Type: "function",
			Function: groqFunction{
				Name:        tool.Function.Name,
				Description: tool.Function.Description,
				Parameters:  tool.Function.Parameters,
			},
		}
	}
	return groqTools
}

// Groq API types
type groqRequest struct {
	Model       string        `json:"model"`
	Messages    []groqMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_completion_tokens,omitempty"`
	Tools       []groqTool    `json:"tools,omitempty"`
	ToolChoice  string        `json:"tool_choice,omitempty"`
}

type groqTool struct {
	Type     string       `json:"type"`
	Function groqFunction `json:"function"`
}

type groqFunction struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  interface{} `json:"parameters"`
}

type groqResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Created int64        `json:"created"`
	Model   string       `json:"model"`
	Choices []groqChoice `json:"choices"`
	Usage   groqUsage    `json:"usage"`
}

type groqChoice struct {
	Index        int         `json:"index"`
	Message      groqMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type groqMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCalls  []groqToolCall `json:"tool_calls,omitempty"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
}

type groqToolCall struct {
	ID       string               `json:"id"`
	Type     string               `json:"type"`
	Function groqToolCallFunction `json:"function"`
}

type groqToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type groqUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}
