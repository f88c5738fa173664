package llm

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ollama/ollama/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, respond func(req map[string]any) any) (*AnthropicClient, *[]map[string]any) {
	t.Helper()
	var captured []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("x-api-key"))
		assert.Equal(t, anthropicVersion, r.Header.Get("anthropic-version"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		captured = append(captured, body)

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(respond(body))
	}))
	t.Cleanup(server.Close)

	return &AnthropicClient{
		apiKey:     "test-key",
		httpClient: server.Client(),
		url:        server.URL,
		model:      "claude-test",
	}, &captured
}

func textResponse(text string) any {
	return map[string]any{
		"content":     []map[string]any{{"type": "text", "text": text}},
		"stop_reason": "end_turn",
	}
}

func TestGenerateInferenceParsesText(t *testing.T) {
	client, captured := newTestClient(t, func(req map[string]any) any {
		return textResponse("Go is a language.")
	})

	completion, err := client.GenerateInference(context.Background(),
		[]Message{{Role: "user", Content: "What is Go?"}},
		WithSystemPrompt("You answer tersely."),
		WithMaxTokens(500))
	require.NoError(t, err)

	assert.Equal(t, "Go is a language.", completion.Text)
	assert.False(t, completion.RequestedTools())
	assert.Equal(t, "end_turn", completion.StopReason)

	req := (*captured)[0]
	assert.Equal(t, "claude-test", req["model"])
	assert.Equal(t, "You answer tersely.", req["system"])
	assert.Equal(t, float64(500), req["max_tokens"])
}

func TestGenerateInferenceParsesToolUse(t *testing.T) {
	client, _ := newTestClient(t, func(req map[string]any) any {
		return map[string]any{
			"content": []map[string]any{
				{"type": "text", "text": "Let me look that up."},
				{
					"type":  "tool_use",
					"id":    "tu_123",
					"name":  "search_course_content",
					"input": map[string]any{"query": "variables", "lesson_number": float64(1)},
				},
			},
			"stop_reason": "tool_use",
		}
	})

	completion, err := client.GenerateInference(context.Background(),
		[]Message{{Role: "user", Content: "q"}})
	require.NoError(t, err)

	assert.True(t, completion.RequestedTools())
	assert.Equal(t, "tool_use", completion.StopReason)
	require.Len(t, completion.ToolUses, 1)
	assert.Equal(t, "tu_123", completion.ToolUses[0].ID)
	assert.Equal(t, "search_course_content", completion.ToolUses[0].Name)
	assert.Equal(t, "variables", completion.ToolUses[0].Input["query"])
}

func TestGenerateInferenceSendsToolSchemas(t *testing.T) {
	client, captured := newTestClient(t, func(req map[string]any) any {
		return textResponse("ok")
	})

	tool := api.Tool{Type: "function"}
	tool.Function.Name = "search_course_content"
	tool.Function.Description = "Search course materials"
	tool.Function.Parameters.Type = "object"
	tool.Function.Parameters.Required = []string{"query"}
	tool.Function.Parameters.Properties = map[string]api.ToolProperty{
		"query": {Type: api.PropertyType{"string"}, Description: "search text"},
	}

	_, err := client.GenerateInference(context.Background(),
		[]Message{{Role: "user", Content: "q"}},
		WithTools([]api.Tool{tool}))
	require.NoError(t, err)

	wireTools := (*captured)[0]["tools"].([]any)
	require.Len(t, wireTools, 1)
	wireTool := wireTools[0].(map[string]any)
	assert.Equal(t, "search_course_content", wireTool["name"])

	schema := wireTool["input_schema"].(map[string]any)
	assert.Equal(t, "object", schema["type"])
	assert.Equal(t, []any{"query"}, schema["required"])
}

func TestGenerateInferenceWiresToolRoundMessages(t *testing.T) {
	client, captured := newTestClient(t, func(req map[string]any) any {
		return textResponse("final")
	})

	messages := []Message{
		{Role: "user", Content: "question"},
		{
			Role:     "assistant",
			Content:  "Let me check.",
			ToolUses: []ToolUse{{ID: "tu_1", Name: "search_course_content", Input: map[string]any{"query": "q"}}},
		},
		{
			Role:        "user",
			ToolResults: []ToolResult{{ToolUseID: "tu_1", Content: "found it"}},
		},
	}

	_, err := client.GenerateInference(context.Background(), messages)
	require.NoError(t, err)

	wireMessages := (*captured)[0]["messages"].([]any)
	require.Len(t, wireMessages, 3)

	assistant := wireMessages[1].(map[string]any)
	blocks := assistant["content"].([]any)
	require.Len(t, blocks, 2)
	assert.Equal(t, "text", blocks[0].(map[string]any)["type"])
	assert.Equal(t, "tool_use", blocks[1].(map[string]any)["type"])

	result := wireMessages[2].(map[string]any)["content"].([]any)[0].(map[string]any)
	assert.Equal(t, "tool_result", result["type"])
	assert.Equal(t, "tu_1", result["tool_use_id"])
	assert.Equal(t, "found it", result["content"])
}

func TestGenerateInferenceErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": "rate limited"}`))
	}))
	defer server.Close()

	client := &AnthropicClient{apiKey: "k", httpClient: server.Client(), url: server.URL, model: "m"}
	_, err := client.GenerateInference(context.Background(), []Message{{Role: "user", Content: "q"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestGenerateInferenceEmptyContent(t *testing.T) {
	client, _ := newTestClient(t, func(req map[string]any) any {
		return map[string]any{"content": []map[string]any{}, "stop_reason": "end_turn"}
	})

	_, err := client.GenerateInference(context.Background(), []Message{{Role: "user", Content: "q"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no content")
}

func TestNormalize(t *testing.T) {
	v := Normalize([]float32{3, 4})
	assert.InDelta(t, 0.6, v[0], 1e-6)
	assert.InDelta(t, 0.8, v[1], 1e-6)

	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	assert.InDelta(t, 1.0, math.Sqrt(norm), 1e-6)

	assert.Equal(t, []float32{0, 0}, Normalize([]float32{0, 0}))
}
