package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGroqTestClient(t *testing.T, respond func(req map[string]any) any) (*GroqClient, *[]map[string]any) {
	t.Helper()
	var captured []map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		captured = append(captured, body)

		_ = json.NewEncoder(w).Encode(respond(body))
	}))
	t.Cleanup(server.Close)

	return &GroqClient{
		apiKey:     "test-key",
		httpClient: server.Client(),
		url:        server.URL,
		model:      "llama-3.3-70b-versatile",
	}, &captured
}

func TestGroqGenerateInferenceText(t *testing.T) {
	client, captured := newGroqTestClient(t, func(req map[string]any) any {
		return map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]any{"role": "assistant", "content": "4"},
				"finish_reason": "stop",
			}},
		}
	})

	completion, err := client.GenerateInference(context.Background(),
		[]Message{{Role: "user", Content: "2+2?"}},
		WithSystemPrompt("You are terse."))
	require.NoError(t, err)

	assert.Equal(t, "4", completion.Text)
	assert.Equal(t, "stop", completion.StopReason)
	assert.False(t, completion.RequestedTools())

	// System prompt travels as the first message in the array.
	messages := (*captured)[0]["messages"].([]any)
	first := messages[0].(map[string]any)
	assert.Equal(t, "system", first["role"])
	assert.Equal(t, "You are terse.", first["content"])
}

func TestGroqGenerateInferenceParsesToolCalls(t *testing.T) {
	client, _ := newGroqTestClient(t, func(req map[string]any) any {
		return map[string]any{
			"choices": []map[string]any{{
				"message": map[string]any{
					"role": "assistant",
					"tool_calls": []map[string]any{{
						"id":   "call_1",
						"type": "function",
						"function": map[string]any{
							"name":      "search_course_content",
							"arguments": `{"query": "variables", "lesson_number": 1}`,
						},
					}},
				},
				"finish_reason": "tool_calls",
			}},
		}
	})

	completion, err := client.GenerateInference(context.Background(),
		[]Message{{Role: "user", Content: "q"}})
	require.NoError(t, err)

	require.Len(t, completion.ToolUses, 1)
	assert.Equal(t, "call_1", completion.ToolUses[0].ID)
	assert.Equal(t, "search_course_content", completion.ToolUses[0].Name)
	assert.Equal(t, "variables", completion.ToolUses[0].Input["query"])
	assert.Equal(t, float64(1), completion.ToolUses[0].Input["lesson_number"])
}

func TestGroqToolRoundMessageShape(t *testing.T) {
	client, captured := newGroqTestClient(t, func(req map[string]any) any {
		return map[string]any{
			"choices": []map[string]any{{
				"message":       map[string]any{"role": "assistant", "content": "final"},
				"finish_reason": "stop",
			}},
		}
	})

	messages := []Message{
		{Role: "user", Content: "question"},
		{Role: "assistant", ToolUses: []ToolUse{{ID: "call_1", Name: "t", Input: map[string]any{"a": 1}}}},
		{Role: "user", ToolResults: []ToolResult{{ToolUseID: "call_1", Content: "result text"}}},
	}
	_, err := client.GenerateInference(context.Background(), messages)
	require.NoError(t, err)

	wire := (*captured)[0]["messages"].([]any)
	require.Len(t, wire, 3)

	assistant := wire[1].(map[string]any)
	toolCalls := assistant["tool_calls"].([]any)
	require.Len(t, toolCalls, 1)
	fn := toolCalls[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "t", fn["name"])
	assert.JSONEq(t, `{"a": 1}`, fn["arguments"].(string))

	toolMsg := wire[2].(map[string]any)
	assert.Equal(t, "tool", toolMsg["role"])
	assert.Equal(t, "call_1", toolMsg["tool_call_id"])
	assert.Equal(t, "result text", toolMsg["content"])
}

func TestGroqNoChoices(t *testing.T) {
	client, _ := newGroqTestClient(t, func(req map[string]any) any {
		return map[string]any{"choices": []map[string]any{}}
	})

	_, err := client.GenerateInference(context.Background(), []Message{{Role: "user", Content: "q"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}
