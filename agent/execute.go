package agent

import (
	"context"
	"fmt"

	"github.com/SaiNageswarS/course-rag/llm"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

// loopState tracks where one query is inside the tool-calling cycle.
type loopState int

const (
	stateAwaitingModel loopState = iota
	stateExecutingTools
	stateDone
)

// Execute runs one query to completion. The first model invocation offers
// the registered tool schemas; after one round of tool execution the
// follow-up invocation offers none, so a response that asks for tools again
// is treated as final text. Individual tool failures become textual error
// results and never abort sibling calls or the round.
func (a *Agent) Execute(ctx context.Context, sessionID, query string) (*Response, error) {
	var messages []llm.Message
	if a.config.Sessions != nil && sessionID != "" {
		messages = append(messages, a.config.Sessions.History(ctx, sessionID)...)
	}
	messages = append(messages, llm.Message{Role: "user", Content: query})

	var answer string
	var pending *llm.Completion
	toolRoundsLeft := a.config.MaxToolRounds

	state := stateAwaitingModel
	for state != stateDone {
		switch state {
		case stateAwaitingModel:
			opts := []llm.LLMOption{
				llm.WithSystemPrompt(a.config.SystemPrompt),
				llm.WithMaxTokens(a.config.MaxTokens),
				llm.WithTemperature(a.config.Temperature),
			}
			if toolRoundsLeft > 0 && a.config.Registry != nil {
				opts = append(opts, llm.WithTools(a.config.Registry.Definitions()))
			}

			completion, err := a.config.Model.GenerateInference(ctx, messages, opts...)
			if err != nil {
				return nil, fmt.Errorf("generation failed: %w", err)
			}

			if completion.RequestedTools() && toolRoundsLeft > 0 {
				pending = completion
				state = stateExecutingTools
				continue
			}
			// Either a direct answer, or a tools request after the
			// round budget ran out: return the raw text as-is.
			answer = completion.Text
			state = stateDone

		case stateExecutingTools:
			messages = append(messages, llm.Message{
				Role:     "assistant",
				Content:  pending.Text,
				ToolUses: pending.ToolUses,
			})
			messages = append(messages, llm.Message{
				Role:        "user",
				ToolResults: a.runToolCalls(ctx, pending.ToolUses),
			})
			pending = nil
			toolRoundsLeft--
			state = stateAwaitingModel
		}
	}

	response := &Response{Answer: answer}
	if a.config.Registry != nil {
		response.Sources = a.config.Registry.DrainSources()
	}

	if a.config.Sessions != nil && sessionID != "" {
		a.config.Sessions.Append(ctx, sessionID, "user", query)
		a.config.Sessions.Append(ctx, sessionID, "assistant", answer)
	}
	return response, nil
}

// runToolCalls executes every requested tool. A failing call, including an
// unknown tool name, is captured as an error-flagged result for that call
// only.
func (a *Agent) runToolCalls(ctx context.Context, toolUses []llm.ToolUse) []llm.ToolResult {
	results := make([]llm.ToolResult, 0, len(toolUses))
	for _, toolUse := range toolUses {
		result := llm.ToolResult{ToolUseID: toolUse.ID}

		text, err := a.config.Registry.Execute(ctx, toolUse.Name, toolUse.Input)
		if err != nil {
			logger.Error("Tool execution failed",
				zap.String("tool", toolUse.Name), zap.Error(err))
			result.Content = fmt.Sprintf("Tool execution error: %v", err)
			result.IsError = true
		} else {
			result.Content = text
		}
		results = append(results, result)
	}
	return results
}
