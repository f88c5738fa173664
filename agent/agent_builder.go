package agent

import (
	"github.com/SaiNageswarS/course-rag/llm"
	"github.com/SaiNageswarS/course-rag/memory"
	"github.com/SaiNageswarS/course-rag/tools"
)

type AgentBuilder struct {
	config AgentConfig
}

func NewAgentBuilder() *AgentBuilder {
	return &AgentBuilder{}
}

func (b *AgentBuilder) WithModel(client llm.LLMClient) *AgentBuilder {
	b.config.Model = client
	return b
}

func (b *AgentBuilder) WithRegistry(registry *tools.Registry) *AgentBuilder {
	b.config.Registry = registry
	return b
}

func (b *AgentBuilder) WithSessions(store memory.ConversationStore) *AgentBuilder {
	b.config.Sessions = store
	return b
}

func (b *AgentBuilder) WithSystemPrompt(prompt string) *AgentBuilder {
	b.config.SystemPrompt = prompt
	return b
}

func (b *AgentBuilder) WithMaxTokens(max int) *AgentBuilder {
	b.config.MaxTokens = max
	return b
}

func (b *AgentBuilder) WithTemperature(temp float64) *AgentBuilder {
	b.config.Temperature = temp
	return b
}

func (b *AgentBuilder) Build() *Agent {
	return NewAgent(b.config)
}
