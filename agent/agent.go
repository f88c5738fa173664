package agent

import (
	"github.com/SaiNageswarS/course-rag/llm"
	"github.com/SaiNageswarS/course-rag/memory"
	"github.com/SaiNageswarS/course-rag/models"
	"github.com/SaiNageswarS/course-rag/tools"
)

// AgentConfig holds configuration for the generation loop.
type AgentConfig struct {
	Model        llm.LLMClient
	Registry     *tools.Registry
	Sessions     memory.ConversationStore
	SystemPrompt string
	MaxTokens    int
	Temperature  float64

	// MaxToolRounds bounds how many tool rounds one query may spend.
	// Defaults to a single round: the follow-up generation after tool
	// execution is made without tool schemas, so the loop always
	// terminates in at most MaxToolRounds+1 model invocations.
	MaxToolRounds int
}

// Agent drives the model through zero or more tool-call rounds to a final
// answer.
type Agent struct {
	config AgentConfig
}

func NewAgent(config AgentConfig) *Agent {
	if config.MaxToolRounds <= 0 {
		config.MaxToolRounds = 1
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = 800
	}
	return &Agent{config: config}
}

// Response is the terminal output of one query: the answer text plus the
// citation sources drained from the tool registry.
type Response struct {
	Answer  string
	Sources []models.Source
}
