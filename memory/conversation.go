package memory

import (
	"github.com/SaiNageswarS/course-rag/llm"
)

// Conversation is one session's message history.
type Conversation struct {
	ID       string        `bson:"_id"`
	Messages []llm.Message `bson:"messages"`
}

func (m Conversation) Id() string {
	return m.ID
}

func (m Conversation) CollectionName() string {
	return "conversations"
}

func (m *Conversation) AddUserMessage(content string) {
	m.Messages = append(m.Messages, llm.Message{Role: "user", Content: content})
}

func (m *Conversation) AddAssistantMessage(content string) {
	m.Messages = append(m.Messages, llm.Message{Role: "assistant", Content: content})
}

// truncate enforces the message cap by dropping the oldest entries first.
// Dialogue recency matters more than access frequency, so eviction is FIFO.
func (m *Conversation) truncate(maxMessages int) {
	if maxMessages <= 0 {
		m.Messages = nil
		return
	}
	if excess := len(m.Messages) - maxMessages; excess > 0 {
		m.Messages = append([]llm.Message(nil), m.Messages[excess:]...)
	}
}
