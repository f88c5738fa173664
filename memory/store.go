package memory

import (
	"context"
	"sync"

	"github.com/SaiNageswarS/course-rag/llm"
	"github.com/google/uuid"
)

// ConversationStore is bounded per-session message history. Implementations
// never fail a query over history problems: load errors surface as an empty
// history so the conversation can continue.
type ConversationStore interface {
	CreateSession() string
	Append(ctx context.Context, sessionID, role, content string)
	History(ctx context.Context, sessionID string) []llm.Message
	Clear(ctx context.Context, sessionID string)
}

// InMemoryStore keeps sessions in process memory. Safe for concurrent use;
// concurrent requests against one session are serialized by the store mutex,
// last write wins on the cap.
type InMemoryStore struct {
	mu          sync.Mutex
	maxMessages int
	sessions    map[string]*Conversation
}

func NewInMemoryStore(maxMessages int) *InMemoryStore {
	return &InMemoryStore{
		maxMessages: maxMessages,
		sessions:    make(map[string]*Conversation),
	}
}

func (s *InMemoryStore) CreateSession() string {
	id := uuid.New().String()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &Conversation{ID: id}
	return id
}

func (s *InMemoryStore) Append(ctx context.Context, sessionID, role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversation, ok := s.sessions[sessionID]
	if !ok {
		conversation = &Conversation{ID: sessionID}
		s.sessions[sessionID] = conversation
	}
	conversation.Messages = append(conversation.Messages, llm.Message{Role: role, Content: content})
	conversation.truncate(s.maxMessages)
}

func (s *InMemoryStore) History(ctx context.Context, sessionID string) []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	conversation, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	return append([]llm.Message(nil), conversation.Messages...)
}

func (s *InMemoryStore) Clear(ctx context.Context, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}
