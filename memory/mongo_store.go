package memory

import (
	"context"

	"github.com/SaiNageswarS/course-rag/llm"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-api-boot/odm"
	"github.com/SaiNageswarS/go-collection-boot/async"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MongoStore persists sessions through the odm collection so history
// survives process restarts. Load failures degrade to an empty history.
type MongoStore struct {
	collection  odm.OdmCollectionInterface[Conversation]
	maxMessages int
}

func NewMongoStore(collection odm.OdmCollectionInterface[Conversation], maxMessages int) *MongoStore {
	return &MongoStore{
		collection:  collection,
		maxMessages: maxMessages,
	}
}

func (s *MongoStore) CreateSession() string {
	return uuid.New().String()
}

func (s *MongoStore) Append(ctx context.Context, sessionID, role, content string) {
	conversation := s.load(ctx, sessionID)
	conversation.Messages = append(conversation.Messages, llm.Message{Role: role, Content: content})
	conversation.truncate(s.maxMessages)

	if _, err := async.Await(s.collection.Save(ctx, *conversation)); err != nil {
		logger.Error("Failed to save session", zap.String("sessionId", sessionID), zap.Error(err))
	}
}

func (s *MongoStore) History(ctx context.Context, sessionID string) []llm.Message {
	return s.load(ctx, sessionID).Messages
}

func (s *MongoStore) Clear(ctx context.Context, sessionID string) {
	conversation := &Conversation{ID: sessionID}
	if _, err := async.Await(s.collection.Save(ctx, *conversation)); err != nil {
		logger.Error("Failed to clear session", zap.String("sessionId", sessionID), zap.Error(err))
	}
}

func (s *MongoStore) load(ctx context.Context, sessionID string) *Conversation {
	session, err := async.Await(s.collection.FindOneByID(ctx, sessionID))
	if err != nil {
		return &Conversation{ID: sessionID}
	}
	return session
}
