package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SaiNageswarS/course-rag/agent"
	"github.com/SaiNageswarS/course-rag/appconfig"
	"github.com/SaiNageswarS/course-rag/chunker"
	"github.com/SaiNageswarS/course-rag/llm"
	"github.com/SaiNageswarS/course-rag/memory"
	"github.com/SaiNageswarS/course-rag/models"
	"github.com/SaiNageswarS/course-rag/prompts"
	"github.com/SaiNageswarS/course-rag/rag"
	"github.com/SaiNageswarS/course-rag/tools"
	"github.com/SaiNageswarS/course-rag/vectorindex"
	"github.com/SaiNageswarS/go-api-boot/config"
	"github.com/SaiNageswarS/go-api-boot/dotenv"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"github.com/SaiNageswarS/go-api-boot/odm"
	"go.uber.org/zap"
)

func main() {
	dotenv.LoadEnv()

	ccfgg := &appconfig.AppConfig{}
	err := config.LoadConfig("config.ini", ccfgg)
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	embedder, err := llm.NewOllamaEmbedder(ccfgg.OllamaEmbedModel)
	if err != nil {
		logger.Fatal("Failed to create Ollama embedder", zap.Error(err))
	}

	claude, err := llm.NewAnthropicClient(ccfgg.AnthropicModel)
	if err != nil {
		logger.Fatal("Failed to create Claude client", zap.Error(err))
	}

	var store vectorindex.Store
	if ccfgg.QdrantURL != "" {
		store = vectorindex.NewQdrantStore(vectorindex.QdrantConfig{
			URL:    ccfgg.QdrantURL,
			APIKey: ccfgg.QdrantAPIKey,
		})
	} else {
		logger.Info("No qdrant_url configured, using in-memory vector store")
		store = vectorindex.NewMemoryStore()
	}

	index := vectorindex.New(store, embedder, ccfgg.MaxResults, ccfgg.CatalogThreshold)

	chk, err := chunker.New(ccfgg.ChunkSize, ccfgg.ChunkOverlap)
	if err != nil {
		logger.Fatal("Invalid chunker configuration", zap.Error(err))
	}

	var sessions memory.ConversationStore
	if ccfgg.MongoURI != "" {
		mongoClient := odm.ProvideMongoClient()
		collection := odm.CollectionOf[memory.Conversation](mongoClient, "course_rag")
		sessions = memory.NewMongoStore(collection, ccfgg.MaxHistory)
	} else {
		sessions = memory.NewInMemoryStore(ccfgg.MaxHistory)
	}

	registry := tools.NewRegistry()
	if err := registry.Register(tools.NewCourseSearchTool(index)); err != nil {
		logger.Fatal("Failed to register search tool", zap.Error(err))
	}
	if err := registry.Register(tools.NewCourseOutlineTool(index)); err != nil {
		logger.Fatal("Failed to register outline tool", zap.Error(err))
	}

	system := rag.NewSystem(chk, index, nil, sessions)

	if ccfgg.DocsDir != "" {
		if _, statErr := os.Stat(ccfgg.DocsDir); statErr == nil {
			courses, chunks, err := system.AddCourseFolder(ctx, ccfgg.DocsDir)
			if err != nil {
				logger.Error("Failed to load course documents", zap.Error(err))
			} else {
				logger.Info("Loaded course documents",
					zap.Int("courses", courses),
					zap.Int("chunks", chunks))
			}
		}
	}

	titles, err := index.ExistingCourseTitles(ctx)
	if err != nil {
		logger.Error("Failed to list indexed courses", zap.Error(err))
	}
	systemPrompt, err := prompts.RenderAssistantPrompt(titles)
	if err != nil {
		logger.Fatal("Failed to render system prompt", zap.Error(err))
	}

	courseAgent := agent.NewAgentBuilder().
		WithModel(claude).
		WithRegistry(registry).
		WithSessions(sessions).
		WithSystemPrompt(systemPrompt).
		Build()
	system.SetAgent(courseAgent)

	port := ccfgg.HTTPPort
	if port == "" {
		port = ":8000"
	}
	srv := &http.Server{
		Addr:    port,
		Handler: newHandler(system),
	}

	go func() {
		logger.Info("Serving course RAG API", zap.String("addr", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
}

type queryRequest struct {
	Query     string `json:"query"`
	SessionID string `json:"session_id"`
}

type queryResponse struct {
	Answer    string          `json:"answer"`
	Sources   []models.Source `json:"sources"`
	SessionID string          `json:"session_id"`
}

type clearSessionRequest struct {
	SessionID string `json:"session_id"`
}

func newHandler(system *rag.System) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/query", func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
			http.Error(w, "query is required", http.StatusBadRequest)
			return
		}

		response, sessionID, err := system.Query(r.Context(), req.SessionID, req.Query)
		if err != nil {
			logger.Error("Query failed", zap.Error(err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		sources := response.Sources
		if sources == nil {
			sources = []models.Source{}
		}
		writeJSON(w, queryResponse{
			Answer:    response.Answer,
			Sources:   sources,
			SessionID: sessionID,
		})
	})

	mux.HandleFunc("GET /api/courses", func(w http.ResponseWriter, r *http.Request) {
		analytics, err := system.CourseAnalytics(r.Context())
		if err != nil {
			logger.Error("Course analytics failed", zap.Error(err))
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		writeJSON(w, analytics)
	})

	mux.HandleFunc("POST /api/session/clear", func(w http.ResponseWriter, r *http.Request) {
		var req clearSessionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.SessionID == "" {
			http.Error(w, "session_id is required", http.StatusBadRequest)
			return
		}
		system.ClearSession(r.Context(), req.SessionID)
		writeJSON(w, map[string]string{"status": "success"})
	})

	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to write response", zap.Error(err))
	}
}
