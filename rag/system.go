package rag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/SaiNageswarS/course-rag/agent"
	"github.com/SaiNageswarS/course-rag/chunker"
	"github.com/SaiNageswarS/course-rag/memory"
	"github.com/SaiNageswarS/course-rag/models"
	"github.com/SaiNageswarS/course-rag/vectorindex"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

// System wires ingestion and query handling. It is the only component the
// transport layer talks to.
type System struct {
	chunker  *chunker.Chunker
	index    *vectorindex.VectorIndex
	agent    *agent.Agent
	sessions memory.ConversationStore
}

func NewSystem(chk *chunker.Chunker, index *vectorindex.VectorIndex, ag *agent.Agent, sessions memory.ConversationStore) *System {
	return &System{
		chunker:  chk,
		index:    index,
		agent:    ag,
		sessions: sessions,
	}
}

// SetAgent installs the generation loop. The agent's system prompt depends
// on which courses are indexed, so it is built after startup ingestion and
// attached here.
func (s *System) SetAgent(ag *agent.Agent) {
	s.agent = ag
}

// CourseAnalytics is the course statistics view served by the courses
// endpoint.
type CourseAnalytics struct {
	TotalCourses int      `json:"total_courses"`
	CourseTitles []string `json:"course_titles"`
}

// AddCourseDocument parses and indexes a single course document. Returns the
// parsed course and the number of content chunks written.
func (s *System) AddCourseDocument(ctx context.Context, path string) (models.Course, int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return models.Course{}, 0, fmt.Errorf("read course document %s: %w", path, err)
	}

	course, chunks, err := s.chunker.Process(string(raw))
	if err != nil {
		return models.Course{}, 0, fmt.Errorf("process course document %s: %w", path, err)
	}

	if err := s.index.AddCourseCatalog(ctx, course); err != nil {
		return models.Course{}, 0, err
	}
	if err := s.index.AddContent(ctx, chunks); err != nil {
		return models.Course{}, 0, err
	}

	return course, len(chunks), nil
}

// AddCourseFolder indexes every course document in dir, skipping courses
// whose titles are already in the catalog. Safe to call on every startup:
// re-running over the same folder adds nothing. Returns the number of new
// courses and chunks added.
func (s *System) AddCourseFolder(ctx context.Context, dir string) (int, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("read course folder %s: %w", dir, err)
	}

	existing, err := s.index.ExistingCourseTitles(ctx)
	if err != nil {
		return 0, 0, err
	}
	known := make(map[string]bool, len(existing))
	for _, title := range existing {
		known[title] = true
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(filepath.Ext(entry.Name())) != ".txt" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	coursesAdded, chunksAdded := 0, 0
	for _, name := range names {
		path := filepath.Join(dir, name)

		raw, err := os.ReadFile(path)
		if err != nil {
			logger.Error("Failed to read course document", zap.String("path", path), zap.Error(err))
			continue
		}

		course, chunks, err := s.chunker.Process(string(raw))
		if err != nil {
			logger.Error("Failed to process course document", zap.String("path", path), zap.Error(err))
			continue
		}

		if known[course.Title] {
			logger.Info("Skipping already indexed course", zap.String("course", course.Title))
			continue
		}

		if err := s.index.AddCourseCatalog(ctx, course); err != nil {
			return coursesAdded, chunksAdded, err
		}
		if err := s.index.AddContent(ctx, chunks); err != nil {
			return coursesAdded, chunksAdded, err
		}

		known[course.Title] = true
		coursesAdded++
		chunksAdded += len(chunks)
		logger.Info("Indexed course",
			zap.String("course", course.Title),
			zap.Int("chunks", len(chunks)))
	}

	return coursesAdded, chunksAdded, nil
}

// Query answers one user query. An empty sessionID starts a fresh session;
// the (possibly new) session id is returned alongside the response so the
// caller can thread it through follow-up queries.
func (s *System) Query(ctx context.Context, sessionID, query string) (*agent.Response, string, error) {
	if sessionID == "" {
		sessionID = s.sessions.CreateSession()
	}

	response, err := s.agent.Execute(ctx, sessionID, query)
	if err != nil {
		return nil, sessionID, err
	}
	return response, sessionID, nil
}

// CourseAnalytics reports how many courses are indexed and their titles.
func (s *System) CourseAnalytics(ctx context.Context) (CourseAnalytics, error) {
	titles, err := s.index.ExistingCourseTitles(ctx)
	if err != nil {
		return CourseAnalytics{}, err
	}
	return CourseAnalytics{
		TotalCourses: len(titles),
		CourseTitles: titles,
	}, nil
}

// ClearSession drops the conversation history for a session.
func (s *System) ClearSession(ctx context.Context, sessionID string) {
	s.sessions.Clear(ctx, sessionID)
}
