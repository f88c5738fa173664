package rag

import (
	"context"
	"hash/fnv"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/SaiNageswarS/course-rag/agent"
	"github.com/SaiNageswarS/course-rag/chunker"
	"github.com/SaiNageswarS/course-rag/llm"
	"github.com/SaiNageswarS/course-rag/memory"
	"github.com/SaiNageswarS/course-rag/tools"
	"github.com/SaiNageswarS/course-rag/vectorindex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hashEmbedder derives a deterministic unit vector from the text so every
// distinct input embeds somewhere stable without a model.
type hashEmbedder struct{}

func (hashEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(text))
	sum := h.Sum64()

	v := []float32{
		float32(sum&0xffff) + 1,
		float32((sum>>16)&0xffff) + 1,
		float32((sum>>32)&0xffff) + 1,
	}
	var norm float64
	for _, x := range v {
		norm += float64(x) * float64(x)
	}
	scale := float32(1 / math.Sqrt(norm))
	for i := range v {
		v[i] *= scale
	}
	return v, nil
}

type cannedModel struct {
	answer string
	calls  int
}

func (m *cannedModel) GenerateInference(ctx context.Context, messages []llm.Message, opts ...llm.LLMOption) (*llm.Completion, error) {
	m.calls++
	return &llm.Completion{Text: m.answer}, nil
}

func (m *cannedModel) GetModel() string { return "canned" }

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func newTestSystem(t *testing.T, answer string) (*System, *vectorindex.VectorIndex, memory.ConversationStore) {
	t.Helper()
	index := vectorindex.New(vectorindex.NewMemoryStore(), hashEmbedder{}, 5, 0.55)
	chk, err := chunker.New(200, 50)
	require.NoError(t, err)
	sessions := memory.NewInMemoryStore(4)

	registry := tools.NewRegistry()
	require.NoError(t, registry.Register(tools.NewCourseSearchTool(index)))
	require.NoError(t, registry.Register(tools.NewCourseOutlineTool(index)))

	courseAgent := agent.NewAgentBuilder().
		WithModel(&cannedModel{answer: answer}).
		WithRegistry(registry).
		WithSessions(sessions).
		WithSystemPrompt("test prompt").
		Build()

	return NewSystem(chk, index, courseAgent, sessions), index, sessions
}

const twoLessonDoc = `Course Title: Test Course
Course Instructor: Grace

Lesson 1: Alpha
Alpha body sentence one. Alpha body sentence two.

Lesson 2: Beta
Beta body sentence one. Beta body sentence two.
`

func TestAddCourseFolderIsIdempotentAcrossRuns(t *testing.T) {
	system, index, _ := newTestSystem(t, "ok")
	ctx := context.Background()

	dir := t.TempDir()
	writeDoc(t, dir, "course1.txt", twoLessonDoc)

	courses, chunks, err := system.AddCourseFolder(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, courses)
	assert.Greater(t, chunks, 0)

	countAfterFirst, err := index.ContentCount(ctx)
	require.NoError(t, err)

	// Second run over the same folder adds nothing.
	courses, chunks, err = system.AddCourseFolder(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 0, courses)
	assert.Equal(t, 0, chunks)

	countAfterSecond, err := index.ContentCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, countAfterFirst, countAfterSecond)

	titles, err := index.ExistingCourseTitles(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Test Course"}, titles)
}

func TestAddCourseFolderSkipsUnparseableAndForeignFiles(t *testing.T) {
	system, _, _ := newTestSystem(t, "ok")
	ctx := context.Background()

	dir := t.TempDir()
	writeDoc(t, dir, "good.txt", twoLessonDoc)
	writeDoc(t, dir, "empty.txt", "   \n")
	writeDoc(t, dir, "notes.md", "Course Title: Ignored\nbody.")

	courses, _, err := system.AddCourseFolder(ctx, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, courses)
}

func TestAddCourseDocument(t *testing.T) {
	system, index, _ := newTestSystem(t, "ok")
	ctx := context.Background()

	dir := t.TempDir()
	path := filepath.Join(dir, "course.txt")
	require.NoError(t, os.WriteFile(path, []byte(twoLessonDoc), 0o644))

	course, chunks, err := system.AddCourseDocument(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, "Test Course", course.Title)
	assert.Greater(t, chunks, 0)

	count, err := index.ContentCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, chunks, count)

	_, _, err = system.AddCourseDocument(ctx, filepath.Join(dir, "missing.txt"))
	assert.Error(t, err)
}

func TestQueryCreatesSessionWhenMissing(t *testing.T) {
	system, _, sessions := newTestSystem(t, "The answer.")
	ctx := context.Background()

	response, sessionID, err := system.Query(ctx, "", "What is alpha?")
	require.NoError(t, err)
	assert.Equal(t, "The answer.", response.Answer)
	require.NotEmpty(t, sessionID)

	history := sessions.History(ctx, sessionID)
	require.Len(t, history, 2)
	assert.Equal(t, "What is alpha?", history[0].Content)
}

func TestQueryReusesSession(t *testing.T) {
	system, _, sessions := newTestSystem(t, "answer")
	ctx := context.Background()

	_, sessionID, err := system.Query(ctx, "", "first")
	require.NoError(t, err)
	_, again, err := system.Query(ctx, sessionID, "second")
	require.NoError(t, err)

	assert.Equal(t, sessionID, again)
	assert.Len(t, sessions.History(ctx, sessionID), 4)
}

func TestClearSession(t *testing.T) {
	system, _, sessions := newTestSystem(t, "answer")
	ctx := context.Background()

	_, sessionID, err := system.Query(ctx, "", "first")
	require.NoError(t, err)
	system.ClearSession(ctx, sessionID)
	assert.Empty(t, sessions.History(ctx, sessionID))
}

func TestCourseAnalytics(t *testing.T) {
	system, _, _ := newTestSystem(t, "ok")
	ctx := context.Background()

	analytics, err := system.CourseAnalytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, analytics.TotalCourses)

	dir := t.TempDir()
	writeDoc(t, dir, "a.txt", twoLessonDoc)
	writeDoc(t, dir, "b.txt", "Course Title: Another Course\n\nLesson 1: Only\nSome body text here.\n")
	_, _, err = system.AddCourseFolder(ctx, dir)
	require.NoError(t, err)

	analytics, err = system.CourseAnalytics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, analytics.TotalCourses)
	assert.Equal(t, []string{"Another Course", "Test Course"}, analytics.CourseTitles)
}
