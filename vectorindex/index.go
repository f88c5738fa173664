package vectorindex

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/SaiNageswarS/course-rag/llm"
	"github.com/SaiNageswarS/course-rag/models"
	"github.com/SaiNageswarS/go-api-boot/logger"
	"go.uber.org/zap"
)

const (
	// CatalogCollection holds one entry per course, used only for fuzzy
	// course-name resolution.
	CatalogCollection = "course_catalog"
	// ContentCollection holds one entry per chunk, used for semantic
	// content retrieval.
	ContentCollection = "course_content"
)

// VectorIndex maintains the catalog and content collections and answers the
// two query types: fuzzy course-name resolution and filtered content search.
// Backend failures never escape as errors from Search; they are converted to
// error-bearing result sets at this boundary.
type VectorIndex struct {
	store      Store
	embedder   llm.Embedder
	maxResults int
	threshold  float64 // max catalog distance accepted as a name match
}

func New(store Store, embedder llm.Embedder, maxResults int, threshold float64) *VectorIndex {
	if maxResults <= 0 {
		maxResults = 5
	}
	return &VectorIndex{
		store:      store,
		embedder:   embedder,
		maxResults: maxResults,
		threshold:  threshold,
	}
}

// AddCourseCatalog registers a course for name resolution. Idempotent by
// title: a title already present returns without re-embedding.
func (v *VectorIndex) AddCourseCatalog(ctx context.Context, course models.Course) error {
	existing, err := v.store.Fetch(ctx, CatalogCollection, []string{course.Title})
	if err == nil && len(existing) > 0 {
		return nil
	}

	vector, err := v.embedder.Embed(ctx, course.Title)
	if err != nil {
		return fmt.Errorf("embed course title: %w", err)
	}

	lessonsJSON, err := json.Marshal(course.Lessons)
	if err != nil {
		return fmt.Errorf("marshal lessons: %w", err)
	}

	return v.store.Upsert(ctx, CatalogCollection, []Record{{
		ID:     course.Title,
		Vector: vector,
		Payload: map[string]any{
			"title":        course.Title,
			"instructor":   course.Instructor,
			"course_link":  course.Link,
			"lesson_count": len(course.Lessons),
			"lessons_json": string(lessonsJSON),
		},
	}})
}

// AddContent appends chunk embeddings. No idempotence check here; the caller
// guarantees a single ingestion per run.
func (v *VectorIndex) AddContent(ctx context.Context, chunks []models.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	records := make([]Record, 0, len(chunks))
	for _, chunk := range chunks {
		vector, err := v.embedder.Embed(ctx, chunk.Text)
		if err != nil {
			return fmt.Errorf("embed chunk %d of %q: %w", chunk.ChunkIndex, chunk.CourseTitle, err)
		}
		payload := map[string]any{
			"text":         chunk.Text,
			"course_title": chunk.CourseTitle,
			"chunk_index":  chunk.ChunkIndex,
		}
		if chunk.HasLesson() {
			payload["lesson_number"] = chunk.LessonNumber
		}
		records = append(records, Record{
			ID:      fmt.Sprintf("%s_%d", chunk.CourseTitle, chunk.ChunkIndex),
			Vector:  vector,
			Payload: payload,
		})
	}
	return v.store.Upsert(ctx, ContentCollection, records)
}

// ResolveCourse maps a fuzzy course name to an exact catalog title. The
// nearest catalog entry is accepted only when its distance stays below the
// configured threshold; empty catalogs, query failures and poor matches all
// resolve to not-found.
func (v *VectorIndex) ResolveCourse(ctx context.Context, name string) (string, bool) {
	vector, err := v.embedder.Embed(ctx, name)
	if err != nil {
		logger.Error("Failed to embed course name", zap.String("name", name), zap.Error(err))
		return "", false
	}

	hits, err := v.store.Query(ctx, CatalogCollection, vector, 1, nil)
	if err != nil {
		logger.Error("Catalog query failed", zap.String("name", name), zap.Error(err))
		return "", false
	}
	if len(hits) == 0 || hits[0].Distance > v.threshold {
		return "", false
	}

	title, _ := hits[0].Payload["title"].(string)
	return title, title != ""
}

// Search runs a filtered nearest-neighbor search over course content.
// An unresolvable course name yields an error result and no content query.
func (v *VectorIndex) Search(ctx context.Context, query, courseName string, lessonNumber *int) models.SearchResults {
	filter := map[string]any{}
	if courseName != "" {
		title, ok := v.ResolveCourse(ctx, courseName)
		if !ok {
			return models.ErrorResults(fmt.Sprintf("No course found matching '%s'", courseName))
		}
		filter["course_title"] = title
	}
	if lessonNumber != nil {
		filter["lesson_number"] = *lessonNumber
	}

	vector, err := v.embedder.Embed(ctx, query)
	if err != nil {
		logger.Error("Failed to embed query", zap.Error(err))
		return models.ErrorResults(fmt.Sprintf("Search error: %v", err))
	}

	hits, err := v.store.Query(ctx, ContentCollection, vector, v.maxResults, filter)
	if err != nil {
		logger.Error("Content query failed", zap.Error(err))
		return models.ErrorResults(fmt.Sprintf("Search error: %v", err))
	}

	results := make([]models.ScoredChunk, 0, len(hits))
	for _, hit := range hits {
		results = append(results, models.ScoredChunk{
			Chunk:    chunkFromPayload(hit.Payload),
			Distance: hit.Distance,
		})
	}
	// Equal distances are ordered by chunk index for determinism.
	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Distance != results[j].Distance {
			return results[i].Distance < results[j].Distance
		}
		return results[i].Chunk.ChunkIndex < results[j].Chunk.ChunkIndex
	})
	return models.SearchResults{Results: results}
}

// CourseOutline returns the catalog view of an exact course title.
func (v *VectorIndex) CourseOutline(ctx context.Context, title string) (*models.CourseOutline, error) {
	records, err := v.store.Fetch(ctx, CatalogCollection, []string{title})
	if err != nil {
		return nil, fmt.Errorf("fetch catalog entry: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("course %q not in catalog", title)
	}

	payload := records[0].Payload
	outline := &models.CourseOutline{Title: title}
	outline.Instructor, _ = payload["instructor"].(string)
	outline.Link, _ = payload["course_link"].(string)
	if lessonsJSON, ok := payload["lessons_json"].(string); ok && lessonsJSON != "" {
		if err := json.Unmarshal([]byte(lessonsJSON), &outline.Lessons); err != nil {
			return nil, fmt.Errorf("unmarshal lessons: %w", err)
		}
	}
	return outline, nil
}

// LessonLink returns the link of one lesson, falling back to the course link
// when the lesson has none.
func (v *VectorIndex) LessonLink(ctx context.Context, courseTitle string, lessonNumber *int) string {
	outline, err := v.CourseOutline(ctx, courseTitle)
	if err != nil {
		return ""
	}
	if lessonNumber != nil {
		for _, lesson := range outline.Lessons {
			if lesson.Number == *lessonNumber && lesson.Link != "" {
				return lesson.Link
			}
		}
	}
	return outline.Link
}

// ExistingCourseTitles lists catalog titles, sorted for stable output.
func (v *VectorIndex) ExistingCourseTitles(ctx context.Context) ([]string, error) {
	records, err := v.store.List(ctx, CatalogCollection)
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	titles := make([]string, 0, len(records))
	for _, rec := range records {
		if title, ok := rec.Payload["title"].(string); ok {
			titles = append(titles, title)
		}
	}
	sort.Strings(titles)
	return titles, nil
}

// ContentCount reports the number of stored content chunks.
func (v *VectorIndex) ContentCount(ctx context.Context) (int, error) {
	return v.store.Count(ctx, ContentCollection)
}

func chunkFromPayload(payload map[string]any) models.Chunk {
	chunk := models.Chunk{LessonNumber: -1}
	chunk.CourseTitle, _ = payload["course_title"].(string)
	if n, ok := asFloat(payload["chunk_index"]); ok {
		chunk.ChunkIndex = int(n)
	}
	if n, ok := asFloat(payload["lesson_number"]); ok {
		chunk.LessonNumber = int(n)
	}
	if text, ok := payload["text"].(string); ok {
		chunk.Text = text
	}
	return chunk
}
