package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/SaiNageswarS/course-rag/models"
	"github.com/SaiNageswarS/course-rag/vectorindex"
	"github.com/ollama/ollama/api"
)

// CourseSearchTool searches course content with fuzzy course-name matching
// and optional lesson filtering.
type CourseSearchTool struct {
	index   *vectorindex.VectorIndex
	sources []models.Source
}

func NewCourseSearchTool(index *vectorindex.VectorIndex) *CourseSearchTool {
	return &CourseSearchTool{index: index}
}

func (t *CourseSearchTool) Definition() api.Tool {
	tool := api.Tool{Type: "function"}
	tool.Function.Name = "search_course_content"
	tool.Function.Description = "Search course materials with smart course name matching and lesson filtering"
	tool.Function.Parameters.Type = "object"
	tool.Function.Parameters.Required = []string{"query"}
	tool.Function.Parameters.Properties = map[string]api.ToolProperty{
		"query": {
			Type:        api.PropertyType{"string"},
			Description: "What to search for in the course content",
		},
		"course_name": {
			Type:        api.PropertyType{"string"},
			Description: "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
		},
		"lesson_number": {
			Type:        api.PropertyType{"integer"},
			Description: "Specific lesson number to search within (e.g. 1, 2, 3)",
		},
	}
	return tool
}

func (t *CourseSearchTool) Execute(ctx context.Context, args api.ToolCallFunctionArguments) (string, error) {
	query, err := requireStringArg(args, "query")
	if err != nil {
		return "", err
	}
	courseName := stringArg(args, "course_name")
	lessonNumber := intArg(args, "lesson_number")

	results := t.index.Search(ctx, query, courseName, lessonNumber)
	if results.Err != "" {
		t.sources = nil
		return results.Err, nil
	}
	if results.IsEmpty() {
		t.sources = nil
		var filterInfo strings.Builder
		if courseName != "" {
			fmt.Fprintf(&filterInfo, " in course '%s'", courseName)
		}
		if lessonNumber != nil {
			fmt.Fprintf(&filterInfo, " in lesson %d", *lessonNumber)
		}
		return fmt.Sprintf("No relevant content found%s.", filterInfo.String()), nil
	}

	return t.formatResults(ctx, results), nil
}

// formatResults renders ranked chunks with their course/lesson context and
// records a parallel sources list, replacing sources from any prior call.
func (t *CourseSearchTool) formatResults(ctx context.Context, results models.SearchResults) string {
	var formatted []string
	var sources []models.Source

	for _, scored := range results.Results {
		chunk := scored.Chunk
		label := chunk.CourseTitle
		var lessonNumber *int
		if chunk.HasLesson() {
			label = fmt.Sprintf("%s - Lesson %d", chunk.CourseTitle, chunk.LessonNumber)
			n := chunk.LessonNumber
			lessonNumber = &n
		}

		formatted = append(formatted, fmt.Sprintf("[%s]\n%s", label, chunk.Text))
		sources = append(sources, models.Source{
			Label: label,
			Link:  t.index.LessonLink(ctx, chunk.CourseTitle, lessonNumber),
		})
	}

	t.sources = sources
	return strings.Join(formatted, "\n\n")
}

func (t *CourseSearchTool) lastSources() []models.Source { return t.sources }

func (t *CourseSearchTool) clearSources() { t.sources = nil }
