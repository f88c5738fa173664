package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/SaiNageswarS/course-rag/vectorindex"
	"github.com/ollama/ollama/api"
)

// CourseOutlineTool returns the structure of a course: title, instructor and
// the ordered lesson list. Outlines are not content excerpts, so this tool
// never records citation sources.
type CourseOutlineTool struct {
	index *vectorindex.VectorIndex
}

func NewCourseOutlineTool(index *vectorindex.VectorIndex) *CourseOutlineTool {
	return &CourseOutlineTool{index: index}
}

func (t *CourseOutlineTool) Definition() api.Tool {
	tool := api.Tool{Type: "function"}
	tool.Function.Name = "get_course_outline"
	tool.Function.Description = "Get the complete outline of a course including course title, link, and all lessons"
	tool.Function.Parameters.Type = "object"
	tool.Function.Parameters.Required = []string{"course_name"}
	tool.Function.Parameters.Properties = map[string]api.ToolProperty{
		"course_name": {
			Type:        api.PropertyType{"string"},
			Description: "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
		},
	}
	return tool
}

func (t *CourseOutlineTool) Execute(ctx context.Context, args api.ToolCallFunctionArguments) (string, error) {
	courseName, err := requireStringArg(args, "course_name")
	if err != nil {
		return "", err
	}

	title, ok := t.index.ResolveCourse(ctx, courseName)
	if !ok {
		return fmt.Sprintf("No course found matching '%s'", courseName), nil
	}

	outline, err := t.index.CourseOutline(ctx, title)
	if err != nil {
		return fmt.Sprintf("Could not retrieve outline for course '%s'", courseName), nil
	}

	var out strings.Builder
	fmt.Fprintf(&out, "**Course Title:** %s\n", outline.Title)
	if outline.Link != "" {
		fmt.Fprintf(&out, "**Course Link:** %s\n", outline.Link)
	}
	if outline.Instructor != "" {
		fmt.Fprintf(&out, "**Instructor:** %s\n", outline.Instructor)
	}
	fmt.Fprintf(&out, "**Total Lessons:** %d\n", len(outline.Lessons))
	out.WriteString("\n**Lessons:**\n")
	for _, lesson := range outline.Lessons {
		fmt.Fprintf(&out, "  - Lesson %d: %s\n", lesson.Number, lesson.Title)
	}
	return strings.TrimRight(out.String(), "\n"), nil
}
