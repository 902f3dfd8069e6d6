package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"coursechat/internal/vectorstore"
)

// CourseSearchTool searches course content with optional course and lesson
// filters, resolving partial course names against the catalog first.
type CourseSearchTool struct {
	index vectorstore.Index
	topK  int
}

func NewCourseSearchTool(index vectorstore.Index, topK int) *CourseSearchTool {
	if topK <= 0 {
		topK = 5
	}
	return &CourseSearchTool{index: index, topK: topK}
}

func (t *CourseSearchTool) Definition() Definition {
	return Definition{
		Name:        "search_course_content",
		Description: "Search course materials with smart course name matching and lesson filtering",
		InputSchema: InputSchema{
			Type: "object",
			Properties: map[string]Property{
				"query": {
					Type:        "string",
					Description: "What to search for in the course content",
				},
				"course_name": {
					Type:        "string",
					Description: "Course title (partial matches work, e.g. 'MCP', 'Introduction')",
				},
				"lesson_number": {
					Type:        "integer",
					Description: "Specific lesson number to search within (e.g. 1, 2, 3)",
				},
			},
			Required: []string{"query"},
		},
	}
}

func (t *CourseSearchTool) Execute(ctx context.Context, args map[string]any) (string, []string, error) {
	query, _ := args["query"].(string)
	if query == "" {
		return "", nil, errors.New("missing required argument: query")
	}

	var filter vectorstore.Filter
	courseName, _ := args["course_name"].(string)
	if courseName != "" {
		title, err := t.index.ResolveCourseTitle(ctx, courseName)
		if errors.Is(err, vectorstore.ErrCourseNotFound) {
			return fmt.Sprintf("No course found matching '%s'", courseName), nil, nil
		}
		if err != nil {
			return "", nil, err
		}
		filter.CourseTitle = title
	}
	if n, ok := lessonNumber(args["lesson_number"]); ok {
		filter.LessonNumber = &n
	}

	results, err := t.index.Search(ctx, query, filter, t.topK)
	if err != nil {
		return "", nil, err
	}
	if len(results) == 0 {
		return emptyMessage(filter), nil, nil
	}

	blocks := make([]string, 0, len(results))
	sources := make([]string, 0, len(results))
	for _, r := range results {
		label := r.SourceLabel()
		blocks = append(blocks, fmt.Sprintf("[%s]\n%s", label, r.Chunk.Content))
		sources = append(sources, label)
	}
	return strings.Join(blocks, "\n\n"), sources, nil
}

// lessonNumber accepts the numeric shapes JSON decoding can produce.
func lessonNumber(v any) (int, bool) {
	switch n := v.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

func emptyMessage(f vectorstore.Filter) string {
	var b strings.Builder
	b.WriteString("No relevant content found")
	if f.CourseTitle != "" {
		fmt.Fprintf(&b, " in course '%s'", f.CourseTitle)
	}
	if f.LessonNumber != nil {
		fmt.Fprintf(&b, " in lesson %d", *f.LessonNumber)
	}
	b.WriteString(".")
	return b.String()
}
