package vectorstore

import (
	"context"
	"errors"

	"coursechat/internal/domain"
)

// ErrCourseNotFound is returned when a course name resolves to nothing.
var ErrCourseNotFound = errors.New("course not found")

// Filter narrows a content search. Zero-value fields are ignored.
type Filter struct {
	CourseTitle  string
	LessonNumber *int
}

// Index stores course metadata and content chunks and supports semantic
// search over both. Implementations must be safe for concurrent use.
type Index interface {
	// AddCourse stores a course and its chunks. It returns false without
	// modifying the index when a course with the same title already exists.
	AddCourse(ctx context.Context, course *domain.Course, chunks []domain.CourseChunk) (bool, error)

	// ResolveCourseTitle matches a partial or fuzzy course name to the
	// best-matching stored title, or returns ErrCourseNotFound.
	ResolveCourseTitle(ctx context.Context, name string) (string, error)

	// Search returns the topK most relevant chunks for the query,
	// restricted by the filter.
	Search(ctx context.Context, query string, f Filter, topK int) ([]domain.SearchResult, error)

	CourseCount(ctx context.Context) (int, error)
	CourseTitles(ctx context.Context) ([]string, error)
}
