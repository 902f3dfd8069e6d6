package domain

import "strconv"

// Course is one ingested course document. Immutable after ingestion.
type Course struct {
	Title      string   `json:"title"`
	Link       string   `json:"course_link,omitempty"`
	Instructor string   `json:"instructor,omitempty"`
	Lessons    []Lesson `json:"lessons,omitempty"`
}

// Lesson is a numbered section of a course. Numbers increase within a
// course but are not globally unique.
type Lesson struct {
	Number int    `json:"lesson_number"`
	Title  string `json:"title"`
	Link   string `json:"lesson_link,omitempty"`
}

// CourseChunk is a bounded span of course text stored as a retrievable unit.
// LessonNumber is nil for content that precedes any lesson marker.
type CourseChunk struct {
	Content      string `json:"content"`
	CourseTitle  string `json:"course_title"`
	LessonNumber *int   `json:"lesson_number,omitempty"`
	ChunkIndex   int    `json:"chunk_index"`
}

// SearchResult is a matching chunk with a relevance score.
type SearchResult struct {
	Chunk CourseChunk
	Score float64
}

// SourceLabel renders the citation label for a result, e.g.
// "Python 101 - Lesson 2". Chunks outside any lesson cite the course alone.
func (r SearchResult) SourceLabel() string {
	if r.Chunk.LessonNumber == nil {
		return r.Chunk.CourseTitle
	}
	return r.Chunk.CourseTitle + " - Lesson " + strconv.Itoa(*r.Chunk.LessonNumber)
}
