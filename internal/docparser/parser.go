package docparser

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	"coursechat/internal/chunker"
	"coursechat/internal/domain"
)

// ErrInvalidFormat reports a document whose mandatory header is missing or
// malformed. Ingestion skips such documents and continues.
var ErrInvalidFormat = errors.New("invalid course document format")

var lessonMarkerRe = regexp.MustCompile(`^Lesson\s+(\d+):\s*(.*)$`)

const (
	titlePrefix      = "Course Title:"
	linkPrefix       = "Course Link:"
	instructorPrefix = "Course Instructor:"
	lessonLinkPrefix = "Lesson Link:"
)

// Parser turns a structured course document into a course record plus the
// ordered chunks of its lesson content.
type Parser struct {
	chunker *chunker.SentenceChunker
}

func NewParser(c *chunker.SentenceChunker) *Parser {
	return &Parser{chunker: c}
}

// ParseFile reads and parses the course document at path.
func (p *Parser) ParseFile(path string) (*domain.Course, []domain.CourseChunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read course document: %w", err)
	}
	return p.Parse(string(data))
}

// Parse extracts the header, then scans the body line by line. Each lesson
// marker flushes the previous lesson's accumulated text through the chunker;
// the final lesson, which no marker follows, is flushed in a terminal step.
func (p *Parser) Parse(raw string) (*domain.Course, []domain.CourseChunk, error) {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	course, bodyStart, err := parseHeader(lines)
	if err != nil {
		return nil, nil, err
	}

	var chunks []domain.CourseChunk
	chunkIndex := 0
	var current *domain.Lesson
	var buf []string

	flush := func() {
		text := strings.TrimSpace(strings.Join(buf, "\n"))
		buf = buf[:0]
		if text == "" {
			return
		}
		pieces := p.chunker.Chunk(text)
		for i, piece := range pieces {
			chunk := domain.CourseChunk{
				Content:     piece,
				CourseTitle: course.Title,
				ChunkIndex:  chunkIndex,
			}
			if current != nil {
				n := current.Number
				chunk.LessonNumber = &n
				// context prefix so retrieval can place the chunk
				if i == 0 {
					chunk.Content = fmt.Sprintf("Lesson %d content: %s", n, piece)
				}
			}
			chunks = append(chunks, chunk)
			chunkIndex++
		}
	}

	for i := bodyStart; i < len(lines); i++ {
		line := strings.TrimSpace(lines[i])
		m := lessonMarkerRe.FindStringSubmatch(line)
		if m == nil {
			buf = append(buf, lines[i])
			continue
		}
		flush()
		number, _ := strconv.Atoi(m[1])
		lesson := domain.Lesson{Number: number, Title: strings.TrimSpace(m[2])}
		if i+1 < len(lines) {
			if next := strings.TrimSpace(lines[i+1]); strings.HasPrefix(next, lessonLinkPrefix) {
				lesson.Link = strings.TrimSpace(strings.TrimPrefix(next, lessonLinkPrefix))
				i++
			}
		}
		course.Lessons = append(course.Lessons, lesson)
		current = &course.Lessons[len(course.Lessons)-1]
	}
	// terminal flush: the last lesson has seen no later marker to trigger it
	flush()

	return course, chunks, nil
}

// parseHeader reads the fixed-order title/link/instructor block. The title is
// mandatory; a first line without the "Course Title:" prefix is used verbatim.
// Link and instructor lines are optional.
func parseHeader(lines []string) (*domain.Course, int, error) {
	i := 0
	for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
		i++
	}
	if i >= len(lines) {
		return nil, 0, fmt.Errorf("%w: empty document", ErrInvalidFormat)
	}

	first := strings.TrimSpace(lines[i])
	if lessonMarkerRe.MatchString(first) {
		return nil, 0, fmt.Errorf("%w: missing course title header", ErrInvalidFormat)
	}
	course := &domain.Course{}
	if strings.HasPrefix(first, titlePrefix) {
		course.Title = strings.TrimSpace(strings.TrimPrefix(first, titlePrefix))
	} else {
		course.Title = first
	}
	if course.Title == "" {
		return nil, 0, fmt.Errorf("%w: blank course title", ErrInvalidFormat)
	}
	i++

	if i < len(lines) {
		if line := strings.TrimSpace(lines[i]); strings.HasPrefix(line, linkPrefix) {
			course.Link = strings.TrimSpace(strings.TrimPrefix(line, linkPrefix))
			i++
		}
	}
	if i < len(lines) {
		if line := strings.TrimSpace(lines[i]); strings.HasPrefix(line, instructorPrefix) {
			course.Instructor = strings.TrimSpace(strings.TrimPrefix(line, instructorPrefix))
			i++
		}
	}
	return course, i, nil
}
