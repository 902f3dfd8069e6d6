package docparser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursechat/internal/chunker"
)

const validDoc = `Course Title: Python Fundamentals
Course Link: https://example.com/python
Course Instructor: Jane Smith

Lesson 1: Getting Started
Lesson Link: https://example.com/python/1
Python is a high-level programming language. It was created by Guido van Rossum.
Python emphasizes readability and simplicity. You will love it.

Lesson 2: Variables
Lesson Link: https://example.com/python/2
Variables store data values in Python. They are created with assignment statements.
You can assign integers, strings, and other types.
`

func newParser(maxChars, overlap int) *Parser {
	return NewParser(chunker.NewSentenceChunker(maxChars, overlap))
}

func TestParseHeader(t *testing.T) {
	course, _, err := newParser(800, 100).Parse(validDoc)
	require.NoError(t, err)
	assert.Equal(t, "Python Fundamentals", course.Title)
	assert.Equal(t, "https://example.com/python", course.Link)
	assert.Equal(t, "Jane Smith", course.Instructor)
}

func TestParseMissingInstructor(t *testing.T) {
	doc := "Course Title: No Instructor\nCourse Link: https://example.com\n\nLesson 1: Intro\nSome content here.\n"
	course, _, err := newParser(800, 100).Parse(doc)
	require.NoError(t, err)
	assert.Empty(t, course.Instructor)
}

func TestParseFirstLineWithoutPrefixBecomesTitle(t *testing.T) {
	doc := "My Raw Title\nhttps://example.com\nSomeone\n\nLesson 1: First\nContent."
	course, _, err := newParser(800, 100).Parse(doc)
	require.NoError(t, err)
	assert.Equal(t, "My Raw Title", course.Title)
}

func TestParseEmptyDocument(t *testing.T) {
	_, _, err := newParser(800, 100).Parse("")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	_, _, err = newParser(800, 100).Parse("  \n\n  ")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestParseMissingHeaderBeforeLessons(t *testing.T) {
	_, _, err := newParser(800, 100).Parse("Lesson 1: Orphan\nContent here.")
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestParseLessons(t *testing.T) {
	course, _, err := newParser(800, 100).Parse(validDoc)
	require.NoError(t, err)
	require.Len(t, course.Lessons, 2)

	assert.Equal(t, 1, course.Lessons[0].Number)
	assert.Equal(t, "Getting Started", course.Lessons[0].Title)
	assert.Equal(t, "https://example.com/python/1", course.Lessons[0].Link)

	assert.Equal(t, 2, course.Lessons[1].Number)
	assert.Equal(t, "Variables", course.Lessons[1].Title)
}

func TestParseLessonWithoutLink(t *testing.T) {
	doc := "Course Title: Simple\nCourse Link: https://x.com\nCourse Instructor: Bob\n\nLesson 1: No Link Here\nContent without a lesson link.\n"
	course, _, err := newParser(800, 100).Parse(doc)
	require.NoError(t, err)
	require.Len(t, course.Lessons, 1)
	assert.Empty(t, course.Lessons[0].Link)
}

func TestParseChunks(t *testing.T) {
	_, chunks, err := newParser(800, 100).Parse(validDoc)
	require.NoError(t, err)
	require.NotEmpty(t, chunks)

	lessonNumbers := map[int]bool{}
	for i, c := range chunks {
		assert.Equal(t, "Python Fundamentals", c.CourseTitle)
		assert.Equal(t, i, c.ChunkIndex, "chunk indices must be sequential from zero")
		require.NotNil(t, c.LessonNumber)
		lessonNumbers[*c.LessonNumber] = true
	}
	assert.True(t, lessonNumbers[1])
	assert.True(t, lessonNumbers[2])
}

func TestParseFirstChunkOfLessonHasContextPrefix(t *testing.T) {
	_, chunks, err := newParser(800, 100).Parse(validDoc)
	require.NoError(t, err)
	var found bool
	for _, c := range chunks {
		if c.LessonNumber != nil && *c.LessonNumber == 1 {
			found = true
			assert.Contains(t, c.Content, "Lesson 1 content:")
			break
		}
	}
	assert.True(t, found)
}

func TestParseNoLessonMarkersStillChunks(t *testing.T) {
	doc := "Course Title: Flat Course\nCourse Link: https://example.com\nCourse Instructor: Bob\n\n" +
		"This is content without any lesson markers at all. It should still be chunked into the vector store.\n"
	course, chunks, err := newParser(800, 100).Parse(doc)
	require.NoError(t, err)
	assert.Empty(t, course.Lessons)
	require.NotEmpty(t, chunks)
	assert.Nil(t, chunks[0].LessonNumber)
}

// The last lesson sees no subsequent marker, so only the terminal flush can
// emit its content. Dropping it is the classic silent failure here.
func TestParseFinalLessonIsNotDropped(t *testing.T) {
	doc := "Course Title: X\nCourse Link: u\nCourse Instructor: A\n\n" +
		"Lesson 1: Intro\nLesson Link: l1\nHello world. This is lesson one.\n\n" +
		"Lesson 2: Next\nMore content here."
	_, chunks, err := newParser(40, 5).Parse(doc)
	require.NoError(t, err)

	var lesson1, lesson2 int
	for _, c := range chunks {
		require.NotNil(t, c.LessonNumber)
		switch *c.LessonNumber {
		case 1:
			lesson1++
		case 2:
			lesson2++
		}
	}
	assert.Greater(t, lesson1, 0, "lesson 1 must produce chunks")
	assert.Greater(t, lesson2, 0, "lesson 2 content must not be dropped")
}
