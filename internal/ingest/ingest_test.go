package ingest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursechat/internal/chunker"
	"coursechat/internal/docparser"
	"coursechat/internal/embedding/tfidf"
	"coursechat/internal/vectorstore/memory"
)

const courseDoc = `Course Title: Test Course
Course Link: https://example.com/course
Course Instructor: Test Instructor

Lesson 0: Introduction
Welcome to the course. This lesson introduces the basic ideas.

Lesson 1: Getting Started
Install the tooling and run the first example program.
`

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newService(t *testing.T) (*Service, *memory.Index) {
	t.Helper()
	idx := memory.NewIndex(tfidf.NewEmbedder())
	parser := docparser.NewParser(chunker.NewSentenceChunker(200, 20))
	return NewService(parser, idx, nil), idx
}

func TestAddCourseDocument(t *testing.T) {
	svc, idx := newService(t)
	dir := t.TempDir()
	path := writeDoc(t, dir, "course.txt", courseDoc)

	course, n, err := svc.AddCourseDocument(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "Test Course", course.Title)
	assert.Greater(t, n, 0)

	count, err := idx.CourseCount(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestAddCourseDocumentSkipsDuplicate(t *testing.T) {
	svc, _ := newService(t)
	dir := t.TempDir()
	path := writeDoc(t, dir, "course.txt", courseDoc)

	_, _, err := svc.AddCourseDocument(context.Background(), path)
	require.NoError(t, err)

	_, n, err := svc.AddCourseDocument(context.Background(), path)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestAddCourseFolderSkipsMalformed(t *testing.T) {
	svc, idx := newService(t)
	dir := t.TempDir()
	writeDoc(t, dir, "good.txt", courseDoc)
	writeDoc(t, dir, "bad.txt", "")
	writeDoc(t, dir, "notes.md", "ignored extension")

	courses, chunks, err := svc.AddCourseFolder(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, 1, courses)
	assert.Greater(t, chunks, 0)

	titles, err := idx.CourseTitles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Test Course"}, titles)
}

func TestAddCourseFolderMissingDir(t *testing.T) {
	svc, _ := newService(t)
	_, _, err := svc.AddCourseFolder(context.Background(), filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
