// Package ingest loads course documents from disk into the index.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"coursechat/internal/docparser"
	"coursechat/internal/domain"
	"coursechat/internal/vectorstore"
)

// Service parses course documents and stores them in the index.
type Service struct {
	parser *docparser.Parser
	index  vectorstore.Index
	log    *zap.Logger
}

func NewService(parser *docparser.Parser, index vectorstore.Index, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{parser: parser, index: index, log: log}
}

// AddCourseDocument ingests a single document. It returns the parsed
// course and the number of chunks stored, which is zero when a course
// with the same title is already indexed.
func (s *Service) AddCourseDocument(ctx context.Context, path string) (*domain.Course, int, error) {
	course, chunks, err := s.parser.ParseFile(path)
	if err != nil {
		return nil, 0, err
	}
	added, err := s.index.AddCourse(ctx, course, chunks)
	if err != nil {
		return nil, 0, fmt.Errorf("index course %q: %w", course.Title, err)
	}
	if !added {
		s.log.Info("course already indexed, skipping",
			zap.String("course", course.Title),
			zap.String("path", path))
		return course, 0, nil
	}
	s.log.Info("course ingested",
		zap.String("course", course.Title),
		zap.Int("chunks", len(chunks)))
	return course, len(chunks), nil
}

// AddCourseFolder ingests every .txt document in dir. Documents that fail
// to parse are skipped with a warning; the rest are still ingested. It
// returns the number of new courses and chunks added.
func (s *Service) AddCourseFolder(ctx context.Context, dir string) (int, int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, fmt.Errorf("read docs dir: %w", err)
	}
	courses, total := 0, 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".txt") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return courses, total, err
		}
		path := filepath.Join(dir, entry.Name())
		_, n, err := s.AddCourseDocument(ctx, path)
		if errors.Is(err, docparser.ErrInvalidFormat) {
			s.log.Warn("skipping malformed document",
				zap.String("path", path),
				zap.Error(err))
			continue
		}
		if err != nil {
			return courses, total, err
		}
		if n > 0 {
			courses++
			total += n
		}
	}
	return courses, total, nil
}
