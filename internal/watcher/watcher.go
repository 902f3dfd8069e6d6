// Package watcher monitors the docs directory and ingests course
// documents as they appear or change.
package watcher

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"coursechat/internal/ingest"
)

// Watcher ingests .txt documents created or written under a directory.
// Duplicate course titles are skipped by the index, so re-ingesting an
// unchanged file is harmless.
type Watcher struct {
	fs     *fsnotify.Watcher
	ingest *ingest.Service
	log    *zap.Logger
}

func New(svc *ingest.Service, log *zap.Logger) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{fs: fs, ingest: svc, log: log}, nil
}

// Watch blocks processing events for dir until ctx is canceled.
func (w *Watcher) Watch(ctx context.Context, dir string) error {
	if err := w.fs.Add(dir); err != nil {
		return err
	}
	w.log.Info("watching docs directory", zap.String("dir", dir))
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if !strings.EqualFold(filepath.Ext(event.Name), ".txt") {
				continue
			}
			course, n, err := w.ingest.AddCourseDocument(ctx, event.Name)
			if err != nil {
				w.log.Warn("failed to ingest document",
					zap.String("path", event.Name),
					zap.Error(err))
				continue
			}
			if n > 0 {
				w.log.Info("ingested new document",
					zap.String("course", course.Title),
					zap.Int("chunks", n))
			}
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) Close() error {
	return w.fs.Close()
}
