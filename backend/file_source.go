package backend

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/LegacyCodeHQ/codeviz/snapshot"
	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

const debounceInterval = 300 * time.Millisecond

// FileSource serves a graph.json that the server persisted to disk, without a
// running server.
type FileSource struct {
	path   string
	logger *zap.Logger
}

// NewFileSource reads the graph from path.
func NewFileSource(path string, logger *zap.Logger) *FileSource {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileSource{path: path, logger: logger.Named("file")}
}

// Path is the graph file being served.
func (s *FileSource) Path() string {
	return s.path
}

func (s *FileSource) FetchGraph(ctx context.Context) (*snapshot.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s does not exist", ErrNoGraph, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open graph file: %w", err)
	}
	defer f.Close()

	return snapshot.Decode(f)
}

// Reindex checks that the file is still readable; the next FetchGraph picks up
// whatever is on disk.
func (s *FileSource) Reindex(ctx context.Context) error {
	_, err := s.FetchGraph(ctx)
	return err
}

func (s *FileSource) Analyze(context.Context, string) error {
	return ErrUnsupported
}

func (s *FileSource) OpenInEditor(context.Context, string) (OpenResult, error) {
	return OpenResult{}, ErrUnsupported
}

// Watch calls onChange, debounced, whenever the graph file is rewritten. It
// watches the containing directory so that atomic replace-by-rename is seen.
// Watch blocks until ctx is done.
func (s *FileSource) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(s.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	var debounceTimer *time.Timer
	for {
		select {
		case <-ctx.Done():
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !s.isRelevantChange(event) {
				continue
			}

			s.logger.Debug("graph file changed", zap.String("op", event.Op.String()))
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(debounceInterval, onChange)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("watcher error", zap.Error(err))
		}
	}
}

func (s *FileSource) isRelevantChange(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Rename) {
		return false
	}
	return filepath.Clean(event.Name) == filepath.Clean(s.path)
}
