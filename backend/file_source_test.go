package backend

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSource_FetchGraph(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, os.WriteFile(path, []byte(graphJSON), 0o644))

	src := NewFileSource(path, nil)
	snap, err := src.FetchGraph(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Nodes, 2)
	assert.Len(t, snap.Edges, 1)
	assert.NoError(t, src.Reindex(context.Background()))
}

func TestFileSource_MissingFileMeansNoGraph(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "graph.json"), nil)

	_, err := src.FetchGraph(context.Background())
	assert.ErrorIs(t, err, ErrNoGraph)
}

func TestFileSource_UnsupportedOperations(t *testing.T) {
	src := NewFileSource("graph.json", nil)

	assert.ErrorIs(t, src.Analyze(context.Background(), "/tmp"), ErrUnsupported)
	_, err := src.OpenInEditor(context.Background(), "a.js")
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestFileSource_IsRelevantChange(t *testing.T) {
	dir := t.TempDir()
	src := NewFileSource(filepath.Join(dir, "graph.json"), nil)

	assert.True(t, src.isRelevantChange(fsnotify.Event{Name: filepath.Join(dir, "graph.json"), Op: fsnotify.Write}))
	assert.True(t, src.isRelevantChange(fsnotify.Event{Name: filepath.Join(dir, "graph.json"), Op: fsnotify.Create}))
	assert.False(t, src.isRelevantChange(fsnotify.Event{Name: filepath.Join(dir, "graph.json"), Op: fsnotify.Chmod}))
	assert.False(t, src.isRelevantChange(fsnotify.Event{Name: filepath.Join(dir, "other.json"), Op: fsnotify.Write}))
}

func TestFileSource_WatchDebouncesWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "graph.json")
	require.NoError(t, os.WriteFile(path, []byte(graphJSON), 0o644))

	src := NewFileSource(path, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var changes atomic.Int32
	done := make(chan error, 1)
	go func() { done <- src.Watch(ctx, func() { changes.Add(1) }) }()

	// Give the watcher time to register the directory.
	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(path, []byte(graphJSON), 0o644))
	}

	require.Eventually(t, func() bool { return changes.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)
	assert.Equal(t, int32(1), changes.Load())

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watch did not stop")
	}
}
