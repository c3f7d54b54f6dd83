package serve

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/LegacyCodeHQ/codeviz/backend"
	"github.com/LegacyCodeHQ/codeviz/internal/broker"
	"github.com/LegacyCodeHQ/codeviz/progress"
	"github.com/LegacyCodeHQ/codeviz/snapshot"
	"go.uber.org/zap"
)

const statusReindexing progress.Status = "reindexing"

// server exposes a graph file over the same routes the view command reads.
type server struct {
	source *backend.FileSource
	states *broker.Broker[progress.State]
	logger *zap.Logger
}

func newServer(source *backend.FileSource, logger *zap.Logger) *server {
	s := &server{
		source: source,
		states: broker.New[progress.State](),
		logger: logger,
	}
	s.states.Publish(progress.Idle())
	return s
}

func (s *server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(backend.RouteGraph, s.handleGraph)
	mux.HandleFunc(backend.RouteProgress, s.handleProgress)
	mux.HandleFunc(backend.RouteReindex, s.handleReindex)
	mux.HandleFunc(backend.RouteAnalyze, s.handleAnalyze)
	mux.HandleFunc(backend.RouteOpenInEditor, s.handleOpen)
	return mux
}

func (s *server) publish(state progress.State) {
	s.states.Publish(state)
}

func (s *server) close() {
	s.states.Close()
}

func (s *server) handleGraph(w http.ResponseWriter, r *http.Request) {
	snap, err := s.source.FetchGraph(r.Context())
	if errors.Is(err, backend.ErrNoGraph) {
		http.Error(w, "no graph yet", http.StatusNotFound)
		return
	}
	if err != nil {
		s.logger.Warn("failed to read graph", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := snapshot.Encode(w, snap); err != nil {
		s.logger.Warn("failed to write graph", zap.Error(err))
	}
}

func (s *server) handleProgress(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, unsubscribe := s.states.Subscribe()
	defer unsubscribe()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case state, ok := <-ch:
			if !ok {
				return
			}
			data, err := json.Marshal(state)
			if err != nil {
				s.logger.Warn("failed to encode progress", zap.Error(err))
				continue
			}
			fmt.Fprintf(w, "data: %s\n\n", data)
			flusher.Flush()
		}
	}
}

func (s *server) handleReindex(w http.ResponseWriter, r *http.Request) {
	s.publish(progress.State{Status: statusReindexing, Message: "Reading " + s.source.Path()})

	if err := s.source.Reindex(r.Context()); err != nil {
		s.publish(progress.State{Status: progress.StatusError, Message: err.Error()})
		status := http.StatusInternalServerError
		if errors.Is(err, backend.ErrNoGraph) {
			status = http.StatusNotFound
		}
		http.Error(w, err.Error(), status)
		return
	}

	s.publish(progress.State{Status: progress.StatusComplete, Message: "Graph reloaded", Percentage: 100})
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleAnalyze(w http.ResponseWriter, _ *http.Request) {
	http.Error(w, "analysis is not available when serving a graph file", http.StatusNotImplemented)
}

func (s *server) handleOpen(w http.ResponseWriter, r *http.Request) {
	file := strings.TrimPrefix(r.URL.Path, backend.RouteOpenInEditor)
	writeJSON(w, http.StatusOK, backend.OpenResult{
		Status: "error",
		File:   file,
		Error:  "opening files is not available when serving a graph file",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
