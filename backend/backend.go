// Package backend talks to the graph server: it fetches snapshots and triggers
// reindexing, analysis, and opening files in an editor.
package backend

import (
	"context"

	"github.com/LegacyCodeHQ/codeviz/snapshot"
)

const (
	RouteGraph        = "/graph.json"
	RouteProgress     = "/progress"
	RouteReindex      = "/api/reindex"
	RouteAnalyze      = "/api/analyze"
	RouteOpenInEditor = "/api/open-in-vscode/"
)

// Backend is the request side of the graph server.
type Backend interface {
	FetchGraph(ctx context.Context) (*snapshot.Snapshot, error)
	Reindex(ctx context.Context) error
	Analyze(ctx context.Context, path string) error
	OpenInEditor(ctx context.Context, path string) (OpenResult, error)
}

// OpenResult is the server's answer to an open-in-editor request.
type OpenResult struct {
	Status string `json:"status"`
	File   string `json:"file,omitempty"`
	Error  string `json:"error,omitempty"`
}

const (
	openStatusOpened = "opened"
	openStatusError  = "error"
)
