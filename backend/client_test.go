package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/LegacyCodeHQ/codeviz/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const graphJSON = `{
  "nodes": [
    {"id": "a", "label": "app.js", "type": "js", "path": "src/app.js", "position": {"x": 0, "y": 0}},
    {"id": "b", "label": "db.js", "type": "js", "path": "src/db.js", "position": {"x": 150, "y": 0}}
  ],
  "edges": [{"from": "a", "to": "b"}],
  "metadata": {"project_name": "shop", "generated_at": 1700000000, "file_count": 2, "connection_count": 1}
}`

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := New(srv.URL)
	require.NoError(t, err)
	return c
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := New("localhost:5000")
	assert.Error(t, err)

	_, err = New("ftp://example.com")
	assert.Error(t, err)
}

func TestClient_ProgressURLs(t *testing.T) {
	c, err := New("http://localhost:5000/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:5000/progress", c.ProgressURL())
	assert.Equal(t, "ws://localhost:5000/progress", c.ProgressSocketURL())

	c, err = New("https://viz.example.com/base")
	require.NoError(t, err)
	assert.Equal(t, "wss://viz.example.com/base/progress", c.ProgressSocketURL())
}

func TestClient_FetchGraph(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, RouteGraph, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, graphJSON)
	}))

	snap, err := c.FetchGraph(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Nodes, 2)
	assert.Equal(t, []snapshot.Edge{{ID: "e0", Source: "a", Target: "b"}}, snap.Edges)
	require.NotNil(t, snap.Metadata)
	assert.Equal(t, "shop", snap.Metadata.ProjectName)
}

func TestClient_FetchGraph_NotFoundMeansNoGraph(t *testing.T) {
	c := newTestClient(t, http.NotFoundHandler())

	_, err := c.FetchGraph(context.Background())
	assert.ErrorIs(t, err, ErrNoGraph)
}

func TestClient_FetchGraph_MalformedPayload(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"nodes": [{"label": "no id"}]}`)
	}))

	_, err := c.FetchGraph(context.Background())
	var ingestion *snapshot.IngestionError
	assert.ErrorAs(t, err, &ingestion)
}

func TestClient_FetchGraph_TransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	c, err := New(srv.URL)
	require.NoError(t, err)
	srv.Close()

	_, err = c.FetchGraph(context.Background())
	var transport *TransportError
	require.ErrorAs(t, err, &transport)
	assert.Equal(t, "fetch graph", transport.Op)
	assert.False(t, errors.Is(err, ErrNoGraph))
}

func TestClient_Reindex(t *testing.T) {
	var calls int
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, RouteReindex, r.URL.Path)
		calls++
		fmt.Fprint(w, `{"status":"ok"}`)
	}))

	require.NoError(t, c.Reindex(context.Background()))
	assert.Equal(t, 1, calls)
}

func TestClient_Reindex_StatusError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	err := c.Reindex(context.Background())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusInternalServerError, statusErr.StatusCode)
}

func TestClient_Analyze_EscapesPath(t *testing.T) {
	var got string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, RouteAnalyze, r.URL.Path)
		got = r.URL.Query().Get("path")
	}))

	require.NoError(t, c.Analyze(context.Background(), "/home/me/my project&x"))
	assert.Equal(t, "/home/me/my project&x", got)
}

func TestClient_Analyze_Failure(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))

	err := c.Analyze(context.Background(), "/nope")
	assert.ErrorIs(t, err, ErrAnalysisFailed)
	assert.Contains(t, err.Error(), "analysis failed")
}

func TestClient_OpenInEditor(t *testing.T) {
	var escaped string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		escaped = r.URL.EscapedPath()
		_ = json.NewEncoder(w).Encode(OpenResult{Status: "opened", File: r.URL.Path[len(RouteOpenInEditor):]})
	}))

	result, err := c.OpenInEditor(context.Background(), "src/app.js")
	require.NoError(t, err)
	assert.Equal(t, "/api/open-in-vscode/src%2Fapp.js", escaped)
	assert.Equal(t, OpenResult{Status: "opened", File: "src/app.js"}, result)
}

func TestClient_OpenInEditor_ServerError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"status":"error","error":"code: command not found"}`)
	}))

	_, err := c.OpenInEditor(context.Background(), "src/app.js")
	var editorErr *EditorError
	require.ErrorAs(t, err, &editorErr)
	assert.Equal(t, "src/app.js", editorErr.File)
	assert.Equal(t, "code: command not found", editorErr.Message)
}

func TestClient_OpenInEditor_NonJSONFailure(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))

	_, err := c.OpenInEditor(context.Background(), "a.js")
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
}
