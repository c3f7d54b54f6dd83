package orchestrator

import (
	"context"
	"testing"

	"github.com/LegacyCodeHQ/codeviz/snapshot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClick_TogglesSelection(t *testing.T) {
	o := newStarted(t, &fakeBackend{results: []fetchResult{{snap: projectGraph()}}})

	state, err := o.Click("a")
	require.NoError(t, err)
	assert.Equal(t, "a", state.SelectedID)
	assert.Equal(t, []string{"a", "b", "c"}, state.HighlightedIDs())

	state, err = o.Click("a")
	require.NoError(t, err)
	assert.False(t, state.Selected)
	assert.Empty(t, state.HighlightedIDs())
}

func TestSearch_EnterSelectsFirstResult(t *testing.T) {
	o := newStarted(t, &fakeBackend{results: []fetchResult{{snap: projectGraph()}}})

	results := o.Search("DB")
	require.Len(t, results, 1)
	assert.Equal(t, "b", results[0].ID)

	view := o.View()
	assert.Equal(t, "DB", view.Query)
	assert.True(t, view.ResultsVisible)

	state, ok := o.SearchEnter()
	require.True(t, ok)
	assert.Equal(t, "b", state.SelectedID)

	view = o.View()
	assert.Empty(t, view.Query)
	assert.False(t, view.ResultsVisible)
}

func TestSearch_EnterWithoutResults(t *testing.T) {
	o := newStarted(t, &fakeBackend{results: []fetchResult{{snap: projectGraph()}}})

	o.Search("zzz")
	_, ok := o.SearchEnter()
	assert.False(t, ok)
	assert.False(t, o.View().Selection.Selected)
}

func TestSearch_EscapeKeepsSelection(t *testing.T) {
	o := newStarted(t, &fakeBackend{results: []fetchResult{{snap: projectGraph()}}})

	_, err := o.Click("c")
	require.NoError(t, err)
	o.Search("src")
	o.SearchEscape()

	view := o.View()
	assert.Empty(t, view.Query)
	assert.Empty(t, view.Results)
	assert.Equal(t, "c", view.Selection.SelectedID)
}

func TestSearch_Pick(t *testing.T) {
	o := newStarted(t, &fakeBackend{results: []fetchResult{{snap: projectGraph()}}})

	results := o.Search("src/")
	require.Len(t, results, 3)

	state, ok := o.SearchPick(2)
	require.True(t, ok)
	assert.Equal(t, "c", state.SelectedID)

	_, ok = o.SearchPick(0)
	assert.False(t, ok, "box was cleared by the previous pick")
}

func TestDetails(t *testing.T) {
	g := projectGraph()
	// A duplicated import counts twice towards connections.
	g.Edges = append(g.Edges, snapshot.Edge{ID: "e2", Source: "a", Target: "b"})
	o := newStarted(t, &fakeBackend{results: []fetchResult{{snap: g}}})

	_, ok := o.Details()
	assert.False(t, ok)

	_, err := o.Click("a")
	require.NoError(t, err)

	details, ok := o.Details()
	require.True(t, ok)
	assert.Equal(t, "app.js", details.Node.Label)
	assert.Equal(t, "src/app.js", details.Node.Path)
	assert.Equal(t, "js", details.Node.Type)
	assert.Equal(t, 3, details.Connections)
	assert.Equal(t, []string{"b"}, details.Imports)
	assert.Equal(t, []string{"c"}, details.ImportedBy)
}

func TestHeader_WithoutMetadataCountsGraph(t *testing.T) {
	g := projectGraph()
	g.Metadata = nil
	o := newStarted(t, &fakeBackend{results: []fetchResult{{snap: g}}})

	h := o.Header()
	assert.Empty(t, h.ProjectName)
	assert.Equal(t, 3, h.FileCount)
	assert.Equal(t, 2, h.ConnectionCount)
}

func TestOpenSelected(t *testing.T) {
	b := &fakeBackend{results: []fetchResult{{snap: projectGraph()}}}
	o := newStarted(t, b)

	_, err := o.OpenSelected(context.Background())
	assert.ErrorIs(t, err, ErrNoSelection)

	_, err = o.Click("b")
	require.NoError(t, err)

	result, err := o.OpenSelected(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "opened", result.Status)
	assert.Equal(t, []string{"src/db.js"}, b.opened)
	assert.Equal(t, PhaseReady, o.Phase())
}
