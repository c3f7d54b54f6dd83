package orchestrator

import (
	"context"
	"fmt"

	"github.com/LegacyCodeHQ/codeviz/backend"
	"github.com/LegacyCodeHQ/codeviz/selection"
	"github.com/LegacyCodeHQ/codeviz/snapshot"
	"github.com/LegacyCodeHQ/codeviz/store"
	"go.uber.org/zap"
)

// NodeDetails describes the selected node for the side panel.
type NodeDetails struct {
	Node snapshot.Node
	// Connections counts edges touching the node, duplicates included.
	Connections int
	Imports     []string
	ImportedBy  []string
}

// Click toggles the selection of a node.
func (o *Orchestrator) Click(nodeID string) (selection.State, error) {
	if !o.store.Has(nodeID) {
		return o.selection.Current(), fmt.Errorf("%w: %s", store.ErrNodeNotFound, nodeID)
	}
	_, edges := o.store.Graph()
	state := o.selection.Click(nodeID, edges)
	o.publish()
	return state, nil
}

// Search updates the search box and returns the matching nodes.
func (o *Orchestrator) Search(query string) []snapshot.Node {
	nodes, _ := o.store.Graph()
	results := o.search.Type(query, nodes)
	o.publish()
	return results
}

// SearchEnter clicks the first result, if any, and clears the search box.
func (o *Orchestrator) SearchEnter() (selection.State, bool) {
	node, ok := o.search.Enter()
	return o.clickPicked(node, ok)
}

// SearchPick clicks the i-th result and clears the search box.
func (o *Orchestrator) SearchPick(i int) (selection.State, bool) {
	node, ok := o.search.Pick(i)
	return o.clickPicked(node, ok)
}

func (o *Orchestrator) clickPicked(node snapshot.Node, ok bool) (selection.State, bool) {
	if !ok {
		return o.selection.Current(), false
	}
	state, err := o.Click(node.ID)
	if err != nil {
		o.publish()
		return state, false
	}
	return state, true
}

// SearchEscape clears the search box; the selection is untouched.
func (o *Orchestrator) SearchEscape() {
	o.search.Escape()
	o.publish()
}

// Details returns the selected node's details.
func (o *Orchestrator) Details() (NodeDetails, bool) {
	sel := o.selection.Current()
	if !sel.Selected {
		return NodeDetails{}, false
	}
	node, ok := o.store.Node(sel.SelectedID)
	if !ok {
		return NodeDetails{}, false
	}

	details := NodeDetails{Node: node}
	_, edges := o.store.Graph()
	for _, e := range edges {
		if e.Touches(node.ID) {
			details.Connections++
		}
	}

	imports, importedBy, err := o.store.Neighbors(node.ID)
	if err != nil {
		o.logger.Warn("failed to read neighbours", zap.String("node", node.ID), zap.Error(err))
	}
	details.Imports, details.ImportedBy = imports, importedBy
	return details, true
}

// Header returns the project header. Without metadata the counts come from
// the loaded graph.
func (o *Orchestrator) Header() Header {
	h := Header{Progress: o.channel.Current()}

	if md := o.store.Metadata(); md != nil {
		h.ProjectName = md.ProjectName
		h.GeneratedAt = md.GeneratedTime()
		h.FileCount = md.FileCount
		h.ConnectionCount = md.ConnectionCount
		return h
	}

	nodes, edges := o.store.Graph()
	h.FileCount = len(nodes)
	h.ConnectionCount = len(edges)
	return h
}

// OpenSelected opens the selected node's file in the user's editor.
func (o *Orchestrator) OpenSelected(ctx context.Context) (backend.OpenResult, error) {
	details, ok := o.Details()
	if !ok {
		return backend.OpenResult{}, ErrNoSelection
	}
	return o.OpenInEditor(ctx, details.Node.Path)
}

// OpenInEditor asks the backend to open path. It never changes the phase.
func (o *Orchestrator) OpenInEditor(ctx context.Context, path string) (backend.OpenResult, error) {
	result, err := o.backend.OpenInEditor(ctx, path)
	if err != nil {
		o.logger.Warn("failed to open file", zap.String("path", path), zap.Error(err))
		return result, err
	}
	o.logger.Info("opened file", zap.String("file", result.File))
	return result, nil
}
