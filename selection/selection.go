// Package selection tracks the selected node and its one-hop neighbourhood.
package selection

import (
	"sort"
	"sync"

	"github.com/LegacyCodeHQ/codeviz/snapshot"
)

// State is an immutable view of the selection. When a node is selected the
// highlight set contains it; when nothing is selected the highlight set is empty.
type State struct {
	SelectedID string
	Selected   bool

	highlighted map[string]struct{}
}

// Highlighted reports whether id is in the highlight set.
func (s State) Highlighted(id string) bool {
	_, ok := s.highlighted[id]
	return ok
}

// HighlightedIDs returns the highlight set in sorted order.
func (s State) HighlightedIDs() []string {
	ids := make([]string, 0, len(s.highlighted))
	for id := range s.highlighted {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Engine is the two-state selection machine: unselected, or selected(id).
type Engine struct {
	mu    sync.Mutex
	state State
}

// New returns an engine in the unselected state.
func New() *Engine {
	return &Engine{}
}

// Click toggles the selection. Clicking the selected node deselects it; clicking
// any other node selects it and highlights it together with every node that
// shares an edge with it, regardless of edge direction.
func (e *Engine) Click(nodeID string, edges []snapshot.Edge) State {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state.Selected && e.state.SelectedID == nodeID {
		e.state = State{}
		return e.state
	}

	e.state = selected(nodeID, edges)
	return e.state
}

// Current returns the current selection.
func (e *Engine) Current() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Clear returns to the unselected state.
func (e *Engine) Clear() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.state = State{}
}

// Reconcile re-derives the selection after the graph was replaced. The
// selection survives only if its node still exists, and its highlight set is
// recomputed against the new edges.
func (e *Engine) Reconcile(exists func(id string) bool, edges []snapshot.Edge) State {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.state.Selected {
		return e.state
	}
	if !exists(e.state.SelectedID) {
		e.state = State{}
		return e.state
	}
	e.state = selected(e.state.SelectedID, edges)
	return e.state
}

// selected computes the one-hop highlight set with a single pass over edges.
func selected(nodeID string, edges []snapshot.Edge) State {
	highlighted := map[string]struct{}{nodeID: {}}
	for _, edge := range edges {
		if edge.Source == nodeID {
			highlighted[edge.Target] = struct{}{}
		}
		if edge.Target == nodeID {
			highlighted[edge.Source] = struct{}{}
		}
	}
	return State{SelectedID: nodeID, Selected: true, highlighted: highlighted}
}
