package store

import (
	"errors"
	"fmt"

	"github.com/LegacyCodeHQ/codeviz/snapshot"
)

var (
	ErrNoGraph      = errors.New("no graph loaded")
	ErrNodeExists   = errors.New("node already exists")
	ErrNodeNotFound = errors.New("node not found")
	ErrEdgeExists   = errors.New("edge already exists")
	ErrEdgeNotFound = errors.New("edge not found")
	ErrDanglingEdge = errors.New("edge endpoint does not exist")
)

// Change is a structural edit applied by Store.ApplyChanges.
type Change interface {
	apply(w *working) error
}

// AddNode appends a node.
type AddNode struct {
	Node snapshot.Node
}

// RemoveNode removes a node together with every edge touching it.
type RemoveNode struct {
	ID string
}

// MoveNode repositions a node, e.g. after the user drags it.
type MoveNode struct {
	ID       string
	Position snapshot.Position
}

// AddEdge appends an edge. An empty ID is replaced with a fresh "e<n>" ID.
type AddEdge struct {
	Edge snapshot.Edge
}

// RemoveEdge removes an edge by ID.
type RemoveEdge struct {
	ID string
}

// working is the scratch copy a change batch is applied to.
type working struct {
	nodes    []snapshot.Node
	edges    []snapshot.Edge
	nextEdge int
}

func (w *working) nodeIndex(id string) int {
	for i, n := range w.nodes {
		if n.ID == id {
			return i
		}
	}
	return -1
}

func (w *working) edgeIndex(id string) int {
	for i, e := range w.edges {
		if e.ID == id {
			return i
		}
	}
	return -1
}

func (c AddNode) apply(w *working) error {
	if c.Node.ID == "" {
		return fmt.Errorf("add node: %w", &snapshot.IngestionError{Reason: "node id is required"})
	}
	if w.nodeIndex(c.Node.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrNodeExists, c.Node.ID)
	}
	w.nodes = append(w.nodes, snapshot.CloneNodes([]snapshot.Node{c.Node})...)
	return nil
}

func (c RemoveNode) apply(w *working) error {
	i := w.nodeIndex(c.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, c.ID)
	}
	w.nodes = append(w.nodes[:i:i], w.nodes[i+1:]...)

	kept := make([]snapshot.Edge, 0, len(w.edges))
	for _, e := range w.edges {
		if !e.Touches(c.ID) {
			kept = append(kept, e)
		}
	}
	w.edges = kept
	return nil
}

func (c MoveNode) apply(w *working) error {
	i := w.nodeIndex(c.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrNodeNotFound, c.ID)
	}
	pos := c.Position
	w.nodes[i].Position = &pos
	return nil
}

func (c AddEdge) apply(w *working) error {
	e := c.Edge
	if e.ID == "" {
		e.ID = w.freshEdgeID()
	}
	if w.edgeIndex(e.ID) >= 0 {
		return fmt.Errorf("%w: %s", ErrEdgeExists, e.ID)
	}
	if w.nodeIndex(e.Source) < 0 || w.nodeIndex(e.Target) < 0 {
		return fmt.Errorf("%w: %s -> %s", ErrDanglingEdge, e.Source, e.Target)
	}
	w.edges = append(w.edges, e)
	return nil
}

func (c RemoveEdge) apply(w *working) error {
	i := w.edgeIndex(c.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrEdgeNotFound, c.ID)
	}
	w.edges = append(w.edges[:i:i], w.edges[i+1:]...)
	return nil
}

func (w *working) freshEdgeID() string {
	for {
		id := snapshot.EdgeID(w.nextEdge)
		w.nextEdge++
		if w.edgeIndex(id) < 0 {
			return id
		}
	}
}
