// Package store owns the live graph snapshot of a viewing session.
package store

import (
	"sync"

	"github.com/LegacyCodeHQ/codeviz/internal/broker"
	"github.com/LegacyCodeHQ/codeviz/snapshot"
	"go.uber.org/zap"
)

// Store is the single owner of the loaded snapshot. Readers always receive
// copies; nothing outside the store can mutate the live graph.
type Store struct {
	mu       sync.RWMutex
	snap     *snapshot.Snapshot
	index    index
	nextEdge int

	updates *broker.Broker[*snapshot.Snapshot]
	logger  *zap.Logger
}

// New returns an empty store.
func New(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		updates: broker.New[*snapshot.Snapshot](),
		logger:  logger.Named("store"),
	}
}

// Load replaces the current graph wholesale. If snap fails validation the
// previous graph stays in place and the *snapshot.IngestionError is returned.
func (s *Store) Load(snap *snapshot.Snapshot) error {
	if snap == nil {
		return &snapshot.IngestionError{Reason: "empty payload"}
	}

	owned := snap.Clone()
	idx, err := buildIndex(owned.Nodes, owned.Edges)
	if err != nil {
		s.logger.Error("rejected graph", zap.Error(err))
		return err
	}

	s.mu.Lock()
	s.snap = owned
	s.index = idx
	s.nextEdge = len(owned.Edges)
	published := owned.Clone()
	s.mu.Unlock()

	s.logger.Debug("graph loaded",
		zap.Int("nodes", len(owned.Nodes)),
		zap.Int("edges", len(owned.Edges)),
	)
	s.updates.Publish(published)
	return nil
}

// ApplyChanges applies a batch of structural changes. The batch is atomic: if
// any change fails, the graph is left untouched. Unaffected nodes and edges keep
// their identity and relative order.
func (s *Store) ApplyChanges(changes ...Change) error {
	s.mu.Lock()
	if s.snap == nil {
		s.mu.Unlock()
		return ErrNoGraph
	}

	w := &working{
		nodes:    snapshot.CloneNodes(s.snap.Nodes),
		edges:    append([]snapshot.Edge(nil), s.snap.Edges...),
		nextEdge: s.nextEdge,
	}
	for _, c := range changes {
		if err := c.apply(w); err != nil {
			s.mu.Unlock()
			return err
		}
	}

	idx, err := buildIndex(w.nodes, w.edges)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	s.snap = &snapshot.Snapshot{Nodes: w.nodes, Edges: w.edges, Metadata: s.snap.Metadata}
	s.index = idx
	s.nextEdge = w.nextEdge
	published := s.snap.Clone()
	s.mu.Unlock()

	s.updates.Publish(published)
	return nil
}

// Graph returns copies of the current nodes and edges.
func (s *Store) Graph() ([]snapshot.Node, []snapshot.Edge) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snap == nil {
		return nil, nil
	}
	return snapshot.CloneNodes(s.snap.Nodes), append([]snapshot.Edge(nil), s.snap.Edges...)
}

// Snapshot returns a deep copy of the current snapshot.
func (s *Store) Snapshot() (*snapshot.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snap == nil {
		return nil, false
	}
	return s.snap.Clone(), true
}

// Loaded reports whether a graph has been loaded.
func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap != nil
}

// Node looks up a node by ID.
func (s *Store) Node(id string) (snapshot.Node, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snap == nil {
		return snapshot.Node{}, false
	}
	for _, n := range s.snap.Nodes {
		if n.ID == id {
			return snapshot.CloneNodes([]snapshot.Node{n})[0], true
		}
	}
	return snapshot.Node{}, false
}

// Has reports whether a node with the given ID exists.
func (s *Store) Has(id string) bool {
	_, ok := s.Node(id)
	return ok
}

// Metadata returns a copy of the project metadata, or nil.
func (s *Store) Metadata() *snapshot.Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.snap == nil || s.snap.Metadata == nil {
		return nil
	}
	md := *s.snap.Metadata
	return &md
}

// Neighbors returns the files nodeID imports and the files that import it.
func (s *Store) Neighbors(nodeID string) (imports, importedBy []string, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.index == nil {
		return nil, nil, ErrNoGraph
	}
	return neighbors(s.index, nodeID)
}

// Subscribe delivers a copy of the graph after every load or change batch.
// Subscribers must treat received snapshots as read-only.
func (s *Store) Subscribe() (<-chan *snapshot.Snapshot, func()) {
	return s.updates.Subscribe()
}

// Close releases all subscriptions.
func (s *Store) Close() {
	s.updates.Close()
}
