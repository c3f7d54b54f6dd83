package snapshot

import "time"

// Position is a 2-D coordinate. Its meaning is opaque to the engine: it is either
// supplied by the backend or computed locally by a layout strategy.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a single file in the dependency graph.
type Node struct {
	ID       string
	Label    string
	Path     string
	Type     string
	Position *Position
}

// Edge is an import relationship between two files. Source and Target must each
// name a node in the same snapshot.
type Edge struct {
	ID     string
	Source string
	Target string
}

// Touches reports whether the edge has nodeID as either endpoint.
func (e Edge) Touches(nodeID string) bool {
	return e.Source == nodeID || e.Target == nodeID
}

// Metadata describes the project a snapshot was generated from.
type Metadata struct {
	ProjectName     string `json:"project_name"`
	GeneratedAt     int64  `json:"generated_at"`
	FileCount       int    `json:"file_count"`
	ConnectionCount int    `json:"connection_count"`
}

// GeneratedTime returns GeneratedAt as a time value.
func (m Metadata) GeneratedTime() time.Time {
	return time.Unix(m.GeneratedAt, 0)
}

// Snapshot is one complete view of a project's file graph. A snapshot replaces
// its predecessor wholesale; there is no diffing between snapshots.
type Snapshot struct {
	Nodes    []Node
	Edges    []Edge
	Metadata *Metadata
}

// HasPositions reports whether every node carries a position.
func (s *Snapshot) HasPositions() bool {
	for _, n := range s.Nodes {
		if n.Position == nil {
			return false
		}
	}
	return true
}

// Clone returns a deep copy of the snapshot.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}

	out := &Snapshot{
		Nodes: CloneNodes(s.Nodes),
		Edges: append([]Edge(nil), s.Edges...),
	}
	if s.Metadata != nil {
		md := *s.Metadata
		out.Metadata = &md
	}
	return out
}

// CloneNodes copies nodes including their positions.
func CloneNodes(nodes []Node) []Node {
	if nodes == nil {
		return nil
	}
	out := make([]Node, len(nodes))
	for i, n := range nodes {
		out[i] = n.clone()
	}
	return out
}

func (n Node) clone() Node {
	if n.Position != nil {
		pos := *n.Position
		n.Position = &pos
	}
	return n
}
