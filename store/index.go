package store

import (
	"errors"
	"fmt"
	"sort"

	"github.com/LegacyCodeHQ/codeviz/snapshot"
	graphlib "github.com/dominikbraun/graph"
)

// index is the directed import graph of the live snapshot. Building it is also
// how a snapshot's integrity is checked.
type index = graphlib.Graph[string, string]

func buildIndex(nodes []snapshot.Node, edges []snapshot.Edge) (index, error) {
	g := graphlib.New(graphlib.StringHash, graphlib.Directed())

	for _, n := range nodes {
		if err := g.AddVertex(n.ID); err != nil {
			if errors.Is(err, graphlib.ErrVertexAlreadyExists) {
				return nil, &snapshot.IngestionError{Reason: fmt.Sprintf("duplicate node id %q", n.ID)}
			}
			return nil, fmt.Errorf("failed to index node %q: %w", n.ID, err)
		}
	}

	for _, e := range edges {
		err := g.AddEdge(e.Source, e.Target)
		switch {
		case err == nil, errors.Is(err, graphlib.ErrEdgeAlreadyExists):
		case errors.Is(err, graphlib.ErrVertexNotFound):
			return nil, &snapshot.IngestionError{
				Reason: fmt.Sprintf("edge %s references a missing node (%s -> %s)", e.ID, e.Source, e.Target),
				Err:    ErrDanglingEdge,
			}
		default:
			return nil, fmt.Errorf("failed to index edge %s: %w", e.ID, err)
		}
	}

	return g, nil
}

// Validate checks that a snapshot can be loaded: node IDs are unique and every
// edge endpoint names a node in the same snapshot.
func Validate(snap *snapshot.Snapshot) error {
	if snap == nil {
		return &snapshot.IngestionError{Reason: "empty payload"}
	}
	_, err := buildIndex(snap.Nodes, snap.Edges)
	return err
}

func neighbors(g index, nodeID string) (imports, importedBy []string, err error) {
	adjacency, err := g.AdjacencyMap()
	if err != nil {
		return nil, nil, err
	}
	predecessors, err := g.PredecessorMap()
	if err != nil {
		return nil, nil, err
	}

	out, ok := adjacency[nodeID]
	if !ok {
		return nil, nil, fmt.Errorf("%w: %s", ErrNodeNotFound, nodeID)
	}

	imports = sortedKeys(out)
	importedBy = sortedKeys(predecessors[nodeID])
	return imports, importedBy, nil
}

func sortedKeys(m map[string]graphlib.Edge[string]) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
