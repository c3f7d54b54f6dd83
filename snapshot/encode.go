package snapshot

import (
	"encoding/json"
	"io"
)

// Encode writes the snapshot in the /graph.json wire format. Edge IDs are not
// part of the wire format; they are re-derived from order on decode.
func Encode(w io.Writer, s *Snapshot) error {
	output := wireGraph{
		Nodes:    make([]wireNode, 0, len(s.Nodes)),
		Edges:    make([]wireEdge, 0, len(s.Edges)),
		Metadata: s.Metadata,
	}

	for _, n := range s.Nodes {
		output.Nodes = append(output.Nodes, wireNode{
			ID:       n.ID,
			Label:    n.Label,
			Type:     n.Type,
			Path:     n.Path,
			Position: n.Position,
		})
	}
	for _, e := range s.Edges {
		output.Edges = append(output.Edges, wireEdge{From: e.Source, To: e.Target})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}
