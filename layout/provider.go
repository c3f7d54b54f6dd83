// Package layout assigns 2-D positions to graph nodes.
package layout

import (
	"context"
	"errors"
	"fmt"

	"github.com/LegacyCodeHQ/codeviz/snapshot"
)

// ErrMissingPosition is returned by Supplied when the backend left a node
// without a position.
var ErrMissingPosition = errors.New("node has no position")

// PositionProvider computes a position for every node of a snapshot.
type PositionProvider interface {
	Positions(ctx context.Context, snap *snapshot.Snapshot) (map[string]snapshot.Position, error)
}

// Supplied uses the positions the backend sent, unchanged.
type Supplied struct{}

func (Supplied) Positions(_ context.Context, snap *snapshot.Snapshot) (map[string]snapshot.Position, error) {
	positions := make(map[string]snapshot.Position, len(snap.Nodes))
	for _, n := range snap.Nodes {
		if n.Position == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingPosition, n.ID)
		}
		positions[n.ID] = *n.Position
	}
	return positions, nil
}

// Fallback asks Primary first and Secondary only if Primary fails.
type Fallback struct {
	Primary   PositionProvider
	Secondary PositionProvider
}

func (f Fallback) Positions(ctx context.Context, snap *snapshot.Snapshot) (map[string]snapshot.Position, error) {
	positions, err := f.Primary.Positions(ctx, snap)
	if err == nil {
		return positions, nil
	}
	return f.Secondary.Positions(ctx, snap)
}

// Default keeps every backend position as-is, so a reloaded graph does not
// jump around, and lays out locally only the nodes the backend left unplaced.
func Default(cfg Config) PositionProvider {
	return Fallback{Primary: Supplied{}, Secondary: ForceDirected{Config: cfg, KeepSupplied: true}}
}

// Apply returns a copy of snap with positions assigned. Nodes absent from
// positions keep whatever they had.
func Apply(snap *snapshot.Snapshot, positions map[string]snapshot.Position) *snapshot.Snapshot {
	out := snap.Clone()
	for i := range out.Nodes {
		if p, ok := positions[out.Nodes[i].ID]; ok {
			out.Nodes[i].Position = &p
		}
	}
	return out
}
