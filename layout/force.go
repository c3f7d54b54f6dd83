package layout

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/LegacyCodeHQ/codeviz/snapshot"
)

// ErrUnknownNode is returned when an edge names a node missing from the snapshot.
var ErrUnknownNode = errors.New("edge references unknown node")

const (
	alphaMin      = 0.001
	velocityDecay = 0.4
	minDistance2  = 1.0

	initialRadius = 10.0
)

var initialAngle = math.Pi * (3 - math.Sqrt(5))

// Config tunes the force-directed simulation.
type Config struct {
	Charge       float64
	LinkDistance float64
	Center       snapshot.Position
	Iterations   int
}

// DefaultConfig returns the parameters the viewer has always used.
func DefaultConfig() Config {
	return Config{
		Charge:       -800,
		LinkDistance: 150,
		Center:       snapshot.Position{X: 1000, Y: 800},
		Iterations:   300,
	}
}

func (c Config) withDefaults() Config {
	if c == (Config{}) {
		return DefaultConfig()
	}
	if c.Iterations <= 0 {
		c.Iterations = DefaultConfig().Iterations
	}
	if c.LinkDistance <= 0 {
		c.LinkDistance = DefaultConfig().LinkDistance
	}
	return c
}

// ForceDirected runs a fixed number of simulation ticks and returns the final
// positions. The zero Config means DefaultConfig. The result depends only on the
// snapshot and the config.
//
// With KeepSupplied, nodes that already have a position are pinned there and
// only the rest are simulated; the layout is then not recentered.
type ForceDirected struct {
	Config       Config
	KeepSupplied bool
}

type body struct {
	x, y   float64
	vx, vy float64
}

type spring struct {
	source, target int
	strength       float64
	bias           float64
}

func (f ForceDirected) Positions(ctx context.Context, snap *snapshot.Snapshot) (map[string]snapshot.Position, error) {
	cfg := f.Config.withDefaults()

	pinned := make([]bool, len(snap.Nodes))
	anchor, anyPinned := cfg.Center, false
	if f.KeepSupplied {
		anchor, anyPinned = suppliedCentroid(snap.Nodes, pinned)
		if !anyPinned {
			anchor = cfg.Center
		}
	}

	index := make(map[string]int, len(snap.Nodes))
	bodies := make([]body, len(snap.Nodes))
	for i, n := range snap.Nodes {
		index[n.ID] = i
		if pinned[i] {
			bodies[i] = body{x: n.Position.X, y: n.Position.Y}
			continue
		}
		// Phyllotaxis arrangement around the anchor.
		r := initialRadius * math.Sqrt(0.5+float64(i))
		a := float64(i) * initialAngle
		bodies[i] = body{x: anchor.X + r*math.Cos(a), y: anchor.Y + r*math.Sin(a)}
	}

	springs, err := buildSprings(snap.Edges, index)
	if err != nil {
		return nil, err
	}

	alpha := 1.0
	alphaDecay := 1 - math.Pow(alphaMin, 1/float64(cfg.Iterations))

	for tick := 0; tick < cfg.Iterations; tick++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		alpha -= alpha * alphaDecay

		applySprings(bodies, springs, cfg.LinkDistance, alpha)
		applyCharge(bodies, cfg.Charge, alpha)

		for i := range bodies {
			b := &bodies[i]
			if pinned[i] {
				b.vx, b.vy = 0, 0
				continue
			}
			b.vx *= 1 - velocityDecay
			b.vy *= 1 - velocityDecay
			b.x += b.vx
			b.y += b.vy
		}

		if !anyPinned {
			recenter(bodies, cfg.Center)
		}
	}

	positions := make(map[string]snapshot.Position, len(bodies))
	for i, n := range snap.Nodes {
		positions[n.ID] = snapshot.Position{X: bodies[i].x, Y: bodies[i].y}
	}
	return positions, nil
}

// suppliedCentroid marks the nodes that carry a position and returns their
// mean.
func suppliedCentroid(nodes []snapshot.Node, pinned []bool) (snapshot.Position, bool) {
	var sum snapshot.Position
	count := 0
	for i, n := range nodes {
		if n.Position == nil {
			continue
		}
		pinned[i] = true
		sum.X += n.Position.X
		sum.Y += n.Position.Y
		count++
	}
	if count == 0 {
		return snapshot.Position{}, false
	}
	return snapshot.Position{X: sum.X / float64(count), Y: sum.Y / float64(count)}, true
}

// buildSprings turns edges into springs. Stiffness is the inverse of the
// smaller endpoint degree, so hubs are not pulled apart by their many links.
func buildSprings(edges []snapshot.Edge, index map[string]int) ([]spring, error) {
	degree := make(map[int]int)
	springs := make([]spring, 0, len(edges))

	for _, e := range edges {
		s, ok := index[e.Source]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownNode, e.Source)
		}
		t, ok := index[e.Target]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownNode, e.Target)
		}
		if s == t {
			continue
		}
		degree[s]++
		degree[t]++
		springs = append(springs, spring{source: s, target: t})
	}

	for i := range springs {
		ds, dt := float64(degree[springs[i].source]), float64(degree[springs[i].target])
		springs[i].strength = 1 / math.Min(ds, dt)
		springs[i].bias = ds / (ds + dt)
	}
	return springs, nil
}

func applySprings(bodies []body, springs []spring, distance, alpha float64) {
	for _, sp := range springs {
		src, tgt := &bodies[sp.source], &bodies[sp.target]

		x := tgt.x + tgt.vx - src.x - src.vx
		y := tgt.y + tgt.vy - src.y - src.vy
		if x == 0 {
			x = jiggle(sp.source, sp.target)
		}
		if y == 0 {
			y = jiggle(sp.target, sp.source)
		}

		l := math.Sqrt(x*x + y*y)
		l = (l - distance) / l * alpha * sp.strength
		x *= l
		y *= l

		tgt.vx -= x * sp.bias
		tgt.vy -= y * sp.bias
		src.vx += x * (1 - sp.bias)
		src.vy += y * (1 - sp.bias)
	}
}

// applyCharge is the exact pairwise many-body force. Negative strength repels.
func applyCharge(bodies []body, strength, alpha float64) {
	for i := range bodies {
		for j := range bodies {
			if i == j {
				continue
			}
			x := bodies[j].x - bodies[i].x
			y := bodies[j].y - bodies[i].y
			if x == 0 {
				x = jiggle(i, j)
			}
			if y == 0 {
				y = jiggle(j, i)
			}

			l := x*x + y*y
			if l < minDistance2 {
				l = math.Sqrt(minDistance2 * l)
			}
			w := strength * alpha / l
			bodies[i].vx += x * w
			bodies[i].vy += y * w
		}
	}
}

func recenter(bodies []body, center snapshot.Position) {
	if len(bodies) == 0 {
		return
	}
	var sx, sy float64
	for _, b := range bodies {
		sx += b.x
		sy += b.y
	}
	sx = sx/float64(len(bodies)) - center.X
	sy = sy/float64(len(bodies)) - center.Y
	for i := range bodies {
		bodies[i].x -= sx
		bodies[i].y -= sy
	}
}

// jiggle separates coincident bodies by a tiny, antisymmetric offset.
func jiggle(i, j int) float64 {
	return 1e-6 * float64(j-i)
}
