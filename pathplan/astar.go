// Package pathplan plans obstacle-respecting waypoint sequences across
// an occupancy grid. It provides the planner collaborator the goal
// manager delegates to; an empty result means no feasible path, which
// callers must treat as "no plan" rather than a fault.
package pathplan

import (
	"context"
	"math"
	"sync"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"

	"github.com/Wajeeha-B/rs2-art-gallery-robot/grid"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/spatial"
)

// DefaultClearance keeps planned paths at least half a robot width away
// from occupied or unknown cells.
const DefaultClearance = 0.15

// Config holds the planner tunables.
type Config struct {
	// Clearance is the obstacle standoff in meters applied to every
	// cell the path may cross.
	Clearance float64 `json:"clearance,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.Clearance < 0 {
		return utils.NewConfigValidationError(path, errors.New("clearance must not be negative"))
	}
	return nil
}

// AStar is a grid planner searching an 8-connected graph of open cells.
// It satisfies goals.Planner and is safe for concurrent use.
type AStar struct {
	clearance float64
	logger    golog.Logger

	// maps arrive wholesale and are never mutated, so the search graph
	// can be cached by map identity
	mu          sync.Mutex
	cachedMap   *grid.Map
	cachedGraph *simple.WeightedUndirectedGraph
}

// NewAStar builds a planner, filling in the default clearance for a zero
// config.
func NewAStar(cfg Config, logger golog.Logger) (*AStar, error) {
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	if cfg.Clearance == 0 {
		cfg.Clearance = DefaultClearance
	}
	return &AStar{clearance: cfg.Clearance, logger: logger}, nil
}

// PlanPath searches for a waypoint sequence from start to end across m.
// A nil path with a nil error means no feasible path exists: either
// endpoint is outside the grid, inside an obstacle, or disconnected from
// the other.
func (p *AStar) PlanPath(ctx context.Context, start, end r3.Vector, m *grid.Map) ([]r3.Vector, error) {
	if m == nil {
		return nil, errors.New("planning requires a map")
	}
	if err := m.Validate(); err != nil {
		return nil, errors.Wrap(err, "planning requires a valid map")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sx, sy, ok := m.WorldToGrid(start)
	if !ok {
		return nil, nil
	}
	ex, ey, ok := m.WorldToGrid(end)
	if !ok {
		return nil, nil
	}
	if !m.DiscFree(sx, sy, p.clearance) || !m.DiscFree(ex, ey, p.clearance) {
		return nil, nil
	}

	g := p.graphFor(m)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	heuristic := func(a, b graph.Node) float64 {
		ax, ay := int(a.ID())%m.Width, int(a.ID())/m.Width
		bx, by := int(b.ID())%m.Width, int(b.ID())/m.Width
		return math.Hypot(float64(bx-ax), float64(by-ay)) * m.Resolution
	}
	startNode := g.Node(int64(m.Index(sx, sy)))
	endNode := g.Node(int64(m.Index(ex, ey)))
	if startNode == nil || endNode == nil {
		return nil, nil
	}
	shortest, _ := path.AStar(startNode, endNode, g, heuristic)
	nodes, weight := shortest.To(endNode.ID())
	if len(nodes) == 0 || math.IsInf(weight, 1) {
		p.logger.Debugw("no path between endpoints",
			"start", start, "end", end)
		return nil, nil
	}

	pts := make([]r3.Vector, 0, len(nodes)+1)
	for _, n := range nodes {
		cx, cy := int(n.ID())%m.Width, int(n.ID())/m.Width
		pts = append(pts, m.GridToWorld(cx, cy))
	}
	pts[0] = start
	if spatial.PlanarDistance(pts[len(pts)-1], end) > 1e-9 {
		pts = append(pts, end)
	}
	return simplify(pts), nil
}

// graphFor returns the 8-connected search graph for m, building it on
// first sight of the map.
func (p *AStar) graphFor(m *grid.Map) *simple.WeightedUndirectedGraph {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cachedMap == m {
		return p.cachedGraph
	}

	g := simple.NewWeightedUndirectedGraph(0, math.Inf(1))
	open := make([]bool, len(m.Cells))
	for cy := 0; cy < m.Height; cy++ {
		for cx := 0; cx < m.Width; cx++ {
			if m.DiscFree(cx, cy, p.clearance) {
				idx := m.Index(cx, cy)
				open[idx] = true
				g.AddNode(simple.Node(idx))
			}
		}
	}
	straight := m.Resolution
	diagonal := m.Resolution * math.Sqrt2
	for cy := 0; cy < m.Height; cy++ {
		for cx := 0; cx < m.Width; cx++ {
			if !open[m.Index(cx, cy)] {
				continue
			}
			from := simple.Node(m.Index(cx, cy))
			if m.InBounds(cx+1, cy) && open[m.Index(cx+1, cy)] {
				g.SetWeightedEdge(simple.WeightedEdge{F: from, T: simple.Node(m.Index(cx+1, cy)), W: straight})
			}
			if m.InBounds(cx, cy+1) && open[m.Index(cx, cy+1)] {
				g.SetWeightedEdge(simple.WeightedEdge{F: from, T: simple.Node(m.Index(cx, cy+1)), W: straight})
			}
			// diagonals only when both flanking cells are open, so the
			// path never cuts an obstacle corner
			if m.InBounds(cx+1, cy+1) && open[m.Index(cx+1, cy+1)] &&
				open[m.Index(cx+1, cy)] && open[m.Index(cx, cy+1)] {
				g.SetWeightedEdge(simple.WeightedEdge{F: from, T: simple.Node(m.Index(cx+1, cy+1)), W: diagonal})
			}
			if m.InBounds(cx-1, cy+1) && open[m.Index(cx-1, cy+1)] &&
				open[m.Index(cx-1, cy)] && open[m.Index(cx, cy+1)] {
				g.SetWeightedEdge(simple.WeightedEdge{F: from, T: simple.Node(m.Index(cx-1, cy+1)), W: diagonal})
			}
		}
	}
	p.cachedMap = m
	p.cachedGraph = g
	p.logger.Debugw("built search graph",
		"cells", m.Width*m.Height, "open", g.Nodes().Len())
	return g
}

// simplify drops interior waypoints that continue the previous segment's
// direction, leaving only the turns.
func simplify(pts []r3.Vector) []r3.Vector {
	if len(pts) < 3 {
		return pts
	}
	out := []r3.Vector{pts[0]}
	for i := 1; i < len(pts)-1; i++ {
		prev := out[len(out)-1]
		a := math.Atan2(pts[i].Y-prev.Y, pts[i].X-prev.X)
		b := math.Atan2(pts[i+1].Y-pts[i].Y, pts[i+1].X-pts[i].X)
		if math.Abs(spatial.NormalizeAngle(b-a)) < 1e-9 {
			continue
		}
		out = append(out, pts[i])
	}
	return append(out, pts[len(pts)-1])
}
