// Package goals manages the ordered queue of spatial goals the robot is
// driving through: queue mutation, reach detection, pure-pursuit lookahead
// selection, random goal sampling over free map cells, and delegation to
// an injected path planner.
package goals

import (
	"context"
	"math"
	"sync"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/Wajeeha-B/rs2-art-gallery-robot/grid"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/spatial"
)

// State describes what the manager is currently doing.
type State uint8

// The set of manager states.
const (
	StateIdle = State(iota)
	StatePursuing
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePursuing:
		return "pursuing"
	default:
		return "unknown"
	}
}

// A Goal is one stop on the mission, in visiting order.
type Goal struct {
	ID       uuid.UUID
	Position r3.Vector
}

// NewGoal wraps a position in a freshly identified Goal.
func NewGoal(position r3.Vector) Goal {
	return Goal{ID: uuid.New(), Position: position}
}

// Planner produces an obstacle-respecting waypoint sequence between two
// world points. An empty result with a nil error means no feasible path
// exists. Implementations must tolerate concurrent calls.
type Planner interface {
	PlanPath(ctx context.Context, start, end r3.Vector, m *grid.Map) ([]r3.Vector, error)
}

// ErrNoPath is returned when the planner cannot connect two goals.
var ErrNoPath = errors.New("no feasible path between goals")

// ErrNoPlanner is returned when planning is requested but no planner was
// injected.
var ErrNoPlanner = errors.New("no path planner configured")

// Manager owns the goal queue. The front of the queue is the goal being
// pursued; it is popped once the robot is within the goal radius. All
// methods are safe for concurrent use.
type Manager struct {
	mu      sync.Mutex
	queue   []Goal
	state   State
	cfg     Config
	rnd     *randSource
	planner Planner
	logger  golog.Logger
}

// NewManager builds a Manager. planner may be nil when plan delegation is
// not needed.
func NewManager(cfg Config, planner Planner, logger golog.Logger) (*Manager, error) {
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return &Manager{
		cfg:     cfg,
		rnd:     newRandSource(cfg.Seed),
		planner: planner,
		logger:  logger,
	}, nil
}

// State returns the manager's current state.
func (mgr *Manager) State() State {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return mgr.state
}

// Goals returns a copy of the queue in visiting order.
func (mgr *Manager) Goals() []Goal {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	out := make([]Goal, len(mgr.queue))
	copy(out, mgr.queue)
	return out
}

// Positions returns a copy of just the queued positions in visiting order.
func (mgr *Manager) Positions() []r3.Vector {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return mgr.positionsLocked()
}

func (mgr *Manager) positionsLocked() []r3.Vector {
	out := make([]r3.Vector, len(mgr.queue))
	for i, g := range mgr.queue {
		out[i] = g.Position
	}
	return out
}

// Current returns the goal at the front of the queue.
func (mgr *Manager) Current() (Goal, bool) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	if len(mgr.queue) == 0 {
		return Goal{}, false
	}
	return mgr.queue[0], true
}

// Len returns the number of queued goals.
func (mgr *Manager) Len() int {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	return len(mgr.queue)
}

// SetGoals replaces the whole queue.
func (mgr *Manager) SetGoals(positions []r3.Vector) {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	mgr.queue = mgr.queue[:0]
	for _, p := range positions {
		mgr.queue = append(mgr.queue, NewGoal(p))
	}
	if len(mgr.queue) == 0 {
		mgr.state = StateIdle
	} else {
		mgr.state = StatePursuing
	}
}

// AddGoal appends a goal to the back of the queue.
func (mgr *Manager) AddGoal(position r3.Vector) Goal {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	g := NewGoal(position)
	mgr.queue = append(mgr.queue, g)
	mgr.state = StatePursuing
	return g
}

// Clear drops every queued goal and returns the manager to idle.
func (mgr *Manager) Clear() {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	mgr.queue = mgr.queue[:0]
	mgr.state = StateIdle
}

// Advance pops the front goal if the pose is within the goal radius.
// It reports whether a goal was reached this call; check Len afterwards
// to see whether the queue emptied.
func (mgr *Manager) Advance(pose spatial.Pose) bool {
	mgr.mu.Lock()
	defer mgr.mu.Unlock()
	if len(mgr.queue) == 0 {
		return false
	}
	front := mgr.queue[0]
	if pose.DistanceTo(front.Position) >= mgr.cfg.GoalRadius {
		return false
	}
	mgr.queue = mgr.queue[1:]
	if len(mgr.queue) == 0 {
		mgr.state = StateIdle
		mgr.logger.Infow("final goal reached", "goal", front.ID)
	} else {
		mgr.logger.Debugw("goal reached, advancing",
			"goal", front.ID, "remaining", len(mgr.queue))
	}
	return true
}

// LookaheadPoint selects the pure-pursuit target on the queued goals for
// the given pose. The second return is false when the queue is empty.
func (mgr *Manager) LookaheadPoint(pose spatial.Pose, lookahead float64) (r3.Vector, bool) {
	mgr.mu.Lock()
	pts := mgr.positionsLocked()
	mgr.mu.Unlock()
	if len(pts) == 0 {
		return r3.Vector{}, false
	}
	return FindLookaheadPoint(pts, pose, lookahead), true
}

// FindLookaheadPoint returns the first point along pts whose distance
// from the pose meets or exceeds lookahead. When that distance falls
// between two consecutive points, the crossing of the lookahead circle
// with the connecting segment is returned instead, which keeps the target
// moving smoothly along the path. If no point is far enough away, the
// last point is the fallback so the robot still converges on the end of
// the path.
func FindLookaheadPoint(pts []r3.Vector, pose spatial.Pose, lookahead float64) r3.Vector {
	if len(pts) == 1 {
		return pts[0]
	}
	if pose.DistanceTo(pts[0]) >= lookahead {
		return pts[0]
	}
	for i := 1; i < len(pts); i++ {
		if pose.DistanceTo(pts[i]) < lookahead {
			continue
		}
		return lookaheadOnSegment(pts[i-1], pts[i], pose.Point, lookahead)
	}
	return pts[len(pts)-1]
}

// lookaheadOnSegment finds where the circle of radius lookahead centered
// on the pose crosses the segment from a (inside the circle) to b (at or
// outside it).
func lookaheadOnSegment(a, b, center r3.Vector, lookahead float64) r3.Vector {
	seg := b.Sub(a)
	segLen2 := seg.X*seg.X + seg.Y*seg.Y
	if segLen2 < 1e-12 {
		return b
	}
	rel := a.Sub(center)
	// |rel + t*seg|^2 = lookahead^2, solved for t in [0, 1]
	bCoef := 2 * (rel.X*seg.X + rel.Y*seg.Y)
	cCoef := rel.X*rel.X + rel.Y*rel.Y - lookahead*lookahead
	disc := bCoef*bCoef - 4*segLen2*cCoef
	if disc < 0 {
		return b
	}
	t := (-bCoef + math.Sqrt(disc)) / (2 * segLen2)
	return spatial.Lerp(a, b, spatial.Clamp(t, 0, 1))
}

// PlanBetweenTwoGoals delegates to the injected planner for an
// obstacle-respecting waypoint sequence from start to end. An empty plan
// becomes ErrNoPath; the caller decides how the mission reacts.
func (mgr *Manager) PlanBetweenTwoGoals(ctx context.Context, start, end r3.Vector, m *grid.Map) ([]r3.Vector, error) {
	if mgr.planner == nil {
		return nil, ErrNoPlanner
	}
	path, err := mgr.planner.PlanPath(ctx, start, end, m)
	if err != nil {
		return nil, errors.Wrap(err, "path planner failed")
	}
	if len(path) == 0 {
		return nil, ErrNoPath
	}
	return path, nil
}

// PlanThroughGoals chains PlanBetweenTwoGoals across start and every
// point in order, concatenating the legs into one polyline without
// duplicating the joints.
func (mgr *Manager) PlanThroughGoals(ctx context.Context, start r3.Vector, pts []r3.Vector, m *grid.Map) ([]r3.Vector, error) {
	if len(pts) == 0 {
		return nil, errors.New("no goals to plan through")
	}
	polyline := []r3.Vector{start}
	prev := start
	for i, pt := range pts {
		leg, err := mgr.PlanBetweenTwoGoals(ctx, prev, pt, m)
		if err != nil {
			return nil, errors.Wrapf(err, "planning leg %d of %d", i+1, len(pts))
		}
		for _, wp := range leg {
			if spatial.PlanarDistance(wp, polyline[len(polyline)-1]) < 1e-9 {
				continue
			}
			polyline = append(polyline, wp)
		}
		prev = pt
	}
	return polyline, nil
}

// NearestNeighborOrder greedily orders pts by repeatedly visiting the
// closest remaining point, starting from start. Random sampling produces
// goals in no useful order; this turns them into a reasonable tour.
func NearestNeighborOrder(start r3.Vector, pts []r3.Vector) []r3.Vector {
	remaining := make([]r3.Vector, len(pts))
	copy(remaining, pts)
	ordered := make([]r3.Vector, 0, len(pts))
	cur := start
	for len(remaining) > 0 {
		best := 0
		bestDist := spatial.PlanarDistance(cur, remaining[0])
		for i := 1; i < len(remaining); i++ {
			if d := spatial.PlanarDistance(cur, remaining[i]); d < bestDist {
				best, bestDist = i, d
			}
		}
		cur = remaining[best]
		ordered = append(ordered, cur)
		remaining = append(remaining[:best], remaining[best+1:]...)
	}
	return ordered
}
