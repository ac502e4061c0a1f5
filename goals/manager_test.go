package goals

import (
	"context"
	"math"
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.viam.com/test"

	"github.com/Wajeeha-B/rs2-art-gallery-robot/grid"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/spatial"
)

func newTestManager(t *testing.T, planner Planner) *Manager {
	t.Helper()
	mgr, err := NewManager(Config{Seed: 1}, planner, golog.NewTestLogger(t))
	test.That(t, err, test.ShouldBeNil)
	return mgr
}

func TestQueueLifecycle(t *testing.T) {
	mgr := newTestManager(t, nil)
	test.That(t, mgr.State(), test.ShouldEqual, StateIdle)
	test.That(t, mgr.Len(), test.ShouldEqual, 0)
	_, ok := mgr.Current()
	test.That(t, ok, test.ShouldBeFalse)

	mgr.SetGoals([]r3.Vector{{X: 1}, {X: 2}})
	test.That(t, mgr.State(), test.ShouldEqual, StatePursuing)
	test.That(t, mgr.Len(), test.ShouldEqual, 2)

	front, ok := mgr.Current()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, front.Position.X, test.ShouldEqual, 1.0)

	added := mgr.AddGoal(r3.Vector{X: 3})
	test.That(t, mgr.Len(), test.ShouldEqual, 3)
	test.That(t, added.ID, test.ShouldNotEqual, front.ID)

	mgr.Clear()
	test.That(t, mgr.State(), test.ShouldEqual, StateIdle)
	test.That(t, mgr.Len(), test.ShouldEqual, 0)
}

func TestAdvance(t *testing.T) {
	mgr := newTestManager(t, nil)
	mgr.SetGoals([]r3.Vector{{X: 1}, {X: 2}})

	// far from the front goal, nothing pops
	pose := spatial.NewPose(r3.Vector{}, 0)
	test.That(t, mgr.Advance(pose), test.ShouldBeFalse)
	test.That(t, mgr.Len(), test.ShouldEqual, 2)

	// within the goal radius of (1,0): 0.05 < 0.1
	pose = spatial.NewPose(r3.Vector{X: 0.95}, 0)
	test.That(t, mgr.Advance(pose), test.ShouldBeTrue)
	test.That(t, mgr.Len(), test.ShouldEqual, 1)
	test.That(t, mgr.State(), test.ShouldEqual, StatePursuing)

	// exactly on the last goal
	pose = spatial.NewPose(r3.Vector{X: 2}, 0)
	test.That(t, mgr.Advance(pose), test.ShouldBeTrue)
	test.That(t, mgr.Len(), test.ShouldEqual, 0)
	test.That(t, mgr.State(), test.ShouldEqual, StateIdle)

	// advancing an empty queue is a no-op
	test.That(t, mgr.Advance(pose), test.ShouldBeFalse)
}

func TestFindLookaheadPoint(t *testing.T) {
	pose := spatial.NewPose(r3.Vector{}, 0)

	t.Run("interpolates along the bracketing segment", func(t *testing.T) {
		pts := []r3.Vector{{X: 0}, {X: 1}}
		got := FindLookaheadPoint(pts, pose, 0.4)
		test.That(t, got.X, test.ShouldAlmostEqual, 0.4, 1e-9)
		test.That(t, got.Y, test.ShouldAlmostEqual, 0, 1e-9)
	})

	t.Run("first point already beyond the circle", func(t *testing.T) {
		pts := []r3.Vector{{X: 2}, {X: 3}}
		got := FindLookaheadPoint(pts, pose, 0.4)
		test.That(t, got, test.ShouldResemble, r3.Vector{X: 2})
	})

	t.Run("falls back to the last point", func(t *testing.T) {
		pts := []r3.Vector{{X: 0.1}, {X: 0.2}, {X: 0.3}}
		got := FindLookaheadPoint(pts, pose, 5)
		test.That(t, got, test.ShouldResemble, r3.Vector{X: 0.3})
	})

	t.Run("off-axis segment crossing", func(t *testing.T) {
		pts := []r3.Vector{{X: 0.2, Y: 0.2}, {X: 2, Y: 2}}
		got := FindLookaheadPoint(pts, pose, 1.0)
		// the crossing stays on the circle and on the segment
		test.That(t, spatial.PlanarDistance(got, pose.Point), test.ShouldAlmostEqual, 1.0, 1e-9)
		test.That(t, got.X, test.ShouldAlmostEqual, got.Y, 1e-9)
	})

	t.Run("single point path", func(t *testing.T) {
		got := FindLookaheadPoint([]r3.Vector{{X: 0.05}}, pose, 0.4)
		test.That(t, got, test.ShouldResemble, r3.Vector{X: 0.05})
	})

	t.Run("manager wrapper mirrors the free function", func(t *testing.T) {
		mgr := newTestManager(t, nil)
		_, ok := mgr.LookaheadPoint(pose, 0.4)
		test.That(t, ok, test.ShouldBeFalse)

		mgr.SetGoals([]r3.Vector{{X: 0}, {X: 1}})
		got, ok := mgr.LookaheadPoint(pose, 0.4)
		test.That(t, ok, test.ShouldBeTrue)
		test.That(t, got.X, test.ShouldAlmostEqual, 0.4, 1e-9)
	})
}

func TestNearestNeighborOrder(t *testing.T) {
	start := r3.Vector{}
	pts := []r3.Vector{{X: 5}, {X: 1}, {X: 3}}
	ordered := NearestNeighborOrder(start, pts)
	test.That(t, ordered, test.ShouldResemble, []r3.Vector{{X: 1}, {X: 3}, {X: 5}})

	test.That(t, NearestNeighborOrder(start, nil), test.ShouldHaveLength, 0)
}

type plannerFunc func(ctx context.Context, start, end r3.Vector, m *grid.Map) ([]r3.Vector, error)

func (f plannerFunc) PlanPath(ctx context.Context, start, end r3.Vector, m *grid.Map) ([]r3.Vector, error) {
	return f(ctx, start, end, m)
}

func TestPlanBetweenTwoGoals(t *testing.T) {
	ctx := context.Background()

	t.Run("passes the planner result through", func(t *testing.T) {
		want := []r3.Vector{{X: 0.5}, {X: 1}}
		mgr := newTestManager(t, plannerFunc(func(context.Context, r3.Vector, r3.Vector, *grid.Map) ([]r3.Vector, error) {
			return want, nil
		}))
		got, err := mgr.PlanBetweenTwoGoals(ctx, r3.Vector{}, r3.Vector{X: 1}, nil)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldResemble, want)
	})

	t.Run("empty plan surfaces as ErrNoPath", func(t *testing.T) {
		mgr := newTestManager(t, plannerFunc(func(context.Context, r3.Vector, r3.Vector, *grid.Map) ([]r3.Vector, error) {
			return nil, nil
		}))
		_, err := mgr.PlanBetweenTwoGoals(ctx, r3.Vector{}, r3.Vector{X: 1}, nil)
		test.That(t, errors.Is(err, ErrNoPath), test.ShouldBeTrue)
	})

	t.Run("planner error is wrapped", func(t *testing.T) {
		mgr := newTestManager(t, plannerFunc(func(context.Context, r3.Vector, r3.Vector, *grid.Map) ([]r3.Vector, error) {
			return nil, errors.New("boom")
		}))
		_, err := mgr.PlanBetweenTwoGoals(ctx, r3.Vector{}, r3.Vector{X: 1}, nil)
		test.That(t, err, test.ShouldNotBeNil)
	})

	t.Run("no planner configured", func(t *testing.T) {
		mgr := newTestManager(t, nil)
		_, err := mgr.PlanBetweenTwoGoals(ctx, r3.Vector{}, r3.Vector{X: 1}, nil)
		test.That(t, errors.Is(err, ErrNoPlanner), test.ShouldBeTrue)
	})
}

func TestPlanThroughGoals(t *testing.T) {
	ctx := context.Background()

	t.Run("concatenates legs without duplicate joints", func(t *testing.T) {
		mgr := newTestManager(t, plannerFunc(func(_ context.Context, start, end r3.Vector, _ *grid.Map) ([]r3.Vector, error) {
			mid := spatial.Lerp(start, end, 0.5)
			return []r3.Vector{start, mid, end}, nil
		}))
		got, err := mgr.PlanThroughGoals(ctx, r3.Vector{}, []r3.Vector{{X: 2}, {X: 4}}, nil)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, got, test.ShouldResemble, []r3.Vector{
			{}, {X: 1}, {X: 2}, {X: 3}, {X: 4},
		})
	})

	t.Run("a failing leg fails the whole plan", func(t *testing.T) {
		calls := 0
		mgr := newTestManager(t, plannerFunc(func(_ context.Context, start, end r3.Vector, _ *grid.Map) ([]r3.Vector, error) {
			calls++
			if calls > 1 {
				return nil, nil
			}
			return []r3.Vector{start, end}, nil
		}))
		_, err := mgr.PlanThroughGoals(ctx, r3.Vector{}, []r3.Vector{{X: 1}, {X: 2}}, nil)
		test.That(t, errors.Is(err, ErrNoPath), test.ShouldBeTrue)
	})

	t.Run("no goals is an error", func(t *testing.T) {
		mgr := newTestManager(t, nil)
		_, err := mgr.PlanThroughGoals(ctx, r3.Vector{}, nil, nil)
		test.That(t, err, test.ShouldNotBeNil)
	})
}

func TestGoalAngleProperties(t *testing.T) {
	// the steering geometry the queue feeds: angles stay in (-π, π]
	pose := spatial.NewPose(r3.Vector{}, math.Pi/3)
	for _, target := range []r3.Vector{{X: 1}, {X: -1}, {Y: 1}, {Y: -1}, {X: -1, Y: -1}} {
		a := pose.AngleTo(target)
		test.That(t, a, test.ShouldBeLessThanOrEqualTo, math.Pi)
		test.That(t, a, test.ShouldBeGreaterThan, -math.Pi)
	}
}
