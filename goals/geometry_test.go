package goals

import (
	"math"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/Wajeeha-B/rs2-art-gallery-robot/spatial"
)

func TestDistanceSymmetry(t *testing.T) {
	pose := spatial.NewPose(r3.Vector{X: 1, Y: 2}, 0.7)
	g := NewGoal(r3.Vector{X: 4, Y: 6})

	// the pose-to-goal distance matches the goal-to-goal formula applied
	// to the pose's own position
	asGoal := NewGoal(pose.Point)
	test.That(t, DistanceToGoal(g, pose), test.ShouldAlmostEqual, DistanceBetweenGoals(g, asGoal), 1e-12)
	test.That(t, DistanceToGoal(g, pose), test.ShouldAlmostEqual, 5, 1e-12)

	// symmetric in its arguments
	test.That(t, DistanceBetweenGoals(g, asGoal), test.ShouldAlmostEqual, DistanceBetweenGoals(asGoal, g), 1e-12)

	// z never contributes
	g.Position.Z = 10
	test.That(t, DistanceToGoal(g, pose), test.ShouldAlmostEqual, 5, 1e-12)
}

func TestGoalAngle(t *testing.T) {
	pose := spatial.NewPose(r3.Vector{}, 0)

	// dead ahead
	test.That(t, GoalAngle(NewGoal(r3.Vector{X: 1}), pose), test.ShouldAlmostEqual, 0, 1e-12)
	// directly left and right
	test.That(t, GoalAngle(NewGoal(r3.Vector{Y: 1}), pose), test.ShouldAlmostEqual, math.Pi/2, 1e-12)
	test.That(t, GoalAngle(NewGoal(r3.Vector{Y: -1}), pose), test.ShouldAlmostEqual, -math.Pi/2, 1e-12)
	// directly behind normalizes to π, never -π
	test.That(t, GoalAngle(NewGoal(r3.Vector{X: -1}), pose), test.ShouldAlmostEqual, math.Pi, 1e-12)

	// heading offsets wrap back into (-π, π]: facing 3π/4, a goal at
	// bearing -3π/4 sits π/2 to the robot's left once normalized
	turned := spatial.NewPose(r3.Vector{}, 3*math.Pi/4)
	a := GoalAngle(NewGoal(r3.Vector{X: -1, Y: -1}), turned)
	test.That(t, a, test.ShouldAlmostEqual, math.Pi/2, 1e-12)
}
