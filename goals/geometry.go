package goals

import (
	"github.com/Wajeeha-B/rs2-art-gallery-robot/spatial"
)

// DistanceToGoal returns the straight-line planar distance from a pose
// to a goal.
func DistanceToGoal(g Goal, pose spatial.Pose) float64 {
	return pose.DistanceTo(g.Position)
}

// DistanceBetweenGoals returns the straight-line planar distance between
// two goals.
func DistanceBetweenGoals(a, b Goal) float64 {
	return spatial.PlanarDistance(a.Position, b.Position)
}

// GoalAngle returns the signed angle between the pose's heading and the
// vector to the goal, normalized into (-π, π]. A goal dead ahead yields
// zero; a goal to the left yields a positive angle.
func GoalAngle(g Goal, pose spatial.Pose) float64 {
	return pose.AngleTo(g.Position)
}
