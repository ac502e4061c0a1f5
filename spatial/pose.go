// Package spatial provides the planar pose and angle math used by the
// controller. All positions are in meters in the world frame; headings are
// yaw angles in radians, counterclockwise-positive, with zero along +X.
// The Z component of position vectors is carried but ignored.
package spatial

import (
	"math"

	"github.com/golang/geo/r3"
)

// Pose is a planar robot pose: a position and a yaw heading.
type Pose struct {
	Point r3.Vector
	Theta float64
}

// NewPose constructs a Pose from a position and yaw.
func NewPose(point r3.Vector, theta float64) Pose {
	return Pose{Point: point, Theta: theta}
}

// NewZeroPose returns a pose at the origin facing +X.
func NewZeroPose() Pose {
	return Pose{}
}

// PoseFromQuaternion reduces a Z-axis-aligned orientation quaternion to a
// Pose. Localization stacks typically publish full quaternions even for
// planar robots; only the yaw component survives the reduction.
func PoseFromQuaternion(point r3.Vector, qx, qy, qz, qw float64) Pose {
	siny := 2 * (qw*qz + qx*qy)
	cosy := 1 - 2*(qy*qy+qz*qz)
	return Pose{Point: point, Theta: math.Atan2(siny, cosy)}
}

// Heading returns the unit vector the pose is facing along.
func (p Pose) Heading() r3.Vector {
	return r3.Vector{X: math.Cos(p.Theta), Y: math.Sin(p.Theta)}
}

// DistanceTo returns the planar distance from the pose to a point.
func (p Pose) DistanceTo(pt r3.Vector) float64 {
	return PlanarDistance(p.Point, pt)
}

// AngleTo returns the signed angle between the pose's heading and the
// vector from the pose to pt, normalized into (-π, π]. A point dead ahead
// yields 0; a point to the left yields a positive angle.
func (p Pose) AngleTo(pt r3.Vector) float64 {
	bearing := math.Atan2(pt.Y-p.Point.Y, pt.X-p.Point.X)
	return NormalizeAngle(bearing - p.Theta)
}
