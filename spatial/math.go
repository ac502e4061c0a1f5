package spatial

import (
	"math"

	"github.com/golang/geo/r3"
)

// NormalizeAngle wraps an angle in radians into (-π, π].
func NormalizeAngle(theta float64) float64 {
	theta = math.Mod(theta, 2*math.Pi)
	if theta > math.Pi {
		theta -= 2 * math.Pi
	} else if theta <= -math.Pi {
		theta += 2 * math.Pi
	}
	return theta
}

// PlanarDistance returns the straight-line distance between two points in
// the XY plane. Z is ignored.
func PlanarDistance(a, b r3.Vector) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// PathLength returns the cumulative planar length of a polyline.
func PathLength(pts []r3.Vector) float64 {
	var total float64
	for i := 1; i < len(pts); i++ {
		total += PlanarDistance(pts[i-1], pts[i])
	}
	return total
}

// Lerp linearly interpolates between two points; t=0 yields a, t=1 yields b.
func Lerp(a, b r3.Vector, t float64) r3.Vector {
	return r3.Vector{
		X: a.X + (b.X-a.X)*t,
		Y: a.Y + (b.Y-a.Y)*t,
		Z: a.Z + (b.Z-a.Z)*t,
	}
}

// Clamp bounds v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
