// Package trajectory turns an ordered sequence of goal points into a
// spline-sampled velocity profile respecting the robot's velocity,
// acceleration, and jerk limits, and smooths the profile into a
// continuous commanded speed tick by tick.
package trajectory

import (
	"math"

	"github.com/golang/geo/r3"

	"github.com/Wajeeha-B/rs2-art-gallery-robot/spatial"
)

// ProfilePoint is one sample of a planned trajectory.
type ProfilePoint struct {
	// Position is the sample's world position.
	Position r3.Vector
	// Heading is the tangent direction of the curve at the sample, rad.
	Heading float64
	// Curvature is the signed curve curvature at the sample, 1/m.
	// Positive bends left.
	Curvature float64
	// Velocity is the feasible linear speed assigned to the sample, m/s.
	Velocity float64
	// Distance is the arc length from the start of the profile, m.
	Distance float64
}

// Profile is an ordered sequence of trajectory samples. It is replaced
// wholesale on regeneration and never edited in place, so holders of a
// profile can read it without coordination.
type Profile []ProfilePoint

// Empty reports whether the profile holds no samples.
func (p Profile) Empty() bool {
	return len(p) == 0
}

// Length returns the total arc length of the profile.
func (p Profile) Length() float64 {
	if len(p) == 0 {
		return 0
	}
	return p[len(p)-1].Distance
}

// Positions returns the sample positions in order. The slice is freshly
// allocated so callers can keep it past the next regeneration.
func (p Profile) Positions() []r3.Vector {
	out := make([]r3.Vector, len(p))
	for i, pt := range p {
		out[i] = pt.Position
	}
	return out
}

// NearestIndex returns the index of the sample closest to pt, used to
// measure progress along the profile.
func (p Profile) NearestIndex(pt r3.Vector) int {
	best := 0
	bestDist := math.Inf(1)
	for i, sample := range p {
		if d := spatial.PlanarDistance(sample.Position, pt); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
