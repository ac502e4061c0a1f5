// Package lidar holds the planar range-scan snapshot consumed by the
// controller. A Scan is replaced wholesale on every sensor update and is
// never partially mutated, so holders of a copy can read it without
// coordination.
package lidar

import (
	"math"

	"github.com/Wajeeha-B/rs2-art-gallery-robot/spatial"
)

// Scan is one revolution of range readings with their angular metadata.
// Sample i is taken at angle AngleMin + i*AngleIncrement in the sensor
// frame, where zero radians points straight ahead of the robot. Readings
// outside [RangeMin, RangeMax] are sensor noise and must be skipped. A
// zero-length Ranges slice is the "no data yet" sentinel.
type Scan struct {
	AngleMin       float64
	AngleIncrement float64
	RangeMin       float64
	RangeMax       float64
	Ranges         []float64
}

// Len returns the number of samples in the scan.
func (s Scan) Len() int {
	return len(s.Ranges)
}

// Empty reports whether the scan carries no samples.
func (s Scan) Empty() bool {
	return len(s.Ranges) == 0
}

// Angle returns the beam angle of sample i, normalized into (-π, π].
func (s Scan) Angle(i int) float64 {
	return spatial.NormalizeAngle(s.AngleMin + float64(i)*s.AngleIncrement)
}

// valid reports whether a reading is inside the sensor's usable band.
// NaN and infinite readings are out-of-range by definition.
func (s Scan) valid(r float64) bool {
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return false
	}
	return r >= s.RangeMin && r <= s.RangeMax
}

// MinForwardRange returns the smallest valid reading whose beam angle lies
// within halfAngle radians of straight ahead. The second return is false
// when the scan is empty or no valid reading falls inside the cone.
func (s Scan) MinForwardRange(halfAngle float64) (float64, bool) {
	minRange := math.Inf(1)
	found := false
	for i, r := range s.Ranges {
		if !s.valid(r) {
			continue
		}
		if math.Abs(s.Angle(i)) > halfAngle {
			continue
		}
		if r < minRange {
			minRange = r
			found = true
		}
	}
	if !found {
		return 0, false
	}
	return minRange, true
}

// Clone returns a deep copy of the scan. Writers hand snapshots to the
// shared state store; readers get clones so neither side can alias the
// other's Ranges slice.
func (s Scan) Clone() Scan {
	out := s
	if s.Ranges != nil {
		out.Ranges = make([]float64, len(s.Ranges))
		copy(out.Ranges, s.Ranges)
	}
	return out
}
