// Package safety derives the obstacle-proximity stop signal from the
// latest range scan. The monitor owns no state beyond its thresholds; the
// control loop decides what to do with the answer.
package safety

import (
	"math"

	"github.com/pkg/errors"
	"go.viam.com/utils"

	"github.com/Wajeeha-B/rs2-art-gallery-robot/lidar"
)

// Defaults tuned for a TurtleBot3 and its mounted lidar.
const (
	// DefaultStopDistance is how close an obstacle may get, measured from
	// the robot frame, before the controller must stop.
	DefaultStopDistance = 0.24
	// DefaultSensorOffset is the distance from the lidar's own frame to
	// the robot frame along the forward axis.
	DefaultSensorOffset = 0.12
	// DefaultConeHalfAngle bounds the forward sector considered for
	// collisions to ±30°.
	DefaultConeHalfAngle = math.Pi / 6
)

// Config holds the proximity thresholds.
type Config struct {
	StopDistance  float64 `json:"stop_distance,omitempty"`
	SensorOffset  float64 `json:"sensor_offset,omitempty"`
	ConeHalfAngle float64 `json:"cone_half_angle,omitempty"`
}

// Validate ensures all parts of the config are valid. Zero values mean
// "use the default" and are filled in by NewMonitor.
func (cfg *Config) Validate(path string) error {
	if cfg.StopDistance < 0 {
		return utils.NewConfigValidationError(path, errors.New("stop_distance must not be negative"))
	}
	if cfg.SensorOffset < 0 {
		return utils.NewConfigValidationError(path, errors.New("sensor_offset must not be negative"))
	}
	if cfg.ConeHalfAngle < 0 || cfg.ConeHalfAngle > math.Pi {
		return utils.NewConfigValidationError(path, errors.New("cone_half_angle must be in [0, pi]"))
	}
	return nil
}

// Monitor answers whether the robot is too close to whatever is in front
// of it.
type Monitor struct {
	stopDistance  float64
	sensorOffset  float64
	coneHalfAngle float64
}

// NewMonitor builds a Monitor from cfg, filling in defaults for zero
// fields.
func NewMonitor(cfg Config) (*Monitor, error) {
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	m := &Monitor{
		stopDistance:  cfg.StopDistance,
		sensorOffset:  cfg.SensorOffset,
		coneHalfAngle: cfg.ConeHalfAngle,
	}
	if m.stopDistance == 0 {
		m.stopDistance = DefaultStopDistance
	}
	if m.sensorOffset == 0 {
		m.sensorOffset = DefaultSensorOffset
	}
	if m.coneHalfAngle == 0 {
		m.coneHalfAngle = DefaultConeHalfAngle
	}
	return m, nil
}

// TooClose reports whether the nearest obstacle in the forward cone,
// corrected for the sensor's mounting offset, is within the stop
// distance. An empty scan, or one with no valid forward readings, cannot
// assert danger and yields false; the control loop separately refuses to
// drive before the first scan arrives.
func (m *Monitor) TooClose(scan lidar.Scan) bool {
	minRange, ok := scan.MinForwardRange(m.coneHalfAngle)
	if !ok {
		return false
	}
	return minRange-m.sensorOffset < m.stopDistance
}

// StopDistance returns the configured stop threshold.
func (m *Monitor) StopDistance() float64 {
	return m.stopDistance
}
