package artbot

import (
	"context"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
)

// Drive is the actuation sink commands are delivered to. Linear velocity
// is in m/s with Y forward; angular velocity is in rad/s with Z
// counterclockwise-positive. Implementations live at the transport
// boundary; the control loop only ever sees this interface.
type Drive interface {
	SetVelocity(ctx context.Context, linear, angular r3.Vector) error
	Stop(ctx context.Context) error
}

// LogDrive is a Drive that only logs what it is told, the default sink
// for simulated missions with no transport attached.
type LogDrive struct {
	logger golog.Logger
}

// NewLogDrive builds a LogDrive.
func NewLogDrive(logger golog.Logger) *LogDrive {
	return &LogDrive{logger: logger}
}

// SetVelocity logs the commanded velocities.
func (d *LogDrive) SetVelocity(ctx context.Context, linear, angular r3.Vector) error {
	d.logger.Debugw("drive", "linear", linear.Y, "angular", angular.Z)
	return nil
}

// Stop logs the stop.
func (d *LogDrive) Stop(ctx context.Context) error {
	d.logger.Debugw("drive stop")
	return nil
}
