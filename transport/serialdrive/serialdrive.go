// Package serialdrive delivers velocity commands to a physical robot
// over a serial port, one newline-terminated frame per command. It is
// the real-mode actuation sink.
package serialdrive

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.bug.st/serial"
	goutils "go.viam.com/utils"
)

// DefaultBaud is the default serial baud rate.
const DefaultBaud = 115200

// Config holds the serial port settings.
type Config struct {
	Device string `json:"device"`
	Baud   int    `json:"baud,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.Device == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "device")
	}
	if cfg.Baud < 0 {
		return goutils.NewConfigValidationError(path, errors.New("baud must not be negative"))
	}
	return nil
}

// Drive writes velocity frames of the form "VEL <linear> <angular>\n"
// to the port. Writes are serialized so frames from concurrent callers
// never interleave.
type Drive struct {
	mu     sync.Mutex
	port   io.WriteCloser
	logger golog.Logger
}

// New opens the configured serial port.
func New(cfg Config, logger golog.Logger) (*Drive, error) {
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	baud := cfg.Baud
	if baud == 0 {
		baud = DefaultBaud
	}
	port, err := serial.Open(cfg.Device, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, errors.Wrapf(err, "opening serial device %s", cfg.Device)
	}
	logger.Infow("serial drive ready", "device", cfg.Device, "baud", baud)
	return newFromPort(port, logger), nil
}

// newFromPort wires a Drive onto an already-open port.
func newFromPort(port io.WriteCloser, logger golog.Logger) *Drive {
	return &Drive{port: port, logger: logger}
}

// SetVelocity writes one velocity frame.
func (d *Drive) SetVelocity(ctx context.Context, linear, angular r3.Vector) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.port == nil {
		return errors.New("serial drive is closed")
	}
	if _, err := fmt.Fprintf(d.port, "VEL %.4f %.4f\n", linear.Y, angular.Z); err != nil {
		return errors.Wrap(err, "writing velocity frame")
	}
	return nil
}

// Stop writes a zero velocity frame.
func (d *Drive) Stop(ctx context.Context) error {
	return d.SetVelocity(ctx, r3.Vector{}, r3.Vector{})
}

// Close stops the robot and closes the port.
func (d *Drive) Close(ctx context.Context) error {
	if err := d.Stop(ctx); err != nil {
		d.logger.Warnw("could not stop before closing", "error", err)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.port == nil {
		return nil
	}
	err := d.port.Close()
	d.port = nil
	return err
}
