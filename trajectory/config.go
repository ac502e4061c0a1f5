package trajectory

import (
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// Defaults matching TurtleBot3 Burger drive limits.
const (
	// DefaultMaxVelocity is the highest linear speed any profile sample
	// may be assigned, in m/s.
	DefaultMaxVelocity = 0.26
	// DefaultMaxAcceleration bounds speed change between ticks, m/s^2.
	DefaultMaxAcceleration = 0.43
	// DefaultMaxJerk bounds acceleration change between ticks, m/s^3.
	DefaultMaxJerk = 1.0
	// DefaultSampleStep is the arc-length spacing of profile samples in
	// meters.
	DefaultSampleStep = 0.05
	// DefaultNominalTick is the control period the velocity passes assume
	// when converting the acceleration and jerk limits into per-sample
	// bounds, in seconds.
	DefaultNominalTick = 0.1
)

// Config holds the kinematic limits shared by the profile generator and
// the velocity smoother.
type Config struct {
	MaxVelocity     float64 `json:"max_velocity,omitempty"`
	MaxAcceleration float64 `json:"max_acceleration,omitempty"`
	MaxJerk         float64 `json:"max_jerk,omitempty"`
	SampleStep      float64 `json:"sample_step,omitempty"`
	NominalTick     float64 `json:"nominal_tick,omitempty"`
}

// Validate ensures all parts of the config are valid. Zero values mean
// "use the default"; explicit negatives are configuration mistakes and
// are rejected before anything starts moving.
func (cfg *Config) Validate(path string) error {
	if cfg.MaxVelocity < 0 {
		return utils.NewConfigValidationError(path, errors.New("max_velocity must not be negative"))
	}
	if cfg.MaxAcceleration < 0 {
		return utils.NewConfigValidationError(path, errors.New("max_acceleration must not be negative"))
	}
	if cfg.MaxJerk < 0 {
		return utils.NewConfigValidationError(path, errors.New("max_jerk must not be negative"))
	}
	if cfg.SampleStep < 0 {
		return utils.NewConfigValidationError(path, errors.New("sample_step must not be negative"))
	}
	if cfg.NominalTick < 0 {
		return utils.NewConfigValidationError(path, errors.New("nominal_tick must not be negative"))
	}
	return nil
}

func (cfg *Config) fillDefaults() {
	if cfg.MaxVelocity == 0 {
		cfg.MaxVelocity = DefaultMaxVelocity
	}
	if cfg.MaxAcceleration == 0 {
		cfg.MaxAcceleration = DefaultMaxAcceleration
	}
	if cfg.MaxJerk == 0 {
		cfg.MaxJerk = DefaultMaxJerk
	}
	if cfg.SampleStep == 0 {
		cfg.SampleStep = DefaultSampleStep
	}
	if cfg.NominalTick == 0 {
		cfg.NominalTick = DefaultNominalTick
	}
}
