package goals

import (
	"github.com/pkg/errors"
	"go.viam.com/utils"
)

// Defaults for goal management on a TurtleBot-sized robot.
const (
	// DefaultGoalRadius is how close the robot must get to a goal for it
	// to count as reached.
	DefaultGoalRadius = 0.1
	// DefaultMinSeparation keeps randomly sampled goals from clustering.
	DefaultMinSeparation = 0.5
	// DefaultSampleClearance keeps sampled goals at least half a robot
	// width away from anything occupied or unknown.
	DefaultSampleClearance = 0.15
	// DefaultMaxSampleAttempts bounds random sampling so it terminates
	// even on maps with almost no free space.
	DefaultMaxSampleAttempts = 500
)

// Config holds the tunables for goal management and random sampling.
type Config struct {
	GoalRadius        float64 `json:"goal_radius,omitempty"`
	MinSeparation     float64 `json:"min_separation,omitempty"`
	SampleClearance   float64 `json:"sample_clearance,omitempty"`
	MaxSampleAttempts int     `json:"max_sample_attempts,omitempty"`
	// Seed fixes the sampling sequence; zero seeds from the clock.
	Seed int64 `json:"seed,omitempty"`
}

// Validate ensures all parts of the config are valid. Zero values mean
// "use the default".
func (cfg *Config) Validate(path string) error {
	if cfg.GoalRadius < 0 {
		return utils.NewConfigValidationError(path, errors.New("goal_radius must not be negative"))
	}
	if cfg.MinSeparation < 0 {
		return utils.NewConfigValidationError(path, errors.New("min_separation must not be negative"))
	}
	if cfg.SampleClearance < 0 {
		return utils.NewConfigValidationError(path, errors.New("sample_clearance must not be negative"))
	}
	if cfg.MaxSampleAttempts < 0 {
		return utils.NewConfigValidationError(path, errors.New("max_sample_attempts must not be negative"))
	}
	return nil
}

func (cfg *Config) fillDefaults() {
	if cfg.GoalRadius == 0 {
		cfg.GoalRadius = DefaultGoalRadius
	}
	if cfg.MinSeparation == 0 {
		cfg.MinSeparation = DefaultMinSeparation
	}
	if cfg.SampleClearance == 0 {
		cfg.SampleClearance = DefaultSampleClearance
	}
	if cfg.MaxSampleAttempts == 0 {
		cfg.MaxSampleAttempts = DefaultMaxSampleAttempts
	}
}
