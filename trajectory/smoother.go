package trajectory

import (
	"sync"

	"github.com/Wajeeha-B/rs2-art-gallery-robot/spatial"
)

// Smoother turns raw profile velocities into a continuous commanded
// speed. It remembers the last commanded velocity and acceleration so
// each tick's step stays inside the acceleration and jerk limits even
// when the profile index jumps. All methods are safe for concurrent use.
type Smoother struct {
	cfg Config

	mu        sync.Mutex
	lastVel   float64
	lastAccel float64
	lastIdx   int
}

// NewSmoother builds a Smoother, filling in defaults for zero config
// fields.
func NewSmoother(cfg Config) (*Smoother, error) {
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return &Smoother{cfg: cfg}, nil
}

// Next returns the commanded speed for this tick, chasing the profile
// velocity at idx. The index is clamped into the profile and never moves
// backward: progress estimates jitter near sample boundaries, and
// re-chasing an earlier sample's velocity would surge the robot. An
// empty profile targets zero, braking to rest within the limits.
func (s *Smoother) Next(p Profile, idx int, dt float64) float64 {
	target := 0.0
	if !p.Empty() {
		s.mu.Lock()
		if idx < s.lastIdx {
			idx = s.lastIdx
		}
		s.mu.Unlock()
		if idx > len(p)-1 {
			idx = len(p) - 1
		}
		if idx < 0 {
			idx = 0
		}
		target = p[idx].Velocity
		s.mu.Lock()
		s.lastIdx = idx
		s.mu.Unlock()
	}
	return s.Toward(target, dt)
}

// Toward steps the commanded speed toward target, bounding the step by
// the acceleration limit and the step's change by the jerk limit.
func (s *Smoother) Toward(target, dt float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if dt <= 0 {
		return s.lastVel
	}
	accel := (target - s.lastVel) / dt
	accel = spatial.Clamp(accel, s.lastAccel-s.cfg.MaxJerk*dt, s.lastAccel+s.cfg.MaxJerk*dt)
	accel = spatial.Clamp(accel, -s.cfg.MaxAcceleration, s.cfg.MaxAcceleration)
	vel := spatial.Clamp(s.lastVel+accel*dt, 0, s.cfg.MaxVelocity)
	// lastAccel keeps the commanded value, not the clamped outcome, so
	// the jerk chain stays continuous across velocity saturation.
	s.lastAccel = accel
	s.lastVel = vel
	return vel
}

// MaxVelocity returns the configured speed ceiling, the cruise target
// when no profile is available.
func (s *Smoother) MaxVelocity() float64 {
	return s.cfg.MaxVelocity
}

// LastVelocity returns the most recently commanded speed.
func (s *Smoother) LastVelocity() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastVel
}

// Reset clears the smoother's memory. Call it whenever the profile is
// regenerated or a mission restarts, so stale progress does not bleed
// into the new trajectory.
func (s *Smoother) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastVel = 0
	s.lastAccel = 0
	s.lastIdx = 0
}
