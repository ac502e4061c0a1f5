package trajectory

import (
	"math"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/interp"

	"github.com/Wajeeha-B/rs2-art-gallery-robot/spatial"
)

// ErrTooFewWaypoints is returned when fewer than two waypoints are
// supplied; a curve needs at least a start and an end.
var ErrTooFewWaypoints = errors.New("trajectory needs at least two waypoints")

// ErrCoincidentWaypoints is returned when two consecutive waypoints
// coincide; a zero-length segment has no defined direction. Callers keep
// their previous profile when this happens.
var ErrCoincidentWaypoints = errors.New("consecutive waypoints coincide")

// coincidentEps is the squared-distance floor below which two waypoints
// count as the same point.
const coincidentEps = 1e-9

// Generator fits a smooth curve through goal waypoints and lays a
// jerk-limited velocity profile over it.
type Generator struct {
	cfg    Config
	logger golog.Logger
}

// NewGenerator builds a Generator, filling in defaults for zero config
// fields.
func NewGenerator(cfg Config, logger golog.Logger) (*Generator, error) {
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return &Generator{cfg: cfg, logger: logger}, nil
}

// Generate produces a profile sampling a natural cubic spline through
// every waypoint, with headings and curvatures from the spline tangents
// and velocities bounded by the configured limits. The whole profile is
// produced at once; regeneration replaces it entirely.
func (g *Generator) Generate(waypoints []r3.Vector) (Profile, error) {
	if len(waypoints) < 2 {
		return nil, ErrTooFewWaypoints
	}
	for i := 1; i < len(waypoints); i++ {
		if spatial.PlanarDistance(waypoints[i-1], waypoints[i]) < coincidentEps {
			return nil, errors.Wrapf(ErrCoincidentWaypoints, "waypoints %d and %d", i-1, i)
		}
	}

	samples, err := g.sampleSpline(waypoints)
	if err != nil {
		return nil, err
	}
	g.assignVelocities(samples)
	g.logger.Debugw("generated trajectory profile",
		"waypoints", len(waypoints),
		"samples", len(samples),
		"length", samples.Length())
	return samples, nil
}

// sampleSpline fits x(t), y(t) natural cubic splines over a centripetal
// parameterization of the waypoints and walks the curve at a fixed arc
// step. Centripetal spacing keeps the spline from overshooting around
// tight waypoint clusters.
func (g *Generator) sampleSpline(waypoints []r3.Vector) (Profile, error) {
	ts := make([]float64, len(waypoints))
	xs := make([]float64, len(waypoints))
	ys := make([]float64, len(waypoints))
	for i, wp := range waypoints {
		if i > 0 {
			ts[i] = ts[i-1] + math.Sqrt(spatial.PlanarDistance(waypoints[i-1], wp))
		}
		xs[i] = wp.X
		ys[i] = wp.Y
	}

	var sx, sy interp.NaturalCubic
	if err := sx.Fit(ts, xs); err != nil {
		return nil, errors.Wrap(err, "fitting x spline")
	}
	if err := sy.Fit(ts, ys); err != nil {
		return nil, errors.Wrap(err, "fitting y spline")
	}

	total := ts[len(ts)-1]
	// Walk finely enough that arc-length accumulation between emitted
	// samples stays accurate for curvy segments.
	fineSteps := int(math.Ceil(total/(g.cfg.SampleStep*0.1))) + 1
	if fineSteps < 64 {
		fineSteps = 64
	}
	dt := total / float64(fineSteps)

	at := func(t float64) (r3.Vector, float64) {
		pos := r3.Vector{X: sx.Predict(t), Y: sy.Predict(t)}
		heading := math.Atan2(sy.PredictDerivative(t), sx.PredictDerivative(t))
		return pos, heading
	}

	pos, heading := at(0)
	profile := Profile{{Position: pos, Heading: heading}}
	arc := 0.0
	sinceLast := 0.0
	prev := pos
	for i := 1; i <= fineSteps; i++ {
		t := float64(i) * dt
		pos, heading = at(t)
		step := spatial.PlanarDistance(prev, pos)
		arc += step
		sinceLast += step
		prev = pos
		if sinceLast >= g.cfg.SampleStep || i == fineSteps {
			profile = append(profile, ProfilePoint{
				Position: pos,
				Heading:  heading,
				Distance: arc,
			})
			sinceLast = 0
		}
	}

	// Curvature as heading change per unit arc length between samples;
	// the first sample borrows from the second so steering sees a
	// continuous signal from the start.
	for i := 1; i < len(profile); i++ {
		ds := profile[i].Distance - profile[i-1].Distance
		if ds < coincidentEps {
			profile[i].Curvature = profile[i-1].Curvature
			continue
		}
		profile[i].Curvature = spatial.NormalizeAngle(profile[i].Heading-profile[i-1].Heading) / ds
	}
	if len(profile) > 1 {
		profile[0].Curvature = profile[1].Curvature
	}
	return profile, nil
}

// assignVelocities lays the velocity profile over the sampled curve:
// cap by max velocity and by lateral acceleration through curvature,
// pin the endpoints to rest, then run forward/backward acceleration
// passes and a jerk pass so every per-tick step is feasible. Each pass
// only ever lowers velocities, so earlier bounds survive later passes.
func (g *Generator) assignVelocities(p Profile) {
	if len(p) == 0 {
		return
	}
	for i := range p {
		v := g.cfg.MaxVelocity
		if k := math.Abs(p[i].Curvature); k > coincidentEps {
			if vc := math.Sqrt(g.cfg.MaxAcceleration / k); vc < v {
				v = vc
			}
		}
		p[i].Velocity = v
	}
	p[0].Velocity = 0
	p[len(p)-1].Velocity = 0

	dt := g.cfg.NominalTick
	maxStep := g.cfg.MaxAcceleration * dt
	maxJerkStep := g.cfg.MaxJerk * dt * dt

	accelForward := func() {
		for i := 1; i < len(p); i++ {
			if limit := p[i-1].Velocity + maxStep; p[i].Velocity > limit {
				p[i].Velocity = limit
			}
		}
	}
	accelBackward := func() {
		for i := len(p) - 2; i >= 0; i-- {
			if limit := p[i+1].Velocity + maxStep; p[i].Velocity > limit {
				p[i].Velocity = limit
			}
		}
	}

	accelForward()
	accelBackward()
	// Jerk: bound the second difference of velocity in both directions,
	// limiting how fast acceleration builds and how abruptly braking
	// starts.
	for i := 1; i < len(p)-1; i++ {
		if limit := 2*p[i].Velocity - p[i-1].Velocity + maxJerkStep; p[i+1].Velocity > limit {
			p[i+1].Velocity = limit
		}
	}
	for i := len(p) - 2; i > 0; i-- {
		if limit := 2*p[i].Velocity - p[i+1].Velocity + maxJerkStep; p[i-1].Velocity > limit {
			p[i-1].Velocity = limit
		}
	}
	for i := range p {
		if p[i].Velocity < 0 {
			p[i].Velocity = 0
		}
	}
	accelForward()
	accelBackward()
}
