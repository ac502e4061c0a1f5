package artbot

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"go.uber.org/multierr"
	goutils "go.viam.com/utils"

	"github.com/Wajeeha-B/rs2-art-gallery-robot/goals"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/grid"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/lidar"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/safety"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/spatial"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/trajectory"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/viz"
)

// Control defaults for a TurtleBot-class robot.
const (
	// DefaultFrequency is the control tick rate in Hz.
	DefaultFrequency = 10.0
	// DefaultLookahead is the pure-pursuit lookahead distance in meters.
	DefaultLookahead = 0.4
	// DefaultSteeringGain scales curvature into angular velocity.
	DefaultSteeringGain = 0.8
)

// TrajectoryMode selects what the pure-pursuit target tracks.
type TrajectoryMode uint8

// The available trajectory modes.
const (
	// ModeSpline pursues the spline-sampled profile through the goals.
	ModeSpline = TrajectoryMode(iota)
	// ModeDirect pursues the raw goal queue point to point.
	ModeDirect
)

func (m TrajectoryMode) String() string {
	switch m {
	case ModeSpline:
		return "spline"
	case ModeDirect:
		return "direct"
	default:
		return "unknown"
	}
}

// Config holds the control-loop tunables.
type Config struct {
	Frequency    float64 `json:"frequency,omitempty"`
	Lookahead    float64 `json:"lookahead,omitempty"`
	SteeringGain float64 `json:"steering_gain,omitempty"`
	// Mode is "spline" (default) or "direct".
	Mode string `json:"trajectory_mode,omitempty"`
}

// Validate ensures all parts of the config are valid. Zero values mean
// "use the default".
func (cfg *Config) Validate(path string) error {
	if cfg.Frequency < 0 || cfg.Frequency > 200 {
		return goutils.NewConfigValidationError(path, errors.New("frequency must be in (0, 200]"))
	}
	if cfg.Lookahead < 0 {
		return goutils.NewConfigValidationError(path, errors.New("lookahead must not be negative"))
	}
	if cfg.SteeringGain < 0 {
		return goutils.NewConfigValidationError(path, errors.New("steering_gain must not be negative"))
	}
	switch cfg.Mode {
	case "", "spline", "direct":
	default:
		return goutils.NewConfigValidationError(path, errors.Errorf("unknown trajectory_mode %q", cfg.Mode))
	}
	return nil
}

func (cfg *Config) fillDefaults() {
	if cfg.Frequency == 0 {
		cfg.Frequency = DefaultFrequency
	}
	if cfg.Lookahead == 0 {
		cfg.Lookahead = DefaultLookahead
	}
	if cfg.SteeringGain == 0 {
		cfg.SteeringGain = DefaultSteeringGain
	}
	if cfg.Mode == "" {
		cfg.Mode = "spline"
	}
}

// Dependencies are the collaborators injected into a Pilot. Monitor,
// Goals, Generator, and Smoother are required; SimDrive defaults to a
// LogDrive, RealDrive may be nil (real mode then falls back to the sim
// sink), and Clock defaults to the wall clock.
type Dependencies struct {
	Monitor   *safety.Monitor
	Goals     *goals.Manager
	Generator *trajectory.Generator
	Smoother  *trajectory.Smoother
	SimDrive  Drive
	RealDrive Drive
	Clock     clock.Clock
}

// Pilot is the control-loop orchestrator. Sensor callbacks and mission
// requests may arrive on any goroutine; one dedicated goroutine runs the
// fixed-rate tick that reads the latest state and emits exactly one
// drive command.
type Pilot struct {
	cfg    Config
	mode   TrajectoryMode
	dt     float64
	logger golog.Logger

	store     *StateStore
	monitor   *safety.Monitor
	goals     *goals.Manager
	generator *trajectory.Generator
	smoother  *trajectory.Smoother
	clock     clock.Clock

	simDrive  Drive
	realDrive Drive

	active      atomic.Bool
	real        atomic.Bool
	missionDone atomic.Bool

	profileMu sync.Mutex
	profile   trajectory.Profile

	// status is only touched from the tick goroutine; transitions are
	// logged on change so a stuck state does not flood the log
	status string

	cancelCtx               context.Context
	cancel                  context.CancelFunc
	activeBackgroundWorkers sync.WaitGroup
	started                 atomic.Bool
}

// NewPilot builds a Pilot from its config and collaborators.
func NewPilot(cfg Config, deps Dependencies, logger golog.Logger) (*Pilot, error) {
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	if deps.Monitor == nil || deps.Goals == nil || deps.Generator == nil || deps.Smoother == nil {
		return nil, errors.New("pilot requires a monitor, goal manager, generator, and smoother")
	}
	if deps.SimDrive == nil {
		deps.SimDrive = NewLogDrive(logger)
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	mode := ModeSpline
	if cfg.Mode == "direct" {
		mode = ModeDirect
	}
	cancelCtx, cancel := context.WithCancel(context.Background())
	return &Pilot{
		cfg:       cfg,
		mode:      mode,
		dt:        1 / cfg.Frequency,
		logger:    logger,
		store:     NewStateStore(),
		monitor:   deps.Monitor,
		goals:     deps.Goals,
		generator: deps.Generator,
		smoother:  deps.Smoother,
		clock:     deps.Clock,
		simDrive:  deps.SimDrive,
		realDrive: deps.RealDrive,
		cancelCtx: cancelCtx,
		cancel:    cancel,
	}, nil
}

// SetSimDrive replaces the simulated actuation sink. Wiring only: call
// before Start.
func (p *Pilot) SetSimDrive(d Drive) {
	p.simDrive = d
}

// SetRealDrive sets the real actuation sink. Wiring only: call before
// Start.
func (p *Pilot) SetRealDrive(d Drive) {
	p.realDrive = d
}

// OnPoseUpdate ingests a pose from the localization boundary.
func (p *Pilot) OnPoseUpdate(pose spatial.Pose) {
	p.store.SetPose(pose)
}

// OnScanUpdate ingests a range scan from the sensor boundary.
func (p *Pilot) OnScanUpdate(scan lidar.Scan) {
	p.store.SetScan(scan)
}

// OnMapUpdate ingests a full occupancy map replacement.
func (p *Pilot) OnMapUpdate(m *grid.Map) {
	p.store.SetMap(m)
}

// OnExternalPoint ingests an externally-clicked point and appends it to
// the goal queue.
func (p *Pilot) OnExternalPoint(pt r3.Vector) {
	p.store.SetExternalPoint(pt)
	p.goals.AddGoal(pt)
	if err := p.rebuildProfile(p.cancelCtx); err != nil {
		p.logger.Warnw("could not extend trajectory for external point", "error", err)
	}
}

// SetMissionActive starts or stops the mission. Requests are always
// accepted; starting clears the mission-complete latch and resets
// velocity smoothing so the new run ramps from rest.
func (p *Pilot) SetMissionActive(active bool) (bool, string) {
	p.active.Store(active)
	if active {
		p.missionDone.Store(false)
		p.smoother.Reset()
		if err := p.rebuildProfile(p.cancelCtx); err != nil {
			p.logger.Warnw("mission started without a fresh trajectory", "error", err)
		}
		p.logger.Infow("mission started", "goals", p.goals.Len())
		return true, "mission started"
	}
	p.logger.Infow("mission stopped")
	return true, "mission stopped"
}

// SetRealMode selects which actuation path receives commands. Always
// accepted; control logic is unaffected.
func (p *Pilot) SetRealMode(real bool) (bool, string) {
	p.real.Store(real)
	p.logger.Infow("mode changed", "real", real)
	if real {
		return true, "real mode"
	}
	return true, "simulated mode"
}

// Active reports whether a mission is running.
func (p *Pilot) Active() bool {
	return p.active.Load()
}

// RealMode reports whether commands go to the real actuation path.
func (p *Pilot) RealMode() bool {
	return p.real.Load()
}

// MissionComplete reports whether the goal queue emptied mid-mission.
func (p *Pilot) MissionComplete() bool {
	return p.missionDone.Load()
}

// GoalMarkers projects the goal queue into display markers.
func (p *Pilot) GoalMarkers() []viz.Marker {
	return viz.GoalMarkers(p.goals.Goals())
}

// SetGoals replaces the mission's goal queue and regenerates the
// trajectory through the new goals.
func (p *Pilot) SetGoals(ctx context.Context, pts []r3.Vector) error {
	p.goals.SetGoals(pts)
	return p.rebuildProfile(ctx)
}

// RandomMission samples count goals over the latest map's free space,
// orders them into a tour from the current pose, and makes them the
// mission. Fewer goals than requested is not an error; none at all is.
func (p *Pilot) RandomMission(ctx context.Context, count int) error {
	m, ok := p.store.Map()
	if !ok {
		return errors.New("no map yet, cannot sample goals")
	}
	pts := p.goals.GenerateRandomGoals(m, count)
	if len(pts) == 0 {
		return errors.New("no free space to sample goals from")
	}
	pose, _ := p.store.Pose()
	return p.SetGoals(ctx, goals.NearestNeighborOrder(pose.Point, pts))
}

// rebuildProfile regenerates the trajectory from the current pose
// through every queued goal, routing through the path planner when a map
// is available. A degenerate-geometry failure keeps the previous
// profile; an unreachable goal clears the queue so the mission idles
// instead of pursuing an undefined target.
func (p *Pilot) rebuildProfile(ctx context.Context) error {
	pts := p.goals.Positions()
	if len(pts) == 0 {
		p.setProfile(nil)
		return nil
	}
	pose, _ := p.store.Pose()
	waypoints := append([]r3.Vector{pose.Point}, pts...)

	if m, ok := p.store.Map(); ok {
		planned, err := p.goals.PlanThroughGoals(ctx, pose.Point, pts, m)
		switch {
		case err == nil:
			waypoints = planned
		case errors.Is(err, goals.ErrNoPlanner):
			// no planner injected, spline straight through the goals
		case errors.Is(err, goals.ErrNoPath):
			p.goals.Clear()
			p.setProfile(nil)
			return errors.Wrap(err, "mission abandoned")
		default:
			return err
		}
	}

	profile, err := p.generator.Generate(waypoints)
	if err != nil {
		return errors.Wrap(err, "keeping previous trajectory")
	}
	p.setProfile(profile)
	return nil
}

func (p *Pilot) setProfile(profile trajectory.Profile) {
	p.profileMu.Lock()
	p.profile = profile
	p.profileMu.Unlock()
	p.smoother.Reset()
}

// Profile returns the current trajectory profile.
func (p *Pilot) Profile() trajectory.Profile {
	p.profileMu.Lock()
	defer p.profileMu.Unlock()
	return p.profile
}

// Start launches the control goroutine. It may be called once.
func (p *Pilot) Start() {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	p.activeBackgroundWorkers.Add(1)
	goutils.ManagedGo(func() {
		ticker := p.clock.Ticker(time.Duration(float64(time.Second) * p.dt))
		defer ticker.Stop()
		for {
			select {
			case <-p.cancelCtx.Done():
				return
			case <-ticker.C:
			}
			p.tick(p.cancelCtx)
		}
	}, p.activeBackgroundWorkers.Done)
	p.logger.Infow("control loop started",
		"frequency", p.cfg.Frequency,
		"lookahead", p.cfg.Lookahead,
		"mode", p.mode.String())
}

// Close stops the control goroutine and halts the drives. Safe to call
// more than once.
func (p *Pilot) Close(ctx context.Context) error {
	p.cancel()
	p.activeBackgroundWorkers.Wait()
	err := p.simDrive.Stop(ctx)
	if p.realDrive != nil {
		err = multierr.Combine(err, p.realDrive.Stop(ctx))
	}
	return err
}

// tick makes one control decision from the latest shared state. Safety
// pre-empts everything: an obstacle inside the stop distance forces a
// stop before any steering math runs.
func (p *Pilot) tick(ctx context.Context) {
	if !p.active.Load() {
		p.emitStop(ctx, "inactive")
		return
	}
	if p.missionDone.Load() {
		p.emitStop(ctx, "mission complete")
		return
	}

	pose, okPose := p.store.Pose()
	scan, okScan := p.store.Scan()
	if !okPose || !okScan {
		p.emitStop(ctx, "waiting for sensor data")
		return
	}
	if p.monitor.TooClose(scan) {
		p.emitStop(ctx, "obstacle too close")
		return
	}

	target, ok := p.lookaheadTarget(pose)
	if !ok {
		p.emitStop(ctx, "no goals")
		return
	}

	// pure pursuit: curvature toward the lookahead target, angular
	// velocity proportional to curvature and speed
	angle := pose.AngleTo(target)
	curvature := 2 * math.Sin(angle) / p.cfg.Lookahead
	speed := p.commandedSpeed(pose)
	omega := p.cfg.SteeringGain * curvature * speed

	p.setStatus("pursuing")
	if err := p.drive().SetVelocity(ctx,
		r3.Vector{Y: speed}, r3.Vector{Z: omega}); err != nil {
		p.logger.Warnw("drive command failed", "error", err)
	}

	if p.goals.Advance(pose) && p.goals.Len() == 0 {
		p.missionDone.Store(true)
		p.logger.Infow("mission complete")
	}
}

// lookaheadTarget picks the pure-pursuit target: the profile ahead of
// the robot's progress in spline mode, the raw goal queue in direct
// mode. Either way the fallback is the last point, so the robot
// converges on the end of the path.
func (p *Pilot) lookaheadTarget(pose spatial.Pose) (r3.Vector, bool) {
	if p.mode == ModeSpline {
		profile := p.Profile()
		if !profile.Empty() {
			pts := profile.Positions()[profile.NearestIndex(pose.Point):]
			return goals.FindLookaheadPoint(pts, pose, p.cfg.Lookahead), true
		}
	}
	return p.goals.LookaheadPoint(pose, p.cfg.Lookahead)
}

// commandedSpeed asks the smoother for this tick's linear speed: profile
// velocity at the nearest sample in spline mode, cruise speed otherwise.
func (p *Pilot) commandedSpeed(pose spatial.Pose) float64 {
	if p.mode == ModeSpline {
		profile := p.Profile()
		if !profile.Empty() {
			return p.smoother.Next(profile, profile.NearestIndex(pose.Point), p.dt)
		}
	}
	return p.smoother.Toward(p.smoother.MaxVelocity(), p.dt)
}

func (p *Pilot) drive() Drive {
	if p.real.Load() && p.realDrive != nil {
		return p.realDrive
	}
	return p.simDrive
}

func (p *Pilot) emitStop(ctx context.Context, status string) {
	p.setStatus(status)
	if err := p.drive().Stop(ctx); err != nil {
		p.logger.Warnw("stop command failed", "error", err)
	}
}

func (p *Pilot) setStatus(status string) {
	if status == p.status {
		return
	}
	p.logger.Infow("control state changed", "from", p.status, "to", status)
	p.status = status
}
