// Command artbot runs the goal-following motion controller: it wires
// the configured transports to the control loop and drives until
// interrupted.
package main

import (
	"context"
	"flag"
	"time"

	"github.com/edaniels/golog"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	artbot "github.com/Wajeeha-B/rs2-art-gallery-robot"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/config"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/goals"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/pathplan"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/safety"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/trajectory"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/transport/mqttlink"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/transport/serialdrive"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/viz"
)

var logger = golog.NewDevelopmentLogger("artbot")

func main() {
	utils.ContextualMain(mainWithArgs, logger)
}

func mainWithArgs(ctx context.Context, args []string, logger golog.Logger) error {
	flags := flag.NewFlagSet("artbot", flag.ContinueOnError)
	configPath := flags.String("config", "artbot.json", "path to config file")
	if err := flags.Parse(args[1:]); err != nil {
		return err
	}

	cfg, err := config.Read(*configPath)
	if err != nil {
		return err
	}

	planner, err := pathplan.NewAStar(cfg.Planner, logger)
	if err != nil {
		return err
	}
	mgr, err := goals.NewManager(cfg.Goals, planner, logger)
	if err != nil {
		return err
	}
	monitor, err := safety.NewMonitor(cfg.Safety)
	if err != nil {
		return err
	}
	generator, err := trajectory.NewGenerator(cfg.Trajectory, logger)
	if err != nil {
		return err
	}
	smoother, err := trajectory.NewSmoother(cfg.Trajectory)
	if err != nil {
		return err
	}

	pilot, err := artbot.NewPilot(cfg.Pilot, artbot.Dependencies{
		Monitor:   monitor,
		Goals:     mgr,
		Generator: generator,
		Smoother:  smoother,
	}, logger)
	if err != nil {
		return err
	}

	var closers []func(ctx context.Context) error

	if cfg.Serial != nil {
		drive, err := serialdrive.New(*cfg.Serial, logger)
		if err != nil {
			return err
		}
		pilot.SetRealDrive(drive)
		closers = append(closers, drive.Close)
	}

	var link *mqttlink.Link
	if cfg.MQTT != nil {
		link, err = mqttlink.NewLink(*cfg.MQTT, pilot, logger)
		if err != nil {
			return err
		}
		pilot.SetSimDrive(link)
		closers = append(closers, func(context.Context) error {
			link.Close()
			return nil
		})
	}

	var markerServer *viz.Server
	if cfg.MarkerAddr != "" {
		markerServer, err = viz.NewServer(cfg.MarkerAddr, logger)
		if err != nil {
			return err
		}
		markerServer.Start()
		closers = append(closers, markerServer.Close)
	}

	pilot.Start()
	closers = append(closers, pilot.Close)

	cancelCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// broadcast goal markers at a relaxed rate
	if link != nil || markerServer != nil {
		utils.PanicCapturingGo(func() {
			for utils.SelectContextOrWait(cancelCtx, time.Second) {
				markers := pilot.GoalMarkers()
				if link != nil {
					link.PublishMarkers(markers)
				}
				if markerServer != nil {
					markerServer.Broadcast(markers)
				}
			}
		})
	}

	// a standalone random mission: wait for the first map, sample goals,
	// and go
	if cfg.RandomGoals > 0 {
		count := cfg.RandomGoals
		utils.PanicCapturingGo(func() {
			for utils.SelectContextOrWait(cancelCtx, 500*time.Millisecond) {
				if err := pilot.RandomMission(cancelCtx, count); err != nil {
					continue
				}
				pilot.SetMissionActive(true)
				return
			}
		})
	}

	<-ctx.Done()
	cancel()

	closeCtx, closeCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCancel()
	var closeErr error
	for i := len(closers) - 1; i >= 0; i-- {
		closeErr = multierr.Combine(closeErr, closers[i](closeCtx))
	}
	if closeErr != nil {
		return errors.Wrap(closeErr, "shutting down")
	}
	return nil
}
