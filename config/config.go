// Package config reads the controller's JSON configuration. Files pass
// through environment-variable substitution before decoding, so secrets
// like broker credentials can stay out of the file itself. Malformed
// configuration is the one fatal error class: everything is validated
// before the control loop starts.
package config

import (
	"encoding/json"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"

	artbot "github.com/Wajeeha-B/rs2-art-gallery-robot"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/goals"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/pathplan"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/safety"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/trajectory"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/transport/mqttlink"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/transport/serialdrive"
)

// Config is the full controller configuration. Every section is
// optional; zero values fall back to the components' defaults. MQTT and
// Serial are pointers because their presence decides whether those
// transports are wired at all.
type Config struct {
	Pilot      artbot.Config       `json:"pilot"`
	Safety     safety.Config       `json:"safety"`
	Goals      goals.Config        `json:"goals"`
	Trajectory trajectory.Config   `json:"trajectory"`
	Planner    pathplan.Config     `json:"planner"`
	MQTT       *mqttlink.Config    `json:"mqtt,omitempty"`
	Serial     *serialdrive.Config `json:"serial,omitempty"`
	// MarkerAddr, when set, serves goal markers to websocket viewers.
	MarkerAddr string `json:"marker_addr,omitempty"`
	// RandomGoals, when positive, samples that many goals from the
	// first received map instead of waiting for external goals.
	RandomGoals int `json:"random_goals,omitempty"`
}

// Read loads, substitutes, decodes, and validates a config file.
func Read(filePath string) (*Config, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "reading config %s", filePath)
	}
	var cfg Config
	if err := json.Unmarshal(buf, &cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", filePath)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every section.
func (cfg *Config) Validate() error {
	if err := cfg.Pilot.Validate("pilot"); err != nil {
		return err
	}
	if err := cfg.Safety.Validate("safety"); err != nil {
		return err
	}
	if err := cfg.Goals.Validate("goals"); err != nil {
		return err
	}
	if err := cfg.Trajectory.Validate("trajectory"); err != nil {
		return err
	}
	if err := cfg.Planner.Validate("planner"); err != nil {
		return err
	}
	if cfg.MQTT != nil {
		if err := cfg.MQTT.Validate("mqtt"); err != nil {
			return err
		}
	}
	if cfg.Serial != nil {
		if err := cfg.Serial.Validate("serial"); err != nil {
			return err
		}
	}
	if cfg.RandomGoals < 0 {
		return errors.New("random_goals must not be negative")
	}
	return nil
}
