// Package mqttlink bridges the controller's boundary onto MQTT topics:
// pose, scan, map, clicked-point, and mission/mode requests come in;
// velocity commands, acknowledgements, and goal markers go out. It is
// transport only; no control logic lives here.
package mqttlink

import (
	"context"
	"encoding/json"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	goutils "go.viam.com/utils"

	"github.com/Wajeeha-B/rs2-art-gallery-robot/grid"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/lidar"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/spatial"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/viz"
)

// DefaultTopicPrefix namespaces every topic the link touches.
const DefaultTopicPrefix = "artbot"

// Core is the slice of the controller the link feeds and interrogates.
type Core interface {
	OnPoseUpdate(spatial.Pose)
	OnScanUpdate(lidar.Scan)
	OnMapUpdate(*grid.Map)
	OnExternalPoint(r3.Vector)
	SetMissionActive(bool) (bool, string)
	SetRealMode(bool) (bool, string)
}

// Config holds the broker connection settings.
type Config struct {
	Broker      string `json:"broker"`
	ClientID    string `json:"client_id,omitempty"`
	Username    string `json:"username,omitempty"`
	Password    string `json:"password,omitempty"`
	TopicPrefix string `json:"topic_prefix,omitempty"`
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	if cfg.Broker == "" {
		return goutils.NewConfigValidationFieldRequiredError(path, "broker")
	}
	return nil
}

// Link connects a Core to an MQTT broker. It also satisfies the
// controller's Drive contract, publishing velocity commands so a
// simulator on the other side of the broker can consume them.
type Link struct {
	client mqtt.Client
	prefix string
	core   Core
	logger golog.Logger
}

type poseMessage struct {
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	Theta float64 `json:"theta"`
}

type scanMessage struct {
	AngleMin       float64   `json:"angle_min"`
	AngleIncrement float64   `json:"angle_increment"`
	RangeMin       float64   `json:"range_min"`
	RangeMax       float64   `json:"range_max"`
	Ranges         []float64 `json:"ranges"`
}

type mapMessage struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Resolution float64 `json:"resolution"`
	OriginX    float64 `json:"origin_x"`
	OriginY    float64 `json:"origin_y"`
	Cells      []int8  `json:"cells"`
}

type pointMessage struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type missionMessage struct {
	Active bool `json:"active"`
}

type modeMessage struct {
	Real bool `json:"real"`
}

type ackMessage struct {
	Accepted bool   `json:"accepted"`
	Message  string `json:"message"`
}

type velocityMessage struct {
	Linear  float64 `json:"linear"`
	Angular float64 `json:"angular"`
}

// NewLink connects to the broker and subscribes the core to its topics.
func NewLink(cfg Config, core Core, logger golog.Logger) (*Link, error) {
	if err := cfg.Validate(""); err != nil {
		return nil, err
	}
	if cfg.TopicPrefix == "" {
		cfg.TopicPrefix = DefaultTopicPrefix
	}
	if cfg.ClientID == "" {
		cfg.ClientID = "artbot-" + uuid.NewString()[:8]
	}

	l := &Link{prefix: cfg.TopicPrefix, core: core, logger: logger}
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(10 * time.Second).
		SetOnConnectHandler(l.onConnect).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warnw("broker connection lost", "error", err)
		})
	l.client = mqtt.NewClient(opts)
	if token := l.client.Connect(); token.Wait() && token.Error() != nil {
		return nil, errors.Wrapf(token.Error(), "connecting to broker %s", cfg.Broker)
	}
	return l, nil
}

// onConnect (re)subscribes on every successful connection, so a broker
// restart does not silently drop the ingestion topics.
func (l *Link) onConnect(mqtt.Client) {
	l.logger.Infow("connected to broker", "prefix", l.prefix)
	l.subscribe("pose", l.handlePose)
	l.subscribe("scan", l.handleScan)
	l.subscribe("map", l.handleMap)
	l.subscribe("clicked_point", l.handleClickedPoint)
	l.subscribe("mission", l.handleMission)
	l.subscribe("mode", l.handleMode)
}

func (l *Link) subscribe(topic string, handle func([]byte)) {
	full := l.prefix + "/" + topic
	token := l.client.Subscribe(full, 0, func(_ mqtt.Client, msg mqtt.Message) {
		handle(msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		l.logger.Errorw("subscribe failed", "topic", full, "error", token.Error())
	}
}

func (l *Link) handlePose(payload []byte) {
	var msg poseMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		l.logger.Warnw("bad pose payload", "error", err)
		return
	}
	l.core.OnPoseUpdate(spatial.NewPose(r3.Vector{X: msg.X, Y: msg.Y}, msg.Theta))
}

func (l *Link) handleScan(payload []byte) {
	var msg scanMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		l.logger.Warnw("bad scan payload", "error", err)
		return
	}
	l.core.OnScanUpdate(lidar.Scan{
		AngleMin:       msg.AngleMin,
		AngleIncrement: msg.AngleIncrement,
		RangeMin:       msg.RangeMin,
		RangeMax:       msg.RangeMax,
		Ranges:         msg.Ranges,
	})
}

func (l *Link) handleMap(payload []byte) {
	var msg mapMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		l.logger.Warnw("bad map payload", "error", err)
		return
	}
	m := &grid.Map{
		Width:      msg.Width,
		Height:     msg.Height,
		Resolution: msg.Resolution,
		Origin:     r3.Vector{X: msg.OriginX, Y: msg.OriginY},
		Cells:      msg.Cells,
	}
	if err := m.Validate(); err != nil {
		l.logger.Warnw("rejecting malformed map", "error", err)
		return
	}
	l.core.OnMapUpdate(m)
}

func (l *Link) handleClickedPoint(payload []byte) {
	var msg pointMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		l.logger.Warnw("bad clicked point payload", "error", err)
		return
	}
	l.core.OnExternalPoint(r3.Vector{X: msg.X, Y: msg.Y})
}

func (l *Link) handleMission(payload []byte) {
	var msg missionMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		l.logger.Warnw("bad mission payload", "error", err)
		return
	}
	accepted, text := l.core.SetMissionActive(msg.Active)
	l.publish("mission/ack", ackMessage{Accepted: accepted, Message: text})
}

func (l *Link) handleMode(payload []byte) {
	var msg modeMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		l.logger.Warnw("bad mode payload", "error", err)
		return
	}
	accepted, text := l.core.SetRealMode(msg.Real)
	l.publish("mode/ack", ackMessage{Accepted: accepted, Message: text})
}

func (l *Link) publish(topic string, value interface{}) {
	payload, err := json.Marshal(value)
	if err != nil {
		l.logger.Errorw("marshal failed", "topic", topic, "error", err)
		return
	}
	l.client.Publish(l.prefix+"/"+topic, 0, false, payload)
}

// SetVelocity publishes a velocity command, making the link usable as
// the simulated drive sink.
func (l *Link) SetVelocity(ctx context.Context, linear, angular r3.Vector) error {
	l.publish("cmd_vel", velocityMessage{Linear: linear.Y, Angular: angular.Z})
	return nil
}

// Stop publishes a zero velocity command.
func (l *Link) Stop(ctx context.Context) error {
	return l.SetVelocity(ctx, r3.Vector{}, r3.Vector{})
}

// PublishMarkers broadcasts the goal markers.
func (l *Link) PublishMarkers(markers []viz.Marker) {
	l.publish("markers", markers)
}

// Close disconnects from the broker.
func (l *Link) Close() {
	l.client.Disconnect(250)
	l.logger.Infow("disconnected from broker")
}
