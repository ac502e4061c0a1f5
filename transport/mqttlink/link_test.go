package mqttlink

import (
	"testing"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/Wajeeha-B/rs2-art-gallery-robot/grid"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/lidar"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/spatial"
)

// recordingCore captures what the handlers deliver.
type recordingCore struct {
	poses  []spatial.Pose
	scans  []lidar.Scan
	maps   []*grid.Map
	points []r3.Vector
	active []bool
	real   []bool
}

func (c *recordingCore) OnPoseUpdate(p spatial.Pose)  { c.poses = append(c.poses, p) }
func (c *recordingCore) OnScanUpdate(s lidar.Scan)    { c.scans = append(c.scans, s) }
func (c *recordingCore) OnMapUpdate(m *grid.Map)      { c.maps = append(c.maps, m) }
func (c *recordingCore) OnExternalPoint(pt r3.Vector) { c.points = append(c.points, pt) }
func (c *recordingCore) SetMissionActive(a bool) (bool, string) {
	c.active = append(c.active, a)
	return true, "ok"
}
func (c *recordingCore) SetRealMode(r bool) (bool, string) {
	c.real = append(c.real, r)
	return true, "ok"
}

// noopPublisher lets handler tests run without a broker.
func newTestLink(t *testing.T, core Core) *Link {
	t.Helper()
	return &Link{prefix: DefaultTopicPrefix, core: core, logger: golog.NewTestLogger(t)}
}

func TestHandlePose(t *testing.T) {
	core := &recordingCore{}
	l := newTestLink(t, core)

	l.handlePose([]byte(`{"x":1.5,"y":-0.5,"theta":0.25}`))
	test.That(t, len(core.poses), test.ShouldEqual, 1)
	test.That(t, core.poses[0].Point.X, test.ShouldEqual, 1.5)
	test.That(t, core.poses[0].Theta, test.ShouldEqual, 0.25)

	l.handlePose([]byte(`not json`))
	test.That(t, len(core.poses), test.ShouldEqual, 1)
}

func TestHandleScan(t *testing.T) {
	core := &recordingCore{}
	l := newTestLink(t, core)

	l.handleScan([]byte(`{"angle_min":-3.14,"angle_increment":0.01,"range_min":0.05,"range_max":3.5,"ranges":[1,2,3]}`))
	test.That(t, len(core.scans), test.ShouldEqual, 1)
	test.That(t, core.scans[0].Len(), test.ShouldEqual, 3)
	test.That(t, core.scans[0].RangeMax, test.ShouldEqual, 3.5)
}

func TestHandleMapValidates(t *testing.T) {
	core := &recordingCore{}
	l := newTestLink(t, core)

	l.handleMap([]byte(`{"width":2,"height":2,"resolution":0.1,"origin_x":0,"origin_y":0,"cells":[0,0,0,100]}`))
	test.That(t, len(core.maps), test.ShouldEqual, 1)
	test.That(t, core.maps[0].At(1, 1), test.ShouldEqual, grid.CellOccupied)

	// declared shape not matching the cells is rejected at the boundary
	l.handleMap([]byte(`{"width":3,"height":3,"resolution":0.1,"cells":[0,0]}`))
	test.That(t, len(core.maps), test.ShouldEqual, 1)
}

func TestHandleClickedPoint(t *testing.T) {
	core := &recordingCore{}
	l := newTestLink(t, core)

	l.handleClickedPoint([]byte(`{"x":2,"y":3}`))
	test.That(t, len(core.points), test.ShouldEqual, 1)
	test.That(t, core.points[0], test.ShouldResemble, r3.Vector{X: 2, Y: 3})
}

func TestConfigValidate(t *testing.T) {
	var cfg Config
	err := cfg.Validate("mqtt")
	test.That(t, err, test.ShouldNotBeNil)

	cfg.Broker = "tcp://localhost:1883"
	test.That(t, cfg.Validate("mqtt"), test.ShouldBeNil)
}
