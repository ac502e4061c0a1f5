package viz

import (
	"context"
	"testing"
	"time"

	"github.com/edaniels/golog"
	"github.com/golang/geo/r3"
	"github.com/gorilla/websocket"
	"go.viam.com/test"
	"go.viam.com/utils/testutils"

	"github.com/Wajeeha-B/rs2-art-gallery-robot/goals"
)

func TestGoalMarkers(t *testing.T) {
	test.That(t, GoalMarkers(nil), test.ShouldHaveLength, 0)

	gs := []goals.Goal{
		goals.NewGoal(r3.Vector{X: 1}),
		goals.NewGoal(r3.Vector{X: 2}),
		goals.NewGoal(r3.Vector{X: 3}),
	}
	markers := GoalMarkers(gs)
	test.That(t, markers, test.ShouldHaveLength, 3)
	test.That(t, markers[0].Label, test.ShouldEqual, "goal 1")
	test.That(t, markers[0].Current, test.ShouldBeTrue)
	test.That(t, markers[1].Current, test.ShouldBeFalse)
	test.That(t, markers[2].Position.X, test.ShouldEqual, 3.0)
	// hues are spread, so no two markers share a color
	test.That(t, markers[0].Color, test.ShouldNotEqual, markers[1].Color)
	test.That(t, markers[1].Color, test.ShouldNotEqual, markers[2].Color)
}

func TestServerBroadcast(t *testing.T) {
	logger := golog.NewTestLogger(t)
	s, err := NewServer("127.0.0.1:0", logger)
	test.That(t, err, test.ShouldBeNil)
	s.Start()

	conn, _, err := websocket.DefaultDialer.Dial("ws://"+s.Addr()+"/markers", nil)
	test.That(t, err, test.ShouldBeNil)
	defer func() {
		test.That(t, conn.Close(), test.ShouldBeNil)
	}()

	markers := GoalMarkers([]goals.Goal{goals.NewGoal(r3.Vector{X: 1})})
	// the viewer registers asynchronously after the upgrade
	testutils.WaitForAssertion(t, func(tb testing.TB) {
		tb.Helper()
		s.Broadcast(markers)
		test.That(tb, conn.SetReadDeadline(time.Now().Add(time.Second)), test.ShouldBeNil)
		var got []Marker
		test.That(tb, conn.ReadJSON(&got), test.ShouldBeNil)
		test.That(tb, got, test.ShouldHaveLength, 1)
		test.That(tb, got[0].Label, test.ShouldEqual, "goal 1")
	})

	test.That(t, s.Close(context.Background()), test.ShouldBeNil)
}
