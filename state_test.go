package artbot

import (
	"sync"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"github.com/Wajeeha-B/rs2-art-gallery-robot/grid"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/lidar"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/spatial"
)

func TestStateStoreSentinels(t *testing.T) {
	s := NewStateStore()

	pose, ok := s.Pose()
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, pose, test.ShouldResemble, spatial.NewZeroPose())

	scan, ok := s.Scan()
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, scan.Empty(), test.ShouldBeTrue)

	_, ok = s.Map()
	test.That(t, ok, test.ShouldBeFalse)

	_, ok = s.ExternalPoint()
	test.That(t, ok, test.ShouldBeFalse)
}

func TestStateStoreRoundTrip(t *testing.T) {
	s := NewStateStore()

	want := spatial.NewPose(r3.Vector{X: 1, Y: 2}, 0.5)
	s.SetPose(want)
	pose, ok := s.Pose()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, pose, test.ShouldResemble, want)

	scan := lidar.Scan{RangeMin: 0.1, RangeMax: 3.5, Ranges: []float64{1, 2, 3}}
	s.SetScan(scan)
	got, ok := s.Scan()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, got.Ranges, test.ShouldResemble, scan.Ranges)
	// the store holds its own copy: mutating the caller's slice after
	// the fact must not leak in
	scan.Ranges[0] = 99
	got, _ = s.Scan()
	test.That(t, got.Ranges[0], test.ShouldEqual, 1.0)

	m, err := grid.NewMap(4, 4, 0.1, r3.Vector{})
	test.That(t, err, test.ShouldBeNil)
	s.SetMap(m)
	gotMap, ok := s.Map()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, gotMap, test.ShouldEqual, m)

	s.SetExternalPoint(r3.Vector{X: 3})
	pt, ok := s.ExternalPoint()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, pt.X, test.ShouldEqual, 3.0)
}

func TestStateStoreConcurrentAccess(t *testing.T) {
	s := NewStateStore()
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.SetPose(spatial.NewPose(r3.Vector{X: float64(i)}, 0))
				s.SetScan(lidar.Scan{RangeMax: 1, Ranges: []float64{float64(j)}})
			}
		}(i)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				s.Pose()
				s.Scan()
				s.Map()
			}
		}()
	}
	wg.Wait()
}
