// Package artbot ties the controller together: the shared sensor-state
// store, the mission and mode flags, and the fixed-rate control loop
// that turns the latest sensor snapshot into one drive command per tick.
package artbot

import (
	"sync"

	"github.com/golang/geo/r3"

	"github.com/Wajeeha-B/rs2-art-gallery-robot/grid"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/lidar"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/spatial"
)

// StateStore holds the latest value of every asynchronously-arriving
// input. Each field has its own lock so readers of one field never block
// writers of another; writers replace values wholesale and readers copy
// out under the lock, so no lock is ever held across a computation and
// none is ever nested inside another. Getters report whether a real
// value has arrived yet; before that they return the zero sentinel.
type StateStore struct {
	poseMu  sync.Mutex
	pose    spatial.Pose
	hasPose bool

	scanMu  sync.Mutex
	scan    lidar.Scan
	hasScan bool

	mapMu   sync.Mutex
	gridMap *grid.Map

	pointMu  sync.Mutex
	point    r3.Vector
	hasPoint bool
}

// NewStateStore builds an empty store.
func NewStateStore() *StateStore {
	return &StateStore{}
}

// SetPose replaces the latest pose.
func (s *StateStore) SetPose(p spatial.Pose) {
	s.poseMu.Lock()
	defer s.poseMu.Unlock()
	s.pose = p
	s.hasPose = true
}

// Pose returns the latest pose and whether one has arrived.
func (s *StateStore) Pose() (spatial.Pose, bool) {
	s.poseMu.Lock()
	defer s.poseMu.Unlock()
	return s.pose, s.hasPose
}

// SetScan replaces the latest range scan.
func (s *StateStore) SetScan(scan lidar.Scan) {
	cloned := scan.Clone()
	s.scanMu.Lock()
	defer s.scanMu.Unlock()
	s.scan = cloned
	s.hasScan = true
}

// Scan returns a copy of the latest scan and whether one has arrived.
func (s *StateStore) Scan() (lidar.Scan, bool) {
	s.scanMu.Lock()
	scan, ok := s.scan, s.hasScan
	s.scanMu.Unlock()
	return scan.Clone(), ok
}

// SetMap replaces the occupancy map. Maps are immutable once received,
// so the pointer itself is the snapshot.
func (s *StateStore) SetMap(m *grid.Map) {
	s.mapMu.Lock()
	defer s.mapMu.Unlock()
	s.gridMap = m
}

// Map returns the latest map and whether one has arrived.
func (s *StateStore) Map() (*grid.Map, bool) {
	s.mapMu.Lock()
	defer s.mapMu.Unlock()
	return s.gridMap, s.gridMap != nil
}

// SetExternalPoint replaces the externally-supplied path point.
func (s *StateStore) SetExternalPoint(pt r3.Vector) {
	s.pointMu.Lock()
	defer s.pointMu.Unlock()
	s.point = pt
	s.hasPoint = true
}

// ExternalPoint returns the latest external point and whether one has
// arrived.
func (s *StateStore) ExternalPoint() (r3.Vector, bool) {
	s.pointMu.Lock()
	defer s.pointMu.Unlock()
	return s.point, s.hasPoint
}
