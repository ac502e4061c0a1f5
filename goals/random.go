package goals

import (
	"math/rand"
	"sync"
	"time"

	"github.com/golang/geo/r3"

	"github.com/Wajeeha-B/rs2-art-gallery-robot/grid"
	"github.com/Wajeeha-B/rs2-art-gallery-robot/spatial"
)

// randSource wraps math/rand with a lock so sampling can run off any
// goroutine without racing the generator.
type randSource struct {
	mu sync.Mutex
	r  *rand.Rand
}

func newRandSource(seed int64) *randSource {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &randSource{r: rand.New(rand.NewSource(seed))}
}

func (rs *randSource) intn(n int) int {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	return rs.r.Intn(n)
}

// GenerateRandomGoals samples up to count world points uniformly over the
// map's free cells. Candidates are rejected when their cell is not free,
// when the robot's footprint around them is not clear, or when they fall
// within the minimum separation of an already accepted goal. Sampling
// stops once the attempt budget runs out, so a crowded or mostly unknown
// map yields fewer goals rather than a livelock; callers must check the
// returned length.
func (mgr *Manager) GenerateRandomGoals(m *grid.Map, count int) []r3.Vector {
	if m == nil || count <= 0 || m.Width <= 0 || m.Height <= 0 {
		return nil
	}
	accepted := make([]r3.Vector, 0, count)
	attempts := 0
	for len(accepted) < count && attempts < mgr.cfg.MaxSampleAttempts {
		attempts++
		cx := mgr.rnd.intn(m.Width)
		cy := mgr.rnd.intn(m.Height)
		if !m.IsFree(cx, cy) {
			continue
		}
		if !m.DiscFree(cx, cy, mgr.cfg.SampleClearance) {
			continue
		}
		pt := m.GridToWorld(cx, cy)
		if tooCloseToAny(pt, accepted, mgr.cfg.MinSeparation) {
			continue
		}
		accepted = append(accepted, pt)
	}
	if len(accepted) < count {
		mgr.logger.Warnw("random goal sampling exhausted its budget",
			"requested", count,
			"accepted", len(accepted),
			"attempts", attempts)
	}
	return accepted
}

func tooCloseToAny(pt r3.Vector, others []r3.Vector, minSeparation float64) bool {
	for _, o := range others {
		if spatial.PlanarDistance(pt, o) < minSeparation {
			return true
		}
	}
	return false
}
