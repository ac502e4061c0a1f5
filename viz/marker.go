// Package viz projects controller state into labeled, colored point
// markers and streams them to attached viewers. It is a read-only window
// onto the goal queue; nothing here feeds back into control decisions.
package viz

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/Wajeeha-B/rs2-art-gallery-robot/goals"
)

// Marker is one labeled, colored point for display.
type Marker struct {
	Label    string    `json:"label"`
	Position r3.Vector `json:"position"`
	// Color is a hex RGB string like "#ff8800".
	Color string `json:"color"`
	// Current marks the goal at the front of the queue.
	Current bool `json:"current"`
}

// GoalMarkers renders the queued goals in visiting order. Each goal gets
// its own hue, evenly spread around the wheel so adjacent goals stay
// distinguishable; the front goal is additionally flagged as current.
func GoalMarkers(gs []goals.Goal) []Marker {
	out := make([]Marker, len(gs))
	for i, g := range gs {
		hue := float64(i) * 360.0 / float64(len(gs))
		out[i] = Marker{
			Label:    fmt.Sprintf("goal %d", i+1),
			Position: g.Position,
			Color:    colorful.Hsv(hue, 0.85, 0.92).Hex(),
			Current:  i == 0,
		}
	}
	return out
}
