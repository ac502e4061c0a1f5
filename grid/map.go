// Package grid holds the occupancy map the controller samples goals from
// and plans across. Maps arrive fully built from an external mapping
// component and are replaced wholesale on update; a received map is never
// mutated, so it is shared by pointer.
package grid

import (
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
)

// Cell occupancy values, following the common occupancy-grid convention.
const (
	CellUnknown  int8 = -1
	CellFree     int8 = 0
	CellOccupied int8 = 100
)

// Map is a 2D occupancy grid. Cells is row-major with Width columns;
// Origin is the world position of the outer corner of cell (0,0) and
// Resolution is the world size of one cell in meters.
type Map struct {
	Width      int
	Height     int
	Resolution float64
	Origin     r3.Vector
	Cells      []int8
}

// NewMap builds an all-unknown map with the given shape.
func NewMap(width, height int, resolution float64, origin r3.Vector) (*Map, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.Errorf("map dimensions must be positive, got %dx%d", width, height)
	}
	if resolution <= 0 {
		return nil, errors.Errorf("map resolution must be positive, got %f", resolution)
	}
	cells := make([]int8, width*height)
	for i := range cells {
		cells[i] = CellUnknown
	}
	return &Map{
		Width:      width,
		Height:     height,
		Resolution: resolution,
		Origin:     origin,
		Cells:      cells,
	}, nil
}

// Validate checks that the map's declared shape matches its cell data.
func (m *Map) Validate() error {
	if m.Width <= 0 || m.Height <= 0 {
		return errors.Errorf("map dimensions must be positive, got %dx%d", m.Width, m.Height)
	}
	if m.Resolution <= 0 {
		return errors.Errorf("map resolution must be positive, got %f", m.Resolution)
	}
	if len(m.Cells) != m.Width*m.Height {
		return errors.Errorf("map has %d cells, want %d", len(m.Cells), m.Width*m.Height)
	}
	return nil
}

// InBounds reports whether the cell coordinates lie inside the grid.
func (m *Map) InBounds(cx, cy int) bool {
	return cx >= 0 && cx < m.Width && cy >= 0 && cy < m.Height
}

// Index returns the flat Cells index of a cell. The caller must already
// know the cell is in bounds.
func (m *Map) Index(cx, cy int) int {
	return cy*m.Width + cx
}

// At returns the occupancy value of a cell, or CellUnknown when the
// coordinates fall outside the grid.
func (m *Map) At(cx, cy int) int8 {
	if !m.InBounds(cx, cy) {
		return CellUnknown
	}
	return m.Cells[m.Index(cx, cy)]
}

// IsFree reports whether a cell is known free space. Unknown and occupied
// cells are both not free.
func (m *Map) IsFree(cx, cy int) bool {
	return m.At(cx, cy) == CellFree
}

// WorldToGrid maps a world point to the cell containing it. The second
// return is false when the point lies outside the grid.
func (m *Map) WorldToGrid(pt r3.Vector) (int, int, bool) {
	cx := int(math.Floor((pt.X - m.Origin.X) / m.Resolution))
	cy := int(math.Floor((pt.Y - m.Origin.Y) / m.Resolution))
	return cx, cy, m.InBounds(cx, cy)
}

// GridToWorld maps a cell to the world position of its center. It is the
// inverse of WorldToGrid for any point within the cell.
func (m *Map) GridToWorld(cx, cy int) r3.Vector {
	return r3.Vector{
		X: m.Origin.X + (float64(cx)+0.5)*m.Resolution,
		Y: m.Origin.Y + (float64(cy)+0.5)*m.Resolution,
	}
}

// DiscFree reports whether every cell within radius meters of the given
// cell's center is known free. Used to keep sampled goals and planned
// paths clear of obstacles by the robot's own footprint.
func (m *Map) DiscFree(cx, cy int, radius float64) bool {
	if radius <= 0 {
		return m.IsFree(cx, cy)
	}
	span := int(math.Ceil(radius / m.Resolution))
	r2 := (radius / m.Resolution) * (radius / m.Resolution)
	for dy := -span; dy <= span; dy++ {
		for dx := -span; dx <= span; dx++ {
			if float64(dx*dx+dy*dy) > r2 {
				continue
			}
			if !m.IsFree(cx+dx, cy+dy) {
				return false
			}
		}
	}
	return true
}

// FreeCellCount returns how many cells are known free.
func (m *Map) FreeCellCount() int {
	count := 0
	for _, c := range m.Cells {
		if c == CellFree {
			count++
		}
	}
	return count
}
