package grid

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"
)

func testMap(t *testing.T) *Map {
	t.Helper()
	m, err := NewMap(10, 8, 0.5, r3.Vector{X: -2, Y: -2})
	test.That(t, err, test.ShouldBeNil)
	for i := range m.Cells {
		m.Cells[i] = CellFree
	}
	return m
}

func TestNewMapRejectsBadShape(t *testing.T) {
	_, err := NewMap(0, 5, 0.5, r3.Vector{})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewMap(5, 5, 0, r3.Vector{})
	test.That(t, err, test.ShouldNotBeNil)
	_, err = NewMap(5, 5, -0.1, r3.Vector{})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestValidate(t *testing.T) {
	m := testMap(t)
	test.That(t, m.Validate(), test.ShouldBeNil)

	m.Cells = m.Cells[:len(m.Cells)-1]
	test.That(t, m.Validate(), test.ShouldNotBeNil)
}

func TestWorldGridRoundTrip(t *testing.T) {
	m := testMap(t)

	// the center of every cell must map back to that cell
	for cy := 0; cy < m.Height; cy++ {
		for cx := 0; cx < m.Width; cx++ {
			pt := m.GridToWorld(cx, cy)
			gx, gy, ok := m.WorldToGrid(pt)
			test.That(t, ok, test.ShouldBeTrue)
			test.That(t, gx, test.ShouldEqual, cx)
			test.That(t, gy, test.ShouldEqual, cy)
		}
	}
}

func TestWorldToGrid(t *testing.T) {
	m := testMap(t)

	cx, cy, ok := m.WorldToGrid(r3.Vector{X: -2, Y: -2})
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, cx, test.ShouldEqual, 0)
	test.That(t, cy, test.ShouldEqual, 0)

	// just past the far corner falls off the grid
	_, _, ok = m.WorldToGrid(r3.Vector{X: 3, Y: 2})
	test.That(t, ok, test.ShouldBeFalse)

	_, _, ok = m.WorldToGrid(r3.Vector{X: -2.01, Y: 0})
	test.That(t, ok, test.ShouldBeFalse)
}

func TestAt(t *testing.T) {
	m := testMap(t)
	m.Cells[m.Index(3, 2)] = CellOccupied

	test.That(t, m.At(3, 2), test.ShouldEqual, CellOccupied)
	test.That(t, m.At(0, 0), test.ShouldEqual, CellFree)
	test.That(t, m.At(-1, 0), test.ShouldEqual, CellUnknown)
	test.That(t, m.At(10, 0), test.ShouldEqual, CellUnknown)
	test.That(t, m.IsFree(3, 2), test.ShouldBeFalse)
	test.That(t, m.IsFree(-1, -1), test.ShouldBeFalse)
}

func TestDiscFree(t *testing.T) {
	m := testMap(t)
	m.Cells[m.Index(5, 4)] = CellOccupied

	// a disc well away from the obstacle is clear
	test.That(t, m.DiscFree(1, 1, 0.5), test.ShouldBeTrue)
	// a disc overlapping the obstacle is not
	test.That(t, m.DiscFree(4, 4, 0.6), test.ShouldBeFalse)
	// zero radius degenerates to the single cell
	test.That(t, m.DiscFree(5, 4, 0), test.ShouldBeFalse)
	test.That(t, m.DiscFree(4, 4, 0), test.ShouldBeTrue)
	// a disc poking past the map edge sees unknown cells
	test.That(t, m.DiscFree(0, 0, 1.0), test.ShouldBeFalse)
}

func TestFreeCellCount(t *testing.T) {
	m := testMap(t)
	test.That(t, m.FreeCellCount(), test.ShouldEqual, 80)
	m.Cells[0] = CellOccupied
	m.Cells[1] = CellUnknown
	test.That(t, m.FreeCellCount(), test.ShouldEqual, 78)

	empty, err := NewMap(2, 2, 1, r3.Vector{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, empty.FreeCellCount(), test.ShouldEqual, 0)
}
