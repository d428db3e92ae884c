package tilemap

import (
	"math"

	"github.com/kamilpitula/platformer/internal/geom"
)

// TileXAt converts a world x coordinate into a column index.
func (m *Map) TileXAt(x float64) int {
	return int(math.Floor((x - m.origin[0]) / m.tileSize))
}

// TileYAt converts a world y coordinate into a row index.
func (m *Map) TileYAt(y float64) int {
	return int(math.Floor((y - m.origin[1]) / m.tileSize))
}

// TileAt converts a world point into tile indices.
func (m *Map) TileAt(p geom.Vec2) (int, int) {
	return m.TileXAt(p[0]), m.TileYAt(p[1])
}

// TileLeft is the world x of the left edge of column x.
func (m *Map) TileLeft(x int) float64 {
	return float64(x)*m.tileSize + m.origin[0]
}

// TileTop is the world y of the top edge of row y.
func (m *Map) TileTop(y int) float64 {
	return float64(y)*m.tileSize + m.origin[1]
}

// TilePosition returns the world position of the tile's top-left corner.
func (m *Map) TilePosition(x, y int) geom.Vec2 {
	return geom.Vec2{m.TileLeft(x), m.TileTop(y)}
}

// SpanX returns the inclusive column range covered by the half-open world
// interval [lo, hi). An edge lying exactly on a tile boundary does not reach
// into the next column.
func (m *Map) SpanX(lo, hi float64) (first, last int) {
	first = m.TileXAt(lo)
	last = m.TileXAt(hi)
	if last > first && m.TileLeft(last) >= hi {
		last--
	}
	return first, last
}

// SpanY is SpanX for rows.
func (m *Map) SpanY(lo, hi float64) (first, last int) {
	first = m.TileYAt(lo)
	last = m.TileYAt(hi)
	if last > first && m.TileTop(last) >= hi {
		last--
	}
	return first, last
}
