// Package collider buckets bodies into coarse grid cells and records
// narrow-phase overlaps between bodies that share a cell.
package collider

import (
	"errors"
	"fmt"
	"slices"

	"github.com/kamilpitula/platformer/internal/body"
	"github.com/kamilpitula/platformer/internal/geom"
	"github.com/kamilpitula/platformer/internal/tilemap"
)

var (
	ErrInvalidCellSize         = errors.New("collider: cell size must be positive")
	ErrLevelWidthNotDivisible  = errors.New("collider: level width is not a multiple of the cell width")
	ErrLevelHeightNotDivisible = errors.New("collider: level height is not a multiple of the cell height")
)

// Lookup resolves a body id to the live body. Grid cells hold ids only.
type Lookup interface {
	Body(id string) (*body.MovingBody, bool)
}

// LookupFunc adapts a function to Lookup.
type LookupFunc func(id string) (*body.MovingBody, bool)

// Body implements Lookup.
func (f LookupFunc) Body(id string) (*body.MovingBody, bool) {
	return f(id)
}

// Pair is a collision recorded during CheckCollisions. Overlap is signed
// toward B.
type Pair struct {
	A       string
	B       string
	Overlap geom.Vec2
}

// Grid is the broad phase. Cell sizes are expressed in tiles.
type Grid struct {
	cellWidth  int
	cellHeight int
	horizontal int
	vertical   int
	cells      [][]string
}

// NewGrid splits a level of levelWidth x levelHeight tiles into cells of
// cellWidth x cellHeight tiles.
func NewGrid(cellWidth, cellHeight, levelWidth, levelHeight int) (*Grid, error) {
	if cellWidth <= 0 || cellHeight <= 0 || levelWidth <= 0 || levelHeight <= 0 {
		return nil, fmt.Errorf("%w: cell %dx%d, level %dx%d", ErrInvalidCellSize, cellWidth, cellHeight, levelWidth, levelHeight)
	}
	if levelWidth%cellWidth != 0 {
		return nil, fmt.Errorf("%w: %d %% %d", ErrLevelWidthNotDivisible, levelWidth, cellWidth)
	}
	if levelHeight%cellHeight != 0 {
		return nil, fmt.Errorf("%w: %d %% %d", ErrLevelHeightNotDivisible, levelHeight, cellHeight)
	}

	horizontal := levelWidth / cellWidth
	vertical := levelHeight / cellHeight
	return &Grid{
		cellWidth:  cellWidth,
		cellHeight: cellHeight,
		horizontal: horizontal,
		vertical:   vertical,
		cells:      make([][]string, horizontal*vertical),
	}, nil
}

func (g *Grid) HorizontalCount() int { return g.horizontal }
func (g *Grid) VerticalCount() int { return g.vertical }

// Occupants returns the ids bucketed in area, in insertion order.
func (g *Grid) Occupants(area geom.AreaIndex) []string {
	if !g.contains(area) {
		return nil
	}
	return slices.Clone(g.cells[g.index(area)])
}

func (g *Grid) contains(area geom.AreaIndex) bool {
	return area.X >= 0 && area.X < g.horizontal && area.Y >= 0 && area.Y < g.vertical
}

func (g *Grid) index(area geom.AreaIndex) int {
	return area.Y*g.horizontal + area.X
}

// areaAt maps a world point to its cell, clamped into the grid.
func (g *Grid) areaAt(p geom.Vec2, m *tilemap.Map) geom.AreaIndex {
	tx, ty := m.TileAt(p)
	return geom.AreaIndex{
		X: min(max(geom.FloorDiv(tx, g.cellWidth), 0), g.horizontal-1),
		Y: min(max(geom.FloorDiv(ty, g.cellHeight), 0), g.vertical-1),
	}
}

// overlappingAreas returns the distinct cells touched by the corners of the
// body's box.
func (g *Grid) overlappingAreas(b *body.MovingBody, m *tilemap.Map) []geom.AreaIndex {
	lo := b.AABB.Min()
	hi := b.AABB.Max()
	topLeft := g.areaAt(lo, m)
	bottomRight := g.areaAt(hi, m)

	areas := []geom.AreaIndex{topLeft}
	if topLeft.X != bottomRight.X {
		areas = append(areas, geom.AreaIndex{X: bottomRight.X, Y: topLeft.Y})
	}
	if topLeft.Y != bottomRight.Y {
		areas = append(areas, geom.AreaIndex{X: topLeft.X, Y: bottomRight.Y})
		if topLeft.X != bottomRight.X {
			areas = append(areas, bottomRight)
		}
	}
	return areas
}

// UpdateAreas moves the body's id between cells to match its current box and
// stores the new cell set on the body.
func (g *Grid) UpdateAreas(b *body.MovingBody, m *tilemap.Map) {
	next := g.overlappingAreas(b, m)

	for _, area := range b.Areas {
		if !slices.Contains(next, area) {
			g.removeFrom(area, b.ID)
		}
	}
	for _, area := range next {
		if !slices.Contains(b.Areas, area) {
			g.addTo(area, b.ID)
		}
	}
	b.Areas = next
}

// Remove drops the body from every cell it occupies.
func (g *Grid) Remove(b *body.MovingBody) {
	for _, area := range b.Areas {
		g.removeFrom(area, b.ID)
	}
	b.Areas = nil
}

func (g *Grid) addTo(area geom.AreaIndex, id string) {
	if !g.contains(area) {
		return
	}
	i := g.index(area)
	if slices.Contains(g.cells[i], id) {
		return
	}
	g.cells[i] = append(g.cells[i], id)
}

func (g *Grid) removeFrom(area geom.AreaIndex, id string) {
	if !g.contains(area) {
		return
	}
	i := g.index(area)
	if j := slices.Index(g.cells[i], id); j >= 0 {
		g.cells[i] = slices.Delete(g.cells[i], j, j+1)
	}
}

// CheckCollisions tests every pair of bodies that share a cell and records
// each overlap on both bodies. A pair already present in CollidingWith is
// skipped, so bodies sharing several cells are recorded once. Records are
// never cleared here.
func (g *Grid) CheckCollisions(lookup Lookup) []Pair {
	var pairs []Pair
	for y := 0; y < g.vertical; y++ {
		for x := 0; x < g.horizontal; x++ {
			ids := g.cells[g.index(geom.AreaIndex{X: x, Y: y})]
			if len(ids) < 2 {
				continue
			}
			for i := 0; i < len(ids)-1; i++ {
				a, ok := lookup.Body(ids[i])
				if !ok {
					continue
				}
				for j := i + 1; j < len(ids); j++ {
					b, ok := lookup.Body(ids[j])
					if !ok {
						continue
					}
					if pair, ok := record(a, b); ok {
						pairs = append(pairs, pair)
					}
				}
			}
		}
	}
	return pairs
}

func record(a, b *body.MovingBody) (Pair, bool) {
	if _, seen := a.CollidingWith[b.ID]; seen {
		return Pair{}, false
	}
	overlaps, overlap := a.AABB.OverlapsSigned(b.AABB)
	if !overlaps {
		return Pair{}, false
	}

	if a.CollidingWith == nil {
		a.CollidingWith = make(map[string]body.CollisionRecord)
	}
	if b.CollidingWith == nil {
		b.CollidingWith = make(map[string]body.CollisionRecord)
	}
	a.CollidingWith[b.ID] = body.CollisionRecord{
		OtherID:          b.ID,
		Overlap:          overlap,
		Velocity:         a.Velocity,
		OtherVelocity:    b.Velocity,
		Position:         a.Position,
		OtherPosition:    b.Position,
		OldPosition:      a.OldPosition,
		OtherOldPosition: b.OldPosition,
	}
	b.CollidingWith[a.ID] = body.CollisionRecord{
		OtherID:          a.ID,
		Overlap:          overlap.Mul(-1),
		Velocity:         b.Velocity,
		OtherVelocity:    a.Velocity,
		Position:         b.Position,
		OtherPosition:    a.Position,
		OldPosition:      b.OldPosition,
		OtherOldPosition: a.OldPosition,
	}
	return Pair{A: a.ID, B: b.ID, Overlap: overlap}, true
}
