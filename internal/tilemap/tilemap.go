// Package tilemap stores the static tile grid a level is built from and the
// conversions between world coordinates and tile indices.
package tilemap

import (
	"errors"
	"fmt"
	"math"

	"github.com/kamilpitula/platformer/internal/geom"
)

// Kind classifies a single tile.
type Kind uint8

const (
	// Empty tiles never collide.
	Empty Kind = iota
	// Block tiles are solid from every side.
	Block
	// OneWayPlatform tiles support a body from above only; bodies pass
	// through them moving up or sideways.
	OneWayPlatform
)

func (k Kind) String() string {
	switch k {
	case Empty:
		return "empty"
	case Block:
		return "block"
	case OneWayPlatform:
		return "one_way_platform"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

var (
	ErrEmptyGrid       = errors.New("tilemap: grid has no tiles")
	ErrRaggedGrid      = errors.New("tilemap: rows differ in length")
	ErrInvalidTileSize = errors.New("tilemap: tile size must be positive")
	ErrUnknownTile     = errors.New("tilemap: unknown tile symbol")
)

// Map is a row-major grid of tiles anchored at a world-space origin. Only the
// origin changes after construction.
type Map struct {
	tiles    []Kind
	width    int
	height   int
	tileSize float64
	origin   geom.Vec2
}

// New copies tiles (indexed [y][x]) into a map.
func New(tiles [][]Kind, tileSize float64, origin geom.Vec2) (*Map, error) {
	if !(tileSize > 0) || math.IsInf(tileSize, 0) {
		return nil, ErrInvalidTileSize
	}
	if len(tiles) == 0 || len(tiles[0]) == 0 {
		return nil, ErrEmptyGrid
	}

	width := len(tiles[0])
	height := len(tiles)
	flat := make([]Kind, 0, width*height)
	for y, row := range tiles {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d tiles, want %d: %w", y, len(row), width, ErrRaggedGrid)
		}
		flat = append(flat, row...)
	}

	return &Map{
		tiles:    flat,
		width:    width,
		height:   height,
		tileSize: tileSize,
		origin:   origin,
	}, nil
}

// FromRows parses a text grid: '.' or ' ' is empty, '#' a block, '=' or '-' a
// one-way platform.
func FromRows(rows []string, tileSize float64, origin geom.Vec2) (*Map, error) {
	tiles := make([][]Kind, len(rows))
	for y, row := range rows {
		line := make([]Kind, 0, len(row))
		for x, r := range row {
			kind, err := parseSymbol(r)
			if err != nil {
				return nil, fmt.Errorf("row %d column %d: %w", y, x, err)
			}
			line = append(line, kind)
		}
		tiles[y] = line
	}
	return New(tiles, tileSize, origin)
}

func parseSymbol(r rune) (Kind, error) {
	switch r {
	case '.', ' ':
		return Empty, nil
	case '#':
		return Block, nil
	case '=', '-':
		return OneWayPlatform, nil
	default:
		return Empty, fmt.Errorf("%q: %w", r, ErrUnknownTile)
	}
}

func (m *Map) Width() int { return m.width }
func (m *Map) Height() int { return m.height }
func (m *Map) TileSize() float64 { return m.tileSize }
func (m *Map) Origin() geom.Vec2 { return m.origin }
func (m *Map) SetOrigin(o geom.Vec2) { m.origin = o }

// Translate shifts the origin, e.g. when a camera scrolls the level.
func (m *Map) Translate(delta geom.Vec2) {
	m.origin = m.origin.Add(delta)
}

// WorldSize returns the level extents in world units.
func (m *Map) WorldSize() geom.Vec2 {
	return geom.Vec2{float64(m.width) * m.tileSize, float64(m.height) * m.tileSize}
}

// Bottom returns the world y of the lower map edge.
func (m *Map) Bottom() float64 {
	return m.origin[1] + float64(m.height)*m.tileSize
}

func (m *Map) inBounds(x, y int) bool {
	return x >= 0 && x < m.width && y >= 0 && y < m.height
}

// Tile returns the tile at (x, y). Outside the grid every tile is a Block.
func (m *Map) Tile(x, y int) Kind {
	if !m.inBounds(x, y) {
		return Block
	}
	return m.tiles[y*m.width+x]
}

// IsObstacle reports whether the tile blocks movement. Out of range is solid.
func (m *Map) IsObstacle(x, y int) bool {
	return m.Tile(x, y) == Block
}

// IsGround reports whether a body can stand on the tile. Out of range is not
// ground.
func (m *Map) IsGround(x, y int) bool {
	if !m.inBounds(x, y) {
		return false
	}
	kind := m.tiles[y*m.width+x]
	return kind == Block || kind == OneWayPlatform
}

// IsOneWayPlatform reports whether the tile is a one-way platform. Out of
// range is false, unlike IsObstacle.
func (m *Map) IsOneWayPlatform(x, y int) bool {
	return m.inBounds(x, y) && m.tiles[y*m.width+x] == OneWayPlatform
}

// IsEmpty reports whether the tile is empty. Out of range is false: the area
// outside the grid is solid, not empty.
func (m *Map) IsEmpty(x, y int) bool {
	return m.inBounds(x, y) && m.tiles[y*m.width+x] == Empty
}
