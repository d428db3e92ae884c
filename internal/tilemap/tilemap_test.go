package tilemap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamilpitula/platformer/internal/geom"
)

func testMap(t *testing.T) *Map {
	t.Helper()
	m, err := FromRows([]string{
		"....",
		".=..",
		"####",
	}, 10, geom.Vec2{0, 0})
	require.NoError(t, err)
	return m
}

func TestFromRowsClassifiesTiles(t *testing.T) {
	m := testMap(t)

	assert.Equal(t, 4, m.Width())
	assert.Equal(t, 3, m.Height())
	assert.Equal(t, Empty, m.Tile(0, 0))
	assert.Equal(t, OneWayPlatform, m.Tile(1, 1))
	assert.Equal(t, Block, m.Tile(3, 2))

	assert.True(t, m.IsEmpty(0, 0))
	assert.True(t, m.IsOneWayPlatform(1, 1))
	assert.True(t, m.IsGround(1, 1))
	assert.False(t, m.IsObstacle(1, 1))
	assert.True(t, m.IsObstacle(2, 2))
	assert.True(t, m.IsGround(2, 2))
}

func TestOutOfRangeQueries(t *testing.T) {
	m := testMap(t)

	outside := [][2]int{{-1, 0}, {0, -1}, {4, 0}, {0, 3}, {-5, -5}, {100, 100}}
	for _, c := range outside {
		assert.True(t, m.IsObstacle(c[0], c[1]), "obstacle at %v", c)
		assert.Equal(t, Block, m.Tile(c[0], c[1]), "tile at %v", c)
		assert.False(t, m.IsGround(c[0], c[1]), "ground at %v", c)
		assert.False(t, m.IsOneWayPlatform(c[0], c[1]), "one-way at %v", c)
		assert.False(t, m.IsEmpty(c[0], c[1]), "empty at %v", c)
	}
}

func TestCoordinateConversion(t *testing.T) {
	m := testMap(t)
	m.SetOrigin(geom.Vec2{-5, 20})

	x, y := m.TileAt(geom.Vec2{-5, 20})
	assert.Equal(t, 0, x)
	assert.Equal(t, 0, y)

	x, y = m.TileAt(geom.Vec2{-5.5, 19.9})
	assert.Equal(t, -1, x)
	assert.Equal(t, -1, y)

	x, y = m.TileAt(geom.Vec2{24.9, 40})
	assert.Equal(t, 2, x)
	assert.Equal(t, 2, y)

	assert.Equal(t, geom.Vec2{15, 40}, m.TilePosition(2, 2))
	assert.Equal(t, 50.0, m.Bottom())
	assert.Equal(t, geom.Vec2{40, 30}, m.WorldSize())

	m.Translate(geom.Vec2{5, -20})
	assert.Equal(t, geom.Vec2{0, 0}, m.Origin())
}

func TestSpanExcludesTouchingBoundary(t *testing.T) {
	m := testMap(t)

	first, last := m.SpanX(0, 20)
	assert.Equal(t, 0, first)
	assert.Equal(t, 1, last)

	first, last = m.SpanX(5, 21)
	assert.Equal(t, 0, first)
	assert.Equal(t, 2, last)

	first, last = m.SpanY(10, 10)
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, last)
}

func TestConstructionErrors(t *testing.T) {
	_, err := FromRows([]string{"..", "..."}, 10, geom.Vec2{})
	assert.True(t, errors.Is(err, ErrRaggedGrid))

	_, err = FromRows([]string{"x"}, 10, geom.Vec2{})
	assert.True(t, errors.Is(err, ErrUnknownTile))

	_, err = FromRows(nil, 10, geom.Vec2{})
	assert.True(t, errors.Is(err, ErrEmptyGrid))

	_, err = FromRows([]string{"#"}, 0, geom.Vec2{})
	assert.True(t, errors.Is(err, ErrInvalidTileSize))
}
