package body

import (
	"math"

	"github.com/kamilpitula/platformer/internal/geom"
	"github.com/kamilpitula/platformer/internal/tilemap"
)

// sensors are the box corners pushed outward by SensorEpsilon and snapped to
// whole units.
type sensors struct {
	topLeft     geom.Vec2
	topRight    geom.Vec2
	bottomLeft  geom.Vec2
	bottomRight geom.Vec2
}

func (b *MovingBody) sensorsAt(pos geom.Vec2) sensors {
	eps := b.tuning.SensorEpsilon
	size := b.Size()
	left := pos[0] - eps
	right := pos[0] + size[0] + eps
	top := pos[1] - eps
	bottom := pos[1] + size[1] + eps
	return sensors{
		topLeft:     geom.RoundVec(geom.Vec2{left, top}),
		topRight:    geom.RoundVec(geom.Vec2{right, top}),
		bottomLeft:  geom.RoundVec(geom.Vec2{left, bottom}),
		bottomRight: geom.RoundVec(geom.Vec2{right, bottom}),
	}
}

// horizontalExtent interpolates the left and right sensor columns at t and
// returns the body's edges between them.
func (b *MovingBody) horizontalExtent(fromLeft, toLeft, fromRight, toRight, t float64) (float64, float64) {
	eps := b.tuning.SensorEpsilon
	left := math.Round(geom.Lerp(fromLeft, toLeft, t)) + eps
	right := math.Round(geom.Lerp(fromRight, toRight, t)) - eps
	return left, right
}

// groundBelow sweeps the foot sensors row by row from the old to the new
// position and returns the top of the first supporting row. A one-way
// platform supports only when the foot sensor sampled at its row lies within
// OneWayThreshold of the platform top, on either side.
func (b *MovingBody) groundBelow(m *tilemap.Map) (groundY float64, oneWay bool, found bool) {
	from := b.sensorsAt(b.OldPosition)
	to := b.sensorsAt(b.Position)

	end := m.TileYAt(to.bottomLeft[1])
	beg := min(m.TileYAt(from.bottomLeft[1])+1, end)
	steps := max(end-beg, 1)

	for ty := beg; ty <= end; ty++ {
		t := float64(ty-beg) / float64(steps)
		left, right := b.horizontalExtent(from.bottomLeft[0], to.bottomLeft[0], from.bottomRight[0], to.bottomRight[0], t)
		first, last := m.SpanX(left, right)
		top := m.TileTop(ty)
		foot := math.Round(geom.Lerp(from.bottomLeft[1], to.bottomLeft[1], t))
		nearTop := math.Abs(foot-top) < b.tuning.OneWayThreshold

		platform := false
		for tx := first; tx <= last; tx++ {
			if m.IsObstacle(tx, ty) {
				return top, false, true
			}
			if nearTop && m.IsOneWayPlatform(tx, ty) {
				platform = true
			}
		}
		if platform {
			return top, true, true
		}
	}
	return 0, false, false
}

// ceilingAbove mirrors groundBelow upward. One-way platforms never stop
// upward motion.
func (b *MovingBody) ceilingAbove(m *tilemap.Map) (float64, bool) {
	from := b.sensorsAt(b.OldPosition)
	to := b.sensorsAt(b.Position)

	end := m.TileYAt(to.topLeft[1])
	beg := max(m.TileYAt(from.topLeft[1])-1, end)
	steps := max(beg-end, 1)

	for ty := beg; ty >= end; ty-- {
		t := float64(beg-ty) / float64(steps)
		left, right := b.horizontalExtent(from.topLeft[0], to.topLeft[0], from.topRight[0], to.topRight[0], t)
		first, last := m.SpanX(left, right)
		for tx := first; tx <= last; tx++ {
			if m.IsObstacle(tx, ty) {
				return m.TileTop(ty) + m.TileSize(), true
			}
		}
	}
	return 0, false
}

// verticalExtent returns the rows covered by the pre-move box. Horizontal
// sweeps hold it fixed so the row a body lands on is never seen as a wall.
func (b *MovingBody) verticalExtent(m *tilemap.Map) (int, int) {
	from := b.sensorsAt(b.OldPosition)
	eps := b.tuning.SensorEpsilon
	return m.SpanY(from.topLeft[1]+eps, from.bottomLeft[1]-eps)
}

// wallLeft returns the right edge of the first blocking column to the left.
func (b *MovingBody) wallLeft(m *tilemap.Map) (float64, bool) {
	from := b.sensorsAt(b.OldPosition)
	to := b.sensorsAt(b.Position)

	end := m.TileXAt(to.bottomLeft[0])
	beg := max(m.TileXAt(from.bottomLeft[0])-1, end)
	first, last := b.verticalExtent(m)

	for tx := beg; tx >= end; tx-- {
		for ty := first; ty <= last; ty++ {
			if m.IsObstacle(tx, ty) {
				return m.TileLeft(tx) + m.TileSize(), true
			}
		}
	}
	return 0, false
}

// wallRight returns the left edge of the first blocking column to the right.
func (b *MovingBody) wallRight(m *tilemap.Map) (float64, bool) {
	from := b.sensorsAt(b.OldPosition)
	to := b.sensorsAt(b.Position)

	end := m.TileXAt(to.bottomRight[0])
	beg := min(m.TileXAt(from.bottomRight[0])+1, end)
	first, last := b.verticalExtent(m)

	for tx := beg; tx <= end; tx++ {
		for ty := first; ty <= last; ty++ {
			if m.IsObstacle(tx, ty) {
				return m.TileLeft(tx), true
			}
		}
	}
	return 0, false
}
