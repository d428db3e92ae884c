package body

import (
	"math"

	"github.com/kamilpitula/platformer/internal/tilemap"
)

// UpdatePhysics advances the body by dt seconds and resolves it against the
// tile map. Horizontal contacts are resolved before vertical ones.
func (b *MovingBody) UpdatePhysics(dt float64, m *tilemap.Map) {
	if m == nil || !(dt > 0) || math.IsInf(dt, 0) {
		return
	}

	b.OldPosition = b.Position
	b.OldVelocity = b.Velocity

	b.Velocity = b.limitWalkSpeed(b.Velocity.Add(b.Acceleration.Mul(dt)))
	b.Acceleration[0] = -b.Velocity[0] * b.tuning.Friction

	b.WasContact = b.Contact

	b.SyncAABB()
	b.Position = b.Position.Add(b.Velocity.Mul(dt))

	b.resolveLeftWall(m)
	b.resolveRightWall(m)
	b.resolveGround(m)
	b.resolveCeiling(m)
}

func (b *MovingBody) resolveLeftWall(m *tilemap.Map) {
	if b.Velocity[0] < 0 {
		if wallX, ok := b.wallLeft(m); ok {
			b.Position[0] = wallX
			b.Velocity[0] = 0
			b.Contact.PushesLeftWall = true
			return
		}
	}
	b.Contact.PushesLeftWall = false
}

func (b *MovingBody) resolveRightWall(m *tilemap.Map) {
	if b.Velocity[0] > 0 {
		if wallX, ok := b.wallRight(m); ok {
			b.Position[0] = wallX - b.Size()[0]
			b.Velocity[0] = 0
			b.Contact.PushesRightWall = true
			return
		}
	}
	b.Contact.PushesRightWall = false
}

func (b *MovingBody) floor(m *tilemap.Map) float64 {
	if b.Bounds[1] != 0 {
		return b.Bounds[1]
	}
	return m.Bottom()
}

func (b *MovingBody) resolveGround(m *tilemap.Map) {
	height := b.Size()[1]
	if floor := b.floor(m); b.Position[1]+height >= floor {
		b.Position[1] = floor - height
		b.Velocity[1] = 0
		b.Contact.OnGround = true
		b.OnOneWayPlatform = false
		return
	}

	if b.Velocity[1] > 0 {
		if groundY, oneWay, ok := b.groundBelow(m); ok {
			b.Position[1] = groundY - height
			b.Velocity[1] = 0
			b.Contact.OnGround = true
			b.OnOneWayPlatform = oneWay
			return
		}
	}
	b.Contact.OnGround = false
	b.OnOneWayPlatform = false
}

func (b *MovingBody) resolveCeiling(m *tilemap.Map) {
	if b.Velocity[1] < 0 {
		if ceilingY, ok := b.ceilingAbove(m); ok {
			b.Position[1] = ceilingY
			b.Velocity[1] = 0
			b.Contact.AtCeiling = true
			return
		}
	}
	b.Contact.AtCeiling = false
}
