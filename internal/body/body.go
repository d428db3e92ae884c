// Package body implements the kinematic state of a moving body and its swept
// collision against the tile map.
//
// Contact flags are recomputed from geometry on every UpdatePhysics call. The
// WasContact snapshot is the previous tick's Contact, delayed by exactly one
// tick; it is not an edge-triggered event.
package body

import "github.com/kamilpitula/platformer/internal/geom"

// Contact describes which sides of the body touch the tile map.
type Contact struct {
	OnGround        bool `json:"onGround" msgpack:"onGround"`
	AtCeiling       bool `json:"atCeiling" msgpack:"atCeiling"`
	PushesLeftWall  bool `json:"pushesLeftWall" msgpack:"pushesLeftWall"`
	PushesRightWall bool `json:"pushesRightWall" msgpack:"pushesRightWall"`
}

// CollisionRecord describes one overlapping pair from the owner's point of
// view. Overlap is the signed penetration toward the other body.
type CollisionRecord struct {
	OtherID          string
	Overlap          geom.Vec2
	Velocity         geom.Vec2
	OtherVelocity    geom.Vec2
	Position         geom.Vec2
	OtherPosition    geom.Vec2
	OldPosition      geom.Vec2
	OtherOldPosition geom.Vec2
}

// MovingBody is a dynamic entity. Position is the top-left corner of its box.
type MovingBody struct {
	ID string

	Position     geom.Vec2
	OldPosition  geom.Vec2
	Velocity     geom.Vec2
	OldVelocity  geom.Vec2
	Acceleration geom.Vec2

	// AABB tracks the pre-move box of the last UpdatePhysics call.
	AABB       geom.AABB
	AABBOffset geom.Vec2

	Contact          Contact
	WasContact       Contact
	OnOneWayPlatform bool

	// Bounds is the world size; a non-zero Bounds.Y acts as an absolute
	// floor in world space and moves with Translate. A zero value falls back
	// to the bottom edge of the tile map.
	Bounds geom.Vec2

	Areas         []geom.AreaIndex
	CollidingWith map[string]CollisionRecord

	tuning Tuning
}

// New creates a body with its top-left corner at position.
func New(id string, position, size, bounds geom.Vec2, tuning Tuning) *MovingBody {
	tuning = tuning.normalized()
	half := geom.Vec2{abs(size[0]) / 2, abs(size[1]) / 2}
	return &MovingBody{
		ID:            id,
		Position:      position,
		OldPosition:   position,
		Acceleration:  geom.Vec2{0, tuning.Gravity},
		AABB:          geom.NewAABB(position.Add(half), half),
		AABBOffset:    half,
		Bounds:        bounds,
		CollidingWith: make(map[string]CollisionRecord),
		tuning:        tuning,
	}
}

// Tuning returns the normalized constants the body was built with.
func (b *MovingBody) Tuning() Tuning {
	return b.tuning
}

// Size returns the full width and height of the body.
func (b *MovingBody) Size() geom.Vec2 {
	return b.AABB.Size()
}

// Landed reports a transition from airborne to grounded during the last tick.
func (b *MovingBody) Landed() bool {
	return b.Contact.OnGround && !b.WasContact.OnGround
}

// SyncAABB moves the box onto the current position.
func (b *MovingBody) SyncAABB() {
	b.AABB.Center = b.Position.Add(b.AABBOffset)
}

// Translate shifts the body and its absolute floor without touching its
// velocity, e.g. for camera scrolling.
func (b *MovingBody) Translate(delta geom.Vec2) {
	b.Position = b.Position.Add(delta)
	b.OldPosition = b.OldPosition.Add(delta)
	b.AABB.Center = b.AABB.Center.Add(delta)
	if b.Bounds[1] != 0 {
		b.Bounds[1] += delta[1]
	}
}

// ClearCollisions drops every collision record gathered this tick.
func (b *MovingBody) ClearCollisions() {
	clear(b.CollidingWith)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
