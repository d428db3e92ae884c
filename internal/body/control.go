package body

import (
	"math"

	"github.com/kamilpitula/platformer/internal/geom"
)

// Stop zeroes the velocity. Acceleration, including gravity, is untouched.
func (b *MovingBody) Stop() {
	b.Velocity = geom.Vec2{}
}

// Jump adds an upward impulse and reports whether it was applied.
func (b *MovingBody) Jump() bool {
	if b.tuning.RequireGroundForJump && !b.Contact.OnGround {
		return false
	}
	b.Velocity[1] -= b.tuning.JumpSpeed
	return true
}

// MoveLeft sets the walk acceleration to the left, scaled by factor.
func (b *MovingBody) MoveLeft(factor float64) {
	b.SetHorizontalIntent(-factor)
}

// MoveRight sets the walk acceleration to the right, scaled by factor.
func (b *MovingBody) MoveRight(factor float64) {
	b.SetHorizontalIntent(factor)
}

// SetHorizontalIntent overwrites the horizontal acceleration with axis times
// the walk acceleration. Axis is clamped to [-1, 1].
func (b *MovingBody) SetHorizontalIntent(axis float64) {
	if math.IsNaN(axis) {
		return
	}
	b.Acceleration[0] = geom.Clamp(axis, -1, 1) * b.tuning.Acceleration
}

// ApplyImpulse adds delta directly to the velocity.
func (b *MovingBody) ApplyImpulse(delta geom.Vec2) {
	b.Velocity = b.Velocity.Add(delta)
}

// Drop lowers the body past a one-way platform it stands on. The shift equals
// the platform threshold so the next ground sweep no longer treats the
// platform as support.
func (b *MovingBody) Drop() bool {
	if !b.OnOneWayPlatform {
		return false
	}
	b.Position[1] += b.tuning.OneWayThreshold
	b.OnOneWayPlatform = false
	return true
}

// Falling raises gravity while the body is already moving down.
func (b *MovingBody) Falling() {
	if b.Velocity[1] < 0 {
		return
	}
	b.Acceleration[1] = b.tuning.Gravity * b.tuning.FastFallMultiplier
}

// StopFalling restores regular gravity once the body is no longer rising.
func (b *MovingBody) StopFalling() {
	if b.Velocity[1] < 0 {
		return
	}
	b.Acceleration[1] = b.tuning.Gravity
}

func (b *MovingBody) limitWalkSpeed(v geom.Vec2) geom.Vec2 {
	limit := b.tuning.MaxHorizontalSpeed
	v[0] = geom.Clamp(v[0], -limit, limit)
	return v
}
