package physics

import (
	"context"

	"github.com/kamilpitula/platformer/logging"
)

const (
	// EventBodyLanded is emitted when a body touches ground after being airborne.
	EventBodyLanded logging.EventType = "physics.body_landed"
	// EventWallContact is emitted when a body starts pushing against a wall.
	EventWallContact logging.EventType = "physics.wall_contact"
	// EventCollisionDetected is emitted for every body pair recorded by the broad phase.
	EventCollisionDetected logging.EventType = "physics.collision_detected"
)

// BodyLandedPayload captures where a body came to rest.
type BodyLandedPayload struct {
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	ImpactSpeed    float64 `json:"impactSpeed"`
	OneWayPlatform bool    `json:"oneWayPlatform"`
}

// WallContactPayload captures which side touched the wall.
type WallContactPayload struct {
	Side string  `json:"side"`
	X    float64 `json:"x"`
}

// CollisionPayload carries the signed penetration from the actor's side.
type CollisionPayload struct {
	OverlapX float64 `json:"overlapX"`
	OverlapY float64 `json:"overlapY"`
}

// BodyLanded publishes a landing event.
func BodyLanded(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload BodyLandedPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventBodyLanded,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Payload:  payload,
	})
}

// WallContact publishes a wall contact event.
func WallContact(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload WallContactPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventWallContact,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityDebug,
		Payload:  payload,
	})
}

// CollisionDetected publishes a body overlap.
func CollisionDetected(ctx context.Context, pub logging.Publisher, tick uint64, actor, target logging.EntityRef, payload CollisionPayload) {
	publish(ctx, pub, logging.Event{
		Type:     EventCollisionDetected,
		Tick:     tick,
		Actor:    actor,
		Targets:  []logging.EntityRef{target},
		Severity: logging.SeverityInfo,
		Payload:  payload,
	})
}

func publish(ctx context.Context, pub logging.Publisher, event logging.Event) {
	if pub == nil {
		return
	}
	event.Category = logging.CategoryPhysics
	pub.Publish(ctx, event)
}
