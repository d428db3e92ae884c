package lifecycle

import (
	"context"

	"github.com/kamilpitula/platformer/logging"
)

const (
	// EventBodySpawned is emitted when a body enters the world.
	EventBodySpawned logging.EventType = "lifecycle.body_spawned"
	// EventBodyRemoved is emitted when a body leaves the world.
	EventBodyRemoved logging.EventType = "lifecycle.body_removed"
)

// BodySpawnedPayload captures spawn metadata for a new body.
type BodySpawnedPayload struct {
	SpawnX float64 `json:"spawnX"`
	SpawnY float64 `json:"spawnY"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// BodyRemovedPayload captures the reason a body left.
type BodyRemovedPayload struct {
	Reason string `json:"reason"`
}

// BodySpawned publishes a spawn event.
func BodySpawned(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload BodySpawnedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventBodySpawned,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	})
}

// BodyRemoved publishes a removal event.
func BodyRemoved(ctx context.Context, pub logging.Publisher, tick uint64, actor logging.EntityRef, payload BodyRemovedPayload, extra map[string]any) {
	if pub == nil {
		return
	}
	pub.Publish(ctx, logging.Event{
		Type:     EventBodyRemoved,
		Tick:     tick,
		Actor:    actor,
		Severity: logging.SeverityInfo,
		Category: logging.CategoryLifecycle,
		Payload:  payload,
		Extra:    extra,
	})
}
