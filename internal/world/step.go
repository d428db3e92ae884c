package world

import (
	"context"

	"github.com/kamilpitula/platformer/internal/collider"
	"github.com/kamilpitula/platformer/logging"
	"github.com/kamilpitula/platformer/logging/physics"
)

// StepResult summarises one tick.
type StepResult struct {
	Tick     uint64
	Pairs    []collider.Pair
	Landed   []string
	Keyframe uint64
}

// Step advances every body by dt seconds. Bodies are processed in spawn
// order so runs are reproducible.
func (w *World) Step(ctx context.Context, dt float64) (StepResult, error) {
	if err := ctx.Err(); err != nil {
		return StepResult{}, err
	}
	if w.config.ClearCollisionsEachTick {
		w.ClearCollisions()
	}

	bodies := w.Bodies()
	for _, b := range bodies {
		w.grid.UpdateAreas(b, w.level)
	}
	pairs := w.grid.CheckCollisions(w)
	for _, b := range bodies {
		b.UpdatePhysics(dt, w.level)
	}
	w.tick++

	result := StepResult{Tick: w.tick, Pairs: pairs}
	for _, pair := range pairs {
		physics.CollisionDetected(ctx, w.publisher, w.tick, logging.BodyRef(pair.A), logging.BodyRef(pair.B), physics.CollisionPayload{
			OverlapX: pair.Overlap[0],
			OverlapY: pair.Overlap[1],
		})
	}
	for _, b := range bodies {
		ref := logging.BodyRef(b.ID)
		if b.Landed() {
			result.Landed = append(result.Landed, b.ID)
			physics.BodyLanded(ctx, w.publisher, w.tick, ref, physics.BodyLandedPayload{
				X:              b.Position[0],
				Y:              b.Position[1],
				ImpactSpeed:    b.OldVelocity[1],
				OneWayPlatform: b.OnOneWayPlatform,
			})
		}
		if b.Contact.PushesLeftWall && !b.WasContact.PushesLeftWall {
			physics.WallContact(ctx, w.publisher, w.tick, ref, physics.WallContactPayload{Side: "left", X: b.Position[0]})
		}
		if b.Contact.PushesRightWall && !b.WasContact.PushesRightWall {
			physics.WallContact(ctx, w.publisher, w.tick, ref, physics.WallContactPayload{Side: "right", X: b.Position[0]})
		}
	}

	if w.metrics != nil {
		w.metrics.Add(metricTicks, 1)
		w.metrics.Add(metricCollisions, uint64(len(pairs)))
		w.metrics.Add(metricLandings, uint64(len(result.Landed)))
	}

	if w.journal != nil && w.config.KeyframeInterval > 0 && w.tick%uint64(w.config.KeyframeInterval) == 0 {
		result.Keyframe = w.journal.RecordKeyframe(w.Snapshot()).Sequence
	}
	return result, nil
}
