package world

import (
	"slices"

	"github.com/kamilpitula/platformer/internal/journal"
)

// Snapshot captures every body in spawn order. Colliding ids are sorted.
func (w *World) Snapshot() journal.Keyframe {
	origin := w.level.Origin()
	frame := journal.Keyframe{
		Tick:    w.tick,
		OriginX: origin[0],
		OriginY: origin[1],
		Bodies:  make([]journal.BodyState, 0, len(w.order)),
	}
	for _, b := range w.Bodies() {
		size := b.Size()
		state := journal.BodyState{
			ID:               b.ID,
			X:                b.Position[0],
			Y:                b.Position[1],
			VX:               b.Velocity[0],
			VY:               b.Velocity[1],
			Width:            size[0],
			Height:           size[1],
			Contact:          b.Contact,
			OnOneWayPlatform: b.OnOneWayPlatform,
		}
		for id := range b.CollidingWith {
			state.CollidingWith = append(state.CollidingWith, id)
		}
		slices.Sort(state.CollidingWith)
		frame.Bodies = append(frame.Bodies, state)
	}
	return frame
}
