// Package world owns the moving bodies of one level and runs the per-tick
// sequence: broad-phase area update, body-body collision check, then physics.
package world

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/kamilpitula/platformer/internal/body"
	"github.com/kamilpitula/platformer/internal/collider"
	"github.com/kamilpitula/platformer/internal/geom"
	"github.com/kamilpitula/platformer/internal/journal"
	"github.com/kamilpitula/platformer/internal/telemetry"
	"github.com/kamilpitula/platformer/internal/tilemap"
	"github.com/kamilpitula/platformer/logging"
	"github.com/kamilpitula/platformer/logging/lifecycle"
)

var (
	ErrNilMap        = errors.New("world: tile map is required")
	ErrEmptyID       = errors.New("world: body id is empty")
	ErrDuplicateBody = errors.New("world: body id already present")
)

const (
	metricTicks      = "world.ticks"
	metricBodies     = "world.bodies"
	metricCollisions = "world.collisions"
	metricLandings   = "world.landings"
)

// Deps bundles runtime dependencies required to construct a World instance.
type Deps struct {
	Publisher logging.Publisher
	Metrics   telemetry.Metrics
	Journal   *journal.Journal
}

// World is the arena that owns every body of a level. It is not safe for
// concurrent use; sim.Loop serialises access.
type World struct {
	config Config
	level  *tilemap.Map
	grid   *collider.Grid

	bodies map[string]*body.MovingBody
	order  []string

	publisher logging.Publisher
	metrics   telemetry.Metrics
	journal   *journal.Journal

	tick uint64
}

// New builds a world over level. The broad-phase grid is sized from the map.
func New(level *tilemap.Map, cfg Config, deps Deps) (*World, error) {
	if level == nil {
		return nil, ErrNilMap
	}
	normalized := cfg.normalized()

	grid, err := collider.NewGrid(normalized.CellWidth, normalized.CellHeight, level.Width(), level.Height())
	if err != nil {
		return nil, fmt.Errorf("world: build collision grid: %w", err)
	}

	publisher := deps.Publisher
	if publisher == nil {
		publisher = logging.NopPublisher()
	}

	return &World{
		config:    normalized,
		level:     level,
		grid:      grid,
		bodies:    make(map[string]*body.MovingBody),
		publisher: publisher,
		metrics:   deps.Metrics,
		journal:   deps.Journal,
	}, nil
}

// Config returns the normalized configuration captured at construction time.
func (w *World) Config() Config { return w.config }

func (w *World) Map() *tilemap.Map { return w.level }
func (w *World) Grid() *collider.Grid { return w.grid }
func (w *World) Tick() uint64 { return w.tick }
func (w *World) Journal() *journal.Journal { return w.journal }

// Spawn creates a body with the world's tuning and bounds and adds it.
func (w *World) Spawn(ctx context.Context, id string, position, size geom.Vec2) (*body.MovingBody, error) {
	b := body.New(id, position, size, w.config.Bounds, w.config.Tuning)
	if err := w.Add(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

// Add takes ownership of b.
func (w *World) Add(ctx context.Context, b *body.MovingBody) error {
	if b == nil || b.ID == "" {
		return ErrEmptyID
	}
	if _, exists := w.bodies[b.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateBody, b.ID)
	}
	if b.CollidingWith == nil {
		b.CollidingWith = make(map[string]body.CollisionRecord)
	}
	w.bodies[b.ID] = b
	w.order = append(w.order, b.ID)
	w.grid.UpdateAreas(b, w.level)

	size := b.Size()
	lifecycle.BodySpawned(ctx, w.publisher, w.tick, logging.BodyRef(b.ID), lifecycle.BodySpawnedPayload{
		SpawnX: b.Position[0],
		SpawnY: b.Position[1],
		Width:  size[0],
		Height: size[1],
	}, nil)
	w.storeBodyCount()
	return nil
}

// Remove deletes the body and every collision record that names it.
func (w *World) Remove(ctx context.Context, id, reason string) bool {
	b, ok := w.bodies[id]
	if !ok {
		return false
	}
	w.grid.Remove(b)
	delete(w.bodies, id)
	if i := slices.Index(w.order, id); i >= 0 {
		w.order = slices.Delete(w.order, i, i+1)
	}
	for _, other := range w.bodies {
		delete(other.CollidingWith, id)
	}

	lifecycle.BodyRemoved(ctx, w.publisher, w.tick, logging.BodyRef(id), lifecycle.BodyRemovedPayload{Reason: reason}, nil)
	w.storeBodyCount()
	return true
}

// Body implements collider.Lookup.
func (w *World) Body(id string) (*body.MovingBody, bool) {
	b, ok := w.bodies[id]
	return b, ok
}

// Bodies returns the bodies in spawn order.
func (w *World) Bodies() []*body.MovingBody {
	bodies := make([]*body.MovingBody, 0, len(w.order))
	for _, id := range w.order {
		bodies = append(bodies, w.bodies[id])
	}
	return bodies
}

// Len reports the number of bodies.
func (w *World) Len() int { return len(w.order) }

// ClearCollisions drops every body's collision records.
func (w *World) ClearCollisions() {
	for _, b := range w.bodies {
		b.ClearCollisions()
	}
}

// Scroll shifts the map origin, the absolute floor and every body by delta,
// keeping their relative placement.
func (w *World) Scroll(delta geom.Vec2) {
	w.level.Translate(delta)
	if w.config.Bounds[1] != 0 {
		w.config.Bounds[1] += delta[1]
	}
	for _, b := range w.bodies {
		b.Translate(delta)
	}
}

func (w *World) storeBodyCount() {
	if w.metrics != nil {
		w.metrics.Store(metricBodies, uint64(len(w.order)))
	}
}
