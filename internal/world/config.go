package world

import (
	"github.com/kamilpitula/platformer/internal/body"
	"github.com/kamilpitula/platformer/internal/geom"
)

const (
	DefaultCellWidth        = 4
	DefaultCellHeight       = 4
	DefaultKeyframeInterval = 1
)

// Config shapes a world. Cell sizes are in tiles and must divide the level.
type Config struct {
	CellWidth  int `json:"cellWidth"`
	CellHeight int `json:"cellHeight"`
	// Bounds is handed to every spawned body. A non-zero Y is an absolute
	// floor in world space that Scroll moves along with the map; a zero Y
	// uses the map bottom as the floor.
	Bounds geom.Vec2   `json:"bounds"`
	Tuning body.Tuning `json:"tuning"`
	// ClearCollisionsEachTick drops last tick's collision records at the
	// start of Step. When false the owner calls ClearCollisions itself.
	ClearCollisionsEachTick bool `json:"clearCollisionsEachTick"`
	// KeyframeInterval records a journal keyframe every N ticks; zero
	// disables recording.
	KeyframeInterval int `json:"keyframeInterval"`
}

func (cfg Config) normalized() Config {
	normalized := cfg
	if normalized.CellWidth <= 0 {
		normalized.CellWidth = DefaultCellWidth
	}
	if normalized.CellHeight <= 0 {
		normalized.CellHeight = DefaultCellHeight
	}
	if normalized.KeyframeInterval < 0 {
		normalized.KeyframeInterval = 0
	}
	normalized.Tuning = normalized.Tuning.Normalized()
	return normalized
}

func (cfg Config) Normalized() Config {
	return cfg.normalized()
}

func DefaultConfig() Config {
	return Config{
		CellWidth:               DefaultCellWidth,
		CellHeight:              DefaultCellHeight,
		Tuning:                  body.DefaultTuning(),
		ClearCollisionsEachTick: true,
		KeyframeInterval:        DefaultKeyframeInterval,
	}
}
