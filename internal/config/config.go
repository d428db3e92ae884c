// Package config loads the TOML description of a level, its bodies and the
// runtime knobs of the headless simulator.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/kamilpitula/platformer/internal/body"
	"github.com/kamilpitula/platformer/internal/geom"
	"github.com/kamilpitula/platformer/internal/sim"
	"github.com/kamilpitula/platformer/internal/tilemap"
	"github.com/kamilpitula/platformer/internal/world"
	"github.com/kamilpitula/platformer/logging"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Level   LevelConfig   `toml:"level" json:"level"`
	Physics body.Tuning   `toml:"physics" json:"physics"`
	World   WorldConfig   `toml:"world" json:"world"`
	Loop    LoopConfig    `toml:"loop" json:"loop"`
	Journal JournalConfig `toml:"journal" json:"journal"`
	Logging LoggingConfig `toml:"logging" json:"logging"`
	Stream  StreamConfig  `toml:"stream" json:"stream"`
	Bodies  []BodyConfig  `toml:"bodies" json:"bodies"`
}

// LevelConfig describes the tile map. Rows use '#' for blocks, '=' for
// one-way platforms and '.' for empty tiles.
type LevelConfig struct {
	TileSize float64  `toml:"tile_size" json:"tileSize"`
	OriginX  float64  `toml:"origin_x" json:"originX"`
	OriginY  float64  `toml:"origin_y" json:"originY"`
	Rows     []string `toml:"rows" json:"rows"`
}

type WorldConfig struct {
	CellWidth               int     `toml:"cell_width" json:"cellWidth"`
	CellHeight              int     `toml:"cell_height" json:"cellHeight"`
	FloorY                  float64 `toml:"floor_y" json:"floorY"`
	ClearCollisionsEachTick bool    `toml:"clear_collisions_each_tick" json:"clearCollisionsEachTick"`
	KeyframeInterval        int     `toml:"keyframe_interval" json:"keyframeInterval"`
}

type LoopConfig struct {
	TickRate        int `toml:"tick_rate" json:"tickRate"`
	CommandCapacity int `toml:"command_capacity" json:"commandCapacity"`
	PerActorLimit   int `toml:"per_actor_limit" json:"perActorLimit"`
}

type JournalConfig struct {
	Capacity    int `toml:"capacity" json:"capacity"`
	MaxAgeMilli int `toml:"max_age_ms" json:"maxAgeMs"`
}

type LoggingConfig struct {
	Level    string `toml:"level" json:"level"`
	JSONPath string `toml:"json_path" json:"jsonPath,omitempty"`
}

// StreamConfig controls the HTTP surface used by serve mode.
type StreamConfig struct {
	Addr        string `toml:"addr" json:"addr,omitempty"`
	Path        string `toml:"path" json:"path"`
	EnablePprof bool   `toml:"enable_pprof" json:"enablePprof,omitempty"`
}

// BodyConfig places one body. X and Y are the top-left corner.
type BodyConfig struct {
	ID     string  `toml:"id" json:"id"`
	X      float64 `toml:"x" json:"x"`
	Y      float64 `toml:"y" json:"y"`
	Width  float64 `toml:"width" json:"width"`
	Height float64 `toml:"height" json:"height"`
	VX     float64 `toml:"vx" json:"vx,omitempty"`
	VY     float64 `toml:"vy" json:"vy,omitempty"`
}

// Default returns a runnable configuration with the demo level.
func Default() Config {
	return Config{
		Level: LevelConfig{
			TileSize: 24,
			Rows:     slices.Clone(demoRows),
		},
		Physics: body.DefaultTuning(),
		World: WorldConfig{
			CellWidth:               8,
			CellHeight:              8,
			ClearCollisionsEachTick: true,
			KeyframeInterval:        world.DefaultKeyframeInterval,
		},
		Loop: LoopConfig{
			TickRate:        sim.DefaultTickRate,
			CommandCapacity: sim.DefaultCommandCapacity,
			PerActorLimit:   sim.DefaultPerActorLimit,
		},
		Journal: JournalConfig{
			Capacity:    8,
			MaxAgeMilli: 5000,
		},
		Logging: LoggingConfig{Level: "info"},
		Stream:  StreamConfig{Addr: ":8080", Path: "/ws"},
		Bodies: []BodyConfig{
			{ID: "hero", X: 48, Y: 240, Width: 20, Height: 30},
			{ID: "crate", X: 300, Y: 96, Width: 24, Height: 24},
		},
	}
}

// Load reads path on top of Default. Unknown keys are rejected.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	cfg, err := Decode(f)
	if err != nil {
		return Config{}, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses TOML from r on top of Default. Arrays replace their defaults
// wholesale: a file that lists bodies or level rows gets only its own.
func Decode(r io.Reader) (Config, error) {
	defaults := Default()
	cfg := defaults
	// The decoder fills existing slice elements in place, so a partial entry
	// would inherit a default's fields.
	cfg.Bodies = nil
	cfg.Level.Rows = nil
	meta, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return Config{}, fmt.Errorf("decode toml: %w", err)
	}
	if !meta.IsDefined("bodies") {
		cfg.Bodies = defaults.Bodies
	}
	if !meta.IsDefined("level", "rows") {
		cfg.Level.Rows = defaults.Level.Rows
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		return Config{}, fmt.Errorf("%w: unknown keys %s", ErrInvalid, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Write encodes cfg as TOML.
func Write(w io.Writer, cfg Config) error {
	return toml.NewEncoder(w).Encode(cfg)
}

// Validate reports every problem found in cfg.
func (c Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}

	if c.Level.TileSize <= 0 {
		fail("level.tile_size must be positive, got %v", c.Level.TileSize)
	}
	if len(c.Level.Rows) == 0 {
		fail("level.rows is empty")
	} else if c.World.CellWidth > 0 && c.World.CellHeight > 0 {
		width := len([]rune(c.Level.Rows[0]))
		height := len(c.Level.Rows)
		if width%c.World.CellWidth != 0 {
			fail("level width %d is not a multiple of world.cell_width %d", width, c.World.CellWidth)
		}
		if height%c.World.CellHeight != 0 {
			fail("level height %d is not a multiple of world.cell_height %d", height, c.World.CellHeight)
		}
	}
	if c.World.CellWidth <= 0 || c.World.CellHeight <= 0 {
		fail("world cell size must be positive, got %dx%d", c.World.CellWidth, c.World.CellHeight)
	}
	if c.Loop.TickRate <= 0 {
		fail("loop.tick_rate must be positive, got %d", c.Loop.TickRate)
	}
	if c.Journal.Capacity < 0 || c.Journal.MaxAgeMilli < 0 {
		fail("journal limits must not be negative")
	}
	if !strings.HasPrefix(c.Stream.Path, "/") {
		fail("stream.path must start with /, got %q", c.Stream.Path)
	}
	if _, err := logging.ParseSeverity(c.Logging.Level); err != nil {
		fail("logging.level: %v", err)
	}

	seen := make(map[string]struct{}, len(c.Bodies))
	for i, b := range c.Bodies {
		if b.ID == "" {
			fail("bodies[%d] has no id", i)
			continue
		}
		if _, dup := seen[b.ID]; dup {
			fail("duplicate body id %q", b.ID)
		}
		seen[b.ID] = struct{}{}
		if b.Width <= 0 || b.Height <= 0 {
			fail("body %q must have a positive size", b.ID)
		}
	}
	return errors.Join(errs...)
}

// BuildLevel constructs the tile map.
func (c Config) BuildLevel() (*tilemap.Map, error) {
	return tilemap.FromRows(c.Level.Rows, c.Level.TileSize, geom.Vec2{c.Level.OriginX, c.Level.OriginY})
}

// WorldConfig maps the file onto world.Config.
func (c Config) WorldConfig() world.Config {
	return world.Config{
		CellWidth:               c.World.CellWidth,
		CellHeight:              c.World.CellHeight,
		Bounds:                  geom.Vec2{0, c.World.FloorY},
		Tuning:                  c.Physics,
		ClearCollisionsEachTick: c.World.ClearCollisionsEachTick,
		KeyframeInterval:        c.World.KeyframeInterval,
	}
}

// LoopConfig maps the file onto sim.LoopConfig.
func (c Config) LoopConfig() sim.LoopConfig {
	return sim.LoopConfig{
		TickRate:        c.Loop.TickRate,
		CommandCapacity: c.Loop.CommandCapacity,
		PerActorLimit:   c.Loop.PerActorLimit,
	}
}

// JournalRetention returns the keyframe capacity and maximum age.
func (c Config) JournalRetention() (int, time.Duration) {
	return c.Journal.Capacity, time.Duration(c.Journal.MaxAgeMilli) * time.Millisecond
}

// Severity parses the configured log level.
func (c Config) Severity() (logging.Severity, error) {
	return logging.ParseSeverity(c.Logging.Level)
}
