package body

import "math"

// Tuning carries the per-body physics constants. Values are world units and
// seconds.
type Tuning struct {
	Gravity            float64 `toml:"gravity" json:"gravity"`
	Friction           float64 `toml:"friction" json:"friction"`
	Acceleration       float64 `toml:"acceleration" json:"acceleration"`
	MaxHorizontalSpeed float64 `toml:"max_horizontal_speed" json:"maxHorizontalSpeed"`
	JumpSpeed          float64 `toml:"jump_speed" json:"jumpSpeed"`
	OneWayThreshold    float64 `toml:"one_way_threshold" json:"oneWayThreshold"`
	FastFallMultiplier float64 `toml:"fast_fall_multiplier" json:"fastFallMultiplier"`
	// SensorEpsilon inflates the collision sensors outward so tiles the box
	// merely touches are still sampled.
	SensorEpsilon float64 `toml:"sensor_epsilon" json:"sensorEpsilon"`
	// RequireGroundForJump makes Jump a no-op while airborne.
	RequireGroundForJump bool `toml:"require_ground_for_jump" json:"requireGroundForJump"`
}

const (
	DefaultGravity            = 400.0
	DefaultFriction           = 0.7
	DefaultAcceleration       = 1000.0
	DefaultMaxHorizontalSpeed = 200.0
	DefaultJumpSpeed          = 350.0
	DefaultOneWayThreshold    = 15.0
	DefaultFastFallMultiplier = 7.5
	DefaultSensorEpsilon      = 1.0
)

// DefaultTuning returns the stock platformer feel.
func DefaultTuning() Tuning {
	return Tuning{
		Gravity:            DefaultGravity,
		Friction:           DefaultFriction,
		Acceleration:       DefaultAcceleration,
		MaxHorizontalSpeed: DefaultMaxHorizontalSpeed,
		JumpSpeed:          DefaultJumpSpeed,
		OneWayThreshold:    DefaultOneWayThreshold,
		FastFallMultiplier: DefaultFastFallMultiplier,
		SensorEpsilon:      DefaultSensorEpsilon,
	}
}

func (t Tuning) normalized() Tuning {
	normalized := t
	normalized.Friction = finiteAbs(normalized.Friction)
	normalized.Acceleration = finiteAbs(normalized.Acceleration)
	normalized.MaxHorizontalSpeed = finiteAbs(normalized.MaxHorizontalSpeed)
	normalized.JumpSpeed = finiteAbs(normalized.JumpSpeed)
	normalized.OneWayThreshold = finiteAbs(normalized.OneWayThreshold)
	normalized.SensorEpsilon = finiteAbs(normalized.SensorEpsilon)
	if !(normalized.FastFallMultiplier > 0) {
		normalized.FastFallMultiplier = 1
	}
	if math.IsNaN(normalized.Gravity) || math.IsInf(normalized.Gravity, 0) {
		normalized.Gravity = DefaultGravity
	}
	return normalized
}

// Normalized folds negative magnitudes and replaces unusable values.
func (t Tuning) Normalized() Tuning {
	return t.normalized()
}

func finiteAbs(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return math.Abs(v)
}
