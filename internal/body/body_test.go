package body

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kamilpitula/platformer/internal/geom"
	"github.com/kamilpitula/platformer/internal/tilemap"
)

const tick = 0.016

func mustMap(t *testing.T, tileSize float64, rows ...string) *tilemap.Map {
	t.Helper()
	m, err := tilemap.FromRows(rows, tileSize, geom.Vec2{})
	require.NoError(t, err)
	return m
}

func weightless() Tuning {
	tuning := DefaultTuning()
	tuning.Gravity = 0
	return tuning
}

func TestNewPlacesBoxOnTopLeftCorner(t *testing.T) {
	b := New("hero", geom.Vec2{10, 20}, geom.Vec2{50, -30}, geom.Vec2{}, DefaultTuning())

	assert.Equal(t, geom.Vec2{35, 35}, b.AABB.Center)
	assert.Equal(t, geom.Vec2{50, 30}, b.Size())
	assert.Equal(t, geom.Vec2{0, DefaultGravity}, b.Acceleration)
	assert.False(t, b.Contact.OnGround)
	assert.NotNil(t, b.CollidingWith)
}

func TestTuningNormalizedFoldsNegatives(t *testing.T) {
	tuning := Tuning{MaxHorizontalSpeed: -50, OneWayThreshold: -3, FastFallMultiplier: -2}.Normalized()

	assert.Equal(t, 50.0, tuning.MaxHorizontalSpeed)
	assert.Equal(t, 3.0, tuning.OneWayThreshold)
	assert.Equal(t, 1.0, tuning.FastFallMultiplier)
}

func TestLandsOnBlockBelow(t *testing.T) {
	m := mustMap(t, 40,
		"..",
		"#.",
		"..",
	)
	b := New("hero", geom.Vec2{0, 0}, geom.Vec2{50, 50}, geom.Vec2{}, weightless())
	b.Velocity = geom.Vec2{0, 500}

	b.UpdatePhysics(tick, m)

	assert.InDelta(t, -10, b.Position[1], 1e-9)
	assert.True(t, b.Contact.OnGround)
	assert.Equal(t, 0.0, b.Velocity[1])
	assert.Equal(t, geom.Vec2{0, 0}, b.OldPosition)
	assert.Equal(t, geom.Vec2{25, 25}, b.AABB.Center, "box lags one tick behind position")
	assert.True(t, b.Landed())
}

func TestFastBodiesDoNotTunnelThroughGround(t *testing.T) {
	rows := []string{
		"....", "....", "....", "....", "....",
		"####",
		"....", "....", "....", "....",
	}
	for _, speed := range []float64{1, 10, 100, 500, 1000, 2500, 5000} {
		m := mustMap(t, 40, rows...)
		start := 200 - 50 - speed*tick*0.5
		b := New("hero", geom.Vec2{40, start}, geom.Vec2{50, 50}, geom.Vec2{}, weightless())
		b.Velocity = geom.Vec2{0, speed}

		b.UpdatePhysics(tick, m)

		require.Truef(t, b.Contact.OnGround, "speed %v", speed)
		assert.InDeltaf(t, 150, b.Position[1], 1e-9, "speed %v", speed)
	}
}

func TestFallingFromHeightStopsOnGround(t *testing.T) {
	rows := []string{
		"....", "....", "....", "....", "....",
		"####",
		"....", "....", "....", "....",
	}
	for _, speed := range []float64{100, 1000, 2500, 5000} {
		m := mustMap(t, 40, rows...)
		b := New("hero", geom.Vec2{40, 0}, geom.Vec2{50, 50}, geom.Vec2{}, weightless())
		b.Velocity = geom.Vec2{0, speed}

		for i := 0; i < 200 && !b.Contact.OnGround; i++ {
			b.UpdatePhysics(tick, m)
			require.LessOrEqualf(t, b.Position[1]+50, 200.0, "speed %v tick %d", speed, i)
		}
		require.Truef(t, b.Contact.OnGround, "speed %v", speed)
		assert.InDeltaf(t, 150, b.Position[1], 1e-9, "speed %v", speed)
	}
}

func TestWalkingAlongGroundDoesNotSnag(t *testing.T) {
	m := mustMap(t, 40,
		"..........",
		"..........",
		"..........",
		"..........",
		"..........",
		"##########",
	)
	b := New("hero", geom.Vec2{40, 150}, geom.Vec2{50, 50}, geom.Vec2{}, DefaultTuning())
	b.UpdatePhysics(tick, m)
	require.True(t, b.Contact.OnGround)

	for i := 0; i < 20; i++ {
		before := b.Position[0]
		b.Velocity[0] = 150
		b.UpdatePhysics(tick, m)

		require.Truef(t, b.Contact.OnGround, "tick %d", i)
		require.Falsef(t, b.Contact.PushesRightWall, "tick %d", i)
		require.Greaterf(t, b.Position[0], before, "tick %d", i)
		require.InDeltaf(t, 150, b.Position[1], 1e-9, "tick %d", i)
	}
	assert.False(t, b.Landed())
	assert.True(t, b.WasContact.OnGround)
}

func TestRightWallStopsBody(t *testing.T) {
	rows := []string{
		".....#..", ".....#..", ".....#..",
		".....#..", ".....#..", ".....#..",
	}
	tuning := weightless()
	tuning.MaxHorizontalSpeed = 10000

	t.Run("slow", func(t *testing.T) {
		m := mustMap(t, 40, rows...)
		b := New("hero", geom.Vec2{100, 60}, geom.Vec2{50, 50}, geom.Vec2{}, tuning)
		for i := 0; i < 100 && !b.Contact.PushesRightWall; i++ {
			b.Velocity[0] = 300
			b.UpdatePhysics(tick, m)
			require.LessOrEqual(t, b.Position[0]+50, 200.0)
		}
		require.True(t, b.Contact.PushesRightWall)
		assert.InDelta(t, 150, b.Position[0], 1e-9)
		assert.Equal(t, 0.0, b.Velocity[0])
	})

	t.Run("fast", func(t *testing.T) {
		m := mustMap(t, 40, rows...)
		b := New("hero", geom.Vec2{100, 60}, geom.Vec2{50, 50}, geom.Vec2{}, tuning)
		b.Velocity[0] = 5000

		b.UpdatePhysics(tick, m)

		require.True(t, b.Contact.PushesRightWall)
		assert.InDelta(t, 150, b.Position[0], 1e-9)
		assert.False(t, b.Contact.PushesLeftWall)
	})
}

func TestLeftWallStopsBody(t *testing.T) {
	m := mustMap(t, 40,
		"#....#..",
		"#....#..",
		"#....#..",
		"#....#..",
	)
	tuning := weightless()
	tuning.MaxHorizontalSpeed = 10000
	b := New("hero", geom.Vec2{100, 60}, geom.Vec2{50, 50}, geom.Vec2{}, tuning)
	b.Velocity[0] = -5000

	b.UpdatePhysics(tick, m)

	require.True(t, b.Contact.PushesLeftWall)
	assert.InDelta(t, 40, b.Position[0], 1e-9)
	assert.Equal(t, 0.0, b.Velocity[0])

	b.Velocity[0] = 100
	b.UpdatePhysics(tick, m)
	assert.False(t, b.Contact.PushesLeftWall, "moving away clears the flag")
}

func TestCeilingStopsUpwardMotion(t *testing.T) {
	m := mustMap(t, 40,
		"####",
		"....",
		"....",
		"....",
	)
	b := New("hero", geom.Vec2{40, 60}, geom.Vec2{50, 50}, geom.Vec2{}, weightless())
	b.Velocity = geom.Vec2{0, -2000}

	b.UpdatePhysics(tick, m)

	require.True(t, b.Contact.AtCeiling)
	assert.InDelta(t, 40, b.Position[1], 1e-9)
	assert.Equal(t, 0.0, b.Velocity[1])
	assert.False(t, b.Contact.OnGround)

	b.UpdatePhysics(tick, m)
	assert.False(t, b.Contact.AtCeiling, "ceiling contact lasts only for the tick of impact")
}

func TestOneWayPlatformDoesNotBlockUpwardMotion(t *testing.T) {
	m := mustMap(t, 40,
		"....",
		"====",
		"....",
		"....",
	)
	b := New("hero", geom.Vec2{40, 60}, geom.Vec2{50, 50}, geom.Vec2{}, weightless())
	b.Velocity = geom.Vec2{0, -2000}

	b.UpdatePhysics(tick, m)

	assert.False(t, b.Contact.AtCeiling)
	assert.InDelta(t, 28, b.Position[1], 1e-9)
}

func TestOneWayPlatformSupportsAndDrops(t *testing.T) {
	m := mustMap(t, 40,
		"....", "....", "....", "....", "....",
		"====",
		"....", "....", "....",
		"####",
	)
	b := New("hero", geom.Vec2{40, 150}, geom.Vec2{50, 50}, geom.Vec2{}, DefaultTuning())
	assert.False(t, b.Drop(), "cannot drop while not on a platform")

	b.UpdatePhysics(tick, m)
	require.True(t, b.Contact.OnGround)
	require.True(t, b.OnOneWayPlatform)
	assert.InDelta(t, 150, b.Position[1], 1e-9)

	require.True(t, b.Drop())
	assert.InDelta(t, 165, b.Position[1], 1e-9)

	b.UpdatePhysics(tick, m)
	assert.False(t, b.Contact.OnGround)
	assert.Greater(t, b.Position[1], 165.0)

	for i := 0; i < 300 && !b.Contact.OnGround; i++ {
		b.UpdatePhysics(tick, m)
	}
	require.True(t, b.Contact.OnGround)
	assert.False(t, b.OnOneWayPlatform)
	assert.InDelta(t, 310, b.Position[1], 1e-9)
}

func TestOneWayPlatformLandingWithinThreshold(t *testing.T) {
	m := mustMap(t, 40,
		"....", "....", "....", "....", "....",
		"====",
		"....", "....",
	)
	// The foot ends a tick 9 units above the top and the next tick carries it
	// 65 units down, past the platform row.
	b := New("hero", geom.Vec2{40, 140}, geom.Vec2{50, 50}, geom.Vec2{}, weightless())
	b.Velocity = geom.Vec2{0, 65 / tick}

	b.UpdatePhysics(tick, m)

	require.True(t, b.Contact.OnGround)
	assert.True(t, b.OnOneWayPlatform)
	assert.InDelta(t, 150, b.Position[1], 1e-9)
	assert.Equal(t, 0.0, b.Velocity[1])
}

func TestOneWayPlatformRejectsLandingFromFarAbove(t *testing.T) {
	m := mustMap(t, 40,
		"....", "....", "....", "....", "....",
		"====",
		"....", "....",
	)
	tests := []struct {
		name      string
		threshold float64
		start     float64
		fall      float64
	}{
		{name: "forty above", threshold: 15, start: 110, fall: 65},
		{name: "crossing deep", threshold: 0.5, start: 140, fall: 60},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tuning := weightless()
			tuning.OneWayThreshold = tc.threshold
			b := New("hero", geom.Vec2{40, tc.start}, geom.Vec2{50, 50}, geom.Vec2{}, tuning)
			b.Velocity = geom.Vec2{0, tc.fall / tick}

			b.UpdatePhysics(tick, m)

			assert.False(t, b.Contact.OnGround)
			assert.False(t, b.OnOneWayPlatform)
			assert.InDelta(t, tc.start+tc.fall, b.Position[1], 1e-6)

			b.UpdatePhysics(tick, m)
			assert.False(t, b.OnOneWayPlatform, "a platform left behind never catches the body")
			assert.Greater(t, b.Position[1], 150.0)
		})
	}
}

func TestBoundsActAsFloor(t *testing.T) {
	m := mustMap(t, 40, "....", "....", "....", "....")
	b := New("hero", geom.Vec2{0, 40}, geom.Vec2{50, 50}, geom.Vec2{160, 100}, weightless())
	b.Velocity = geom.Vec2{0, 1000}

	b.UpdatePhysics(tick, m)

	require.True(t, b.Contact.OnGround)
	assert.InDelta(t, 50, b.Position[1], 1e-9)
	assert.Equal(t, 0.0, b.Velocity[1])
}

func TestHorizontalSpeedClampAndFriction(t *testing.T) {
	rows := make([]string, 20)
	for i := range rows {
		rows[i] = "........"
	}
	m := mustMap(t, 40, rows...)
	b := New("hero", geom.Vec2{40, 400}, geom.Vec2{50, 50}, geom.Vec2{}, weightless())
	b.Velocity = geom.Vec2{1000, -1000}

	b.UpdatePhysics(tick, m)

	assert.Equal(t, DefaultMaxHorizontalSpeed, b.Velocity[0])
	assert.Equal(t, -1000.0, b.Velocity[1], "vertical speed is never clamped")
	assert.InDelta(t, -DefaultMaxHorizontalSpeed*DefaultFriction, b.Acceleration[0], 1e-9)
	assert.InDelta(t, 384, b.Position[1], 1e-9)
}

func TestControls(t *testing.T) {
	b := New("hero", geom.Vec2{}, geom.Vec2{10, 10}, geom.Vec2{}, DefaultTuning())

	require.True(t, b.Jump())
	assert.Equal(t, -DefaultJumpSpeed, b.Velocity[1])

	b.Falling()
	assert.Equal(t, DefaultGravity, b.Acceleration[1], "no fast fall while rising")

	b.Velocity[1] = 10
	b.Falling()
	assert.Equal(t, DefaultGravity*DefaultFastFallMultiplier, b.Acceleration[1])

	b.Velocity[1] = -10
	b.StopFalling()
	assert.Equal(t, DefaultGravity*DefaultFastFallMultiplier, b.Acceleration[1], "rising keeps the current gravity")
	b.Velocity[1] = 0
	b.StopFalling()
	assert.Equal(t, DefaultGravity, b.Acceleration[1])

	b.MoveRight(1)
	assert.Equal(t, DefaultAcceleration, b.Acceleration[0])
	b.MoveLeft(0.7)
	assert.InDelta(t, -0.7*DefaultAcceleration, b.Acceleration[0], 1e-9, "intents overwrite")

	b.SetHorizontalIntent(5)
	assert.Equal(t, DefaultAcceleration, b.Acceleration[0], "intent is clamped to one")

	b.ApplyImpulse(geom.Vec2{3, 4})
	assert.Equal(t, geom.Vec2{3, 4}, b.Velocity)

	b.Stop()
	assert.Equal(t, geom.Vec2{}, b.Velocity)
	assert.Equal(t, geom.Vec2{DefaultAcceleration, DefaultGravity}, b.Acceleration)
}

func TestWalkIntentBuildsSpeedUpToLimit(t *testing.T) {
	rows := make([]string, 20)
	for i := range rows {
		rows[i] = "...................................................."
	}
	m := mustMap(t, 40, rows...)
	b := New("hero", geom.Vec2{40, 400}, geom.Vec2{50, 50}, geom.Vec2{}, weightless())

	for i := 0; i < 120; i++ {
		b.MoveRight(1)
		b.UpdatePhysics(tick, m)
		require.LessOrEqual(t, b.Velocity[0], DefaultMaxHorizontalSpeed)
	}
	assert.Greater(t, b.Velocity[0], 0.0)
	assert.Greater(t, b.Position[0], 40.0)
}

func TestJumpRequiresGroundWhenConfigured(t *testing.T) {
	tuning := DefaultTuning()
	tuning.RequireGroundForJump = true
	b := New("hero", geom.Vec2{}, geom.Vec2{10, 10}, geom.Vec2{}, tuning)

	assert.False(t, b.Jump())
	assert.Equal(t, 0.0, b.Velocity[1])

	b.Contact.OnGround = true
	assert.True(t, b.Jump())
	assert.Equal(t, -DefaultJumpSpeed, b.Velocity[1])
}

func TestTranslateShiftsAllPositions(t *testing.T) {
	b := New("hero", geom.Vec2{10, 10}, geom.Vec2{10, 10}, geom.Vec2{}, DefaultTuning())
	b.Translate(geom.Vec2{-5, 2})

	assert.Equal(t, geom.Vec2{5, 12}, b.Position)
	assert.Equal(t, geom.Vec2{5, 12}, b.OldPosition)
	assert.Equal(t, geom.Vec2{10, 17}, b.AABB.Center)
}

func TestZeroDeltaIsIgnored(t *testing.T) {
	m := mustMap(t, 40, "....")
	b := New("hero", geom.Vec2{0, 0}, geom.Vec2{10, 10}, geom.Vec2{}, DefaultTuning())
	b.Velocity = geom.Vec2{5, 5}

	b.UpdatePhysics(0, m)

	assert.Equal(t, geom.Vec2{0, 0}, b.Position)
	assert.Equal(t, geom.Vec2{5, 5}, b.Velocity)
}
