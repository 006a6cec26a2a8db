package engine

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetGravityOverridesConfigDefault(t *testing.T) {
	e := newTestEngine()
	e.SetGravity(500)
	assert.Equal(t, float32(500), e.gravity)
}

func TestSetMouseStoresPressedAndTarget(t *testing.T) {
	e := newTestEngine()
	e.SetMouse(true, mgl32.Vec2{42, 7})
	assert.True(t, e.mouse.Pressed)
	assert.Equal(t, mgl32.Vec2{42, 7}, e.mouse.At)
}

func TestSetMouseCorrectsNaNTarget(t *testing.T) {
	e := newTestEngine()
	nan := float32(math.NaN())
	e.SetMouse(true, mgl32.Vec2{nan, nan})

	assert.False(t, math.IsNaN(float64(e.mouse.At.X())))
	assert.False(t, math.IsNaN(float64(e.mouse.At.Y())))

	want := mgl32.Vec2{e.cfg.WorldWidth / 2, e.cfg.WorldHeight / 2}
	assert.Equal(t, want, e.mouse.At)
}

func TestTickIsANoOpWithZeroParticles(t *testing.T) {
	e := newTestEngine()
	require.NoError(t, e.Tick(1.0/60))
}
