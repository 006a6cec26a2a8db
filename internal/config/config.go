// Package config holds the tunables of the Collision Engine that are not
// part of the per-frame simulation state: world bounds, the grid packing
// constant, and the reorder throttle.
package config

import "time"

// GridPackingConstant is k in cell_size = k * max_radius; chosen so a disc
// overlaps at most 2^d cells in d dimensions (d=2 => 4 cells).
const GridPackingConstant = 2.2

// Config carries the values an Engine needs at construction time. Zero
// value is invalid; use New to get sane defaults.
type Config struct {
	WorldWidth  float32
	WorldHeight float32
	MaxRadius   float32
	Gravity     float32

	// ReorderInterval is T_sort: how often the engine re-sorts particles
	// by Morton home cell for cache locality.
	ReorderInterval time.Duration

	// InitialCapacity preallocates the CPU-side particle store's slice
	// capacity. GPU buffers are not created at construction; they are
	// sized from the particle count on each growth refresh.
	InitialCapacity int

	Debug bool
}

// New returns a Config with the defaults the engine ships with; chain
// With* calls to override individual fields.
func New() *Config {
	return &Config{
		WorldWidth:      1920,
		WorldHeight:     1080,
		MaxRadius:       10,
		Gravity:         980,
		ReorderInterval: 4 * time.Second,
		InitialCapacity: 4096,
	}
}

func (c *Config) WithWorldSize(w, h float32) *Config {
	c.WorldWidth, c.WorldHeight = w, h
	return c
}

func (c *Config) WithMaxRadius(r float32) *Config {
	c.MaxRadius = r
	return c
}

func (c *Config) WithGravity(g float32) *Config {
	c.Gravity = g
	return c
}

func (c *Config) WithReorderInterval(d time.Duration) *Config {
	c.ReorderInterval = d
	return c
}

func (c *Config) WithInitialCapacity(n int) *Config {
	c.InitialCapacity = n
	return c
}

func (c *Config) WithDebug(enabled bool) *Config {
	c.Debug = enabled
	return c
}

// CellSize returns the uniform grid's cell size for this config.
func (c *Config) CellSize() float32 {
	return GridPackingConstant * c.MaxRadius
}
