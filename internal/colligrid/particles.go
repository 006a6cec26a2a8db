package colligrid

import "github.com/go-gl/mathgl/mgl32"

// ParticleStore is the CPU-side mirror of the GPU particle arrays: the
// staging area new particles are appended to before a growth refresh
// uploads them, and the host-readable snapshot used for tests, debug
// download, and device-lost rebuilds. N is monotonically non-decreasing
// for the lifetime of a store (§3: "grow-only"); particle identity at
// index i is preserved across frames except across a Reorder.
type ParticleStore struct {
	Positions         []mgl32.Vec2
	PreviousPositions []mgl32.Vec2
	Radii             []float32
	Colours           []mgl32.Vec4
}

// NewParticleStore returns an empty store with capacity preallocated so
// early growth doesn't immediately reallocate the backing slices.
func NewParticleStore(capacity int) *ParticleStore {
	return &ParticleStore{
		Positions:         make([]mgl32.Vec2, 0, capacity),
		PreviousPositions: make([]mgl32.Vec2, 0, capacity),
		Radii:             make([]float32, 0, capacity),
		Colours:           make([]mgl32.Vec4, 0, capacity),
	}
}

// Len reports the current particle count N.
func (s *ParticleStore) Len() int { return len(s.Positions) }

// AppendDisc adds one particle at rest (previous_position == position) and
// returns its index. Invalid input is corrected per spec §7: zero or
// negative radius is clamped to a small epsilon rather than surfaced.
func (s *ParticleStore) AppendDisc(pos mgl32.Vec2, radius float32, colour mgl32.Vec4) int {
	const epsilon = 1e-3
	if radius <= 0 {
		radius = epsilon
	}
	idx := len(s.Positions)
	s.Positions = append(s.Positions, pos)
	s.PreviousPositions = append(s.PreviousPositions, pos)
	s.Radii = append(s.Radii, radius)
	s.Colours = append(s.Colours, colour)
	return idx
}

// MouseState is the integrator's spring-drag input: when Pressed, every
// particle is pulled toward At with acceleration alpha*(At-position).
type MouseState struct {
	Pressed bool
	At      mgl32.Vec2
}

// VerletParams bundles the per-frame integration inputs that are uploaded
// as a uniform buffer ("push constants") ahead of the integrate dispatch.
type VerletParams struct {
	DT           float32
	World        mgl32.Vec2
	Mouse        MouseState
	Gravity      float32
	SpringPullK  float32
}

// VerletStep is the host-side reference implementation of the per-particle
// integrate kernel (spec §4.1): it is deterministic and has no
// cross-particle dependence, and integrate.wgsl performs the same
// arithmetic. No test compares it against the GPU integrator, and the
// engine has no CPU fallback path that calls it.
func VerletStep(pos, prevPos mgl32.Vec2, radius float32, p VerletParams) (newPos, newPrevPos mgl32.Vec2) {
	v := pos.Sub(prevPos)

	accel := mgl32.Vec2{0, -p.Gravity}
	if p.Mouse.Pressed {
		pull := p.Mouse.At.Sub(pos).Mul(p.SpringPullK)
		accel = accel.Add(pull)
	}

	next := pos.Add(v).Add(accel.Mul(p.DT * p.DT))

	minX, maxX := radius, p.World.X()-radius
	minY, maxY := radius, p.World.Y()-radius

	// previous_position <- position is the unclamped step 5 rule; on the
	// clamped axis we instead mirror `pos` (the soon-to-be-previous
	// position) across the wall, so the velocity derived next frame
	// (position - previous_position) on that axis points away from the
	// wall with magnitude equal to pos's distance from the wall, not the
	// incoming speed.
	prevNext := pos
	if next.X() < minX {
		next[0] = minX
		prevNext[0] = 2*minX - pos.X()
	} else if next.X() > maxX {
		next[0] = maxX
		prevNext[0] = 2*maxX - pos.X()
	}
	if next.Y() < minY {
		next[1] = minY
		prevNext[1] = 2*minY - pos.Y()
	} else if next.Y() > maxY {
		next[1] = maxY
		prevNext[1] = 2*maxY - pos.Y()
	}

	return next, prevNext
}
