package collision

import (
	"math"
	"testing"

	"github.com/gekko3d/discoid/internal/colligrid"
	"github.com/go-gl/mathgl/mgl32"
)

// TestColouringDisjointnessS3 is general property 5 against the S3 mass
// collision setup: within any single colour pass, every collision cell's
// particle index set must be disjoint from every other's.
func TestColouringDisjointnessS3(t *testing.T) {
	const count = 546
	particles := make([]colligrid.Particle, count)
	for i := range particles {
		particles[i] = colligrid.Particle{Position: mgl32.Vec2{20, 42}, Radius: 10}
	}
	cellIDs, objectIDs, result := pipeline(t, particles)

	for colour := uint32(1); colour <= 4; colour++ {
		if !ColourDisjoint(cellIDs, objectIDs, result.CollisionCells, colour) {
			t.Errorf("colour %d: particle sets not disjoint across collision cells", colour)
		}
	}
}

// TestSolvePassReducesOverlap is general property 4 (no-overlap invariant,
// approximate): for two overlapping discs sharing a cell, one pass of the
// colour solver must strictly reduce their centre distance deficit versus
// the sum of radii.
func TestSolvePassReducesOverlap(t *testing.T) {
	particles := []colligrid.Particle{
		{Position: mgl32.Vec2{100, 100}, Radius: 10},
		{Position: mgl32.Vec2{105, 100}, Radius: 10}, // overlap: distance 5 < r_i+r_j=20
	}
	cellIDs, objectIDs, result := pipeline(t, particles)

	positions := []mgl32.Vec2{particles[0].Position, particles[1].Position}
	radii := []float32{particles[0].Radius, particles[1].Radius}

	overlapBefore := overlapDeficit(positions[0], positions[1], radii[0], radii[1])
	if overlapBefore <= 0 {
		t.Fatalf("test setup must start overlapping, deficit=%v", overlapBefore)
	}

	AllColours(positions, radii, cellIDs, objectIDs, result.CollisionCells)

	overlapAfter := overlapDeficit(positions[0], positions[1], radii[0], radii[1])
	if overlapAfter > 1e-3 {
		t.Fatalf("expected overlap resolved to ~0, got deficit=%v", overlapAfter)
	}
}

// TestSolvePassSkipsNonCollidingPairs checks that discs sharing a cell but
// not actually overlapping are left untouched.
func TestSolvePassSkipsNonCollidingPairs(t *testing.T) {
	positions := []mgl32.Vec2{{0, 0}, {1000, 1000}}
	radii := []float32{1, 1}
	cellIDs := []uint32{7, 7}
	objectIDs := []uint32{0, 1}
	collisionCells := []uint32{0 | (1 << ColourShift)}

	before0, before1 := positions[0], positions[1]
	SolvePass(positions, radii, cellIDs, objectIDs, collisionCells, 1)

	if positions[0] != before0 || positions[1] != before1 {
		t.Fatalf("non-overlapping pair must not move: got %v %v", positions[0], positions[1])
	}
}

func overlapDeficit(pi, pj mgl32.Vec2, ri, rj float32) float64 {
	d := math.Hypot(float64(pi.X()-pj.X()), float64(pi.Y()-pj.Y()))
	deficit := float64(ri+rj) - d
	if deficit < 0 {
		return 0
	}
	return deficit
}
