package collision

import (
	"testing"

	"github.com/gekko3d/discoid/internal/colligrid"
	"github.com/gekko3d/discoid/internal/prefixsum"
	"github.com/gekko3d/discoid/internal/radixsort"
	"github.com/go-gl/mathgl/mgl32"
)

const testCellSize = 22.0

// pipeline runs build-cell-ids -> sort -> count -> scan -> build, mirroring
// the engine's per-frame sequence (spec §2), and returns the sorted
// cell_ids/object_ids map alongside the builder's result.
func pipeline(t *testing.T, particles []colligrid.Particle) (cellIDs, objectIDs []uint32, result BuildResult) {
	t.Helper()
	slots := colligrid.BuildCellIDsFrom(particles, testCellSize)

	keys := make([]uint32, len(slots))
	payload := make([]uint32, len(slots))
	for i, s := range slots {
		keys[i] = s.CellID
		payload[i] = s.ObjectID
	}
	cellIDs, objectIDs = radixsort.CPUSort(keys, payload)

	chunkCounts := CountChunks(cellIDs)
	inclusive := prefixsum.InclusiveScan(chunkCounts)
	exclusive := prefixsum.ExclusiveFromInclusive(inclusive, chunkCounts)

	result = BuildCollisionCells(cellIDs, exclusive)
	return
}

// TestBuildCollisionCellsS2 is scenario S2: the trivial no-collision case
// (S1's three well-separated particles) must leave collision_cells
// entirely Unused.
func TestBuildCollisionCellsS2(t *testing.T) {
	particles := []colligrid.Particle{
		{Position: mgl32.Vec2{20, 42}, Radius: 10},
		{Position: mgl32.Vec2{77, 77}, Radius: 8},
		{Position: mgl32.Vec2{5, 5}, Radius: 1},
	}
	_, _, result := pipeline(t, particles)

	for i, e := range result.CollisionCells {
		if e != Unused {
			t.Fatalf("collision_cells[%d] = %#x, want Unused (no collisions expected)", i, e)
		}
	}
	if result.GroupsX != 0 {
		t.Fatalf("GroupsX = %d, want 0", result.GroupsX)
	}
}

// TestBuildCollisionCellsS3 is scenario S3: 546 identical particles at the
// same position all occupy the same four cells; collision_cells must
// begin with offsets {0, 546, 1092, 1638}, one per cell, remainder Unused.
func TestBuildCollisionCellsS3(t *testing.T) {
	const count = 546
	particles := make([]colligrid.Particle, count)
	for i := range particles {
		particles[i] = colligrid.Particle{Position: mgl32.Vec2{20, 42}, Radius: 10}
	}
	_, _, result := pipeline(t, particles)

	wantOffsets := []uint32{0, 546, 1092, 1638}
	for i, want := range wantOffsets {
		_, offset := ColourAndOffset(result.CollisionCells[i])
		if offset != want {
			t.Errorf("collision_cells[%d] offset = %d, want %d", i, offset, want)
		}
	}
	for i := len(wantOffsets); i < len(result.CollisionCells); i++ {
		if result.CollisionCells[i] != Unused {
			t.Fatalf("collision_cells[%d] = %#x, want Unused", i, result.CollisionCells[i])
		}
	}
}

// TestCollisionCellCompleteness is general property 3: the number of
// non-Unused collision_cells entries equals the number of maximal runs of
// length >= 2 in the sorted cell_ids.
func TestCollisionCellCompleteness(t *testing.T) {
	const count = 40
	particles := make([]colligrid.Particle, count)
	for i := range particles {
		// Spread particles over a few cells so some collide and some
		// don't, rather than all landing in one degenerate case.
		x := float32(20 + 25*(i%3))
		particles[i] = colligrid.Particle{Position: mgl32.Vec2{x, 20}, Radius: 5}
	}
	cellIDs, _, result := pipeline(t, particles)

	wantRuns := 0
	for p := 0; p < len(cellIDs); p++ {
		if startsCollisionCell(cellIDs, p) {
			wantRuns++
		}
	}

	gotRuns := 0
	for _, e := range result.CollisionCells {
		if e != Unused {
			gotRuns++
		}
	}
	if gotRuns != wantRuns {
		t.Fatalf("collision_cells has %d non-Unused entries, want %d maximal runs", gotRuns, wantRuns)
	}
}
