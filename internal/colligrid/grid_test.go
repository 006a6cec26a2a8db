package colligrid

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
)

// TestBuildCellIDsS1 mirrors the concrete end-to-end scenario from the
// collision-cell construction spec: three particles at distinct positions
// and radii against cell_size=22.0, verifying the exact (cell_id,
// object_id) slots produced before sorting.
func TestBuildCellIDsS1(t *testing.T) {
	particles := []Particle{
		{Position: mgl32.Vec2{20, 42}, Radius: 10}, // P0
		{Position: mgl32.Vec2{77, 77}, Radius: 8},   // P1
		{Position: mgl32.Vec2{5, 5}, Radius: 1},     // P2
	}
	const cellSize = 22.0

	slots := BuildCellIDsFrom(particles, cellSize)
	if len(slots) != MaxCellsPerObject*len(particles) {
		t.Fatalf("expected %d slots, got %d", MaxCellsPerObject*len(particles), len(slots))
	}

	// P0 (gid 0): home (0,1)=2, then horizontal (1,1)=3, vertical (0,2)=8, diagonal (1,2)=9.
	want0 := []Slot{{2, 0}, {3, 0}, {8, 0}, {9, 0}}
	for i, w := range want0 {
		if slots[i] != w {
			t.Errorf("P0 slot %d = %+v, want %+v", i, slots[i], w)
		}
	}

	// P1 (gid 1): only home cell (3,3) = Morton(3,3) = 15.
	if slots[4] != (Slot{15, 1}) {
		t.Errorf("P1 home slot = %+v, want {15,1}", slots[4])
	}
	for i := 5; i < 8; i++ {
		if slots[i] != (Slot{Unused, 0}) {
			t.Errorf("P1 neighbour slot %d = %+v, want Unused", i, slots[i])
		}
	}

	// P2 (gid 2): only home cell (0,0) = 0.
	if slots[8] != (Slot{0, 2}) {
		t.Errorf("P2 home slot = %+v, want {0,2}", slots[8])
	}
	for i := 9; i < 12; i++ {
		if slots[i] != (Slot{Unused, 0}) {
			t.Errorf("P2 neighbour slot %d = %+v, want Unused", i, slots[i])
		}
	}
}

// TestSlotConservation is general property 1: every particle contributes
// exactly MaxCellsPerObject slots, and its index appears at least once
// among the non-Unused slots (its home slot).
func TestSlotConservation(t *testing.T) {
	particles := []Particle{
		{Position: mgl32.Vec2{20, 42}, Radius: 10},
		{Position: mgl32.Vec2{77, 77}, Radius: 8},
		{Position: mgl32.Vec2{5, 5}, Radius: 1},
	}
	slots := BuildCellIDsFrom(particles, 22.0)

	seen := make(map[uint32]bool)
	for _, s := range slots {
		if s.CellID != Unused {
			seen[s.ObjectID] = true
		}
	}
	for gid := range particles {
		if !seen[uint32(gid)] {
			t.Errorf("object %d missing from any non-unused slot", gid)
		}
	}
}
