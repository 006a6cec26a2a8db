package colligrid

import (
	"github.com/gekko3d/discoid/internal/radixsort"
	"github.com/go-gl/mathgl/mgl32"
)

// HomeCellIDs is the host-side reference for the home-cell-id kernel
// (spec §4.7 step 1): one Morton-encoded home cell id per particle, no
// neighbour slots.
func HomeCellIDs(particles []Particle, cellSize float32) []uint32 {
	ids := make([]uint32, len(particles))
	for i, p := range particles {
		cx, cy := CellCoord(p.Position.X(), p.Position.Y(), cellSize)
		ids[i] = CellID(cx, cy)
	}
	return ids
}

// Reorder is the host-side reference for the full periodic reorder pass
// (spec §4.7): sort particles by home-cell id, then rearrange every
// per-particle attribute by the resulting permutation. It is the oracle
// scenario S6 and general property 6 (reorder equivalence) are checked
// against; the GPU path performs the same steps as three dispatches
// (home-cell-id kernel, radixsort.Sorter, rearrange kernel) followed by a
// device-to-device copy-back over the original buffers.
func Reorder(store *ParticleStore, cellSize float32) {
	n := store.Len()
	particleIDs := make([]uint32, n)
	homeCellIDs := make([]uint32, n)
	for i := 0; i < n; i++ {
		particleIDs[i] = uint32(i)
		cx, cy := CellCoord(store.Positions[i].X(), store.Positions[i].Y(), cellSize)
		homeCellIDs[i] = CellID(cx, cy)
	}

	_, sortedParticleIDs := radixsort.CPUSort(homeCellIDs, particleIDs)

	positions := make([]mgl32.Vec2, n)
	previous := make([]mgl32.Vec2, n)
	radii := make([]float32, n)
	colours := make([]mgl32.Vec4, n)
	for i := 0; i < n; i++ {
		src := sortedParticleIDs[i]
		positions[i] = store.Positions[src]
		previous[i] = store.PreviousPositions[src]
		radii[i] = store.Radii[src]
		colours[i] = store.Colours[src]
	}

	store.Positions = positions
	store.PreviousPositions = previous
	store.Radii = radii
	store.Colours = colours
}
