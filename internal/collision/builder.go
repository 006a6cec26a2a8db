// Package collision implements the collision-cell builder and the
// graph-coloured collision solver: the two stages that turn a sorted
// (cell_id, object_id) map into resolved, non-overlapping particle
// positions. CPUBuild and CPUSolve are plain-Go oracles the GPU kernels in
// internal/shaders/{count_chunks,build_collision_cells,solve_collisions}.wgsl
// must reproduce bit for bit; they are grounded on the teacher's plain
// exported-struct, no-abstraction style (voxelrt/rt/bvh.TLASBuilder).
package collision

import (
	"github.com/gekko3d/discoid/internal/colligrid"
)

// ChunkSize is C in the spec: the width of a counting chunk, and also the
// number of entries processed per counting thread.
const ChunkSize = 4

// ColourShift packs the 2-bit colour tag into the high bits of a
// collision-cell entry, leaving 30 bits for the offset into the sorted
// (cell_id, object_id) map -- ample for any M this engine would plausibly
// size a buffer to (see DESIGN.md Open Question decision #2). Colours 1..3
// are stored as-is; colour 4 does not fit in 2 bits and is stored as 0,
// which ColourAndOffset maps back to 4.
const ColourShift = 30

// Unused is the sentinel filling the collision_cells tail.
const Unused = colligrid.Unused

// CountChunks implements Phase 1 of the builder (spec §4.5): for each
// chunk of ChunkSize sorted entries, count how many entries start a run of
// length >= 2 sharing a cell id.
func CountChunks(cellIDs []uint32) []uint32 {
	numChunks := (len(cellIDs) + ChunkSize - 1) / ChunkSize
	chunkCounts := make([]uint32, numChunks)

	for j := 0; j < numChunks; j++ {
		var count uint32
		for q := 0; q < ChunkSize; q++ {
			p := j*ChunkSize + q
			if p >= len(cellIDs) {
				break
			}
			if startsCollisionCell(cellIDs, p) {
				count++
			}
		}
		chunkCounts[j] = count
	}
	return chunkCounts
}

// startsCollisionCell reports whether position p begins a run of >= 2
// equal, non-Unused cell ids.
func startsCollisionCell(cellIDs []uint32, p int) bool {
	if cellIDs[p] == Unused {
		return false
	}
	if p > 0 && cellIDs[p-1] == cellIDs[p] {
		return false
	}
	if p+1 >= len(cellIDs) || cellIDs[p+1] != cellIDs[p] {
		return false
	}
	return true
}

// BuildResult is the output of Phase 3: the packed collision-cell list and
// the indirect dispatch argument for the solver.
type BuildResult struct {
	CollisionCells []uint32
	// GroupsX is the number of workgroups the solver must dispatch to
	// cover every collision cell (the indirect dispatch argument).
	GroupsX uint32
}

// BuildCollisionCells implements Phase 3 of the builder (spec §4.5) given
// the sorted (cell_id, object_id) map and the exclusive prefix sum of
// CountChunks's output (each chunk's base write index). The output buffer
// has length len(cellIDs); unused tail entries are Unused.
func BuildCollisionCells(cellIDs []uint32, exclusiveChunkBase []uint32) BuildResult {
	out := make([]uint32, len(cellIDs))
	for i := range out {
		out[i] = Unused
	}

	numChunks := len(exclusiveChunkBase)
	for j := 0; j < numChunks; j++ {
		base := exclusiveChunkBase[j]
		localRank := uint32(0)
		for q := 0; q < ChunkSize; q++ {
			p := j*ChunkSize + q
			if p >= len(cellIDs) {
				break
			}
			if !startsCollisionCell(cellIDs, p) {
				continue
			}
			colour := colourOf(cellIDs[p])
			out[base+localRank] = uint32(p) | ((colour & 0b11) << ColourShift)
			localRank++
		}
	}

	total := uint32(0)
	if numChunks > 0 {
		total = lastChunkTotal(exclusiveChunkBase, cellIDs)
	}
	return BuildResult{CollisionCells: out, GroupsX: ceilDiv(total, SolverWorkgroupSize)}
}

// lastChunkTotal recovers chunk_counts[last] (the total start count) from
// the exclusive prefix sum plus one more local count pass over the final
// chunk, matching "total starts = chunk_counts[last]" in spec §4.5 where
// chunk_counts here is the *inclusive* scan this function derives locally
// rather than threading a second buffer through.
func lastChunkTotal(exclusiveChunkBase []uint32, cellIDs []uint32) uint32 {
	lastChunk := len(exclusiveChunkBase) - 1
	localCount := uint32(0)
	for q := 0; q < ChunkSize; q++ {
		p := lastChunk*ChunkSize + q
		if p >= len(cellIDs) {
			break
		}
		if startsCollisionCell(cellIDs, p) {
			localCount++
		}
	}
	return exclusiveChunkBase[lastChunk] + localCount
}

// SolverWorkgroupSize is W_solver: one thread per collision cell.
const SolverWorkgroupSize = 256

func ceilDiv(a, b uint32) uint32 {
	if b == 0 {
		return 0
	}
	return (a + b - 1) / b
}

// colourOf returns the 1..4 colour tag for the home cell encoded in
// cellID, per spec §4.5: (cx&1) | ((cy&1)<<1), plus 1.
func colourOf(cellID uint32) uint32 {
	cx, cy := colligrid.MortonDecode(cellID)
	return uint32((cx&1)|((cy&1)<<1)) + 1
}

// ColourAndOffset unpacks a collision_cells entry into its colour tag and
// the offset into the sorted (cell_id, object_id) map.
func ColourAndOffset(entry uint32) (colour, offset uint32) {
	colour = entry >> ColourShift
	if colour == 0 {
		colour = 4
	}
	return colour, entry &^ (uint32(0b11) << ColourShift)
}
