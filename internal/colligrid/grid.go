package colligrid

import "github.com/go-gl/mathgl/mgl32"

// Unused is the sentinel cell id marking an empty (cell_id, object_id)
// slot. It sorts to the tail under radix sort because it is the maximum
// representable 32-bit value.
const Unused uint32 = 0xFFFFFFFF

// MaxCellsPerObject is the fixed slot width every particle is allocated in
// the (cell_id, object_id) map: one home cell plus up to three neighbours.
const MaxCellsPerObject = 4

// Slot is one entry of the (cell_id, object_id) map built by BuildCellIDs.
type Slot struct {
	CellID   uint32
	ObjectID uint32
}

// Particle is the minimal per-particle input BuildCellIDsFrom needs; it
// mirrors the position/radius fields of the GPU particle record without
// requiring the full ParticleStore.
type Particle struct {
	Position mgl32.Vec2
	Radius   float32
}

// BuildCellIDsFrom computes the (cell_id, object_id) map for particles, the
// host-side oracle for the GPU build_cell_ids kernel (spec §4.2). Output
// has length MaxCellsPerObject*len(particles); unused slots are
// (Unused, 0).
func BuildCellIDsFrom(particles []Particle, cellSize float32) []Slot {
	out := make([]Slot, MaxCellsPerObject*len(particles))
	for gid, p := range particles {
		base := gid * MaxCellsPerObject
		for i := 0; i < MaxCellsPerObject; i++ {
			out[base+i] = Slot{CellID: Unused, ObjectID: 0}
		}

		cx, cy := CellCoord(p.Position.X(), p.Position.Y(), cellSize)
		out[base] = Slot{CellID: CellID(cx, cy), ObjectID: uint32(gid)}

		neighbours := overlappingNeighbours(p.Position, p.Radius, cellSize, cx, cy)
		for i, nb := range neighbours {
			out[base+1+i] = Slot{CellID: CellID(nb[0], nb[1]), ObjectID: uint32(gid)}
		}
	}
	return out
}

// overlappingNeighbours determines which of the three neighbour cells in
// the particle's quadrant have an AABB within r of its centre, per spec
// §4.2: the quadrant is chosen by the signs of frac(x/cell_size)-0.5 and
// frac(y/cell_size)-0.5, giving a diagonal, a horizontal, and a vertical
// candidate.
func overlappingNeighbours(pos mgl32.Vec2, r, cellSize float32, cx, cy int32) [][2]int32 {
	fx := fracCell(pos.X(), cellSize) - 0.5
	fy := fracCell(pos.Y(), cellSize) - 0.5

	dx := int32(1)
	if fx < 0 {
		dx = -1
	}
	dy := int32(1)
	if fy < 0 {
		dy = -1
	}

	candidates := [3][2]int32{
		{cx + dx, cy},      // horizontal
		{cx, cy + dy},      // vertical
		{cx + dx, cy + dy}, // diagonal
	}

	var out [][2]int32
	for _, c := range candidates {
		if cellWithinRadius(pos, r, cellSize, c[0], c[1]) {
			out = append(out, c)
		}
	}
	return out
}

// fracCell returns frac(v/cellSize) in [0, 1).
func fracCell(v, cellSize float32) float32 {
	q := v / cellSize
	return q - floorDiv(v, cellSize)
}

// cellWithinRadius reports whether the disc centred at pos with radius r
// comes within r of the axis-aligned cell (cx, cy): the Euclidean distance
// from pos to the nearest point of the cell's AABB is less than r, i.e.
// the cell intersects the disc itself (not just its bounding square).
func cellWithinRadius(pos mgl32.Vec2, r, cellSize float32, cx, cy int32) bool {
	minX, minY := float32(cx)*cellSize, float32(cy)*cellSize
	maxX, maxY := minX+cellSize, minY+cellSize

	cxp := clampf(pos.X(), minX, maxX)
	cyp := clampf(pos.Y(), minY, maxY)

	ddx := pos.X() - cxp
	ddy := pos.Y() - cyp
	return ddx*ddx+ddy*ddy < r*r
}

func clampf(v, lo, hi float32) float32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
