package collision

import "github.com/go-gl/mathgl/mgl32"

// MaxObjectsPerCell bounds how many object indices a single collision-cell
// run is expected to hold in one pass; longer runs are processed in
// chunks by the GPU kernel (spec §4.6). The CPU reference below has no
// such limit since it is not shared-memory constrained, but the constant
// is kept here so tests can exercise the GPU kernel's chunking boundary.
const MaxObjectsPerCell = 32

// SolvePass implements one colour pass of the collision solver (spec
// §4.6): for every collision cell tagged with colour, it walks the run of
// equal cell ids in the sorted map and applies a symmetric positional
// correction to every overlapping pair. positions and radii are indexed by
// particle id (object_id), and are mutated in place -- safe because, by
// construction, two collision cells processed in the same colour pass
// never share a particle (general property 5, "colouring disjointness").
func SolvePass(positions []mgl32.Vec2, radii []float32, cellIDs, objectIDs []uint32, collisionCells []uint32, colour uint32) {
	for _, entry := range collisionCells {
		if entry == Unused {
			continue
		}
		c, p := ColourAndOffset(entry)
		if c != colour {
			continue
		}
		resolveRun(positions, radii, cellIDs, objectIDs, p)
	}
}

func resolveRun(positions []mgl32.Vec2, radii []float32, cellIDs, objectIDs []uint32, p uint32) {
	cell := cellIDs[p]
	k := p
	var members []uint32
	for k < uint32(len(cellIDs)) && cellIDs[k] == cell {
		members = append(members, objectIDs[k])
		k++
	}

	for a := 0; a < len(members); a++ {
		for b := a + 1; b < len(members); b++ {
			i, j := members[a], members[b]
			resolvePair(positions, radii, i, j)
		}
	}
}

// resolvePair applies the symmetric positional correction of spec §4.6 if
// discs i and j overlap.
func resolvePair(positions []mgl32.Vec2, radii []float32, i, j uint32) {
	pi, pj := positions[i], positions[j]
	ri, rj := radii[i], radii[j]

	delta := pi.Sub(pj)
	d := delta.Len()
	if d == 0 || d >= ri+rj {
		return
	}

	correction := delta.Mul(0.5 * (ri + rj - d) / d)
	positions[i] = pi.Add(correction)
	positions[j] = pj.Sub(correction)
}

// AllColours runs the four colour passes in order, the CPU equivalent of
// the engine's per-frame indirect-dispatch sequence (spec §4.6/§9: one
// pass per colour per frame).
func AllColours(positions []mgl32.Vec2, radii []float32, cellIDs, objectIDs []uint32, collisionCells []uint32) {
	for colour := uint32(1); colour <= 4; colour++ {
		SolvePass(positions, radii, cellIDs, objectIDs, collisionCells, colour)
	}
}

// ColourDisjoint verifies general property 5: within a single colour, the
// particle index sets touched by distinct collision cells never overlap.
func ColourDisjoint(cellIDs, objectIDs []uint32, collisionCells []uint32, colour uint32) bool {
	seen := make(map[uint32]bool)
	for _, entry := range collisionCells {
		if entry == Unused {
			continue
		}
		c, p := ColourAndOffset(entry)
		if c != colour {
			continue
		}
		cell := cellIDs[p]
		k := p
		for k < uint32(len(cellIDs)) && cellIDs[k] == cell {
			obj := objectIDs[k]
			if seen[obj] {
				return false
			}
			seen[obj] = true
			k++
		}
	}
	return true
}
