// Package prefixsum implements the engine's inclusive prefix-sum
// primitive over uint32 buffers. InclusiveScan is the plain-Go reference
// the GPU Scanner's three-pass design (block scan / scan of block sums /
// add-back) must reproduce. The GPU Scanner never calls it: its recursion
// bottoms out in a single-block GPU dispatch.
package prefixsum

// BlockSize is W in the spec: the workgroup width each GPU block-scan pass
// processes independently before the scan-of-block-sums pass ties blocks
// together.
const BlockSize = 256

// InclusiveScan computes out[i] = sum(in[0..i]) for i in [0, len(in)), the
// reference result the GPU's recursive block-scan/add-back pipeline must
// reproduce exactly for any input (spec §4.4, scenarios S5).
func InclusiveScan(in []uint32) []uint32 {
	out := make([]uint32, len(in))
	var running uint32
	for i, v := range in {
		running += v
		out[i] = running
	}
	return out
}

// ExclusiveFromInclusive derives the exclusive scan (used by the
// collision-cell builder to get each chunk's base write index) from an
// inclusive one: exclusive[i] = inclusive[i] - in[i].
func ExclusiveFromInclusive(inclusive, in []uint32) []uint32 {
	out := make([]uint32, len(inclusive))
	for i := range inclusive {
		out[i] = inclusive[i] - in[i]
	}
	return out
}

// BlockScanLevels reports how many recursive levels a GPU Scanner would
// need for n items: level 0 scans n items directly if it fits one block,
// otherwise recurses over ceil(n/BlockSize) block sums. This mirrors the
// termination argument in spec §4.4 ("each level's block_sums is 1/W the
// size of the previous").
func BlockScanLevels(n int) int {
	levels := 1
	for n > BlockSize {
		n = (n + BlockSize - 1) / BlockSize
		levels++
	}
	return levels
}
