// Package shaders embeds the Collision Engine's WGSL kernel sources,
// following the teacher package's flat embed-per-file convention
// (voxelrt/rt/shaders).
package shaders

import (
	_ "embed"
)

//go:embed integrate.wgsl
var IntegrateWGSL string

//go:embed build_cell_ids.wgsl
var BuildCellIDsWGSL string

//go:embed radix_histogram.wgsl
var RadixHistogramWGSL string

//go:embed radix_scatter.wgsl
var RadixScatterWGSL string

//go:embed prefix_block_scan.wgsl
var PrefixBlockScanWGSL string

//go:embed prefix_add_back.wgsl
var PrefixAddBackWGSL string

//go:embed count_chunks.wgsl
var CountChunksWGSL string

//go:embed build_collision_cells.wgsl
var BuildCollisionCellsWGSL string

//go:embed solve_collisions.wgsl
var SolveCollisionsWGSL string

//go:embed home_cell_ids.wgsl
var HomeCellIDsWGSL string

//go:embed rearrange.wgsl
var RearrangeWGSL string
