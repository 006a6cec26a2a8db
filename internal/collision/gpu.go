// gpu.go dispatches the collision-cell builder (count_chunks.wgsl +
// build_collision_cells.wgsl, with a prefixsum.Scanner exclusive scan in
// between) and the four-colour collision solver (solve_collisions.wgsl,
// indirect-dispatched from the builder's argument buffer). Grounded on the
// teacher's plain-struct, explicit-bind-group style
// (voxelrt/rt/gpu/manager_hiz.go's per-pass dispatch loop).
package collision

import (
	"encoding/binary"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/discoid/internal/gpu"
	"github.com/gekko3d/discoid/internal/shaders"
)

// scanLike is the subset of prefixsum.Scanner's API the builder needs,
// declared locally (as radixsort does) so internal/prefixsum never needs
// to import internal/collision.
type scanLike interface {
	ExclusiveScan(encoder *wgpu.CommandEncoder, buf *wgpu.Buffer, n int) error
}

// Builder drives phases 1-3 of the collision-cell builder (spec §4.5).
type Builder struct {
	device *wgpu.Device

	countPipeline *wgpu.ComputePipeline
	buildPipeline *wgpu.ComputePipeline

	countParamsBuf *wgpu.Buffer
	buildParamsBuf *wgpu.Buffer

	ChunkCounts    *wgpu.Buffer
	CollisionCells *wgpu.Buffer
	IndirectArgs   *wgpu.Buffer

	scanner scanLike
}

func NewBuilder(device *wgpu.Device, scanner scanLike) (*Builder, error) {
	countMod, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "count-chunks",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.CountChunksWGSL},
	})
	if err != nil {
		return nil, err
	}
	buildMod, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "build-collision-cells",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.BuildCollisionCellsWGSL},
	})
	if err != nil {
		return nil, err
	}

	countPipeline, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   "count-chunks-pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{Module: countMod, EntryPoint: "main"},
	})
	if err != nil {
		return nil, err
	}
	buildPipeline, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   "build-collision-cells-pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{Module: buildMod, EntryPoint: "main"},
	})
	if err != nil {
		return nil, err
	}

	return &Builder{device: device, countPipeline: countPipeline, buildPipeline: buildPipeline, scanner: scanner}, nil
}

func numChunksFor(m int) int {
	return (m + ChunkSize - 1) / ChunkSize
}

// Build records phases 1-3 into encoder given the sorted cell_ids buffer
// (length m = N*MaxCellsPerObject). It (re)sizes ChunkCounts,
// CollisionCells, and IndirectArgs, runs count_chunks, an exclusive scan
// over chunk_counts, then build_collision_cells, which also writes
// IndirectArgs. The write and every read of IndirectArgs happen in the
// same command buffer submission, satisfying spec §5's ordering
// requirement without extra fencing.
func (b *Builder) Build(encoder *wgpu.CommandEncoder, bufs *gpu.BufferManager, cellIDs *wgpu.Buffer, m int) error {
	numChunks := numChunksFor(m)

	bufs.EnsureBuffer("chunk-counts", &b.ChunkCounts, nil, wgpu.BufferUsageStorage, numChunks*4)
	bufs.EnsureBuffer("collision-cells", &b.CollisionCells, nil, wgpu.BufferUsageStorage, m*4)
	bufs.EnsureBuffer("indirect-args", &b.IndirectArgs, nil, wgpu.BufferUsageStorage|wgpu.BufferUsageIndirect, 12)

	countData := make([]byte, 8)
	binary.LittleEndian.PutUint32(countData[0:4], uint32(m))
	binary.LittleEndian.PutUint32(countData[4:8], uint32(numChunks))
	bufs.WriteUniform("count-chunks-params", &b.countParamsBuf, countData)

	countBGL := b.countPipeline.GetBindGroupLayout(0)
	countBG, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "count-chunks-bg",
		Layout: countBGL,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: b.ChunkCounts, Size: b.ChunkCounts.GetSize()},
			{Binding: 3, Buffer: b.countParamsBuf, Size: b.countParamsBuf.GetSize()},
			{Binding: 4, Buffer: cellIDs, Size: cellIDs.GetSize()},
		},
	})
	if err != nil {
		return err
	}
	countPass := encoder.BeginComputePass(nil)
	countPass.SetPipeline(b.countPipeline)
	countPass.SetBindGroup(0, countBG, nil)
	countPass.DispatchWorkgroups(ceilDiv(uint32(numChunks), SolverWorkgroupSize), 1, 1) // one thread per chunk
	if err := countPass.End(); err != nil {
		return err
	}

	if err := b.scanner.ExclusiveScan(encoder, b.ChunkCounts, numChunks); err != nil {
		return err
	}

	buildData := make([]byte, 8)
	binary.LittleEndian.PutUint32(buildData[0:4], uint32(m))
	binary.LittleEndian.PutUint32(buildData[4:8], uint32(numChunks))
	bufs.WriteUniform("build-collision-cells-params", &b.buildParamsBuf, buildData)

	buildBGL := b.buildPipeline.GetBindGroupLayout(0)
	bg0, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "build-collision-cells-bg0",
		Layout: buildBGL,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: b.ChunkCounts, Size: b.ChunkCounts.GetSize()},
		},
	})
	if err != nil {
		return err
	}
	bg1, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "build-collision-cells-bg1",
		Layout: b.buildPipeline.GetBindGroupLayout(1),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: b.CollisionCells, Size: b.CollisionCells.GetSize()},
		},
	})
	if err != nil {
		return err
	}
	bg2, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "build-collision-cells-bg2",
		Layout: b.buildPipeline.GetBindGroupLayout(2),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: b.IndirectArgs, Size: b.IndirectArgs.GetSize()},
		},
	})
	if err != nil {
		return err
	}
	bg3, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "build-collision-cells-bg3",
		Layout: b.buildPipeline.GetBindGroupLayout(3),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: b.buildParamsBuf, Size: b.buildParamsBuf.GetSize()},
		},
	})
	if err != nil {
		return err
	}
	bg4, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "build-collision-cells-bg4",
		Layout: b.buildPipeline.GetBindGroupLayout(4),
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: cellIDs, Size: cellIDs.GetSize()},
		},
	})
	if err != nil {
		return err
	}

	buildPass := encoder.BeginComputePass(nil)
	buildPass.SetPipeline(b.buildPipeline)
	buildPass.SetBindGroup(0, bg0, nil)
	buildPass.SetBindGroup(1, bg1, nil)
	buildPass.SetBindGroup(2, bg2, nil)
	buildPass.SetBindGroup(3, bg3, nil)
	buildPass.SetBindGroup(4, bg4, nil)
	buildPass.DispatchWorkgroups(ceilDiv(uint32(numChunks), SolverWorkgroupSize), 1, 1)
	return buildPass.End()
}

// Solver drives the four-colour indirect-dispatch collision solve (spec
// §4.6).
type Solver struct {
	device     *wgpu.Device
	pipeline   *wgpu.ComputePipeline
	paramsBufs [4]*wgpu.Buffer
}

func NewSolver(device *wgpu.Device) (*Solver, error) {
	mod, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "solve-collisions",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.SolveCollisionsWGSL},
	})
	if err != nil {
		return nil, err
	}
	pipeline, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   "solve-collisions-pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{Module: mod, EntryPoint: "main"},
	})
	if err != nil {
		return nil, err
	}
	return &Solver{device: device, pipeline: pipeline}, nil
}

// SolveArgs bundles every buffer one colour pass of the solver reads or
// writes, matching the shader ABI table in spec §6.
type SolveArgs struct {
	ChunkCounts    *wgpu.Buffer // unused by the kernel; kept for ABI symmetry with the builder
	CollisionCells *wgpu.Buffer
	CellIDs        *wgpu.Buffer
	ObjectIDs      *wgpu.Buffer
	Positions      *wgpu.Buffer
	Radii          *wgpu.Buffer
	IndirectArgs   *wgpu.Buffer
	NumCollisionCells int
}

// Solve records the four colour-indexed passes (spec §9: one pass per
// colour per frame), each an indirect dispatch reading args.IndirectArgs.
func (s *Solver) Solve(encoder *wgpu.CommandEncoder, bufs *gpu.BufferManager, args SolveArgs) error {
	for colour := uint32(1); colour <= 4; colour++ {
		data := make([]byte, 8)
		binary.LittleEndian.PutUint32(data[0:4], colour)
		binary.LittleEndian.PutUint32(data[4:8], uint32(args.NumCollisionCells))
		bufs.WriteUniform("solve-collisions-params", &s.paramsBufs[colour-1], data)

		bg0, err := s.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "solve-bg0",
			Layout: s.pipeline.GetBindGroupLayout(0),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: args.ChunkCounts, Size: args.ChunkCounts.GetSize()},
			},
		})
		if err != nil {
			return err
		}
		bg1, err := s.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "solve-bg1",
			Layout: s.pipeline.GetBindGroupLayout(1),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: args.CollisionCells, Size: args.CollisionCells.GetSize()},
			},
		})
		if err != nil {
			return err
		}
		bg2, err := s.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "solve-bg2",
			Layout: s.pipeline.GetBindGroupLayout(2),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: args.CellIDs, Size: args.CellIDs.GetSize()},
			},
		})
		if err != nil {
			return err
		}
		bg3, err := s.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "solve-bg3",
			Layout: s.pipeline.GetBindGroupLayout(3),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: args.ObjectIDs, Size: args.ObjectIDs.GetSize()},
			},
		})
		if err != nil {
			return err
		}
		bg4, err := s.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "solve-bg4",
			Layout: s.pipeline.GetBindGroupLayout(4),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: args.Positions, Size: args.Positions.GetSize()},
			},
		})
		if err != nil {
			return err
		}
		bg5, err := s.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "solve-bg5",
			Layout: s.pipeline.GetBindGroupLayout(5),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: args.Radii, Size: args.Radii.GetSize()},
			},
		})
		if err != nil {
			return err
		}
		bg6, err := s.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "solve-bg6",
			Layout: s.pipeline.GetBindGroupLayout(6),
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: s.paramsBufs[colour-1], Size: s.paramsBufs[colour-1].GetSize()},
			},
		})
		if err != nil {
			return err
		}

		pass := encoder.BeginComputePass(nil)
		pass.SetPipeline(s.pipeline)
		pass.SetBindGroup(0, bg0, nil)
		pass.SetBindGroup(1, bg1, nil)
		pass.SetBindGroup(2, bg2, nil)
		pass.SetBindGroup(3, bg3, nil)
		pass.SetBindGroup(4, bg4, nil)
		pass.SetBindGroup(5, bg5, nil)
		pass.SetBindGroup(6, bg6, nil)
		pass.DispatchWorkgroupsIndirect(args.IndirectArgs, 0)
		if err := pass.End(); err != nil {
			return err
		}
	}
	return nil
}
