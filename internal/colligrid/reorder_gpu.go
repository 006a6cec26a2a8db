package colligrid

import (
	"encoding/binary"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/discoid/internal/gpu"
	"github.com/gekko3d/discoid/internal/radixsort"
	"github.com/gekko3d/discoid/internal/shaders"
)

// GPUReorder drives the periodic home-cell-sort pass (spec §4.7): compute
// every particle's home cell id, sort (home_cell_id, particle_id) pairs
// with the same radixsort.Sorter type used for the per-frame collision
// pipeline (one more instance, its own buffer set), rearrange positions,
// previous positions and radii by the resulting permutation (Colours is
// left in its old order, unlike the CPU Reorder), then copy the
// rearranged *_copy buffers back over the originals so bind groups built
// against GPUParticles.Positions/PreviousPositions/Radii stay valid
// without a rebind.
type GPUReorder struct {
	device *wgpu.Device

	homeCellPipeline *wgpu.ComputePipeline
	rearrangePipeline *wgpu.ComputePipeline

	homeCellParamsBuf  *wgpu.Buffer
	rearrangeParamsBuf *wgpu.Buffer

	HomeCellIDs, ParticleIDs *wgpu.Buffer
	sorter                   *radixsort.Sorter
}

func NewGPUReorder(device *wgpu.Device, bufs *gpu.BufferManager, scanner radixsort_scanLike) (*GPUReorder, error) {
	homeMod, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "home-cell-ids",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.HomeCellIDsWGSL},
	})
	if err != nil {
		return nil, err
	}
	rearrangeMod, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "rearrange",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.RearrangeWGSL},
	})
	if err != nil {
		return nil, err
	}

	homeCellPipeline, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   "home-cell-ids-pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{Module: homeMod, EntryPoint: "main"},
	})
	if err != nil {
		return nil, err
	}
	rearrangePipeline, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   "rearrange-pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{Module: rearrangeMod, EntryPoint: "main"},
	})
	if err != nil {
		return nil, err
	}

	sorter, err := radixsort.NewSorter(device, bufs, scanner)
	if err != nil {
		return nil, err
	}

	return &GPUReorder{
		device:            device,
		homeCellPipeline:  homeCellPipeline,
		rearrangePipeline: rearrangePipeline,
		sorter:            sorter,
	}, nil
}

// radixsort_scanLike mirrors radixsort.scanLike; redeclared here because
// NewGPUReorder's callers already hold a *prefixsum.Scanner and Go has no
// structural-typing import shortcut across packages for an unexported
// interface.
type radixsort_scanLike interface {
	ExclusiveScan(encoder *wgpu.CommandEncoder, buf *wgpu.Buffer, n int) error
}

// Dispatch runs the full reorder pass into encoder, then device-to-device
// copies the rearranged attributes back over gp's originals.
func (r *GPUReorder) Dispatch(encoder *wgpu.CommandEncoder, bufs *gpu.BufferManager, gp *GPUParticles, cellSize float32, n int) error {
	bufs.EnsureBuffer("reorder-home-cell-ids", &r.HomeCellIDs, nil, wgpu.BufferUsageStorage, n*4)
	bufs.EnsureBuffer("reorder-particle-ids", &r.ParticleIDs, nil, wgpu.BufferUsageStorage, n*4)

	homeData := make([]byte, 8)
	binary.LittleEndian.PutUint32(homeData[0:4], math.Float32bits(cellSize))
	binary.LittleEndian.PutUint32(homeData[4:8], uint32(n))
	bufs.WriteUniform("reorder-home-cell-params", &r.homeCellParamsBuf, homeData)

	homeBGL := r.homeCellPipeline.GetBindGroupLayout(0)
	homeBG, err := r.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "home-cell-ids-bg",
		Layout: homeBGL,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: gp.Positions, Size: gp.Positions.GetSize()},
			{Binding: 1, Buffer: r.homeCellParamsBuf, Size: r.homeCellParamsBuf.GetSize()},
			{Binding: 2, Buffer: r.HomeCellIDs, Size: r.HomeCellIDs.GetSize()},
			{Binding: 3, Buffer: r.ParticleIDs, Size: r.ParticleIDs.GetSize()},
		},
	})
	if err != nil {
		return err
	}
	homePass := encoder.BeginComputePass(nil)
	homePass.SetPipeline(r.homeCellPipeline)
	homePass.SetBindGroup(0, homeBG, nil)
	homePass.DispatchWorkgroups(workgroupsFor(n), 1, 1)
	if err := homePass.End(); err != nil {
		return err
	}

	r.sorter.KeysA, r.sorter.PayloadA = r.HomeCellIDs, r.ParticleIDs
	bufs.EnsureBuffer("reorder-keys-b", &r.sorter.KeysB, nil, wgpu.BufferUsageStorage, n*4)
	bufs.EnsureBuffer("reorder-payload-b", &r.sorter.PayloadB, nil, wgpu.BufferUsageStorage, n*4)
	if err := r.sorter.Sort(encoder, n); err != nil {
		return err
	}
	// NumPasses is even, so the sorted result is back in KeysA/PayloadA,
	// i.e. r.HomeCellIDs/r.ParticleIDs.

	size := uint64(n) * 8
	radiiSize := uint64(n) * 4
	bufs.EnsureBuffer("reorder-positions-copy", &gp.positionsCopy, nil, wgpu.BufferUsageStorage, int(size))
	bufs.EnsureBuffer("reorder-previous-copy", &gp.previousCopy, nil, wgpu.BufferUsageStorage, int(size))
	bufs.EnsureBuffer("reorder-radii-copy", &gp.radiiCopy, nil, wgpu.BufferUsageStorage, int(radiiSize))

	rearrangeData := make([]byte, 4)
	binary.LittleEndian.PutUint32(rearrangeData[0:4], uint32(n))
	bufs.WriteUniform("rearrange-params", &r.rearrangeParamsBuf, rearrangeData)

	rearrangeBGL := r.rearrangePipeline.GetBindGroupLayout(0)
	rearrangeBG, err := r.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "rearrange-bg",
		Layout: rearrangeBGL,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: r.ParticleIDs, Size: r.ParticleIDs.GetSize()},
			{Binding: 1, Buffer: r.rearrangeParamsBuf, Size: r.rearrangeParamsBuf.GetSize()},
			{Binding: 2, Buffer: gp.Positions, Size: gp.Positions.GetSize()},
			{Binding: 3, Buffer: gp.PreviousPositions, Size: gp.PreviousPositions.GetSize()},
			{Binding: 4, Buffer: gp.Radii, Size: gp.Radii.GetSize()},
			{Binding: 5, Buffer: gp.positionsCopy, Size: gp.positionsCopy.GetSize()},
			{Binding: 6, Buffer: gp.previousCopy, Size: gp.previousCopy.GetSize()},
			{Binding: 7, Buffer: gp.radiiCopy, Size: gp.radiiCopy.GetSize()},
		},
	})
	if err != nil {
		return err
	}
	rearrangePass := encoder.BeginComputePass(nil)
	rearrangePass.SetPipeline(r.rearrangePipeline)
	rearrangePass.SetBindGroup(0, rearrangeBG, nil)
	rearrangePass.DispatchWorkgroups(workgroupsFor(n), 1, 1)
	if err := rearrangePass.End(); err != nil {
		return err
	}

	// Copy-back: downstream bind groups reference gp.Positions etc.
	// directly, so the rearranged data is copied over the originals
	// rather than swapping buffer pointers (spec §4.7 step 4).
	encoder.CopyBufferToBuffer(gp.positionsCopy, 0, gp.Positions, 0, size)
	encoder.CopyBufferToBuffer(gp.previousCopy, 0, gp.PreviousPositions, 0, size)
	encoder.CopyBufferToBuffer(gp.radiiCopy, 0, gp.Radii, 0, radiiSize)
	return nil
}
