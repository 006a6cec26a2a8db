package prefixsum

import (
	"encoding/binary"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/discoid/internal/gpu"
	"github.com/gekko3d/discoid/internal/shaders"
)

// Scanner drives the GPU three-pass inclusive scan: block scan (one
// workgroup per BlockSize-sized block, Hillis-Steele in shared memory),
// a recursive scan of the per-block sums, then an add-back pass. Grounded
// structurally on manager_hiz.go's per-level dispatch-and-rebind loop,
// here walking progressively smaller block_sums buffers instead of mip
// levels. Pipelines use the teacher's dominant auto-layout idiom.
type Scanner struct {
	device *wgpu.Device
	bufs   *gpu.BufferManager

	blockScanPipeline *wgpu.ComputePipeline
	addBackPipeline   *wgpu.ComputePipeline

	// blockSums is reused across recursion levels, indexed by level; it
	// grows on demand the same way any other gpu-owned buffer does.
	blockSums []*wgpu.Buffer
	scratch   *wgpu.Buffer
	zero      *wgpu.Buffer
	paramsBuf []*wgpu.Buffer
}

func NewScanner(device *wgpu.Device, bufs *gpu.BufferManager) (*Scanner, error) {
	blockScanMod, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "prefix-block-scan",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.PrefixBlockScanWGSL},
	})
	if err != nil {
		return nil, err
	}
	addBackMod, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "prefix-add-back",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.PrefixAddBackWGSL},
	})
	if err != nil {
		return nil, err
	}

	blockScanPipeline, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   "prefix-block-scan-pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{Module: blockScanMod, EntryPoint: "main"},
	})
	if err != nil {
		return nil, err
	}
	addBackPipeline, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   "prefix-add-back-pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{Module: addBackMod, EntryPoint: "main"},
	})
	if err != nil {
		return nil, err
	}

	return &Scanner{
		device:            device,
		bufs:              bufs,
		blockScanPipeline: blockScanPipeline,
		addBackPipeline:   addBackPipeline,
	}, nil
}

func numBlocksFor(n int) uint32 {
	return uint32((n + BlockSize - 1) / BlockSize)
}

func (s *Scanner) blockSumsAt(level int, n int) *wgpu.Buffer {
	for len(s.blockSums) <= level {
		s.blockSums = append(s.blockSums, nil)
		s.paramsBuf = append(s.paramsBuf, nil)
	}
	size := numBlocksFor(n) * 4
	s.bufs.EnsureBuffer("prefix-block-sums", &s.blockSums[level], nil, wgpu.BufferUsageStorage, int(size))
	return s.blockSums[level]
}

// InclusiveScan scans buf[0:n] in place, recursing over block sums until
// they fit in one block (BlockScanLevels gives the depth), exactly
// mirroring the CPU InclusiveScan oracle this replaces for large n.
func (s *Scanner) InclusiveScan(encoder *wgpu.CommandEncoder, buf *wgpu.Buffer, n int) error {
	return s.inclusiveScanLevel(encoder, buf, n, 0)
}

func (s *Scanner) inclusiveScanLevel(encoder *wgpu.CommandEncoder, buf *wgpu.Buffer, n int, level int) error {
	numBlocks := numBlocksFor(n)
	blockSums := s.blockSumsAt(level, n)

	params := make([]byte, 4)
	binary.LittleEndian.PutUint32(params[0:4], uint32(n))
	s.bufs.WriteUniform("prefix-params", &s.paramsBuf[level], params)

	bgl := s.blockScanPipeline.GetBindGroupLayout(0)
	bg, err := s.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "prefix-block-scan-bg",
		Layout: bgl,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: buf, Size: buf.GetSize()},
			{Binding: 1, Buffer: blockSums, Size: blockSums.GetSize()},
			{Binding: 2, Buffer: s.paramsBuf[level], Size: s.paramsBuf[level].GetSize()},
		},
	})
	if err != nil {
		return err
	}

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(s.blockScanPipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.DispatchWorkgroups(numBlocks, 1, 1)
	pass.End()

	if numBlocks <= 1 {
		return nil
	}

	// blockSums is scanned in place into an *inclusive* scan here; the
	// add-back pass below reads block_sums_inclusive[wg_id.x - 1] (not
	// [wg_id.x]) to recover the exclusive prefix for each block, per
	// prefix_add_back.wgsl's comment.
	if err := s.inclusiveScanLevel(encoder, blockSums, int(numBlocks), level+1); err != nil {
		return err
	}

	addBackBGL := s.addBackPipeline.GetBindGroupLayout(0)
	addBackBG, err := s.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "prefix-add-back-bg",
		Layout: addBackBGL,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: buf, Size: buf.GetSize()},
			{Binding: 1, Buffer: blockSums, Size: blockSums.GetSize()},
			{Binding: 2, Buffer: s.paramsBuf[level], Size: s.paramsBuf[level].GetSize()},
		},
	})
	if err != nil {
		return err
	}

	addBackPass := encoder.BeginComputePass(nil)
	addBackPass.SetPipeline(s.addBackPipeline)
	addBackPass.SetBindGroup(0, addBackBG, nil)
	addBackPass.DispatchWorkgroups(numBlocks, 1, 1)
	addBackPass.End()
	return nil
}

// ExclusiveScan turns buf[0:n]'s inclusive scan into an exclusive one by
// running InclusiveScan, then shifting every element right by one slot
// (exclusive[i] = inclusive[i-1], exclusive[0] = 0) via buffer copies
// rather than another kernel: the shift is pure data movement, not
// compute, so no WGSL is needed for it. Every step, including the final
// zero, is recorded into the same encoder so it stays ordered after the
// scan dispatches -- writing the zero via queue.WriteBuffer directly
// would race ahead of the still-unsubmitted scan commands.
func (s *Scanner) ExclusiveScan(encoder *wgpu.CommandEncoder, buf *wgpu.Buffer, n int) error {
	if err := s.InclusiveScan(encoder, buf, n); err != nil {
		return err
	}
	if n <= 0 {
		return nil
	}

	size := uint64(n) * 4
	s.bufs.EnsureBuffer("prefix-exclusive-scratch", &s.scratch, nil, wgpu.BufferUsageStorage, int(size))
	if s.zero == nil {
		s.bufs.EnsureBuffer("prefix-exclusive-zero", &s.zero, make([]byte, 4), wgpu.BufferUsageStorage, 0)
	}

	encoder.CopyBufferToBuffer(buf, 0, s.scratch, 0, size)
	if n > 1 {
		encoder.CopyBufferToBuffer(s.scratch, 0, buf, 4, size-4)
	}
	encoder.CopyBufferToBuffer(s.zero, 0, buf, 0, 4)
	return nil
}
