package radixsort

import (
	"encoding/binary"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/discoid/internal/gpu"
	"github.com/gekko3d/discoid/internal/shaders"
)

// RadixParams mirrors radix_histogram.wgsl / radix_scatter.wgsl's shared
// uniform block layout exactly.
type RadixParams struct {
	N                  uint32
	Shift              uint32
	NumWorkgroups      uint32
	BlocksPerWorkgroup uint32
}

// Sorter drives the GPU 4-pass LSD radix sort described in CPUSort,
// structurally: build a per-(bucket, workgroup) histogram transposed so a
// flattened exclusive scan over it yields global base offsets directly
// (DESIGN.md Open Question decision 1), then scatter. Pipelines are
// created with no explicit layout, following the teacher's dominant
// auto-bind-group-layout idiom (manager_hiz.go, manager_compression.go);
// bind groups are built against pipeline.GetBindGroupLayout(0).
type Sorter struct {
	device *wgpu.Device
	bufs   *gpu.BufferManager

	histogramPipeline *wgpu.ComputePipeline
	scatterPipeline   *wgpu.ComputePipeline

	KeysA, KeysB       *wgpu.Buffer
	PayloadA, PayloadB *wgpu.Buffer
	Histogram          *wgpu.Buffer
	// paramsBuf holds one uniform buffer per pass rather than a single
	// reused one: all four passes are recorded into the same encoder
	// before it is ever submitted, so a shared buffer rewritten via
	// queue.WriteBuffer on each loop iteration would race ahead and leave
	// every pass reading pass 3's params by the time the GPU runs pass 0.
	paramsBuf [NumPasses]*wgpu.Buffer

	scanner scanLike
}

// scanLike is the subset of prefixsum.Scanner's API the sorter needs; it
// is an interface rather than a direct dependency so internal/prefixsum
// does not need to import internal/radixsort back (prefixsum has no
// reason to know about sorting).
type scanLike interface {
	ExclusiveScan(encoder *wgpu.CommandEncoder, buf *wgpu.Buffer, n int) error
}

func NewSorter(device *wgpu.Device, bufs *gpu.BufferManager, scanner scanLike) (*Sorter, error) {
	histogramMod, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "radix-histogram",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.RadixHistogramWGSL},
	})
	if err != nil {
		return nil, err
	}
	scatterMod, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "radix-scatter",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.RadixScatterWGSL},
	})
	if err != nil {
		return nil, err
	}

	histogramPipeline, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   "radix-histogram-pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{Module: histogramMod, EntryPoint: "main"},
	})
	if err != nil {
		return nil, err
	}
	scatterPipeline, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   "radix-scatter-pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{Module: scatterMod, EntryPoint: "main"},
	})
	if err != nil {
		return nil, err
	}

	return &Sorter{
		device:            device,
		bufs:              bufs,
		histogramPipeline: histogramPipeline,
		scatterPipeline:   scatterPipeline,
		scanner:           scanner,
	}, nil
}

func numWorkgroupsFor(n int) uint32 {
	keysPerWorkgroup := WorkgroupSize * BlocksPerWorkgroup
	return uint32((n + keysPerWorkgroup - 1) / keysPerWorkgroup)
}

// Sort runs the 4-pass ping-pong sort in place over keys/payload, growing
// KeysA/PayloadA (and the B-side scratch buffers) as needed. On return,
// the sorted result is in KeysA/PayloadA regardless of how many (even)
// passes ran, since NumPasses is even.
func (s *Sorter) Sort(encoder *wgpu.CommandEncoder, n int) error {
	numWorkgroups := numWorkgroupsFor(n)
	histogramSize := uint64(NumBuckets) * uint64(numWorkgroups) * 4

	s.bufs.EnsureBuffer("radix-histogram", &s.Histogram, nil, wgpu.BufferUsageStorage, int(histogramSize))

	srcKeys, dstKeys := s.KeysA, s.KeysB
	srcPayload, dstPayload := s.PayloadA, s.PayloadB

	for pass := 0; pass < NumPasses; pass++ {
		params := make([]byte, 16)
		binary.LittleEndian.PutUint32(params[0:4], uint32(n))
		binary.LittleEndian.PutUint32(params[4:8], uint32(pass*BitsPerPass))
		binary.LittleEndian.PutUint32(params[8:12], numWorkgroups)
		binary.LittleEndian.PutUint32(params[12:16], BlocksPerWorkgroup)
		s.bufs.WriteUniform("radix-params", &s.paramsBuf[pass], params)

		// No explicit clear: radix_histogram.wgsl's atomicStore overwrites
		// every (bucket, workgroup) slot exactly once per dispatch.
		histogramBGL := s.histogramPipeline.GetBindGroupLayout(0)
		histogramBG, err := s.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "radix-histogram-bg",
			Layout: histogramBGL,
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: srcKeys, Size: srcKeys.GetSize()},
				{Binding: 1, Buffer: s.Histogram, Size: s.Histogram.GetSize()},
				{Binding: 2, Buffer: s.paramsBuf[pass], Size: s.paramsBuf[pass].GetSize()},
			},
		})
		if err != nil {
			return err
		}

		histPass := encoder.BeginComputePass(nil)
		histPass.SetPipeline(s.histogramPipeline)
		histPass.SetBindGroup(0, histogramBG, nil)
		histPass.DispatchWorkgroups(numWorkgroups, 1, 1)
		histPass.End()

		if err := s.scanner.ExclusiveScan(encoder, s.Histogram, int(NumBuckets)*int(numWorkgroups)); err != nil {
			return err
		}

		scatterBGL := s.scatterPipeline.GetBindGroupLayout(0)
		scatterBG, err := s.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
			Label:  "radix-scatter-bg",
			Layout: scatterBGL,
			Entries: []wgpu.BindGroupEntry{
				{Binding: 0, Buffer: srcKeys, Size: srcKeys.GetSize()},
				{Binding: 1, Buffer: s.Histogram, Size: s.Histogram.GetSize()},
				{Binding: 2, Buffer: srcPayload, Size: srcPayload.GetSize()},
				{Binding: 3, Buffer: s.paramsBuf[pass], Size: s.paramsBuf[pass].GetSize()},
				{Binding: 4, Buffer: dstKeys, Size: dstKeys.GetSize()},
				{Binding: 5, Buffer: dstPayload, Size: dstPayload.GetSize()},
			},
		})
		if err != nil {
			return err
		}

		scatterPass := encoder.BeginComputePass(nil)
		scatterPass.SetPipeline(s.scatterPipeline)
		scatterPass.SetBindGroup(0, scatterBG, nil)
		scatterPass.DispatchWorkgroups(numWorkgroups, 1, 1)
		scatterPass.End()

		srcKeys, dstKeys = dstKeys, srcKeys
		srcPayload, dstPayload = dstPayload, srcPayload
	}

	return nil
}
