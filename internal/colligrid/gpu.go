// gpu.go owns the GPU-resident mirror of ParticleStore and the two kernels
// that read/write it every frame outside the collision pipeline proper:
// the Verlet integrator and the (cell_id, object_id) map builder. Grounded
// on voxelrt/rt/gpu.GpuBufferManager's buffer-growth idiom and
// voxelrt/rt/app/app.go's per-pass bind-group-then-dispatch shape.
package colligrid

import (
	"encoding/binary"
	"math"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/discoid/internal/gpu"
	"github.com/gekko3d/discoid/internal/shaders"
	"github.com/go-gl/mathgl/mgl32"
)

// GPUParticles owns the device-resident particle arrays, growing them
// geometrically as ParticleStore.Len() grows (spec §3: "grow-only";
// buffers reallocated and re-uploaded on growth, reused every frame
// otherwise). Capacity is tracked separately from ParticleStore.Len()
// because a buffer may have headroom past N.
type GPUParticles struct {
	Positions, PreviousPositions *wgpu.Buffer
	Radii                        *wgpu.Buffer
	Colours                      *wgpu.Buffer

	// scratch copy buffers used only during a Reorder pass (spec §4.7
	// step 3/4); allocated lazily on first reorder.
	positionsCopy, previousCopy *wgpu.Buffer
	radiiCopy                   *wgpu.Buffer

	capacity int
}

// Refresh uploads store wholesale, growing buffers as needed. Returns true
// if any buffer was reallocated (callers must rebuild dependent bind
// groups), matching the teacher's UpdateScene return convention.
func (g *GPUParticles) Refresh(bufs *gpu.BufferManager, store *ParticleStore) bool {
	n := store.Len()
	headroom := 0
	if n > g.capacity {
		// EnsureBuffer already grows geometrically; track the resulting
		// capacity so later small appends don't force a Refresh every
		// frame.
		headroom = n
	}

	grew := bufs.EnsureBuffer("particles-positions", &g.Positions, vec2Bytes(store.Positions), wgpu.BufferUsageStorage, headroom)
	grew = bufs.EnsureBuffer("particles-previous", &g.PreviousPositions, vec2Bytes(store.PreviousPositions), wgpu.BufferUsageStorage, headroom) || grew
	grew = bufs.EnsureBuffer("particles-radii", &g.Radii, f32Bytes(store.Radii), wgpu.BufferUsageStorage, headroom) || grew
	grew = bufs.EnsureBuffer("particles-colours", &g.Colours, vec4Bytes(store.Colours), wgpu.BufferUsageStorage, headroom) || grew

	if g.Positions != nil {
		g.capacity = int(g.Positions.GetSize() / 8)
	}
	return grew
}

func vec2Bytes(v []mgl32.Vec2) []byte {
	out := make([]byte, len(v)*8)
	for i, p := range v {
		binary.LittleEndian.PutUint32(out[i*8:], math.Float32bits(p.X()))
		binary.LittleEndian.PutUint32(out[i*8+4:], math.Float32bits(p.Y()))
	}
	return out
}

func vec4Bytes(v []mgl32.Vec4) []byte {
	out := make([]byte, len(v)*16)
	for i, c := range v {
		for k := 0; k < 4; k++ {
			binary.LittleEndian.PutUint32(out[i*16+k*4:], math.Float32bits(c[k]))
		}
	}
	return out
}

func f32Bytes(v []float32) []byte {
	out := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(out[i*4:], math.Float32bits(f))
	}
	return out
}

// Integrator dispatches integrate.wgsl once per frame (spec §4.1).
type Integrator struct {
	device    *wgpu.Device
	pipeline  *wgpu.ComputePipeline
	paramsBuf *wgpu.Buffer
}

func NewIntegrator(device *wgpu.Device) (*Integrator, error) {
	mod, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "integrate",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.IntegrateWGSL},
	})
	if err != nil {
		return nil, err
	}
	pipeline, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   "integrate-pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{Module: mod, EntryPoint: "main"},
	})
	if err != nil {
		return nil, err
	}
	return &Integrator{device: device, pipeline: pipeline}, nil
}

// Dispatch records one integrate.wgsl pass into encoder. params mirrors
// IntegratorParams exactly (spec §4.1 push constants, realized as a
// uniform buffer per DESIGN.md decision 4).
func (ig *Integrator) Dispatch(encoder *wgpu.CommandEncoder, bufs *gpu.BufferManager, gp *GPUParticles, params VerletParams, n int) error {
	data := make([]byte, 36)
	binary.LittleEndian.PutUint32(data[0:4], math.Float32bits(params.DT))
	binary.LittleEndian.PutUint32(data[4:8], math.Float32bits(params.World.X()))
	binary.LittleEndian.PutUint32(data[8:12], math.Float32bits(params.World.Y()))
	if params.Mouse.Pressed {
		binary.LittleEndian.PutUint32(data[12:16], 1)
	}
	binary.LittleEndian.PutUint32(data[16:20], math.Float32bits(params.Mouse.At.X()))
	binary.LittleEndian.PutUint32(data[20:24], math.Float32bits(params.Mouse.At.Y()))
	binary.LittleEndian.PutUint32(data[24:28], math.Float32bits(params.Gravity))
	binary.LittleEndian.PutUint32(data[28:32], math.Float32bits(params.SpringPullK))
	binary.LittleEndian.PutUint32(data[32:36], uint32(n))
	bufs.WriteUniform("integrate-params", &ig.paramsBuf, data)

	bgl := ig.pipeline.GetBindGroupLayout(0)
	bg, err := ig.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "integrate-bg",
		Layout: bgl,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: gp.Positions, Size: gp.Positions.GetSize()},
			{Binding: 1, Buffer: gp.PreviousPositions, Size: gp.PreviousPositions.GetSize()},
			{Binding: 2, Buffer: gp.Radii, Size: gp.Radii.GetSize()},
			{Binding: 3, Buffer: ig.paramsBuf, Size: ig.paramsBuf.GetSize()},
		},
	})
	if err != nil {
		return err
	}

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(ig.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.DispatchWorkgroups(workgroupsFor(n), 1, 1)
	return pass.End()
}

func workgroupsFor(n int) uint32 {
	const size = 256
	return uint32((n + size - 1) / size)
}

// CellIDBuilder dispatches build_cell_ids.wgsl, producing the (cell_id,
// object_id) map the radix sort consumes every frame (spec §4.2).
type CellIDBuilder struct {
	device    *wgpu.Device
	pipeline  *wgpu.ComputePipeline
	paramsBuf *wgpu.Buffer

	CellIDs, ObjectIDs *wgpu.Buffer
}

func NewCellIDBuilder(device *wgpu.Device) (*CellIDBuilder, error) {
	mod, err := device.CreateShaderModule(&wgpu.ShaderModuleDescriptor{
		Label:          "build-cell-ids",
		WGSLDescriptor: &wgpu.ShaderModuleWGSLDescriptor{Code: shaders.BuildCellIDsWGSL},
	})
	if err != nil {
		return nil, err
	}
	pipeline, err := device.CreateComputePipeline(&wgpu.ComputePipelineDescriptor{
		Label:   "build-cell-ids-pipeline",
		Compute: wgpu.ProgrammableStageDescriptor{Module: mod, EntryPoint: "main"},
	})
	if err != nil {
		return nil, err
	}
	return &CellIDBuilder{device: device, pipeline: pipeline}, nil
}

// Dispatch (re)creates cell_ids/object_ids sized MaxCellsPerObject*n and
// records one build_cell_ids.wgsl pass. The buffers are overwritten
// wholesale every frame (spec §4.2: "no clearing needed"), so EnsureBuffer
// is only ever called with a nil payload here -- sizing, not uploading.
func (b *CellIDBuilder) Dispatch(encoder *wgpu.CommandEncoder, bufs *gpu.BufferManager, gp *GPUParticles, cellSize float32, n int) error {
	m := MaxCellsPerObject * n
	bufs.EnsureBuffer("cell-ids", &b.CellIDs, nil, wgpu.BufferUsageStorage, m*4)
	bufs.EnsureBuffer("object-ids", &b.ObjectIDs, nil, wgpu.BufferUsageStorage, m*4)

	data := make([]byte, 8)
	binary.LittleEndian.PutUint32(data[0:4], math.Float32bits(cellSize))
	binary.LittleEndian.PutUint32(data[4:8], uint32(n))
	bufs.WriteUniform("build-cell-ids-params", &b.paramsBuf, data)

	bgl := b.pipeline.GetBindGroupLayout(0)
	bg, err := b.device.CreateBindGroup(&wgpu.BindGroupDescriptor{
		Label:  "build-cell-ids-bg",
		Layout: bgl,
		Entries: []wgpu.BindGroupEntry{
			{Binding: 0, Buffer: gp.Positions, Size: gp.Positions.GetSize()},
			{Binding: 1, Buffer: b.paramsBuf, Size: b.paramsBuf.GetSize()},
			{Binding: 2, Buffer: b.CellIDs, Size: b.CellIDs.GetSize()},
			{Binding: 3, Buffer: b.ObjectIDs, Size: b.ObjectIDs.GetSize()},
			{Binding: 4, Buffer: gp.Radii, Size: gp.Radii.GetSize()},
		},
	})
	if err != nil {
		return err
	}

	pass := encoder.BeginComputePass(nil)
	pass.SetPipeline(b.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.DispatchWorkgroups(workgroupsFor(n), 1, 1)
	return pass.End()
}
