// Package engine orchestrates one frame of the Collision Engine: Engine
// owns every subsystem by value (per spec §9's design note replacing
// shared-mutability ownership graphs) and records exactly one
// wgpu.CommandEncoder per Tick, directly mirroring
// voxelrt/rt/app/app.go's App.Update/App.Render single-encoder-per-frame
// structure.
package engine

import (
	"fmt"
	"math"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/discoid/internal/colligrid"
	"github.com/gekko3d/discoid/internal/collision"
	"github.com/gekko3d/discoid/internal/config"
	"github.com/gekko3d/discoid/internal/enginelog"
	"github.com/gekko3d/discoid/internal/gpu"
	"github.com/gekko3d/discoid/internal/prefixsum"
	"github.com/gekko3d/discoid/internal/radixsort"
	"github.com/go-gl/mathgl/mgl32"
)

// Engine is the host-facing handle described in spec §6. It is a
// single-threaded driver: every Tick records and submits one command
// buffer, and the only host-blocking operations anywhere in the engine
// are Download (debug/test readback) and, during Rebuild, re-creation of
// lost device resources.
type Engine struct {
	device *wgpu.Device
	queue  *wgpu.Queue
	cfg    *config.Config
	log    enginelog.Logger

	bufs *gpu.BufferManager

	particles *colligrid.ParticleStore
	gp        *colligrid.GPUParticles

	integrator *colligrid.Integrator
	cellIDs    *colligrid.CellIDBuilder
	reorder    *colligrid.GPUReorder

	sorter  *radixsort.Sorter
	scanner *prefixsum.Scanner

	builder *collision.Builder
	solver  *collision.Solver

	profiler *Profiler

	gravity float32
	mouse   colligrid.MouseState

	pendingGrowth []growthRequest
	outOfMemory   bool

	sinceReorder time.Duration
}

// New constructs an Engine and every GPU pipeline it needs, with its CPU
// particle store preallocated for cfg.InitialCapacity particles; GPU
// particle buffers are allocated on the first Tick that applies growth.
// A nil logger is replaced with a no-op
// one so Engine code never needs to nil-check it (enginelog.Or).
func New(device *wgpu.Device, queue *wgpu.Queue, cfg *config.Config, log enginelog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = config.New()
	}
	log = enginelog.Or(log)

	bufs := gpu.New(device)
	bufs.Logger = log.Warnf

	scanner, err := prefixsum.NewScanner(device, bufs)
	if err != nil {
		return nil, fmt.Errorf("discoid: create prefix-sum scanner: %w", err)
	}

	sorter, err := radixsort.NewSorter(device, bufs, scanner)
	if err != nil {
		return nil, fmt.Errorf("discoid: create radix sorter: %w", err)
	}

	integrator, err := colligrid.NewIntegrator(device)
	if err != nil {
		return nil, fmt.Errorf("discoid: create integrator: %w", err)
	}
	cellIDs, err := colligrid.NewCellIDBuilder(device)
	if err != nil {
		return nil, fmt.Errorf("discoid: create cell-id builder: %w", err)
	}
	reorder, err := colligrid.NewGPUReorder(device, bufs, scanner)
	if err != nil {
		return nil, fmt.Errorf("discoid: create reorder pass: %w", err)
	}

	builder, err := collision.NewBuilder(device, scanner)
	if err != nil {
		return nil, fmt.Errorf("discoid: create collision-cell builder: %w", err)
	}
	solver, err := collision.NewSolver(device)
	if err != nil {
		return nil, fmt.Errorf("discoid: create collision solver: %w", err)
	}

	e := &Engine{
		device:     device,
		queue:      queue,
		cfg:        cfg,
		log:        log,
		bufs:       bufs,
		particles:  colligrid.NewParticleStore(cfg.InitialCapacity),
		gp:         &colligrid.GPUParticles{},
		integrator: integrator,
		cellIDs:    cellIDs,
		reorder:    reorder,
		sorter:     sorter,
		scanner:    scanner,
		builder:    builder,
		solver:     solver,
		profiler:   NewProfiler(),
		gravity:    cfg.Gravity,
	}
	return e, nil
}

// SetGravity sets the downward acceleration applied by the integrator.
func (e *Engine) SetGravity(a float32) { e.gravity = a }

// SetMouse sets the spring-drag input applied by the integrator when
// pressed is true.
func (e *Engine) SetMouse(pressed bool, at mgl32.Vec2) {
	if math.IsNaN(float64(at.X())) || math.IsNaN(float64(at.Y())) {
		// InvalidInput (spec §7): a NaN drag target is corrected rather
		// than surfaced, same as a NaN particle position.
		at = mgl32.Vec2{e.cfg.WorldWidth / 2, e.cfg.WorldHeight / 2}
	}
	e.mouse = colligrid.MouseState{Pressed: pressed, At: at}
}

// springPullK is alpha in spec §4.1's step 2; fixed rather than
// configurable since the source never exposes it as a tunable.
const springPullK = 0.12

// Tick records and submits one frame of the pipeline (spec §2's data-flow
// diagram, §5's strict ordering): apply deferred growth, integrate,
// periodic reorder, build the (cell_id, object_id) map, sort it, build
// collision cells, solve four colour passes.
func (e *Engine) Tick(dt float32) error {
	e.profiler.Reset()

	if batchIDs, grew := e.applyPendingGrowth(); grew {
		if err := e.refreshParticles(batchIDs); err != nil {
			return err
		}
	}

	n := e.particles.Len()
	if n == 0 {
		return nil
	}

	encoder, err := e.device.CreateCommandEncoder(nil)
	if err != nil {
		return fmt.Errorf("discoid: create command encoder: %w", err)
	}

	e.profiler.BeginScope("integrate")
	verletParams := colligrid.VerletParams{
		DT:          dt,
		World:       mgl32.Vec2{e.cfg.WorldWidth, e.cfg.WorldHeight},
		Mouse:       e.mouse,
		Gravity:     e.gravity,
		SpringPullK: springPullK,
	}
	if err := e.integrator.Dispatch(encoder, e.bufs, e.gp, verletParams, n); err != nil {
		return fmt.Errorf("discoid: integrate: %w", err)
	}
	e.profiler.EndScope("integrate")

	e.sinceReorder += time.Duration(dt * float32(time.Second))
	if e.sinceReorder >= e.cfg.ReorderInterval {
		e.profiler.BeginScope("reorder")
		if err := e.reorder.Dispatch(encoder, e.bufs, e.gp, e.cfg.CellSize(), n); err != nil {
			return fmt.Errorf("discoid: reorder: %w", err)
		}
		e.profiler.EndScope("reorder")
		e.sinceReorder = 0
	}

	e.profiler.BeginScope("build_cell_ids")
	if err := e.cellIDs.Dispatch(encoder, e.bufs, e.gp, e.cfg.CellSize(), n); err != nil {
		return fmt.Errorf("discoid: build_cell_ids: %w", err)
	}
	e.profiler.EndScope("build_cell_ids")

	m := colligrid.MaxCellsPerObject * n
	e.sorter.KeysA, e.sorter.PayloadA = e.cellIDs.CellIDs, e.cellIDs.ObjectIDs
	e.bufs.EnsureBuffer("sort-keys-b", &e.sorter.KeysB, nil, wgpu.BufferUsageStorage, m*4)
	e.bufs.EnsureBuffer("sort-payload-b", &e.sorter.PayloadB, nil, wgpu.BufferUsageStorage, m*4)

	e.profiler.BeginScope("radix_sort")
	if err := e.sorter.Sort(encoder, m); err != nil {
		return fmt.Errorf("discoid: radix sort: %w", err)
	}
	e.profiler.EndScope("radix_sort")
	// NumPasses is even: sorted cell_ids/object_ids are back in
	// e.cellIDs.CellIDs/ObjectIDs (== sorter.KeysA/PayloadA).

	e.profiler.BeginScope("build_collision_cells")
	if err := e.builder.Build(encoder, e.bufs, e.cellIDs.CellIDs, m); err != nil {
		return fmt.Errorf("discoid: build collision cells: %w", err)
	}
	e.profiler.EndScope("build_collision_cells")

	e.profiler.BeginScope("solve_colours")
	err = e.solver.Solve(encoder, e.bufs, collision.SolveArgs{
		ChunkCounts:       e.builder.ChunkCounts,
		CollisionCells:    e.builder.CollisionCells,
		CellIDs:           e.cellIDs.CellIDs,
		ObjectIDs:         e.cellIDs.ObjectIDs,
		Positions:         e.gp.Positions,
		Radii:             e.gp.Radii,
		IndirectArgs:      e.builder.IndirectArgs,
		NumCollisionCells: m,
	})
	if err != nil {
		return fmt.Errorf("discoid: solve collisions: %w", err)
	}
	e.profiler.EndScope("solve_colours")

	cmd, err := encoder.Finish(nil)
	if err != nil {
		return fmt.Errorf("discoid: finish command encoder: %w", err)
	}
	e.queue.Submit(cmd)

	e.profiler.SetCount("particles", n)
	return nil
}

// refreshParticles re-uploads the whole CPU store to the GPU, growing
// buffers as needed, after one or more AddParticlesAt batches landed.
// OutOfMemory (spec §7) is modeled as a panic recovery: device.CreateBuffer
// in this corpus panics on allocation failure (gpu.BufferManager.EnsureBuffer),
// so refreshParticles recovers it, caps growth at the last good N, and
// flips outOfMemory so future AddParticlesAt calls are refused.
func (e *Engine) refreshParticles(batchIDs []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			e.outOfMemory = true
			e.log.WithStage("integrate").Errorf("particle buffer growth failed (%v); refusing further growth", r)
			err = fmt.Errorf("discoid: out of memory growing particle buffers: %v", r)
		}
	}()
	grew := e.gp.Refresh(e.bufs, e.particles)
	if grew {
		e.log.WithStage("integrate").Infof("grew particle buffers to N=%d (batches: %v)", e.particles.Len(), batchIDs)
	}
	return nil
}

// ParticleBuffers exposes the GPU-resident particle arrays so a host can
// bind them into its own render pipeline; draw(render_pass) is
// intentionally absent (spec §1/§6: rendering is a named non-goal).
func (e *Engine) ParticleBuffers() (positions, previous, radii, colours *wgpu.Buffer) {
	return e.gp.Positions, e.gp.PreviousPositions, e.gp.Radii, e.gp.Colours
}

// Profiler exposes the engine's CPU timer-scope profiler for a host's
// debug overlay (spec §9).
func (e *Engine) Profiler() *Profiler { return e.profiler }

// Download performs the engine's one other host-blocking operation beside
// surface acquisition (spec §5): a debug readback of any engine-owned
// buffer.
func (e *Engine) Download(buf *wgpu.Buffer) ([]byte, error) {
	data, err := e.bufs.Download(buf)
	if err != nil {
		e.log.Warnf("download failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrMapFailed, err)
	}
	return data, nil
}

// Rebuild recreates the GPU particle buffers from the last CPU-side
// snapshot, for a host to call after a fatal DeviceLost (spec §7). It does
// not recreate pipelines or the sort, scan, cell-id, reorder and
// collision-cell buffers owned by the other subsystems. The CPU
// store (e.particles) is the "last-known particle snapshot" referenced
// there: GPU-only mutations (integration, collision resolution) are never
// read back every frame, so a DeviceLost recovery necessarily replays from
// the last AddParticlesAt/refresh point rather than mid-simulation state.
func (e *Engine) Rebuild() error {
	e.log.Errorf("%v: rebuilding engine resources", ErrDeviceLost)
	e.gp = &colligrid.GPUParticles{}
	e.outOfMemory = false
	e.gp.Refresh(e.bufs, e.particles)
	return nil
}
