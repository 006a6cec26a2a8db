package engine

import (
	"github.com/go-gl/mathgl/mgl32"
	"github.com/google/uuid"
)

// growthRequest is one deferred AddParticlesAt call. Actual reallocation
// and upload happens at the next Tick's frame boundary (spec §6), so
// several requests queued between ticks are coalesced into a single
// buffer refresh; BatchID lets a structured log line report which
// request(s) a given refresh served, repurposing mod_assets.go's
// AssetId(uuid.NewString()) pattern from asset identity to growth-batch
// correlation (SPEC_FULL.md §4.7 supplement).
type growthRequest struct {
	BatchID string
	Center  mgl32.Vec2
	Count   int
	Radius  float32
	Colour  mgl32.Vec4
}

// AddParticlesAt enqueues count discs of the engine's configured
// MaxRadius at center, to be realized on the next Tick. It returns the
// batch id (for log correlation) and whether the request was accepted:
// false if the engine has already hit an OutOfMemory cap and is refusing
// further growth this session (spec §7 "exposed as a boolean return").
func (e *Engine) AddParticlesAt(center mgl32.Vec2, count int) (string, bool) {
	if e.outOfMemory {
		return "", false
	}
	if count <= 0 {
		return "", true
	}
	batchID := uuid.NewString()
	e.pendingGrowth = append(e.pendingGrowth, growthRequest{
		BatchID: batchID,
		Center:  center,
		Count:   count,
		Radius:  e.cfg.MaxRadius,
		Colour:  mgl32.Vec4{1, 1, 1, 1},
	})
	return batchID, true
}

// applyPendingGrowth appends every queued request's particles to the CPU
// store and reports whether any were applied. Coalescing many requests
// into one growth pass is why this lives on the Tick path rather than
// inside AddParticlesAt itself.
func (e *Engine) applyPendingGrowth() (batchIDs []string, grew bool) {
	if len(e.pendingGrowth) == 0 {
		return nil, false
	}
	for _, req := range e.pendingGrowth {
		for i := 0; i < req.Count; i++ {
			e.particles.AppendDisc(req.Center, req.Radius, req.Colour)
		}
		batchIDs = append(batchIDs, req.BatchID)
	}
	e.pendingGrowth = e.pendingGrowth[:0]
	return batchIDs, true
}
