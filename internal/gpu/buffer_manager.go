// Package gpu owns GPU buffer lifecycle for the Collision Engine: growth
// with geometric headroom and device-to-device content preservation, and
// the host-side readback pattern used for debug download. Adapted from
// voxelrt/rt/gpu.GpuBufferManager (ensureBuffer, ReadbackHiZ) and
// generalized from voxel sector/brick/material buffers to the collision
// engine's particle/cell/chunk/collision-cell/indirect-argument buffers.
package gpu

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"
)

// SafeBufferSizeLimit mirrors the teacher's own warning threshold; the
// engine does not refuse allocations past it, only logs.
const SafeBufferSizeLimit = 1024 * 1024 * 1024

// BufferManager grows and re-uploads the engine's storage/uniform buffers.
// It owns no buffer pointers itself -- each subsystem (radixsort.Sorter,
// prefixsum.Scanner, collision.Builder, colligrid's particle upload path)
// keeps its own named *wgpu.Buffer fields and calls EnsureBuffer /
// WriteUniform / Download against them, the same way the teacher's
// GpuBufferManager is a single allocator shared by many named buffer
// fields across app.go's passes.
type BufferManager struct {
	Device *wgpu.Device
	Logger func(format string, args ...any)
}

func New(device *wgpu.Device) *BufferManager {
	return &BufferManager{Device: device}
}

func (m *BufferManager) logf(format string, args ...any) {
	if m.Logger != nil {
		m.Logger(format, args...)
	}
}

// EnsureBuffer grows *buf to hold len(data)+headroom bytes if it is nil or
// too small, preserving existing contents via a device-to-device copy when
// data is nil (a pure-growth refresh rather than an overwrite), and always
// including CopySrc|CopyDst so later growth and reorder copy-back both
// work without a separate staging buffer. Returns true if it reallocated.
func (m *BufferManager) EnsureBuffer(name string, buf **wgpu.Buffer, data []byte, usage wgpu.BufferUsage, headroom int) bool {
	neededSize := uint64(len(data) + headroom)
	if neededSize%4 != 0 {
		neededSize += 4 - (neededSize % 4)
	}

	current := *buf
	usage = usage | wgpu.BufferUsageCopyDst | wgpu.BufferUsageCopySrc

	if current == nil || current.GetSize() < neededSize {
		newSize := neededSize
		if current != nil {
			growthSize := uint64(float64(current.GetSize()) * 1.5)
			if growthSize > newSize {
				newSize = growthSize
			}
		}
		if newSize > SafeBufferSizeLimit {
			m.logf("WARNING: buffer %s grows to %d bytes, past the %d safety threshold", name, newSize, SafeBufferSizeLimit)
		}

		newBuf, err := m.Device.CreateBuffer(&wgpu.BufferDescriptor{
			Label:            name,
			Size:             newSize,
			Usage:            usage,
			MappedAtCreation: false,
		})
		if err != nil {
			panic(err)
		}

		if current != nil && data == nil {
			encoder, err := m.Device.CreateCommandEncoder(nil)
			if err != nil {
				panic(err)
			}
			encoder.CopyBufferToBuffer(current, 0, newBuf, 0, current.GetSize())
			cmd, err := encoder.Finish(nil)
			if err != nil {
				panic(err)
			}
			m.Device.GetQueue().Submit(cmd)
		}

		if current != nil {
			current.Release()
		}
		*buf = newBuf

		if len(data) > 0 {
			m.Device.GetQueue().WriteBuffer(*buf, 0, data)
		}
		return true
	}

	if len(data) > 0 {
		m.Device.GetQueue().WriteBuffer(*buf, 0, data)
	}
	return false
}

// WriteUniform ensures *buf is sized for data (no headroom, uniforms are
// small and rewritten wholesale every frame) and writes it. This is how
// every kernel's "push constants" are realized (see DESIGN.md decision 4):
// a tiny uniform buffer written once per dispatch via queue.WriteBuffer,
// the teacher's own idiom (CameraBuf/UpdateCamera) rather than an actual
// push-constant API, which nothing in this corpus exercises.
func (m *BufferManager) WriteUniform(name string, buf **wgpu.Buffer, data []byte) {
	m.EnsureBuffer(name, buf, data, wgpu.BufferUsageUniform, 0)
}

// Download performs the engine's only other host-blocking operation
// besides surface acquisition (spec §5): copy src into a same-sized
// staging buffer, submit, poll the device to completion, map, copy out,
// unmap. Grounded line-for-line on voxelrt/rt/gpu/manager_hiz.go's
// ReadbackHiZ.
func (m *BufferManager) Download(src *wgpu.Buffer) ([]byte, error) {
	size := src.GetSize()
	staging, err := m.Device.CreateBuffer(&wgpu.BufferDescriptor{
		Label: "download-staging",
		Size:  size,
		Usage: wgpu.BufferUsageCopyDst | wgpu.BufferUsageMapRead,
	})
	if err != nil {
		return nil, fmt.Errorf("discoid: create staging buffer: %w", err)
	}
	defer staging.Release()

	encoder, err := m.Device.CreateCommandEncoder(nil)
	if err != nil {
		return nil, fmt.Errorf("discoid: create download encoder: %w", err)
	}
	encoder.CopyBufferToBuffer(src, 0, staging, 0, size)
	cmd, err := encoder.Finish(nil)
	if err != nil {
		return nil, fmt.Errorf("discoid: finish download encoder: %w", err)
	}
	m.Device.GetQueue().Submit(cmd)

	mapped := false
	mapErr := error(nil)
	staging.MapAsync(wgpu.MapModeRead, 0, size, func(status wgpu.BufferMapAsyncStatus) {
		if status == wgpu.BufferMapAsyncStatusSuccess {
			mapped = true
		} else {
			mapErr = fmt.Errorf("discoid: MapFailed (status %d)", status)
		}
	})

	for !mapped && mapErr == nil {
		m.Device.Poll(true, nil)
	}
	if mapErr != nil {
		return nil, mapErr
	}

	data := staging.GetMappedRange(0, uint(size))
	out := make([]byte, len(data))
	copy(out, data)
	staging.Unmap()
	return out, nil
}
