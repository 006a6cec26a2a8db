// Command discoid-demo drives the Collision Engine headlessly: it
// acquires a GPU device, spawns one growth batch, and ticks the
// simulation for a fixed number of frames, logging profiler stats every
// second. It owns no window and does no rendering (spec §1 non-goals);
// grounded on gpu_operations.go's createGpuState adapter/device
// acquisition, minus the glfw surface since this harness has no window.
package main

import (
	"flag"
	"time"

	"github.com/cogentcore/webgpu/wgpu"
	"github.com/gekko3d/discoid/internal/config"
	"github.com/gekko3d/discoid/internal/engine"
	"github.com/gekko3d/discoid/internal/enginelog"
	"github.com/go-gl/mathgl/mgl32"
)

func main() {
	frames := flag.Int("frames", 600, "number of frames to simulate")
	particles := flag.Int("particles", 2000, "particles to spawn at start")
	debug := flag.Bool("debug", false, "enable debug logging")
	flag.Parse()

	log := enginelog.NewDefaultLogger("discoid-demo", *debug)

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, err := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if err != nil {
		log.Errorf("request adapter: %v", err)
		return
	}

	device, err := adapter.RequestDevice(&wgpu.DeviceDescriptor{
		Label: "discoid-demo device",
	})
	if err != nil {
		log.Errorf("request device: %v", err)
		return
	}
	queue := device.GetQueue()

	cfg := config.New().
		WithWorldSize(1920, 1080).
		WithMaxRadius(6).
		WithInitialCapacity(*particles * 2).
		WithDebug(*debug)

	e, err := engine.New(device, queue, cfg, log)
	if err != nil {
		log.Errorf("create engine: %v", err)
		return
	}

	center := mgl32.Vec2{cfg.WorldWidth / 2, cfg.WorldHeight / 4}
	batchID, ok := e.AddParticlesAt(center, *particles)
	if !ok {
		log.Errorf("initial spawn rejected")
		return
	}
	log.Infof("queued initial spawn batch %s (%d particles)", batchID, *particles)

	const dt = float32(1.0 / 60.0)
	lastReport := time.Now()
	for frame := 0; frame < *frames; frame++ {
		if err := e.Tick(dt); err != nil {
			log.Errorf("tick %d: %v", frame, err)
			return
		}
		if time.Since(lastReport) >= time.Second {
			log.Infof("\n%s", e.Profiler().GetStatsString())
			lastReport = time.Now()
		}
	}
}
