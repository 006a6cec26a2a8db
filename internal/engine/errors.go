package engine

import "errors"

// Sentinel errors realizing the error taxonomy of spec §7. They are
// design names, not a type hierarchy: callers compare with errors.Is the
// same way the teacher's own code returns plain error values rather than
// a custom error type tree.
var (
	// ErrDeviceLost names a fatal device loss; Engine.Rebuild logs it when
	// the host calls Rebuild. No engine method returns it.
	ErrDeviceLost = errors.New("discoid: device lost")

	// ErrMapFailed is reported by Download on a failed debug readback; it
	// does not affect simulation and the caller may retry next frame.
	ErrMapFailed = errors.New("discoid: buffer map failed")
)
