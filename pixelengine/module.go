package pixelengine

import (
	"github.com/lumetric/darkroom-engine-go/projection"
)

// ComputeModule is the sandboxed execution unit that performs pixel-level
// filtering. Implementations must be deterministic: the same buffer and edit
// state always produce the same output.
type ComputeModule interface {
	// Name returns the module name (e.g. "native-kernel").
	Name() string

	// Init prepares the module for use. Called once during the engine's
	// capability probe; a failing Init marks the module unavailable.
	Init() error

	// Transform applies the edit state to the RGBA pixel buffer in place.
	// The buffer holds width*height*4 bytes, row by row. Alpha is preserved.
	Transform(pix []uint8, width int, height int, state projection.EditState) error
}

// ModuleLoader produces a compute module during the one-time capability
// probe. Any error marks the engine unavailable until an explicit reset.
type ModuleLoader func() (ComputeModule, error)

// DefaultLoader loads the built-in native kernel.
func DefaultLoader() (ComputeModule, error) {
	return &nativeKernel{}, nil
}
