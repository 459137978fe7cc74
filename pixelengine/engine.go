package pixelengine

import (
	"context"
	"errors"
	"image"
	"sync"
	"time"

	"golang.org/x/image/draw"
	"golang.org/x/sync/singleflight"

	"github.com/lumetric/darkroom-engine-go/projection"
)

var (
	// ErrComputeUnavailable is returned when the compute module is not
	// loaded. Callers receiving it should deliberately downgrade to the
	// approximate filter path instead of assuming pixel fidelity.
	ErrComputeUnavailable = errors.New("pixel compute module unavailable")
)

const loadKey = "module-load"

// Engine selects and drives the pixel compute module.
//
// The module is probed once per Engine lifetime. Concurrent callers hitting
// an unprobed engine share a single in-flight load; they never trigger
// duplicate load attempts. A failed load is remembered: the engine stays
// unavailable and is never silently retried until ResetModule is called.
type Engine struct {
	loader ModuleLoader

	mu          sync.RWMutex
	module      ComputeModule
	probed      bool
	unavailable bool

	loadGroup singleflight.Group
}

// Option defines a functional option for configuring Engine.
type Option func(*Engine)

// WithLoader replaces the default module loader. Intended for alternative
// compute backends and for tests that need a failing or instrumented loader.
func WithLoader(loader ModuleLoader) Option {
	return func(e *Engine) {
		e.loader = loader
	}
}

// NewEngine creates a pixel engine. The compute module is not loaded until
// the first operation needs it.
func NewEngine(options ...Option) *Engine {
	e := &Engine{
		loader: DefaultLoader,
	}

	for _, option := range options {
		option(e)
	}

	return e
}

// Apply transforms the RGBA pixel buffer in place with the full edit state.
// The buffer must hold width*height*4 bytes.
//
// Returns ErrComputeUnavailable when the compute module cannot be loaded;
// it never falls back to approximate output on its own.
func (e *Engine) Apply(ctx context.Context, pix []uint8, width int, height int, state projection.EditState) error {
	if len(pix) != width*height*bytesPerPixel {
		return ErrBufferSizeMismatch
	}

	module, err := e.ensureLoaded(ctx)
	if err != nil {
		return err
	}

	return module.Transform(pix, width, height, state)
}

// ApplyScaled scales the source image to the target dimensions and applies
// the edit state to the scaled pixels, returning a new image.
func (e *Engine) ApplyScaled(
	ctx context.Context,
	src image.Image,
	targetWidth int,
	targetHeight int,
	state projection.EditState,
) (*image.RGBA, error) {

	module, err := e.ensureLoaded(ctx)
	if err != nil {
		return nil, err
	}

	dst := image.NewRGBA(image.Rect(0, 0, targetWidth, targetHeight))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Src, nil)

	if err := module.Transform(dst.Pix, targetWidth, targetHeight, state); err != nil {
		return nil, err
	}

	return dst, nil
}

// Benchmark measures one kernel pass over a synthetic buffer of the given
// dimensions and reports the duration in milliseconds.
//
// It reports -1 when the compute module is unavailable and never panics.
func (e *Engine) Benchmark(width int, height int) (ms float64) {
	defer func() {
		if recover() != nil {
			ms = -1
		}
	}()

	module, err := e.ensureLoaded(context.Background())
	if err != nil {
		return -1
	}

	pix := syntheticGradient(width, height)
	state := projection.EditState{Exposure: 0.5, Contrast: 0.3, Saturation: 1.2}

	start := time.Now()
	if err := module.Transform(pix, width, height, state); err != nil {
		return -1
	}

	return float64(time.Since(start).Microseconds()) / 1000
}

// ModuleAvailable reports whether a compute module is currently loaded.
// It does not trigger a load.
func (e *Engine) ModuleAvailable() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.probed && !e.unavailable
}

// ModuleName returns the loaded module's name, or an empty string when no
// module is available.
func (e *Engine) ModuleName() string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if e.module == nil {
		return ""
	}

	return e.module.Name()
}

// ResetModule clears the probe state so the next operation attempts a fresh
// load. This is the only way a failed load is ever retried.
func (e *Engine) ResetModule() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.module = nil
	e.probed = false
	e.unavailable = false
}

// ensureLoaded returns the compute module, probing it on first use.
// Concurrent callers share one in-flight load via singleflight.
func (e *Engine) ensureLoaded(ctx context.Context) (ComputeModule, error) {
	e.mu.RLock()
	if e.probed {
		module, unavailable := e.module, e.unavailable
		e.mu.RUnlock()

		if unavailable {
			return nil, ErrComputeUnavailable
		}

		return module, nil
	}
	e.mu.RUnlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	result, err, _ := e.loadGroup.Do(loadKey, func() (any, error) {
		return e.probe()
	})
	if err != nil {
		return nil, err
	}

	return result.(ComputeModule), nil
}

// probe performs the one-time load attempt and records the outcome.
func (e *Engine) probe() (ComputeModule, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.probed { // another singleflight round already settled it
		if e.unavailable {
			return nil, ErrComputeUnavailable
		}

		return e.module, nil
	}

	module, loadErr := e.load()

	e.probed = true
	if loadErr != nil {
		e.unavailable = true
		return nil, ErrComputeUnavailable
	}

	e.module = module

	return module, nil
}

// load runs the loader and module init, converting panics into load errors
// so a misbehaving module cannot take the process down.
func (e *Engine) load() (module ComputeModule, err error) {
	defer func() {
		if r := recover(); r != nil {
			module = nil
			err = ErrComputeUnavailable
		}
	}()

	module, err = e.loader()
	if err != nil {
		return nil, err
	}

	if err := module.Init(); err != nil {
		return nil, err
	}

	return module, nil
}

func syntheticGradient(width int, height int) []uint8 {
	pix := make([]uint8, width*height*bytesPerPixel)
	for i := 0; i < len(pix); i += bytesPerPixel {
		v := uint8((i / bytesPerPixel) % 256)
		pix[i] = v
		pix[i+1] = 255 - v
		pix[i+2] = v / 2
		pix[i+3] = 255
	}

	return pix
}
