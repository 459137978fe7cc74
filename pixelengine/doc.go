// Package pixelengine applies the full nine-parameter edit state directly to
// pixel buffers. It is the precise rendering path of the engine, complementing
// the approximate CSS filter mapping in package cssfilter.
//
// The pixel math runs in a pluggable compute module that is probed exactly
// once per Engine lifetime. If the module fails to load, the engine stays
// unavailable and surfaces ErrComputeUnavailable on every call until the
// caller explicitly resets it; it never silently degrades to approximate
// output, so callers can deliberately choose the fallback path instead.
package pixelengine
