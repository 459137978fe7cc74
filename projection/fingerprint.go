package projection

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
	"math"
)

// Fingerprint returns a deterministic digest of the full edit state, used as
// a cache-invalidation key. The digest changes if and only if any field of
// the state changes.
//
// The exact bit patterns of the fields are hashed in a fixed order, so the
// fingerprint is stable across processes and platforms and distinguishes
// states that differ by less than any printable precision.
func (s EditState) Fingerprint() string {
	h := fnv.New64a()

	var buf [8]byte
	for _, field := range [9]float64{
		s.Exposure, s.Contrast, s.Saturation,
		s.Highlights, s.Shadows, s.Clarity, s.Vibrance,
		s.ColorTemp, s.Tint,
	} {
		binary.BigEndian.PutUint64(buf[:], math.Float64bits(field))
		_, _ = h.Write(buf[:])
	}

	return fmt.Sprintf("%016x", h.Sum64())
}
