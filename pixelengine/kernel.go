package pixelengine

import (
	"errors"

	"github.com/lumetric/darkroom-engine-go/projection"
)

// ErrBufferSizeMismatch is returned when the pixel buffer does not hold
// width*height RGBA pixels.
var ErrBufferSizeMismatch = errors.New("pixel buffer size does not match dimensions")

const bytesPerPixel = 4

// nativeKernel is the built-in compute module. It applies the full parameter
// set per pixel in a fixed order so output is reproducible across runs.
type nativeKernel struct{}

func (k *nativeKernel) Name() string {
	return "native-kernel"
}

func (k *nativeKernel) Init() error {
	return nil
}

// Transform applies the edit state to the RGBA buffer in place.
//
// Per-pixel pipeline, channels normalized to [0,1]:
//
//	exposure -> contrast -> highlights/shadows -> clarity ->
//	saturation/vibrance -> color temperature -> tint
//
// Alpha passes through untouched and the result is clamped per channel.
func (k *nativeKernel) Transform(pix []uint8, width int, height int, state projection.EditState) error {
	if len(pix) != width*height*bytesPerPixel {
		return ErrBufferSizeMismatch
	}

	brightness := 1 + state.Exposure*0.3
	contrast := 1 + state.Contrast*0.5
	tempShift := state.ColorTemp / 100 * 0.3
	tintShift := state.Tint / 100 * 0.3

	for i := 0; i < len(pix); i += bytesPerPixel {
		r := float64(pix[i]) / 255
		g := float64(pix[i+1]) / 255
		b := float64(pix[i+2]) / 255

		// exposure
		r *= brightness
		g *= brightness
		b *= brightness

		// contrast around midgray
		r = (r-0.5)*contrast + 0.5
		g = (g-0.5)*contrast + 0.5
		b = (b-0.5)*contrast + 0.5

		luma := 0.2126*r + 0.7152*g + 0.0722*b

		// highlights lift/cut above midgray, shadows below
		if luma > 0.5 {
			lift := state.Highlights * (luma - 0.5)
			r += lift
			g += lift
			b += lift
		} else {
			lift := state.Shadows * (0.5 - luma)
			r += lift
			g += lift
			b += lift
		}

		// clarity: midtone-weighted local contrast approximation
		midtoneWeight := 1 - abs(luma-0.5)*2
		clarityGain := state.Clarity * 0.3 * midtoneWeight
		r += (r - 0.5) * clarityGain
		g += (g - 0.5) * clarityGain
		b += (b - 0.5) * clarityGain

		// saturation scales distance from luma; vibrance boosts muted
		// colors more than already saturated ones
		luma = 0.2126*r + 0.7152*g + 0.0722*b
		currentSat := maxChannel(r, g, b) - minChannel(r, g, b)
		satFactor := state.Saturation * (1 + state.Vibrance*(1-clamp01(currentSat)))
		r = luma + (r-luma)*satFactor
		g = luma + (g-luma)*satFactor
		b = luma + (b-luma)*satFactor

		// warm/cool shift on the red/blue axis
		r += tempShift
		b -= tempShift

		// magenta/green shift
		g -= tintShift
		r += tintShift * 0.5
		b += tintShift * 0.5

		pix[i] = toByte(r)
		pix[i+1] = toByte(g)
		pix[i+2] = toByte(b)
	}

	return nil
}

func toByte(v float64) uint8 {
	return uint8(clamp01(v)*255 + 0.5)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}

	if v > 1 {
		return 1
	}

	return v
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}

	return v
}

func maxChannel(r, g, b float64) float64 {
	m := r
	if g > m {
		m = g
	}
	if b > m {
		m = b
	}

	return m
}

func minChannel(r, g, b float64) float64 {
	m := r
	if g < m {
		m = g
	}
	if b < m {
		m = b
	}

	return m
}
