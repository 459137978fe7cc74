// Package cssfilter maps an edit-state projection to a compact, composable
// CSS filter-chain descriptor. This is the cheap approximate rendering path:
// it covers exposure, contrast and saturation only, while the pixel engine
// covers the full parameter set.
package cssfilter

import (
	"fmt"
	"strings"

	"github.com/lumetric/darkroom-engine-go/projection"
)

// Neutral is the sentinel descriptor meaning "apply no filter".
const Neutral = "none"

// Output clamps for the mapped operations. Brightness is clamped on both
// ends; contrast and saturate only have a floor.
const (
	BrightnessMin = 0.3
	BrightnessMax = 1.7
	ContrastMin   = 0.5
	SaturateMin   = 0.0
)

// neutralEpsilon: an operation whose output is within this distance of 1.0
// is omitted from the descriptor.
const neutralEpsilon = 0.01

// Op is a single named filter operation with its computed value.
type Op struct {
	Name  string
	Value float64
}

// Chain is the ordered list of filter operations mapped from a projection.
type Chain struct {
	Ops []Op
}

// Map converts a projection into a filter chain using clamped, deterministic
// numeric formulas:
//
//	brightness = clamp(1 + exposure*0.3, 0.3, 1.7)
//	contrast   = max(1 + contrast*0.5, 0.5)
//	saturate   = max(saturation, 0)
//
// Operations within 0.01 of the neutral value 1.0 are omitted; if all three
// are omitted the chain is neutral.
func Map(state projection.EditState) Chain {
	brightness := 1 + state.Exposure*0.3
	if brightness < BrightnessMin {
		brightness = BrightnessMin
	}
	if brightness > BrightnessMax {
		brightness = BrightnessMax
	}

	contrast := 1 + state.Contrast*0.5
	if contrast < ContrastMin {
		contrast = ContrastMin
	}

	saturate := state.Saturation
	if saturate < SaturateMin {
		saturate = SaturateMin
	}

	var chain Chain

	appendOp := func(name string, value float64) {
		if value > 1+neutralEpsilon || value < 1-neutralEpsilon {
			chain.Ops = append(chain.Ops, Op{Name: name, Value: value})
		}
	}

	appendOp("brightness", brightness)
	appendOp("contrast", contrast)
	appendOp("saturate", saturate)

	return chain
}

// IsNeutral reports whether the chain carries no operations.
func (c Chain) IsNeutral() bool {
	return len(c.Ops) == 0
}

// String renders the chain as a CSS filter value with two decimal places for
// reproducibility, or the Neutral sentinel when the chain is empty.
func (c Chain) String() string {
	if c.IsNeutral() {
		return Neutral
	}

	parts := make([]string, 0, len(c.Ops))
	for _, op := range c.Ops {
		parts = append(parts, fmt.Sprintf("%s(%.2f)", op.Name, op.Value))
	}

	return strings.Join(parts, " ")
}
