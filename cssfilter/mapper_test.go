package cssfilter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lumetric/darkroom-engine-go/cssfilter"
	"github.com/lumetric/darkroom-engine-go/projection"
)

func Test_Map_WhenStateIsNeutral(t *testing.T) {
	// act
	chain := cssfilter.Map(projection.DefaultEditState())

	// assert
	assert.True(t, chain.IsNeutral())
	assert.Equal(t, cssfilter.Neutral, chain.String())
}

func Test_Map_ComputesClampedOperationValues(t *testing.T) {
	tests := []struct {
		name     string
		state    projection.EditState
		expected string
	}{
		{
			name:     "positive exposure maps to brightness",
			state:    projection.EditState{Exposure: 1.0, Saturation: 1.0},
			expected: "brightness(1.30)",
		},
		{
			name:     "full positive exposure stays below the brightness ceiling",
			state:    projection.EditState{Exposure: 2.0, Saturation: 1.0},
			expected: "brightness(1.60)",
		},
		{
			name:     "full negative exposure stays above the brightness floor",
			state:    projection.EditState{Exposure: -2.0, Saturation: 1.0},
			expected: "brightness(0.40)",
		},
		{
			name:     "out-of-range exposure clamps to the brightness ceiling",
			state:    projection.EditState{Exposure: 5.0, Saturation: 1.0},
			expected: "brightness(1.70)",
		},
		{
			name:     "out-of-range negative exposure clamps to the brightness floor",
			state:    projection.EditState{Exposure: -5.0, Saturation: 1.0},
			expected: "brightness(0.30)",
		},
		{
			name:     "contrast maps through the half-strength formula",
			state:    projection.EditState{Contrast: 0.5, Saturation: 1.0},
			expected: "contrast(1.25)",
		},
		{
			name:     "negative contrast clamps to the floor",
			state:    projection.EditState{Contrast: -1.0, Saturation: 1.0},
			expected: "contrast(0.50)",
		},
		{
			name:     "saturation passes through directly",
			state:    projection.EditState{Saturation: 1.4},
			expected: "saturate(1.40)",
		},
		{
			name:     "zero saturation is a real operation, not neutral",
			state:    projection.EditState{Saturation: 0},
			expected: "saturate(0.00)",
		},
		{
			name:     "combined state joins operations in fixed order",
			state:    projection.EditState{Exposure: 0.5, Contrast: 0.2, Saturation: 1.2},
			expected: "brightness(1.15) contrast(1.10) saturate(1.20)",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, cssfilter.Map(tc.state).String())
		})
	}
}

func Test_Map_OmitsNearNeutralOperations(t *testing.T) {
	// arrange: exposure 0.01 gives brightness 1.003, within the neutral epsilon
	state := projection.EditState{Exposure: 0.01, Saturation: 1.005}

	// act
	chain := cssfilter.Map(state)

	// assert
	assert.True(t, chain.IsNeutral(), "operations within epsilon of 1.0 are dropped")
}

func Test_Map_IgnoresFieldsOutsideTheApproximateSet(t *testing.T) {
	// arrange: only exposure, contrast and saturation are mappable
	state := projection.EditState{
		Saturation: 1.0,
		Highlights: 0.8,
		Shadows:    -0.8,
		Clarity:    0.5,
		Vibrance:   0.5,
		ColorTemp:  80,
		Tint:       -80,
	}

	// act
	chain := cssfilter.Map(state)

	// assert
	assert.True(t, chain.IsNeutral(), "fields without a CSS counterpart must not leak into the chain")
}
