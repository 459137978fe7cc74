package projection

// Valid ranges for the edit-state parameters. Values outside their range are
// clamped during replay so that a single out-of-range payload field cannot
// push the projection into undefined territory.
const (
	ExposureMin   = -2.0
	ExposureMax   = 2.0
	ContrastMin   = -1.0
	ContrastMax   = 1.0
	SaturationMin = 0.0
	SaturationMax = 2.0
	ToneMin       = -1.0 // highlights, shadows, clarity, vibrance
	ToneMax       = 1.0
	ColorShiftMin = -100.0 // colorTemp, tint
	ColorShiftMax = 100.0
)

// EditState is the folded numeric edit state for one asset.
//
// Defaults are the neutral rendering: saturation 1.0, everything else 0.
type EditState struct {
	Exposure   float64 `json:"exposure"`
	Contrast   float64 `json:"contrast"`
	Saturation float64 `json:"saturation"`
	Highlights float64 `json:"highlights"`
	Shadows    float64 `json:"shadows"`
	Clarity    float64 `json:"clarity"`
	Vibrance   float64 `json:"vibrance"`
	ColorTemp  float64 `json:"colorTemp"`
	Tint       float64 `json:"tint"`
}

// DefaultEditState returns the neutral edit state an asset starts from.
func DefaultEditState() EditState {
	return EditState{
		Saturation: 1.0,
	}
}

// IsDefault reports whether the state equals the neutral defaults.
func (s EditState) IsDefault() bool {
	return s == DefaultEditState()
}

func clamp(v, minVal, maxVal float64) float64 {
	if v < minVal {
		return minVal
	}

	if v > maxVal {
		return maxVal
	}

	return v
}
