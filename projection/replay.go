package projection

import (
	jsoniter "github.com/json-iterator/go"

	"github.com/lumetric/darkroom-engine-go/editlog"
)

// Payload field names as they appear in stored event payloads.
const (
	FieldExposure   = "exposure"
	FieldContrast   = "contrast"
	FieldSaturation = "saturation"
	FieldHighlights = "highlights"
	FieldShadows    = "shadows"
	FieldClarity    = "clarity"
	FieldVibrance   = "vibrance"
	FieldColorTemp  = "colorTemp"
	FieldTint       = "tint"
)

// Project folds the given events into the current edit state.
// This is a pure function with no side effects - it takes the event history
// in ascending sequence order and returns the projected state.
//
// Replay Logic:
//
//	GIVEN: All events for one asset, in sequence order
//	WHEN: The projection is rebuilt
//	THEN: The fold starts from the neutral defaults
//	INCLUDES: Active "Edited" events; each payload overrides only the fields it names
//	EXCLUDES: Inactive events and non-edit event types
//	ROBUSTNESS: A malformed payload field is skipped; the rest of the fold continues
//
// Re-running Project on the same active set always yields the same state.
func Project(history editlog.Events) EditState {
	state := DefaultEditState()

	for _, event := range history {
		if !event.IsActive || !event.IsEdit() {
			continue
		}

		applyPayload(&state, event.PayloadJSON)
	}

	return state
}

// applyPayload overrides the state fields named in the payload, last-write-wins
// per field. Fields that fail to decode as numbers are skipped field-by-field
// so a single bad value cannot corrupt the rest of the projection.
func applyPayload(state *EditState, payloadJSON []byte) {
	fields := make(map[string]jsoniter.RawMessage)
	if err := jsoniter.ConfigFastest.Unmarshal(payloadJSON, &fields); err != nil {
		return // structurally broken payload, nothing can be applied
	}

	for name, raw := range fields {
		var value float64
		if err := jsoniter.ConfigFastest.Unmarshal(raw, &value); err != nil {
			continue
		}

		applyField(state, name, value)
	}
}

func applyField(state *EditState, name string, value float64) {
	switch name {
	case FieldExposure:
		state.Exposure = clamp(value, ExposureMin, ExposureMax)
	case FieldContrast:
		state.Contrast = clamp(value, ContrastMin, ContrastMax)
	case FieldSaturation:
		state.Saturation = clamp(value, SaturationMin, SaturationMax)
	case FieldHighlights:
		state.Highlights = clamp(value, ToneMin, ToneMax)
	case FieldShadows:
		state.Shadows = clamp(value, ToneMin, ToneMax)
	case FieldClarity:
		state.Clarity = clamp(value, ToneMin, ToneMax)
	case FieldVibrance:
		state.Vibrance = clamp(value, ToneMin, ToneMax)
	case FieldColorTemp:
		state.ColorTemp = clamp(value, ColorShiftMin, ColorShiftMax)
	case FieldTint:
		state.Tint = clamp(value, ColorShiftMin, ColorShiftMax)
	}
}
