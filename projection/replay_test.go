package projection_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/lumetric/darkroom-engine-go/editlog"
	"github.com/lumetric/darkroom-engine-go/projection"
)

func Test_Project_WhenHistoryIsEmpty(t *testing.T) {
	// act
	state := projection.Project(nil)

	// assert
	assert.True(t, state.IsDefault())
	assert.Equal(t, 1.0, state.Saturation, "neutral saturation is 1.0, not 0")
}

func Test_Project_LastWriteWinsPerField(t *testing.T) {
	// arrange
	history := givenEditHistory(t,
		`{"exposure": 0.5}`,
		`{"contrast": 0.3}`,
		`{"exposure": -0.3}`,
		`{"saturation": 1.4}`,
	)

	// act
	state := projection.Project(history)

	// assert
	assert.InDelta(t, -0.3, state.Exposure, 1e-9, "later exposure overrides the earlier one")
	assert.InDelta(t, 0.3, state.Contrast, 1e-9, "contrast is untouched by later events")
	assert.InDelta(t, 1.4, state.Saturation, 1e-9)
}

func Test_Project_SkipsInactiveEvents(t *testing.T) {
	// arrange
	history := givenEditHistory(t,
		`{"exposure": 0.5}`,
		`{"exposure": -1.2}`,
	)
	history[1].IsActive = false

	// act
	state := projection.Project(history)

	// assert
	assert.InDelta(t, 0.5, state.Exposure, 1e-9, "inactive events must not feed the fold")
}

func Test_Project_SkipsNonEditEventTypes(t *testing.T) {
	// arrange
	history := givenEditHistory(t, `{"exposure": 0.5}`)

	rating, err := editlog.BuildEvent("asset-a", editlog.EventTypeRatingChanged, []byte(`{"exposure": 1.9}`), time.Now())
	assert.NoError(t, err)
	rating.SequenceNumber = 2
	history = append(history, rating)

	// act
	state := projection.Project(history)

	// assert
	assert.InDelta(t, 0.5, state.Exposure, 1e-9)
}

func Test_Project_ClampsOutOfRangeValues(t *testing.T) {
	// arrange
	history := givenEditHistory(t,
		`{"exposure": 9.0, "contrast": -5.0, "saturation": 3.0, "colorTemp": 250, "tint": -250}`,
	)

	// act
	state := projection.Project(history)

	// assert
	assert.Equal(t, projection.ExposureMax, state.Exposure)
	assert.Equal(t, projection.ContrastMin, state.Contrast)
	assert.Equal(t, projection.SaturationMax, state.Saturation)
	assert.Equal(t, projection.ColorShiftMax, state.ColorTemp)
	assert.Equal(t, projection.ColorShiftMin, state.Tint)
}

func Test_Project_ToleratesMalformedPayloadFields(t *testing.T) {
	// arrange: contrast is a string, the rest of the payload is fine
	history := givenEditHistory(t,
		`{"exposure": 0.4, "contrast": "broken", "vibrance": 0.2}`,
	)

	// act
	state := projection.Project(history)

	// assert
	assert.InDelta(t, 0.4, state.Exposure, 1e-9, "good fields still apply")
	assert.Equal(t, 0.0, state.Contrast, "the bad field is skipped, not defaulted to garbage")
	assert.InDelta(t, 0.2, state.Vibrance, 1e-9)
}

func Test_Project_ToleratesStructurallyBrokenPayload(t *testing.T) {
	// arrange
	history := givenEditHistory(t, `{"exposure": 0.4}`)

	broken, err := editlog.BuildEvent("asset-a", editlog.EventTypeEdited, []byte(`{"valid": true}`), time.Now())
	assert.NoError(t, err)
	broken.SequenceNumber = 2
	broken.PayloadJSON = []byte(`not json at all`) // simulates corruption after storage

	// act
	state := projection.Project(append(history, broken))

	// assert
	assert.InDelta(t, 0.4, state.Exposure, 1e-9, "a corrupted event must not abort the fold")
}

func Test_Project_IsDeterministic(t *testing.T) {
	// arrange
	history := givenEditHistory(t,
		`{"exposure": -0.8, "shadows": 0.3}`,
		`{"clarity": 0.15, "highlights": -0.4}`,
	)

	// act
	first := projection.Project(history)
	second := projection.Project(history)

	// assert
	assert.Equal(t, first, second)
	assert.Equal(t, first.Fingerprint(), second.Fingerprint())
}

func givenEditHistory(t *testing.T, payloads ...string) editlog.Events {
	t.Helper()

	history := make(editlog.Events, 0, len(payloads))
	for i, payload := range payloads {
		event, err := editlog.BuildEvent("asset-a", editlog.EventTypeEdited, []byte(payload), time.Now())
		assert.NoError(t, err, "building event %d failed", i)

		event.SequenceNumber = uint(i + 1)
		history = append(history, event)
	}

	return history
}
