package editlog

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event type identifiers for the edit log.
// Only EventTypeEdited carries an edit-state payload; the other types are
// stored for auditing and display but are skipped during replay.
const (
	EventTypeEdited        = "Edited"
	EventTypeRatingChanged = "RatingChanged"
	EventTypeFlagAdded     = "FlagAdded"
)

// Events is an alias type for a slice of Event.
type Events = []Event

// SequenceNumberUint is a type alias for uint, representing the monotonic
// ordering key of an event within the log.
type SequenceNumberUint = uint

// Event is a single record of the append-only edit log.
//
// The payload is carried as raw JSON to stay agnostic of the parameter set a
// given event type uses. While its properties are exported, it should only be
// constructed with the BuildEvent factory method.
//
// Invariant: events for a given asset are totally ordered by SequenceNumber;
// IsActive is the only field that is ever mutated after an event is stored.
type Event struct {
	ID             uuid.UUID
	AssetID        string
	EventType      string
	PayloadJSON    []byte
	SequenceNumber SequenceNumberUint
	IsActive       bool
	OccurredAt     time.Time
}

// BuildEvent is a factory method for Event.
//
// It populates the Event with a fresh ID and an active flag; the sequence
// number is assigned by the Store on append. Returns an error if assetID is
// empty or payloadJSON is not valid JSON.
func BuildEvent(assetID string, eventType string, payloadJSON []byte, occurredAt time.Time) (Event, error) {
	if assetID == "" {
		return Event{}, ErrEmptyAssetID
	}

	if eventType == "" {
		return Event{}, ErrEmptyEventType
	}

	if !json.Valid(payloadJSON) {
		return Event{}, ErrInvalidPayloadJSON
	}

	return Event{
		ID:          uuid.New(),
		AssetID:     assetID,
		EventType:   eventType,
		PayloadJSON: payloadJSON,
		IsActive:    true,
		OccurredAt:  occurredAt,
	}, nil
}

// IsEdit reports whether this event affects the edit-state projection.
func (e Event) IsEdit() bool {
	return e.EventType == EventTypeEdited
}
