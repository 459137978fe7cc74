package editlog

import (
	"errors"
)

var (
	// ErrEmptyAssetID is returned when an event is built without an asset identifier.
	ErrEmptyAssetID = errors.New("asset id must not be empty")

	// ErrEmptyEventType is returned when an event is built without an event type.
	ErrEmptyEventType = errors.New("event type must not be empty")

	// ErrInvalidPayloadJSON is returned when an event payload is not valid JSON.
	ErrInvalidPayloadJSON = errors.New("payload json is not valid")

	// ErrEventNotFound is returned when a referenced event does not exist in the log.
	ErrEventNotFound = errors.New("event not found")

	// ErrNilDatabaseConnection is returned when a storage engine is constructed without a connection.
	ErrNilDatabaseConnection = errors.New("database connection must not be nil")

	// ErrEmptyTableNameSupplied is returned when a storage engine is configured with an empty table name.
	ErrEmptyTableNameSupplied = errors.New("empty table name supplied")

	// ErrQueryingEventsFailed is returned when reading from the underlying storage fails.
	ErrQueryingEventsFailed = errors.New("querying events failed")

	// ErrAppendingEventFailed is returned when writing to the underlying storage fails.
	ErrAppendingEventFailed = errors.New("appending event failed")

	// ErrMutatingEventsFailed is returned when an active-flag update fails in the underlying storage.
	ErrMutatingEventsFailed = errors.New("mutating events failed")
)
