package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/lumetric/darkroom-engine-go/editlog"
	"github.com/lumetric/darkroom-engine-go/editlog/postgresengine/internal/adapters"
)

const (
	defaultEventsTableName    = "edit_events"
	defaultSnapshotsTableName = "edit_snapshots"

	logMsgBuildQueryFailed   = "failed to build query"
	logMsgDBQueryFailed      = "database query execution failed"
	logMsgDBExecFailed       = "database execution failed"
	logMsgCloseRowsFailed    = "failed to close database rows"
	logMsgScanRowFailed      = "failed to scan database row"
	logMsgRowsAffectedFailed = "failed to get rows affected count"
	logMsgEventAppended      = "event appended"
	logMsgEventsQueried      = "events queried"
	logMsgActiveFlagsUpdated = "active flags updated"
	logMsgAssetErased        = "asset events erased"
	logMsgSQLExecuted        = "executed sql for: "
	logMsgOperation          = "edit log operation: "

	logAttrError       = "error"
	logAttrQuery       = "query"
	logAttrAssetID     = "asset_id"
	logAttrEventCount  = "event_count"
	logAttrDurationMS  = "duration_ms"
	logAttrSequence    = "sequence"
	logAttrRowsFlipped = "rows_flipped"

	logActionQuery  = "query"
	logActionAppend = "append"
	logActionUpdate = "update"
	logActionDelete = "delete"

	colID             = "id"
	colAssetID        = "asset_id"
	colEventType      = "event_type"
	colPayload        = "payload"
	colSequenceNumber = "sequence_number"
	colIsActive       = "is_active"
	colOccurredAt     = "occurred_at"

	dialectPostgres = "postgres"
	castJsonb       = "?::jsonb"
)

type sqlQueryString = string

// Logger interface for SQL query logging, operational metrics, warnings, and error reporting.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// EventStore is a Postgres-backed implementation of editlog.Store.
// It leverages a database adapter and supports customizable logging and
// table configuration.
type EventStore struct {
	db              adapters.DBAdapter
	eventsTableName string
	logger          Logger
}

// Option defines a functional option for configuring EventStore.
type Option func(*EventStore) error

// WithTableName sets the events table name for the EventStore.
func WithTableName(tableName string) Option {
	return func(es *EventStore) error {
		if tableName == "" {
			return editlog.ErrEmptyTableNameSupplied
		}

		es.eventsTableName = tableName

		return nil
	}
}

// WithLogger sets the logger for the EventStore.
//
// Debug level: SQL queries with execution timing (development use)
// Info level: Event counts and durations (production-safe)
// Warn level: Non-critical issues like cleanup failures
// Error level: Critical failures that cause operation failures.
func WithLogger(logger Logger) Option {
	return func(es *EventStore) error {
		es.logger = logger
		return nil
	}
}

// NewEventStoreFromPGXPool creates a new EventStore using a pgx Pool with optional configuration.
func NewEventStoreFromPGXPool(db *pgxpool.Pool, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, editlog.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewPGXAdapter(db), options...)
}

// NewEventStoreFromSQLDB creates a new EventStore using a sql.DB with optional configuration.
func NewEventStoreFromSQLDB(db *sql.DB, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, editlog.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLAdapter(db), options...)
}

// NewEventStoreFromSQLX creates a new EventStore using a sqlx.DB with optional configuration.
func NewEventStoreFromSQLX(db *sqlx.DB, options ...Option) (EventStore, error) {
	if db == nil {
		return EventStore{}, editlog.ErrNilDatabaseConnection
	}

	return newEventStore(adapters.NewSQLXAdapter(db), options...)
}

func newEventStore(db adapters.DBAdapter, options ...Option) (EventStore, error) {
	es := EventStore{
		db:              db,
		eventsTableName: defaultEventsTableName,
	}

	for _, option := range options {
		if err := option(&es); err != nil {
			return EventStore{}, err
		}
	}

	return es, nil
}

// Append stores the event and returns the sequence number Postgres assigned.
func (es EventStore) Append(ctx context.Context, event editlog.Event) (editlog.SequenceNumberUint, error) {
	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(es.eventsTableName).
		Cols(colID, colAssetID, colEventType, colPayload, colIsActive, colOccurredAt).
		Vals(goqu.Vals{
			event.ID.String(),
			event.AssetID,
			event.EventType,
			goqu.L(castJsonb, string(event.PayloadJSON)),
			event.IsActive,
			event.OccurredAt,
		}).
		Returning(colSequenceNumber)

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		es.logError(logMsgBuildQueryFailed, toSQLErr)
		return 0, errors.Join(editlog.ErrAppendingEventFailed, toSQLErr)
	}

	start := time.Now()
	rows, queryErr := es.db.Query(ctx, sqlQuery)
	duration := time.Since(start)
	es.logQueryWithDuration(sqlQuery, logActionAppend, duration)

	if queryErr != nil {
		es.logError(logMsgDBExecFailed, queryErr, logAttrQuery, sqlQuery)
		return 0, errors.Join(editlog.ErrAppendingEventFailed, queryErr)
	}
	defer es.closeRows(rows)

	if !rows.Next() {
		return 0, editlog.ErrAppendingEventFailed
	}

	var seq int64
	if scanErr := rows.Scan(&seq); scanErr != nil {
		es.logError(logMsgScanRowFailed, scanErr)
		return 0, errors.Join(editlog.ErrAppendingEventFailed, scanErr)
	}

	es.logOperation(
		logMsgEventAppended,
		logAttrAssetID, event.AssetID,
		logAttrSequence, seq,
		logAttrDurationMS, es.durationToMilliseconds(duration),
	)

	return editlog.SequenceNumberUint(seq), nil
}

// EventsForAsset returns all events for the asset, active and inactive, in
// ascending sequence order.
func (es EventStore) EventsForAsset(ctx context.Context, assetID string) (editlog.Events, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(es.eventsTableName).
		Select(colID, colAssetID, colEventType, colPayload, colSequenceNumber, colIsActive, colOccurredAt).
		Where(goqu.Ex{colAssetID: assetID}).
		Order(goqu.I(colSequenceNumber).Asc())

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		es.logError(logMsgBuildQueryFailed, toSQLErr)
		return nil, errors.Join(editlog.ErrQueryingEventsFailed, toSQLErr)
	}

	start := time.Now()
	rows, queryErr := es.db.Query(ctx, sqlQuery)
	duration := time.Since(start)
	es.logQueryWithDuration(sqlQuery, logActionQuery, duration)

	if queryErr != nil {
		es.logError(logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)
		return nil, errors.Join(editlog.ErrQueryingEventsFailed, queryErr)
	}
	defer es.closeRows(rows)

	events, scanErr := es.scanEvents(rows)
	if scanErr != nil {
		return nil, scanErr
	}

	es.logOperation(
		logMsgEventsQueried,
		logAttrAssetID, assetID,
		logAttrEventCount, len(events),
		logAttrDurationMS, es.durationToMilliseconds(duration),
	)

	return events, nil
}

// SetEventActive flips the active flag of a single event.
func (es EventStore) SetEventActive(ctx context.Context, assetID string, eventID string, active bool) error {
	updateStmt := goqu.Dialect(dialectPostgres).
		Update(es.eventsTableName).
		Set(goqu.Record{colIsActive: active}).
		Where(goqu.Ex{colID: eventID, colAssetID: assetID})

	rowsAffected, err := es.execStatement(ctx, updateStmt.ToSQL, logActionUpdate, editlog.ErrMutatingEventsFailed)
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return editlog.ErrEventNotFound
	}

	return nil
}

// SetActiveThrough activates events up to and including throughSeq and
// deactivates every later one, in a single atomic statement.
func (es EventStore) SetActiveThrough(ctx context.Context, assetID string, throughSeq editlog.SequenceNumberUint) error {
	updateStmt := goqu.Dialect(dialectPostgres).
		Update(es.eventsTableName).
		Set(goqu.Record{colIsActive: goqu.L(colSequenceNumber+" <= ?", int64(throughSeq))}).
		Where(goqu.Ex{colAssetID: assetID})

	rowsAffected, err := es.execStatement(ctx, updateStmt.ToSQL, logActionUpdate, editlog.ErrMutatingEventsFailed)
	if err != nil {
		return err
	}

	es.logOperation(
		logMsgActiveFlagsUpdated,
		logAttrAssetID, assetID,
		logAttrSequence, throughSeq,
		logAttrRowsFlipped, rowsAffected,
	)

	return nil
}

// EraseAsset removes all events for the asset.
func (es EventStore) EraseAsset(ctx context.Context, assetID string) error {
	deleteStmt := goqu.Dialect(dialectPostgres).
		Delete(es.eventsTableName).
		Where(goqu.Ex{colAssetID: assetID})

	rowsAffected, err := es.execStatement(ctx, deleteStmt.ToSQL, logActionDelete, editlog.ErrMutatingEventsFailed)
	if err != nil {
		return err
	}

	es.logOperation(logMsgAssetErased, logAttrAssetID, assetID, logAttrEventCount, rowsAffected)

	return nil
}

// CountSince returns the number of events for the asset that occurred at or after since.
func (es EventStore) CountSince(ctx context.Context, assetID string, since time.Time) (int, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(es.eventsTableName).
		Select(goqu.COUNT(goqu.Star())).
		Where(goqu.Ex{colAssetID: assetID}, goqu.C(colOccurredAt).Gte(since))

	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		es.logError(logMsgBuildQueryFailed, toSQLErr)
		return 0, errors.Join(editlog.ErrQueryingEventsFailed, toSQLErr)
	}

	start := time.Now()
	rows, queryErr := es.db.Query(ctx, sqlQuery)
	es.logQueryWithDuration(sqlQuery, logActionQuery, time.Since(start))

	if queryErr != nil {
		es.logError(logMsgDBQueryFailed, queryErr, logAttrQuery, sqlQuery)
		return 0, errors.Join(editlog.ErrQueryingEventsFailed, queryErr)
	}
	defer es.closeRows(rows)

	count := 0
	if rows.Next() {
		if scanErr := rows.Scan(&count); scanErr != nil {
			es.logError(logMsgScanRowFailed, scanErr)
			return 0, errors.Join(editlog.ErrQueryingEventsFailed, scanErr)
		}
	}

	return count, nil
}

type toSQLFunc func() (sql string, params []any, err error)

// execStatement builds and executes a mutation statement, returning rows affected.
func (es EventStore) execStatement(
	ctx context.Context,
	toSQL toSQLFunc,
	action string,
	wrapErr error,
) (int64, error) {

	sqlQuery, _, toSQLErr := toSQL()
	if toSQLErr != nil {
		es.logError(logMsgBuildQueryFailed, toSQLErr)
		return 0, errors.Join(wrapErr, toSQLErr)
	}

	start := time.Now()
	result, execErr := es.db.Exec(ctx, sqlQuery)
	es.logQueryWithDuration(sqlQuery, action, time.Since(start))

	if execErr != nil {
		es.logError(logMsgDBExecFailed, execErr, logAttrQuery, sqlQuery)
		return 0, errors.Join(wrapErr, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		es.logError(logMsgRowsAffectedFailed, rowsAffectedErr)
		return 0, errors.Join(wrapErr, rowsAffectedErr)
	}

	return rowsAffected, nil
}

// scanEvents converts database rows into editlog events.
func (es EventStore) scanEvents(rows adapters.DBRows) (editlog.Events, error) {
	events := make(editlog.Events, 0)

	for rows.Next() {
		var (
			idString   string
			assetID    string
			eventType  string
			payload    []byte
			seq        int64
			isActive   bool
			occurredAt time.Time
		)

		if scanErr := rows.Scan(&idString, &assetID, &eventType, &payload, &seq, &isActive, &occurredAt); scanErr != nil {
			es.logError(logMsgScanRowFailed, scanErr)
			return nil, errors.Join(editlog.ErrQueryingEventsFailed, scanErr)
		}

		id, parseErr := uuid.Parse(idString)
		if parseErr != nil {
			es.logError(logMsgScanRowFailed, parseErr)
			return nil, errors.Join(editlog.ErrQueryingEventsFailed, parseErr)
		}

		events = append(events, editlog.Event{
			ID:             id,
			AssetID:        assetID,
			EventType:      eventType,
			PayloadJSON:    payload,
			SequenceNumber: editlog.SequenceNumberUint(seq),
			IsActive:       isActive,
			OccurredAt:     occurredAt,
		})
	}

	return events, nil
}

// closeRows safely closes database rows and logs any errors.
func (es EventStore) closeRows(rows adapters.DBRows) {
	if closeErr := rows.Close(); closeErr != nil {
		if es.logger != nil {
			es.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}
	}
}

// logQueryWithDuration logs SQL queries with execution time at debug level if the logger is configured.
func (es EventStore) logQueryWithDuration(sqlQuery string, action string, duration time.Duration) {
	if es.logger != nil {
		es.logger.Debug(logMsgSQLExecuted+action, logAttrDurationMS, es.durationToMilliseconds(duration), logAttrQuery, sqlQuery)
	}
}

// logOperation logs operational information at info level if the logger is configured.
func (es EventStore) logOperation(action string, args ...any) {
	if es.logger != nil {
		es.logger.Info(logMsgOperation+action, args...)
	}
}

func (es EventStore) logError(msg string, err error, args ...any) {
	if es.logger != nil {
		es.logger.Error(msg, append([]any{logAttrError, err.Error()}, args...)...)
	}
}

// durationToMilliseconds converts a time.Duration to float64 milliseconds with 3 decimal places.
func (es EventStore) durationToMilliseconds(d time.Duration) float64 {
	return math.Round(float64(d.Nanoseconds())/1e6*1000) / 1000
}
