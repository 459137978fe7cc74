package postgresengine

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jmoiron/sqlx"

	"github.com/lumetric/darkroom-engine-go/editlog"
	"github.com/lumetric/darkroom-engine-go/editlog/postgresengine/internal/adapters"
	"github.com/lumetric/darkroom-engine-go/snapshot"
)

const (
	colName        = "name"
	colDescription = "description"
	colAtSequence  = "at_sequence"
	colCreatedAt   = "created_at"

	logMsgSnapshotSaved   = "snapshot saved"
	logMsgSnapshotDeleted = "snapshot deleted"
)

// ErrSavingSnapshotFailed is returned when a snapshot write fails in storage.
var ErrSavingSnapshotFailed = errors.New("saving snapshot failed")

// ErrLoadingSnapshotFailed is returned when a snapshot read fails in storage.
var ErrLoadingSnapshotFailed = errors.New("loading snapshot failed")

// SnapshotStore is a Postgres-backed implementation of snapshot.Store.
type SnapshotStore struct {
	db        adapters.DBAdapter
	tableName string
	logger    Logger
}

// SnapshotOption defines a functional option for configuring SnapshotStore.
type SnapshotOption func(*SnapshotStore) error

// WithSnapshotTableName sets the snapshots table name.
func WithSnapshotTableName(tableName string) SnapshotOption {
	return func(ss *SnapshotStore) error {
		if tableName == "" {
			return editlog.ErrEmptyTableNameSupplied
		}

		ss.tableName = tableName

		return nil
	}
}

// WithSnapshotLogger sets the logger for the SnapshotStore.
func WithSnapshotLogger(logger Logger) SnapshotOption {
	return func(ss *SnapshotStore) error {
		ss.logger = logger
		return nil
	}
}

// NewSnapshotStoreFromPGXPool creates a new SnapshotStore using a pgx Pool.
func NewSnapshotStoreFromPGXPool(db *pgxpool.Pool, options ...SnapshotOption) (SnapshotStore, error) {
	if db == nil {
		return SnapshotStore{}, editlog.ErrNilDatabaseConnection
	}

	return newSnapshotStore(adapters.NewPGXAdapter(db), options...)
}

// NewSnapshotStoreFromSQLDB creates a new SnapshotStore using a sql.DB.
func NewSnapshotStoreFromSQLDB(db *sql.DB, options ...SnapshotOption) (SnapshotStore, error) {
	if db == nil {
		return SnapshotStore{}, editlog.ErrNilDatabaseConnection
	}

	return newSnapshotStore(adapters.NewSQLAdapter(db), options...)
}

// NewSnapshotStoreFromSQLX creates a new SnapshotStore using a sqlx.DB.
func NewSnapshotStoreFromSQLX(db *sqlx.DB, options ...SnapshotOption) (SnapshotStore, error) {
	if db == nil {
		return SnapshotStore{}, editlog.ErrNilDatabaseConnection
	}

	return newSnapshotStore(adapters.NewSQLXAdapter(db), options...)
}

func newSnapshotStore(db adapters.DBAdapter, options ...SnapshotOption) (SnapshotStore, error) {
	ss := SnapshotStore{
		db:        db,
		tableName: defaultSnapshotsTableName,
	}

	for _, option := range options {
		if err := option(&ss); err != nil {
			return SnapshotStore{}, err
		}
	}

	return ss, nil
}

// Save stores the snapshot record.
func (ss SnapshotStore) Save(ctx context.Context, snap snapshot.Snapshot) error {
	insertStmt := goqu.Dialect(dialectPostgres).
		Insert(ss.tableName).
		Cols(colID, colAssetID, colName, colDescription, colAtSequence, colCreatedAt).
		Vals(goqu.Vals{
			snap.ID.String(),
			snap.AssetID,
			snap.Name,
			snap.Description,
			int64(snap.AtSequence),
			snap.CreatedAt,
		})

	sqlQuery, _, toSQLErr := insertStmt.ToSQL()
	if toSQLErr != nil {
		ss.logError(logMsgBuildQueryFailed, toSQLErr)
		return errors.Join(ErrSavingSnapshotFailed, toSQLErr)
	}

	if _, execErr := ss.db.Exec(ctx, sqlQuery); execErr != nil {
		ss.logError(logMsgDBExecFailed, execErr)
		return errors.Join(ErrSavingSnapshotFailed, execErr)
	}

	if ss.logger != nil {
		ss.logger.Info(logMsgSnapshotSaved, logAttrAssetID, snap.AssetID, logAttrSequence, snap.AtSequence)
	}

	return nil
}

// ByID returns the snapshot with the given id.
func (ss SnapshotStore) ByID(ctx context.Context, snapshotID string) (snapshot.Snapshot, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(ss.tableName).
		Select(colID, colAssetID, colName, colDescription, colAtSequence, colCreatedAt).
		Where(goqu.Ex{colID: snapshotID})

	snaps, err := ss.querySnapshots(ctx, selectStmt)
	if err != nil {
		return snapshot.Snapshot{}, err
	}

	if len(snaps) == 0 {
		return snapshot.Snapshot{}, snapshot.ErrSnapshotNotFound
	}

	return snaps[0], nil
}

// ForAsset returns the asset's snapshots ordered by creation time.
func (ss SnapshotStore) ForAsset(ctx context.Context, assetID string) ([]snapshot.Snapshot, error) {
	selectStmt := goqu.Dialect(dialectPostgres).
		From(ss.tableName).
		Select(colID, colAssetID, colName, colDescription, colAtSequence, colCreatedAt).
		Where(goqu.Ex{colAssetID: assetID}).
		Order(goqu.I(colCreatedAt).Asc())

	return ss.querySnapshots(ctx, selectStmt)
}

// Delete removes the snapshot record.
func (ss SnapshotStore) Delete(ctx context.Context, snapshotID string) error {
	deleteStmt := goqu.Dialect(dialectPostgres).
		Delete(ss.tableName).
		Where(goqu.Ex{colID: snapshotID})

	sqlQuery, _, toSQLErr := deleteStmt.ToSQL()
	if toSQLErr != nil {
		ss.logError(logMsgBuildQueryFailed, toSQLErr)
		return errors.Join(ErrLoadingSnapshotFailed, toSQLErr)
	}

	result, execErr := ss.db.Exec(ctx, sqlQuery)
	if execErr != nil {
		ss.logError(logMsgDBExecFailed, execErr)
		return errors.Join(ErrLoadingSnapshotFailed, execErr)
	}

	rowsAffected, rowsAffectedErr := result.RowsAffected()
	if rowsAffectedErr != nil {
		ss.logError(logMsgRowsAffectedFailed, rowsAffectedErr)
		return errors.Join(ErrLoadingSnapshotFailed, rowsAffectedErr)
	}

	if rowsAffected == 0 {
		return snapshot.ErrSnapshotNotFound
	}

	if ss.logger != nil {
		ss.logger.Info(logMsgSnapshotDeleted, colID, snapshotID)
	}

	return nil
}

func (ss SnapshotStore) querySnapshots(ctx context.Context, selectStmt *goqu.SelectDataset) ([]snapshot.Snapshot, error) {
	sqlQuery, _, toSQLErr := selectStmt.ToSQL()
	if toSQLErr != nil {
		ss.logError(logMsgBuildQueryFailed, toSQLErr)
		return nil, errors.Join(ErrLoadingSnapshotFailed, toSQLErr)
	}

	rows, queryErr := ss.db.Query(ctx, sqlQuery)
	if queryErr != nil {
		ss.logError(logMsgDBQueryFailed, queryErr)
		return nil, errors.Join(ErrLoadingSnapshotFailed, queryErr)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil && ss.logger != nil {
			ss.logger.Warn(logMsgCloseRowsFailed, logAttrError, closeErr.Error())
		}
	}()

	snaps := make([]snapshot.Snapshot, 0)

	for rows.Next() {
		var (
			idString    string
			assetID     string
			name        string
			description string
			atSequence  int64
			createdAt   time.Time
		)

		if scanErr := rows.Scan(&idString, &assetID, &name, &description, &atSequence, &createdAt); scanErr != nil {
			ss.logError(logMsgScanRowFailed, scanErr)
			return nil, errors.Join(ErrLoadingSnapshotFailed, scanErr)
		}

		id, parseErr := uuid.Parse(idString)
		if parseErr != nil {
			ss.logError(logMsgScanRowFailed, parseErr)
			return nil, errors.Join(ErrLoadingSnapshotFailed, parseErr)
		}

		snaps = append(snaps, snapshot.Snapshot{
			ID:          id,
			AssetID:     assetID,
			Name:        name,
			Description: description,
			AtSequence:  editlog.SequenceNumberUint(atSequence),
			CreatedAt:   createdAt,
		})
	}

	return snaps, nil
}

func (ss SnapshotStore) logError(msg string, err error) {
	if ss.logger != nil {
		ss.logger.Error(msg, logAttrError, err.Error())
	}
}
