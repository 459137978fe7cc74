// Package postgresengine provides a Postgres-backed implementation of the
// edit log and snapshot stores.
//
// It supports three database access layers through a common internal adapter
// interface: pgxpool.Pool, the standard library sql.DB, and sqlx.DB. SQL is
// built with goqu, so the engine never concatenates user input into queries.
//
// Expected schema:
//
//	CREATE TABLE edit_events (
//	    id              UUID PRIMARY KEY,
//	    asset_id        TEXT NOT NULL,
//	    event_type      TEXT NOT NULL,
//	    payload         JSONB NOT NULL,
//	    sequence_number BIGSERIAL NOT NULL,
//	    is_active       BOOLEAN NOT NULL DEFAULT TRUE,
//	    occurred_at     TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX edit_events_asset_seq_idx ON edit_events (asset_id, sequence_number);
//
//	CREATE TABLE edit_snapshots (
//	    id          UUID PRIMARY KEY,
//	    asset_id    TEXT NOT NULL,
//	    name        TEXT NOT NULL,
//	    description TEXT NOT NULL DEFAULT '',
//	    at_sequence BIGINT NOT NULL,
//	    created_at  TIMESTAMPTZ NOT NULL
//	);
//	CREATE INDEX edit_snapshots_asset_idx ON edit_snapshots (asset_id, created_at);
//
// The sequence numbers assigned by BIGSERIAL are globally monotonic and
// therefore monotonic per asset, which is all the log contract requires.
package postgresengine
