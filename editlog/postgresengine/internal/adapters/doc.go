// Package adapters provides database driver adapters for the Postgres edit
// log engine.
//
// It defines a small common interface (DBAdapter) over the supported
// connection types (pgxpool.Pool, sql.DB, sqlx.DB) so the engine can build
// its SQL once and run it against any of them.
package adapters
