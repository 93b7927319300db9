// Package postgres provides PostgreSQL implementations of the store
// interfaces defined in internal/store, plus the embedded goose migrations
// that create their schema.
//
// Stores accept a store.DBTX. Given a *sql.DB they open their own
// transaction for multi-statement writes; given a *sql.Tx they join it.
package postgres
