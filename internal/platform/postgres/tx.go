package postgres

import (
	"context"
	"database/sql"

	"github.com/phrazzld/classplan/internal/store"
)

// inTx runs fn in a transaction. When db already is a transaction fn joins
// it; any other DBTX runs fn directly.
func inTx(ctx context.Context, db store.DBTX, fn func(q store.DBTX) error) error {
	if sqlDB, ok := db.(*sql.DB); ok {
		return store.RunInTransaction(ctx, sqlDB, func(ctx context.Context, tx *sql.Tx) error {
			return fn(tx)
		})
	}
	return fn(db)
}
