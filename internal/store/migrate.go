package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
)

//go:embed migrations/0001_init.up.sql
var migration0001Up string

// MigratePostgres applies the schema. The advisory lock serializes DDL
// across concurrent processes running bootstrap at the same time.
func MigratePostgres(ctx context.Context, db *sql.DB) error {
	if db == nil {
		return fmt.Errorf("nil database handle")
	}
	if _, err := db.ExecContext(ctx, `SELECT pg_advisory_lock($1)`, int64(73520491118332907)); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		_, _ = db.ExecContext(context.Background(), `SELECT pg_advisory_unlock($1)`, int64(73520491118332907))
	}()

	if _, err := db.ExecContext(ctx, migration0001Up); err != nil {
		return fmt.Errorf("apply migration 0001_init.up.sql: %w", err)
	}
	return nil
}
