package sqlutil

import (
	"context"
	"database/sql"
	"fmt"
)

// Run executes fn inside a *sql.Tx.
// If fn returns an error or panics the tx rolls back, else it commits.
// The error returned by fn is passed through unwrapped so callers can match
// sentinels.
func Run[T any](
	ctx context.Context,
	db *sql.DB,
	newQueries func(*sql.Tx) *T,
	fn func(q *T) error,
) error {
	tx, err := db.BeginTx(ctx, nil) // BEGIN
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
	}()

	q := newQueries(tx) // bind queries to this tx
	if err := fn(q); err != nil {
		_ = tx.Rollback() // ROLLBACK
		return err
	}
	if err := tx.Commit(); err != nil { // COMMIT
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
