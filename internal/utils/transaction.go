package utils

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"

	"contacts-server/internal/interfaces"
	"contacts-server/internal/schemas"
)

var errMissingPayload = errors.New("sanitized payload missing from context")

// BeginTransaction begins a new database transaction on the request context.
// If the transaction fails to begin, it logs and sends an error response and
// returns nil.
func BeginTransaction(ctx *gin.Context, pool interfaces.PgxPoolIface) pgx.Tx {
	LogMessageWithFields(ctx, "debug", "Beginning transaction...")

	tx, err := pool.Begin(ctx)
	if err != nil {
		WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return nil
	}

	return tx
}

// RollbackTransaction rolls back the given transaction. Rolling back a
// transaction that was already committed is a no-op, so deferring this after
// BeginTransaction is always safe.
func RollbackTransaction(ctx *gin.Context, tx pgx.Tx) {
	if err := tx.Rollback(ctx); err != nil {
		if errors.Is(err, pgx.ErrTxClosed) {
			return
		}
		LogMessageWithFieldsAndError(ctx, "error", "Error rolling back transaction", err)
		return
	}

	LogMessageWithFields(ctx, "debug", "Transaction rolled back")
}

// CommitTransaction attempts to commit the given transaction. If the commit
// fails, it logs the error, sends an error response, and returns the error.
func CommitTransaction(ctx *gin.Context, tx pgx.Tx) error {
	LogMessageWithFields(ctx, "debug", "Committing transaction...")

	if err := tx.Commit(ctx); err != nil {
		WriteAndLogError(ctx, schemas.DatabaseError, http.StatusInternalServerError, err)
		return err
	}

	LogMessageWithFields(ctx, "debug", "Transaction committed")
	return nil
}
