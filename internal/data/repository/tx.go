package repository

import (
	"context"
	"errors"
	"fmt"

	"rental-booking/pkg/apperr"
	"rental-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgExclusionViolation   = "23P01"
)

type TxRunner interface {
	// WithinTx runs fn in one SERIALIZABLE transaction and retries it from the
	// start on serialization failures, so fn must not have outside side effects.
	WithinTx(ctx context.Context, fn func(tx *Repository) error) error
}

type txRunner struct {
	db       database.PgxIface
	log      *zap.Logger
	attempts int
}

func NewTxRunner(db database.PgxIface, log *zap.Logger, retries int) TxRunner {
	if retries < 1 {
		retries = 1
	}
	return &txRunner{
		db:       db,
		log:      log.With(zap.String("repository", "tx")),
		attempts: retries,
	}
}

func (r *txRunner) WithinTx(ctx context.Context, fn func(tx *Repository) error) error {
	var lastErr error
	for attempt := 1; attempt <= r.attempts; attempt++ {
		err := r.run(ctx, fn)
		if err == nil {
			return nil
		}
		if !isRetryable(err) {
			return mapPgError(err)
		}

		lastErr = err
		r.log.Warn("Transaction aborted, retrying",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", r.attempts),
			zap.Error(err),
		)
	}

	return fmt.Errorf("%w: gave up after %d attempts: %v", apperr.ErrConflict, r.attempts, lastErr)
}

func (r *txRunner) run(ctx context.Context, fn func(tx *Repository) error) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			r.log.Error("Failed to rollback transaction", zap.Error(rbErr))
		}
	}()

	if err := fn(newRepository(tx, r.log)); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isRetryable(err error) bool {
	code := pgCode(err)
	return code == pgSerializationFailure || code == pgDeadlockDetected
}

// mapPgError turns the overlap constraint into the domain error; everything else passes through.
func mapPgError(err error) error {
	if pgCode(err) == pgExclusionViolation && !errors.Is(err, apperr.ErrDatesUnavailable) {
		return fmt.Errorf("%w: %v", apperr.ErrDatesUnavailable, err)
	}
	return err
}
