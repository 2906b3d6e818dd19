package repository

import (
	"context"
	"errors"
	"testing"

	"rental-booking/pkg/apperr"
	"rental-booking/pkg/database"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
	commitErr  error
}

func (t *fakeTx) Commit(context.Context) error {
	if t.commitErr != nil {
		return t.commitErr
	}
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if t.committed {
		return pgx.ErrTxClosed
	}
	t.rolledBack = true
	return nil
}

type fakeDB struct {
	database.PgxIface
	txs  []*fakeTx
	opts []pgx.TxOptions
}

func (db *fakeDB) BeginTx(_ context.Context, opts pgx.TxOptions) (pgx.Tx, error) {
	tx := &fakeTx{}
	db.txs = append(db.txs, tx)
	db.opts = append(db.opts, opts)
	return tx, nil
}

func pgErr(code string) error {
	return &pgconn.PgError{Code: code, Message: "boom"}
}

func TestWithinTx_CommitsOnSuccess(t *testing.T) {
	db := &fakeDB{}
	runner := NewTxRunner(db, zap.NewNop(), 3)

	var got *Repository
	err := runner.WithinTx(context.Background(), func(tx *Repository) error {
		got = tx
		return nil
	})
	require.NoError(t, err)

	require.Len(t, db.txs, 1)
	assert.True(t, db.txs[0].committed)
	assert.Equal(t, pgx.Serializable, db.opts[0].IsoLevel)
	require.NotNil(t, got)
	assert.NotNil(t, got.Booking)
	assert.NotNil(t, got.RentalUnit)
	assert.Nil(t, got.Tx)
}

func TestWithinTx_RetriesSerializationFailures(t *testing.T) {
	db := &fakeDB{}
	runner := NewTxRunner(db, zap.NewNop(), 3)

	calls := 0
	err := runner.WithinTx(context.Background(), func(tx *Repository) error {
		calls++
		switch calls {
		case 1:
			return pgErr(pgSerializationFailure)
		case 2:
			return pgErr(pgDeadlockDetected)
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, 3, calls)
	require.Len(t, db.txs, 3)
	assert.True(t, db.txs[0].rolledBack)
	assert.True(t, db.txs[1].rolledBack)
	assert.True(t, db.txs[2].committed)
}

func TestWithinTx_RetriesFailedCommit(t *testing.T) {
	db := &fakeDB{}
	runner := NewTxRunner(db, zap.NewNop(), 2)

	calls := 0
	err := runner.WithinTx(context.Background(), func(tx *Repository) error {
		calls++
		if calls == 1 {
			db.txs[0].commitErr = pgErr(pgSerializationFailure)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestWithinTx_GivesUpAsConflict(t *testing.T) {
	db := &fakeDB{}
	runner := NewTxRunner(db, zap.NewNop(), 2)

	err := runner.WithinTx(context.Background(), func(tx *Repository) error {
		return pgErr(pgSerializationFailure)
	})
	assert.ErrorIs(t, err, apperr.ErrConflict)
	assert.Len(t, db.txs, 2)
}

func TestWithinTx_DoesNotRetryDomainErrors(t *testing.T) {
	db := &fakeDB{}
	runner := NewTxRunner(db, zap.NewNop(), 3)

	err := runner.WithinTx(context.Background(), func(tx *Repository) error {
		return apperr.ErrDatesUnavailable
	})
	assert.ErrorIs(t, err, apperr.ErrDatesUnavailable)
	assert.Len(t, db.txs, 1)
	assert.True(t, db.txs[0].rolledBack)
}

func TestWithinTx_MapsExclusionViolation(t *testing.T) {
	db := &fakeDB{}
	runner := NewTxRunner(db, zap.NewNop(), 3)

	err := runner.WithinTx(context.Background(), func(tx *Repository) error {
		return pgErr(pgExclusionViolation)
	})
	assert.ErrorIs(t, err, apperr.ErrDatesUnavailable)

	var pe *pgconn.PgError
	assert.False(t, errors.As(err, &pe), "the driver error is flattened into the message")
}

func TestCancellationArgs(t *testing.T) {
	by, at, reason, status, amount, ref := cancellationArgs(nil)
	assert.Nil(t, by)
	assert.Nil(t, at)
	assert.Nil(t, reason)
	assert.Nil(t, status)
	assert.Nil(t, amount)
	assert.Nil(t, ref)
}
