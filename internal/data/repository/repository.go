package repository

import (
	"rental-booking/pkg/database"

	"go.uber.org/zap"
)

type Repository struct {
	RentalUnit RentalUnitRepository
	Booking    BookingRepository
	PaymentLog PaymentLogRepository
	Session    SessionRepository

	// Tx runs work against a transaction-scoped copy of the repositories above.
	Tx TxRunner
}

func NewRepository(db database.PgxIface, log *zap.Logger, txRetries int) *Repository {
	repo := newRepository(db, log)
	repo.Tx = NewTxRunner(db, log, txRetries)
	return repo
}

func newRepository(q database.Querier, log *zap.Logger) *Repository {
	return &Repository{
		RentalUnit: NewRentalUnitRepository(q, log),
		Booking:    NewBookingRepository(q, log),
		PaymentLog: NewPaymentLogRepository(q, log),
		Session:    NewSessionRepository(q, log),
	}
}
