package repository

import (
	"context"
	"errors"
	"fmt"

	"rental-booking/internal/data/entity"
	"rental-booking/pkg/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type RentalUnitRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.RentalUnit, error)
	// LockByID takes the row lock that serialises every hold-changing write on the unit.
	LockByID(ctx context.Context, id uuid.UUID) (*entity.RentalUnit, error)
}

type rentalUnitRepository struct {
	db  database.Querier
	log *zap.Logger
}

func NewRentalUnitRepository(db database.Querier, log *zap.Logger) RentalUnitRepository {
	return &rentalUnitRepository{
		db:  db,
		log: log.With(zap.String("repository", "rental_unit")),
	}
}

const rentalUnitColumns = `id, owner_id, title, base_rate, pricing_unit, min_stay, max_stay,
		       max_occupancy, status, created_at, updated_at`

func (r *rentalUnitRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.RentalUnit, error) {
	query := `SELECT ` + rentalUnitColumns + ` FROM rental_units WHERE id = $1`
	return r.findOne(ctx, "find rental unit", query, id)
}

func (r *rentalUnitRepository) LockByID(ctx context.Context, id uuid.UUID) (*entity.RentalUnit, error) {
	query := `SELECT ` + rentalUnitColumns + ` FROM rental_units WHERE id = $1 FOR UPDATE`
	return r.findOne(ctx, "lock rental unit", query, id)
}

func (r *rentalUnitRepository) findOne(ctx context.Context, op, query string, id uuid.UUID) (*entity.RentalUnit, error) {
	var unit entity.RentalUnit
	err := r.db.QueryRow(ctx, query, id).Scan(
		&unit.ID,
		&unit.OwnerID,
		&unit.Title,
		&unit.BaseRate,
		&unit.PricingUnit,
		&unit.MinStay,
		&unit.MaxStay,
		&unit.MaxOccupancy,
		&unit.Status,
		&unit.CreatedAt,
		&unit.UpdatedAt,
	)

	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		r.log.Error("Failed to "+op,
			zap.Error(err),
			zap.String("rental_unit_id", id.String()),
		)
		return nil, fmt.Errorf("%s %s: %w", op, id.String(), err)
	}

	return &unit, nil
}
