package usecase

import (
	"context"
	"fmt"
	"time"

	"rental-booking/internal/data/entity"
	"rental-booking/internal/data/repository"
	"rental-booking/pkg/apperr"
	"rental-booking/pkg/utils"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// Cooldown is a scoped, expiring gate keyed by actor and action.
type Cooldown interface {
	Acquire(ctx context.Context, actor, action string, window time.Duration) (bool, error)
}

func validate(req any) error {
	if errs := utils.ValidateStruct(req); len(errs) > 0 {
		return apperr.Validation(errs)
	}
	return nil
}

func parseID(field, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, apperr.Invalid(field, "Must be a valid UUID")
	}
	return id, nil
}

func parseStayTime(field, value string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, value); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, apperr.Invalid(field, "Must be a date in 2006-01-02 or RFC3339 format")
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// stay is a parsed and unit-normalised [checkIn, checkOut) range.
type stay struct {
	checkIn  time.Time
	checkOut time.Time
}

func (s stay) nights() int {
	hours := s.checkOut.Sub(s.checkIn).Hours()
	n := int(hours / 24)
	if float64(n)*24 < hours {
		n++
	}
	return n
}

// parseStay parses both ends and snaps them to whole days unless the unit is priced by the hour.
func parseStay(unit *entity.RentalUnit, checkIn, checkOut string) (stay, error) {
	in, err := parseStayTime("check_in", checkIn)
	if err != nil {
		return stay{}, err
	}
	out, err := parseStayTime("check_out", checkOut)
	if err != nil {
		return stay{}, err
	}

	if unit.PricingUnit.DayGranular() {
		in, out = startOfDay(in), startOfDay(out)
	}

	if !in.Before(out) {
		return stay{}, apperr.Invalid("check_out", "Check-out must be after check-in")
	}

	return stay{checkIn: in, checkOut: out}, nil
}

func loadUnit(ctx context.Context, repo *repository.Repository, unitID string) (*entity.RentalUnit, error) {
	id, err := parseID("unit_id", unitID)
	if err != nil {
		return nil, err
	}

	unit, err := repo.RentalUnit.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find rental unit %s: %w", unitID, err)
	}
	if unit == nil || unit.Status == entity.RentalUnitStatusDeleted {
		return nil, fmt.Errorf("%w: rental unit %s", apperr.ErrNotFound, unitID)
	}

	return unit, nil
}

func loadBooking(ctx context.Context, repo *repository.Repository, bookingID uuid.UUID) (*entity.Booking, error) {
	booking, err := repo.Booking.FindByID(ctx, bookingID)
	if err != nil {
		return nil, fmt.Errorf("find booking %s: %w", bookingID.String(), err)
	}
	if booking == nil {
		return nil, fmt.Errorf("%w: booking %s", apperr.ErrNotFound, bookingID.String())
	}
	return booking, nil
}
