package usecase

import (
	"context"
	"fmt"
	"time"

	"rental-booking/internal/availability"
	"rental-booking/internal/data/entity"
	"rental-booking/internal/data/repository"
	"rental-booking/internal/dto/request"
	"rental-booking/internal/dto/response"
	"rental-booking/internal/lifecycle"
	"rental-booking/internal/pricing"
	"rental-booking/pkg/apperr"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultMaxOccupancy      = 4
	defaultMinStay           = 1
	defaultCalendarMonths    = 3
	defaultCalendarMaxMonths = 12
	defaultRangeDaysAhead    = 90
	maxRangeDaysAhead        = 366
)

type BookingService interface {
	CheckAvailability(ctx context.Context, unitID string, req *request.StayRequest) (*response.AvailabilityResponse, error)
	QuotePrice(ctx context.Context, unitID string, req *request.QuoteRequest) (*response.QuoteResponse, error)
	Reserve(ctx context.Context, unitID, guestID string, req *request.CreateBookingRequest) (*response.BookingResponse, error)
	Transition(ctx context.Context, bookingID, actorID string, req *request.TransitionRequest) (*response.BookingResponse, error)
	GetCalendar(ctx context.Context, unitID string, months int) (*response.CalendarResponse, error)
	GetAvailableRanges(ctx context.Context, unitID string, daysAhead int) (*response.AvailableRangesResponse, error)

	GetBooking(ctx context.Context, bookingID, actorID string) (*response.BookingResponse, error)
	ListBookings(ctx context.Context, actorID string, req *request.ListBookingsRequest) (*response.PaginatedResponse[response.BookingResponse], error)
}

type bookingService struct {
	repo      *repository.Repository
	fees      pricing.FeePolicy
	provider  string
	maxMonths int
	refunds   *refunder
	log       *zap.Logger
	now       func() time.Time
}

func NewBookingService(repo *repository.Repository, fees pricing.FeePolicy, provider string, maxMonths int, refunds *refunder, log *zap.Logger) BookingService {
	if maxMonths <= 0 {
		maxMonths = defaultCalendarMaxMonths
	}
	return &bookingService{
		repo:      repo,
		fees:      fees,
		provider:  provider,
		maxMonths: maxMonths,
		refunds:   refunds,
		log:       log.With(zap.String("service", "booking")),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *bookingService) CheckAvailability(ctx context.Context, unitID string, req *request.StayRequest) (*response.AvailabilityResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	unit, err := loadUnit(ctx, s.repo, unitID)
	if err != nil {
		return nil, err
	}

	st, err := parseStay(unit, req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}
	if err := s.checkNotPast(unit, st); err != nil {
		return nil, err
	}

	holds, err := s.repo.Booking.FindActiveHolds(ctx, unit.ID, st.checkIn, st.checkOut, nil)
	if err != nil {
		return nil, fmt.Errorf("check availability of unit %s: %w", unitID, err)
	}

	report := availability.Check(holds, st.checkIn, st.checkOut, nil)

	return &response.AvailabilityResponse{
		RentalUnitID: unit.ID.String(),
		CheckIn:      st.checkIn,
		CheckOut:     st.checkOut,
		Available:    report.Available,
		Conflicts:    report.Conflicts,
	}, nil
}

func (s *bookingService) QuotePrice(ctx context.Context, unitID string, req *request.QuoteRequest) (*response.QuoteResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	unit, err := loadUnit(ctx, s.repo, unitID)
	if err != nil {
		return nil, err
	}

	st, err := parseStay(unit, req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	occupancy := entity.Occupancy{Adults: req.Adults, Children: req.Children, Infants: req.Infants}
	if err := s.checkStay(unit, st, occupancy); err != nil {
		return nil, err
	}

	snapshot, err := s.fees.Snapshot(unit, st.checkIn, st.checkOut)
	if err != nil {
		return nil, apperr.Invalid("check_out", err.Error())
	}

	holds, err := s.repo.Booking.FindActiveHolds(ctx, unit.ID, st.checkIn, st.checkOut, nil)
	if err != nil {
		return nil, fmt.Errorf("quote unit %s: %w", unitID, err)
	}

	return &response.QuoteResponse{
		RentalUnitID: unit.ID.String(),
		CheckIn:      st.checkIn,
		CheckOut:     st.checkOut,
		Guests:       occupancy.Total(),
		Available:    len(availability.FindConflicts(holds, st.checkIn, st.checkOut, nil)) == 0,
		Pricing:      *snapshot,
	}, nil
}

// Reserve validates the request, then checks conflicts, prices and inserts the
// booking inside one serializable transaction holding the unit's row lock.
func (s *bookingService) Reserve(ctx context.Context, unitID, guestID string, req *request.CreateBookingRequest) (*response.BookingResponse, error) {
	guestUUID, err := parseID("guest_id", guestID)
	if err != nil {
		return nil, err
	}

	if err := validate(req); err != nil {
		s.log.Warn("Reserve validation failed", zap.Error(err))
		return nil, err
	}

	unit, err := loadUnit(ctx, s.repo, unitID)
	if err != nil {
		return nil, err
	}
	if !unit.IsBookable() {
		return nil, apperr.Invalid("unit_id", "Rental unit is not accepting bookings")
	}

	st, err := parseStay(unit, req.CheckIn, req.CheckOut)
	if err != nil {
		return nil, err
	}

	occupancy := entity.Occupancy{Adults: req.Adults, Children: req.Children, Infants: req.Infants}
	if err := s.checkStay(unit, st, occupancy); err != nil {
		return nil, err
	}

	bookingID := uuid.New()
	var booking *entity.Booking

	err = s.repo.Tx.WithinTx(ctx, func(tx *repository.Repository) error {
		locked, err := tx.RentalUnit.LockByID(ctx, unit.ID)
		if err != nil {
			return err
		}
		if locked == nil || !locked.IsBookable() {
			return apperr.Invalid("unit_id", "Rental unit is not accepting bookings")
		}

		holds, err := tx.Booking.FindActiveHolds(ctx, locked.ID, st.checkIn, st.checkOut, nil)
		if err != nil {
			return err
		}
		if conflicts := availability.FindConflicts(holds, st.checkIn, st.checkOut, nil); len(conflicts) > 0 {
			return fmt.Errorf("%w: %d overlapping booking(s)", apperr.ErrDatesUnavailable, len(conflicts))
		}

		snapshot, err := s.fees.Snapshot(locked, st.checkIn, st.checkOut)
		if err != nil {
			return apperr.Invalid("check_out", err.Error())
		}

		now := s.now()
		booking = &entity.Booking{
			BaseNoDelete: entity.BaseNoDelete{
				ID:        bookingID,
				CreatedAt: now,
				UpdatedAt: now,
			},
			RentalUnitID: locked.ID,
			GuestID:      guestUUID,
			HostID:       locked.OwnerID,
			CheckIn:      st.checkIn,
			CheckOut:     st.checkOut,
			Occupancy:    occupancy,
			Pricing:      *snapshot,
			Status:       entity.BookingStatusPendingPayment,
			Payment: entity.Payment{
				Provider: s.provider,
				Status:   entity.PaymentStatusPending,
			},
			GuestMessage: req.Message,
		}

		return tx.Booking.Create(ctx, booking)
	})
	if err != nil {
		s.log.Warn("Reserve failed",
			zap.Error(err),
			zap.String("rental_unit_id", unitID),
			zap.String("guest_id", guestID),
		)
		return nil, err
	}

	s.log.Info("Booking reserved",
		zap.String("booking_id", booking.ID.String()),
		zap.String("rental_unit_id", booking.RentalUnitID.String()),
		zap.String("guest_id", guestID),
		zap.Time("check_in", booking.CheckIn),
		zap.Time("check_out", booking.CheckOut),
		zap.Int64("total", booking.Pricing.Total),
	)

	resp := response.BookingToResponse(booking, guestUUID)
	return &resp, nil
}

// Transition applies a guest or host event with a compare-and-swap on the status it was computed from.
func (s *bookingService) Transition(ctx context.Context, bookingID, actorID string, req *request.TransitionRequest) (*response.BookingResponse, error) {
	id, err := parseID("booking_id", bookingID)
	if err != nil {
		return nil, err
	}
	actor, err := parseID("actor_id", actorID)
	if err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	event, ok := lifecycle.ParseUserEvent(req.Event)
	if !ok {
		return nil, apperr.Invalid("event", "Must be one of: accept, reject, cancel")
	}

	booking, err := loadBooking(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}

	outcome, err := lifecycle.Apply(booking, lifecycle.Command{
		Event:  event,
		Actor:  lifecycle.UserActor(actor),
		Reason: req.Reason,
		At:     s.now(),
	})
	if err != nil {
		s.log.Warn("Transition rejected",
			zap.Error(err),
			zap.String("booking_id", bookingID),
			zap.String("event", string(event)),
			zap.String("status", string(booking.Status)),
		)
		return nil, err
	}

	if err := s.repo.Booking.Update(ctx, outcome.Booking, outcome.From); err != nil {
		return nil, err
	}

	s.log.Info("Booking transitioned",
		zap.String("booking_id", bookingID),
		zap.String("event", string(event)),
		zap.String("from", string(outcome.From)),
		zap.String("to", string(outcome.Booking.Status)),
		zap.Int64("refund_intent", outcome.RefundIntent),
	)

	next := outcome.Booking
	if outcome.RefundIntent > 0 {
		// The cancellation is already committed; an unclaimed refund stays open for RetryRefund.
		next, _ = s.refunds.initiate(ctx, next)
	}

	resp := response.BookingToResponse(next, actor)
	return &resp, nil
}

func (s *bookingService) GetCalendar(ctx context.Context, unitID string, months int) (*response.CalendarResponse, error) {
	if months <= 0 {
		months = defaultCalendarMonths
	}
	if months > s.maxMonths {
		return nil, apperr.Invalid("months", fmt.Sprintf("Maximum value is %d", s.maxMonths))
	}

	unit, err := loadUnit(ctx, s.repo, unitID)
	if err != nil {
		return nil, err
	}

	today := startOfDay(s.now())
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	holds, err := s.repo.Booking.FindActiveHolds(ctx, unit.ID, first, first.AddDate(0, months, 0), nil)
	if err != nil {
		return nil, fmt.Errorf("calendar of unit %s: %w", unitID, err)
	}

	return &response.CalendarResponse{
		RentalUnitID: unit.ID.String(),
		Months:       availability.Calendar(holds, today, months),
	}, nil
}

func (s *bookingService) GetAvailableRanges(ctx context.Context, unitID string, daysAhead int) (*response.AvailableRangesResponse, error) {
	if daysAhead <= 0 {
		daysAhead = defaultRangeDaysAhead
	}
	if daysAhead > maxRangeDaysAhead {
		return nil, apperr.Invalid("days", fmt.Sprintf("Maximum value is %d", maxRangeDaysAhead))
	}

	unit, err := loadUnit(ctx, s.repo, unitID)
	if err != nil {
		return nil, err
	}

	today := startOfDay(s.now())

	holds, err := s.repo.Booking.FindActiveHolds(ctx, unit.ID, today, today.AddDate(0, 0, daysAhead), nil)
	if err != nil {
		return nil, fmt.Errorf("available ranges of unit %s: %w", unitID, err)
	}

	return &response.AvailableRangesResponse{
		RentalUnitID: unit.ID.String(),
		DaysAhead:    daysAhead,
		Ranges:       availability.AvailableRanges(holds, today, daysAhead),
	}, nil
}

func (s *bookingService) GetBooking(ctx context.Context, bookingID, actorID string) (*response.BookingResponse, error) {
	id, err := parseID("booking_id", bookingID)
	if err != nil {
		return nil, err
	}
	actor, err := parseID("actor_id", actorID)
	if err != nil {
		return nil, err
	}

	booking, err := loadBooking(ctx, s.repo, id)
	if err != nil {
		return nil, err
	}

	if booking.GuestID != actor && booking.HostID != actor {
		return nil, fmt.Errorf("%w: booking %s", apperr.ErrUnauthorized, bookingID)
	}

	resp := response.BookingToResponse(booking, actor)
	return &resp, nil
}

func (s *bookingService) ListBookings(ctx context.Context, actorID string, req *request.ListBookingsRequest) (*response.PaginatedResponse[response.BookingResponse], error) {
	actor, err := parseID("actor_id", actorID)
	if err != nil {
		return nil, err
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	limit := req.Limit()
	offset := req.Offset()

	var (
		bookings []*entity.Booking
		total    int64
	)
	if req.Role == "host" {
		bookings, err = s.repo.Booking.FindByHostID(ctx, actor, limit, offset)
		if err == nil {
			total, err = s.repo.Booking.CountByHostID(ctx, actor)
		}
	} else {
		bookings, err = s.repo.Booking.FindByGuestID(ctx, actor, limit, offset)
		if err == nil {
			total, err = s.repo.Booking.CountByGuestID(ctx, actor)
		}
	}
	if err != nil {
		s.log.Error("Failed to list bookings",
			zap.Error(err),
			zap.String("actor_id", actorID),
			zap.String("role", req.Role),
		)
		return nil, fmt.Errorf("list bookings: %w", err)
	}

	data := make([]response.BookingResponse, len(bookings))
	for i, b := range bookings {
		data[i] = response.BookingToResponse(b, actor)
	}

	return response.NewPaginatedResponse(data, req.Page, limit, total), nil
}

func (s *bookingService) checkNotPast(unit *entity.RentalUnit, st stay) error {
	earliest := s.now()
	if unit.PricingUnit.DayGranular() {
		earliest = startOfDay(earliest)
	}
	if st.checkIn.Before(earliest) {
		return apperr.Invalid("check_in", "Cannot book dates in the past")
	}
	return nil
}

// checkStay enforces the unit's stay policy. Zero-valued policy fields fall back to defaults.
func (s *bookingService) checkStay(unit *entity.RentalUnit, st stay, occupancy entity.Occupancy) error {
	if err := s.checkNotPast(unit, st); err != nil {
		return err
	}

	maxOccupancy := unit.MaxOccupancy
	if maxOccupancy <= 0 {
		maxOccupancy = defaultMaxOccupancy
	}
	if occupancy.Total() > maxOccupancy {
		return apperr.Invalid("adults", fmt.Sprintf("Maximum %d guests allowed", maxOccupancy))
	}

	nights := st.nights()
	minStay := unit.MinStay
	if minStay <= 0 {
		minStay = defaultMinStay
	}
	if nights < minStay {
		return apperr.Invalid("check_out", fmt.Sprintf("Minimum stay is %d nights", minStay))
	}
	if unit.MaxStay > 0 && nights > unit.MaxStay {
		return apperr.Invalid("check_out", fmt.Sprintf("Maximum stay is %d nights", unit.MaxStay))
	}

	return nil
}
