// Package lifecycle owns booking status transitions. Apply never mutates its
// input; callers persist the returned booking with a compare-and-swap on From.
package lifecycle

import (
	"fmt"
	"time"

	"rental-booking/internal/data/entity"
	"rental-booking/pkg/apperr"

	"github.com/google/uuid"
)

type Event string

const (
	EventSettle   Event = "settle"
	EventAccept   Event = "accept"
	EventReject   Event = "reject"
	EventCancel   Event = "cancel"
	EventComplete Event = "complete"
	EventExpire   Event = "expire"
	EventVoid     Event = "void"

	// EventLateSettle records a charge that settled after its booking had already expired.
	EventLateSettle Event = "late_settle"
)

// UserEvents are the transitions a guest or host may request directly.
var UserEvents = []Event{EventAccept, EventReject, EventCancel}

const (
	DefaultRejectReason = "Host declined the booking"
	ExpireReason        = "Payment window expired"
	VoidReason          = "Dates were booked by another guest before payment settled"
	LateSettleReason    = "Payment arrived after the booking expired"
)

// Actor is whoever drives a transition. System covers the payment callback and scheduled sweeps.
type Actor struct {
	ID     uuid.UUID
	System bool
}

func SystemActor() Actor {
	return Actor{System: true}
}

func UserActor(id uuid.UUID) Actor {
	return Actor{ID: id}
}

type Command struct {
	Event          Event
	Actor          Actor
	Reason         string
	At             time.Time
	TransactionRef string
}

type Outcome struct {
	Booking *entity.Booking
	From    entity.BookingStatus

	// RefundIntent is the amount owed back to the guest, zero when nothing was paid.
	RefundIntent int64
}

type rule struct {
	from      []entity.BookingStatus
	to        entity.BookingStatus
	authorize func(b *entity.Booking, a Actor) (entity.CancelledBy, bool)
	apply     func(b *entity.Booking, cmd Command, by entity.CancelledBy) error
}

var table = map[Event]rule{
	EventSettle: {
		from:      []entity.BookingStatus{entity.BookingStatusPendingPayment},
		to:        entity.BookingStatusPaid,
		authorize: systemOnly,
		apply:     markPaid,
	},
	EventAccept: {
		from:      []entity.BookingStatus{entity.BookingStatusPaid},
		to:        entity.BookingStatusConfirmed,
		authorize: hostOnly,
		apply: func(b *entity.Booking, _ Command, _ entity.CancelledBy) error {
			if b.Payment.Status != entity.PaymentStatusPaid {
				return fmt.Errorf("%w: payment not received", apperr.ErrInvalidTransition)
			}
			return nil
		},
	},
	EventReject: {
		from:      []entity.BookingStatus{entity.BookingStatusPaid},
		to:        entity.BookingStatusRejected,
		authorize: hostOnly,
		apply: func(b *entity.Booking, cmd Command, by entity.CancelledBy) error {
			cancel(b, by, reasonOr(cmd.Reason, DefaultRejectReason), cmd.At)
			return nil
		},
	},
	EventCancel: {
		from:      []entity.BookingStatus{entity.BookingStatusPaid, entity.BookingStatusConfirmed},
		to:        entity.BookingStatusCancelled,
		authorize: guestOrHost,
		apply: func(b *entity.Booking, cmd Command, by entity.CancelledBy) error {
			cancel(b, by, reasonOr(cmd.Reason, "Cancelled by "+string(by)), cmd.At)
			return nil
		},
	},
	EventComplete: {
		from:      []entity.BookingStatus{entity.BookingStatusConfirmed},
		to:        entity.BookingStatusCompleted,
		authorize: systemOnly,
		apply: func(b *entity.Booking, cmd Command, _ entity.CancelledBy) error {
			if !b.CheckOut.Before(cmd.At) {
				return fmt.Errorf("%w: stay has not ended", apperr.ErrInvalidTransition)
			}
			return nil
		},
	},
	EventExpire: {
		from:      []entity.BookingStatus{entity.BookingStatusPendingPayment},
		to:        entity.BookingStatusCancelled,
		authorize: systemOnly,
		apply: func(b *entity.Booking, cmd Command, by entity.CancelledBy) error {
			cancel(b, by, reasonOr(cmd.Reason, ExpireReason), cmd.At)
			return nil
		},
	},
	// Void is settlement that lost the race for its dates: the money arrived, the hold did not.
	EventVoid: {
		from:      []entity.BookingStatus{entity.BookingStatusPendingPayment},
		to:        entity.BookingStatusCancelled,
		authorize: systemOnly,
		apply: func(b *entity.Booking, cmd Command, by entity.CancelledBy) error {
			if err := markPaid(b, cmd, by); err != nil {
				return err
			}
			cancel(b, by, reasonOr(cmd.Reason, VoidReason), cmd.At)
			return nil
		},
	},
	// LateSettle keeps an expired booking cancelled and owes the guest the whole charge.
	EventLateSettle: {
		from:      []entity.BookingStatus{entity.BookingStatusCancelled},
		to:        entity.BookingStatusCancelled,
		authorize: systemOnly,
		apply: func(b *entity.Booking, cmd Command, by entity.CancelledBy) error {
			if b.Payment.Status == entity.PaymentStatusPaid {
				return fmt.Errorf("%w: payment already recorded", apperr.ErrInvalidTransition)
			}
			if b.Cancellation == nil || b.Cancellation.CancelledBy != entity.CancelledBySystem {
				return fmt.Errorf("%w: only an expired booking can settle late", apperr.ErrInvalidTransition)
			}
			if err := markPaid(b, cmd, by); err != nil {
				return err
			}
			b.Cancellation.Reason = reasonOr(cmd.Reason, LateSettleReason)
			b.Cancellation.RefundStatus = entity.RefundStatusPending
			b.Cancellation.RefundAmount = b.Pricing.Total
			return nil
		},
	},
}

// Apply validates cmd against the transition table and returns the next booking state.
// Authorization is checked before the source state so strangers learn nothing about a booking.
func Apply(b *entity.Booking, cmd Command) (*Outcome, error) {
	r, ok := table[cmd.Event]
	if !ok {
		return nil, apperr.Invalid("event", fmt.Sprintf("unknown event %q", cmd.Event))
	}

	by, ok := r.authorize(b, cmd.Actor)
	if !ok {
		return nil, fmt.Errorf("%w: %s not permitted for this actor", apperr.ErrUnauthorized, cmd.Event)
	}

	if !contains(r.from, b.Status) {
		return nil, fmt.Errorf("%w: cannot %s a %s booking", apperr.ErrInvalidTransition, cmd.Event, b.Status)
	}

	if cmd.At.IsZero() {
		cmd.At = time.Now().UTC()
	}

	next := b.Clone()
	if err := r.apply(next, cmd, by); err != nil {
		return nil, err
	}
	next.Status = r.to
	next.UpdatedAt = cmd.At

	outcome := &Outcome{Booking: next, From: b.Status}
	if next.Cancellation != nil {
		outcome.RefundIntent = next.Cancellation.RefundAmount
	}
	return outcome, nil
}

// CanApply reports whether Apply would accept the event, without building the outcome.
func CanApply(b *entity.Booking, event Event, actor Actor) bool {
	r, ok := table[event]
	if !ok {
		return false
	}
	if _, ok := r.authorize(b, actor); !ok {
		return false
	}
	return contains(r.from, b.Status)
}

// AllowedEvents lists the user events actor may currently trigger on b.
func AllowedEvents(b *entity.Booking, actor Actor) []Event {
	events := []Event{}
	for _, e := range UserEvents {
		if CanApply(b, e, actor) {
			events = append(events, e)
		}
	}
	return events
}

func ParseUserEvent(s string) (Event, bool) {
	for _, e := range UserEvents {
		if string(e) == s {
			return e, true
		}
	}
	return "", false
}

func systemOnly(_ *entity.Booking, a Actor) (entity.CancelledBy, bool) {
	return entity.CancelledBySystem, a.System
}

func hostOnly(b *entity.Booking, a Actor) (entity.CancelledBy, bool) {
	return entity.CancelledByHost, !a.System && a.ID == b.HostID
}

func guestOrHost(b *entity.Booking, a Actor) (entity.CancelledBy, bool) {
	switch {
	case a.System:
		return "", false
	case a.ID == b.GuestID:
		return entity.CancelledByGuest, true
	case a.ID == b.HostID:
		return entity.CancelledByHost, true
	}
	return "", false
}

func markPaid(b *entity.Booking, cmd Command, _ entity.CancelledBy) error {
	b.Payment.Status = entity.PaymentStatusPaid
	paidAt := cmd.At
	b.Payment.PaidAt = &paidAt
	if cmd.TransactionRef != "" {
		ref := cmd.TransactionRef
		b.Payment.TransactionRef = &ref
	}
	return nil
}

func cancel(b *entity.Booking, by entity.CancelledBy, reason string, at time.Time) {
	c := &entity.Cancellation{
		CancelledBy:  by,
		CancelledAt:  at,
		Reason:       reason,
		RefundStatus: entity.RefundStatusNone,
	}
	if b.Payment.Status == entity.PaymentStatusPaid {
		c.RefundStatus = entity.RefundStatusPending
		c.RefundAmount = b.Pricing.Total
	}
	b.Cancellation = c
}

func reasonOr(reason, fallback string) string {
	if reason == "" {
		return fallback
	}
	return reason
}

func contains(statuses []entity.BookingStatus, s entity.BookingStatus) bool {
	for _, status := range statuses {
		if status == s {
			return true
		}
	}
	return false
}
