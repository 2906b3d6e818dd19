package entity

import (
	"time"

	"github.com/google/uuid"
)

type BookingStatus string

const (
	BookingStatusPendingPayment BookingStatus = "pending_payment"
	BookingStatusPaid           BookingStatus = "paid"
	BookingStatusConfirmed      BookingStatus = "confirmed"
	BookingStatusRejected       BookingStatus = "rejected"
	BookingStatusCancelled      BookingStatus = "cancelled"
	BookingStatusCompleted      BookingStatus = "completed"
)

// ActiveHoldStatuses are the statuses that reserve dates on a unit.
var ActiveHoldStatuses = []BookingStatus{BookingStatusPaid, BookingStatusConfirmed}

func (s BookingStatus) IsActiveHold() bool {
	return s == BookingStatusPaid || s == BookingStatusConfirmed
}

func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingStatusRejected, BookingStatusCancelled, BookingStatusCompleted:
		return true
	}
	return false
}

// DisplayStatus is what clients render; a paid booking is waiting for the host.
func (s BookingStatus) DisplayStatus() string {
	if s == BookingStatusPaid {
		return "pending_approval"
	}
	return string(s)
}

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
	PaymentStatusFailed   PaymentStatus = "failed"
)

type RefundStatus string

const (
	RefundStatusNone       RefundStatus = "none"
	RefundStatusPending    RefundStatus = "pending"
	RefundStatusProcessing RefundStatus = "processing"
	RefundStatusCompleted  RefundStatus = "completed"
	RefundStatusFailed     RefundStatus = "failed"
)

type CancelledBy string

const (
	CancelledByGuest  CancelledBy = "guest"
	CancelledByHost   CancelledBy = "host"
	CancelledBySystem CancelledBy = "system"
)

type Occupancy struct {
	Adults   int `json:"adults"`
	Children int `json:"children"`
	Infants  int `json:"infants"`
}

func (o Occupancy) Total() int {
	return o.Adults + o.Children + o.Infants
}

type NightRate struct {
	Date       time.Time `json:"date"`
	Rate       int64     `json:"rate"`
	SeasonName string    `json:"season_name"`
	Multiplier float64   `json:"multiplier"`
	IsWeekend  bool      `json:"is_weekend"`
}

// PricingSnapshot is frozen at reservation time.
type PricingSnapshot struct {
	NightlyRate        int64       `json:"nightly_rate"`
	Nights             int         `json:"nights"`
	PricingUnit        PricingUnit `json:"pricing_unit"`
	BasePrice          int64       `json:"base_price"`
	AverageMultiplier  float64     `json:"average_multiplier"`
	SeasonalAdjustment int64       `json:"seasonal_adjustment"`
	Subtotal           int64       `json:"subtotal"`
	CleaningFee        int64       `json:"cleaning_fee"`
	ServiceFee         int64       `json:"service_fee"`
	Total              int64       `json:"total"`
	Currency           string      `json:"currency"`
	Breakdown          []NightRate `json:"breakdown"`
}

type Payment struct {
	Provider       string        `db:"payment_provider"`
	OrderID        *string       `db:"payment_order_id"`
	SessionToken   *string       `db:"payment_session_token"`
	Status         PaymentStatus `db:"payment_status"`
	PaidAt         *time.Time    `db:"payment_paid_at"`
	TransactionRef *string       `db:"payment_transaction_ref"`
}

type Cancellation struct {
	CancelledBy  CancelledBy  `db:"cancelled_by"`
	CancelledAt  time.Time    `db:"cancelled_at"`
	Reason       string       `db:"cancel_reason"`
	RefundStatus RefundStatus `db:"refund_status"`
	RefundAmount int64        `db:"refund_amount"`
	RefundRef    *string      `db:"refund_ref"`
}

type Booking struct {
	BaseNoDelete
	RentalUnitID uuid.UUID       `db:"rental_unit_id"`
	GuestID      uuid.UUID       `db:"guest_id"`
	HostID       uuid.UUID       `db:"host_id"`
	CheckIn      time.Time       `db:"check_in"`
	CheckOut     time.Time       `db:"check_out"`
	Occupancy    Occupancy       `db:"-"`
	Pricing      PricingSnapshot `db:"pricing"`
	Status       BookingStatus   `db:"status"`
	Payment      Payment         `db:"-"`
	Cancellation *Cancellation   `db:"-"`
	GuestMessage *string         `db:"guest_message"`
}

// Clone returns a deep copy so a transition can be computed without touching the original.
func (b *Booking) Clone() *Booking {
	c := *b
	c.Pricing.Breakdown = append([]NightRate(nil), b.Pricing.Breakdown...)
	if b.Cancellation != nil {
		cancellation := *b.Cancellation
		c.Cancellation = &cancellation
	}
	return &c
}

// Overlaps is the half-open interval test on [CheckIn, CheckOut).
func (b *Booking) Overlaps(checkIn, checkOut time.Time) bool {
	return b.CheckIn.Before(checkOut) && b.CheckOut.After(checkIn)
}
