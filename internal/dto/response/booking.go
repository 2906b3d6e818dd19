package response

import (
	"time"

	"rental-booking/internal/availability"
	"rental-booking/internal/data/entity"
	"rental-booking/internal/lifecycle"

	"github.com/google/uuid"
)

type BookingResponse struct {
	ID             string                  `json:"id"`
	RentalUnitID   string                  `json:"rental_unit_id"`
	GuestID        string                  `json:"guest_id"`
	HostID         string                  `json:"host_id"`
	CheckIn        time.Time               `json:"check_in"`
	CheckOut       time.Time               `json:"check_out"`
	Occupancy      entity.Occupancy        `json:"occupancy"`
	Status         string                  `json:"status"`
	StoredStatus   entity.BookingStatus    `json:"stored_status"`
	Pricing        entity.PricingSnapshot  `json:"pricing"`
	Payment        PaymentResponse         `json:"payment"`
	Cancellation   *CancellationResponse   `json:"cancellation,omitempty"`
	RefundNotice   *lifecycle.RefundNotice `json:"refund_notice,omitempty"`
	GuestMessage   *string                 `json:"guest_message,omitempty"`
	AllowedActions []string                `json:"allowed_actions"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
}

type PaymentResponse struct {
	Provider       string               `json:"provider"`
	OrderID        *string              `json:"order_id,omitempty"`
	Status         entity.PaymentStatus `json:"status"`
	PaidAt         *time.Time           `json:"paid_at,omitempty"`
	TransactionRef *string              `json:"transaction_ref,omitempty"`
}

type CancellationResponse struct {
	CancelledBy  entity.CancelledBy  `json:"cancelled_by"`
	CancelledAt  time.Time           `json:"cancelled_at"`
	Reason       string              `json:"reason"`
	RefundStatus entity.RefundStatus `json:"refund_status"`
	RefundAmount int64               `json:"refund_amount"`
	RefundRef    *string             `json:"refund_ref,omitempty"`
}

type QuoteResponse struct {
	RentalUnitID string                 `json:"rental_unit_id"`
	CheckIn      time.Time              `json:"check_in"`
	CheckOut     time.Time              `json:"check_out"`
	Guests       int                    `json:"guests"`
	Available    bool                   `json:"available"`
	Pricing      entity.PricingSnapshot `json:"pricing"`
}

type AvailabilityResponse struct {
	RentalUnitID string                  `json:"rental_unit_id"`
	CheckIn      time.Time               `json:"check_in"`
	CheckOut     time.Time               `json:"check_out"`
	Available    bool                    `json:"available"`
	Conflicts    []availability.Conflict `json:"conflicts"`
}

type CalendarResponse struct {
	RentalUnitID string                       `json:"rental_unit_id"`
	Months       []availability.CalendarMonth `json:"months"`
}

type AvailableRangesResponse struct {
	RentalUnitID string               `json:"rental_unit_id"`
	DaysAhead    int                  `json:"days_ahead"`
	Ranges       []availability.Range `json:"ranges"`
}

type PaymentSessionResponse struct {
	BookingID    string `json:"booking_id"`
	Provider     string `json:"provider"`
	OrderID      string `json:"order_id"`
	SessionToken string `json:"session_token"`
	Amount       int64  `json:"amount"`
	Currency     string `json:"currency"`
	Reused       bool   `json:"reused"`
}

type SweepResponse struct {
	Completed int `json:"completed"`
	Expired   int `json:"expired"`
}

// BookingToResponse renders b for viewer; allowed actions depend on who is looking.
func BookingToResponse(b *entity.Booking, viewer uuid.UUID) BookingResponse {
	actions := []string{}
	if viewer != uuid.Nil {
		for _, e := range lifecycle.AllowedEvents(b, lifecycle.UserActor(viewer)) {
			actions = append(actions, string(e))
		}
	}

	resp := BookingResponse{
		ID:           b.ID.String(),
		RentalUnitID: b.RentalUnitID.String(),
		GuestID:      b.GuestID.String(),
		HostID:       b.HostID.String(),
		CheckIn:      b.CheckIn,
		CheckOut:     b.CheckOut,
		Occupancy:    b.Occupancy,
		Status:       b.Status.DisplayStatus(),
		StoredStatus: b.Status,
		Pricing:      b.Pricing,
		Payment: PaymentResponse{
			Provider:       b.Payment.Provider,
			OrderID:        b.Payment.OrderID,
			Status:         b.Payment.Status,
			PaidAt:         b.Payment.PaidAt,
			TransactionRef: b.Payment.TransactionRef,
		},
		RefundNotice:   lifecycle.NoticeFor(b),
		GuestMessage:   b.GuestMessage,
		AllowedActions: actions,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}

	if c := b.Cancellation; c != nil {
		resp.Cancellation = &CancellationResponse{
			CancelledBy:  c.CancelledBy,
			CancelledAt:  c.CancelledAt,
			Reason:       c.Reason,
			RefundStatus: c.RefundStatus,
			RefundAmount: c.RefundAmount,
			RefundRef:    c.RefundRef,
		}
	}

	return resp
}
