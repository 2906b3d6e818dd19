package request

// Dates are "2006-01-02" or RFC3339; hour-priced units keep the time of day.

type StayRequest struct {
	CheckIn  string `json:"check_in" validate:"required"`
	CheckOut string `json:"check_out" validate:"required"`
}

type QuoteRequest struct {
	StayRequest
	Adults   int `json:"adults" validate:"min=0,max=50"`
	Children int `json:"children" validate:"min=0,max=50"`
	Infants  int `json:"infants" validate:"min=0,max=50"`
}

type CreateBookingRequest struct {
	CheckIn  string  `json:"check_in" validate:"required"`
	CheckOut string  `json:"check_out" validate:"required"`
	Adults   int     `json:"adults" validate:"required,min=1,max=50"`
	Children int     `json:"children" validate:"min=0,max=50"`
	Infants  int     `json:"infants" validate:"min=0,max=50"`
	Message  *string `json:"message,omitempty" validate:"omitempty,max=1000"`
}

type TransitionRequest struct {
	Event  string `json:"event" validate:"required,oneof=accept reject cancel"`
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type PaymentReturnRequest struct {
	OrderID   string `json:"order_id" validate:"required"`
	BookingID string `json:"booking_id" validate:"required,uuid"`
}

type ListBookingsRequest struct {
	PaginatedRequest
	Role string `json:"role" validate:"omitempty,oneof=guest host"`
}
