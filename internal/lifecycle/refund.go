package lifecycle

import "rental-booking/internal/data/entity"

type RefundNotice struct {
	Key     string `json:"key"`
	Title   string `json:"title"`
	Message string `json:"message"`
}

var refundNotices = map[string]RefundNotice{
	"guest_cancelled": {
		Key:     "guest_cancelled",
		Title:   "Booking Cancelled",
		Message: "Your booking has been cancelled. Your payment will be refunded within 24 working hours.",
	},
	"host_cancelled": {
		Key:     "host_cancelled",
		Title:   "Host Cancelled Booking",
		Message: "The host has cancelled your booking. Your full payment will be refunded within 24 working hours.",
	},
	"host_rejected": {
		Key:     "host_rejected",
		Title:   "Booking Request Declined",
		Message: "The host was unable to accept your booking request. Your payment will be refunded within 24 working hours.",
	},
	"refund_processing": {
		Key:     "refund_processing",
		Title:   "Refund Processing",
		Message: "Your refund is being processed and will be credited to your account within 24 working hours.",
	},
	"refund_completed": {
		Key:     "refund_completed",
		Title:   "Refund Completed",
		Message: "Your refund has been processed successfully.",
	},
}

// NoticeFor picks the refund notice shown to the guest, or nil when there is nothing to say.
func NoticeFor(b *entity.Booking) *RefundNotice {
	c := b.Cancellation
	if c == nil {
		return nil
	}

	var key string
	switch {
	case c.RefundStatus == entity.RefundStatusCompleted:
		key = "refund_completed"
	case c.RefundStatus == entity.RefundStatusProcessing:
		key = "refund_processing"
	case b.Status == entity.BookingStatusRejected:
		key = "host_rejected"
	case c.CancelledBy == entity.CancelledByHost:
		key = "host_cancelled"
	case c.CancelledBy == entity.CancelledByGuest:
		key = "guest_cancelled"
	default:
		return nil
	}

	notice := refundNotices[key]
	return &notice
}
