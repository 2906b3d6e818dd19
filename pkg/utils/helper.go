package utils

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ParseInt converts string to int with default value
func ParseInt(value string, defaultValue int) int {
	if value == "" {
		return defaultValue
	}

	result, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	if result < 1 {
		return defaultValue
	}

	return result
}

// GenerateOrderID builds the provider order id for a booking charge.
// Format: order_<bookingID>_<unix seconds>
func GenerateOrderID(bookingID uuid.UUID, now time.Time) string {
	return fmt.Sprintf("order_%s_%d", bookingID.String(), now.Unix())
}
