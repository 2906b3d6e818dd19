// Package availability answers whether a stay fits between a unit's active holds.
// Callers load the holds; everything here is pure.
package availability

import (
	"sort"
	"time"

	"rental-booking/internal/data/entity"

	"github.com/google/uuid"
)

// Conflict is an active hold that intersects a requested stay.
type Conflict struct {
	BookingID uuid.UUID            `json:"booking_id"`
	CheckIn   time.Time            `json:"check_in"`
	CheckOut  time.Time            `json:"check_out"`
	Status    entity.BookingStatus `json:"status"`
}

type Report struct {
	Available bool       `json:"available"`
	Conflicts []Conflict `json:"conflicts"`
}

// Overlaps is the half-open test: a checkout on D never collides with a check-in on D.
func Overlaps(aIn, aOut, bIn, bOut time.Time) bool {
	return aIn.Before(bOut) && aOut.After(bIn)
}

// FindConflicts returns the active holds overlapping [checkIn, checkOut).
// Bookings that are not active holds are ignored, as is exclude when set.
func FindConflicts(bookings []*entity.Booking, checkIn, checkOut time.Time, exclude *uuid.UUID) []Conflict {
	conflicts := []Conflict{}
	for _, b := range bookings {
		if !b.Status.IsActiveHold() {
			continue
		}
		if exclude != nil && b.ID == *exclude {
			continue
		}
		if !Overlaps(checkIn, checkOut, b.CheckIn, b.CheckOut) {
			continue
		}
		conflicts = append(conflicts, Conflict{
			BookingID: b.ID,
			CheckIn:   b.CheckIn,
			CheckOut:  b.CheckOut,
			Status:    b.Status,
		})
	}
	return conflicts
}

func Check(bookings []*entity.Booking, checkIn, checkOut time.Time, exclude *uuid.UUID) Report {
	conflicts := FindConflicts(bookings, checkIn, checkOut, exclude)
	return Report{Available: len(conflicts) == 0, Conflicts: conflicts}
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// sortedHolds copies the active holds ordered by check-in.
func sortedHolds(bookings []*entity.Booking) []*entity.Booking {
	holds := make([]*entity.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b.Status.IsActiveHold() {
			holds = append(holds, b)
		}
	}
	sort.Slice(holds, func(i, j int) bool {
		return holds[i].CheckIn.Before(holds[j].CheckIn)
	})
	return holds
}
