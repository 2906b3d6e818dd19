package availability

import (
	"time"

	"rental-booking/internal/data/entity"
)

type CalendarDay struct {
	Date      time.Time `json:"date"`
	Day       int       `json:"day"`
	IsBlocked bool      `json:"is_blocked"`
	IsPast    bool      `json:"is_past"`
	Available bool      `json:"available"`
}

type CalendarMonth struct {
	Year      int           `json:"year"`
	Month     int           `json:"month"`
	MonthName string        `json:"month_name"`
	Days      []CalendarDay `json:"days"`
}

type Range struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Calendar rasterises the active holds onto a day grid covering the month of
// today and the following months-1 months.
func Calendar(bookings []*entity.Booking, today time.Time, months int) []CalendarMonth {
	today = StartOfDay(today)
	holds := sortedHolds(bookings)

	calendar := make([]CalendarMonth, 0, months)
	first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	for m := 0; m < months; m++ {
		start := first.AddDate(0, m, 0)
		daysInMonth := start.AddDate(0, 1, -1).Day()

		days := make([]CalendarDay, 0, daysInMonth)
		for d := 1; d <= daysInMonth; d++ {
			date := time.Date(start.Year(), start.Month(), d, 0, 0, 0, 0, time.UTC)
			blocked := isBlocked(holds, date)
			past := date.Before(today)

			days = append(days, CalendarDay{
				Date:      date,
				Day:       d,
				IsBlocked: blocked,
				IsPast:    past,
				Available: !blocked && !past,
			})
		}

		calendar = append(calendar, CalendarMonth{
			Year:      start.Year(),
			Month:     int(start.Month()),
			MonthName: start.Month().String(),
			Days:      days,
		})
	}

	return calendar
}

// A day is blocked when any part of it falls inside a hold.
func isBlocked(holds []*entity.Booking, date time.Time) bool {
	next := date.AddDate(0, 0, 1)
	for _, h := range holds {
		if !h.CheckIn.Before(next) {
			return false
		}
		if Overlaps(date, next, h.CheckIn, h.CheckOut) {
			return true
		}
	}
	return false
}

// AvailableRanges lists the free windows between today and today+daysAhead.
func AvailableRanges(bookings []*entity.Booking, today time.Time, daysAhead int) []Range {
	today = StartOfDay(today)
	end := today.AddDate(0, 0, daysAhead)

	ranges := []Range{}
	cursor := today

	for _, h := range sortedHolds(bookings) {
		if !h.CheckIn.Before(end) {
			break
		}
		if h.CheckIn.After(cursor) {
			ranges = append(ranges, Range{Start: cursor, End: h.CheckIn})
		}
		if h.CheckOut.After(cursor) {
			cursor = h.CheckOut
		}
	}

	if cursor.Before(end) {
		ranges = append(ranges, Range{Start: cursor, End: end})
	}

	return ranges
}
