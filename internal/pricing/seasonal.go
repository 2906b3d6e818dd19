// Package pricing computes nightly seasonal rates and booking totals.
// Everything here is a pure function of its inputs.
package pricing

import (
	"errors"
	"math"
	"time"

	"rental-booking/internal/data/entity"
)

var ErrInvalidRange = errors.New("pricing: check-out must be after check-in")

// WeekendFactor is applied on Saturdays and Sundays on top of the season.
const WeekendFactor = 1.1

type Season struct {
	Key        string
	Name       string
	Multiplier float64
	Months     []time.Month
}

// Seasons is evaluated in order; the first rule whose months contain the date wins.
var Seasons = []Season{
	{Key: "peak", Name: "Peak Season", Multiplier: 1.3, Months: []time.Month{time.December, time.January}},
	{Key: "summer", Name: "Summer Season", Multiplier: 1.2, Months: []time.Month{time.April, time.May}},
	{Key: "monsoon", Name: "Monsoon Drop", Multiplier: 0.85, Months: []time.Month{time.July, time.August}},
	{Key: "regular", Name: "Regular Season", Multiplier: 1.0, Months: []time.Month{
		time.February, time.March, time.June, time.September, time.October, time.November,
	}},
}

var regularSeason = Seasons[len(Seasons)-1]

// Result is the seasonal breakdown for a stay, before fees.
type Result struct {
	Nights             int
	BaseRate           int64
	BasePrice          int64
	Subtotal           int64
	SeasonalAdjustment int64
	AverageMultiplier  float64
	Breakdown          []entity.NightRate
}

// SeasonFor classifies a calendar day.
func SeasonFor(date time.Time) Season {
	month := date.Month()
	for _, season := range Seasons {
		for _, m := range season.Months {
			if m == month {
				return season
			}
		}
	}
	return regularSeason
}

func IsWeekend(date time.Time) bool {
	day := date.Weekday()
	return day == time.Saturday || day == time.Sunday
}

// Price breaks [checkIn, checkOut) into nights and prices each one.
// Rounding happens per night, so the subtotal is the sum of the nightly rates.
func Price(baseRate int64, checkIn, checkOut time.Time) (*Result, error) {
	if !checkOut.After(checkIn) {
		return nil, ErrInvalidRange
	}

	nights := int(math.Ceil(checkOut.Sub(checkIn).Hours() / 24))

	result := &Result{
		Nights:    nights,
		BaseRate:  baseRate,
		BasePrice: baseRate * int64(nights),
		Breakdown: make([]entity.NightRate, 0, nights),
	}

	var multiplierSum float64
	for i := 0; i < nights; i++ {
		date := checkIn.AddDate(0, 0, i)
		season := SeasonFor(date)
		weekend := IsWeekend(date)

		factor := season.Multiplier
		label := season.Name
		if weekend {
			factor *= WeekendFactor
			label += " (Weekend)"
		}

		rate := int64(math.Round(float64(baseRate) * factor))
		multiplier := round2(factor)

		result.Breakdown = append(result.Breakdown, entity.NightRate{
			Date:       date,
			Rate:       rate,
			SeasonName: label,
			Multiplier: multiplier,
			IsWeekend:  weekend,
		})
		result.Subtotal += rate
		multiplierSum += multiplier
	}

	result.SeasonalAdjustment = result.Subtotal - result.BasePrice
	result.AverageMultiplier = round2(multiplierSum / float64(nights))

	return result, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
