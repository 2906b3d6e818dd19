package pricing

import (
	"math"
	"time"

	"rental-booking/internal/data/entity"
)

// FeePolicy layers platform fees over the seasonal subtotal.
type FeePolicy struct {
	ServiceFeeRate float64
	CleaningFee    int64
	Currency       string
}

func DefaultFeePolicy() FeePolicy {
	return FeePolicy{ServiceFeeRate: 0.12, Currency: "INR"}
}

func (p FeePolicy) ServiceFee(subtotal int64) int64 {
	return int64(math.Round(float64(subtotal) * p.ServiceFeeRate))
}

// Snapshot prices the stay and freezes the result into the form stored on a booking.
func (p FeePolicy) Snapshot(unit *entity.RentalUnit, checkIn, checkOut time.Time) (*entity.PricingSnapshot, error) {
	result, err := Price(unit.BaseRate, checkIn, checkOut)
	if err != nil {
		return nil, err
	}

	serviceFee := p.ServiceFee(result.Subtotal)

	return &entity.PricingSnapshot{
		NightlyRate:        unit.BaseRate,
		Nights:             result.Nights,
		PricingUnit:        unit.PricingUnit,
		BasePrice:          result.BasePrice,
		AverageMultiplier:  result.AverageMultiplier,
		SeasonalAdjustment: result.SeasonalAdjustment,
		Subtotal:           result.Subtotal,
		CleaningFee:        p.CleaningFee,
		ServiceFee:         serviceFee,
		Total:              result.Subtotal + serviceFee + p.CleaningFee,
		Currency:           p.Currency,
		Breakdown:          result.Breakdown,
	}, nil
}
