package entity

import (
	"github.com/google/uuid"
)

type PricingUnit string

const (
	PricingUnitNight PricingUnit = "night"
	PricingUnitHour  PricingUnit = "hour"
	PricingUnitDay   PricingUnit = "day"
	PricingUnitWeek  PricingUnit = "week"
)

// DayGranular reports whether stays on this unit are normalised to whole days.
func (u PricingUnit) DayGranular() bool {
	return u != PricingUnitHour
}

type RentalUnitStatus string

const (
	RentalUnitStatusActive   RentalUnitStatus = "active"
	RentalUnitStatusInactive RentalUnitStatus = "inactive"
	RentalUnitStatusDeleted  RentalUnitStatus = "deleted"
)

// RentalUnit is the bookable listing as seen by the booking core.
type RentalUnit struct {
	BaseNoDelete
	OwnerID      uuid.UUID        `db:"owner_id"`
	Title        string           `db:"title"`
	BaseRate     int64            `db:"base_rate"`
	PricingUnit  PricingUnit      `db:"pricing_unit"`
	MinStay      int              `db:"min_stay"`
	MaxStay      int              `db:"max_stay"`
	MaxOccupancy int              `db:"max_occupancy"`
	Status       RentalUnitStatus `db:"status"`
}

func (u *RentalUnit) IsBookable() bool {
	return u.Status == RentalUnitStatusActive
}
