package domain

import "time"

// CapacityReportThreshold bounds when a capacity failure message includes
// the exact remaining quantity.
const CapacityReportThreshold = 1000

// SlotStatus is the open/closed state of a delivery period.
type SlotStatus string

const (
	SlotOpen   SlotStatus = "open"
	SlotClosed SlotStatus = "closed"
)

// PlantSlot is the aggregate owning one year of delivery periods for a
// plant-subtype combination. Periods are never addressed outside their
// aggregate except by period id lookups.
type PlantSlot struct {
	ID        int64        `json:"id" db:"id"`
	PlantID   int64        `json:"plant_id" db:"plant_id"`
	SubtypeID int64        `json:"subtype_id" db:"subtype_id"`
	Year      int          `json:"year" db:"year"`
	Periods   []SlotPeriod `json:"periods"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// SlotPeriod is one delivery-capacity bucket inside a PlantSlot.
type SlotPeriod struct {
	ID                int64      `json:"id" db:"id"`
	PlantSlotID       int64      `json:"plant_slot_id" db:"plant_slot_id"`
	StartDate         time.Time  `json:"start_date" db:"start_date"`
	EndDate           time.Time  `json:"end_date" db:"end_date"`
	MonthName         string     `json:"month_name" db:"month_name"`
	TotalPlants       int        `json:"total_plants" db:"total_plants"`
	TotalBookedPlants int        `json:"total_booked_plants" db:"total_booked_plants"`
	Overflow          bool       `json:"overflow" db:"overflow"`
	Status            SlotStatus `json:"status" db:"status"`
}

// Available returns the uncommitted capacity of the period.
func (p *SlotPeriod) Available() int { return p.TotalPlants }

// Reserve commits quantity plants from the period. The caller must persist
// the mutation atomically; this method only applies the counter math and the
// capacity invariant.
func (p *SlotPeriod) Reserve(quantity int) error {
	if quantity <= 0 {
		return ErrValidation
	}
	if p.TotalPlants < quantity {
		return &CapacityError{
			PeriodID:    p.ID,
			Requested:   quantity,
			Available:   p.TotalPlants,
			PeriodStart: p.StartDate,
			PeriodEnd:   p.EndDate,
		}
	}
	p.TotalPlants -= quantity
	p.TotalBookedPlants += quantity
	return nil
}

// Release returns quantity plants to the period. Mirrors Reserve's
// bookkeeping; no underflow check is performed against prior reservations.
func (p *SlotPeriod) Release(quantity int) error {
	if quantity <= 0 {
		return ErrValidation
	}
	p.TotalPlants += quantity
	p.TotalBookedPlants -= quantity
	return nil
}

// GeneratePeriods builds the year's delivery periods for a plant slot,
// each periodDays long and seeded with capacity plants. Periods never span
// a month boundary; the tail of each month is padded into a shorter period.
func GeneratePeriods(year, periodDays, capacity int) []SlotPeriod {
	if periodDays <= 0 {
		periodDays = 5
	}
	var periods []SlotPeriod
	for month := time.January; month <= time.December; month++ {
		start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		monthEnd := start.AddDate(0, 1, -1)
		for !start.After(monthEnd) {
			end := start.AddDate(0, 0, periodDays-1)
			if end.After(monthEnd) {
				end = monthEnd
			}
			periods = append(periods, SlotPeriod{
				StartDate:   start,
				EndDate:     end,
				MonthName:   month.String(),
				TotalPlants: capacity,
				Status:      SlotOpen,
			})
			start = end.AddDate(0, 0, 1)
		}
	}
	return periods
}
