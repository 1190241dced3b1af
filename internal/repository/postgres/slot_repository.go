// backend-go/internal/repository/postgres/slot_repository.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vrukshagro/backend-go/internal/domain"
)

type slotRepository struct {
	db *DB
}

func NewSlotRepository(db *DB) *slotRepository {
	return &slotRepository{db: db}
}

// querier is satisfied by *sql.Tx and *sqlx.DB so period helpers can run
// standalone or inside an order transaction.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

const periodColumns = `id, plant_slot_id, start_date, end_date, month_name,
	total_plants, total_booked_plants, overflow, status`

func scanPeriod(row *sql.Row) (*domain.SlotPeriod, error) {
	var p domain.SlotPeriod
	err := row.Scan(&p.ID, &p.PlantSlotID, &p.StartDate, &p.EndDate, &p.MonthName,
		&p.TotalPlants, &p.TotalBookedPlants, &p.Overflow, &p.Status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan slot period: %w", err)
	}
	return &p, nil
}

func getPeriod(ctx context.Context, q querier, periodID int64) (*domain.SlotPeriod, error) {
	query := fmt.Sprintf(`SELECT %s FROM slot_periods WHERE id = $1`, periodColumns)
	return scanPeriod(q.QueryRowContext(ctx, query, periodID))
}

// reservePeriod folds the capacity check into the update's filter: the row
// only matches while total_plants still covers the quantity, so concurrent
// reservations can never drive the counter negative.
func reservePeriod(ctx context.Context, q querier, periodID int64, quantity int) (*domain.SlotPeriod, error) {
	query := fmt.Sprintf(`
		UPDATE slot_periods
		SET total_plants = total_plants - $2,
			total_booked_plants = total_booked_plants + $2
		WHERE id = $1 AND total_plants >= $2
		RETURNING %s`, periodColumns)

	period, err := scanPeriod(q.QueryRowContext(ctx, query, periodID, quantity))
	if err == nil {
		return period, nil
	}
	if !domain.IsNotFound(err) {
		return nil, err
	}

	// Zero rows matched: distinguish a missing period from a capacity
	// rejection.
	current, getErr := getPeriod(ctx, q, periodID)
	if getErr != nil {
		return nil, getErr
	}
	if current.TotalPlants < quantity {
		return nil, &domain.CapacityError{
			PeriodID:    current.ID,
			Requested:   quantity,
			Available:   current.TotalPlants,
			PeriodStart: current.StartDate,
			PeriodEnd:   current.EndDate,
		}
	}
	return nil, domain.ErrUpdateFailed
}

// releasePeriod mirrors reservePeriod's bookkeeping. No underflow check is
// applied against prior reservations.
func releasePeriod(ctx context.Context, q querier, periodID int64, quantity int) (*domain.SlotPeriod, error) {
	query := fmt.Sprintf(`
		UPDATE slot_periods
		SET total_plants = total_plants + $2,
			total_booked_plants = total_booked_plants - $2
		WHERE id = $1
		RETURNING %s`, periodColumns)

	period, err := scanPeriod(q.QueryRowContext(ctx, query, periodID, quantity))
	if err == nil {
		return period, nil
	}
	if !domain.IsNotFound(err) {
		return nil, err
	}
	if _, getErr := getPeriod(ctx, q, periodID); getErr != nil {
		return nil, getErr
	}
	return nil, domain.ErrUpdateFailed
}

func (r *slotRepository) GetPeriod(ctx context.Context, periodID int64) (*domain.SlotPeriod, error) {
	return getPeriod(ctx, r.db.DB.DB, periodID)
}

func (r *slotRepository) Reserve(ctx context.Context, periodID int64, quantity int) (*domain.SlotPeriod, error) {
	return reservePeriod(ctx, r.db.DB.DB, periodID, quantity)
}

func (r *slotRepository) Release(ctx context.Context, periodID int64, quantity int) (*domain.SlotPeriod, error) {
	return releasePeriod(ctx, r.db.DB.DB, periodID, quantity)
}

// CreateSlot inserts the aggregate and its full year of periods in one
// transaction. Periods are only ever created in bulk with their parent.
func (r *slotRepository) CreateSlot(ctx context.Context, slot *domain.PlantSlot) (*domain.PlantSlot, error) {
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		err := tx.QueryRowContext(ctx, `
			INSERT INTO plant_slots (plant_id, subtype_id, year, created_at)
			VALUES ($1, $2, $3, $4)
			RETURNING id`,
			slot.PlantID, slot.SubtypeID, slot.Year, time.Now().UTC(),
		).Scan(&slot.ID)
		if err != nil {
			return fmt.Errorf("failed to insert plant slot: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO slot_periods (
				plant_slot_id, start_date, end_date, month_name,
				total_plants, total_booked_plants, overflow, status
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			RETURNING id`)
		if err != nil {
			return fmt.Errorf("failed to prepare period insert: %w", err)
		}
		defer stmt.Close()

		for i := range slot.Periods {
			p := &slot.Periods[i]
			p.PlantSlotID = slot.ID
			err := stmt.QueryRowContext(ctx, slot.ID, p.StartDate, p.EndDate, p.MonthName,
				p.TotalPlants, p.TotalBookedPlants, p.Overflow, p.Status).Scan(&p.ID)
			if err != nil {
				return fmt.Errorf("failed to insert slot period: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return slot, nil
}
