// backend-go/internal/repository/postgres/order_repository.go
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vrukshagro/backend-go/internal/domain"
	"github.com/vrukshagro/backend-go/internal/repository"
)

type orderRepository struct {
	db *DB
}

func NewOrderRepository(db *DB) *orderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, order_number, farmer_id, dealer_id, salesperson_id,
	plant_id, subtype_id, slot_period_id, quantity, remaining, rate,
	from_wallet, from_slot, intent, company_quota, dealer_order, status,
	payments, status_history, delivery_history, version, created_at, updated_at`

func scanOrder(row *sql.Row) (*domain.Order, error) {
	var (
		o                                  domain.Order
		payments, statusHist, deliveryHist []byte
	)
	err := row.Scan(&o.ID, &o.OrderNumber, &o.FarmerID, &o.DealerID, &o.SalespersonID,
		&o.PlantID, &o.SubtypeID, &o.SlotPeriodID, &o.Quantity, &o.Remaining, &o.Rate,
		&o.FromWallet, &o.FromSlot, &o.Intent, &o.CompanyQuota, &o.DealerOrder, &o.Status,
		&payments, &statusHist, &deliveryHist, &o.Version, &o.CreatedAt, &o.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan order: %w", err)
	}
	if err := json.Unmarshal(payments, &o.Payments); err != nil {
		return nil, fmt.Errorf("failed to decode payments: %w", err)
	}
	if err := json.Unmarshal(statusHist, &o.StatusHistory); err != nil {
		return nil, fmt.Errorf("failed to decode status history: %w", err)
	}
	if err := json.Unmarshal(deliveryHist, &o.DeliveryHistory); err != nil {
		return nil, fmt.Errorf("failed to decode delivery history: %w", err)
	}
	return &o, nil
}

func encodeOrderDocs(o *domain.Order) (payments, statusHist, deliveryHist []byte, err error) {
	if payments, err = json.Marshal(orEmpty(o.Payments)); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode payments: %w", err)
	}
	if statusHist, err = json.Marshal(orEmpty(o.StatusHistory)); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode status history: %w", err)
	}
	if deliveryHist, err = json.Marshal(orEmpty(o.DeliveryHistory)); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to encode delivery history: %w", err)
	}
	return payments, statusHist, deliveryHist, nil
}

// orEmpty keeps history columns as [] instead of null.
func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// applyPlan executes the slot and wallet writes of an order mutation inside
// the caller's transaction. Releases run before reserves so a slot change
// within the same period nets out.
func applyPlan(ctx context.Context, tx *sql.Tx, plan *repository.AllocationPlan) error {
	if plan == nil {
		return nil
	}
	if plan.ReleasePeriodID != 0 && plan.ReleaseQuantity > 0 {
		if _, err := releasePeriod(ctx, tx, plan.ReleasePeriodID, plan.ReleaseQuantity); err != nil {
			return err
		}
	}
	if plan.ReservePeriodID != 0 && plan.ReserveQuantity > 0 {
		if _, err := reservePeriod(ctx, tx, plan.ReservePeriodID, plan.ReserveQuantity); err != nil {
			return err
		}
	}
	if plan.Wallet != nil {
		if _, err := saveWallet(ctx, tx, plan.Wallet); err != nil {
			return err
		}
	}
	return nil
}

// CreateOrder allocates per the plan and inserts the order in one
// transaction. The order number is the highest existing number plus one,
// assigned inside the transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, order *domain.Order, plan *repository.AllocationPlan) (*domain.Order, error) {
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := applyPlan(ctx, tx, plan); err != nil {
			return err
		}

		if err := tx.QueryRowContext(ctx,
			`SELECT COALESCE(MAX(order_number), 0) + 1 FROM orders`,
		).Scan(&order.OrderNumber); err != nil {
			return fmt.Errorf("failed to assign order number: %w", err)
		}

		payments, statusHist, deliveryHist, err := encodeOrderDocs(order)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		order.CreatedAt = now
		order.UpdatedAt = now
		order.Version = 1
		err = tx.QueryRowContext(ctx, `
			INSERT INTO orders (
				order_number, farmer_id, dealer_id, salesperson_id,
				plant_id, subtype_id, slot_period_id, quantity, remaining, rate,
				from_wallet, from_slot, intent, company_quota, dealer_order, status,
				payments, status_history, delivery_history, version, created_at, updated_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
				$11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $21)
			RETURNING id`,
			order.OrderNumber, order.FarmerID, order.DealerID, order.SalespersonID,
			order.PlantID, order.SubtypeID, order.SlotPeriodID, order.Quantity, order.Remaining, order.Rate,
			order.FromWallet, order.FromSlot, order.Intent, order.CompanyQuota, order.DealerOrder, order.Status,
			payments, statusHist, deliveryHist, order.Version, now,
		).Scan(&order.ID)
		if err != nil {
			return fmt.Errorf("failed to insert order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (r *orderRepository) GetOrder(ctx context.Context, orderID int64) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns)
	return scanOrder(r.db.QueryRowContext(ctx, query, orderID))
}

// UpdateOrder reverses and re-applies allocations per the plan and rewrites
// the order row, all in one transaction. The version check rejects
// concurrent modifications with ErrConflict.
func (r *orderRepository) UpdateOrder(ctx context.Context, order *domain.Order, plan *repository.AllocationPlan) (*domain.Order, error) {
	newVersion := order.Version + 1
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		if err := applyPlan(ctx, tx, plan); err != nil {
			return err
		}

		payments, statusHist, deliveryHist, err := encodeOrderDocs(order)
		if err != nil {
			return err
		}

		order.UpdatedAt = time.Now().UTC()
		res, err := tx.ExecContext(ctx, `
			UPDATE orders
			SET slot_period_id = $1, quantity = $2, remaining = $3, rate = $4,
				from_wallet = $5, from_slot = $6, status = $7,
				payments = $8, status_history = $9, delivery_history = $10,
				version = $11, updated_at = $12
			WHERE id = $13 AND version = $14`,
			order.SlotPeriodID, order.Quantity, order.Remaining, order.Rate,
			order.FromWallet, order.FromSlot, order.Status,
			payments, statusHist, deliveryHist,
			newVersion, order.UpdatedAt, order.ID, order.Version)
		if err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to update order: %w", err)
		}
		if affected == 0 {
			var exists bool
			if err := tx.QueryRowContext(ctx,
				`SELECT EXISTS (SELECT 1 FROM orders WHERE id = $1)`, order.ID,
			).Scan(&exists); err != nil {
				return fmt.Errorf("failed to update order: %w", err)
			}
			if !exists {
				return domain.ErrNotFound
			}
			return domain.ErrConflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	order.Version = newVersion
	return order, nil
}
