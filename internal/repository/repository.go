// backend-go/internal/repository/repository.go
package repository

import (
	"context"

	"github.com/vrukshagro/backend-go/internal/domain"
)

// SlotRepository persists plant-slot aggregates. Reserve and Release mutate
// the period counters through a single conditional update so concurrent
// callers can never drive capacity negative.
type SlotRepository interface {
	CreateSlot(ctx context.Context, slot *domain.PlantSlot) (*domain.PlantSlot, error)
	GetPeriod(ctx context.Context, periodID int64) (*domain.SlotPeriod, error)
	// Reserve decrements total_plants and increments total_booked_plants
	// atomically. The capacity check is part of the update's filter.
	Reserve(ctx context.Context, periodID int64, quantity int) (*domain.SlotPeriod, error)
	// Release is the inverse; no underflow check is applied.
	Release(ctx context.Context, periodID int64, quantity int) (*domain.SlotPeriod, error)
}

// OutwardRepository persists production batches as whole documents.
// Save enforces an optimistic version check so a transfer and its summary
// recompute land as one atomic write.
type OutwardRepository interface {
	CreateBatch(ctx context.Context, batch *domain.OutwardBatch) (*domain.OutwardBatch, error)
	GetBatch(ctx context.Context, batchID int64) (*domain.OutwardBatch, error)
	SaveBatch(ctx context.Context, batch *domain.OutwardBatch) (*domain.OutwardBatch, error)
}

// WalletRepository persists dealer wallets as whole documents with a
// version check; one wallet per dealer, created lazily.
type WalletRepository interface {
	GetByDealer(ctx context.Context, dealerID int64) (*domain.DealerWallet, error)
	SaveWallet(ctx context.Context, wallet *domain.DealerWallet) (*domain.DealerWallet, error)
}

// AllocationPlan is the set of writes an order mutation must apply together
// with the order row. ReservePeriodID/ReleasePeriodID are zero when no slot
// movement is needed; Wallet is nil when the wallet is untouched.
type AllocationPlan struct {
	ReservePeriodID int64
	ReserveQuantity int
	ReleasePeriodID int64
	ReleaseQuantity int
	Wallet          *domain.DealerWallet
}

// OrderRepository persists orders. Create and Update apply the allocation
// plan and the order write inside one transaction; Update additionally
// enforces the order's version for optimistic concurrency.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order, plan *AllocationPlan) (*domain.Order, error)
	GetOrder(ctx context.Context, orderID int64) (*domain.Order, error)
	UpdateOrder(ctx context.Context, order *domain.Order, plan *AllocationPlan) (*domain.Order, error)
}
