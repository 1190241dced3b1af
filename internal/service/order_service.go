// backend-go/internal/service/order_service.go
package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vrukshagro/backend-go/internal/cache"
	"github.com/vrukshagro/backend-go/internal/domain"
	"github.com/vrukshagro/backend-go/internal/repository"
)

// OrderService orchestrates the order lifecycle. Every create, update and
// cancellation builds an allocation plan (slot reserve/release plus wallet
// mutation) that the repository applies atomically with the order write.
type OrderService struct {
	orders  repository.OrderRepository
	wallets *WalletService
	cache   cache.SlotAvailabilityCache
}

func NewOrderService(orders repository.OrderRepository, wallets *WalletService, slotCache cache.SlotAvailabilityCache) *OrderService {
	if slotCache == nil {
		slotCache = cache.NewNoopSlotCache()
	}
	return &OrderService{orders: orders, wallets: wallets, cache: slotCache}
}

// CreateOrderInput carries the fields of an order request.
type CreateOrderInput struct {
	FarmerID        int64
	DealerID        int64
	SalespersonID   int64
	SalespersonRole string
	PlantID         int64
	SubtypeID       int64
	SlotPeriodID    int64
	Quantity        int
	Rate            decimal.Decimal
	DealerOrder     bool
	CompanyQuota    bool
	Status          domain.OrderStatus
	CreatedBy       string
}

func (in *CreateOrderInput) validate() error {
	if in.SlotPeriodID <= 0 {
		return &domain.MissingFieldError{Field: "booking_slot"}
	}
	if in.PlantID <= 0 {
		return &domain.MissingFieldError{Field: "plant"}
	}
	if in.SubtypeID <= 0 {
		return &domain.MissingFieldError{Field: "plant_subtype"}
	}
	if in.Quantity <= 0 {
		return domain.ErrValidation
	}
	return nil
}

// Create resolves the allocation intent, books demand against the dealer
// wallet and/or slot capacity, and persists the order. All of it applies in
// one transaction; a capacity or balance rejection leaves no order behind.
func (s *OrderService) Create(ctx context.Context, in CreateOrderInput) (*domain.Order, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	intent := domain.ResolveIntent(in.DealerOrder, in.CompanyQuota, in.SalespersonRole, in.DealerID)
	plan := &repository.AllocationPlan{}
	fromWallet, fromSlot := 0, in.Quantity

	switch intent {
	case domain.IntentSelfStock:
		if in.DealerID <= 0 {
			return nil, &domain.MissingFieldError{Field: "dealer"}
		}
		// The dealer builds stock for themselves: slot capacity is
		// reserved and the wallet entry credited with the quantity.
		wallet, err := s.wallets.loadOrNew(ctx, in.DealerID)
		if err != nil {
			return nil, err
		}
		wallet.CreditStock(in.PlantID, in.SubtypeID, in.SlotPeriodID, in.Quantity)
		plan.Wallet = wallet

	case domain.IntentQuotaOverride:
		// Company quota bypasses the wallet entirely.

	case domain.IntentDealerMediated:
		alloc, wallet, err := s.wallets.Allocate(ctx, in.DealerID, in.PlantID, in.SubtypeID, in.SlotPeriodID, in.Quantity)
		if err != nil {
			return nil, err
		}
		fromWallet, fromSlot = alloc.FromWallet, alloc.FromSlot
		plan.Wallet = wallet

	case domain.IntentDirect:
		// Full quantity reserves slot capacity.
	}

	if fromSlot > 0 {
		plan.ReservePeriodID = in.SlotPeriodID
		plan.ReserveQuantity = fromSlot
	}

	order := &domain.Order{
		FarmerID:      in.FarmerID,
		DealerID:      in.DealerID,
		SalespersonID: in.SalespersonID,
		PlantID:       in.PlantID,
		SubtypeID:     in.SubtypeID,
		SlotPeriodID:  in.SlotPeriodID,
		Quantity:      in.Quantity,
		Remaining:     in.Quantity,
		Rate:          in.Rate,
		FromWallet:    fromWallet,
		FromSlot:      fromSlot,
		Intent:        intent,
		CompanyQuota:  in.CompanyQuota,
		DealerOrder:   in.DealerOrder,
		Status:        domain.OrderPending,
	}
	if in.Status != "" && in.Status != domain.OrderPending {
		if err := order.ChangeStatus(in.Status, "initial status", in.CreatedBy); err != nil {
			return nil, err
		}
	}

	created, err := s.orders.CreateOrder(ctx, order, plan)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, in.SlotPeriodID)
	log.Info().Int64("order_id", created.ID).Int64("order_number", created.OrderNumber).
		Str("intent", string(intent)).Int("from_wallet", fromWallet).Int("from_slot", fromSlot).
		Msg("order created")
	return created, nil
}

func (s *OrderService) Get(ctx context.Context, orderID int64) (*domain.Order, error) {
	return s.orders.GetOrder(ctx, orderID)
}

// UpdateOrderInput patches an order's booking slot, quantity or rate.
type UpdateOrderInput struct {
	SlotPeriodID *int64
	Quantity     *int
	Rate         *decimal.Decimal
	Reason       string
	ChangedBy    string
}

// Update releases the order's prior allocation and applies the new one
// inside one transaction. A concurrent modification of the order fails the
// version check and surfaces as ErrConflict for the caller to retry.
func (s *OrderService) Update(ctx context.Context, orderID int64, in UpdateOrderInput) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status.Terminal() {
		return nil, domain.ErrValidation
	}

	oldSlot, oldQty := order.SlotPeriodID, order.Quantity
	newSlot, newQty := oldSlot, oldQty
	if in.SlotPeriodID != nil {
		newSlot = *in.SlotPeriodID
	}
	if in.Quantity != nil {
		newQty = *in.Quantity
	}
	if newSlot <= 0 {
		return nil, &domain.MissingFieldError{Field: "booking_slot"}
	}
	if newQty <= 0 {
		return nil, domain.ErrValidation
	}
	if in.Rate != nil {
		order.Rate = *in.Rate
	}

	plan := &repository.AllocationPlan{}
	if newSlot != oldSlot || newQty != oldQty {
		var wallet *domain.DealerWallet
		walletTouched := false
		needsWallet := order.FromWallet > 0 ||
			order.Intent == domain.IntentSelfStock ||
			order.Intent == domain.IntentDealerMediated
		if needsWallet && order.DealerID > 0 {
			if wallet, err = s.wallets.loadOrNew(ctx, order.DealerID); err != nil {
				return nil, err
			}
		}

		// Reverse the prior allocation.
		if order.FromSlot > 0 {
			plan.ReleasePeriodID = oldSlot
			plan.ReleaseQuantity = order.FromSlot
		}
		if wallet != nil && order.FromWallet > 0 {
			wallet.ReleaseBooking(order.PlantID, order.SubtypeID, oldSlot, order.FromWallet)
			walletTouched = true
		}

		// Re-apply against the new slot and quantity.
		fromWallet, fromSlot := 0, newQty
		switch order.Intent {
		case domain.IntentSelfStock:
			if wallet != nil {
				wallet.DebitStock(order.PlantID, order.SubtypeID, oldSlot, oldQty)
				wallet.CreditStock(order.PlantID, order.SubtypeID, newSlot, newQty)
				walletTouched = true
			}
		case domain.IntentDealerMediated:
			if wallet != nil {
				alloc, allocErr := wallet.Allocate(order.PlantID, order.SubtypeID, newSlot, newQty)
				if allocErr != nil {
					return nil, allocErr
				}
				fromWallet, fromSlot = alloc.FromWallet, alloc.FromSlot
				if fromWallet > 0 {
					walletTouched = true
				}
			}
		}

		if fromSlot > 0 {
			plan.ReservePeriodID = newSlot
			plan.ReserveQuantity = fromSlot
		}
		if walletTouched {
			plan.Wallet = wallet
		}

		if newSlot != oldSlot {
			order.DeliveryHistory = append(order.DeliveryHistory, domain.DeliveryChange{
				PreviousPeriodID: oldSlot,
				NewPeriodID:      newSlot,
				Reason:           in.Reason,
				ChangedBy:        in.ChangedBy,
				ChangedAt:        time.Now().UTC(),
			})
		}

		consumed := oldQty - order.Remaining
		order.SlotPeriodID = newSlot
		order.Quantity = newQty
		order.Remaining = newQty - consumed
		order.FromWallet = fromWallet
		order.FromSlot = fromSlot
	}

	updated, err := s.orders.UpdateOrder(ctx, order, plan)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, oldSlot)
	s.invalidate(ctx, newSlot)
	log.Info().Int64("order_id", orderID).Int64("slot_period_id", newSlot).
		Int("quantity", newQty).Msg("order updated")
	return updated, nil
}

// ChangeStatus applies a lifecycle transition. CANCELLED and REJECTED
// additionally reverse whatever allocation the order originally made.
func (s *OrderService) ChangeStatus(ctx context.Context, orderID int64, to domain.OrderStatus, reason, changedBy string) (*domain.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := order.ChangeStatus(to, reason, changedBy); err != nil {
		return nil, err
	}

	plan := &repository.AllocationPlan{}
	if to == domain.OrderCancelled || to == domain.OrderRejected {
		if order.FromSlot > 0 {
			plan.ReleasePeriodID = order.SlotPeriodID
			plan.ReleaseQuantity = order.FromSlot
		}
		if order.DealerID > 0 && (order.FromWallet > 0 || order.Intent == domain.IntentSelfStock) {
			wallet, err := s.wallets.loadOrNew(ctx, order.DealerID)
			if err != nil {
				return nil, err
			}
			if order.FromWallet > 0 {
				wallet.ReleaseBooking(order.PlantID, order.SubtypeID, order.SlotPeriodID, order.FromWallet)
				// Collected payments on a wallet-routed order are
				// reconciled in the ledger when the booking is undone.
				if collected := order.CollectedAmount(); collected.IsPositive() {
					if _, err := wallet.ApplyTransaction(domain.TxInventoryRelease, collected,
						"booking released on order "+string(to), changedBy, "order", ""); err != nil {
						return nil, err
					}
				}
			}
			if order.Intent == domain.IntentSelfStock {
				wallet.DebitStock(order.PlantID, order.SubtypeID, order.SlotPeriodID, order.Quantity)
			}
			plan.Wallet = wallet
		}
	}

	updated, err := s.orders.UpdateOrder(ctx, order, plan)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, order.SlotPeriodID)
	log.Info().Int64("order_id", orderID).Str("status", string(to)).Msg("order status changed")
	return updated, nil
}

// AddPayment appends a payment record to the order. Payment rows are
// append-only; correcting a wrong collection is a new REJECTED row, not an
// edit.
func (s *OrderService) AddPayment(ctx context.Context, orderID int64, amount decimal.Decimal, mode, collectedBy string, status domain.PaymentStatus) (*domain.Order, error) {
	if !amount.IsPositive() {
		return nil, domain.ErrValidation
	}
	switch status {
	case "":
		status = domain.PaymentCollected
	case domain.PaymentPending, domain.PaymentCollected, domain.PaymentRejected:
	default:
		return nil, domain.ErrValidation
	}

	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	order.Payments = append(order.Payments, domain.Payment{
		Amount:      amount,
		Status:      status,
		Mode:        mode,
		CollectedBy: collectedBy,
		CollectedAt: time.Now().UTC(),
	})

	updated, err := s.orders.UpdateOrder(ctx, order, nil)
	if err != nil {
		return nil, err
	}
	log.Info().Int64("order_id", orderID).Str("amount", amount.String()).
		Str("status", string(status)).Msg("order payment recorded")
	return updated, nil
}

// Cancel reverses the order's allocation and moves it to CANCELLED.
func (s *OrderService) Cancel(ctx context.Context, orderID int64, reason, changedBy string) (*domain.Order, error) {
	return s.ChangeStatus(ctx, orderID, domain.OrderCancelled, reason, changedBy)
}

func (s *OrderService) invalidate(ctx context.Context, periodID int64) {
	if err := s.cache.InvalidatePeriod(ctx, periodID); err != nil {
		log.Warn().Err(err).Int64("period_id", periodID).Msg("slot cache invalidation failed")
	}
}
