// Package memory provides an in-process implementation of the repository
// interfaces. It backs the service tests and mirrors the postgres
// implementation's semantics: conditional capacity updates, version-checked
// document saves and all-or-nothing allocation plans.
package memory

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/vrukshagro/backend-go/internal/domain"
	"github.com/vrukshagro/backend-go/internal/repository"
)

// Store holds all aggregates behind one mutex, standing in for the
// document store's per-operation atomicity.
type Store struct {
	mu sync.Mutex

	slots   map[int64]*domain.PlantSlot
	periods map[int64]*domain.SlotPeriod
	batches map[int64]*domain.OutwardBatch
	wallets map[int64]*domain.DealerWallet
	orders  map[int64]*domain.Order

	nextSlotID   int64
	nextPeriodID int64
	nextBatchID  int64
	nextWalletID int64
	nextOrderID  int64
}

func NewStore() *Store {
	return &Store{
		slots:   map[int64]*domain.PlantSlot{},
		periods: map[int64]*domain.SlotPeriod{},
		batches: map[int64]*domain.OutwardBatch{},
		wallets: map[int64]*domain.DealerWallet{},
		orders:  map[int64]*domain.Order{},
	}
}

func clone[T any](v *T) *T {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	out := new(T)
	if err := json.Unmarshal(b, out); err != nil {
		panic(err)
	}
	return out
}

// --- SlotRepository ---

func (s *Store) CreateSlot(_ context.Context, slot *domain.PlantSlot) (*domain.PlantSlot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextSlotID++
	slot.ID = s.nextSlotID
	for i := range slot.Periods {
		s.nextPeriodID++
		slot.Periods[i].ID = s.nextPeriodID
		slot.Periods[i].PlantSlotID = slot.ID
		p := slot.Periods[i]
		s.periods[p.ID] = &p
	}
	s.slots[slot.ID] = clone(slot)
	return slot, nil
}

func (s *Store) GetPeriod(_ context.Context, periodID int64) (*domain.SlotPeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getPeriodLocked(periodID)
}

func (s *Store) getPeriodLocked(periodID int64) (*domain.SlotPeriod, error) {
	p, ok := s.periods[periodID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(p), nil
}

func (s *Store) Reserve(_ context.Context, periodID int64, quantity int) (*domain.SlotPeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reserveLocked(periodID, quantity)
}

func (s *Store) reserveLocked(periodID int64, quantity int) (*domain.SlotPeriod, error) {
	p, ok := s.periods[periodID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := p.Reserve(quantity); err != nil {
		return nil, err
	}
	return clone(p), nil
}

func (s *Store) Release(_ context.Context, periodID int64, quantity int) (*domain.SlotPeriod, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.releaseLocked(periodID, quantity)
}

func (s *Store) releaseLocked(periodID int64, quantity int) (*domain.SlotPeriod, error) {
	p, ok := s.periods[periodID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if err := p.Release(quantity); err != nil {
		return nil, err
	}
	return clone(p), nil
}

// --- OutwardRepository ---

func (s *Store) CreateBatch(_ context.Context, batch *domain.OutwardBatch) (*domain.OutwardBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextBatchID++
	batch.ID = s.nextBatchID
	batch.Version = 1
	batch.RecomputeSummary()
	s.batches[batch.ID] = clone(batch)
	return batch, nil
}

func (s *Store) GetBatch(_ context.Context, batchID int64) (*domain.OutwardBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.batches[batchID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(b), nil
}

func (s *Store) SaveBatch(_ context.Context, batch *domain.OutwardBatch) (*domain.OutwardBatch, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.batches[batch.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if current.Version != batch.Version {
		return nil, domain.ErrConflict
	}
	batch.Version++
	s.batches[batch.ID] = clone(batch)
	return batch, nil
}

// --- WalletRepository ---

func (s *Store) GetByDealer(_ context.Context, dealerID int64) (*domain.DealerWallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getWalletLocked(dealerID)
}

func (s *Store) getWalletLocked(dealerID int64) (*domain.DealerWallet, error) {
	w, ok := s.wallets[dealerID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(w), nil
}

func (s *Store) SaveWallet(_ context.Context, wallet *domain.DealerWallet) (*domain.DealerWallet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveWalletLocked(wallet)
}

func (s *Store) saveWalletLocked(wallet *domain.DealerWallet) (*domain.DealerWallet, error) {
	wallet.Normalize()
	if wallet.ID == 0 {
		s.nextWalletID++
		wallet.ID = s.nextWalletID
		wallet.Version = 1
		s.wallets[wallet.DealerID] = clone(wallet)
		return wallet, nil
	}
	current, ok := s.wallets[wallet.DealerID]
	if !ok || current.Version != wallet.Version {
		return nil, domain.ErrConflict
	}
	wallet.Version++
	s.wallets[wallet.DealerID] = clone(wallet)
	return wallet, nil
}

// --- OrderRepository ---

// applyPlanLocked runs the plan's writes against scratch copies and only
// commits when every step succeeds, mirroring the postgres transaction.
func (s *Store) applyPlanLocked(plan *repository.AllocationPlan) (commit func(), err error) {
	if plan == nil {
		return func() {}, nil
	}

	var (
		released *domain.SlotPeriod
		reserved *domain.SlotPeriod
	)
	if plan.ReleasePeriodID != 0 && plan.ReleaseQuantity > 0 {
		p, ok := s.periods[plan.ReleasePeriodID]
		if !ok {
			return nil, domain.ErrNotFound
		}
		released = clone(p)
		if err := released.Release(plan.ReleaseQuantity); err != nil {
			return nil, err
		}
	}
	if plan.ReservePeriodID != 0 && plan.ReserveQuantity > 0 {
		p, ok := s.periods[plan.ReservePeriodID]
		if !ok {
			return nil, domain.ErrNotFound
		}
		reserved = clone(p)
		if released != nil && released.ID == reserved.ID {
			reserved = released
		}
		if err := reserved.Reserve(plan.ReserveQuantity); err != nil {
			return nil, err
		}
	}

	return func() {
		if released != nil {
			s.periods[released.ID] = released
		}
		if reserved != nil {
			s.periods[reserved.ID] = reserved
		}
		if plan.Wallet != nil {
			if _, err := s.saveWalletLocked(plan.Wallet); err != nil {
				// The service loaded the wallet under the same lock
				// discipline; a version miss here is a programming error.
				panic(err)
			}
		}
	}, nil
}

func (s *Store) CreateOrder(_ context.Context, order *domain.Order, plan *repository.AllocationPlan) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	commit, err := s.applyPlanLocked(plan)
	if err != nil {
		return nil, err
	}

	var maxNumber int64
	for _, o := range s.orders {
		if o.OrderNumber > maxNumber {
			maxNumber = o.OrderNumber
		}
	}

	commit()
	s.nextOrderID++
	order.ID = s.nextOrderID
	order.OrderNumber = maxNumber + 1
	order.Version = 1
	s.orders[order.ID] = clone(order)
	return order, nil
}

func (s *Store) GetOrder(_ context.Context, orderID int64) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return clone(o), nil
}

func (s *Store) UpdateOrder(_ context.Context, order *domain.Order, plan *repository.AllocationPlan) (*domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.orders[order.ID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if current.Version != order.Version {
		return nil, domain.ErrConflict
	}

	commit, err := s.applyPlanLocked(plan)
	if err != nil {
		return nil, err
	}
	commit()
	order.Version++
	s.orders[order.ID] = clone(order)
	return order, nil
}
