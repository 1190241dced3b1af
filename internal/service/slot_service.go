// backend-go/internal/service/slot_service.go
package service

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/vrukshagro/backend-go/internal/cache"
	"github.com/vrukshagro/backend-go/internal/domain"
	"github.com/vrukshagro/backend-go/internal/repository"
)

// SlotService guards the capacity ledger: no more plants than a period's
// declared capacity are ever committed, regardless of concurrent callers.
type SlotService struct {
	repo  repository.SlotRepository
	cache cache.SlotAvailabilityCache
}

func NewSlotService(repo repository.SlotRepository, slotCache cache.SlotAvailabilityCache) *SlotService {
	if slotCache == nil {
		slotCache = cache.NewNoopSlotCache()
	}
	return &SlotService{repo: repo, cache: slotCache}
}

// RegisterSlot creates the aggregate and its full year of delivery periods.
func (s *SlotService) RegisterSlot(ctx context.Context, plantID, subtypeID int64, year, periodDays, capacity int) (*domain.PlantSlot, error) {
	if plantID <= 0 || subtypeID <= 0 {
		return nil, domain.ErrValidation
	}
	if year < 2000 || capacity < 0 {
		return nil, domain.ErrValidation
	}
	slot := &domain.PlantSlot{
		PlantID:   plantID,
		SubtypeID: subtypeID,
		Year:      year,
		Periods:   domain.GeneratePeriods(year, periodDays, capacity),
	}
	return s.repo.CreateSlot(ctx, slot)
}

// GetPeriod serves the availability read model through the cache.
func (s *SlotService) GetPeriod(ctx context.Context, periodID int64) (*domain.SlotPeriod, error) {
	if periodID <= 0 {
		return nil, domain.ErrValidation
	}
	if period, ok, err := s.cache.GetPeriod(ctx, periodID); err != nil {
		log.Warn().Err(err).Int64("period_id", periodID).Msg("slot cache read failed")
	} else if ok {
		return period, nil
	}

	period, err := s.repo.GetPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.SetPeriod(ctx, period); err != nil {
		log.Warn().Err(err).Int64("period_id", periodID).Msg("slot cache write failed")
	}
	return period, nil
}

// Reserve commits quantity plants from the period. The capacity check and
// the counter update are one atomic operation in the repository.
func (s *SlotService) Reserve(ctx context.Context, periodID int64, quantity int) (*domain.SlotPeriod, error) {
	if periodID <= 0 || quantity <= 0 {
		return nil, domain.ErrValidation
	}
	period, err := s.repo.Reserve(ctx, periodID, quantity)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, periodID)
	log.Info().Int64("period_id", periodID).Int("quantity", quantity).
		Int("remaining", period.TotalPlants).Msg("slot capacity reserved")
	return period, nil
}

// Release returns quantity plants to the period.
func (s *SlotService) Release(ctx context.Context, periodID int64, quantity int) (*domain.SlotPeriod, error) {
	if periodID <= 0 || quantity <= 0 {
		return nil, domain.ErrValidation
	}
	period, err := s.repo.Release(ctx, periodID, quantity)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, periodID)
	log.Info().Int64("period_id", periodID).Int("quantity", quantity).
		Int("remaining", period.TotalPlants).Msg("slot capacity released")
	return period, nil
}

func (s *SlotService) invalidate(ctx context.Context, periodID int64) {
	if err := s.cache.InvalidatePeriod(ctx, periodID); err != nil {
		log.Warn().Err(err).Int64("period_id", periodID).Msg("slot cache invalidation failed")
	}
}
