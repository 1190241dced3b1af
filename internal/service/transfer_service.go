// backend-go/internal/service/transfer_service.go
package service

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/vrukshagro/backend-go/internal/domain"
	"github.com/vrukshagro/backend-go/internal/repository"
)

// TransferService moves stock through the production pipeline. Every
// mutation loads the batch document, applies the change through the
// aggregate's methods and writes the whole document back, so the transfer,
// the source-entry debit and the summary recompute land together or not at
// all.
type TransferService struct {
	repo repository.OutwardRepository
}

func NewTransferService(repo repository.OutwardRepository) *TransferService {
	return &TransferService{repo: repo}
}

// CreateBatch opens a new production batch for a plant subtype.
func (s *TransferService) CreateBatch(ctx context.Context, plantID, subtypeID int64, batchCode string) (*domain.OutwardBatch, error) {
	if plantID <= 0 || subtypeID <= 0 {
		return nil, domain.ErrValidation
	}
	if batchCode == "" {
		return nil, &domain.MissingFieldError{Field: "batch_code"}
	}
	return s.repo.CreateBatch(ctx, &domain.OutwardBatch{
		PlantID:   plantID,
		SubtypeID: subtypeID,
		BatchCode: batchCode,
	})
}

func (s *TransferService) GetBatch(ctx context.Context, batchID int64) (*domain.OutwardBatch, error) {
	return s.repo.GetBatch(ctx, batchID)
}

// AddLabEntry records production output at the head of the pipeline.
func (s *TransferService) AddLabEntry(ctx context.Context, batchID int64, date time.Time, size domain.SizeClass, bottles, plants int) (*domain.OutwardBatch, error) {
	batch, err := s.repo.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	entry, err := batch.AddLabEntry(date, size, bottles, plants)
	if err != nil {
		return nil, err
	}
	saved, err := s.repo.SaveBatch(ctx, batch)
	if err != nil {
		return nil, err
	}
	log.Info().Int64("batch_id", batchID).Int64("entry_id", entry.ID).
		Int("bottles", bottles).Int("plants", plants).Msg("lab entry recorded")
	return saved, nil
}

// Transfer executes one stage transition: a new destination entry is
// created, the source entry's availability debited and its history
// appended, and the batch summary recomputed, in a single document write.
func (s *TransferService) Transfer(ctx context.Context, batchID int64, dest domain.Stage, sourceEntryID int64, req domain.TransferRequest) (*domain.OutwardBatch, error) {
	batch, err := s.repo.GetBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	entry, err := batch.Transfer(dest, sourceEntryID, req)
	if err != nil {
		return nil, err
	}
	saved, err := s.repo.SaveBatch(ctx, batch)
	if err != nil {
		return nil, err
	}
	log.Info().Int64("batch_id", batchID).Str("stage", string(dest)).
		Int64("source_entry_id", sourceEntryID).Int64("entry_id", entry.ID).
		Int("quantity", entry.Quantity).Msg("stage transfer applied")
	return saved, nil
}
