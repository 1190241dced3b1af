package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vrukshagro/backend-go/internal/domain"
	"github.com/vrukshagro/backend-go/internal/repository/memory"
	"github.com/vrukshagro/backend-go/internal/service"
)

var transferDate = time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

func newTransferService(t *testing.T) *service.TransferService {
	t.Helper()
	return service.NewTransferService(memory.NewStore())
}

// newBatchWithLab creates a batch holding one R1 lab entry of 50 bottles
// and 500 plants, and returns the batch and entry ids.
func newBatchWithLab(t *testing.T, svc *service.TransferService) (int64, int64) {
	t.Helper()
	ctx := context.Background()
	batch, err := svc.CreateBatch(ctx, 1, 1, "B-2026-001")
	require.NoError(t, err)
	batch, err = svc.AddLabEntry(ctx, batch.ID, transferDate, domain.SizeR1, 50, 500)
	require.NoError(t, err)
	require.Len(t, batch.Lab, 1)
	return batch.ID, batch.Lab[0].ID
}

func TestAddLabEntry_SeedsAvailability(t *testing.T) {
	svc := newTransferService(t)
	batchID, _ := newBatchWithLab(t, svc)

	batch, err := svc.GetBatch(context.Background(), batchID)
	require.NoError(t, err)

	entry := batch.Lab[0]
	assert.Equal(t, domain.StageLab, entry.Stage)
	assert.Equal(t, 500, entry.Quantity)
	assert.Equal(t, 500, entry.AvailableQuantity)
	assert.Equal(t, 50, entry.AvailableBottles)
	assert.Equal(t, domain.TransferAvailable, entry.Status)

	row := batch.Summary.Row(domain.SizeR1)
	assert.Equal(t, 500, row.TotalPlants)
	assert.Equal(t, 500, row.AvailablePlants)
	assert.Equal(t, 50, row.AvailableBottles)
}

func TestTransfer_PrimaryInward_DebitsSourceAndSummary(t *testing.T) {
	svc := newTransferService(t)
	batchID, labID := newBatchWithLab(t, svc)

	// 10 cavities x 20 trays = 200 plants out of the lab entry.
	batch, err := svc.Transfer(context.Background(), batchID, domain.StagePrimaryInward, labID, domain.TransferRequest{
		Date:       transferDate,
		Size:       domain.SizeR1,
		Bottles:    20,
		CavitySize: 10,
		TrayCount:  20,
	})
	require.NoError(t, err)

	source := batch.Entry(domain.StageLab, labID)
	require.NotNil(t, source)
	assert.Equal(t, 300, source.AvailableQuantity)
	assert.Equal(t, 30, source.AvailableBottles)
	assert.Equal(t, domain.TransferPartial, source.Status)
	require.Len(t, source.Transfers, 1)
	assert.Equal(t, 200, source.Transfers[0].Quantity)
	assert.Equal(t, 20, source.Transfers[0].Bottles)

	require.Len(t, batch.PrimaryInward, 1)
	dest := batch.PrimaryInward[0]
	assert.Equal(t, 200, dest.Quantity)
	assert.Equal(t, 200, dest.AvailableQuantity)
	assert.Equal(t, labID, dest.SourceEntryID)
	assert.Equal(t, source.Transfers[0].DestinationEntryID, dest.ID)

	row := batch.Summary.Row(domain.SizeR1)
	assert.Equal(t, 500, row.TotalPlants)
	assert.Equal(t, 300, row.AvailablePlants)
	assert.Equal(t, 30, row.AvailableBottles)
	assert.Equal(t, 200, row.PrimaryInwardPlants)
	assert.Equal(t, 20, row.PrimaryInwardBottle)
}

func TestTransfer_FullChainThroughAllStages(t *testing.T) {
	svc := newTransferService(t)
	batchID, labID := newBatchWithLab(t, svc)
	ctx := context.Background()

	req := domain.TransferRequest{
		Date:       transferDate,
		Size:       domain.SizeR1,
		Bottles:    50,
		CavitySize: 10,
		TrayCount:  50,
	}
	batch, err := svc.Transfer(ctx, batchID, domain.StagePrimaryInward, labID, req)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferFull, batch.Entry(domain.StageLab, labID).Status)
	assert.Equal(t, 0, batch.Entry(domain.StageLab, labID).AvailableBottles)

	req.Bottles = 0
	sourceID := batch.PrimaryInward[0].ID
	batch, err = svc.Transfer(ctx, batchID, domain.StagePrimaryOutward, sourceID, req)
	require.NoError(t, err)

	sourceID = batch.PrimaryOutward[0].ID
	batch, err = svc.Transfer(ctx, batchID, domain.StageSecondaryInward, sourceID, req)
	require.NoError(t, err)

	sourceID = batch.SecondaryInward[0].ID
	batch, err = svc.Transfer(ctx, batchID, domain.StageSecondaryOutward, sourceID, req)
	require.NoError(t, err)

	for _, entries := range [][]domain.StageEntry{
		batch.PrimaryInward, batch.PrimaryOutward, batch.SecondaryInward,
	} {
		require.Len(t, entries, 1)
		assert.Equal(t, domain.TransferFull, entries[0].Status)
		assert.Equal(t, 0, entries[0].AvailableQuantity)
	}
	require.Len(t, batch.SecondaryOutward, 1)
	assert.Equal(t, 500, batch.SecondaryOutward[0].AvailableQuantity)
	assert.Equal(t, domain.TransferAvailable, batch.SecondaryOutward[0].Status)
}

func TestTransfer_ConservesPlantTotals(t *testing.T) {
	// available + sum(transferred) always equals the entry's quantity.
	svc := newTransferService(t)
	batchID, labID := newBatchWithLab(t, svc)
	ctx := context.Background()

	for _, trays := range []int{10, 15, 5} {
		_, err := svc.Transfer(ctx, batchID, domain.StagePrimaryInward, labID, domain.TransferRequest{
			Date:       transferDate,
			Size:       domain.SizeR1,
			CavitySize: 10,
			TrayCount:  trays,
		})
		require.NoError(t, err)
	}

	batch, err := svc.GetBatch(ctx, batchID)
	require.NoError(t, err)
	source := batch.Entry(domain.StageLab, labID)
	moved := 0
	for _, rec := range source.Transfers {
		moved += rec.Quantity
	}
	assert.Equal(t, source.Quantity, source.AvailableQuantity+moved)
	assert.Equal(t, 200, source.AvailableQuantity)
	assert.Len(t, batch.PrimaryInward, 3)
}

func TestTransfer_InsufficientStockLeavesBatchUntouched(t *testing.T) {
	svc := newTransferService(t)
	batchID, labID := newBatchWithLab(t, svc)
	ctx := context.Background()

	// 501 plants from a 500-plant entry.
	_, err := svc.Transfer(ctx, batchID, domain.StagePrimaryInward, labID, domain.TransferRequest{
		Date:       transferDate,
		Size:       domain.SizeR1,
		CavitySize: 3,
		TrayCount:  167,
	})

	var stockErr *domain.StockError
	require.ErrorAs(t, err, &stockErr)
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
	assert.Equal(t, 501, stockErr.Requested)

	batch, err := svc.GetBatch(ctx, batchID)
	require.NoError(t, err)
	assert.Equal(t, 500, batch.Entry(domain.StageLab, labID).AvailableQuantity)
	assert.Empty(t, batch.PrimaryInward)
	assert.Empty(t, batch.Entry(domain.StageLab, labID).Transfers)
}

func TestTransfer_InsufficientBottlesRejected(t *testing.T) {
	svc := newTransferService(t)
	batchID, labID := newBatchWithLab(t, svc)

	_, err := svc.Transfer(context.Background(), batchID, domain.StagePrimaryInward, labID, domain.TransferRequest{
		Date:       transferDate,
		Size:       domain.SizeR1,
		Bottles:    51,
		CavitySize: 10,
		TrayCount:  10,
	})
	assert.ErrorIs(t, err, domain.ErrInsufficientStock)
}

func TestTransfer_MissingFieldsRejected(t *testing.T) {
	svc := newTransferService(t)
	batchID, labID := newBatchWithLab(t, svc)
	ctx := context.Background()

	cases := []struct {
		name  string
		req   domain.TransferRequest
		field string
	}{
		{"no date", domain.TransferRequest{Size: domain.SizeR1, CavitySize: 10, TrayCount: 5}, "date"},
		{"no size", domain.TransferRequest{Date: transferDate, CavitySize: 10, TrayCount: 5}, "size"},
		{"no cavity size", domain.TransferRequest{Date: transferDate, Size: domain.SizeR1, TrayCount: 5}, "cavity_size"},
		{"no tray count", domain.TransferRequest{Date: transferDate, Size: domain.SizeR1, CavitySize: 10}, "tray_count"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Transfer(ctx, batchID, domain.StagePrimaryInward, labID, tc.req)
			var missing *domain.MissingFieldError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, tc.field, missing.Field)
		})
	}
}

func TestTransfer_InvalidTransitionRejected(t *testing.T) {
	svc := newTransferService(t)
	batchID, labID := newBatchWithLab(t, svc)
	ctx := context.Background()

	req := domain.TransferRequest{
		Date:       transferDate,
		Size:       domain.SizeR1,
		CavitySize: 10,
		TrayCount:  5,
	}

	// Lab is the pipeline head, not a transfer destination.
	_, err := svc.Transfer(ctx, batchID, domain.StageLab, labID, req)
	assert.ErrorIs(t, err, domain.ErrValidation)

	// Skipping primary inward entirely.
	_, err = svc.Transfer(ctx, batchID, domain.StagePrimaryOutward, labID, req)
	assert.True(t, domain.IsNotFound(err))
}

func TestTransfer_UnknownSourceEntry(t *testing.T) {
	svc := newTransferService(t)
	batchID, _ := newBatchWithLab(t, svc)

	_, err := svc.Transfer(context.Background(), batchID, domain.StagePrimaryInward, 999, domain.TransferRequest{
		Date:       transferDate,
		Size:       domain.SizeR1,
		CavitySize: 10,
		TrayCount:  5,
	})
	assert.True(t, domain.IsNotFound(err))
}

func TestSaveBatch_StaleVersionConflicts(t *testing.T) {
	store := memory.NewStore()
	svc := service.NewTransferService(store)
	batchID, _ := newBatchWithLab(t, svc)
	ctx := context.Background()

	stale, err := store.GetBatch(ctx, batchID)
	require.NoError(t, err)

	_, err = svc.AddLabEntry(ctx, batchID, transferDate, domain.SizeR2, 10, 100)
	require.NoError(t, err)

	_, err = store.SaveBatch(ctx, stale)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestCreateBatch_Validation(t *testing.T) {
	svc := newTransferService(t)
	ctx := context.Background()

	_, err := svc.CreateBatch(ctx, 0, 1, "B-1")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = svc.CreateBatch(ctx, 1, 1, "")
	assert.ErrorIs(t, err, domain.ErrMissingField)
}
