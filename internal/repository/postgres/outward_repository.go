// backend-go/internal/repository/postgres/outward_repository.go
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/vrukshagro/backend-go/internal/domain"
)

type outwardRepository struct {
	db *DB
}

func NewOutwardRepository(db *DB) *outwardRepository {
	return &outwardRepository{db: db}
}

// Batches persist as one document per batch. A transfer mutates the source
// entry, appends the destination entry and rewrites the summary in a single
// document write, so readers never observe a torn summary.

func (r *outwardRepository) CreateBatch(ctx context.Context, batch *domain.OutwardBatch) (*domain.OutwardBatch, error) {
	now := time.Now().UTC()
	batch.CreatedAt = now
	batch.UpdatedAt = now
	batch.Version = 1
	batch.RecomputeSummary()

	doc, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch: %w", err)
	}

	err = r.db.QueryRowContext(ctx, `
		INSERT INTO outward_batches (plant_id, subtype_id, batch_code, version, doc, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $6)
		RETURNING id`,
		batch.PlantID, batch.SubtypeID, batch.BatchCode, batch.Version, doc, now,
	).Scan(&batch.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to insert batch: %w", err)
	}
	return batch, nil
}

func (r *outwardRepository) GetBatch(ctx context.Context, batchID int64) (*domain.OutwardBatch, error) {
	var (
		doc     []byte
		version int64
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT doc, version FROM outward_batches WHERE id = $1`, batchID,
	).Scan(&doc, &version)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get batch: %w", err)
	}

	var batch domain.OutwardBatch
	if err := json.Unmarshal(doc, &batch); err != nil {
		return nil, fmt.Errorf("failed to decode batch: %w", err)
	}
	batch.ID = batchID
	batch.Version = version
	return &batch, nil
}

// SaveBatch rewrites the whole document, guarded by the version read when
// the batch was loaded. A concurrent writer to the same batch loses the
// version race and gets ErrConflict.
func (r *outwardRepository) SaveBatch(ctx context.Context, batch *domain.OutwardBatch) (*domain.OutwardBatch, error) {
	batch.UpdatedAt = time.Now().UTC()
	newVersion := batch.Version + 1

	doc, err := json.Marshal(batch)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE outward_batches
		SET doc = $1, version = $2, updated_at = $3
		WHERE id = $4 AND version = $5`,
		doc, newVersion, batch.UpdatedAt, batch.ID, batch.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to save batch: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to save batch: %w", err)
	}
	if affected == 0 {
		var exists bool
		if err := r.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM outward_batches WHERE id = $1)`, batch.ID,
		).Scan(&exists); err != nil {
			return nil, fmt.Errorf("failed to save batch: %w", err)
		}
		if !exists {
			return nil, domain.ErrNotFound
		}
		return nil, domain.ErrConflict
	}

	batch.Version = newVersion
	return batch, nil
}
