// backend-go/internal/repository/postgres/wallet_repository.go
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

type walletRepository struct {
	db *DB
}

func NewWalletRepository(db *DB) *walletRepository {
	return &walletRepository{db: db}
}

func scanWallet(row *sql.Row) (*domain.DealerWallet, error) {
	var (
		id, dealerID, version int64
		doc                   []byte
	)
	err := row.Scan(&id, &dealerID, &version, &doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan wallet: %w", err)
	}

	var wallet domain.DealerWallet
	if err := json.Unmarshal(doc, &wallet); err != nil {
		return nil, fmt.Errorf("failed to decode wallet: %w", err)
	}
	wallet.ID = id
	wallet.DealerID = dealerID
	wallet.Version = version
	return &wallet, nil
}

func getWalletByDealer(ctx context.Context, q querier, dealerID int64) (*domain.DealerWallet, error) {
	return scanWallet(q.QueryRowContext(ctx,
		`SELECT id, dealer_id, version, doc FROM dealer_wallets WHERE dealer_id = $1`, dealerID))
}

// saveWallet upserts the wallet document. Existing wallets are guarded by
// the version read at load time; a lost race returns ErrConflict.
func saveWallet(ctx context.Context, q querier, wallet *domain.DealerWallet) (*domain.DealerWallet, error) {
	wallet.Normalize()
	wallet.UpdatedAt = time.Now().UTC()

	if wallet.ID == 0 {
		wallet.Version = 1
		doc, err := json.Marshal(wallet)
		if err != nil {
			return nil, fmt.Errorf("failed to encode wallet: %w", err)
		}
		err = q.QueryRowContext(ctx, `
			INSERT INTO dealer_wallets (dealer_id, version, doc, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $4)
			RETURNING id`,
			wallet.DealerID, wallet.Version, doc, wallet.UpdatedAt,
		).Scan(&wallet.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to insert wallet: %w", err)
		}
		return wallet, nil
	}

	newVersion := wallet.Version + 1
	doc, err := json.Marshal(wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to encode wallet: %w", err)
	}
	res, err := q.ExecContext(ctx, `
		UPDATE dealer_wallets
		SET doc = $1, version = $2, updated_at = $3
		WHERE id = $4 AND version = $5`,
		doc, newVersion, wallet.UpdatedAt, wallet.ID, wallet.Version)
	if err != nil {
		return nil, fmt.Errorf("failed to save wallet: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to save wallet: %w", err)
	}
	if affected == 0 {
		return nil, domain.ErrConflict
	}
	wallet.Version = newVersion
	return wallet, nil
}

func (r *walletRepository) GetByDealer(ctx context.Context, dealerID int64) (*domain.DealerWallet, error) {
	return getWalletByDealer(ctx, r.db.DB.DB, dealerID)
}

func (r *walletRepository) SaveWallet(ctx context.Context, wallet *domain.DealerWallet) (*domain.DealerWallet, error) {
	return saveWallet(ctx, r.db.DB.DB, wallet)
}
