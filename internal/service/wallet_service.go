// backend-go/internal/service/wallet_service.go
package service

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/vrukshagro/backend-go/internal/domain"
	"github.com/vrukshagro/backend-go/internal/repository"
)

// WalletService manages dealer wallets: pre-purchased plant allocations and
// the monetary audit ledger. Wallets are created lazily on first use.
type WalletService struct {
	repo repository.WalletRepository
}

func NewWalletService(repo repository.WalletRepository) *WalletService {
	return &WalletService{repo: repo}
}

func (s *WalletService) GetWallet(ctx context.Context, dealerID int64) (*domain.DealerWallet, error) {
	if dealerID <= 0 {
		return nil, domain.ErrValidation
	}
	return s.repo.GetByDealer(ctx, dealerID)
}

// loadOrNew returns the dealer's wallet, or a fresh one when none exists.
func (s *WalletService) loadOrNew(ctx context.Context, dealerID int64) (*domain.DealerWallet, error) {
	wallet, err := s.repo.GetByDealer(ctx, dealerID)
	if domain.IsNotFound(err) {
		return domain.NewDealerWallet(dealerID), nil
	}
	if err != nil {
		return nil, err
	}
	return wallet, nil
}

// RecordTransaction appends one immutable transaction to the wallet ledger
// and persists the new balance as a single document write.
func (s *WalletService) RecordTransaction(ctx context.Context, dealerID int64, txType domain.TransactionType, amount decimal.Decimal, description, performedBy, reference, referenceID string) (*domain.WalletTransaction, error) {
	if dealerID <= 0 {
		return nil, domain.ErrValidation
	}
	wallet, err := s.loadOrNew(ctx, dealerID)
	if err != nil {
		return nil, err
	}
	tx, err := wallet.ApplyTransaction(txType, amount, description, performedBy, reference, referenceID)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.SaveWallet(ctx, wallet); err != nil {
		return nil, err
	}
	log.Info().Int64("dealer_id", dealerID).Str("type", string(txType)).
		Str("amount", amount.String()).Str("balance", wallet.AvailableAmount.String()).
		Msg("wallet transaction recorded")
	return tx, nil
}

// AddPayment records a payment against the wallet, deriving CREDIT or DEBIT
// from the sign of the amount.
func (s *WalletService) AddPayment(ctx context.Context, dealerID int64, amount decimal.Decimal, description, performedBy string) (*domain.WalletTransaction, error) {
	txType := domain.TxCredit
	if amount.IsNegative() {
		txType = domain.TxDebit
		amount = amount.Neg()
	}
	return s.RecordTransaction(ctx, dealerID, txType, amount, description, performedBy, "payment", "")
}

// UpdateBalance adjusts the wallet balance, deriving CREDIT or DEBIT from
// the sign of the amount.
func (s *WalletService) UpdateBalance(ctx context.Context, dealerID int64, amount decimal.Decimal, description, performedBy string) (*domain.WalletTransaction, error) {
	txType := domain.TxCredit
	if amount.IsNegative() {
		txType = domain.TxDebit
		amount = amount.Neg()
	}
	return s.RecordTransaction(ctx, dealerID, txType, amount, description, performedBy, "adjustment", "")
}

// Allocate books up to quantity plants from the dealer's wallet entry for
// the plant, subtype and slot period. The mutated wallet is returned for
// the caller to persist inside its own transaction; when no wallet or entry
// exists the full demand falls through to slot capacity and the returned
// wallet is nil.
func (s *WalletService) Allocate(ctx context.Context, dealerID, plantID, subtypeID, slotPeriodID int64, quantity int) (domain.Allocation, *domain.DealerWallet, error) {
	if dealerID <= 0 || quantity <= 0 {
		return domain.Allocation{}, nil, domain.ErrValidation
	}
	wallet, err := s.repo.GetByDealer(ctx, dealerID)
	if domain.IsNotFound(err) {
		return domain.Allocation{FromWallet: 0, FromSlot: quantity}, nil, nil
	}
	if err != nil {
		return domain.Allocation{}, nil, err
	}
	alloc, err := wallet.Allocate(plantID, subtypeID, slotPeriodID, quantity)
	if err != nil {
		return domain.Allocation{}, nil, err
	}
	if alloc.FromWallet == 0 {
		return alloc, nil, nil
	}
	return alloc, wallet, nil
}
