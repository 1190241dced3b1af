package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionType is the business reason for a wallet movement.
type TransactionType string

const (
	TxCredit           TransactionType = "CREDIT"
	TxDebit            TransactionType = "DEBIT"
	TxInventoryAdd     TransactionType = "INVENTORY_ADD"
	TxInventoryBook    TransactionType = "INVENTORY_BOOK"
	TxInventoryRelease TransactionType = "INVENTORY_RELEASE"
)

// ValidTransactionType reports whether t is a known wallet transaction type.
func ValidTransactionType(t TransactionType) bool {
	switch t {
	case TxCredit, TxDebit, TxInventoryAdd, TxInventoryBook, TxInventoryRelease:
		return true
	}
	return false
}

// WalletTransaction is one immutable row of the wallet's audit ledger.
type WalletTransaction struct {
	ID            string          `json:"id"`
	Type          TransactionType `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	BalanceBefore decimal.Decimal `json:"balance_before"`
	BalanceAfter  decimal.Decimal `json:"balance_after"`
	Description   string          `json:"description"`
	PerformedBy   string          `json:"performed_by"`
	Reference     string          `json:"reference,omitempty"`
	ReferenceID   string          `json:"reference_id,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// WalletEntry is a pre-purchased plant allocation against a plant-subtype
// and optional slot period. RemainingQuantity is recomputed on every save.
type WalletEntry struct {
	PlantID           int64 `json:"plant_id"`
	SubtypeID         int64 `json:"subtype_id"`
	SlotPeriodID      int64 `json:"slot_period_id,omitempty"`
	Quantity          int   `json:"quantity"`
	BookedQuantity    int   `json:"booked_quantity"`
	RemainingQuantity int   `json:"remaining_quantity"`
}

// Allocation is the outcome of servicing order demand from a wallet:
// FromWallet + FromSlot always equals the requested quantity.
type Allocation struct {
	FromWallet int `json:"from_wallet"`
	FromSlot   int `json:"from_slot"`
}

// DealerWallet is one dealer's ledger of plant-quantity entitlements and
// monetary movements. It persists as a single document; concurrent writers
// are serialized by a version check on save.
type DealerWallet struct {
	ID              int64               `json:"id"`
	DealerID        int64               `json:"dealer_id"`
	AvailableAmount decimal.Decimal     `json:"available_amount"`
	Entries         []WalletEntry       `json:"entries"`
	Transactions    []WalletTransaction `json:"transactions"`
	Version         int64               `json:"version"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// NewDealerWallet returns an empty wallet for a dealer. Wallets are created
// lazily on first allocation or transaction.
func NewDealerWallet(dealerID int64) *DealerWallet {
	return &DealerWallet{
		DealerID:        dealerID,
		AvailableAmount: decimal.Zero,
		CreatedAt:       time.Now().UTC(),
	}
}

func (w *DealerWallet) findEntry(plantID, subtypeID, slotPeriodID int64) *WalletEntry {
	for i := range w.Entries {
		e := &w.Entries[i]
		if e.PlantID == plantID && e.SubtypeID == subtypeID && e.SlotPeriodID == slotPeriodID {
			return e
		}
	}
	return nil
}

// Normalize recomputes each entry's remaining quantity. Called before every
// save so persisted documents never carry a stale derived value.
func (w *DealerWallet) Normalize() {
	for i := range w.Entries {
		w.Entries[i].RemainingQuantity = w.Entries[i].Quantity - w.Entries[i].BookedQuantity
	}
}

// Allocate books up to requested plants from the entry matching the plant,
// subtype and slot period. Demand the wallet cannot cover is returned as
// FromSlot for the caller to reserve from slot capacity.
func (w *DealerWallet) Allocate(plantID, subtypeID, slotPeriodID int64, requested int) (Allocation, error) {
	if requested <= 0 {
		return Allocation{}, ErrValidation
	}
	entry := w.findEntry(plantID, subtypeID, slotPeriodID)
	if entry == nil {
		return Allocation{FromWallet: 0, FromSlot: requested}, nil
	}
	available := entry.Quantity - entry.BookedQuantity
	if available <= 0 {
		return Allocation{FromWallet: 0, FromSlot: requested}, nil
	}
	fromWallet := requested
	if available < requested {
		fromWallet = available
	}
	entry.BookedQuantity += fromWallet
	w.Normalize()
	return Allocation{FromWallet: fromWallet, FromSlot: requested - fromWallet}, nil
}

// ReleaseBooking returns quantity plants to the matching entry's unbooked
// pool, used when a wallet-routed order is cancelled or rejected.
func (w *DealerWallet) ReleaseBooking(plantID, subtypeID, slotPeriodID int64, quantity int) {
	entry := w.findEntry(plantID, subtypeID, slotPeriodID)
	if entry == nil {
		return
	}
	entry.BookedQuantity -= quantity
	if entry.BookedQuantity < 0 {
		entry.BookedQuantity = 0
	}
	w.Normalize()
}

// CreditStock adds quantity plants to the entry for the plant, subtype and
// slot period, creating the entry when absent. Used for dealer self-stock
// orders.
func (w *DealerWallet) CreditStock(plantID, subtypeID, slotPeriodID int64, quantity int) {
	entry := w.findEntry(plantID, subtypeID, slotPeriodID)
	if entry == nil {
		w.Entries = append(w.Entries, WalletEntry{
			PlantID:      plantID,
			SubtypeID:    subtypeID,
			SlotPeriodID: slotPeriodID,
		})
		entry = &w.Entries[len(w.Entries)-1]
	}
	entry.Quantity += quantity
	w.Normalize()
}

// DebitStock removes quantity plants from the matching entry, reversing an
// earlier CreditStock. The entry's quantity never drops below zero.
func (w *DealerWallet) DebitStock(plantID, subtypeID, slotPeriodID int64, quantity int) {
	entry := w.findEntry(plantID, subtypeID, slotPeriodID)
	if entry == nil {
		return
	}
	entry.Quantity -= quantity
	if entry.Quantity < 0 {
		entry.Quantity = 0
	}
	w.Normalize()
}

// ApplyTransaction computes the balance movement for the transaction type,
// appends the ledger record and updates the balance. CREDIT adds, DEBIT and
// INVENTORY_ADD subtract, INVENTORY_BOOK and INVENTORY_RELEASE record the
// amount without moving money. A DEBIT that would go negative is rejected
// and the wallet is unchanged.
func (w *DealerWallet) ApplyTransaction(txType TransactionType, amount decimal.Decimal, description, performedBy, reference, referenceID string) (*WalletTransaction, error) {
	if !ValidTransactionType(txType) {
		return nil, ErrValidation
	}
	if amount.IsNegative() {
		return nil, ErrValidation
	}

	before := w.AvailableAmount
	after := before
	switch txType {
	case TxCredit:
		after = before.Add(amount)
	case TxDebit, TxInventoryAdd:
		after = before.Sub(amount)
		if after.IsNegative() {
			return nil, &BalanceError{
				DealerID:  w.DealerID,
				Requested: amount.String(),
				Available: before.String(),
			}
		}
	case TxInventoryBook, TxInventoryRelease:
		// Inventory markers carry the amount for audit only.
	}

	tx := WalletTransaction{
		ID:            uuid.NewString(),
		Type:          txType,
		Amount:        amount,
		BalanceBefore: before,
		BalanceAfter:  after,
		Description:   description,
		PerformedBy:   performedBy,
		Reference:     reference,
		ReferenceID:   referenceID,
		CreatedAt:     time.Now().UTC(),
	}
	w.Transactions = append(w.Transactions, tx)
	w.AvailableAmount = after
	return &w.Transactions[len(w.Transactions)-1], nil
}
