// backend-go/internal/api/handlers/wallet_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/vrukshagro/backend-go/internal/domain"
	"github.com/vrukshagro/backend-go/internal/service"
)

type WalletHandler struct {
	walletService *service.WalletService
}

func NewWalletHandler(walletService *service.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// GetWallet returns the dealer's statement: balance, entries and the
// transaction log.
func (h *WalletHandler) GetWallet(c *gin.Context) {
	dealerID, ok := parseIDParam(c, "dealerId")
	if !ok {
		return
	}

	wallet, err := h.walletService.GetWallet(c.Request.Context(), dealerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}

type transactionRequest struct {
	Type        domain.TransactionType `json:"type" binding:"required"`
	Amount      decimal.Decimal        `json:"amount" binding:"required"`
	Description string                 `json:"description"`
	PerformedBy string                 `json:"performed_by" binding:"required"`
	Reference   string                 `json:"reference"`
	ReferenceID string                 `json:"reference_id"`
}

// RecordTransaction appends one transaction to the dealer's wallet ledger.
func (h *WalletHandler) RecordTransaction(c *gin.Context) {
	dealerID, ok := parseIDParam(c, "dealerId")
	if !ok {
		return
	}
	var req transactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	tx, err := h.walletService.RecordTransaction(c.Request.Context(), dealerID,
		req.Type, req.Amount, req.Description, req.PerformedBy, req.Reference, req.ReferenceID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}

type paymentRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description"`
	PerformedBy string          `json:"performed_by" binding:"required"`
}

// AddPayment records a payment; the sign of the amount decides CREDIT or
// DEBIT.
func (h *WalletHandler) AddPayment(c *gin.Context) {
	dealerID, ok := parseIDParam(c, "dealerId")
	if !ok {
		return
	}
	var req paymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	tx, err := h.walletService.AddPayment(c.Request.Context(), dealerID, req.Amount, req.Description, req.PerformedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tx)
}
