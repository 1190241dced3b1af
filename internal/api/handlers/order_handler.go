// backend-go/internal/api/handlers/order_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/vrukshagro/backend-go/internal/domain"
	"github.com/vrukshagro/backend-go/internal/service"
)

type OrderHandler struct {
	orderService *service.OrderService
}

func NewOrderHandler(orderService *service.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

type createOrderRequest struct {
	FarmerID        int64              `json:"farmer_id"`
	DealerID        int64              `json:"dealer_id"`
	SalespersonID   int64              `json:"salesperson_id" binding:"required"`
	SalespersonRole string             `json:"salesperson_role"`
	PlantID         int64              `json:"plant_id" binding:"required"`
	SubtypeID       int64              `json:"subtype_id" binding:"required"`
	SlotPeriodID    int64              `json:"booking_slot" binding:"required"`
	Quantity        int                `json:"number_of_plants" binding:"required"`
	Rate            decimal.Decimal    `json:"rate"`
	DealerOrder     bool               `json:"dealer_order"`
	CompanyQuota    bool               `json:"company_quota"`
	Status          domain.OrderStatus `json:"order_status"`
	CreatedBy       string             `json:"created_by"`
}

func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	order, err := h.orderService.Create(c.Request.Context(), service.CreateOrderInput{
		FarmerID:        req.FarmerID,
		DealerID:        req.DealerID,
		SalespersonID:   req.SalespersonID,
		SalespersonRole: req.SalespersonRole,
		PlantID:         req.PlantID,
		SubtypeID:       req.SubtypeID,
		SlotPeriodID:    req.SlotPeriodID,
		Quantity:        req.Quantity,
		Rate:            req.Rate,
		DealerOrder:     req.DealerOrder,
		CompanyQuota:    req.CompanyQuota,
		Status:          req.Status,
		CreatedBy:       req.CreatedBy,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *OrderHandler) GetOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.Get(c.Request.Context(), orderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type updateOrderRequest struct {
	SlotPeriodID *int64           `json:"booking_slot"`
	Quantity     *int             `json:"number_of_plants"`
	Rate         *decimal.Decimal `json:"rate"`
	Reason       string           `json:"reason"`
	ChangedBy    string           `json:"changed_by"`
}

func (h *OrderHandler) UpdateOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req updateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	order, err := h.orderService.Update(c.Request.Context(), orderID, service.UpdateOrderInput{
		SlotPeriodID: req.SlotPeriodID,
		Quantity:     req.Quantity,
		Rate:         req.Rate,
		Reason:       req.Reason,
		ChangedBy:    req.ChangedBy,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type statusChangeRequest struct {
	Status    domain.OrderStatus `json:"status" binding:"required"`
	Reason    string             `json:"reason"`
	ChangedBy string             `json:"changed_by" binding:"required"`
}

func (h *OrderHandler) ChangeStatus(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req statusChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	order, err := h.orderService.ChangeStatus(c.Request.Context(), orderID, req.Status, req.Reason, req.ChangedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type orderPaymentRequest struct {
	Amount      decimal.Decimal      `json:"amount" binding:"required"`
	Mode        string               `json:"mode"`
	CollectedBy string               `json:"collected_by" binding:"required"`
	Status      domain.PaymentStatus `json:"status"`
}

func (h *OrderHandler) AddPayment(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req orderPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	order, err := h.orderService.AddPayment(c.Request.Context(), orderID, req.Amount, req.Mode, req.CollectedBy, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

type cancelOrderRequest struct {
	Reason    string `json:"reason"`
	ChangedBy string `json:"changed_by" binding:"required"`
}

func (h *OrderHandler) CancelOrder(c *gin.Context) {
	orderID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req cancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	order, err := h.orderService.Cancel(c.Request.Context(), orderID, req.Reason, req.ChangedBy)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
