// backend-go/internal/api/handlers/slot_handler.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vrukshagro/backend-go/internal/service"
)

type SlotHandler struct {
	slotService *service.SlotService
}

func NewSlotHandler(slotService *service.SlotService) *SlotHandler {
	return &SlotHandler{slotService: slotService}
}

type registerSlotRequest struct {
	PlantID    int64 `json:"plant_id" binding:"required"`
	SubtypeID  int64 `json:"subtype_id" binding:"required"`
	Year       int   `json:"year" binding:"required"`
	PeriodDays int   `json:"period_days"`
	Capacity   int   `json:"capacity"`
}

// RegisterSlot bulk-creates a year of delivery periods for a plant subtype.
func (h *SlotHandler) RegisterSlot(c *gin.Context) {
	var req registerSlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	slot, err := h.slotService.RegisterSlot(c.Request.Context(), req.PlantID, req.SubtypeID, req.Year, req.PeriodDays, req.Capacity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, slot)
}

// GetPeriod returns a period's availability; reads go through the cache.
func (h *SlotHandler) GetPeriod(c *gin.Context) {
	periodID, ok := parseIDParam(c, "slotId")
	if !ok {
		return
	}

	period, err := h.slotService.GetPeriod(c.Request.Context(), periodID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, period)
}

type capacityRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// Reserve commits capacity from a slot period.
func (h *SlotHandler) Reserve(c *gin.Context) {
	periodID, ok := parseIDParam(c, "slotId")
	if !ok {
		return
	}
	var req capacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	period, err := h.slotService.Reserve(c.Request.Context(), periodID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, period)
}

// Release returns capacity to a slot period.
func (h *SlotHandler) Release(c *gin.Context) {
	periodID, ok := parseIDParam(c, "slotId")
	if !ok {
		return
	}
	var req capacityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	period, err := h.slotService.Release(c.Request.Context(), periodID, req.Quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, period)
}
