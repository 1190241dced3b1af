// backend-go/internal/api/handlers/transfer_handler.go
package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vrukshagro/backend-go/internal/domain"
	"github.com/vrukshagro/backend-go/internal/service"
)

type TransferHandler struct {
	transferService *service.TransferService
}

func NewTransferHandler(transferService *service.TransferService) *TransferHandler {
	return &TransferHandler{transferService: transferService}
}

type createBatchRequest struct {
	PlantID   int64  `json:"plant_id" binding:"required"`
	SubtypeID int64  `json:"subtype_id" binding:"required"`
	BatchCode string `json:"batch_code" binding:"required"`
}

func (h *TransferHandler) CreateBatch(c *gin.Context) {
	var req createBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	batch, err := h.transferService.CreateBatch(c.Request.Context(), req.PlantID, req.SubtypeID, req.BatchCode)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, batch)
}

func (h *TransferHandler) GetBatch(c *gin.Context) {
	batchID, ok := parseIDParam(c, "batchId")
	if !ok {
		return
	}

	batch, err := h.transferService.GetBatch(c.Request.Context(), batchID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, batch)
}

type labEntryRequest struct {
	Date    time.Time        `json:"date" binding:"required"`
	Size    domain.SizeClass `json:"size" binding:"required"`
	Bottles int              `json:"bottles" binding:"required"`
	Plants  int              `json:"plants" binding:"required"`
}

// AddLabEntry records production output at the head of the pipeline.
func (h *TransferHandler) AddLabEntry(c *gin.Context) {
	batchID, ok := parseIDParam(c, "batchId")
	if !ok {
		return
	}
	var req labEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	batch, err := h.transferService.AddLabEntry(c.Request.Context(), batchID, req.Date, req.Size, req.Bottles, req.Plants)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, batch)
}

type transferRequest struct {
	SourceEntryID     int64            `json:"source_entry_id" binding:"required"`
	Date              time.Time        `json:"date"`
	Size              domain.SizeClass `json:"size"`
	Bottles           int              `json:"bottles"`
	CavitySize        int              `json:"cavity_size"`
	TrayCount         int              `json:"tray_count"`
	Facility          string           `json:"facility"`
	Labour            string           `json:"labour"`
	QualityOfDispatch string           `json:"quality_of_dispatch"`
	Remark            string           `json:"remark"`
}

// Transfer applies one stage transition; the destination stage comes from
// the route, the source entry from the body.
func (h *TransferHandler) Transfer(c *gin.Context) {
	batchID, ok := parseIDParam(c, "batchId")
	if !ok {
		return
	}
	dest := domain.Stage(c.Param("stage"))
	if _, ok := domain.SourceStage(dest); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid destination stage"})
		return
	}
	var req transferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	batch, err := h.transferService.Transfer(c.Request.Context(), batchID, dest, req.SourceEntryID, domain.TransferRequest{
		Date:              req.Date,
		Size:              req.Size,
		Bottles:           req.Bottles,
		CavitySize:        req.CavitySize,
		TrayCount:         req.TrayCount,
		Facility:          req.Facility,
		Labour:            req.Labour,
		QualityOfDispatch: req.QualityOfDispatch,
		Remark:            req.Remark,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, batch)
}
