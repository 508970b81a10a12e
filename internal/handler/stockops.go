package handler

import (
	"agrosnab/internal/dto"
	"agrosnab/internal/middleware"
	"agrosnab/internal/service"

	"github.com/gin-gonic/gin"
)

// StockOpsHandler exposes the direct (non-confirmed) stock operations.
// Destructive operations normally go through the confirmation flow; these
// endpoints exist for trusted automation and carry the owner role guard.
type StockOpsHandler struct{ svc service.StockOpsService }

func NewStockOpsHandler(svc service.StockOpsService) *StockOpsHandler {
	return &StockOpsHandler{svc: svc}
}

func (h *StockOpsHandler) WriteOff(c *gin.Context) {
	var req dto.WriteOffRequest
	if !bindAndValidate(c, &req) {
		return
	}
	result := h.svc.WriteOff(c.Request.Context(), service.WriteOffInput{
		RowNumber:   req.RowNumber,
		SKU:         req.SKU,
		Qty:         req.Qty,
		Reason:      req.Reason,
		Actor:       middleware.GetActor(c),
		OperationID: req.OperationID,
	})
	writeOpResult(c, result)
}

func (h *StockOpsHandler) Correction(c *gin.Context) {
	var req dto.CorrectionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	result := h.svc.Correction(c.Request.Context(), service.CorrectionInput{
		RowNumber:   req.RowNumber,
		SKU:         req.SKU,
		NewStock:    req.NewStock,
		Reason:      req.Reason,
		Actor:       middleware.GetActor(c),
		OperationID: req.OperationID,
	})
	writeOpResult(c, result)
}

func (h *StockOpsHandler) Archive(c *gin.Context) {
	var req dto.ArchiveRequest
	if !bindAndValidate(c, &req) {
		return
	}
	in := service.ArchiveInput{
		RowNumber:   req.RowNumber,
		SKU:         req.SKU,
		Actor:       middleware.GetActor(c),
		OperationID: req.OperationID,
	}
	if req.ZeroOut {
		writeOpResult(c, h.svc.ArchiveZeroOut(c.Request.Context(), in))
		return
	}
	writeOpResult(c, h.svc.ArchiveSimple(c.Request.Context(), in))
}
