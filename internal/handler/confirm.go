package handler

import (
	"net/http"
	"time"

	"agrosnab/internal/dto"
	"agrosnab/internal/middleware"
	"agrosnab/internal/model"
	"agrosnab/internal/service"

	"github.com/gin-gonic/gin"
)

type ConfirmHandler struct {
	svc service.ConfirmService
	ttl time.Duration
}

func NewConfirmHandler(svc service.ConfirmService, ttl time.Duration) *ConfirmHandler {
	return &ConfirmHandler{svc: svc, ttl: ttl}
}

// Prepare stores a pending destructive action and returns its one-shot id.
func (h *ConfirmHandler) Prepare(c *gin.Context) {
	var req dto.PrepareActionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor := middleware.GetActor(c)
	id, err := h.svc.Prepare(c.Request.Context(), req.ActionType, model.StockActionPayload{
		RowNumber: req.RowNumber,
		SKU:       req.SKU,
		Qty:       req.Qty,
		NewStock:  req.NewStock,
		Reason:    req.Reason,
	}, actor.ID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.PrepareActionResponse{
		ActionID:   id,
		ActionType: req.ActionType,
		ExpiresIn:  int(h.ttl.Seconds()),
	})
}

// Execute consumes a pending action and runs it.
func (h *ConfirmHandler) Execute(c *gin.Context) {
	result, err := h.svc.Execute(c.Request.Context(), c.Param("id"), middleware.GetActor(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	writeOpResult(c, result)
}

// Cancel discards a pending action.
func (h *ConfirmHandler) Cancel(c *gin.Context) {
	actor := middleware.GetActor(c)
	if err := h.svc.Cancel(c.Request.Context(), c.Param("id"), actor.ID); err != nil {
		writeServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
