package handler

import (
	"net/http"

	"agrosnab/internal/apierror"
	"agrosnab/internal/dto"
	"agrosnab/internal/middleware"
	"agrosnab/internal/model"
	"agrosnab/internal/service"

	"github.com/gin-gonic/gin"
)

type IntakeHandler struct{ svc service.IntakeService }

func NewIntakeHandler(svc service.IntakeService) *IntakeHandler {
	return &IntakeHandler{svc: svc}
}

func (h *IntakeHandler) Get(c *gin.Context) {
	actor := middleware.GetActor(c)
	draft, err := h.svc.Get(c.Request.Context(), actor.ID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if draft == nil {
		c.JSON(http.StatusNotFound, apierror.New("no active intake session"))
		return
	}
	c.JSON(http.StatusOK, dto.FromIntakeDraft(draft))
}

// Start opens a fresh draft, replacing any existing one for this operator.
func (h *IntakeHandler) Start(c *gin.Context) {
	var req dto.StartIntakeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor := middleware.GetActor(c)

	start := func() (*model.IntakeDraft, error) {
		if req.SKU != "" {
			return h.svc.StartRestock(c.Request.Context(), actor.ID, req.SKU)
		}
		return h.svc.StartNew(c.Request.Context(), actor.ID, req.Name)
	}
	draft, err := start()
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.FromIntakeDraft(draft))
}

func (h *IntakeHandler) Update(c *gin.Context) {
	var req dto.UpdateIntakeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	actor := middleware.GetActor(c)
	draft, err := h.svc.Update(c.Request.Context(), actor.ID, service.IntakeDraftPatch{
		Name:     req.Name,
		Price:    req.Price,
		Quantity: req.Quantity,
		PhotoURL: req.PhotoURL,
	})
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromIntakeDraft(draft))
}

func (h *IntakeHandler) Complete(c *gin.Context) {
	product, result, err := h.svc.Complete(c.Request.Context(), middleware.GetActor(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if !result.OK {
		writeOpResult(c, result)
		return
	}
	c.JSON(http.StatusOK, dto.CompleteIntakeResponse{
		Product: dto.FromProduct(*product),
		Result:  dto.FromStockOpResult(result),
	})
}

func (h *IntakeHandler) Cancel(c *gin.Context) {
	actor := middleware.GetActor(c)
	deleted, err := h.svc.Cancel(c.Request.Context(), actor.ID)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	if !deleted {
		c.JSON(http.StatusNotFound, apierror.New("no active intake session"))
		return
	}
	c.Status(http.StatusNoContent)
}
