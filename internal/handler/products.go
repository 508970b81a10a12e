package handler

import (
	"net/http"

	"agrosnab/internal/apierror"
	"agrosnab/internal/dto"
	"agrosnab/internal/middleware"
	"agrosnab/internal/service"

	"github.com/gin-gonic/gin"
)

type ProductsHandler struct{ svc service.ProductService }

func NewProductsHandler(svc service.ProductService) *ProductsHandler {
	return &ProductsHandler{svc: svc}
}

func (h *ProductsHandler) List(c *gin.Context) {
	var filter dto.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}

	if filter.Query != "" {
		products, err := h.svc.Search(c.Request.Context(), filter.Query, filter.Limit)
		if err != nil {
			writeServiceError(c, err)
			return
		}
		c.JSON(http.StatusOK, dto.FromProducts(products))
		return
	}

	products, err := h.svc.List(c.Request.Context(), filter.IncludeInactive)
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromProducts(products))
}

func (h *ProductsHandler) GetBySKU(c *gin.Context) {
	product, err := h.svc.GetBySKU(c.Request.Context(), c.Param("sku"))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromProduct(*product))
}

func (h *ProductsHandler) UpdatePhoto(c *gin.Context) {
	var req dto.UpdatePhotoRequest
	if !bindAndValidate(c, &req) {
		return
	}
	product, err := h.svc.UpdatePhoto(c.Request.Context(), c.Param("sku"), req.PhotoURL, middleware.GetActor(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromProduct(*product))
}

func (h *ProductsHandler) Restore(c *gin.Context) {
	product, err := h.svc.Restore(c.Request.Context(), c.Param("sku"), middleware.GetActor(c))
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.FromProduct(*product))
}

func (h *ProductsHandler) RefreshCache(c *gin.Context) {
	age, err := h.svc.RefreshCache(c.Request.Context())
	if err != nil {
		writeServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CacheRefreshResponse{PreviousAgeSeconds: age.Seconds()})
}
