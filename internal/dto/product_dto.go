package dto

import (
	"agrosnab/internal/model"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type UpdatePhotoRequest struct {
	PhotoURL string `json:"photo_url" validate:"required,url"`
}

type ProductFilter struct {
	Query           string `form:"q"`
	IncludeInactive bool   `form:"include_inactive"`
	Limit           int    `form:"limit,default=10" validate:"min=0,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductResponse struct {
	RowNumber     int             `json:"row_number"`
	SKU           string          `json:"sku"`
	Name          string          `json:"name"`
	Price         decimal.Decimal `json:"price_rub"`
	Stock         int             `json:"stock"`
	PhotoURL      string          `json:"photo_url,omitempty"`
	Description   string          `json:"description,omitempty"`
	Tags          string          `json:"tags,omitempty"`
	Active        bool            `json:"active"`
	LastIntakeAt  *string         `json:"last_intake_at,omitempty"`
	LastIntakeQty int             `json:"last_intake_qty,omitempty"`
	LastUpdatedBy string          `json:"last_updated_by,omitempty"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int               `json:"total"`
}

type CacheRefreshResponse struct {
	PreviousAgeSeconds float64 `json:"previous_age_seconds"`
}

func FromProduct(p model.Product) ProductResponse {
	resp := ProductResponse{
		RowNumber:     p.RowNumber,
		SKU:           p.SKU,
		Name:          p.Name,
		Price:         p.Price,
		Stock:         p.Stock,
		PhotoURL:      p.PhotoURL,
		Description:   p.Description,
		Tags:          p.Tags,
		Active:        p.Active,
		LastIntakeQty: p.LastIntakeQty,
		LastUpdatedBy: p.LastUpdatedBy,
	}
	if p.LastIntakeAt != nil {
		s := p.LastIntakeAt.UTC().Format("2006-01-02T15:04:05Z07:00")
		resp.LastIntakeAt = &s
	}
	return resp
}

func FromProducts(products []model.Product) ProductListResponse {
	out := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		out = append(out, FromProduct(p))
	}
	return ProductListResponse{Data: out, Total: len(out)}
}
