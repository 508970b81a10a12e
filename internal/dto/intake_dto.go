package dto

import (
	"agrosnab/internal/model"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type StartIntakeRequest struct {
	// Exactly one of Name (new product) or SKU (restock) must be set.
	Name string `json:"name" validate:"required_without=SKU,omitempty,min=2,max=120"`
	SKU  string `json:"sku"  validate:"required_without=Name,omitempty,max=32"`
}

type UpdateIntakeRequest struct {
	Name     *string          `json:"name"      validate:"omitempty,min=2,max=120"`
	Price    *decimal.Decimal `json:"price_rub"`
	Quantity *int             `json:"quantity"  validate:"omitempty,min=1"`
	PhotoURL *string          `json:"photo_url" validate:"omitempty,url"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type IntakeDraftResponse struct {
	Name         string          `json:"name,omitempty"`
	Price        decimal.Decimal `json:"price_rub"`
	Quantity     int             `json:"quantity,omitempty"`
	SKU          string          `json:"sku,omitempty"`
	IsNewProduct bool            `json:"is_new_product"`
	PhotoURL     string          `json:"photo_url,omitempty"`
}

type CompleteIntakeResponse struct {
	Product ProductResponse `json:"product"`
	Result  StockOpResponse `json:"result"`
}

func FromIntakeDraft(d *model.IntakeDraft) IntakeDraftResponse {
	return IntakeDraftResponse{
		Name:         d.Name,
		Price:        d.Price,
		Quantity:     d.Quantity,
		SKU:          d.SKU,
		IsNewProduct: d.IsNewProduct,
		PhotoURL:     d.PhotoURL,
	}
}
