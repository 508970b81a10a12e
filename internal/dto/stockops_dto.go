package dto

import "agrosnab/internal/model"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type WriteOffRequest struct {
	RowNumber   int    `json:"row_number"   validate:"required,min=2"`
	SKU         string `json:"sku"          validate:"required"`
	Qty         int    `json:"qty"          validate:"required,min=1"`
	Reason      string `json:"reason"       validate:"required,min=2,max=200"`
	OperationID string `json:"operation_id" validate:"omitempty,max=64"`
}

type CorrectionRequest struct {
	RowNumber   int    `json:"row_number"   validate:"required,min=2"`
	SKU         string `json:"sku"          validate:"required"`
	NewStock    int    `json:"new_stock"    validate:"min=0"`
	Reason      string `json:"reason"       validate:"required,min=2,max=200"`
	OperationID string `json:"operation_id" validate:"omitempty,max=64"`
}

type ArchiveRequest struct {
	RowNumber   int    `json:"row_number"   validate:"required,min=2"`
	SKU         string `json:"sku"          validate:"required"`
	ZeroOut     bool   `json:"zero_out"`
	OperationID string `json:"operation_id" validate:"omitempty,max=64"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type StockOpResponse struct {
	OK          bool   `json:"ok"`
	StockBefore int    `json:"stock_before"`
	StockAfter  int    `json:"stock_after"`
	OperationID string `json:"operation_id"`
	ErrorKind   string `json:"error_kind,omitempty"`
	Error       string `json:"error,omitempty"`
}

func FromStockOpResult(r model.StockOpResult) StockOpResponse {
	return StockOpResponse{
		OK:          r.OK,
		StockBefore: r.StockBefore,
		StockAfter:  r.StockAfter,
		OperationID: r.OperationID,
		ErrorKind:   r.Kind,
		Error:       r.Error,
	}
}
