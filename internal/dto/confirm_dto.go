package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type PrepareActionRequest struct {
	ActionType string `json:"action_type" validate:"required,oneof=stock_writeoff stock_correction archive_simple archive_zero_out"`
	RowNumber  int    `json:"row_number"  validate:"required,min=2"`
	SKU        string `json:"sku"         validate:"required"`
	Qty        int    `json:"qty"         validate:"omitempty,min=1"`
	NewStock   int    `json:"new_stock"   validate:"min=0"`
	Reason     string `json:"reason"      validate:"omitempty,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PrepareActionResponse struct {
	ActionID   string `json:"action_id"`
	ActionType string `json:"action_type"`
	ExpiresIn  int    `json:"expires_in_seconds"`
}
