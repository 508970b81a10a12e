package model

import (
	"encoding/json"
	"time"
)

// Action types executable through the two-phase confirmation flow.
const (
	ActionStockWriteoff   = "stock_writeoff"
	ActionStockCorrection = "stock_correction"
	ActionArchiveSimple   = "archive_simple"
	ActionArchiveZeroOut  = "archive_zero_out"
)

// ConfirmAction is a stored, TTL-bound intent to perform a destructive
// operation, awaiting explicit operator confirmation. Lifecycle:
// created → consumed (deleted before execution) or expired (lazily deleted
// on first access past ExpiresAt, or removed by the cleanup sweep).
type ConfirmAction struct {
	ID         string          `gorm:"primaryKey" json:"id"`
	ActionType string          `gorm:"not null" json:"action_type"`
	Payload    json.RawMessage `gorm:"type:text;not null" json:"payload"`
	OwnerID    int64           `gorm:"not null" json:"owner_id"`
	ExpiresAt  time.Time       `gorm:"not null;index" json:"expires_at"`
	CreatedAt  time.Time       `json:"created_at"`
}

func (ConfirmAction) TableName() string { return "confirm_actions" }

// StockActionPayload is the serialized parameter set for the stock-mutation
// action types. Fields irrelevant to a given type are left zero.
type StockActionPayload struct {
	RowNumber   int    `json:"row_number"`
	SKU         string `json:"sku"`
	Qty         int    `json:"qty,omitempty"`
	NewStock    int    `json:"new_stock,omitempty"`
	Reason      string `json:"reason,omitempty"`
	OperationID string `json:"operation_id,omitempty"`
}
