package model

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a row of the remote "Stock" sheet. The sheet owns the data; this
// struct is a read-only snapshot. RowNumber locates the row in the sheet and is
// NOT a stable identity — rows move when the sheet is reordered. SKU is the
// stable identity.
type Product struct {
	RowNumber   int             `json:"row_number"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	PhotoURL    string          `json:"photo_url"`
	Description string          `json:"description"`
	Tags        string          `json:"tags"`
	Active      bool            `json:"active"`

	// Service metadata (optional columns)
	LastIntakeAt  *time.Time `json:"last_intake_at,omitempty"`
	LastIntakeQty int        `json:"last_intake_qty,omitempty"`
	LastUpdatedBy string     `json:"last_updated_by,omitempty"`
}

// ParsePrice handles currency-formatted cells like "1 000 ₽" or "1 250,50".
func ParsePrice(raw string) decimal.Decimal {
	cleaned := strings.NewReplacer(" ", "", " ", "", "₽", "", ",", ".").Replace(raw)
	if cleaned == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseActive accepts the truthy spellings found in manually edited sheets.
func ParseActive(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "da", "да", "1":
		return true
	default:
		return false
	}
}
