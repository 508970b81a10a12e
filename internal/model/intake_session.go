package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// IntakeSession is a partially filled intake, persisted so it survives
// restarts. One session per operator.
type IntakeSession struct {
	OwnerID   int64     `gorm:"primaryKey" json:"owner_id"`
	Data      string    `gorm:"type:text;not null" json:"-"` // serialized IntakeDraft
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `gorm:"index" json:"updated_at"`
}

func (IntakeSession) TableName() string { return "intake_sessions" }

// IntakeDraft is the JSON body stored in IntakeSession.Data.
type IntakeDraft struct {
	OwnerID      int64           `json:"owner_id"`
	Name         string          `json:"name,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity,omitempty"`
	SKU          string          `json:"sku,omitempty"`
	IsNewProduct bool            `json:"is_new_product"`
	PhotoURL     string          `json:"photo_url,omitempty"`
	Existing     *Product        `json:"existing_product,omitempty"`
}

// Fingerprint computes the idempotency key for this intake: retrying a
// completed draft reuses the same operation_id and hits the dedup window.
func (d *IntakeDraft) Fingerprint() string {
	content := fmt.Sprintf("%s|%s|%d|%s|%s", d.Name, d.Price.String(), d.Quantity, d.SKU, d.PhotoURL)
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])[:16]
}
