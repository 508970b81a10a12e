package model

import "time"

// LedgerEntry is one append-only row in the Intake or Writeoff sheet.
// Entries are never updated or deleted once written.
type LedgerEntry struct {
	Date          time.Time `json:"date"`
	OperationID   string    `json:"operation_id"`
	SKU           string    `json:"sku"`
	Name          string    `json:"name"`
	Qty           int       `json:"qty"`
	StockBefore   int       `json:"stock_before"`
	StockAfter    int       `json:"stock_after"`
	Reason        string    `json:"reason"`
	Source        string    `json:"source"`
	ActorID       int64     `json:"actor_id"`
	ActorUsername string    `json:"actor_username"`
	Note          string    `json:"note"`
}

// StockOpResult is returned by every stock-mutation operation.
// A dedup hit reports OK=true with the original stock values and no Error.
type StockOpResult struct {
	OK          bool   `json:"ok"`
	StockBefore int    `json:"stock_before"`
	StockAfter  int    `json:"stock_after"`
	OperationID string `json:"operation_id"`
	Duplicate   bool   `json:"duplicate,omitempty"`
	Kind        string `json:"error_kind,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Actor identifies the operator performing a stock mutation.
type Actor struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
}

// UpdatedBy renders the actor tag written to last_updated_by and ledger notes.
func (a Actor) UpdatedBy() string {
	return "tg:" + a.Username
}
