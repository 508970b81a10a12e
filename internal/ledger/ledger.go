// Package ledger appends audit rows to the Intake and Writeoff sheets and
// answers bounded-lookback idempotency checks on operation ids.
package ledger

import (
	"context"
	"strconv"
	"time"

	"agrosnab/internal/model"
	"agrosnab/internal/sheets"

	"github.com/rs/zerolog/log"
)

// DefaultLookbackRows bounds the dedup scan. Retries arriving after more than
// this many subsequent writes on the same ledger will not be deduplicated.
const DefaultLookbackRows = 200

// Engine writes ledger rows and maintains the per-product running totals.
type Engine struct {
	api      sheets.API
	schema   *sheets.Schema
	lookback int
}

func NewEngine(api sheets.API, schema *sheets.Schema, lookbackRows int) *Engine {
	if lookbackRows <= 0 {
		lookbackRows = DefaultLookbackRows
	}
	return &Engine{api: api, schema: schema, lookback: lookbackRows}
}

// Append writes entry to the given ledger sheet. Failures are reported, never
// raised: the caller decides whether to abort the larger operation.
func (e *Engine) Append(ctx context.Context, sheet string, entry model.LedgerEntry) bool {
	colMap, err := e.schema.EnsureLogColumns(ctx, sheet)
	if err != nil {
		log.Error().Err(err).Str("sheet", sheet).Msg("ledger: ensure columns failed")
		return false
	}

	width := 0
	for _, idx := range colMap {
		if idx+1 > width {
			width = idx + 1
		}
	}
	row := make([]interface{}, width)
	for i := range row {
		row[i] = ""
	}

	set := func(col string, v interface{}) {
		if idx, ok := colMap[col]; ok {
			row[idx] = v
		}
	}
	date := entry.Date
	if date.IsZero() {
		date = time.Now()
	}
	set("date", date.Format(time.RFC3339))
	set("operation_id", entry.OperationID)
	set("sku", entry.SKU)
	set("name", entry.Name)
	set("qty", entry.Qty)
	set("stock_before", entry.StockBefore)
	set("stock_after", entry.StockAfter)
	set("reason", entry.Reason)
	set("source", entry.Source)
	set("actor_id", entry.ActorID)
	set("actor_username", entry.ActorUsername)
	set("note", entry.Note)

	if _, err := e.api.AppendRow(ctx, sheet, row); err != nil {
		log.Error().Err(err).Str("sheet", sheet).Str("operation_id", entry.OperationID).
			Msg("ledger: append failed")
		return false
	}
	return true
}

// Exists reports whether operationID appears within the lookback window of
// the ledger sheet.
func (e *Engine) Exists(ctx context.Context, sheet string, operationID string) (bool, error) {
	entry, err := e.Find(ctx, sheet, operationID)
	return entry != nil, err
}

// Find scans the lookback window for operationID and returns the matching
// entry, or nil when absent. Retries of a deduplicated operation use the
// found row to report the original stock values. The window covers the most
// recent rows only, an explicit cost/correctness trade-off.
func (e *Engine) Find(ctx context.Context, sheet string, operationID string) (*model.LedgerEntry, error) {
	colMap, err := e.schema.EnsureLogColumns(ctx, sheet)
	if err != nil {
		return nil, err
	}
	opIdx, ok := colMap["operation_id"]
	if !ok {
		return nil, nil
	}

	rows, err := e.api.GetRows(ctx, sheet, 2, 0)
	if err != nil {
		return nil, err
	}
	start := 0
	if len(rows) > e.lookback {
		start = len(rows) - e.lookback
	}
	for _, row := range rows[start:] {
		if opIdx < len(row) && row[opIdx] == operationID {
			entry := entryFromRow(colMap, row)
			return &entry, nil
		}
	}
	return nil, nil
}

func entryFromRow(colMap map[string]int, row []string) model.LedgerEntry {
	cell := func(col string) string {
		if idx, ok := colMap[col]; ok && idx < len(row) {
			return row[idx]
		}
		return ""
	}
	num := func(col string) int {
		n, _ := strconv.Atoi(cell(col))
		return n
	}
	date, _ := time.Parse(time.RFC3339, cell("date"))
	actorID, _ := strconv.ParseInt(cell("actor_id"), 10, 64)
	return model.LedgerEntry{
		Date:          date,
		OperationID:   cell("operation_id"),
		SKU:           cell("sku"),
		Name:          cell("name"),
		Qty:           num("qty"),
		StockBefore:   num("stock_before"),
		StockAfter:    num("stock_after"),
		Reason:        cell("reason"),
		Source:        cell("source"),
		ActorID:       actorID,
		ActorUsername: cell("actor_username"),
		Note:          cell("note"),
	}
}

// IncrementTotal adds delta to a running-total cell on the product sheet
// (e.g. Total_WrittenOff). Missing column is a no-op: totals are optional.
//
// This is a non-atomic read-modify-write; two racing operations on the same
// row can lose an increment. The ledger rows remain the source of truth for
// reconciliation.
func (e *Engine) IncrementTotal(ctx context.Context, rowNumber int, column string, delta int) error {
	colIdx, ok := e.schema.ColIdx(column)
	if !ok {
		return nil
	}

	sheet := e.schema.ProductSheet()
	rows, err := e.api.GetRows(ctx, sheet, rowNumber, rowNumber)
	if err != nil {
		return err
	}
	current := 0
	if len(rows) > 0 && colIdx < len(rows[0]) {
		if v, err := strconv.Atoi(rows[0][colIdx]); err == nil {
			current = v
		}
	}

	return e.api.UpdateCells(ctx, sheet, rowNumber, colIdx+1, [][]interface{}{{current + delta}})
}
