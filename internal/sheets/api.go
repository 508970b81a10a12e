// Package sheets talks to the remote spreadsheet that is the system of record
// for products and for the two stock ledgers. The store offers no multi-cell
// atomicity and no native dedup; everything above it (schema self-heal,
// idempotency windows, log-then-mutate ordering) lives in the ledger and
// service packages.
package sheets

import "context"

// CellUpdate addresses a single cell write. Row and Col are 1-based.
type CellUpdate struct {
	Row   int
	Col   int
	Value interface{}
}

// API is the minimal surface the backend needs from a spreadsheet store.
// Implemented by infra.GoogleSheets (production) and Memory (dev/tests).
type API interface {
	// SheetTitles lists the tab names in the spreadsheet.
	SheetTitles(ctx context.Context) ([]string, error)

	// AddSheet creates an empty tab. Adding an existing title is an error.
	AddSheet(ctx context.Context, title string) error

	// GetRows returns the cell values of rows [startRow, endRow], 1-based and
	// inclusive. endRow <= 0 means "to the end of the sheet". Trailing empty
	// cells may be absent, so callers must bounds-check row slices.
	GetRows(ctx context.Context, sheet string, startRow, endRow int) ([][]string, error)

	// UpdateCells overwrites a rectangular block whose top-left corner is
	// (row, col), both 1-based.
	UpdateCells(ctx context.Context, sheet string, row, col int, values [][]interface{}) error

	// BatchUpdateCells applies scattered single-cell writes. The store applies
	// them independently: there is no atomicity across cells.
	BatchUpdateCells(ctx context.Context, sheet string, updates []CellUpdate) error

	// AppendRow appends a row after the last non-empty row and returns the
	// 1-based row number it landed on.
	AppendRow(ctx context.Context, sheet string, row []interface{}) (int, error)
}

// ColLetter converts a 0-based column index to its A1 letter (A..Z, AA, AB...).
func ColLetter(index int) string {
	result := ""
	for index >= 0 {
		result = string(rune('A'+index%26)) + result
		index = index/26 - 1
	}
	return result
}
