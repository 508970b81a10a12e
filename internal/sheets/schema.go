package sheets

import (
	"context"
	"sync"

	"agrosnab/internal/apierror"

	"github.com/rs/zerolog/log"
)

// Required columns of the product sheet. Startup fails hard when any is absent.
var RequiredColumns = []string{
	"SKU",
	"Name",
	"Price_RUB",
	"Stock_Calc",
	"Photo_URL",
	"Active",
}

// Optional columns; operations that touch them check presence first.
var OptionalColumns = []string{
	"Tags",
	"Description_Short",
	"Description_Full",
	"Starting_Stock",
	"Total_Intaken",
	"Total_WrittenOff",
	"Supplier_ID",
	"last_intake_at",
	"last_intake_qty",
	"last_updated_by",
}

// ColAliases lets callers use short logical names regardless of how the sheet
// spells the canonical header.
var ColAliases = map[string]string{
	"Price": "Price_RUB",
	"Stock": "Stock_Calc",
	"Photo": "Photo_URL",
}

// LogColumns is the canonical ordered column list of both ledger sheets.
var LogColumns = []string{
	"date",
	"operation_id",
	"sku",
	"name",
	"qty",
	"stock_before",
	"stock_after",
	"reason",
	"source",
	"actor_id",
	"actor_username",
	"note",
}

// Schema maps logical column names to physical positions, for the product
// sheet and for each ledger sheet. Ledger sheets self-heal: missing sheets are
// created and missing columns are appended at the end of the header row,
// never reordering what operators already have.
type Schema struct {
	api          API
	productSheet string

	mu        sync.RWMutex
	colMap    map[string]int
	headers   []string
	logColMap map[string]map[string]int
}

func NewSchema(api API, productSheet string) *Schema {
	return &Schema{
		api:          api,
		productSheet: productSheet,
		logColMap:    make(map[string]map[string]int),
	}
}

// ProductSheet returns the configured product tab name.
func (s *Schema) ProductSheet() string { return s.productSheet }

// LoadColumnMap reads the product sheet header row and validates required
// columns. Returns *apierror.SchemaError naming the missing set on failure.
func (s *Schema) LoadColumnMap(ctx context.Context) (map[string]int, error) {
	rows, err := s.api.GetRows(ctx, s.productSheet, 1, 1)
	if err != nil {
		return nil, err
	}
	var headers []string
	if len(rows) > 0 {
		headers = rows[0]
	}

	colMap := make(map[string]int, len(headers))
	for idx, h := range headers {
		colMap[h] = idx
	}

	var missing []string
	for _, col := range RequiredColumns {
		if _, ok := colMap[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &apierror.SchemaError{Sheet: s.productSheet, Missing: missing}
	}

	s.mu.Lock()
	s.colMap = colMap
	s.headers = headers
	s.mu.Unlock()
	return colMap, nil
}

// ColIdx resolves a logical column name to its 0-based index, following
// aliases. The second return is false when the column is absent (optional
// columns may legitimately be missing).
func (s *Schema) ColIdx(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if idx, ok := s.colMap[name]; ok {
		return idx, true
	}
	if canonical, ok := ColAliases[name]; ok {
		if idx, ok := s.colMap[canonical]; ok {
			return idx, true
		}
	}
	return 0, false
}

// Width returns the number of mapped product columns.
func (s *Schema) Width() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.headers)
}

// RowToMap converts a raw row into {header: value}, padding short rows with "".
func (s *Schema) RowToMap(row []string) map[string]string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]string, len(s.colMap))
	for name, idx := range s.colMap {
		if idx < len(row) {
			out[name] = row[idx]
		} else {
			out[name] = ""
		}
	}
	return out
}

// ensureSheetExists creates the tab when missing.
func (s *Schema) ensureSheetExists(ctx context.Context, sheet string) error {
	titles, err := s.api.SheetTitles(ctx)
	if err != nil {
		return err
	}
	for _, t := range titles {
		if t == sheet {
			return nil
		}
	}
	log.Info().Str("sheet", sheet).Msg("schema: creating missing ledger sheet")
	return s.api.AddSheet(ctx, sheet)
}

// EnsureLogColumns self-heals a ledger sheet and returns its column map.
// The result is cached until ClearLogColumnCache is called.
func (s *Schema) EnsureLogColumns(ctx context.Context, sheet string) (map[string]int, error) {
	s.mu.RLock()
	cached, ok := s.logColMap[sheet]
	s.mu.RUnlock()
	if ok {
		return cached, nil
	}

	if err := s.ensureSheetExists(ctx, sheet); err != nil {
		return nil, err
	}

	rows, err := s.api.GetRows(ctx, sheet, 1, 1)
	if err != nil {
		return nil, err
	}
	var existing []string
	if len(rows) > 0 {
		existing = rows[0]
	}

	colMap := make(map[string]int, len(existing))
	for idx, h := range existing {
		colMap[h] = idx
	}

	var missing []string
	for _, col := range LogColumns {
		if _, ok := colMap[col]; !ok {
			missing = append(missing, col)
		}
	}

	if len(missing) > 0 {
		values := make([]interface{}, len(missing))
		for i, col := range missing {
			values[i] = col
		}
		// Append only the missing headers after the existing ones; manual
		// extra columns keep their positions.
		if err := s.api.UpdateCells(ctx, sheet, 1, len(existing)+1, [][]interface{}{values}); err != nil {
			return nil, err
		}
		for i, col := range missing {
			colMap[col] = len(existing) + i
		}
		log.Info().Str("sheet", sheet).Strs("columns", missing).Msg("schema: healed ledger columns")
	}

	s.mu.Lock()
	s.logColMap[sheet] = colMap
	s.mu.Unlock()
	return colMap, nil
}

// ClearLogColumnCache forces the next EnsureLogColumns to re-read headers.
func (s *Schema) ClearLogColumnCache(sheet string) {
	s.mu.Lock()
	delete(s.logColMap, sheet)
	s.mu.Unlock()
}
