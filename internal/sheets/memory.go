package sheets

import (
	"context"
	"fmt"
	"sync"
)

// Memory is an in-process API implementation. It backs unit tests and the
// "memory" driver used for local development without Google credentials.
type Memory struct {
	mu    sync.RWMutex
	tabs  map[string][][]string
	order []string

	// FailAppend forces AppendRow to fail; tests use it to exercise the
	// log-then-mutate abort path.
	FailAppend bool
	// FailUpdates forces cell writes to fail after a ledger append succeeded.
	FailUpdates bool
}

func NewMemory() *Memory {
	return &Memory{tabs: make(map[string][][]string)}
}

// Seed replaces a tab's contents wholesale (header row included).
func (m *Memory) Seed(sheet string, rows [][]string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tabs[sheet]; !ok {
		m.order = append(m.order, sheet)
	}
	cp := make([][]string, len(rows))
	for i, r := range rows {
		cp[i] = append([]string(nil), r...)
	}
	m.tabs[sheet] = cp
}

// Rows returns a copy of a tab's contents for assertions.
func (m *Memory) Rows(sheet string) [][]string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows := m.tabs[sheet]
	cp := make([][]string, len(rows))
	for i, r := range rows {
		cp[i] = append([]string(nil), r...)
	}
	return cp
}

func (m *Memory) SheetTitles(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]string(nil), m.order...), nil
}

func (m *Memory) AddSheet(_ context.Context, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tabs[title]; ok {
		return fmt.Errorf("sheet %q already exists", title)
	}
	m.tabs[title] = [][]string{}
	m.order = append(m.order, title)
	return nil
}

func (m *Memory) GetRows(_ context.Context, sheet string, startRow, endRow int) ([][]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rows, ok := m.tabs[sheet]
	if !ok {
		return nil, fmt.Errorf("sheet %q not found", sheet)
	}
	if startRow < 1 {
		startRow = 1
	}
	if endRow <= 0 || endRow > len(rows) {
		endRow = len(rows)
	}
	if startRow > endRow {
		return nil, nil
	}
	out := make([][]string, 0, endRow-startRow+1)
	for _, r := range rows[startRow-1 : endRow] {
		out = append(out, append([]string(nil), r...))
	}
	return out, nil
}

func (m *Memory) UpdateCells(_ context.Context, sheet string, row, col int, values [][]interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailUpdates {
		return fmt.Errorf("sheet %q: update refused", sheet)
	}
	if _, ok := m.tabs[sheet]; !ok {
		return fmt.Errorf("sheet %q not found", sheet)
	}
	for i, vrow := range values {
		for j, v := range vrow {
			m.setCell(sheet, row+i, col+j, fmt.Sprint(v))
		}
	}
	return nil
}

func (m *Memory) BatchUpdateCells(_ context.Context, sheet string, updates []CellUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailUpdates {
		return fmt.Errorf("sheet %q: update refused", sheet)
	}
	if _, ok := m.tabs[sheet]; !ok {
		return fmt.Errorf("sheet %q not found", sheet)
	}
	for _, u := range updates {
		m.setCell(sheet, u.Row, u.Col, fmt.Sprint(u.Value))
	}
	return nil
}

func (m *Memory) AppendRow(_ context.Context, sheet string, row []interface{}) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailAppend {
		return 0, fmt.Errorf("sheet %q: append refused", sheet)
	}
	rows, ok := m.tabs[sheet]
	if !ok {
		return 0, fmt.Errorf("sheet %q not found", sheet)
	}
	strRow := make([]string, len(row))
	for i, v := range row {
		strRow[i] = fmt.Sprint(v)
	}
	m.tabs[sheet] = append(rows, strRow)
	return len(m.tabs[sheet]), nil
}

// setCell grows the tab as needed. Caller holds the lock.
func (m *Memory) setCell(sheet string, row, col int, value string) {
	rows := m.tabs[sheet]
	for len(rows) < row {
		rows = append(rows, []string{})
	}
	r := rows[row-1]
	for len(r) < col {
		r = append(r, "")
	}
	r[col-1] = value
	rows[row-1] = r
	m.tabs[sheet] = rows
}
