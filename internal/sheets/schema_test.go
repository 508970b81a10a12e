package sheets

import (
	"context"
	"testing"

	"agrosnab/internal/apierror"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadColumnMap(t *testing.T) {
	mem := NewMemory()
	mem.Seed("Stock", [][]string{
		{"SKU", "Name", "Price_RUB", "Stock_Calc", "Photo_URL", "Active", "Tags"},
	})
	s := NewSchema(mem, "Stock")

	colMap, err := s.LoadColumnMap(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, colMap["SKU"])
	assert.Equal(t, 3, colMap["Stock_Calc"])
	assert.Equal(t, 6, colMap["Tags"])
	assert.Equal(t, 7, s.Width())
}

func TestLoadColumnMapMissingColumns(t *testing.T) {
	mem := NewMemory()
	mem.Seed("Stock", [][]string{{"SKU", "Name", "Price_RUB"}})
	s := NewSchema(mem, "Stock")

	_, err := s.LoadColumnMap(context.Background())
	require.Error(t, err)
	se, ok := err.(*apierror.SchemaError)
	require.True(t, ok)
	assert.Equal(t, "Stock", se.Sheet)
	assert.ElementsMatch(t, []string{"Stock_Calc", "Photo_URL", "Active"}, se.Missing)
}

func TestColIdxAliases(t *testing.T) {
	mem := NewMemory()
	mem.Seed("Stock", [][]string{
		{"SKU", "Name", "Price_RUB", "Stock_Calc", "Photo_URL", "Active"},
	})
	s := NewSchema(mem, "Stock")
	_, err := s.LoadColumnMap(context.Background())
	require.NoError(t, err)

	idx, ok := s.ColIdx("Stock")
	require.True(t, ok)
	assert.Equal(t, 3, idx)

	idx, ok = s.ColIdx("Price")
	require.True(t, ok)
	assert.Equal(t, 2, idx)

	_, ok = s.ColIdx("Total_Intaken")
	assert.False(t, ok)
}

func TestRowToMapPadsShortRows(t *testing.T) {
	mem := NewMemory()
	mem.Seed("Stock", [][]string{
		{"SKU", "Name", "Price_RUB", "Stock_Calc", "Photo_URL", "Active"},
	})
	s := NewSchema(mem, "Stock")
	_, err := s.LoadColumnMap(context.Background())
	require.NoError(t, err)

	data := s.RowToMap([]string{"PRD-1", "Carrots"})
	assert.Equal(t, "PRD-1", data["SKU"])
	assert.Equal(t, "Carrots", data["Name"])
	assert.Equal(t, "", data["Active"])
}

func TestEnsureLogColumnsCreatesSheet(t *testing.T) {
	mem := NewMemory()
	s := NewSchema(mem, "Stock")

	colMap, err := s.EnsureLogColumns(context.Background(), "Intake")
	require.NoError(t, err)
	assert.Len(t, colMap, len(LogColumns))

	rows := mem.Rows("Intake")
	require.Len(t, rows, 1)
	assert.Equal(t, LogColumns, rows[0])
}

func TestEnsureLogColumnsAppendsMissingAtEnd(t *testing.T) {
	mem := NewMemory()
	// Operator reordered the sheet and added their own column.
	mem.Seed("Writeoff", [][]string{
		{"operation_id", "date", "sku", "my_notes", "qty"},
	})
	s := NewSchema(mem, "Stock")

	colMap, err := s.EnsureLogColumns(context.Background(), "Writeoff")
	require.NoError(t, err)

	// Existing positions are untouched.
	assert.Equal(t, 0, colMap["operation_id"])
	assert.Equal(t, 1, colMap["date"])
	assert.Equal(t, 4, colMap["qty"])

	// Missing canonical columns land after the last existing header.
	header := mem.Rows("Writeoff")[0]
	assert.Equal(t, "my_notes", header[3])
	assert.Equal(t, "name", header[5])
	assert.GreaterOrEqual(t, colMap["note"], 5)
	assert.Len(t, header, 5+len(LogColumns)-4)
}

func TestEnsureLogColumnsCached(t *testing.T) {
	mem := NewMemory()
	s := NewSchema(mem, "Stock")

	first, err := s.EnsureLogColumns(context.Background(), "Intake")
	require.NoError(t, err)

	// A direct mutation of the sheet is invisible until the cache is cleared.
	mem.Seed("Intake", [][]string{{"date"}})
	second, err := s.EnsureLogColumns(context.Background(), "Intake")
	require.NoError(t, err)
	assert.Equal(t, first, second)

	s.ClearLogColumnCache("Intake")
	third, err := s.EnsureLogColumns(context.Background(), "Intake")
	require.NoError(t, err)
	assert.Equal(t, 0, third["date"])
	assert.Equal(t, 1, third["operation_id"])
}
