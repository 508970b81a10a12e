package service

import (
	"context"
	"testing"
	"time"

	"agrosnab/internal/ledger"
	"agrosnab/internal/model"
	"agrosnab/internal/repository"
	"agrosnab/internal/sheets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stockHeader = []string{
	"SKU", "Name", "Price_RUB", "Stock_Calc", "Photo_URL", "Active",
	"Total_Intaken", "Total_WrittenOff", "last_intake_at", "last_intake_qty", "last_updated_by",
}

type stubNotifier struct {
	calls []string
}

func (n *stubNotifier) NotifyLowStock(_ context.Context, sku, _ string, _ int) {
	n.calls = append(n.calls, sku)
}

type opsFixture struct {
	svc      StockOpsService
	repo     repository.ProductRepository
	mem      *sheets.Memory
	schema   *sheets.Schema
	notifier *stubNotifier
}

func newOpsFixture(t *testing.T, rows ...[]string) *opsFixture {
	t.Helper()
	mem := sheets.NewMemory()
	mem.Seed("Stock", append([][]string{stockHeader}, rows...))
	schema := sheets.NewSchema(mem, "Stock")
	_, err := schema.LoadColumnMap(context.Background())
	require.NoError(t, err)

	repo := repository.NewProductRepository(mem, schema, time.Minute)
	engine := ledger.NewEngine(mem, schema, 200)
	notifier := &stubNotifier{}
	svc := NewStockOpsService(repo, engine, "Intake", "Writeoff", 3, notifier)
	return &opsFixture{svc: svc, repo: repo, mem: mem, schema: schema, notifier: notifier}
}

func productRow(sku, name, stock string) []string {
	return []string{sku, name, "100", stock, "", "TRUE", "0", "0", "", "", ""}
}

func actor() model.Actor { return model.Actor{ID: 42, Username: "petrov"} }

// ledgerCell pulls a named column from the first data row of a ledger sheet.
func (f *opsFixture) ledgerCell(t *testing.T, sheet, col string, dataRow int) string {
	t.Helper()
	colMap, err := f.schema.EnsureLogColumns(context.Background(), sheet)
	require.NoError(t, err)
	rows := f.mem.Rows(sheet)
	require.Greater(t, len(rows), dataRow)
	row := rows[dataRow]
	idx := colMap[col]
	if idx >= len(row) {
		return ""
	}
	return row[idx]
}

func (f *opsFixture) ledgerLen(sheet string) int {
	rows := f.mem.Rows(sheet)
	if len(rows) == 0 {
		return 0
	}
	return len(rows) - 1 // minus header
}

func TestWriteOffHappyPath(t *testing.T) {
	f := newOpsFixture(t, productRow("PRD-1", "Carrots", "10"))

	res := f.svc.WriteOff(context.Background(), WriteOffInput{
		RowNumber: 2, SKU: "PRD-1", Qty: 3, Reason: "damaged", Actor: actor(), OperationID: "op-1",
	})
	require.True(t, res.OK, res.Error)
	assert.Equal(t, 10, res.StockBefore)
	assert.Equal(t, 7, res.StockAfter)
	assert.Equal(t, "op-1", res.OperationID)

	// Ledger row first, then the stock cell.
	assert.Equal(t, 1, f.ledgerLen("Writeoff"))
	assert.Equal(t, "damaged", f.ledgerCell(t, "Writeoff", "reason", 1))
	assert.Equal(t, "owner_manual", f.ledgerCell(t, "Writeoff", "source", 1))
	assert.Equal(t, "pending_stock_update", f.ledgerCell(t, "Writeoff", "note", 1))
	assert.Equal(t, "petrov", f.ledgerCell(t, "Writeoff", "actor_username", 1))

	p, err := f.repo.GetByRow(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 7, p.Stock)

	// Running total updated.
	assert.Equal(t, "3", f.mem.Rows("Stock")[1][7])
	assert.Empty(t, f.notifier.calls, "stock 7 is above the threshold of 3")
}

func TestWriteOffInsufficientStock(t *testing.T) {
	f := newOpsFixture(t, productRow("PRD-1", "Carrots", "2"))

	res := f.svc.WriteOff(context.Background(), WriteOffInput{
		RowNumber: 2, SKU: "PRD-1", Qty: 5, Reason: "damaged", Actor: actor(),
	})
	assert.False(t, res.OK)
	assert.Equal(t, KindValidation, res.Kind)
	assert.Contains(t, res.Error, "available 2")
	assert.Equal(t, 0, f.ledgerLen("Writeoff"), "no ledger row on validation failure")

	p, _ := f.repo.GetByRow(context.Background(), 2)
	assert.Equal(t, 2, p.Stock)
}

func TestWriteOffNonPositiveQty(t *testing.T) {
	f := newOpsFixture(t, productRow("PRD-1", "Carrots", "10"))

	res := f.svc.WriteOff(context.Background(), WriteOffInput{
		RowNumber: 2, SKU: "PRD-1", Qty: 0, Reason: "damaged", Actor: actor(),
	})
	assert.False(t, res.OK)
	assert.Equal(t, KindValidation, res.Kind)
}

func TestWriteOffRowChanged(t *testing.T) {
	f := newOpsFixture(t, productRow("PRD-1", "Carrots", "10"))

	// The row was re-sorted between selection and confirmation.
	res := f.svc.WriteOff(context.Background(), WriteOffInput{
		RowNumber: 2, SKU: "PRD-9", Qty: 1, Reason: "damaged", Actor: actor(),
	})
	assert.False(t, res.OK)
	assert.Equal(t, KindRowChanged, res.Kind)
	assert.Equal(t, 0, f.ledgerLen("Writeoff"))
}

func TestWriteOffIdempotent(t *testing.T) {
	f := newOpsFixture(t, productRow("PRD-1", "Carrots", "10"))
	ctx := context.Background()

	first := f.svc.WriteOff(ctx, WriteOffInput{
		RowNumber: 2, SKU: "PRD-1", Qty: 3, Reason: "damaged", Actor: actor(), OperationID: "op-dup",
	})
	require.True(t, first.OK)

	second := f.svc.WriteOff(ctx, WriteOffInput{
		RowNumber: 2, SKU: "PRD-1", Qty: 3, Reason: "damaged", Actor: actor(), OperationID: "op-dup",
	})
	require.True(t, second.OK)
	assert.Equal(t, first.StockBefore, second.StockBefore)
	assert.Equal(t, first.StockAfter, second.StockAfter)

	assert.Equal(t, 1, f.ledgerLen("Writeoff"), "retry must not re-log")
	p, _ := f.repo.GetByRow(ctx, 2)
	assert.Equal(t, 7, p.Stock, "retry must not decrement again")
	assert.Equal(t, "3", f.mem.Rows("Stock")[1][7], "retry must not bump totals")
}

func TestWriteOffPartialFailure(t *testing.T) {
	f := newOpsFixture(t, productRow("PRD-1", "Carrots", "10"))
	ctx := context.Background()

	// Heal ledger headers first so only the stock mutation fails.
	_, err := f.schema.EnsureLogColumns(ctx, "Writeoff")
	require.NoError(t, err)
	f.mem.FailUpdates = true

	res := f.svc.WriteOff(ctx, WriteOffInput{
		RowNumber: 2, SKU: "PRD-1", Qty: 3, Reason: "damaged", Actor: actor(), OperationID: "op-p",
	})
	assert.False(t, res.OK)
	assert.Equal(t, KindPartialFailure, res.Kind)
	assert.Contains(t, res.Error, "op-p")

	// The ledger row exists and carries the reconciliation marker.
	assert.Equal(t, 1, f.ledgerLen("Writeoff"))
	assert.Equal(t, "pending_stock_update", f.ledgerCell(t, "Writeoff", "note", 1))

	f.mem.FailUpdates = false
	p, _ := f.repo.GetByRow(ctx, 2)
	assert.Equal(t, 10, p.Stock, "stock untouched after failed mutation")
}

func TestWriteOffAppendFailureAbortsMutation(t *testing.T) {
	f := newOpsFixture(t, productRow("PRD-1", "Carrots", "10"))
	ctx := context.Background()

	_, err := f.schema.EnsureLogColumns(ctx, "Writeoff")
	require.NoError(t, err)
	f.mem.FailAppend = true

	res := f.svc.WriteOff(ctx, WriteOffInput{
		RowNumber: 2, SKU: "PRD-1", Qty: 3, Reason: "damaged", Actor: actor(),
	})
	assert.False(t, res.OK)
	assert.Equal(t, KindStoreError, res.Kind)

	f.mem.FailAppend = false
	p, _ := f.repo.GetByRow(ctx, 2)
	assert.Equal(t, 10, p.Stock, "log-then-mutate: no log, no mutation")
}

func TestWriteOffLowStockNotification(t *testing.T) {
	f := newOpsFixture(t, productRow("PRD-1", "Carrots", "5"))

	res := f.svc.WriteOff(context.Background(), WriteOffInput{
		RowNumber: 2, SKU: "PRD-1", Qty: 3, Reason: "damaged", Actor: actor(),
	})
	require.True(t, res.OK)
	assert.Equal(t, []string{"PRD-1"}, f.notifier.calls)
}

func TestIntakeLogsWithoutMutatingStock(t *testing.T) {
	f := newOpsFixture(t, productRow("PRD-1", "Carrots", "4"))
	ctx := context.Background()

	res := f.svc.Intake(ctx, IntakeInput{
		RowNumber: 2, Qty: 10, StockBefore: 4, StockAfter: 14,
		Reason: "restock", Actor: actor(), OperationID: "op-i1",
	})
	require.True(t, res.OK, res.Error)
	assert.Equal(t, 4, res.StockBefore)
	assert.Equal(t, 14, res.StockAfter)

	assert.Equal(t, 1, f.ledgerLen("Intake"))
	assert.Equal(t, "owner_intake", f.ledgerCell(t, "Intake", "source", 1))

	// The intake ledger call itself never touches the stock cell.
	p, _ := f.repo.GetByRow(ctx, 2)
	assert.Equal(t, 4, p.Stock)

	// Total_Intaken is bumped.
	assert.Equal(t, "10", f.mem.Rows("Stock")[1][6])
}

func TestIntakeIdempotent(t *testing.T) {
	f := newOpsFixture(t, productRow("PRD-1", "Carrots", "4"))
	ctx := context.Background()

	in := IntakeInput{
		RowNumber: 2, Qty: 10, StockBefore: 4, StockAfter: 14,
		Reason: "restock", Actor: actor(), OperationID: "op-i2",
	}
	first := f.svc.Intake(ctx, in)
	require.True(t, first.OK)
	second := f.svc.Intake(ctx, in)
	require.True(t, second.OK)
	assert.Equal(t, first.StockAfter, second.StockAfter)

	assert.Equal(t, 1, f.ledgerLen("Intake"))
	assert.Equal(t, "10", f.mem.Rows("Stock")[1][6], "totals bumped once")
}

func TestIntakeGeneratesOperationID(t *testing.T) {
	f := newOpsFixture(t, productRow("PRD-1", "Carrots", "4"))

	res := f.svc.Intake(context.Background(), IntakeInput{
		RowNumber: 2, Qty: 1, StockBefore: 4, StockAfter: 5, Reason: "restock", Actor: actor(),
	})
	require.True(t, res.OK)
	assert.NotEmpty(t, res.OperationID)
}

func TestCorrectionIncrease(t *testing.T) {
	f := newOpsFixture(t, productRow("PRD-1", "Carrots", "42"))
	ctx := context.Background()

	res := f.svc.Correction(ctx, CorrectionInput{
		RowNumber: 2, SKU: "PRD-1", NewStock: 50, Reason: "recount", Actor: actor(), OperationID: "op-c1",
	})
	require.True(t, res.OK, res.Error)
	assert.Equal(t, 42, res.StockBefore)
	assert.Equal(t, 50, res.StockAfter)

	// Positive delta routes to the intake ledger.
	assert.Equal(t, 1, f.ledgerLen("Intake"))
	assert.Equal(t, 0, f.ledgerLen("Writeoff"))
	assert.Equal(t, "8", f.ledgerCell(t, "Intake", "qty", 1))
	assert.Equal(t, "correction:recount", f.ledgerCell(t, "Intake", "reason", 1))
	assert.Equal(t, "owner_correction", f.ledgerCell(t, "Intake", "source", 1))
	// Only writeoffs default the note to the reconciliation marker.
	assert.Equal(t, "", f.ledgerCell(t, "Intake", "note", 1))

	p, _ := f.repo.GetByRow(ctx, 2)
	assert.Equal(t, 50, p.Stock)
	assert.Equal(t, "8", f.mem.Rows("Stock")[1][6])
}

func TestCorrectionDecrease(t *testing.T) {
	f := newOpsFixture(t, productRow("PRD-1", "Carrots", "20"))
	ctx := context.Background()

	res := f.svc.Correction(ctx, CorrectionInput{
		RowNumber: 2, SKU: "PRD-1", NewStock: 5, Reason: "shrinkage", Actor: actor(),
	})
	require.True(t, res.OK, res.Error)

	assert.Equal(t, 1, f.ledgerLen("Writeoff"))
	assert.Equal(t, "15", f.ledgerCell(t, "Writeoff", "qty", 1))

	p, _ := f.repo.GetByRow(ctx, 2)
	assert.Equal(t, 5, p.Stock)
	assert.Equal(t, "15", f.mem.Rows("Stock")[1][7])
}

func TestCorrectionNoChange(t *testing.T) {
	f := newOpsFixture(t, productRow("PRD-1", "Carrots", "10"))

	res := f.svc.Correction(context.Background(), CorrectionInput{
		RowNumber: 2, SKU: "PRD-1", NewStock: 10, Reason: "recount", Actor: actor(),
	})
	require.True(t, res.OK)
	assert.Equal(t, 10, res.StockBefore)
	assert.Equal(t, 10, res.StockAfter)
	assert.Equal(t, 0, f.ledgerLen("Intake"))
	assert.Equal(t, 0, f.ledgerLen("Writeoff"))
}

func TestCorrectionNegativeTarget(t *testing.T) {
	f := newOpsFixture(t, productRow("PRD-1", "Carrots", "10"))

	res := f.svc.Correction(context.Background(), CorrectionInput{
		RowNumber: 2, SKU: "PRD-1", NewStock: -1, Reason: "recount", Actor: actor(),
	})
	assert.False(t, res.OK)
	assert.Equal(t, KindValidation, res.Kind)
}

func TestCorrectionToZeroNotifies(t *testing.T) {
	f := newOpsFixture(t, productRow("PRD-1", "Carrots", "10"))

	res := f.svc.Correction(context.Background(), CorrectionInput{
		RowNumber: 2, SKU: "PRD-1", NewStock: 0, Reason: "write-off all", Actor: actor(),
	})
	require.True(t, res.OK)
	assert.Equal(t, []string{"PRD-1"}, f.notifier.calls)
}

func TestArchiveZeroOutWithStock(t *testing.T) {
	f := newOpsFixture(t, productRow("PRD-1", "Carrots", "15"))
	ctx := context.Background()

	res := f.svc.ArchiveZeroOut(ctx, ArchiveInput{
		RowNumber: 2, SKU: "PRD-1", Actor: actor(), OperationID: "op-a1",
	})
	require.True(t, res.OK, res.Error)
	assert.Equal(t, 15, res.StockBefore)
	assert.Equal(t, 0, res.StockAfter)

	assert.Equal(t, 1, f.ledgerLen("Writeoff"))
	assert.Equal(t, "archive:zero_out", f.ledgerCell(t, "Writeoff", "reason", 1))
	assert.Equal(t, "15", f.ledgerCell(t, "Writeoff", "qty", 1))
	assert.Equal(t, "", f.ledgerCell(t, "Writeoff", "note", 1))

	raw := f.mem.Rows("Stock")[1]
	assert.Equal(t, "0", raw[3])
	assert.Equal(t, "FALSE", raw[5])
	assert.Equal(t, "15", raw[7])
}

func TestArchiveZeroOutAlreadyEmpty(t *testing.T) {
	f := newOpsFixture(t, productRow("PRD-1", "Carrots", "0"))

	res := f.svc.ArchiveZeroOut(context.Background(), ArchiveInput{
		RowNumber: 2, SKU: "PRD-1", Actor: actor(),
	})
	require.True(t, res.OK)
	assert.Equal(t, 0, f.ledgerLen("Writeoff"), "no ledger row when nothing to write off")
	assert.Equal(t, "FALSE", f.mem.Rows("Stock")[1][5])
}

func TestArchiveZeroOutStockFailureKeepsActive(t *testing.T) {
	f := newOpsFixture(t, productRow("PRD-1", "Carrots", "15"))
	ctx := context.Background()

	_, err := f.schema.EnsureLogColumns(ctx, "Writeoff")
	require.NoError(t, err)
	f.mem.FailUpdates = true

	res := f.svc.ArchiveZeroOut(ctx, ArchiveInput{
		RowNumber: 2, SKU: "PRD-1", Actor: actor(),
	})
	assert.False(t, res.OK)
	assert.Equal(t, KindPartialFailure, res.Kind)

	f.mem.FailUpdates = false
	raw := f.mem.Rows("Stock")[1]
	assert.Equal(t, "TRUE", raw[5], "failed zero-out must not hide the product")
}

func TestArchiveSimpleLeavesStock(t *testing.T) {
	f := newOpsFixture(t, productRow("PRD-1", "Carrots", "8"))

	res := f.svc.ArchiveSimple(context.Background(), ArchiveInput{
		RowNumber: 2, SKU: "PRD-1", Actor: actor(),
	})
	require.True(t, res.OK)
	assert.Equal(t, 8, res.StockBefore)
	assert.Equal(t, 8, res.StockAfter)

	raw := f.mem.Rows("Stock")[1]
	assert.Equal(t, "8", raw[3])
	assert.Equal(t, "FALSE", raw[5])
	assert.Equal(t, 0, f.ledgerLen("Writeoff"))
}

func TestArchiveSimpleRowChanged(t *testing.T) {
	f := newOpsFixture(t, productRow("PRD-1", "Carrots", "8"))

	res := f.svc.ArchiveSimple(context.Background(), ArchiveInput{
		RowNumber: 2, SKU: "PRD-2", Actor: actor(),
	})
	assert.False(t, res.OK)
	assert.Equal(t, KindRowChanged, res.Kind)
	assert.Equal(t, "TRUE", f.mem.Rows("Stock")[1][5])
}

func TestOperationsOnMissingRow(t *testing.T) {
	f := newOpsFixture(t, productRow("PRD-1", "Carrots", "8"))

	res := f.svc.WriteOff(context.Background(), WriteOffInput{
		RowNumber: 7, SKU: "PRD-1", Qty: 1, Reason: "r", Actor: actor(),
	})
	assert.False(t, res.OK)
	assert.Equal(t, KindNotFound, res.Kind)
}
