package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"agrosnab/internal/apierror"
	"agrosnab/internal/model"
	"agrosnab/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var svcDBSeq int

func newServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	svcDBSeq++
	dsn := fmt.Sprintf("file:svctest%d?mode=memory&cache=shared", svcDBSeq)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&model.ConfirmAction{}, &model.IntakeSession{}))
	return db
}

type confirmFixture struct {
	*opsFixture
	confirm ConfirmService
	actions repository.ConfirmActionRepository
}

func newConfirmFixture(t *testing.T, ttl time.Duration, rows ...[]string) *confirmFixture {
	t.Helper()
	ops := newOpsFixture(t, rows...)
	actions := repository.NewConfirmActionRepository(newServiceDB(t))
	return &confirmFixture{
		opsFixture: ops,
		confirm:    NewConfirmService(actions, ops.svc, ttl),
		actions:    actions,
	}
}

func TestConfirmPrepareAndExecute(t *testing.T) {
	f := newConfirmFixture(t, 5*time.Minute, productRow("PRD-1", "Carrots", "10"))
	ctx := context.Background()

	id, err := f.confirm.Prepare(ctx, model.ActionStockWriteoff, model.StockActionPayload{
		RowNumber: 2, SKU: "PRD-1", Qty: 4, Reason: "spoiled",
	}, 42)
	require.NoError(t, err)

	res, err := f.confirm.Execute(ctx, id, actor())
	require.NoError(t, err)
	require.True(t, res.OK, res.Error)
	assert.Equal(t, 10, res.StockBefore)
	assert.Equal(t, 6, res.StockAfter)

	p, _ := f.repo.GetByRow(ctx, 2)
	assert.Equal(t, 6, p.Stock)
}

func TestConfirmExecuteIsOneShot(t *testing.T) {
	f := newConfirmFixture(t, 5*time.Minute, productRow("PRD-1", "Carrots", "10"))
	ctx := context.Background()

	id, err := f.confirm.Prepare(ctx, model.ActionStockWriteoff, model.StockActionPayload{
		RowNumber: 2, SKU: "PRD-1", Qty: 4, Reason: "spoiled",
	}, 42)
	require.NoError(t, err)

	_, err = f.confirm.Execute(ctx, id, actor())
	require.NoError(t, err)

	_, err = f.confirm.Execute(ctx, id, actor())
	assert.True(t, errors.Is(err, apierror.ErrActionNotFound))

	p, _ := f.repo.GetByRow(ctx, 2)
	assert.Equal(t, 6, p.Stock, "second confirmation must not run the action again")
}

func TestConfirmExpiredActionRejected(t *testing.T) {
	f := newConfirmFixture(t, 0, productRow("PRD-1", "Carrots", "10"))
	ctx := context.Background()

	id, err := f.confirm.Prepare(ctx, model.ActionArchiveSimple, model.StockActionPayload{
		RowNumber: 2, SKU: "PRD-1",
	}, 42)
	require.NoError(t, err)

	_, err = f.confirm.Execute(ctx, id, actor())
	assert.True(t, errors.Is(err, apierror.ErrActionNotFound))
	assert.Equal(t, "TRUE", f.mem.Rows("Stock")[1][5], "expired confirmation must not execute")
}

func TestConfirmWrongOwnerRejected(t *testing.T) {
	f := newConfirmFixture(t, 5*time.Minute, productRow("PRD-1", "Carrots", "10"))
	ctx := context.Background()

	id, err := f.confirm.Prepare(ctx, model.ActionStockWriteoff, model.StockActionPayload{
		RowNumber: 2, SKU: "PRD-1", Qty: 1, Reason: "r",
	}, 42)
	require.NoError(t, err)

	_, err = f.confirm.Execute(ctx, id, model.Actor{ID: 99, Username: "intruder"})
	assert.True(t, errors.Is(err, apierror.ErrUnauthorized))

	// The token survives a foreign confirmation attempt.
	res, err := f.confirm.Execute(ctx, id, actor())
	require.NoError(t, err)
	assert.True(t, res.OK)
}

func TestConfirmUnknownActionType(t *testing.T) {
	f := newConfirmFixture(t, 5*time.Minute)
	_, err := f.confirm.Prepare(context.Background(), "drop_everything", model.StockActionPayload{}, 42)
	assert.True(t, apierror.IsValidation(err))
}

func TestConfirmCancel(t *testing.T) {
	f := newConfirmFixture(t, 5*time.Minute, productRow("PRD-1", "Carrots", "10"))
	ctx := context.Background()

	id, err := f.confirm.Prepare(ctx, model.ActionArchiveZeroOut, model.StockActionPayload{
		RowNumber: 2, SKU: "PRD-1",
	}, 42)
	require.NoError(t, err)

	require.NoError(t, f.confirm.Cancel(ctx, id, 42))

	_, err = f.confirm.Execute(ctx, id, actor())
	assert.True(t, errors.Is(err, apierror.ErrActionNotFound))
}

func TestConfirmExecuteDispatchesCorrection(t *testing.T) {
	f := newConfirmFixture(t, 5*time.Minute, productRow("PRD-1", "Carrots", "42"))
	ctx := context.Background()

	id, err := f.confirm.Prepare(ctx, model.ActionStockCorrection, model.StockActionPayload{
		RowNumber: 2, SKU: "PRD-1", NewStock: 50, Reason: "recount",
	}, 42)
	require.NoError(t, err)

	res, err := f.confirm.Execute(ctx, id, actor())
	require.NoError(t, err)
	require.True(t, res.OK, res.Error)
	assert.Equal(t, 50, res.StockAfter)
	assert.Equal(t, 1, f.ledgerLen("Intake"))
}

func TestConfirmExecuteDispatchesArchiveZeroOut(t *testing.T) {
	f := newConfirmFixture(t, 5*time.Minute, productRow("PRD-1", "Carrots", "15"))
	ctx := context.Background()

	id, err := f.confirm.Prepare(ctx, model.ActionArchiveZeroOut, model.StockActionPayload{
		RowNumber: 2, SKU: "PRD-1",
	}, 42)
	require.NoError(t, err)

	res, err := f.confirm.Execute(ctx, id, actor())
	require.NoError(t, err)
	require.True(t, res.OK, res.Error)

	raw := f.mem.Rows("Stock")[1]
	assert.Equal(t, "0", raw[3])
	assert.Equal(t, "FALSE", raw[5])
}
