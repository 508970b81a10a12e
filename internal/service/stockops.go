// Package service holds the business layer: stock mutations, two-phase
// confirmations, intake drafts and product queries. Handlers stay thin and
// delegate here.
package service

import (
	"context"
	"errors"
	"fmt"

	"agrosnab/internal/apierror"
	"agrosnab/internal/ledger"
	"agrosnab/internal/model"
	"agrosnab/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Ledger sources written by the owner-facing operations.
const (
	SourceIntake     = "owner_intake"
	SourceManual     = "owner_manual"
	SourceCorrection = "owner_correction"
)

// NotePending marks a writeoff row that was logged before the stock cell was
// mutated. A row still carrying it after a partial failure is the signal for
// manual reconciliation.
const NotePending = "pending_stock_update"

// Result error kinds, used by handlers to pick a status code.
const (
	KindValidation     = "validation"
	KindNotFound       = "not_found"
	KindRowChanged     = "row_changed"
	KindPartialFailure = "partial_failure"
	KindStoreError     = "store_error"
)

// LowStockNotifier receives products whose stock dropped to or below the
// configured threshold. Implementations must not block the caller.
type LowStockNotifier interface {
	NotifyLowStock(ctx context.Context, sku, name string, stock int)
}

type IntakeInput struct {
	RowNumber   int
	Qty         int
	StockBefore int
	StockAfter  int
	Reason      string
	Note        string
	Actor       model.Actor
	OperationID string
}

type WriteOffInput struct {
	RowNumber   int
	SKU         string
	Qty         int
	Reason      string
	Note        string
	Actor       model.Actor
	OperationID string
}

type CorrectionInput struct {
	RowNumber   int
	SKU         string
	NewStock    int
	Reason      string
	Actor       model.Actor
	OperationID string
}

type ArchiveInput struct {
	RowNumber   int
	SKU         string
	Actor       model.Actor
	OperationID string
}

// StockOpsService executes the five owner stock operations. Every mutation
// follows the same shape: re-read the product row, check the dedup window,
// append the ledger entry, then mutate the stock cell. The ledger row lands
// first so a crash between the two writes leaves an auditable trace instead
// of a silent drift.
type StockOpsService interface {
	Intake(ctx context.Context, in IntakeInput) model.StockOpResult
	WriteOff(ctx context.Context, in WriteOffInput) model.StockOpResult
	Correction(ctx context.Context, in CorrectionInput) model.StockOpResult
	ArchiveZeroOut(ctx context.Context, in ArchiveInput) model.StockOpResult
	ArchiveSimple(ctx context.Context, in ArchiveInput) model.StockOpResult
}

type stockOpsService struct {
	products      repository.ProductRepository
	engine        *ledger.Engine
	intakeSheet   string
	writeoffSheet string
	threshold     int
	notifier      LowStockNotifier
}

func NewStockOpsService(products repository.ProductRepository, engine *ledger.Engine,
	intakeSheet, writeoffSheet string, lowStockThreshold int, notifier LowStockNotifier) StockOpsService {
	return &stockOpsService{
		products:      products,
		engine:        engine,
		intakeSheet:   intakeSheet,
		writeoffSheet: writeoffSheet,
		threshold:     lowStockThreshold,
		notifier:      notifier,
	}
}

func failure(kind, format string, args ...interface{}) model.StockOpResult {
	return model.StockOpResult{OK: false, Kind: kind, Error: fmt.Sprintf(format, args...)}
}

func (s *stockOpsService) readRow(ctx context.Context, rowNumber int) (*model.Product, error) {
	p, err := s.products.GetByRow(ctx, rowNumber)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apierror.ErrProductNotFound
	}
	return p, nil
}

func asResult(err error, rowNumber int) model.StockOpResult {
	if errors.Is(err, apierror.ErrProductNotFound) {
		return failure(KindNotFound, "product not found at row %d", rowNumber)
	}
	return failure(KindStoreError, "failed to read product row %d: %v", rowNumber, err)
}

func (s *stockOpsService) maybeNotify(ctx context.Context, p *model.Product, stockAfter int) {
	if s.notifier == nil || s.threshold <= 0 || stockAfter > s.threshold {
		return
	}
	s.notifier.NotifyLowStock(ctx, p.SKU, p.Name, stockAfter)
}

// Intake records a goods receipt in the intake ledger. It does not touch the
// stock cell itself: the caller applies the increase separately and passes
// the resulting before/after values here for the audit row.
func (s *stockOpsService) Intake(ctx context.Context, in IntakeInput) model.StockOpResult {
	opID := in.OperationID
	if opID == "" {
		opID = uuid.NewString()
	}
	if in.Qty <= 0 {
		return failure(KindValidation, "quantity must be positive, got %d", in.Qty)
	}

	product, err := s.readRow(ctx, in.RowNumber)
	if err != nil {
		return asResult(err, in.RowNumber)
	}

	if prior, err := s.engine.Find(ctx, s.intakeSheet, opID); err != nil {
		return failure(KindStoreError, "dedup check failed: %v", err)
	} else if prior != nil {
		log.Info().Str("operation_id", opID).Str("sku", product.SKU).
			Msg("stockops: duplicate intake, skipping")
		return model.StockOpResult{OK: true, Duplicate: true, StockBefore: prior.StockBefore,
			StockAfter: prior.StockAfter, OperationID: opID}
	}

	ok := s.engine.Append(ctx, s.intakeSheet, model.LedgerEntry{
		OperationID:   opID,
		SKU:           product.SKU,
		Name:          product.Name,
		Qty:           in.Qty,
		StockBefore:   in.StockBefore,
		StockAfter:    in.StockAfter,
		Reason:        in.Reason,
		Source:        SourceIntake,
		ActorID:       in.Actor.ID,
		ActorUsername: in.Actor.Username,
		Note:          in.Note,
	})
	if !ok {
		return failure(KindStoreError, "failed to write intake ledger entry")
	}

	if err := s.engine.IncrementTotal(ctx, product.RowNumber, "Total_Intaken", in.Qty); err != nil {
		log.Warn().Err(err).Str("sku", product.SKU).Msg("stockops: total_intaken update failed")
	}
	return model.StockOpResult{OK: true, StockBefore: in.StockBefore,
		StockAfter: in.StockAfter, OperationID: opID}
}

// WriteOff logs a stock decrease and then applies it to the product row.
func (s *stockOpsService) WriteOff(ctx context.Context, in WriteOffInput) model.StockOpResult {
	opID := in.OperationID
	if opID == "" {
		opID = uuid.NewString()
	}
	if in.Qty <= 0 {
		return failure(KindValidation, "quantity must be positive, got %d", in.Qty)
	}

	product, err := s.readRow(ctx, in.RowNumber)
	if err != nil {
		return asResult(err, in.RowNumber)
	}
	if in.SKU != "" && product.SKU != in.SKU {
		return failure(KindRowChanged, "row %d now holds %s, expected %s", in.RowNumber, product.SKU, in.SKU)
	}
	if in.Qty > product.Stock {
		return failure(KindValidation, "insufficient stock: requested %d, available %d", in.Qty, product.Stock)
	}

	if prior, err := s.engine.Find(ctx, s.writeoffSheet, opID); err != nil {
		return failure(KindStoreError, "dedup check failed: %v", err)
	} else if prior != nil {
		log.Info().Str("operation_id", opID).Str("sku", product.SKU).
			Msg("stockops: duplicate writeoff, skipping")
		return model.StockOpResult{OK: true, Duplicate: true, StockBefore: prior.StockBefore,
			StockAfter: prior.StockAfter, OperationID: opID}
	}

	stockBefore := product.Stock
	stockAfter := stockBefore - in.Qty
	note := in.Note
	if note == "" {
		note = NotePending
	}
	ok := s.engine.Append(ctx, s.writeoffSheet, model.LedgerEntry{
		OperationID:   opID,
		SKU:           product.SKU,
		Name:          product.Name,
		Qty:           in.Qty,
		StockBefore:   stockBefore,
		StockAfter:    stockAfter,
		Reason:        in.Reason,
		Source:        SourceManual,
		ActorID:       in.Actor.ID,
		ActorUsername: in.Actor.Username,
		Note:          note,
	})
	if !ok {
		return failure(KindStoreError, "failed to write writeoff ledger entry")
	}

	if _, err := s.products.UpdateStock(ctx, product, -in.Qty, in.Actor.UpdatedBy()); err != nil {
		return failure(KindPartialFailure,
			"ledger entry %s written but stock update failed: %v", opID, err)
	}
	if err := s.engine.IncrementTotal(ctx, product.RowNumber, "Total_WrittenOff", in.Qty); err != nil {
		log.Warn().Err(err).Str("sku", product.SKU).Msg("stockops: total_writtenoff update failed")
	}

	s.maybeNotify(ctx, product, stockAfter)
	return model.StockOpResult{OK: true, StockBefore: stockBefore,
		StockAfter: stockAfter, OperationID: opID}
}

// Correction sets the stock to an explicit value. The delta is routed to the
// matching ledger: decreases land in the writeoff sheet, increases in the
// intake sheet. A zero delta is a successful no-op and writes nothing.
func (s *stockOpsService) Correction(ctx context.Context, in CorrectionInput) model.StockOpResult {
	opID := in.OperationID
	if opID == "" {
		opID = uuid.NewString()
	}
	if in.NewStock < 0 {
		return failure(KindValidation, "stock cannot be negative, got %d", in.NewStock)
	}

	product, err := s.readRow(ctx, in.RowNumber)
	if err != nil {
		return asResult(err, in.RowNumber)
	}
	if in.SKU != "" && product.SKU != in.SKU {
		return failure(KindRowChanged, "row %d now holds %s, expected %s", in.RowNumber, product.SKU, in.SKU)
	}

	stockBefore := product.Stock
	delta := in.NewStock - stockBefore
	if delta == 0 {
		return model.StockOpResult{OK: true, StockBefore: stockBefore,
			StockAfter: in.NewStock, OperationID: opID}
	}

	sheet := s.intakeSheet
	totalCol := "Total_Intaken"
	qty := delta
	if delta < 0 {
		sheet = s.writeoffSheet
		totalCol = "Total_WrittenOff"
		qty = -delta
	}

	if prior, err := s.engine.Find(ctx, sheet, opID); err != nil {
		return failure(KindStoreError, "dedup check failed: %v", err)
	} else if prior != nil {
		log.Info().Str("operation_id", opID).Str("sku", product.SKU).
			Msg("stockops: duplicate correction, skipping")
		return model.StockOpResult{OK: true, Duplicate: true, StockBefore: prior.StockBefore,
			StockAfter: prior.StockAfter, OperationID: opID}
	}

	ok := s.engine.Append(ctx, sheet, model.LedgerEntry{
		OperationID:   opID,
		SKU:           product.SKU,
		Name:          product.Name,
		Qty:           qty,
		StockBefore:   stockBefore,
		StockAfter:    in.NewStock,
		Reason:        "correction:" + in.Reason,
		Source:        SourceCorrection,
		ActorID:       in.Actor.ID,
		ActorUsername: in.Actor.Username,
	})
	if !ok {
		return failure(KindStoreError, "failed to write correction ledger entry")
	}

	if _, err := s.products.UpdateStock(ctx, product, delta, in.Actor.UpdatedBy()); err != nil {
		return failure(KindPartialFailure,
			"ledger entry %s written but stock update failed: %v", opID, err)
	}
	if err := s.engine.IncrementTotal(ctx, product.RowNumber, totalCol, qty); err != nil {
		log.Warn().Err(err).Str("sku", product.SKU).Msg("stockops: running total update failed")
	}

	if delta < 0 {
		s.maybeNotify(ctx, product, in.NewStock)
	}
	return model.StockOpResult{OK: true, StockBefore: stockBefore,
		StockAfter: in.NewStock, OperationID: opID}
}

// ArchiveZeroOut writes off the remaining stock, then deactivates the
// product. With zero stock on hand it only deactivates and writes no ledger
// row. A failed zero-out leaves the product active so the discrepancy stays
// visible.
func (s *stockOpsService) ArchiveZeroOut(ctx context.Context, in ArchiveInput) model.StockOpResult {
	opID := in.OperationID
	if opID == "" {
		opID = uuid.NewString()
	}

	product, err := s.readRow(ctx, in.RowNumber)
	if err != nil {
		return asResult(err, in.RowNumber)
	}
	if in.SKU != "" && product.SKU != in.SKU {
		return failure(KindRowChanged, "row %d now holds %s, expected %s", in.RowNumber, product.SKU, in.SKU)
	}

	stockBefore := product.Stock
	if stockBefore > 0 {
		prior, err := s.engine.Find(ctx, s.writeoffSheet, opID)
		if err != nil {
			return failure(KindStoreError, "dedup check failed: %v", err)
		}
		if prior == nil {
			ok := s.engine.Append(ctx, s.writeoffSheet, model.LedgerEntry{
				OperationID:   opID,
				SKU:           product.SKU,
				Name:          product.Name,
				Qty:           stockBefore,
				StockBefore:   stockBefore,
				StockAfter:    0,
				Reason:        "archive:zero_out",
				Source:        SourceManual,
				ActorID:       in.Actor.ID,
				ActorUsername: in.Actor.Username,
			})
			if !ok {
				return failure(KindStoreError, "failed to write archive ledger entry")
			}
			if _, err := s.products.UpdateStock(ctx, product, -stockBefore, in.Actor.UpdatedBy()); err != nil {
				return failure(KindPartialFailure,
					"ledger entry %s written but stock update failed: %v", opID, err)
			}
			if err := s.engine.IncrementTotal(ctx, product.RowNumber, "Total_WrittenOff", stockBefore); err != nil {
				log.Warn().Err(err).Str("sku", product.SKU).Msg("stockops: total_writtenoff update failed")
			}
		}
	}

	if _, err := s.products.UpdateActive(ctx, product, false, in.Actor.UpdatedBy()); err != nil {
		return failure(KindStoreError, "failed to deactivate %s: %v", product.SKU, err)
	}
	return model.StockOpResult{OK: true, StockBefore: stockBefore,
		StockAfter: 0, OperationID: opID}
}

// ArchiveSimple deactivates the product and leaves the stock untouched.
func (s *stockOpsService) ArchiveSimple(ctx context.Context, in ArchiveInput) model.StockOpResult {
	product, err := s.readRow(ctx, in.RowNumber)
	if err != nil {
		return asResult(err, in.RowNumber)
	}
	if in.SKU != "" && product.SKU != in.SKU {
		return failure(KindRowChanged, "row %d now holds %s, expected %s", in.RowNumber, product.SKU, in.SKU)
	}

	if _, err := s.products.UpdateActive(ctx, product, false, in.Actor.UpdatedBy()); err != nil {
		return failure(KindStoreError, "failed to deactivate %s: %v", product.SKU, err)
	}
	return model.StockOpResult{OK: true, StockBefore: product.Stock,
		StockAfter: product.Stock, OperationID: in.OperationID}
}
