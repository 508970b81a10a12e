package service

import (
	"context"
	"fmt"

	"agrosnab/internal/apierror"
	"agrosnab/internal/model"
	"agrosnab/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// IntakeDraftPatch carries the fields an operator fills in step by step.
// Nil fields are left untouched.
type IntakeDraftPatch struct {
	Name     *string
	Price    *decimal.Decimal
	Quantity *int
	PhotoURL *string
}

// IntakeService drives the multi-step goods-receipt flow. A draft lives in
// the local store until the operator completes or cancels it; completion is
// idempotent via the draft fingerprint, so a retried completion after a
// network error does not double-log the receipt.
type IntakeService interface {
	Get(ctx context.Context, ownerID int64) (*model.IntakeDraft, error)
	// StartNew begins a draft for a product that does not exist yet.
	StartNew(ctx context.Context, ownerID int64, name string) (*model.IntakeDraft, error)
	// StartRestock begins a draft against an existing product.
	StartRestock(ctx context.Context, ownerID int64, sku string) (*model.IntakeDraft, error)
	Update(ctx context.Context, ownerID int64, patch IntakeDraftPatch) (*model.IntakeDraft, error)
	Complete(ctx context.Context, actor model.Actor) (*model.Product, model.StockOpResult, error)
	Cancel(ctx context.Context, ownerID int64) (bool, error)
}

type intakeService struct {
	sessions repository.IntakeSessionRepository
	products repository.ProductRepository
	stockOps StockOpsService
}

func NewIntakeService(sessions repository.IntakeSessionRepository, products repository.ProductRepository,
	stockOps StockOpsService) IntakeService {
	return &intakeService{sessions: sessions, products: products, stockOps: stockOps}
}

func (s *intakeService) Get(ctx context.Context, ownerID int64) (*model.IntakeDraft, error) {
	return s.sessions.Get(ctx, ownerID)
}

func (s *intakeService) StartNew(ctx context.Context, ownerID int64, name string) (*model.IntakeDraft, error) {
	if name == "" {
		return nil, apierror.NewValidation("product name is required")
	}
	draft := &model.IntakeDraft{OwnerID: ownerID, Name: name, IsNewProduct: true}
	if err := s.sessions.Save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *intakeService) StartRestock(ctx context.Context, ownerID int64, sku string) (*model.IntakeDraft, error) {
	product, err := s.products.FindBySKU(ctx, sku)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, apierror.ErrProductNotFound
	}
	draft := &model.IntakeDraft{
		OwnerID:  ownerID,
		Name:     product.Name,
		Price:    product.Price,
		SKU:      product.SKU,
		Existing: product,
	}
	if err := s.sessions.Save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

func (s *intakeService) Update(ctx context.Context, ownerID int64, patch IntakeDraftPatch) (*model.IntakeDraft, error) {
	draft, err := s.sessions.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if draft == nil {
		return nil, apierror.ErrActionNotFound
	}
	if patch.Name != nil {
		if !draft.IsNewProduct {
			return nil, apierror.NewValidation("cannot rename an existing product during intake")
		}
		draft.Name = *patch.Name
	}
	if patch.Price != nil {
		if patch.Price.IsNegative() {
			return nil, apierror.NewValidation("price cannot be negative")
		}
		draft.Price = *patch.Price
	}
	if patch.Quantity != nil {
		if *patch.Quantity <= 0 {
			return nil, apierror.NewValidation("quantity must be positive, got %d", *patch.Quantity)
		}
		draft.Quantity = *patch.Quantity
	}
	if patch.PhotoURL != nil {
		draft.PhotoURL = *patch.PhotoURL
	}
	if err := s.sessions.Save(ctx, draft); err != nil {
		return nil, err
	}
	return draft, nil
}

// Complete materializes the draft: new products are created with their
// starting stock, restocks increase the existing row, and either path logs
// the receipt under the draft fingerprint.
func (s *intakeService) Complete(ctx context.Context, actor model.Actor) (*model.Product, model.StockOpResult, error) {
	draft, err := s.sessions.Get(ctx, actor.ID)
	if err != nil {
		return nil, model.StockOpResult{}, err
	}
	if draft == nil {
		return nil, model.StockOpResult{}, apierror.ErrActionNotFound
	}
	if draft.Name == "" {
		return nil, model.StockOpResult{}, apierror.NewValidation("product name is required")
	}
	if draft.Quantity <= 0 {
		return nil, model.StockOpResult{}, apierror.NewValidation("quantity must be positive")
	}
	if draft.IsNewProduct && draft.Price.IsZero() {
		return nil, model.StockOpResult{}, apierror.NewValidation("price is required for a new product")
	}

	opID := draft.Fingerprint()

	var (
		product *model.Product
		reason  string
		before  int
	)
	if draft.IsNewProduct {
		product, err = s.products.Create(ctx, repository.NewProduct{
			Name:      draft.Name,
			Price:     draft.Price,
			Quantity:  draft.Quantity,
			PhotoURL:  draft.PhotoURL,
			UpdatedBy: actor.UpdatedBy(),
		})
		if err != nil {
			return nil, model.StockOpResult{}, err
		}
		reason = "new_product"
		before = 0
	} else {
		product, err = s.products.FindBySKU(ctx, draft.SKU)
		if err != nil {
			return nil, model.StockOpResult{}, err
		}
		if product == nil {
			return nil, model.StockOpResult{}, apierror.ErrProductNotFound
		}
		before = product.Stock
		reason = "restock"
	}

	// Ledger row first. A replayed completion hits the dedup window and must
	// not increase the stock a second time.
	result := s.stockOps.Intake(ctx, IntakeInput{
		RowNumber:   product.RowNumber,
		Qty:         draft.Quantity,
		StockBefore: before,
		StockAfter:  before + draft.Quantity,
		Reason:      reason,
		Actor:       actor,
		OperationID: opID,
	})
	if !result.OK {
		return product, result, nil
	}

	if !draft.IsNewProduct && !result.Duplicate {
		product, err = s.products.UpdateStock(ctx, product, draft.Quantity, actor.UpdatedBy())
		if err != nil {
			result.OK = false
			result.Kind = KindPartialFailure
			result.Error = fmt.Sprintf("ledger entry %s written but stock update failed: %v", opID, err)
			return product, result, nil
		}
		if draft.PhotoURL != "" && draft.PhotoURL != product.PhotoURL {
			if updated, perr := s.products.UpdatePhoto(ctx, product, draft.PhotoURL, actor.UpdatedBy()); perr != nil {
				log.Warn().Err(perr).Str("sku", product.SKU).Msg("intake: photo update failed")
			} else {
				product = updated
			}
		}
	}

	if _, err := s.sessions.Delete(ctx, actor.ID); err != nil {
		log.Warn().Err(err).Int64("owner_id", actor.ID).Msg("intake: session cleanup failed")
	}
	return product, result, nil
}

func (s *intakeService) Cancel(ctx context.Context, ownerID int64) (bool, error) {
	return s.sessions.Delete(ctx, ownerID)
}
