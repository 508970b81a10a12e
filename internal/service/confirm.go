package service

import (
	"context"
	"encoding/json"
	"time"

	"agrosnab/internal/apierror"
	"agrosnab/internal/model"
	"agrosnab/internal/repository"

	"github.com/rs/zerolog/log"
)

// ConfirmService runs the two-phase flow for destructive operations: Prepare
// stores the intent with a TTL and returns a one-shot token, Execute consumes
// the token and dispatches the stored action. The stored row is deleted
// before the action runs, so a retry after a crash mid-execution finds no
// token and reports not-found rather than running the action twice.
type ConfirmService interface {
	Prepare(ctx context.Context, actionType string, payload model.StockActionPayload, ownerID int64) (string, error)
	Execute(ctx context.Context, actionID string, actor model.Actor) (model.StockOpResult, error)
	Cancel(ctx context.Context, actionID string, ownerID int64) error
}

type confirmService struct {
	actions  repository.ConfirmActionRepository
	stockOps StockOpsService
	ttl      time.Duration
}

func NewConfirmService(actions repository.ConfirmActionRepository, stockOps StockOpsService, ttl time.Duration) ConfirmService {
	return &confirmService{actions: actions, stockOps: stockOps, ttl: ttl}
}

func (s *confirmService) Prepare(ctx context.Context, actionType string, payload model.StockActionPayload, ownerID int64) (string, error) {
	switch actionType {
	case model.ActionStockWriteoff, model.ActionStockCorrection,
		model.ActionArchiveSimple, model.ActionArchiveZeroOut:
	default:
		return "", apierror.NewValidation("unknown action type: %s", actionType)
	}
	id, err := s.actions.Create(ctx, actionType, payload, ownerID, s.ttl)
	if err != nil {
		return "", err
	}
	log.Info().Str("action_id", id).Str("action_type", actionType).
		Int64("owner_id", ownerID).Msg("confirm: action prepared")
	return id, nil
}

func (s *confirmService) Execute(ctx context.Context, actionID string, actor model.Actor) (model.StockOpResult, error) {
	action, err := s.actions.Get(ctx, actionID)
	if err != nil {
		return model.StockOpResult{}, err
	}
	if action.OwnerID != actor.ID {
		return model.StockOpResult{}, apierror.ErrUnauthorized
	}

	var payload model.StockActionPayload
	if err := json.Unmarshal(action.Payload, &payload); err != nil {
		return model.StockOpResult{}, err
	}

	// Consume the token first. At-most-once: a lost execution is recoverable
	// from the ledger, a doubled one is not.
	deleted, err := s.actions.Delete(ctx, actionID)
	if err != nil {
		return model.StockOpResult{}, err
	}
	if !deleted {
		return model.StockOpResult{}, apierror.ErrActionNotFound
	}

	log.Info().Str("action_id", actionID).Str("action_type", action.ActionType).
		Str("sku", payload.SKU).Msg("confirm: executing action")

	switch action.ActionType {
	case model.ActionStockWriteoff:
		return s.stockOps.WriteOff(ctx, WriteOffInput{
			RowNumber:   payload.RowNumber,
			SKU:         payload.SKU,
			Qty:         payload.Qty,
			Reason:      payload.Reason,
			Actor:       actor,
			OperationID: payload.OperationID,
		}), nil
	case model.ActionStockCorrection:
		return s.stockOps.Correction(ctx, CorrectionInput{
			RowNumber:   payload.RowNumber,
			SKU:         payload.SKU,
			NewStock:    payload.NewStock,
			Reason:      payload.Reason,
			Actor:       actor,
			OperationID: payload.OperationID,
		}), nil
	case model.ActionArchiveZeroOut:
		return s.stockOps.ArchiveZeroOut(ctx, ArchiveInput{
			RowNumber:   payload.RowNumber,
			SKU:         payload.SKU,
			Actor:       actor,
			OperationID: payload.OperationID,
		}), nil
	case model.ActionArchiveSimple:
		return s.stockOps.ArchiveSimple(ctx, ArchiveInput{
			RowNumber:   payload.RowNumber,
			SKU:         payload.SKU,
			Actor:       actor,
			OperationID: payload.OperationID,
		}), nil
	default:
		return model.StockOpResult{}, apierror.NewValidation("unknown action type: %s", action.ActionType)
	}
}

func (s *confirmService) Cancel(ctx context.Context, actionID string, ownerID int64) error {
	action, err := s.actions.Get(ctx, actionID)
	if err != nil {
		return err
	}
	if action.OwnerID != ownerID {
		return apierror.ErrUnauthorized
	}
	if _, err := s.actions.Delete(ctx, actionID); err != nil {
		return err
	}
	log.Info().Str("action_id", actionID).Msg("confirm: action cancelled")
	return nil
}
