package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"agrosnab/internal/apierror"
	"agrosnab/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConfirmActionRepository is the pending-action register gating destructive
// operations behind explicit operator confirmation.
type ConfirmActionRepository interface {
	// Create stores a pending action and returns its id. ttl <= 0 produces an
	// action that is already expired on the next Get.
	Create(ctx context.Context, actionType string, payload interface{}, ownerID int64, ttl time.Duration) (string, error)
	// Get returns the action only if not expired; expired rows are deleted as
	// a side effect. This is the only read path.
	Get(ctx context.Context, id string) (*model.ConfirmAction, error)
	// Delete removes the action. Callers invoke it immediately after a
	// successful Get, before executing the underlying operation.
	Delete(ctx context.Context, id string) (bool, error)
	// CleanupExpired removes all expired actions, returning the count.
	CleanupExpired(ctx context.Context) (int64, error)
}

type confirmRepo struct{ db *gorm.DB }

func NewConfirmActionRepository(db *gorm.DB) ConfirmActionRepository {
	return &confirmRepo{db: db}
}

func (r *confirmRepo) Create(ctx context.Context, actionType string, payload interface{}, ownerID int64, ttl time.Duration) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", err
	}
	now := time.Now()
	action := model.ConfirmAction{
		ID:         uuid.NewString(),
		ActionType: actionType,
		Payload:    data,
		OwnerID:    ownerID,
		ExpiresAt:  now.Add(ttl),
		CreatedAt:  now,
	}
	if err := r.db.WithContext(ctx).Create(&action).Error; err != nil {
		return "", err
	}
	return action.ID, nil
}

func (r *confirmRepo) Get(ctx context.Context, id string) (*model.ConfirmAction, error) {
	var action model.ConfirmAction
	err := r.db.WithContext(ctx).First(&action, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apierror.ErrActionNotFound
	}
	if err != nil {
		return nil, err
	}
	if !time.Now().Before(action.ExpiresAt) {
		// Lazy expiry: first access past the deadline removes the row.
		r.db.WithContext(ctx).Delete(&model.ConfirmAction{}, "id = ?", id)
		return nil, apierror.ErrActionNotFound
	}
	return &action, nil
}

func (r *confirmRepo) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.ConfirmAction{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}

func (r *confirmRepo) CleanupExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).Delete(&model.ConfirmAction{}, "expires_at <= ?", time.Now())
	return res.RowsAffected, res.Error
}
