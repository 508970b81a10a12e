package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"agrosnab/internal/model"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SessionTTL bounds how long a half-finished intake survives.
const SessionTTL = 24 * time.Hour

// IntakeSessionRepository persists per-operator intake drafts across restarts.
type IntakeSessionRepository interface {
	Get(ctx context.Context, ownerID int64) (*model.IntakeDraft, error)
	Save(ctx context.Context, draft *model.IntakeDraft) error
	Delete(ctx context.Context, ownerID int64) (bool, error)
	CleanupExpired(ctx context.Context) (int64, error)
}

type intakeSessionRepo struct{ db *gorm.DB }

func NewIntakeSessionRepository(db *gorm.DB) IntakeSessionRepository {
	return &intakeSessionRepo{db: db}
}

func (r *intakeSessionRepo) Get(ctx context.Context, ownerID int64) (*model.IntakeDraft, error) {
	var sess model.IntakeSession
	err := r.db.WithContext(ctx).First(&sess, "owner_id = ?", ownerID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if time.Since(sess.UpdatedAt) > SessionTTL {
		// Lazily evict stale drafts.
		r.db.WithContext(ctx).Delete(&model.IntakeSession{}, "owner_id = ?", ownerID)
		log.Info().Int64("owner_id", ownerID).Msg("intake session expired")
		return nil, nil
	}

	var draft model.IntakeDraft
	if err := json.Unmarshal([]byte(sess.Data), &draft); err != nil {
		// Corrupted payload: drop the row rather than wedging the operator.
		r.db.WithContext(ctx).Delete(&model.IntakeSession{}, "owner_id = ?", ownerID)
		log.Error().Err(err).Int64("owner_id", ownerID).Msg("intake session corrupted, dropped")
		return nil, nil
	}
	return &draft, nil
}

func (r *intakeSessionRepo) Save(ctx context.Context, draft *model.IntakeDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return err
	}
	now := time.Now()
	sess := model.IntakeSession{
		OwnerID:   draft.OwnerID,
		Data:      string(data),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "owner_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&sess).Error
}

func (r *intakeSessionRepo) Delete(ctx context.Context, ownerID int64) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&model.IntakeSession{}, "owner_id = ?", ownerID)
	return res.RowsAffected > 0, res.Error
}

func (r *intakeSessionRepo) CleanupExpired(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-SessionTTL)
	res := r.db.WithContext(ctx).Delete(&model.IntakeSession{}, "updated_at < ?", cutoff)
	return res.RowsAffected, res.Error
}
