package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/chynybekuuludastan/sitecloner/internal/models"
)

// FailureRepository stores model outputs that could not be parsed
type FailureRepository interface {
	Repository
	Record(ctx context.Context, failure *models.ModelFailure) error
	Recent(ctx context.Context, limit int) ([]models.ModelFailure, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

type failureRepository struct {
	*BaseRepository
}

// NewFailureRepository creates a new failure repository
func NewFailureRepository(db *gorm.DB) FailureRepository {
	return &failureRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Record inserts a failure row
func (r *failureRepository) Record(ctx context.Context, failure *models.ModelFailure) error {
	return r.Create(ctx, failure)
}

// Recent returns the newest failures first
func (r *failureRepository) Recent(ctx context.Context, limit int) ([]models.ModelFailure, error) {
	if limit <= 0 {
		limit = 20
	}

	var failures []models.ModelFailure
	err := r.DB.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Find(&failures).Error
	return failures, err
}

// DeleteOlderThan prunes failures created before cutoff
func (r *failureRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.DB.WithContext(ctx).
		Where("created_at < ?", cutoff).
		Delete(&models.ModelFailure{})
	return result.RowsAffected, result.Error
}
