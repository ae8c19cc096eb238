package repository

import (
	"context"

	"shelfwise/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BusinessRepository interface {
	Create(ctx context.Context, b *model.Business) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Business, error)
	// ListWithDigest returns businesses that opted into the insights digest.
	ListWithDigest(ctx context.Context) ([]model.Business, error)
}

type businessRepo struct{ db *gorm.DB }

func NewBusinessRepository(db *gorm.DB) BusinessRepository { return &businessRepo{db: db} }

func (r *businessRepo) Create(ctx context.Context, b *model.Business) error {
	return r.db.WithContext(ctx).Create(b).Error
}

func (r *businessRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Business, error) {
	var b model.Business
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&b).Error
	return &b, err
}

func (r *businessRepo) ListWithDigest(ctx context.Context) ([]model.Business, error) {
	var businesses []model.Business
	err := r.db.WithContext(ctx).
		Where("digest_email IS NOT NULL AND digest_email <> ''").
		Order("id").
		Find(&businesses).Error
	return businesses, err
}
