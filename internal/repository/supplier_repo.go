package repository

import (
	"context"

	"shelfwise/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SupplierRepository interface {
	Create(ctx context.Context, s *model.Supplier) error
	FindByID(ctx context.Context, businessID, id uuid.UUID) (*model.Supplier, error)
	// NamesByBusiness maps supplier id to display name.
	NamesByBusiness(ctx context.Context, businessID uuid.UUID) (map[uuid.UUID]string, error)
}

type supplierRepo struct{ db *gorm.DB }

func NewSupplierRepository(db *gorm.DB) SupplierRepository { return &supplierRepo{db: db} }

func (r *supplierRepo) Create(ctx context.Context, s *model.Supplier) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *supplierRepo) FindByID(ctx context.Context, businessID, id uuid.UUID) (*model.Supplier, error) {
	var s model.Supplier
	err := r.db.WithContext(ctx).Where("business_id = ? AND id = ?", businessID, id).First(&s).Error
	return &s, err
}

func (r *supplierRepo) NamesByBusiness(ctx context.Context, businessID uuid.UUID) (map[uuid.UUID]string, error) {
	var suppliers []model.Supplier
	err := r.db.WithContext(ctx).Select("id", "name").Where("business_id = ?", businessID).Find(&suppliers).Error
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(suppliers))
	for _, s := range suppliers {
		names[s.ID] = s.Name
	}
	return names, nil
}
