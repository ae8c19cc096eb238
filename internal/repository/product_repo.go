package repository

import (
	"context"
	"errors"

	"shelfwise/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrInsufficientStock is returned when a delta would take quantity below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

// ProductRepository defines the data access contract for the catalog.
// Services depend on this interface, not on the concrete GORM implementation.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, businessID, id uuid.UUID) (*model.Product, error)
	ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]model.Product, error)

	// ApplyDeltaTx adds delta to quantity inside the caller's transaction. It
	// never lets quantity go negative.
	ApplyDeltaTx(tx *gorm.DB, businessID, id uuid.UUID, delta int) (int, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, businessID, id uuid.UUID) (*model.Product, error) {
	var p model.Product
	err := r.db.WithContext(ctx).Where("business_id = ? AND id = ?", businessID, id).First(&p).Error
	return &p, err
}

func (r *productRepo) ListByBusiness(ctx context.Context, businessID uuid.UUID) ([]model.Product, error) {
	var products []model.Product
	err := r.db.WithContext(ctx).Where("business_id = ?", businessID).Order("id").Find(&products).Error
	return products, err
}

func (r *productRepo) ApplyDeltaTx(tx *gorm.DB, businessID, id uuid.UUID, delta int) (int, error) {
	res := tx.Model(&model.Product{}).
		Where("business_id = ? AND id = ? AND quantity + ? >= 0", businessID, id, delta).
		Update("quantity", gorm.Expr("quantity + ?", delta))
	if res.Error != nil {
		return 0, res.Error
	}

	var p model.Product
	if err := tx.Where("business_id = ? AND id = ?", businessID, id).First(&p).Error; err != nil {
		return 0, err
	}
	if res.RowsAffected == 0 {
		return p.Quantity, ErrInsufficientStock
	}
	return p.Quantity, nil
}

func (r *productRepo) DB() *gorm.DB { return r.db }
