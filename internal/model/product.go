package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Product is the current-state snapshot of a catalog item.
// Quantity is stored authoritatively and updated in the same transaction that
// appends the matching InventoryAction; it is never rebuilt by replaying actions.
type Product struct {
	ID         uuid.UUID           `gorm:"type:char(36);primaryKey"`
	BusinessID uuid.UUID           `gorm:"type:char(36);not null;index"`
	Name       string              `gorm:"not null"`
	Quantity   int                 `gorm:"not null;default:0"`
	Price      decimal.Decimal     `gorm:"type:decimal(12,2);not null"`
	Cost       decimal.NullDecimal `gorm:"type:decimal(12,2)"`
	SupplierID *uuid.UUID          `gorm:"type:char(36);index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Product) TableName() string { return "products" }

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// UnitCost returns the current cost, or zero when none is recorded.
func (p *Product) UnitCost() decimal.Decimal {
	if !p.Cost.Valid {
		return decimal.Zero
	}
	return p.Cost.Decimal
}
