package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	ActionAdd    = "add"    // purchase / restock
	ActionRemove = "remove" // sale / consumption
)

// InventoryAction is one append-only ledger entry. Rows are never updated
// after insert.
//
// QuantityChanged is written as an unsigned magnitude and the direction comes
// from ActionType. Older rows may carry a pre-signed value, so readers must go
// through Units().
type InventoryAction struct {
	ID              uuid.UUID `gorm:"type:char(36);primaryKey"`
	BusinessID      uuid.UUID `gorm:"type:char(36);not null;index:idx_actions_business_ts,priority:1"`
	ProductID       uuid.UUID `gorm:"type:char(36);not null;index"`
	ActionType      string    `gorm:"not null"` // "add" | "remove"
	QuantityChanged int       `gorm:"not null"`

	// Sale side
	SaleTotalILS    decimal.NullDecimal `gorm:"column:sale_total_ils;type:decimal(12,2)"`
	SaleUnitILS     decimal.NullDecimal `gorm:"column:sale_unit_ils;type:decimal(12,2)"`
	ListUnitILS     decimal.NullDecimal `gorm:"column:list_unit_ils;type:decimal(12,2)"`
	DiscountILS     decimal.NullDecimal `gorm:"column:discount_ils;type:decimal(12,2)"`
	DiscountPercent decimal.NullDecimal `gorm:"column:discount_percent;type:decimal(6,2)"`
	// CostSnapshotILS is the product cost at the moment of sale. It is never
	// recomputed from the current product cost.
	CostSnapshotILS decimal.NullDecimal `gorm:"column:cost_snapshot_ils;type:decimal(12,2)"`

	// Purchase side
	PurchaseUnitILS  decimal.NullDecimal `gorm:"column:purchase_unit_ils;type:decimal(12,2)"`
	PurchaseTotalILS decimal.NullDecimal `gorm:"column:purchase_total_ils;type:decimal(12,2)"`

	SupplierID *uuid.UUID `gorm:"type:char(36)"`
	Timestamp  time.Time  `gorm:"not null;index:idx_actions_business_ts,priority:2"`
	Notes      *string
	CreatedAt  time.Time
}

func (InventoryAction) TableName() string { return "inventory_actions" }

func (a *InventoryAction) BeforeCreate(_ *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (a *InventoryAction) IsSale() bool     { return a.ActionType == ActionRemove }
func (a *InventoryAction) IsPurchase() bool { return a.ActionType == ActionAdd }

// Units is the absolute quantity moved by the action.
func (a *InventoryAction) Units() int {
	if a.QuantityChanged < 0 {
		return -a.QuantityChanged
	}
	return a.QuantityChanged
}

// UnitCost resolves the purchase unit cost: purchase_unit_ils when present,
// otherwise purchase_total_ils spread over the units. ok is false when neither
// can be resolved.
func (a *InventoryAction) UnitCost() (cost decimal.Decimal, ok bool) {
	if a.PurchaseUnitILS.Valid {
		return a.PurchaseUnitILS.Decimal, true
	}
	if a.PurchaseTotalILS.Valid && a.Units() > 0 {
		return a.PurchaseTotalILS.Decimal.Div(decimal.NewFromInt(int64(a.Units()))), true
	}
	return decimal.Zero, false
}

// PurchaseTotal resolves the total spent on a purchase action.
func (a *InventoryAction) PurchaseTotal() (decimal.Decimal, bool) {
	if a.PurchaseTotalILS.Valid {
		return a.PurchaseTotalILS.Decimal, true
	}
	if a.PurchaseUnitILS.Valid {
		return a.PurchaseUnitILS.Decimal.Mul(decimal.NewFromInt(int64(a.Units()))), true
	}
	return decimal.Zero, false
}
