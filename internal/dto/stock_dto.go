package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Request DTOs ────────────────────────────────────────────────────────────

type StageAdjustmentRequest struct {
	TargetQuantity *int `json:"target_quantity" validate:"required,min=0"`
}

// ConfirmAdjustmentRequest carries the money side of the change. Every field
// is optional: a sale without prices is recorded at list price, a purchase
// without prices is recorded without cost.
type ConfirmAdjustmentRequest struct {
	SaleUnitILS      *decimal.Decimal `json:"sale_unit_ils"      validate:"omitempty,min=0"`
	SaleTotalILS     *decimal.Decimal `json:"sale_total_ils"     validate:"omitempty,min=0"`
	PurchaseUnitILS  *decimal.Decimal `json:"purchase_unit_ils"  validate:"omitempty,min=0"`
	PurchaseTotalILS *decimal.Decimal `json:"purchase_total_ils" validate:"omitempty,min=0"`
	SupplierID       *string          `json:"supplier_id"        validate:"omitempty,uuid"`
	Notes            *string          `json:"notes"              validate:"omitempty,max=500"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type PendingAdjustmentResponse struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"product_id"`
	FromQuantity int       `json:"from_quantity"`
	ToQuantity   int       `json:"to_quantity"`
	Delta        int       `json:"delta"`
	Direction    string    `json:"direction"`
	Units        int       `json:"units"`
	State        string    `json:"state"`
	Attempts     int       `json:"attempts"`
	LastError    string    `json:"last_error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type ActionResponse struct {
	ID               string           `json:"id"`
	ProductID        string           `json:"product_id"`
	ActionType       string           `json:"action_type"`
	QuantityChanged  int              `json:"quantity_changed"`
	SaleTotalILS     *decimal.Decimal `json:"sale_total_ils"`
	SaleUnitILS      *decimal.Decimal `json:"sale_unit_ils"`
	ListUnitILS      *decimal.Decimal `json:"list_unit_ils"`
	DiscountILS      *decimal.Decimal `json:"discount_ils"`
	DiscountPercent  *decimal.Decimal `json:"discount_percent"`
	CostSnapshotILS  *decimal.Decimal `json:"cost_snapshot_ils"`
	PurchaseUnitILS  *decimal.Decimal `json:"purchase_unit_ils"`
	PurchaseTotalILS *decimal.Decimal `json:"purchase_total_ils"`
	SupplierID       *string          `json:"supplier_id"`
	Timestamp        time.Time        `json:"timestamp"`
	Notes            *string          `json:"notes"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ActionListQuery struct {
	Type  string `form:"type"              validate:"omitempty,oneof=add remove"`
	Page  int    `form:"page,default=1"    validate:"min=1"`
	Limit int    `form:"limit,default=100" validate:"min=1,max=500"`
}

type ActionListResponse struct {
	Data       []ActionResponse `json:"data"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
}
