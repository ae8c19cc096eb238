package dto

import "shelfwise/internal/insights"

// ─── Query DTOs ──────────────────────────────────────────────────────────────

// InsightsQuery carries per-request threshold overrides. Nil fields keep the
// configured default.
type InsightsQuery struct {
	SalesLookbackDays     *int     `form:"sales_lookback_days"     validate:"omitempty,min=1,max=365"`
	PurchasesLookbackDays *int     `form:"purchases_lookback_days" validate:"omitempty,min=1,max=730"`
	RecentPurchaseDays    *int     `form:"recent_purchase_days"    validate:"omitempty,min=1,max=730"`
	LowMarginPercent      *float64 `form:"low_margin_percent"      validate:"omitempty,min=0,max=100"`
	HighDiscountPercent   *float64 `form:"high_discount_percent"   validate:"omitempty,min=0,max=100"`
	DeadStockDays         *int     `form:"dead_stock_days"         validate:"omitempty,min=1,max=3650"`
	StockoutDaysCover     *float64 `form:"stockout_days_cover"     validate:"omitempty,gt=0,max=365"`
	CostIncreasePercent   *float64 `form:"cost_increase_percent"   validate:"omitempty,min=0,max=1000"`
}

// Apply overlays the non-nil overrides on base.
func (q InsightsQuery) Apply(base insights.Config) insights.Config {
	cfg := base
	if q.SalesLookbackDays != nil {
		cfg.SalesLookbackDays = *q.SalesLookbackDays
	}
	if q.PurchasesLookbackDays != nil {
		cfg.PurchasesLookbackDays = *q.PurchasesLookbackDays
	}
	if q.RecentPurchaseDays != nil {
		cfg.RecentPurchaseDays = *q.RecentPurchaseDays
	}
	if q.LowMarginPercent != nil {
		cfg.LowMarginPercent = *q.LowMarginPercent
	}
	if q.HighDiscountPercent != nil {
		cfg.HighDiscountPercent = *q.HighDiscountPercent
	}
	if q.DeadStockDays != nil {
		cfg.DeadStockDays = *q.DeadStockDays
	}
	if q.StockoutDaysCover != nil {
		cfg.StockoutDaysCover = *q.StockoutDaysCover
	}
	if q.CostIncreasePercent != nil {
		cfg.CostIncreasePercent = *q.CostIncreasePercent
	}
	return cfg
}

type YearOverYearQuery struct {
	Years int `form:"years" validate:"omitempty,min=1,max=10"`
}
