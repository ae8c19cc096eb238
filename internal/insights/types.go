package insights

import (
	"time"

	"shelfwise/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Severity is the three-level priority attached to each insight.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) rank() int {
	switch s {
	case SeverityHigh:
		return 2
	case SeverityMedium:
		return 1
	default:
		return 0
	}
}

// Dataset is the snapshot every extractor reads. It is fetched once by the
// caller; nothing in this package performs I/O.
type Dataset struct {
	Actions  []model.InventoryAction
	Products []model.Product
	// LastSale holds the all-time latest sale per product. When LastSaleErr is
	// set the map is ignored and dead stock treats every product as never sold.
	LastSale    map[uuid.UUID]time.Time
	LastSaleErr error
	// SupplierNames is display-only and may be empty.
	SupplierNames          map[uuid.UUID]string
	FinancialTrackingStart *time.Time
}

// Insight is one category of the composite result.
type Insight[T any] struct {
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Severity  Severity  `json:"severity"`
	Count     int       `json:"count"`
	Items     []T       `json:"items"`
	UpdatedAt time.Time `json:"updated_at"`
}

type LowMarginItem struct {
	ProductID     uuid.UUID       `json:"product_id"`
	ProductName   string          `json:"product_name"`
	UnitsSold     int             `json:"units_sold"`
	Revenue       decimal.Decimal `json:"revenue"`
	GrossProfit   decimal.Decimal `json:"gross_profit"`
	MarginPercent decimal.Decimal `json:"margin_percent"`
	Severity      Severity        `json:"severity"`
}

type HighDiscountItem struct {
	ProductID          uuid.UUID       `json:"product_id"`
	ProductName        string          `json:"product_name"`
	SalesCount         int             `json:"sales_count"`
	TotalDiscount      decimal.Decimal `json:"total_discount"`
	AvgDiscountPercent decimal.Decimal `json:"avg_discount_percent"`
	Severity           Severity        `json:"severity"`
}

type DeadStockItem struct {
	ProductID         uuid.UUID       `json:"product_id"`
	ProductName       string          `json:"product_name"`
	Quantity          int             `json:"quantity"`
	LastSaleAt        *time.Time      `json:"last_sale_at"`
	DaysSinceLastSale *int            `json:"days_since_last_sale"`
	EstimatedValue    decimal.Decimal `json:"estimated_value"`
}

type StockoutItem struct {
	ProductID     uuid.UUID       `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Quantity      int             `json:"quantity"`
	SoldUnits     int             `json:"sold_units"`
	AvgDailySales decimal.Decimal `json:"avg_daily_sales"`
	DaysCover     decimal.Decimal `json:"days_cover"`
	Severity      Severity        `json:"severity"`
}

type CostSpikeItem struct {
	ProductID      uuid.UUID       `json:"product_id"`
	ProductName    string          `json:"product_name"`
	SupplierName   string          `json:"supplier_name"`
	AvgCostLong    decimal.Decimal `json:"avg_cost_long"`
	AvgCostRecent  decimal.Decimal `json:"avg_cost_recent"`
	ChangePercent  decimal.Decimal `json:"change_percent"`
	PurchasesCount int             `json:"purchases_count"`
	Severity       Severity        `json:"severity"`
}

// MonthHealth is one calendar month of the current year. Month is 0-based.
type MonthHealth struct {
	Month              int             `json:"month"`
	SalesCount         int             `json:"sales_count"`
	TotalRevenue       decimal.Decimal `json:"total_revenue"`
	TotalDiscounts     decimal.Decimal `json:"total_discounts"`
	GrossProfit        decimal.Decimal `json:"gross_profit"`
	AvgDiscountPercent decimal.Decimal `json:"avg_discount_percent"`
}

type BusinessHealth struct {
	Insight[MonthHealth]
	Warning        bool   `json:"warning"`
	WarningMessage string `json:"warning_message"`
}

// Data is the composite result returned by Compute.
type Data struct {
	LowMargin      Insight[LowMarginItem]    `json:"low_margin"`
	HighDiscount   Insight[HighDiscountItem] `json:"high_discount"`
	DeadStock      Insight[DeadStockItem]    `json:"dead_stock"`
	StockoutRisk   Insight[StockoutItem]     `json:"stockout_risk"`
	CostSpike      Insight[CostSpikeItem]    `json:"cost_spike"`
	BusinessHealth BusinessHealth            `json:"business_health"`
}

// HighSeverityCount is the number of categories currently flagged high.
func (d *Data) HighSeverityCount() int {
	n := 0
	for _, s := range []Severity{
		d.LowMargin.Severity, d.HighDiscount.Severity, d.DeadStock.Severity,
		d.StockoutRisk.Severity, d.CostSpike.Severity, d.BusinessHealth.Severity,
	} {
		if s == SeverityHigh {
			n++
		}
	}
	return n
}
