package insights

import (
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const stockoutLimit = 20

// noCoverDays stands in for "never runs out" so the value stays finite.
var noCoverDays = decimal.NewFromInt(999)

var (
	coverHigh   = decimal.NewFromInt(3)
	coverMedium = decimal.NewFromInt(7)
)

// daysCover divides on-hand quantity by daily sales velocity.
func daysCover(quantity int, avgDaily decimal.Decimal) decimal.Decimal {
	if !avgDaily.IsPositive() {
		return noCoverDays
	}
	return decimal.NewFromInt(int64(max(quantity, 0))).Div(avgDaily)
}

// stockoutRisk lists products that will run out within StockoutDaysCover at
// their recent sales velocity. Products with no recent sales are skipped; they
// belong to dead stock.
func stockoutRisk(s *snapshot) []StockoutItem {
	threshold := decimal.NewFromFloat(s.cfg.StockoutDaysCover)
	windowDays := decimal.NewFromInt(int64(s.cfg.SalesLookbackDays))

	sold := make(map[uuid.UUID]int)
	for _, a := range s.sales {
		sold[a.ProductID] += a.Units()
	}

	items := make([]StockoutItem, 0)
	for i := range s.products {
		p := &s.products[i]
		units := sold[p.ID]
		avgDaily := decimal.NewFromInt(int64(units)).Div(windowDays)
		if !avgDaily.IsPositive() {
			continue
		}
		cover := daysCover(p.Quantity, avgDaily)
		if !cover.LessThan(threshold) {
			continue
		}
		items = append(items, StockoutItem{
			ProductID:     p.ID,
			ProductName:   p.Name,
			Quantity:      p.Quantity,
			SoldUnits:     units,
			AvgDailySales: avgDaily.Round(2),
			DaysCover:     cover.Round(2),
			Severity:      stockoutSeverity(cover),
		})
	}
	slices.SortStableFunc(items, func(a, b StockoutItem) int {
		if c := a.DaysCover.Cmp(b.DaysCover); c != 0 {
			return c
		}
		return compareIDs(a.ProductID, b.ProductID)
	})
	return items
}

func stockoutSeverity(cover decimal.Decimal) Severity {
	switch {
	case cover.LessThan(coverHigh):
		return SeverityHigh
	case cover.LessThan(coverMedium):
		return SeverityMedium
	default:
		return SeverityLow
	}
}
