package insights

import (
	"slices"

	"github.com/shopspring/decimal"
)

const deadStockLimit = 20

// deadStock lists on-hand products with no sale for at least DeadStockDays,
// never-sold products first. The last sale comes from the all-time aggregate,
// not from the windowed actions.
func deadStock(s *snapshot) []DeadStockItem {
	items := make([]DeadStockItem, 0)
	for i := range s.products {
		p := &s.products[i]
		if p.Quantity <= 0 {
			continue
		}

		item := DeadStockItem{
			ProductID:      p.ID,
			ProductName:    p.Name,
			Quantity:       p.Quantity,
			EstimatedValue: decimal.Zero,
		}
		// Valued at cost only; price would overstate the liability.
		if cost := p.UnitCost(); cost.IsPositive() {
			item.EstimatedValue = cost.Mul(decimal.NewFromInt(int64(p.Quantity))).Round(2)
		}

		if last, ok := s.lastSale[p.ID]; ok {
			days := 0
			if s.now.After(last) {
				days = int(s.now.Sub(last) / day)
			}
			if days < s.cfg.DeadStockDays {
				continue
			}
			lastAt := last
			item.LastSaleAt = &lastAt
			item.DaysSinceLastSale = &days
		}
		items = append(items, item)
	}

	slices.SortStableFunc(items, func(a, b DeadStockItem) int {
		switch {
		case a.DaysSinceLastSale == nil && b.DaysSinceLastSale != nil:
			return -1
		case a.DaysSinceLastSale != nil && b.DaysSinceLastSale == nil:
			return 1
		case a.DaysSinceLastSale != nil && *a.DaysSinceLastSale != *b.DaysSinceLastSale:
			return *b.DaysSinceLastSale - *a.DaysSinceLastSale
		}
		return compareIDs(a.ProductID, b.ProductID)
	})
	return items
}

func deadStockSeverity(count int) Severity {
	switch {
	case count > 5:
		return SeverityHigh
	case count > 0:
		return SeverityMedium
	default:
		return SeverityLow
	}
}
