package insights

import (
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const highDiscountLimit = 10

var (
	discountHigh   = decimal.NewFromInt(35)
	discountMedium = decimal.NewFromInt(25)
)

type discountAcc struct {
	sales      int
	discount   decimal.Decimal
	percentSum decimal.Decimal
}

// highDiscount flags products whose average discount percent over the sales
// lookback reaches the threshold.
func highDiscount(s *snapshot) []HighDiscountItem {
	threshold := decimal.NewFromFloat(s.cfg.HighDiscountPercent)

	acc := make(map[uuid.UUID]*discountAcc)
	for _, a := range s.sales {
		if !a.DiscountPercent.Valid {
			continue
		}
		d, ok := acc[a.ProductID]
		if !ok {
			d = &discountAcc{}
			acc[a.ProductID] = d
		}
		d.sales++
		d.percentSum = d.percentSum.Add(a.DiscountPercent.Decimal)
		if a.DiscountILS.Valid {
			d.discount = d.discount.Add(a.DiscountILS.Decimal)
		}
	}

	items := make([]HighDiscountItem, 0)
	for _, id := range sortedKeys(acc) {
		d := acc[id]
		avg := d.percentSum.Div(decimal.NewFromInt(int64(d.sales)))
		if avg.LessThan(threshold) {
			continue
		}
		items = append(items, HighDiscountItem{
			ProductID:          id,
			ProductName:        s.productName(id),
			SalesCount:         d.sales,
			TotalDiscount:      d.discount.Round(2),
			AvgDiscountPercent: avg.Round(2),
			Severity:           discountSeverity(avg),
		})
	}
	slices.SortStableFunc(items, func(a, b HighDiscountItem) int {
		if c := b.AvgDiscountPercent.Cmp(a.AvgDiscountPercent); c != 0 {
			return c
		}
		return compareIDs(a.ProductID, b.ProductID)
	})
	return items
}

// discountSeverity uses fixed breakpoints regardless of the configured threshold.
func discountSeverity(avg decimal.Decimal) Severity {
	switch {
	case avg.GreaterThanOrEqual(discountHigh):
		return SeverityHigh
	case avg.GreaterThanOrEqual(discountMedium):
		return SeverityMedium
	default:
		return SeverityLow
	}
}
