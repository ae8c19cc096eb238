package insights

import (
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const lowMarginLimit = 10

type marginAcc struct {
	units       int
	revenue     decimal.Decimal
	grossProfit decimal.Decimal
}

// lowMargin flags products whose margin over the sales lookback is below the
// threshold or whose gross profit is negative. Sales without a sale total or
// without a cost snapshot are left out.
func lowMargin(s *snapshot) []LowMarginItem {
	threshold := decimal.NewFromFloat(s.cfg.LowMarginPercent)

	acc := make(map[uuid.UUID]*marginAcc)
	for _, a := range s.sales {
		if !a.SaleTotalILS.Valid || !a.CostSnapshotILS.Valid {
			continue
		}
		m, ok := acc[a.ProductID]
		if !ok {
			m = &marginAcc{}
			acc[a.ProductID] = m
		}
		units := decimal.NewFromInt(int64(a.Units()))
		m.units += a.Units()
		m.revenue = m.revenue.Add(a.SaleTotalILS.Decimal)
		m.grossProfit = m.grossProfit.Add(a.SaleTotalILS.Decimal.Sub(a.CostSnapshotILS.Decimal.Mul(units)))
	}

	items := make([]LowMarginItem, 0)
	for _, id := range sortedKeys(acc) {
		m := acc[id]
		margin := percentOf(m.grossProfit, m.revenue)
		if !margin.LessThan(threshold) && !m.grossProfit.IsNegative() {
			continue
		}
		items = append(items, LowMarginItem{
			ProductID:     id,
			ProductName:   s.productName(id),
			UnitsSold:     m.units,
			Revenue:       m.revenue.Round(2),
			GrossProfit:   m.grossProfit.Round(2),
			MarginPercent: margin.Round(2),
			Severity:      marginSeverity(margin, m.grossProfit, threshold),
		})
	}
	slices.SortStableFunc(items, func(a, b LowMarginItem) int {
		if c := a.MarginPercent.Cmp(b.MarginPercent); c != 0 {
			return c
		}
		return compareIDs(a.ProductID, b.ProductID)
	})
	return items
}

func marginSeverity(margin, grossProfit, threshold decimal.Decimal) Severity {
	switch {
	case margin.IsNegative(), grossProfit.IsNegative():
		return SeverityHigh
	case margin.LessThan(threshold):
		return SeverityMedium
	default:
		return SeverityLow
	}
}
