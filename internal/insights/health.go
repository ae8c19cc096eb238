package insights

import (
	"github.com/shopspring/decimal"
)

type monthAcc struct {
	sales        int
	revenue      decimal.Decimal
	discounts    decimal.Decimal
	grossProfit  decimal.Decimal
	percentSum   decimal.Decimal
	percentCount int
}

func (m *monthAcc) avgDiscountPercent() decimal.Decimal {
	if m.percentCount == 0 {
		return decimal.Zero
	}
	return m.percentSum.Div(decimal.NewFromInt(int64(m.percentCount)))
}

type healthResult struct {
	months         []MonthHealth
	warning        bool
	warningMessage string
}

// businessHealth buckets this year's sales by month and raises a warning when
// the last completed month shows both a higher average discount and a lower
// gross profit than the month before it. Either condition alone is not enough.
func businessHealth(s *snapshot) healthResult {
	var buckets [12]monthAcc
	loc := s.resolver.Location()
	for _, a := range s.yearSales {
		if !a.SaleTotalILS.Valid {
			continue
		}
		m := &buckets[a.Timestamp.In(loc).Month()-1]
		m.sales++
		m.revenue = m.revenue.Add(a.SaleTotalILS.Decimal)
		if a.DiscountILS.Valid {
			m.discounts = m.discounts.Add(a.DiscountILS.Decimal)
		}
		if a.DiscountPercent.Valid {
			m.percentSum = m.percentSum.Add(a.DiscountPercent.Decimal)
			m.percentCount++
		}
		// gross profit follows low margin: a sale without a cost snapshot
		// counts toward revenue only
		if a.CostSnapshotILS.Valid {
			cogs := a.CostSnapshotILS.Decimal.Mul(decimal.NewFromInt(int64(a.Units())))
			m.grossProfit = m.grossProfit.Add(a.SaleTotalILS.Decimal.Sub(cogs))
		}
	}

	res := healthResult{months: make([]MonthHealth, 0)}
	for i := range buckets {
		if buckets[i].sales == 0 {
			continue
		}
		res.months = append(res.months, MonthHealth{
			Month:              i,
			SalesCount:         buckets[i].sales,
			TotalRevenue:       buckets[i].revenue.Round(2),
			TotalDiscounts:     buckets[i].discounts.Round(2),
			GrossProfit:        buckets[i].grossProfit.Round(2),
			AvgDiscountPercent: buckets[i].avgDiscountPercent().Round(2),
		})
	}

	// Needs two completed months of this year, so from March onward.
	current := int(s.now.In(loc).Month()) - 1
	if current < 2 {
		return res
	}
	last, before := &buckets[current-1], &buckets[current-2]
	if last.sales == 0 || before.sales == 0 {
		return res
	}
	discountUp := last.avgDiscountPercent().GreaterThan(before.avgDiscountPercent())
	profitDown := last.grossProfit.LessThan(before.grossProfit)
	if discountUp && profitDown {
		res.warning = true
		res.warningMessage = s.healthWarning(current-2, current-1, before, last)
	}
	return res
}
