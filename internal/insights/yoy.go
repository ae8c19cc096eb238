package insights

import (
	"shelfwise/internal/model"

	"github.com/shopspring/decimal"
)

// Financials is the rollup shared by a month and a year. Net figures strip
// sales tax from revenue only; cost of goods is tax free already.
type Financials struct {
	RevenueGross     decimal.Decimal `json:"revenue_gross"`
	RevenueNet       decimal.Decimal `json:"revenue_net"`
	Purchases        decimal.Decimal `json:"purchases"`
	CostOfGoods      decimal.Decimal `json:"cost_of_goods"`
	GrossProfit      decimal.Decimal `json:"gross_profit"`
	NetProfit        decimal.Decimal `json:"net_profit"`
	Discounts        decimal.Decimal `json:"discounts"`
	TransactionCount int             `json:"transaction_count"`
}

type MonthlyFinancials struct {
	Month int `json:"month"` // 0-based
	Financials
}

type YearlyFinancials struct {
	Year           int    `json:"year"`
	EffectiveStart string `json:"effective_start"`
	Financials
}

// Comparison holds current versus previous year deltas. Percentages are zero
// whenever the previous value is zero.
type Comparison struct {
	CurrentYear            int             `json:"current_year"`
	PreviousYear           int             `json:"previous_year"`
	RevenueChange          decimal.Decimal `json:"revenue_change"`
	RevenueChangePercent   decimal.Decimal `json:"revenue_change_percent"`
	NetProfitChange        decimal.Decimal `json:"net_profit_change"`
	NetProfitChangePercent decimal.Decimal `json:"net_profit_change_percent"`
	DiscountChange         decimal.Decimal `json:"discount_change"`
	DiscountChangePercent  decimal.Decimal `json:"discount_change_percent"`
}

type YearOverYear struct {
	Years         []YearlyFinancials          `json:"years"`
	MonthlyByYear map[int][]MonthlyFinancials `json:"monthly_by_year"`
	Comparisons   *Comparison                 `json:"comparisons"`
}

// rawTotals accumulates gross figures; net values are derived once in finish
// so gross and net never mix inside a subtotal.
type rawTotals struct {
	revenueGross decimal.Decimal
	purchases    decimal.Decimal
	cogs         decimal.Decimal
	discounts    decimal.Decimal
	transactions int
}

func (t *rawTotals) add(o *rawTotals) {
	t.revenueGross = t.revenueGross.Add(o.revenueGross)
	t.purchases = t.purchases.Add(o.purchases)
	t.cogs = t.cogs.Add(o.cogs)
	t.discounts = t.discounts.Add(o.discounts)
	t.transactions += o.transactions
}

func (t *rawTotals) finish(r *Resolver) Financials {
	net := r.NetFromGross(t.revenueGross)
	return Financials{
		RevenueGross:     t.revenueGross.Round(2),
		RevenueNet:       net.Round(2),
		Purchases:        t.purchases.Round(2),
		CostOfGoods:      t.cogs.Round(2),
		GrossProfit:      t.revenueGross.Sub(t.cogs).Round(2),
		NetProfit:        net.Sub(t.cogs).Round(2),
		Discounts:        t.discounts.Round(2),
		TransactionCount: t.transactions,
	}
}

// accumulate folds one action into the totals. It reports false when the
// action carries no usable financial data.
func (t *rawTotals) accumulate(a *model.InventoryAction) bool {
	switch {
	case a.IsSale():
		if !a.SaleTotalILS.Valid {
			return false
		}
		t.revenueGross = t.revenueGross.Add(a.SaleTotalILS.Decimal)
		if a.DiscountILS.Valid {
			t.discounts = t.discounts.Add(a.DiscountILS.Decimal)
		}
		if a.CostSnapshotILS.Valid {
			t.cogs = t.cogs.Add(a.CostSnapshotILS.Decimal.Mul(decimal.NewFromInt(int64(a.Units()))))
		}
	case a.IsPurchase():
		total, ok := a.PurchaseTotal()
		if !ok {
			return false
		}
		t.purchases = t.purchases.Add(total)
	default:
		return false
	}
	t.transactions++
	return true
}

// BuildYearOverYear rolls actions up per year and month for the last n years.
// Every year gets twelve months; months before the year's effective start
// stay zero.
func BuildYearOverYear(actions []model.InventoryAction, r *Resolver, n int) *YearOverYear {
	years := r.RelevantYears(n)
	buckets := make(map[int]*[12]rawTotals, len(years))
	for _, y := range years {
		buckets[y] = &[12]rawTotals{}
	}

	for i := range actions {
		a := &actions[i]
		if !r.Contains(a.Timestamp) {
			continue
		}
		t := a.Timestamp.In(r.Location())
		months, ok := buckets[t.Year()]
		if !ok {
			continue
		}
		months[t.Month()-1].accumulate(a)
	}

	out := &YearOverYear{
		Years:         make([]YearlyFinancials, 0, len(years)),
		MonthlyByYear: make(map[int][]MonthlyFinancials, len(years)),
	}
	yearTotals := make(map[int]Financials, len(years))
	for _, y := range years {
		var total rawTotals
		monthly := make([]MonthlyFinancials, 12)
		for m := range buckets[y] {
			total.add(&buckets[y][m])
			monthly[m] = MonthlyFinancials{Month: m, Financials: buckets[y][m].finish(r)}
		}
		fin := total.finish(r)
		yearTotals[y] = fin
		out.MonthlyByYear[y] = monthly
		out.Years = append(out.Years, YearlyFinancials{
			Year:           y,
			EffectiveStart: r.EffectiveStart(y).Format("2006-01-02"),
			Financials:     fin,
		})
	}

	if len(years) >= 2 {
		cur, prev := years[len(years)-1], years[len(years)-2]
		c, p := yearTotals[cur], yearTotals[prev]
		out.Comparisons = &Comparison{
			CurrentYear:            cur,
			PreviousYear:           prev,
			RevenueChange:          c.RevenueGross.Sub(p.RevenueGross),
			RevenueChangePercent:   changePercent(c.RevenueGross, p.RevenueGross),
			NetProfitChange:        c.NetProfit.Sub(p.NetProfit),
			NetProfitChangePercent: changePercent(c.NetProfit, p.NetProfit),
			DiscountChange:         c.Discounts.Sub(p.Discounts),
			DiscountChangePercent:  changePercent(c.Discounts, p.Discounts),
		}
	}
	return out
}

// changePercent is measured against the magnitude of the previous value so a
// recovery from a loss reads as a positive change.
func changePercent(cur, prev decimal.Decimal) decimal.Decimal {
	if prev.IsZero() {
		return decimal.Zero
	}
	return cur.Sub(prev).Div(prev.Abs()).Mul(hundred).Round(2)
}
