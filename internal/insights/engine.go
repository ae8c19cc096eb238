package insights

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

// Compute runs the six extractors over one fetched dataset. It validates cfg
// once, performs no I/O and keeps no state between calls, so identical
// (dataset, cfg, now) inputs always produce identical output.
func Compute(ds Dataset, cfg Config, now time.Time, loc *time.Location) (*Data, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	// The tax rate does not enter any insight, only the trusted window does.
	r := NewResolver(ds.FinancialTrackingStart, decimal.Zero, loc, now)
	s := newSnapshot(ds, cfg, r)

	var (
		wg        sync.WaitGroup
		margins   []LowMarginItem
		discounts []HighDiscountItem
		dead      []DeadStockItem
		stockouts []StockoutItem
		spikes    []CostSpikeItem
		health    healthResult
	)
	run := func(fn func()) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fn()
		}()
	}
	run(func() { margins = lowMargin(s) })
	run(func() { discounts = highDiscount(s) })
	run(func() { dead = deadStock(s) })
	run(func() { stockouts = stockoutRisk(s) })
	run(func() { spikes = costSpike(s) })
	run(func() { health = businessHealth(s) })
	wg.Wait()

	updatedAt := s.now
	data := &Data{
		LowMargin: Insight[LowMarginItem]{
			Title:     s.title(msgTitleLowMargin),
			Summary:   s.lowMarginSummary(len(margins)),
			Severity:  worstOf(margins, func(i LowMarginItem) Severity { return i.Severity }),
			Count:     len(margins),
			Items:     capItems(margins, lowMarginLimit),
			UpdatedAt: updatedAt,
		},
		HighDiscount: Insight[HighDiscountItem]{
			Title:     s.title(msgTitleHighDiscount),
			Summary:   s.highDiscountSummary(len(discounts)),
			Severity:  worstOf(discounts, func(i HighDiscountItem) Severity { return i.Severity }),
			Count:     len(discounts),
			Items:     capItems(discounts, highDiscountLimit),
			UpdatedAt: updatedAt,
		},
		DeadStock: Insight[DeadStockItem]{
			Title:     s.title(msgTitleDeadStock),
			Summary:   s.deadStockSummary(len(dead)),
			Severity:  deadStockSeverity(len(dead)),
			Count:     len(dead),
			Items:     capItems(dead, deadStockLimit),
			UpdatedAt: updatedAt,
		},
		StockoutRisk: Insight[StockoutItem]{
			Title:     s.title(msgTitleStockout),
			Summary:   s.stockoutSummary(len(stockouts)),
			Severity:  worstOf(stockouts, func(i StockoutItem) Severity { return i.Severity }),
			Count:     len(stockouts),
			Items:     capItems(stockouts, stockoutLimit),
			UpdatedAt: updatedAt,
		},
		CostSpike: Insight[CostSpikeItem]{
			Title:     s.title(msgTitleCostSpike),
			Summary:   s.costSpikeSummary(len(spikes)),
			Severity:  worstOf(spikes, func(i CostSpikeItem) Severity { return i.Severity }),
			Count:     len(spikes),
			Items:     capItems(spikes, costSpikeLimit),
			UpdatedAt: updatedAt,
		},
		BusinessHealth: BusinessHealth{
			Insight: Insight[MonthHealth]{
				Title:     s.title(msgTitleHealth),
				Summary:   s.healthSummary(len(health.months), health.warningMessage),
				Severity:  SeverityLow,
				Count:     len(health.months),
				Items:     health.months,
				UpdatedAt: updatedAt,
			},
			Warning:        health.warning,
			WarningMessage: health.warningMessage,
		},
	}
	if health.warning {
		data.BusinessHealth.Severity = SeverityHigh
	}
	return data, nil
}

// worstOf is the highest severity among items, low for an empty list.
func worstOf[T any](items []T, severity func(T) Severity) Severity {
	worst := SeverityLow
	for _, it := range items {
		if s := severity(it); s.rank() > worst.rank() {
			worst = s
		}
	}
	return worst
}
