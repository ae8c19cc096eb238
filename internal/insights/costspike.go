package insights

import (
	"slices"
	"time"

	"shelfwise/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const costSpikeLimit = 10

var (
	spikeHigh   = decimal.NewFromInt(20)
	spikeMedium = decimal.NewFromInt(10)
)

type costAcc struct {
	sum   decimal.Decimal
	count int
}

func (c *costAcc) mean() decimal.Decimal {
	if c.count == 0 {
		return decimal.Zero
	}
	return c.sum.Div(decimal.NewFromInt(int64(c.count)))
}

func accumulateUnitCosts(actions []model.InventoryAction) map[uuid.UUID]*costAcc {
	acc := make(map[uuid.UUID]*costAcc)
	for i := range actions {
		cost, ok := actions[i].UnitCost()
		if !ok {
			continue
		}
		c, found := acc[actions[i].ProductID]
		if !found {
			c = &costAcc{}
			acc[actions[i].ProductID] = c
		}
		c.sum = c.sum.Add(cost)
		c.count++
	}
	return acc
}

// costSpike compares the mean unit cost of recent purchases with the mean over
// the longer purchases window. Only products bought in both windows qualify.
func costSpike(s *snapshot) []CostSpikeItem {
	threshold := decimal.NewFromFloat(s.cfg.CostIncreasePercent)
	long := accumulateUnitCosts(s.purchasesLong)
	recent := accumulateUnitCosts(s.purchasesRecent)
	suppliers := s.latestSuppliers()

	items := make([]CostSpikeItem, 0)
	for _, id := range sortedKeys(recent) {
		l, ok := long[id]
		if !ok {
			continue
		}
		avgLong := l.mean()
		if avgLong.IsZero() {
			continue
		}
		avgRecent := recent[id].mean()
		change := avgRecent.Sub(avgLong).Div(avgLong).Mul(hundred)
		if change.LessThan(threshold) {
			continue
		}
		items = append(items, CostSpikeItem{
			ProductID:      id,
			ProductName:    s.productName(id),
			SupplierName:   suppliers[id],
			AvgCostLong:    avgLong.Round(2),
			AvgCostRecent:  avgRecent.Round(2),
			ChangePercent:  change.Round(2),
			PurchasesCount: l.count,
			Severity:       costSpikeSeverity(change),
		})
	}
	slices.SortStableFunc(items, func(a, b CostSpikeItem) int {
		if c := b.ChangePercent.Cmp(a.ChangePercent); c != 0 {
			return c
		}
		return compareIDs(a.ProductID, b.ProductID)
	})
	return items
}

// latestSuppliers picks, per product, the supplier of the most recent purchase
// in the long window. Display only.
func (s *snapshot) latestSuppliers() map[uuid.UUID]string {
	type seen struct {
		at   time.Time
		id   uuid.UUID
		name string
	}
	latest := make(map[uuid.UUID]seen)
	for _, a := range s.purchasesLong {
		if a.SupplierID == nil {
			continue
		}
		name, ok := s.supplierNames[*a.SupplierID]
		if !ok {
			continue
		}
		cur, found := latest[a.ProductID]
		if found && (a.Timestamp.Before(cur.at) || (a.Timestamp.Equal(cur.at) && compareIDs(a.ID, cur.id) < 0)) {
			continue
		}
		latest[a.ProductID] = seen{at: a.Timestamp, id: a.ID, name: name}
	}

	out := make(map[uuid.UUID]string, len(latest))
	for id, v := range latest {
		out[id] = v.name
	}
	for i := range s.products {
		p := &s.products[i]
		if _, ok := out[p.ID]; ok || p.SupplierID == nil {
			continue
		}
		if name, ok := s.supplierNames[*p.SupplierID]; ok {
			out[p.ID] = name
		}
	}
	return out
}

func costSpikeSeverity(change decimal.Decimal) Severity {
	switch {
	case change.GreaterThanOrEqual(spikeHigh):
		return SeverityHigh
	case change.GreaterThanOrEqual(spikeMedium):
		return SeverityMedium
	default:
		return SeverityLow
	}
}
