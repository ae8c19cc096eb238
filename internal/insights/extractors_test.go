package insights

import (
	"errors"
	"testing"
	"time"

	"shelfwise/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── High discount ───────────────────────────────────────────────────────────

func TestHighDiscount_AverageAndThreshold(t *testing.T) {
	hot := product("Hot", 10, "10", "5")
	mild := product("Mild", 10, "10", "5")
	ds := Dataset{
		Products: []model.Product{hot, mild},
		Actions: []model.InventoryAction{
			discountedSale(hot.ID, daysAgo(1), -1, "6", "5", "4", "40"),
			discountedSale(hot.ID, daysAgo(2), -1, "8", "5", "2", "20"),
			discountedSale(mild.ID, daysAgo(2), -1, "9", "5", "1", "10"),
		},
	}

	items := highDiscount(snapshotFor(ds, DefaultConfig()))

	require.Len(t, items, 1)
	assert.Equal(t, hot.ID, items[0].ProductID)
	assert.Equal(t, 2, items[0].SalesCount)
	assert.True(t, items[0].AvgDiscountPercent.Equal(d("30")))
	assert.True(t, items[0].TotalDiscount.Equal(d("6")))
	assert.Equal(t, SeverityMedium, items[0].Severity)
}

func TestHighDiscount_ThresholdIsInclusive(t *testing.T) {
	p := product("Edge", 10, "10", "5")
	ds := Dataset{
		Products: []model.Product{p},
		Actions:  []model.InventoryAction{discountedSale(p.ID, daysAgo(1), -1, "8", "5", "2", "20")},
	}

	items := highDiscount(snapshotFor(ds, DefaultConfig()))

	require.Len(t, items, 1)
	assert.Equal(t, SeverityLow, items[0].Severity)
}

func TestDiscountSeverity(t *testing.T) {
	assert.Equal(t, SeverityHigh, discountSeverity(d("35")))
	assert.Equal(t, SeverityMedium, discountSeverity(d("25")))
	assert.Equal(t, SeverityLow, discountSeverity(d("24.99")))
}

// ── Dead stock ──────────────────────────────────────────────────────────────

func TestDeadStock_OrderingAndFilters(t *testing.T) {
	never := product("Never sold", 4, "10", "2.5")
	old := product("Old", 1, "10", "3")
	older := product("Older", 1, "10", "3")
	fresh := product("Fresh", 5, "10", "3")
	empty := product("Empty", 0, "10", "3")

	ds := Dataset{
		Products: []model.Product{fresh, old, never, empty, older},
		LastSale: map[uuid.UUID]time.Time{
			old.ID:   daysAgo(61),
			older.ID: daysAgo(200),
			fresh.ID: daysAgo(3),
			empty.ID: daysAgo(300),
		},
	}

	items := deadStock(snapshotFor(ds, DefaultConfig()))

	require.Len(t, items, 3)
	assert.Equal(t, never.ID, items[0].ProductID)
	assert.Nil(t, items[0].DaysSinceLastSale)
	assert.Nil(t, items[0].LastSaleAt)
	assert.True(t, items[0].EstimatedValue.Equal(d("10")))

	assert.Equal(t, older.ID, items[1].ProductID)
	require.NotNil(t, items[1].DaysSinceLastSale)
	assert.Equal(t, 200, *items[1].DaysSinceLastSale)

	assert.Equal(t, old.ID, items[2].ProductID)
	assert.Equal(t, 61, *items[2].DaysSinceLastSale)
}

func TestDeadStock_ValueNeedsPositiveCost(t *testing.T) {
	noCost := product("No cost", 7, "19.90", "")
	zeroCost := product("Zero cost", 7, "19.90", "0")
	ds := Dataset{Products: []model.Product{noCost, zeroCost}}

	items := deadStock(snapshotFor(ds, DefaultConfig()))

	require.Len(t, items, 2)
	for _, it := range items {
		assert.True(t, it.EstimatedValue.IsZero(), "price must never be used as value")
	}
}

func TestDeadStock_LastSaleFailureDegradesToNeverSold(t *testing.T) {
	p := product("Recent", 3, "10", "1")
	ds := Dataset{
		Products:    []model.Product{p},
		LastSale:    map[uuid.UUID]time.Time{p.ID: daysAgo(1)},
		LastSaleErr: errors.New("aggregate timed out"),
	}

	items := deadStock(snapshotFor(ds, DefaultConfig()))

	require.Len(t, items, 1)
	assert.Nil(t, items[0].DaysSinceLastSale)
}

func TestDeadStockSeverity(t *testing.T) {
	assert.Equal(t, SeverityLow, deadStockSeverity(0))
	assert.Equal(t, SeverityMedium, deadStockSeverity(5))
	assert.Equal(t, SeverityHigh, deadStockSeverity(6))
}

// ── Stockout risk ───────────────────────────────────────────────────────────

func TestStockout_CoverFromVelocity(t *testing.T) {
	tight := product("Tight", 10, "5", "1")
	roomy := product("Roomy", 100, "5", "1")
	idle := product("Idle", 0, "5", "1")
	ds := Dataset{
		Products: []model.Product{tight, roomy, idle},
		Actions: []model.InventoryAction{
			sale(tight.ID, daysAgo(5), -60, "300", "1"),
			sale(roomy.ID, daysAgo(5), -60, "300", "1"),
		},
	}

	items := stockoutRisk(snapshotFor(ds, DefaultConfig()))

	require.Len(t, items, 1)
	assert.Equal(t, tight.ID, items[0].ProductID)
	assert.Equal(t, 60, items[0].SoldUnits)
	assert.True(t, items[0].AvgDailySales.Equal(d("2")))
	assert.True(t, items[0].DaysCover.Equal(d("5")))
	assert.Equal(t, SeverityMedium, items[0].Severity)
}

func TestStockout_ZeroVelocityExcluded(t *testing.T) {
	p := product("Quiet", 1, "5", "1")
	ds := Dataset{
		Products: []model.Product{p},
		Actions:  []model.InventoryAction{sale(p.ID, daysAgo(40), -100, "500", "1")},
	}

	assert.Empty(t, stockoutRisk(snapshotFor(ds, DefaultConfig())))
}

func TestStockout_OutOfStockIsHigh(t *testing.T) {
	p := product("Gone", 0, "5", "1")
	ds := Dataset{
		Products: []model.Product{p},
		Actions:  []model.InventoryAction{sale(p.ID, daysAgo(1), -3, "15", "1")},
	}

	items := stockoutRisk(snapshotFor(ds, DefaultConfig()))

	require.Len(t, items, 1)
	assert.True(t, items[0].DaysCover.IsZero())
	assert.Equal(t, SeverityHigh, items[0].Severity)
}

// ── Cost spike ──────────────────────────────────────────────────────────────

func TestCostSpike_BoundaryIsIncluded(t *testing.T) {
	p := product("Flour", 10, "10", "5")
	ds := Dataset{
		Products: []model.Product{p},
		Actions: []model.InventoryAction{
			purchase(p.ID, daysAgo(60), 10, "90"),
			purchase(p.ID, daysAgo(50), 10, "100"),
			purchase(p.ID, daysAgo(10), 10, "110"),
		},
	}

	items := costSpike(snapshotFor(ds, DefaultConfig()))

	require.Len(t, items, 1)
	assert.True(t, items[0].AvgCostLong.Equal(d("100")))
	assert.True(t, items[0].AvgCostRecent.Equal(d("110")))
	assert.True(t, items[0].ChangePercent.Equal(d("10")))
	assert.Equal(t, 3, items[0].PurchasesCount)
	assert.Equal(t, SeverityMedium, items[0].Severity)
}

func TestCostSpike_RequiresBothWindows(t *testing.T) {
	p := product("Sugar", 10, "10", "5")
	ds := Dataset{
		Products: []model.Product{p},
		Actions:  []model.InventoryAction{purchase(p.ID, daysAgo(60), 10, "50")},
	}

	assert.Empty(t, costSpike(snapshotFor(ds, DefaultConfig())))
}

func TestCostSpike_MissingCostIsNotZero(t *testing.T) {
	p := product("Salt", 10, "10", "5")
	ds := Dataset{
		Products: []model.Product{p},
		Actions: []model.InventoryAction{
			purchase(p.ID, daysAgo(60), 10, "5"),
			purchase(p.ID, daysAgo(5), 10, ""),
		},
	}

	assert.Empty(t, costSpike(snapshotFor(ds, DefaultConfig())))
}

func TestCostSpike_UnitFromTotalAndLatestSupplier(t *testing.T) {
	p := product("Rice", 10, "10", "5")
	early := uuid.New()
	late := uuid.New()

	first := purchase(p.ID, daysAgo(70), 10, "10")
	first.SupplierID = &early
	second := purchase(p.ID, daysAgo(3), 4, "")
	second.PurchaseTotalILS = nd("60")
	second.SupplierID = &late

	ds := Dataset{
		Products:      []model.Product{p},
		Actions:       []model.InventoryAction{second, first},
		SupplierNames: map[uuid.UUID]string{early: "Early Foods", late: "Late Foods"},
	}

	items := costSpike(snapshotFor(ds, DefaultConfig()))

	require.Len(t, items, 1)
	// long mean (10+15)/2 = 12.5, recent 15
	assert.True(t, items[0].AvgCostRecent.Equal(d("15")))
	assert.True(t, items[0].ChangePercent.Equal(d("20")))
	assert.Equal(t, SeverityHigh, items[0].Severity)
	assert.Equal(t, "Late Foods", items[0].SupplierName)
}
