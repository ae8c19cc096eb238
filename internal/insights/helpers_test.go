package insights

import (
	"time"

	"shelfwise/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var testNow = time.Date(2026, time.October, 19, 12, 0, 0, 0, time.UTC)

var testBusiness = uuid.MustParse("00000000-0000-0000-0000-0000000000b1")

func nd(v string) decimal.NullDecimal {
	return decimal.NewNullDecimal(decimal.RequireFromString(v))
}

func d(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func daysAgo(n int) time.Time { return testNow.Add(-time.Duration(n) * 24 * time.Hour) }

func product(name string, qty int, price, cost string) model.Product {
	p := model.Product{
		ID:         uuid.New(),
		BusinessID: testBusiness,
		Name:       name,
		Quantity:   qty,
		Price:      d(price),
	}
	if cost != "" {
		p.Cost = nd(cost)
	}
	return p
}

// sale builds a remove action. quantity is passed as stored, so callers can
// exercise both signed and unsigned rows.
func sale(productID uuid.UUID, at time.Time, quantity int, total, costSnapshot string) model.InventoryAction {
	a := model.InventoryAction{
		ID:              uuid.New(),
		BusinessID:      testBusiness,
		ProductID:       productID,
		ActionType:      model.ActionRemove,
		QuantityChanged: quantity,
		Timestamp:       at,
	}
	if total != "" {
		a.SaleTotalILS = nd(total)
	}
	if costSnapshot != "" {
		a.CostSnapshotILS = nd(costSnapshot)
	}
	return a
}

func discountedSale(productID uuid.UUID, at time.Time, quantity int, total, costSnapshot, discount, percent string) model.InventoryAction {
	a := sale(productID, at, quantity, total, costSnapshot)
	a.DiscountILS = nd(discount)
	a.DiscountPercent = nd(percent)
	return a
}

func purchase(productID uuid.UUID, at time.Time, quantity int, unit string) model.InventoryAction {
	a := model.InventoryAction{
		ID:              uuid.New(),
		BusinessID:      testBusiness,
		ProductID:       productID,
		ActionType:      model.ActionAdd,
		QuantityChanged: quantity,
		Timestamp:       at,
	}
	if unit != "" {
		a.PurchaseUnitILS = nd(unit)
	}
	return a
}

func snapshotFor(ds Dataset, cfg Config) *snapshot {
	return newSnapshot(ds, cfg, NewResolver(ds.FinancialTrackingStart, DefaultVATRate, time.UTC, testNow))
}
