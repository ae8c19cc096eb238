package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"shelfwise/internal/infra"
	"shelfwise/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := infra.NewDatabase("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, businessID uuid.UUID, name string, qty int) *model.Product {
	t.Helper()
	p := &model.Product{BusinessID: businessID, Name: name, Quantity: qty, Price: decimal.NewFromInt(10)}
	require.NoError(t, NewProductRepository(db).Create(context.Background(), p))
	return p
}

func seedAction(t *testing.T, db *gorm.DB, a *model.InventoryAction) {
	t.Helper()
	require.NoError(t, NewActionRepository(db).CreateTx(db, a))
}

func TestActionRepository_ListSinceScopesAndOrders(t *testing.T) {
	db := newTestDB(t)
	repo := NewActionRepository(db)
	ctx := context.Background()
	biz, other := uuid.New(), uuid.New()
	p := seedProduct(t, db, biz, "Milk", 10)
	base := time.Date(2026, time.October, 1, 8, 0, 0, 0, time.UTC)

	seedAction(t, db, &model.InventoryAction{BusinessID: biz, ProductID: p.ID, ActionType: model.ActionRemove, QuantityChanged: 1, Timestamp: base.Add(-48 * time.Hour)})
	seedAction(t, db, &model.InventoryAction{BusinessID: biz, ProductID: p.ID, ActionType: model.ActionRemove, QuantityChanged: 2, Timestamp: base.Add(time.Hour)})
	seedAction(t, db, &model.InventoryAction{BusinessID: biz, ProductID: p.ID, ActionType: model.ActionAdd, QuantityChanged: 3, Timestamp: base.Add(2 * time.Hour)})
	seedAction(t, db, &model.InventoryAction{BusinessID: other, ProductID: p.ID, ActionType: model.ActionAdd, QuantityChanged: 9, Timestamp: base.Add(3 * time.Hour)})

	actions, err := repo.ListSince(ctx, biz, base)
	require.NoError(t, err)

	require.Len(t, actions, 2)
	assert.Equal(t, 3, actions[0].QuantityChanged)
	assert.Equal(t, 2, actions[1].QuantityChanged)
	for _, a := range actions {
		assert.Equal(t, biz, a.BusinessID)
	}
}

func TestActionRepository_LastSaleByProduct(t *testing.T) {
	db := newTestDB(t)
	repo := NewActionRepository(db)
	ctx := context.Background()
	biz, other := uuid.New(), uuid.New()
	milk := seedProduct(t, db, biz, "Milk", 4)
	bread := seedProduct(t, db, biz, "Bread", 2)
	candles := seedProduct(t, db, biz, "Candles", 7)

	older := time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
	latest := time.Date(2026, time.October, 18, 18, 30, 0, 0, time.UTC)
	seedAction(t, db, &model.InventoryAction{BusinessID: biz, ProductID: milk.ID, ActionType: model.ActionRemove, QuantityChanged: 1, Timestamp: older})
	seedAction(t, db, &model.InventoryAction{BusinessID: biz, ProductID: milk.ID, ActionType: model.ActionRemove, QuantityChanged: 1, Timestamp: latest})
	seedAction(t, db, &model.InventoryAction{BusinessID: biz, ProductID: milk.ID, ActionType: model.ActionAdd, QuantityChanged: 10, Timestamp: latest.Add(time.Hour)})
	seedAction(t, db, &model.InventoryAction{BusinessID: biz, ProductID: bread.ID, ActionType: model.ActionRemove, QuantityChanged: 1, Timestamp: older})
	seedAction(t, db, &model.InventoryAction{BusinessID: biz, ProductID: candles.ID, ActionType: model.ActionAdd, QuantityChanged: 7, Timestamp: latest})
	seedAction(t, db, &model.InventoryAction{BusinessID: other, ProductID: bread.ID, ActionType: model.ActionRemove, QuantityChanged: 1, Timestamp: latest})

	last, err := repo.LastSaleByProduct(ctx, biz)
	require.NoError(t, err)

	require.Len(t, last, 2)
	assert.True(t, last[milk.ID].Equal(latest), "got %s", last[milk.ID])
	assert.True(t, last[bread.ID].Equal(older), "got %s", last[bread.ID])
	_, ok := last[candles.ID]
	assert.False(t, ok, "purchases are not sales")
}

func TestAggregateTime_Scan(t *testing.T) {
	want := time.Date(2026, time.October, 18, 18, 30, 5, 500000000, time.UTC)
	inputs := []interface{}{
		want,
		"2026-10-18 18:30:05.5+00:00",
		[]byte("2026-10-18T18:30:05.5Z"),
		"2026-10-18 18:30:05.5 +0000 UTC",
		"2026-10-18 18:30:05.5 +0000 UTC m=+0.000000001",
	}
	for _, in := range inputs {
		var got aggregateTime
		require.NoError(t, got.Scan(in), "%v", in)
		assert.True(t, got.Equal(want), "%v parsed as %s", in, got.Time)
	}

	var got aggregateTime
	assert.Error(t, got.Scan("yesterday"))
	assert.Error(t, got.Scan(42))
}

func TestActionRepository_FinancialFieldsRoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	biz := uuid.New()
	p := seedProduct(t, db, biz, "Eggs", 10)
	at := time.Date(2026, time.September, 3, 10, 0, 0, 0, time.UTC)

	seedAction(t, db, &model.InventoryAction{
		BusinessID:      biz,
		ProductID:       p.ID,
		ActionType:      model.ActionRemove,
		QuantityChanged: 2,
		Timestamp:       at,
		SaleTotalILS:    decimal.NewNullDecimal(decimal.RequireFromString("37.5")),
		CostSnapshotILS: decimal.NewNullDecimal(decimal.RequireFromString("11.25")),
	})

	actions, err := NewActionRepository(db).ListSince(ctx, biz, at.Add(-time.Hour))
	require.NoError(t, err)
	require.Len(t, actions, 1)

	a := actions[0]
	assert.True(t, a.SaleTotalILS.Valid)
	assert.True(t, a.SaleTotalILS.Decimal.Equal(decimal.RequireFromString("37.5")))
	assert.True(t, a.CostSnapshotILS.Decimal.Equal(decimal.RequireFromString("11.25")))
	assert.False(t, a.DiscountPercent.Valid, "absent fields stay null")
	assert.False(t, a.PurchaseUnitILS.Valid)
}

func TestActionRepository_ListByProductPaginates(t *testing.T) {
	db := newTestDB(t)
	repo := NewActionRepository(db)
	ctx := context.Background()
	biz := uuid.New()
	p := seedProduct(t, db, biz, "Butter", 10)
	q := seedProduct(t, db, biz, "Jam", 10)
	base := time.Date(2026, time.August, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		seedAction(t, db, &model.InventoryAction{BusinessID: biz, ProductID: p.ID, ActionType: model.ActionRemove, QuantityChanged: i + 1, Timestamp: base.Add(time.Duration(i) * time.Hour)})
	}
	seedAction(t, db, &model.InventoryAction{BusinessID: biz, ProductID: q.ID, ActionType: model.ActionAdd, QuantityChanged: 1, Timestamp: base})

	page, total, err := repo.ListByProduct(ctx, biz, ActionFilter{ProductID: p.ID, Page: 2, Limit: 2})
	require.NoError(t, err)

	assert.EqualValues(t, 5, total)
	require.Len(t, page, 2)
	assert.Equal(t, 3, page[0].QuantityChanged)
	assert.Equal(t, 2, page[1].QuantityChanged)

	_, total, err = repo.ListByProduct(ctx, biz, ActionFilter{ProductID: p.ID, Type: model.ActionAdd})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestProductRepository_ApplyDeltaTx(t *testing.T) {
	db := newTestDB(t)
	repo := NewProductRepository(db)
	biz := uuid.New()
	p := seedProduct(t, db, biz, "Flour", 5)

	qty, err := repo.ApplyDeltaTx(db, biz, p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, 8, qty)

	qty, err = repo.ApplyDeltaTx(db, biz, p.ID, -8)
	require.NoError(t, err)
	assert.Zero(t, qty)

	qty, err = repo.ApplyDeltaTx(db, biz, p.ID, -1)
	assert.ErrorIs(t, err, ErrInsufficientStock)
	assert.Zero(t, qty)

	_, err = repo.ApplyDeltaTx(db, uuid.New(), p.ID, 1)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound), "other businesses cannot touch the row")
}

func TestProductRepository_FindAndList(t *testing.T) {
	db := newTestDB(t)
	repo := NewProductRepository(db)
	ctx := context.Background()
	biz := uuid.New()
	a := seedProduct(t, db, biz, "A", 1)
	seedProduct(t, db, biz, "B", 2)
	seedProduct(t, db, uuid.New(), "C", 3)

	found, err := repo.FindByID(ctx, biz, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", found.Name)
	assert.False(t, found.Cost.Valid)

	_, err = repo.FindByID(ctx, uuid.New(), a.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	list, err := repo.ListByBusiness(ctx, biz)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestSupplierRepository_NamesByBusiness(t *testing.T) {
	db := newTestDB(t)
	repo := NewSupplierRepository(db)
	ctx := context.Background()
	biz := uuid.New()
	s := &model.Supplier{BusinessID: biz, Name: "Acme"}
	require.NoError(t, repo.Create(ctx, s))
	require.NoError(t, repo.Create(ctx, &model.Supplier{BusinessID: uuid.New(), Name: "Elsewhere"}))

	names, err := repo.NamesByBusiness(ctx, biz)
	require.NoError(t, err)

	assert.Equal(t, map[uuid.UUID]string{s.ID: "Acme"}, names)
}

func TestBusinessRepository_ListWithDigest(t *testing.T) {
	db := newTestDB(t)
	repo := NewBusinessRepository(db)
	ctx := context.Background()
	email := "owner@example.com"
	empty := ""
	withDigest := &model.Business{Name: "Corner shop", DigestEmail: &email}
	require.NoError(t, repo.Create(ctx, withDigest))
	require.NoError(t, repo.Create(ctx, &model.Business{Name: "No digest"}))
	require.NoError(t, repo.Create(ctx, &model.Business{Name: "Blank digest", DigestEmail: &empty}))

	list, err := repo.ListWithDigest(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, withDigest.ID, list[0].ID)

	found, err := repo.FindByID(ctx, withDigest.ID)
	require.NoError(t, err)
	assert.Equal(t, "Corner shop", found.Name)
}

func TestSupplierRepository_FindByIDScopedByBusiness(t *testing.T) {
	db := newTestDB(t)
	repo := NewSupplierRepository(db)
	ctx := context.Background()
	biz := uuid.New()
	s := &model.Supplier{BusinessID: biz, Name: "Acme"}
	require.NoError(t, repo.Create(ctx, s))

	got, err := repo.FindByID(ctx, biz, s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", got.Name)

	_, err = repo.FindByID(ctx, uuid.New(), s.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}
