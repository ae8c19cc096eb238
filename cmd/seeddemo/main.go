// cmd/seeddemo seeds a demo business with suppliers, products and a year of
// inventory actions, so every insight category has something to show.
// Usage: go run ./cmd/seeddemo
package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"shelfwise/internal/config"
	"shelfwise/internal/infra"
	"shelfwise/internal/middleware"
	"shelfwise/internal/model"
	"shelfwise/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// demoProduct drives the simulation of one catalog item.
type demoProduct struct {
	name      string
	price     int64
	cost      int64
	supplier  int
	dailySale float64 // average units sold per day
	discount  int64   // percent off list on discounted sales
	stopDays  int     // no sales in the last stopDays days
	costJump  int64   // percent added to the last purchase cost
	restock   int     // units bought per restock
	lowStock  bool    // skip the last restock
}

var catalog = []demoProduct{
	{name: "Olive oil 1L", price: 42, cost: 28, supplier: 0, dailySale: 3, restock: 100},
	{name: "Tahini 500g", price: 18, cost: 16, supplier: 0, dailySale: 2, restock: 60},
	{name: "Espresso beans 1kg", price: 95, cost: 60, supplier: 1, dailySale: 1, discount: 30, restock: 40},
	{name: "Ceramic mug", price: 35, cost: 12, supplier: 1, dailySale: 0.5, stopDays: 120, restock: 30},
	{name: "Date syrup", price: 22, cost: 11, supplier: 0, dailySale: 4, costJump: 25, restock: 120},
	{name: "Sea salt 250g", price: 9, cost: 4, supplier: 1, dailySale: 6, lowStock: true, restock: 150},
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	db, err := infra.NewDatabase(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	ctx := context.Background()
	now := time.Now().UTC()
	biz, err := seed(ctx, db, now, rand.New(rand.NewSource(2026)))
	if err != nil {
		log.Fatal().Err(err).Msg("seed failed")
	}

	fmt.Printf("business_id: %s\n", biz.ID)
	if cfg.JWTSecret != "" {
		token, err := middleware.IssueToken(cfg.JWTSecret, biz.ID, middleware.RoleOwner, 24*time.Hour)
		if err == nil {
			fmt.Printf("owner token: %s\n", token)
		}
	}
}

func seed(ctx context.Context, db *gorm.DB, now time.Time, rng *rand.Rand) (*model.Business, error) {
	start := now.AddDate(-1, 0, 0)
	biz := &model.Business{Name: "Demo Market", FinancialTrackingStart: &start}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repository.NewBusinessRepository(tx).Create(ctx, biz); err != nil {
			return fmt.Errorf("business: %w", err)
		}

		suppliers := make([]model.Supplier, 2)
		for i, name := range []string{"Galilee Foods", "Harbor Imports"} {
			suppliers[i] = model.Supplier{BusinessID: biz.ID, Name: name}
			if err := repository.NewSupplierRepository(tx).Create(ctx, &suppliers[i]); err != nil {
				return fmt.Errorf("supplier %s: %w", name, err)
			}
		}

		products := repository.NewProductRepository(tx)
		actions := repository.NewActionRepository(tx)
		for _, d := range catalog {
			supplierID := suppliers[d.supplier].ID
			p := &model.Product{
				BusinessID: biz.ID,
				Name:       d.name,
				Price:      decimal.NewFromInt(d.price),
				Cost:       decimal.NewNullDecimal(decimal.NewFromInt(d.cost)),
				SupplierID: &supplierID,
			}
			if err := products.Create(ctx, p); err != nil {
				return fmt.Errorf("product %s: %w", d.name, err)
			}

			ledger := simulate(d, p, start, now, rng)
			for i := range ledger {
				if err := actions.CreateTx(tx, &ledger[i]); err != nil {
					return fmt.Errorf("action for %s: %w", d.name, err)
				}
			}
			if err := tx.Model(p).Updates(map[string]any{"quantity": p.Quantity, "cost": p.Cost}).Error; err != nil {
				return fmt.Errorf("product %s quantity: %w", d.name, err)
			}
			log.Info().Str("product", d.name).Int("actions", len(ledger)).Int("quantity", p.Quantity).Msg("seeded")
		}
		return nil
	})
	return biz, err
}

// simulate walks the year day by day: restock whenever stock runs low, then
// sell a random number of units around the daily average. p.Quantity and
// p.Cost end up at their final values.
func simulate(d demoProduct, p *model.Product, start, now time.Time, rng *rand.Rand) []model.InventoryAction {
	var out []model.InventoryAction
	cost := decimal.NewFromInt(d.cost)
	days := int(now.Sub(start).Hours() / 24)
	lastRestock := -1
	if d.costJump > 0 {
		lastRestock = days - 10
	}

	for day := 0; day < days; day++ {
		ts := start.AddDate(0, 0, day).Add(10 * time.Hour)

		if day == lastRestock {
			cost = cost.Mul(decimal.NewFromInt(100 + d.costJump)).Div(decimal.NewFromInt(100)).Round(2)
			out = append(out, purchase(p, d.restock, cost, ts))
		} else if p.Quantity < d.restock/5 && !(d.lowStock && days-day < 20) {
			out = append(out, purchase(p, d.restock, cost, ts))
		}

		if d.stopDays > 0 && days-day <= d.stopDays {
			continue
		}
		units := int(d.dailySale*(0.5+rng.Float64()) + 0.5)
		if units == 0 || units > p.Quantity {
			continue
		}
		out = append(out, sale(p, units, d.discount > 0 && rng.Intn(2) == 0, d.discount, cost, ts.Add(4*time.Hour)))
	}
	p.Cost = decimal.NewNullDecimal(cost)
	return out
}

func purchase(p *model.Product, units int, unitCost decimal.Decimal, ts time.Time) model.InventoryAction {
	p.Quantity += units
	return model.InventoryAction{
		ID:               uuid.New(),
		BusinessID:       p.BusinessID,
		ProductID:        p.ID,
		ActionType:       model.ActionAdd,
		QuantityChanged:  units,
		PurchaseUnitILS:  decimal.NewNullDecimal(unitCost),
		PurchaseTotalILS: decimal.NewNullDecimal(unitCost.Mul(decimal.NewFromInt(int64(units)))),
		SupplierID:       p.SupplierID,
		Timestamp:        ts,
	}
}

func sale(p *model.Product, units int, discounted bool, percent int64, cost decimal.Decimal, ts time.Time) model.InventoryAction {
	p.Quantity -= units
	qty := decimal.NewFromInt(int64(units))
	list := p.Price.Mul(qty)
	unit := p.Price
	if discounted {
		unit = p.Price.Mul(decimal.NewFromInt(100 - percent)).Div(decimal.NewFromInt(100)).Round(2)
	}
	total := unit.Mul(qty)
	discount := list.Sub(total)
	a := model.InventoryAction{
		ID:              uuid.New(),
		BusinessID:      p.BusinessID,
		ProductID:       p.ID,
		ActionType:      model.ActionRemove,
		QuantityChanged: units,
		SaleTotalILS:    decimal.NewNullDecimal(total),
		SaleUnitILS:     decimal.NewNullDecimal(unit),
		ListUnitILS:     decimal.NewNullDecimal(p.Price),
		DiscountILS:     decimal.NewNullDecimal(discount),
		DiscountPercent: decimal.NewNullDecimal(decimal.Zero),
		CostSnapshotILS: decimal.NewNullDecimal(cost),
		Timestamp:       ts,
	}
	if list.IsPositive() {
		a.DiscountPercent = decimal.NewNullDecimal(discount.Div(list).Mul(decimal.NewFromInt(100)).Round(2))
	}
	return a
}
