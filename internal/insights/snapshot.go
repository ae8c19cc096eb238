package insights

import (
	"bytes"
	"slices"
	"time"

	"shelfwise/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/text/message"
)

var hundred = decimal.NewFromInt(100)

const day = 24 * time.Hour

// snapshot is the windowed, indexed view of a Dataset that extractors read.
type snapshot struct {
	cfg      Config
	now      time.Time
	resolver *Resolver
	locale   string
	printer  *message.Printer

	products    []model.Product
	productByID map[uuid.UUID]*model.Product

	sales           []model.InventoryAction // remove actions inside the sales lookback
	purchasesLong   []model.InventoryAction // add actions inside the purchases lookback
	purchasesRecent []model.InventoryAction // add actions inside the recent purchase window
	yearSales       []model.InventoryAction // remove actions of the current year, trusted window only

	lastSale      map[uuid.UUID]time.Time // nil when the aggregate is unavailable
	supplierNames map[uuid.UUID]string
}

func newSnapshot(ds Dataset, cfg Config, r *Resolver) *snapshot {
	now := r.Now()
	s := &snapshot{
		cfg:           cfg,
		now:           now,
		resolver:      r,
		locale:        resolveLocale(cfg.Locale),
		productByID:   make(map[uuid.UUID]*model.Product, len(ds.Products)),
		supplierNames: ds.SupplierNames,
	}

	s.printer = printerFor(s.locale)

	s.products = slices.Clone(ds.Products)
	slices.SortFunc(s.products, func(a, b model.Product) int { return compareIDs(a.ID, b.ID) })
	for i := range s.products {
		s.productByID[s.products[i].ID] = &s.products[i]
	}

	if ds.LastSaleErr == nil && ds.LastSale != nil {
		s.lastSale = ds.LastSale
	}

	salesSince := now.Add(-time.Duration(cfg.SalesLookbackDays) * day)
	longSince := now.Add(-time.Duration(cfg.PurchasesLookbackDays) * day)
	recentSince := now.Add(-time.Duration(cfg.RecentPurchaseDays) * day)
	year := r.CurrentYear()
	yearStart := r.EffectiveStart(year)

	for _, a := range ds.Actions {
		if a.Timestamp.After(now) {
			continue
		}
		switch {
		case a.IsSale():
			if !a.Timestamp.Before(salesSince) {
				s.sales = append(s.sales, a)
			}
			if a.Timestamp.In(r.Location()).Year() == year && !a.Timestamp.Before(yearStart) {
				s.yearSales = append(s.yearSales, a)
			}
		case a.IsPurchase():
			if !a.Timestamp.Before(longSince) {
				s.purchasesLong = append(s.purchasesLong, a)
			}
			if !a.Timestamp.Before(recentSince) {
				s.purchasesRecent = append(s.purchasesRecent, a)
			}
		}
	}
	return s
}

func (s *snapshot) productName(id uuid.UUID) string {
	if p, ok := s.productByID[id]; ok {
		return p.Name
	}
	return ""
}

func compareIDs(a, b uuid.UUID) int { return bytes.Compare(a[:], b[:]) }

// percentOf returns part/whole*100, or zero when whole is zero.
func percentOf(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred)
}

// sortedKeys returns the keys of a per-product accumulator in id order so
// that building result slices never depends on map iteration order.
func sortedKeys[V any](m map[uuid.UUID]V) []uuid.UUID {
	keys := make([]uuid.UUID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareIDs)
	return keys
}

func capItems[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}
