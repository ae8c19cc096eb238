package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"shelfwise/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ActionFilter pages through one product's ledger.
type ActionFilter struct {
	ProductID uuid.UUID
	Type      string
	Page      int
	Limit     int
}

// ActionRepository reads and appends the inventory ledger. Every query is
// scoped to one business.
type ActionRepository interface {
	// ListSince returns every action at or after since, newest first.
	ListSince(ctx context.Context, businessID uuid.UUID, since time.Time) ([]model.InventoryAction, error)
	// LastSaleByProduct is the all-time latest sale per product, computed by a
	// single GROUP BY rather than by loading every sale row.
	LastSaleByProduct(ctx context.Context, businessID uuid.UUID) (map[uuid.UUID]time.Time, error)
	ListByProduct(ctx context.Context, businessID uuid.UUID, filter ActionFilter) ([]model.InventoryAction, int64, error)

	// Used inside transactions; callers must pass the tx instance
	CreateTx(tx *gorm.DB, a *model.InventoryAction) error
}

type actionRepo struct{ db *gorm.DB }

func NewActionRepository(db *gorm.DB) ActionRepository { return &actionRepo{db: db} }

func (r *actionRepo) ListSince(ctx context.Context, businessID uuid.UUID, since time.Time) ([]model.InventoryAction, error) {
	var actions []model.InventoryAction
	err := r.db.WithContext(ctx).
		Where("business_id = ? AND inventory_actions.timestamp >= ?", businessID, since).
		Order("inventory_actions.timestamp DESC").Order("id").
		Find(&actions).Error
	return actions, err
}

type lastSaleRow struct {
	ProductID uuid.UUID
	LastSale  aggregateTime
}

// aggregateTime scans MAX(timestamp). Postgres and MySQL return a typed
// timestamp; SQLite returns the stored text.
type aggregateTime struct{ time.Time }

var sqliteTimeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
}

func (t *aggregateTime) Scan(v interface{}) error {
	switch x := v.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = x
		return nil
	case []byte:
		return t.parse(string(x))
	case string:
		return t.parse(x)
	default:
		return fmt.Errorf("aggregate time: unsupported type %T", v)
	}
}

func (t *aggregateTime) parse(s string) error {
	// time.Time.String() appends the monotonic reading
	if i := strings.Index(s, " m="); i >= 0 {
		s = s[:i]
	}
	for _, layout := range sqliteTimeLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("aggregate time: cannot parse %q", s)
}

func (r *actionRepo) LastSaleByProduct(ctx context.Context, businessID uuid.UUID) (map[uuid.UUID]time.Time, error) {
	var rows []lastSaleRow
	err := r.db.WithContext(ctx).Model(&model.InventoryAction{}).
		Select("product_id, MAX(inventory_actions.timestamp) AS last_sale").
		Where("business_id = ? AND action_type = ?", businessID, model.ActionRemove).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[uuid.UUID]time.Time, len(rows))
	for _, row := range rows {
		out[row.ProductID] = row.LastSale.Time
	}
	return out, nil
}

func (r *actionRepo) ListByProduct(ctx context.Context, businessID uuid.UUID, filter ActionFilter) ([]model.InventoryAction, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.InventoryAction{}).
		Where("business_id = ? AND product_id = ?", businessID, filter.ProductID)
	if filter.Type != "" {
		q = q.Where("action_type = ?", filter.Type)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	offset := (page - 1) * limit

	var actions []model.InventoryAction
	err := q.Order("inventory_actions.timestamp DESC").Order("id").Offset(offset).Limit(limit).Find(&actions).Error
	return actions, total, err
}

func (r *actionRepo) CreateTx(tx *gorm.DB, a *model.InventoryAction) error {
	return tx.Create(a).Error
}
