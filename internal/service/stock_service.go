package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"shelfwise/internal/dto"
	"shelfwise/internal/infra"
	"shelfwise/internal/model"
	"shelfwise/internal/repository"
	"shelfwise/internal/stockflow"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockService stages quantity changes and commits them to the ledger once
// the caller confirms them with the money side of the change.
type StockService interface {
	Stage(ctx context.Context, businessID, productID uuid.UUID, req dto.StageAdjustmentRequest) (*dto.PendingAdjustmentResponse, error)
	Get(ctx context.Context, businessID, id uuid.UUID) (*dto.PendingAdjustmentResponse, error)
	// Confirm returns the adjustment even on failure so the caller can show
	// last_error and retry with the same delta.
	Confirm(ctx context.Context, businessID, id uuid.UUID, req dto.ConfirmAdjustmentRequest) (*dto.PendingAdjustmentResponse, error)
	Cancel(ctx context.Context, businessID, id uuid.UUID) error
	ListActions(ctx context.Context, businessID, productID uuid.UUID, q dto.ActionListQuery) (*dto.ActionListResponse, error)
}

// RefreshEnqueuer is satisfied by *worker.Dispatcher.
type RefreshEnqueuer interface {
	EnqueueInsightsRefresh(ctx context.Context, businessID uuid.UUID) error
}

type stockService struct {
	flow       *stockflow.Flow
	products   repository.ProductRepository
	actions    repository.ActionRepository
	suppliers  repository.SupplierRepository
	dispatcher RefreshEnqueuer // nil disables the refresh after commit
}

func NewStockService(
	store stockflow.Store,
	locker infra.Locker,
	pendingTTL time.Duration,
	products repository.ProductRepository,
	actions repository.ActionRepository,
	suppliers repository.SupplierRepository,
	dispatcher RefreshEnqueuer,
) StockService {
	committer := &ledgerCommitter{products: products, actions: actions, now: func() time.Time { return time.Now().UTC() }}
	return &stockService{
		flow:       stockflow.New(store, locker, committer, pendingTTL),
		products:   products,
		actions:    actions,
		suppliers:  suppliers,
		dispatcher: dispatcher,
	}
}

func (s *stockService) Stage(ctx context.Context, businessID, productID uuid.UUID, req dto.StageAdjustmentRequest) (*dto.PendingAdjustmentResponse, error) {
	product, err := s.products.FindByID(ctx, businessID, productID)
	if err != nil {
		return nil, notFound(err)
	}
	adj, err := s.flow.Stage(ctx, businessID, productID, product.Quantity, *req.TargetQuantity)
	if err != nil {
		return nil, err
	}
	return adjustmentToResponse(adj), nil
}

func (s *stockService) Get(ctx context.Context, businessID, id uuid.UUID) (*dto.PendingAdjustmentResponse, error) {
	adj, err := s.flow.Get(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	return adjustmentToResponse(adj), nil
}

func (s *stockService) Confirm(ctx context.Context, businessID, id uuid.UUID, req dto.ConfirmAdjustmentRequest) (*dto.PendingAdjustmentResponse, error) {
	details := stockflow.Details{
		SaleUnit:      nullable(req.SaleUnitILS),
		SaleTotal:     nullable(req.SaleTotalILS),
		PurchaseUnit:  nullable(req.PurchaseUnitILS),
		PurchaseTotal: nullable(req.PurchaseTotalILS),
		Notes:         req.Notes,
	}
	if req.SupplierID != nil {
		sid, err := uuid.Parse(*req.SupplierID)
		if err != nil {
			return nil, fmt.Errorf("invalid supplier_id: %w", ErrUnknownSupplier)
		}
		// checked before the flow runs, so the adjustment stays untouched
		if _, err := s.suppliers.FindByID(ctx, businessID, sid); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrUnknownSupplier
			}
			return nil, fmt.Errorf("find supplier: %w", err)
		}
		details.SupplierID = &sid
	}

	adj, err := s.flow.Confirm(ctx, businessID, id, details)
	if err != nil {
		if adj == nil {
			return nil, err
		}
		return adjustmentToResponse(adj), err
	}

	if s.dispatcher != nil {
		if qErr := s.dispatcher.EnqueueInsightsRefresh(ctx, businessID); qErr != nil {
			log.Warn().Err(qErr).Str("business_id", businessID.String()).Msg("stock: enqueue insights refresh")
		}
	}
	return adjustmentToResponse(adj), nil
}

func (s *stockService) Cancel(ctx context.Context, businessID, id uuid.UUID) error {
	return s.flow.Cancel(ctx, businessID, id)
}

func (s *stockService) ListActions(ctx context.Context, businessID, productID uuid.UUID, q dto.ActionListQuery) (*dto.ActionListResponse, error) {
	if _, err := s.products.FindByID(ctx, businessID, productID); err != nil {
		return nil, notFound(err)
	}
	actions, total, err := s.actions.ListByProduct(ctx, businessID, repository.ActionFilter{
		ProductID: productID,
		Type:      q.Type,
		Page:      q.Page,
		Limit:     q.Limit,
	})
	if err != nil {
		return nil, err
	}

	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 100
	}
	resp := &dto.ActionListResponse{
		Data:       make([]dto.ActionResponse, 0, len(actions)),
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}
	for i := range actions {
		resp.Data = append(resp.Data, actionToResponse(&actions[i]))
	}
	return resp, nil
}

// ── Ledger commit ─────────────────────────────────────────────────────────────
// The only writer of inventory_actions. Inside one transaction:
//   1. Append the ledger entry with its financial snapshot
//   2. Apply the delta to the product quantity (refused below zero)

type ledgerCommitter struct {
	products repository.ProductRepository
	actions  repository.ActionRepository
	now      func() time.Time
}

func (c *ledgerCommitter) Commit(ctx context.Context, adj *stockflow.Adjustment, details stockflow.Details) error {
	product, err := c.products.FindByID(ctx, adj.BusinessID, adj.ProductID)
	if err != nil {
		return notFound(err)
	}
	action := buildAction(adj, product, details, c.now())

	return runTx(ctx, c.products.DB(), func(tx *gorm.DB) error {
		if err := c.actions.CreateTx(tx, action); err != nil {
			return fmt.Errorf("append action: %w", err)
		}
		if _, err := c.products.ApplyDeltaTx(tx, adj.BusinessID, adj.ProductID, adj.Delta); err != nil {
			if errors.Is(err, repository.ErrInsufficientStock) {
				return err
			}
			return fmt.Errorf("apply delta: %w", err)
		}
		return nil
	})
}

var hundred = decimal.NewFromInt(100)

// buildAction snapshots the product's price and cost at commit time. Later
// catalog edits never change what a past sale cost.
func buildAction(adj *stockflow.Adjustment, product *model.Product, details stockflow.Details, at time.Time) *model.InventoryAction {
	a := &model.InventoryAction{
		BusinessID:      adj.BusinessID,
		ProductID:       adj.ProductID,
		ActionType:      adj.Direction,
		QuantityChanged: adj.Units,
		Timestamp:       at,
		Notes:           details.Notes,
	}
	units := decimal.NewFromInt(int64(adj.Units))

	if adj.Direction == model.ActionAdd {
		a.PurchaseUnitILS = details.PurchaseUnit
		a.PurchaseTotalILS = details.PurchaseTotal
		a.SupplierID = details.SupplierID
		if a.SupplierID == nil {
			a.SupplierID = product.SupplierID
		}
		return a
	}

	unit, total := product.Price, product.Price.Mul(units)
	switch {
	case details.SaleTotal.Valid:
		total = details.SaleTotal.Decimal
		unit = total.Div(units).Round(2)
		if details.SaleUnit.Valid {
			unit = details.SaleUnit.Decimal
		}
	case details.SaleUnit.Valid:
		unit = details.SaleUnit.Decimal
		total = unit.Mul(units)
	}

	listTotal := product.Price.Mul(units)
	discount := decimal.Max(listTotal.Sub(total), decimal.Zero).Round(2)
	percent := decimal.Zero
	if listTotal.IsPositive() {
		percent = discount.Div(listTotal).Mul(hundred).Round(2)
	}

	a.SaleUnitILS = decimal.NewNullDecimal(unit)
	a.SaleTotalILS = decimal.NewNullDecimal(total.Round(2))
	a.ListUnitILS = decimal.NewNullDecimal(product.Price)
	a.DiscountILS = decimal.NewNullDecimal(discount)
	a.DiscountPercent = decimal.NewNullDecimal(percent)
	a.CostSnapshotILS = product.Cost
	a.SupplierID = details.SupplierID
	return a
}

// ── Mapping ───────────────────────────────────────────────────────────────────

func nullable(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*d)
}

func ptr(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func adjustmentToResponse(a *stockflow.Adjustment) *dto.PendingAdjustmentResponse {
	return &dto.PendingAdjustmentResponse{
		ID:           a.ID.String(),
		ProductID:    a.ProductID.String(),
		FromQuantity: a.FromQuantity,
		ToQuantity:   a.ToQuantity,
		Delta:        a.Delta,
		Direction:    a.Direction,
		Units:        a.Units,
		State:        string(a.State),
		Attempts:     a.Attempts,
		LastError:    a.LastError,
		CreatedAt:    a.CreatedAt,
		ExpiresAt:    a.ExpiresAt,
	}
}

func actionToResponse(a *model.InventoryAction) dto.ActionResponse {
	r := dto.ActionResponse{
		ID:               a.ID.String(),
		ProductID:        a.ProductID.String(),
		ActionType:       a.ActionType,
		QuantityChanged:  a.Units(),
		SaleTotalILS:     ptr(a.SaleTotalILS),
		SaleUnitILS:      ptr(a.SaleUnitILS),
		ListUnitILS:      ptr(a.ListUnitILS),
		DiscountILS:      ptr(a.DiscountILS),
		DiscountPercent:  ptr(a.DiscountPercent),
		CostSnapshotILS:  ptr(a.CostSnapshotILS),
		PurchaseUnitILS:  ptr(a.PurchaseUnitILS),
		PurchaseTotalILS: ptr(a.PurchaseTotalILS),
		Timestamp:        a.Timestamp,
		Notes:            a.Notes,
	}
	if a.SupplierID != nil {
		sid := a.SupplierID.String()
		r.SupplierID = &sid
	}
	return r
}
