package service

import (
	"context"
	"sync"
	"time"

	"shelfwise/internal/infra"
	"shelfwise/internal/model"
	"shelfwise/internal/repository"
	"shelfwise/internal/stockflow"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ── In-memory Repository Stubs ────────────────────────────────────────────────

type stubBusinessRepo struct {
	businesses map[uuid.UUID]*model.Business
}

func newStubBusinessRepo(bs ...*model.Business) *stubBusinessRepo {
	r := &stubBusinessRepo{businesses: map[uuid.UUID]*model.Business{}}
	for _, b := range bs {
		r.businesses[b.ID] = b
	}
	return r
}

func (r *stubBusinessRepo) Create(_ context.Context, b *model.Business) error {
	r.businesses[b.ID] = b
	return nil
}

func (r *stubBusinessRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Business, error) {
	b, ok := r.businesses[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return b, nil
}

func (r *stubBusinessRepo) ListWithDigest(context.Context) ([]model.Business, error) { return nil, nil }

type stubActionRepo struct {
	actions     []model.InventoryAction
	listErr     error
	lastSale    map[uuid.UUID]time.Time
	lastSaleErr error
	createErr   error
	since       time.Time
	lastSaleHit int
}

func (r *stubActionRepo) ListSince(_ context.Context, businessID uuid.UUID, since time.Time) ([]model.InventoryAction, error) {
	r.since = since
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []model.InventoryAction
	for _, a := range r.actions {
		if a.BusinessID == businessID && !a.Timestamp.Before(since) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *stubActionRepo) LastSaleByProduct(context.Context, uuid.UUID) (map[uuid.UUID]time.Time, error) {
	r.lastSaleHit++
	return r.lastSale, r.lastSaleErr
}

func (r *stubActionRepo) ListByProduct(_ context.Context, businessID uuid.UUID, f repository.ActionFilter) ([]model.InventoryAction, int64, error) {
	var out []model.InventoryAction
	for _, a := range r.actions {
		if a.BusinessID == businessID && a.ProductID == f.ProductID && (f.Type == "" || a.ActionType == f.Type) {
			out = append(out, a)
		}
	}
	return out, int64(len(out)), nil
}

func (r *stubActionRepo) CreateTx(_ *gorm.DB, a *model.InventoryAction) error {
	if r.createErr != nil {
		return r.createErr
	}
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	r.actions = append(r.actions, *a)
	return nil
}

type stubProductRepo struct {
	products map[uuid.UUID]*model.Product
	listErr  error
}

func newStubProductRepo(ps ...*model.Product) *stubProductRepo {
	r := &stubProductRepo{products: map[uuid.UUID]*model.Product{}}
	for _, p := range ps {
		r.products[p.ID] = p
	}
	return r
}

func (r *stubProductRepo) Create(_ context.Context, p *model.Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *stubProductRepo) FindByID(_ context.Context, businessID, id uuid.UUID) (*model.Product, error) {
	p, ok := r.products[id]
	if !ok || p.BusinessID != businessID {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductRepo) ListByBusiness(_ context.Context, businessID uuid.UUID) ([]model.Product, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	var out []model.Product
	for _, p := range r.products {
		if p.BusinessID == businessID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductRepo) ApplyDeltaTx(_ *gorm.DB, businessID, id uuid.UUID, delta int) (int, error) {
	p, ok := r.products[id]
	if !ok || p.BusinessID != businessID {
		return 0, gorm.ErrRecordNotFound
	}
	if p.Quantity+delta < 0 {
		return p.Quantity, repository.ErrInsufficientStock
	}
	p.Quantity += delta
	return p.Quantity, nil
}

func (r *stubProductRepo) DB() *gorm.DB { return nil }

type stubSupplierRepo struct {
	names     map[uuid.UUID]string
	suppliers map[uuid.UUID]*model.Supplier
	err       error
}

func (r *stubSupplierRepo) Create(_ context.Context, s *model.Supplier) error {
	if r.suppliers == nil {
		r.suppliers = map[uuid.UUID]*model.Supplier{}
	}
	r.suppliers[s.ID] = s
	return nil
}

func (r *stubSupplierRepo) FindByID(_ context.Context, businessID, id uuid.UUID) (*model.Supplier, error) {
	s, ok := r.suppliers[id]
	if !ok || s.BusinessID != businessID {
		return nil, gorm.ErrRecordNotFound
	}
	return s, nil
}

func (r *stubSupplierRepo) NamesByBusiness(context.Context, uuid.UUID) (map[uuid.UUID]string, error) {
	return r.names, r.err
}

// ── Stockflow Stubs ───────────────────────────────────────────────────────────

type memStore struct {
	mu   sync.Mutex
	data map[uuid.UUID]stockflow.Adjustment
}

func newMemStore() *memStore { return &memStore{data: map[uuid.UUID]stockflow.Adjustment{}} }

func (s *memStore) Save(_ context.Context, adj *stockflow.Adjustment, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[adj.ID] = *adj
	return nil
}

func (s *memStore) Get(_ context.Context, businessID, id uuid.UUID) (*stockflow.Adjustment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	adj, ok := s.data[id]
	if !ok || adj.BusinessID != businessID {
		return nil, stockflow.ErrNotFound
	}
	return &adj, nil
}

func (s *memStore) Delete(_ context.Context, _, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

type noopLock struct{}

func (noopLock) Release(context.Context) error { return nil }

type freeLocker struct{}

func (freeLocker) Obtain(context.Context, string, time.Duration) (infra.Lock, error) {
	return noopLock{}, nil
}

type stubDispatcher struct {
	enqueued []uuid.UUID
	err      error
}

func (d *stubDispatcher) EnqueueInsightsRefresh(_ context.Context, businessID uuid.UUID) error {
	if d.err != nil {
		return d.err
	}
	d.enqueued = append(d.enqueued, businessID)
	return nil
}
