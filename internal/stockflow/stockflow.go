// Package stockflow stages a quantity change and commits it only after an
// explicit confirmation.
//
// An adjustment moves through idle → pending_confirmation → committing → idle.
// Confirm is the only transition that writes to the ledger. A failed commit
// puts the adjustment back in pending_confirmation with the same delta, so
// the client can retry without recomputing it.
package stockflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"shelfwise/internal/infra"
	"shelfwise/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var (
	ErrNotFound        = errors.New("pending adjustment not found")
	ErrNotPending      = errors.New("adjustment is not pending confirmation")
	ErrNoChange        = errors.New("target quantity equals current quantity")
	ErrBusy            = errors.New("adjustment is being committed")
	ErrInvalidQuantity = errors.New("quantity must not be negative")
)

type State string

const (
	StateIdle       State = "idle"
	StatePending    State = "pending_confirmation"
	StateCommitting State = "committing"
)

// Adjustment is a staged quantity change. Delta is signed; Direction and
// Units carry the same information in ledger form.
type Adjustment struct {
	ID           uuid.UUID `json:"id"`
	BusinessID   uuid.UUID `json:"business_id"`
	ProductID    uuid.UUID `json:"product_id"`
	FromQuantity int       `json:"from_quantity"`
	ToQuantity   int       `json:"to_quantity"`
	Delta        int       `json:"delta"`
	Direction    string    `json:"direction"` // model.ActionAdd | model.ActionRemove
	Units        int       `json:"units"`
	State        State     `json:"state"`
	Attempts     int       `json:"attempts"`
	LastError    string    `json:"last_error,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Details is what the confirmation step adds on top of the staged delta:
// the money side of a sale or a purchase.
type Details struct {
	SaleUnit      decimal.NullDecimal
	SaleTotal     decimal.NullDecimal
	PurchaseUnit  decimal.NullDecimal
	PurchaseTotal decimal.NullDecimal
	SupplierID    *uuid.UUID
	Notes         *string
}

// Store keeps pending adjustments until they are confirmed, cancelled or expire.
type Store interface {
	Save(ctx context.Context, adj *Adjustment, ttl time.Duration) error
	Get(ctx context.Context, businessID, id uuid.UUID) (*Adjustment, error)
	Delete(ctx context.Context, businessID, id uuid.UUID) error
}

// Committer appends the ledger entry and then updates the product quantity,
// atomically.
type Committer interface {
	Commit(ctx context.Context, adj *Adjustment, details Details) error
}

type Flow struct {
	store     Store
	locker    infra.Locker
	committer Committer
	ttl       time.Duration
	lockTTL   time.Duration
	now       func() time.Time
}

// New builds a Flow. ttl bounds how long an adjustment may wait for
// confirmation.
func New(store Store, locker infra.Locker, committer Committer, ttl time.Duration) *Flow {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Flow{
		store:     store,
		locker:    locker,
		committer: committer,
		ttl:       ttl,
		lockTTL:   30 * time.Second,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Stage computes the delta between current and target quantity and parks it
// in pending_confirmation. Nothing is written to the ledger.
func (f *Flow) Stage(ctx context.Context, businessID, productID uuid.UUID, current, target int) (*Adjustment, error) {
	if target < 0 {
		return nil, ErrInvalidQuantity
	}
	delta := target - current
	if delta == 0 {
		return nil, ErrNoChange
	}

	now := f.now()
	adj := &Adjustment{
		ID:           uuid.New(),
		BusinessID:   businessID,
		ProductID:    productID,
		FromQuantity: current,
		ToQuantity:   target,
		Delta:        delta,
		Direction:    model.ActionAdd,
		Units:        delta,
		State:        StatePending,
		CreatedAt:    now,
		UpdatedAt:    now,
		ExpiresAt:    now.Add(f.ttl),
	}
	if delta < 0 {
		adj.Direction = model.ActionRemove
		adj.Units = -delta
	}

	if err := f.store.Save(ctx, adj, f.ttl); err != nil {
		return nil, fmt.Errorf("save pending adjustment: %w", err)
	}
	log.Debug().
		Str("business_id", businessID.String()).
		Str("product_id", productID.String()).
		Int("delta", delta).
		Msg("stockflow: adjustment staged")
	return adj, nil
}

func (f *Flow) Get(ctx context.Context, businessID, id uuid.UUID) (*Adjustment, error) {
	return f.store.Get(ctx, businessID, id)
}

// Confirm commits a pending adjustment. The adjustment is locked for the
// whole committing phase; a second Confirm racing it gets ErrBusy.
func (f *Flow) Confirm(ctx context.Context, businessID, id uuid.UUID, details Details) (*Adjustment, error) {
	lock, err := f.locker.Obtain(ctx, lockKey(id), f.lockTTL)
	if errors.Is(err, infra.ErrLockNotObtained) {
		return nil, ErrBusy
	}
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
			log.Warn().Err(err).Str("adjustment_id", id.String()).Msg("stockflow: release lock")
		}
	}()

	adj, err := f.store.Get(ctx, businessID, id)
	if err != nil {
		return nil, err
	}
	if adj.State != StatePending {
		return adj, ErrNotPending
	}

	adj.State = StateCommitting
	adj.UpdatedAt = f.now()
	if err := f.save(ctx, adj); err != nil {
		return nil, err
	}

	if commitErr := f.committer.Commit(ctx, adj, details); commitErr != nil {
		adj.State = StatePending
		adj.Attempts++
		adj.LastError = commitErr.Error()
		adj.UpdatedAt = f.now()
		if err := f.save(context.WithoutCancel(ctx), adj); err != nil {
			log.Error().Err(err).Str("adjustment_id", id.String()).Msg("stockflow: restore pending state")
		}
		return adj, fmt.Errorf("commit adjustment: %w", commitErr)
	}

	adj.State = StateIdle
	adj.Attempts++
	adj.LastError = ""
	adj.UpdatedAt = f.now()
	if err := f.store.Delete(context.WithoutCancel(ctx), businessID, id); err != nil {
		// already committed; the entry expires on its own
		log.Warn().Err(err).Str("adjustment_id", id.String()).Msg("stockflow: delete committed adjustment")
	}
	log.Info().
		Str("business_id", businessID.String()).
		Str("product_id", adj.ProductID.String()).
		Str("direction", adj.Direction).
		Int("units", adj.Units).
		Msg("stockflow: adjustment committed")
	return adj, nil
}

// Cancel drops a pending adjustment. An adjustment that is committing cannot
// be cancelled.
func (f *Flow) Cancel(ctx context.Context, businessID, id uuid.UUID) error {
	adj, err := f.store.Get(ctx, businessID, id)
	if err != nil {
		return err
	}
	if adj.State != StatePending {
		return ErrNotPending
	}
	return f.store.Delete(ctx, businessID, id)
}

// save rewrites an adjustment for the rest of its original lifetime.
func (f *Flow) save(ctx context.Context, adj *Adjustment) error {
	ttl := adj.ExpiresAt.Sub(f.now())
	if ttl <= 0 {
		return ErrNotFound
	}
	if err := f.store.Save(ctx, adj, ttl); err != nil {
		return fmt.Errorf("save pending adjustment: %w", err)
	}
	return nil
}

func lockKey(id uuid.UUID) string { return "stock:lock:" + id.String() }
