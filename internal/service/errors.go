package service

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a business, product or pending adjustment does
// not exist for the calling business.
var ErrNotFound = errors.New("not found")

// ErrUnknownSupplier is returned when a confirm names a supplier the calling
// business does not have.
var ErrUnknownSupplier = errors.New("supplier not found for this business")

// notFound maps gorm's missing-row error onto ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}
