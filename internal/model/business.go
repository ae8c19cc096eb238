package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Business is the tenant boundary. Every product, supplier and inventory
// action belongs to exactly one business.
type Business struct {
	ID   uuid.UUID `gorm:"type:char(36);primaryKey"`
	Name string    `gorm:"not null"`
	// FinancialTrackingStart marks the first moment financial data is trusted.
	// Actions before it are left out of every financial aggregation.
	FinancialTrackingStart *time.Time
	DigestEmail            *string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

func (Business) TableName() string { return "businesses" }

func (b *Business) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
