package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Supplier represents a vendor products are purchased from.
type Supplier struct {
	ID         uuid.UUID `gorm:"type:char(36);primaryKey"`
	BusinessID uuid.UUID `gorm:"type:char(36);not null;index"`
	Name       string    `gorm:"not null"`
	Email      *string
	Phone      *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (Supplier) TableName() string { return "suppliers" }

func (s *Supplier) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
