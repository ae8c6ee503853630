package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShippingOption is a region-scoped delivery method the customer can select.
type ShippingOption struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	RegionID    uuid.UUID `gorm:"column:region_id;type:uuid;not null;index"`
	Name        string    `gorm:"column:name;not null"`
	AmountCents int       `gorm:"column:amount_cents;not null"`
	IsActive    bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key when the caller left it zero.
func (s *ShippingOption) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
