package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CartItem is one product-variant line of a cart. Quantity is always >= 1; a
// decrement that would drop below 1 removes the row instead.
type CartItem struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CartID            uuid.UUID `gorm:"column:cart_id;type:uuid;not null;index"`
	VariantID         string    `gorm:"column:variant_id;not null"`
	Title             string    `gorm:"column:title;not null"`
	Thumbnail         *string   `gorm:"column:thumbnail"`
	UnitPriceCents    int       `gorm:"column:unit_price_cents;not null"`
	Quantity          int       `gorm:"column:quantity;not null"`
	LineSubtotalCents int       `gorm:"column:line_subtotal_cents;not null"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key when the caller left it zero.
func (c *CartItem) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
