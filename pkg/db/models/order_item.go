package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderItem is one frozen line of a placed order. ReturnedQuantity tracks how
// many units have already been claimed by returns.
type OrderItem struct {
	ID               uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	OrderID          uuid.UUID `gorm:"column:order_id;type:uuid;not null;index"`
	VariantID        string    `gorm:"column:variant_id;not null"`
	Title            string    `gorm:"column:title;not null"`
	Thumbnail        *string   `gorm:"column:thumbnail"`
	UnitPriceCents   int       `gorm:"column:unit_price_cents;not null"`
	Quantity         int       `gorm:"column:quantity;not null"`
	ReturnedQuantity int       `gorm:"column:returned_quantity;not null;default:0"`
	CreatedAt        time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key when the caller left it zero.
func (o *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
