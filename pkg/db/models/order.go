package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meridianlabs/storefront-api/pkg/enums"
	"github.com/meridianlabs/storefront-api/pkg/types"
)

// Order is the immutable snapshot produced when a cart completes. Only the
// status moves afterwards; items and totals are frozen.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	DisplayNumber   int64               `gorm:"column:display_number;not null;uniqueIndex"`
	CustomerID      *uuid.UUID          `gorm:"column:customer_id;type:uuid;index"`
	CartID          uuid.UUID           `gorm:"column:cart_id;type:uuid;not null"`
	Email           string              `gorm:"column:email;not null"`
	Currency        enums.Currency      `gorm:"column:currency;not null"`
	Status          enums.OrderStatus   `gorm:"column:status;not null;default:'pending'"`
	BillingAddress  *types.Address      `gorm:"column:billing_address;type:jsonb;serializer:json"`
	ShippingAddress *types.Address      `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	ShippingLine    *types.ShippingLine `gorm:"column:shipping_line;type:jsonb;serializer:json"`
	SubtotalCents   int                 `gorm:"column:subtotal_cents;not null"`
	ShippingCents   int                 `gorm:"column:shipping_cents;not null"`
	TotalCents      int                 `gorm:"column:total_cents;not null"`
	PaymentIntentID *string             `gorm:"column:payment_intent_id"`
	Items           []OrderItem         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	PlacedAt        time.Time           `gorm:"column:placed_at;not null"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key when the caller left it zero.
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
