package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meridianlabs/storefront-api/pkg/enums"
	"github.com/meridianlabs/storefront-api/pkg/types"
)

// Cart is the in-progress order draft. The server copy is authoritative:
// every mutation recomputes totals and returns the stored snapshot.
type Cart struct {
	ID               uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID       *uuid.UUID          `gorm:"column:customer_id;type:uuid;index"`
	Email            *string             `gorm:"column:email"`
	RegionID         uuid.UUID           `gorm:"column:region_id;type:uuid;not null"`
	Currency         enums.Currency      `gorm:"column:currency;not null;default:'gbp'"`
	Status           enums.CartStatus    `gorm:"column:status;not null;default:'active'"`
	BillingAddress   *types.Address      `gorm:"column:billing_address;type:jsonb;serializer:json"`
	ShippingAddress  *types.Address      `gorm:"column:shipping_address;type:jsonb;serializer:json"`
	ShippingLine     *types.ShippingLine `gorm:"column:shipping_line;type:jsonb;serializer:json"`
	SubtotalCents    int                 `gorm:"column:subtotal_cents;not null;default:0"`
	ShippingCents    int                 `gorm:"column:shipping_cents;not null;default:0"`
	TotalCents       int                 `gorm:"column:total_cents;not null;default:0"`
	CompletedOrderID *uuid.UUID          `gorm:"column:completed_order_id;type:uuid"`
	CompletedAt      *time.Time          `gorm:"column:completed_at"`
	Items            []CartItem          `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt        time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key when the caller left it zero.
func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// ItemCount is the sum of line quantities. A nil cart counts zero.
func (c *Cart) ItemCount() int {
	if c == nil {
		return 0
	}
	total := 0
	for _, item := range c.Items {
		total += item.Quantity
	}
	return total
}
