package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meridianlabs/storefront-api/pkg/enums"
)

// CheckoutSession tracks one cart's walk through the checkout steps. The
// client secret is ephemeral: any exit from the payment step that does not
// end authorized clears it, so a stale secret can never be confirmed.
type CheckoutSession struct {
	ID                uuid.UUID                   `gorm:"column:id;type:uuid;primaryKey"`
	CartID            uuid.UUID                   `gorm:"column:cart_id;type:uuid;not null;uniqueIndex"`
	Status            enums.CheckoutSessionStatus `gorm:"column:status;not null;default:'pending'"`
	FurthestStep      int                         `gorm:"column:furthest_step;not null;default:0"`
	ShippingOptionID  *uuid.UUID                  `gorm:"column:shipping_option_id;type:uuid"`
	PaymentProviderID *string                     `gorm:"column:payment_provider_id"`
	PaymentIntentID   *string                     `gorm:"column:payment_intent_id"`
	ClientSecret      *string                     `gorm:"column:client_secret"`
	AuthorizedAt      *time.Time                  `gorm:"column:authorized_at"`
	CreatedAt         time.Time                   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                   `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key when the caller left it zero.
func (c *CheckoutSession) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// HasPaymentSession reports whether a confirmable secret is attached.
func (c *CheckoutSession) HasPaymentSession() bool {
	return c != nil && c.ClientSecret != nil && *c.ClientSecret != ""
}
