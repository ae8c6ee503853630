package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meridianlabs/storefront-api/pkg/enums"
)

// Return is a post-completion request to send items back for refund.
type Return struct {
	ID                uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	OrderID           uuid.UUID          `gorm:"column:order_id;type:uuid;not null;index"`
	CustomerID        *uuid.UUID         `gorm:"column:customer_id;type:uuid;index"`
	Status            enums.ReturnStatus `gorm:"column:status;not null;default:'requested'"`
	RefundAmountCents int                `gorm:"column:refund_amount_cents;not null"`
	Note              *string            `gorm:"column:note"`
	Items             []ReturnItem       `gorm:"foreignKey:ReturnID;constraint:OnDelete:CASCADE"`
	RequestedAt       time.Time          `gorm:"column:requested_at;not null"`
	ReceivedAt        *time.Time         `gorm:"column:received_at"`
	CanceledAt        *time.Time         `gorm:"column:canceled_at"`
	CreatedAt         time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key when the caller left it zero.
func (r *Return) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
