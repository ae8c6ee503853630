package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReturnItem selects one order line (or part of it) for a return.
type ReturnItem struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	ReturnID    uuid.UUID  `gorm:"column:return_id;type:uuid;not null;index"`
	OrderItemID uuid.UUID  `gorm:"column:order_item_id;type:uuid;not null"`
	Quantity    int        `gorm:"column:quantity;not null"`
	ReasonID    *uuid.UUID `gorm:"column:reason_id;type:uuid"`
	Note        *string    `gorm:"column:note"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns the primary key when the caller left it zero.
func (r *ReturnItem) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
