package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReturnReason is a catalog entry the customer picks when returning an item.
type ReturnReason struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	Value       string    `gorm:"column:value;not null;uniqueIndex"`
	Label       string    `gorm:"column:label;not null"`
	Description *string   `gorm:"column:description"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns the primary key when the caller left it zero.
func (r *ReturnReason) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
