package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meridianlabs/storefront-api/pkg/enums"
)

// Region groups countries sharing currency and shipping configuration.
type Region struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name         string          `gorm:"column:name;not null"`
	CurrencyCode enums.Currency  `gorm:"column:currency_code;not null"`
	IsDefault    bool            `gorm:"column:is_default;not null;default:false"`
	Countries    []RegionCountry `gorm:"foreignKey:RegionID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key when the caller left it zero.
func (r *Region) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// RegionCountry maps one ISO-3166 alpha-2 code into its region.
type RegionCountry struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	RegionID    uuid.UUID `gorm:"column:region_id;type:uuid;not null;index"`
	CountryCode string    `gorm:"column:country_code;not null;uniqueIndex"`
	DisplayName string    `gorm:"column:display_name;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns the primary key when the caller left it zero.
func (r *RegionCountry) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
