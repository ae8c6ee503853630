package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meridianlabs/storefront-api/pkg/types"
)

// Address is one entry of a customer's address book. At most one address per
// customer carries each default flag; the repository enforces it by clearing
// siblings inside the same transaction.
type Address struct {
	ID                uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	CustomerID        uuid.UUID `gorm:"column:customer_id;type:uuid;not null;index"`
	FirstName         string    `gorm:"column:first_name;not null"`
	LastName          string    `gorm:"column:last_name;not null"`
	Company           *string   `gorm:"column:company"`
	Address1          string    `gorm:"column:address_1;not null"`
	Address2          *string   `gorm:"column:address_2"`
	City              string    `gorm:"column:city;not null"`
	Province          *string   `gorm:"column:province"`
	PostalCode        string    `gorm:"column:postal_code;not null"`
	CountryCode       string    `gorm:"column:country_code;not null"`
	Phone             string    `gorm:"column:phone;not null"`
	IsDefaultBilling  bool      `gorm:"column:is_default_billing;not null;default:false"`
	IsDefaultShipping bool      `gorm:"column:is_default_shipping;not null;default:false"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the primary key when the caller left it zero.
func (a *Address) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// Snapshot converts the book entry into the frozen cart/order shape.
func (a Address) Snapshot() types.Address {
	return types.Address{
		FirstName:   a.FirstName,
		LastName:    a.LastName,
		Company:     a.Company,
		Address1:    a.Address1,
		Address2:    a.Address2,
		City:        a.City,
		Province:    a.Province,
		PostalCode:  a.PostalCode,
		CountryCode: a.CountryCode,
		Phone:       a.Phone,
	}
}
