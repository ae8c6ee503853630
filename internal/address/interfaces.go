package address

import (
	"context"

	"github.com/google/uuid"
	"github.com/meridianlabs/storefront-api/pkg/db/models"
	"gorm.io/gorm"
)

// AddressRepository abstracts persistence for the address service.
type AddressRepository interface {
	WithTx(tx *gorm.DB) AddressRepository
	ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Address, error)
	FindByIDAndCustomer(ctx context.Context, id, customerID uuid.UUID) (*models.Address, error)
	Create(ctx context.Context, row *models.Address) (*models.Address, error)
	Update(ctx context.Context, row *models.Address) (*models.Address, error)
	Delete(ctx context.Context, id, customerID uuid.UUID) error
	ClearDefaultBilling(ctx context.Context, customerID uuid.UUID) error
	ClearDefaultShipping(ctx context.Context, customerID uuid.UUID) error
}
