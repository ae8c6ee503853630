package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/meridianlabs/storefront-api/pkg/db/models"
	"gorm.io/gorm"
)

// CartRepository abstracts persistence for the cart service.
type CartRepository interface {
	WithTx(tx *gorm.DB) CartRepository
	Create(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	Update(ctx context.Context, cart *models.Cart) (*models.Cart, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	FindActiveByCustomer(ctx context.Context, customerID uuid.UUID) (*models.Cart, error)
	CreateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	UpdateItem(ctx context.Context, item *models.CartItem) (*models.CartItem, error)
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) error
}
