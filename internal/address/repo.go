package address

import (
	"context"

	"github.com/google/uuid"
	"github.com/meridianlabs/storefront-api/pkg/db/models"
	"gorm.io/gorm"
)

// Repository exposes persistence operations for customer addresses.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an address repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) AddressRepository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ListByCustomer returns the customer's address book, oldest first.
func (r *Repository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Address, error) {
	var rows []models.Address
	err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByIDAndCustomer loads an address restricted to the owning customer.
func (r *Repository) FindByIDAndCustomer(ctx context.Context, id, customerID uuid.UUID) (*models.Address, error) {
	var row models.Address
	err := r.db.WithContext(ctx).
		Where("id = ? AND customer_id = ?", id, customerID).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// Create inserts a new address record.
func (r *Repository) Create(ctx context.Context, row *models.Address) (*models.Address, error) {
	if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// Update saves the provided address record.
func (r *Repository) Update(ctx context.Context, row *models.Address) (*models.Address, error) {
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}

// Delete removes an address owned by the customer.
func (r *Repository) Delete(ctx context.Context, id, customerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ? AND customer_id = ?", id, customerID).
		Delete(&models.Address{}).Error
}

// ClearDefaultBilling unsets the default-billing flag on every address of the customer.
func (r *Repository) ClearDefaultBilling(ctx context.Context, customerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("customer_id = ?", customerID).
		Update("is_default_billing", false).Error
}

// ClearDefaultShipping unsets the default-shipping flag on every address of the customer.
func (r *Repository) ClearDefaultShipping(ctx context.Context, customerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Address{}).
		Where("customer_id = ?", customerID).
		Update("is_default_shipping", false).Error
}
