package returns

import (
	"context"

	"github.com/google/uuid"
	"github.com/meridianlabs/storefront-api/pkg/db/models"
	"gorm.io/gorm"
)

// Repository persists return requests and reads the reason catalog.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a returns repository bound to the provided DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return &Repository{db: tx}
}

// ListReasons returns the full reason catalog in a stable order.
func (r *Repository) ListReasons(ctx context.Context) ([]models.ReturnReason, error) {
	var rows []models.ReturnReason
	err := r.db.WithContext(ctx).Order("value ASC").Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Create inserts a return together with its items.
func (r *Repository) Create(ctx context.Context, ret *models.Return) (*models.Return, error) {
	if err := r.db.WithContext(ctx).Create(ret).Error; err != nil {
		return nil, err
	}
	return ret, nil
}

// Update saves the provided return.
func (r *Repository) Update(ctx context.Context, ret *models.Return) (*models.Return, error) {
	if err := r.db.WithContext(ctx).Omit("Items").Save(ret).Error; err != nil {
		return nil, err
	}
	return ret, nil
}

// ListByCustomer returns the customer's returns, newest first.
func (r *Repository) ListByCustomer(ctx context.Context, customerID uuid.UUID) ([]models.Return, error) {
	var rows []models.Return
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("customer_id = ?", customerID).
		Order("requested_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindByIDAndCustomer loads one return scoped to its owner.
func (r *Repository) FindByIDAndCustomer(ctx context.Context, returnID, customerID uuid.UUID) (*models.Return, error) {
	var ret models.Return
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND customer_id = ?", returnID, customerID).
		First(&ret).Error
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

// IncrementReturnedQuantity reserves units on an order line for a return.
func (r *Repository) IncrementReturnedQuantity(ctx context.Context, orderItemID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).
		Model(&models.OrderItem{}).
		Where("id = ?", orderItemID).
		Update("returned_quantity", gorm.Expr("returned_quantity + ?", quantity)).Error
}
