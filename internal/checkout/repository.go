package checkout

import (
	"context"

	"github.com/google/uuid"
	"github.com/meridianlabs/storefront-api/pkg/db/models"
	"github.com/meridianlabs/storefront-api/pkg/enums"
	"gorm.io/gorm"
)

// Repository persists checkout sessions and reads the shipping catalog.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a checkout repository bound to the provided DB.
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

// Create inserts a new checkout session.
func (r *Repository) Create(ctx context.Context, session *models.CheckoutSession) (*models.CheckoutSession, error) {
	if session.Status == "" {
		session.Status = enums.CheckoutSessionPending
	}
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// Update saves the provided session.
func (r *Repository) Update(ctx context.Context, session *models.CheckoutSession) (*models.CheckoutSession, error) {
	if err := r.db.WithContext(ctx).Save(session).Error; err != nil {
		return nil, err
	}
	return session, nil
}

// FindByCartID loads the session attached to a cart.
func (r *Repository) FindByCartID(ctx context.Context, cartID uuid.UUID) (*models.CheckoutSession, error) {
	var session models.CheckoutSession
	err := r.db.WithContext(ctx).
		Where("cart_id = ?", cartID).
		First(&session).Error
	if err != nil {
		return nil, err
	}
	return &session, nil
}

// MarkCompleted closes the session and drops the payment secret.
func (r *Repository) MarkCompleted(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	return db.WithContext(ctx).
		Model(&models.CheckoutSession{}).
		Where("id = ?", sessionID).
		Updates(map[string]any{
			"status":        enums.CheckoutSessionCompleted,
			"client_secret": nil,
		}).Error
}

// ListShippingOptions returns the active shipping options for a region.
func (r *Repository) ListShippingOptions(ctx context.Context, regionID uuid.UUID) ([]models.ShippingOption, error) {
	var rows []models.ShippingOption
	err := r.db.WithContext(ctx).
		Where("region_id = ? AND is_active = ?", regionID, true).
		Order("amount_cents ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindShippingOption loads a shipping option restricted to the region.
func (r *Repository) FindShippingOption(ctx context.Context, optionID, regionID uuid.UUID) (*models.ShippingOption, error) {
	var row models.ShippingOption
	err := r.db.WithContext(ctx).
		Where("id = ? AND region_id = ? AND is_active = ?", optionID, regionID, true).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}
