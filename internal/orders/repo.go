package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/meridianlabs/storefront-api/pkg/db/models"
	"github.com/meridianlabs/storefront-api/pkg/enums"
	"github.com/meridianlabs/storefront-api/pkg/pagination"
	"gorm.io/gorm"
)

// firstDisplayNumber seeds the customer-facing order numbering.
const firstDisplayNumber = 1000

// Repository persists orders and their frozen line items.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an order repository bound to the provided DB.
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

// CreateFromCart snapshots the cart into a new order inside the caller's
// transaction. The cart is not modified here; completion bookkeeping stays
// with the cart service.
func (r *Repository) CreateFromCart(ctx context.Context, tx *gorm.DB, cart *models.Cart) (*models.Order, error) {
	db := r.db
	if tx != nil {
		db = tx
	}

	displayNumber, err := r.nextDisplayNumber(ctx, db)
	if err != nil {
		return nil, err
	}

	email := ""
	if cart.Email != nil {
		email = *cart.Email
	}

	order := &models.Order{
		DisplayNumber:   displayNumber,
		CustomerID:      cart.CustomerID,
		CartID:          cart.ID,
		Email:           email,
		Currency:        cart.Currency,
		Status:          enums.OrderStatusCompleted,
		BillingAddress:  cart.BillingAddress,
		ShippingAddress: cart.ShippingAddress,
		ShippingLine:    cart.ShippingLine,
		SubtotalCents:   cart.SubtotalCents,
		ShippingCents:   cart.ShippingCents,
		TotalCents:      cart.TotalCents,
		PlacedAt:        time.Now().UTC(),
	}
	for _, item := range cart.Items {
		order.Items = append(order.Items, models.OrderItem{
			VariantID:      item.VariantID,
			Title:          item.Title,
			Thumbnail:      item.Thumbnail,
			UnitPriceCents: item.UnitPriceCents,
			Quantity:       item.Quantity,
		})
	}

	if err := db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// nextDisplayNumber hands out the next customer-facing order number. Runs
// inside the completion transaction so the unique index settles conflicts.
func (r *Repository) nextDisplayNumber(ctx context.Context, db *gorm.DB) (int64, error) {
	var next int64
	err := db.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(MAX(display_number), ?) + 1", firstDisplayNumber-1).
		Scan(&next).Error
	if err != nil {
		return 0, err
	}
	return next, nil
}

// ListByCustomer returns one page of the customer's orders, newest first,
// plus the cursor for the next page when more rows remain.
func (r *Repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params) ([]models.Order, string, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).
		Preload("Items").
		Where("customer_id = ?", customerID).
		Order("created_at DESC, id DESC").
		Limit(limit + 1)
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Order
	if err := query.Find(&rows).Error; err != nil {
		return nil, "", err
	}

	next := ""
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		next = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, next, nil
}

// FindByIDAndCustomer loads one order scoped to its owner.
func (r *Repository) FindByIDAndCustomer(ctx context.Context, orderID, customerID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND customer_id = ?", orderID, customerID).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}
