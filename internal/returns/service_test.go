package returns

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/meridianlabs/storefront-api/internal/orders"
	"github.com/meridianlabs/storefront-api/pkg/db/models"
	"github.com/meridianlabs/storefront-api/pkg/enums"
	pkgerrors "github.com/meridianlabs/storefront-api/pkg/errors"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func setupReturnTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	statements := []string{
		`CREATE TABLE IF NOT EXISTS orders (
  id TEXT PRIMARY KEY,
  display_number INTEGER NOT NULL UNIQUE,
  customer_id TEXT,
  cart_id TEXT NOT NULL,
  email TEXT NOT NULL,
  currency TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  billing_address TEXT,
  shipping_address TEXT,
  shipping_line TEXT,
  subtotal_cents INTEGER NOT NULL,
  shipping_cents INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  payment_intent_id TEXT,
  placed_at DATETIME NOT NULL,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS order_items (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  variant_id TEXT NOT NULL,
  title TEXT NOT NULL,
  thumbnail TEXT,
  unit_price_cents INTEGER NOT NULL,
  quantity INTEGER NOT NULL,
  returned_quantity INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS returns (
  id TEXT PRIMARY KEY,
  order_id TEXT NOT NULL,
  customer_id TEXT,
  status TEXT NOT NULL DEFAULT 'requested',
  refund_amount_cents INTEGER NOT NULL,
  note TEXT,
  requested_at DATETIME NOT NULL,
  received_at DATETIME,
  canceled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS return_items (
  id TEXT PRIMARY KEY,
  return_id TEXT NOT NULL,
  order_item_id TEXT NOT NULL,
  quantity INTEGER NOT NULL,
  reason_id TEXT,
  note TEXT,
  created_at DATETIME
);`,
		`CREATE TABLE IF NOT EXISTS return_reasons (
  id TEXT PRIMARY KEY,
  value TEXT NOT NULL UNIQUE,
  label TEXT NOT NULL,
  description TEXT,
  created_at DATETIME
);`,
	}
	for _, stmt := range statements {
		require.NoError(t, db.Exec(stmt).Error)
	}

	return db
}

func seedOrder(t *testing.T, db *gorm.DB, customerID uuid.UUID, status enums.OrderStatus) *models.Order {
	t.Helper()

	order := &models.Order{
		ID:            uuid.New(),
		DisplayNumber: time.Now().UnixNano(),
		CustomerID:    &customerID,
		CartID:        uuid.New(),
		Email:         "ada@example.com",
		Currency:      enums.CurrencyGBP,
		Status:        status,
		SubtotalCents: 4000,
		TotalCents:    4000,
		PlacedAt:      time.Now().UTC(),
		Items: []models.OrderItem{
			{VariantID: "variant_1", Title: "Tea Towel", UnitPriceCents: 1500, Quantity: 2},
			{VariantID: "variant_2", Title: "Mug", UnitPriceCents: 1000, Quantity: 1},
		},
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func buildReturnService(t *testing.T, db *gorm.DB) Service {
	t.Helper()

	svc, err := NewService(ServiceParams{
		Repo:   NewRepository(db),
		Orders: orders.NewRepository(db),
		Tx:     gormTxRunner{db: db},
	})
	require.NoError(t, err)
	return svc
}

func TestCreateReturnComputesRefundAndReservesQuantity(t *testing.T) {
	db := setupReturnTestDB(t)
	svc := buildReturnService(t, db)
	customerID := uuid.New()
	order := seedOrder(t, db, customerID, enums.OrderStatusCompleted)

	ret, err := svc.CreateReturn(context.Background(), customerID, CreateReturnInput{
		OrderID: order.ID,
		Items: []ReturnItemInput{
			{OrderItemID: order.Items[0].ID, Quantity: 2},
			{OrderItemID: order.Items[1].ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	require.Equal(t, enums.ReturnStatusRequested, ret.Status)
	require.Equal(t, 4000, ret.RefundAmountCents)
	require.Len(t, ret.Items, 2)

	var line models.OrderItem
	require.NoError(t, db.First(&line, "id = ?", order.Items[0].ID).Error)
	require.Equal(t, 2, line.ReturnedQuantity)
}

func TestCreateReturnRequiresPositiveQuantity(t *testing.T) {
	db := setupReturnTestDB(t)
	svc := buildReturnService(t, db)
	customerID := uuid.New()
	order := seedOrder(t, db, customerID, enums.OrderStatusCompleted)

	_, err := svc.CreateReturn(context.Background(), customerID, CreateReturnInput{
		OrderID: order.ID,
		Items:   []ReturnItemInput{{OrderItemID: order.Items[0].ID, Quantity: 0}},
	})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	var count int64
	require.NoError(t, db.Model(&models.Return{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreateReturnCapsAtRemainingQuantity(t *testing.T) {
	db := setupReturnTestDB(t)
	svc := buildReturnService(t, db)
	customerID := uuid.New()
	order := seedOrder(t, db, customerID, enums.OrderStatusCompleted)

	_, err := svc.CreateReturn(context.Background(), customerID, CreateReturnInput{
		OrderID: order.ID,
		Items:   []ReturnItemInput{{OrderItemID: order.Items[0].ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.CreateReturn(context.Background(), customerID, CreateReturnInput{
		OrderID: order.ID,
		Items:   []ReturnItemInput{{OrderItemID: order.Items[0].ID, Quantity: 2}},
	})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestCreateReturnRejectsIneligibleOrder(t *testing.T) {
	db := setupReturnTestDB(t)
	svc := buildReturnService(t, db)
	customerID := uuid.New()
	order := seedOrder(t, db, customerID, enums.OrderStatusPending)

	_, err := svc.CreateReturn(context.Background(), customerID, CreateReturnInput{
		OrderID: order.ID,
		Items:   []ReturnItemInput{{OrderItemID: order.Items[0].ID, Quantity: 1}},
	})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestCancelReturnReleasesQuantityAndIsTerminal(t *testing.T) {
	db := setupReturnTestDB(t)
	svc := buildReturnService(t, db)
	customerID := uuid.New()
	order := seedOrder(t, db, customerID, enums.OrderStatusCompleted)

	ret, err := svc.CreateReturn(context.Background(), customerID, CreateReturnInput{
		OrderID: order.ID,
		Items:   []ReturnItemInput{{OrderItemID: order.Items[0].ID, Quantity: 2}},
	})
	require.NoError(t, err)

	canceled, err := svc.CancelReturn(context.Background(), ret.ID, customerID)
	require.NoError(t, err)
	require.Equal(t, enums.ReturnStatusCanceled, canceled.Status)
	require.NotNil(t, canceled.CanceledAt)

	var line models.OrderItem
	require.NoError(t, db.First(&line, "id = ?", order.Items[0].ID).Error)
	require.Zero(t, line.ReturnedQuantity)

	_, err = svc.ReceiveReturn(context.Background(), ret.ID, customerID)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestGetReturnBuildsTimeline(t *testing.T) {
	db := setupReturnTestDB(t)
	svc := buildReturnService(t, db)
	customerID := uuid.New()
	order := seedOrder(t, db, customerID, enums.OrderStatusCompleted)

	ret, err := svc.CreateReturn(context.Background(), customerID, CreateReturnInput{
		OrderID: order.ID,
		Items:   []ReturnItemInput{{OrderItemID: order.Items[0].ID, Quantity: 1}},
	})
	require.NoError(t, err)

	_, err = svc.ReceiveReturn(context.Background(), ret.ID, customerID)
	require.NoError(t, err)

	detail, err := svc.GetReturn(context.Background(), ret.ID, customerID)
	require.NoError(t, err)
	require.Len(t, detail.Timeline, 2)
	require.Equal(t, enums.ReturnStatusRequested, detail.Timeline[0].Status)
	require.Equal(t, enums.ReturnStatusReceived, detail.Timeline[1].Status)
	require.False(t, detail.Timeline[1].OccurredAt.Before(detail.Timeline[0].OccurredAt))
}

func TestListReturnsScopedToCustomer(t *testing.T) {
	db := setupReturnTestDB(t)
	svc := buildReturnService(t, db)
	customerID := uuid.New()
	order := seedOrder(t, db, customerID, enums.OrderStatusCompleted)

	_, err := svc.CreateReturn(context.Background(), customerID, CreateReturnInput{
		OrderID: order.ID,
		Items:   []ReturnItemInput{{OrderItemID: order.Items[0].ID, Quantity: 1}},
	})
	require.NoError(t, err)

	mine, err := svc.ListReturns(context.Background(), customerID)
	require.NoError(t, err)
	require.Len(t, mine, 1)

	other, err := svc.ListReturns(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestListReturnReasons(t *testing.T) {
	db := setupReturnTestDB(t)
	svc := buildReturnService(t, db)

	require.NoError(t, db.Create(&models.ReturnReason{Value: "wrong_size", Label: "Wrong size"}).Error)
	require.NoError(t, db.Create(&models.ReturnReason{Value: "damaged", Label: "Damaged"}).Error)

	reasons, err := svc.ListReturnReasons(context.Background())
	require.NoError(t, err)
	require.Len(t, reasons, 2)
	require.Equal(t, "damaged", reasons[0].Value)
}
