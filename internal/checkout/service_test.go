package checkout

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/meridianlabs/storefront-api/pkg/db/models"
	"github.com/meridianlabs/storefront-api/pkg/enums"
	pkgerrors "github.com/meridianlabs/storefront-api/pkg/errors"
	"github.com/meridianlabs/storefront-api/pkg/types"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type fakeCarts struct {
	byID map[uuid.UUID]*models.Cart
}

func (f *fakeCarts) GetCart(_ context.Context, cartID uuid.UUID) (*models.Cart, error) {
	if cart, ok := f.byID[cartID]; ok {
		return cart, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
}

func (f *fakeCarts) ApplyShippingLine(_ context.Context, cartID uuid.UUID, line types.ShippingLine) (*models.Cart, error) {
	cart, ok := f.byID[cartID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
	}
	cart.ShippingLine = &line
	cart.ShippingCents = line.AmountCents
	cart.TotalCents = cart.SubtotalCents + line.AmountCents
	return cart, nil
}

type fakeGateway struct {
	nextIntent   *PaymentIntent
	createErr    error
	retrieved    *PaymentIntent
	retrieveErr  error
	expired      bool
	created      int
	canceled     []string
	cancelErr    error
	lastAmount   int
	lastCurrency string
}

func (f *fakeGateway) CreateIntent(_ context.Context, amountCents int, currency string, _ uuid.UUID) (*PaymentIntent, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created++
	f.lastAmount = amountCents
	f.lastCurrency = currency
	if f.nextIntent != nil {
		return f.nextIntent, nil
	}
	id := fmt.Sprintf("pi_%d", f.created)
	return &PaymentIntent{ID: id, ClientSecret: id + "_secret", Status: "requires_payment_method"}, nil
}

func (f *fakeGateway) RetrieveIntent(_ context.Context, id string) (*PaymentIntent, error) {
	if f.retrieveErr != nil {
		return nil, f.retrieveErr
	}
	if f.retrieved != nil {
		return f.retrieved, nil
	}
	return &PaymentIntent{ID: id, Status: "succeeded"}, nil
}

func (f *fakeGateway) CancelIntent(_ context.Context, id string) error {
	f.canceled = append(f.canceled, id)
	return f.cancelErr
}

func (f *fakeGateway) IsSessionExpired(err error) bool {
	return f.expired && err != nil
}

func setupCheckoutTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	sessions := `
CREATE TABLE IF NOT EXISTS checkout_sessions (
  id TEXT PRIMARY KEY,
  cart_id TEXT NOT NULL UNIQUE,
  status TEXT NOT NULL DEFAULT 'pending',
  furthest_step INTEGER NOT NULL DEFAULT 0,
  shipping_option_id TEXT,
  payment_provider_id TEXT,
  payment_intent_id TEXT,
  client_secret TEXT,
  authorized_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(sessions).Error)

	options := `
CREATE TABLE IF NOT EXISTS shipping_options (
  id TEXT PRIMARY KEY,
  region_id TEXT NOT NULL,
  name TEXT NOT NULL,
  amount_cents INTEGER NOT NULL,
  is_active BOOLEAN NOT NULL DEFAULT TRUE,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(options).Error)

	return db
}

func addressFixture() *types.Address {
	return &types.Address{
		FirstName:   "Ada",
		LastName:    "Lovelace",
		Address1:    "12 Analytical Way",
		City:        "London",
		CountryCode: "gb",
		PostalCode:  "N1 9GU",
		Phone:       "+442071234567",
	}
}

func cartFixture(regionID uuid.UUID) *models.Cart {
	email := "ada@example.com"
	return &models.Cart{
		ID:              uuid.New(),
		RegionID:        regionID,
		Currency:        enums.CurrencyGBP,
		Status:          enums.CartStatusActive,
		Email:           &email,
		BillingAddress:  addressFixture(),
		ShippingAddress: addressFixture(),
		SubtotalCents:   4500,
		TotalCents:      4500,
	}
}

func buildCheckoutService(t *testing.T, carts *fakeCarts, gateway *fakeGateway) (Service, *Repository) {
	t.Helper()

	repo := NewRepository(setupCheckoutTestDB(t))
	svc, err := NewService(ServiceParams{Store: repo, Carts: carts, Gateway: gateway})
	require.NoError(t, err)
	return svc, repo
}

func TestStartCheckoutIsIdempotent(t *testing.T) {
	regionID := uuid.New()
	cart := cartFixture(regionID)
	svc, _ := buildCheckoutService(t, &fakeCarts{byID: map[uuid.UUID]*models.Cart{cart.ID: cart}}, &fakeGateway{})

	first, err := svc.StartCheckout(context.Background(), cart.ID)
	require.NoError(t, err)
	require.Equal(t, enums.CheckoutSessionPending, first.Status)
	require.Equal(t, "address", first.FurthestStep)

	second, err := svc.StartCheckout(context.Background(), cart.ID)
	require.NoError(t, err)
	require.Equal(t, first.SessionID, second.SessionID)
}

func TestGetCheckoutRequiresExistingSession(t *testing.T) {
	regionID := uuid.New()
	cart := cartFixture(regionID)
	svc, _ := buildCheckoutService(t, &fakeCarts{byID: map[uuid.UUID]*models.Cart{cart.ID: cart}}, &fakeGateway{})

	_, err := svc.GetCheckout(context.Background(), cart.ID)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(err).Code())

	started, err := svc.StartCheckout(context.Background(), cart.ID)
	require.NoError(t, err)

	state, err := svc.GetCheckout(context.Background(), cart.ID)
	require.NoError(t, err)
	require.Equal(t, started.SessionID, state.SessionID)
	require.True(t, state.Steps[0].Valid)
}

func TestGoToStepBlocksPastInvalidStep(t *testing.T) {
	regionID := uuid.New()
	cart := cartFixture(regionID)
	cart.Email = nil
	svc, _ := buildCheckoutService(t, &fakeCarts{byID: map[uuid.UUID]*models.Cart{cart.ID: cart}}, &fakeGateway{})

	_, err := svc.StartCheckout(context.Background(), cart.ID)
	require.NoError(t, err)

	_, err = svc.GoToStep(context.Background(), cart.ID, enums.CheckoutStepShipping)
	require.Error(t, err)
	coded := pkgerrors.As(err)
	require.NotNil(t, coded)
	require.Equal(t, pkgerrors.CodeValidation, coded.Code())

	email := "ada@example.com"
	cart.Email = &email
	state, err := svc.GoToStep(context.Background(), cart.ID, enums.CheckoutStepShipping)
	require.NoError(t, err)
	require.Equal(t, "shipping", state.FurthestStep)
}

func TestAddShippingMethodScopesToRegion(t *testing.T) {
	regionID := uuid.New()
	cart := cartFixture(regionID)
	carts := &fakeCarts{byID: map[uuid.UUID]*models.Cart{cart.ID: cart}}
	svc, repo := buildCheckoutService(t, carts, &fakeGateway{})

	_, err := svc.StartCheckout(context.Background(), cart.ID)
	require.NoError(t, err)

	local := &models.ShippingOption{RegionID: regionID, Name: "Standard", AmountCents: 500}
	require.NoError(t, repo.db.Create(local).Error)
	foreign := &models.ShippingOption{RegionID: uuid.New(), Name: "Elsewhere", AmountCents: 100}
	require.NoError(t, repo.db.Create(foreign).Error)

	_, err = svc.AddShippingMethod(context.Background(), cart.ID, foreign.ID)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())

	updated, err := svc.AddShippingMethod(context.Background(), cart.ID, local.ID)
	require.NoError(t, err)
	require.NotNil(t, updated.ShippingLine)
	require.Equal(t, 500, updated.ShippingCents)
	require.Equal(t, 5000, updated.TotalCents)

	session, err := repo.FindByCartID(context.Background(), cart.ID)
	require.NoError(t, err)
	require.NotNil(t, session.ShippingOptionID)
	require.Equal(t, local.ID, *session.ShippingOptionID)
	require.Equal(t, int(enums.CheckoutStepPayment), session.FurthestStep)
}

func TestCreatePaymentSessionRequiresShipping(t *testing.T) {
	regionID := uuid.New()
	cart := cartFixture(regionID)
	svc, _ := buildCheckoutService(t, &fakeCarts{byID: map[uuid.UUID]*models.Cart{cart.ID: cart}}, &fakeGateway{})

	_, err := svc.StartCheckout(context.Background(), cart.ID)
	require.NoError(t, err)

	_, err = svc.CreatePaymentSession(context.Background(), cart.ID, ProviderStripe)
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeStateConflict, pkgerrors.As(err).Code())
}

func TestCreatePaymentSessionReplacesPreviousIntent(t *testing.T) {
	regionID := uuid.New()
	cart := cartFixture(regionID)
	cart.ShippingLine = &types.ShippingLine{OptionID: uuid.NewString(), Name: "Standard", AmountCents: 500}
	cart.TotalCents = 5000
	gateway := &fakeGateway{}
	svc, repo := buildCheckoutService(t, &fakeCarts{byID: map[uuid.UUID]*models.Cart{cart.ID: cart}}, gateway)

	_, err := svc.StartCheckout(context.Background(), cart.ID)
	require.NoError(t, err)

	first, err := svc.CreatePaymentSession(context.Background(), cart.ID, ProviderStripe)
	require.NoError(t, err)
	require.Equal(t, "pi_1_secret", first.ClientSecret)
	require.Equal(t, 5000, gateway.lastAmount)
	require.Equal(t, "gbp", gateway.lastCurrency)

	second, err := svc.CreatePaymentSession(context.Background(), cart.ID, ProviderStripe)
	require.NoError(t, err)
	require.Equal(t, "pi_2_secret", second.ClientSecret)
	require.Equal(t, []string{"pi_1"}, gateway.canceled)

	session, err := repo.FindByCartID(context.Background(), cart.ID)
	require.NoError(t, err)
	require.True(t, session.HasPaymentSession())
	require.Equal(t, "pi_2", *session.PaymentIntentID)
}

func TestConfirmPaymentWithoutSessionIsUsageError(t *testing.T) {
	regionID := uuid.New()
	cart := cartFixture(regionID)
	svc, _ := buildCheckoutService(t, &fakeCarts{byID: map[uuid.UUID]*models.Cart{cart.ID: cart}}, &fakeGateway{})

	_, err := svc.StartCheckout(context.Background(), cart.ID)
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(context.Background(), cart.ID, ConfirmPaymentInput{})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeValidation, pkgerrors.As(err).Code())
}

func TestConfirmPaymentAuthorizesSession(t *testing.T) {
	regionID := uuid.New()
	cart := cartFixture(regionID)
	cart.ShippingLine = &types.ShippingLine{OptionID: uuid.NewString(), Name: "Standard", AmountCents: 500}
	gateway := &fakeGateway{}
	svc, repo := buildCheckoutService(t, &fakeCarts{byID: map[uuid.UUID]*models.Cart{cart.ID: cart}}, gateway)

	_, err := svc.StartCheckout(context.Background(), cart.ID)
	require.NoError(t, err)
	_, err = svc.CreatePaymentSession(context.Background(), cart.ID, ProviderStripe)
	require.NoError(t, err)

	state, err := svc.ConfirmPayment(context.Background(), cart.ID, ConfirmPaymentInput{})
	require.NoError(t, err)
	require.Equal(t, enums.CheckoutSessionAuthorized, state.Status)
	require.Equal(t, "review", state.FurthestStep)

	session, err := repo.FindByCartID(context.Background(), cart.ID)
	require.NoError(t, err)
	require.NotNil(t, session.AuthorizedAt)
	require.True(t, session.HasPaymentSession())
	require.Empty(t, gateway.canceled)
}

func TestConfirmPaymentExpiredIntentDiscardsSecret(t *testing.T) {
	regionID := uuid.New()
	cart := cartFixture(regionID)
	cart.ShippingLine = &types.ShippingLine{OptionID: uuid.NewString(), Name: "Standard", AmountCents: 500}
	gateway := &fakeGateway{retrieveErr: fmt.Errorf("unexpected state"), expired: true}
	svc, repo := buildCheckoutService(t, &fakeCarts{byID: map[uuid.UUID]*models.Cart{cart.ID: cart}}, gateway)

	_, err := svc.StartCheckout(context.Background(), cart.ID)
	require.NoError(t, err)
	_, err = svc.CreatePaymentSession(context.Background(), cart.ID, ProviderStripe)
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(context.Background(), cart.ID, ConfirmPaymentInput{})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodeSessionExpired, pkgerrors.As(err).Code())

	session, err := repo.FindByCartID(context.Background(), cart.ID)
	require.NoError(t, err)
	require.False(t, session.HasPaymentSession())
	require.Nil(t, session.PaymentIntentID)
	require.Equal(t, enums.CheckoutSessionPending, session.Status)
}

func TestConfirmPaymentDeclinedDiscardsSecret(t *testing.T) {
	regionID := uuid.New()
	cart := cartFixture(regionID)
	cart.ShippingLine = &types.ShippingLine{OptionID: uuid.NewString(), Name: "Standard", AmountCents: 500}
	gateway := &fakeGateway{retrieved: &PaymentIntent{ID: "pi_1", Status: "requires_payment_method"}}
	svc, repo := buildCheckoutService(t, &fakeCarts{byID: map[uuid.UUID]*models.Cart{cart.ID: cart}}, gateway)

	_, err := svc.StartCheckout(context.Background(), cart.ID)
	require.NoError(t, err)
	_, err = svc.CreatePaymentSession(context.Background(), cart.ID, ProviderStripe)
	require.NoError(t, err)

	_, err = svc.ConfirmPayment(context.Background(), cart.ID, ConfirmPaymentInput{})
	require.Error(t, err)
	require.Equal(t, pkgerrors.CodePaymentFailed, pkgerrors.As(err).Code())

	session, err := repo.FindByCartID(context.Background(), cart.ID)
	require.NoError(t, err)
	require.False(t, session.HasPaymentSession())
	require.Equal(t, []string{"pi_1"}, gateway.canceled)
}

func TestDiscardPaymentSessionIsIdempotent(t *testing.T) {
	regionID := uuid.New()
	cart := cartFixture(regionID)
	gateway := &fakeGateway{}
	svc, _ := buildCheckoutService(t, &fakeCarts{byID: map[uuid.UUID]*models.Cart{cart.ID: cart}}, gateway)

	require.NoError(t, svc.DiscardPaymentSession(context.Background(), cart.ID))

	_, err := svc.StartCheckout(context.Background(), cart.ID)
	require.NoError(t, err)
	require.NoError(t, svc.DiscardPaymentSession(context.Background(), cart.ID))
	require.Empty(t, gateway.canceled)
}
