package checkout

import (
	"context"
	"fmt"

	stripelib "github.com/stripe/stripe-go/v84"

	"github.com/google/uuid"
	pkgstripe "github.com/meridianlabs/storefront-api/pkg/stripe"
)

// PaymentIntent is the provider-neutral view of a payment authorization.
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
}

// PaymentGateway abstracts the payment provider so the service can be tested.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amountCents int, currency string, cartID uuid.UUID) (*PaymentIntent, error)
	RetrieveIntent(ctx context.Context, id string) (*PaymentIntent, error)
	CancelIntent(ctx context.Context, id string) error

	// IsSessionExpired reports whether the provider error means the intent
	// moved past the stored secret and checkout must restart.
	IsSessionExpired(err error) bool
}

type stripeGateway struct {
	intents pkgstripe.IntentClient
}

// NewStripeGateway adapts the Stripe intent client to the checkout gateway.
func NewStripeGateway(intents pkgstripe.IntentClient) (PaymentGateway, error) {
	if intents == nil {
		return nil, fmt.Errorf("stripe intent client required")
	}
	return &stripeGateway{intents: intents}, nil
}

func (g *stripeGateway) CreateIntent(ctx context.Context, amountCents int, currency string, cartID uuid.UUID) (*PaymentIntent, error) {
	params := &stripelib.PaymentIntentCreateParams{
		Amount:   stripelib.Int64(int64(amountCents)),
		Currency: stripelib.String(currency),
		AutomaticPaymentMethods: &stripelib.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled: stripelib.Bool(true),
		},
	}
	params.AddMetadata("cart_id", cartID.String())

	intent, err := g.intents.Create(ctx, params)
	if err != nil {
		return nil, err
	}
	return fromStripeIntent(intent), nil
}

func (g *stripeGateway) RetrieveIntent(ctx context.Context, id string) (*PaymentIntent, error) {
	intent, err := g.intents.Get(ctx, id, nil)
	if err != nil {
		return nil, err
	}
	return fromStripeIntent(intent), nil
}

func (g *stripeGateway) CancelIntent(ctx context.Context, id string) error {
	_, err := g.intents.Cancel(ctx, id, nil)
	return err
}

func (g *stripeGateway) IsSessionExpired(err error) bool {
	return pkgstripe.IsUnexpectedState(err)
}

func fromStripeIntent(intent *stripelib.PaymentIntent) *PaymentIntent {
	if intent == nil {
		return nil
	}
	return &PaymentIntent{
		ID:           intent.ID,
		ClientSecret: intent.ClientSecret,
		Status:       string(intent.Status),
	}
}
