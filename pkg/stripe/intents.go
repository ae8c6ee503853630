package stripe

import (
	"context"
	"errors"

	"github.com/stripe/stripe-go/v84"
)

// IntentClient exposes the payment-intent operations the checkout flow needs.
type IntentClient interface {
	Create(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error)
	Get(ctx context.Context, id string, params *stripe.PaymentIntentRetrieveParams) (*stripe.PaymentIntent, error)
	Cancel(ctx context.Context, id string, params *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error)
}

type intentClientWrapper struct {
	api *stripe.Client
}

// NewIntentClient wraps the initialized Stripe client so checkout can be tested with fakes.
func NewIntentClient(api *Client) IntentClient {
	if api == nil || api.API() == nil {
		return nil
	}
	return &intentClientWrapper{api: api.API()}
}

func (w *intentClientWrapper) Create(ctx context.Context, params *stripe.PaymentIntentCreateParams) (*stripe.PaymentIntent, error) {
	return w.api.V1PaymentIntents.Create(ctx, params)
}

func (w *intentClientWrapper) Get(ctx context.Context, id string, params *stripe.PaymentIntentRetrieveParams) (*stripe.PaymentIntent, error) {
	return w.api.V1PaymentIntents.Retrieve(ctx, id, params)
}

func (w *intentClientWrapper) Cancel(ctx context.Context, id string, params *stripe.PaymentIntentCancelParams) (*stripe.PaymentIntent, error) {
	return w.api.V1PaymentIntents.Cancel(ctx, id, params)
}

// IsUnexpectedState reports whether the error is Stripe's
// payment_intent_unexpected_state code, which means the intent moved on
// and the stored client secret can no longer be confirmed.
func IsUnexpectedState(err error) bool {
	var stripeErr *stripe.Error
	if errors.As(err, &stripeErr) {
		return stripeErr.Code == stripe.ErrorCodePaymentIntentUnexpectedState
	}
	return false
}
