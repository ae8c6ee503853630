package checkout

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/meridianlabs/storefront-api/pkg/db/models"
	"github.com/meridianlabs/storefront-api/pkg/enums"
	pkgerrors "github.com/meridianlabs/storefront-api/pkg/errors"
	"github.com/meridianlabs/storefront-api/pkg/types"
	"gorm.io/gorm"
)

// ProviderStripe is the only payment provider the storefront offers today.
const ProviderStripe = "stripe"

// cartAccess is the slice of the cart service checkout drives.
type cartAccess interface {
	GetCart(ctx context.Context, cartID uuid.UUID) (*models.Cart, error)
	ApplyShippingLine(ctx context.Context, cartID uuid.UUID, line types.ShippingLine) (*models.Cart, error)
}

// SessionStore persists checkout sessions and reads the shipping catalog.
type SessionStore interface {
	Create(ctx context.Context, session *models.CheckoutSession) (*models.CheckoutSession, error)
	Update(ctx context.Context, session *models.CheckoutSession) (*models.CheckoutSession, error)
	FindByCartID(ctx context.Context, cartID uuid.UUID) (*models.CheckoutSession, error)
	ListShippingOptions(ctx context.Context, regionID uuid.UUID) ([]models.ShippingOption, error)
	FindShippingOption(ctx context.Context, optionID, regionID uuid.UUID) (*models.ShippingOption, error)
}

// PaymentProvider describes a selectable payment integration.
type PaymentProvider struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// PaymentSession is the client-facing view of a pending payment intent.
type PaymentSession struct {
	ProviderID   string `json:"provider_id"`
	ClientSecret string `json:"client_secret"`
}

// StepState reports one checkout step and whether its requirements hold.
type StepState struct {
	Step  enums.CheckoutStep `json:"-"`
	Slug  string             `json:"step"`
	Valid bool               `json:"valid"`
}

// State is the full step-machine snapshot returned to the client.
type State struct {
	SessionID    uuid.UUID                   `json:"session_id"`
	CartID       uuid.UUID                   `json:"cart_id"`
	Status       enums.CheckoutSessionStatus `json:"status"`
	FurthestStep string                      `json:"furthest_step"`
	Steps        []StepState                 `json:"steps"`
	HasPayment   bool                        `json:"has_payment_session"`
}

// ConfirmPaymentInput carries the client-reported confirmation outcome. The
// server never trusts it: the stored intent is re-read from the gateway.
type ConfirmPaymentInput struct {
	PaymentIntentID string `json:"payment_intent_id,omitempty"`
}

// Service walks a cart through the checkout steps and owns the payment session.
type Service interface {
	StartCheckout(ctx context.Context, cartID uuid.UUID) (*State, error)
	GetCheckout(ctx context.Context, cartID uuid.UUID) (*State, error)
	GoToStep(ctx context.Context, cartID uuid.UUID, step enums.CheckoutStep) (*State, error)
	ListShippingOptions(ctx context.Context, cartID uuid.UUID) ([]models.ShippingOption, error)
	AddShippingMethod(ctx context.Context, cartID, optionID uuid.UUID) (*models.Cart, error)
	ListPaymentProviders() []PaymentProvider
	CreatePaymentSession(ctx context.Context, cartID uuid.UUID, providerID string) (*PaymentSession, error)
	GetPaymentSession(ctx context.Context, cartID uuid.UUID) (*PaymentSession, error)
	DiscardPaymentSession(ctx context.Context, cartID uuid.UUID) error
	ConfirmPayment(ctx context.Context, cartID uuid.UUID, input ConfirmPaymentInput) (*State, error)
}

type service struct {
	store   SessionStore
	carts   cartAccess
	gateway PaymentGateway
}

// ServiceParams bundles the dependencies required to build a checkout service.
type ServiceParams struct {
	Store   SessionStore
	Carts   cartAccess
	Gateway PaymentGateway
}

// NewService builds a checkout service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("checkout session store required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart access required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	return &service{
		store:   params.Store,
		carts:   params.Carts,
		gateway: params.Gateway,
	}, nil
}

// StartCheckout returns the cart's session, creating a pending one at the
// address step when none exists yet.
func (s *service) StartCheckout(ctx context.Context, cartID uuid.UUID) (*State, error) {
	cart, err := s.loadActiveCart(ctx, cartID)
	if err != nil {
		return nil, err
	}

	session, err := s.store.FindByCartID(ctx, cartID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		session, err = s.store.Create(ctx, &models.CheckoutSession{
			CartID:       cartID,
			Status:       enums.CheckoutSessionPending,
			FurthestStep: int(enums.CheckoutStepAddress),
		})
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to start checkout")
	}
	return buildState(session, cart), nil
}

// GetCheckout returns the current session and per-step validity.
func (s *service) GetCheckout(ctx context.Context, cartID uuid.UUID) (*State, error) {
	cart, session, err := s.loadPair(ctx, cartID)
	if err != nil {
		return nil, err
	}
	return buildState(session, cart), nil
}

// GoToStep moves the session forward. A step is reachable only when every
// earlier step is valid for the current cart.
func (s *service) GoToStep(ctx context.Context, cartID uuid.UUID, step enums.CheckoutStep) (*State, error) {
	if !step.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown checkout step %q", step))
	}

	cart, session, err := s.loadPair(ctx, cartID)
	if err != nil {
		return nil, err
	}

	for prior := enums.CheckoutStepAddress; prior < step; prior++ {
		if !stepValid(prior, cart, session) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("cannot reach step %s: step %s is incomplete", step, prior))
		}
	}

	if int(step) > session.FurthestStep {
		session.FurthestStep = int(step)
		if session, err = s.store.Update(ctx, session); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to advance checkout step")
		}
	}
	return buildState(session, cart), nil
}

// ListShippingOptions returns the active options for the cart's region.
func (s *service) ListShippingOptions(ctx context.Context, cartID uuid.UUID) ([]models.ShippingOption, error) {
	cart, err := s.loadActiveCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	options, err := s.store.ListShippingOptions(ctx, cart.RegionID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list shipping options")
	}
	return options, nil
}

// AddShippingMethod selects a shipping option for the cart. The option must
// belong to the cart's region.
func (s *service) AddShippingMethod(ctx context.Context, cartID, optionID uuid.UUID) (*models.Cart, error) {
	cart, session, err := s.loadPair(ctx, cartID)
	if err != nil {
		return nil, err
	}

	option, err := s.store.FindShippingOption(ctx, optionID, cart.RegionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping option is not available for this cart")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load shipping option")
	}

	cart, err = s.carts.ApplyShippingLine(ctx, cartID, types.ShippingLine{
		OptionID:    option.ID.String(),
		Name:        option.Name,
		AmountCents: option.AmountCents,
	})
	if err != nil {
		return nil, err
	}

	session.ShippingOptionID = &option.ID
	if session.FurthestStep < int(enums.CheckoutStepPayment) {
		session.FurthestStep = int(enums.CheckoutStepPayment)
	}
	if _, err := s.store.Update(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to record shipping selection")
	}
	return cart, nil
}

// ListPaymentProviders returns the payment integrations the store offers.
func (s *service) ListPaymentProviders() []PaymentProvider {
	return []PaymentProvider{{ID: ProviderStripe, Name: "Stripe"}}
}

// CreatePaymentSession opens a payment intent for the cart total and stores
// its client secret. A shipping method must already be selected.
func (s *service) CreatePaymentSession(ctx context.Context, cartID uuid.UUID, providerID string) (*PaymentSession, error) {
	if providerID != ProviderStripe {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unsupported payment provider %q", providerID))
	}

	cart, session, err := s.loadPair(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.ShippingLine == nil {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "select a shipping method before starting payment")
	}
	if session.Status == enums.CheckoutSessionAuthorized || session.Status == enums.CheckoutSessionCompleted {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment is already authorized for this cart")
	}

	// Replace any previous intent so only one secret is live at a time.
	if err := s.discard(ctx, session); err != nil {
		return nil, err
	}

	intent, err := s.gateway.CreateIntent(ctx, cart.TotalCents, string(cart.Currency), cartID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "failed to create payment session")
	}

	provider := providerID
	session.PaymentProviderID = &provider
	session.PaymentIntentID = &intent.ID
	session.ClientSecret = &intent.ClientSecret
	if _, err := s.store.Update(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to store payment session")
	}
	return &PaymentSession{ProviderID: providerID, ClientSecret: intent.ClientSecret}, nil
}

// GetPaymentSession returns the live payment session for the cart.
func (s *service) GetPaymentSession(ctx context.Context, cartID uuid.UUID) (*PaymentSession, error) {
	_, session, err := s.loadPair(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if !session.HasPaymentSession() {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no payment session for this cart")
	}
	provider := ProviderStripe
	if session.PaymentProviderID != nil {
		provider = *session.PaymentProviderID
	}
	return &PaymentSession{ProviderID: provider, ClientSecret: *session.ClientSecret}, nil
}

// DiscardPaymentSession cancels the intent best-effort and clears the secret.
// Calling it without a live session is a no-op.
func (s *service) DiscardPaymentSession(ctx context.Context, cartID uuid.UUID) error {
	session, err := s.store.FindByCartID(ctx, cartID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load checkout session")
	}
	return s.discard(ctx, session)
}

// ConfirmPayment verifies the stored intent with the gateway and marks the
// session authorized. Every path that does not end authorized clears the
// stored secret so a stale one can never be confirmed later.
func (s *service) ConfirmPayment(ctx context.Context, cartID uuid.UUID, input ConfirmPaymentInput) (*State, error) {
	cart, session, err := s.loadPair(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if !session.HasPaymentSession() || session.PaymentIntentID == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no payment session to confirm")
	}
	if input.PaymentIntentID != "" && input.PaymentIntentID != *session.PaymentIntentID {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment intent does not match this checkout")
	}

	authorized := false
	defer func() {
		if !authorized {
			_ = s.discard(ctx, session)
		}
	}()

	intent, err := s.gateway.RetrieveIntent(ctx, *session.PaymentIntentID)
	if err != nil {
		if s.gateway.IsSessionExpired(err) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeSessionExpired, err,
				"payment session is no longer valid, restart checkout")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodePaymentFailed, err, "payment confirmation failed")
	}

	switch intent.Status {
	case "succeeded", "requires_capture":
	default:
		return nil, pkgerrors.New(pkgerrors.CodePaymentFailed,
			fmt.Sprintf("payment was not authorized (status %s)", intent.Status))
	}

	now := time.Now().UTC()
	session.Status = enums.CheckoutSessionAuthorized
	session.AuthorizedAt = &now
	if session.FurthestStep < int(enums.CheckoutStepReview) {
		session.FurthestStep = int(enums.CheckoutStepReview)
	}
	if session, err = s.store.Update(ctx, session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to record authorization")
	}
	authorized = true
	return buildState(session, cart), nil
}

// discard clears the payment fields on a session, canceling the remote intent
// best-effort first. Safe to call when no intent is attached.
func (s *service) discard(ctx context.Context, session *models.CheckoutSession) error {
	if session.PaymentIntentID == nil && session.ClientSecret == nil {
		return nil
	}
	if session.PaymentIntentID != nil {
		// A failed cancel must not keep the stale secret alive.
		_ = s.gateway.CancelIntent(ctx, *session.PaymentIntentID)
	}
	session.PaymentIntentID = nil
	session.ClientSecret = nil
	session.PaymentProviderID = nil
	if _, err := s.store.Update(ctx, session); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to discard payment session")
	}
	return nil
}

func (s *service) loadActiveCart(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	cart, err := s.carts.GetCart(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.Status != enums.CartStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is no longer active")
	}
	return cart, nil
}

func (s *service) loadPair(ctx context.Context, cartID uuid.UUID) (*models.Cart, *models.CheckoutSession, error) {
	cart, err := s.loadActiveCart(ctx, cartID)
	if err != nil {
		return nil, nil, err
	}
	session, err := s.store.FindByCartID(ctx, cartID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout has not been started for this cart")
	}
	if err != nil {
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load checkout session")
	}
	return cart, session, nil
}

// stepValid reports whether one step's requirements hold for the cart.
func stepValid(step enums.CheckoutStep, cart *models.Cart, session *models.CheckoutSession) bool {
	switch step {
	case enums.CheckoutStepAddress:
		if cart.Email == nil || *cart.Email == "" {
			return false
		}
		if cart.BillingAddress == nil || len(cart.BillingAddress.MissingFields()) > 0 {
			return false
		}
		return cart.ShippingAddress != nil && len(cart.ShippingAddress.MissingFields()) == 0
	case enums.CheckoutStepShipping:
		return cart.ShippingLine != nil
	case enums.CheckoutStepPayment:
		return session.Status == enums.CheckoutSessionAuthorized ||
			session.Status == enums.CheckoutSessionCompleted
	case enums.CheckoutStepReview:
		return session.Status == enums.CheckoutSessionCompleted
	default:
		return false
	}
}

func buildState(session *models.CheckoutSession, cart *models.Cart) *State {
	steps := make([]StepState, 0, 4)
	for step := enums.CheckoutStepAddress; step <= enums.CheckoutStepReview; step++ {
		steps = append(steps, StepState{
			Step:  step,
			Slug:  step.String(),
			Valid: stepValid(step, cart, session),
		})
	}
	return &State{
		SessionID:    session.ID,
		CartID:       session.CartID,
		Status:       session.Status,
		FurthestStep: enums.CheckoutStep(session.FurthestStep).String(),
		Steps:        steps,
		HasPayment:   session.HasPaymentSession(),
	}
}
