package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/meridianlabs/storefront-api/internal/address"
	"github.com/meridianlabs/storefront-api/pkg/db/models"
	"github.com/meridianlabs/storefront-api/pkg/enums"
	pkgerrors "github.com/meridianlabs/storefront-api/pkg/errors"
	"github.com/meridianlabs/storefront-api/pkg/types"
	"gorm.io/gorm"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type regionResolver interface {
	GetDefaultRegion(ctx context.Context) (*models.Region, error)
	RegionForCountry(ctx context.Context, countryCode string) (*models.Region, error)
}

// checkoutSessions is the slice of the checkout repository CompleteCart needs.
type checkoutSessions interface {
	FindByCartID(ctx context.Context, cartID uuid.UUID) (*models.CheckoutSession, error)
	MarkCompleted(ctx context.Context, tx *gorm.DB, sessionID uuid.UUID) error
}

// orderFactory snapshots a cart into an order inside the completion transaction.
type orderFactory interface {
	CreateFromCart(ctx context.Context, tx *gorm.DB, cart *models.Cart) (*models.Order, error)
}

// Service exposes cart operations for the storefront.
type Service interface {
	CreateCart(ctx context.Context, input CreateCartInput) (*models.Cart, error)
	GetCart(ctx context.Context, cartID uuid.UUID) (*models.Cart, error)
	GetActiveCart(ctx context.Context, customerID uuid.UUID) (*models.Cart, error)
	AddItem(ctx context.Context, cartID uuid.UUID, input AddItemInput) (*models.Cart, error)
	IncreaseItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.Cart, error)
	DecreaseItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.Cart, error)
	DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.Cart, error)
	UpdateCart(ctx context.Context, cartID uuid.UUID, input UpdateCartInput) (*models.Cart, error)
	ApplyShippingLine(ctx context.Context, cartID uuid.UUID, line types.ShippingLine) (*models.Cart, error)
	CompleteCart(ctx context.Context, cartID uuid.UUID) (*models.Order, error)
	ClaimForCustomer(ctx context.Context, cartID, customerID uuid.UUID, email string) error
	ReleaseActive(ctx context.Context, customerID uuid.UUID) error
}

// CreateCartInput captures the payload for opening a cart.
type CreateCartInput struct {
	CustomerID  *uuid.UUID `json:"-"`
	Email       *string    `json:"email,omitempty" validate:"omitempty,email"`
	CountryCode *string    `json:"country_code,omitempty"`
}

// AddItemInput mirrors the data stored for each cart line.
type AddItemInput struct {
	VariantID      string  `json:"variant_id" validate:"required"`
	Title          string  `json:"title" validate:"required"`
	Thumbnail      *string `json:"thumbnail,omitempty"`
	UnitPriceCents int     `json:"unit_price_cents" validate:"gte=0"`
	Quantity       int     `json:"quantity" validate:"gte=1"`
}

// UpdateCartInput captures email, address, and region changes.
type UpdateCartInput struct {
	Email           *string        `json:"email,omitempty" validate:"omitempty,email"`
	BillingAddress  *types.Address `json:"billing_address,omitempty"`
	ShippingAddress *types.Address `json:"shipping_address,omitempty"`
}

type service struct {
	repo            CartRepository
	tx              txRunner
	regions         regionResolver
	sessions        checkoutSessions
	orders          orderFactory
	fallbackCountry string
}

// ServiceParams bundles the dependencies required to build a cart service.
type ServiceParams struct {
	Repo            CartRepository
	Tx              txRunner
	Regions         regionResolver
	Sessions        checkoutSessions
	Orders          orderFactory
	FallbackCountry string
}

// NewService builds a cart service backed by the provided stack.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("cart repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if params.Regions == nil {
		return nil, fmt.Errorf("region resolver required")
	}
	if params.Sessions == nil {
		return nil, fmt.Errorf("checkout sessions required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order factory required")
	}
	return &service{
		repo:            params.Repo,
		tx:              params.Tx,
		regions:         params.Regions,
		sessions:        params.Sessions,
		orders:          params.Orders,
		fallbackCountry: params.FallbackCountry,
	}, nil
}

func (s *service) CreateCart(ctx context.Context, input CreateCartInput) (*models.Cart, error) {
	region, err := s.resolveRegion(ctx, input.CountryCode)
	if err != nil {
		return nil, err
	}

	cart := &models.Cart{
		CustomerID: input.CustomerID,
		RegionID:   region.ID,
		Currency:   region.CurrencyCode,
		Status:     enums.CartStatusActive,
	}
	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		cart.Email = &email
	}

	created, err := s.repo.Create(ctx, cart)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create cart")
	}
	return created, nil
}

func (s *service) GetCart(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	return s.load(ctx, cartID)
}

func (s *service) GetActiveCart(ctx context.Context, customerID uuid.UUID) (*models.Cart, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing customer")
	}
	cart, err := s.repo.FindActiveByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load active cart")
	}
	return cart, nil
}

// AddItem appends a line or merges the quantity into an existing line for the
// same variant, then recomputes totals.
func (s *service) AddItem(ctx context.Context, cartID uuid.UUID, input AddItemInput) (*models.Cart, error) {
	if strings.TrimSpace(input.VariantID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "variant id is required")
	}
	if input.Quantity < 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
	}
	if input.UnitPriceCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price must be non-negative")
	}

	cart, err := s.loadActive(ctx, cartID)
	if err != nil {
		return nil, err
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		var existing *models.CartItem
		for i := range cart.Items {
			if cart.Items[i].VariantID == input.VariantID {
				existing = &cart.Items[i]
				break
			}
		}

		if existing != nil {
			existing.Quantity += input.Quantity
			existing.LineSubtotalCents = existing.UnitPriceCents * existing.Quantity
			if _, err := repo.UpdateItem(ctx, existing); err != nil {
				return err
			}
		} else {
			item := &models.CartItem{
				CartID:            cart.ID,
				VariantID:         input.VariantID,
				Title:             strings.TrimSpace(input.Title),
				Thumbnail:         input.Thumbnail,
				UnitPriceCents:    input.UnitPriceCents,
				Quantity:          input.Quantity,
				LineSubtotalCents: input.UnitPriceCents * input.Quantity,
			}
			if _, err := repo.CreateItem(ctx, item); err != nil {
				return err
			}
			cart.Items = append(cart.Items, *item)
		}

		return s.saveTotals(ctx, repo, cart)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "add cart item")
	}
	return s.load(ctx, cartID)
}

func (s *service) IncreaseItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.Cart, error) {
	return s.adjustQuantity(ctx, cartID, itemID, 1)
}

// DecreaseItem lowers the line quantity; when the decrement would leave the
// quantity below 1 the line is removed instead.
func (s *service) DecreaseItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.Cart, error) {
	return s.adjustQuantity(ctx, cartID, itemID, -1)
}

func (s *service) DeleteItem(ctx context.Context, cartID, itemID uuid.UUID) (*models.Cart, error) {
	cart, err := s.loadActive(ctx, cartID)
	if err != nil {
		return nil, err
	}
	item := findItem(cart, itemID)
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.DeleteItem(ctx, cart.ID, itemID); err != nil {
			return err
		}
		removeItem(cart, itemID)
		return s.saveTotals(ctx, repo, cart)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete cart item")
	}
	return s.load(ctx, cartID)
}

func (s *service) adjustQuantity(ctx context.Context, cartID, itemID uuid.UUID, delta int) (*models.Cart, error) {
	cart, err := s.loadActive(ctx, cartID)
	if err != nil {
		return nil, err
	}
	item := findItem(cart, itemID)
	if item == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart item not found")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		next := item.Quantity + delta
		if next < 1 {
			if err := repo.DeleteItem(ctx, cart.ID, itemID); err != nil {
				return err
			}
			removeItem(cart, itemID)
		} else {
			item.Quantity = next
			item.LineSubtotalCents = item.UnitPriceCents * next
			if _, err := repo.UpdateItem(ctx, item); err != nil {
				return err
			}
		}

		return s.saveTotals(ctx, repo, cart)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "adjust cart item")
	}
	return s.load(ctx, cartID)
}

func (s *service) UpdateCart(ctx context.Context, cartID uuid.UUID, input UpdateCartInput) (*models.Cart, error) {
	cart, err := s.loadActive(ctx, cartID)
	if err != nil {
		return nil, err
	}

	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		cart.Email = &email
	}
	if input.BillingAddress != nil {
		snap := *input.BillingAddress
		snap.CountryCode = address.NormalizeCountryCode(snap.CountryCode, s.fallbackCountry)
		cart.BillingAddress = &snap
	}
	if input.ShippingAddress != nil {
		snap := *input.ShippingAddress
		snap.CountryCode = address.NormalizeCountryCode(snap.CountryCode, s.fallbackCountry)
		cart.ShippingAddress = &snap

		region, err := s.regions.RegionForCountry(ctx, snap.CountryCode)
		if err != nil {
			return nil, err
		}
		cart.RegionID = region.ID
		cart.Currency = region.CurrencyCode
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.saveTotals(ctx, s.repo.WithTx(tx), cart)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update cart")
	}
	return s.load(ctx, cartID)
}

// ApplyShippingLine stores the selected shipping method snapshot and refreshes totals.
func (s *service) ApplyShippingLine(ctx context.Context, cartID uuid.UUID, line types.ShippingLine) (*models.Cart, error) {
	cart, err := s.loadActive(ctx, cartID)
	if err != nil {
		return nil, err
	}

	cart.ShippingLine = &line
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		return s.saveTotals(ctx, s.repo.WithTx(tx), cart)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "apply shipping line")
	}
	return s.load(ctx, cartID)
}

// CompleteCart turns an authorized checkout into an order and freezes the cart.
func (s *service) CompleteCart(ctx context.Context, cartID uuid.UUID) (*models.Order, error) {
	cart, err := s.loadActive(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if len(cart.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart has no items")
	}
	if cart.Email == nil || *cart.Email == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart email is required")
	}
	if cart.BillingAddress == nil || cart.ShippingAddress == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "billing and shipping addresses are required")
	}

	session, err := s.sessions.FindByCartID(ctx, cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "checkout has not started for this cart")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load checkout session")
	}
	if session.Status != enums.CheckoutSessionAuthorized {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "payment has not been authorized")
	}

	var order *models.Order
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		created, err := s.orders.CreateFromCart(ctx, tx, cart)
		if err != nil {
			return err
		}
		order = created

		if err := s.sessions.MarkCompleted(ctx, tx, session.ID); err != nil {
			return err
		}

		now := time.Now().UTC()
		cart.Status = enums.CartStatusCompleted
		cart.CompletedOrderID = &order.ID
		cart.CompletedAt = &now
		_, err = repo.Update(ctx, cart)
		return err
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "complete cart")
	}
	return order, nil
}

// ClaimForCustomer attaches an anonymous cart to the customer after login.
func (s *service) ClaimForCustomer(ctx context.Context, cartID, customerID uuid.UUID, email string) error {
	cart, err := s.load(ctx, cartID)
	if err != nil {
		return err
	}
	if cart.CustomerID != nil {
		if *cart.CustomerID == customerID {
			return nil
		}
		return pkgerrors.New(pkgerrors.CodeForbidden, "cart belongs to another customer")
	}
	if cart.Status != enums.CartStatusActive {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "cart is no longer active")
	}

	cart.CustomerID = &customerID
	if cart.Email == nil || *cart.Email == "" {
		normalized := strings.ToLower(strings.TrimSpace(email))
		cart.Email = &normalized
	}
	if _, err := s.repo.Update(ctx, cart); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "claim cart")
	}
	return nil
}

// ReleaseActive abandons the customer's active cart on logout.
func (s *service) ReleaseActive(ctx context.Context, customerID uuid.UUID) error {
	cart, err := s.repo.FindActiveByCustomer(ctx, customerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load active cart")
	}

	cart.Status = enums.CartStatusAbandoned
	if _, err := s.repo.Update(ctx, cart); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "release cart")
	}
	return nil
}

func (s *service) load(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	if cartID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart id is required")
	}
	cart, err := s.repo.FindByID(ctx, cartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "cart not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load cart")
	}
	return cart, nil
}

func (s *service) loadActive(ctx context.Context, cartID uuid.UUID) (*models.Cart, error) {
	cart, err := s.load(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if cart.Status != enums.CartStatusActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "cart is no longer active")
	}
	return cart, nil
}

func (s *service) resolveRegion(ctx context.Context, countryCode *string) (*models.Region, error) {
	if countryCode != nil && strings.TrimSpace(*countryCode) != "" {
		normalized := address.NormalizeCountryCode(*countryCode, s.fallbackCountry)
		return s.regions.RegionForCountry(ctx, normalized)
	}
	return s.regions.GetDefaultRegion(ctx)
}

// saveTotals recomputes subtotal/shipping/total from the in-memory cart and persists it.
func (s *service) saveTotals(ctx context.Context, repo CartRepository, cart *models.Cart) error {
	subtotal := 0
	for i := range cart.Items {
		subtotal += cart.Items[i].LineSubtotalCents
	}
	shipping := 0
	if cart.ShippingLine != nil {
		shipping = cart.ShippingLine.AmountCents
	}
	cart.SubtotalCents = subtotal
	cart.ShippingCents = shipping
	cart.TotalCents = subtotal + shipping

	_, err := repo.Update(ctx, cart)
	return err
}

func findItem(cart *models.Cart, itemID uuid.UUID) *models.CartItem {
	for i := range cart.Items {
		if cart.Items[i].ID == itemID {
			return &cart.Items[i]
		}
	}
	return nil
}

func removeItem(cart *models.Cart, itemID uuid.UUID) {
	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ID != itemID {
			kept = append(kept, item)
		}
	}
	cart.Items = kept
}
