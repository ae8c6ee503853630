package address

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/meridianlabs/storefront-api/pkg/db/models"
	pkgerrors "github.com/meridianlabs/storefront-api/pkg/errors"
	"github.com/meridianlabs/storefront-api/pkg/types"
)

// DefaultAddresses is the billing/shipping pair checkout uses when the
// customer skips the address step.
type DefaultAddresses struct {
	Billing  types.Address `json:"billing_address"`
	Shipping types.Address `json:"shipping_address"`
}

// ResolveDefaults returns the customer's default billing and shipping
// addresses, or a validation error naming exactly what is missing.
func (s *service) ResolveDefaults(ctx context.Context, customerID uuid.UUID) (*DefaultAddresses, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing customer")
	}

	rows, err := s.repo.ListByCustomer(ctx, customerID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list addresses")
	}

	if len(rows) == 0 {
		return nil, missingDefaultsError([]string{"billing address", "shipping address"})
	}

	var billing, shipping *models.Address
	for i := range rows {
		if rows[i].IsDefaultBilling && billing == nil {
			billing = &rows[i]
		}
		if rows[i].IsDefaultShipping && shipping == nil {
			shipping = &rows[i]
		}
	}

	var missing []string
	if billing == nil {
		missing = append(missing, "default billing address")
	}
	if shipping == nil {
		missing = append(missing, "default shipping address")
	}
	if len(missing) > 0 {
		return nil, missingDefaultsError(missing)
	}

	billingSnap := billing.Snapshot()
	shippingSnap := shipping.Snapshot()

	var fieldProblems []string
	for _, field := range billingSnap.MissingFields() {
		fieldProblems = append(fieldProblems, fmt.Sprintf("billing %s", field))
	}
	for _, field := range shippingSnap.MissingFields() {
		fieldProblems = append(fieldProblems, fmt.Sprintf("shipping %s", field))
	}
	if len(fieldProblems) > 0 {
		return nil, missingDefaultsError(fieldProblems)
	}

	return &DefaultAddresses{
		Billing:  billingSnap,
		Shipping: shippingSnap,
	}, nil
}

func missingDefaultsError(missing []string) error {
	return pkgerrors.New(
		pkgerrors.CodeValidation,
		fmt.Sprintf("cannot proceed to checkout: missing %s", strings.Join(missing, ", ")),
	).WithDetails(map[string]any{"missing": missing})
}
