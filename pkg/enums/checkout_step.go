package enums

import "fmt"

// CheckoutStep orders the linear checkout flow. Step N+1 is reachable only
// when every step up to N reports valid.
type CheckoutStep int

const (
	CheckoutStepAddress CheckoutStep = iota
	CheckoutStepShipping
	CheckoutStepPayment
	CheckoutStepReview
)

var checkoutStepNames = map[CheckoutStep]string{
	CheckoutStepAddress:  "address",
	CheckoutStepShipping: "shipping",
	CheckoutStepPayment:  "payment",
	CheckoutStepReview:   "review",
}

// String implements fmt.Stringer.
func (s CheckoutStep) String() string {
	if name, ok := checkoutStepNames[s]; ok {
		return name
	}
	return fmt.Sprintf("step(%d)", int(s))
}

// IsValid reports whether the step is part of the flow.
func (s CheckoutStep) IsValid() bool {
	_, ok := checkoutStepNames[s]
	return ok
}

// ParseCheckoutStep converts a step slug into a CheckoutStep.
func ParseCheckoutStep(value string) (CheckoutStep, error) {
	for step, name := range checkoutStepNames {
		if name == value {
			return step, nil
		}
	}
	return 0, fmt.Errorf("invalid checkout step %q", value)
}
