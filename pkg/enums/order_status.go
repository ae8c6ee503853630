package enums

import "fmt"

// OrderStatus reflects the lifecycle of a placed order.
type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusCompleted      OrderStatus = "completed"
	OrderStatusCaptured       OrderStatus = "captured"
	OrderStatusFulfilled      OrderStatus = "fulfilled"
	OrderStatusCanceled       OrderStatus = "canceled"
	OrderStatusRequiresAction OrderStatus = "requires_action"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusCompleted,
	OrderStatusCaptured,
	OrderStatusFulfilled,
	OrderStatusCanceled,
	OrderStatusRequiresAction,
}

// returnableOrderStatuses are the only statuses a return may be opened against.
var returnableOrderStatuses = []OrderStatus{
	OrderStatusCompleted,
	OrderStatusCaptured,
	OrderStatusFulfilled,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// IsReturnable reports whether a return may be created for an order in this status.
func (o OrderStatus) IsReturnable() bool {
	for _, candidate := range returnableOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into an OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}
