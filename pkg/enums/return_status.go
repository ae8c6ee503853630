package enums

import "fmt"

// ReturnStatus tracks a return request through its fixed lifecycle.
type ReturnStatus string

const (
	ReturnStatusRequested      ReturnStatus = "requested"
	ReturnStatusReceived       ReturnStatus = "received"
	ReturnStatusCanceled       ReturnStatus = "canceled"
	ReturnStatusRequiresAction ReturnStatus = "requires_action"
)

var validReturnStatuses = []ReturnStatus{
	ReturnStatusRequested,
	ReturnStatusReceived,
	ReturnStatusCanceled,
	ReturnStatusRequiresAction,
}

// returnTransitions lists the allowed moves; received and canceled are terminal.
var returnTransitions = map[ReturnStatus][]ReturnStatus{
	ReturnStatusRequested:      {ReturnStatusReceived, ReturnStatusCanceled, ReturnStatusRequiresAction},
	ReturnStatusRequiresAction: {ReturnStatusReceived, ReturnStatusCanceled},
}

// String implements fmt.Stringer.
func (r ReturnStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known ReturnStatus.
func (r ReturnStatus) IsValid() bool {
	for _, candidate := range validReturnStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the status may move to next.
func (r ReturnStatus) CanTransitionTo(next ReturnStatus) bool {
	for _, candidate := range returnTransitions[r] {
		if candidate == next {
			return true
		}
	}
	return false
}

// ParseReturnStatus converts raw input into a ReturnStatus.
func ParseReturnStatus(value string) (ReturnStatus, error) {
	for _, candidate := range validReturnStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid return status %q", value)
}
