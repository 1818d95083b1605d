package enums

import (
	"fmt"
	"strings"
)

// OrderStatus is the fulfilment state shown to shoppers. The set is open: any
// non-empty value is accepted and persisted, and the constants below are the
// values the storefront knows how to present.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusDelivered OrderStatus = "Delivered"
	OrderStatusCancelled OrderStatus = "Cancelled"
)

var knownOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusShipped,
	OrderStatusDelivered,
	OrderStatusCancelled,
}

// String implements fmt.Stringer.
func (s OrderStatus) String() string {
	return string(s)
}

// IsKnown reports whether the value is one of the predefined statuses.
func (s OrderStatus) IsKnown() bool {
	for _, candidate := range knownOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseOrderStatus trims raw input and rejects only empty values.
func ParseOrderStatus(value string) (OrderStatus, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", fmt.Errorf("order status is required")
	}
	return OrderStatus(trimmed), nil
}
