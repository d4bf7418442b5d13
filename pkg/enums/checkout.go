package enums

import "fmt"

// PaymentStatus tracks checkout-level payment progress.
type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusSettled  PaymentStatus = "settled"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

var validPaymentStatuses = []PaymentStatus{
	PaymentStatusUnpaid,
	PaymentStatusSettled,
	PaymentStatusRefunded,
}

// IsValid reports whether the value is a known PaymentStatus.
func (s PaymentStatus) IsValid() bool {
	for _, candidate := range validPaymentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParsePaymentStatus converts raw input into a PaymentStatus.
func ParsePaymentStatus(value string) (PaymentStatus, error) {
	for _, candidate := range validPaymentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid payment status %q", value)
}

// SellerOrderStatus tracks the per-seller sub-order lifecycle.
type SellerOrderStatus string

const (
	SellerOrderStatusCreated   SellerOrderStatus = "created"
	SellerOrderStatusFulfilled SellerOrderStatus = "fulfilled"
	SellerOrderStatusShipped   SellerOrderStatus = "shipped"
	SellerOrderStatusClosed    SellerOrderStatus = "closed"
	SellerOrderStatusCanceled  SellerOrderStatus = "canceled"
)

var validSellerOrderStatuses = []SellerOrderStatus{
	SellerOrderStatusCreated,
	SellerOrderStatusFulfilled,
	SellerOrderStatusShipped,
	SellerOrderStatusClosed,
	SellerOrderStatusCanceled,
}

// IsValid reports whether the value is a known SellerOrderStatus.
func (s SellerOrderStatus) IsValid() bool {
	for _, candidate := range validSellerOrderStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseSellerOrderStatus converts raw input into a SellerOrderStatus.
func ParseSellerOrderStatus(value string) (SellerOrderStatus, error) {
	for _, candidate := range validSellerOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid seller order status %q", value)
}
