package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateCheckout     OutboxAggregateType = "checkout"
	AggregateSellerOrder  OutboxAggregateType = "seller_order"
	AggregateSellerPayout OutboxAggregateType = "seller_payout"
	AggregateCommission   OutboxAggregateType = "commission_record"
	AggregateSeller       OutboxAggregateType = "seller"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateCheckout,
	AggregateSellerOrder,
	AggregateSellerPayout,
	AggregateCommission,
	AggregateSeller,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventOrderPlaced         OutboxEventType = "order_placed"
	EventOrderPaymentSettled OutboxEventType = "order_payment_settled"
	EventOrderSplitProcessed OutboxEventType = "order_split_processed"
	EventPayoutReleased      OutboxEventType = "payout_released"
	EventPayoutCompleted     OutboxEventType = "payout_completed"
	EventPayoutRejected      OutboxEventType = "payout_rejected"
	EventCommissionRecorded  OutboxEventType = "commission_recorded"
	EventSellerRateChanged   OutboxEventType = "seller_rate_changed"
)

var validOutboxEventTypes = []OutboxEventType{
	EventOrderPlaced,
	EventOrderPaymentSettled,
	EventOrderSplitProcessed,
	EventPayoutReleased,
	EventPayoutCompleted,
	EventPayoutRejected,
	EventCommissionRecorded,
	EventSellerRateChanged,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
