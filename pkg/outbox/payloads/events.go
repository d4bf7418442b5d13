package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/mercaline/marketsplit-backend/pkg/enums"
)

// OrderPlacedEvent signals a new checkout split across sellers.
type OrderPlacedEvent struct {
	CheckoutID     uuid.UUID   `json:"checkout_id"`
	BuyerRef       string      `json:"buyer_ref"`
	SellerOrderIDs []uuid.UUID `json:"seller_order_ids"`
	TotalCents     int64       `json:"total_cents"`
}

// OrderPaymentSettledEvent is emitted when a checkout's payment settles and
// the per-seller splits have been recorded.
type OrderPaymentSettledEvent struct {
	CheckoutID uuid.UUID `json:"checkout_id"`
	TotalCents int64     `json:"total_cents"`
	SettledAt  time.Time `json:"settled_at"`
}

// OrderSplitProcessedEvent carries one seller's share of a settled checkout.
type OrderSplitProcessedEvent struct {
	CheckoutID        uuid.UUID `json:"checkout_id"`
	SellerID          uuid.UUID `json:"seller_id"`
	SellerOrderID     uuid.UUID `json:"seller_order_id"`
	OrderTotalCents   int64     `json:"order_total_cents"`
	CommissionCents   int64     `json:"commission_cents"`
	SellerPayoutCents int64     `json:"seller_payout_cents"`
	CommissionRate    float64   `json:"commission_rate"`
}

// PayoutReleasedEvent is emitted when an escrowed payout leaves HOLD.
type PayoutReleasedEvent struct {
	PayoutID    uuid.UUID `json:"payout_id"`
	SellerID    uuid.UUID `json:"seller_id"`
	CheckoutID  uuid.UUID `json:"checkout_id"`
	AmountCents int64     `json:"amount_cents"`
	ReleasedAt  time.Time `json:"released_at"`
}

// PayoutCompletedEvent is emitted when an approved payout finishes processing.
type PayoutCompletedEvent struct {
	PayoutID    uuid.UUID `json:"payout_id"`
	SellerID    uuid.UUID `json:"seller_id"`
	AmountCents int64     `json:"amount_cents"`
	CompletedAt time.Time `json:"completed_at"`
}

// PayoutRejectedEvent is emitted when an operator fails a payout.
type PayoutRejectedEvent struct {
	PayoutID      uuid.UUID `json:"payout_id"`
	SellerID      uuid.UUID `json:"seller_id"`
	AmountCents   int64     `json:"amount_cents"`
	FailureReason string    `json:"failure_reason,omitempty"`
}

// CommissionRecordedEvent mirrors a row written to the commission ledger.
type CommissionRecordedEvent struct {
	RecordID        uuid.UUID              `json:"record_id"`
	SellerID        uuid.UUID              `json:"seller_id"`
	SellerOrderID   uuid.UUID              `json:"seller_order_id"`
	CommissionCents int64                  `json:"commission_cents"`
	CommissionRate  float64                `json:"commission_rate"`
	Status          enums.CommissionStatus `json:"status"`
}

// SellerRateChangedEvent is emitted when an admin overrides a seller's rate.
type SellerRateChangedEvent struct {
	SellerID uuid.UUID `json:"seller_id"`
	OldRate  *float64  `json:"old_rate,omitempty"`
	NewRate  float64   `json:"new_rate"`
}
