package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mercaline/marketsplit-backend/pkg/enums"
)

// SellerPayout is the escrow row for one seller's share of one checkout.
// Rows are never deleted; only status and timestamp fields mutate. The
// unique (checkout_id, seller_id) index backs the split idempotency guard.
type SellerPayout struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID        uuid.UUID          `gorm:"column:seller_id;type:uuid;not null;uniqueIndex:ux_seller_payouts_checkout_seller,priority:2"`
	CheckoutID      uuid.UUID          `gorm:"column:checkout_id;type:uuid;not null;uniqueIndex:ux_seller_payouts_checkout_seller,priority:1"`
	AmountCents     int                `gorm:"column:amount_cents;not null"`
	CommissionCents int                `gorm:"column:commission_cents;not null"`
	Status          enums.PayoutStatus `gorm:"column:status;type:payout_status;not null;default:'hold'"`
	ReleasedAt      *time.Time         `gorm:"column:released_at"`
	CompletedAt     *time.Time         `gorm:"column:completed_at"`
	FailureReason   *string            `gorm:"column:failure_reason"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
