package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mercaline/marketsplit-backend/pkg/enums"
)

// CommissionRecord is one append-only ledger row per (checkout, seller)
// split. CommissionCents + SellerPayoutCents always equals
// OrderTotalCents; only Status mutates after creation.
type CommissionRecord struct {
	ID                uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CheckoutID        uuid.UUID              `gorm:"column:checkout_id;type:uuid;not null"`
	SellerID          uuid.UUID              `gorm:"column:seller_id;type:uuid;not null"`
	CommissionRate    float64                `gorm:"column:commission_rate;type:numeric(6,5);not null"`
	OrderTotalCents   int                    `gorm:"column:order_total_cents;not null"`
	CommissionCents   int                    `gorm:"column:commission_cents;not null"`
	SellerPayoutCents int                    `gorm:"column:seller_payout_cents;not null"`
	Status            enums.CommissionStatus `gorm:"column:status;type:commission_status;not null;default:'calculated'"`
	CreatedAt         time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}
