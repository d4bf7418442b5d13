package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mercaline/marketsplit-backend/pkg/enums"
)

// Checkout is the buyer-facing order a single payment settles. Its lines
// fan out into one SellerOrder per seller at intake time.
type Checkout struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	BuyerRef      string              `gorm:"column:buyer_ref;not null"`
	Currency      enums.Currency      `gorm:"column:currency;type:text;not null;default:'USD'"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'unpaid'"`
	TotalCents    int                 `gorm:"column:total_cents;not null"`
	Lines         []OrderLine         `gorm:"foreignKey:CheckoutID;constraint:OnDelete:CASCADE"`
	SellerOrders  []SellerOrder       `gorm:"foreignKey:CheckoutID;constraint:OnDelete:CASCADE"`
	SettledAt     *time.Time          `gorm:"column:settled_at"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}
