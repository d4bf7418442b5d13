package models

import (
	"time"

	"github.com/google/uuid"
)

// OrderLine is one purchased item within a checkout. SellerID is nil for
// platform-owned lines, which never join a seller order or a split.
type OrderLine struct {
	ID             uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CheckoutID     uuid.UUID  `gorm:"column:checkout_id;type:uuid;not null"`
	SellerID       *uuid.UUID `gorm:"column:seller_id;type:uuid"`
	SellerOrderID  *uuid.UUID `gorm:"column:seller_order_id;type:uuid"`
	Name           string     `gorm:"column:name;not null"`
	UnitPriceCents int        `gorm:"column:unit_price_cents;not null"`
	Qty            int        `gorm:"column:qty;not null"`
	TotalCents     int        `gorm:"column:total_cents;not null"`
	CreatedAt      time.Time  `gorm:"column:created_at;autoCreateTime"`
}
