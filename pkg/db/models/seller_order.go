package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mercaline/marketsplit-backend/pkg/enums"
)

// SellerOrder is the per-seller sub-order produced when a checkout is
// split; each one ships and fulfills independently.
type SellerOrder struct {
	ID            uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CheckoutID    uuid.UUID               `gorm:"column:checkout_id;type:uuid;not null"`
	SellerID      uuid.UUID               `gorm:"column:seller_id;type:uuid;not null"`
	SubtotalCents int                     `gorm:"column:subtotal_cents;not null"`
	Status        enums.SellerOrderStatus `gorm:"column:status;type:seller_order_status;not null;default:'created'"`
	Lines         []OrderLine             `gorm:"foreignKey:SellerOrderID"`
	CreatedAt     time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}
