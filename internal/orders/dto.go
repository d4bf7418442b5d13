package orders

import (
	"time"

	"github.com/google/uuid"

	"github.com/mercaline/marketsplit-backend/pkg/enums"
)

// LineInput is one purchased item submitted at checkout intake.
type LineInput struct {
	SellerID       *uuid.UUID `json:"seller_id"`
	Name           string     `json:"name" validate:"required"`
	UnitPriceCents int        `json:"unit_price_cents" validate:"gte=0"`
	Qty            int        `json:"qty" validate:"gt=0"`
}

// PlaceCheckoutInput captures a full checkout intake request.
type PlaceCheckoutInput struct {
	BuyerRef string         `json:"buyer_ref" validate:"required"`
	Currency enums.Currency `json:"currency"`
	Lines    []LineInput    `json:"lines" validate:"required,min=1,dive"`
}

// SellerOrderSummary is the read-side shape for one seller sub-order.
type SellerOrderSummary struct {
	ID            uuid.UUID               `json:"id"`
	CheckoutID    uuid.UUID               `json:"checkout_id"`
	SubtotalCents int                     `json:"subtotal_cents"`
	Status        enums.SellerOrderStatus `json:"status"`
	LineCount     int                     `json:"line_count"`
	CreatedAt     time.Time               `json:"created_at"`
}

// SellerOrderList wraps a page of seller orders plus the next cursor.
type SellerOrderList struct {
	Orders     []SellerOrderSummary `json:"orders"`
	NextCursor string               `json:"next_cursor,omitempty"`
}
