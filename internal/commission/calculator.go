package commission

import (
	"github.com/shopspring/decimal"

	pkgerrors "github.com/mercaline/marketsplit-backend/pkg/errors"
)

// Split is the result of applying a commission rate to one seller's share
// of a checkout. CommissionCents + SellerPayoutCents always equals
// OrderTotalCents.
type Split struct {
	OrderTotalCents   int
	CommissionCents   int
	SellerPayoutCents int
	Rate              float64
}

// ComputeSplit applies rate to orderTotalCents and rounds the commission
// half-up. The payout is derived by subtraction so the two parts always
// sum back to the total.
func ComputeSplit(orderTotalCents int, rate float64) (Split, error) {
	if orderTotalCents < 0 {
		return Split{}, pkgerrors.New(pkgerrors.CodeValidation, "order total must be non-negative")
	}
	if rate < 0 || rate > 1 {
		return Split{}, pkgerrors.New(pkgerrors.CodeValidation, "commission rate must be within [0,1]")
	}

	total := decimal.NewFromInt(int64(orderTotalCents))
	commission := total.Mul(decimal.NewFromFloat(rate)).Round(0)

	commissionCents := int(commission.IntPart())
	if commissionCents > orderTotalCents {
		commissionCents = orderTotalCents
	}

	return Split{
		OrderTotalCents:   orderTotalCents,
		CommissionCents:   commissionCents,
		SellerPayoutCents: orderTotalCents - commissionCents,
		Rate:              rate,
	}, nil
}

// ResolveRate picks the per-seller override when present, otherwise the
// platform default.
func ResolveRate(override *float64, defaultRate float64) float64 {
	if override != nil {
		return *override
	}
	return defaultRate
}
