package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mercaline/marketsplit-backend/api/responses"
	"github.com/mercaline/marketsplit-backend/api/validators"
	"github.com/mercaline/marketsplit-backend/internal/orders"
	"github.com/mercaline/marketsplit-backend/pkg/enums"
	pkgerrors "github.com/mercaline/marketsplit-backend/pkg/errors"
	"github.com/mercaline/marketsplit-backend/pkg/logger"
)

type checkoutLineRequest struct {
	SellerID       *uuid.UUID `json:"seller_id"`
	Name           string     `json:"name" validate:"required"`
	UnitPriceCents int        `json:"unit_price_cents" validate:"gte=0"`
	Qty            int        `json:"qty" validate:"gt=0"`
}

type placeCheckoutRequest struct {
	BuyerRef string                `json:"buyer_ref" validate:"required"`
	Currency string                `json:"currency" validate:"omitempty,oneof=USD EUR GBP"`
	Lines    []checkoutLineRequest `json:"lines" validate:"required,min=1,dive"`
}

func (r placeCheckoutRequest) toInput() orders.PlaceCheckoutInput {
	input := orders.PlaceCheckoutInput{
		BuyerRef: validators.SanitizeString(r.BuyerRef, 128),
		Currency: enums.Currency(r.Currency),
		Lines:    make([]orders.LineInput, 0, len(r.Lines)),
	}
	for _, line := range r.Lines {
		input.Lines = append(input.Lines, orders.LineInput{
			SellerID:       line.SellerID,
			Name:           validators.SanitizeString(line.Name, 256),
			UnitPriceCents: line.UnitPriceCents,
			Qty:            line.Qty,
		})
	}
	return input
}

// PlaceCheckout ingests a paid-for basket and fans it out into seller orders.
func PlaceCheckout(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		var payload placeCheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		checkout, err := svc.Place(r.Context(), payload.toInput())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, checkout)
	}
}

// GetCheckout returns one checkout with its lines and seller orders.
func GetCheckout(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "checkoutId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid checkout id"))
			return
		}

		checkout, err := svc.GetCheckout(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, checkout)
	}
}

// SettleCheckoutPayment records the payment provider's settlement signal.
func SettleCheckoutPayment(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		id, err := uuid.Parse(chi.URLParam(r, "checkoutId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid checkout id"))
			return
		}

		checkout, err := svc.SettlePayment(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, checkout)
	}
}
