package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mercaline/marketsplit-backend/api/responses"
	"github.com/mercaline/marketsplit-backend/internal/commission"
	pkgerrors "github.com/mercaline/marketsplit-backend/pkg/errors"
	"github.com/mercaline/marketsplit-backend/pkg/logger"
)

func commissionRecordIDFromPath(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "recordId"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid commission record id")
	}
	return id, nil
}

// AdminMarkCommissionPaid settles a calculated ledger row once the matching
// payout has been disbursed.
func AdminMarkCommissionPaid(svc commission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "commission service unavailable"))
			return
		}

		id, err := commissionRecordIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.MarkPaid(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"record_id": id, "status": "paid"})
	}
}

// AdminMarkCommissionRefunded reverses a calculated ledger row when the
// underlying order was refunded before disbursement.
func AdminMarkCommissionRefunded(svc commission.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "commission service unavailable"))
			return
		}

		id, err := commissionRecordIDFromPath(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.MarkRefunded(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"record_id": id, "status": "refunded"})
	}
}
