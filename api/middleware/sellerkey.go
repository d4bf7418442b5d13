package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/mercaline/marketsplit-backend/api/responses"
	pkgerrors "github.com/mercaline/marketsplit-backend/pkg/errors"
	"github.com/mercaline/marketsplit-backend/pkg/logger"
)

// APIKeyHeader carries the seller's raw API key on seller-scoped routes.
const APIKeyHeader = "X-API-Key"

type SellerKeyVerifier interface {
	VerifyAPIKey(ctx context.Context, id uuid.UUID, rawKey string) error
}

// SellerKey authenticates seller-scoped routes by checking the API key header
// against the seller addressed in the path, then seeds the seller context.
func SellerKey(verifier SellerKeyVerifier, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawID := chi.URLParam(r, "sellerId")
			sellerID, err := uuid.Parse(rawID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid seller id"))
				return
			}

			rawKey := strings.TrimSpace(r.Header.Get(APIKeyHeader))
			if rawKey == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing api key"))
				return
			}

			if verifier == nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "seller key verifier unavailable"))
				return
			}
			if err := verifier.VerifyAPIKey(r.Context(), sellerID, rawKey); err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}

			ctx := WithSellerID(r.Context(), sellerID.String())
			if logg != nil {
				ctx = logg.WithSellerID(ctx, sellerID.String())
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
