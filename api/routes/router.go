package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mercaline/marketsplit-backend/api/controllers"
	"github.com/mercaline/marketsplit-backend/api/middleware"
	"github.com/mercaline/marketsplit-backend/internal/commission"
	"github.com/mercaline/marketsplit-backend/internal/orders"
	"github.com/mercaline/marketsplit-backend/internal/payouts"
	"github.com/mercaline/marketsplit-backend/internal/sellers"
	"github.com/mercaline/marketsplit-backend/pkg/config"
	"github.com/mercaline/marketsplit-backend/pkg/enums"
	"github.com/mercaline/marketsplit-backend/pkg/logger"
)

// RouterParams carries the wired services cmd/api hands to the HTTP layer.
type RouterParams struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         controllers.Pinger
	Cache      controllers.Pinger
	Orders     orders.Service
	Payouts    payouts.Service
	Commission commission.Service
	Sellers    sellers.Service
}

func NewRouter(p RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(p.Logger),
		middleware.RequestID(p.Logger),
		middleware.Logging(p.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(p.Config))
		r.Get("/ready", controllers.HealthReady(p.Config, p.DB, p.Cache, p.Logger))
	})

	// Checkout intake and settlement signals arrive from the storefront and
	// the payment provider under an operator token.
	r.Route("/api/v1/checkouts", func(r chi.Router) {
		r.Use(middleware.Auth(p.Config.JWT, p.Logger))
		r.Post("/", controllers.PlaceCheckout(p.Orders, p.Logger))
		r.Get("/{checkoutId}", controllers.GetCheckout(p.Orders, p.Logger))
		r.Post("/{checkoutId}/settle-payment", controllers.SettleCheckoutPayment(p.Orders, p.Logger))
	})

	// Seller routes authenticate with the seller's API key, not a JWT.
	r.Route("/api/v1/sellers/{sellerId}", func(r chi.Router) {
		r.Use(middleware.SellerKey(p.Sellers, p.Logger))
		r.Get("/profile", controllers.SellerProfile(p.Sellers, p.Logger))
		r.Get("/orders", controllers.SellerOrders(p.Orders, p.Logger))
		r.Route("/commissions", func(r chi.Router) {
			r.Get("/", controllers.SellerCommissions(p.Commission, p.Logger))
			r.Get("/summary", controllers.SellerCommissionSummary(p.Commission, p.Logger))
		})
		r.Route("/payouts", func(r chi.Router) {
			r.Get("/", controllers.SellerPayouts(p.Payouts, p.Logger))
			r.Get("/pending-total", controllers.SellerPendingPayoutTotal(p.Payouts, p.Logger))
			r.Post("/request", controllers.SellerRequestPayout(p.Payouts, p.Logger))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(p.Config.JWT, p.Logger))
		r.Use(middleware.RequireRole(string(enums.ActorRoleAdmin), p.Logger))
		r.Route("/payouts", func(r chi.Router) {
			r.Get("/pending", controllers.AdminListPendingPayouts(p.Payouts, p.Logger))
			r.Post("/{payoutId}/approve", controllers.AdminApprovePayout(p.Payouts, p.Logger))
			r.Post("/{payoutId}/processing", controllers.AdminMarkPayoutProcessing(p.Payouts, p.Logger))
			r.Post("/{payoutId}/reject", controllers.AdminRejectPayout(p.Payouts, p.Logger))
		})
		r.Route("/commissions/{recordId}", func(r chi.Router) {
			r.Post("/mark-paid", controllers.AdminMarkCommissionPaid(p.Commission, p.Logger))
			r.Post("/mark-refunded", controllers.AdminMarkCommissionRefunded(p.Commission, p.Logger))
		})
		r.Route("/sellers/{sellerId}", func(r chi.Router) {
			r.Get("/profile", controllers.SellerProfile(p.Sellers, p.Logger))
			r.Put("/commission-rate", controllers.AdminSetCommissionRate(p.Sellers, p.Logger))
		})
	})

	return r
}
