package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mercaline/marketsplit-backend/internal/commission"
	"github.com/mercaline/marketsplit-backend/internal/orders"
	"github.com/mercaline/marketsplit-backend/internal/payouts"
	"github.com/mercaline/marketsplit-backend/internal/sellers"
	pkgauth "github.com/mercaline/marketsplit-backend/pkg/auth"
	"github.com/mercaline/marketsplit-backend/pkg/config"
	"github.com/mercaline/marketsplit-backend/pkg/db/models"
	"github.com/mercaline/marketsplit-backend/pkg/enums"
	"github.com/mercaline/marketsplit-backend/pkg/logger"
	"github.com/mercaline/marketsplit-backend/pkg/pagination"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

type routerOrdersStub struct{}

func (routerOrdersStub) Place(ctx context.Context, input orders.PlaceCheckoutInput) (*models.Checkout, error) {
	return &models.Checkout{ID: uuid.New()}, nil
}

func (routerOrdersStub) SettlePayment(ctx context.Context, checkoutID uuid.UUID) (*models.Checkout, error) {
	return &models.Checkout{ID: checkoutID}, nil
}

func (routerOrdersStub) GetCheckout(ctx context.Context, id uuid.UUID) (*models.Checkout, error) {
	return &models.Checkout{ID: id}, nil
}

func (routerOrdersStub) ListSellerOrders(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*orders.SellerOrderList, error) {
	return &orders.SellerOrderList{}, nil
}

type routerPayoutsStub struct{}

func (routerPayoutsStub) RequestPayout(ctx context.Context, sellerID uuid.UUID, minimumThresholdCents int64) (*payouts.ReleaseResult, error) {
	return &payouts.ReleaseResult{}, nil
}

func (routerPayoutsStub) ApprovePayout(ctx context.Context, id uuid.UUID) (*models.SellerPayout, error) {
	return &models.SellerPayout{ID: id}, nil
}

func (routerPayoutsStub) MarkProcessing(ctx context.Context, id uuid.UUID) (*models.SellerPayout, error) {
	return &models.SellerPayout{ID: id}, nil
}

func (routerPayoutsStub) RejectPayout(ctx context.Context, id uuid.UUID, reason string) (*models.SellerPayout, error) {
	return &models.SellerPayout{ID: id}, nil
}

func (routerPayoutsStub) HasPayoutsForCheckout(ctx context.Context, checkoutID uuid.UUID) (bool, error) {
	return false, nil
}

func (routerPayoutsStub) ProcessScheduledPayouts(ctx context.Context) (*payouts.ScheduledRunResult, error) {
	return &payouts.ScheduledRunResult{}, nil
}

func (routerPayoutsStub) ListBySeller(ctx context.Context, sellerID uuid.UUID, status *enums.PayoutStatus) ([]models.SellerPayout, error) {
	return nil, nil
}

func (routerPayoutsStub) ListPending(ctx context.Context, limit int) ([]models.SellerPayout, error) {
	return []models.SellerPayout{}, nil
}

func (routerPayoutsStub) PendingTotal(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	return 0, nil
}

type routerCommissionStub struct{}

func (routerCommissionStub) CreateRecord(ctx context.Context, input commission.CreateRecordInput) (*models.CommissionRecord, error) {
	return &models.CommissionRecord{}, nil
}

func (routerCommissionStub) List(ctx context.Context, sellerID uuid.UUID, filter commission.ListFilter, page pagination.OffsetParams) (*commission.ListResult, error) {
	return &commission.ListResult{}, nil
}

func (routerCommissionStub) Summary(ctx context.Context, sellerID uuid.UUID, from, to *time.Time) (*commission.SummaryResult, error) {
	return &commission.SummaryResult{}, nil
}

func (routerCommissionStub) MarkPaid(ctx context.Context, id uuid.UUID) error { return nil }

func (routerCommissionStub) MarkRefunded(ctx context.Context, id uuid.UUID) error { return nil }

type routerSellersStub struct {
	verifyErr error
}

func (s routerSellersStub) GetSeller(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	return &models.Seller{ID: id}, nil
}

func (s routerSellersStub) GetProfile(ctx context.Context, id uuid.UUID) (*sellers.Profile, error) {
	return &sellers.Profile{ID: id}, nil
}

func (s routerSellersStub) SetCommissionRate(ctx context.Context, id uuid.UUID, rate float64) (*models.Seller, error) {
	return &models.Seller{ID: id}, nil
}

func (s routerSellersStub) VerifyAPIKey(ctx context.Context, id uuid.UUID, rawKey string) error {
	return s.verifyErr
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "secret",
			Issuer:            "issuer",
			ExpirationMinutes: 60,
		},
	}
}

func newTestRouter(cfg *config.Config) http.Handler {
	logg := logger.New(logger.Options{ServiceName: "test-routing", Level: logger.ParseLevel("debug"), Output: io.Discard})
	return NewRouter(RouterParams{
		Config:     cfg,
		Logger:     logg,
		DB:         stubPinger{},
		Cache:      stubPinger{},
		Orders:     routerOrdersStub{},
		Payouts:    routerPayoutsStub{},
		Commission: routerCommissionStub{},
		Sellers:    routerSellersStub{},
	})
}

func buildToken(t *testing.T, cfg *config.Config, role enums.ActorRole) string {
	t.Helper()
	token, err := pkgauth.MintAccessToken(cfg.JWT, time.Now(), pkgauth.AccessTokenPayload{
		UserID: uuid.New(),
		Role:   role,
	})
	if err != nil {
		t.Fatalf("mint token: %v", err)
	}
	return token
}

func TestHealthLiveAlwaysAvailable(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for liveness got %d", resp.Code)
	}
}

func TestHealthReadyChecksDependencies(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/health/ready", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for readiness got %d", resp.Code)
	}
}

func TestCheckoutGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/checkouts/"+uuid.NewString(), nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestCheckoutGroupAcceptsSellerToken(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/checkouts/"+uuid.NewString(), nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleSeller))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for checkout lookup got %d", resp.Code)
	}
}

func TestAdminGroupRequiresAdminRole(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	seller := httptest.NewRequest(http.MethodGet, "/api/admin/v1/payouts/pending", nil)
	seller.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleSeller))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, seller)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for seller token got %d", resp.Code)
	}

	admin := httptest.NewRequest(http.MethodGet, "/api/admin/v1/payouts/pending", nil)
	admin.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleAdmin))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, admin)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin token got %d", resp.Code)
	}
}

func TestAdminCommissionRoutesRegistered(t *testing.T) {
	cfg := testConfig()
	router := newTestRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/commissions/"+uuid.NewString()+"/mark-paid", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleAdmin))
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 for admin mark-paid got %d", resp.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/admin/v1/commissions/"+uuid.NewString()+"/mark-refunded", nil)
	req.Header.Set("Authorization", "Bearer "+buildToken(t, cfg, enums.ActorRoleSeller))
	resp = httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for seller token got %d", resp.Code)
	}
}

func TestAdminGroupRejectsMissingJWT(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/payouts/"+uuid.NewString()+"/approve", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", resp.Code)
	}
}

func TestSellerGroupRequiresAPIKey(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sellers/"+uuid.NewString()+"/profile", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without api key got %d", resp.Code)
	}
}

func TestSellerGroupAcceptsValidAPIKey(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sellers/"+uuid.NewString()+"/profile", nil)
	req.Header.Set("X-API-Key", "msk_live_abc123")
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 with api key got %d", resp.Code)
	}
}

func TestUnknownRouteReturnsNotFound(t *testing.T) {
	router := newTestRouter(testConfig())
	req := httptest.NewRequest(http.MethodGet, "/api/v1/unknown", nil)
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown route got %d", resp.Code)
	}
}
