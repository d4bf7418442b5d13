package sellers

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercaline/marketsplit-backend/pkg/config"
	"github.com/mercaline/marketsplit-backend/pkg/db/models"
	"github.com/mercaline/marketsplit-backend/pkg/enums"
	pkgerrors "github.com/mercaline/marketsplit-backend/pkg/errors"
	"github.com/mercaline/marketsplit-backend/pkg/outbox"
	"github.com/mercaline/marketsplit-backend/pkg/outbox/payloads"
	"github.com/mercaline/marketsplit-backend/pkg/security"
)

type fakeSellersRepo struct {
	sellers map[uuid.UUID]*models.Seller
}

func newFakeSellersRepo() *fakeSellersRepo {
	return &fakeSellersRepo{sellers: map[uuid.UUID]*models.Seller{}}
}

func (f *fakeSellersRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeSellersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	seller, ok := f.sellers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *seller
	return &clone, nil
}

func (f *fakeSellersRepo) UpdateCommissionRate(ctx context.Context, id uuid.UUID, rate float64) error {
	seller, ok := f.sellers[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	value := rate
	seller.CommissionRate = &value
	return nil
}

type fakeSellersTx struct{}

func (fakeSellersTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type fakeSellersEmitter struct {
	events []outbox.DomainEvent
}

func (f *fakeSellersEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, event)
	return nil
}

func newSellersService(t *testing.T, repo *fakeSellersRepo, emitter *fakeSellersEmitter) Service {
	t.Helper()
	svc, err := NewService(repo, fakeSellersTx{}, emitter)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func strPtr(s string) *string { return &s }

func TestGetProfileIndividual(t *testing.T) {
	repo := newFakeSellersRepo()
	svc := newSellersService(t, repo, &fakeSellersEmitter{})

	id := uuid.New()
	repo.sellers[id] = &models.Seller{
		ID:          id,
		Type:        enums.SellerTypeIndividual,
		DisplayName: "Jane's Workshop",
		Email:       "jane@example.com",
		FirstName:   strPtr("Jane"),
		LastName:    strPtr("Doe"),
		Status:      enums.SellerStatusActive,
	}

	profile, err := svc.GetProfile(context.Background(), id)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if profile.Type != enums.SellerTypeIndividual {
		t.Fatalf("expected individual, got %s", profile.Type)
	}
	if profile.Individual == nil || profile.Individual.FirstName != "Jane" {
		t.Fatalf("expected individual profile, got %+v", profile.Individual)
	}
	if profile.Company != nil {
		t.Fatal("company profile must be empty for individual seller")
	}
}

func TestGetProfileCompany(t *testing.T) {
	repo := newFakeSellersRepo()
	svc := newSellersService(t, repo, &fakeSellersEmitter{})

	id := uuid.New()
	repo.sellers[id] = &models.Seller{
		ID:          id,
		Type:        enums.SellerTypeCompany,
		DisplayName: "Acme Ltd",
		Email:       "ops@acme.example",
		CompanyName: strPtr("Acme Ltd"),
		TaxID:       strPtr("GB123456789"),
		Status:      enums.SellerStatusActive,
	}

	profile, err := svc.GetProfile(context.Background(), id)
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if profile.Company == nil || profile.Company.TaxID != "GB123456789" {
		t.Fatalf("expected company profile, got %+v", profile.Company)
	}
	if profile.Individual != nil {
		t.Fatal("individual profile must be empty for company seller")
	}
}

func TestGetSellerNotFound(t *testing.T) {
	svc := newSellersService(t, newFakeSellersRepo(), &fakeSellersEmitter{})

	_, err := svc.GetSeller(context.Background(), uuid.New())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetCommissionRateEmitsChange(t *testing.T) {
	repo := newFakeSellersRepo()
	emitter := &fakeSellersEmitter{}
	svc := newSellersService(t, repo, emitter)

	id := uuid.New()
	oldRate := 0.20
	repo.sellers[id] = &models.Seller{
		ID:             id,
		Type:           enums.SellerTypeIndividual,
		CommissionRate: &oldRate,
	}

	updated, err := svc.SetCommissionRate(context.Background(), id, 0.10)
	if err != nil {
		t.Fatalf("SetCommissionRate: %v", err)
	}
	if updated.CommissionRate == nil || *updated.CommissionRate != 0.10 {
		t.Fatalf("expected rate 0.10, got %v", updated.CommissionRate)
	}

	if len(emitter.events) != 1 {
		t.Fatalf("expected one event, got %d", len(emitter.events))
	}
	event := emitter.events[0]
	if event.EventType != enums.EventSellerRateChanged {
		t.Fatalf("unexpected event type %s", event.EventType)
	}
	payload, ok := event.Data.(payloads.SellerRateChangedEvent)
	if !ok {
		t.Fatalf("unexpected payload type %T", event.Data)
	}
	if payload.OldRate == nil || *payload.OldRate != 0.20 || payload.NewRate != 0.10 {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestSetCommissionRateValidation(t *testing.T) {
	repo := newFakeSellersRepo()
	svc := newSellersService(t, repo, &fakeSellersEmitter{})

	id := uuid.New()
	repo.sellers[id] = &models.Seller{ID: id, Type: enums.SellerTypeIndividual}

	for _, rate := range []float64{-0.01, 1.01} {
		_, err := svc.SetCommissionRate(context.Background(), id, rate)
		appErr := pkgerrors.As(err)
		if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
			t.Fatalf("rate %v: expected validation error, got %v", rate, err)
		}
	}
}

func TestVerifyAPIKey(t *testing.T) {
	repo := newFakeSellersRepo()
	svc := newSellersService(t, repo, &fakeSellersEmitter{})

	rawKey, err := security.GenerateAPIKey()
	if err != nil {
		t.Fatalf("GenerateAPIKey: %v", err)
	}
	hash, err := security.HashAPIKey(rawKey, config.APIKeyConfig{
		ArgonMemoryKB:    8192,
		ArgonTime:        1,
		ArgonParallelism: 1,
		ArgonSaltLen:     16,
		ArgonKeyLen:      32,
	})
	if err != nil {
		t.Fatalf("HashAPIKey: %v", err)
	}

	id := uuid.New()
	repo.sellers[id] = &models.Seller{
		ID:         id,
		Type:       enums.SellerTypeIndividual,
		APIKeyHash: &hash,
	}

	if err := svc.VerifyAPIKey(context.Background(), id, rawKey); err != nil {
		t.Fatalf("VerifyAPIKey: %v", err)
	}

	err = svc.VerifyAPIKey(context.Background(), id, rawKey+"x")
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestVerifyAPIKeyNoStoredHash(t *testing.T) {
	repo := newFakeSellersRepo()
	svc := newSellersService(t, repo, &fakeSellersEmitter{})

	id := uuid.New()
	repo.sellers[id] = &models.Seller{ID: id, Type: enums.SellerTypeIndividual}

	err := svc.VerifyAPIKey(context.Background(), id, "msk_something")
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}
