package sellers

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercaline/marketsplit-backend/pkg/db/models"
	"github.com/mercaline/marketsplit-backend/pkg/enums"
	pkgerrors "github.com/mercaline/marketsplit-backend/pkg/errors"
	"github.com/mercaline/marketsplit-backend/pkg/outbox"
	"github.com/mercaline/marketsplit-backend/pkg/outbox/payloads"
	"github.com/mercaline/marketsplit-backend/pkg/security"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service exposes seller registry reads plus the admin rate override.
type Service interface {
	GetSeller(ctx context.Context, id uuid.UUID) (*models.Seller, error)
	GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error)
	SetCommissionRate(ctx context.Context, id uuid.UUID, rate float64) (*models.Seller, error)
	VerifyAPIKey(ctx context.Context, id uuid.UUID, rawKey string) error
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService wires the sellers service with its dependencies.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("sellers repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: publisher}, nil
}

func (s *service) GetSeller(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	seller, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "seller not found")
		}
		return nil, err
	}
	return seller, nil
}

func (s *service) GetProfile(ctx context.Context, id uuid.UUID) (*Profile, error) {
	seller, err := s.GetSeller(ctx, id)
	if err != nil {
		return nil, err
	}
	return BuildProfile(seller)
}

// SetCommissionRate overrides the seller's rate and records the change as
// an outbox event carrying both the old and the new value.
func (s *service) SetCommissionRate(ctx context.Context, id uuid.UUID, rate float64) (*models.Seller, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	if rate < 0 || rate > 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "commission rate must be within [0,1]")
	}

	var updated *models.Seller
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		seller, err := repo.FindByID(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "seller not found")
			}
			return err
		}

		oldRate := seller.CommissionRate
		if err := repo.UpdateCommissionRate(ctx, id, rate); err != nil {
			return err
		}

		newRate := rate
		seller.CommissionRate = &newRate
		updated = seller

		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventSellerRateChanged,
			AggregateType: enums.AggregateSeller,
			AggregateID:   seller.ID,
			Version:       1,
			Data: payloads.SellerRateChangedEvent{
				SellerID: seller.ID,
				OldRate:  oldRate,
				NewRate:  rate,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// VerifyAPIKey checks the raw key against the seller's stored argon2 hash.
func (s *service) VerifyAPIKey(ctx context.Context, id uuid.UUID, rawKey string) error {
	if rawKey == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "api key required")
	}

	seller, err := s.GetSeller(ctx, id)
	if err != nil {
		return err
	}
	if seller.APIKeyHash == nil || *seller.APIKeyHash == "" {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "seller has no api key")
	}

	ok, err := security.VerifyAPIKey(rawKey, *seller.APIKeyHash)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "api key verification failed")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid api key")
	}
	return nil
}
