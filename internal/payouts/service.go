package payouts

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercaline/marketsplit-backend/pkg/db/models"
	"github.com/mercaline/marketsplit-backend/pkg/enums"
	pkgerrors "github.com/mercaline/marketsplit-backend/pkg/errors"
	"github.com/mercaline/marketsplit-backend/pkg/outbox"
	"github.com/mercaline/marketsplit-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service drives the payout escrow lifecycle.
type Service interface {
	RequestPayout(ctx context.Context, sellerID uuid.UUID, minimumThresholdCents int64) (*ReleaseResult, error)
	ApprovePayout(ctx context.Context, id uuid.UUID) (*models.SellerPayout, error)
	MarkProcessing(ctx context.Context, id uuid.UUID) (*models.SellerPayout, error)
	RejectPayout(ctx context.Context, id uuid.UUID, reason string) (*models.SellerPayout, error)
	HasPayoutsForCheckout(ctx context.Context, checkoutID uuid.UUID) (bool, error)
	ProcessScheduledPayouts(ctx context.Context) (*ScheduledRunResult, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, status *enums.PayoutStatus) ([]models.SellerPayout, error)
	ListPending(ctx context.Context, limit int) ([]models.SellerPayout, error)
	PendingTotal(ctx context.Context, sellerID uuid.UUID) (int64, error)
}

// ReleaseResult reports what a seller-initiated release actually moved.
type ReleaseResult struct {
	ReleasedCount    int
	TotalAmountCents int64
}

// ScheduledRunResult summarizes one scheduler sweep over HOLD rows.
type ScheduledRunResult struct {
	TotalProcessed   int
	SellersAffected  int
	TotalAmountCents int64
}

type service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	batchSize int
}

// NewService wires the payout service with its dependencies.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher, batchSize int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("payout repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if batchSize <= 0 {
		batchSize = 200
	}
	return &service{
		repo:      repo,
		tx:        tx,
		outbox:    publisher,
		batchSize: batchSize,
	}, nil
}

func (s *service) RequestPayout(ctx context.Context, sellerID uuid.UUID, minimumThresholdCents int64) (*ReleaseResult, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	if minimumThresholdCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "minimum threshold must be non-negative")
	}

	result := &ReleaseResult{}
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		held, err := repo.ListBySeller(ctx, sellerID, statusPtr(enums.PayoutStatusHold))
		if err != nil {
			return err
		}

		var total int64
		ids := make([]uuid.UUID, 0, len(held))
		for _, payout := range held {
			total += int64(payout.AmountCents)
			ids = append(ids, payout.ID)
		}
		if len(ids) == 0 || total < minimumThresholdCents {
			// Below threshold is a no-op, not an error.
			return nil
		}

		now := time.Now().UTC()
		released, err := repo.ReleaseHoldBatch(ctx, ids, now)
		if err != nil {
			return err
		}
		result.ReleasedCount = int(released)
		result.TotalAmountCents = total

		for _, payout := range held {
			event := outbox.DomainEvent{
				EventType:     enums.EventPayoutReleased,
				AggregateType: enums.AggregateSellerPayout,
				AggregateID:   payout.ID,
				Version:       1,
				Data: payloads.PayoutReleasedEvent{
					PayoutID:    payout.ID,
					SellerID:    payout.SellerID,
					CheckoutID:  payout.CheckoutID,
					AmountCents: int64(payout.AmountCents),
					ReleasedAt:  now,
				},
			}
			if err := s.outbox.Emit(ctx, tx, event); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *service) ApprovePayout(ctx context.Context, id uuid.UUID) (*models.SellerPayout, error) {
	return s.move(ctx, id, enums.PayoutStatusCompleted, "")
}

func (s *service) MarkProcessing(ctx context.Context, id uuid.UUID) (*models.SellerPayout, error) {
	return s.move(ctx, id, enums.PayoutStatusProcessing, "")
}

func (s *service) RejectPayout(ctx context.Context, id uuid.UUID, reason string) (*models.SellerPayout, error) {
	if reason == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rejection reason required")
	}
	return s.move(ctx, id, enums.PayoutStatusFailed, reason)
}

func (s *service) move(ctx context.Context, id uuid.UUID, target enums.PayoutStatus, reason string) (*models.SellerPayout, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payout id required")
	}

	var updated *models.SellerPayout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		payout, err := repo.FindByID(ctx, id)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "payout not found")
			}
			return err
		}
		if err := ValidateTransition(payout.Status, target); err != nil {
			return err
		}

		now := time.Now().UTC()
		update := StatusUpdate{From: payout.Status, Status: target}
		switch target {
		case enums.PayoutStatusCompleted:
			update.CompletedAt = &now
		case enums.PayoutStatusFailed:
			update.FailureReason = &reason
		}
		affected, err := repo.UpdateStatus(ctx, id, update)
		if err != nil {
			return err
		}
		if affected == 0 {
			return pkgerrors.New(pkgerrors.CodeStateConflict, fmt.Sprintf("payout %s moved concurrently; cannot apply %s", id, target))
		}

		payout.Status = target
		if update.CompletedAt != nil {
			payout.CompletedAt = update.CompletedAt
		}
		if update.FailureReason != nil {
			payout.FailureReason = update.FailureReason
		}
		updated = payout

		return s.emitLifecycleEvent(ctx, tx, payout, now)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *service) emitLifecycleEvent(ctx context.Context, tx *gorm.DB, payout *models.SellerPayout, at time.Time) error {
	switch payout.Status {
	case enums.PayoutStatusCompleted:
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutCompleted,
			AggregateType: enums.AggregateSellerPayout,
			AggregateID:   payout.ID,
			Version:       1,
			Data: payloads.PayoutCompletedEvent{
				PayoutID:    payout.ID,
				SellerID:    payout.SellerID,
				AmountCents: int64(payout.AmountCents),
				CompletedAt: at,
			},
		})
	case enums.PayoutStatusFailed:
		var reason string
		if payout.FailureReason != nil {
			reason = *payout.FailureReason
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPayoutRejected,
			AggregateType: enums.AggregateSellerPayout,
			AggregateID:   payout.ID,
			Version:       1,
			Data: payloads.PayoutRejectedEvent{
				PayoutID:      payout.ID,
				SellerID:      payout.SellerID,
				AmountCents:   int64(payout.AmountCents),
				FailureReason: reason,
			},
		})
	}
	return nil
}

func (s *service) HasPayoutsForCheckout(ctx context.Context, checkoutID uuid.UUID) (bool, error) {
	if checkoutID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "checkout id required")
	}
	return s.repo.ExistsForCheckout(ctx, checkoutID)
}

// ProcessScheduledPayouts pages through HOLD rows in bounded batches and
// releases them to PENDING, emitting one event per row.
func (s *service) ProcessScheduledPayouts(ctx context.Context) (*ScheduledRunResult, error) {
	result := &ScheduledRunResult{}
	sellers := map[uuid.UUID]struct{}{}

	for {
		var batch []models.SellerPayout
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)

			held, err := repo.ListByStatus(ctx, enums.PayoutStatusHold, s.batchSize)
			if err != nil {
				return err
			}
			batch = held
			if len(held) == 0 {
				return nil
			}

			now := time.Now().UTC()
			ids := make([]uuid.UUID, 0, len(held))
			for _, payout := range held {
				ids = append(ids, payout.ID)
			}
			if _, err := repo.ReleaseHoldBatch(ctx, ids, now); err != nil {
				return err
			}

			for _, payout := range held {
				event := outbox.DomainEvent{
					EventType:     enums.EventPayoutReleased,
					AggregateType: enums.AggregateSellerPayout,
					AggregateID:   payout.ID,
					Version:       1,
					Data: payloads.PayoutReleasedEvent{
						PayoutID:    payout.ID,
						SellerID:    payout.SellerID,
						CheckoutID:  payout.CheckoutID,
						AmountCents: int64(payout.AmountCents),
						ReleasedAt:  now,
					},
				}
				if err := s.outbox.Emit(ctx, tx, event); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}

		for _, payout := range batch {
			result.TotalProcessed++
			result.TotalAmountCents += int64(payout.AmountCents)
			sellers[payout.SellerID] = struct{}{}
		}
		if len(batch) < s.batchSize {
			break
		}
	}

	result.SellersAffected = len(sellers)
	return result, nil
}

func (s *service) ListBySeller(ctx context.Context, sellerID uuid.UUID, status *enums.PayoutStatus) ([]models.SellerPayout, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid payout status filter")
	}
	return s.repo.ListBySeller(ctx, sellerID, status)
}

func (s *service) ListPending(ctx context.Context, limit int) ([]models.SellerPayout, error) {
	return s.repo.ListByStatus(ctx, enums.PayoutStatusPending, limit)
}

func (s *service) PendingTotal(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	if sellerID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	return s.repo.PendingTotalBySeller(ctx, sellerID)
}

func statusPtr(status enums.PayoutStatus) *enums.PayoutStatus {
	return &status
}
