package settlement

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercaline/marketsplit-backend/internal/commission"
	"github.com/mercaline/marketsplit-backend/internal/payouts"
	"github.com/mercaline/marketsplit-backend/pkg/db"
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

// Service turns a settled checkout into per-seller escrow and ledger rows.
type Service interface {
	ProcessOrderPayment(ctx context.Context, checkoutID uuid.UUID) (*SplitResult, error)
}

// SellerSplit is one seller's computed share of a checkout.
type SellerSplit struct {
	SellerID          uuid.UUID
	SellerOrderID     uuid.UUID
	OrderTotalCents   int
	CommissionCents   int
	SellerPayoutCents int
	CommissionRate    float64
}

// SplitResult reports the splits one settlement produced.
type SplitResult struct {
	CheckoutID uuid.UUID
	Splits     []SellerSplit
}

type service struct {
	repo        Repository
	payouts     payouts.Repository
	commissions commission.Repository
	tx          txRunner
	outbox      outboxPublisher
	defaultRate float64
}

// NewService wires the settlement pipeline with its dependencies.
func NewService(repo Repository, payoutRepo payouts.Repository, commissionRepo commission.Repository, tx txRunner, publisher outboxPublisher, defaultRate float64) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("settlement repository required")
	}
	if payoutRepo == nil {
		return nil, fmt.Errorf("payout repository required")
	}
	if commissionRepo == nil {
		return nil, fmt.Errorf("commission repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if defaultRate < 0 || defaultRate > 1 {
		return nil, fmt.Errorf("default commission rate must be between 0 and 1")
	}
	return &service{
		repo:        repo,
		payouts:     payoutRepo,
		commissions: commissionRepo,
		tx:          tx,
		outbox:      publisher,
		defaultRate: defaultRate,
	}, nil
}

type sellerGroup struct {
	sellerOrderID uuid.UUID
	subtotalCents int
}

// ProcessOrderPayment computes one split per seller with lines on the
// checkout and writes the HOLD payout plus ledger row for each. A repeat
// call for the same checkout returns nil without touching anything; the
// unique (checkout_id, seller_id) payout index backstops concurrent runs.
func (s *service) ProcessOrderPayment(ctx context.Context, checkoutID uuid.UUID) (*SplitResult, error) {
	if checkoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout id required")
	}

	var result *SplitResult
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		payoutRepo := s.payouts.WithTx(tx)
		commissionRepo := s.commissions.WithTx(tx)

		exists, err := payoutRepo.ExistsForCheckout(ctx, checkoutID)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}

		checkout, err := repo.FindCheckoutWithLines(ctx, checkoutID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "checkout not found")
			}
			return err
		}
		if checkout.PaymentStatus != enums.PaymentStatusSettled {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "checkout payment has not settled")
		}

		groups := groupLinesBySeller(checkout.Lines)
		if len(groups) == 0 {
			return nil
		}

		sellerIDs := make([]uuid.UUID, 0, len(groups))
		for sellerID := range groups {
			sellerIDs = append(sellerIDs, sellerID)
		}
		sort.Slice(sellerIDs, func(i, j int) bool {
			return sellerIDs[i].String() < sellerIDs[j].String()
		})

		splits := make([]SellerSplit, 0, len(sellerIDs))
		for _, sellerID := range sellerIDs {
			group := groups[sellerID]

			seller, err := repo.FindSeller(ctx, sellerID)
			if err != nil {
				if err == gorm.ErrRecordNotFound {
					return pkgerrors.New(pkgerrors.CodeNotFound, "seller not found for checkout line")
				}
				return err
			}

			rate := commission.ResolveRate(seller.CommissionRate, s.defaultRate)
			split, err := commission.ComputeSplit(group.subtotalCents, rate)
			if err != nil {
				return err
			}

			payout := &models.SellerPayout{
				SellerID:        sellerID,
				CheckoutID:      checkoutID,
				AmountCents:     split.SellerPayoutCents,
				CommissionCents: split.CommissionCents,
				Status:          enums.PayoutStatusHold,
			}
			if err := payoutRepo.Create(ctx, payout); err != nil {
				if db.IsUniqueViolation(err, "ux_seller_payouts_checkout_seller") {
					// A concurrent settlement won the race; yield to it.
					return errSplitAlreadyRecorded
				}
				return err
			}

			record := &models.CommissionRecord{
				CheckoutID:        checkoutID,
				SellerID:          sellerID,
				CommissionRate:    rate,
				OrderTotalCents:   split.OrderTotalCents,
				CommissionCents:   split.CommissionCents,
				SellerPayoutCents: split.SellerPayoutCents,
				Status:            enums.CommissionStatusCalculated,
			}
			if err := commissionRepo.Create(ctx, record); err != nil {
				return err
			}

			if err := s.emitSplitEvents(ctx, tx, checkout.ID, sellerID, group.sellerOrderID, record, split); err != nil {
				return err
			}

			splits = append(splits, SellerSplit{
				SellerID:          sellerID,
				SellerOrderID:     group.sellerOrderID,
				OrderTotalCents:   split.OrderTotalCents,
				CommissionCents:   split.CommissionCents,
				SellerPayoutCents: split.SellerPayoutCents,
				CommissionRate:    rate,
			})
		}

		result = &SplitResult{CheckoutID: checkoutID, Splits: splits}
		return nil
	})
	if err == errSplitAlreadyRecorded {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

var errSplitAlreadyRecorded = fmt.Errorf("split already recorded")

func (s *service) emitSplitEvents(ctx context.Context, tx *gorm.DB, checkoutID, sellerID, sellerOrderID uuid.UUID, record *models.CommissionRecord, split commission.Split) error {
	err := s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventOrderSplitProcessed,
		AggregateType: enums.AggregateSellerOrder,
		AggregateID:   sellerOrderID,
		Version:       1,
		Data: payloads.OrderSplitProcessedEvent{
			CheckoutID:        checkoutID,
			SellerID:          sellerID,
			SellerOrderID:     sellerOrderID,
			OrderTotalCents:   int64(split.OrderTotalCents),
			CommissionCents:   int64(split.CommissionCents),
			SellerPayoutCents: int64(split.SellerPayoutCents),
			CommissionRate:    split.Rate,
		},
	})
	if err != nil {
		return err
	}
	return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventCommissionRecorded,
		AggregateType: enums.AggregateCommission,
		AggregateID:   record.ID,
		Version:       1,
		Data: payloads.CommissionRecordedEvent{
			RecordID:        record.ID,
			SellerID:        sellerID,
			SellerOrderID:   sellerOrderID,
			CommissionCents: int64(split.CommissionCents),
			CommissionRate:  split.Rate,
			Status:          record.Status,
		},
	})
}

// groupLinesBySeller sums line totals per seller; lines with no seller are
// platform-owned and never split.
func groupLinesBySeller(lines []models.OrderLine) map[uuid.UUID]sellerGroup {
	groups := map[uuid.UUID]sellerGroup{}
	for _, line := range lines {
		if line.SellerID == nil || *line.SellerID == uuid.Nil {
			continue
		}
		group := groups[*line.SellerID]
		group.subtotalCents += line.TotalCents
		if line.SellerOrderID != nil {
			group.sellerOrderID = *line.SellerOrderID
		}
		groups[*line.SellerID] = group
	}
	return groups
}
