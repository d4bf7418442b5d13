package commission

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercaline/marketsplit-backend/pkg/db/models"
	"github.com/mercaline/marketsplit-backend/pkg/enums"
	pkgerrors "github.com/mercaline/marketsplit-backend/pkg/errors"
	"github.com/mercaline/marketsplit-backend/pkg/pagination"
)

// Service exposes the commission history ledger.
type Service interface {
	CreateRecord(ctx context.Context, input CreateRecordInput) (*models.CommissionRecord, error)
	List(ctx context.Context, sellerID uuid.UUID, filter ListFilter, page pagination.OffsetParams) (*ListResult, error)
	Summary(ctx context.Context, sellerID uuid.UUID, from, to *time.Time) (*SummaryResult, error)
	MarkPaid(ctx context.Context, id uuid.UUID) error
	MarkRefunded(ctx context.Context, id uuid.UUID) error
}

// CreateRecordInput captures the immutable data a ledger row requires.
type CreateRecordInput struct {
	CheckoutID        uuid.UUID
	SellerID          uuid.UUID
	CommissionRate    float64
	OrderTotalCents   int
	CommissionCents   int
	SellerPayoutCents int
}

// ListResult is one ledger page with the unpaged total.
type ListResult struct {
	Items      []models.CommissionRecord
	TotalItems int64
}

// SummaryResult aggregates a seller's ledger. CommissionsByStatus always
// carries every commission status, including zero counts.
type SummaryResult struct {
	TotalOrderCents      int64
	TotalCommissionCents int64
	TotalPayoutCents     int64
	DistinctOrders       int64
	CommissionsByStatus  map[enums.CommissionStatus]int64
}

type service struct {
	repo Repository
}

// NewService wires the ledger service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("commission repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateRecord(ctx context.Context, input CreateRecordInput) (*models.CommissionRecord, error) {
	if input.CheckoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout id required")
	}
	if input.SellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	if input.CommissionRate < 0 || input.CommissionRate > 1 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "commission rate must be within [0,1]")
	}
	if input.OrderTotalCents < 0 || input.CommissionCents < 0 || input.SellerPayoutCents < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amounts must be non-negative")
	}
	if input.CommissionCents+input.SellerPayoutCents != input.OrderTotalCents {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "commission and payout must sum to order total")
	}

	record := &models.CommissionRecord{
		CheckoutID:        input.CheckoutID,
		SellerID:          input.SellerID,
		CommissionRate:    input.CommissionRate,
		OrderTotalCents:   input.OrderTotalCents,
		CommissionCents:   input.CommissionCents,
		SellerPayoutCents: input.SellerPayoutCents,
		Status:            enums.CommissionStatusCalculated,
	}
	if err := s.repo.Create(ctx, record); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *service) List(ctx context.Context, sellerID uuid.UUID, filter ListFilter, page pagination.OffsetParams) (*ListResult, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}
	if filter.Status != nil && !filter.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid commission status filter")
	}

	items, total, err := s.repo.List(ctx, sellerID, filter, page)
	if err != nil {
		return nil, err
	}
	return &ListResult{Items: items, TotalItems: total}, nil
}

func (s *service) Summary(ctx context.Context, sellerID uuid.UUID, from, to *time.Time) (*SummaryResult, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}

	row, err := s.repo.Summarize(ctx, sellerID, from, to)
	if err != nil {
		return nil, err
	}
	return &SummaryResult{
		TotalOrderCents:      row.TotalOrderCents,
		TotalCommissionCents: row.TotalCommissionCents,
		TotalPayoutCents:     row.TotalPayoutCents,
		DistinctOrders:       row.DistinctOrders,
		CommissionsByStatus:  row.CountByStatus,
	}, nil
}

func (s *service) MarkPaid(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, enums.CommissionStatusPaid)
}

func (s *service) MarkRefunded(ctx context.Context, id uuid.UUID) error {
	return s.transition(ctx, id, enums.CommissionStatusRefunded)
}

// transition enforces the ledger's one-way status flow: a calculated row
// may become paid or refunded, nothing else moves.
func (s *service) transition(ctx context.Context, id uuid.UUID, target enums.CommissionStatus) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "record id required")
	}

	record, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return pkgerrors.New(pkgerrors.CodeNotFound, "commission record not found")
		}
		return err
	}
	if record.Status != enums.CommissionStatusCalculated {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("cannot move commission record from %s to %s", record.Status, target))
	}
	affected, err := s.repo.UpdateStatus(ctx, id, target)
	if err != nil {
		return err
	}
	if affected == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict,
			fmt.Sprintf("commission record %s moved concurrently; cannot apply %s", id, target))
	}
	return nil
}
