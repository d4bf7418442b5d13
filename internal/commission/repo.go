package commission

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercaline/marketsplit-backend/pkg/db/models"
	"github.com/mercaline/marketsplit-backend/pkg/enums"
	"github.com/mercaline/marketsplit-backend/pkg/pagination"
)

// ListFilter narrows a seller's ledger listing. Filters combine
// conjunctively; nil fields are ignored.
type ListFilter struct {
	CheckoutID *uuid.UUID
	Status     *enums.CommissionStatus
	From       *time.Time
	To         *time.Time
}

// SummaryRow aggregates a seller's ledger over an optional date range.
type SummaryRow struct {
	TotalOrderCents      int64
	TotalCommissionCents int64
	TotalPayoutCents     int64
	DistinctOrders       int64
	CountByStatus        map[enums.CommissionStatus]int64
}

// Repository manages persistence for commission ledger rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, record *models.CommissionRecord) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.CommissionRecord, error)
	List(ctx context.Context, sellerID uuid.UUID, filter ListFilter, page pagination.OffsetParams) ([]models.CommissionRecord, int64, error)
	Summarize(ctx context.Context, sellerID uuid.UUID, from, to *time.Time) (*SummaryRow, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CommissionStatus) (int64, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a ledger repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, record *models.CommissionRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CommissionRecord, error) {
	var record models.CommissionRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *repository) List(ctx context.Context, sellerID uuid.UUID, filter ListFilter, page pagination.OffsetParams) ([]models.CommissionRecord, int64, error) {
	page = page.Normalize()

	var total int64
	if err := r.filtered(ctx, sellerID, filter).
		Model(&models.CommissionRecord{}).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.CommissionRecord
	err := r.filtered(ctx, sellerID, filter).
		Order("created_at DESC").
		Order("id DESC").
		Offset(page.Skip).
		Limit(page.Take).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repository) Summarize(ctx context.Context, sellerID uuid.UUID, from, to *time.Time) (*SummaryRow, error) {
	query := r.filtered(ctx, sellerID, ListFilter{From: from, To: to})

	var totals struct {
		TotalOrderCents      int64
		TotalCommissionCents int64
		TotalPayoutCents     int64
		DistinctOrders       int64
	}
	err := query.Model(&models.CommissionRecord{}).
		Select(`COALESCE(SUM(order_total_cents),0) AS total_order_cents,
			COALESCE(SUM(commission_cents),0) AS total_commission_cents,
			COALESCE(SUM(seller_payout_cents),0) AS total_payout_cents,
			COUNT(DISTINCT checkout_id) AS distinct_orders`).
		Scan(&totals).Error
	if err != nil {
		return nil, err
	}

	type statusCount struct {
		Status enums.CommissionStatus
		Count  int64
	}
	var counts []statusCount
	err = r.filtered(ctx, sellerID, ListFilter{From: from, To: to}).
		Model(&models.CommissionRecord{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&counts).Error
	if err != nil {
		return nil, err
	}

	byStatus := make(map[enums.CommissionStatus]int64, len(enums.AllCommissionStatuses()))
	for _, status := range enums.AllCommissionStatuses() {
		byStatus[status] = 0
	}
	for _, c := range counts {
		byStatus[c.Status] = c.Count
	}

	return &SummaryRow{
		TotalOrderCents:      totals.TotalOrderCents,
		TotalCommissionCents: totals.TotalCommissionCents,
		TotalPayoutCents:     totals.TotalPayoutCents,
		DistinctOrders:       totals.DistinctOrders,
		CountByStatus:        byStatus,
	}, nil
}

// UpdateStatus moves a record out of CALCULATED. Rows already settled keep
// their status; callers read the affected count to detect a lost race.
func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CommissionStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.CommissionRecord{}).
		Where("id = ? AND status = ?", id, enums.CommissionStatusCalculated).
		Update("status", status)
	return result.RowsAffected, result.Error
}

func (r *repository) filtered(ctx context.Context, sellerID uuid.UUID, filter ListFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Where("seller_id = ?", sellerID)
	if filter.CheckoutID != nil {
		query = query.Where("checkout_id = ?", *filter.CheckoutID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at <= ?", *filter.To)
	}
	return query
}
