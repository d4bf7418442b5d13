package payouts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercaline/marketsplit-backend/pkg/db/models"
	"github.com/mercaline/marketsplit-backend/pkg/enums"
)

// Repository manages persistence for seller payout rows.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, payout *models.SellerPayout) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.SellerPayout, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, status *enums.PayoutStatus) ([]models.SellerPayout, error)
	ListByStatus(ctx context.Context, status enums.PayoutStatus, limit int) ([]models.SellerPayout, error)
	ExistsForCheckout(ctx context.Context, checkoutID uuid.UUID) (bool, error)
	HoldTotalBySeller(ctx context.Context, sellerID uuid.UUID) (int64, error)
	PendingTotalBySeller(ctx context.Context, sellerID uuid.UUID) (int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, update StatusUpdate) (int64, error)
	ReleaseHoldBatch(ctx context.Context, ids []uuid.UUID, releasedAt time.Time) (int64, error)
}

// StatusUpdate captures the mutable fields a lifecycle move may touch. From is
// the status the row must still hold for the update to apply, so a concurrent
// move that already won leaves zero rows affected.
type StatusUpdate struct {
	From          enums.PayoutStatus
	Status        enums.PayoutStatus
	ReleasedAt    *time.Time
	CompletedAt   *time.Time
	FailureReason *string
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns a payout repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, payout *models.SellerPayout) error {
	return r.db.WithContext(ctx).Create(payout).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.SellerPayout, error) {
	var payout models.SellerPayout
	if err := r.db.WithContext(ctx).First(&payout, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &payout, nil
}

func (r *repository) ListBySeller(ctx context.Context, sellerID uuid.UUID, status *enums.PayoutStatus) ([]models.SellerPayout, error) {
	query := r.db.WithContext(ctx).Where("seller_id = ?", sellerID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}
	var rows []models.SellerPayout
	err := query.
		Order("created_at DESC").
		Order("id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repository) ListByStatus(ctx context.Context, status enums.PayoutStatus, limit int) ([]models.SellerPayout, error) {
	query := r.db.WithContext(ctx).Where("status = ?", status).
		Order("created_at ASC").
		Order("id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var rows []models.SellerPayout
	err := query.Find(&rows).Error
	return rows, err
}

func (r *repository) ExistsForCheckout(ctx context.Context, checkoutID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SellerPayout{}).
		Where("checkout_id = ?", checkoutID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) HoldTotalBySeller(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	return r.sumByStatus(ctx, sellerID, enums.PayoutStatusHold)
}

func (r *repository) PendingTotalBySeller(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	return r.sumByStatus(ctx, sellerID, enums.PayoutStatusPending)
}

func (r *repository) sumByStatus(ctx context.Context, sellerID uuid.UUID, status enums.PayoutStatus) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&models.SellerPayout{}).
		Where("seller_id = ? AND status = ?", sellerID, status).
		Select("COALESCE(SUM(amount_cents),0)").
		Scan(&total).Error
	return total, err
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, update StatusUpdate) (int64, error) {
	fields := map[string]any{"status": update.Status}
	if update.ReleasedAt != nil {
		fields["released_at"] = *update.ReleasedAt
	}
	if update.CompletedAt != nil {
		fields["completed_at"] = *update.CompletedAt
	}
	if update.FailureReason != nil {
		fields["failure_reason"] = *update.FailureReason
	}
	result := r.db.WithContext(ctx).
		Model(&models.SellerPayout{}).
		Where("id = ? AND status = ?", id, update.From).
		Updates(fields)
	return result.RowsAffected, result.Error
}

// ReleaseHoldBatch flips the given rows to PENDING, guarding on HOLD so a
// concurrent release cannot double-apply.
func (r *repository) ReleaseHoldBatch(ctx context.Context, ids []uuid.UUID, releasedAt time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).
		Model(&models.SellerPayout{}).
		Where("id IN ? AND status = ?", ids, enums.PayoutStatusHold).
		Updates(map[string]any{
			"status":      enums.PayoutStatusPending,
			"released_at": releasedAt,
		})
	return result.RowsAffected, result.Error
}
