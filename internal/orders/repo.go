package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercaline/marketsplit-backend/pkg/db/models"
	"github.com/mercaline/marketsplit-backend/pkg/enums"
	"github.com/mercaline/marketsplit-backend/pkg/pagination"
)

// Repository manages persistence for checkouts and their seller orders.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateCheckout(ctx context.Context, checkout *models.Checkout) error
	CreateSellerOrders(ctx context.Context, orders []models.SellerOrder) error
	CreateOrderLines(ctx context.Context, lines []models.OrderLine) error
	FindCheckoutByID(ctx context.Context, id uuid.UUID) (*models.Checkout, error)
	MarkSettled(ctx context.Context, id uuid.UUID, settledAt time.Time) error
	ListSellerOrders(ctx context.Context, sellerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.SellerOrder, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds an orders repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateCheckout(ctx context.Context, checkout *models.Checkout) error {
	return r.db.WithContext(ctx).
		Omit("Lines", "SellerOrders").
		Create(checkout).Error
}

func (r *repository) CreateSellerOrders(ctx context.Context, orders []models.SellerOrder) error {
	if len(orders) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Omit("Lines").
		Create(&orders).Error
}

func (r *repository) CreateOrderLines(ctx context.Context, lines []models.OrderLine) error {
	if len(lines) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&lines).Error
}

func (r *repository) FindCheckoutByID(ctx context.Context, id uuid.UUID) (*models.Checkout, error) {
	var checkout models.Checkout
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("SellerOrders").
		First(&checkout, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &checkout, nil
}

func (r *repository) MarkSettled(ctx context.Context, id uuid.UUID, settledAt time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Checkout{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"payment_status": enums.PaymentStatusSettled,
			"settled_at":     settledAt,
		}).Error
}

func (r *repository) ListSellerOrders(ctx context.Context, sellerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.SellerOrder, error) {
	query := r.db.WithContext(ctx).
		Preload("Lines").
		Where("seller_id = ?", sellerID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit)

	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var orders []models.SellerOrder
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}
