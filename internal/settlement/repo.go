package settlement

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercaline/marketsplit-backend/pkg/db/models"
)

// Repository reads the checkout and seller rows a split needs.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindCheckoutWithLines(ctx context.Context, id uuid.UUID) (*models.Checkout, error)
	FindSeller(ctx context.Context, id uuid.UUID) (*models.Seller, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindCheckoutWithLines(ctx context.Context, id uuid.UUID) (*models.Checkout, error) {
	var checkout models.Checkout
	err := r.db.WithContext(ctx).
		Preload("Lines").
		First(&checkout, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &checkout, nil
}

func (r *repository) FindSeller(ctx context.Context, id uuid.UUID) (*models.Seller, error) {
	var seller models.Seller
	err := r.db.WithContext(ctx).First(&seller, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &seller, nil
}
