package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mercaline/marketsplit-backend/pkg/db/models"
	"github.com/mercaline/marketsplit-backend/pkg/enums"
	"github.com/mercaline/marketsplit-backend/pkg/pagination"
)

func setupOrdersTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	schema := `
CREATE TABLE IF NOT EXISTS checkouts (
  id TEXT PRIMARY KEY,
  buyer_ref TEXT NOT NULL,
  currency TEXT NOT NULL DEFAULT 'USD',
  payment_status TEXT NOT NULL DEFAULT 'unpaid',
  total_cents INTEGER NOT NULL,
  settled_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS seller_orders (
  id TEXT PRIMARY KEY,
  checkout_id TEXT NOT NULL,
  seller_id TEXT NOT NULL,
  subtotal_cents INTEGER NOT NULL,
  status TEXT NOT NULL DEFAULT 'created',
  created_at DATETIME,
  updated_at DATETIME
);
CREATE TABLE IF NOT EXISTS order_lines (
  id TEXT PRIMARY KEY,
  checkout_id TEXT NOT NULL,
  seller_id TEXT,
  seller_order_id TEXT,
  name TEXT NOT NULL,
  unit_price_cents INTEGER NOT NULL,
  qty INTEGER NOT NULL,
  total_cents INTEGER NOT NULL,
  created_at DATETIME
);`
	require.NoError(t, db.Exec(schema).Error)
	return db
}

func insertSellerOrder(t *testing.T, db *gorm.DB, sellerID uuid.UUID, subtotal int, created time.Time) *models.SellerOrder {
	t.Helper()

	order := &models.SellerOrder{
		ID:            uuid.New(),
		CheckoutID:    uuid.New(),
		SellerID:      sellerID,
		SubtotalCents: subtotal,
		Status:        enums.SellerOrderStatusCreated,
		CreatedAt:     created,
		UpdatedAt:     created,
	}
	require.NoError(t, db.Create(order).Error)
	return order
}

func TestOrdersRepositoryCreateAndFindCheckout(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	sellerID := uuid.New()
	checkout := &models.Checkout{
		ID:            uuid.New(),
		BuyerRef:      "buyer-7",
		Currency:      enums.CurrencyUSD,
		PaymentStatus: enums.PaymentStatusUnpaid,
		TotalCents:    3000,
	}
	require.NoError(t, repo.CreateCheckout(ctx, checkout))

	order := models.SellerOrder{
		ID:            uuid.New(),
		CheckoutID:    checkout.ID,
		SellerID:      sellerID,
		SubtotalCents: 3000,
		Status:        enums.SellerOrderStatusCreated,
	}
	require.NoError(t, repo.CreateSellerOrders(ctx, []models.SellerOrder{order}))

	line := models.OrderLine{
		ID:             uuid.New(),
		CheckoutID:     checkout.ID,
		SellerID:       &sellerID,
		SellerOrderID:  &order.ID,
		Name:           "widget",
		UnitPriceCents: 3000,
		Qty:            1,
		TotalCents:     3000,
	}
	require.NoError(t, repo.CreateOrderLines(ctx, []models.OrderLine{line}))

	found, err := repo.FindCheckoutByID(ctx, checkout.ID)
	require.NoError(t, err)
	assert.Equal(t, "buyer-7", found.BuyerRef)
	require.Len(t, found.Lines, 1)
	require.Len(t, found.SellerOrders, 1)
	assert.Equal(t, order.ID, found.SellerOrders[0].ID)
}

func TestOrdersRepositoryMarkSettled(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	checkout := &models.Checkout{
		ID:            uuid.New(),
		BuyerRef:      "buyer-8",
		PaymentStatus: enums.PaymentStatusUnpaid,
		TotalCents:    100,
	}
	require.NoError(t, repo.CreateCheckout(ctx, checkout))

	settledAt := time.Date(2025, 6, 5, 10, 0, 0, 0, time.UTC)
	require.NoError(t, repo.MarkSettled(ctx, checkout.ID, settledAt))

	found, err := repo.FindCheckoutByID(ctx, checkout.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.PaymentStatusSettled, found.PaymentStatus)
	require.NotNil(t, found.SettledAt)
	assert.Equal(t, settledAt.Unix(), found.SettledAt.Unix())
}

func TestOrdersRepositoryListSellerOrdersCursor(t *testing.T) {
	db := setupOrdersTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	sellerID := uuid.New()
	base := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	oldest := insertSellerOrder(t, db, sellerID, 100, base)
	middle := insertSellerOrder(t, db, sellerID, 200, base.Add(time.Hour))
	newest := insertSellerOrder(t, db, sellerID, 300, base.Add(2*time.Hour))
	insertSellerOrder(t, db, uuid.New(), 999, base)

	first, err := repo.ListSellerOrders(ctx, sellerID, 2, nil)
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, newest.ID, first[0].ID)
	assert.Equal(t, middle.ID, first[1].ID)

	cursor := &pagination.Cursor{CreatedAt: middle.CreatedAt, ID: middle.ID}
	second, err := repo.ListSellerOrders(ctx, sellerID, 2, cursor)
	require.NoError(t, err)
	require.Len(t, second, 1)
	assert.Equal(t, oldest.ID, second[0].ID)
}
