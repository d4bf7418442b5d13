package orders

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercaline/marketsplit-backend/pkg/db/models"
	"github.com/mercaline/marketsplit-backend/pkg/enums"
	pkgerrors "github.com/mercaline/marketsplit-backend/pkg/errors"
	"github.com/mercaline/marketsplit-backend/pkg/outbox"
	"github.com/mercaline/marketsplit-backend/pkg/outbox/payloads"
	"github.com/mercaline/marketsplit-backend/pkg/pagination"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
	EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service splits incoming checkouts across sellers and settles payments.
type Service interface {
	Place(ctx context.Context, input PlaceCheckoutInput) (*models.Checkout, error)
	SettlePayment(ctx context.Context, checkoutID uuid.UUID) (*models.Checkout, error)
	GetCheckout(ctx context.Context, id uuid.UUID) (*models.Checkout, error)
	ListSellerOrders(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*SellerOrderList, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService wires the orders service with its dependencies.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: publisher}, nil
}

// Place records a checkout and fans its lines out into one seller order
// per distinct seller. Lines without a seller stay on the checkout only.
func (s *service) Place(ctx context.Context, input PlaceCheckoutInput) (*models.Checkout, error) {
	if err := validatePlaceInput(input); err != nil {
		return nil, err
	}

	currency := input.Currency
	if currency == "" {
		currency = enums.CurrencyUSD
	}

	checkout := &models.Checkout{
		ID:            uuid.New(),
		BuyerRef:      input.BuyerRef,
		Currency:      currency,
		PaymentStatus: enums.PaymentStatusUnpaid,
	}

	lines := make([]models.OrderLine, 0, len(input.Lines))
	subtotals := map[uuid.UUID]int{}
	for _, in := range input.Lines {
		total := in.UnitPriceCents * in.Qty
		checkout.TotalCents += total
		line := models.OrderLine{
			ID:             uuid.New(),
			CheckoutID:     checkout.ID,
			SellerID:       in.SellerID,
			Name:           in.Name,
			UnitPriceCents: in.UnitPriceCents,
			Qty:            in.Qty,
			TotalCents:     total,
		}
		if in.SellerID != nil {
			subtotals[*in.SellerID] += total
		}
		lines = append(lines, line)
	}

	sellerIDs := make([]uuid.UUID, 0, len(subtotals))
	for sellerID := range subtotals {
		sellerIDs = append(sellerIDs, sellerID)
	}
	sort.Slice(sellerIDs, func(i, j int) bool {
		return sellerIDs[i].String() < sellerIDs[j].String()
	})

	sellerOrders := make([]models.SellerOrder, 0, len(sellerIDs))
	orderBySeller := map[uuid.UUID]uuid.UUID{}
	for _, sellerID := range sellerIDs {
		order := models.SellerOrder{
			ID:            uuid.New(),
			CheckoutID:    checkout.ID,
			SellerID:      sellerID,
			SubtotalCents: subtotals[sellerID],
			Status:        enums.SellerOrderStatusCreated,
		}
		orderBySeller[sellerID] = order.ID
		sellerOrders = append(sellerOrders, order)
	}
	for i := range lines {
		if lines[i].SellerID == nil {
			continue
		}
		orderID := orderBySeller[*lines[i].SellerID]
		lines[i].SellerOrderID = &orderID
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.CreateCheckout(ctx, checkout); err != nil {
			return err
		}
		if err := repo.CreateSellerOrders(ctx, sellerOrders); err != nil {
			return err
		}
		if err := repo.CreateOrderLines(ctx, lines); err != nil {
			return err
		}

		orderIDs := make([]uuid.UUID, 0, len(sellerOrders))
		for _, order := range sellerOrders {
			orderIDs = append(orderIDs, order.ID)
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPlaced,
			AggregateType: enums.AggregateCheckout,
			AggregateID:   checkout.ID,
			Version:       1,
			Data: payloads.OrderPlacedEvent{
				CheckoutID:     checkout.ID,
				BuyerRef:       checkout.BuyerRef,
				SellerOrderIDs: orderIDs,
				TotalCents:     int64(checkout.TotalCents),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	checkout.Lines = lines
	checkout.SellerOrders = sellerOrders
	return checkout, nil
}

// SettlePayment marks the checkout paid and emits the settlement event in
// the same transaction. A checkout that already settled is returned as-is;
// the per-aggregate outbox guard keeps the event single-shot either way.
func (s *service) SettlePayment(ctx context.Context, checkoutID uuid.UUID) (*models.Checkout, error) {
	if checkoutID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout id required")
	}

	var settled *models.Checkout
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		checkout, err := repo.FindCheckoutByID(ctx, checkoutID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "checkout not found")
			}
			return err
		}

		switch checkout.PaymentStatus {
		case enums.PaymentStatusSettled:
			settled = checkout
			return nil
		case enums.PaymentStatusRefunded:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "refunded checkout cannot settle")
		}

		now := time.Now().UTC()
		if err := repo.MarkSettled(ctx, checkoutID, now); err != nil {
			return err
		}
		checkout.PaymentStatus = enums.PaymentStatusSettled
		checkout.SettledAt = &now
		settled = checkout

		return s.outbox.EmitIfNotExists(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaymentSettled,
			AggregateType: enums.AggregateCheckout,
			AggregateID:   checkout.ID,
			Version:       1,
			Data: payloads.OrderPaymentSettledEvent{
				CheckoutID: checkout.ID,
				TotalCents: int64(checkout.TotalCents),
				SettledAt:  now,
			},
		})
	})
	if err != nil {
		return nil, err
	}
	return settled, nil
}

func (s *service) GetCheckout(ctx context.Context, id uuid.UUID) (*models.Checkout, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout id required")
	}
	checkout, err := s.repo.FindCheckoutByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "checkout not found")
		}
		return nil, err
	}
	return checkout, nil
}

func (s *service) ListSellerOrders(ctx context.Context, sellerID uuid.UUID, params pagination.Params) (*SellerOrderList, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id required")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	rows, err := s.repo.ListSellerOrders(ctx, sellerID, limit+1, cursor)
	if err != nil {
		return nil, err
	}

	list := &SellerOrderList{Orders: make([]SellerOrderSummary, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for _, row := range rows {
		list.Orders = append(list.Orders, SellerOrderSummary{
			ID:            row.ID,
			CheckoutID:    row.CheckoutID,
			SubtotalCents: row.SubtotalCents,
			Status:        row.Status,
			LineCount:     len(row.Lines),
			CreatedAt:     row.CreatedAt,
		})
	}
	if hasMore && len(rows) > 0 {
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return list, nil
}

func validatePlaceInput(input PlaceCheckoutInput) error {
	if input.BuyerRef == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "buyer reference required")
	}
	if input.Currency != "" && !input.Currency.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unsupported currency")
	}
	if len(input.Lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "at least one line required")
	}
	for i, line := range input.Lines {
		if line.Name == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d missing name", i))
		}
		if line.Qty <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d qty must be positive", i))
		}
		if line.UnitPriceCents < 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d unit price must be non-negative", i))
		}
		if line.SellerID != nil && *line.SellerID == uuid.Nil {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d seller id invalid", i))
		}
	}
	return nil
}
