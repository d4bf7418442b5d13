package orders

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercaline/marketsplit-backend/pkg/db/models"
	"github.com/mercaline/marketsplit-backend/pkg/enums"
	pkgerrors "github.com/mercaline/marketsplit-backend/pkg/errors"
	"github.com/mercaline/marketsplit-backend/pkg/outbox"
	"github.com/mercaline/marketsplit-backend/pkg/pagination"
)

type fakeOrdersRepo struct {
	checkouts    map[uuid.UUID]*models.Checkout
	sellerOrders []models.SellerOrder
	lines        []models.OrderLine
}

func newFakeOrdersRepo() *fakeOrdersRepo {
	return &fakeOrdersRepo{checkouts: map[uuid.UUID]*models.Checkout{}}
}

func (f *fakeOrdersRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakeOrdersRepo) CreateCheckout(ctx context.Context, checkout *models.Checkout) error {
	f.checkouts[checkout.ID] = checkout
	return nil
}

func (f *fakeOrdersRepo) CreateSellerOrders(ctx context.Context, orders []models.SellerOrder) error {
	f.sellerOrders = append(f.sellerOrders, orders...)
	return nil
}

func (f *fakeOrdersRepo) CreateOrderLines(ctx context.Context, lines []models.OrderLine) error {
	f.lines = append(f.lines, lines...)
	return nil
}

func (f *fakeOrdersRepo) FindCheckoutByID(ctx context.Context, id uuid.UUID) (*models.Checkout, error) {
	checkout, ok := f.checkouts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *checkout
	return &clone, nil
}

func (f *fakeOrdersRepo) MarkSettled(ctx context.Context, id uuid.UUID, settledAt time.Time) error {
	checkout, ok := f.checkouts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	at := settledAt
	checkout.PaymentStatus = enums.PaymentStatusSettled
	checkout.SettledAt = &at
	return nil
}

func (f *fakeOrdersRepo) ListSellerOrders(ctx context.Context, sellerID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.SellerOrder, error) {
	var out []models.SellerOrder
	for _, order := range f.sellerOrders {
		if order.SellerID != sellerID {
			continue
		}
		out = append(out, order)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

type fakeOrdersTx struct{}

func (fakeOrdersTx) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type emittedEvent struct {
	eventType enums.OutboxEventType
	guarded   bool
}

type fakeOrdersEmitter struct {
	events []emittedEvent
}

func (f *fakeOrdersEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, emittedEvent{eventType: event.EventType})
	return nil
}

func (f *fakeOrdersEmitter) EmitIfNotExists(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, emittedEvent{eventType: event.EventType, guarded: true})
	return nil
}

func newOrdersService(t *testing.T, repo *fakeOrdersRepo, emitter *fakeOrdersEmitter) Service {
	t.Helper()
	svc, err := NewService(repo, fakeOrdersTx{}, emitter)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func TestPlaceSplitsLinesPerSeller(t *testing.T) {
	repo := newFakeOrdersRepo()
	emitter := &fakeOrdersEmitter{}
	svc := newOrdersService(t, repo, emitter)

	sellerA := uuid.New()
	sellerB := uuid.New()

	checkout, err := svc.Place(context.Background(), PlaceCheckoutInput{
		BuyerRef: "buyer-42",
		Lines: []LineInput{
			{SellerID: &sellerA, Name: "widget", UnitPriceCents: 1500, Qty: 2},
			{SellerID: &sellerA, Name: "gadget", UnitPriceCents: 500, Qty: 1},
			{SellerID: &sellerB, Name: "gizmo", UnitPriceCents: 2500, Qty: 1},
			{Name: "platform fee", UnitPriceCents: 99, Qty: 1},
		},
	})
	if err != nil {
		t.Fatalf("Place: %v", err)
	}

	if checkout.TotalCents != 6099 {
		t.Fatalf("expected total 6099, got %d", checkout.TotalCents)
	}
	if checkout.Currency != enums.CurrencyUSD {
		t.Fatalf("expected USD default, got %s", checkout.Currency)
	}
	if len(checkout.SellerOrders) != 2 {
		t.Fatalf("expected 2 seller orders, got %d", len(checkout.SellerOrders))
	}

	subtotals := map[uuid.UUID]int{}
	for _, order := range checkout.SellerOrders {
		if order.Status != enums.SellerOrderStatusCreated {
			t.Fatalf("seller order must start created, got %s", order.Status)
		}
		subtotals[order.SellerID] = order.SubtotalCents
	}
	if subtotals[sellerA] != 3500 || subtotals[sellerB] != 2500 {
		t.Fatalf("unexpected subtotals: %+v", subtotals)
	}

	for _, line := range checkout.Lines {
		if line.SellerID == nil {
			if line.SellerOrderID != nil {
				t.Fatal("platform line must not join a seller order")
			}
			continue
		}
		if line.SellerOrderID == nil {
			t.Fatalf("seller line %s missing seller order", line.Name)
		}
	}

	if len(emitter.events) != 1 || emitter.events[0].eventType != enums.EventOrderPlaced {
		t.Fatalf("expected one order_placed event, got %+v", emitter.events)
	}
}

func TestPlaceValidation(t *testing.T) {
	svc := newOrdersService(t, newFakeOrdersRepo(), &fakeOrdersEmitter{})

	cases := []struct {
		name  string
		input PlaceCheckoutInput
	}{
		{"missing buyer", PlaceCheckoutInput{Lines: []LineInput{{Name: "x", Qty: 1}}}},
		{"no lines", PlaceCheckoutInput{BuyerRef: "b"}},
		{"zero qty", PlaceCheckoutInput{BuyerRef: "b", Lines: []LineInput{{Name: "x", Qty: 0}}}},
		{"negative price", PlaceCheckoutInput{BuyerRef: "b", Lines: []LineInput{{Name: "x", Qty: 1, UnitPriceCents: -1}}}},
		{"unnamed line", PlaceCheckoutInput{BuyerRef: "b", Lines: []LineInput{{Qty: 1}}}},
		{"bad currency", PlaceCheckoutInput{BuyerRef: "b", Currency: "XXX", Lines: []LineInput{{Name: "x", Qty: 1}}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Place(context.Background(), tc.input)
			appErr := pkgerrors.As(err)
			if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSettlePaymentMarksPaidAndEmits(t *testing.T) {
	repo := newFakeOrdersRepo()
	emitter := &fakeOrdersEmitter{}
	svc := newOrdersService(t, repo, emitter)

	checkoutID := uuid.New()
	repo.checkouts[checkoutID] = &models.Checkout{
		ID:            checkoutID,
		BuyerRef:      "buyer-1",
		PaymentStatus: enums.PaymentStatusUnpaid,
		TotalCents:    4200,
	}

	settled, err := svc.SettlePayment(context.Background(), checkoutID)
	if err != nil {
		t.Fatalf("SettlePayment: %v", err)
	}
	if settled.PaymentStatus != enums.PaymentStatusSettled {
		t.Fatalf("expected settled, got %s", settled.PaymentStatus)
	}
	if settled.SettledAt == nil {
		t.Fatal("expected settled_at to be set")
	}
	if len(emitter.events) != 1 {
		t.Fatalf("expected one event, got %d", len(emitter.events))
	}
	event := emitter.events[0]
	if event.eventType != enums.EventOrderPaymentSettled || !event.guarded {
		t.Fatalf("expected guarded settlement event, got %+v", event)
	}
}

func TestSettlePaymentRepeatIsIdempotent(t *testing.T) {
	repo := newFakeOrdersRepo()
	emitter := &fakeOrdersEmitter{}
	svc := newOrdersService(t, repo, emitter)

	checkoutID := uuid.New()
	settledAt := time.Now().UTC()
	repo.checkouts[checkoutID] = &models.Checkout{
		ID:            checkoutID,
		PaymentStatus: enums.PaymentStatusSettled,
		SettledAt:     &settledAt,
	}

	settled, err := svc.SettlePayment(context.Background(), checkoutID)
	if err != nil {
		t.Fatalf("SettlePayment: %v", err)
	}
	if settled.PaymentStatus != enums.PaymentStatusSettled {
		t.Fatalf("expected settled, got %s", settled.PaymentStatus)
	}
	if len(emitter.events) != 0 {
		t.Fatal("repeat settle must not emit")
	}
}

func TestSettlePaymentRefundedRejected(t *testing.T) {
	repo := newFakeOrdersRepo()
	svc := newOrdersService(t, repo, &fakeOrdersEmitter{})

	checkoutID := uuid.New()
	repo.checkouts[checkoutID] = &models.Checkout{
		ID:            checkoutID,
		PaymentStatus: enums.PaymentStatusRefunded,
	}

	_, err := svc.SettlePayment(context.Background(), checkoutID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestSettlePaymentNotFound(t *testing.T) {
	svc := newOrdersService(t, newFakeOrdersRepo(), &fakeOrdersEmitter{})

	_, err := svc.SettlePayment(context.Background(), uuid.New())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestListSellerOrdersInvalidCursor(t *testing.T) {
	svc := newOrdersService(t, newFakeOrdersRepo(), &fakeOrdersEmitter{})

	_, err := svc.ListSellerOrders(context.Background(), uuid.New(), pagination.Params{Cursor: "not-base64!"})
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
