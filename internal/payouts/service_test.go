package payouts

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
)

type fakePayoutRepo struct {
	payouts map[uuid.UUID]*models.SellerPayout

	releaseCalls [][]uuid.UUID
	failFind     error
	failRelease  error

	// beforeUpdate runs at the top of UpdateStatus, letting tests mutate rows
	// between the service's read and its guarded write.
	beforeUpdate func()
}

func newFakePayoutRepo() *fakePayoutRepo {
	return &fakePayoutRepo{payouts: map[uuid.UUID]*models.SellerPayout{}}
}

func (f *fakePayoutRepo) add(p *models.SellerPayout) *models.SellerPayout {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.payouts[p.ID] = p
	return p
}

func (f *fakePayoutRepo) WithTx(tx *gorm.DB) Repository { return f }

func (f *fakePayoutRepo) Create(ctx context.Context, payout *models.SellerPayout) error {
	f.add(payout)
	return nil
}

func (f *fakePayoutRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.SellerPayout, error) {
	if f.failFind != nil {
		return nil, f.failFind
	}
	payout, ok := f.payouts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *payout
	return &clone, nil
}

func (f *fakePayoutRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID, status *enums.PayoutStatus) ([]models.SellerPayout, error) {
	var out []models.SellerPayout
	for _, payout := range f.payouts {
		if payout.SellerID != sellerID {
			continue
		}
		if status != nil && payout.Status != *status {
			continue
		}
		out = append(out, *payout)
	}
	return out, nil
}

func (f *fakePayoutRepo) ListByStatus(ctx context.Context, status enums.PayoutStatus, limit int) ([]models.SellerPayout, error) {
	var out []models.SellerPayout
	for _, payout := range f.payouts {
		if payout.Status != status {
			continue
		}
		out = append(out, *payout)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (f *fakePayoutRepo) ExistsForCheckout(ctx context.Context, checkoutID uuid.UUID) (bool, error) {
	for _, payout := range f.payouts {
		if payout.CheckoutID == checkoutID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakePayoutRepo) HoldTotalBySeller(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	return f.totalBySeller(sellerID, enums.PayoutStatusHold), nil
}

func (f *fakePayoutRepo) PendingTotalBySeller(ctx context.Context, sellerID uuid.UUID) (int64, error) {
	return f.totalBySeller(sellerID, enums.PayoutStatusPending), nil
}

func (f *fakePayoutRepo) totalBySeller(sellerID uuid.UUID, status enums.PayoutStatus) int64 {
	var total int64
	for _, payout := range f.payouts {
		if payout.SellerID == sellerID && payout.Status == status {
			total += int64(payout.AmountCents)
		}
	}
	return total
}

func (f *fakePayoutRepo) UpdateStatus(ctx context.Context, id uuid.UUID, update StatusUpdate) (int64, error) {
	if f.beforeUpdate != nil {
		f.beforeUpdate()
	}
	payout, ok := f.payouts[id]
	if !ok {
		return 0, gorm.ErrRecordNotFound
	}
	if payout.Status != update.From {
		return 0, nil
	}
	payout.Status = update.Status
	if update.ReleasedAt != nil {
		payout.ReleasedAt = update.ReleasedAt
	}
	if update.CompletedAt != nil {
		payout.CompletedAt = update.CompletedAt
	}
	if update.FailureReason != nil {
		payout.FailureReason = update.FailureReason
	}
	return 1, nil
}

func (f *fakePayoutRepo) ReleaseHoldBatch(ctx context.Context, ids []uuid.UUID, releasedAt time.Time) (int64, error) {
	if f.failRelease != nil {
		return 0, f.failRelease
	}
	f.releaseCalls = append(f.releaseCalls, ids)
	var moved int64
	for _, id := range ids {
		payout, ok := f.payouts[id]
		if !ok || payout.Status != enums.PayoutStatusHold {
			continue
		}
		at := releasedAt
		payout.Status = enums.PayoutStatusPending
		payout.ReleasedAt = &at
		moved++
	}
	return moved, nil
}

type fakeTxRunner struct{}

func (fakeTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type capturedEvent struct {
	eventType enums.OutboxEventType
	aggregate uuid.UUID
}

type fakeEmitter struct {
	events []capturedEvent
}

func (f *fakeEmitter) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	f.events = append(f.events, capturedEvent{eventType: event.EventType, aggregate: event.AggregateID})
	return nil
}

func newTestService(t *testing.T, repo *fakePayoutRepo, emitter *fakeEmitter) Service {
	t.Helper()
	svc, err := NewService(repo, fakeTxRunner{}, emitter, 2)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func heldPayout(sellerID, checkoutID uuid.UUID, amount int) *models.SellerPayout {
	return &models.SellerPayout{
		ID:          uuid.New(),
		SellerID:    sellerID,
		CheckoutID:  checkoutID,
		AmountCents: amount,
		Status:      enums.PayoutStatusHold,
	}
}

func TestRequestPayoutReleasesHeldRows(t *testing.T) {
	repo := newFakePayoutRepo()
	emitter := &fakeEmitter{}
	svc := newTestService(t, repo, emitter)

	sellerID := uuid.New()
	first := repo.add(heldPayout(sellerID, uuid.New(), 4000))
	second := repo.add(heldPayout(sellerID, uuid.New(), 1500))
	repo.add(heldPayout(uuid.New(), uuid.New(), 9000))

	result, err := svc.RequestPayout(context.Background(), sellerID, 5000)
	if err != nil {
		t.Fatalf("RequestPayout: %v", err)
	}
	if result.ReleasedCount != 2 {
		t.Fatalf("expected 2 released, got %d", result.ReleasedCount)
	}
	if result.TotalAmountCents != 5500 {
		t.Fatalf("expected 5500 cents total, got %d", result.TotalAmountCents)
	}
	for _, id := range []uuid.UUID{first.ID, second.ID} {
		if repo.payouts[id].Status != enums.PayoutStatusPending {
			t.Fatalf("payout %s not released to pending", id)
		}
		if repo.payouts[id].ReleasedAt == nil {
			t.Fatalf("payout %s missing released_at", id)
		}
	}
	if len(emitter.events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(emitter.events))
	}
	for _, event := range emitter.events {
		if event.eventType != enums.EventPayoutReleased {
			t.Fatalf("unexpected event type %s", event.eventType)
		}
	}
}

func TestRequestPayoutBelowThresholdIsNoOp(t *testing.T) {
	repo := newFakePayoutRepo()
	emitter := &fakeEmitter{}
	svc := newTestService(t, repo, emitter)

	sellerID := uuid.New()
	payout := repo.add(heldPayout(sellerID, uuid.New(), 3000))

	result, err := svc.RequestPayout(context.Background(), sellerID, 5000)
	if err != nil {
		t.Fatalf("RequestPayout: %v", err)
	}
	if result.ReleasedCount != 0 || result.TotalAmountCents != 0 {
		t.Fatalf("expected zero-value result, got %+v", result)
	}
	if repo.payouts[payout.ID].Status != enums.PayoutStatusHold {
		t.Fatal("payout should remain on hold below threshold")
	}
	if len(emitter.events) != 0 {
		t.Fatalf("expected no events, got %d", len(emitter.events))
	}
}

func TestRequestPayoutValidation(t *testing.T) {
	svc := newTestService(t, newFakePayoutRepo(), &fakeEmitter{})

	if _, err := svc.RequestPayout(context.Background(), uuid.Nil, 0); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for nil seller, got %v", err)
	}
	if _, err := svc.RequestPayout(context.Background(), uuid.New(), -1); pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for negative threshold, got %v", err)
	}
}

func TestApprovePayoutFromPending(t *testing.T) {
	repo := newFakePayoutRepo()
	emitter := &fakeEmitter{}
	svc := newTestService(t, repo, emitter)

	payout := repo.add(&models.SellerPayout{
		ID:          uuid.New(),
		SellerID:    uuid.New(),
		CheckoutID:  uuid.New(),
		AmountCents: 2000,
		Status:      enums.PayoutStatusPending,
	})

	updated, err := svc.ApprovePayout(context.Background(), payout.ID)
	if err != nil {
		t.Fatalf("ApprovePayout: %v", err)
	}
	if updated.Status != enums.PayoutStatusCompleted {
		t.Fatalf("expected completed, got %s", updated.Status)
	}
	if updated.CompletedAt == nil {
		t.Fatal("expected completed_at to be set")
	}
	if len(emitter.events) != 1 || emitter.events[0].eventType != enums.EventPayoutCompleted {
		t.Fatalf("expected one payout_completed event, got %+v", emitter.events)
	}
}

func TestApprovePayoutLostRaceRejected(t *testing.T) {
	repo := newFakePayoutRepo()
	emitter := &fakeEmitter{}
	svc := newTestService(t, repo, emitter)

	payout := repo.add(&models.SellerPayout{
		ID:          uuid.New(),
		SellerID:    uuid.New(),
		CheckoutID:  uuid.New(),
		AmountCents: 2000,
		Status:      enums.PayoutStatusPending,
	})
	repo.beforeUpdate = func() {
		reason := "seller account closed"
		repo.payouts[payout.ID].Status = enums.PayoutStatusFailed
		repo.payouts[payout.ID].FailureReason = &reason
	}

	_, err := svc.ApprovePayout(context.Background(), payout.ID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict when another writer moved the row first, got %v", err)
	}
	if repo.payouts[payout.ID].Status != enums.PayoutStatusFailed {
		t.Fatal("winning writer's status must survive")
	}
	if len(emitter.events) != 0 {
		t.Fatalf("no lifecycle event expected on lost race, got %+v", emitter.events)
	}
}

func TestApprovePayoutFromHoldRejected(t *testing.T) {
	repo := newFakePayoutRepo()
	svc := newTestService(t, repo, &fakeEmitter{})

	payout := repo.add(heldPayout(uuid.New(), uuid.New(), 2000))

	_, err := svc.ApprovePayout(context.Background(), payout.ID)
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
	if repo.payouts[payout.ID].Status != enums.PayoutStatusHold {
		t.Fatal("payout status must not change on rejected transition")
	}
}

func TestMarkProcessing(t *testing.T) {
	repo := newFakePayoutRepo()
	svc := newTestService(t, repo, &fakeEmitter{})

	payout := repo.add(&models.SellerPayout{
		ID:          uuid.New(),
		SellerID:    uuid.New(),
		CheckoutID:  uuid.New(),
		AmountCents: 700,
		Status:      enums.PayoutStatusPending,
	})

	updated, err := svc.MarkProcessing(context.Background(), payout.ID)
	if err != nil {
		t.Fatalf("MarkProcessing: %v", err)
	}
	if updated.Status != enums.PayoutStatusProcessing {
		t.Fatalf("expected processing, got %s", updated.Status)
	}
}

func TestRejectPayoutRequiresReason(t *testing.T) {
	repo := newFakePayoutRepo()
	svc := newTestService(t, repo, &fakeEmitter{})

	payout := repo.add(heldPayout(uuid.New(), uuid.New(), 800))

	_, err := svc.RejectPayout(context.Background(), payout.ID, "")
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRejectPayoutRecordsReason(t *testing.T) {
	repo := newFakePayoutRepo()
	emitter := &fakeEmitter{}
	svc := newTestService(t, repo, emitter)

	payout := repo.add(heldPayout(uuid.New(), uuid.New(), 800))

	updated, err := svc.RejectPayout(context.Background(), payout.ID, "seller account closed")
	if err != nil {
		t.Fatalf("RejectPayout: %v", err)
	}
	if updated.Status != enums.PayoutStatusFailed {
		t.Fatalf("expected failed, got %s", updated.Status)
	}
	if updated.FailureReason == nil || *updated.FailureReason != "seller account closed" {
		t.Fatalf("expected failure reason, got %v", updated.FailureReason)
	}
	if len(emitter.events) != 1 || emitter.events[0].eventType != enums.EventPayoutRejected {
		t.Fatalf("expected one payout_rejected event, got %+v", emitter.events)
	}
}

func TestRejectProcessingPayoutDisallowed(t *testing.T) {
	repo := newFakePayoutRepo()
	svc := newTestService(t, repo, &fakeEmitter{})

	payout := repo.add(&models.SellerPayout{
		ID:          uuid.New(),
		SellerID:    uuid.New(),
		CheckoutID:  uuid.New(),
		AmountCents: 800,
		Status:      enums.PayoutStatusProcessing,
	})

	_, err := svc.RejectPayout(context.Background(), payout.ID, "late rejection")
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestMovePayoutNotFound(t *testing.T) {
	svc := newTestService(t, newFakePayoutRepo(), &fakeEmitter{})

	_, err := svc.ApprovePayout(context.Background(), uuid.New())
	appErr := pkgerrors.As(err)
	if appErr == nil || appErr.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestHasPayoutsForCheckout(t *testing.T) {
	repo := newFakePayoutRepo()
	svc := newTestService(t, repo, &fakeEmitter{})

	checkoutID := uuid.New()
	repo.add(heldPayout(uuid.New(), checkoutID, 100))

	exists, err := svc.HasPayoutsForCheckout(context.Background(), checkoutID)
	if err != nil {
		t.Fatalf("HasPayoutsForCheckout: %v", err)
	}
	if !exists {
		t.Fatal("expected payouts to exist for checkout")
	}

	exists, err = svc.HasPayoutsForCheckout(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("HasPayoutsForCheckout: %v", err)
	}
	if exists {
		t.Fatal("expected no payouts for unknown checkout")
	}
}

func TestProcessScheduledPayoutsDrainsHold(t *testing.T) {
	repo := newFakePayoutRepo()
	emitter := &fakeEmitter{}
	svc := newTestService(t, repo, emitter)

	sellerA := uuid.New()
	sellerB := uuid.New()
	repo.add(heldPayout(sellerA, uuid.New(), 1000))
	repo.add(heldPayout(sellerA, uuid.New(), 2000))
	repo.add(heldPayout(sellerB, uuid.New(), 500))

	result, err := svc.ProcessScheduledPayouts(context.Background())
	if err != nil {
		t.Fatalf("ProcessScheduledPayouts: %v", err)
	}
	if result.TotalProcessed != 3 {
		t.Fatalf("expected 3 processed, got %d", result.TotalProcessed)
	}
	if result.SellersAffected != 2 {
		t.Fatalf("expected 2 sellers, got %d", result.SellersAffected)
	}
	if result.TotalAmountCents != 3500 {
		t.Fatalf("expected 3500 cents, got %d", result.TotalAmountCents)
	}
	for _, payout := range repo.payouts {
		if payout.Status != enums.PayoutStatusPending {
			t.Fatalf("payout %s still %s", payout.ID, payout.Status)
		}
	}
	if len(emitter.events) != 3 {
		t.Fatalf("expected 3 events, got %d", len(emitter.events))
	}
	// Batch size of 2 forces at least two sweeps.
	if len(repo.releaseCalls) < 2 {
		t.Fatalf("expected batched release calls, got %d", len(repo.releaseCalls))
	}
}

func TestProcessScheduledPayoutsEmptyHold(t *testing.T) {
	svc := newTestService(t, newFakePayoutRepo(), &fakeEmitter{})

	result, err := svc.ProcessScheduledPayouts(context.Background())
	if err != nil {
		t.Fatalf("ProcessScheduledPayouts: %v", err)
	}
	if result.TotalProcessed != 0 || result.SellersAffected != 0 || result.TotalAmountCents != 0 {
		t.Fatalf("expected zero result, got %+v", result)
	}
}

func TestPendingTotal(t *testing.T) {
	repo := newFakePayoutRepo()
	svc := newTestService(t, repo, &fakeEmitter{})

	sellerID := uuid.New()
	repo.add(&models.SellerPayout{ID: uuid.New(), SellerID: sellerID, CheckoutID: uuid.New(), AmountCents: 1200, Status: enums.PayoutStatusPending})
	repo.add(&models.SellerPayout{ID: uuid.New(), SellerID: sellerID, CheckoutID: uuid.New(), AmountCents: 300, Status: enums.PayoutStatusHold})

	total, err := svc.PendingTotal(context.Background(), sellerID)
	if err != nil {
		t.Fatalf("PendingTotal: %v", err)
	}
	if total != 1200 {
		t.Fatalf("expected 1200, got %d", total)
	}
}
