package payments

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/mercaline/marketsplit-backend/internal/settlement"
	"github.com/mercaline/marketsplit-backend/pkg/enums"
	"github.com/mercaline/marketsplit-backend/pkg/logger"
	"github.com/mercaline/marketsplit-backend/pkg/outbox"
	"github.com/mercaline/marketsplit-backend/pkg/outbox/payloads"
)

const paymentsConsumerName = "payments"

type settlementProcessor interface {
	ProcessOrderPayment(ctx context.Context, checkoutID uuid.UUID) (*settlement.SplitResult, error)
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// Consumer reacts to settled checkout payments by running the split
// pipeline. The database-side guards make reprocessing harmless, so the
// Redis key is just a fast path.
type Consumer struct {
	settlement settlementProcessor
	manager    idempotencyChecker
	logg       *logger.Logger
}

// NewConsumer builds a payments consumer.
func NewConsumer(processor settlementProcessor, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if processor == nil {
		return nil, fmt.Errorf("settlement processor required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{settlement: processor, manager: manager, logg: logg}, nil
}

// Process handles one order event envelope. Events other than the
// settlement signal are ignored.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})

	if eventType != enums.EventOrderPaymentSettled {
		c.logg.Info(logCtx, "event not handled by payments consumer")
		return nil
	}

	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, paymentsConsumerName, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	var payload payloads.OrderPaymentSettledEvent
	if err := json.Unmarshal(envelope.Data, &payload); err != nil {
		_ = c.manager.Delete(ctx, paymentsConsumerName, eventID)
		return fmt.Errorf("decode settlement payload: %w", err)
	}
	if payload.CheckoutID == uuid.Nil {
		// A payload with no order reference can never become valid, so the
		// idempotency marker stays and the message is dropped.
		c.logg.Warn(logCtx, "settlement payload missing checkout id; skipping")
		return nil
	}

	result, err := c.settlement.ProcessOrderPayment(ctx, payload.CheckoutID)
	if err != nil {
		c.logg.Error(logCtx, "settlement processing failed", err)
		_ = c.manager.Delete(ctx, paymentsConsumerName, eventID)
		return err
	}

	if result == nil {
		c.logg.Info(logCtx, "checkout already split; nothing to do")
		return nil
	}
	logCtx = c.logg.WithFields(logCtx, map[string]any{
		"checkout_id": result.CheckoutID,
		"splits":      len(result.Splits),
	})
	c.logg.Info(logCtx, "checkout split processed")
	return nil
}
