package orderstatus

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/sellora/sellora-backend/pkg/enums"
	pkgerrors "github.com/sellora/sellora-backend/pkg/errors"
	"github.com/sellora/sellora-backend/pkg/logger"
	"github.com/sellora/sellora-backend/pkg/outbox"
)

const consumerName = "orderstatus"

type paymentStatusApplier interface {
	ApplyPaymentStatus(ctx context.Context, orderID uuid.UUID, status enums.PaymentStatus) error
}

type idempotencyChecker interface {
	CheckAndMarkProcessed(ctx context.Context, consumer string, eventID uuid.UUID) (bool, error)
	Delete(ctx context.Context, consumer string, eventID uuid.UUID) error
}

// StatusUpdate is the payload carried by order payment status messages.
type StatusUpdate struct {
	OrderID       uuid.UUID `json:"order_id"`
	PaymentStatus string    `json:"payment_status"`
}

// Consumer applies payment status updates from the order-status subscription
// while honoring Redis idempotency.
type Consumer struct {
	orders  paymentStatusApplier
	manager idempotencyChecker
	logg    *logger.Logger
}

// NewConsumer builds a new order status consumer.
func NewConsumer(orders paymentStatusApplier, manager idempotencyChecker, logg *logger.Logger) (*Consumer, error) {
	if orders == nil {
		return nil, fmt.Errorf("orders service required")
	}
	if manager == nil {
		return nil, fmt.Errorf("idempotency manager required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Consumer{
		orders:  orders,
		manager: manager,
		logg:    logg,
	}, nil
}

// Process applies one payment status message. Duplicate deliveries and stale
// transitions are dropped without error so the subscription does not redeliver
// them forever.
func (c *Consumer) Process(ctx context.Context, eventType enums.OutboxEventType, envelope outbox.PayloadEnvelope) error {
	logCtx := c.logg.WithFields(ctx, map[string]any{
		"event_id":   envelope.EventID,
		"event_type": eventType,
	})

	if eventType != enums.EventPaymentStatusChanged {
		c.logg.Info(logCtx, "event not handled by order status consumer")
		return nil
	}

	if envelope.EventID == "" {
		return fmt.Errorf("event id missing")
	}
	eventID, err := uuid.Parse(envelope.EventID)
	if err != nil {
		return fmt.Errorf("parse event id: %w", err)
	}

	already, err := c.manager.CheckAndMarkProcessed(ctx, consumerName, eventID)
	if err != nil {
		return fmt.Errorf("idempotency check: %w", err)
	}
	if already {
		c.logg.Info(logCtx, "event already processed")
		return nil
	}

	update, err := decodeStatusUpdate(envelope)
	if err != nil {
		c.logg.Error(logCtx, "failed to decode status update", err)
		_ = c.manager.Delete(ctx, consumerName, eventID)
		return err
	}

	status, err := enums.ParsePaymentStatus(update.PaymentStatus)
	if err != nil {
		c.logg.Error(logCtx, "unknown payment status", err)
		_ = c.manager.Delete(ctx, consumerName, eventID)
		return err
	}

	if err := c.orders.ApplyPaymentStatus(ctx, update.OrderID, status); err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeStateConflict {
			// out-of-order delivery; the order already moved past this status
			c.logg.Warn(logCtx, "dropping stale payment status update")
			return nil
		}
		c.logg.Error(logCtx, "failed to apply payment status", err)
		_ = c.manager.Delete(ctx, consumerName, eventID)
		return err
	}

	c.logg.Info(logCtx, "payment status update applied")
	return nil
}

func decodeStatusUpdate(envelope outbox.PayloadEnvelope) (*StatusUpdate, error) {
	if len(envelope.Data) == 0 {
		return nil, fmt.Errorf("payload missing")
	}
	var update StatusUpdate
	if err := json.Unmarshal(envelope.Data, &update); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	if update.OrderID == uuid.Nil {
		return nil, fmt.Errorf("order id missing in payload")
	}
	return &update, nil
}
