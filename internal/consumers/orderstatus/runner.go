package orderstatus

import (
	"context"
	"encoding/json"
	"errors"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/sellora/sellora-backend/pkg/enums"
	"github.com/sellora/sellora-backend/pkg/logger"
	"github.com/sellora/sellora-backend/pkg/outbox"
)

// Runner pulls messages from the order-status subscription and feeds them to
// the consumer. Messages that fail processing are nacked for redelivery.
type Runner struct {
	consumer     *Consumer
	subscription *pubsub.Subscriber
	logg         *logger.Logger
}

// NewRunner wires the subscription into the consumer.
func NewRunner(consumer *Consumer, subscription *pubsub.Subscriber, logg *logger.Logger) (*Runner, error) {
	if consumer == nil {
		return nil, errors.New("consumer required")
	}
	if subscription == nil {
		return nil, errors.New("order status subscription required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}
	return &Runner{
		consumer:     consumer,
		subscription: subscription,
		logg:         logg,
	}, nil
}

// Run processes order status messages until the context is canceled.
func (r *Runner) Run(ctx context.Context) error {
	return r.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		eventType := enums.OutboxEventType(msg.Attributes["event_type"])
		logCtx := r.logg.WithFields(ctx, map[string]any{
			"message_id": msg.ID,
			"event_type": eventType,
		})

		var envelope outbox.PayloadEnvelope
		if err := json.Unmarshal(msg.Data, &envelope); err != nil {
			// malformed payloads never become valid; drop them
			r.logg.Error(logCtx, "failed to decode message envelope", err)
			msg.Ack()
			return
		}

		if err := r.consumer.Process(logCtx, eventType, envelope); err != nil {
			r.logg.Error(logCtx, "message processing failed", err)
			msg.Nack()
			return
		}
		msg.Ack()
	})
}
