package main

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/sellora/sellora-backend/pkg/config"
	"github.com/sellora/sellora-backend/pkg/db/models"
	"github.com/sellora/sellora-backend/pkg/enums"
	"github.com/sellora/sellora-backend/pkg/logger"
)

type fakeRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
	fetchErr  error
}

func (r *fakeRepo) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	if r.fetchErr != nil {
		return nil, r.fetchErr
	}
	if limit < len(r.events) {
		return r.events[:limit], nil
	}
	return r.events, nil
}

func (r *fakeRepo) MarkPublished(id uuid.UUID) error {
	r.published = append(r.published, id)
	return nil
}

func (r *fakeRepo) MarkFailed(id uuid.UUID, err error) error {
	r.failed = append(r.failed, id)
	return nil
}

type fakePubSub struct{}

func (fakePubSub) Ping(context.Context) error { return nil }

func (fakePubSub) Publisher(string) *gcppubsub.Publisher { return nil }

type fakePublisher struct {
	results []publishResult
	topics  []string
	calls   int
}

func (p *fakePublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	idx := p.calls
	p.calls++
	if idx >= len(p.results) {
		return fakePublishResult{}
	}
	return p.results[idx]
}

type fakePublishResult struct {
	err error
}

func (r fakePublishResult) Get(context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "server-id", nil
}

func newTestService(t *testing.T, repo *fakeRepo, pub *fakePublisher) *Service {
	t.Helper()

	cfg := &config.Config{}
	cfg.PubSub.OrderStatusTopic = "order-status"
	cfg.PubSub.InventoryTopic = "inventory-events"

	logg := logger.New(logger.Options{ServiceName: "outbox-test", Output: io.Discard})

	service, err := NewService(ServiceParams{
		Config:     cfg,
		Logger:     logg,
		Repository: repo,
		PubSub:     fakePubSub{},
		PublisherFactory: func(topic string) publisher {
			if pub != nil {
				pub.topics = append(pub.topics, topic)
			}
			return pub
		},
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func outboxEvent(eventType enums.OutboxEventType, aggregateType enums.OutboxAggregateType) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"version":1,"eventId":"` + uuid.NewString() + `","data":{}}`),
		CreatedAt:     time.Now(),
	}
}

func TestProcessBatchContinuesAfterFailure(t *testing.T) {
	repo := &fakeRepo{
		events: []models.OutboxEvent{
			outboxEvent(enums.EventStockReserved, enums.AggregateOrder),
			outboxEvent(enums.EventStockFulfilled, enums.AggregateOrder),
		},
	}
	pub := &fakePublisher{
		results: []publishResult{
			fakePublishResult{err: errors.New("transient")},
			fakePublishResult{},
		},
	}
	service := newTestService(t, repo, pub)

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if !processed {
		t.Fatalf("expected batch to report processed")
	}
	if len(repo.failed) != 1 || repo.failed[0] != repo.events[0].ID {
		t.Fatalf("unexpected failed rows: %v", repo.failed)
	}
	if len(repo.published) != 1 || repo.published[0] != repo.events[1].ID {
		t.Fatalf("unexpected published rows: %v", repo.published)
	}
}

func TestEventTypesRouteToTopics(t *testing.T) {
	repo := &fakeRepo{
		events: []models.OutboxEvent{
			outboxEvent(enums.EventPaymentStatusChanged, enums.AggregateOrder),
			outboxEvent(enums.EventStockReleased, enums.AggregateOrder),
		},
	}
	pub := &fakePublisher{}
	service := newTestService(t, repo, pub)

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if len(pub.topics) != 2 || pub.topics[0] != "order-status" || pub.topics[1] != "inventory-events" {
		t.Fatalf("unexpected topic routing: %v", pub.topics)
	}
	if len(repo.published) != 2 {
		t.Fatalf("expected both events published, got %d", len(repo.published))
	}
}

func TestUnroutableEventIsMarkedFailed(t *testing.T) {
	repo := &fakeRepo{
		events: []models.OutboxEvent{
			outboxEvent(enums.OutboxEventType("bogus"), enums.AggregateOrder),
		},
	}
	service := newTestService(t, repo, &fakePublisher{})

	if _, err := service.processBatch(context.Background()); err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if len(repo.failed) != 1 {
		t.Fatalf("expected unroutable event marked failed, got %v", repo.failed)
	}
	if len(repo.published) != 0 {
		t.Fatalf("expected nothing published, got %v", repo.published)
	}
}

func TestEmptyBatchReportsIdle(t *testing.T) {
	repo := &fakeRepo{}
	service := newTestService(t, repo, &fakePublisher{})

	processed, err := service.processBatch(context.Background())
	if err != nil {
		t.Fatalf("process batch returned error: %v", err)
	}
	if processed {
		t.Fatalf("expected idle batch")
	}
}
