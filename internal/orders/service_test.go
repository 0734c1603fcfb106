package orders

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sellora/sellora-backend/pkg/db/models"
	"github.com/sellora/sellora-backend/pkg/enums"
	pkgerrors "github.com/sellora/sellora-backend/pkg/errors"
	"github.com/sellora/sellora-backend/pkg/logger"
	"github.com/sellora/sellora-backend/pkg/outbox"
)

type stubOrdersRepo struct {
	order               *models.Order
	updatedStatus       enums.PaymentStatus
	updateCalls         int
	findByID            func(ctx context.Context, id uuid.UUID) (*models.Order, error)
	updatePaymentStatus func(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error
}

func (s *stubOrdersRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubOrdersRepo) Create(ctx context.Context, order *models.Order) error {
	if order.ID == uuid.Nil {
		order.ID = uuid.New()
	}
	s.order = order
	return nil
}

func (s *stubOrdersRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if s.findByID != nil {
		return s.findByID(ctx, id)
	}
	if s.order == nil || s.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *s.order
	return &copied, nil
}

func (s *stubOrdersRepo) FindByIDWithReservations(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.FindByID(ctx, id)
}

func (s *stubOrdersRepo) UpdatePaymentStatus(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) error {
	if s.updatePaymentStatus != nil {
		return s.updatePaymentStatus(ctx, id, status)
	}
	s.updatedStatus = status
	s.updateCalls++
	return nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOutbox struct {
	events []outbox.DomainEvent
}

func (s *stubOutbox) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

type stubInventoryEngine struct {
	fulfillCalls []uuid.UUID
	releaseCalls []uuid.UUID
	affected     int
	err          error
}

func (s *stubInventoryEngine) Fulfill(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (int, error) {
	s.fulfillCalls = append(s.fulfillCalls, orderID)
	return s.affected, s.err
}

func (s *stubInventoryEngine) Release(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (int, error) {
	s.releaseCalls = append(s.releaseCalls, orderID)
	return s.affected, s.err
}

func newStubService(t *testing.T, repo *stubOrdersRepo, engine *stubInventoryEngine, sink *stubOutbox) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "orders-test", Output: io.Discard})
	svc, err := NewService(repo, stubTxRunner{}, sink, engine, logg)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func TestApplyPaymentStatusPaidFulfills(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	repo := &stubOrdersRepo{order: &models.Order{ID: orderID, PaymentStatus: enums.PaymentStatusPending}}
	engine := &stubInventoryEngine{affected: 2}
	sink := &stubOutbox{}
	svc := newStubService(t, repo, engine, sink)

	if err := svc.ApplyPaymentStatus(context.Background(), orderID, enums.PaymentStatusPaid); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if repo.updatedStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected status update to PAID, got %s", repo.updatedStatus)
	}
	if len(engine.fulfillCalls) != 1 || engine.fulfillCalls[0] != orderID {
		t.Fatalf("expected one fulfill call, got %v", engine.fulfillCalls)
	}
	if len(engine.releaseCalls) != 0 {
		t.Fatalf("unexpected release calls: %v", engine.releaseCalls)
	}
	if len(sink.events) != 1 || sink.events[0].EventType != enums.EventPaymentStatusChanged {
		t.Fatalf("expected payment status event, got %+v", sink.events)
	}
	data, ok := sink.events[0].Data.(PaymentStatusChangedEvent)
	if !ok || data.ReservationsAffected != 2 {
		t.Fatalf("unexpected event payload: %+v", sink.events[0].Data)
	}
}

func TestApplyPaymentStatusCancelledReleases(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	repo := &stubOrdersRepo{order: &models.Order{ID: orderID, PaymentStatus: enums.PaymentStatusPending}}
	engine := &stubInventoryEngine{affected: 1}
	sink := &stubOutbox{}
	svc := newStubService(t, repo, engine, sink)

	if err := svc.ApplyPaymentStatus(context.Background(), orderID, enums.PaymentStatusCancelled); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if len(engine.releaseCalls) != 1 {
		t.Fatalf("expected one release call, got %v", engine.releaseCalls)
	}
	if len(engine.fulfillCalls) != 0 {
		t.Fatalf("unexpected fulfill calls: %v", engine.fulfillCalls)
	}
}

func TestApplyPaymentStatusFailedReleases(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	repo := &stubOrdersRepo{order: &models.Order{ID: orderID, PaymentStatus: enums.PaymentStatusPending}}
	engine := &stubInventoryEngine{}
	sink := &stubOutbox{}
	svc := newStubService(t, repo, engine, sink)

	if err := svc.ApplyPaymentStatus(context.Background(), orderID, enums.PaymentStatusFailed); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(engine.releaseCalls) != 1 {
		t.Fatalf("expected one release call, got %v", engine.releaseCalls)
	}
}

func TestApplyPaymentStatusSameStatusIsNoOp(t *testing.T) {
	t.Parallel()

	orderID := uuid.New()
	repo := &stubOrdersRepo{order: &models.Order{ID: orderID, PaymentStatus: enums.PaymentStatusPaid}}
	engine := &stubInventoryEngine{}
	sink := &stubOutbox{}
	svc := newStubService(t, repo, engine, sink)

	if err := svc.ApplyPaymentStatus(context.Background(), orderID, enums.PaymentStatusPaid); err != nil {
		t.Fatalf("apply: %v", err)
	}

	if repo.updateCalls != 0 {
		t.Fatalf("expected no status update, got %d", repo.updateCalls)
	}
	if len(engine.fulfillCalls)+len(engine.releaseCalls) != 0 {
		t.Fatal("expected no stock transition")
	}
	if len(sink.events) != 0 {
		t.Fatalf("expected no events, got %+v", sink.events)
	}
}

func TestApplyPaymentStatusRejectsTerminalRewind(t *testing.T) {
	t.Parallel()

	for _, from := range []enums.PaymentStatus{enums.PaymentStatusDelivered, enums.PaymentStatusCancelled} {
		orderID := uuid.New()
		repo := &stubOrdersRepo{order: &models.Order{ID: orderID, PaymentStatus: from}}
		engine := &stubInventoryEngine{}
		svc := newStubService(t, repo, engine, &stubOutbox{})

		err := svc.ApplyPaymentStatus(context.Background(), orderID, enums.PaymentStatusPending)
		if err == nil {
			t.Fatalf("expected state conflict from %s", from)
		}
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
			t.Fatalf("unexpected error from %s: %v", from, err)
		}
	}
}

func TestApplyPaymentStatusUnknownOrder(t *testing.T) {
	t.Parallel()

	repo := &stubOrdersRepo{}
	svc := newStubService(t, repo, &stubInventoryEngine{}, &stubOutbox{})

	err := svc.ApplyPaymentStatus(context.Background(), uuid.New(), enums.PaymentStatusPaid)
	if err == nil {
		t.Fatal("expected not found error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestApplyPaymentStatusInvalidInput(t *testing.T) {
	t.Parallel()

	svc := newStubService(t, &stubOrdersRepo{}, &stubInventoryEngine{}, &stubOutbox{})

	err := svc.ApplyPaymentStatus(context.Background(), uuid.Nil, enums.PaymentStatusPaid)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for nil order id, got %v", err)
	}

	err = svc.ApplyPaymentStatus(context.Background(), uuid.New(), enums.PaymentStatus("SHREDDED"))
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for bad status, got %v", err)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	t.Parallel()

	svc := newStubService(t, &stubOrdersRepo{}, &stubInventoryEngine{}, &stubOutbox{})

	_, err := svc.Create(context.Background(), CreateOrderInput{})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}
