package orders

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbpkg "github.com/sellora/sellora-backend/pkg/db"
	"github.com/sellora/sellora-backend/pkg/db/models"
	"github.com/sellora/sellora-backend/pkg/enums"
	pkgerrors "github.com/sellora/sellora-backend/pkg/errors"
	"github.com/sellora/sellora-backend/pkg/logger"
	"github.com/sellora/sellora-backend/pkg/outbox"
)

const orderNumberUniqueConstraint = "ux_orders_order_number"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// InventoryEngine consumes or returns an order's reservations inside the
// caller's transaction.
type InventoryEngine interface {
	Fulfill(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (int, error)
	Release(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (int, error)
}

// Service defines order-level operations.
type Service interface {
	Create(ctx context.Context, input CreateOrderInput) (*models.Order, error)
	Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error)
	ApplyPaymentStatus(ctx context.Context, orderID uuid.UUID, status enums.PaymentStatus) error
}

type service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	inventory InventoryEngine
	logg      *logger.Logger
}

// NewService builds an order service with the required dependencies.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher, inventory InventoryEngine, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if inventory == nil {
		return nil, fmt.Errorf("inventory engine required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		outbox:    publisher,
		inventory: inventory,
		logg:      logg,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.OrderNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order number required")
	}
	if input.TotalAmount.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "total amount cannot be negative")
	}

	order := models.Order{
		OrderNumber:   input.OrderNumber,
		PaymentStatus: enums.PaymentStatusPending,
		TotalAmount:   input.TotalAmount,
	}
	if err := s.repo.Create(ctx, &order); err != nil {
		if dbpkg.IsUniqueViolation(err, orderNumberUniqueConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "order number already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
	}
	return &order, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	order, err := s.repo.FindByIDWithReservations(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

// ApplyPaymentStatus moves an order's payment status and runs the matching
// stock transition in the same transaction: PAID and DELIVERED consume the
// order's reservations, CANCELLED and FAILED return them. Setting the status
// it already has is a no-op.
func (s *service) ApplyPaymentStatus(ctx context.Context, orderID uuid.UUID, status enums.PaymentStatus) error {
	if orderID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if !status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid payment status")
	}

	ctx = s.logg.WithOrderID(ctx, orderID.String())

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		order, err := repo.FindByID(ctx, orderID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
		}
		if order.PaymentStatus == status {
			return nil
		}
		if !canTransitionPaymentStatus(order.PaymentStatus, status) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "payment status transition not allowed").
				WithDetails(map[string]string{
					"from": order.PaymentStatus.String(),
					"to":   status.String(),
				})
		}

		if err := repo.UpdatePaymentStatus(ctx, order.ID, status); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update payment status")
		}

		affected := 0
		switch stockActionFor(status) {
		case stockActionFulfill:
			affected, err = s.inventory.Fulfill(ctx, tx, order.ID)
		case stockActionRelease:
			affected, err = s.inventory.Release(ctx, tx, order.ID)
		}
		if err != nil {
			return err
		}

		err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventPaymentStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Version:       1,
			Data: PaymentStatusChangedEvent{
				OrderID:              order.ID,
				From:                 order.PaymentStatus,
				To:                   status,
				ReservationsAffected: affected,
			},
		})
		if err != nil {
			return err
		}

		s.logg.Info(ctx, "payment status applied")
		return nil
	})
}

type stockAction int

const (
	stockActionNone stockAction = iota
	stockActionFulfill
	stockActionRelease
)

func stockActionFor(status enums.PaymentStatus) stockAction {
	switch status {
	case enums.PaymentStatusPaid, enums.PaymentStatusDelivered:
		return stockActionFulfill
	case enums.PaymentStatusCancelled, enums.PaymentStatusFailed:
		return stockActionRelease
	default:
		return stockActionNone
	}
}

func canTransitionPaymentStatus(from, to enums.PaymentStatus) bool {
	switch from {
	case enums.PaymentStatusPending:
		return to == enums.PaymentStatusPaid || to == enums.PaymentStatusCancelled || to == enums.PaymentStatusFailed
	case enums.PaymentStatusPaid:
		return to == enums.PaymentStatusDelivered || to == enums.PaymentStatusCancelled || to == enums.PaymentStatusFailed
	case enums.PaymentStatusFailed:
		return to == enums.PaymentStatusPaid || to == enums.PaymentStatusCancelled
	default:
		// DELIVERED and CANCELLED are terminal
		return false
	}
}
