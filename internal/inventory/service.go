package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sellora/sellora-backend/pkg/db/models"
	"github.com/sellora/sellora-backend/pkg/enums"
	pkgerrors "github.com/sellora/sellora-backend/pkg/errors"
	"github.com/sellora/sellora-backend/pkg/logger"
	"github.com/sellora/sellora-backend/pkg/metrics"
	"github.com/sellora/sellora-backend/pkg/outbox"
	"github.com/sellora/sellora-backend/pkg/pagination"
)

const expiredSweepBatchSize = 100

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service is the reservation engine. Fulfill and Release join the caller's
// transaction so an order status change and its stock mutation commit or roll
// back together; the remaining operations open their own.
type Service interface {
	Reserve(ctx context.Context, orderID uuid.UUID, requests []ReservationRequest) ([]ReservationResult, error)
	Fulfill(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (int, error)
	Release(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (int, error)
	ReleaseExpired(ctx context.Context) (int, error)
	Restock(ctx context.Context, input RestockInput) (*models.StockMovement, error)
	GetItemBySKU(ctx context.Context, sku string) (*models.InventoryItem, error)
	ListMovements(ctx context.Context, itemID uuid.UUID, params pagination.Params) (pagination.Page[models.StockMovement], error)
}

type service struct {
	repo           Repository
	tx             txRunner
	outbox         outboxPublisher
	metrics        *metrics.InventoryMetrics
	logg           *logger.Logger
	reservationTTL time.Duration
}

// NewService builds the reservation engine with the required dependencies.
func NewService(repo Repository, tx txRunner, publisher outboxPublisher, m *metrics.InventoryMetrics, logg *logger.Logger, reservationTTL time.Duration) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("inventory repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if reservationTTL <= 0 {
		return nil, fmt.Errorf("reservation ttl must be positive")
	}
	return &service{
		repo:           repo,
		tx:             tx,
		outbox:         publisher,
		metrics:        m,
		logg:           logg,
		reservationTTL: reservationTTL,
	}, nil
}

func (s *service) Reserve(ctx context.Context, orderID uuid.UUID, requests []ReservationRequest) ([]ReservationResult, error) {
	start := time.Now()
	results, err := s.reserve(ctx, orderID, requests)
	s.metrics.ObserveTransition("reserve", err, time.Since(start))
	return results, err
}

func (s *service) reserve(ctx context.Context, orderID uuid.UUID, requests []ReservationRequest) ([]ReservationResult, error) {
	if orderID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}
	if len(requests) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one reservation line required")
	}
	for _, req := range requests {
		if req.SKU == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku required on every line")
		}
		if req.Qty <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reservation qty must be positive")
		}
	}

	ctx = s.logg.WithOrderID(ctx, orderID.String())
	expiresAt := time.Now().Add(s.reservationTTL)
	results := make([]ReservationResult, 0, len(requests))

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		reserved := 0

		for _, req := range requests {
			item, err := repo.FindItemBySKU(ctx, req.SKU)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					results = append(results, ReservationResult{SKU: req.SKU, Reason: "unknown sku"})
					continue
				}
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory item")
			}

			ok, err := repo.ReserveItemStock(ctx, item.ID, req.Qty)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reserve stock")
			}
			if !ok {
				results = append(results, ReservationResult{SKU: req.SKU, Reason: "insufficient stock"})
				continue
			}

			expiry := expiresAt
			reservation := models.Reservation{
				OrderID:         orderID,
				InventoryItemID: item.ID,
				Quantity:        req.Qty,
				Status:          enums.ReservationStatusActive,
				ExpiresAt:       &expiry,
			}
			if err := repo.CreateReservation(ctx, &reservation); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create reservation")
			}

			if item.ProductVariantID != nil {
				rows, err := repo.ApplyVariantDelta(ctx, *item.ProductVariantID, 0, req.Qty)
				if err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update variant cache")
				}
				if rows == 0 {
					return missingVariantFault(item)
				}
			}

			reserved++
			results = append(results, ReservationResult{SKU: req.SKU, ReservationID: reservation.ID, Reserved: true})
		}

		if reserved == 0 {
			return nil
		}
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockReserved,
			AggregateType: enums.AggregateOrder,
			AggregateID:   orderID,
			Version:       1,
			Data: StockReservedEvent{
				OrderID:       orderID,
				ReservedLines: reserved,
				RejectedLines: len(requests) - reserved,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(ctx, "reservation request processed")
	return results, nil
}

// Fulfill consumes every open reservation for the order: reserved stock is
// decremented on the ledger and the variant cache, and one OUT movement per
// reservation is recorded. Re-running it finds no open reservations and does
// nothing.
func (s *service) Fulfill(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (int, error) {
	start := time.Now()
	n, err := s.fulfill(ctx, tx, orderID)
	s.metrics.ObserveTransition("fulfill", err, time.Since(start))
	return n, err
}

func (s *service) fulfill(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (int, error) {
	if tx == nil {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for fulfillment")
	}
	if orderID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	ctx = s.logg.WithOrderID(ctx, orderID.String())
	repo := s.repo.WithTx(tx)

	reservations, err := repo.FindOpenReservationsByOrder(ctx, orderID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load open reservations")
	}
	if len(reservations) == 0 {
		return 0, nil
	}

	fulfilled := 0
	totalQty := 0
	for _, reservation := range reservations {
		item, err := s.loadReservedItem(ctx, repo, reservation)
		if err != nil {
			return 0, err
		}

		// Close before touching counters. A concurrent transition may have
		// consumed this reservation after we read it as open; in that case
		// its deltas already landed and must not be applied again.
		closed, err := repo.CloseReservation(ctx, reservation.ID, enums.ReservationStatusFulfilled)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close reservation")
		}
		if !closed {
			continue
		}

		rows, err := repo.ApplyItemDelta(ctx, item.ID, 0, -reservation.Quantity)
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "consume reserved stock")
		}
		if rows == 0 {
			return 0, missingItemFault(reservation)
		}

		reason := "order fulfillment"
		orderRef := reservation.OrderID
		movement := models.StockMovement{
			MovementNumber:  fmt.Sprintf("OUT-%s", reservation.ID),
			InventoryItemID: item.ID,
			OrderID:         &orderRef,
			Type:            enums.MovementTypeOut,
			Quantity:        reservation.Quantity,
			Reason:          &reason,
		}
		if _, err := repo.CreateMovementIfNotExists(ctx, &movement); err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock movement")
		}

		if item.ProductVariantID != nil {
			rows, err := repo.ApplyVariantDelta(ctx, *item.ProductVariantID, -reservation.Quantity, -reservation.Quantity)
			if err != nil {
				return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update variant cache")
			}
			if rows == 0 {
				return 0, missingVariantFault(item)
			}
		}

		fulfilled++
		totalQty += reservation.Quantity
	}

	if fulfilled == 0 {
		return 0, nil
	}

	err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventStockFulfilled,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Version:       1,
		Data: StockFulfilledEvent{
			OrderID:       orderID,
			Reservations:  fulfilled,
			TotalQuantity: totalQty,
		},
	})
	if err != nil {
		return 0, err
	}

	s.logg.Info(ctx, "reservations fulfilled")
	return fulfilled, nil
}

// Release returns every open reservation for the order to the sellable pool.
// Consumed or already-released orders have no open reservations left, so the
// call is a no-op for them.
func (s *service) Release(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (int, error) {
	start := time.Now()
	n, err := s.release(ctx, tx, orderID)
	s.metrics.ObserveTransition("release", err, time.Since(start))
	return n, err
}

func (s *service) release(ctx context.Context, tx *gorm.DB, orderID uuid.UUID) (int, error) {
	if tx == nil {
		return 0, pkgerrors.New(pkgerrors.CodeDependency, "transaction required for release")
	}
	if orderID == uuid.Nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "order id required")
	}

	ctx = s.logg.WithOrderID(ctx, orderID.String())
	repo := s.repo.WithTx(tx)

	reservations, err := repo.FindOpenReservationsByOrder(ctx, orderID)
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load open reservations")
	}
	if len(reservations) == 0 {
		return 0, nil
	}

	totalQty := 0
	for _, reservation := range reservations {
		if err := s.releaseReservation(ctx, repo, reservation, enums.ReservationStatusCancelled); err != nil {
			return 0, err
		}
		totalQty += reservation.Quantity
	}

	err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
		EventType:     enums.EventStockReleased,
		AggregateType: enums.AggregateOrder,
		AggregateID:   orderID,
		Version:       1,
		Data: StockReleasedEvent{
			OrderID:       orderID,
			Reservations:  len(reservations),
			TotalQuantity: totalQty,
		},
	})
	if err != nil {
		return 0, err
	}

	s.logg.Info(ctx, "reservations released")
	return len(reservations), nil
}

// ReleaseExpired sweeps open reservations past their expiry and returns each
// one's stock to the sellable pool.
func (s *service) ReleaseExpired(ctx context.Context) (int, error) {
	released := 0
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		expired, err := repo.FindExpiredOpenReservations(ctx, time.Now(), expiredSweepBatchSize)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load expired reservations")
		}

		for _, reservation := range expired {
			if err := s.releaseReservation(ctx, repo, reservation, enums.ReservationStatusCancelled); err != nil {
				return err
			}

			err = s.outbox.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventReservationExpired,
				AggregateType: enums.AggregateReservation,
				AggregateID:   reservation.ID,
				Version:       1,
				Data: ReservationExpiredEvent{
					ReservationID:   reservation.ID,
					OrderID:         reservation.OrderID,
					InventoryItemID: reservation.InventoryItemID,
					Qty:             reservation.Quantity,
				},
			})
			if err != nil {
				return err
			}
			released++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	if released > 0 {
		s.metrics.AddExpiredReleased(released)
		s.logg.Info(ctx, "expired reservations released")
	}
	return released, nil
}

func (s *service) Restock(ctx context.Context, input RestockInput) (*models.StockMovement, error) {
	if input.SKU == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku required")
	}
	if input.Qty <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "restock qty must be positive")
	}

	ctx = s.logg.WithSKU(ctx, input.SKU)

	var movement *models.StockMovement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		item, err := repo.FindItemBySKU(ctx, input.SKU)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory item")
		}

		if _, err := repo.ApplyItemDelta(ctx, item.ID, input.Qty, 0); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "apply restock")
		}

		row := models.StockMovement{
			MovementNumber:  fmt.Sprintf("IN-%s", uuid.NewString()),
			InventoryItemID: item.ID,
			Type:            enums.MovementTypeIn,
			Quantity:        input.Qty,
		}
		if input.Reason != "" {
			reason := input.Reason
			row.Reason = &reason
		}
		if err := repo.CreateMovement(ctx, &row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock movement")
		}

		if item.ProductVariantID != nil {
			rows, err := repo.ApplyVariantDelta(ctx, *item.ProductVariantID, input.Qty, 0)
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update variant cache")
			}
			if rows == 0 {
				return missingVariantFault(item)
			}
		}

		movement = &row
		return s.outbox.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventStockRestocked,
			AggregateType: enums.AggregateInventoryItem,
			AggregateID:   item.ID,
			Version:       1,
			Data: StockRestockedEvent{
				InventoryItemID: item.ID,
				SKU:             item.SKU,
				Qty:             input.Qty,
				MovementNumber:  row.MovementNumber,
			},
		})
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(ctx, "stock received")
	return movement, nil
}

func (s *service) GetItemBySKU(ctx context.Context, sku string) (*models.InventoryItem, error) {
	if sku == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sku required")
	}
	item, err := s.repo.FindItemBySKU(ctx, sku)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "inventory item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory item")
	}
	return item, nil
}

func (s *service) ListMovements(ctx context.Context, itemID uuid.UUID, params pagination.Params) (pagination.Page[models.StockMovement], error) {
	var page pagination.Page[models.StockMovement]
	if itemID == uuid.Nil {
		return page, pkgerrors.New(pkgerrors.CodeValidation, "inventory item id required")
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return page, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}

	rows, err := s.repo.ListMovementsByItem(ctx, itemID, pagination.LimitWithBuffer(params.Limit), cursor)
	if err != nil {
		return page, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list movements")
	}

	return pagination.NewPage(rows, params.Limit, func(m models.StockMovement) pagination.Cursor {
		return pagination.Cursor{CreatedAt: m.CreatedAt, ID: m.ID}
	}), nil
}

// releaseReservation moves one open reservation's quantity back from reserved
// to available and closes it with the given terminal status.
func (s *service) releaseReservation(ctx context.Context, repo Repository, reservation models.Reservation, status enums.ReservationStatus) error {
	item, err := s.loadReservedItem(ctx, repo, reservation)
	if err != nil {
		return err
	}

	closed, err := repo.CloseReservation(ctx, reservation.ID, status)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "close reservation")
	}
	if !closed {
		return nil
	}

	rows, err := repo.ApplyItemDelta(ctx, item.ID, reservation.Quantity, -reservation.Quantity)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "return reserved stock")
	}
	if rows == 0 {
		return missingItemFault(reservation)
	}

	if item.ProductVariantID != nil {
		rows, err := repo.ApplyVariantDelta(ctx, *item.ProductVariantID, 0, -reservation.Quantity)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update variant cache")
		}
		if rows == 0 {
			return missingVariantFault(item)
		}
	}
	return nil
}

func (s *service) loadReservedItem(ctx context.Context, repo Repository, reservation models.Reservation) (*models.InventoryItem, error) {
	item, err := repo.FindItemByID(ctx, reservation.InventoryItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, missingItemFault(reservation)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load inventory item")
	}
	return item, nil
}

func missingItemFault(reservation models.Reservation) error {
	return pkgerrors.New(pkgerrors.CodeIntegrity, "inventory item missing for reservation").
		WithDetails(map[string]string{
			"reservation_id":    reservation.ID.String(),
			"inventory_item_id": reservation.InventoryItemID.String(),
			"order_id":          reservation.OrderID.String(),
		})
}

func missingVariantFault(item *models.InventoryItem) error {
	details := map[string]string{
		"inventory_item_id": item.ID.String(),
		"sku":               item.SKU,
	}
	if item.ProductVariantID != nil {
		details["product_variant_id"] = item.ProductVariantID.String()
	}
	return pkgerrors.New(pkgerrors.CodeIntegrity, "product variant missing for inventory item").
		WithDetails(details)
}
