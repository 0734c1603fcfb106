package orders_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sellora/sellora-backend/internal/inventory"
	"github.com/sellora/sellora-backend/internal/orders"
	"github.com/sellora/sellora-backend/pkg/db/models"
	"github.com/sellora/sellora-backend/pkg/enums"
	pkgerrors "github.com/sellora/sellora-backend/pkg/errors"
	"github.com/sellora/sellora-backend/pkg/logger"
	"github.com/sellora/sellora-backend/pkg/outbox"
)

type gormTxRunner struct {
	db *gorm.DB
}

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

type fixture struct {
	db        *gorm.DB
	orders    orders.Service
	inventory inventory.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dsn := "file:orders_" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.ProductVariant{},
		&models.InventoryItem{},
		&models.Order{},
		&models.Reservation{},
		&models.StockMovement{},
		&models.OutboxEvent{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logg := logger.New(logger.Options{ServiceName: "orders-integration-test", Output: io.Discard})
	runner := gormTxRunner{db: db}
	publisher := outbox.NewService(outbox.NewRepository(db), logg)

	engine, err := inventory.NewService(inventory.NewRepository(db), runner, publisher, nil, logg, 30*time.Minute)
	if err != nil {
		t.Fatalf("build inventory service: %v", err)
	}
	svc, err := orders.NewService(orders.NewRepository(db), runner, publisher, engine, logg)
	if err != nil {
		t.Fatalf("build orders service: %v", err)
	}

	return &fixture{db: db, orders: svc, inventory: engine}
}

func (f *fixture) seedOrderWithReservation(t *testing.T, available, qty int) (*models.Order, *models.InventoryItem) {
	t.Helper()

	item := models.InventoryItem{SKU: "SKU-" + uuid.NewString()[:8], QuantityAvailable: available}
	if err := f.db.Create(&item).Error; err != nil {
		t.Fatalf("seed item: %v", err)
	}

	order, err := f.orders.Create(context.Background(), orders.CreateOrderInput{OrderNumber: "ORD-" + uuid.NewString()[:8]})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	results, err := f.inventory.Reserve(context.Background(), order.ID, []inventory.ReservationRequest{{SKU: item.SKU, Qty: qty}})
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if !results[0].Reserved {
		t.Fatalf("seed reservation rejected: %+v", results[0])
	}
	return order, &item
}

func TestPaidOrderConsumesReservation(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	order, item := f.seedOrderWithReservation(t, 5, 3)

	if err := f.orders.ApplyPaymentStatus(ctx, order.ID, enums.PaymentStatusPaid); err != nil {
		t.Fatalf("apply paid: %v", err)
	}

	var got models.InventoryItem
	if err := f.db.First(&got, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if got.QuantityAvailable != 2 || got.QuantityReserved != 0 {
		t.Fatalf("unexpected item state: %+v", got)
	}

	var movements int64
	if err := f.db.Model(&models.StockMovement{}).Where("order_id = ?", order.ID).Count(&movements).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if movements != 1 {
		t.Fatalf("expected one movement, got %d", movements)
	}

	var reloaded models.Order
	if err := f.db.First(&reloaded, "id = ?", order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.PaymentStatus != enums.PaymentStatusPaid {
		t.Fatalf("expected PAID, got %s", reloaded.PaymentStatus)
	}
}

func TestCancelledOrderReturnsStock(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	order, item := f.seedOrderWithReservation(t, 5, 3)

	if err := f.orders.ApplyPaymentStatus(ctx, order.ID, enums.PaymentStatusCancelled); err != nil {
		t.Fatalf("apply cancelled: %v", err)
	}

	var got models.InventoryItem
	if err := f.db.First(&got, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if got.QuantityAvailable != 5 || got.QuantityReserved != 0 {
		t.Fatalf("stock not returned: %+v", got)
	}
}

func TestPaymentAndStockCommitTogether(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	order, _ := f.seedOrderWithReservation(t, 5, 3)

	// a reservation pointing at a vanished item makes fulfillment abort
	orphan := models.Reservation{
		OrderID:         order.ID,
		InventoryItemID: uuid.New(),
		Quantity:        1,
		Status:          enums.ReservationStatusActive,
	}
	if err := f.db.Create(&orphan).Error; err != nil {
		t.Fatalf("seed orphan: %v", err)
	}

	err := f.orders.ApplyPaymentStatus(ctx, order.ID, enums.PaymentStatusPaid)
	if err == nil {
		t.Fatal("expected integrity fault")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeIntegrity {
		t.Fatalf("unexpected error: %v", err)
	}

	// the status update rolled back with the stock mutation
	var reloaded models.Order
	if err := f.db.First(&reloaded, "id = ?", order.ID).Error; err != nil {
		t.Fatalf("reload order: %v", err)
	}
	if reloaded.PaymentStatus != enums.PaymentStatusPending {
		t.Fatalf("payment status leaked from aborted transaction: %s", reloaded.PaymentStatus)
	}
}

func TestDeliveredAfterPaidIsNoOpForStock(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	order, item := f.seedOrderWithReservation(t, 5, 2)

	if err := f.orders.ApplyPaymentStatus(ctx, order.ID, enums.PaymentStatusPaid); err != nil {
		t.Fatalf("apply paid: %v", err)
	}
	if err := f.orders.ApplyPaymentStatus(ctx, order.ID, enums.PaymentStatusDelivered); err != nil {
		t.Fatalf("apply delivered: %v", err)
	}

	var got models.InventoryItem
	if err := f.db.First(&got, "id = ?", item.ID).Error; err != nil {
		t.Fatalf("reload item: %v", err)
	}
	if got.QuantityAvailable != 3 || got.QuantityReserved != 0 {
		t.Fatalf("delivered transition double-consumed stock: %+v", got)
	}

	var movements int64
	if err := f.db.Model(&models.StockMovement{}).Where("order_id = ?", order.ID).Count(&movements).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if movements != 1 {
		t.Fatalf("expected exactly one movement, got %d", movements)
	}
}

func TestCreateDuplicateOrderNumberConflicts(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()

	if _, err := f.orders.Create(ctx, orders.CreateOrderInput{OrderNumber: "ORD-DUP"}); err != nil {
		t.Fatalf("create order: %v", err)
	}

	_, err := f.orders.Create(ctx, orders.CreateOrderInput{OrderNumber: "ORD-DUP"})
	if err == nil {
		t.Fatal("expected conflict")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("unexpected error: %v", err)
	}
}
