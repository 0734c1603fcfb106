package inventory

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sellora/sellora-backend/pkg/db/models"
	"github.com/sellora/sellora-backend/pkg/logger"
	"github.com/sellora/sellora-backend/pkg/outbox"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:inventory_" + uuid.NewString() + "?mode=memory&cache=shared"
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
	return db
}

type testTxRunner struct {
	db *gorm.DB
}

func (r testTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func newTestService(t *testing.T, db *gorm.DB) Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "inventory-test", Output: io.Discard})
	publisher := outbox.NewService(outbox.NewRepository(db), logg)
	svc, err := NewService(NewRepository(db), testTxRunner{db: db}, publisher, nil, logg, defaultTestTTL)
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func seedVariant(t *testing.T, db *gorm.DB, current, reserved int) *models.ProductVariant {
	t.Helper()
	available := current - reserved
	if available < 0 {
		available = 0
	}
	variant := models.ProductVariant{
		ProductID:      uuid.New(),
		Name:           "Default",
		CurrentStock:   current,
		ReservedStock:  reserved,
		AvailableStock: available,
	}
	if err := db.Create(&variant).Error; err != nil {
		t.Fatalf("seed variant: %v", err)
	}
	return &variant
}

func seedItem(t *testing.T, db *gorm.DB, sku string, available, reserved int, variantID *uuid.UUID) *models.InventoryItem {
	t.Helper()
	item := models.InventoryItem{
		SKU:               sku,
		QuantityAvailable: available,
		QuantityReserved:  reserved,
		ProductVariantID:  variantID,
	}
	if err := db.Create(&item).Error; err != nil {
		t.Fatalf("seed item %s: %v", sku, err)
	}
	return &item
}

func reloadItem(t *testing.T, db *gorm.DB, id uuid.UUID) models.InventoryItem {
	t.Helper()
	var item models.InventoryItem
	if err := db.First(&item, "id = ?", id).Error; err != nil {
		t.Fatalf("reload item: %v", err)
	}
	return item
}

func reloadVariant(t *testing.T, db *gorm.DB, id uuid.UUID) models.ProductVariant {
	t.Helper()
	var variant models.ProductVariant
	if err := db.First(&variant, "id = ?", id).Error; err != nil {
		t.Fatalf("reload variant: %v", err)
	}
	return variant
}

func reloadReservation(t *testing.T, db *gorm.DB, id uuid.UUID) models.Reservation {
	t.Helper()
	var reservation models.Reservation
	if err := db.First(&reservation, "id = ?", id).Error; err != nil {
		t.Fatalf("reload reservation: %v", err)
	}
	return reservation
}

func countMovements(t *testing.T, db *gorm.DB, itemID uuid.UUID) int64 {
	t.Helper()
	var count int64
	if err := db.Model(&models.StockMovement{}).Where("inventory_item_id = ?", itemID).Count(&count).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	return count
}
