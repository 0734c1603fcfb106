package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventoryItem is the stock ledger row for a single SKU. QuantityAvailable
// and QuantityReserved never go negative; every mutation flows through the
// reservation pipeline.
type InventoryItem struct {
	ID                uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	SKU               string          `gorm:"column:sku;not null;uniqueIndex:ux_inventory_items_sku"`
	QuantityAvailable int             `gorm:"column:quantity_available;not null;default:0"`
	QuantityReserved  int             `gorm:"column:quantity_reserved;not null;default:0"`
	ReorderLevel      int             `gorm:"column:reorder_level;not null;default:0"`
	UnitCost          decimal.Decimal `gorm:"column:unit_cost;type:numeric(12,2);not null;default:0"`
	WarehouseLocation *string         `gorm:"column:warehouse_location"`
	ProductVariantID  *uuid.UUID      `gorm:"column:product_variant_id;type:uuid"`
	Variant           *ProductVariant `gorm:"foreignKey:ProductVariantID"`
	CreatedAt         time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns an id when the caller did not provide one.
func (i *InventoryItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
