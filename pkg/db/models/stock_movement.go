package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/sellora/sellora-backend/pkg/enums"
	"gorm.io/gorm"
)

// StockMovement is an append-only audit entry for a stock-affecting event.
// MovementNumber is deterministic for fulfillment ("OUT-<reservation id>") so
// the unique index makes re-runs insert nothing.
type StockMovement struct {
	ID              uuid.UUID          `gorm:"column:id;type:uuid;primaryKey"`
	MovementNumber  string             `gorm:"column:movement_number;not null;uniqueIndex:ux_stock_movements_number"`
	InventoryItemID uuid.UUID          `gorm:"column:inventory_item_id;type:uuid;not null;index"`
	OrderID         *uuid.UUID         `gorm:"column:order_id;type:uuid;index"`
	Type            enums.MovementType `gorm:"column:movement_type;not null"`
	Quantity        int                `gorm:"column:quantity;not null"`
	Reason          *string            `gorm:"column:reason"`
	CreatedAt       time.Time          `gorm:"column:created_at;autoCreateTime"`
}

// BeforeCreate assigns an id when the caller did not provide one.
func (m *StockMovement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
