package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/sellora/sellora-backend/pkg/enums"
	"gorm.io/gorm"
)

// Reservation is a claim of Quantity units against an InventoryItem on behalf
// of an order. PENDING/ACTIVE rows are reflected in the item's
// quantity_reserved; FULFILLED/CANCELLED rows are terminal.
type Reservation struct {
	ID              uuid.UUID               `gorm:"column:id;type:uuid;primaryKey"`
	OrderID         uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index"`
	InventoryItemID uuid.UUID               `gorm:"column:inventory_item_id;type:uuid;not null;index"`
	Quantity        int                     `gorm:"column:quantity;not null"`
	Status          enums.ReservationStatus `gorm:"column:status;not null;default:ACTIVE"`
	ExpiresAt       *time.Time              `gorm:"column:expires_at"`
	CreatedAt       time.Time               `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time               `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns an id when the caller did not provide one.
func (r *Reservation) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
