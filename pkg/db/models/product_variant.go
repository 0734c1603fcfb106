package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductVariant carries the denormalized stock cache the storefront reads.
// AvailableStock is always recomputed as max(current-reserved, 0) inside the
// same transaction that touches the ledger; nothing else writes these fields.
type ProductVariant struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	ProductID      uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	Name           string    `gorm:"column:name;not null"`
	CurrentStock   int       `gorm:"column:current_stock;not null;default:0"`
	ReservedStock  int       `gorm:"column:reserved_stock;not null;default:0"`
	AvailableStock int       `gorm:"column:available_stock;not null;default:0"`
	CreatedAt      time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns an id when the caller did not provide one.
func (v *ProductVariant) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
