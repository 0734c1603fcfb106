package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/sellora/sellora-backend/pkg/enums"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Order is the aggregate the payment lifecycle attaches to. The reservation
// engine only ever reads it to decide which transition applies.
type Order struct {
	ID            uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	OrderNumber   string              `gorm:"column:order_number;not null;uniqueIndex:ux_orders_order_number"`
	PaymentStatus enums.PaymentStatus `gorm:"column:payment_status;not null;default:PENDING"`
	TotalAmount   decimal.Decimal     `gorm:"column:total_amount;type:numeric(12,2);not null;default:0"`
	Reservations  []Reservation       `gorm:"foreignKey:OrderID"`
	CreatedAt     time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns an id when the caller did not provide one.
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}
