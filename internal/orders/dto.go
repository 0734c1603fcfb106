package orders

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sellora/sellora-backend/pkg/enums"
)

// CreateOrderInput carries the fields needed to open an order.
type CreateOrderInput struct {
	OrderNumber string          `json:"order_number" validate:"required"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// PaymentStatusChangedEvent is emitted whenever an order's payment status moves.
type PaymentStatusChangedEvent struct {
	OrderID              uuid.UUID           `json:"order_id"`
	From                 enums.PaymentStatus `json:"from"`
	To                   enums.PaymentStatus `json:"to"`
	ReservationsAffected int                 `json:"reservations_affected"`
}
