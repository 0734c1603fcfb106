package inventory

import "github.com/google/uuid"

// ReservationRequest asks for qty units of a SKU on behalf of an order.
type ReservationRequest struct {
	SKU string `json:"sku" validate:"required"`
	Qty int    `json:"qty" validate:"required,gt=0"`
}

// ReservationResult reports the outcome for a single requested line.
type ReservationResult struct {
	SKU           string    `json:"sku"`
	ReservationID uuid.UUID `json:"reservation_id,omitempty"`
	Reserved      bool      `json:"reserved"`
	Reason        string    `json:"reason,omitempty"`
}

// RestockInput records received stock against a SKU.
type RestockInput struct {
	SKU    string `json:"sku" validate:"required"`
	Qty    int    `json:"qty" validate:"required,gt=0"`
	Reason string `json:"reason"`
}

// StockReservedEvent is emitted once per order after a reserve call.
type StockReservedEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	ReservedLines int       `json:"reserved_lines"`
	RejectedLines int       `json:"rejected_lines"`
}

// StockFulfilledEvent is emitted when an order's reservations are consumed.
type StockFulfilledEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	Reservations  int       `json:"reservations"`
	TotalQuantity int       `json:"total_quantity"`
}

// StockReleasedEvent is emitted when an order's reservations return to stock.
type StockReleasedEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	Reservations  int       `json:"reservations"`
	TotalQuantity int       `json:"total_quantity"`
}

// StockRestockedEvent is emitted after received stock lands on the ledger.
type StockRestockedEvent struct {
	InventoryItemID uuid.UUID `json:"inventory_item_id"`
	SKU             string    `json:"sku"`
	Qty             int       `json:"qty"`
	MovementNumber  string    `json:"movement_number"`
}

// ReservationExpiredEvent is emitted when the sweeper releases a stale hold.
type ReservationExpiredEvent struct {
	ReservationID   uuid.UUID `json:"reservation_id"`
	OrderID         uuid.UUID `json:"order_id"`
	InventoryItemID uuid.UUID `json:"inventory_item_id"`
	Qty             int       `json:"qty"`
}
