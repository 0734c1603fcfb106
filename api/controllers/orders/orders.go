package orders

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sellora/sellora-backend/api/responses"
	"github.com/sellora/sellora-backend/api/validators"
	internalorders "github.com/sellora/sellora-backend/internal/orders"
	"github.com/sellora/sellora-backend/pkg/db/models"
	"github.com/sellora/sellora-backend/pkg/enums"
	pkgerrors "github.com/sellora/sellora-backend/pkg/errors"
	"github.com/sellora/sellora-backend/pkg/logger"
)

type reservationResponse struct {
	ID              uuid.UUID               `json:"id"`
	InventoryItemID uuid.UUID               `json:"inventory_item_id"`
	Quantity        int                     `json:"quantity"`
	Status          enums.ReservationStatus `json:"status"`
	ExpiresAt       *time.Time              `json:"expires_at,omitempty"`
	CreatedAt       time.Time               `json:"created_at"`
}

type orderResponse struct {
	ID            uuid.UUID             `json:"id"`
	OrderNumber   string                `json:"order_number"`
	PaymentStatus enums.PaymentStatus   `json:"payment_status"`
	TotalAmount   decimal.Decimal       `json:"total_amount"`
	Reservations  []reservationResponse `json:"reservations,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
	UpdatedAt     time.Time             `json:"updated_at"`
}

func toOrderResponse(order *models.Order) orderResponse {
	out := orderResponse{
		ID:            order.ID,
		OrderNumber:   order.OrderNumber,
		PaymentStatus: order.PaymentStatus,
		TotalAmount:   order.TotalAmount,
		CreatedAt:     order.CreatedAt,
		UpdatedAt:     order.UpdatedAt,
	}
	for _, res := range order.Reservations {
		out.Reservations = append(out.Reservations, reservationResponse{
			ID:              res.ID,
			InventoryItemID: res.InventoryItemID,
			Quantity:        res.Quantity,
			Status:          res.Status,
			ExpiresAt:       res.ExpiresAt,
			CreatedAt:       res.CreatedAt,
		})
	}
	return out
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "orderId")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid order id")
	}
	return id, nil
}

// Create opens a new order in PENDING payment state.
func Create(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input internalorders.CreateOrderInput
		if err := validators.DecodeJSONBody(r, &input); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toOrderResponse(order))
	}
}

// Detail returns an order together with its reservations.
func Detail(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toOrderResponse(order))
	}
}

type paymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" validate:"required"`
}

// ApplyPaymentStatus moves the order's payment status; the matching stock
// transition runs in the same transaction.
func ApplyPaymentStatus(svc internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req paymentStatusRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status, err := enums.ParsePaymentStatus(req.PaymentStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid payment status"))
			return
		}

		if err := svc.ApplyPaymentStatus(r.Context(), orderID, status); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{
			"order_id":       orderID.String(),
			"payment_status": status.String(),
		})
	}
}
