package inventory

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sellora/sellora-backend/api/responses"
	"github.com/sellora/sellora-backend/api/validators"
	internalinventory "github.com/sellora/sellora-backend/internal/inventory"
	"github.com/sellora/sellora-backend/pkg/db/models"
	"github.com/sellora/sellora-backend/pkg/enums"
	pkgerrors "github.com/sellora/sellora-backend/pkg/errors"
	"github.com/sellora/sellora-backend/pkg/logger"
	"github.com/sellora/sellora-backend/pkg/pagination"
)

type itemResponse struct {
	ID                uuid.UUID `json:"id"`
	SKU               string    `json:"sku"`
	QuantityAvailable int       `json:"quantity_available"`
	QuantityReserved  int       `json:"quantity_reserved"`
	ReorderLevel      int       `json:"reorder_level"`
	WarehouseLocation *string   `json:"warehouse_location,omitempty"`
	UpdatedAt         time.Time `json:"updated_at"`
}

func toItemResponse(item *models.InventoryItem) itemResponse {
	return itemResponse{
		ID:                item.ID,
		SKU:               item.SKU,
		QuantityAvailable: item.QuantityAvailable,
		QuantityReserved:  item.QuantityReserved,
		ReorderLevel:      item.ReorderLevel,
		WarehouseLocation: item.WarehouseLocation,
		UpdatedAt:         item.UpdatedAt,
	}
}

// GetItem returns the ledger row for a SKU.
func GetItem(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sku := strings.TrimSpace(chi.URLParam(r, "sku"))

		item, err := svc.GetItemBySKU(r.Context(), sku)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toItemResponse(item))
	}
}

type movementResponse struct {
	ID             uuid.UUID          `json:"id"`
	MovementNumber string             `json:"movement_number"`
	OrderID        *uuid.UUID         `json:"order_id,omitempty"`
	Type           enums.MovementType `json:"type"`
	Quantity       int                `json:"quantity"`
	Reason         *string            `json:"reason,omitempty"`
	CreatedAt      time.Time          `json:"created_at"`
}

func toMovementResponse(m models.StockMovement) movementResponse {
	return movementResponse{
		ID:             m.ID,
		MovementNumber: m.MovementNumber,
		OrderID:        m.OrderID,
		Type:           m.Type,
		Quantity:       m.Quantity,
		Reason:         m.Reason,
		CreatedAt:      m.CreatedAt,
	}
}

// ListMovements returns the movement audit page for a SKU, newest first.
func ListMovements(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sku := strings.TrimSpace(chi.URLParam(r, "sku"))

		item, err := svc.GetItemBySKU(r.Context(), sku)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		page, err := svc.ListMovements(r.Context(), item.ID, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := pagination.Page[movementResponse]{NextCursor: page.NextCursor}
		out.Items = make([]movementResponse, 0, len(page.Items))
		for _, m := range page.Items {
			out.Items = append(out.Items, toMovementResponse(m))
		}
		responses.WriteSuccess(w, out)
	}
}

type restockRequest struct {
	Qty    int    `json:"qty" validate:"required,gt=0"`
	Reason string `json:"reason"`
}

// Restock records received stock against a SKU.
func Restock(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sku := strings.TrimSpace(chi.URLParam(r, "sku"))

		var req restockRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movement, err := svc.Restock(r.Context(), internalinventory.RestockInput{
			SKU:    sku,
			Qty:    req.Qty,
			Reason: req.Reason,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toMovementResponse(*movement))
	}
}

type reserveRequest struct {
	OrderID uuid.UUID                              `json:"order_id" validate:"required"`
	Lines   []internalinventory.ReservationRequest `json:"lines" validate:"required,min=1,dive"`
}

// Reserve places holds for an order's lines. Lines are accepted or rejected
// independently; the response reports each outcome.
func Reserve(svc internalinventory.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reserveRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if req.OrderID == uuid.Nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "order id required"))
			return
		}

		results, err := svc.Reserve(r.Context(), req.OrderID, req.Lines)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"results": results})
	}
}
