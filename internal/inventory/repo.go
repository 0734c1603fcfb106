package inventory

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/sellora/sellora-backend/pkg/db/models"
	"github.com/sellora/sellora-backend/pkg/enums"
	"github.com/sellora/sellora-backend/pkg/pagination"
)

// Repository manages persistence for the stock ledger, reservations and the
// movement audit log. Quantity mutations run as single guarded UPDATE
// statements so concurrent transactions never lose writes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	FindItemByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error)
	FindItemBySKU(ctx context.Context, sku string) (*models.InventoryItem, error)

	// ReserveItemStock moves qty from available to reserved. Returns false
	// without touching the row when availability is insufficient.
	ReserveItemStock(ctx context.Context, itemID uuid.UUID, qty int) (bool, error)

	// ApplyItemDelta adjusts the ledger counters, clamping each at zero.
	// Returns the number of rows updated (zero means the item is gone).
	ApplyItemDelta(ctx context.Context, itemID uuid.UUID, availableDelta, reservedDelta int) (int64, error)

	// ApplyVariantDelta adjusts the denormalized stock cache, clamping each
	// counter at zero and recomputing available_stock from the stored values.
	// Returns the number of rows updated (zero means the variant is gone).
	ApplyVariantDelta(ctx context.Context, variantID uuid.UUID, currentDelta, reservedDelta int) (int64, error)

	FindVariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error)

	CreateReservation(ctx context.Context, reservation *models.Reservation) error
	FindOpenReservationsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Reservation, error)
	FindExpiredOpenReservations(ctx context.Context, cutoff time.Time, limit int) ([]models.Reservation, error)

	// CloseReservation transitions an open reservation into a terminal
	// status. Returns false when the row was already terminal.
	CloseReservation(ctx context.Context, reservationID uuid.UUID, status enums.ReservationStatus) (bool, error)

	CreateMovement(ctx context.Context, movement *models.StockMovement) error

	// CreateMovementIfNotExists inserts a movement unless one with the same
	// movement_number already exists. Returns false on the duplicate; the
	// conflict never aborts the surrounding transaction.
	CreateMovementIfNotExists(ctx context.Context, movement *models.StockMovement) (bool, error)
	ListMovementsByItem(ctx context.Context, itemID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.StockMovement, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an inventory repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) FindItemByID(ctx context.Context, id uuid.UUID) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) FindItemBySKU(ctx context.Context, sku string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	if err := r.db.WithContext(ctx).First(&item, "sku = ?", sku).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) ReserveItemStock(ctx context.Context, itemID uuid.UUID, qty int) (bool, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET quantity_available = quantity_available - ?,
			quantity_reserved = quantity_reserved + ?,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND quantity_available >= ?
	`, qty, qty, itemID, qty)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ApplyItemDelta(ctx context.Context, itemID uuid.UUID, availableDelta, reservedDelta int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE inventory_items
		SET quantity_available = CASE WHEN quantity_available + ? > 0 THEN quantity_available + ? ELSE 0 END,
			quantity_reserved = CASE WHEN quantity_reserved + ? > 0 THEN quantity_reserved + ? ELSE 0 END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, availableDelta, availableDelta, reservedDelta, reservedDelta, itemID)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *repository) ApplyVariantDelta(ctx context.Context, variantID uuid.UUID, currentDelta, reservedDelta int) (int64, error) {
	res := r.db.WithContext(ctx).Exec(`
		UPDATE product_variants
		SET current_stock = CASE WHEN current_stock + ? > 0 THEN current_stock + ? ELSE 0 END,
			reserved_stock = CASE WHEN reserved_stock + ? > 0 THEN reserved_stock + ? ELSE 0 END,
			updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, currentDelta, currentDelta, reservedDelta, reservedDelta, variantID)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, nil
	}

	// available_stock derives from the stored counters after the delta lands.
	if err := r.db.WithContext(ctx).Exec(`
		UPDATE product_variants
		SET available_stock = CASE WHEN current_stock > reserved_stock THEN current_stock - reserved_stock ELSE 0 END
		WHERE id = ?
	`, variantID).Error; err != nil {
		return 0, err
	}
	return res.RowsAffected, nil
}

func (r *repository) FindVariantByID(ctx context.Context, id uuid.UUID) (*models.ProductVariant, error) {
	var variant models.ProductVariant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &variant, nil
}

func (r *repository) CreateReservation(ctx context.Context, reservation *models.Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

func (r *repository) FindOpenReservationsByOrder(ctx context.Context, orderID uuid.UUID) ([]models.Reservation, error) {
	var reservations []models.Reservation
	if err := r.db.WithContext(ctx).
		Where("order_id = ? AND status IN ?", orderID, enums.OpenReservationStatuses).
		Order("created_at ASC").
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *repository) FindExpiredOpenReservations(ctx context.Context, cutoff time.Time, limit int) ([]models.Reservation, error) {
	var reservations []models.Reservation
	if err := r.db.WithContext(ctx).
		Where("status IN ? AND expires_at IS NOT NULL AND expires_at <= ?", enums.OpenReservationStatuses, cutoff).
		Order("expires_at ASC").
		Limit(limit).
		Find(&reservations).Error; err != nil {
		return nil, err
	}
	return reservations, nil
}

func (r *repository) CloseReservation(ctx context.Context, reservationID uuid.UUID, status enums.ReservationStatus) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.Reservation{}).
		Where("id = ? AND status IN ?", reservationID, enums.OpenReservationStatuses).
		Update("status", status)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) CreateMovement(ctx context.Context, movement *models.StockMovement) error {
	return r.db.WithContext(ctx).Create(movement).Error
}

func (r *repository) CreateMovementIfNotExists(ctx context.Context, movement *models.StockMovement) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "movement_number"}},
			DoNothing: true,
		}).
		Create(movement)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repository) ListMovementsByItem(ctx context.Context, itemID uuid.UUID, limit int, cursor *pagination.Cursor) ([]models.StockMovement, error) {
	query := r.db.WithContext(ctx).
		Where("inventory_item_id = ?", itemID).
		Order("created_at DESC, id DESC").
		Limit(limit)

	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var movements []models.StockMovement
	if err := query.Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}
