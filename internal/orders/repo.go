package orders

import (
	"context"
	"time"

	"github.com/Maiconloureiro96-cyber/distribuidora/internal/repo"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/db/models"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/enums"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/pagination"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository persists orders and their items.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// Insert writes the order and its items in one create. Callers run this
// inside a transaction via the tx-bound gorm handle.
func (r *Repository) Insert(tx *gorm.DB, order *models.Order) error {
	return tx.Create(order).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).Preload("Items").First(&order, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *Repository) FindLatestByPhone(ctx context.Context, phone string) (*models.Order, error) {
	var order models.Order
	err := r.DB(ctx).
		Preload("Items").
		Where("customer_phone = ?", phone).
		Order("created_at DESC").
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *Repository) ListByPhone(ctx context.Context, phone string) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB(ctx).
		Preload("Items").
		Where("customer_phone = ?", phone).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (r *Repository) ListByStatus(ctx context.Context, status enums.OrderStatus) ([]models.Order, error) {
	var orders []models.Order
	err := r.DB(ctx).
		Preload("Items").
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

// List pages newest-first using a (created_at, id) cursor.
func (r *Repository) List(ctx context.Context, cursor *pagination.Cursor, limit int) ([]models.Order, error) {
	q := r.DB(ctx).
		Preload("Items").
		Order("created_at DESC, id DESC").
		Limit(limit)

	if cursor != nil {
		q = q.Where("(created_at < ?) OR (created_at = ? AND id < ?)", cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	var orders []models.Order
	err := q.Find(&orders).Error
	return orders, err
}

func (r *Repository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Order{}).Count(&count).Error
	return count, err
}

// UpdateStatus moves the order to the given status. deliveredAt is only
// written when non-nil.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OrderStatus, deliveredAt *time.Time) error {
	updates := map[string]any{"status": status}
	if deliveredAt != nil {
		updates["delivered_at"] = *deliveredAt
	}

	result := r.DB(ctx).Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
