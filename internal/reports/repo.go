package reports

import (
	"context"
	"time"

	"github.com/Maiconloureiro96-cyber/distribuidora/internal/repo"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/db/models"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/enums"
	"gorm.io/gorm"
)

// Repository reads order data for aggregation.
type Repository struct {
	repo.Base
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// OrdersInRange loads orders created within [from, to], optionally filtered
// to the given statuses, items preloaded.
func (r *Repository) OrdersInRange(ctx context.Context, from, to time.Time, statuses []enums.OrderStatus) ([]models.Order, error) {
	q := r.DB(ctx).
		Preload("Items").
		Where("created_at >= ? AND created_at <= ?", from, to)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}

	var orders []models.Order
	err := q.Order("created_at ASC").Find(&orders).Error
	return orders, err
}

// OrdersWithItems loads all orders in the given statuses with their items.
func (r *Repository) OrdersWithItems(ctx context.Context, statuses []enums.OrderStatus) ([]models.Order, error) {
	q := r.DB(ctx).Preload("Items")
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}

	var orders []models.Order
	err := q.Find(&orders).Error
	return orders, err
}

func (r *Repository) CountOrders(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Order{}).Count(&count).Error
	return count, err
}

func (r *Repository) CountActiveProducts(ctx context.Context) (int64, error) {
	var count int64
	err := r.DB(ctx).Model(&models.Product{}).Where("active = ?", true).Count(&count).Error
	return count, err
}

// StatusCounts groups orders by status.
func (r *Repository) StatusCounts(ctx context.Context) (map[enums.OrderStatus]int64, error) {
	type row struct {
		Status enums.OrderStatus
		Count  int64
	}
	var rows []row
	err := r.DB(ctx).
		Model(&models.Order{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	counts := make(map[enums.OrderStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
