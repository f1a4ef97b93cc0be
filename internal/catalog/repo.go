package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Maiconloureiro96-cyber/distribuidora/internal/repo"
	"github.com/Maiconloureiro96-cyber/distribuidora/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrStockUnderflow is returned when a decrement would push stock below zero.
var ErrStockUnderflow = errors.New("stock underflow")

// Repository provides product persistence over GORM.
type Repository struct {
	repo.Base
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{Base: repo.NewBase(db)}
}

// ListActive returns every active product ordered by name.
func (r *Repository) ListActive(ctx context.Context) ([]models.Product, error) {
	var products []models.Product
	err := r.DB(ctx).
		Where("active = ?", true).
		Order("name ASC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("list active products: %w", err)
	}
	return products, nil
}

// FindByID loads one active product.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.DB(ctx).
		Where("id = ? AND active = ?", id, true).
		First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// SearchByName performs a case-insensitive partial match on product names.
func (r *Repository) SearchByName(ctx context.Context, name string) ([]models.Product, error) {
	var products []models.Product
	pattern := "%" + strings.ToLower(strings.TrimSpace(name)) + "%"
	err := r.DB(ctx).
		Where("LOWER(name) LIKE ? AND active = ?", pattern, true).
		Order("name ASC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("search products by name: %w", err)
	}
	return products, nil
}

// ListByCategory returns active products in the given category.
func (r *Repository) ListByCategory(ctx context.Context, category string) ([]models.Product, error) {
	var products []models.Product
	err := r.DB(ctx).
		Where("category = ? AND active = ?", category, true).
		Order("name ASC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("list products by category: %w", err)
	}
	return products, nil
}

// ListCategories returns the distinct non-empty categories of active products.
func (r *Repository) ListCategories(ctx context.Context) ([]string, error) {
	var categories []string
	err := r.DB(ctx).
		Model(&models.Product{}).
		Where("active = ? AND category IS NOT NULL AND category <> ''", true).
		Distinct().
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

// ListLowStock returns active products whose stock is at or below the threshold.
func (r *Repository) ListLowStock(ctx context.Context, threshold int) ([]models.Product, error) {
	var products []models.Product
	err := r.DB(ctx).
		Where("active = ? AND stock <= ?", true, threshold).
		Order("stock ASC").
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("list low stock: %w", err)
	}
	return products, nil
}

// Create inserts a new product.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if err := r.DB(ctx).Create(product).Error; err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

// SetStock overwrites the absolute stock level.
func (r *Repository) SetStock(ctx context.Context, id uuid.UUID, stock int) error {
	res := r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("stock", stock)
	if res.Error != nil {
		return fmt.Errorf("set stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// IncrementStock gives qty units back, used when orders are cancelled.
func (r *Repository) IncrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	res := r.DB(ctx).
		Model(&models.Product{}).
		Where("id = ?", id).
		Update("stock", gorm.Expr("stock + ?", qty))
	if res.Error != nil {
		return fmt.Errorf("increment stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DecrementStock reduces the stock by qty inside tx, refusing to go negative.
func (r *Repository) DecrementStock(tx *gorm.DB, id uuid.UUID, qty int) error {
	res := tx.
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		Update("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return fmt.Errorf("decrement stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: product %s", ErrStockUnderflow, id)
	}
	return nil
}
