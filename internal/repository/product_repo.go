package repository

import (
	"context"
	"errors"

	"inventory-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrInsufficientStock is returned by AdjustStock when the floor guard keeps
// a negative delta from driving stock below zero.
var ErrInsufficientStock = errors.New("insufficient stock")

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Deactivate(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindBySKU(ctx context.Context, sku string) (*model.Product, error)
	List(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error)
	Count(ctx context.Context) (int64, error)

	// AdjustStock applies delta as a store-side "current_stock = current_stock + ?"
	// update and returns the row as it is after the update. With enforceFloor
	// set, a delta that would take stock below zero matches no row and the
	// call fails with ErrInsufficientStock.
	AdjustStock(ctx context.Context, id uuid.UUID, delta int, enforceFloor bool) (*model.Product, error)

	LowStockBelow(ctx context.Context, threshold int) ([]model.Product, error)
	LowStockBelowMin(ctx context.Context) ([]model.Product, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Save(product).Error
}

func (r *productRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Model(&model.Product{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Where("sku = ?", sku).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Product{}).Where("is_active = ?", true)
	if search != "" {
		query = query.Where("name ILIKE ? OR sku ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Where("is_active = ?", true)
	if search != "" {
		fetchQuery = fetchQuery.Where("name ILIKE ? OR sku ILIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if err := fetchQuery.Order("created_at desc").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *productRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := GetDB(ctx, r.db).Model(&model.Product{}).Where("is_active = ?", true).Count(&total).Error
	return total, err
}

func (r *productRepository) AdjustStock(ctx context.Context, id uuid.UUID, delta int, enforceFloor bool) (*model.Product, error) {
	db := GetDB(ctx, r.db)

	query := db.Model(&model.Product{}).Where("id = ? AND is_active = ?", id, true)
	if enforceFloor && delta < 0 {
		query = query.Where("current_stock + ? >= 0", delta)
	}

	res := query.UpdateColumn("current_stock", gorm.Expr("current_stock + ?", delta))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Distinguish a missing product from a guarded one
		var exists int64
		if err := db.Model(&model.Product{}).Where("id = ? AND is_active = ?", id, true).Count(&exists).Error; err != nil {
			return nil, err
		}
		if exists == 0 {
			return nil, gorm.ErrRecordNotFound
		}
		return nil, ErrInsufficientStock
	}

	var product model.Product
	if err := db.First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) LowStockBelow(ctx context.Context, threshold int) ([]model.Product, error) {
	var products []model.Product
	err := GetDB(ctx, r.db).
		Where("is_active = ? AND current_stock <= ?", true, threshold).
		Order("current_stock asc").
		Find(&products).Error
	return products, err
}

func (r *productRepository) LowStockBelowMin(ctx context.Context) ([]model.Product, error) {
	var products []model.Product
	err := GetDB(ctx, r.db).
		Where("is_active = ? AND current_stock <= min_stock", true).
		Order("current_stock asc").
		Find(&products).Error
	return products, err
}
