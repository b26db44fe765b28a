package repository

import (
	"context"

	"inventory-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type TemplateRepository interface {
	Create(ctx context.Context, tmpl *model.InvoiceTemplate) error
	Update(ctx context.Context, tmpl *model.InvoiceTemplate) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.InvoiceTemplate, error)
	FindDefault(ctx context.Context) (*model.InvoiceTemplate, error)
	List(ctx context.Context, page, limit int) ([]model.InvoiceTemplate, int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// ClearDefault unsets is_default on every row currently holding it.
	ClearDefault(ctx context.Context) error
}

type templateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) TemplateRepository {
	return &templateRepository{db: db}
}

func (r *templateRepository) Create(ctx context.Context, tmpl *model.InvoiceTemplate) error {
	return GetDB(ctx, r.db).Create(tmpl).Error
}

func (r *templateRepository) Update(ctx context.Context, tmpl *model.InvoiceTemplate) error {
	return GetDB(ctx, r.db).Save(tmpl).Error
}

func (r *templateRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.InvoiceTemplate, error) {
	var tmpl model.InvoiceTemplate
	if err := GetDB(ctx, r.db).First(&tmpl, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &tmpl, nil
}

func (r *templateRepository) FindDefault(ctx context.Context) (*model.InvoiceTemplate, error) {
	var tmpl model.InvoiceTemplate
	if err := GetDB(ctx, r.db).Where("is_default = ?", true).First(&tmpl).Error; err != nil {
		return nil, err
	}
	return &tmpl, nil
}

func (r *templateRepository) List(ctx context.Context, page, limit int) ([]model.InvoiceTemplate, int64, error) {
	var templates []model.InvoiceTemplate
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.InvoiceTemplate{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&templates).Error; err != nil {
		return nil, 0, err
	}

	return templates, total, nil
}

func (r *templateRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.InvoiceTemplate{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *templateRepository) ClearDefault(ctx context.Context) error {
	return GetDB(ctx, r.db).Model(&model.InvoiceTemplate{}).
		Where("is_default = ?", true).
		Update("is_default", false).Error
}
