package repository

import (
	"context"
	"fmt"

	"inventory-backend/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PartnerRepository spans the five partner tables (vendors, suppliers,
// distributors, retailers, billed entities). Every operation dispatches over
// the closed EntityType enum; an unknown tag is an error, never ignored.
type PartnerRepository interface {
	Create(ctx context.Context, entity model.PartnerEntity) error
	Update(ctx context.Context, entity model.PartnerEntity) error
	FindByID(ctx context.Context, entityType model.EntityType, id uuid.UUID) (model.PartnerEntity, error)
	List(ctx context.Context, entityType model.EntityType, search string, page, limit int) ([]model.PartnerEntity, int64, error)
	SetApproved(ctx context.Context, entityType model.EntityType, id uuid.UUID, approved bool) error
	Deactivate(ctx context.Context, entityType model.EntityType, id uuid.UUID) error
}

type partnerRepository struct {
	db *gorm.DB
}

func NewPartnerRepository(db *gorm.DB) PartnerRepository {
	return &partnerRepository{db: db}
}

// prototype returns an empty record of the table entityType maps to.
func prototype(entityType model.EntityType) (model.PartnerEntity, error) {
	switch entityType {
	case model.EntityTypeVendor:
		return &model.Vendor{}, nil
	case model.EntityTypeSupplier:
		return &model.Supplier{}, nil
	case model.EntityTypeDistributor:
		return &model.Distributor{}, nil
	case model.EntityTypeRetailer:
		return &model.Retailer{}, nil
	case model.EntityTypeBilledEntity:
		return &model.BilledEntity{}, nil
	default:
		return nil, fmt.Errorf("unknown partner entity type: %q", entityType)
	}
}

func (r *partnerRepository) Create(ctx context.Context, entity model.PartnerEntity) error {
	return GetDB(ctx, r.db).Create(entity).Error
}

func (r *partnerRepository) Update(ctx context.Context, entity model.PartnerEntity) error {
	return GetDB(ctx, r.db).Save(entity).Error
}

func (r *partnerRepository) FindByID(ctx context.Context, entityType model.EntityType, id uuid.UUID) (model.PartnerEntity, error) {
	record, err := prototype(entityType)
	if err != nil {
		return nil, err
	}
	if err := GetDB(ctx, r.db).First(record, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return record, nil
}

func (r *partnerRepository) List(ctx context.Context, entityType model.EntityType, search string, page, limit int) ([]model.PartnerEntity, int64, error) {
	db := GetDB(ctx, r.db)
	switch entityType {
	case model.EntityTypeVendor:
		return listPartners[model.Vendor, *model.Vendor](db, search, page, limit)
	case model.EntityTypeSupplier:
		return listPartners[model.Supplier, *model.Supplier](db, search, page, limit)
	case model.EntityTypeDistributor:
		return listPartners[model.Distributor, *model.Distributor](db, search, page, limit)
	case model.EntityTypeRetailer:
		return listPartners[model.Retailer, *model.Retailer](db, search, page, limit)
	case model.EntityTypeBilledEntity:
		return listPartners[model.BilledEntity, *model.BilledEntity](db, search, page, limit)
	default:
		return nil, 0, fmt.Errorf("unknown partner entity type: %q", entityType)
	}
}

// listPartners runs the shared active-only paginated query against the table
// of T, returning rows behind the PartnerEntity interface.
func listPartners[T any, PT interface {
	*T
	model.PartnerEntity
}](db *gorm.DB, search string, page, limit int) ([]model.PartnerEntity, int64, error) {
	var total int64
	query := db.Model(new(T)).Where("is_active = ?", true)
	if search != "" {
		query = query.Where("name ILIKE ? OR company_name ILIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	var rows []T
	fetchQuery := db.Where("is_active = ?", true)
	if search != "" {
		fetchQuery = fetchQuery.Where("name ILIKE ? OR company_name ILIKE ?", "%"+search+"%", "%"+search+"%")
	}
	if err := fetchQuery.Order("created_at desc").Offset(offset).Limit(limit).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	out := make([]model.PartnerEntity, 0, len(rows))
	for i := range rows {
		out = append(out, PT(&rows[i]))
	}
	return out, total, nil
}

func (r *partnerRepository) SetApproved(ctx context.Context, entityType model.EntityType, id uuid.UUID, approved bool) error {
	record, err := prototype(entityType)
	if err != nil {
		return err
	}
	res := GetDB(ctx, r.db).Model(record).Where("id = ?", id).Update("is_approved", approved)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *partnerRepository) Deactivate(ctx context.Context, entityType model.EntityType, id uuid.UUID) error {
	record, err := prototype(entityType)
	if err != nil {
		return err
	}
	res := GetDB(ctx, r.db).Model(record).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
