package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"inventory-backend/internal/model"
	"inventory-backend/internal/repository"
	ws "inventory-backend/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreatePartnerRequest struct {
	Name          string `json:"name" binding:"required"`
	CompanyName   string `json:"company_name"`
	GSTIN         string `json:"gstin"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	Notes         string `json:"notes"` // carried onto the approval request
}

// UpdatePartnerRequest pointer fields: nil = not sent. There is deliberately
// no is_approved field — that flag belongs to the approval workflow.
type UpdatePartnerRequest struct {
	Name          *string `json:"name"`
	CompanyName   *string `json:"company_name"`
	GSTIN         *string `json:"gstin"`
	ContactPerson *string `json:"contact_person"`
	Phone         *string `json:"phone"`
	Email         *string `json:"email"`
	Address       *string `json:"address"`
}

type PartnerResponse struct {
	ID            string `json:"id"`
	EntityType    string `json:"entity_type"`
	Name          string `json:"name"`
	CompanyName   string `json:"company_name"`
	GSTIN         string `json:"gstin"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	IsApproved    bool   `json:"is_approved"`
	IsActive      bool   `json:"is_active"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
}

type CreatePartnerResult struct {
	Partner           PartnerResponse `json:"partner"`
	ApprovalRequestID string          `json:"approval_request_id"`
}

// --- Interface ---

// PartnerService manages the five partner kinds. Creation always leaves the
// new row unapproved and opens a pending approval request in the same
// database transaction, so a partner without a request cannot exist.
type PartnerService interface {
	CreatePartner(ctx context.Context, entityType model.EntityType, userID string, req CreatePartnerRequest) (CreatePartnerResult, error)
	UpdatePartner(ctx context.Context, entityType model.EntityType, id string, req UpdatePartnerRequest) (PartnerResponse, error)
	DeletePartner(ctx context.Context, entityType model.EntityType, id string) error
	GetPartner(ctx context.Context, entityType model.EntityType, id string) (PartnerResponse, error)
	GetPartners(ctx context.Context, entityType model.EntityType, search string, page, limit int) ([]PartnerResponse, int64, error)
}

type partnerService struct {
	partnerRepo  repository.PartnerRepository
	approvalRepo repository.ApprovalRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	publisher    ws.Publisher
}

func NewPartnerService(
	partnerRepo repository.PartnerRepository,
	approvalRepo repository.ApprovalRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	publisher ws.Publisher,
) PartnerService {
	return &partnerService{
		partnerRepo:  partnerRepo,
		approvalRepo: approvalRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		publisher:    publisher,
	}
}

// wireTag is the lowercase entity tag used in websocket events and routes.
func wireTag(entityType model.EntityType) string {
	switch entityType {
	case model.EntityTypeVendor:
		return "vendor"
	case model.EntityTypeSupplier:
		return "supplier"
	case model.EntityTypeDistributor:
		return "distributor"
	case model.EntityTypeRetailer:
		return "retailer"
	case model.EntityTypeBilledEntity:
		return "billed_entity"
	default:
		return "partner"
	}
}

func newPartnerRecord(entityType model.EntityType) (model.PartnerEntity, error) {
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

func toPartnerResponse(e model.PartnerEntity) PartnerResponse {
	p := e.Profile()
	return PartnerResponse{
		ID:            p.ID.String(),
		EntityType:    string(e.EntityType()),
		Name:          p.Name,
		CompanyName:   p.CompanyName,
		GSTIN:         p.GSTIN,
		ContactPerson: p.ContactPerson,
		Phone:         p.Phone,
		Email:         p.Email,
		Address:       p.Address,
		IsApproved:    p.IsApproved,
		IsActive:      p.IsActive,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     p.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *partnerService) CreatePartner(ctx context.Context, entityType model.EntityType, userID string, req CreatePartnerRequest) (CreatePartnerResult, error) {
	entity, err := newPartnerRecord(entityType)
	if err != nil {
		return CreatePartnerResult{}, err
	}

	if req.Email != "" {
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return CreatePartnerResult{}, fmt.Errorf("invalid email format")
		}
	}

	profile := entity.Profile()
	profile.Name = req.Name
	profile.CompanyName = req.CompanyName
	profile.GSTIN = req.GSTIN
	profile.ContactPerson = req.ContactPerson
	profile.Phone = req.Phone
	profile.Email = req.Email
	profile.Address = req.Address
	// Lifecycle defaults regardless of anything the caller sent
	profile.IsApproved = false
	profile.IsActive = true

	var requesterID *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		requesterID = &parsed
	}

	approval := &model.ApprovalRequest{
		EntityType:  entityType,
		Status:      model.ApprovalPending,
		Notes:       req.Notes,
		RequestedBy: requesterID,
	}

	// Partner row + approval request + audit commit or fail together, so no
	// request-less partner can be left behind.
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.partnerRepo.Create(txCtx, entity); err != nil {
			return fmt.Errorf("failed to create %s: %w", wireTag(entityType), err)
		}

		approval.EntityID = profile.ID
		if err := s.approvalRepo.Create(txCtx, approval); err != nil {
			return fmt.Errorf("failed to create approval request: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"entity_type":         entityType,
			"approval_request_id": approval.ID.String(),
		})
		audit := &model.AuditLog{
			UserID:     requesterID,
			Action:     model.ActionCreatePartner,
			EntityID:   profile.ID.String(),
			EntityName: profile.Name,
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		return nil
	})
	if err != nil {
		return CreatePartnerResult{}, err
	}

	res := CreatePartnerResult{
		Partner:           toPartnerResponse(entity),
		ApprovalRequestID: approval.ID.String(),
	}
	s.publisher.Publish(wireTag(entityType), ws.ActionCreated, res.Partner)
	s.publisher.Publish("approval", ws.ActionCreated, map[string]interface{}{
		"id":          approval.ID.String(),
		"entity_type": entityType,
		"entity_id":   profile.ID.String(),
		"status":      approval.Status,
	})
	return res, nil
}

func (s *partnerService) UpdatePartner(ctx context.Context, entityType model.EntityType, id string, req UpdatePartnerRequest) (PartnerResponse, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return PartnerResponse{}, fmt.Errorf("invalid %s id", wireTag(entityType))
	}

	entity, err := s.partnerRepo.FindByID(ctx, entityType, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PartnerResponse{}, fmt.Errorf("%s not found", wireTag(entityType))
		}
		return PartnerResponse{}, err
	}

	profile := entity.Profile()
	if req.Name != nil {
		if *req.Name == "" {
			return PartnerResponse{}, fmt.Errorf("name cannot be empty")
		}
		profile.Name = *req.Name
	}
	if req.Email != nil && *req.Email != "" {
		if _, err := mail.ParseAddress(*req.Email); err != nil {
			return PartnerResponse{}, fmt.Errorf("invalid email format")
		}
		profile.Email = *req.Email
	} else if req.Email != nil {
		profile.Email = ""
	}
	if req.CompanyName != nil {
		profile.CompanyName = *req.CompanyName
	}
	if req.GSTIN != nil {
		profile.GSTIN = *req.GSTIN
	}
	if req.ContactPerson != nil {
		profile.ContactPerson = *req.ContactPerson
	}
	if req.Phone != nil {
		profile.Phone = *req.Phone
	}
	if req.Address != nil {
		profile.Address = *req.Address
	}

	if err := s.partnerRepo.Update(ctx, entity); err != nil {
		return PartnerResponse{}, fmt.Errorf("failed to update %s: %w", wireTag(entityType), err)
	}

	res := toPartnerResponse(entity)
	s.publisher.Publish(wireTag(entityType), ws.ActionUpdated, res)
	return res, nil
}

func (s *partnerService) DeletePartner(ctx context.Context, entityType model.EntityType, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid %s id", wireTag(entityType))
	}

	if err := s.partnerRepo.Deactivate(ctx, entityType, uid); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("%s not found", wireTag(entityType))
		}
		return err
	}

	s.publisher.Publish(wireTag(entityType), ws.ActionDeleted, map[string]interface{}{"id": id})
	return nil
}

func (s *partnerService) GetPartner(ctx context.Context, entityType model.EntityType, id string) (PartnerResponse, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return PartnerResponse{}, fmt.Errorf("invalid %s id", wireTag(entityType))
	}

	entity, err := s.partnerRepo.FindByID(ctx, entityType, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PartnerResponse{}, fmt.Errorf("%s not found", wireTag(entityType))
		}
		return PartnerResponse{}, err
	}
	return toPartnerResponse(entity), nil
}

func (s *partnerService) GetPartners(ctx context.Context, entityType model.EntityType, search string, page, limit int) ([]PartnerResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	partners, total, err := s.partnerRepo.List(ctx, entityType, search, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]PartnerResponse, 0, len(partners))
	for _, p := range partners {
		res = append(res, toPartnerResponse(p))
	}
	return res, total, nil
}
