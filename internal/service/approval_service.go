package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"inventory-backend/internal/model"
	"inventory-backend/internal/repository"
	ws "inventory-backend/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrAlreadyDecided is returned when a decision is attempted on a request
// that is no longer PENDING.
var ErrAlreadyDecided = errors.New("approval request is already decided")

type DecideApprovalRequest struct {
	Approve bool   `json:"approve"`
	Notes   string `json:"notes"`
}

type ApprovalResponse struct {
	ID          string  `json:"id"`
	EntityType  string  `json:"entity_type"`
	EntityID    string  `json:"entity_id"`
	Status      string  `json:"status"`
	Notes       string  `json:"notes"`
	RequestedBy *string `json:"requested_by,omitempty"`
	Requester   string  `json:"requester,omitempty"`
	DecidedBy   *string `json:"decided_by,omitempty"`
	Decider     string  `json:"decider,omitempty"`
	DecidedAt   *string `json:"decided_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

// ApprovalService decides pending approval requests. A decision is terminal:
// once a request leaves PENDING it can never be decided again, and approving
// it flips is_approved on exactly the partner row the request points at.
type ApprovalService interface {
	GetApprovals(ctx context.Context, status string, page, limit int) ([]ApprovalResponse, int64, error)
	GetApproval(ctx context.Context, id string) (ApprovalResponse, error)
	Decide(ctx context.Context, id, userID string, req DecideApprovalRequest) (ApprovalResponse, error)
}

type approvalService struct {
	approvalRepo repository.ApprovalRepository
	partnerRepo  repository.PartnerRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	publisher    ws.Publisher
}

func NewApprovalService(
	approvalRepo repository.ApprovalRepository,
	partnerRepo repository.PartnerRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	publisher ws.Publisher,
) ApprovalService {
	return &approvalService{
		approvalRepo: approvalRepo,
		partnerRepo:  partnerRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		publisher:    publisher,
	}
}

func toApprovalResponse(r *model.ApprovalRequest) ApprovalResponse {
	res := ApprovalResponse{
		ID:         r.ID.String(),
		EntityType: string(r.EntityType),
		EntityID:   r.EntityID.String(),
		Status:     r.Status,
		Notes:      r.Notes,
		CreatedAt:  r.CreatedAt.Format(time.RFC3339),
	}
	if r.RequestedBy != nil {
		id := r.RequestedBy.String()
		res.RequestedBy = &id
	}
	if r.Requester != nil {
		res.Requester = r.Requester.Username
	}
	if r.DecidedBy != nil {
		id := r.DecidedBy.String()
		res.DecidedBy = &id
	}
	if r.Decider != nil {
		res.Decider = r.Decider.Username
	}
	if r.DecidedAt != nil {
		at := r.DecidedAt.Format(time.RFC3339)
		res.DecidedAt = &at
	}
	return res
}

func (s *approvalService) GetApprovals(ctx context.Context, status string, page, limit int) ([]ApprovalResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if status != "" && status != model.ApprovalPending && status != model.ApprovalApproved && status != model.ApprovalRejected {
		return nil, 0, fmt.Errorf("invalid approval status filter: %q", status)
	}

	requests, total, err := s.approvalRepo.List(ctx, status, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]ApprovalResponse, 0, len(requests))
	for i := range requests {
		res = append(res, toApprovalResponse(&requests[i]))
	}
	return res, total, nil
}

func (s *approvalService) GetApproval(ctx context.Context, id string) (ApprovalResponse, error) {
	reqID, err := uuid.Parse(id)
	if err != nil {
		return ApprovalResponse{}, fmt.Errorf("invalid approval request id")
	}

	request, err := s.approvalRepo.FindByIDWithRelations(ctx, reqID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ApprovalResponse{}, errors.New("approval request not found")
		}
		return ApprovalResponse{}, err
	}
	return toApprovalResponse(request), nil
}

func (s *approvalService) Decide(ctx context.Context, id, userID string, req DecideApprovalRequest) (ApprovalResponse, error) {
	reqID, err := uuid.Parse(id)
	if err != nil {
		return ApprovalResponse{}, fmt.Errorf("invalid approval request id")
	}

	var deciderID *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		deciderID = &parsed
	}

	var decided *model.ApprovalRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		// Row lock serializes concurrent decisions on the same request.
		request, err := s.approvalRepo.FindByIDForUpdate(txCtx, reqID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("approval request not found")
			}
			return err
		}

		if request.Status != model.ApprovalPending {
			return fmt.Errorf("%w: %s", ErrAlreadyDecided, request.Status)
		}

		now := time.Now()
		action := model.ActionRejectRequest
		if req.Approve {
			request.Status = model.ApprovalApproved
			action = model.ActionApproveRequest
			// Rejection leaves the partner row untouched; only approval
			// mutates it.
			if err := s.partnerRepo.SetApproved(txCtx, request.EntityType, request.EntityID, true); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%s %s no longer exists", wireTag(request.EntityType), request.EntityID)
				}
				return fmt.Errorf("failed to approve %s: %w", wireTag(request.EntityType), err)
			}
		} else {
			request.Status = model.ApprovalRejected
		}
		if req.Notes != "" {
			request.Notes = req.Notes
		}
		request.DecidedBy = deciderID
		request.DecidedAt = &now

		if err := s.approvalRepo.Update(txCtx, request); err != nil {
			return fmt.Errorf("failed to update approval request: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"entity_type": request.EntityType,
			"entity_id":   request.EntityID.String(),
			"status":      request.Status,
		})
		audit := &model.AuditLog{
			UserID:     deciderID,
			Action:     action,
			EntityID:   request.ID.String(),
			EntityName: string(request.EntityType),
			Details:    string(details),
		}
		if err := s.auditRepo.Log(txCtx, audit); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}

		decided = request
		return nil
	})
	if err != nil {
		return ApprovalResponse{}, err
	}

	// Reload with user relations for the response; fall back to the locked
	// copy if the read fails.
	if full, err := s.approvalRepo.FindByIDWithRelations(ctx, reqID); err == nil {
		decided = full
	}

	res := toApprovalResponse(decided)
	s.publisher.Publish("approval", ws.ActionUpdated, res)
	if decided.Status == model.ApprovalApproved {
		s.publisher.Publish(wireTag(decided.EntityType), ws.ActionUpdated, map[string]interface{}{
			"id":          decided.EntityID.String(),
			"is_approved": true,
		})
	}
	return res, nil
}
