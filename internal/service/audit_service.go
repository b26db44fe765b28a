package service

import (
	"context"
	"encoding/json"
	"time"

	"inventory-backend/internal/repository"
)

type AuditLogResponse struct {
	ID         string      `json:"id"`
	Username   string      `json:"username,omitempty"`
	Action     string      `json:"action"`
	EntityID   string      `json:"entity_id"`
	EntityName string      `json:"entity_name"`
	Details    interface{} `json:"details,omitempty"`
	CreatedAt  string      `json:"created_at"`
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, action string, page, limit int) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	auditRepo repository.AuditRepository
}

func NewAuditService(auditRepo repository.AuditRepository) AuditService {
	return &auditService{auditRepo: auditRepo}
}

func (s *auditService) GetAuditLogs(ctx context.Context, action string, page, limit int) ([]AuditLogResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	logs, total, err := s.auditRepo.List(ctx, action, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, entry := range logs {
		item := AuditLogResponse{
			ID:         entry.ID.String(),
			Action:     entry.Action,
			EntityID:   entry.EntityID,
			EntityName: entry.EntityName,
			CreatedAt:  entry.CreatedAt.Format(time.RFC3339),
		}
		if entry.User != nil {
			item.Username = entry.User.Username
		}
		if entry.Details != "" {
			var details interface{}
			if err := json.Unmarshal([]byte(entry.Details), &details); err == nil {
				item.Details = details
			} else {
				item.Details = entry.Details
			}
		}
		res = append(res, item)
	}
	return res, total, nil
}
