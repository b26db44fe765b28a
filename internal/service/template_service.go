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

type CreateTemplateRequest struct {
	Name      string `json:"name" binding:"required"`
	Body      string `json:"body" binding:"required"`
	IsDefault bool   `json:"is_default"`
}

type UpdateTemplateRequest struct {
	Name      *string `json:"name"`
	Body      *string `json:"body"`
	IsDefault *bool   `json:"is_default"`
}

type TemplateResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Body      string `json:"body"`
	IsDefault bool   `json:"is_default"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// TemplateService manages invoice templates. Setting a template as default
// clears the flag everywhere else first, in the same transaction, so at most
// one default ever exists. Clearing a default directly (is_default=false) is
// allowed and leaves the table with no default.
type TemplateService interface {
	CreateTemplate(ctx context.Context, userID string, req CreateTemplateRequest) (TemplateResponse, error)
	UpdateTemplate(ctx context.Context, id, userID string, req UpdateTemplateRequest) (TemplateResponse, error)
	DeleteTemplate(ctx context.Context, id string) error
	GetTemplate(ctx context.Context, id string) (TemplateResponse, error)
	GetDefaultTemplate(ctx context.Context) (TemplateResponse, error)
	GetTemplates(ctx context.Context, page, limit int) ([]TemplateResponse, int64, error)
}

type templateService struct {
	templateRepo repository.TemplateRepository
	auditRepo    repository.AuditRepository
	txManager    repository.TransactionManager
	publisher    ws.Publisher
}

func NewTemplateService(
	templateRepo repository.TemplateRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	publisher ws.Publisher,
) TemplateService {
	return &templateService{
		templateRepo: templateRepo,
		auditRepo:    auditRepo,
		txManager:    txManager,
		publisher:    publisher,
	}
}

func toTemplateResponse(t *model.InvoiceTemplate) TemplateResponse {
	return TemplateResponse{
		ID:        t.ID.String(),
		Name:      t.Name,
		Body:      t.Body,
		IsDefault: t.IsDefault,
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
		UpdatedAt: t.UpdatedAt.Format(time.RFC3339),
	}
}

func (s *templateService) auditDefaultChange(ctx context.Context, userID string, tmpl *model.InvoiceTemplate) error {
	var actorID *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		actorID = &parsed
	}
	details, _ := json.Marshal(map[string]interface{}{"name": tmpl.Name})
	return s.auditRepo.Log(ctx, &model.AuditLog{
		UserID:     actorID,
		Action:     model.ActionSetDefaultTmpl,
		EntityID:   tmpl.ID.String(),
		EntityName: tmpl.Name,
		Details:    string(details),
	})
}

func (s *templateService) CreateTemplate(ctx context.Context, userID string, req CreateTemplateRequest) (TemplateResponse, error) {
	tmpl := &model.InvoiceTemplate{
		Name:      req.Name,
		Body:      req.Body,
		IsDefault: req.IsDefault,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if req.IsDefault {
			if err := s.templateRepo.ClearDefault(txCtx); err != nil {
				return fmt.Errorf("failed to clear default template: %w", err)
			}
		}
		if err := s.templateRepo.Create(txCtx, tmpl); err != nil {
			return fmt.Errorf("failed to create template: %w", err)
		}
		if req.IsDefault {
			return s.auditDefaultChange(txCtx, userID, tmpl)
		}
		return nil
	})
	if err != nil {
		return TemplateResponse{}, err
	}

	res := toTemplateResponse(tmpl)
	s.publisher.Publish("invoice_template", ws.ActionCreated, res)
	return res, nil
}

func (s *templateService) UpdateTemplate(ctx context.Context, id, userID string, req UpdateTemplateRequest) (TemplateResponse, error) {
	tmplID, err := uuid.Parse(id)
	if err != nil {
		return TemplateResponse{}, fmt.Errorf("invalid template id")
	}

	var updated *model.InvoiceTemplate
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		tmpl, err := s.templateRepo.FindByID(txCtx, tmplID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("template not found")
			}
			return err
		}

		if req.Name != nil {
			if *req.Name == "" {
				return errors.New("name cannot be empty")
			}
			tmpl.Name = *req.Name
		}
		if req.Body != nil {
			tmpl.Body = *req.Body
		}

		becameDefault := req.IsDefault != nil && *req.IsDefault && !tmpl.IsDefault
		if req.IsDefault != nil {
			if *req.IsDefault {
				// Clear-then-set inside the transaction keeps the
				// single-default invariant under concurrency.
				if err := s.templateRepo.ClearDefault(txCtx); err != nil {
					return fmt.Errorf("failed to clear default template: %w", err)
				}
			}
			tmpl.IsDefault = *req.IsDefault
		}

		if err := s.templateRepo.Update(txCtx, tmpl); err != nil {
			return fmt.Errorf("failed to update template: %w", err)
		}
		if becameDefault {
			if err := s.auditDefaultChange(txCtx, userID, tmpl); err != nil {
				return err
			}
		}

		updated = tmpl
		return nil
	})
	if err != nil {
		return TemplateResponse{}, err
	}

	res := toTemplateResponse(updated)
	s.publisher.Publish("invoice_template", ws.ActionUpdated, res)
	return res, nil
}

func (s *templateService) DeleteTemplate(ctx context.Context, id string) error {
	tmplID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid template id")
	}

	if err := s.templateRepo.Delete(ctx, tmplID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("template not found")
		}
		return fmt.Errorf("failed to delete template: %w", err)
	}

	s.publisher.Publish("invoice_template", ws.ActionDeleted, map[string]interface{}{"id": id})
	return nil
}

func (s *templateService) GetTemplate(ctx context.Context, id string) (TemplateResponse, error) {
	tmplID, err := uuid.Parse(id)
	if err != nil {
		return TemplateResponse{}, fmt.Errorf("invalid template id")
	}

	tmpl, err := s.templateRepo.FindByID(ctx, tmplID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TemplateResponse{}, errors.New("template not found")
		}
		return TemplateResponse{}, err
	}
	return toTemplateResponse(tmpl), nil
}

func (s *templateService) GetDefaultTemplate(ctx context.Context) (TemplateResponse, error) {
	tmpl, err := s.templateRepo.FindDefault(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return TemplateResponse{}, errors.New("no default template set")
		}
		return TemplateResponse{}, err
	}
	return toTemplateResponse(tmpl), nil
}

func (s *templateService) GetTemplates(ctx context.Context, page, limit int) ([]TemplateResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	templates, total, err := s.templateRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]TemplateResponse, 0, len(templates))
	for i := range templates {
		res = append(res, toTemplateResponse(&templates[i]))
	}
	return res, total, nil
}
