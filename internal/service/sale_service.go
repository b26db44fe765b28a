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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type SaleItemRequest struct {
	ProductID string  `json:"product_id" binding:"required"`
	Quantity  int     `json:"quantity" binding:"required,min=1"`
	UnitPrice float64 `json:"unit_price" binding:"required,min=0"`
	TaxRate   float64 `json:"tax_rate" binding:"min=0"`
}

type CreateSaleRequest struct {
	SaleNo         string            `json:"sale_no" binding:"required"`
	RetailerID     string            `json:"retailer_id" binding:"required"`
	BilledEntityID string            `json:"billed_entity_id" binding:"required"`
	Items          []SaleItemRequest `json:"items" binding:"required,min=1,dive"`
	Note           string            `json:"note"`
}

// UpdateSaleRequest mirrors UpdatePurchaseRequest: status fields only, items
// are immutable once the stock deltas have been applied.
type UpdateSaleRequest struct {
	Status        *string `json:"status"`
	PaymentStatus *string `json:"payment_status"`
}

type SaleItemResponse struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	TaxRate   float64 `json:"tax_rate"`
}

type SaleResponse struct {
	ID               string             `json:"id"`
	SaleNo           string             `json:"sale_no"`
	RetailerID       string             `json:"retailer_id"`
	RetailerName     string             `json:"retailer_name,omitempty"`
	BilledEntityID   string             `json:"billed_entity_id"`
	BilledEntityName string             `json:"billed_entity_name,omitempty"`
	Items            []SaleItemResponse `json:"items"`
	TotalAmount      string             `json:"total_amount"`
	TotalTax         string             `json:"total_tax"`
	Status           string             `json:"status"`
	PaymentStatus    string             `json:"payment_status"`
	Note             string             `json:"note"`
	CreatedAt        string             `json:"created_at"`
}

// SaleService records outbound stock. A sale names two counterparties: the
// retailer receiving goods and the billed entity invoiced for them. Creation
// decrements stock per line inside one transaction and fails whole if any
// line would cross the stock floor.
type SaleService interface {
	CreateSale(ctx context.Context, userID string, req CreateSaleRequest) (SaleResponse, error)
	UpdateSale(ctx context.Context, id string, req UpdateSaleRequest) (SaleResponse, error)
	DeleteSale(ctx context.Context, id, userID string) error
	GetSale(ctx context.Context, id string) (SaleResponse, error)
	GetSales(ctx context.Context, page, limit int) ([]SaleResponse, int64, error)
}

type saleService struct {
	saleRepo    repository.SaleRepository
	partnerRepo repository.PartnerRepository
	auditRepo   repository.AuditRepository
	stock       StockService
	txManager   repository.TransactionManager
	publisher   ws.Publisher
}

func NewSaleService(
	saleRepo repository.SaleRepository,
	partnerRepo repository.PartnerRepository,
	auditRepo repository.AuditRepository,
	stock StockService,
	txManager repository.TransactionManager,
	publisher ws.Publisher,
) SaleService {
	return &saleService{
		saleRepo:    saleRepo,
		partnerRepo: partnerRepo,
		auditRepo:   auditRepo,
		stock:       stock,
		txManager:   txManager,
		publisher:   publisher,
	}
}

func toSaleResponse(s *model.Sale) SaleResponse {
	items := make([]SaleItemResponse, 0, len(s.Items))
	for _, item := range s.Items {
		items = append(items, SaleItemResponse{
			ID:        item.ID.String(),
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			TaxRate:   item.TaxRate,
		})
	}
	res := SaleResponse{
		ID:             s.ID.String(),
		SaleNo:         s.SaleNo,
		RetailerID:     s.RetailerID.String(),
		BilledEntityID: s.BilledEntityID.String(),
		Items:          items,
		TotalAmount:    s.TotalAmount.StringFixed(2),
		TotalTax:       s.TotalTax.StringFixed(2),
		Status:         s.Status,
		PaymentStatus:  s.PaymentStatus,
		Note:           s.Note,
		CreatedAt:      s.CreatedAt.Format(time.RFC3339),
	}
	if s.Retailer != nil {
		res.RetailerName = s.Retailer.Name
	}
	if s.BilledEntity != nil {
		res.BilledEntityName = s.BilledEntity.Name
	}
	return res
}

// activePartner loads a counterparty and rejects inactive rows.
func (s *saleService) activePartner(ctx context.Context, entityType model.EntityType, rawID string) (model.PartnerEntity, error) {
	id, err := uuid.Parse(rawID)
	if err != nil {
		return nil, fmt.Errorf("invalid %s id", wireTag(entityType))
	}
	entity, err := s.partnerRepo.FindByID(ctx, entityType, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%s not found", wireTag(entityType))
		}
		return nil, err
	}
	if !entity.Profile().IsActive {
		return nil, fmt.Errorf("%s is inactive", wireTag(entityType))
	}
	return entity, nil
}

func (s *saleService) CreateSale(ctx context.Context, userID string, req CreateSaleRequest) (SaleResponse, error) {
	retailer, err := s.activePartner(ctx, model.EntityTypeRetailer, req.RetailerID)
	if err != nil {
		return SaleResponse{}, err
	}
	billed, err := s.activePartner(ctx, model.EntityTypeBilledEntity, req.BilledEntityID)
	if err != nil {
		return SaleResponse{}, err
	}

	sale := &model.Sale{
		SaleNo:         req.SaleNo,
		RetailerID:     retailer.Profile().ID,
		BilledEntityID: billed.Profile().ID,
		Status:         model.TxStatusPending,
		PaymentStatus:  model.PaymentUnpaid,
		Note:           req.Note,
	}

	total := decimal.Zero
	totalTax := decimal.Zero
	lines := make([]StockLine, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return SaleResponse{}, fmt.Errorf("invalid product id: %s", item.ProductID)
		}
		amount, tax := lineTotals(item.Quantity, item.UnitPrice, item.TaxRate)
		total = total.Add(amount).Add(tax)
		totalTax = totalTax.Add(tax)
		lines = append(lines, StockLine{ProductID: productID, Quantity: item.Quantity})
	}
	sale.TotalAmount = total
	sale.TotalTax = totalTax

	var requesterID *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		requesterID = &parsed
	}

	var movements []model.StockMovement
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.saleRepo.Create(txCtx, sale); err != nil {
			return fmt.Errorf("failed to create sale: %w", err)
		}

		for i, item := range req.Items {
			row := &model.SaleItem{
				SaleID:    sale.ID,
				ProductID: lines[i].ProductID,
				Quantity:  item.Quantity,
				UnitPrice: item.UnitPrice,
				TaxRate:   item.TaxRate,
			}
			if err := s.saleRepo.CreateItem(txCtx, row); err != nil {
				return fmt.Errorf("failed to create sale item: %w", err)
			}
			sale.Items = append(sale.Items, *row)
		}

		movements, err = s.stock.RecordSale(txCtx, sale.ID, lines)
		if err != nil {
			return err
		}

		details, _ := json.Marshal(map[string]interface{}{
			"sale_no":          sale.SaleNo,
			"retailer_id":      sale.RetailerID.String(),
			"billed_entity_id": sale.BilledEntityID.String(),
			"total_amount":     sale.TotalAmount,
			"item_count":       len(req.Items),
		})
		audit := &model.AuditLog{
			UserID:     requesterID,
			Action:     model.ActionCreateSale,
			EntityID:   sale.ID.String(),
			EntityName: sale.SaleNo,
			Details:    string(details),
		}
		return s.auditRepo.Log(txCtx, audit)
	})
	if err != nil {
		return SaleResponse{}, err
	}

	res := toSaleResponse(sale)
	res.RetailerName = retailer.Profile().Name
	res.BilledEntityName = billed.Profile().Name
	s.publisher.Publish("sale", ws.ActionCreated, res)
	publishStockUpdates(s.publisher, movements)
	return res, nil
}

func (s *saleService) UpdateSale(ctx context.Context, id string, req UpdateSaleRequest) (SaleResponse, error) {
	saleID, err := uuid.Parse(id)
	if err != nil {
		return SaleResponse{}, fmt.Errorf("invalid sale id")
	}

	fields := map[string]interface{}{}
	if req.Status != nil {
		if !validTxStatus(*req.Status) {
			return SaleResponse{}, fmt.Errorf("invalid status: %q", *req.Status)
		}
		fields["status"] = *req.Status
	}
	if req.PaymentStatus != nil {
		if !validPaymentStatus(*req.PaymentStatus) {
			return SaleResponse{}, fmt.Errorf("invalid payment status: %q", *req.PaymentStatus)
		}
		fields["payment_status"] = *req.PaymentStatus
	}
	if len(fields) == 0 {
		return SaleResponse{}, errors.New("nothing to update")
	}

	if err := s.saleRepo.UpdateStatus(ctx, saleID, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SaleResponse{}, errors.New("sale not found")
		}
		return SaleResponse{}, fmt.Errorf("failed to update sale: %w", err)
	}

	sale, err := s.saleRepo.FindByIDWithItems(ctx, saleID)
	if err != nil {
		return SaleResponse{}, err
	}

	res := toSaleResponse(sale)
	s.publisher.Publish("sale", ws.ActionUpdated, res)
	return res, nil
}

func (s *saleService) DeleteSale(ctx context.Context, id, userID string) error {
	saleID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid sale id")
	}

	var requesterID *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		requesterID = &parsed
	}

	var movements []model.StockMovement
	var saleNo string
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		sale, err := s.saleRepo.FindByIDWithItems(txCtx, saleID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("sale not found")
			}
			return err
		}
		saleNo = sale.SaleNo

		lines := make([]StockLine, 0, len(sale.Items))
		for _, item := range sale.Items {
			lines = append(lines, StockLine{ProductID: item.ProductID, Quantity: item.Quantity})
		}

		// Reversal restores the sold quantities before the rows go away.
		movements, err = s.stock.ReverseTransaction(txCtx, model.RefTypeSale, sale.ID, lines)
		if err != nil {
			return err
		}

		if err := s.saleRepo.DeleteItems(txCtx, sale.ID); err != nil {
			return fmt.Errorf("failed to delete sale items: %w", err)
		}
		if err := s.saleRepo.Delete(txCtx, sale.ID); err != nil {
			return fmt.Errorf("failed to delete sale: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"sale_no":    sale.SaleNo,
			"item_count": len(sale.Items),
		})
		audit := &model.AuditLog{
			UserID:     requesterID,
			Action:     model.ActionDeleteSale,
			EntityID:   sale.ID.String(),
			EntityName: sale.SaleNo,
			Details:    string(details),
		}
		return s.auditRepo.Log(txCtx, audit)
	})
	if err != nil {
		return err
	}

	s.publisher.Publish("sale", ws.ActionDeleted, map[string]interface{}{
		"id":      id,
		"sale_no": saleNo,
	})
	publishStockUpdates(s.publisher, movements)
	return nil
}

func (s *saleService) GetSale(ctx context.Context, id string) (SaleResponse, error) {
	saleID, err := uuid.Parse(id)
	if err != nil {
		return SaleResponse{}, fmt.Errorf("invalid sale id")
	}

	sale, err := s.saleRepo.FindByIDWithItems(ctx, saleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return SaleResponse{}, errors.New("sale not found")
		}
		return SaleResponse{}, err
	}
	return toSaleResponse(sale), nil
}

func (s *saleService) GetSales(ctx context.Context, page, limit int) ([]SaleResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	sales, total, err := s.saleRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]SaleResponse, 0, len(sales))
	for i := range sales {
		res = append(res, toSaleResponse(&sales[i]))
	}
	return res, total, nil
}
