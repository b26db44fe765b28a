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

type PurchaseItemRequest struct {
	ProductID string  `json:"product_id" binding:"required"`
	Quantity  int     `json:"quantity" binding:"required,min=1"`
	UnitPrice float64 `json:"unit_price" binding:"required,min=0"`
	TaxRate   float64 `json:"tax_rate" binding:"min=0"`
}

type CreatePurchaseRequest struct {
	PurchaseNo string                `json:"purchase_no" binding:"required"`
	SupplierID string                `json:"supplier_id" binding:"required"`
	Items      []PurchaseItemRequest `json:"items" binding:"required,min=1,dive"`
	Note       string                `json:"note"`
}

// UpdatePurchaseRequest covers status and payment status only. Line items are
// immutable after creation; correcting them means deleting the purchase and
// re-entering it, which keeps the stock ledger consistent.
type UpdatePurchaseRequest struct {
	Status        *string `json:"status"`
	PaymentStatus *string `json:"payment_status"`
}

type PurchaseItemResponse struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	TaxRate   float64 `json:"tax_rate"`
}

type PurchaseResponse struct {
	ID            string                 `json:"id"`
	PurchaseNo    string                 `json:"purchase_no"`
	SupplierID    string                 `json:"supplier_id"`
	SupplierName  string                 `json:"supplier_name,omitempty"`
	Items         []PurchaseItemResponse `json:"items"`
	TotalAmount   string                 `json:"total_amount"`
	TotalTax      string                 `json:"total_tax"`
	Status        string                 `json:"status"`
	PaymentStatus string                 `json:"payment_status"`
	Note          string                 `json:"note"`
	CreatedAt     string                 `json:"created_at"`
}

// PurchaseService records inbound stock. Creating a purchase persists the
// header, its items and the corresponding stock increments in one database
// transaction; deleting one reverses every increment before removing the rows.
type PurchaseService interface {
	CreatePurchase(ctx context.Context, userID string, req CreatePurchaseRequest) (PurchaseResponse, error)
	UpdatePurchase(ctx context.Context, id string, req UpdatePurchaseRequest) (PurchaseResponse, error)
	DeletePurchase(ctx context.Context, id, userID string) error
	GetPurchase(ctx context.Context, id string) (PurchaseResponse, error)
	GetPurchases(ctx context.Context, page, limit int) ([]PurchaseResponse, int64, error)
}

type purchaseService struct {
	purchaseRepo repository.PurchaseRepository
	partnerRepo  repository.PartnerRepository
	auditRepo    repository.AuditRepository
	stock        StockService
	txManager    repository.TransactionManager
	publisher    ws.Publisher
}

func NewPurchaseService(
	purchaseRepo repository.PurchaseRepository,
	partnerRepo repository.PartnerRepository,
	auditRepo repository.AuditRepository,
	stock StockService,
	txManager repository.TransactionManager,
	publisher ws.Publisher,
) PurchaseService {
	return &purchaseService{
		purchaseRepo: purchaseRepo,
		partnerRepo:  partnerRepo,
		auditRepo:    auditRepo,
		stock:        stock,
		txManager:    txManager,
		publisher:    publisher,
	}
}

func toPurchaseResponse(p *model.Purchase) PurchaseResponse {
	items := make([]PurchaseItemResponse, 0, len(p.Items))
	for _, item := range p.Items {
		items = append(items, PurchaseItemResponse{
			ID:        item.ID.String(),
			ProductID: item.ProductID.String(),
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			TaxRate:   item.TaxRate,
		})
	}
	res := PurchaseResponse{
		ID:            p.ID.String(),
		PurchaseNo:    p.PurchaseNo,
		SupplierID:    p.SupplierID.String(),
		Items:         items,
		TotalAmount:   p.TotalAmount.StringFixed(2),
		TotalTax:      p.TotalTax.StringFixed(2),
		Status:        p.Status,
		PaymentStatus: p.PaymentStatus,
		Note:          p.Note,
		CreatedAt:     p.CreatedAt.Format(time.RFC3339),
	}
	if p.Supplier != nil {
		res.SupplierName = p.Supplier.Name
	}
	return res
}

// lineTotals computes the pre-tax amount and tax for one line using exact
// decimal arithmetic.
func lineTotals(quantity int, unitPrice, taxRate float64) (amount, tax decimal.Decimal) {
	amount = decimal.NewFromFloat(unitPrice).Mul(decimal.NewFromInt(int64(quantity)))
	tax = amount.Mul(decimal.NewFromFloat(taxRate)).Div(decimal.NewFromInt(100))
	return amount, tax
}

func (s *purchaseService) CreatePurchase(ctx context.Context, userID string, req CreatePurchaseRequest) (PurchaseResponse, error) {
	supplierID, err := uuid.Parse(req.SupplierID)
	if err != nil {
		return PurchaseResponse{}, fmt.Errorf("invalid supplier id")
	}

	supplier, err := s.partnerRepo.FindByID(ctx, model.EntityTypeSupplier, supplierID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PurchaseResponse{}, errors.New("supplier not found")
		}
		return PurchaseResponse{}, err
	}
	if !supplier.Profile().IsActive {
		return PurchaseResponse{}, errors.New("supplier is inactive")
	}

	purchase := &model.Purchase{
		PurchaseNo:    req.PurchaseNo,
		SupplierID:    supplierID,
		Status:        model.TxStatusPending,
		PaymentStatus: model.PaymentUnpaid,
		Note:          req.Note,
	}

	total := decimal.Zero
	totalTax := decimal.Zero
	lines := make([]StockLine, 0, len(req.Items))
	for _, item := range req.Items {
		productID, err := uuid.Parse(item.ProductID)
		if err != nil {
			return PurchaseResponse{}, fmt.Errorf("invalid product id: %s", item.ProductID)
		}
		amount, tax := lineTotals(item.Quantity, item.UnitPrice, item.TaxRate)
		total = total.Add(amount).Add(tax)
		totalTax = totalTax.Add(tax)
		lines = append(lines, StockLine{ProductID: productID, Quantity: item.Quantity})
	}
	purchase.TotalAmount = total
	purchase.TotalTax = totalTax

	var requesterID *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		requesterID = &parsed
	}

	var movements []model.StockMovement
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.purchaseRepo.Create(txCtx, purchase); err != nil {
			return fmt.Errorf("failed to create purchase: %w", err)
		}

		for i, item := range req.Items {
			row := &model.PurchaseItem{
				PurchaseID: purchase.ID,
				ProductID:  lines[i].ProductID,
				Quantity:   item.Quantity,
				UnitPrice:  item.UnitPrice,
				TaxRate:    item.TaxRate,
			}
			if err := s.purchaseRepo.CreateItem(txCtx, row); err != nil {
				return fmt.Errorf("failed to create purchase item: %w", err)
			}
			purchase.Items = append(purchase.Items, *row)
		}

		movements, err = s.stock.RecordPurchase(txCtx, purchase.ID, lines)
		if err != nil {
			return err
		}

		details, _ := json.Marshal(map[string]interface{}{
			"purchase_no":  purchase.PurchaseNo,
			"supplier_id":  purchase.SupplierID.String(),
			"total_amount": purchase.TotalAmount,
			"item_count":   len(req.Items),
		})
		audit := &model.AuditLog{
			UserID:     requesterID,
			Action:     model.ActionCreatePurchase,
			EntityID:   purchase.ID.String(),
			EntityName: purchase.PurchaseNo,
			Details:    string(details),
		}
		return s.auditRepo.Log(txCtx, audit)
	})
	if err != nil {
		return PurchaseResponse{}, err
	}

	res := toPurchaseResponse(purchase)
	res.SupplierName = supplier.Profile().Name
	s.publisher.Publish("purchase", ws.ActionCreated, res)
	publishStockUpdates(s.publisher, movements)
	return res, nil
}

// publishStockUpdates pushes the post-mutation stock level of every affected
// product so dashboards track on-hand quantities live.
func publishStockUpdates(pub ws.Publisher, movements []model.StockMovement) {
	for _, m := range movements {
		pub.Publish("stock", ws.ActionUpdated, map[string]interface{}{
			"product_id":    m.ProductID.String(),
			"current_stock": m.StockAfter,
		})
	}
}

func validTxStatus(s string) bool {
	return s == model.TxStatusPending || s == model.TxStatusCompleted || s == model.TxStatusCancelled
}

func validPaymentStatus(s string) bool {
	return s == model.PaymentUnpaid || s == model.PaymentPartial || s == model.PaymentPaid
}

func (s *purchaseService) UpdatePurchase(ctx context.Context, id string, req UpdatePurchaseRequest) (PurchaseResponse, error) {
	purchaseID, err := uuid.Parse(id)
	if err != nil {
		return PurchaseResponse{}, fmt.Errorf("invalid purchase id")
	}

	fields := map[string]interface{}{}
	if req.Status != nil {
		if !validTxStatus(*req.Status) {
			return PurchaseResponse{}, fmt.Errorf("invalid status: %q", *req.Status)
		}
		fields["status"] = *req.Status
	}
	if req.PaymentStatus != nil {
		if !validPaymentStatus(*req.PaymentStatus) {
			return PurchaseResponse{}, fmt.Errorf("invalid payment status: %q", *req.PaymentStatus)
		}
		fields["payment_status"] = *req.PaymentStatus
	}
	if len(fields) == 0 {
		return PurchaseResponse{}, errors.New("nothing to update")
	}

	if err := s.purchaseRepo.UpdateStatus(ctx, purchaseID, fields); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PurchaseResponse{}, errors.New("purchase not found")
		}
		return PurchaseResponse{}, fmt.Errorf("failed to update purchase: %w", err)
	}

	purchase, err := s.purchaseRepo.FindByIDWithItems(ctx, purchaseID)
	if err != nil {
		return PurchaseResponse{}, err
	}

	res := toPurchaseResponse(purchase)
	s.publisher.Publish("purchase", ws.ActionUpdated, res)
	return res, nil
}

func (s *purchaseService) DeletePurchase(ctx context.Context, id, userID string) error {
	purchaseID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid purchase id")
	}

	var requesterID *uuid.UUID
	if parsed, err := uuid.Parse(userID); err == nil {
		requesterID = &parsed
	}

	var movements []model.StockMovement
	var purchaseNo string
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		purchase, err := s.purchaseRepo.FindByIDWithItems(txCtx, purchaseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errors.New("purchase not found")
			}
			return err
		}
		purchaseNo = purchase.PurchaseNo

		lines := make([]StockLine, 0, len(purchase.Items))
		for _, item := range purchase.Items {
			lines = append(lines, StockLine{ProductID: item.ProductID, Quantity: item.Quantity})
		}

		// Reverse the stock increments before removing the rows that
		// justify them.
		movements, err = s.stock.ReverseTransaction(txCtx, model.RefTypePurchase, purchase.ID, lines)
		if err != nil {
			return err
		}

		if err := s.purchaseRepo.DeleteItems(txCtx, purchase.ID); err != nil {
			return fmt.Errorf("failed to delete purchase items: %w", err)
		}
		if err := s.purchaseRepo.Delete(txCtx, purchase.ID); err != nil {
			return fmt.Errorf("failed to delete purchase: %w", err)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"purchase_no": purchase.PurchaseNo,
			"item_count":  len(purchase.Items),
		})
		audit := &model.AuditLog{
			UserID:     requesterID,
			Action:     model.ActionDeletePurchase,
			EntityID:   purchase.ID.String(),
			EntityName: purchase.PurchaseNo,
			Details:    string(details),
		}
		return s.auditRepo.Log(txCtx, audit)
	})
	if err != nil {
		return err
	}

	s.publisher.Publish("purchase", ws.ActionDeleted, map[string]interface{}{
		"id":          id,
		"purchase_no": purchaseNo,
	})
	publishStockUpdates(s.publisher, movements)
	return nil
}

func (s *purchaseService) GetPurchase(ctx context.Context, id string) (PurchaseResponse, error) {
	purchaseID, err := uuid.Parse(id)
	if err != nil {
		return PurchaseResponse{}, fmt.Errorf("invalid purchase id")
	}

	purchase, err := s.purchaseRepo.FindByIDWithItems(ctx, purchaseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return PurchaseResponse{}, errors.New("purchase not found")
		}
		return PurchaseResponse{}, err
	}
	return toPurchaseResponse(purchase), nil
}

func (s *purchaseService) GetPurchases(ctx context.Context, page, limit int) ([]PurchaseResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	purchases, total, err := s.purchaseRepo.List(ctx, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]PurchaseResponse, 0, len(purchases))
	for i := range purchases {
		res = append(res, toPurchaseResponse(&purchases[i]))
	}
	return res, total, nil
}
