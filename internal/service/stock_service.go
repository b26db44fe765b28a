package service

import (
	"context"
	"errors"
	"fmt"

	"inventory-backend/internal/model"
	"inventory-backend/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StockLine is the neutral line-item shape the ledger operates on; purchase
// and sale items both reduce to it.
type StockLine struct {
	ProductID uuid.UUID
	Quantity  int
}

type StockMovementResponse struct {
	ID              string `json:"id"`
	ProductID       string `json:"product_id"`
	ReferenceType   string `json:"reference_type"`
	ReferenceID     string `json:"reference_id"`
	QuantityChanged int    `json:"quantity_changed"`
	StockAfter      int    `json:"stock_after"`
	CreatedAt       string `json:"created_at"`
}

// StockService is the stock ledger: the single path through which a product's
// on-hand quantity changes. Deltas are applied as atomic store-side
// increments; callers are expected to invoke the multi-line operations from
// inside a TransactionManager unit so a mid-list failure aborts the whole
// batch.
type StockService interface {
	// ApplyDelta adds delta to the product's stock and records a movement
	// row. Fails with a not-found error for unknown products and an
	// insufficient-stock error when the configured floor would be crossed.
	ApplyDelta(ctx context.Context, productID uuid.UUID, delta int, refType string, refID uuid.UUID) (*model.Product, error)

	// RecordPurchase applies +quantity for every line.
	RecordPurchase(ctx context.Context, purchaseID uuid.UUID, lines []StockLine) ([]model.StockMovement, error)

	// RecordSale applies -quantity for every line.
	RecordSale(ctx context.Context, saleID uuid.UUID, lines []StockLine) ([]model.StockMovement, error)

	// ReverseTransaction applies the opposite sign of the original recording
	// operation, used before a purchase or sale is deleted. kind is
	// model.RefTypePurchase or model.RefTypeSale.
	ReverseTransaction(ctx context.Context, kind string, refID uuid.UUID, lines []StockLine) ([]model.StockMovement, error)

	// GetLowStock returns active products at or below the given threshold,
	// or, when threshold is nil, at or below their own configured minimum.
	GetLowStock(ctx context.Context, threshold *int) ([]model.Product, error)

	GetMovements(ctx context.Context, productID uuid.UUID, page, limit int) ([]StockMovementResponse, int64, error)
}

type stockService struct {
	productRepo  repository.ProductRepository
	movementRepo repository.StockMovementRepository

	// allowNegative permits sales to drive stock below zero. Off by
	// default; the floor is enforced inside the UPDATE itself so
	// concurrent sales cannot both slip through.
	allowNegative bool
}

func NewStockService(productRepo repository.ProductRepository, movementRepo repository.StockMovementRepository, allowNegative bool) StockService {
	return &stockService{
		productRepo:   productRepo,
		movementRepo:  movementRepo,
		allowNegative: allowNegative,
	}
}

func (s *stockService) ApplyDelta(ctx context.Context, productID uuid.UUID, delta int, refType string, refID uuid.UUID) (*model.Product, error) {
	product, err := s.productRepo.AdjustStock(ctx, productID, delta, !s.allowNegative)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product not found: %s", productID)
		}
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, fmt.Errorf("insufficient stock for product %s: %w", productID, err)
		}
		return nil, fmt.Errorf("failed to adjust stock for product %s: %w", productID, err)
	}

	movement := &model.StockMovement{
		ProductID:       product.ID,
		ReferenceType:   refType,
		ReferenceID:     refID,
		QuantityChanged: delta,
		StockAfter:      product.CurrentStock,
	}
	if err := s.movementRepo.Create(ctx, movement); err != nil {
		return nil, fmt.Errorf("failed to record stock movement: %w", err)
	}

	return product, nil
}

func (s *stockService) RecordPurchase(ctx context.Context, purchaseID uuid.UUID, lines []StockLine) ([]model.StockMovement, error) {
	return s.apply(ctx, model.RefTypePurchase, purchaseID, lines, +1)
}

func (s *stockService) RecordSale(ctx context.Context, saleID uuid.UUID, lines []StockLine) ([]model.StockMovement, error) {
	return s.apply(ctx, model.RefTypeSale, saleID, lines, -1)
}

func (s *stockService) ReverseTransaction(ctx context.Context, kind string, refID uuid.UUID, lines []StockLine) ([]model.StockMovement, error) {
	switch kind {
	case model.RefTypePurchase:
		return s.apply(ctx, model.RefTypePurchaseReversal, refID, lines, -1)
	case model.RefTypeSale:
		return s.apply(ctx, model.RefTypeSaleReversal, refID, lines, +1)
	default:
		return nil, fmt.Errorf("unknown transaction kind: %q", kind)
	}
}

// apply walks the lines sequentially. Callers run it inside a database
// transaction, so the first failing line rolls back every delta already
// applied.
func (s *stockService) apply(ctx context.Context, refType string, refID uuid.UUID, lines []StockLine, sign int) ([]model.StockMovement, error) {
	movements := make([]model.StockMovement, 0, len(lines))
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, fmt.Errorf("quantity must be positive for product %s", line.ProductID)
		}
		product, err := s.ApplyDelta(ctx, line.ProductID, sign*line.Quantity, refType, refID)
		if err != nil {
			return nil, err
		}
		movements = append(movements, model.StockMovement{
			ProductID:       product.ID,
			ReferenceType:   refType,
			ReferenceID:     refID,
			QuantityChanged: sign * line.Quantity,
			StockAfter:      product.CurrentStock,
		})
	}
	return movements, nil
}

func (s *stockService) GetLowStock(ctx context.Context, threshold *int) ([]model.Product, error) {
	if threshold != nil {
		return s.productRepo.LowStockBelow(ctx, *threshold)
	}
	return s.productRepo.LowStockBelowMin(ctx)
}

func (s *stockService) GetMovements(ctx context.Context, productID uuid.UUID, page, limit int) ([]StockMovementResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	movements, total, err := s.movementRepo.ListByProduct(ctx, productID, page, limit)
	if err != nil {
		return nil, 0, err
	}

	res := make([]StockMovementResponse, 0, len(movements))
	for _, m := range movements {
		res = append(res, StockMovementResponse{
			ID:              m.ID.String(),
			ProductID:       m.ProductID.String(),
			ReferenceType:   m.ReferenceType,
			ReferenceID:     m.ReferenceID.String(),
			QuantityChanged: m.QuantityChanged,
			StockAfter:      m.StockAfter,
			CreatedAt:       m.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	return res, total, nil
}
