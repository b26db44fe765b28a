package service

import (
	"context"
	"fmt"

	"inventory-backend/internal/model"
	"inventory-backend/internal/repository"
)

// DashboardSummary is a point-in-time snapshot of the headline numbers.
type DashboardSummary struct {
	ProductCount     int64  `json:"product_count"`
	LowStockCount    int    `json:"low_stock_count"`
	PendingApprovals int64  `json:"pending_approvals"`
	PurchaseCount    int64  `json:"purchase_count"`
	PurchaseTotal    string `json:"purchase_total"`
	SaleCount        int64  `json:"sale_count"`
	SaleTotal        string `json:"sale_total"`
}

type DashboardService interface {
	GetSummary(ctx context.Context) (DashboardSummary, error)
}

type dashboardService struct {
	productRepo  repository.ProductRepository
	approvalRepo repository.ApprovalRepository
	purchaseRepo repository.PurchaseRepository
	saleRepo     repository.SaleRepository
	stock        StockService
}

func NewDashboardService(
	productRepo repository.ProductRepository,
	approvalRepo repository.ApprovalRepository,
	purchaseRepo repository.PurchaseRepository,
	saleRepo repository.SaleRepository,
	stock StockService,
) DashboardService {
	return &dashboardService{
		productRepo:  productRepo,
		approvalRepo: approvalRepo,
		purchaseRepo: purchaseRepo,
		saleRepo:     saleRepo,
		stock:        stock,
	}
}

func (s *dashboardService) GetSummary(ctx context.Context) (DashboardSummary, error) {
	var summary DashboardSummary

	productCount, err := s.productRepo.Count(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to count products: %w", err)
	}
	summary.ProductCount = productCount

	lowStock, err := s.stock.GetLowStock(ctx, nil)
	if err != nil {
		return summary, fmt.Errorf("failed to load low stock products: %w", err)
	}
	summary.LowStockCount = len(lowStock)

	pending, err := s.approvalRepo.CountByStatus(ctx, model.ApprovalPending)
	if err != nil {
		return summary, fmt.Errorf("failed to count pending approvals: %w", err)
	}
	summary.PendingApprovals = pending

	purchaseCount, err := s.purchaseRepo.Count(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to count purchases: %w", err)
	}
	summary.PurchaseCount = purchaseCount

	purchaseTotal, err := s.purchaseRepo.SumTotalAmount(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to sum purchase totals: %w", err)
	}
	summary.PurchaseTotal = purchaseTotal.StringFixed(2)

	saleCount, err := s.saleRepo.Count(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to count sales: %w", err)
	}
	summary.SaleCount = saleCount

	saleTotal, err := s.saleRepo.SumTotalAmount(ctx)
	if err != nil {
		return summary, fmt.Errorf("failed to sum sale totals: %w", err)
	}
	summary.SaleTotal = saleTotal.StringFixed(2)

	return summary, nil
}
