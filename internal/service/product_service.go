package service

import (
	"context"
	"errors"
	"fmt"

	"inventory-backend/internal/model"
	"inventory-backend/internal/repository"
	ws "inventory-backend/internal/websocket"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs
type CreateProductRequest struct {
	SKU          string  `json:"sku" binding:"required"`
	Name         string  `json:"name" binding:"required"`
	Category     string  `json:"category"`
	UnitPrice    float64 `json:"unit_price" binding:"required,min=0"`
	GSTRate      float64 `json:"gst_rate" binding:"min=0"`
	CurrentStock int     `json:"current_stock" binding:"min=0"` // opening stock only; later changes go through transactions
	MinStock     int     `json:"min_stock" binding:"min=0"`
}

// UpdateProductRequest deliberately has no stock field: on-hand quantity is
// derived and only the stock ledger may change it.
type UpdateProductRequest struct {
	SKU       string  `json:"sku" binding:"required"`
	Name      string  `json:"name" binding:"required"`
	Category  string  `json:"category"`
	UnitPrice float64 `json:"unit_price" binding:"required,min=0"`
	GSTRate   float64 `json:"gst_rate" binding:"min=0"`
	MinStock  int     `json:"min_stock" binding:"min=0"`
}

type ProductResponse struct {
	ID           string  `json:"id"`
	SKU          string  `json:"sku"`
	Name         string  `json:"name"`
	Category     string  `json:"category"`
	UnitPrice    float64 `json:"unit_price"`
	GSTRate      float64 `json:"gst_rate"`
	CurrentStock int     `json:"current_stock"`
	MinStock     int     `json:"min_stock"`
}

type ProductService interface {
	GetProducts(ctx context.Context, page, limit int, search string) ([]ProductResponse, int64, error)
	GetProduct(ctx context.Context, id string) (ProductResponse, error)
	CreateProduct(ctx context.Context, req CreateProductRequest) (ProductResponse, error)
	UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (ProductResponse, error)
	DeleteProduct(ctx context.Context, id string) error
	GetLowStockProducts(ctx context.Context, threshold *int) ([]ProductResponse, error)
}

type productService struct {
	productRepo repository.ProductRepository
	stock       StockService
	publisher   ws.Publisher
}

func NewProductService(productRepo repository.ProductRepository, stock StockService, publisher ws.Publisher) ProductService {
	return &productService{
		productRepo: productRepo,
		stock:       stock,
		publisher:   publisher,
	}
}

func toProductResponse(p model.Product) ProductResponse {
	return ProductResponse{
		ID:           p.ID.String(),
		SKU:          p.SKU,
		Name:         p.Name,
		Category:     p.Category,
		UnitPrice:    p.UnitPrice,
		GSTRate:      p.GSTRate,
		CurrentStock: p.CurrentStock,
		MinStock:     p.MinStock,
	}
}

func (s *productService) GetProducts(ctx context.Context, page, limit int, search string) ([]ProductResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	products, total, err := s.productRepo.List(ctx, page, limit, search)
	if err != nil {
		return nil, 0, err
	}

	res := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		res = append(res, toProductResponse(p))
	}
	return res, total, nil
}

func (s *productService) GetProduct(ctx context.Context, id string) (ProductResponse, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("invalid product id: %w", err)
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductResponse{}, errors.New("product not found")
		}
		return ProductResponse{}, fmt.Errorf("database error: %w", err)
	}
	return toProductResponse(*product), nil
}

func (s *productService) CreateProduct(ctx context.Context, req CreateProductRequest) (ProductResponse, error) {
	if _, err := s.productRepo.FindBySKU(ctx, req.SKU); err == nil {
		return ProductResponse{}, fmt.Errorf("sku already exists: %s", req.SKU)
	}

	product := model.Product{
		SKU:          req.SKU,
		Name:         req.Name,
		Category:     req.Category,
		UnitPrice:    req.UnitPrice,
		GSTRate:      req.GSTRate,
		CurrentStock: req.CurrentStock,
		MinStock:     req.MinStock,
		IsActive:     true,
	}

	if err := s.productRepo.Create(ctx, &product); err != nil {
		return ProductResponse{}, fmt.Errorf("failed to create product: %w", err)
	}

	res := toProductResponse(product)
	s.publisher.Publish("product", ws.ActionCreated, res)
	return res, nil
}

func (s *productService) UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (ProductResponse, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("invalid product id: %w", err)
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductResponse{}, errors.New("product not found")
		}
		return ProductResponse{}, fmt.Errorf("database error: %w", err)
	}

	product.SKU = req.SKU
	product.Name = req.Name
	product.Category = req.Category
	product.UnitPrice = req.UnitPrice
	product.GSTRate = req.GSTRate
	product.MinStock = req.MinStock

	if err := s.productRepo.Update(ctx, product); err != nil {
		return ProductResponse{}, fmt.Errorf("failed to update product: %w", err)
	}

	res := toProductResponse(*product)
	s.publisher.Publish("product", ws.ActionUpdated, res)
	return res, nil
}

func (s *productService) DeleteProduct(ctx context.Context, id string) error {
	productID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid product id: %w", err)
	}

	if err := s.productRepo.Deactivate(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("product not found")
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}

	s.publisher.Publish("product", ws.ActionDeleted, map[string]interface{}{"id": id})
	return nil
}

func (s *productService) GetLowStockProducts(ctx context.Context, threshold *int) ([]ProductResponse, error) {
	products, err := s.stock.GetLowStock(ctx, threshold)
	if err != nil {
		return nil, err
	}

	res := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		res = append(res, toProductResponse(p))
	}
	return res, nil
}
