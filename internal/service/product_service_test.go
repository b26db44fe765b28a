package service

import (
	"context"
	"testing"

	"inventory-backend/internal/model"

	"github.com/google/uuid"
)

func newProductFixture() (*fakeProductRepo, *fakePublisher, ProductService) {
	productRepo := newFakeProductRepo()
	movementRepo := &fakeMovementRepo{}
	publisher := &fakePublisher{}
	stock := NewStockService(productRepo, movementRepo, false)
	return productRepo, publisher, NewProductService(productRepo, stock, publisher)
}

func TestCreateProductDuplicateSKU(t *testing.T) {
	_, _, svc := newProductFixture()

	req := CreateProductRequest{SKU: "W-1", Name: "Widget", UnitPrice: 10}
	if _, err := svc.CreateProduct(context.Background(), req); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if _, err := svc.CreateProduct(context.Background(), req); err == nil {
		t.Fatal("expected duplicate SKU error")
	}
}

func TestUpdateProductPreservesStock(t *testing.T) {
	productRepo, _, svc := newProductFixture()
	pid := productRepo.add(model.Product{SKU: "W-1", Name: "Widget", CurrentStock: 42, IsActive: true})

	updated, err := svc.UpdateProduct(context.Background(), pid.String(), UpdateProductRequest{
		SKU:       "W-1",
		Name:      "Widget v2",
		UnitPrice: 12,
		MinStock:  3,
	})
	if err != nil {
		t.Fatalf("UpdateProduct: %v", err)
	}
	if updated.CurrentStock != 42 {
		t.Errorf("stock after master-data update = %d, want 42", updated.CurrentStock)
	}
}

func TestDeleteProductDeactivates(t *testing.T) {
	productRepo, publisher, svc := newProductFixture()
	pid := productRepo.add(model.Product{SKU: "W-1", Name: "Widget", IsActive: true})

	if err := svc.DeleteProduct(context.Background(), pid.String()); err != nil {
		t.Fatalf("DeleteProduct: %v", err)
	}
	if productRepo.products[pid].IsActive {
		t.Error("product must be deactivated, not removed")
	}
	if publisher.count("product", "deleted") != 1 {
		t.Error("deletion event not published")
	}

	// Inactive products disappear from listings
	products, total, err := svc.GetProducts(context.Background(), 1, 20, "")
	if err != nil {
		t.Fatalf("GetProducts: %v", err)
	}
	if len(products) != 0 || total != 0 {
		t.Errorf("listing shows %d products after delete, want 0", len(products))
	}
}

func TestGetProductInvalidID(t *testing.T) {
	_, _, svc := newProductFixture()

	if _, err := svc.GetProduct(context.Background(), "not-a-uuid"); err == nil {
		t.Fatal("expected error for malformed id")
	}
	if _, err := svc.GetProduct(context.Background(), uuid.NewString()); err == nil {
		t.Fatal("expected error for missing product")
	}
}
