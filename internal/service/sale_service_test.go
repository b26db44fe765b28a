package service

import (
	"context"
	"errors"
	"testing"

	"inventory-backend/internal/model"
	"inventory-backend/internal/repository"

	"github.com/google/uuid"
)

type saleFixture struct {
	productRepo    *fakeProductRepo
	saleRepo       *fakeSaleRepo
	partnerRepo    *fakePartnerRepo
	movementRepo   *fakeMovementRepo
	publisher      *fakePublisher
	sales          SaleService
	retailerID     uuid.UUID
	billedEntityID uuid.UUID
}

func newSaleFixture(t *testing.T) *saleFixture {
	t.Helper()
	productRepo := newFakeProductRepo()
	saleRepo := newFakeSaleRepo()
	partnerRepo := newFakePartnerRepo()
	movementRepo := &fakeMovementRepo{}
	publisher := &fakePublisher{}
	stock := NewStockService(productRepo, movementRepo, false)

	retailer := &model.Retailer{}
	retailer.Name = "Corner Shop"
	retailer.IsActive = true
	if err := partnerRepo.Create(context.Background(), retailer); err != nil {
		t.Fatalf("seed retailer: %v", err)
	}

	billed := &model.BilledEntity{}
	billed.Name = "HQ Billing"
	billed.IsActive = true
	if err := partnerRepo.Create(context.Background(), billed); err != nil {
		t.Fatalf("seed billed entity: %v", err)
	}

	return &saleFixture{
		productRepo:    productRepo,
		saleRepo:       saleRepo,
		partnerRepo:    partnerRepo,
		movementRepo:   movementRepo,
		publisher:      publisher,
		sales:          NewSaleService(saleRepo, partnerRepo, &fakeAuditRepo{}, stock, &fakeTxManager{}, publisher),
		retailerID:     retailer.ID,
		billedEntityID: billed.ID,
	}
}

func (fx *saleFixture) createSale(saleNo string, items []SaleItemRequest) (SaleResponse, error) {
	return fx.sales.CreateSale(context.Background(), uuid.NewString(), CreateSaleRequest{
		SaleNo:         saleNo,
		RetailerID:     fx.retailerID.String(),
		BilledEntityID: fx.billedEntityID.String(),
		Items:          items,
	})
}

func TestCreateSaleDecrementsStock(t *testing.T) {
	fx := newSaleFixture(t)
	pid := fx.productRepo.add(model.Product{SKU: "W-1", Name: "Widget", CurrentStock: 20, IsActive: true})

	res, err := fx.createSale("SO-001", []SaleItemRequest{{ProductID: pid.String(), Quantity: 8, UnitPrice: 50, TaxRate: 12}})
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}

	if got := fx.productRepo.products[pid].CurrentStock; got != 12 {
		t.Errorf("stock = %d, want 12", got)
	}
	// 8 * 50 = 400, tax 12% = 48, total 448
	if res.TotalAmount != "448.00" {
		t.Errorf("total = %s, want 448.00", res.TotalAmount)
	}
	if res.RetailerName != "Corner Shop" || res.BilledEntityName != "HQ Billing" {
		t.Errorf("counterparty names = %q/%q", res.RetailerName, res.BilledEntityName)
	}
}

func TestCreateSaleInsufficientStock(t *testing.T) {
	fx := newSaleFixture(t)
	pid := fx.productRepo.add(model.Product{SKU: "W-1", Name: "Widget", CurrentStock: 3, IsActive: true})

	_, err := fx.createSale("SO-002", []SaleItemRequest{{ProductID: pid.String(), Quantity: 10, UnitPrice: 50}})
	if !errors.Is(err, repository.ErrInsufficientStock) {
		t.Fatalf("error = %v, want ErrInsufficientStock", err)
	}

	if got := fx.productRepo.products[pid].CurrentStock; got != 3 {
		t.Errorf("stock = %d, want 3", got)
	}
}

func TestCreateSaleRequiresBothCounterparties(t *testing.T) {
	fx := newSaleFixture(t)
	pid := fx.productRepo.add(model.Product{SKU: "W-1", Name: "Widget", CurrentStock: 10, IsActive: true})

	_, err := fx.sales.CreateSale(context.Background(), uuid.NewString(), CreateSaleRequest{
		SaleNo:         "SO-003",
		RetailerID:     uuid.NewString(),
		BilledEntityID: fx.billedEntityID.String(),
		Items:          []SaleItemRequest{{ProductID: pid.String(), Quantity: 1, UnitPrice: 10}},
	})
	if err == nil {
		t.Fatal("expected error for unknown retailer")
	}

	_, err = fx.sales.CreateSale(context.Background(), uuid.NewString(), CreateSaleRequest{
		SaleNo:         "SO-004",
		RetailerID:     fx.retailerID.String(),
		BilledEntityID: uuid.NewString(),
		Items:          []SaleItemRequest{{ProductID: pid.String(), Quantity: 1, UnitPrice: 10}},
	})
	if err == nil {
		t.Fatal("expected error for unknown billed entity")
	}

	if got := fx.productRepo.products[pid].CurrentStock; got != 10 {
		t.Errorf("stock = %d, want 10", got)
	}
}

func TestCreateSaleInactiveRetailer(t *testing.T) {
	fx := newSaleFixture(t)
	pid := fx.productRepo.add(model.Product{SKU: "W-1", Name: "Widget", CurrentStock: 10, IsActive: true})

	if err := fx.partnerRepo.Deactivate(context.Background(), model.EntityTypeRetailer, fx.retailerID); err != nil {
		t.Fatalf("deactivate retailer: %v", err)
	}

	if _, err := fx.createSale("SO-005", []SaleItemRequest{{ProductID: pid.String(), Quantity: 1, UnitPrice: 10}}); err == nil {
		t.Fatal("expected error for inactive retailer")
	}
}

func TestDeleteSaleRestoresStock(t *testing.T) {
	fx := newSaleFixture(t)
	pid := fx.productRepo.add(model.Product{SKU: "W-1", Name: "Widget", CurrentStock: 10, IsActive: true})

	res, err := fx.createSale("SO-006", []SaleItemRequest{{ProductID: pid.String(), Quantity: 6, UnitPrice: 10}})
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if got := fx.productRepo.products[pid].CurrentStock; got != 4 {
		t.Fatalf("stock after sale = %d, want 4", got)
	}

	if err := fx.sales.DeleteSale(context.Background(), res.ID, uuid.NewString()); err != nil {
		t.Fatalf("DeleteSale: %v", err)
	}

	if got := fx.productRepo.products[pid].CurrentStock; got != 10 {
		t.Errorf("stock after delete = %d, want 10", got)
	}
	if _, err := fx.sales.GetSale(context.Background(), res.ID); err == nil {
		t.Error("deleted sale still retrievable")
	}
}

func TestDeleteThenRecreateSaleIsStockNeutral(t *testing.T) {
	fx := newSaleFixture(t)
	pid := fx.productRepo.add(model.Product{SKU: "W-1", Name: "Widget", CurrentStock: 10, IsActive: true})

	items := []SaleItemRequest{{ProductID: pid.String(), Quantity: 5, UnitPrice: 10}}
	first, err := fx.createSale("SO-007", items)
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if err := fx.sales.DeleteSale(context.Background(), first.ID, uuid.NewString()); err != nil {
		t.Fatalf("DeleteSale: %v", err)
	}
	if _, err := fx.createSale("SO-007", items); err != nil {
		t.Fatalf("re-create: %v", err)
	}

	if got := fx.productRepo.products[pid].CurrentStock; got != 5 {
		t.Errorf("stock after delete+recreate = %d, want 5", got)
	}
}
