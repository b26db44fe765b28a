package service

import (
	"context"
	"testing"

	"inventory-backend/internal/model"

	"github.com/google/uuid"
)

type purchaseFixture struct {
	productRepo  *fakeProductRepo
	purchaseRepo *fakePurchaseRepo
	partnerRepo  *fakePartnerRepo
	auditRepo    *fakeAuditRepo
	movementRepo *fakeMovementRepo
	publisher    *fakePublisher
	purchases    PurchaseService
	supplierID   uuid.UUID
}

func newPurchaseFixture(t *testing.T) *purchaseFixture {
	t.Helper()
	productRepo := newFakeProductRepo()
	purchaseRepo := newFakePurchaseRepo()
	partnerRepo := newFakePartnerRepo()
	auditRepo := &fakeAuditRepo{}
	movementRepo := &fakeMovementRepo{}
	publisher := &fakePublisher{}
	stock := NewStockService(productRepo, movementRepo, false)

	supplier := &model.Supplier{}
	supplier.Name = "Supply Co"
	supplier.IsActive = true
	if err := partnerRepo.Create(context.Background(), supplier); err != nil {
		t.Fatalf("seed supplier: %v", err)
	}

	return &purchaseFixture{
		productRepo:  productRepo,
		purchaseRepo: purchaseRepo,
		partnerRepo:  partnerRepo,
		auditRepo:    auditRepo,
		movementRepo: movementRepo,
		publisher:    publisher,
		purchases:    NewPurchaseService(purchaseRepo, partnerRepo, auditRepo, stock, &fakeTxManager{}, publisher),
		supplierID:   supplier.ID,
	}
}

func TestCreatePurchaseAppliesStockAndTotals(t *testing.T) {
	fx := newPurchaseFixture(t)
	pid := fx.productRepo.add(model.Product{SKU: "W-1", Name: "Widget", CurrentStock: 10, IsActive: true})

	res, err := fx.purchases.CreatePurchase(context.Background(), uuid.NewString(), CreatePurchaseRequest{
		PurchaseNo: "PO-001",
		SupplierID: fx.supplierID.String(),
		Items: []PurchaseItemRequest{
			{ProductID: pid.String(), Quantity: 5, UnitPrice: 100, TaxRate: 18},
		},
	})
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}

	if got := fx.productRepo.products[pid].CurrentStock; got != 15 {
		t.Errorf("stock = %d, want 15", got)
	}
	// 5 * 100 = 500, tax 18% = 90, total 590
	if res.TotalAmount != "590.00" {
		t.Errorf("total = %s, want 590.00", res.TotalAmount)
	}
	if res.TotalTax != "90.00" {
		t.Errorf("tax = %s, want 90.00", res.TotalTax)
	}
	if res.Status != model.TxStatusPending || res.PaymentStatus != model.PaymentUnpaid {
		t.Errorf("new purchase status = %s/%s, want PENDING/UNPAID", res.Status, res.PaymentStatus)
	}
	if len(fx.auditRepo.entries) != 1 || fx.auditRepo.entries[0].Action != model.ActionCreatePurchase {
		t.Error("purchase creation must write a CREATE_PURCHASE audit entry")
	}
	if fx.publisher.count("stock", "updated") != 1 {
		t.Error("stock update event not published")
	}
}

func TestCreatePurchaseInactiveSupplier(t *testing.T) {
	fx := newPurchaseFixture(t)
	pid := fx.productRepo.add(model.Product{SKU: "W-1", Name: "Widget", CurrentStock: 0, IsActive: true})
	if err := fx.partnerRepo.Deactivate(context.Background(), model.EntityTypeSupplier, fx.supplierID); err != nil {
		t.Fatalf("deactivate supplier: %v", err)
	}

	_, err := fx.purchases.CreatePurchase(context.Background(), uuid.NewString(), CreatePurchaseRequest{
		PurchaseNo: "PO-002",
		SupplierID: fx.supplierID.String(),
		Items:      []PurchaseItemRequest{{ProductID: pid.String(), Quantity: 1, UnitPrice: 10}},
	})
	if err == nil {
		t.Fatal("expected error for inactive supplier")
	}
	if got := fx.productRepo.products[pid].CurrentStock; got != 0 {
		t.Errorf("stock = %d, want 0", got)
	}
}

func TestDeletePurchaseReversesStock(t *testing.T) {
	fx := newPurchaseFixture(t)
	pid := fx.productRepo.add(model.Product{SKU: "W-1", Name: "Widget", CurrentStock: 0, IsActive: true})

	res, err := fx.purchases.CreatePurchase(context.Background(), uuid.NewString(), CreatePurchaseRequest{
		PurchaseNo: "PO-003",
		SupplierID: fx.supplierID.String(),
		Items:      []PurchaseItemRequest{{ProductID: pid.String(), Quantity: 7, UnitPrice: 10}},
	})
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}
	if got := fx.productRepo.products[pid].CurrentStock; got != 7 {
		t.Fatalf("stock after create = %d, want 7", got)
	}

	if err := fx.purchases.DeletePurchase(context.Background(), res.ID, uuid.NewString()); err != nil {
		t.Fatalf("DeletePurchase: %v", err)
	}

	if got := fx.productRepo.products[pid].CurrentStock; got != 0 {
		t.Errorf("stock after delete = %d, want 0", got)
	}
	if _, err := fx.purchases.GetPurchase(context.Background(), res.ID); err == nil {
		t.Error("deleted purchase still retrievable")
	}

	// Journal keeps both the original and the reversal rows
	reversals := 0
	for _, m := range fx.movementRepo.movements {
		if m.ReferenceType == model.RefTypePurchaseReversal {
			reversals++
		}
	}
	if reversals != 1 {
		t.Errorf("reversal journal rows = %d, want 1", reversals)
	}
}

func TestUpdatePurchaseStatusOnly(t *testing.T) {
	fx := newPurchaseFixture(t)
	pid := fx.productRepo.add(model.Product{SKU: "W-1", Name: "Widget", CurrentStock: 0, IsActive: true})

	res, err := fx.purchases.CreatePurchase(context.Background(), uuid.NewString(), CreatePurchaseRequest{
		PurchaseNo: "PO-004",
		SupplierID: fx.supplierID.String(),
		Items:      []PurchaseItemRequest{{ProductID: pid.String(), Quantity: 2, UnitPrice: 10}},
	})
	if err != nil {
		t.Fatalf("CreatePurchase: %v", err)
	}

	status := model.TxStatusCompleted
	payment := model.PaymentPaid
	updated, err := fx.purchases.UpdatePurchase(context.Background(), res.ID, UpdatePurchaseRequest{Status: &status, PaymentStatus: &payment})
	if err != nil {
		t.Fatalf("UpdatePurchase: %v", err)
	}
	if updated.Status != model.TxStatusCompleted || updated.PaymentStatus != model.PaymentPaid {
		t.Errorf("status = %s/%s, want COMPLETED/PAID", updated.Status, updated.PaymentStatus)
	}
	// Stock must be untouched by a status change
	if got := fx.productRepo.products[pid].CurrentStock; got != 2 {
		t.Errorf("stock = %d, want 2", got)
	}

	bad := "SHIPPED"
	if _, err := fx.purchases.UpdatePurchase(context.Background(), res.ID, UpdatePurchaseRequest{Status: &bad}); err == nil {
		t.Error("expected error for invalid status value")
	}
}
