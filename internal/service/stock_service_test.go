package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"inventory-backend/internal/model"
	"inventory-backend/internal/repository"

	"github.com/google/uuid"
)

func newStockFixture(allowNegative bool) (*fakeProductRepo, *fakeMovementRepo, StockService) {
	productRepo := newFakeProductRepo()
	movementRepo := &fakeMovementRepo{}
	svc := NewStockService(productRepo, movementRepo, allowNegative)
	return productRepo, movementRepo, svc
}

func TestRecordPurchaseIncrementsStock(t *testing.T) {
	productRepo, movementRepo, svc := newStockFixture(false)
	pid := productRepo.add(model.Product{SKU: "A-1", Name: "Widget", CurrentStock: 10, IsActive: true})

	purchaseID := uuid.New()
	movements, err := svc.RecordPurchase(context.Background(), purchaseID, []StockLine{{ProductID: pid, Quantity: 5}})
	if err != nil {
		t.Fatalf("RecordPurchase: %v", err)
	}

	if got := productRepo.products[pid].CurrentStock; got != 15 {
		t.Errorf("stock after purchase = %d, want 15", got)
	}
	if len(movements) != 1 {
		t.Fatalf("got %d movements, want 1", len(movements))
	}
	if movements[0].ReferenceType != model.RefTypePurchase {
		t.Errorf("reference type = %q, want %q", movements[0].ReferenceType, model.RefTypePurchase)
	}
	if movements[0].QuantityChanged != 5 || movements[0].StockAfter != 15 {
		t.Errorf("movement delta/after = %d/%d, want 5/15", movements[0].QuantityChanged, movements[0].StockAfter)
	}
	if len(movementRepo.movements) != 1 {
		t.Errorf("journal has %d rows, want 1", len(movementRepo.movements))
	}
}

func TestRecordSaleDecrementsStock(t *testing.T) {
	productRepo, _, svc := newStockFixture(false)
	pid := productRepo.add(model.Product{SKU: "A-1", Name: "Widget", CurrentStock: 10, IsActive: true})

	movements, err := svc.RecordSale(context.Background(), uuid.New(), []StockLine{{ProductID: pid, Quantity: 4}})
	if err != nil {
		t.Fatalf("RecordSale: %v", err)
	}

	if got := productRepo.products[pid].CurrentStock; got != 6 {
		t.Errorf("stock after sale = %d, want 6", got)
	}
	if movements[0].QuantityChanged != -4 {
		t.Errorf("movement delta = %d, want -4", movements[0].QuantityChanged)
	}
}

func TestRecordSaleInsufficientStock(t *testing.T) {
	productRepo, movementRepo, svc := newStockFixture(false)
	pid := productRepo.add(model.Product{SKU: "A-1", Name: "Widget", CurrentStock: 3, IsActive: true})

	_, err := svc.RecordSale(context.Background(), uuid.New(), []StockLine{{ProductID: pid, Quantity: 5}})
	if err == nil {
		t.Fatal("expected insufficient stock error")
	}
	if !errors.Is(err, repository.ErrInsufficientStock) {
		t.Errorf("unexpected error: %v", err)
	}
	if got := productRepo.products[pid].CurrentStock; got != 3 {
		t.Errorf("stock changed to %d despite failed sale", got)
	}
	if len(movementRepo.movements) != 0 {
		t.Errorf("journal has %d rows after failed sale, want 0", len(movementRepo.movements))
	}
}

func TestRecordSaleNegativeStockAllowed(t *testing.T) {
	productRepo, _, svc := newStockFixture(true)
	pid := productRepo.add(model.Product{SKU: "A-1", Name: "Widget", CurrentStock: 3, IsActive: true})

	if _, err := svc.RecordSale(context.Background(), uuid.New(), []StockLine{{ProductID: pid, Quantity: 5}}); err != nil {
		t.Fatalf("RecordSale with negative stock allowed: %v", err)
	}
	if got := productRepo.products[pid].CurrentStock; got != -2 {
		t.Errorf("stock = %d, want -2", got)
	}
}

func TestReverseTransactionRestoresStock(t *testing.T) {
	productRepo, _, svc := newStockFixture(false)
	pid := productRepo.add(model.Product{SKU: "A-1", Name: "Widget", CurrentStock: 10, IsActive: true})

	saleID := uuid.New()
	lines := []StockLine{{ProductID: pid, Quantity: 6}}
	if _, err := svc.RecordSale(context.Background(), saleID, lines); err != nil {
		t.Fatalf("RecordSale: %v", err)
	}

	movements, err := svc.ReverseTransaction(context.Background(), model.RefTypeSale, saleID, lines)
	if err != nil {
		t.Fatalf("ReverseTransaction: %v", err)
	}

	if got := productRepo.products[pid].CurrentStock; got != 10 {
		t.Errorf("stock after reversal = %d, want 10", got)
	}
	if movements[0].ReferenceType != model.RefTypeSaleReversal {
		t.Errorf("reference type = %q, want %q", movements[0].ReferenceType, model.RefTypeSaleReversal)
	}
}

func TestReversePurchaseAppliesNegativeDeltas(t *testing.T) {
	productRepo, _, svc := newStockFixture(false)
	pid := productRepo.add(model.Product{SKU: "A-1", Name: "Widget", CurrentStock: 0, IsActive: true})

	purchaseID := uuid.New()
	lines := []StockLine{{ProductID: pid, Quantity: 8}}
	if _, err := svc.RecordPurchase(context.Background(), purchaseID, lines); err != nil {
		t.Fatalf("RecordPurchase: %v", err)
	}

	movements, err := svc.ReverseTransaction(context.Background(), model.RefTypePurchase, purchaseID, lines)
	if err != nil {
		t.Fatalf("ReverseTransaction: %v", err)
	}

	if got := productRepo.products[pid].CurrentStock; got != 0 {
		t.Errorf("stock after reversal = %d, want 0", got)
	}
	if movements[0].ReferenceType != model.RefTypePurchaseReversal {
		t.Errorf("reference type = %q, want %q", movements[0].ReferenceType, model.RefTypePurchaseReversal)
	}
	if movements[0].QuantityChanged != -8 {
		t.Errorf("movement delta = %d, want -8", movements[0].QuantityChanged)
	}
}

func TestReverseTransactionUnknownKind(t *testing.T) {
	_, _, svc := newStockFixture(false)

	if _, err := svc.ReverseTransaction(context.Background(), "ADJUSTMENT", uuid.New(), nil); err == nil {
		t.Fatal("expected error for unknown transaction kind")
	}
}

func TestApplyDeltaUnknownProduct(t *testing.T) {
	_, _, svc := newStockFixture(false)

	_, err := svc.ApplyDelta(context.Background(), uuid.New(), 5, model.RefTypePurchase, uuid.New())
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestApplyRejectsNonPositiveQuantity(t *testing.T) {
	productRepo, _, svc := newStockFixture(false)
	pid := productRepo.add(model.Product{SKU: "A-1", Name: "Widget", CurrentStock: 10, IsActive: true})

	_, err := svc.RecordPurchase(context.Background(), uuid.New(), []StockLine{{ProductID: pid, Quantity: 0}})
	if err == nil {
		t.Fatal("expected error for zero quantity")
	}
}

func TestGetLowStockExplicitThreshold(t *testing.T) {
	productRepo, _, svc := newStockFixture(false)
	productRepo.add(model.Product{SKU: "A-1", Name: "Low", CurrentStock: 2, MinStock: 1, IsActive: true})
	productRepo.add(model.Product{SKU: "A-2", Name: "High", CurrentStock: 50, MinStock: 1, IsActive: true})

	threshold := 5
	products, err := svc.GetLowStock(context.Background(), &threshold)
	if err != nil {
		t.Fatalf("GetLowStock: %v", err)
	}
	if len(products) != 1 || products[0].Name != "Low" {
		t.Errorf("explicit threshold returned %d products, want only 'Low'", len(products))
	}
}

func TestGetLowStockPerProductMinimum(t *testing.T) {
	productRepo, _, svc := newStockFixture(false)
	productRepo.add(model.Product{SKU: "A-1", Name: "AtMin", CurrentStock: 5, MinStock: 5, IsActive: true})
	productRepo.add(model.Product{SKU: "A-2", Name: "AboveMin", CurrentStock: 6, MinStock: 5, IsActive: true})

	products, err := svc.GetLowStock(context.Background(), nil)
	if err != nil {
		t.Fatalf("GetLowStock: %v", err)
	}
	if len(products) != 1 || products[0].Name != "AtMin" {
		t.Errorf("min_stock mode returned %d products, want only 'AtMin'", len(products))
	}
}

func TestMultiLineFailureStopsAtFirstError(t *testing.T) {
	productRepo, movementRepo, svc := newStockFixture(false)
	ok := productRepo.add(model.Product{SKU: "A-1", Name: "Plenty", CurrentStock: 100, IsActive: true})
	scarce := productRepo.add(model.Product{SKU: "A-2", Name: "Scarce", CurrentStock: 1, IsActive: true})

	_, err := svc.RecordSale(context.Background(), uuid.New(), []StockLine{
		{ProductID: ok, Quantity: 10},
		{ProductID: scarce, Quantity: 5},
	})
	if err == nil {
		t.Fatal("expected error on second line")
	}

	// The first line was applied; the enclosing database transaction is what
	// rolls it back in production. Here we only assert the error surfaced
	// and that the failing line left no trace.
	if got := productRepo.products[scarce].CurrentStock; got != 1 {
		t.Errorf("scarce stock = %d, want 1", got)
	}
	for _, m := range movementRepo.movements {
		if m.ProductID == scarce {
			t.Error("journal row written for failed line")
		}
	}
}
