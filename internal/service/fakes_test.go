package service

import (
	"context"
	"strings"
	"sync"

	"inventory-backend/internal/model"
	"inventory-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// In-memory doubles for the repository interfaces, enough to drive the
// service layer without a database.

type fakeTxManager struct{}

func (f *fakeTxManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

type publishedEvent struct {
	Entity  string
	Action  string
	Payload interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (f *fakePublisher) Publish(entity, action string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, publishedEvent{Entity: entity, Action: action, Payload: payload})
}

func (f *fakePublisher) count(entity, action string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.events {
		if e.Entity == entity && e.Action == action {
			n++
		}
	}
	return n
}

// --- products ---

type fakeProductRepo struct {
	products map[uuid.UUID]*model.Product
}

func newFakeProductRepo() *fakeProductRepo {
	return &fakeProductRepo{products: make(map[uuid.UUID]*model.Product)}
}

func (f *fakeProductRepo) add(p model.Product) uuid.UUID {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	cp := p
	f.products[cp.ID] = &cp
	return cp.ID
}

func (f *fakeProductRepo) Create(_ context.Context, product *model.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	cp := *product
	f.products[cp.ID] = &cp
	return nil
}

func (f *fakeProductRepo) Update(_ context.Context, product *model.Product) error {
	if _, ok := f.products[product.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *product
	f.products[cp.ID] = &cp
	return nil
}

func (f *fakeProductRepo) Deactivate(_ context.Context, id uuid.UUID) error {
	p, ok := f.products[id]
	if !ok || !p.IsActive {
		return gorm.ErrRecordNotFound
	}
	p.IsActive = false
	return nil
}

func (f *fakeProductRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) FindBySKU(_ context.Context, sku string) (*model.Product, error) {
	for _, p := range f.products {
		if p.SKU == sku {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeProductRepo) List(_ context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	var out []model.Product
	for _, p := range f.products {
		if !p.IsActive {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(search)) &&
			!strings.Contains(strings.ToLower(p.SKU), strings.ToLower(search)) {
			continue
		}
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (f *fakeProductRepo) Count(_ context.Context) (int64, error) {
	var n int64
	for _, p := range f.products {
		if p.IsActive {
			n++
		}
	}
	return n, nil
}

func (f *fakeProductRepo) AdjustStock(_ context.Context, id uuid.UUID, delta int, enforceFloor bool) (*model.Product, error) {
	p, ok := f.products[id]
	if !ok || !p.IsActive {
		return nil, gorm.ErrRecordNotFound
	}
	if enforceFloor && delta < 0 && p.CurrentStock+delta < 0 {
		return nil, repository.ErrInsufficientStock
	}
	p.CurrentStock += delta
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) LowStockBelow(_ context.Context, threshold int) ([]model.Product, error) {
	var out []model.Product
	for _, p := range f.products {
		if p.IsActive && p.CurrentStock <= threshold {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProductRepo) LowStockBelowMin(_ context.Context) ([]model.Product, error) {
	var out []model.Product
	for _, p := range f.products {
		if p.IsActive && p.CurrentStock <= p.MinStock {
			out = append(out, *p)
		}
	}
	return out, nil
}

// --- stock movements ---

type fakeMovementRepo struct {
	movements []model.StockMovement
}

func (f *fakeMovementRepo) Create(_ context.Context, movement *model.StockMovement) error {
	if movement.ID == uuid.Nil {
		movement.ID = uuid.New()
	}
	f.movements = append(f.movements, *movement)
	return nil
}

func (f *fakeMovementRepo) ListByProduct(_ context.Context, productID uuid.UUID, page, limit int) ([]model.StockMovement, int64, error) {
	var out []model.StockMovement
	for _, m := range f.movements {
		if m.ProductID == productID {
			out = append(out, m)
		}
	}
	return out, int64(len(out)), nil
}

// --- partners ---

type fakePartnerRepo struct {
	partners map[model.EntityType]map[uuid.UUID]model.PartnerEntity
}

func newFakePartnerRepo() *fakePartnerRepo {
	return &fakePartnerRepo{partners: make(map[model.EntityType]map[uuid.UUID]model.PartnerEntity)}
}

func (f *fakePartnerRepo) table(entityType model.EntityType) map[uuid.UUID]model.PartnerEntity {
	if f.partners[entityType] == nil {
		f.partners[entityType] = make(map[uuid.UUID]model.PartnerEntity)
	}
	return f.partners[entityType]
}

func (f *fakePartnerRepo) Create(_ context.Context, entity model.PartnerEntity) error {
	profile := entity.Profile()
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	f.table(entity.EntityType())[profile.ID] = entity
	return nil
}

func (f *fakePartnerRepo) Update(_ context.Context, entity model.PartnerEntity) error {
	tbl := f.table(entity.EntityType())
	if _, ok := tbl[entity.Profile().ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	tbl[entity.Profile().ID] = entity
	return nil
}

func (f *fakePartnerRepo) FindByID(_ context.Context, entityType model.EntityType, id uuid.UUID) (model.PartnerEntity, error) {
	if !model.ValidEntityType(entityType) {
		return nil, gorm.ErrRecordNotFound
	}
	entity, ok := f.table(entityType)[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return entity, nil
}

func (f *fakePartnerRepo) List(_ context.Context, entityType model.EntityType, search string, page, limit int) ([]model.PartnerEntity, int64, error) {
	var out []model.PartnerEntity
	for _, e := range f.table(entityType) {
		if e.Profile().IsActive {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakePartnerRepo) SetApproved(_ context.Context, entityType model.EntityType, id uuid.UUID, approved bool) error {
	entity, ok := f.table(entityType)[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	entity.Profile().IsApproved = approved
	return nil
}

func (f *fakePartnerRepo) Deactivate(_ context.Context, entityType model.EntityType, id uuid.UUID) error {
	entity, ok := f.table(entityType)[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	entity.Profile().IsActive = false
	return nil
}

// --- approvals ---

type fakeApprovalRepo struct {
	requests map[uuid.UUID]model.ApprovalRequest
}

func newFakeApprovalRepo() *fakeApprovalRepo {
	return &fakeApprovalRepo{requests: make(map[uuid.UUID]model.ApprovalRequest)}
}

func (f *fakeApprovalRepo) Create(_ context.Context, req *model.ApprovalRequest) error {
	if req.ID == uuid.Nil {
		req.ID = uuid.New()
	}
	if req.Status == "" {
		req.Status = model.ApprovalPending
	}
	f.requests[req.ID] = *req
	return nil
}

func (f *fakeApprovalRepo) FindByID(_ context.Context, id uuid.UUID) (*model.ApprovalRequest, error) {
	req, ok := f.requests[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := req
	return &cp, nil
}

func (f *fakeApprovalRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.ApprovalRequest, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeApprovalRepo) FindByIDWithRelations(ctx context.Context, id uuid.UUID) (*model.ApprovalRequest, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeApprovalRepo) FindByEntity(_ context.Context, entityType model.EntityType, entityID uuid.UUID) (*model.ApprovalRequest, error) {
	for _, req := range f.requests {
		if req.EntityType == entityType && req.EntityID == entityID {
			cp := req
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeApprovalRepo) List(_ context.Context, status string, page, limit int) ([]model.ApprovalRequest, int64, error) {
	var out []model.ApprovalRequest
	for _, req := range f.requests {
		if status == "" || req.Status == status {
			out = append(out, req)
		}
	}
	return out, int64(len(out)), nil
}

func (f *fakeApprovalRepo) Update(_ context.Context, req *model.ApprovalRequest) error {
	if _, ok := f.requests[req.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.requests[req.ID] = *req
	return nil
}

func (f *fakeApprovalRepo) CountByStatus(_ context.Context, status string) (int64, error) {
	var n int64
	for _, req := range f.requests {
		if req.Status == status {
			n++
		}
	}
	return n, nil
}

// --- audit ---

type fakeAuditRepo struct {
	entries []model.AuditLog
}

func (f *fakeAuditRepo) Log(_ context.Context, entry *model.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	f.entries = append(f.entries, *entry)
	return nil
}

func (f *fakeAuditRepo) List(_ context.Context, action string, page, limit int) ([]model.AuditLog, int64, error) {
	var out []model.AuditLog
	for _, e := range f.entries {
		if action == "" || e.Action == action {
			out = append(out, e)
		}
	}
	return out, int64(len(out)), nil
}

// --- invoice templates ---

type fakeTemplateRepo struct {
	templates map[uuid.UUID]model.InvoiceTemplate
}

func newFakeTemplateRepo() *fakeTemplateRepo {
	return &fakeTemplateRepo{templates: make(map[uuid.UUID]model.InvoiceTemplate)}
}

func (f *fakeTemplateRepo) Create(_ context.Context, tmpl *model.InvoiceTemplate) error {
	if tmpl.ID == uuid.Nil {
		tmpl.ID = uuid.New()
	}
	f.templates[tmpl.ID] = *tmpl
	return nil
}

func (f *fakeTemplateRepo) Update(_ context.Context, tmpl *model.InvoiceTemplate) error {
	if _, ok := f.templates[tmpl.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	f.templates[tmpl.ID] = *tmpl
	return nil
}

func (f *fakeTemplateRepo) FindByID(_ context.Context, id uuid.UUID) (*model.InvoiceTemplate, error) {
	tmpl, ok := f.templates[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := tmpl
	return &cp, nil
}

func (f *fakeTemplateRepo) FindDefault(_ context.Context) (*model.InvoiceTemplate, error) {
	for _, tmpl := range f.templates {
		if tmpl.IsDefault {
			cp := tmpl
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeTemplateRepo) List(_ context.Context, page, limit int) ([]model.InvoiceTemplate, int64, error) {
	var out []model.InvoiceTemplate
	for _, tmpl := range f.templates {
		out = append(out, tmpl)
	}
	return out, int64(len(out)), nil
}

func (f *fakeTemplateRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.templates[id]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(f.templates, id)
	return nil
}

func (f *fakeTemplateRepo) ClearDefault(_ context.Context) error {
	for id, tmpl := range f.templates {
		if tmpl.IsDefault {
			tmpl.IsDefault = false
			f.templates[id] = tmpl
		}
	}
	return nil
}

func (f *fakeTemplateRepo) defaultCount() int {
	n := 0
	for _, tmpl := range f.templates {
		if tmpl.IsDefault {
			n++
		}
	}
	return n
}

// --- purchases ---

type fakePurchaseRepo struct {
	purchases map[uuid.UUID]model.Purchase
	items     map[uuid.UUID][]model.PurchaseItem
}

func newFakePurchaseRepo() *fakePurchaseRepo {
	return &fakePurchaseRepo{
		purchases: make(map[uuid.UUID]model.Purchase),
		items:     make(map[uuid.UUID][]model.PurchaseItem),
	}
}

func (f *fakePurchaseRepo) Create(_ context.Context, purchase *model.Purchase) error {
	if purchase.ID == uuid.Nil {
		purchase.ID = uuid.New()
	}
	cp := *purchase
	cp.Items = nil
	f.purchases[cp.ID] = cp
	return nil
}

func (f *fakePurchaseRepo) CreateItem(_ context.Context, item *model.PurchaseItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	f.items[item.PurchaseID] = append(f.items[item.PurchaseID], *item)
	return nil
}

func (f *fakePurchaseRepo) FindByIDWithItems(_ context.Context, id uuid.UUID) (*model.Purchase, error) {
	purchase, ok := f.purchases[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := purchase
	cp.Items = append([]model.PurchaseItem(nil), f.items[id]...)
	return &cp, nil
}

func (f *fakePurchaseRepo) List(_ context.Context, page, limit int) ([]model.Purchase, int64, error) {
	var out []model.Purchase
	for id, p := range f.purchases {
		cp := p
		cp.Items = append([]model.PurchaseItem(nil), f.items[id]...)
		out = append(out, cp)
	}
	return out, int64(len(out)), nil
}

func (f *fakePurchaseRepo) UpdateStatus(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	purchase, ok := f.purchases[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := fields["status"].(string); ok {
		purchase.Status = v
	}
	if v, ok := fields["payment_status"].(string); ok {
		purchase.PaymentStatus = v
	}
	f.purchases[id] = purchase
	return nil
}

func (f *fakePurchaseRepo) DeleteItems(_ context.Context, purchaseID uuid.UUID) error {
	delete(f.items, purchaseID)
	return nil
}

func (f *fakePurchaseRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.purchases, id)
	return nil
}

func (f *fakePurchaseRepo) Count(_ context.Context) (int64, error) {
	return int64(len(f.purchases)), nil
}

func (f *fakePurchaseRepo) SumTotalAmount(_ context.Context) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range f.purchases {
		sum = sum.Add(p.TotalAmount)
	}
	return sum, nil
}

// --- sales ---

type fakeSaleRepo struct {
	sales map[uuid.UUID]model.Sale
	items map[uuid.UUID][]model.SaleItem
}

func newFakeSaleRepo() *fakeSaleRepo {
	return &fakeSaleRepo{
		sales: make(map[uuid.UUID]model.Sale),
		items: make(map[uuid.UUID][]model.SaleItem),
	}
}

func (f *fakeSaleRepo) Create(_ context.Context, sale *model.Sale) error {
	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}
	cp := *sale
	cp.Items = nil
	f.sales[cp.ID] = cp
	return nil
}

func (f *fakeSaleRepo) CreateItem(_ context.Context, item *model.SaleItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	f.items[item.SaleID] = append(f.items[item.SaleID], *item)
	return nil
}

func (f *fakeSaleRepo) FindByIDWithItems(_ context.Context, id uuid.UUID) (*model.Sale, error) {
	sale, ok := f.sales[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := sale
	cp.Items = append([]model.SaleItem(nil), f.items[id]...)
	return &cp, nil
}

func (f *fakeSaleRepo) List(_ context.Context, page, limit int) ([]model.Sale, int64, error) {
	var out []model.Sale
	for id, s := range f.sales {
		cp := s
		cp.Items = append([]model.SaleItem(nil), f.items[id]...)
		out = append(out, cp)
	}
	return out, int64(len(out)), nil
}

func (f *fakeSaleRepo) UpdateStatus(_ context.Context, id uuid.UUID, fields map[string]interface{}) error {
	sale, ok := f.sales[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := fields["status"].(string); ok {
		sale.Status = v
	}
	if v, ok := fields["payment_status"].(string); ok {
		sale.PaymentStatus = v
	}
	f.sales[id] = sale
	return nil
}

func (f *fakeSaleRepo) DeleteItems(_ context.Context, saleID uuid.UUID) error {
	delete(f.items, saleID)
	return nil
}

func (f *fakeSaleRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(f.sales, id)
	return nil
}

func (f *fakeSaleRepo) Count(_ context.Context) (int64, error) {
	return int64(len(f.sales)), nil
}

func (f *fakeSaleRepo) SumTotalAmount(_ context.Context) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, s := range f.sales {
		sum = sum.Add(s.TotalAmount)
	}
	return sum, nil
}
