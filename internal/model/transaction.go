package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TransactionStatus constants
const (
	TxStatusPending   = "PENDING"
	TxStatusCompleted = "COMPLETED"
	TxStatusCancelled = "CANCELLED"
)

// PaymentStatus constants
const (
	PaymentUnpaid  = "UNPAID"
	PaymentPartial = "PARTIAL"
	PaymentPaid    = "PAID"
)

// Purchase is an inbound stock transaction against a supplier. Creating one
// increases stock per line item; deleting one applies the inverse deltas
// before the rows are removed.
type Purchase struct {
	ID            uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PurchaseNo    string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"purchase_no"`
	SupplierID    uuid.UUID       `gorm:"type:uuid;not null;index" json:"supplier_id"`
	Supplier      *Supplier       `gorm:"foreignKey:SupplierID" json:"supplier,omitempty"`
	Items         []PurchaseItem  `gorm:"foreignKey:PurchaseID" json:"items"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_amount"`
	TotalTax      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_tax"`
	Status        string          `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	PaymentStatus string          `gorm:"type:varchar(20);not null;default:'UNPAID'" json:"payment_status"`
	Note          string          `gorm:"type:text" json:"note"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// PurchaseItem is a line item within a Purchase. Quantity is always positive;
// the stock ledger applies it with a positive sign.
type PurchaseItem struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	PurchaseID uuid.UUID `gorm:"type:uuid;not null;index" json:"purchase_id"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Product    Product   `gorm:"foreignKey:ProductID" json:"-"`
	Quantity   int       `gorm:"type:int;not null" json:"quantity"`
	UnitPrice  float64   `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	TaxRate    float64   `gorm:"type:decimal(5,2);default:0" json:"tax_rate"`
}

// Sale is an outbound stock transaction against a retailer, invoiced to a
// billed entity. Creating one decreases stock per line item.
type Sale struct {
	ID             uuid.UUID       `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SaleNo         string          `gorm:"type:varchar(100);uniqueIndex;not null" json:"sale_no"`
	RetailerID     uuid.UUID       `gorm:"type:uuid;not null;index" json:"retailer_id"`
	Retailer       *Retailer       `gorm:"foreignKey:RetailerID" json:"retailer,omitempty"`
	BilledEntityID uuid.UUID       `gorm:"type:uuid;not null;index" json:"billed_entity_id"`
	BilledEntity   *BilledEntity   `gorm:"foreignKey:BilledEntityID" json:"billed_entity,omitempty"`
	Items          []SaleItem      `gorm:"foreignKey:SaleID" json:"items"`
	TotalAmount    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"total_amount"`
	TotalTax       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0" json:"total_tax"`
	Status         string          `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	PaymentStatus  string          `gorm:"type:varchar(20);not null;default:'UNPAID'" json:"payment_status"`
	Note           string          `gorm:"type:text" json:"note"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// SaleItem is a line item within a Sale
type SaleItem struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SaleID    uuid.UUID `gorm:"type:uuid;not null;index" json:"sale_id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Product   Product   `gorm:"foreignKey:ProductID" json:"-"`
	Quantity  int       `gorm:"type:int;not null" json:"quantity"`
	UnitPrice float64   `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	TaxRate   float64   `gorm:"type:decimal(5,2);default:0" json:"tax_rate"`
}

// StockMovement reference types
const (
	RefTypePurchase         = "PURCHASE"
	RefTypeSale             = "SALE"
	RefTypePurchaseReversal = "PURCHASE_REVERSAL"
	RefTypeSaleReversal     = "SALE_REVERSAL"
)

// StockMovement records every applied stock delta strictly, one row per line
// item, with the resulting on-hand quantity.
type StockMovement struct {
	ID              uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	ProductID       uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	ReferenceType   string    `gorm:"type:varchar(30);not null" json:"reference_type"`
	ReferenceID     uuid.UUID `gorm:"type:uuid;not null;index" json:"reference_id"`
	QuantityChanged int       `gorm:"type:int;not null" json:"quantity_changed"`
	StockAfter      int       `gorm:"type:int;not null" json:"stock_after"`
	CreatedAt       time.Time `json:"created_at"`
}
