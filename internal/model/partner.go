package model

import (
	"time"

	"github.com/google/uuid"
)

// EntityType identifies which partner table an approval request points at.
// The set is closed: repository dispatch errors on anything else.
type EntityType string

const (
	EntityTypeVendor       EntityType = "VENDOR"
	EntityTypeSupplier     EntityType = "SUPPLIER"
	EntityTypeDistributor  EntityType = "DISTRIBUTOR"
	EntityTypeRetailer     EntityType = "RETAILER"
	EntityTypeBilledEntity EntityType = "BILLED_ENTITY"
)

// ValidEntityType reports whether t names one of the five partner tables.
func ValidEntityType(t EntityType) bool {
	switch t {
	case EntityTypeVendor, EntityTypeSupplier, EntityTypeDistributor,
		EntityTypeRetailer, EntityTypeBilledEntity:
		return true
	}
	return false
}

// PartnerProfile holds the fields shared by every business-partner kind.
// IsApproved is flipped exclusively by the approval workflow; IsActive acts
// as the soft-delete flag so historical transactions keep resolving.
type PartnerProfile struct {
	ID            uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name          string    `gorm:"type:varchar(255);not null" json:"name"`
	CompanyName   string    `gorm:"type:varchar(255)" json:"company_name"`
	GSTIN         string    `gorm:"type:varchar(50)" json:"gstin"`
	ContactPerson string    `gorm:"type:varchar(255)" json:"contact_person"`
	Phone         string    `gorm:"type:varchar(50)" json:"phone"`
	Email         string    `gorm:"type:varchar(255)" json:"email"`
	Address       string    `gorm:"type:text" json:"address"`
	IsApproved    bool      `gorm:"default:false;index" json:"is_approved"`
	IsActive      bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// PartnerEntity is implemented by all five partner kinds so services can
// handle them uniformly while each keeps its own table.
type PartnerEntity interface {
	Profile() *PartnerProfile
	EntityType() EntityType
}

// Vendor supplies goods on the purchasing side
type Vendor struct {
	PartnerProfile
}

func (v *Vendor) Profile() *PartnerProfile { return &v.PartnerProfile }
func (v *Vendor) EntityType() EntityType   { return EntityTypeVendor }

// Supplier is a purchase counterparty referenced by purchase transactions
type Supplier struct {
	PartnerProfile
}

func (s *Supplier) Profile() *PartnerProfile { return &s.PartnerProfile }
func (s *Supplier) EntityType() EntityType   { return EntityTypeSupplier }

// Distributor moves goods downstream
type Distributor struct {
	PartnerProfile
}

func (d *Distributor) Profile() *PartnerProfile { return &d.PartnerProfile }
func (d *Distributor) EntityType() EntityType   { return EntityTypeDistributor }

// Retailer is a sale counterparty
type Retailer struct {
	PartnerProfile
}

func (r *Retailer) Profile() *PartnerProfile { return &r.PartnerProfile }
func (r *Retailer) EntityType() EntityType   { return EntityTypeRetailer }

// BilledEntity is the invoiced party on sales
type BilledEntity struct {
	PartnerProfile
}

func (b *BilledEntity) Profile() *PartnerProfile { return &b.PartnerProfile }
func (b *BilledEntity) EntityType() EntityType   { return EntityTypeBilledEntity }
