package model

import (
	"time"

	"github.com/google/uuid"
)

// InvoiceTemplate is a render template for printed invoices. Invariant: at
// most one row has IsDefault=true at any time across the whole table.
type InvoiceTemplate struct {
	ID        uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Body      string    `gorm:"type:text;not null" json:"body"`
	IsDefault bool      `gorm:"default:false;index" json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
