package model

import (
	"time"

	"github.com/google/uuid"
)

// Product represents an item in the inventory. CurrentStock is a derived
// quantity: it is only ever changed through signed stock deltas tied to a
// purchase or sale, never written directly by API consumers.
type Product struct {
	ID           uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	SKU          string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name         string    `gorm:"type:varchar(255);not null" json:"name"`
	Category     string    `gorm:"type:varchar(100);index" json:"category"`
	UnitPrice    float64   `gorm:"type:decimal(10,2);not null" json:"unit_price"`
	GSTRate      float64   `gorm:"type:decimal(5,2);default:0" json:"gst_rate"`
	CurrentStock int       `gorm:"type:int;default:0;not null" json:"current_stock"`
	MinStock     int       `gorm:"type:int;default:0" json:"min_stock"`
	IsActive     bool      `gorm:"default:true;index" json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
