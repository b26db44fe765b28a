package model

import (
	"time"

	"github.com/google/uuid"
)

// ApprovalStatus enum constants. PENDING is the only state with outgoing
// transitions; APPROVED and REJECTED are terminal.
const (
	ApprovalPending  = "PENDING"
	ApprovalApproved = "APPROVED"
	ApprovalRejected = "REJECTED"
)

// ApprovalRequest tracks the admission of a newly created partner entity.
// Exactly one is created, in the same database transaction, whenever a
// partner row is created. Approving it flips IsApproved on the target row.
type ApprovalRequest struct {
	ID          uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	EntityType  EntityType `gorm:"type:varchar(30);not null;index" json:"entity_type"`
	EntityID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"entity_id"`
	Status      string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`
	Notes       string     `gorm:"type:text" json:"notes"`
	RequestedBy *uuid.UUID `gorm:"type:uuid;index" json:"requested_by"`
	Requester   *User      `gorm:"foreignKey:RequestedBy" json:"requester,omitempty"`
	DecidedBy   *uuid.UUID `gorm:"type:uuid" json:"decided_by"`
	Decider     *User      `gorm:"foreignKey:DecidedBy" json:"decider,omitempty"`
	DecidedAt   *time.Time `json:"decided_at"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
