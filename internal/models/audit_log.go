package models

import (
	"time"

	"gorm.io/datatypes"
)

type AuditLog struct {
	ID uint `gorm:"primaryKey" json:"id"`

	UserID *uint  `json:"user_id"`
	Action string `gorm:"size:50;not null;index" json:"action"`

	Entity   string         `gorm:"size:50;index:idx_audit_entity" json:"entity"`
	EntityID *uint          `gorm:"index:idx_audit_entity" json:"entity_id"`
	Metadata datatypes.JSON `gorm:"type:jsonb" json:"metadata"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}
