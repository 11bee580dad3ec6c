package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	ActionCreateProduct = "CREATE_PRODUCT"
	ActionUpdateProduct = "UPDATE_PRODUCT"
	ActionDeleteProduct = "DELETE_PRODUCT"

	ActionRegisterAttributes = "REGISTER_ATTRIBUTES"
	ActionCreateVariation    = "CREATE_VARIATION"
	ActionUpdateVariation    = "UPDATE_VARIATION"
	ActionDeleteVariation    = "DELETE_VARIATION"

	ActionUpdateSupplies   = "UPDATE_SUPPLIES"
	ActionUpdateFixedCosts = "UPDATE_FIXED_COSTS"
	ActionUpdateCombos     = "UPDATE_COMBOS"

	ActionRegisterMovement = "REGISTER_MOVEMENT"
	ActionOpenInventory    = "OPEN_INVENTORY"
	ActionCloseInventory   = "CLOSE_INVENTORY"
)

// AuditLog tracks Who, What, and When for critical system changes.
// Rows are tenant-scoped: listings only ever surface the caller's business.
type AuditLog struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	BusinessID uuid.UUID  `gorm:"type:uuid;not null;index" json:"business_id"`
	UserID     *uuid.UUID `gorm:"type:uuid;index" json:"user_id"` // Nullable gracefully if automated bot
	User       *User      `gorm:"foreignKey:UserID" json:"user"`
	Action     string     `gorm:"type:varchar(50);not null;index" json:"action"`
	EntityID   string     `gorm:"type:varchar(50);index" json:"entity_id"`        // Reference string (uuid/code)
	EntityName string     `gorm:"type:varchar(255)" json:"entity_name,omitempty"` // Human readable name
	Details    string     `gorm:"type:jsonb" json:"details"`                      // Serialized JSON payload of the action
	CreatedAt  time.Time  `gorm:"index" json:"created_at"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
