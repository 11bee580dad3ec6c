package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MovementType enum constants
const (
	MovementEntry     = "ENTRY"
	MovementOut       = "OUT"
	MovementMove      = "MOVEMENT"
	MovementAdjust    = "ADJUST"
	MovementWaste     = "WASTE"
	MovementSale      = "SALE"
	MovementProcessed = "PROCESSED"
)

// Sale channel constants
const (
	ChannelPOS    = "POS"
	ChannelOnline = "ONLINE"
)

// Movement is one journal entry of the stock ledger. Quantities are always
// positive; the movement type decides the sign applied during replay.
// PROCESSED rows are recorded against the raw product with the BOM multiplier
// already applied; the manufactured credit is a paired ENTRY row referencing
// this one through ParentID.
type Movement struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Type            string          `gorm:"type:varchar(20);not null;index" json:"type"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product         *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	VariationID     *uuid.UUID      `gorm:"type:uuid;index" json:"variation_id"`
	AreaID          uuid.UUID       `gorm:"type:uuid;not null;index" json:"area_id"`
	EconomicCycleID uuid.UUID       `gorm:"type:uuid;not null;index" json:"economic_cycle_id"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"quantity"`
	Channel         string          `gorm:"type:varchar(10);not null;default:'POS'" json:"channel"`
	ParentID        *uuid.UUID      `gorm:"type:uuid;index" json:"parent_id"`
	Description     string          `gorm:"type:text" json:"description"`
	MadeByUserID    *uuid.UUID      `gorm:"type:uuid;index" json:"made_by_user_id"`
	CreatedAt       time.Time       `gorm:"index" json:"created_at"`
}

func (m *Movement) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
