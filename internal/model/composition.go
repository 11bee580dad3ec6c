package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Supply is a bill-of-materials edge: Quantity units of SupplyProduct are
// consumed to produce one batch of Product.
type Supply struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID       uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_product_supply" json:"product_id"`
	Product         *Product        `gorm:"foreignKey:ProductID" json:"-"`
	SupplyProductID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_product_supply" json:"supply_product_id"`
	SupplyProduct   *Product        `gorm:"foreignKey:SupplyProductID" json:"supply_product,omitempty"`
	Quantity        decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"quantity"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func (s *Supply) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// FixedCost is a flat additive cost on a composite product, independent of
// supply quantities.
type FixedCost struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"`
	Product     *Product        `gorm:"foreignKey:ProductID" json:"-"`
	Description string          `gorm:"type:varchar(255);not null" json:"description"`
	CostAmount  decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"cost_amount"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (f *FixedCost) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// Combo is a composition edge of a COMBO product: Quantity units of the
// composed product (optionally a specific variation of it) go into one unit
// of the combo. Availability is always derived from composed stock, never
// stored.
type Combo struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null;index" json:"product_id"` // the combo base product
	Product     *Product        `gorm:"foreignKey:ProductID" json:"-"`
	ComposedID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"composed_id"`
	Composed    *Product        `gorm:"foreignKey:ComposedID" json:"composed,omitempty"`
	VariationID *uuid.UUID      `gorm:"type:uuid;index" json:"variation_id"`
	Variation   *Variation      `gorm:"foreignKey:VariationID" json:"variation,omitempty"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"quantity"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (c *Combo) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
