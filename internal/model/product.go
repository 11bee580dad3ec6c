package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ProductType enum constants
const (
	ProductTypeRaw          = "RAW"
	ProductTypeManufactured = "MANUFACTURED"
	ProductTypeStock        = "STOCK"
	ProductTypeWaste        = "WASTE"
	ProductTypeAsset        = "ASSET"
	ProductTypeMenu         = "MENU"
	ProductTypeService      = "SERVICE"
	ProductTypeAddon        = "ADDON"
	ProductTypeCombo        = "COMBO"
	ProductTypeVariation    = "VARIATION"
)

// ManualCostType reports whether a product type carries a manually set
// average cost instead of a rolled-up one.
func ManualCostType(productType string) bool {
	switch productType {
	case ProductTypeRaw, ProductTypeAsset, ProductTypeWaste:
		return true
	}
	return false
}

// Product is a catalog item owned by a business. Composite types
// (MANUFACTURED/MENU/STOCK/ADDON) derive AverageCost from their supplies;
// RAW/ASSET/WASTE carry it manually.
type Product struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BusinessID uuid.UUID `gorm:"type:uuid;not null;index" json:"business_id"`
	Name       string    `gorm:"type:varchar(255);not null" json:"name"`
	Type       string    `gorm:"type:varchar(20);not null;index" json:"type"`
	Measure    string    `gorm:"type:varchar(20);not null;default:'UNIT'" json:"measure"`

	AverageCost     decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0" json:"average_cost"`
	Performance     decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0" json:"performance"`       // explicit divisor for unit cost; 0 = use fallback
	UnitsToProduce  decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0" json:"units_to_produce"` // fallback yield input
	TotalQuantity   decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0" json:"total_quantity"`
	StockLimit      bool            `gorm:"default:false" json:"stock_limit"`
	EnableGroup     bool            `gorm:"default:false" json:"enable_group"`
	GroupConvertion decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0" json:"group_convertion"`
	GroupName       string          `gorm:"type:varchar(100)" json:"group_name"`

	Description string         `gorm:"type:text" json:"description"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
