package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockAreaType enum constants
const (
	AreaTypeStock      = "STOCK"
	AreaTypeSale       = "SALE"
	AreaTypeProduction = "MANUFACTURER"
)

// StockArea is a physical or logical location holding product quantities.
// Only STOCK areas can be inventoried.
type StockArea struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BusinessID uuid.UUID      `gorm:"type:uuid;not null;index" json:"business_id"`
	Name       string         `gorm:"type:varchar(255);not null" json:"name"`
	Type       string         `gorm:"type:varchar(20);not null;default:'STOCK'" json:"type"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (a *StockArea) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// StockAreaProduct holds the live quantity of one product in one area.
// For stock-limited products the sum of these rows equals
// Product.TotalQuantity at all times.
type StockAreaProduct struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	AreaID    uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_area_product" json:"area_id"`
	Area      *StockArea      `gorm:"foreignKey:AreaID" json:"-"`
	ProductID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_area_product" json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0" json:"quantity"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (s *StockAreaProduct) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// StockAreaVariation is the per-variation sub-ledger of a StockAreaProduct row.
type StockAreaVariation struct {
	ID                 uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	StockAreaProductID uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_sap_variation" json:"stock_area_product_id"`
	StockAreaProduct   *StockAreaProduct `gorm:"foreignKey:StockAreaProductID" json:"-"`
	VariationID        uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_sap_variation" json:"variation_id"`
	Variation          *Variation        `gorm:"foreignKey:VariationID" json:"variation,omitempty"`
	Quantity           decimal.Decimal   `gorm:"type:decimal(18,6);not null;default:0" json:"quantity"`
	CreatedAt          time.Time         `json:"created_at"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

func (s *StockAreaVariation) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
