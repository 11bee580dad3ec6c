package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Business config keys
const (
	ConfigDecimalPrecision = "decimal_precision"
	ConfigCostCurrency     = "cost_currency"
)

// Business is the owning tenant of products, areas and cycles.
type Business struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (b *Business) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// BusinessConfig is one key/value configuration entry of a business
// (decimal precision, cost currency, ...). Read-only for this service.
type BusinessConfig struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BusinessID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_business_key" json:"business_id"`
	Key        string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_business_key" json:"key"`
	Value      string    `gorm:"type:varchar(255);not null" json:"value"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (c *BusinessConfig) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CurrencyRate is one row of the exchange-rate table relative to the
// business cost currency.
type CurrencyRate struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	BusinessID   uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_business_currency" json:"business_id"`
	Code         string          `gorm:"type:varchar(10);not null;uniqueIndex:idx_business_currency" json:"code"`
	ExchangeRate decimal.Decimal `gorm:"type:decimal(18,6);not null;default:1" json:"exchange_rate"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func (c *CurrencyRate) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
