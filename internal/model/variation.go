package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Attribute is a catalog-level attribute definition (e.g. size, color).
type Attribute struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Code      string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"code"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *Attribute) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

// ProductAttribute registers one allowed value of an attribute code on a
// VARIATION-type product. The set of codes is frozen once the product has
// variations.
type ProductAttribute struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_product_code_value" json:"product_id"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"-"`
	Code      string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_product_code_value" json:"code"`
	Name      string    `gorm:"type:varchar(100);not null" json:"name"`
	Value     string    `gorm:"type:varchar(100);not null;uniqueIndex:idx_product_code_value" json:"value"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (p *ProductAttribute) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Variation is a concrete SKU of a VARIATION-type product, identified by a
// unique combination of registered attribute values.
type Variation struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID   uuid.UUID        `gorm:"type:uuid;not null;index" json:"product_id"`
	Product     *Product         `gorm:"foreignKey:ProductID" json:"-"`
	Name        string           `gorm:"type:varchar(255);not null" json:"name"`
	Description string           `gorm:"type:text" json:"description"`
	Price       *decimal.Decimal `gorm:"type:decimal(18,6)" json:"price"`
	OnSalePrice *decimal.Decimal `gorm:"type:decimal(18,6)" json:"on_sale_price"`
	ImageURL    string           `gorm:"type:text" json:"image_url"`

	Attributes []VariationProductAttribute `gorm:"foreignKey:VariationID" json:"attributes,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (v *Variation) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}

// VariationProductAttribute binds a Variation to exactly one registered value
// per attribute code.
type VariationProductAttribute struct {
	ID                 uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	VariationID        uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_variation_attr" json:"variation_id"`
	ProductAttributeID uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_variation_attr" json:"product_attribute_id"`
	ProductAttribute   *ProductAttribute `gorm:"foreignKey:ProductAttributeID" json:"product_attribute,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
}

func (v *VariationProductAttribute) BeforeCreate(tx *gorm.DB) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	return nil
}
