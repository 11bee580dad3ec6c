package database

import (
	"log"

	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

// Migrate runs the schema migration for every persisted model.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Business{},
		&model.BusinessConfig{},
		&model.CurrencyRate{},
		&model.User{},
		&model.RefreshToken{},
		&model.Product{},
		&model.Attribute{},
		&model.ProductAttribute{},
		&model.Variation{},
		&model.VariationProductAttribute{},
		&model.Supply{},
		&model.FixedCost{},
		&model.Combo{},
		&model.StockArea{},
		&model.StockAreaProduct{},
		&model.StockAreaVariation{},
		&model.EconomicCycle{},
		&model.Movement{},
		&model.StockAreaBook{},
		&model.AuditLog{},
	)
}
