package repository

import (
	"context"

	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockRepository persists the live per-area quantities (the aggregator's
// source of truth).
type StockRepository interface {
	FindAreaProduct(ctx context.Context, areaID, productID uuid.UUID) (*model.StockAreaProduct, error)
	FindAreaProductForUpdate(ctx context.Context, areaID, productID uuid.UUID) (*model.StockAreaProduct, error)
	CreateAreaProduct(ctx context.Context, row *model.StockAreaProduct) error
	SaveAreaProduct(ctx context.Context, row *model.StockAreaProduct) error
	ListByArea(ctx context.Context, areaID uuid.UUID) ([]model.StockAreaProduct, error)

	FindAreaVariationForUpdate(ctx context.Context, stockAreaProductID, variationID uuid.UUID) (*model.StockAreaVariation, error)
	CreateAreaVariation(ctx context.Context, row *model.StockAreaVariation) error
	SaveAreaVariation(ctx context.Context, row *model.StockAreaVariation) error
	ListAreaVariations(ctx context.Context, stockAreaProductID uuid.UUID) ([]model.StockAreaVariation, error)
	CountVariationRefs(ctx context.Context, variationID uuid.UUID) (int64, error)
	SumVariationQuantity(ctx context.Context, variationID uuid.UUID) (decimal.Decimal, error)

	// SumProductQuantity sums the product's quantity over all areas.
	SumProductQuantity(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error)
}

type stockRepository struct {
	db *gorm.DB
}

func NewStockRepository(db *gorm.DB) StockRepository {
	return &stockRepository{db: db}
}

func (r *stockRepository) FindAreaProduct(ctx context.Context, areaID, productID uuid.UUID) (*model.StockAreaProduct, error) {
	var row model.StockAreaProduct
	if err := GetDB(ctx, r.db).
		Where("area_id = ? AND product_id = ?", areaID, productID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *stockRepository) FindAreaProductForUpdate(ctx context.Context, areaID, productID uuid.UUID) (*model.StockAreaProduct, error) {
	var row model.StockAreaProduct
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("area_id = ? AND product_id = ?", areaID, productID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *stockRepository) CreateAreaProduct(ctx context.Context, row *model.StockAreaProduct) error {
	return GetDB(ctx, r.db).Create(row).Error
}

func (r *stockRepository) SaveAreaProduct(ctx context.Context, row *model.StockAreaProduct) error {
	return GetDB(ctx, r.db).Save(row).Error
}

func (r *stockRepository) ListByArea(ctx context.Context, areaID uuid.UUID) ([]model.StockAreaProduct, error) {
	var rows []model.StockAreaProduct
	if err := GetDB(ctx, r.db).
		Preload("Product").
		Where("area_id = ?", areaID).
		Order("created_at asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *stockRepository) FindAreaVariationForUpdate(ctx context.Context, stockAreaProductID, variationID uuid.UUID) (*model.StockAreaVariation, error) {
	var row model.StockAreaVariation
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("stock_area_product_id = ? AND variation_id = ?", stockAreaProductID, variationID).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *stockRepository) CreateAreaVariation(ctx context.Context, row *model.StockAreaVariation) error {
	return GetDB(ctx, r.db).Create(row).Error
}

func (r *stockRepository) SaveAreaVariation(ctx context.Context, row *model.StockAreaVariation) error {
	return GetDB(ctx, r.db).Save(row).Error
}

func (r *stockRepository) ListAreaVariations(ctx context.Context, stockAreaProductID uuid.UUID) ([]model.StockAreaVariation, error) {
	var rows []model.StockAreaVariation
	if err := GetDB(ctx, r.db).
		Where("stock_area_product_id = ?", stockAreaProductID).
		Order("created_at asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *stockRepository) CountVariationRefs(ctx context.Context, variationID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.StockAreaVariation{}).
		Where("variation_id = ?", variationID).
		Count(&count).Error
	return count, err
}

func (r *stockRepository) SumVariationQuantity(ctx context.Context, variationID uuid.UUID) (decimal.Decimal, error) {
	return r.sumQuantity(ctx, GetDB(ctx, r.db).Model(&model.StockAreaVariation{}).
		Where("variation_id = ?", variationID))
}

func (r *stockRepository) SumProductQuantity(ctx context.Context, productID uuid.UUID) (decimal.Decimal, error) {
	return r.sumQuantity(ctx, GetDB(ctx, r.db).Model(&model.StockAreaProduct{}).
		Where("product_id = ?", productID))
}

func (r *stockRepository) sumQuantity(ctx context.Context, query *gorm.DB) (decimal.Decimal, error) {
	var sum *string
	if err := query.Select("CAST(SUM(quantity) AS TEXT)").Scan(&sum).Error; err != nil {
		return decimal.Zero, err
	}
	if sum == nil || *sum == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(*sum)
}
