package repository

import (
	"context"

	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error)
	List(ctx context.Context, businessID uuid.UUID, page, limit int, search, productType string) ([]model.Product, int64, error)
	UpdateCost(ctx context.Context, id uuid.UUID, averageCost decimal.Decimal) error
	UpdateTotalQuantity(ctx context.Context, id uuid.UUID, total decimal.Decimal) error
	// FindDependentIDs returns the IDs of products holding a supply edge on
	// the given product. Used for one-level cost propagation.
	FindDependentIDs(ctx context.Context, supplyProductID uuid.UUID) ([]uuid.UUID, error)
	// FilterExistingIDs narrows ids down to those with a live product row.
	FilterExistingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Save(product).Error
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Product{}).Error
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, businessID uuid.UUID, page, limit int, search, productType string) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Product{}).Where("business_id = ?", businessID)
	if search != "" {
		db = db.Where("name ILIKE ?", "%"+search+"%")
	}
	if productType != "" {
		db = db.Where("type = ?", productType)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

func (r *productRepository) UpdateCost(ctx context.Context, id uuid.UUID, averageCost decimal.Decimal) error {
	return GetDB(ctx, r.db).Model(&model.Product{}).Where("id = ?", id).
		Update("average_cost", averageCost).Error
}

func (r *productRepository) UpdateTotalQuantity(ctx context.Context, id uuid.UUID, total decimal.Decimal) error {
	return GetDB(ctx, r.db).Model(&model.Product{}).Where("id = ?", id).
		Update("total_quantity", total).Error
}

func (r *productRepository) FilterExistingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var existing []uuid.UUID
	err := GetDB(ctx, r.db).Model(&model.Product{}).
		Where("id IN ?", ids).
		Pluck("id", &existing).Error
	if err != nil {
		return nil, err
	}
	return existing, nil
}

func (r *productRepository) FindDependentIDs(ctx context.Context, supplyProductID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := GetDB(ctx, r.db).Model(&model.Supply{}).
		Distinct("product_id").
		Where("supply_product_id = ?", supplyProductID).
		Pluck("product_id", &ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}
