package repository

import (
	"context"

	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// VariationRepository persists registered attribute values and the
// variations derived from them.
type VariationRepository interface {
	ListProductAttributes(ctx context.Context, productID uuid.UUID) ([]model.ProductAttribute, error)
	CreateProductAttributes(ctx context.Context, rows []model.ProductAttribute) error

	CountVariations(ctx context.Context, productID uuid.UUID) (int64, error)
	ListVariations(ctx context.Context, productID uuid.UUID) ([]model.Variation, error)
	FindVariationByID(ctx context.Context, id uuid.UUID) (*model.Variation, error)
	CreateVariation(ctx context.Context, variation *model.Variation) error
	SaveVariation(ctx context.Context, variation *model.Variation) error
	DeleteVariation(ctx context.Context, id uuid.UUID) error

	ReplaceVariationAttributes(ctx context.Context, variationID uuid.UUID, attributeIDs []uuid.UUID) error

	// FilterExistingIDs narrows ids down to those with a live variation row.
	FilterExistingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error)
}

type variationRepository struct {
	db *gorm.DB
}

func NewVariationRepository(db *gorm.DB) VariationRepository {
	return &variationRepository{db: db}
}

func (r *variationRepository) ListProductAttributes(ctx context.Context, productID uuid.UUID) ([]model.ProductAttribute, error) {
	var rows []model.ProductAttribute
	if err := GetDB(ctx, r.db).
		Where("product_id = ?", productID).
		Order("code asc, value asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *variationRepository) CreateProductAttributes(ctx context.Context, rows []model.ProductAttribute) error {
	if len(rows) == 0 {
		return nil
	}
	return GetDB(ctx, r.db).Create(&rows).Error
}

func (r *variationRepository) CountVariations(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Variation{}).
		Where("product_id = ?", productID).
		Count(&count).Error
	return count, err
}

func (r *variationRepository) ListVariations(ctx context.Context, productID uuid.UUID) ([]model.Variation, error) {
	var rows []model.Variation
	if err := GetDB(ctx, r.db).
		Preload("Attributes.ProductAttribute").
		Where("product_id = ?", productID).
		Order("created_at asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *variationRepository) FindVariationByID(ctx context.Context, id uuid.UUID) (*model.Variation, error) {
	var row model.Variation
	if err := GetDB(ctx, r.db).
		Preload("Attributes.ProductAttribute").
		First(&row, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *variationRepository) CreateVariation(ctx context.Context, variation *model.Variation) error {
	return GetDB(ctx, r.db).Create(variation).Error
}

func (r *variationRepository) SaveVariation(ctx context.Context, variation *model.Variation) error {
	return GetDB(ctx, r.db).Omit("Attributes").Save(variation).Error
}

func (r *variationRepository) DeleteVariation(ctx context.Context, id uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("variation_id = ?", id).
		Delete(&model.VariationProductAttribute{}).Error; err != nil {
		return err
	}
	return db.Where("id = ?", id).Delete(&model.Variation{}).Error
}

func (r *variationRepository) FilterExistingIDs(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var existing []uuid.UUID
	err := GetDB(ctx, r.db).Model(&model.Variation{}).
		Where("id IN ?", ids).
		Pluck("id", &existing).Error
	if err != nil {
		return nil, err
	}
	return existing, nil
}

func (r *variationRepository) ReplaceVariationAttributes(ctx context.Context, variationID uuid.UUID, attributeIDs []uuid.UUID) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("variation_id = ?", variationID).
		Delete(&model.VariationProductAttribute{}).Error; err != nil {
		return err
	}
	for _, attrID := range attributeIDs {
		join := model.VariationProductAttribute{
			VariationID:        variationID,
			ProductAttributeID: attrID,
		}
		if err := db.Create(&join).Error; err != nil {
			return err
		}
	}
	return nil
}
