package repository

import (
	"context"

	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CompositionRepository persists BOM edges, fixed costs and combo edges.
type CompositionRepository interface {
	ListSupplies(ctx context.Context, productID uuid.UUID) ([]model.Supply, error)
	ReplaceSupplies(ctx context.Context, productID uuid.UUID, edges []model.Supply) error

	ListFixedCosts(ctx context.Context, productID uuid.UUID) ([]model.FixedCost, error)
	ReplaceFixedCosts(ctx context.Context, productID uuid.UUID, costs []model.FixedCost) error

	ListCombos(ctx context.Context, comboProductID uuid.UUID) ([]model.Combo, error)
	ReplaceCombos(ctx context.Context, comboProductID uuid.UUID, edges []model.Combo) error
}

type compositionRepository struct {
	db *gorm.DB
}

func NewCompositionRepository(db *gorm.DB) CompositionRepository {
	return &compositionRepository{db: db}
}

func (r *compositionRepository) ListSupplies(ctx context.Context, productID uuid.UUID) ([]model.Supply, error) {
	var rows []model.Supply
	if err := GetDB(ctx, r.db).
		Preload("SupplyProduct").
		Where("product_id = ?", productID).
		Order("created_at asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *compositionRepository) ReplaceSupplies(ctx context.Context, productID uuid.UUID, edges []model.Supply) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("product_id = ?", productID).Delete(&model.Supply{}).Error; err != nil {
		return err
	}
	for i := range edges {
		edges[i].ProductID = productID
		if err := db.Create(&edges[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *compositionRepository) ListFixedCosts(ctx context.Context, productID uuid.UUID) ([]model.FixedCost, error) {
	var rows []model.FixedCost
	if err := GetDB(ctx, r.db).
		Where("product_id = ?", productID).
		Order("created_at asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *compositionRepository) ReplaceFixedCosts(ctx context.Context, productID uuid.UUID, costs []model.FixedCost) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("product_id = ?", productID).Delete(&model.FixedCost{}).Error; err != nil {
		return err
	}
	for i := range costs {
		costs[i].ProductID = productID
		if err := db.Create(&costs[i]).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *compositionRepository) ListCombos(ctx context.Context, comboProductID uuid.UUID) ([]model.Combo, error) {
	var rows []model.Combo
	if err := GetDB(ctx, r.db).
		Preload("Composed").
		Preload("Variation").
		Where("product_id = ?", comboProductID).
		Order("created_at asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *compositionRepository) ReplaceCombos(ctx context.Context, comboProductID uuid.UUID, edges []model.Combo) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("product_id = ?", comboProductID).Delete(&model.Combo{}).Error; err != nil {
		return err
	}
	for i := range edges {
		edges[i].ProductID = comboProductID
		if err := db.Create(&edges[i]).Error; err != nil {
			return err
		}
	}
	return nil
}
