package repository

import (
	"context"

	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ReferenceRepository is the read-only window onto the directories this
// subsystem consumes: areas, economic cycles, business configuration and
// currency rates.
type ReferenceRepository interface {
	FindArea(ctx context.Context, id uuid.UUID) (*model.StockArea, error)
	FindCycle(ctx context.Context, id uuid.UUID) (*model.EconomicCycle, error)
	FindActiveCycle(ctx context.Context, businessID uuid.UUID) (*model.EconomicCycle, error)
	ListConfigs(ctx context.Context, businessID uuid.UUID) ([]model.BusinessConfig, error)
	ListCurrencyRates(ctx context.Context, businessID uuid.UUID) ([]model.CurrencyRate, error)
}

type referenceRepository struct {
	db *gorm.DB
}

func NewReferenceRepository(db *gorm.DB) ReferenceRepository {
	return &referenceRepository{db: db}
}

func (r *referenceRepository) FindArea(ctx context.Context, id uuid.UUID) (*model.StockArea, error) {
	var area model.StockArea
	if err := GetDB(ctx, r.db).First(&area, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &area, nil
}

func (r *referenceRepository) FindCycle(ctx context.Context, id uuid.UUID) (*model.EconomicCycle, error) {
	var cycle model.EconomicCycle
	if err := GetDB(ctx, r.db).First(&cycle, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &cycle, nil
}

func (r *referenceRepository) FindActiveCycle(ctx context.Context, businessID uuid.UUID) (*model.EconomicCycle, error) {
	var cycle model.EconomicCycle
	if err := GetDB(ctx, r.db).
		Where("business_id = ? AND is_active = ?", businessID, true).
		Order("opened_at desc").
		First(&cycle).Error; err != nil {
		return nil, err
	}
	return &cycle, nil
}

func (r *referenceRepository) ListConfigs(ctx context.Context, businessID uuid.UUID) ([]model.BusinessConfig, error) {
	var rows []model.BusinessConfig
	if err := GetDB(ctx, r.db).
		Where("business_id = ?", businessID).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *referenceRepository) ListCurrencyRates(ctx context.Context, businessID uuid.UUID) ([]model.CurrencyRate, error) {
	var rows []model.CurrencyRate
	if err := GetDB(ctx, r.db).
		Where("business_id = ?", businessID).
		Order("code asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
