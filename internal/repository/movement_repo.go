package repository

import (
	"context"
	"time"

	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MovementFilter narrows journal listings.
type MovementFilter struct {
	AreaID          *uuid.UUID
	ProductID       *uuid.UUID
	EconomicCycleID *uuid.UUID
	Type            string
	Page            int
	Limit           int
}

// MovementRepository is the append-only stock journal.
type MovementRepository interface {
	Create(ctx context.Context, movement *model.Movement) error
	List(ctx context.Context, filter MovementFilter) ([]model.Movement, int64, error)
	// ListForReplay returns the ordered movement slice the reconciler folds:
	// all journal rows of one (area, cycle) pair written after the OPEN
	// snapshot and up to the cutoff.
	ListForReplay(ctx context.Context, areaID, cycleID uuid.UUID, after, cutoff time.Time) ([]model.Movement, error)
}

type movementRepository struct {
	db *gorm.DB
}

func NewMovementRepository(db *gorm.DB) MovementRepository {
	return &movementRepository{db: db}
}

func (r *movementRepository) Create(ctx context.Context, movement *model.Movement) error {
	return GetDB(ctx, r.db).Create(movement).Error
}

func (r *movementRepository) List(ctx context.Context, filter MovementFilter) ([]model.Movement, int64, error) {
	var rows []model.Movement
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Movement{})
	if filter.AreaID != nil {
		db = db.Where("area_id = ?", *filter.AreaID)
	}
	if filter.ProductID != nil {
		db = db.Where("product_id = ?", *filter.ProductID)
	}
	if filter.EconomicCycleID != nil {
		db = db.Where("economic_cycle_id = ?", *filter.EconomicCycleID)
	}
	if filter.Type != "" {
		db = db.Where("type = ?", filter.Type)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	if err := db.Preload("Product").
		Order("created_at desc").
		Offset(offset).Limit(filter.Limit).
		Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

func (r *movementRepository) ListForReplay(ctx context.Context, areaID, cycleID uuid.UUID, after, cutoff time.Time) ([]model.Movement, error) {
	var rows []model.Movement
	if err := GetDB(ctx, r.db).
		Where("area_id = ? AND economic_cycle_id = ?", areaID, cycleID).
		Where("created_at > ? AND created_at <= ?", after, cutoff).
		Order("created_at asc, id asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
