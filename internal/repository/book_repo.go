package repository

import (
	"context"

	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// BookRepository persists inventory snapshot rows. Uniqueness of
// (area, cycle, operation) is guaranteed by the composite index; Create on a
// duplicate surfaces gorm.ErrDuplicatedKey.
type BookRepository interface {
	Create(ctx context.Context, book *model.StockAreaBook) error
	FindByAreaCycleOp(ctx context.Context, areaID, cycleID uuid.UUID, operation string) (*model.StockAreaBook, error)
}

type bookRepository struct {
	db *gorm.DB
}

func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

func (r *bookRepository) Create(ctx context.Context, book *model.StockAreaBook) error {
	return GetDB(ctx, r.db).Create(book).Error
}

func (r *bookRepository) FindByAreaCycleOp(ctx context.Context, areaID, cycleID uuid.UUID, operation string) (*model.StockAreaBook, error) {
	var row model.StockAreaBook
	if err := GetDB(ctx, r.db).
		Preload("MadeBy").
		Where("area_id = ? AND economic_cycle_id = ? AND operation = ?", areaID, cycleID, operation).
		First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}
