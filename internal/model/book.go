package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// StockAreaBook operation constants
const (
	BookOperationOpen   = "OPEN"
	BookOperationClosed = "CLOSED"
)

// BookStateVersion is the current schema version of the serialized book state.
const BookStateVersion = 1

// EconomicCycle is a bounded accounting period scoping movements and
// inventory snapshots.
type EconomicCycle struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BusinessID uuid.UUID      `gorm:"type:uuid;not null;index" json:"business_id"`
	Name       string         `gorm:"type:varchar(100);not null" json:"name"`
	IsActive   bool           `gorm:"default:true;index" json:"is_active"`
	OpenedAt   time.Time      `gorm:"not null" json:"opened_at"`
	ClosedAt   *time.Time     `json:"closed_at"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
}

func (e *EconomicCycle) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// StockAreaBook is an inventory snapshot row for one (area, cycle) pair.
// At most one OPEN and one CLOSED row may exist per pair; CLOSED rows are
// immutable once written. State holds a BookState serialized as JSON.
type StockAreaBook struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	AreaID          uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_area_cycle_op" json:"area_id"`
	Area            *StockArea `gorm:"foreignKey:AreaID" json:"-"`
	EconomicCycleID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_area_cycle_op" json:"economic_cycle_id"`
	Operation       string     `gorm:"type:varchar(10);not null;uniqueIndex:idx_area_cycle_op" json:"operation"`
	State           string     `gorm:"type:jsonb;not null" json:"state"`
	MadeByUserID    *uuid.UUID `gorm:"type:uuid" json:"made_by_user_id"`
	MadeBy          *User      `gorm:"foreignKey:MadeByUserID" json:"made_by,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (b *StockAreaBook) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// BookEntryAggregates holds the replayed flow buckets of one entity between
// the OPEN snapshot and the reconciliation cutoff.
type BookEntryAggregates struct {
	Initial     decimal.Decimal `json:"initial"`
	Entry       decimal.Decimal `json:"entry"`
	Movements   decimal.Decimal `json:"movements"`
	Outs        decimal.Decimal `json:"outs"`
	Waste       decimal.Decimal `json:"waste"`
	Processed   decimal.Decimal `json:"processed"`
	Sales       decimal.Decimal `json:"sales"`
	OnlineSales decimal.Decimal `json:"online_sales"`
	InStock     decimal.Decimal `json:"in_stock"`
}

// BookStateEntry is one per-entity line of a snapshot. OPEN rows carry only
// the captured quantity; CLOSED rows additionally carry the reconciled
// aggregates.
type BookStateEntry struct {
	ProductID   uuid.UUID            `json:"product_id"`
	VariationID *uuid.UUID           `json:"variation_id,omitempty"`
	Quantity    decimal.Decimal      `json:"quantity"`
	Aggregates  *BookEntryAggregates `json:"aggregates,omitempty"`
}

// BookState is the typed, schema-versioned snapshot payload stored in
// StockAreaBook.State. Entries are kept in a deterministic order.
type BookState struct {
	Version int              `json:"version"`
	Entries []BookStateEntry `json:"entries"`
}
