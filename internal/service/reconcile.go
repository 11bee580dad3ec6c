package service

import (
	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// entityKey identifies one ledger entity: a product, or one of its
// variations. uuid.Nil variation means the product-level row.
type entityKey struct {
	ProductID   uuid.UUID
	VariationID uuid.UUID
}

func movementKey(m model.Movement) entityKey {
	key := entityKey{ProductID: m.ProductID}
	if m.VariationID != nil {
		key.VariationID = *m.VariationID
	}
	return key
}

// KnownEntities is the set of product/variation IDs that exist at
// reconciliation time. Movements referencing anything else are skipped.
type KnownEntities struct {
	Products   map[uuid.UUID]bool
	Variations map[uuid.UUID]bool
}

func (k KnownEntities) contains(m model.Movement) bool {
	if !k.Products[m.ProductID] {
		return false
	}
	if m.VariationID != nil && !k.Variations[*m.VariationID] {
		return false
	}
	return true
}

// ReconcileResult is the outcome of one replay: the reconciled entries in
// deterministic order plus the movements excluded for integrity reasons.
type ReconcileResult struct {
	Entries []model.BookStateEntry
	Skipped []model.Movement
}

// Reconcile folds an ordered movement list over a point-in-time snapshot and
// returns per-entity aggregates. It is a pure function: identical inputs
// yield identical output, entry order included (snapshot order first, then
// first appearance in the journal). Movements referencing entities missing
// from known are collected in Skipped instead of aborting the replay.
func Reconcile(snapshot model.BookState, movements []model.Movement, known KnownEntities) ReconcileResult {
	order := make([]entityKey, 0, len(snapshot.Entries))
	buckets := make(map[entityKey]*model.BookEntryAggregates, len(snapshot.Entries))
	variations := make(map[entityKey]*uuid.UUID, len(snapshot.Entries))

	ensure := func(key entityKey, variationID *uuid.UUID) *model.BookEntryAggregates {
		if agg, ok := buckets[key]; ok {
			return agg
		}
		agg := &model.BookEntryAggregates{}
		buckets[key] = agg
		variations[key] = variationID
		order = append(order, key)
		return agg
	}

	for _, entry := range snapshot.Entries {
		key := entityKey{ProductID: entry.ProductID}
		if entry.VariationID != nil {
			key.VariationID = *entry.VariationID
		}
		agg := ensure(key, entry.VariationID)
		agg.Initial = agg.Initial.Add(entry.Quantity)
		agg.InStock = agg.InStock.Add(entry.Quantity)
	}

	var skipped []model.Movement
	for _, m := range movements {
		if !known.contains(m) {
			skipped = append(skipped, m)
			continue
		}

		agg := ensure(movementKey(m), m.VariationID)
		q := m.Quantity

		switch m.Type {
		case model.MovementEntry:
			agg.Entry = agg.Entry.Add(q)
			agg.InStock = agg.InStock.Add(q)
		case model.MovementOut:
			agg.Outs = agg.Outs.Add(q)
			agg.InStock = agg.InStock.Sub(q)
		case model.MovementMove:
			agg.Movements = agg.Movements.Add(q)
			agg.InStock = agg.InStock.Sub(q)
		case model.MovementWaste:
			// Waste is its own accounting bucket; it never re-enters stock.
			agg.Waste = agg.Waste.Add(q)
			agg.InStock = agg.InStock.Sub(q)
		case model.MovementProcessed:
			// Recorded on the raw entity with the BOM multiplier already
			// applied at write time; the manufactured credit arrives as a
			// paired ENTRY row.
			agg.Processed = agg.Processed.Add(q)
			agg.InStock = agg.InStock.Sub(q)
		case model.MovementSale:
			agg.Sales = agg.Sales.Add(q)
			agg.InStock = agg.InStock.Sub(q)
			if m.Channel == model.ChannelOnline {
				agg.OnlineSales = agg.OnlineSales.Add(q)
			}
		case model.MovementAdjust:
			// Signed correction applied to on-hand stock only.
			agg.InStock = agg.InStock.Add(q)
		default:
			skipped = append(skipped, m)
		}
	}

	entries := make([]model.BookStateEntry, 0, len(order))
	for _, key := range order {
		agg := buckets[key]
		entries = append(entries, model.BookStateEntry{
			ProductID:   key.ProductID,
			VariationID: variations[key],
			Quantity:    agg.InStock,
			Aggregates:  agg,
		})
	}

	return ReconcileResult{Entries: entries, Skipped: skipped}
}

// GroupDisplay converts a raw quantity into grouped display units:
// floor(qty / conversion) groups plus the remainder. Purely presentational,
// stored quantities are never grouped.
func GroupDisplay(quantity, conversion decimal.Decimal) (groups decimal.Decimal, remainder decimal.Decimal) {
	if !conversion.IsPositive() {
		return decimal.Zero, quantity
	}
	groups = quantity.Div(conversion).Floor()
	remainder = quantity.Sub(groups.Mul(conversion))
	return groups, remainder
}
