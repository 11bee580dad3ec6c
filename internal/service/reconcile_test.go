package service

import (
	"testing"

	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/model"

	"github.com/google/uuid"
)

func knownFor(products ...uuid.UUID) KnownEntities {
	known := KnownEntities{Products: map[uuid.UUID]bool{}, Variations: map[uuid.UUID]bool{}}
	for _, id := range products {
		known.Products[id] = true
	}
	return known
}

func TestReconcileFoldsAllBuckets(t *testing.T) {
	productID := uuid.New()
	snapshot := model.BookState{
		Version: model.BookStateVersion,
		Entries: []model.BookStateEntry{
			{ProductID: productID, Quantity: dec("5")},
		},
	}
	movements := []model.Movement{
		{ProductID: productID, Type: model.MovementEntry, Quantity: dec("3")},
		{ProductID: productID, Type: model.MovementOut, Quantity: dec("2")},
		{ProductID: productID, Type: model.MovementSale, Quantity: dec("1"), Channel: model.ChannelPOS},
	}

	result := Reconcile(snapshot, movements, knownFor(productID))
	if len(result.Skipped) != 0 {
		t.Fatalf("expected no skipped movements, got %d", len(result.Skipped))
	}
	if len(result.Entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(result.Entries))
	}

	agg := result.Entries[0].Aggregates
	mustEqual(t, agg.Initial, dec("5"), "initial")
	mustEqual(t, agg.Entry, dec("3"), "entry")
	mustEqual(t, agg.Outs, dec("2"), "outs")
	mustEqual(t, agg.Sales, dec("1"), "sales")
	mustEqual(t, agg.OnlineSales, dec("0"), "online sales")
	mustEqual(t, agg.InStock, dec("5"), "in stock")
	mustEqual(t, result.Entries[0].Quantity, dec("5"), "entry quantity")
}

func TestReconcileOnlineSalesSubset(t *testing.T) {
	productID := uuid.New()
	snapshot := model.BookState{Version: model.BookStateVersion}
	movements := []model.Movement{
		{ProductID: productID, Type: model.MovementEntry, Quantity: dec("10")},
		{ProductID: productID, Type: model.MovementSale, Quantity: dec("4"), Channel: model.ChannelPOS},
		{ProductID: productID, Type: model.MovementSale, Quantity: dec("3"), Channel: model.ChannelOnline},
	}

	result := Reconcile(snapshot, movements, knownFor(productID))
	agg := result.Entries[0].Aggregates
	mustEqual(t, agg.Sales, dec("7"), "sales")
	mustEqual(t, agg.OnlineSales, dec("3"), "online sales")
	mustEqual(t, agg.InStock, dec("3"), "in stock")
}

func TestReconcileAdjustOnlyTouchesInStock(t *testing.T) {
	productID := uuid.New()
	snapshot := model.BookState{
		Entries: []model.BookStateEntry{{ProductID: productID, Quantity: dec("10")}},
	}
	movements := []model.Movement{
		{ProductID: productID, Type: model.MovementAdjust, Quantity: dec("-2.5")},
	}

	result := Reconcile(snapshot, movements, knownFor(productID))
	agg := result.Entries[0].Aggregates
	mustEqual(t, agg.InStock, dec("7.5"), "in stock")
	mustEqual(t, agg.Entry, dec("0"), "entry")
	mustEqual(t, agg.Outs, dec("0"), "outs")
}

func TestReconcileSkipsUnknownEntities(t *testing.T) {
	knownProduct := uuid.New()
	ghostProduct := uuid.New()
	snapshot := model.BookState{
		Entries: []model.BookStateEntry{{ProductID: knownProduct, Quantity: dec("1")}},
	}
	movements := []model.Movement{
		{ProductID: ghostProduct, Type: model.MovementEntry, Quantity: dec("5")},
		{ProductID: knownProduct, Type: model.MovementEntry, Quantity: dec("2")},
	}

	result := Reconcile(snapshot, movements, knownFor(knownProduct))
	if len(result.Skipped) != 1 {
		t.Fatalf("expected 1 skipped movement, got %d", len(result.Skipped))
	}
	if result.Skipped[0].ProductID != ghostProduct {
		t.Fatalf("skipped the wrong movement")
	}
	if len(result.Entries) != 1 {
		t.Fatalf("expected only the known entity, got %d entries", len(result.Entries))
	}
	mustEqual(t, result.Entries[0].Aggregates.InStock, dec("3"), "in stock")
}

func TestReconcileDeterministicAndIdempotent(t *testing.T) {
	first := uuid.New()
	second := uuid.New()
	variation := uuid.New()
	snapshot := model.BookState{
		Entries: []model.BookStateEntry{
			{ProductID: first, Quantity: dec("2")},
			{ProductID: second, VariationID: &variation, Quantity: dec("4")},
		},
	}
	movements := []model.Movement{
		{ProductID: second, VariationID: &variation, Type: model.MovementWaste, Quantity: dec("1")},
		{ProductID: first, Type: model.MovementMove, Quantity: dec("2")},
	}
	known := knownFor(first, second)
	known.Variations[variation] = true

	a := Reconcile(snapshot, movements, known)
	b := Reconcile(snapshot, movements, known)

	if len(a.Entries) != 2 || len(b.Entries) != 2 {
		t.Fatalf("expected 2 entries in both runs")
	}
	for i := range a.Entries {
		if a.Entries[i].ProductID != b.Entries[i].ProductID {
			t.Fatalf("entry order differs between identical runs")
		}
		mustEqual(t, a.Entries[i].Quantity, b.Entries[i].Quantity, "replayed quantity")
	}
	// Snapshot order is preserved.
	if a.Entries[0].ProductID != first || a.Entries[1].ProductID != second {
		t.Fatalf("entries not in snapshot order")
	}
	mustEqual(t, a.Entries[0].Aggregates.Movements, dec("2"), "movements bucket")
	mustEqual(t, a.Entries[1].Aggregates.Waste, dec("1"), "waste bucket")
	mustEqual(t, a.Entries[1].Aggregates.InStock, dec("3"), "variation in stock")
}

func TestGroupDisplay(t *testing.T) {
	groups, remainder := GroupDisplay(dec("25"), dec("6"))
	mustEqual(t, groups, dec("4"), "groups")
	mustEqual(t, remainder, dec("1"), "remainder")

	groups, remainder = GroupDisplay(dec("25"), dec("0"))
	mustEqual(t, groups, dec("0"), "groups with zero conversion")
	mustEqual(t, remainder, dec("25"), "remainder with zero conversion")
}
