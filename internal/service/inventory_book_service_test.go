package service

import (
	"context"
	"testing"

	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/model"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/pkg/apperror"
)

func TestOpenInventoryCapturesSnapshot(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rice := env.seedProduct(t, "Rice", model.ProductTypeRaw, dec("2"))
	env.seedStock(t, rice, dec("12"))

	status, err := env.books.OpenInventory(ctx, env.user.ID.String(), env.business.ID, env.area.ID, env.cycle.ID)
	if err != nil {
		t.Fatalf("open inventory: %v", err)
	}
	if status.OpenAction == nil {
		t.Fatalf("expected open action metadata")
	}
	if len(status.Products) != 1 {
		t.Fatalf("expected 1 snapshot entry, got %d", len(status.Products))
	}
	entry := status.Products[0]
	if entry.ProductID != rice.ID {
		t.Fatalf("snapshot entry for wrong product")
	}
	mustEqual(t, entry.Quantity, dec("12"), "snapshot quantity")

	// Stock mutated after opening must not change the stored snapshot.
	env.register(t, RegisterMovementRequest{
		Type: model.MovementOut, ProductID: rice.ID.String(),
		AreaID: env.area.ID.String(), Quantity: dec("5"),
	})
	var book model.StockAreaBook
	if err := env.db.First(&book, "area_id = ? AND operation = ?", env.area.ID, model.BookOperationOpen).Error; err != nil {
		t.Fatalf("load book: %v", err)
	}
	if book.State == "" {
		t.Fatalf("expected persisted snapshot state")
	}
}

func TestOpenInventoryTwiceConflicts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	if _, err := env.books.OpenInventory(ctx, env.user.ID.String(), env.business.ID, env.area.ID, env.cycle.ID); err != nil {
		t.Fatalf("first open: %v", err)
	}
	_, err := env.books.OpenInventory(ctx, env.user.ID.String(), env.business.ID, env.area.ID, env.cycle.ID)
	mustKind(t, err, apperror.KindConflict)
}

func TestOpenInventoryRejectsNonStockArea(t *testing.T) {
	env := newTestEnv(t)
	bar := model.StockArea{BusinessID: env.business.ID, Name: "Bar", Type: model.AreaTypeSale}
	if err := env.db.Create(&bar).Error; err != nil {
		t.Fatalf("seed sale area: %v", err)
	}
	_, err := env.books.OpenInventory(context.Background(), env.user.ID.String(), env.business.ID, bar.ID, env.cycle.ID)
	mustKind(t, err, apperror.KindValidation)
}

func TestCloseInventoryReconcilesAggregates(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rice := env.seedProduct(t, "Rice", model.ProductTypeRaw, dec("2"))
	env.seedStock(t, rice, dec("10"))

	if _, err := env.books.OpenInventory(ctx, env.user.ID.String(), env.business.ID, env.area.ID, env.cycle.ID); err != nil {
		t.Fatalf("open inventory: %v", err)
	}

	env.register(t, RegisterMovementRequest{
		Type: model.MovementEntry, ProductID: rice.ID.String(),
		AreaID: env.area.ID.String(), Quantity: dec("6"),
	})
	env.register(t, RegisterMovementRequest{
		Type: model.MovementOut, ProductID: rice.ID.String(),
		AreaID: env.area.ID.String(), Quantity: dec("2"),
	})
	env.register(t, RegisterMovementRequest{
		Type: model.MovementSale, ProductID: rice.ID.String(),
		AreaID: env.area.ID.String(), Quantity: dec("3"), Channel: "ONLINE",
	})

	status, err := env.books.CloseInventory(ctx, env.user.ID.String(), env.business.ID, env.area.ID, env.cycle.ID)
	if err != nil {
		t.Fatalf("close inventory: %v", err)
	}
	if status.ClosedAction == nil {
		t.Fatalf("expected closed action metadata")
	}
	if len(status.Products) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(status.Products))
	}
	agg := status.Products[0].Aggregates
	if agg == nil {
		t.Fatalf("expected reconciled aggregates on closed entry")
	}
	mustEqual(t, agg.Initial, dec("10"), "initial")
	mustEqual(t, agg.Entry, dec("6"), "entry")
	mustEqual(t, agg.Outs, dec("2"), "outs")
	mustEqual(t, agg.Sales, dec("3"), "sales")
	mustEqual(t, agg.OnlineSales, dec("3"), "online sales")
	mustEqual(t, agg.InStock, dec("11"), "in stock")
}

func TestCloseInventoryWithoutOpenNotFound(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.books.CloseInventory(context.Background(), env.user.ID.String(), env.business.ID, env.area.ID, env.cycle.ID)
	mustKind(t, err, apperror.KindNotFound)
}

func TestCloseInventoryTwiceKeepsFirstResult(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rice := env.seedProduct(t, "Rice", model.ProductTypeRaw, dec("2"))
	env.seedStock(t, rice, dec("10"))

	if _, err := env.books.OpenInventory(ctx, env.user.ID.String(), env.business.ID, env.area.ID, env.cycle.ID); err != nil {
		t.Fatalf("open inventory: %v", err)
	}
	first, err := env.books.CloseInventory(ctx, env.user.ID.String(), env.business.ID, env.area.ID, env.cycle.ID)
	if err != nil {
		t.Fatalf("first close: %v", err)
	}

	_, err = env.books.CloseInventory(ctx, env.user.ID.String(), env.business.ID, env.area.ID, env.cycle.ID)
	mustKind(t, err, apperror.KindConflict)

	// The stored closing snapshot is immutable after the failed retry.
	status, err := env.books.GetInventoryStatus(ctx, env.business.ID, env.area.ID, env.cycle.ID)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	mustEqual(t, status.Products[0].Quantity, first.Products[0].Quantity, "frozen quantity")
}

func TestInventoryStatusLiveThenFrozen(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rice := env.seedProduct(t, "Rice", model.ProductTypeRaw, dec("2"))
	env.seedStock(t, rice, dec("10"))

	_, err := env.books.GetInventoryStatus(ctx, env.business.ID, env.area.ID, env.cycle.ID)
	mustKind(t, err, apperror.KindNotFound)

	if _, err := env.books.OpenInventory(ctx, env.user.ID.String(), env.business.ID, env.area.ID, env.cycle.ID); err != nil {
		t.Fatalf("open inventory: %v", err)
	}
	env.register(t, RegisterMovementRequest{
		Type: model.MovementEntry, ProductID: rice.ID.String(),
		AreaID: env.area.ID.String(), Quantity: dec("4"),
	})

	// Before closing, the status is a live replay over the journal.
	live, err := env.books.GetInventoryStatus(ctx, env.business.ID, env.area.ID, env.cycle.ID)
	if err != nil {
		t.Fatalf("live status: %v", err)
	}
	mustEqual(t, live.Products[0].Aggregates.InStock, dec("14"), "live in stock")
	if live.ClosedAction != nil {
		t.Fatalf("live status must not carry a closed action")
	}

	if _, err := env.books.CloseInventory(ctx, env.user.ID.String(), env.business.ID, env.area.ID, env.cycle.ID); err != nil {
		t.Fatalf("close inventory: %v", err)
	}
	env.register(t, RegisterMovementRequest{
		Type: model.MovementOut, ProductID: rice.ID.String(),
		AreaID: env.area.ID.String(), Quantity: dec("5"),
	})

	// After closing, the status is frozen and ignores later movements.
	frozen, err := env.books.GetInventoryStatus(ctx, env.business.ID, env.area.ID, env.cycle.ID)
	if err != nil {
		t.Fatalf("frozen status: %v", err)
	}
	mustEqual(t, frozen.Products[0].Aggregates.InStock, dec("14"), "frozen in stock")
	if frozen.ClosedAction == nil {
		t.Fatalf("frozen status must carry the closed action")
	}
}

func TestCloseInventorySkipsDeletedProducts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rice := env.seedProduct(t, "Rice", model.ProductTypeRaw, dec("2"))
	ghost := env.seedProduct(t, "Ghost", model.ProductTypeRaw, dec("1"))
	env.seedStock(t, rice, dec("10"))

	if _, err := env.books.OpenInventory(ctx, env.user.ID.String(), env.business.ID, env.area.ID, env.cycle.ID); err != nil {
		t.Fatalf("open inventory: %v", err)
	}
	env.register(t, RegisterMovementRequest{
		Type: model.MovementEntry, ProductID: ghost.ID.String(),
		AreaID: env.area.ID.String(), Quantity: dec("5"),
	})

	// Hard-delete the product so its journal rows dangle.
	if err := env.db.Unscoped().Delete(&model.Product{}, "id = ?", ghost.ID).Error; err != nil {
		t.Fatalf("delete product: %v", err)
	}

	status, err := env.books.CloseInventory(ctx, env.user.ID.String(), env.business.ID, env.area.ID, env.cycle.ID)
	if err != nil {
		t.Fatalf("close inventory: %v", err)
	}
	if status.SkippedEntries == 0 {
		t.Fatalf("expected dangling movements to be counted as skipped")
	}
	for _, entry := range status.Products {
		if entry.ProductID == ghost.ID {
			t.Fatalf("deleted product must not appear in the reconciled report")
		}
	}
}

func TestReplayWindowCountsEachMovementOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rice := env.seedProduct(t, "Rice", model.ProductTypeRaw, dec("2"))
	env.seedStock(t, rice, dec("10"))

	// A movement settled before opening belongs to the snapshot, not the
	// replay window.
	env.register(t, RegisterMovementRequest{
		Type: model.MovementEntry, ProductID: rice.ID.String(),
		AreaID: env.area.ID.String(), Quantity: dec("5"),
	})

	opened, err := env.books.OpenInventory(ctx, env.user.ID.String(), env.business.ID, env.area.ID, env.cycle.ID)
	if err != nil {
		t.Fatalf("open inventory: %v", err)
	}
	mustEqual(t, opened.Products[0].Quantity, dec("15"), "captured initial")

	env.register(t, RegisterMovementRequest{
		Type: model.MovementEntry, ProductID: rice.ID.String(),
		AreaID: env.area.ID.String(), Quantity: dec("4"),
	})

	status, err := env.books.CloseInventory(ctx, env.user.ID.String(), env.business.ID, env.area.ID, env.cycle.ID)
	if err != nil {
		t.Fatalf("close inventory: %v", err)
	}
	agg := status.Products[0].Aggregates
	if agg == nil {
		t.Fatalf("expected reconciled aggregates")
	}
	// The pre-open entry must only show up in Initial and the post-open
	// entry must only show up in Entry: no loss, no double count.
	mustEqual(t, agg.Initial, dec("15"), "initial")
	mustEqual(t, agg.Entry, dec("4"), "entry")
	mustEqual(t, agg.InStock, dec("19"), "in stock")

	var live model.StockAreaProduct
	if err := env.db.First(&live, "area_id = ? AND product_id = ?", env.area.ID, rice.ID).Error; err != nil {
		t.Fatalf("load live stock: %v", err)
	}
	mustEqual(t, live.Quantity, agg.InStock, "frozen state matches live stock")
}
