package service

import (
	"context"
	"testing"

	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/model"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/pkg/apperror"
)

func (env *testEnv) seedArea(t *testing.T, name string) model.StockArea {
	t.Helper()
	area := model.StockArea{BusinessID: env.business.ID, Name: name, Type: model.AreaTypeStock}
	if err := env.db.Create(&area).Error; err != nil {
		t.Fatalf("seed area %s: %v", name, err)
	}
	return area
}

func (env *testEnv) totalQuantity(t *testing.T, product model.Product) model.Product {
	t.Helper()
	var stored model.Product
	if err := env.db.First(&stored, "id = ?", product.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	return stored
}

func TestMovementsMaintainTotalQuantityInvariant(t *testing.T) {
	env := newTestEnv(t)
	second := env.seedArea(t, "Kitchen")

	rice := env.seedProduct(t, "Rice", model.ProductTypeRaw, dec("2"))

	env.register(t, RegisterMovementRequest{
		Type: model.MovementEntry, ProductID: rice.ID.String(),
		AreaID: env.area.ID.String(), Quantity: dec("10"),
	})
	env.register(t, RegisterMovementRequest{
		Type: model.MovementEntry, ProductID: rice.ID.String(),
		AreaID: second.ID.String(), Quantity: dec("4"),
	})
	env.register(t, RegisterMovementRequest{
		Type: model.MovementOut, ProductID: rice.ID.String(),
		AreaID: env.area.ID.String(), Quantity: dec("3"),
	})

	stored := env.totalQuantity(t, rice)
	// 10 + 4 - 3 across both areas.
	mustEqual(t, stored.TotalQuantity, dec("11"), "total quantity")

	items, err := env.stock.GetAreaStock(context.Background(), env.business.ID, env.area.ID)
	if err != nil {
		t.Fatalf("area stock: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 stock item, got %d", len(items))
	}
	mustEqual(t, items[0].Quantity, dec("7"), "area quantity")
}

func TestStockLimitRejectsNegativeBalance(t *testing.T) {
	env := newTestEnv(t)
	rice := env.seedProduct(t, "Rice", model.ProductTypeRaw, dec("2"))
	if err := env.db.Model(&model.Product{}).Where("id = ?", rice.ID).
		Update("stock_limit", true).Error; err != nil {
		t.Fatalf("enable stock limit: %v", err)
	}
	rice.StockLimit = true

	env.register(t, RegisterMovementRequest{
		Type: model.MovementEntry, ProductID: rice.ID.String(),
		AreaID: env.area.ID.String(), Quantity: dec("5"),
	})

	_, err := env.stock.ApplyMovement(context.Background(), env.user.ID.String(), env.business.ID, RegisterMovementRequest{
		Type: model.MovementOut, ProductID: rice.ID.String(),
		AreaID: env.area.ID.String(), Quantity: dec("8"),
	})
	mustKind(t, err, apperror.KindValidation)

	// The rejected movement must not leave partial state behind.
	stored := env.totalQuantity(t, rice)
	mustEqual(t, stored.TotalQuantity, dec("5"), "total quantity after rejection")
	var journal int64
	if err := env.db.Model(&model.Movement{}).Where("product_id = ?", rice.ID).Count(&journal).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if journal != 1 {
		t.Fatalf("expected 1 journal row, got %d", journal)
	}
}

func TestTransferCreditsDestinationArea(t *testing.T) {
	env := newTestEnv(t)
	kitchen := env.seedArea(t, "Kitchen")
	rice := env.seedProduct(t, "Rice", model.ProductTypeRaw, dec("2"))

	env.register(t, RegisterMovementRequest{
		Type: model.MovementEntry, ProductID: rice.ID.String(),
		AreaID: env.area.ID.String(), Quantity: dec("10"),
	})

	movements := env.register(t, RegisterMovementRequest{
		Type: model.MovementMove, ProductID: rice.ID.String(),
		AreaID: env.area.ID.String(), DestinationAreaID: kitchen.ID.String(),
		Quantity: dec("4"),
	})
	if len(movements) != 2 {
		t.Fatalf("expected transfer to produce 2 journal rows, got %d", len(movements))
	}
	if movements[0].Type != model.MovementMove || movements[1].Type != model.MovementEntry {
		t.Fatalf("unexpected movement pair: %s, %s", movements[0].Type, movements[1].Type)
	}

	ctx := context.Background()
	source, err := env.stock.GetAreaStock(ctx, env.business.ID, env.area.ID)
	if err != nil {
		t.Fatalf("source stock: %v", err)
	}
	mustEqual(t, source[0].Quantity, dec("6"), "source area")

	dest, err := env.stock.GetAreaStock(ctx, env.business.ID, kitchen.ID)
	if err != nil {
		t.Fatalf("dest stock: %v", err)
	}
	mustEqual(t, dest[0].Quantity, dec("4"), "destination area")

	// Transfers never change the global total.
	stored := env.totalQuantity(t, rice)
	mustEqual(t, stored.TotalQuantity, dec("10"), "total quantity")
}

func TestProcessedConsumesSuppliesWithMultiplier(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	flour := env.seedProduct(t, "Flour", model.ProductTypeRaw, dec("3"))
	water := env.seedProduct(t, "Water", model.ProductTypeRaw, dec("0.1"))
	dough := env.seedProduct(t, "Dough", model.ProductTypeManufactured, dec("0"))

	if _, err := env.costs.UpdateSupplies(ctx, env.user.ID.String(), env.business.ID, dough.ID, UpdateSuppliesRequest{
		Supplies: []SupplyEdgeRequest{
			{SupplyProductID: flour.ID.String(), Quantity: dec("2")},
			{SupplyProductID: water.ID.String(), Quantity: dec("0.5")},
		},
	}); err != nil {
		t.Fatalf("dough supplies: %v", err)
	}

	env.register(t, RegisterMovementRequest{
		Type: model.MovementEntry, ProductID: flour.ID.String(),
		AreaID: env.area.ID.String(), Quantity: dec("10"),
	})
	env.register(t, RegisterMovementRequest{
		Type: model.MovementEntry, ProductID: water.ID.String(),
		AreaID: env.area.ID.String(), Quantity: dec("10"),
	})

	movements := env.register(t, RegisterMovementRequest{
		Type: model.MovementProcessed, ProductID: dough.ID.String(),
		AreaID: env.area.ID.String(), Quantity: dec("3"),
	})
	// Two PROCESSED rows on the raws plus one ENTRY credit on the product.
	if len(movements) != 3 {
		t.Fatalf("expected 3 journal rows, got %d", len(movements))
	}

	mustEqual(t, env.totalQuantity(t, flour).TotalQuantity, dec("4"), "flour after processing")    // 10 - 3×2
	mustEqual(t, env.totalQuantity(t, water).TotalQuantity, dec("8.5"), "water after processing") // 10 - 3×0.5
	mustEqual(t, env.totalQuantity(t, dough).TotalQuantity, dec("3"), "manufactured credit")

	var credit model.Movement
	if err := env.db.First(&credit, "product_id = ? AND type = ?", dough.ID, model.MovementEntry).Error; err != nil {
		t.Fatalf("load credit: %v", err)
	}
	if credit.ParentID == nil {
		t.Fatalf("manufactured credit must reference the processed batch")
	}
}

func TestGetAreaStockAppliesGroupDisplay(t *testing.T) {
	env := newTestEnv(t)
	eggs := env.seedProduct(t, "Eggs", model.ProductTypeRaw, dec("0.2"))
	if err := env.db.Model(&model.Product{}).Where("id = ?", eggs.ID).Updates(map[string]interface{}{
		"enable_group":     true,
		"group_convertion": dec("6"),
		"group_name":       "carton",
	}).Error; err != nil {
		t.Fatalf("enable grouping: %v", err)
	}

	env.register(t, RegisterMovementRequest{
		Type: model.MovementEntry, ProductID: eggs.ID.String(),
		AreaID: env.area.ID.String(), Quantity: dec("25"),
	})

	items, err := env.stock.GetAreaStock(context.Background(), env.business.ID, env.area.ID)
	if err != nil {
		t.Fatalf("area stock: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	item := items[0]
	mustEqual(t, item.Quantity, dec("25"), "raw quantity")
	if item.Groups == nil || item.Remainder == nil {
		t.Fatalf("expected grouped display fields")
	}
	mustEqual(t, *item.Groups, dec("4"), "cartons")
	mustEqual(t, *item.Remainder, dec("1"), "loose eggs")
	if item.GroupName != "carton" {
		t.Fatalf("expected group name carton, got %q", item.GroupName)
	}
}

func TestAdjustAcceptsSignedQuantity(t *testing.T) {
	env := newTestEnv(t)
	rice := env.seedProduct(t, "Rice", model.ProductTypeRaw, dec("2"))

	env.register(t, RegisterMovementRequest{
		Type: model.MovementEntry, ProductID: rice.ID.String(),
		AreaID: env.area.ID.String(), Quantity: dec("10"),
	})
	env.register(t, RegisterMovementRequest{
		Type: model.MovementAdjust, ProductID: rice.ID.String(),
		AreaID: env.area.ID.String(), Quantity: dec("-1.5"),
	})

	mustEqual(t, env.totalQuantity(t, rice).TotalQuantity, dec("8.5"), "total after adjust")
}
