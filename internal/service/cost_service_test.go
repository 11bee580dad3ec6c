package service

import (
	"context"
	"testing"

	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/model"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/pkg/apperror"
)

func TestRollupCost(t *testing.T) {
	flour := model.Product{AverageCost: dec("3")}
	butter := model.Product{AverageCost: dec("5")}
	supplies := []model.Supply{
		{Quantity: dec("2"), SupplyProduct: &flour},
		{Quantity: dec("1"), SupplyProduct: &butter},
	}
	fixedCosts := []model.FixedCost{{CostAmount: dec("4")}}

	mustEqual(t, RollupCost(supplies, fixedCosts), dec("15"), "rolled-up cost")
}

func TestCostDivisorPrefersPerformance(t *testing.T) {
	mustEqual(t, CostDivisor(dec("15"), dec("3"), dec("30"), 2), dec("3"), "explicit performance")
	// No performance: unitsToProduce / cost.
	mustEqual(t, CostDivisor(dec("15"), dec("0"), dec("30"), 2), dec("2"), "yield fallback")
	// Neither input usable: divisor collapses to 1.
	mustEqual(t, CostDivisor(dec("15"), dec("0"), dec("0"), 2), dec("1"), "unit fallback")
}

func TestUnitCost(t *testing.T) {
	mustEqual(t, UnitCost(dec("15"), dec("3"), 2), dec("5"), "unit cost")
	mustEqual(t, UnitCost(dec("10"), dec("3"), 2), dec("3.33"), "rounded unit cost")
	mustEqual(t, UnitCost(dec("10"), dec("0"), 2), dec("10"), "zero divisor")
}

func TestUpdateSuppliesRecomputesCost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	flour := env.seedProduct(t, "Flour", model.ProductTypeRaw, dec("3"))
	butter := env.seedProduct(t, "Butter", model.ProductTypeRaw, dec("5"))
	dough := env.seedProduct(t, "Dough", model.ProductTypeManufactured, dec("0"))

	breakdown, err := env.costs.UpdateSupplies(ctx, env.user.ID.String(), env.business.ID, dough.ID, UpdateSuppliesRequest{
		Supplies: []SupplyEdgeRequest{
			{SupplyProductID: flour.ID.String(), Quantity: dec("2")},
			{SupplyProductID: butter.ID.String(), Quantity: dec("1")},
		},
	})
	if err != nil {
		t.Fatalf("update supplies: %v", err)
	}
	mustEqual(t, breakdown.TotalCost, dec("11"), "supply roll-up")

	breakdown, err = env.costs.UpdateFixedCosts(ctx, env.user.ID.String(), env.business.ID, dough.ID, UpdateFixedCostsRequest{
		FixedCosts: []FixedCostRequest{{Description: "Gas", CostAmount: dec("4")}},
	})
	if err != nil {
		t.Fatalf("update fixed costs: %v", err)
	}
	mustEqual(t, breakdown.TotalCost, dec("15"), "roll-up with fixed costs")

	var stored model.Product
	if err := env.db.First(&stored, "id = ?", dough.ID).Error; err != nil {
		t.Fatalf("reload product: %v", err)
	}
	mustEqual(t, stored.AverageCost, dec("15"), "persisted average cost")
}

func TestUpdateSuppliesPropagatesOneLevel(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	flour := env.seedProduct(t, "Flour", model.ProductTypeRaw, dec("3"))
	dough := env.seedProduct(t, "Dough", model.ProductTypeManufactured, dec("0"))
	bread := env.seedProduct(t, "Bread", model.ProductTypeMenu, dec("0"))

	if _, err := env.costs.UpdateSupplies(ctx, env.user.ID.String(), env.business.ID, dough.ID, UpdateSuppliesRequest{
		Supplies: []SupplyEdgeRequest{{SupplyProductID: flour.ID.String(), Quantity: dec("2")}},
	}); err != nil {
		t.Fatalf("dough supplies: %v", err)
	}
	if _, err := env.costs.UpdateSupplies(ctx, env.user.ID.String(), env.business.ID, bread.ID, UpdateSuppliesRequest{
		Supplies: []SupplyEdgeRequest{{SupplyProductID: dough.ID.String(), Quantity: dec("1")}},
	}); err != nil {
		t.Fatalf("bread supplies: %v", err)
	}

	var breadRow model.Product
	if err := env.db.First(&breadRow, "id = ?", bread.ID).Error; err != nil {
		t.Fatalf("reload bread: %v", err)
	}
	mustEqual(t, breadRow.AverageCost, dec("6"), "bread cost from dough")

	// Changing dough's inputs re-derives bread through the dependency edge.
	if _, err := env.costs.UpdateSupplies(ctx, env.user.ID.String(), env.business.ID, dough.ID, UpdateSuppliesRequest{
		Supplies: []SupplyEdgeRequest{{SupplyProductID: flour.ID.String(), Quantity: dec("4")}},
	}); err != nil {
		t.Fatalf("dough supplies again: %v", err)
	}
	if err := env.db.First(&breadRow, "id = ?", bread.ID).Error; err != nil {
		t.Fatalf("reload bread: %v", err)
	}
	mustEqual(t, breadRow.AverageCost, dec("12"), "bread cost after dough change")
}

func TestUpdateSuppliesRejectsManualCostTypes(t *testing.T) {
	env := newTestEnv(t)
	flour := env.seedProduct(t, "Flour", model.ProductTypeRaw, dec("3"))
	salt := env.seedProduct(t, "Salt", model.ProductTypeRaw, dec("1"))

	_, err := env.costs.UpdateSupplies(context.Background(), env.user.ID.String(), env.business.ID, flour.ID, UpdateSuppliesRequest{
		Supplies: []SupplyEdgeRequest{{SupplyProductID: salt.ID.String(), Quantity: dec("1")}},
	})
	mustKind(t, err, apperror.KindValidation)
}

func TestComboAvailabilityFloorsScarcestEdge(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	burger := env.seedProduct(t, "Burger", model.ProductTypeMenu, dec("4"))
	soda := env.seedProduct(t, "Soda", model.ProductTypeStock, dec("1"))
	combo := env.seedProduct(t, "Lunch Combo", model.ProductTypeCombo, dec("0"))

	env.seedStock(t, burger, dec("10"))
	env.seedStock(t, soda, dec("7"))

	edges := []model.Combo{
		{ProductID: combo.ID, ComposedID: burger.ID, Quantity: dec("3")},
		{ProductID: combo.ID, ComposedID: soda.ID, Quantity: dec("1")},
	}
	for i := range edges {
		if err := env.db.Create(&edges[i]).Error; err != nil {
			t.Fatalf("seed combo edge: %v", err)
		}
	}

	availability, err := env.costs.ComboAvailability(ctx, env.business.ID, combo.ID)
	if err != nil {
		t.Fatalf("combo availability: %v", err)
	}
	// floor(10/3)=3 burgers, floor(7/1)=7 sodas; the burger edge limits.
	if availability.Availability != 3 {
		t.Fatalf("expected availability 3, got %d", availability.Availability)
	}
}

func TestComboAvailabilityUsesVariationStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	shirt := env.seedProduct(t, "Shirt", model.ProductTypeVariation, dec("8"))
	env.seedAttributes(t, shirt)
	redM, err := env.variations.CreateVariation(ctx, env.user.ID.String(), env.business.ID, shirt.ID, CreateVariationRequest{
		Selection: map[string]string{"size": "M", "color": "Red"},
	})
	if err != nil {
		t.Fatalf("create variation: %v", err)
	}
	blueL, err := env.variations.CreateVariation(ctx, env.user.ID.String(), env.business.ID, shirt.ID, CreateVariationRequest{
		Selection: map[string]string{"size": "L", "color": "Blue"},
	})
	if err != nil {
		t.Fatalf("create variation: %v", err)
	}

	env.register(t, RegisterMovementRequest{
		Type: model.MovementEntry, ProductID: shirt.ID.String(), VariationID: redM.ID,
		AreaID: env.area.ID.String(), Quantity: dec("9"),
	})
	env.register(t, RegisterMovementRequest{
		Type: model.MovementEntry, ProductID: shirt.ID.String(), VariationID: blueL.ID,
		AreaID: env.area.ID.String(), Quantity: dec("2"),
	})

	gift := env.seedProduct(t, "Gift Pack", model.ProductTypeCombo, dec("0"))
	redID := mustUUID(t, redM.ID)
	edge := model.Combo{ProductID: gift.ID, ComposedID: shirt.ID, VariationID: &redID, Quantity: dec("2")}
	if err := env.db.Create(&edge).Error; err != nil {
		t.Fatalf("seed combo edge: %v", err)
	}

	availability, err := env.costs.ComboAvailability(ctx, env.business.ID, gift.ID)
	if err != nil {
		t.Fatalf("combo availability: %v", err)
	}
	// The red/M variation holds 9 units; the blue/L stock is irrelevant.
	if availability.Availability != 4 {
		t.Fatalf("expected availability 4, got %d", availability.Availability)
	}
	if len(availability.Edges) != 1 || availability.Edges[0].VariationID == nil {
		t.Fatalf("expected the edge to report its variation")
	}
}

func TestUpdateCombosReplacesEdgesAndReportsAvailability(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	burger := env.seedProduct(t, "Burger", model.ProductTypeMenu, dec("4"))
	soda := env.seedProduct(t, "Soda", model.ProductTypeStock, dec("1"))
	combo := env.seedProduct(t, "Lunch Combo", model.ProductTypeCombo, dec("0"))

	env.seedStock(t, burger, dec("10"))
	env.seedStock(t, soda, dec("7"))

	availability, err := env.costs.UpdateCombos(ctx, env.user.ID.String(), env.business.ID, combo.ID, UpdateCombosRequest{
		Combos: []ComboEdgeRequest{
			{ComposedProductID: burger.ID.String(), Quantity: dec("3")},
			{ComposedProductID: soda.ID.String(), Quantity: dec("1")},
		},
	})
	if err != nil {
		t.Fatalf("update combos: %v", err)
	}
	if availability.Availability != 3 {
		t.Fatalf("expected availability 3, got %d", availability.Availability)
	}

	// A second update replaces the edge set instead of appending to it.
	availability, err = env.costs.UpdateCombos(ctx, env.user.ID.String(), env.business.ID, combo.ID, UpdateCombosRequest{
		Combos: []ComboEdgeRequest{{ComposedProductID: soda.ID.String(), Quantity: dec("2")}},
	})
	if err != nil {
		t.Fatalf("replace combos: %v", err)
	}
	if availability.Availability != 3 {
		t.Fatalf("expected availability 3 after replace, got %d", availability.Availability)
	}
	if len(availability.Edges) != 1 {
		t.Fatalf("expected 1 edge after replace, got %d", len(availability.Edges))
	}
	var count int64
	if err := env.db.Model(&model.Combo{}).Where("product_id = ?", combo.ID).Count(&count).Error; err != nil {
		t.Fatalf("count edges: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 stored edge, got %d", count)
	}
}

func TestUpdateCombosRejectsInvalidEdges(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	soda := env.seedProduct(t, "Soda", model.ProductTypeStock, dec("1"))
	combo := env.seedProduct(t, "Lunch Combo", model.ProductTypeCombo, dec("0"))
	other := env.seedProduct(t, "Dinner Combo", model.ProductTypeCombo, dec("0"))

	// Only COMBO products carry combo edges.
	_, err := env.costs.UpdateCombos(ctx, env.user.ID.String(), env.business.ID, soda.ID, UpdateCombosRequest{
		Combos: []ComboEdgeRequest{{ComposedProductID: combo.ID.String(), Quantity: dec("1")}},
	})
	mustKind(t, err, apperror.KindValidation)

	_, err = env.costs.UpdateCombos(ctx, env.user.ID.String(), env.business.ID, combo.ID, UpdateCombosRequest{
		Combos: []ComboEdgeRequest{{ComposedProductID: combo.ID.String(), Quantity: dec("1")}},
	})
	mustKind(t, err, apperror.KindValidation)

	_, err = env.costs.UpdateCombos(ctx, env.user.ID.String(), env.business.ID, combo.ID, UpdateCombosRequest{
		Combos: []ComboEdgeRequest{{ComposedProductID: other.ID.String(), Quantity: dec("1")}},
	})
	mustKind(t, err, apperror.KindValidation)

	_, err = env.costs.UpdateCombos(ctx, env.user.ID.String(), env.business.ID, combo.ID, UpdateCombosRequest{
		Combos: []ComboEdgeRequest{{ComposedProductID: soda.ID.String(), Quantity: dec("0")}},
	})
	mustKind(t, err, apperror.KindValidation)
}

func TestUpdateCombosValidatesVariationOwnership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	shirt := env.seedProduct(t, "Shirt", model.ProductTypeVariation, dec("8"))
	env.seedAttributes(t, shirt)
	redM, err := env.variations.CreateVariation(ctx, env.user.ID.String(), env.business.ID, shirt.ID, CreateVariationRequest{
		Selection: map[string]string{"size": "M", "color": "Red"},
	})
	if err != nil {
		t.Fatalf("create variation: %v", err)
	}

	soda := env.seedProduct(t, "Soda", model.ProductTypeStock, dec("1"))
	combo := env.seedProduct(t, "Gift Pack", model.ProductTypeCombo, dec("0"))

	// The variation belongs to the shirt, not to the soda edge.
	_, err = env.costs.UpdateCombos(ctx, env.user.ID.String(), env.business.ID, combo.ID, UpdateCombosRequest{
		Combos: []ComboEdgeRequest{{ComposedProductID: soda.ID.String(), VariationID: redM.ID, Quantity: dec("1")}},
	})
	mustKind(t, err, apperror.KindValidation)

	availability, err := env.costs.UpdateCombos(ctx, env.user.ID.String(), env.business.ID, combo.ID, UpdateCombosRequest{
		Combos: []ComboEdgeRequest{{ComposedProductID: shirt.ID.String(), VariationID: redM.ID, Quantity: dec("2")}},
	})
	if err != nil {
		t.Fatalf("update combos: %v", err)
	}
	if len(availability.Edges) != 1 || availability.Edges[0].VariationID == nil {
		t.Fatalf("expected the stored edge to keep its variation")
	}
}

func TestGetCostConvertsUnitCostAcrossCurrencies(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rates := []model.CurrencyRate{
		{BusinessID: env.business.ID, Code: "USD", ExchangeRate: dec("0.25")},
		{BusinessID: env.business.ID, Code: "EUR", ExchangeRate: dec("0.2")},
	}
	for i := range rates {
		if err := env.db.Create(&rates[i]).Error; err != nil {
			t.Fatalf("seed rate: %v", err)
		}
	}

	flour := env.seedProduct(t, "Flour", model.ProductTypeRaw, dec("10"))
	breakdown, err := env.costs.GetCost(ctx, env.business.ID, flour.ID)
	if err != nil {
		t.Fatalf("get cost: %v", err)
	}
	if len(breakdown.UnitCostIn) != 2 {
		t.Fatalf("expected 2 converted costs, got %d", len(breakdown.UnitCostIn))
	}
	// Codes come back sorted so the payload is deterministic.
	if breakdown.UnitCostIn[0].Code != "EUR" || breakdown.UnitCostIn[1].Code != "USD" {
		t.Fatalf("unexpected code order: %+v", breakdown.UnitCostIn)
	}
	mustEqual(t, breakdown.UnitCostIn[0].UnitCost, dec("2"), "EUR unit cost")
	mustEqual(t, breakdown.UnitCostIn[1].UnitCost, dec("2.5"), "USD unit cost")
}
