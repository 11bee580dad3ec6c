package service

import (
	"context"
	"testing"

	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/model"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/pkg/apperror"
)

func TestCreateProductParsesNumericFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	created, err := env.products.CreateProduct(ctx, env.user.ID.String(), env.business.ID, CreateProductRequest{
		Name: "Olive Oil", Type: model.ProductTypeRaw, Measure: "LITRE",
		AverageCost: "12.50", StockLimit: true,
	})
	if err != nil {
		t.Fatalf("create product: %v", err)
	}
	mustEqual(t, created.AverageCost, dec("12.50"), "average cost")
	if !created.StockLimit {
		t.Fatalf("expected stock limit to persist")
	}

	_, err = env.products.CreateProduct(ctx, env.user.ID.String(), env.business.ID, CreateProductRequest{
		Name: "Bad", Type: model.ProductTypeRaw, AverageCost: "-1",
	})
	mustKind(t, err, apperror.KindValidation)
}

func TestCreateProductRejectsVariationType(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.products.CreateProduct(context.Background(), env.user.ID.String(), env.business.ID, CreateProductRequest{
		Name: "Shirt", Type: model.ProductTypeVariation,
	})
	mustKind(t, err, apperror.KindValidation)
}

func TestProductAccessIsTenantScoped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	other := model.Business{Name: "Other Bistro"}
	if err := env.db.Create(&other).Error; err != nil {
		t.Fatalf("seed business: %v", err)
	}
	rice := env.seedProduct(t, "Rice", model.ProductTypeRaw, dec("2"))

	_, err := env.products.GetProduct(ctx, other.ID, rice.ID.String())
	mustKind(t, err, apperror.KindAuthorization)

	_, err = env.products.UpdateProduct(ctx, env.user.ID.String(), other.ID, rice.ID.String(), UpdateProductRequest{Name: "Hijacked"})
	mustKind(t, err, apperror.KindAuthorization)

	err = env.products.DeleteProduct(ctx, env.user.ID.String(), other.ID, rice.ID.String())
	mustKind(t, err, apperror.KindAuthorization)
}

func TestDeleteProductBlockedBySupplyDependents(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	flour := env.seedProduct(t, "Flour", model.ProductTypeRaw, dec("3"))
	dough := env.seedProduct(t, "Dough", model.ProductTypeManufactured, dec("0"))
	if _, err := env.costs.UpdateSupplies(ctx, env.user.ID.String(), env.business.ID, dough.ID, UpdateSuppliesRequest{
		Supplies: []SupplyEdgeRequest{{SupplyProductID: flour.ID.String(), Quantity: dec("2")}},
	}); err != nil {
		t.Fatalf("wire supplies: %v", err)
	}

	err := env.products.DeleteProduct(ctx, env.user.ID.String(), env.business.ID, flour.ID.String())
	mustKind(t, err, apperror.KindConflict)
}

func TestDeleteProductBlockedByRemainingStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rice := env.seedProduct(t, "Rice", model.ProductTypeRaw, dec("2"))
	env.seedStock(t, rice, dec("4"))

	err := env.products.DeleteProduct(ctx, env.user.ID.String(), env.business.ID, rice.ID.String())
	mustKind(t, err, apperror.KindConflict)
}

func TestDeleteProductWithoutReferences(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	rice := env.seedProduct(t, "Rice", model.ProductTypeRaw, dec("2"))
	if err := env.products.DeleteProduct(ctx, env.user.ID.String(), env.business.ID, rice.ID.String()); err != nil {
		t.Fatalf("delete product: %v", err)
	}
	_, err := env.products.GetProduct(ctx, env.business.ID, rice.ID.String())
	mustKind(t, err, apperror.KindNotFound)
}
