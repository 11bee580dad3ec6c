package service

import (
	"context"
	"testing"

	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/model"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/pkg/apperror"

	"github.com/google/uuid"
)

func (env *testEnv) seedAttributes(t *testing.T, product model.Product) {
	t.Helper()
	ctx := context.Background()
	if _, err := env.variations.RegisterAttributeValues(ctx, env.user.ID.String(), env.business.ID, product.ID, RegisterAttributesRequest{
		Code: "size", Name: "Size", Values: []string{"S", "M", "L"},
	}); err != nil {
		t.Fatalf("register size: %v", err)
	}
	if _, err := env.variations.RegisterAttributeValues(ctx, env.user.ID.String(), env.business.ID, product.ID, RegisterAttributesRequest{
		Code: "color", Name: "Color", Values: []string{"Red", "Blue"},
	}); err != nil {
		t.Fatalf("register color: %v", err)
	}
}

func TestRegisterAttributesOnlyOnVariationProducts(t *testing.T) {
	env := newTestEnv(t)
	raw := env.seedProduct(t, "Flour", model.ProductTypeRaw, dec("1"))

	_, err := env.variations.RegisterAttributeValues(context.Background(), env.user.ID.String(), env.business.ID, raw.ID, RegisterAttributesRequest{
		Code: "size", Values: []string{"S"},
	})
	mustKind(t, err, apperror.KindValidation)
}

func TestRegisterAttributesRejectsDuplicateValue(t *testing.T) {
	env := newTestEnv(t)
	shirt := env.seedProduct(t, "Shirt", model.ProductTypeVariation, dec("0"))
	env.seedAttributes(t, shirt)

	_, err := env.variations.RegisterAttributeValues(context.Background(), env.user.ID.String(), env.business.ID, shirt.ID, RegisterAttributesRequest{
		Code: "size", Values: []string{"M"},
	})
	mustKind(t, err, apperror.KindConflict)
}

func TestCreateVariationRequiresFullCoverage(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	shirt := env.seedProduct(t, "Shirt", model.ProductTypeVariation, dec("0"))
	env.seedAttributes(t, shirt)

	// Missing the color code entirely.
	_, err := env.variations.CreateVariation(ctx, env.user.ID.String(), env.business.ID, shirt.ID, CreateVariationRequest{
		Selection: map[string]string{"size": "M"},
	})
	mustKind(t, err, apperror.KindValidation)

	// Unregistered value.
	_, err = env.variations.CreateVariation(ctx, env.user.ID.String(), env.business.ID, shirt.ID, CreateVariationRequest{
		Selection: map[string]string{"size": "XL", "color": "Red"},
	})
	mustKind(t, err, apperror.KindValidation)

	created, err := env.variations.CreateVariation(ctx, env.user.ID.String(), env.business.ID, shirt.ID, CreateVariationRequest{
		Selection: map[string]string{"size": "M", "color": "Red"},
	})
	if err != nil {
		t.Fatalf("create variation: %v", err)
	}
	// Name concatenates values in sorted code order: color before size.
	if created.Name != "Red M" {
		t.Fatalf("expected name %q, got %q", "Red M", created.Name)
	}
}

func TestCreateVariationRejectsDuplicateSelection(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	shirt := env.seedProduct(t, "Shirt", model.ProductTypeVariation, dec("0"))
	env.seedAttributes(t, shirt)

	selection := map[string]string{"size": "L", "color": "Blue"}
	if _, err := env.variations.CreateVariation(ctx, env.user.ID.String(), env.business.ID, shirt.ID, CreateVariationRequest{Selection: selection}); err != nil {
		t.Fatalf("first create: %v", err)
	}

	_, err := env.variations.CreateVariation(ctx, env.user.ID.String(), env.business.ID, shirt.ID, CreateVariationRequest{Selection: selection})
	mustKind(t, err, apperror.KindConflict)
}

func TestAttributeSchemaFreezesAfterFirstVariation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	shirt := env.seedProduct(t, "Shirt", model.ProductTypeVariation, dec("0"))
	env.seedAttributes(t, shirt)

	if _, err := env.variations.CreateVariation(ctx, env.user.ID.String(), env.business.ID, shirt.ID, CreateVariationRequest{
		Selection: map[string]string{"size": "S", "color": "Red"},
	}); err != nil {
		t.Fatalf("create variation: %v", err)
	}

	// New value on an existing code is still allowed.
	if _, err := env.variations.RegisterAttributeValues(ctx, env.user.ID.String(), env.business.ID, shirt.ID, RegisterAttributesRequest{
		Code: "size", Values: []string{"XL"},
	}); err != nil {
		t.Fatalf("extend existing code: %v", err)
	}

	// A brand new code is rejected once variations exist.
	_, err := env.variations.RegisterAttributeValues(ctx, env.user.ID.String(), env.business.ID, shirt.ID, RegisterAttributesRequest{
		Code: "fabric", Values: []string{"Cotton"},
	})
	mustKind(t, err, apperror.KindConflict)
}

func TestDeleteVariationBlockedByStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	shirt := env.seedProduct(t, "Shirt", model.ProductTypeVariation, dec("0"))
	env.seedAttributes(t, shirt)

	created, err := env.variations.CreateVariation(ctx, env.user.ID.String(), env.business.ID, shirt.ID, CreateVariationRequest{
		Selection: map[string]string{"size": "M", "color": "Blue"},
	})
	if err != nil {
		t.Fatalf("create variation: %v", err)
	}
	variationID := uuid.MustParse(created.ID)

	env.register(t, RegisterMovementRequest{
		Type:        model.MovementEntry,
		ProductID:   shirt.ID.String(),
		VariationID: created.ID,
		AreaID:      env.area.ID.String(),
		Quantity:    dec("5"),
	})

	err = env.variations.DeleteVariation(ctx, env.user.ID.String(), env.business.ID, variationID)
	mustKind(t, err, apperror.KindConflict)
}

func TestDeleteVariationWithoutStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	shirt := env.seedProduct(t, "Shirt", model.ProductTypeVariation, dec("0"))
	env.seedAttributes(t, shirt)

	created, err := env.variations.CreateVariation(ctx, env.user.ID.String(), env.business.ID, shirt.ID, CreateVariationRequest{
		Selection: map[string]string{"size": "S", "color": "Blue"},
	})
	if err != nil {
		t.Fatalf("create variation: %v", err)
	}

	if err := env.variations.DeleteVariation(ctx, env.user.ID.String(), env.business.ID, uuid.MustParse(created.ID)); err != nil {
		t.Fatalf("delete variation: %v", err)
	}

	remaining, err := env.variations.ListVariations(ctx, env.business.ID, shirt.ID)
	if err != nil {
		t.Fatalf("list variations: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected no variations, got %d", len(remaining))
	}
}
