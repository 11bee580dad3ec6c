package service

import (
	"context"
	"testing"

	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/model"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/repository"
)

func TestAuditLogsAreTenantScoped(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	flour := env.seedProduct(t, "Flour", model.ProductTypeRaw, dec("3"))
	dough := env.seedProduct(t, "Dough", model.ProductTypeManufactured, dec("0"))
	if _, err := env.costs.UpdateSupplies(ctx, env.user.ID.String(), env.business.ID, dough.ID, UpdateSuppliesRequest{
		Supplies: []SupplyEdgeRequest{{SupplyProductID: flour.ID.String(), Quantity: dec("2")}},
	}); err != nil {
		t.Fatalf("update supplies: %v", err)
	}

	other := model.Business{Name: "Other Bistro"}
	if err := env.db.Create(&other).Error; err != nil {
		t.Fatalf("seed other business: %v", err)
	}

	audits := NewAuditService(repository.NewAuditRepository(env.db))
	logs, total, err := audits.GetAuditLogs(ctx, env.business.ID, 1, 20)
	if err != nil {
		t.Fatalf("list own logs: %v", err)
	}
	if total == 0 || len(logs) == 0 {
		t.Fatalf("expected audit entries for the acting business")
	}
	var seen bool
	for _, l := range logs {
		if l.Action == model.ActionUpdateSupplies && l.EntityID == dough.ID.String() {
			seen = true
		}
	}
	if !seen {
		t.Fatalf("supply update missing from the business audit trail")
	}

	otherLogs, otherTotal, err := audits.GetAuditLogs(ctx, other.ID, 1, 20)
	if err != nil {
		t.Fatalf("list foreign logs: %v", err)
	}
	if otherTotal != 0 || len(otherLogs) != 0 {
		t.Fatalf("expected no audit entries to leak across businesses, got %d", otherTotal)
	}
}
