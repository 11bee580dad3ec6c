package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/database"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/model"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/repository"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T, name string) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// testEnv wires the full service stack over one in-memory database with a
// seeded business, stock area and active economic cycle.
type testEnv struct {
	db       *gorm.DB
	business model.Business
	area     model.StockArea
	cycle    model.EconomicCycle
	user     model.User

	products   ProductService
	variations VariationService
	costs      CostService
	stock      StockService
	books      InventoryBookService
}

func newTestEnv(t *testing.T) *testEnv {
	db := setupTestDB(t, t.Name())

	env := &testEnv{db: db}
	env.business = model.Business{Name: "Test Bistro"}
	if err := db.Create(&env.business).Error; err != nil {
		t.Fatalf("seed business: %v", err)
	}
	env.area = model.StockArea{BusinessID: env.business.ID, Name: "Main Warehouse", Type: model.AreaTypeStock}
	if err := db.Create(&env.area).Error; err != nil {
		t.Fatalf("seed area: %v", err)
	}
	env.cycle = model.EconomicCycle{BusinessID: env.business.ID, Name: "Cycle 1", IsActive: true, OpenedAt: time.Now().Add(-time.Hour)}
	if err := db.Create(&env.cycle).Error; err != nil {
		t.Fatalf("seed cycle: %v", err)
	}
	env.user = model.User{BusinessID: env.business.ID, Username: "tester", Email: "tester@example.com", Password: "hash", Role: "admin"}
	if err := db.Create(&env.user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}

	txManager := repository.NewTransactionManager(db)
	productRepo := repository.NewProductRepository(db)
	stockRepo := repository.NewStockRepository(db)
	variationRepo := repository.NewVariationRepository(db)
	compositionRepo := repository.NewCompositionRepository(db)
	movementRepo := repository.NewMovementRepository(db)
	bookRepo := repository.NewBookRepository(db)
	referenceRepo := repository.NewReferenceRepository(db)
	auditRepo := repository.NewAuditRepository(db)

	referenceSvc := NewReferenceService(referenceRepo)
	env.products = NewProductService(productRepo, stockRepo, auditRepo, txManager)
	env.variations = NewVariationService(productRepo, variationRepo, stockRepo, auditRepo, txManager)
	env.costs = NewCostService(productRepo, compositionRepo, stockRepo, variationRepo, auditRepo, referenceSvc, txManager)
	env.stock = NewStockService(productRepo, stockRepo, movementRepo, compositionRepo, referenceRepo, referenceSvc, auditRepo, txManager, nil)
	env.books = NewInventoryBookService(bookRepo, stockRepo, movementRepo, productRepo, variationRepo, referenceRepo, auditRepo, txManager, nil)

	return env
}

func (env *testEnv) seedProduct(t *testing.T, name, productType string, cost decimal.Decimal) model.Product {
	t.Helper()
	product := model.Product{
		BusinessID:  env.business.ID,
		Name:        name,
		Type:        productType,
		Measure:     "UNIT",
		AverageCost: cost,
	}
	if err := env.db.Create(&product).Error; err != nil {
		t.Fatalf("seed product %s: %v", name, err)
	}
	return product
}

func (env *testEnv) seedStock(t *testing.T, product model.Product, quantity decimal.Decimal) {
	t.Helper()
	row := model.StockAreaProduct{AreaID: env.area.ID, ProductID: product.ID, Quantity: quantity}
	if err := env.db.Create(&row).Error; err != nil {
		t.Fatalf("seed stock %s: %v", product.Name, err)
	}
	if err := env.db.Model(&model.Product{}).Where("id = ?", product.ID).
		Update("total_quantity", quantity).Error; err != nil {
		t.Fatalf("seed total quantity: %v", err)
	}
}

func (env *testEnv) register(t *testing.T, req RegisterMovementRequest) []MovementResponse {
	t.Helper()
	movements, err := env.stock.ApplyMovement(context.Background(), env.user.ID.String(), env.business.ID, req)
	if err != nil {
		t.Fatalf("apply movement %s %s: %v", req.Type, req.Quantity, err)
	}
	return movements
}

func mustKind(t *testing.T, err error, kind apperror.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %v error, got nil", kind)
	}
	if got := apperror.KindOf(err); got != kind {
		t.Fatalf("expected %v error, got %v: %v", kind, got, err)
	}
}

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	if err != nil {
		t.Fatalf("parse uuid %q: %v", s, err)
	}
	return id
}

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func mustEqual(t *testing.T, got, want decimal.Decimal, label string) {
	t.Helper()
	if !got.Equal(want) {
		t.Fatalf("%s: got %s want %s", label, got, want)
	}
}
