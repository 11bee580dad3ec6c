package service

import (
	"context"
	"errors"

	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/model"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/repository"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type CreateProductRequest struct {
	Name            string `json:"name" binding:"required"`
	Type            string `json:"type" binding:"required"`
	Measure         string `json:"measure"`
	Description     string `json:"description"`
	AverageCost     string `json:"average_cost"`
	Performance     string `json:"performance"`
	UnitsToProduce  string `json:"units_to_produce"`
	StockLimit      bool   `json:"stock_limit"`
	EnableGroup     bool   `json:"enable_group"`
	GroupConvertion string `json:"group_convertion"`
	GroupName       string `json:"group_name"`
}

type UpdateProductRequest struct {
	Name            string `json:"name" binding:"required"`
	Measure         string `json:"measure"`
	Description     string `json:"description"`
	AverageCost     string `json:"average_cost"`
	Performance     string `json:"performance"`
	UnitsToProduce  string `json:"units_to_produce"`
	StockLimit      bool   `json:"stock_limit"`
	EnableGroup     bool   `json:"enable_group"`
	GroupConvertion string `json:"group_convertion"`
	GroupName       string `json:"group_name"`
}

type ProductResponse struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Type          string          `json:"type"`
	Measure       string          `json:"measure"`
	Description   string          `json:"description,omitempty"`
	AverageCost   decimal.Decimal `json:"average_cost"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	StockLimit    bool            `json:"stock_limit"`
	EnableGroup   bool            `json:"enable_group"`
	GroupName     string          `json:"group_name,omitempty"`
}

var productTypes = map[string]bool{
	model.ProductTypeRaw:          true,
	model.ProductTypeManufactured: true,
	model.ProductTypeStock:        true,
	model.ProductTypeWaste:        true,
	model.ProductTypeAsset:        true,
	model.ProductTypeMenu:         true,
	model.ProductTypeService:      true,
	model.ProductTypeAddon:        true,
	model.ProductTypeCombo:        true,
	model.ProductTypeVariation:    true,
}

type ProductService interface {
	GetProducts(ctx context.Context, businessID uuid.UUID, page, limit int, search, productType string) ([]ProductResponse, int64, error)
	GetProduct(ctx context.Context, businessID uuid.UUID, id string) (ProductResponse, error)
	CreateProduct(ctx context.Context, userID string, businessID uuid.UUID, req CreateProductRequest) (ProductResponse, error)
	UpdateProduct(ctx context.Context, userID string, businessID uuid.UUID, id string, req UpdateProductRequest) (ProductResponse, error)
	DeleteProduct(ctx context.Context, userID string, businessID uuid.UUID, id string) error
}

type productService struct {
	productRepo repository.ProductRepository
	stockRepo   repository.StockRepository
	auditRepo   repository.AuditRepository
	txManager   repository.TransactionManager
}

func NewProductService(
	productRepo repository.ProductRepository,
	stockRepo repository.StockRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) ProductService {
	return &productService{
		productRepo: productRepo,
		stockRepo:   stockRepo,
		auditRepo:   auditRepo,
		txManager:   txManager,
	}
}

func (s *productService) GetProducts(ctx context.Context, businessID uuid.UUID, page, limit int, search, productType string) ([]ProductResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	if productType != "" && !productTypes[productType] {
		return nil, 0, apperror.Newf(apperror.KindValidation, "unknown product type %q", productType)
	}

	products, total, err := s.productRepo.List(ctx, businessID, page, limit, search, productType)
	if err != nil {
		return nil, 0, apperror.Internal("failed to list products", err)
	}

	res := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		res = append(res, toProductResponse(&p))
	}
	return res, total, nil
}

func (s *productService) GetProduct(ctx context.Context, businessID uuid.UUID, id string) (ProductResponse, error) {
	product, err := s.findOwned(ctx, businessID, id)
	if err != nil {
		return ProductResponse{}, err
	}
	return toProductResponse(product), nil
}

func (s *productService) CreateProduct(ctx context.Context, userID string, businessID uuid.UUID, req CreateProductRequest) (ProductResponse, error) {
	if !productTypes[req.Type] {
		return ProductResponse{}, apperror.Newf(apperror.KindValidation, "unknown product type %q", req.Type)
	}
	if req.Type == model.ProductTypeVariation {
		return ProductResponse{}, apperror.Validation("variation products are created through their parent's variation endpoints")
	}

	product := model.Product{
		BusinessID:  businessID,
		Name:        req.Name,
		Type:        req.Type,
		Measure:     req.Measure,
		Description: req.Description,
		StockLimit:  req.StockLimit,
		EnableGroup: req.EnableGroup,
		GroupName:   req.GroupName,
	}
	if product.Measure == "" {
		product.Measure = "UNIT"
	}
	if err := applyNumericFields(&product, req.AverageCost, req.Performance, req.UnitsToProduce, req.GroupConvertion); err != nil {
		return ProductResponse{}, err
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Create(txCtx, &product); err != nil {
			return apperror.Internal("failed to create product", err)
		}
		return auditEntry(txCtx, s.auditRepo, userID, businessID, model.ActionCreateProduct, product.ID.String(), product.Name, req)
	})
	if err != nil {
		return ProductResponse{}, err
	}

	return toProductResponse(&product), nil
}

func (s *productService) UpdateProduct(ctx context.Context, userID string, businessID uuid.UUID, id string, req UpdateProductRequest) (ProductResponse, error) {
	product, err := s.findOwned(ctx, businessID, id)
	if err != nil {
		return ProductResponse{}, err
	}

	product.Name = req.Name
	if req.Measure != "" {
		product.Measure = req.Measure
	}
	product.Description = req.Description
	product.StockLimit = req.StockLimit
	product.EnableGroup = req.EnableGroup
	product.GroupName = req.GroupName

	manualCost := req.AverageCost
	if !model.ManualCostType(product.Type) {
		// Composite costs are owned by the supply roll-up; a manual value
		// here would be overwritten on the next supplies update anyway.
		manualCost = ""
	}
	if err := applyNumericFields(product, manualCost, req.Performance, req.UnitsToProduce, req.GroupConvertion); err != nil {
		return ProductResponse{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Update(txCtx, product); err != nil {
			return apperror.Internal("failed to update product", err)
		}
		return auditEntry(txCtx, s.auditRepo, userID, businessID, model.ActionUpdateProduct, product.ID.String(), product.Name, req)
	})
	if err != nil {
		return ProductResponse{}, err
	}

	return toProductResponse(product), nil
}

func (s *productService) DeleteProduct(ctx context.Context, userID string, businessID uuid.UUID, id string) error {
	product, err := s.findOwned(ctx, businessID, id)
	if err != nil {
		return err
	}

	dependents, err := s.productRepo.FindDependentIDs(ctx, product.ID)
	if err != nil {
		return apperror.Internal("failed to check product dependents", err)
	}
	if len(dependents) > 0 {
		return apperror.Newf(apperror.KindConflict,
			"product %s is a supply of %d other product(s) and cannot be deleted", product.Name, len(dependents))
	}

	remaining, err := s.stockRepo.SumProductQuantity(ctx, product.ID)
	if err != nil {
		return apperror.Internal("failed to check remaining stock", err)
	}
	if !remaining.IsZero() {
		return apperror.Newf(apperror.KindConflict,
			"product %s still holds stock (%s) and cannot be deleted", product.Name, remaining.String())
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.productRepo.Delete(txCtx, product.ID); err != nil {
			return apperror.Internal("failed to delete product", err)
		}
		return auditEntry(txCtx, s.auditRepo, userID, businessID, model.ActionDeleteProduct, product.ID.String(), product.Name, nil)
	})
}

func (s *productService) findOwned(ctx context.Context, businessID uuid.UUID, id string) (*model.Product, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindValidation, "invalid product id", err)
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("product not found")
		}
		return nil, apperror.Internal("failed to load product", err)
	}
	if product.BusinessID != businessID {
		return nil, apperror.Authorization("product belongs to another business")
	}
	return product, nil
}

func applyNumericFields(product *model.Product, averageCost, performance, unitsToProduce, groupConvertion string) error {
	assign := func(raw, field string, dst *decimal.Decimal) error {
		if raw == "" {
			return nil
		}
		value, err := decimal.NewFromString(raw)
		if err != nil {
			return apperror.Newf(apperror.KindValidation, "invalid %s: %s", field, raw)
		}
		if value.IsNegative() {
			return apperror.Newf(apperror.KindValidation, "%s must not be negative", field)
		}
		*dst = value
		return nil
	}

	if err := assign(averageCost, "average_cost", &product.AverageCost); err != nil {
		return err
	}
	if err := assign(performance, "performance", &product.Performance); err != nil {
		return err
	}
	if err := assign(unitsToProduce, "units_to_produce", &product.UnitsToProduce); err != nil {
		return err
	}
	if err := assign(groupConvertion, "group_convertion", &product.GroupConvertion); err != nil {
		return err
	}
	if product.EnableGroup && !product.GroupConvertion.IsPositive() {
		return apperror.Validation("group_convertion must be positive when grouping is enabled")
	}
	return nil
}

func toProductResponse(p *model.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID.String(),
		Name:          p.Name,
		Type:          p.Type,
		Measure:       p.Measure,
		Description:   p.Description,
		AverageCost:   p.AverageCost,
		TotalQuantity: p.TotalQuantity,
		StockLimit:    p.StockLimit,
		EnableGroup:   p.EnableGroup,
		GroupName:     p.GroupName,
	}
}
