package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/model"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/repository"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type RegisterAttributesRequest struct {
	Code   string   `json:"code" binding:"required"`
	Name   string   `json:"name"`
	Values []string `json:"values" binding:"required,min=1"`
}

type CreateVariationRequest struct {
	Selection   map[string]string `json:"selection" binding:"required"`
	Price       *decimal.Decimal  `json:"price"`
	OnSalePrice *decimal.Decimal  `json:"on_sale_price"`
	ImageURL    string            `json:"image_url"`
	Description string            `json:"description"`
}

type UpdateVariationRequest struct {
	Selection   map[string]string `json:"selection"` // nil = keep current attributes
	Price       *decimal.Decimal  `json:"price"`
	OnSalePrice *decimal.Decimal  `json:"on_sale_price"`
	ImageURL    *string           `json:"image_url"`
	Description *string           `json:"description"`
}

type VariationResponse struct {
	ID          string            `json:"id"`
	ProductID   string            `json:"product_id"`
	Name        string            `json:"name"`
	Description string            `json:"description"`
	Price       *decimal.Decimal  `json:"price"`
	OnSalePrice *decimal.Decimal  `json:"on_sale_price"`
	ImageURL    string            `json:"image_url"`
	Selection   map[string]string `json:"selection"`
}

type AttributeValueResponse struct {
	ID    string `json:"id"`
	Code  string `json:"code"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// VariationService generates and validates attribute-combination SKUs for
// VARIATION-type products.
type VariationService interface {
	RegisterAttributeValues(ctx context.Context, userID string, businessID uuid.UUID, productID uuid.UUID, req RegisterAttributesRequest) ([]AttributeValueResponse, error)
	ListAttributeValues(ctx context.Context, businessID uuid.UUID, productID uuid.UUID) ([]AttributeValueResponse, error)
	CreateVariation(ctx context.Context, userID string, businessID uuid.UUID, productID uuid.UUID, req CreateVariationRequest) (VariationResponse, error)
	ListVariations(ctx context.Context, businessID uuid.UUID, productID uuid.UUID) ([]VariationResponse, error)
	EditVariation(ctx context.Context, userID string, businessID uuid.UUID, variationID uuid.UUID, req UpdateVariationRequest) (VariationResponse, error)
	DeleteVariation(ctx context.Context, userID string, businessID uuid.UUID, variationID uuid.UUID) error
}

type variationService struct {
	productRepo   repository.ProductRepository
	variationRepo repository.VariationRepository
	stockRepo     repository.StockRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
}

func NewVariationService(
	productRepo repository.ProductRepository,
	variationRepo repository.VariationRepository,
	stockRepo repository.StockRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
) VariationService {
	return &variationService{
		productRepo:   productRepo,
		variationRepo: variationRepo,
		stockRepo:     stockRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
	}
}

func (s *variationService) RegisterAttributeValues(ctx context.Context, userID string, businessID uuid.UUID, productID uuid.UUID, req RegisterAttributesRequest) ([]AttributeValueResponse, error) {
	product, err := s.ownedProduct(ctx, businessID, productID)
	if err != nil {
		return nil, err
	}
	if product.Type != model.ProductTypeVariation {
		return nil, apperror.Newf(apperror.KindValidation, "product %s does not admit variations", product.Name)
	}

	existing, err := s.variationRepo.ListProductAttributes(ctx, productID)
	if err != nil {
		return nil, apperror.Internal("failed to load registered attributes", err)
	}

	registeredValues := make(map[string]bool, len(existing))
	knownCode := false
	for _, attr := range existing {
		registeredValues[attr.Code+"\x00"+attr.Value] = true
		if attr.Code == req.Code {
			knownCode = true
		}
	}

	if !knownCode {
		count, countErr := s.variationRepo.CountVariations(ctx, productID)
		if countErr != nil {
			return nil, apperror.Internal("failed to count variations", countErr)
		}
		if count > 0 {
			return nil, apperror.Newf(apperror.KindConflict,
				"attribute set is frozen: product already has variations, cannot add code %q", req.Code)
		}
	}

	name := req.Name
	if name == "" {
		name = req.Code
	}
	rows := make([]model.ProductAttribute, 0, len(req.Values))
	for _, value := range req.Values {
		if value == "" {
			return nil, apperror.Validation("attribute value cannot be empty")
		}
		if registeredValues[req.Code+"\x00"+value] {
			return nil, apperror.Newf(apperror.KindConflict, "value %q is already registered for code %q", value, req.Code)
		}
		registeredValues[req.Code+"\x00"+value] = true
		rows = append(rows, model.ProductAttribute{
			ProductID: productID,
			Code:      req.Code,
			Name:      name,
			Value:     value,
		})
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.variationRepo.CreateProductAttributes(txCtx, rows); err != nil {
			return apperror.Internal("failed to register attribute values", err)
		}
		return auditEntry(txCtx, s.auditRepo, userID, businessID, model.ActionRegisterAttributes, productID.String(), product.Name, req)
	})
	if err != nil {
		return nil, err
	}

	res := make([]AttributeValueResponse, 0, len(rows))
	for _, row := range rows {
		res = append(res, AttributeValueResponse{
			ID:    row.ID.String(),
			Code:  row.Code,
			Name:  row.Name,
			Value: row.Value,
		})
	}
	return res, nil
}

func (s *variationService) ListAttributeValues(ctx context.Context, businessID uuid.UUID, productID uuid.UUID) ([]AttributeValueResponse, error) {
	if _, err := s.ownedProduct(ctx, businessID, productID); err != nil {
		return nil, err
	}
	attrs, err := s.variationRepo.ListProductAttributes(ctx, productID)
	if err != nil {
		return nil, apperror.Internal("failed to load registered attributes", err)
	}
	res := make([]AttributeValueResponse, 0, len(attrs))
	for _, attr := range attrs {
		res = append(res, AttributeValueResponse{
			ID:    attr.ID.String(),
			Code:  attr.Code,
			Name:  attr.Name,
			Value: attr.Value,
		})
	}
	return res, nil
}

func (s *variationService) CreateVariation(ctx context.Context, userID string, businessID uuid.UUID, productID uuid.UUID, req CreateVariationRequest) (VariationResponse, error) {
	product, err := s.ownedProduct(ctx, businessID, productID)
	if err != nil {
		return VariationResponse{}, err
	}
	if product.Type != model.ProductTypeVariation {
		return VariationResponse{}, apperror.Newf(apperror.KindValidation, "product %s does not admit variations", product.Name)
	}

	attrs, err := s.variationRepo.ListProductAttributes(ctx, productID)
	if err != nil {
		return VariationResponse{}, apperror.Internal("failed to load registered attributes", err)
	}

	matched, name, err := matchSelection(attrs, req.Selection)
	if err != nil {
		return VariationResponse{}, err
	}

	existing, err := s.variationRepo.ListVariations(ctx, productID)
	if err != nil {
		return VariationResponse{}, apperror.Internal("failed to load variations", err)
	}
	if dup := findDuplicateSelection(existing, req.Selection, uuid.Nil); dup != nil {
		return VariationResponse{}, apperror.Newf(apperror.KindConflict, "variation %q already has this attribute combination", dup.Name)
	}

	variation := model.Variation{
		ProductID:   productID,
		Name:        name,
		Description: req.Description,
		Price:       req.Price,
		OnSalePrice: req.OnSalePrice,
		ImageURL:    req.ImageURL,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.variationRepo.CreateVariation(txCtx, &variation); err != nil {
			return apperror.Internal("failed to create variation", err)
		}
		if err := s.variationRepo.ReplaceVariationAttributes(txCtx, variation.ID, matched); err != nil {
			return apperror.Internal("failed to bind variation attributes", err)
		}
		return auditEntry(txCtx, s.auditRepo, userID, businessID, model.ActionCreateVariation, variation.ID.String(), name, req)
	})
	if err != nil {
		return VariationResponse{}, err
	}

	return VariationResponse{
		ID:          variation.ID.String(),
		ProductID:   productID.String(),
		Name:        name,
		Description: variation.Description,
		Price:       variation.Price,
		OnSalePrice: variation.OnSalePrice,
		ImageURL:    variation.ImageURL,
		Selection:   req.Selection,
	}, nil
}

func (s *variationService) ListVariations(ctx context.Context, businessID uuid.UUID, productID uuid.UUID) ([]VariationResponse, error) {
	if _, err := s.ownedProduct(ctx, businessID, productID); err != nil {
		return nil, err
	}
	variations, err := s.variationRepo.ListVariations(ctx, productID)
	if err != nil {
		return nil, apperror.Internal("failed to load variations", err)
	}
	res := make([]VariationResponse, 0, len(variations))
	for _, v := range variations {
		res = append(res, toVariationResponse(v))
	}
	return res, nil
}

func (s *variationService) EditVariation(ctx context.Context, userID string, businessID uuid.UUID, variationID uuid.UUID, req UpdateVariationRequest) (VariationResponse, error) {
	variation, err := s.variationRepo.FindVariationByID(ctx, variationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return VariationResponse{}, apperror.NotFound("variation not found")
		}
		return VariationResponse{}, apperror.Internal("failed to load variation", err)
	}
	if _, err := s.ownedProduct(ctx, businessID, variation.ProductID); err != nil {
		return VariationResponse{}, err
	}

	var matched []uuid.UUID
	if req.Selection != nil {
		attrs, attrErr := s.variationRepo.ListProductAttributes(ctx, variation.ProductID)
		if attrErr != nil {
			return VariationResponse{}, apperror.Internal("failed to load registered attributes", attrErr)
		}
		var name string
		matched, name, err = matchSelection(attrs, req.Selection)
		if err != nil {
			return VariationResponse{}, err
		}
		existing, listErr := s.variationRepo.ListVariations(ctx, variation.ProductID)
		if listErr != nil {
			return VariationResponse{}, apperror.Internal("failed to load variations", listErr)
		}
		if dup := findDuplicateSelection(existing, req.Selection, variationID); dup != nil {
			return VariationResponse{}, apperror.Newf(apperror.KindConflict, "variation %q already has this attribute combination", dup.Name)
		}
		variation.Name = name
	}

	if req.Price != nil {
		variation.Price = req.Price
	}
	if req.OnSalePrice != nil {
		variation.OnSalePrice = req.OnSalePrice
	}
	if req.ImageURL != nil {
		variation.ImageURL = *req.ImageURL
	}
	if req.Description != nil {
		variation.Description = *req.Description
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.variationRepo.SaveVariation(txCtx, variation); err != nil {
			return apperror.Internal("failed to update variation", err)
		}
		if matched != nil {
			if err := s.variationRepo.ReplaceVariationAttributes(txCtx, variationID, matched); err != nil {
				return apperror.Internal("failed to rebind variation attributes", err)
			}
		}
		return auditEntry(txCtx, s.auditRepo, userID, businessID, model.ActionUpdateVariation, variationID.String(), variation.Name, req)
	})
	if err != nil {
		return VariationResponse{}, err
	}

	updated, err := s.variationRepo.FindVariationByID(ctx, variationID)
	if err != nil {
		return VariationResponse{}, apperror.Internal("failed to reload variation", err)
	}
	return toVariationResponse(*updated), nil
}

func (s *variationService) DeleteVariation(ctx context.Context, userID string, businessID uuid.UUID, variationID uuid.UUID) error {
	variation, err := s.variationRepo.FindVariationByID(ctx, variationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("variation not found")
		}
		return apperror.Internal("failed to load variation", err)
	}
	if _, err := s.ownedProduct(ctx, businessID, variation.ProductID); err != nil {
		return err
	}

	refs, err := s.stockRepo.CountVariationRefs(ctx, variationID)
	if err != nil {
		return apperror.Internal("failed to check stock references", err)
	}
	if refs > 0 {
		return apperror.Newf(apperror.KindConflict, "variation %q is referenced by stock records", variation.Name)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.variationRepo.DeleteVariation(txCtx, variationID); err != nil {
			return apperror.Internal("failed to delete variation", err)
		}
		return auditEntry(txCtx, s.auditRepo, userID, businessID, model.ActionDeleteVariation, variationID.String(), variation.Name, nil)
	})
}

// --- helpers ---

func (s *variationService) ownedProduct(ctx context.Context, businessID uuid.UUID, productID uuid.UUID) (*model.Product, error) {
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

// matchSelection validates that selection covers exactly the registered
// attribute codes with registered values, and returns the matched attribute
// IDs plus the derived name (values joined in code order).
func matchSelection(attrs []model.ProductAttribute, selection map[string]string) ([]uuid.UUID, string, error) {
	if len(attrs) == 0 {
		return nil, "", apperror.Validation("no attribute values registered for this product")
	}

	byCode := map[string]map[string]uuid.UUID{}
	for _, attr := range attrs {
		if byCode[attr.Code] == nil {
			byCode[attr.Code] = map[string]uuid.UUID{}
		}
		byCode[attr.Code][attr.Value] = attr.ID
	}

	if len(selection) != len(byCode) {
		return nil, "", apperror.Newf(apperror.KindValidation,
			"selection must cover exactly %d attribute codes, got %d", len(byCode), len(selection))
	}

	codes := make([]string, 0, len(byCode))
	for code := range byCode {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	matched := make([]uuid.UUID, 0, len(codes))
	values := make([]string, 0, len(codes))
	for _, code := range codes {
		value, ok := selection[code]
		if !ok {
			return nil, "", apperror.Newf(apperror.KindValidation, "selection is missing attribute code %q", code)
		}
		attrID, ok := byCode[code][value]
		if !ok {
			return nil, "", apperror.Newf(apperror.KindValidation, "value %q is not registered for code %q", value, code)
		}
		matched = append(matched, attrID)
		values = append(values, value)
	}

	return matched, strings.Join(values, " "), nil
}

// findDuplicateSelection returns the first existing variation (other than
// exclude) whose value assignment equals selection.
func findDuplicateSelection(existing []model.Variation, selection map[string]string, exclude uuid.UUID) *model.Variation {
	for i := range existing {
		if existing[i].ID == exclude {
			continue
		}
		assignment := selectionOf(existing[i])
		if len(assignment) != len(selection) {
			continue
		}
		equal := true
		for code, value := range selection {
			if assignment[code] != value {
				equal = false
				break
			}
		}
		if equal {
			return &existing[i]
		}
	}
	return nil
}

// selectionOf rebuilds the code→value assignment of a variation from its
// preloaded attribute joins.
func selectionOf(variation model.Variation) map[string]string {
	assignment := make(map[string]string, len(variation.Attributes))
	for _, join := range variation.Attributes {
		if join.ProductAttribute != nil {
			assignment[join.ProductAttribute.Code] = join.ProductAttribute.Value
		}
	}
	return assignment
}

func toVariationResponse(v model.Variation) VariationResponse {
	return VariationResponse{
		ID:          v.ID.String(),
		ProductID:   v.ProductID.String(),
		Name:        v.Name,
		Description: v.Description,
		Price:       v.Price,
		OnSalePrice: v.OnSalePrice,
		ImageURL:    v.ImageURL,
		Selection:   selectionOf(v),
	}
}
