package service

import (
	"context"
	"errors"
	"sort"

	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/model"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/repository"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type SupplyEdgeRequest struct {
	SupplyProductID string          `json:"supply_product_id" binding:"required"`
	Quantity        decimal.Decimal `json:"quantity" binding:"required"`
}

type UpdateSuppliesRequest struct {
	Supplies       []SupplyEdgeRequest `json:"supplies" binding:"required,dive"`
	Performance    *decimal.Decimal    `json:"performance"`
	UnitsToProduce *decimal.Decimal    `json:"units_to_produce"`
}

type FixedCostRequest struct {
	Description string          `json:"description" binding:"required"`
	CostAmount  decimal.Decimal `json:"cost_amount" binding:"required"`
}

type UpdateFixedCostsRequest struct {
	FixedCosts []FixedCostRequest `json:"fixed_costs" binding:"required,dive"`
}

type ComboEdgeRequest struct {
	ComposedProductID string          `json:"composed_product_id" binding:"required"`
	VariationID       string          `json:"variation_id"`
	Quantity          decimal.Decimal `json:"quantity" binding:"required"`
}

type UpdateCombosRequest struct {
	Combos []ComboEdgeRequest `json:"combos" binding:"required,dive"`
}

type SupplyEdgeResponse struct {
	SupplyProductID string          `json:"supply_product_id"`
	SupplyName      string          `json:"supply_name"`
	Quantity        decimal.Decimal `json:"quantity"`
	AverageCost     decimal.Decimal `json:"average_cost"`
	LineCost        decimal.Decimal `json:"line_cost"`
}

type CurrencyCost struct {
	Code     string          `json:"code"`
	UnitCost decimal.Decimal `json:"unit_cost"`
}

type CostBreakdownResponse struct {
	ProductID   string               `json:"product_id"`
	ProductName string               `json:"product_name"`
	Supplies    []SupplyEdgeResponse `json:"supplies"`
	FixedCosts  []model.FixedCost    `json:"fixed_costs"`
	TotalCost   decimal.Decimal      `json:"total_cost"`
	Divisor     decimal.Decimal      `json:"divisor"`
	UnitCost    decimal.Decimal      `json:"unit_cost"`
	Currency    string               `json:"currency"`
	UnitCostIn  []CurrencyCost       `json:"unit_cost_in,omitempty"`
}

type ComboEdgeAvailability struct {
	ComposedID   string           `json:"composed_id"`
	ComposedName string           `json:"composed_name"`
	VariationID  *string          `json:"variation_id,omitempty"`
	Quantity     decimal.Decimal  `json:"quantity"`
	Stock        decimal.Decimal  `json:"stock"`
	Availability int64            `json:"availability"`
}

type ComboAvailabilityResponse struct {
	ComboID      string                  `json:"combo_id"`
	ComboName    string                  `json:"combo_name"`
	Availability int64                   `json:"availability"`
	Edges        []ComboEdgeAvailability `json:"edges"`
}

// CostService rolls up supply and fixed costs into product average costs and
// derives combo availability.
type CostService interface {
	GetCost(ctx context.Context, businessID uuid.UUID, productID uuid.UUID) (CostBreakdownResponse, error)
	UpdateSupplies(ctx context.Context, userID string, businessID uuid.UUID, productID uuid.UUID, req UpdateSuppliesRequest) (CostBreakdownResponse, error)
	UpdateFixedCosts(ctx context.Context, userID string, businessID uuid.UUID, productID uuid.UUID, req UpdateFixedCostsRequest) (CostBreakdownResponse, error)
	UpdateCombos(ctx context.Context, userID string, businessID uuid.UUID, productID uuid.UUID, req UpdateCombosRequest) (ComboAvailabilityResponse, error)
	ComboAvailability(ctx context.Context, businessID uuid.UUID, comboProductID uuid.UUID) (ComboAvailabilityResponse, error)
}

type costService struct {
	productRepo     repository.ProductRepository
	compositionRepo repository.CompositionRepository
	stockRepo       repository.StockRepository
	variationRepo   repository.VariationRepository
	auditRepo       repository.AuditRepository
	referenceSvc    ReferenceService
	txManager       repository.TransactionManager
}

func NewCostService(
	productRepo repository.ProductRepository,
	compositionRepo repository.CompositionRepository,
	stockRepo repository.StockRepository,
	variationRepo repository.VariationRepository,
	auditRepo repository.AuditRepository,
	referenceSvc ReferenceService,
	txManager repository.TransactionManager,
) CostService {
	return &costService{
		productRepo:     productRepo,
		compositionRepo: compositionRepo,
		stockRepo:       stockRepo,
		variationRepo:   variationRepo,
		auditRepo:       auditRepo,
		referenceSvc:    referenceSvc,
		txManager:       txManager,
	}
}

// CompositeCostType reports whether a product type rolls its cost up from
// supplies.
func CompositeCostType(productType string) bool {
	switch productType {
	case model.ProductTypeManufactured, model.ProductTypeMenu,
		model.ProductTypeStock, model.ProductTypeAddon:
		return true
	}
	return false
}

// RollupCost is the pure cost fold:
// Σ(supply.quantity × supply.averageCost) + Σ(fixedCost.costAmount).
func RollupCost(supplies []model.Supply, fixedCosts []model.FixedCost) decimal.Decimal {
	total := decimal.Zero
	for _, edge := range supplies {
		unit := decimal.Zero
		if edge.SupplyProduct != nil {
			unit = edge.SupplyProduct.AverageCost
		}
		total = total.Add(edge.Quantity.Mul(unit))
	}
	for _, fc := range fixedCosts {
		total = total.Add(fc.CostAmount)
	}
	return total
}

// CostDivisor picks the unit-cost divisor: the explicit performance when
// provided, otherwise unitsToProduce/cost rounded to the configured
// precision. A non-positive result falls back to 1 so the unit cost stays
// defined.
func CostDivisor(cost, performance, unitsToProduce decimal.Decimal, precision int32) decimal.Decimal {
	if performance.IsPositive() {
		return performance
	}
	if unitsToProduce.IsPositive() && cost.IsPositive() {
		divisor := unitsToProduce.DivRound(cost, precision)
		if divisor.IsPositive() {
			return divisor
		}
	}
	return decimal.NewFromInt(1)
}

// UnitCost divides the rolled-up cost by the divisor at the configured
// precision. Low yield inflates the unit cost.
func UnitCost(cost, divisor decimal.Decimal, precision int32) decimal.Decimal {
	if !divisor.IsPositive() {
		divisor = decimal.NewFromInt(1)
	}
	return cost.DivRound(divisor, precision)
}

func (s *costService) GetCost(ctx context.Context, businessID uuid.UUID, productID uuid.UUID) (CostBreakdownResponse, error) {
	product, err := s.ownedProduct(ctx, businessID, productID)
	if err != nil {
		return CostBreakdownResponse{}, err
	}
	rc, err := s.referenceSvc.BuildContext(ctx, businessID)
	if err != nil {
		return CostBreakdownResponse{}, err
	}
	return s.breakdown(ctx, rc, product)
}

func (s *costService) UpdateSupplies(ctx context.Context, userID string, businessID uuid.UUID, productID uuid.UUID, req UpdateSuppliesRequest) (CostBreakdownResponse, error) {
	product, err := s.ownedProduct(ctx, businessID, productID)
	if err != nil {
		return CostBreakdownResponse{}, err
	}
	if !CompositeCostType(product.Type) {
		return CostBreakdownResponse{}, apperror.Newf(apperror.KindValidation,
			"product type %s does not support supplies", product.Type)
	}

	rc, err := s.referenceSvc.BuildContext(ctx, businessID)
	if err != nil {
		return CostBreakdownResponse{}, err
	}

	edges := make([]model.Supply, 0, len(req.Supplies))
	for _, edgeReq := range req.Supplies {
		supplyID, parseErr := uuid.Parse(edgeReq.SupplyProductID)
		if parseErr != nil {
			return CostBreakdownResponse{}, apperror.Validation("invalid supply_product_id")
		}
		if supplyID == productID {
			return CostBreakdownResponse{}, apperror.Validation("a product cannot supply itself")
		}
		if !edgeReq.Quantity.IsPositive() {
			return CostBreakdownResponse{}, apperror.Validation("supply quantity must be positive")
		}
		if _, err := s.ownedProduct(ctx, businessID, supplyID); err != nil {
			return CostBreakdownResponse{}, err
		}
		edges = append(edges, model.Supply{SupplyProductID: supplyID, Quantity: edgeReq.Quantity})
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.compositionRepo.ReplaceSupplies(txCtx, productID, edges); err != nil {
			return apperror.Internal("failed to replace supplies", err)
		}

		locked, lockErr := s.productRepo.FindByIDForUpdate(txCtx, productID)
		if lockErr != nil {
			return apperror.Internal("failed to lock product", lockErr)
		}
		if req.Performance != nil {
			locked.Performance = *req.Performance
		}
		if req.UnitsToProduce != nil {
			locked.UnitsToProduce = *req.UnitsToProduce
		}

		unitCost, costErr := s.recomputeCost(txCtx, rc, locked)
		if costErr != nil {
			return costErr
		}
		locked.AverageCost = unitCost
		if err := s.productRepo.Update(txCtx, locked); err != nil {
			return apperror.Internal("failed to update product cost", err)
		}

		if err := s.propagateCost(txCtx, rc, productID); err != nil {
			return err
		}

		return auditEntry(txCtx, s.auditRepo, userID, businessID, model.ActionUpdateSupplies, productID.String(), product.Name, req)
	})
	if err != nil {
		return CostBreakdownResponse{}, err
	}

	refreshed, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return CostBreakdownResponse{}, apperror.Internal("failed to reload product", err)
	}
	return s.breakdown(ctx, rc, refreshed)
}

func (s *costService) UpdateFixedCosts(ctx context.Context, userID string, businessID uuid.UUID, productID uuid.UUID, req UpdateFixedCostsRequest) (CostBreakdownResponse, error) {
	product, err := s.ownedProduct(ctx, businessID, productID)
	if err != nil {
		return CostBreakdownResponse{}, err
	}
	if !CompositeCostType(product.Type) {
		return CostBreakdownResponse{}, apperror.Newf(apperror.KindValidation,
			"product type %s does not support fixed costs", product.Type)
	}

	rc, err := s.referenceSvc.BuildContext(ctx, businessID)
	if err != nil {
		return CostBreakdownResponse{}, err
	}

	costs := make([]model.FixedCost, 0, len(req.FixedCosts))
	for _, fcReq := range req.FixedCosts {
		if fcReq.CostAmount.IsNegative() {
			return CostBreakdownResponse{}, apperror.Validation("fixed cost amount cannot be negative")
		}
		costs = append(costs, model.FixedCost{Description: fcReq.Description, CostAmount: fcReq.CostAmount})
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.compositionRepo.ReplaceFixedCosts(txCtx, productID, costs); err != nil {
			return apperror.Internal("failed to replace fixed costs", err)
		}

		locked, lockErr := s.productRepo.FindByIDForUpdate(txCtx, productID)
		if lockErr != nil {
			return apperror.Internal("failed to lock product", lockErr)
		}
		unitCost, costErr := s.recomputeCost(txCtx, rc, locked)
		if costErr != nil {
			return costErr
		}
		if err := s.productRepo.UpdateCost(txCtx, productID, unitCost); err != nil {
			return apperror.Internal("failed to update product cost", err)
		}

		if err := s.propagateCost(txCtx, rc, productID); err != nil {
			return err
		}

		return auditEntry(txCtx, s.auditRepo, userID, businessID, model.ActionUpdateFixedCosts, productID.String(), product.Name, req)
	})
	if err != nil {
		return CostBreakdownResponse{}, err
	}

	refreshed, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return CostBreakdownResponse{}, apperror.Internal("failed to reload product", err)
	}
	return s.breakdown(ctx, rc, refreshed)
}

func (s *costService) UpdateCombos(ctx context.Context, userID string, businessID uuid.UUID, productID uuid.UUID, req UpdateCombosRequest) (ComboAvailabilityResponse, error) {
	product, err := s.ownedProduct(ctx, businessID, productID)
	if err != nil {
		return ComboAvailabilityResponse{}, err
	}
	if product.Type != model.ProductTypeCombo {
		return ComboAvailabilityResponse{}, apperror.Newf(apperror.KindValidation,
			"product %s is not a combo", product.Name)
	}

	edges := make([]model.Combo, 0, len(req.Combos))
	for _, edgeReq := range req.Combos {
		composedID, parseErr := uuid.Parse(edgeReq.ComposedProductID)
		if parseErr != nil {
			return ComboAvailabilityResponse{}, apperror.Validation("invalid composed_product_id")
		}
		if composedID == productID {
			return ComboAvailabilityResponse{}, apperror.Validation("a combo cannot compose itself")
		}
		if !edgeReq.Quantity.IsPositive() {
			return ComboAvailabilityResponse{}, apperror.Validation("combo quantity must be positive")
		}
		composed, err := s.ownedProduct(ctx, businessID, composedID)
		if err != nil {
			return ComboAvailabilityResponse{}, err
		}
		if composed.Type == model.ProductTypeCombo {
			return ComboAvailabilityResponse{}, apperror.Validation("a combo cannot compose another combo")
		}

		edge := model.Combo{ComposedID: composedID, Quantity: edgeReq.Quantity}
		if edgeReq.VariationID != "" {
			variationID, parseErr := uuid.Parse(edgeReq.VariationID)
			if parseErr != nil {
				return ComboAvailabilityResponse{}, apperror.Validation("invalid variation_id")
			}
			variation, err := s.variationRepo.FindVariationByID(ctx, variationID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ComboAvailabilityResponse{}, apperror.NotFound("variation not found")
				}
				return ComboAvailabilityResponse{}, apperror.Internal("failed to load variation", err)
			}
			if variation.ProductID != composedID {
				return ComboAvailabilityResponse{}, apperror.Validation("variation does not belong to the composed product")
			}
			edge.VariationID = &variationID
		}
		edges = append(edges, edge)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.compositionRepo.ReplaceCombos(txCtx, productID, edges); err != nil {
			return apperror.Internal("failed to replace combo edges", err)
		}
		return auditEntry(txCtx, s.auditRepo, userID, businessID, model.ActionUpdateCombos, productID.String(), product.Name, req)
	})
	if err != nil {
		return ComboAvailabilityResponse{}, err
	}

	return s.ComboAvailability(ctx, businessID, productID)
}

func (s *costService) ComboAvailability(ctx context.Context, businessID uuid.UUID, comboProductID uuid.UUID) (ComboAvailabilityResponse, error) {
	combo, err := s.ownedProduct(ctx, businessID, comboProductID)
	if err != nil {
		return ComboAvailabilityResponse{}, err
	}
	if combo.Type != model.ProductTypeCombo {
		return ComboAvailabilityResponse{}, apperror.Newf(apperror.KindValidation,
			"product %s is not a combo", combo.Name)
	}

	edges, err := s.compositionRepo.ListCombos(ctx, comboProductID)
	if err != nil {
		return ComboAvailabilityResponse{}, apperror.Internal("failed to load combo edges", err)
	}

	res := ComboAvailabilityResponse{
		ComboID:   comboProductID.String(),
		ComboName: combo.Name,
	}
	if len(edges) == 0 {
		return res, nil
	}

	min := int64(-1)
	for _, edge := range edges {
		if !edge.Quantity.IsPositive() {
			continue
		}

		var stock decimal.Decimal
		var variationID *string
		if edge.VariationID != nil {
			// Variation-typed composed item: availability is evaluated
			// against the concrete variation's stock.
			stock, err = s.stockRepo.SumVariationQuantity(ctx, *edge.VariationID)
			if err != nil {
				return ComboAvailabilityResponse{}, apperror.Internal("failed to sum variation stock", err)
			}
			id := edge.VariationID.String()
			variationID = &id
		} else {
			stock, err = s.stockRepo.SumProductQuantity(ctx, edge.ComposedID)
			if err != nil {
				return ComboAvailabilityResponse{}, apperror.Internal("failed to sum product stock", err)
			}
		}

		available := stock.Div(edge.Quantity).Floor().IntPart()
		if available < 0 {
			available = 0
		}

		name := ""
		if edge.Composed != nil {
			name = edge.Composed.Name
		}
		res.Edges = append(res.Edges, ComboEdgeAvailability{
			ComposedID:   edge.ComposedID.String(),
			ComposedName: name,
			VariationID:  variationID,
			Quantity:     edge.Quantity,
			Stock:        stock,
			Availability: available,
		})

		if min < 0 || available < min {
			min = available
		}
	}
	if min < 0 {
		min = 0
	}
	res.Availability = min
	return res, nil
}

// --- internals ---

// recomputeCost returns the per-unit cost of a composite product from the
// supplies and fixed costs visible inside the current transaction. Manual
// cost types keep their stored average cost.
func (s *costService) recomputeCost(ctx context.Context, rc ReferenceContext, product *model.Product) (decimal.Decimal, error) {
	if model.ManualCostType(product.Type) {
		return product.AverageCost, nil
	}
	supplies, err := s.compositionRepo.ListSupplies(ctx, product.ID)
	if err != nil {
		return decimal.Zero, apperror.Internal("failed to load supplies", err)
	}
	fixedCosts, err := s.compositionRepo.ListFixedCosts(ctx, product.ID)
	if err != nil {
		return decimal.Zero, apperror.Internal("failed to load fixed costs", err)
	}
	cost := RollupCost(supplies, fixedCosts)
	divisor := CostDivisor(cost, product.Performance, product.UnitsToProduce, rc.DecimalPrecision)
	return UnitCost(cost, divisor, rc.DecimalPrecision), nil
}

// propagateCost pushes a recomputed average cost one level to direct
// dependents. Deliberately not recursive: multi-level chains converge over
// successive edits.
func (s *costService) propagateCost(ctx context.Context, rc ReferenceContext, productID uuid.UUID) error {
	dependentIDs, err := s.productRepo.FindDependentIDs(ctx, productID)
	if err != nil {
		return apperror.Internal("failed to find dependent products", err)
	}
	for _, depID := range dependentIDs {
		dependent, findErr := s.productRepo.FindByIDForUpdate(ctx, depID)
		if findErr != nil {
			return apperror.Internal("failed to lock dependent product", findErr)
		}
		unitCost, costErr := s.recomputeCost(ctx, rc, dependent)
		if costErr != nil {
			return costErr
		}
		if err := s.productRepo.UpdateCost(ctx, depID, unitCost); err != nil {
			return apperror.Internal("failed to update dependent cost", err)
		}
	}
	return nil
}

func (s *costService) breakdown(ctx context.Context, rc ReferenceContext, product *model.Product) (CostBreakdownResponse, error) {
	supplies, err := s.compositionRepo.ListSupplies(ctx, product.ID)
	if err != nil {
		return CostBreakdownResponse{}, apperror.Internal("failed to load supplies", err)
	}
	fixedCosts, err := s.compositionRepo.ListFixedCosts(ctx, product.ID)
	if err != nil {
		return CostBreakdownResponse{}, apperror.Internal("failed to load fixed costs", err)
	}

	cost := RollupCost(supplies, fixedCosts)
	divisor := CostDivisor(cost, product.Performance, product.UnitsToProduce, rc.DecimalPrecision)
	unitCost := UnitCost(cost, divisor, rc.DecimalPrecision)
	if model.ManualCostType(product.Type) {
		cost = product.AverageCost
		divisor = decimal.NewFromInt(1)
		unitCost = product.AverageCost
	}

	res := CostBreakdownResponse{
		ProductID:   product.ID.String(),
		ProductName: product.Name,
		FixedCosts:  fixedCosts,
		TotalCost:   cost,
		Divisor:     divisor,
		UnitCost:    unitCost,
		Currency:    rc.CostCurrency,
	}
	// Exchange rates are quoted as target units per cost-currency unit.
	codes := make([]string, 0, len(rc.ExchangeRates))
	for code := range rc.ExchangeRates {
		if code != rc.CostCurrency {
			codes = append(codes, code)
		}
	}
	sort.Strings(codes)
	for _, code := range codes {
		res.UnitCostIn = append(res.UnitCostIn, CurrencyCost{
			Code:     code,
			UnitCost: unitCost.Mul(rc.Rate(code)).Round(rc.DecimalPrecision),
		})
	}
	for _, edge := range supplies {
		line := SupplyEdgeResponse{
			SupplyProductID: edge.SupplyProductID.String(),
			Quantity:        edge.Quantity,
		}
		if edge.SupplyProduct != nil {
			line.SupplyName = edge.SupplyProduct.Name
			line.AverageCost = edge.SupplyProduct.AverageCost
			line.LineCost = edge.Quantity.Mul(edge.SupplyProduct.AverageCost)
		}
		res.Supplies = append(res.Supplies, line)
	}
	return res, nil
}

func (s *costService) ownedProduct(ctx context.Context, businessID uuid.UUID, productID uuid.UUID) (*model.Product, error) {
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
