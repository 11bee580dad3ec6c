package service

import (
	"context"
	"errors"

	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/model"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/repository"
	ws "github.com/sophiaramosdev/Open-Tecopos-sub003/internal/websocket"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/pkg/apperror"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// DTOs
type RegisterMovementRequest struct {
	Type              string          `json:"type" binding:"required,oneof=ENTRY OUT MOVEMENT ADJUST WASTE SALE PROCESSED"`
	ProductID         string          `json:"product_id" binding:"required"`
	VariationID       string          `json:"variation_id"`
	AreaID            string          `json:"area_id" binding:"required"`
	DestinationAreaID string          `json:"destination_area_id"` // MOVEMENT transfers credit this area
	EconomicCycleID   string          `json:"economic_cycle_id"`   // empty = active cycle
	Quantity          decimal.Decimal `json:"quantity" binding:"required"`
	Channel           string          `json:"channel" binding:"omitempty,oneof=POS ONLINE"`
	Description       string          `json:"description"`
}

type MovementResponse struct {
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	ProductID       string          `json:"product_id"`
	ProductName     string          `json:"product_name,omitempty"`
	VariationID     *string         `json:"variation_id,omitempty"`
	AreaID          string          `json:"area_id"`
	EconomicCycleID string          `json:"economic_cycle_id"`
	Quantity        decimal.Decimal `json:"quantity"`
	Channel         string          `json:"channel"`
	Description     string          `json:"description"`
	CreatedAt       string          `json:"created_at"`
}

type AreaVariationStock struct {
	VariationID string          `json:"variation_id"`
	Quantity    decimal.Decimal `json:"quantity"`
}

type AreaStockItem struct {
	ProductID  string               `json:"product_id"`
	Name       string               `json:"name"`
	Measure    string               `json:"measure"`
	Quantity   decimal.Decimal      `json:"quantity"`
	GroupName  string               `json:"group_name,omitempty"`
	Groups     *decimal.Decimal     `json:"groups,omitempty"`
	Remainder  *decimal.Decimal     `json:"remainder,omitempty"`
	Variations []AreaVariationStock `json:"variations,omitempty"`
}

// StockService is the aggregator: the only write path onto
// StockAreaProduct/StockAreaVariation. Every mutation keeps
// Product.TotalQuantity equal to the per-area sum inside the same
// transaction; journal replay is reserved for reconciliation.
type StockService interface {
	ApplyMovement(ctx context.Context, userID string, businessID uuid.UUID, req RegisterMovementRequest) ([]MovementResponse, error)
	ListMovements(ctx context.Context, businessID uuid.UUID, filter repository.MovementFilter) ([]MovementResponse, int64, error)
	GetAreaStock(ctx context.Context, businessID uuid.UUID, areaID uuid.UUID) ([]AreaStockItem, error)
}

type stockService struct {
	productRepo     repository.ProductRepository
	stockRepo       repository.StockRepository
	movementRepo    repository.MovementRepository
	compositionRepo repository.CompositionRepository
	referenceRepo   repository.ReferenceRepository
	referenceSvc    ReferenceService
	auditRepo       repository.AuditRepository
	txManager       repository.TransactionManager
	hub             *ws.Hub
}

func NewStockService(
	productRepo repository.ProductRepository,
	stockRepo repository.StockRepository,
	movementRepo repository.MovementRepository,
	compositionRepo repository.CompositionRepository,
	referenceRepo repository.ReferenceRepository,
	referenceSvc ReferenceService,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) StockService {
	return &stockService{
		productRepo:     productRepo,
		stockRepo:       stockRepo,
		movementRepo:    movementRepo,
		compositionRepo: compositionRepo,
		referenceRepo:   referenceRepo,
		referenceSvc:    referenceSvc,
		auditRepo:       auditRepo,
		txManager:       txManager,
		hub:             hub,
	}
}

func (s *stockService) ApplyMovement(ctx context.Context, userID string, businessID uuid.UUID, req RegisterMovementRequest) ([]MovementResponse, error) {
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		return nil, apperror.Validation("invalid product_id")
	}
	areaID, err := uuid.Parse(req.AreaID)
	if err != nil {
		return nil, apperror.Validation("invalid area_id")
	}
	var variationID *uuid.UUID
	if req.VariationID != "" {
		parsed, parseErr := uuid.Parse(req.VariationID)
		if parseErr != nil {
			return nil, apperror.Validation("invalid variation_id")
		}
		variationID = &parsed
	}

	if req.Quantity.IsZero() {
		return nil, apperror.Validation("quantity cannot be zero")
	}
	if req.Type != model.MovementAdjust && !req.Quantity.IsPositive() {
		return nil, apperror.Validation("quantity must be positive")
	}

	area, err := s.ownedArea(ctx, businessID, areaID)
	if err != nil {
		return nil, err
	}
	if area.Type != model.AreaTypeStock {
		return nil, apperror.Newf(apperror.KindValidation, "area %s is not a stock area", area.Name)
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

	cycleID, err := s.resolveCycle(ctx, businessID, req.EconomicCycleID)
	if err != nil {
		return nil, err
	}

	var destAreaID *uuid.UUID
	if req.DestinationAreaID != "" {
		if req.Type != model.MovementMove {
			return nil, apperror.Validation("destination_area_id is only valid for MOVEMENT")
		}
		parsed, parseErr := uuid.Parse(req.DestinationAreaID)
		if parseErr != nil {
			return nil, apperror.Validation("invalid destination_area_id")
		}
		dest, destErr := s.ownedArea(ctx, businessID, parsed)
		if destErr != nil {
			return nil, destErr
		}
		if dest.Type != model.AreaTypeStock {
			return nil, apperror.Newf(apperror.KindValidation, "area %s is not a stock area", dest.Name)
		}
		destAreaID = &parsed
	}

	channel := req.Channel
	if channel == "" {
		channel = model.ChannelPOS
	}

	var uid *uuid.UUID
	if parsed, parseErr := uuid.Parse(userID); parseErr == nil {
		uid = &parsed
	}

	var created []model.Movement
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var txErr error
		switch req.Type {
		case model.MovementProcessed:
			created, txErr = s.applyProcessed(txCtx, uid, areaID, cycleID, product, req)
		default:
			created, txErr = s.applySimple(txCtx, uid, areaID, destAreaID, cycleID, product, variationID, channel, req)
		}
		if txErr != nil {
			return txErr
		}
		return auditEntry(txCtx, s.auditRepo, userID, businessID, model.ActionRegisterMovement, productID.String(), product.Name, req)
	})
	if err != nil {
		return nil, err
	}

	s.hub.Publish(ws.EventStockMovement, map[string]interface{}{
		"type":       req.Type,
		"product_id": productID.String(),
		"area_id":    areaID.String(),
		"quantity":   req.Quantity,
	})

	res := make([]MovementResponse, 0, len(created))
	for _, m := range created {
		res = append(res, toMovementResponse(m, product.Name))
	}
	return res, nil
}

func (s *stockService) ListMovements(ctx context.Context, businessID uuid.UUID, filter repository.MovementFilter) ([]MovementResponse, int64, error) {
	if filter.AreaID != nil {
		if _, err := s.ownedArea(ctx, businessID, *filter.AreaID); err != nil {
			return nil, 0, err
		}
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	movements, total, err := s.movementRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, apperror.Internal("failed to list movements", err)
	}

	res := make([]MovementResponse, 0, len(movements))
	for _, m := range movements {
		name := ""
		if m.Product != nil {
			name = m.Product.Name
		}
		res = append(res, toMovementResponse(m, name))
	}
	return res, total, nil
}

func (s *stockService) GetAreaStock(ctx context.Context, businessID uuid.UUID, areaID uuid.UUID) ([]AreaStockItem, error) {
	if _, err := s.ownedArea(ctx, businessID, areaID); err != nil {
		return nil, err
	}

	rows, err := s.stockRepo.ListByArea(ctx, areaID)
	if err != nil {
		return nil, apperror.Internal("failed to load area stock", err)
	}

	res := make([]AreaStockItem, 0, len(rows))
	for _, row := range rows {
		item := AreaStockItem{
			ProductID: row.ProductID.String(),
			Quantity:  row.Quantity,
		}
		if row.Product != nil {
			item.Name = row.Product.Name
			item.Measure = row.Product.Measure
			if row.Product.EnableGroup {
				groups, remainder := GroupDisplay(row.Quantity, row.Product.GroupConvertion)
				item.GroupName = row.Product.GroupName
				item.Groups = &groups
				item.Remainder = &remainder
			}
		}

		variations, varErr := s.stockRepo.ListAreaVariations(ctx, row.ID)
		if varErr != nil {
			return nil, apperror.Internal("failed to load variation stock", varErr)
		}
		for _, v := range variations {
			item.Variations = append(item.Variations, AreaVariationStock{
				VariationID: v.VariationID.String(),
				Quantity:    v.Quantity,
			})
		}

		res = append(res, item)
	}
	return res, nil
}

// --- internals ---

func (s *stockService) applySimple(ctx context.Context, uid *uuid.UUID, areaID uuid.UUID, destAreaID *uuid.UUID, cycleID uuid.UUID, product *model.Product, variationID *uuid.UUID, channel string, req RegisterMovementRequest) ([]model.Movement, error) {
	delta := req.Quantity
	switch req.Type {
	case model.MovementOut, model.MovementMove, model.MovementWaste, model.MovementSale:
		delta = delta.Neg()
	}

	if err := s.mutateStock(ctx, areaID, product, variationID, delta); err != nil {
		return nil, err
	}

	movement := model.Movement{
		Type:            req.Type,
		ProductID:       product.ID,
		VariationID:     variationID,
		AreaID:          areaID,
		EconomicCycleID: cycleID,
		Quantity:        req.Quantity,
		Channel:         channel,
		Description:     req.Description,
		MadeByUserID:    uid,
	}
	if err := s.movementRepo.Create(ctx, &movement); err != nil {
		return nil, apperror.Internal("failed to record movement", err)
	}
	created := []model.Movement{movement}

	// Area-to-area transfer: the destination is credited with a paired ENTRY.
	if destAreaID != nil {
		if err := s.mutateStock(ctx, *destAreaID, product, variationID, req.Quantity); err != nil {
			return nil, err
		}
		credit := model.Movement{
			Type:            model.MovementEntry,
			ProductID:       product.ID,
			VariationID:     variationID,
			AreaID:          *destAreaID,
			EconomicCycleID: cycleID,
			Quantity:        req.Quantity,
			Channel:         channel,
			Description:     req.Description,
			MadeByUserID:    uid,
			ParentID:        &movement.ID,
		}
		if err := s.movementRepo.Create(ctx, &credit); err != nil {
			return nil, apperror.Internal("failed to record transfer credit", err)
		}
		created = append(created, credit)
	}

	return created, nil
}

// applyProcessed consumes the raw side of the product's BOM and credits the
// manufactured side, all as journal rows in one transaction. The BOM
// multiplier is applied here, at write time, so reconciliation never needs
// BOM access.
func (s *stockService) applyProcessed(ctx context.Context, uid *uuid.UUID, areaID, cycleID uuid.UUID, product *model.Product, req RegisterMovementRequest) ([]model.Movement, error) {
	if !CompositeCostType(product.Type) {
		return nil, apperror.Newf(apperror.KindValidation, "product type %s cannot be processed", product.Type)
	}
	supplies, err := s.compositionRepo.ListSupplies(ctx, product.ID)
	if err != nil {
		return nil, apperror.Internal("failed to load supplies", err)
	}
	if len(supplies) == 0 {
		return nil, apperror.Newf(apperror.KindValidation, "product %s has no supplies to process", product.Name)
	}

	var created []model.Movement
	var firstID *uuid.UUID
	for _, edge := range supplies {
		raw, rawErr := s.productRepo.FindByID(ctx, edge.SupplyProductID)
		if rawErr != nil {
			return nil, apperror.Internal("failed to load supply product", rawErr)
		}
		consumed := req.Quantity.Mul(edge.Quantity)
		if err := s.mutateStock(ctx, areaID, raw, nil, consumed.Neg()); err != nil {
			return nil, err
		}
		movement := model.Movement{
			Type:            model.MovementProcessed,
			ProductID:       raw.ID,
			AreaID:          areaID,
			EconomicCycleID: cycleID,
			Quantity:        consumed,
			Channel:         model.ChannelPOS,
			Description:     req.Description,
			MadeByUserID:    uid,
		}
		if err := s.movementRepo.Create(ctx, &movement); err != nil {
			return nil, apperror.Internal("failed to record processed movement", err)
		}
		if firstID == nil {
			id := movement.ID
			firstID = &id
		}
		created = append(created, movement)
	}

	if err := s.mutateStock(ctx, areaID, product, nil, req.Quantity); err != nil {
		return nil, err
	}
	credit := model.Movement{
		Type:            model.MovementEntry,
		ProductID:       product.ID,
		AreaID:          areaID,
		EconomicCycleID: cycleID,
		Quantity:        req.Quantity,
		Channel:         model.ChannelPOS,
		Description:     req.Description,
		MadeByUserID:    uid,
		ParentID:        firstID,
	}
	if err := s.movementRepo.Create(ctx, &credit); err != nil {
		return nil, apperror.Internal("failed to record manufactured credit", err)
	}
	created = append(created, credit)

	return created, nil
}

// mutateStock applies a signed delta to the per-area row (and variation
// sub-ledger) and refreshes the product total from the per-area sum, all
// under row locks within the caller's transaction.
func (s *stockService) mutateStock(ctx context.Context, areaID uuid.UUID, product *model.Product, variationID *uuid.UUID, delta decimal.Decimal) error {
	row, err := s.stockRepo.FindAreaProductForUpdate(ctx, areaID, product.ID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.Internal("failed to lock stock row", err)
		}
		row = &model.StockAreaProduct{AreaID: areaID, ProductID: product.ID, Quantity: decimal.Zero}
		if createErr := s.stockRepo.CreateAreaProduct(ctx, row); createErr != nil {
			return apperror.Internal("failed to create stock row", createErr)
		}
	}

	newQuantity := row.Quantity.Add(delta)
	if newQuantity.IsNegative() && product.StockLimit {
		return apperror.Newf(apperror.KindValidation,
			"insufficient stock of %s: have %s, need %s", product.Name, row.Quantity, delta.Neg())
	}
	row.Quantity = newQuantity
	if err := s.stockRepo.SaveAreaProduct(ctx, row); err != nil {
		return apperror.Internal("failed to update stock row", err)
	}

	if variationID != nil {
		varRow, varErr := s.stockRepo.FindAreaVariationForUpdate(ctx, row.ID, *variationID)
		if varErr != nil {
			if !errors.Is(varErr, gorm.ErrRecordNotFound) {
				return apperror.Internal("failed to lock variation stock row", varErr)
			}
			varRow = &model.StockAreaVariation{StockAreaProductID: row.ID, VariationID: *variationID, Quantity: decimal.Zero}
			if createErr := s.stockRepo.CreateAreaVariation(ctx, varRow); createErr != nil {
				return apperror.Internal("failed to create variation stock row", createErr)
			}
		}
		varRow.Quantity = varRow.Quantity.Add(delta)
		if varRow.Quantity.IsNegative() && product.StockLimit {
			return apperror.Newf(apperror.KindValidation, "insufficient variation stock of %s", product.Name)
		}
		if err := s.stockRepo.SaveAreaVariation(ctx, varRow); err != nil {
			return apperror.Internal("failed to update variation stock row", err)
		}
	}

	total, err := s.stockRepo.SumProductQuantity(ctx, product.ID)
	if err != nil {
		return apperror.Internal("failed to sum product stock", err)
	}
	if err := s.productRepo.UpdateTotalQuantity(ctx, product.ID, total); err != nil {
		return apperror.Internal("failed to update product total", err)
	}
	return nil
}

func (s *stockService) resolveCycle(ctx context.Context, businessID uuid.UUID, cycleID string) (uuid.UUID, error) {
	if cycleID != "" {
		parsed, err := uuid.Parse(cycleID)
		if err != nil {
			return uuid.Nil, apperror.Validation("invalid economic_cycle_id")
		}
		cycle, err := s.referenceRepo.FindCycle(ctx, parsed)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return uuid.Nil, apperror.NotFound("economic cycle not found")
			}
			return uuid.Nil, apperror.Internal("failed to load economic cycle", err)
		}
		if cycle.BusinessID != businessID {
			return uuid.Nil, apperror.Authorization("economic cycle belongs to another business")
		}
		return cycle.ID, nil
	}

	rc, err := s.referenceSvc.BuildContext(ctx, businessID)
	if err != nil {
		return uuid.Nil, err
	}
	if rc.ActiveCycleID == nil {
		return uuid.Nil, apperror.NotFound("no active economic cycle")
	}
	return *rc.ActiveCycleID, nil
}

func (s *stockService) ownedArea(ctx context.Context, businessID uuid.UUID, areaID uuid.UUID) (*model.StockArea, error) {
	area, err := s.referenceRepo.FindArea(ctx, areaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperror.NotFound("stock area not found")
		}
		return nil, apperror.Internal("failed to load stock area", err)
	}
	if area.BusinessID != businessID {
		return nil, apperror.Authorization("stock area belongs to another business")
	}
	return area, nil
}

func toMovementResponse(m model.Movement, productName string) MovementResponse {
	res := MovementResponse{
		ID:              m.ID.String(),
		Type:            m.Type,
		ProductID:       m.ProductID.String(),
		ProductName:     productName,
		AreaID:          m.AreaID.String(),
		EconomicCycleID: m.EconomicCycleID.String(),
		Quantity:        m.Quantity,
		Channel:         m.Channel,
		Description:     m.Description,
		CreatedAt:       m.CreatedAt.Format("2006-01-02 15:04:05"),
	}
	if m.VariationID != nil {
		id := m.VariationID.String()
		res.VariationID = &id
	}
	return res
}
