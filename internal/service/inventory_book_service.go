package service

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/model"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/repository"
	ws "github.com/sophiaramosdev/Open-Tecopos-sub003/internal/websocket"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/pkg/apperror"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// DTOs
type BookActionResponse struct {
	UserID   string `json:"user_id,omitempty"`
	Username string `json:"username,omitempty"`
	At       string `json:"at"`
}

type InventoryStatusResponse struct {
	AreaID          string                 `json:"area_id"`
	EconomicCycleID string                 `json:"economic_cycle_id"`
	Products        []model.BookStateEntry `json:"products"`
	OpenAction      *BookActionResponse    `json:"open_action,omitempty"`
	ClosedAction    *BookActionResponse    `json:"closed_action,omitempty"`
	SkippedEntries  int                    `json:"skipped_entries"`
}

// InventoryBookService opens, closes and reports inventories: snapshots of
// the aggregator state replayed against the movement journal.
type InventoryBookService interface {
	OpenInventory(ctx context.Context, userID string, businessID uuid.UUID, areaID, cycleID uuid.UUID) (InventoryStatusResponse, error)
	CloseInventory(ctx context.Context, userID string, businessID uuid.UUID, areaID, cycleID uuid.UUID) (InventoryStatusResponse, error)
	GetInventoryStatus(ctx context.Context, businessID uuid.UUID, areaID, cycleID uuid.UUID) (InventoryStatusResponse, error)
}

type inventoryBookService struct {
	bookRepo      repository.BookRepository
	stockRepo     repository.StockRepository
	movementRepo  repository.MovementRepository
	productRepo   repository.ProductRepository
	variationRepo repository.VariationRepository
	referenceRepo repository.ReferenceRepository
	auditRepo     repository.AuditRepository
	txManager     repository.TransactionManager
	hub           *ws.Hub
}

func NewInventoryBookService(
	bookRepo repository.BookRepository,
	stockRepo repository.StockRepository,
	movementRepo repository.MovementRepository,
	productRepo repository.ProductRepository,
	variationRepo repository.VariationRepository,
	referenceRepo repository.ReferenceRepository,
	auditRepo repository.AuditRepository,
	txManager repository.TransactionManager,
	hub *ws.Hub,
) InventoryBookService {
	return &inventoryBookService{
		bookRepo:      bookRepo,
		stockRepo:     stockRepo,
		movementRepo:  movementRepo,
		productRepo:   productRepo,
		variationRepo: variationRepo,
		referenceRepo: referenceRepo,
		auditRepo:     auditRepo,
		txManager:     txManager,
		hub:           hub,
	}
}

func (s *inventoryBookService) OpenInventory(ctx context.Context, userID string, businessID uuid.UUID, areaID, cycleID uuid.UUID) (InventoryStatusResponse, error) {
	area, err := s.ownedArea(ctx, businessID, areaID)
	if err != nil {
		return InventoryStatusResponse{}, err
	}
	if area.Type != model.AreaTypeStock {
		return InventoryStatusResponse{}, apperror.Newf(apperror.KindValidation,
			"area %s is not a stock area and cannot be inventoried", area.Name)
	}
	if err := s.ownedCycle(ctx, businessID, cycleID); err != nil {
		return InventoryStatusResponse{}, err
	}

	if _, err := s.bookRepo.FindByAreaCycleOp(ctx, areaID, cycleID, model.BookOperationOpen); err == nil {
		return InventoryStatusResponse{}, apperror.Conflict("inventory is already open for this area and cycle")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return InventoryStatusResponse{}, apperror.Internal("failed to check open inventory", err)
	}

	var uid *uuid.UUID
	if parsed, parseErr := uuid.Parse(userID); parseErr == nil {
		uid = &parsed
	}

	var state model.BookState
	book := model.StockAreaBook{
		AreaID:          areaID,
		EconomicCycleID: cycleID,
		Operation:       model.BookOperationOpen,
		MadeByUserID:    uid,
	}

	// Serializable plus the unique (area, cycle, operation) index closes the
	// check-then-insert race between two concurrent openers. The snapshot
	// read shares the transaction with the insert, so the replay window
	// keyed on the row's created_at cannot straddle a concurrent movement:
	// a movement either commits before this transaction and lands in the
	// snapshot, or serializes after it and lands in the journal window.
	err = s.txManager.RunInTxSerializable(ctx, func(txCtx context.Context) error {
		captured, captureErr := s.captureState(txCtx, areaID)
		if captureErr != nil {
			return captureErr
		}
		state = captured
		book.State = mustMarshalState(state)

		if err := s.bookRepo.Create(txCtx, &book); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.Conflict("inventory is already open for this area and cycle")
			}
			return apperror.Internal("failed to create open snapshot", err)
		}
		return auditEntry(txCtx, s.auditRepo, userID, businessID, model.ActionOpenInventory, book.ID.String(), area.Name, nil)
	})
	if err != nil {
		return InventoryStatusResponse{}, err
	}

	s.broadcast(ws.EventInventoryOpened, areaID, cycleID)

	return InventoryStatusResponse{
		AreaID:          areaID.String(),
		EconomicCycleID: cycleID.String(),
		Products:        state.Entries,
		OpenAction:      s.toAction(ctx, &book),
	}, nil
}

func (s *inventoryBookService) CloseInventory(ctx context.Context, userID string, businessID uuid.UUID, areaID, cycleID uuid.UUID) (InventoryStatusResponse, error) {
	area, err := s.ownedArea(ctx, businessID, areaID)
	if err != nil {
		return InventoryStatusResponse{}, err
	}
	if err := s.ownedCycle(ctx, businessID, cycleID); err != nil {
		return InventoryStatusResponse{}, err
	}

	open, err := s.bookRepo.FindByAreaCycleOp(ctx, areaID, cycleID, model.BookOperationOpen)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return InventoryStatusResponse{}, apperror.NotFound("no open inventory for this area and cycle")
		}
		return InventoryStatusResponse{}, apperror.Internal("failed to load open snapshot", err)
	}

	if _, err := s.bookRepo.FindByAreaCycleOp(ctx, areaID, cycleID, model.BookOperationClosed); err == nil {
		return InventoryStatusResponse{}, apperror.Conflict("inventory is already closed for this area and cycle")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return InventoryStatusResponse{}, apperror.Internal("failed to check closed inventory", err)
	}

	var uid *uuid.UUID
	if parsed, parseErr := uuid.Parse(userID); parseErr == nil {
		uid = &parsed
	}

	var result ReconcileResult
	closed := model.StockAreaBook{
		AreaID:          areaID,
		EconomicCycleID: cycleID,
		Operation:       model.BookOperationClosed,
		MadeByUserID:    uid,
	}

	// The replay shares the transaction with the insert so the frozen state
	// cannot miss a movement committed between reading the journal and
	// writing the CLOSED row.
	err = s.txManager.RunInTxSerializable(ctx, func(txCtx context.Context) error {
		replayed, replayErr := s.replay(txCtx, open, areaID, cycleID, time.Now().UTC())
		if replayErr != nil {
			return replayErr
		}
		result = replayed
		closed.State = mustMarshalState(model.BookState{Version: model.BookStateVersion, Entries: result.Entries})

		if err := s.bookRepo.Create(txCtx, &closed); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return apperror.Conflict("inventory is already closed for this area and cycle")
			}
			return apperror.Internal("failed to create closed snapshot", err)
		}
		return auditEntry(txCtx, s.auditRepo, userID, businessID, model.ActionCloseInventory, closed.ID.String(), area.Name, nil)
	})
	if err != nil {
		return InventoryStatusResponse{}, err
	}

	s.broadcast(ws.EventInventoryClosed, areaID, cycleID)

	return InventoryStatusResponse{
		AreaID:          areaID.String(),
		EconomicCycleID: cycleID.String(),
		Products:        result.Entries,
		OpenAction:      s.toAction(ctx, open),
		ClosedAction:    s.toAction(ctx, &closed),
		SkippedEntries:  len(result.Skipped),
	}, nil
}

func (s *inventoryBookService) GetInventoryStatus(ctx context.Context, businessID uuid.UUID, areaID, cycleID uuid.UUID) (InventoryStatusResponse, error) {
	if _, err := s.ownedArea(ctx, businessID, areaID); err != nil {
		return InventoryStatusResponse{}, err
	}
	if err := s.ownedCycle(ctx, businessID, cycleID); err != nil {
		return InventoryStatusResponse{}, err
	}

	open, err := s.bookRepo.FindByAreaCycleOp(ctx, areaID, cycleID, model.BookOperationOpen)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return InventoryStatusResponse{}, apperror.NotFound("inventory has not been opened for this area and cycle")
		}
		return InventoryStatusResponse{}, apperror.Internal("failed to load open snapshot", err)
	}

	// A closed inventory is frozen forever: serve the stored state untouched.
	if closed, err := s.bookRepo.FindByAreaCycleOp(ctx, areaID, cycleID, model.BookOperationClosed); err == nil {
		var state model.BookState
		if err := json.Unmarshal([]byte(closed.State), &state); err != nil {
			return InventoryStatusResponse{}, apperror.Internal("corrupt closed snapshot", err)
		}
		return InventoryStatusResponse{
			AreaID:          areaID.String(),
			EconomicCycleID: cycleID.String(),
			Products:        state.Entries,
			OpenAction:      s.toAction(ctx, open),
			ClosedAction:    s.toAction(ctx, closed),
		}, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return InventoryStatusResponse{}, apperror.Internal("failed to load closed snapshot", err)
	}

	result, err := s.replay(ctx, open, areaID, cycleID, time.Now().UTC())
	if err != nil {
		return InventoryStatusResponse{}, err
	}

	return InventoryStatusResponse{
		AreaID:          areaID.String(),
		EconomicCycleID: cycleID.String(),
		Products:        result.Entries,
		OpenAction:      s.toAction(ctx, open),
		SkippedEntries:  len(result.Skipped),
	}, nil
}

// --- internals ---

// replay runs the pure fold over the stored OPEN state and the journal rows
// written since. Movements referencing vanished entities are logged and
// excluded; the report itself always completes.
func (s *inventoryBookService) replay(ctx context.Context, open *model.StockAreaBook, areaID, cycleID uuid.UUID, cutoff time.Time) (ReconcileResult, error) {
	var state model.BookState
	if err := json.Unmarshal([]byte(open.State), &state); err != nil {
		return ReconcileResult{}, apperror.Internal("corrupt open snapshot", err)
	}

	movements, err := s.movementRepo.ListForReplay(ctx, areaID, cycleID, open.CreatedAt, cutoff)
	if err != nil {
		return ReconcileResult{}, apperror.Internal("failed to load journal", err)
	}

	known, err := s.knownEntities(ctx, state, movements)
	if err != nil {
		return ReconcileResult{}, err
	}

	result := Reconcile(state, movements, known)
	for _, skipped := range result.Skipped {
		log.Printf("DATA_INTEGRITY: movement %s references missing product %s, excluded from reconciliation",
			skipped.ID, skipped.ProductID)
	}
	return result, nil
}

func (s *inventoryBookService) knownEntities(ctx context.Context, state model.BookState, movements []model.Movement) (KnownEntities, error) {
	productSet := map[uuid.UUID]bool{}
	variationSet := map[uuid.UUID]bool{}
	var productIDs, variationIDs []uuid.UUID

	collect := func(productID uuid.UUID, variationID *uuid.UUID) {
		if !productSet[productID] {
			productSet[productID] = true
			productIDs = append(productIDs, productID)
		}
		if variationID != nil && !variationSet[*variationID] {
			variationSet[*variationID] = true
			variationIDs = append(variationIDs, *variationID)
		}
	}
	for _, entry := range state.Entries {
		collect(entry.ProductID, entry.VariationID)
	}
	for _, m := range movements {
		collect(m.ProductID, m.VariationID)
	}

	known := KnownEntities{
		Products:   make(map[uuid.UUID]bool, len(productIDs)),
		Variations: make(map[uuid.UUID]bool, len(variationIDs)),
	}

	existingProducts, err := s.productRepo.FilterExistingIDs(ctx, productIDs)
	if err != nil {
		return KnownEntities{}, apperror.Internal("failed to resolve products", err)
	}
	for _, id := range existingProducts {
		known.Products[id] = true
	}

	existingVariations, err := s.variationRepo.FilterExistingIDs(ctx, variationIDs)
	if err != nil {
		return KnownEntities{}, apperror.Internal("failed to resolve variations", err)
	}
	for _, id := range existingVariations {
		known.Variations[id] = true
	}

	return known, nil
}

// captureState freezes the aggregator's current per-product/variation
// quantities for one area.
func (s *inventoryBookService) captureState(ctx context.Context, areaID uuid.UUID) (model.BookState, error) {
	rows, err := s.stockRepo.ListByArea(ctx, areaID)
	if err != nil {
		return model.BookState{}, apperror.Internal("failed to capture area stock", err)
	}

	state := model.BookState{Version: model.BookStateVersion}
	for _, row := range rows {
		variations, varErr := s.stockRepo.ListAreaVariations(ctx, row.ID)
		if varErr != nil {
			return model.BookState{}, apperror.Internal("failed to capture variation stock", varErr)
		}
		if len(variations) == 0 {
			state.Entries = append(state.Entries, model.BookStateEntry{
				ProductID: row.ProductID,
				Quantity:  row.Quantity,
			})
			continue
		}
		for _, v := range variations {
			id := v.VariationID
			state.Entries = append(state.Entries, model.BookStateEntry{
				ProductID:   row.ProductID,
				VariationID: &id,
				Quantity:    v.Quantity,
			})
		}
	}
	return state, nil
}

func (s *inventoryBookService) ownedArea(ctx context.Context, businessID uuid.UUID, areaID uuid.UUID) (*model.StockArea, error) {
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

func (s *inventoryBookService) ownedCycle(ctx context.Context, businessID uuid.UUID, cycleID uuid.UUID) error {
	cycle, err := s.referenceRepo.FindCycle(ctx, cycleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperror.NotFound("economic cycle not found")
		}
		return apperror.Internal("failed to load economic cycle", err)
	}
	if cycle.BusinessID != businessID {
		return apperror.Authorization("economic cycle belongs to another business")
	}
	return nil
}

func (s *inventoryBookService) toAction(ctx context.Context, book *model.StockAreaBook) *BookActionResponse {
	action := &BookActionResponse{At: book.CreatedAt.Format("2006-01-02 15:04:05")}
	if book.MadeByUserID != nil {
		action.UserID = book.MadeByUserID.String()
	}
	if book.MadeBy != nil {
		action.Username = book.MadeBy.Username
	}
	return action
}

func (s *inventoryBookService) broadcast(event string, areaID, cycleID uuid.UUID) {
	s.hub.Publish(event, map[string]interface{}{
		"area_id":           areaID.String(),
		"economic_cycle_id": cycleID.String(),
	})
}

func mustMarshalState(state model.BookState) string {
	raw, err := json.Marshal(state)
	if err != nil {
		// BookState is a closed set of marshalable types; this cannot fail
		// with real data.
		return `{"version":1,"entries":[]}`
	}
	return string(raw)
}
