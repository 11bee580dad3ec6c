package handler

import (
	"net/http"

	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/middleware"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/repository"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/service"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/pkg/pagination"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type InventoryCycleRequest struct {
	EconomicCycleID string `json:"economic_cycle_id" binding:"required"`
}

type StockHandler struct {
	stockService service.StockService
	bookService  service.InventoryBookService
}

func NewStockHandler(stockService service.StockService, bookService service.InventoryBookService) *StockHandler {
	return &StockHandler{stockService: stockService, bookService: bookService}
}

func (h *StockHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api")
	{
		api.POST("/movements", middleware.RequireRole("admin", "manager", "staff"), h.RegisterMovement)
		api.GET("/movements", middleware.RequireAuth(), h.ListMovements)
		api.GET("/areas/:id/stock", middleware.RequireAuth(), h.GetAreaStock)
		api.POST("/areas/:id/inventory/open", middleware.RequireRole("admin", "manager"), h.OpenInventory)
		api.POST("/areas/:id/inventory/close", middleware.RequireRole("admin", "manager"), h.CloseInventory)
		api.GET("/areas/:id/inventory/status", middleware.RequireAuth(), h.GetInventoryStatus)
	}
}

// RegisterMovement records a stock movement
// @Summary      Register movement
// @Description  Appends a journal entry and applies its delta to area stock; PROCESSED fans out over the product's supplies
// @Tags         stock
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.RegisterMovementRequest  true  "Movement"
// @Success      201      {object}  response.Response{data=object}
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/movements [post]
func (h *StockHandler) RegisterMovement(c *gin.Context) {
	var req service.RegisterMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, businessID := identity(c)

	movements, err := h.stockService.ApplyMovement(c.Request.Context(), userID, businessID, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, map[string]interface{}{
		"movements": movements,
	}))
}

// ListMovements lists journal entries
// @Summary      List movements
// @Description  Retrieves a paginated slice of the movement journal, filterable by area, product, cycle and type
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        page               query  int     false  "Page number (default 1)"
// @Param        limit              query  int     false  "Number of items per page (default 20)"
// @Param        area_id            query  string  false  "Filter by stock area"
// @Param        product_id         query  string  false  "Filter by product"
// @Param        economic_cycle_id  query  string  false  "Filter by economic cycle"
// @Param        type               query  string  false  "Filter by movement type"
// @Success      200  {object}  response.Response{data=object}
// @Failure      500  {object}  response.Response
// @Router       /api/movements [get]
func (h *StockHandler) ListMovements(c *gin.Context) {
	params := pagination.Parse(c)

	filter := repository.MovementFilter{
		Type:  c.Query("type"),
		Page:  params.Page,
		Limit: params.Limit,
	}
	if raw := c.Query("area_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid area_id"))
			return
		}
		filter.AreaID = &id
	}
	if raw := c.Query("product_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product_id"))
			return
		}
		filter.ProductID = &id
	}
	if raw := c.Query("economic_cycle_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid economic_cycle_id"))
			return
		}
		filter.EconomicCycleID = &id
	}

	_, businessID := identity(c)

	movements, total, err := h.stockService.ListMovements(c.Request.Context(), businessID, filter)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"movements": movements,
		"total":     total,
		"page":      params.Page,
		"limit":     params.Limit,
	}))
}

// GetAreaStock returns current quantities for one area
// @Summary      Get area stock
// @Description  Lists the per-product (and per-variation) quantities currently held in a stock area
// @Tags         stock
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Area ID"
// @Success      200  {object}  response.Response{data=object}
// @Failure      404  {object}  response.Response
// @Router       /api/areas/{id}/stock [get]
func (h *StockHandler) GetAreaStock(c *gin.Context) {
	areaID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid area id"))
		return
	}

	_, businessID := identity(c)

	items, err := h.stockService.GetAreaStock(c.Request.Context(), businessID, areaID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"stock": items,
	}))
}

// OpenInventory freezes the opening snapshot for an area and cycle
// @Summary      Open inventory
// @Description  Captures the area's current quantities as the immutable opening snapshot of the given economic cycle
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                 true  "Area ID"
// @Param        payload  body      InventoryCycleRequest  true  "Economic cycle"
// @Success      201      {object}  response.Response{data=service.InventoryStatusResponse}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/areas/{id}/inventory/open [post]
func (h *StockHandler) OpenInventory(c *gin.Context) {
	areaID, cycleID, ok := h.bindInventoryTarget(c)
	if !ok {
		return
	}

	userID, businessID := identity(c)

	status, err := h.bookService.OpenInventory(c.Request.Context(), userID, businessID, areaID, cycleID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, status))
}

// CloseInventory reconciles and freezes the closing snapshot
// @Summary      Close inventory
// @Description  Replays the journal since opening and stores the reconciled closing snapshot; the result is immutable
// @Tags         inventory
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                 true  "Area ID"
// @Param        payload  body      InventoryCycleRequest  true  "Economic cycle"
// @Success      201      {object}  response.Response{data=service.InventoryStatusResponse}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/areas/{id}/inventory/close [post]
func (h *StockHandler) CloseInventory(c *gin.Context) {
	areaID, cycleID, ok := h.bindInventoryTarget(c)
	if !ok {
		return
	}

	userID, businessID := identity(c)

	status, err := h.bookService.CloseInventory(c.Request.Context(), userID, businessID, areaID, cycleID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, status))
}

// GetInventoryStatus reports the inventory for an area and cycle
// @Summary      Inventory status
// @Description  Returns the frozen closing state if closed, otherwise a live replay from the opening snapshot
// @Tags         inventory
// @Security     BearerAuth
// @Produce      json
// @Param        id                 path   string  true  "Area ID"
// @Param        economic_cycle_id  query  string  true  "Economic cycle ID"
// @Success      200  {object}  response.Response{data=service.InventoryStatusResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/areas/{id}/inventory/status [get]
func (h *StockHandler) GetInventoryStatus(c *gin.Context) {
	areaID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid area id"))
		return
	}
	cycleID, err := uuid.Parse(c.Query("economic_cycle_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid economic_cycle_id"))
		return
	}

	_, businessID := identity(c)

	status, err := h.bookService.GetInventoryStatus(c.Request.Context(), businessID, areaID, cycleID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, status))
}

func (h *StockHandler) bindInventoryTarget(c *gin.Context) (areaID, cycleID uuid.UUID, ok bool) {
	areaID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid area id"))
		return uuid.Nil, uuid.Nil, false
	}

	var req InventoryCycleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return uuid.Nil, uuid.Nil, false
	}
	cycleID, err = uuid.Parse(req.EconomicCycleID)
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid economic_cycle_id"))
		return uuid.Nil, uuid.Nil, false
	}

	return areaID, cycleID, true
}
