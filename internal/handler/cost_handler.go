package handler

import (
	"net/http"

	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/middleware"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/service"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type CostHandler struct {
	costService service.CostService
}

func NewCostHandler(costService service.CostService) *CostHandler {
	return &CostHandler{costService: costService}
}

func (h *CostHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/products/:id")
	{
		api.GET("/cost", middleware.RequireAuth(), h.GetCost)
		api.PUT("/supplies", middleware.RequireRole("admin", "manager"), h.UpdateSupplies)
		api.PUT("/fixed-costs", middleware.RequireRole("admin", "manager"), h.UpdateFixedCosts)
		api.PUT("/combos", middleware.RequireRole("admin", "manager"), h.UpdateCombos)
		api.GET("/combo-availability", middleware.RequireAuth(), h.ComboAvailability)
	}
}

// GetCost returns a product's cost breakdown
// @Summary      Get cost breakdown
// @Description  Returns the rolled-up average cost, unit cost and the supply/fixed-cost edges behind them
// @Tags         costs
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=service.CostBreakdownResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id}/cost [get]
func (h *CostHandler) GetCost(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product id"))
		return
	}

	_, businessID := identity(c)

	breakdown, err := h.costService.GetCost(c.Request.Context(), businessID, productID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, breakdown))
}

// UpdateSupplies replaces a product's supply edges
// @Summary      Update supplies
// @Description  Replaces the bill-of-materials edges of a composite product and re-derives its cost
// @Tags         costs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                         true  "Product ID"
// @Param        payload  body      service.UpdateSuppliesRequest  true  "Supply edges"
// @Success      200      {object}  response.Response{data=service.CostBreakdownResponse}
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/products/{id}/supplies [put]
func (h *CostHandler) UpdateSupplies(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product id"))
		return
	}

	var req service.UpdateSuppliesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, businessID := identity(c)

	breakdown, err := h.costService.UpdateSupplies(c.Request.Context(), userID, businessID, productID, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, breakdown))
}

// UpdateFixedCosts replaces a product's fixed cost entries
// @Summary      Update fixed costs
// @Description  Replaces the flat fixed-cost amounts of a product and re-derives its cost
// @Tags         costs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                           true  "Product ID"
// @Param        payload  body      service.UpdateFixedCostsRequest  true  "Fixed costs"
// @Success      200      {object}  response.Response{data=service.CostBreakdownResponse}
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/products/{id}/fixed-costs [put]
func (h *CostHandler) UpdateFixedCosts(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product id"))
		return
	}

	var req service.UpdateFixedCostsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, businessID := identity(c)

	breakdown, err := h.costService.UpdateFixedCosts(c.Request.Context(), userID, businessID, productID, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, breakdown))
}

// UpdateCombos replaces a combo product's composition edges
// @Summary      Update combo edges
// @Description  Replaces the composition edges of a COMBO product and returns the re-derived availability
// @Tags         costs
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Combo product ID"
// @Param        payload  body      service.UpdateCombosRequest  true  "Combo edges"
// @Success      200      {object}  response.Response{data=service.ComboAvailabilityResponse}
// @Failure      404      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/products/{id}/combos [put]
func (h *CostHandler) UpdateCombos(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product id"))
		return
	}

	var req service.UpdateCombosRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, businessID := identity(c)

	availability, err := h.costService.UpdateCombos(c.Request.Context(), userID, businessID, productID, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, availability))
}

// ComboAvailability reports how many combos current stock can assemble
// @Summary      Combo availability
// @Description  Returns the number of complete combos assemblable from current stock, limited by the scarcest component
// @Tags         costs
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Combo product ID"
// @Success      200  {object}  response.Response{data=service.ComboAvailabilityResponse}
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id}/combo-availability [get]
func (h *CostHandler) ComboAvailability(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product id"))
		return
	}

	_, businessID := identity(c)

	availability, err := h.costService.ComboAvailability(c.Request.Context(), businessID, productID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, availability))
}
