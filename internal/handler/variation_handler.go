package handler

import (
	"net/http"

	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/middleware"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/service"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type VariationHandler struct {
	variationService service.VariationService
}

func NewVariationHandler(variationService service.VariationService) *VariationHandler {
	return &VariationHandler{variationService: variationService}
}

func (h *VariationHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api")
	{
		api.GET("/products/:id/attributes", middleware.RequireAuth(), h.ListAttributes)
		api.POST("/products/:id/attributes", middleware.RequireRole("admin", "manager"), h.RegisterAttributes)
		api.GET("/products/:id/variations", middleware.RequireAuth(), h.ListVariations)
		api.POST("/products/:id/variations", middleware.RequireRole("admin", "manager"), h.CreateVariation)
		api.PUT("/variations/:id", middleware.RequireRole("admin", "manager"), h.UpdateVariation)
		api.DELETE("/variations/:id", middleware.RequireRole("admin", "manager"), h.DeleteVariation)
	}
}

// ListAttributes lists the registered attribute values of a product
// @Summary      List product attributes
// @Description  Retrieves the attribute codes and values registered on a VARIATION-typed product
// @Tags         variations
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=object}
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id}/attributes [get]
func (h *VariationHandler) ListAttributes(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product id"))
		return
	}

	_, businessID := identity(c)

	attributes, err := h.variationService.ListAttributeValues(c.Request.Context(), businessID, productID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"attributes": attributes,
	}))
}

// RegisterAttributes registers new attribute values on a product
// @Summary      Register attribute values
// @Description  Adds attribute (code, value) pairs to a product's variation schema. New codes are rejected once variations exist.
// @Tags         variations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                             true  "Product ID"
// @Param        payload  body      service.RegisterAttributesRequest  true  "Attribute values"
// @Success      201      {object}  response.Response{data=object}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/products/{id}/attributes [post]
func (h *VariationHandler) RegisterAttributes(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product id"))
		return
	}

	var req service.RegisterAttributesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, businessID := identity(c)

	attributes, err := h.variationService.RegisterAttributeValues(c.Request.Context(), userID, businessID, productID, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, map[string]interface{}{
		"attributes": attributes,
	}))
}

// ListVariations lists the variations of a product
// @Summary      List variations
// @Description  Retrieves all variations of a product with their attribute selections
// @Tags         variations
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  response.Response{data=object}
// @Failure      404  {object}  response.Response
// @Router       /api/products/{id}/variations [get]
func (h *VariationHandler) ListVariations(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product id"))
		return
	}

	_, businessID := identity(c)

	variations, err := h.variationService.ListVariations(c.Request.Context(), businessID, productID)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, map[string]interface{}{
		"variations": variations,
	}))
}

// CreateVariation creates a variation from an attribute selection
// @Summary      Create variation
// @Description  Creates a variation covering exactly one value per registered attribute code
// @Tags         variations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                          true  "Product ID"
// @Param        payload  body      service.CreateVariationRequest  true  "Variation selection"
// @Success      201      {object}  response.Response{data=service.VariationResponse}
// @Failure      409      {object}  response.Response
// @Failure      422      {object}  response.Response
// @Router       /api/products/{id}/variations [post]
func (h *VariationHandler) CreateVariation(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid product id"))
		return
	}

	var req service.CreateVariationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, businessID := identity(c)

	variation, err := h.variationService.CreateVariation(c.Request.Context(), userID, businessID, productID, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, variation))
}

// UpdateVariation edits a variation
// @Summary      Update variation
// @Description  Updates a variation's selection, price or description; the same uniqueness rules as creation apply
// @Tags         variations
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                          true  "Variation ID"
// @Param        payload  body      service.UpdateVariationRequest  true  "Variation update"
// @Success      200      {object}  response.Response{data=service.VariationResponse}
// @Failure      404      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/variations/{id} [put]
func (h *VariationHandler) UpdateVariation(c *gin.Context) {
	variationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid variation id"))
		return
	}

	var req service.UpdateVariationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request payload: "+err.Error()))
		return
	}

	userID, businessID := identity(c)

	variation, err := h.variationService.EditVariation(c.Request.Context(), userID, businessID, variationID, req)
	if err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, variation))
}

// DeleteVariation removes a variation
// @Summary      Delete variation
// @Description  Deletes a variation unless stock rows still reference it
// @Tags         variations
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Variation ID"
// @Success      200  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Failure      409  {object}  response.Response
// @Router       /api/variations/{id} [delete]
func (h *VariationHandler) DeleteVariation(c *gin.Context) {
	variationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid variation id"))
		return
	}

	userID, businessID := identity(c)

	if err := h.variationService.DeleteVariation(c.Request.Context(), userID, businessID, variationID); err != nil {
		fail(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Variation deleted"))
}
