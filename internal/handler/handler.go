package handler

import (
	"github.com/sophiaramosdev/Open-Tecopos-sub003/internal/middleware"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/pkg/apperror"
	"github.com/sophiaramosdev/Open-Tecopos-sub003/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// fail writes the error with the status matching its classification.
func fail(c *gin.Context, err error) {
	status := apperror.HTTPStatus(err)
	c.JSON(status, response.Error(status, err.Error()))
}

// identity pulls the authenticated caller from the request context.
// Middleware guarantees both values on protected routes.
func identity(c *gin.Context) (userID string, businessID uuid.UUID) {
	userID = c.GetString("userID")
	businessID, _ = middleware.BusinessID(c)
	return userID, businessID
}
