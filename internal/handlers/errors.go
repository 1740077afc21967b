// internal/handlers/errors.go
package handlers

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/catalog-backend/internal/i18n"
	"github.com/javajoker/catalog-backend/internal/services"
	"github.com/javajoker/catalog-backend/internal/utils"
)

// respondError maps a service error onto the error envelope. Unknown errors
// are logged and reported as an opaque 500.
func respondError(c *gin.Context, err error) {
	var validationErr *services.ValidationError
	var conflictErr *services.ConflictError

	switch {
	case errors.As(err, &validationErr):
		utils.ValidationErrorResponse(c, validationErr.Message, validationErr.Fields)
	case errors.Is(err, services.ErrProductNotFound):
		utils.NotFoundResponse(c, i18n.KeyProductNotFound)
	case errors.Is(err, services.ErrCategoryNotFound):
		utils.NotFoundResponse(c, i18n.KeyCategoryNotFound)
	case errors.Is(err, services.ErrUserNotFound):
		utils.NotFoundResponse(c, i18n.KeyUserNotFound)
	case errors.Is(err, services.ErrNotFound):
		utils.NotFoundResponse(c, i18n.KeyResourceNotFound)
	case errors.As(err, &conflictErr):
		utils.ConflictResponse(c, conflictErr.Message)
	case errors.Is(err, services.ErrForbidden):
		utils.ForbiddenResponse(c)
	case errors.Is(err, services.ErrInvalidCredentials):
		utils.UnauthorizedResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyAuthInvalidCredentials))
	default:
		logrus.WithFields(logrus.Fields{
			"request_id": utils.GetRequestIDFromContext(c),
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
		}).WithError(err).Error("Request failed")
		utils.InternalErrorResponse(c)
	}
}

// bindJSON decodes the request body into req, answering 400 on failure.
func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}
	return true
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 0)
	if err != nil || id == 0 {
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "id"), nil)
		return 0, false
	}
	return uint(id), true
}
