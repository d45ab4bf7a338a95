package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/bazaar-service/bazaar_service/internal/domain/entities"
	apperrors "github.com/bazaar-service/bazaar_service/internal/domain/errors"
)

// parseID parses a UUID path parameter.
func parseID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_ID", "invalid "+name, map[string]interface{}{
			"param": name,
		})
		return uuid.Nil, false
	}
	return id, true
}

// respondError sends a standardized error response.
func respondError(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.JSON(status, entities.ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	})
}

// respondDomainError maps the domain error taxonomy onto HTTP statuses:
// validation 400, not found 404, conflict 409, everything else 500.
func respondDomainError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case apperrors.IsValidation(err):
		status = http.StatusBadRequest
	case apperrors.IsNotFound(err):
		status = http.StatusNotFound
	case apperrors.IsConflict(err):
		status = http.StatusConflict
	}

	message := err.Error()
	var details map[string]interface{}
	if status == http.StatusInternalServerError {
		// Internal causes are logged server-side, never leaked to callers.
		message = "internal server error"
	} else {
		var ae *apperrors.AppError
		if errors.As(err, &ae) {
			details = ae.Details
		}
	}
	respondError(c, status, apperrors.Code(err), message, details)
}
