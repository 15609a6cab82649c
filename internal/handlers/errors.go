package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/evoltcare/service-center-backend/internal/models"
)

// respondError maps the error taxonomy onto HTTP statuses. Anything
// outside the taxonomy is an internal error and its detail stays out
// of the response body.
func respondError(c *gin.Context, err error) {
	var appErr *models.AppError
	if !errors.As(err, &appErr) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
		return
	}

	status := http.StatusInternalServerError
	switch appErr.Kind {
	case models.ErrorKindValidation:
		status = http.StatusBadRequest
	case models.ErrorKindConflict:
		status = http.StatusConflict
	case models.ErrorKindNotFound:
		status = http.StatusNotFound
	case models.ErrorKindDependency:
		status = http.StatusBadGateway
	}

	body := gin.H{"error": appErr.Message}
	if appErr.Field != "" {
		body["field"] = appErr.Field
	}
	c.JSON(status, body)
}
