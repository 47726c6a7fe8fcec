package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Hak2025BattleTITans/otkroimosprom-backend/internal/apperr"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError maps the sentinel taxonomy onto HTTP statuses.
func RespondError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "internal_error"
	switch {
	case errors.Is(err, apperr.ErrValidation):
		status, code = http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperr.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperr.ErrNotFound):
		status, code = http.StatusNotFound, "not_found"
	case errors.Is(err, apperr.ErrConflict):
		status, code = http.StatusConflict, "conflict"
	case errors.Is(err, apperr.ErrSizeLimit):
		status, code = http.StatusRequestEntityTooLarge, "payload_too_large"
	case errors.Is(err, apperr.ErrParse):
		status, code = http.StatusUnprocessableEntity, "parse_error"
	}
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}
	c.JSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
