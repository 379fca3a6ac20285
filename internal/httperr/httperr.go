package httperr

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domain "github.com/cpg716/SuitSync-sub003/internal/domain/appointment"
)

type HTTPError struct {
	Code    string `json:"error_code"`
	Message string `json:"message"`
}

func Write(c *gin.Context, status int, code, message string) {
	c.JSON(status, HTTPError{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, code, message string) {
	Write(c, http.StatusBadRequest, code, message)
}

func NotFound(c *gin.Context, code, message string) {
	Write(c, http.StatusNotFound, code, message)
}

func Internal(c *gin.Context, code, message string) {
	Write(c, http.StatusInternalServerError, code, message)
}

func Unauthorized(c *gin.Context, code, message string) {
	Write(c, http.StatusUnauthorized, code, message)
}

func Conflict(c *gin.Context, code, message string) {
	Write(c, http.StatusConflict, code, message)
}

// FromDomain writes the response matching a use case error.
func FromDomain(c *gin.Context, err error) {
	var vErr *domain.ValidationError
	var be BusinessError

	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"error_code": "validation_failed",
			"message":    vErr.Error(),
			"fields":     vErr.FieldErrors,
		})
	case errors.Is(err, domain.ErrNotFound):
		NotFound(c, "not_found", "Resource not found.")
	case errors.Is(err, domain.ErrAlreadyExists):
		Conflict(c, "already_exists", "Resource already exists.")
	case errors.Is(err, domain.ErrInvalidState):
		Conflict(c, "invalid_state", "Operation not allowed in the current state.")
	case errors.As(err, &be):
		status := be.Status
		if status == 0 {
			status = http.StatusUnprocessableEntity
		}
		Write(c, status, be.Code, be.Message)
	default:
		Internal(c, "internal_error", "Unexpected error.")
	}
}
