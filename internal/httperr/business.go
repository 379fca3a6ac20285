package httperr

import (
	"errors"
	"net/http"
)

// BusinessError is a rule violation with its own response status and code.
type BusinessError struct {
	Status  int
	Code    string
	Message string
}

func (e BusinessError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return e.Code + ": " + e.Message
}

// ErrBusiness builds a 422 business error.
func ErrBusiness(code, message string) error {
	return BusinessError{Status: http.StatusUnprocessableEntity, Code: code, Message: message}
}

// ErrBusinessStatus builds a business error answered with status.
func ErrBusinessStatus(status int, code, message string) error {
	return BusinessError{Status: status, Code: code, Message: message}
}

func IsBusiness(err error, code string) bool {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}
