package appointment

import "errors"

var (
	// ErrNotFound is returned when the requested appointment, party or member does not exist.
	ErrNotFound = errors.New("appointment: not found")
	// ErrAlreadyExists is returned when a unique record (e.g. an alteration job) is already present.
	ErrAlreadyExists = errors.New("appointment: already exists")
	// ErrInvalidState is returned when a status transition is not allowed.
	ErrInvalidState = errors.New("appointment: invalid state")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

func (v *ValidationError) Error() string {
	if v == nil || len(v.FieldErrors) != 1 {
		return "validation failed"
	}
	for field, msg := range v.FieldErrors {
		return "validation failed: " + field + " " + msg
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// Add records a field level validation error.
func (v *ValidationError) Add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// ErrorKind maps sentinel and validation errors to a stable logging label.
func ErrorKind(err error) string {
	if err == nil {
		return ""
	}
	switch {
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrInvalidState):
		return "invalid_state"
	}

	var vErr *ValidationError
	if errors.As(err, &vErr) {
		return "validation"
	}
	return "unexpected"
}
