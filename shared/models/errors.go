package models

import "fmt"

// Error kinds shared by every league component. Callers test with errors.Is.
var (
	ErrNotFound   = fmt.Errorf("resource not found")
	ErrValidation = fmt.Errorf("validation failed")
)

// kindError carries a specific message while matching one of the kinds above.
type kindError struct {
	kind error
	msg  string
}

func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

// NotFoundf formats a message that matches ErrNotFound.
func NotFoundf(format string, args ...any) error {
	return &kindError{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

// Validationf formats a message that matches ErrValidation.
func Validationf(format string, args ...any) error {
	return &kindError{kind: ErrValidation, msg: fmt.Sprintf(format, args...)}
}
