package apperr

import (
	"errors"
	"net/http"
)

// Root categories. Every error returned by the order core wraps exactly one of these.
var (
	ErrValidation   = errors.New("validation error")
	ErrNotFound     = errors.New("not found")
	ErrBusinessRule = errors.New("business rule violation")
	ErrForbidden    = errors.New("forbidden")
	ErrConflict     = errors.New("conflict")
)

// HTTPStatus maps an error onto the status code the handlers answer with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrBusinessRule):
		return http.StatusUnprocessableEntity
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// Kind is a typed sentinel that also matches its root category with errors.Is.
type Kind struct {
	msg  string
	root error
}

func New(root error, msg string) *Kind {
	return &Kind{msg: msg, root: root}
}

func (k *Kind) Error() string { return k.msg }

func (k *Kind) Unwrap() error { return k.root }
