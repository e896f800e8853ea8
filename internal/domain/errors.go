package domain

import (
	"context"
	"errors"
	"net/http"
)

// AppError 统一业务错误；Code 直接使用 HTTP 语义
type AppError struct {
	Code int
	Msg  string
	Err  error
}

func (e *AppError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e *AppError) Unwrap() error { return e.Err }

// Is 按 Code 比较，使 errors.Is(err, domain.ErrNotFound) 成立
func (e *AppError) Is(target error) bool {
	var t *AppError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

var (
	ErrValidation      = &AppError{Code: http.StatusBadRequest}
	ErrUnauthenticated = &AppError{Code: http.StatusUnauthorized}
	ErrForbidden       = &AppError{Code: http.StatusForbidden}
	ErrNotFound        = &AppError{Code: http.StatusNotFound}
	ErrConflict        = &AppError{Code: http.StatusConflict}
	ErrInternal        = &AppError{Code: http.StatusInternalServerError}
)

func Validation(msg string) error      { return &AppError{Code: http.StatusBadRequest, Msg: msg} }
func Unauthenticated(msg string) error { return &AppError{Code: http.StatusUnauthorized, Msg: msg} }
func Forbidden(msg string) error       { return &AppError{Code: http.StatusForbidden, Msg: msg} }
func NotFound(msg string) error        { return &AppError{Code: http.StatusNotFound, Msg: msg} }
func Conflict(msg string) error        { return &AppError{Code: http.StatusConflict, Msg: msg} }
func Internal(msg string, err error) error {
	return &AppError{Code: http.StatusInternalServerError, Msg: msg, Err: err}
}

// CodeOf returns the HTTP status carried by err. A request deadline that
// surfaced from the db layer is 504; anything else untyped is 500.
func CodeOf(err error) int {
	var ae *AppError
	if errors.As(err, &ae) {
		return ae.Code
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
