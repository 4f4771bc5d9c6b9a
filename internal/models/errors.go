package models

import (
	"fmt"
	"net/http"
)

// AppError is the domain error carried from usecases to the transport
// boundary, where Status decides the HTTP code (the socket layer maps it
// to a scoped error event instead).
type AppError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func Validationf(format string, args ...any) *AppError {
	return &AppError{Status: http.StatusBadRequest, Code: "validation_error", Message: fmt.Sprintf(format, args...)}
}

func Authenticationf(format string, args ...any) *AppError {
	return &AppError{Status: http.StatusUnauthorized, Code: "authentication_error", Message: fmt.Sprintf(format, args...)}
}

func Authorizationf(format string, args ...any) *AppError {
	return &AppError{Status: http.StatusForbidden, Code: "authorization_error", Message: fmt.Sprintf(format, args...)}
}

func NotFoundf(format string, args ...any) *AppError {
	return &AppError{Status: http.StatusNotFound, Code: "not_found", Message: fmt.Sprintf(format, args...)}
}

func Conflictf(format string, args ...any) *AppError {
	return &AppError{Status: http.StatusConflict, Code: "conflict", Message: fmt.Sprintf(format, args...)}
}

// ErrNotFound is returned by repositories when a document is absent.
// Usecases either pass it through or rewrap it with a domain message.
var ErrNotFound = NotFoundf("not found")
