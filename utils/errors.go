package utils

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindAuthentication
	KindAuthorization
	KindNotFound
	KindConflict
	KindStorage
)

func (k ErrorKind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthentication:
		return "authentication"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindStorage:
		return "storage"
	}
	return "unknown"
}

// AppError is the single error type handed from services to handlers.
type AppError struct {
	Kind    ErrorKind
	Message string
	Fields  map[string]string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

var (
	ErrUnauthenticated    = &AppError{Kind: KindAuthentication, Message: "authentication required"}
	ErrInvalidCredentials = &AppError{Kind: KindAuthentication, Message: "invalid credentials"}
	ErrForbidden          = &AppError{Kind: KindAuthorization, Message: "you do not have permission"}
	ErrEmailAlreadyExists = &AppError{Kind: KindConflict, Message: "email already exists"}
	ErrTableNumberExists  = &AppError{Kind: KindConflict, Message: "table number already exists"}
	ErrTenantNotFound     = &AppError{Kind: KindNotFound, Message: "restaurant not found"}
	ErrTableNotFound      = &AppError{Kind: KindNotFound, Message: "table not found"}
	ErrOrderNotFound      = &AppError{Kind: KindNotFound, Message: "order not found"}
	ErrCategoryNotFound   = &AppError{Kind: KindNotFound, Message: "category not found"}
	ErrProductNotFound    = &AppError{Kind: KindNotFound, Message: "product not found"}
	ErrUserNotFound       = &AppError{Kind: KindNotFound, Message: "user not found"}
)

// ValidationError reports field-level problems.
func ValidationError(fields map[string]string) *AppError {
	return &AppError{Kind: KindValidation, Message: "invalid input", Fields: fields}
}

// InvalidField is ValidationError for a single field.
func InvalidField(field, detail string) *AppError {
	return ValidationError(map[string]string{field: detail})
}

// StorageError wraps a persistence failure; the cause is kept for logs only.
func StorageError(err error) *AppError {
	return &AppError{Kind: KindStorage, Message: "storage error", Err: err}
}

// KindOf returns the kind of err, KindStorage for anything unclassified.
func KindOf(err error) ErrorKind {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return KindStorage
}

// HTTPStatus maps an error to its response code.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation:
		return http.StatusBadRequest
	case KindAuthentication:
		return http.StatusUnauthorized
	case KindAuthorization:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindConflict:
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}
