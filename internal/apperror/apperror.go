// Package apperror defines the error kinds shared by the service and storage
// layers.
//
// Every failure the core reports is an *AppError. The Err field holds one of
// the sentinel kinds below, so callers branch with errors.Is:
//
//	if errors.Is(err, apperror.ErrNotFound) { ... }
//
// The Code field narrows the kind further (which validation rule failed,
// which credential check failed). Handlers translate kinds into HTTP status
// codes; the core never renders messages for end users itself.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("validation error")
	ErrConflict   = errors.New("conflict")
	ErrForbidden  = errors.New("forbidden")
	ErrCredential = errors.New("credential error")
	ErrStore      = errors.New("store error")
)

// Code identifies the specific rule behind an error kind.
type Code string

const (
	CodeInvalidName        Code = "invalid_name"
	CodeInvalidDescription Code = "invalid_description"
	CodeInvalidCardCount   Code = "invalid_card_count"
	CodeInvalidID          Code = "invalid_id"
	CodeInvalidUsername    Code = "invalid_username"
	CodeInvalidEmail       Code = "invalid_email"
	CodeInvalidPassword    Code = "invalid_password"
	CodeOwnerNotFound      Code = "owner_not_found"
	CodePasswordMismatch   Code = "password_mismatch"
	CodeInvalidCredential  Code = "invalid_credential"
	CodeDuplicateUser      Code = "duplicate_user"
)

type AppError struct {
	Err     error  // sentinel kind
	Code    Code   // optional: specific rule
	Message string // human-readable message
	Field   string // optional: field causing the error
	Cause   error  // optional: underlying error (store failures)
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap exposes both the kind and the cause, so errors.Is matches either.
func (e *AppError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Err}
	}
	return []error{e.Err, e.Cause}
}

// Is reports whether target is an *AppError with the same kind and code.
// A target with an empty Code matches any code of that kind.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Err == e.Err && (t.Code == "" || t.Code == e.Code)
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found with id %s", resource, id),
	}
}

// OwnerNotFound is the NotFound variant returned when a deck's owner is gone.
func OwnerNotFound(id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Code:    CodeOwnerNotFound,
		Message: fmt.Sprintf("owner not found with id %s", id),
		Field:   "owner",
	}
}

func ValidationFailed(code Code, field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Code:    code,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, field string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Code:    CodeDuplicateUser,
		Message: fmt.Sprintf("%s with this %s already exists", resource, field),
		Field:   field,
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

func Credential(code Code, message string) *AppError {
	return &AppError{
		Err:     ErrCredential,
		Code:    code,
		Message: message,
	}
}

// Store wraps an underlying persistence failure. The cause stays reachable
// through errors.Is / errors.As but is never shown to API clients.
func Store(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrStore,
		Message: op,
		Cause:   cause,
	}
}

// CodeOf returns the Code carried by err, or "" if err is not an *AppError.
func CodeOf(err error) Code {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ""
}

// KindOf returns the sentinel kind of the outermost *AppError in err, or nil.
//
// Use it instead of errors.Is when the cause chain may itself hold another
// AppError: a store failure caused by a NotFound is still a store failure.
func KindOf(err error) error {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Err
	}
	return nil
}
