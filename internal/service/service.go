// Package service contains the business logic layer of the application.
//
// THE THREE-LAYER ARCHITECTURE:
//
//	Handler (HTTP layer)     → parses requests, writes responses
//	Service (Business layer) → validates, enforces rules, orchestrates
//	Repository (Data layer)  → reads/writes to the database
//
// Services accept primitives and domain types, never *http.Request, and
// return *apperror.AppError values. The handler translates error kinds into
// HTTP status codes, so the same rules apply to any future caller.
//
// DEPENDENCY INJECTION:
// Every service takes repository interfaces (not *sqlite.DB). Tests pass the
// real in-memory SQLite store, or a fake that injects failures.
package service

import (
	"errors"
	"strconv"
	"strings"

	"github.com/sakif/flashcards/internal/apperror"
)

// Field limits shared with the schema's CHECK constraints.
const (
	MaxUsernameLength    = 100
	MaxEmailLength       = 100
	MaxDeckNameLength    = 255
	MaxDescriptionLength = 255
	MinCardsPerDeck      = 1
	MaxCardsPerDeck      = 10
)

// ParseID converts a deck or user id from the boundary into an int64.
// Anything other than a positive base-10 integer is invalid_id.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed(apperror.CodeInvalidID, "id", "id must be a positive integer")
	}
	return id, nil
}

// asStoreError passes *AppError values through untouched and wraps anything
// else (driver errors, closed DB) as an ErrStore.
func asStoreError(op string, err error) error {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperror.Store(op, err)
}
