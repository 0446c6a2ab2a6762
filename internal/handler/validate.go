package handler

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/sakif/flashcards/internal/apperror"
)

// REQUEST SHAPE CHECKS:
// Auth request bodies carry `validate` tags (required, email, max). Those only
// catch malformed input early; the services still own the rules and the
// ordering of their error codes.

// fieldCodes maps a JSON field name to the error code reported when its tag
// check fails.
var fieldCodes = map[string]apperror.Code{
	"username": apperror.CodeInvalidUsername,
	"email":    apperror.CodeInvalidEmail,
	"password": apperror.CodeInvalidPassword,
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON name ("username"), not the Go name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateRequest runs the struct tags on req and turns the FIRST failing
// field (in declaration order) into an ErrValidation.
func validateRequest(v *validator.Validate, req any) error {
	err := v.Struct(req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return apperror.ValidationFailed("", "body", err.Error())
	}

	fe := fieldErrs[0]
	field := fe.Field()
	return apperror.ValidationFailed(fieldCodes[field], field, describe(field, fe))
}

func describe(field string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email address"
	case "max":
		return fmt.Sprintf("%s must be %s characters or less", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
