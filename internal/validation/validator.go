// TAKBridge - TAK Server Integration Layer
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/takbridge

package validation

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

var (
	cotTypePattern = regexp.MustCompile(`^[a-zA-Z0-9]+(-[a-zA-Z0-9.]+)*$`)
	takUIDPattern  = regexp.MustCompile(`^[^\s<>&"']+$`)
)

// FieldError is a single field validation failure.
type FieldError struct {
	field   string
	tag     string
	param   string
	message string
}

// Field returns the struct field name that failed validation.
func (e *FieldError) Field() string { return e.field }

// Tag returns the validation tag that failed.
func (e *FieldError) Tag() string { return e.tag }

// Param returns the parameter for the validation tag (e.g., "100" for "max=100").
func (e *FieldError) Param() string { return e.param }

// Error returns a human-readable error message.
func (e *FieldError) Error() string { return e.message }

// Error is the collection of failures for one struct.
type Error struct {
	errors []FieldError
}

// Errors returns the individual field failures.
func (ve *Error) Errors() []FieldError {
	return ve.errors
}

// Error implements the error interface, returning a combined error message.
func (ve *Error) Error() string {
	if len(ve.errors) == 0 {
		return "validation failed"
	}
	messages := make([]string, len(ve.errors))
	for i := range ve.errors {
		messages[i] = ve.errors[i].Error()
	}
	return strings.Join(messages, "; ")
}

// HasField reports whether field (struct field name) is among the failures.
func (ve *Error) HasField(field string) bool {
	for i := range ve.errors {
		if ve.errors[i].field == field {
			return true
		}
	}
	return false
}

// GetValidator returns the singleton validator instance.
func GetValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Registration only fails on an empty tag name.
		_ = validate.RegisterValidation("cot_type", func(fl validator.FieldLevel) bool {
			return cotTypePattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("tak_uid", func(fl validator.FieldLevel) bool {
			return takUIDPattern.MatchString(fl.Field().String())
		})
	})
	return validate
}

// ValidateStruct validates a struct using the singleton validator.
// Returns nil if validation passes, or *Error describing each failure.
//
// The return type is error (not *Error) so a passing struct never yields a
// non-nil interface holding a nil pointer.
func ValidateStruct(s interface{}) error {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return &Error{errors: []FieldError{{field: "unknown", tag: "unknown", message: err.Error()}}}
	}

	fieldErrors := make([]FieldError, len(validationErrs))
	for i, fe := range validationErrs {
		fieldErrors[i] = FieldError{
			field:   fe.Field(),
			tag:     fe.Tag(),
			param:   fe.Param(),
			message: translateError(fe),
		}
	}
	return &Error{errors: fieldErrors}
}

var errorMessageTemplates = map[string]string{
	"required": "%s is required",
	"hostname": "%s must be a valid hostname",
	"ip":       "%s must be a valid IP address",
	"url":      "%s must be a valid URL",
	"file":     "%s must be an existing file",
	"cot_type": "%s must be a CoT type such as a-f-G",
	"tak_uid":  "%s must not contain whitespace or XML metacharacters",
}

var errorMessageWithParam = map[string]string{
	"oneof":       "%s must be one of: %s",
	"gte":         "%s must be greater than or equal to %s",
	"lte":         "%s must be less than or equal to %s",
	"gt":          "%s must be greater than %s",
	"lt":          "%s must be less than %s",
	"required_if": "%s is required when %s",
}

func translateError(fe validator.FieldError) string {
	field, tag, param := fe.Field(), fe.Tag(), fe.Param()

	if template, ok := errorMessageTemplates[tag]; ok {
		return fmt.Sprintf(template, field)
	}
	if template, ok := errorMessageWithParam[tag]; ok {
		return fmt.Sprintf(template, field, param)
	}

	isString := fe.Kind().String() == "string"
	switch tag {
	case "min":
		if isString {
			return fmt.Sprintf("%s must be at least %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at least %s", field, param)
	case "max":
		if isString {
			return fmt.Sprintf("%s must be at most %s characters", field, param)
		}
		return fmt.Sprintf("%s must be at most %s", field, param)
	default:
		if strings.Contains(tag, "|") {
			return fmt.Sprintf("%s must satisfy %s", field, tag)
		}
		return fmt.Sprintf("%s failed %s validation", field, tag)
	}
}
