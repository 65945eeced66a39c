// Cadence - Offline-first Practice Journal Sync
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cadence

// Package validation wraps go-playground/validator v10 for directory
// profiles, publish payloads and status API query parameters.
//
// A single validator instance is shared process-wide so struct metadata is
// parsed once. Failures come back as *RequestValidationError, which renders
// into the status API's VALIDATION_ERROR body:
//
//	if verr := validation.ValidateStruct(&q); verr != nil {
//	    apiErr := verr.ToAPIError()
//	    ...
//	}
package validation

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const errorCode = "VALIDATION_ERROR"

var (
	shared     *validator.Validate
	sharedOnce sync.Once
)

// FieldError is one failed rule on one field.
type FieldError struct {
	Field   string
	Tag     string
	Param   string
	Value   interface{}
	Message string
}

func (e FieldError) Error() string { return e.Message }

// RequestValidationError collects every rule that failed for a struct.
type RequestValidationError struct {
	fields []FieldError
}

// Errors returns the individual field failures in declaration order.
func (ve *RequestValidationError) Errors() []FieldError {
	return ve.fields
}

func (ve *RequestValidationError) Error() string {
	if len(ve.fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, 0, len(ve.fields))
	for _, f := range ve.fields {
		parts = append(parts, f.Message)
	}
	return strings.Join(parts, "; ")
}

// APIError is the transport-neutral shape of a validation failure. The api
// package copies it into its own error envelope.
type APIError struct {
	Code    string
	Message string
	Details map[string]interface{}
}

// ToAPIError renders the failure for the status API. A single failure keeps
// its own message and reports field, tag and value; several failures are
// joined and listed under "fields".
func (ve *RequestValidationError) ToAPIError() *APIError {
	switch len(ve.fields) {
	case 0:
		return &APIError{Code: errorCode, Message: "Validation failed"}
	case 1:
		f := ve.fields[0]
		return &APIError{
			Code:    errorCode,
			Message: f.Message,
			Details: map[string]interface{}{"field": f.Field, "tag": f.Tag, "value": f.Value},
		}
	}

	listed := make([]map[string]interface{}, 0, len(ve.fields))
	parts := make([]string, 0, len(ve.fields))
	for _, f := range ve.fields {
		listed = append(listed, map[string]interface{}{"field": f.Field, "tag": f.Tag, "message": f.Message})
		parts = append(parts, f.Field+": "+f.Message)
	}
	return &APIError{
		Code:    errorCode,
		Message: strings.Join(parts, "; "),
		Details: map[string]interface{}{"fields": listed},
	}
}

// GetValidator returns the process-wide validator with the custom rules
// registered.
func GetValidator() *validator.Validate {
	sharedOnce.Do(func() {
		shared = validator.New(validator.WithRequiredStructEnabled())
		registerCustomValidators(shared)
	})
	return shared
}

// ValidateStruct checks s against its validate tags and returns nil when it
// passes.
func ValidateStruct(s interface{}) *RequestValidationError {
	err := GetValidator().Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		// InvalidValidationError: s was nil or not a struct.
		return &RequestValidationError{fields: []FieldError{{Field: "unknown", Tag: "unknown", Message: err.Error()}}}
	}

	out := make([]FieldError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Value:   fe.Value(),
			Message: describe(fe),
		})
	}
	return &RequestValidationError{fields: out}
}

// describe turns a rule failure into a sentence naming the field.
func describe(fe validator.FieldError) string {
	name, param := fe.Field(), fe.Param()
	unit := ""
	if fe.Kind().String() == "string" {
		unit = " characters"
	}

	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "account_handle":
		return name + " must be 3-24 characters of a-z, 0-9 or underscore"
	case "uuid":
		return name + " must be a valid UUID"
	case "url":
		return name + " must be a valid URL"
	case "datetime":
		return name + " must be a valid RFC3339 timestamp"
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", name, param)
	case "min":
		return fmt.Sprintf("%s must be at least %s%s", name, param, unit)
	case "max":
		return fmt.Sprintf("%s must be at most %s%s", name, param, unit)
	case "gte":
		return fmt.Sprintf("%s must be %s or more", name, param)
	case "lte":
		return fmt.Sprintf("%s must be %s or less", name, param)
	}
	return fmt.Sprintf("%s failed %s validation", name, fe.Tag())
}
