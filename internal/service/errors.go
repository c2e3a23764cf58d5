package service

import (
	"errors"
	"fmt"
)

const (
	CodeValidation = "VALIDATION_ERROR"
	CodeNotFound   = "NOT_FOUND"
	CodeForbidden  = "FORBIDDEN"
	CodeConflict   = "CONFLICT"
	CodeInternal   = "INTERNAL"
)

type BusinessError struct {
	Code    string
	Message string
	Details map[string]any
	Err     error
}

type Detail struct {
	Key     string
	Payload any
}

// FieldError names the offending field and the constraint it broke.
type FieldError struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
}

func (b *BusinessError) Error() string {
	if b.Err != nil {
		return fmt.Sprintf("[%s] %s: %s", b.Code, b.Message, b.Err.Error())
	}
	return fmt.Sprintf("[%s] %s", b.Code, b.Message)
}

func (b *BusinessError) Unwrap() error {
	return b.Err
}

func ToDetail(key string, payload any) Detail {
	return Detail{
		Key:     key,
		Payload: payload,
	}
}

func NewBusinessError(code string, message string, details ...Detail) *BusinessError {
	busErr := &BusinessError{
		Code:    code,
		Message: message,
		Details: make(map[string]any),
	}

	for _, detail := range details {
		busErr.Details[detail.Key] = detail.Payload
	}

	return busErr
}

func NewNotFound(resource string, id string) *BusinessError {
	return NewBusinessError(CodeNotFound, fmt.Sprintf("%s %s not found", resource, id),
		ToDetail("resource", resource),
		ToDetail("id", id),
	)
}

func NewValidationError(field, reason string) *BusinessError {
	return NewValidationErrors([]FieldError{{Field: field, Constraint: reason}})
}

func NewValidationErrors(fields []FieldError) *BusinessError {
	msg := "invalid input"
	if len(fields) == 1 {
		msg = fmt.Sprintf("invalid value of field '%s': %s", fields[0].Field, fields[0].Constraint)
	}
	return NewBusinessError(CodeValidation, msg, ToDetail("fields", fields))
}

func NewForbidden(action string) *BusinessError {
	return NewBusinessError(CodeForbidden, fmt.Sprintf("not allowed to %s", action),
		ToDetail("action", action),
	)
}

func NewConflict(message string, details ...Detail) *BusinessError {
	return NewBusinessError(CodeConflict, message, details...)
}

// NewInternal hides the cause from the message; callers log it.
func NewInternal(operation string, err error) *BusinessError {
	return &BusinessError{
		Code:    CodeInternal,
		Message: "internal failure",
		Details: map[string]any{"operation": operation},
		Err:     err,
	}
}

// IsCode reports whether err is a BusinessError with the given code.
func IsCode(err error, code string) bool {
	var be *BusinessError
	return errors.As(err, &be) && be.Code == code
}
