// Package errors provides the structured error type shared by every sitepanel
// package. Errors carry a category, a stable code and optional context so the
// HTTP layer can map them to status codes and the CLI can print them, while
// package-level sentinels stay matchable with the standard errors.Is.
package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeBounds     ErrorType = "bounds"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeSecurity   ErrorType = "security"
	ErrorTypeInternal   ErrorType = "internal"
)

// PanelError is a structured error type with context.
type PanelError struct {
	Type        ErrorType
	Code        string
	Message     string
	Cause       error
	Context     map[string]interface{}
	Component   string
	Recoverable bool
}

// Error implements the error interface.
func (e *PanelError) Error() string {
	var parts []string

	if e.Code != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.Code))
	}

	if e.Component != "" {
		parts = append(parts, "component:"+e.Component)
	}

	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")

	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Unwrap returns the underlying cause error.
func (e *PanelError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is a PanelError of the same type and code.
// Messages and context are ignored, so a bare sentinel such as
// &PanelError{Type: ErrorTypeBounds, Code: ErrCodeIndexOutOfRange} matches
// every error raised with that code.
func (e *PanelError) Is(target error) bool {
	var t *PanelError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.Code == t.Code
	}

	return false
}

// WithContext adds context information to the error.
func (e *PanelError) WithContext(key string, value interface{}) *PanelError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// WithComponent adds component context.
func (e *PanelError) WithComponent(component string) *PanelError {
	e.Component = component

	return e
}

// Error creation functions

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *PanelError {
	return &PanelError{
		Type:        ErrorTypeValidation,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewBoundsError creates an index or range error.
func NewBoundsError(code, message string) *PanelError {
	return &PanelError{
		Type:    ErrorTypeBounds,
		Code:    code,
		Message: message,
	}
}

// NewNotFoundError creates a not-found error.
func NewNotFoundError(code, message string) *PanelError {
	return &PanelError{
		Type:        ErrorTypeNotFound,
		Code:        code,
		Message:     message,
		Recoverable: true,
	}
}

// NewNetworkError creates a network error.
func NewNetworkError(code, message string, cause error) *PanelError {
	return &PanelError{
		Type:        ErrorTypeNetwork,
		Code:        code,
		Message:     message,
		Cause:       cause,
		Recoverable: true,
	}
}

// NewSecurityError creates a security error.
func NewSecurityError(code, message string) *PanelError {
	return &PanelError{
		Type:    ErrorTypeSecurity,
		Code:    code,
		Message: message,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(code, message string) *PanelError {
	return &PanelError{
		Type:    ErrorTypeConfig,
		Code:    code,
		Message: message,
	}
}

// NewInternalError creates an internal error.
func NewInternalError(code, message string, cause error) *PanelError {
	return &PanelError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// IsRecoverable checks if an error is recoverable.
func IsRecoverable(err error) bool {
	var pe *PanelError
	if errors.As(err, &pe) {
		return pe.Recoverable
	}

	return false
}

// TypeOf returns the category of err, or ErrorTypeInternal for foreign errors.
func TypeOf(err error) ErrorType {
	var pe *PanelError
	if errors.As(err, &pe) {
		return pe.Type
	}

	return ErrorTypeInternal
}

// ErrorHandler provides centralized error handling.
type ErrorHandler struct {
	logger Logger
}

// Logger interface for error logging.
type Logger interface {
	Error(ctx context.Context, err error, msg string, fields ...interface{})
	Warn(ctx context.Context, err error, msg string, fields ...interface{})
}

// NewErrorHandler creates a new error handler.
func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Handle logs err at a level chosen from its category.
func (h *ErrorHandler) Handle(ctx context.Context, err error) {
	if err == nil || h.logger == nil {
		return
	}

	var pe *PanelError
	if !errors.As(err, &pe) {
		h.logger.Error(ctx, err, "Unhandled error occurred")
		return
	}

	switch pe.Type {
	case ErrorTypeValidation, ErrorTypeBounds, ErrorTypeNotFound:
		h.logger.Warn(ctx, err, "Request rejected",
			"type", pe.Type,
			"code", pe.Code,
			"component", pe.Component)
	case ErrorTypeNetwork:
		h.logger.Warn(ctx, err, "Backend call failed",
			"type", pe.Type,
			"code", pe.Code,
			"component", pe.Component)
	default:
		h.logger.Error(ctx, err, "Error occurred",
			"type", pe.Type,
			"code", pe.Code,
			"component", pe.Component)
	}
}

// Common error codes.
const (
	ErrCodeInvalidArgument  = "ERR_INVALID_ARGUMENT"
	ErrCodeIndexOutOfRange  = "ERR_INDEX_OUT_OF_RANGE"
	ErrCodeNotFound         = "ERR_NOT_FOUND"
	ErrCodeBackendStatus    = "ERR_BACKEND_STATUS"
	ErrCodeBackendRequest   = "ERR_BACKEND_REQUEST"
	ErrCodeBackendDecode    = "ERR_BACKEND_DECODE"
	ErrCodeInvalidOrigin    = "ERR_INVALID_ORIGIN"
	ErrCodeUnsafeContent    = "ERR_UNSAFE_CONTENT"
	ErrCodeConfigInvalid    = "ERR_CONFIG_INVALID"
	ErrCodeInternalError    = "ERR_INTERNAL"
	ErrCodeValidationFailed = "ERR_VALIDATION_FAILED"
	ErrCodeRateLimited      = "ERR_RATE_LIMITED"
	ErrCodePanic            = "ERR_PANIC"
)

// ValidationError interface for field-specific validation errors.
type ValidationError interface {
	error
	Field() string
	Value() interface{}
	Suggestions() []string
}

// FieldValidationError implements ValidationError for specific field errors.
type FieldValidationError struct {
	FieldName    string
	FieldValue   interface{}
	ErrorMessage string
	HelpText     []string
}

// Error implements the error interface.
func (fve *FieldValidationError) Error() string {
	return fmt.Sprintf("validation error in field '%s': %s", fve.FieldName, fve.ErrorMessage)
}

// Field returns the field name that failed validation.
func (fve *FieldValidationError) Field() string {
	return fve.FieldName
}

// Value returns the invalid value.
func (fve *FieldValidationError) Value() interface{} {
	return fve.FieldValue
}

// Suggestions returns helpful suggestions for fixing the error.
func (fve *FieldValidationError) Suggestions() []string {
	return fve.HelpText
}

// NewFieldValidationError creates a new field validation error.
func NewFieldValidationError(
	field string,
	value interface{},
	message string,
	suggestions ...string,
) *FieldValidationError {
	return &FieldValidationError{
		FieldName:    field,
		FieldValue:   value,
		ErrorMessage: message,
		HelpText:     suggestions,
	}
}

// ValidationErrorCollection represents a collection of validation errors.
type ValidationErrorCollection struct {
	Errors []ValidationError
}

// Error implements the error interface.
func (vec *ValidationErrorCollection) Error() string {
	if len(vec.Errors) == 0 {
		return "no validation errors"
	}
	if len(vec.Errors) == 1 {
		return vec.Errors[0].Error()
	}

	return fmt.Sprintf("validation failed with %d errors", len(vec.Errors))
}

// Add adds a validation error to the collection.
func (vec *ValidationErrorCollection) Add(err ValidationError) {
	vec.Errors = append(vec.Errors, err)
}

// AddField adds a field validation error to the collection.
func (vec *ValidationErrorCollection) AddField(
	field string,
	value interface{},
	message string,
	suggestions ...string,
) {
	vec.Add(NewFieldValidationError(field, value, message, suggestions...))
}

// HasErrors returns true if there are any validation errors.
func (vec *ValidationErrorCollection) HasErrors() bool {
	return len(vec.Errors) > 0
}

// ToPanelError converts the validation collection to a PanelError.
func (vec *ValidationErrorCollection) ToPanelError() *PanelError {
	if !vec.HasErrors() {
		return nil
	}

	var messages []string
	context := make(map[string]interface{})

	for _, err := range vec.Errors {
		messages = append(messages, err.Error())
		context[err.Field()] = map[string]interface{}{
			"value":       err.Value(),
			"suggestions": err.Suggestions(),
		}
	}

	return &PanelError{
		Type:        ErrorTypeValidation,
		Code:        ErrCodeValidationFailed,
		Message:     strings.Join(messages, "; "),
		Context:     context,
		Recoverable: true,
	}
}
