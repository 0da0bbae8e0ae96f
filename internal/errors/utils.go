package errors

import (
	"errors"
	"maps"
	"net/http"
)

// Wrap wraps an error with additional context, creating a PanelError if the input is not already one
func Wrap(err error, errType ErrorType, code, message string) *PanelError {
	if err == nil {
		return nil
	}

	// Preserve context and recoverability of an existing PanelError
	var pe *PanelError
	if errors.As(err, &pe) {
		return &PanelError{
			Type:        errType,
			Code:        code,
			Message:     message,
			Cause:       pe,
			Context:     maps.Clone(pe.Context),
			Component:   pe.Component,
			Recoverable: pe.Recoverable,
		}
	}

	return &PanelError{
		Type:        errType,
		Code:        code,
		Message:     message,
		Cause:       err,
		Recoverable: errType == ErrorTypeValidation || errType == ErrorTypeNetwork,
	}
}

// WrapValidation wraps an error as a validation error
func WrapValidation(err error, code, message string) *PanelError {
	return Wrap(err, ErrorTypeValidation, code, message)
}

// WrapNetwork wraps an error as a network error
func WrapNetwork(err error, code, message string) *PanelError {
	return Wrap(err, ErrorTypeNetwork, code, message)
}

// WrapInternal wraps an error as an internal, non-recoverable error
func WrapInternal(err error, code, message string) *PanelError {
	pe := Wrap(err, ErrorTypeInternal, code, message)
	if pe != nil {
		pe.Recoverable = false
	}
	return pe
}

// HTTPStatus maps an error to the status code the admin server responds with.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var fve *FieldValidationError
	var vec *ValidationErrorCollection
	if errors.As(err, &fve) || errors.As(err, &vec) {
		return http.StatusUnprocessableEntity
	}

	switch TypeOf(err) {
	case ErrorTypeValidation:
		return http.StatusUnprocessableEntity
	case ErrorTypeBounds:
		return http.StatusBadRequest
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeSecurity:
		return http.StatusForbidden
	case ErrorTypeNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorContext safely extracts context from an error
func GetErrorContext(err error) map[string]interface{} {
	var pe *PanelError
	if errors.As(err, &pe) && pe.Context != nil {
		return pe.Context
	}
	return make(map[string]interface{})
}
