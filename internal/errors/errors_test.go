package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPanelError_Error(t *testing.T) {
	err := NewValidationError(ErrCodeInvalidArgument, "negative length").WithComponent("view")
	assert.Equal(t, "[ERR_INVALID_ARGUMENT] component:view negative length", err.Error())

	wrapped := NewNetworkError(ErrCodeBackendRequest, "GET /sites", errors.New("connection refused"))
	assert.Equal(t, "[ERR_BACKEND_REQUEST] GET /sites: connection refused", wrapped.Error())
}

func TestPanelError_Is(t *testing.T) {
	sentinel := NewBoundsError(ErrCodeIndexOutOfRange, "index out of range")
	raised := NewBoundsError(ErrCodeIndexOutOfRange, "index out of bounds").WithContext("index", 7)

	assert.True(t, errors.Is(raised, sentinel))
	assert.True(t, errors.Is(fmt.Errorf("lookup: %w", raised), sentinel))
	assert.False(t, errors.Is(raised, NewValidationError(ErrCodeIndexOutOfRange, "")))
	assert.False(t, errors.Is(raised, NewBoundsError(ErrCodeInvalidArgument, "")))
}

func TestWrap(t *testing.T) {
	assert.Nil(t, Wrap(nil, ErrorTypeNetwork, ErrCodeBackendRequest, "x"))

	cause := errors.New("dial tcp: refused")
	pe := WrapNetwork(cause, ErrCodeBackendRequest, "fetch sites")
	require.NotNil(t, pe)
	assert.Equal(t, ErrorTypeNetwork, pe.Type)
	assert.True(t, pe.Recoverable)
	assert.ErrorIs(t, pe, cause)

	inner := NewValidationError(ErrCodeInvalidArgument, "bad").WithContext("field", "name")
	outer := WrapInternal(inner, ErrCodeInternalError, "unexpected")
	assert.False(t, outer.Recoverable)
	assert.Equal(t, "name", outer.Context["field"])
	assert.ErrorIs(t, outer, inner)
}

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: http.StatusOK},
		{name: "validation", err: NewValidationError(ErrCodeInvalidArgument, "x"), want: http.StatusUnprocessableEntity},
		{name: "bounds", err: NewBoundsError(ErrCodeIndexOutOfRange, "x"), want: http.StatusBadRequest},
		{name: "not found", err: NewNotFoundError(ErrCodeNotFound, "x"), want: http.StatusNotFound},
		{name: "network", err: NewNetworkError(ErrCodeBackendStatus, "x", nil), want: http.StatusBadGateway},
		{name: "security", err: NewSecurityError(ErrCodeInvalidOrigin, "x"), want: http.StatusForbidden},
		{name: "field", err: NewFieldValidationError("name", "", "required"), want: http.StatusUnprocessableEntity},
		{name: "foreign", err: errors.New("x"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestValidationErrorCollection(t *testing.T) {
	var vec ValidationErrorCollection
	assert.False(t, vec.HasErrors())
	assert.Nil(t, vec.ToPanelError())
	assert.Equal(t, "no validation errors", vec.Error())

	vec.AddField("title", "", "title is required", "enter a title")
	assert.Equal(t, "validation error in field 'title': title is required", vec.Error())

	vec.AddField("content", "<script>", "unsafe content")
	assert.Equal(t, "validation failed with 2 errors", vec.Error())

	pe := vec.ToPanelError()
	require.NotNil(t, pe)
	assert.Equal(t, ErrCodeValidationFailed, pe.Code)
	assert.Contains(t, pe.Context, "title")
	assert.Contains(t, pe.Context, "content")
}

type recordingLogger struct {
	warns  []string
	errors []string
}

func (r *recordingLogger) Warn(_ context.Context, _ error, msg string, _ ...interface{}) {
	r.warns = append(r.warns, msg)
}

func (r *recordingLogger) Error(_ context.Context, _ error, msg string, _ ...interface{}) {
	r.errors = append(r.errors, msg)
}

func TestErrorHandler(t *testing.T) {
	logger := &recordingLogger{}
	h := NewErrorHandler(logger)
	ctx := context.Background()

	h.Handle(ctx, nil)
	h.Handle(ctx, NewValidationError(ErrCodeInvalidArgument, "x"))
	h.Handle(ctx, NewNetworkError(ErrCodeBackendStatus, "x", nil))
	h.Handle(ctx, NewInternalError(ErrCodeInternalError, "x", nil))
	h.Handle(ctx, errors.New("plain"))

	assert.Equal(t, []string{"Request rejected", "Backend call failed"}, logger.warns)
	assert.Equal(t, []string{"Error occurred", "Unhandled error occurred"}, logger.errors)
}
