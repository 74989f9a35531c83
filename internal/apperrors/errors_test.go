package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name         string
		err          *AppError
		expectedKind Kind
		expectedCode int
	}{
		{name: "Validation", err: Validation("bad input"), expectedKind: KindValidation, expectedCode: http.StatusBadRequest},
		{name: "Conflict", err: Conflict("already running"), expectedKind: KindConflict, expectedCode: http.StatusBadRequest},
		{name: "FeatureDisabled", err: FeatureDisabled("off"), expectedKind: KindFeatureDisabled, expectedCode: http.StatusForbidden},
		{name: "Forbidden", err: Forbidden("no"), expectedKind: KindForbidden, expectedCode: http.StatusForbidden},
		{name: "NotFound", err: NotFound("gone"), expectedKind: KindNotFound, expectedCode: http.StatusNotFound},
		{name: "Internal", err: Internal(errors.New("boom")), expectedKind: KindInternal, expectedCode: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expectedKind, tt.err.Kind)
			assert.Equal(t, tt.expectedCode, tt.err.Code)
		})
	}
}

func TestFrom(t *testing.T) {
	t.Run("AppError passes through", func(t *testing.T) {
		original := NotFound("gone")
		assert.Same(t, original, From(original))
	})

	t.Run("Wrapped AppError is unwrapped", func(t *testing.T) {
		original := Validation("bad")
		wrapped := fmt.Errorf("outer: %w", original)
		assert.Same(t, original, From(wrapped))
	})

	t.Run("Unknown error becomes internal", func(t *testing.T) {
		appErr := From(errors.New("boom"))
		assert.Equal(t, KindInternal, appErr.Kind)
		assert.Equal(t, "internal server error", appErr.Message)
	})
}

func TestIsKind(t *testing.T) {
	err := Forbidden("no")
	assert.True(t, IsKind(err, KindForbidden))
	assert.False(t, IsKind(err, KindNotFound))
	assert.False(t, IsKind(errors.New("plain"), KindForbidden))
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "gone", NotFound("gone").Error())
	assert.Equal(t, "internal server error: boom", Internal(errors.New("boom")).Error())
}
