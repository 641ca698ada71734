package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorFormatting(t *testing.T) {
	err := ConfigError("missing connection string", nil)
	assert.Equal(t, "[ERR_100_CONFIG_INVALID] missing connection string", err.Error())
	assert.Equal(t, CategoryConfig, err.Category)
	assert.False(t, err.Retryable)
}

func TestCategoryFromCode(t *testing.T) {
	tests := []struct {
		code string
		want Category
	}{
		{ErrCodeConfigInvalid, CategoryConfig},
		{ErrCodeBackendUnknown, CategoryConfig},
		{ErrCodeStoreIO, CategoryStore},
		{ErrCodeLoaderFailed, CategoryLoader},
		{ErrCodeChunkingFailed, CategoryChunking},
		{ErrCodeQueryFailed, CategoryQuery},
		{ErrCodeInternal, CategoryInternal},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.code, "x", nil).Category)
		})
	}
}

func TestWrappingAndIs(t *testing.T) {
	cause := errors.New("connection refused")
	err := StoreError("fetch indexed data", cause)

	assert.True(t, errors.Is(err, cause))
	assert.True(t, errors.Is(err, &Error{Code: ErrCodeStoreIO}))
	assert.False(t, errors.Is(err, &Error{Code: ErrCodeQueryFailed}))
	assert.True(t, err.Retryable)

	wrapped := fmt.Errorf("index run: %w", err)
	got := AsError(wrapped)
	require.NotNil(t, got)
	assert.Equal(t, ErrCodeStoreIO, got.Code)
}

func TestAsErrorPlain(t *testing.T) {
	got := AsError(errors.New("boom"))
	require.NotNil(t, got)
	assert.Equal(t, ErrCodeInternal, got.Code)
	assert.Nil(t, AsError(nil))
}

func TestWithSuggestion(t *testing.T) {
	err := BackendError("unknown backend \"qdrant\"").
		WithSuggestion("valid backends: pgvector, local")
	assert.Equal(t, "valid backends: pgvector, local", err.Suggestion)
}
