package logging

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// assertFieldExists checks that a string field with the given key and value
// is present.
func assertFieldExists(t *testing.T, fields []zapcore.Field, key, want string) {
	t.Helper()
	for _, field := range fields {
		if field.Key == key {
			assert.Equal(t, want, field.String)
			return
		}
	}
	t.Errorf("field %q not found", key)
}

func TestContextFields_Empty(t *testing.T) {
	fields := ContextFields(context.Background())
	assert.Empty(t, fields)
}

func TestContextFields_SessionAndRequest(t *testing.T) {
	ctx := WithSessionID(context.Background(), "abc-123")
	ctx = WithRequestID(ctx, "req_1")

	fields := ContextFields(ctx)
	require.Len(t, fields, 2)
	assertFieldExists(t, fields, "session.id", "abc-123")
	assertFieldExists(t, fields, "request.id", "req_1")
}

func TestWithSessionID_Validation(t *testing.T) {
	tests := []struct {
		name string
		id   string
	}{
		{"empty", ""},
		{"shell injection", "sess; rm -rf /"},
		{"newline", "sess\nmalicious"},
		{"too long", strings.Repeat("a", 200)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Panics(t, func() {
				WithSessionID(context.Background(), tt.id)
			})
		})
	}
}

func TestWithRequestID_AcceptsUUIDs(t *testing.T) {
	assert.NotPanics(t, func() {
		WithRequestID(context.Background(), "550e8400-e29b-41d4-a716-446655440000")
	})
}

func TestSessionIDFromContext_Missing(t *testing.T) {
	assert.Empty(t, SessionIDFromContext(context.Background()))
	assert.Empty(t, RequestIDFromContext(context.Background()))
}

func TestFromContext(t *testing.T) {
	t.Run("returns stored logger", func(t *testing.T) {
		logger := NewNop()
		ctx := WithLogger(context.Background(), logger)
		assert.Same(t, logger, FromContext(ctx))
	})

	t.Run("returns nop when missing", func(t *testing.T) {
		logger := FromContext(context.Background())
		require.NotNil(t, logger)
		// Usable without panics.
		logger.Info(context.Background(), "no-op", zap.String("k", "v"))
	})
}
