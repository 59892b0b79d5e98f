package ctxkeys

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTraceID_RoundTrip(t *testing.T) {
	ctx := WithTraceID(context.Background(), "trace-123")
	v, ok := TraceID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "trace-123", v)
}

func TestTraceID_MissingReturnsFalse(t *testing.T) {
	_, ok := TraceID(context.Background())
	assert.False(t, ok)
}

func TestSessionID_RoundTrip(t *testing.T) {
	ctx := WithSessionID(context.Background(), "sess-abc")
	v, ok := SessionID(ctx)
	assert.True(t, ok)
	assert.Equal(t, "sess-abc", v)
}

func TestMode_RoundTrip(t *testing.T) {
	ctx := WithMode(context.Background(), "accurate")
	v, ok := Mode(ctx)
	assert.True(t, ok)
	assert.Equal(t, "accurate", v)
}

func TestEmptyValueTreatedAsUnset(t *testing.T) {
	ctx := WithSessionID(context.Background(), "")
	_, ok := SessionID(ctx)
	assert.False(t, ok)
}
