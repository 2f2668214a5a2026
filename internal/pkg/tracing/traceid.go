package tracing

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"
)

var fallbackCounter atomic.Uint64

// GenerateTraceID возвращает 32 hex-символа (128 бит), совместимые с OTel trace ID.
// При недоступности crypto/rand ID собирается из времени и счётчика.
func GenerateTraceID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%016x%016x", uint64(time.Now().UnixNano()), fallbackCounter.Add(1))
	}
	return hex.EncodeToString(b)
}

type traceIDKey struct{}

// WithTraceID сохраняет trace ID в контексте.
func WithTraceID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, id)
}

// TraceIDFromContext возвращает trace ID из контекста или пустую строку.
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(traceIDKey{}).(string)
	return id
}
