package logger

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit(t *testing.T) {
	originalLog := log
	defer func() { log = originalLog }()

	t.Run("Production", func(t *testing.T) {
		Init("production")
		assert.NotNil(t, log)
	})

	t.Run("Development", func(t *testing.T) {
		Init("development")
		assert.NotNil(t, log)
	})
}

func TestL(t *testing.T) {
	originalLog := log
	defer func() { log = originalLog }()

	// L must lazily initialize from the environment
	log = nil
	os.Setenv("APP_ENV", "test")

	l := L()
	assert.NotNil(t, l)
	assert.NotNil(t, log)
}

func TestContextFunctions(t *testing.T) {
	ctx := context.Background()
	reqID := "test-request-id-123"

	t.Run("WithRequestID", func(t *testing.T) {
		newCtx := WithRequestID(ctx, reqID)
		assert.NotEqual(t, ctx, newCtx)
		assert.Equal(t, reqID, newCtx.Value(requestIDKey))
	})

	t.Run("RequestIDFrom", func(t *testing.T) {
		ctxWithID := WithRequestID(ctx, reqID)
		assert.Equal(t, reqID, RequestIDFrom(ctxWithID))

		// a context that never passed through the middleware
		assert.Equal(t, "", RequestIDFrom(ctx))
	})
}

func TestFromCtx(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	obsLogger := zap.New(core)

	originalLog := log
	log = obsLogger
	defer func() { log = originalLog }()

	t.Run("WithRequestID", func(t *testing.T) {
		reqID := "req-abc-123"
		ctx := WithRequestID(context.Background(), reqID)

		FromCtx(ctx).Info("test message with id")

		logs := observed.TakeAll()
		assert.Len(t, logs, 1)
		assert.Equal(t, "test message with id", logs[0].Message)
		assert.Equal(t, reqID, logs[0].ContextMap()["request_id"])
	})

	t.Run("WithoutRequestID", func(t *testing.T) {
		FromCtx(context.Background()).Info("test message without id")

		logs := observed.TakeAll()
		assert.Len(t, logs, 1)
		assert.Equal(t, "test message without id", logs[0].Message)

		_, ok := logs[0].ContextMap()["request_id"]
		assert.False(t, ok, "no request_id field without the middleware")
	})
}

func TestSync(t *testing.T) {
	assert.NotPanics(t, func() {
		Sync()
	})
}

func TestRequestIDMiddleware(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, RequestIDFrom(r.Context()), "id must reach the handler context")
	})

	handler := RequestIDMiddleware(nextHandler)

	t.Run("Generates ID when missing", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
	})

	t.Run("Preserves existing ID", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/test", nil)
		existingID := "test-id-123"
		req.Header.Set("X-Request-ID", existingID)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		assert.Equal(t, existingID, w.Header().Get("X-Request-ID"))
	})
}

func TestLoggingMiddleware(t *testing.T) {
	core, observed := observer.New(zapcore.InfoLevel)
	obsLogger := zap.New(core)

	originalLog := log
	log = obsLogger
	defer func() { log = originalLog }()

	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	handler := LoggingMiddleware(nextHandler)
	req := httptest.NewRequest("GET", "/test", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	logs := observed.TakeAll()
	assert.Len(t, logs, 1)
	assert.Equal(t, "incoming request", logs[0].Message)
	assert.Equal(t, "/test", logs[0].ContextMap()["path"])
	assert.Equal(t, int64(http.StatusOK), logs[0].ContextMap()["status"])
}
