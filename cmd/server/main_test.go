package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"paygate-be/internal/config"
	"paygate-be/internal/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type noopNotifier struct{}

func (noopNotifier) Send(ctx context.Context, chatID, text string) error { return nil }

func TestNewRouter(t *testing.T) {
	cfg := &config.Config{
		AppPort:         "3000",
		AppEnv:          "test",
		ClickServiceID:  "12345",
		ClickMerchantID: "777",
		ClickSecretKey:  "click-secret",
		PaymeMerchantID: "merchant-1",
		PaymeKey:        "payme-secret",
	}
	store := order.NewMemoryStore()
	router := newRouter(cfg, store, noopNotifier{})

	t.Run("health", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"ok":true`)
	})

	t.Run("order issuance", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest("GET", "/api/new-order", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"order_id":"0000001"`)
	})

	t.Run("click callback wired", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/click/callback", strings.NewReader("action=0"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code, "business errors never surface as HTTP errors")
		assert.Contains(t, w.Body.String(), `"error":-1`)
	})

	t.Run("payme wired on both paths", func(t *testing.T) {
		for _, path := range []string{"/payme", "/"} {
			req := httptest.NewRequest("POST", path, strings.NewReader(`{"method":"CheckTransaction","params":{"id":"x"},"id":1}`))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			assert.Contains(t, w.Body.String(), "-32504", "unauthenticated callers get the auth error on %s", path)
		}
	})

	t.Run("unknown POST keeps a JSON-RPC shape", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/definitely-not-a-route", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "-32601")
	})
}
