package api

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"paygate-be/internal/config"
	"paygate-be/internal/metrics"
	"paygate-be/internal/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler() (*Handler, order.Store) {
	store := order.NewMemoryStore()
	cfg := &config.Config{
		ClickServiceID:  "12345",
		ClickMerchantID: "777",
		PaymeMerchantID: "merchant-1",
	}
	return NewHandler(store, cfg, &metrics.GatewayStats{}, &metrics.GatewayStats{}), store
}

func getJSON(h func(w *httptest.ResponseRecorder)) map[string]interface{} {
	w := httptest.NewRecorder()
	h(w)
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		panic(err)
	}
	return body
}

func TestNewOrder(t *testing.T) {
	h, store := newTestHandler()

	body := getJSON(func(w *httptest.ResponseRecorder) {
		h.NewOrder(w, httptest.NewRequest("GET", "/api/new-order?chat_id=chat-1&deliver_url=https://example.com/f", nil))
	})
	assert.Equal(t, "0000001", body["order_id"])

	o, err := store.Get("0000001")
	require.NoError(t, err)
	assert.Equal(t, order.StateNew, o.State)
	assert.Zero(t, o.Amount)
	assert.Equal(t, "chat-1", o.ChatID)
	assert.Equal(t, "https://example.com/f", o.DeliverURL)

	body = getJSON(func(w *httptest.ResponseRecorder) {
		h.NewOrder(w, httptest.NewRequest("GET", "/api/new-order", nil))
	})
	assert.Equal(t, "0000002", body["order_id"], "ids are issued monotonically")
}

func TestCheckoutURL(t *testing.T) {
	h, store := newTestHandler()
	_, err := store.Create("0000001", 0, "", "")
	require.NoError(t, err)

	t.Run("success pins the amount", func(t *testing.T) {
		body := getJSON(func(w *httptest.ResponseRecorder) {
			h.CheckoutURL(w, httptest.NewRequest("GET", "/api/checkout-url?order_id=0000001&amount=150000", nil))
		})
		assert.Contains(t, body["url"], "https://checkout.paycom.uz/")

		o, _ := store.Get("0000001")
		assert.Equal(t, int64(150000), o.Amount)
	})

	t.Run("missing params", func(t *testing.T) {
		body := getJSON(func(w *httptest.ResponseRecorder) {
			h.CheckoutURL(w, httptest.NewRequest("GET", "/api/checkout-url?order_id=0000001", nil))
		})
		assert.NotEmpty(t, body["error"])
	})

	t.Run("unknown order", func(t *testing.T) {
		body := getJSON(func(w *httptest.ResponseRecorder) {
			h.CheckoutURL(w, httptest.NewRequest("GET", "/api/checkout-url?order_id=7777777&amount=100", nil))
		})
		assert.Equal(t, "order not found", body["error"])
	})

	t.Run("amount frozen after create", func(t *testing.T) {
		_, err := store.Apply("0000001", order.Transition{To: order.StateCreated, Time: 1})
		require.NoError(t, err)

		body := getJSON(func(w *httptest.ResponseRecorder) {
			h.CheckoutURL(w, httptest.NewRequest("GET", "/api/checkout-url?order_id=0000001&amount=999", nil))
		})
		assert.NotEmpty(t, body["error"])

		o, _ := store.Get("0000001")
		assert.Equal(t, int64(150000), o.Amount)
	})
}

func TestClickURL(t *testing.T) {
	h, store := newTestHandler()
	_, err := store.Create("0000001", 0, "", "")
	require.NoError(t, err)

	body := getJSON(func(w *httptest.ResponseRecorder) {
		h.ClickURL(w, httptest.NewRequest("GET", "/api/click-url?order_id=0000001&amount=150000", nil))
	})
	assert.Contains(t, body["url"], "https://my.click.uz/services/pay")
	assert.Contains(t, body["url"], "amount=1500.00")

	o, _ := store.Get("0000001")
	assert.Equal(t, int64(150000), o.Amount)
}

func TestHealth(t *testing.T) {
	h, _ := newTestHandler()

	body := getJSON(func(w *httptest.ResponseRecorder) {
		h.Health(w, httptest.NewRequest("GET", "/health", nil))
	})
	assert.Equal(t, true, body["ok"])
	assert.NotZero(t, body["ts"])
	assert.Contains(t, body, "click")
	assert.Contains(t, body, "payme")
}

func TestNotFound(t *testing.T) {
	t.Run("POST gets a JSON-RPC body", func(t *testing.T) {
		w := httptest.NewRecorder()
		NotFound(w, httptest.NewRequest("POST", "/nope", nil))

		assert.Equal(t, 404, w.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.Equal(t, "2.0", body["jsonrpc"])
	})

	t.Run("GET gets plain 404", func(t *testing.T) {
		w := httptest.NewRecorder()
		NotFound(w, httptest.NewRequest("GET", "/nope", nil))
		assert.Equal(t, 404, w.Code)
	})
}
