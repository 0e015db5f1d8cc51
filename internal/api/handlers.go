package api

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"paygate-be/internal/click"
	"paygate-be/internal/config"
	"paygate-be/internal/logger"
	"paygate-be/internal/metrics"
	"paygate-be/internal/order"
	"paygate-be/internal/payme"

	"go.uber.org/zap"
)

// Handler serves the public helper API: order issuance and checkout-URL
// construction. These endpoints front the checkout flow; the callback
// handlers own everything after the redirect.
type Handler struct {
	store      order.Store
	cfg        *config.Config
	clickStats *metrics.GatewayStats
	paymeStats *metrics.GatewayStats
}

func NewHandler(store order.Store, cfg *config.Config, clickStats, paymeStats *metrics.GatewayStats) *Handler {
	return &Handler{
		store:      store,
		cfg:        cfg,
		clickStats: clickStats,
		paymeStats: paymeStats,
	}
}

// Health answers GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]interface{}{
		"ok":    true,
		"ts":    time.Now().UnixMilli(),
		"click": h.clickStats.Snapshot(),
		"payme": h.paymeStats.Snapshot(),
	})
}

// NewOrder answers GET /api/new-order. The optional chat_id and deliver_url
// query parameters become the success-notification target.
func (h *Handler) NewOrder(w http.ResponseWriter, r *http.Request) {
	id := h.store.NextID()
	o, err := h.store.Create(id, 0, r.URL.Query().Get("chat_id"), r.URL.Query().Get("deliver_url"))
	if err != nil {
		logger.FromCtx(r.Context()).Error("order issuance failed", zap.Error(err))
		writeJSON(w, map[string]string{"error": "could not create order"})
		return
	}

	logger.FromCtx(r.Context()).Info("order issued", zap.String("order_id", o.ID))
	writeJSON(w, map[string]string{"order_id": o.ID})
}

// CheckoutURL answers GET /api/checkout-url with a Payme checkout link.
// The amount query parameter is in minor units.
func (h *Handler) CheckoutURL(w http.ResponseWriter, r *http.Request) {
	orderID, amount, ok := h.orderAndAmount(w, r)
	if !ok {
		return
	}

	url := payme.BuildCheckoutURL(payme.CheckoutParams{
		MerchantID:  h.cfg.PaymeMerchantID,
		OrderID:     orderID,
		Amount:      amount,
		Lang:        "uz",
		CallbackURL: h.cfg.CallbackReturnURL,
		CurrencyISO: "UZS",
		Description: "To'lov",
	})
	writeJSON(w, map[string]string{"url": url})
}

// ClickURL answers GET /api/click-url with a Click redirect link.
func (h *Handler) ClickURL(w http.ResponseWriter, r *http.Request) {
	orderID, amount, ok := h.orderAndAmount(w, r)
	if !ok {
		return
	}

	url := click.BuildRedirectURL(click.RedirectConfig{
		ServiceID:      h.cfg.ClickServiceID,
		MerchantID:     h.cfg.ClickMerchantID,
		MerchantUserID: h.cfg.ClickMerchantUserID,
		ReturnURL:      h.cfg.ClickReturnURL,
	}, orderID, amount)
	writeJSON(w, map[string]string{"url": url})
}

// orderAndAmount validates the shared query parameters and pins the amount
// on the order. Writes the error response itself when validation fails.
func (h *Handler) orderAndAmount(w http.ResponseWriter, r *http.Request) (string, int64, bool) {
	q := r.URL.Query()
	orderID := q.Get("order_id")
	amount, err := strconv.ParseInt(q.Get("amount"), 10, 64)
	if orderID == "" || err != nil || amount <= 0 {
		writeJSON(w, map[string]string{"error": "order_id and amount (minor units) are required"})
		return "", 0, false
	}

	if _, err := h.store.SetAmount(orderID, amount); err != nil {
		switch err {
		case order.ErrNotFound:
			writeJSON(w, map[string]string{"error": "order not found"})
		default:
			writeJSON(w, map[string]string{"error": "amount can no longer be changed"})
		}
		return "", 0, false
	}
	return orderID, amount, true
}

// NotFound keeps POST fallbacks JSON-RPC shaped so gateway probes never see
// an HTML error page.
func NotFound(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"error": map[string]interface{}{
				"code":    -32601,
				"message": map[string]string{"uz": "Noto'g'ri endpoint"},
			},
			"id": nil,
		})
		return
	}
	http.NotFound(w, r)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L().Error("failed to encode response", zap.Error(err))
	}
}
