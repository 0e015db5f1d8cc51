package click

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"paygate-be/internal/logger"
	"paygate-be/internal/metrics"
	"paygate-be/internal/notify"
	"paygate-be/internal/order"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Click callback error codes. The gateway always receives HTTP 200 with one
// of these embedded; a non-zero code tells it to retry or give up.
const (
	codeSuccess       = 0
	codeSignFailed    = -1
	codeWrongAmount   = -2
	codeUnknownAction = -3
	codeAlreadyPaid   = -4
	codeNotFound      = -5
	codeTxNotFound    = -6
	codeCanceled      = -9
)

const (
	actionPrepare  = "0"
	actionComplete = "1"
)

var requiredFields = []string{
	"click_trans_id", "service_id", "merchant_trans_id",
	"amount", "action", "sign_time", "sign_string",
}

// Response is the JSON body Click expects back from both callback phases.
type Response struct {
	ClickTransID      string `json:"click_trans_id,omitempty"`
	MerchantTransID   string `json:"merchant_trans_id,omitempty"`
	MerchantPrepareID string `json:"merchant_prepare_id,omitempty"`
	MerchantConfirmID string `json:"merchant_confirm_id,omitempty"`
	Error             int    `json:"error"`
	ErrorNote         string `json:"error_note"`
}

// Handler reconciles Click's two-phase (prepare/complete) callbacks against
// the order store.
type Handler struct {
	store      order.Store
	dispatcher *notify.Dispatcher
	secretKey  string
	stats      *metrics.GatewayStats
}

func NewHandler(store order.Store, dispatcher *notify.Dispatcher, secretKey string, stats *metrics.GatewayStats) *Handler {
	return &Handler{
		store:      store,
		dispatcher: dispatcher,
		secretKey:  secretKey,
		stats:      stats,
	}
}

// Callback handles POST /click/callback (form-encoded).
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	h.stats.Received.Inc()

	if err := r.ParseForm(); err != nil {
		h.fail(w, r, Response{Error: codeSignFailed, ErrorNote: "Malformed request body"})
		return
	}
	for _, f := range requiredFields {
		if !r.PostForm.Has(f) {
			h.fail(w, r, Response{Error: codeSignFailed, ErrorNote: "Missing field: " + f})
			return
		}
	}

	p := r.PostForm
	orderID := p.Get("merchant_trans_id")
	log := logger.FromCtx(r.Context()).With(
		zap.String("gateway", "click"),
		zap.String("order_id", orderID),
		zap.String("action", p.Get("action")),
	)

	o, err := h.store.Get(orderID)
	if err != nil {
		log.Info("click callback for unknown order")
		h.fail(w, r, Response{Error: codeNotFound, ErrorNote: "Order not found"})
		return
	}

	switch p.Get("action") {
	case actionPrepare:
		h.prepare(w, r, o, log)
	case actionComplete:
		h.complete(w, r, o, log)
	default:
		h.fail(w, r, Response{Error: codeUnknownAction, ErrorNote: "Unknown action"})
	}
}

func (h *Handler) prepare(w http.ResponseWriter, r *http.Request, o order.Order, log *zap.Logger) {
	p := r.PostForm

	expected := SignPrepare(
		p.Get("click_trans_id"), p.Get("service_id"), h.secretKey,
		p.Get("merchant_trans_id"), p.Get("amount"), p.Get("action"), p.Get("sign_time"),
	)
	if !VerifySign(expected, p.Get("sign_string")) {
		log.Info("click prepare sign mismatch")
		h.fail(w, r, Response{Error: codeSignFailed, ErrorNote: "Invalid sign (prepare)"})
		return
	}

	if !amountMatches(o.Amount, p.Get("amount")) {
		log.Info("click prepare amount mismatch",
			zap.Int64("expected_minor", o.Amount),
			zap.String("got", p.Get("amount")),
		)
		h.fail(w, r, Response{Error: codeWrongAmount, ErrorNote: "Incorrect amount"})
		return
	}

	_, err := h.store.Apply(o.ID, order.Transition{To: order.StateCreated, Time: nowMillis()})
	if err != nil {
		// created was foreclosed: the order already reached a terminal state
		switch o.State {
		case order.StatePerformed:
			h.fail(w, r, Response{Error: codeAlreadyPaid, ErrorNote: "Already paid"})
		default:
			h.fail(w, r, Response{Error: codeCanceled, ErrorNote: "Payment canceled"})
		}
		return
	}

	log.Info("click prepare accepted")
	h.ok(w, r, Response{
		ClickTransID:      p.Get("click_trans_id"),
		MerchantTransID:   o.ID,
		MerchantPrepareID: o.ID,
		Error:             codeSuccess,
		ErrorNote:         "Success",
	})
}

func (h *Handler) complete(w http.ResponseWriter, r *http.Request, o order.Order, log *zap.Logger) {
	p := r.PostForm

	if !p.Has("merchant_prepare_id") {
		h.fail(w, r, Response{Error: codeSignFailed, ErrorNote: "Missing field: merchant_prepare_id"})
		return
	}

	expected := SignComplete(
		p.Get("click_trans_id"), p.Get("service_id"), h.secretKey,
		p.Get("merchant_trans_id"), p.Get("merchant_prepare_id"),
		p.Get("amount"), p.Get("action"), p.Get("sign_time"),
	)
	if !VerifySign(expected, p.Get("sign_string")) {
		log.Info("click complete sign mismatch")
		h.fail(w, r, Response{Error: codeSignFailed, ErrorNote: "Invalid sign (complete)"})
		return
	}

	// the gateway reports its own outcome in the error field
	if strings.TrimSpace(p.Get("error")) == "0" {
		h.completeSuccess(w, r, o, log)
		return
	}

	// payment failed on the gateway side. Click has no refund flow, so a
	// late failure never demotes an order that already performed; the
	// cancel transition only applies before that point.
	if cur, err := h.store.Get(o.ID); err == nil && cur.State == order.StatePerformed {
		log.Info("click complete failure ignored, payment already performed")
	} else if _, err := h.store.Apply(o.ID, order.Transition{To: order.StateCanceled, Time: nowMillis()}); err != nil {
		log.Info("click complete failure ignored, order already terminal", zap.String("state", string(o.State)))
	}
	h.fail(w, r, Response{
		ClickTransID:      p.Get("click_trans_id"),
		MerchantTransID:   o.ID,
		MerchantConfirmID: o.ID,
		Error:             codeCanceled,
		ErrorNote:         "Payment canceled",
	})
}

func (h *Handler) completeSuccess(w http.ResponseWriter, r *http.Request, o order.Order, log *zap.Logger) {
	p := r.PostForm

	res, err := h.store.Apply(o.ID, order.Transition{To: order.StatePerformed, Time: nowMillis()})
	if err != nil {
		switch {
		case o.State == order.StateCanceled:
			h.fail(w, r, Response{Error: codeCanceled, ErrorNote: "Payment canceled"})
		default:
			// complete without a successful prepare
			h.fail(w, r, Response{Error: codeTxNotFound, ErrorNote: "Transaction does not exist"})
		}
		return
	}

	log.Info("click payment performed", zap.Int64("perform_time", res.PerformTime))
	h.dispatcher.PaymentConfirmed(r.Context(), res)

	h.ok(w, r, Response{
		ClickTransID:      p.Get("click_trans_id"),
		MerchantTransID:   o.ID,
		MerchantConfirmID: o.ID,
		Error:             codeSuccess,
		ErrorNote:         "Success",
	})
}

// amountMatches compares the stored minor-unit amount with the major-unit
// decimal string Click transmits ("1500.00" for 150000 tiyin), rounding both
// to whole soums the way the gateway does.
func amountMatches(minor int64, gatewayAmount string) bool {
	got, err := decimal.NewFromString(strings.TrimSpace(gatewayAmount))
	if err != nil {
		return false
	}
	want := decimal.NewFromInt(minor).Shift(-2)
	return got.Round(0).Equal(want.Round(0))
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

func (h *Handler) ok(w http.ResponseWriter, r *http.Request, res Response) {
	h.stats.Succeeded.Inc()
	writeJSON(w, res)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, res Response) {
	h.stats.Failed.Inc()
	writeJSON(w, res)
}

// writeJSON always answers 200: Click treats HTTP errors as ambiguous and
// retries, so failures travel in the error field instead.
func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.L().Error("failed to encode click response", zap.Error(err))
	}
}
