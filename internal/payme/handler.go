package payme

import (
	"encoding/json"
	"net/http"
	"time"

	"paygate-be/internal/logger"
	"paygate-be/internal/metrics"
	"paygate-be/internal/notify"
	"paygate-be/internal/order"

	"go.uber.org/zap"
)

// Handler serves Payme's merchant API: a single JSON-RPC endpoint whose five
// methods drive the order lifecycle.
type Handler struct {
	store      order.Store
	dispatcher *notify.Dispatcher
	key        string
	stats      *metrics.GatewayStats
}

func NewHandler(store order.Store, dispatcher *notify.Dispatcher, key string, stats *metrics.GatewayStats) *Handler {
	return &Handler{
		store:      store,
		dispatcher: dispatcher,
		key:        key,
		stats:      stats,
	}
}

// Callback handles POST /payme (and the root POST fallback).
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	h.stats.Received.Inc()

	// the body is decoded before auth only to echo the request id; nothing
	// else is looked at for an unauthorized caller
	var req Request
	decodeErr := json.NewDecoder(r.Body).Decode(&req)

	if !h.authorized(r) {
		logger.FromCtx(r.Context()).Info("payme auth rejected")
		h.write(w, errResponse(req.ID, codeUnauthorized, msgUnauthorized))
		return
	}

	if decodeErr != nil || req.Method == "" || req.Params == nil || len(req.ID) == 0 {
		h.write(w, errResponse(req.ID, codeInvalidRequest, msgInvalidRequest))
		return
	}

	log := logger.FromCtx(r.Context()).With(
		zap.String("gateway", "payme"),
		zap.String("method", req.Method),
	)

	// All validation happens before any store mutation, so a panic here can
	// never leave a half-applied transition behind.
	defer func() {
		if rec := recover(); rec != nil {
			log.Error("payme handler panic", zap.Any("panic", rec))
			h.write(w, errResponse(req.ID, codeInternalError, msgInternalError))
		}
	}()

	var res response
	switch req.Method {
	case "CheckPerformTransaction":
		res = h.checkPerform(req, log)
	case "CreateTransaction":
		res = h.create(req, log)
	case "PerformTransaction":
		res = h.perform(r, req, log)
	case "CancelTransaction":
		res = h.cancel(req, log)
	case "CheckTransaction":
		res = h.check(req, log)
	default:
		res = errResponse(req.ID, codeMethodNotFound, msgMethodNotFound)
	}
	h.write(w, res)
}

func (h *Handler) checkPerform(req Request, log *zap.Logger) response {
	o, err := h.store.Get(req.Params.Account.OrderID)
	if err != nil {
		return errResponse(req.ID, codeOrderNotFound, msgOrderNotFound)
	}
	if o.Amount != req.Params.Amount {
		log.Info("payme amount mismatch",
			zap.Int64("expected", o.Amount),
			zap.Int64("got", req.Params.Amount),
		)
		return errResponse(req.ID, codeWrongAmount, msgWrongAmount)
	}
	return okResponse(req.ID, map[string]interface{}{"allow": true})
}

func (h *Handler) create(req Request, log *zap.Logger) response {
	p := req.Params
	o, err := h.store.Get(p.Account.OrderID)
	if err != nil {
		return errResponse(req.ID, codeOrderNotFound, msgOrderNotFound)
	}

	// A re-delivered create with the same transaction id and amount must
	// replay the original success; anything else against a non-new order is
	// a conflict.
	if o.State != order.StateNew {
		if o.State == order.StateCreated && o.GatewayTxID == p.ID && o.Amount == p.Amount {
			return okResponse(req.ID, map[string]interface{}{
				"transaction": p.ID,
				"state":       order.StateCreated.Code(),
				"create_time": o.CreateTime,
			})
		}
		return errResponse(req.ID, codeCannotPerform, msgAlreadyCreated)
	}

	if o.Amount != p.Amount {
		log.Info("payme create amount mismatch",
			zap.Int64("expected", o.Amount),
			zap.Int64("got", p.Amount),
		)
		return errResponse(req.ID, codeWrongAmount, msgWrongAmount)
	}

	res, err := h.store.Apply(o.ID, order.Transition{
		To:          order.StateCreated,
		GatewayTxID: p.ID,
		Time:        p.Time,
	})
	if err != nil {
		// lost the race to a concurrent create with a different id; a
		// same-id retry is a no-op success inside Apply and never errors
		return errResponse(req.ID, codeCannotPerform, msgAlreadyCreated)
	}

	log.Info("payme transaction created",
		zap.String("order_id", o.ID),
		zap.String("transaction_id", p.ID),
	)
	return okResponse(req.ID, map[string]interface{}{
		"transaction": p.ID,
		"state":       order.StateCreated.Code(),
		"create_time": res.CreateTime,
	})
}

func (h *Handler) perform(r *http.Request, req Request, log *zap.Logger) response {
	o, err := h.store.GetByGatewayTxID(req.Params.ID)
	if err != nil {
		return errResponse(req.ID, codeTxNotFound, msgTxNotFound)
	}

	if o.State == order.StatePerformed {
		return okResponse(req.ID, map[string]interface{}{
			"transaction":  req.Params.ID,
			"state":        order.StatePerformed.Code(),
			"perform_time": o.PerformTime,
		})
	}

	res, err := h.store.Apply(o.ID, order.Transition{
		To:   order.StatePerformed,
		Time: time.Now().UnixMilli(),
	})
	if err != nil {
		// new or canceled: the lifecycle forecloses performing here; a
		// concurrent retry racing us is a no-op success inside Apply
		return errResponse(req.ID, codeCannotPerform, msgCannotPerform)
	}

	log.Info("payme payment performed",
		zap.String("order_id", o.ID),
		zap.Int64("perform_time", res.PerformTime),
	)
	h.dispatcher.PaymentConfirmed(r.Context(), res)

	return okResponse(req.ID, map[string]interface{}{
		"transaction":  req.Params.ID,
		"state":        order.StatePerformed.Code(),
		"perform_time": res.PerformTime,
	})
}

func (h *Handler) cancel(req Request, log *zap.Logger) response {
	o, err := h.store.GetByGatewayTxID(req.Params.ID)
	if err != nil {
		return errResponse(req.ID, codeTxNotFound, msgTxNotFound)
	}

	reason := 0
	if req.Params.Reason != nil {
		reason = *req.Params.Reason
	}

	// cancel is unconditional per the gateway spec: it also reverses a
	// performed payment (refund scenario)
	res, err := h.store.Apply(o.ID, order.Transition{
		To:           order.StateCanceled,
		Time:         time.Now().UnixMilli(),
		CancelReason: &reason,
	})
	if err != nil {
		return errResponse(req.ID, codeCannotPerform, msgCannotPerform)
	}

	log.Info("payme transaction canceled",
		zap.String("order_id", o.ID),
		zap.Int("reason", reason),
	)
	return okResponse(req.ID, map[string]interface{}{
		"transaction": req.Params.ID,
		"state":       order.StateCanceled.Code(),
		"cancel_time": res.CancelTime,
	})
}

func (h *Handler) check(req Request, log *zap.Logger) response {
	o, err := h.store.GetByGatewayTxID(req.Params.ID)
	if err != nil {
		return errResponse(req.ID, codeTxNotFound, msgTxNotFound)
	}

	var reason interface{}
	if o.CancelReason != nil {
		reason = *o.CancelReason
	}
	return okResponse(req.ID, map[string]interface{}{
		"transaction":  req.Params.ID,
		"state":        o.State.Code(),
		"create_time":  o.CreateTime,
		"perform_time": o.PerformTime,
		"cancel_time":  o.CancelTime,
		"reason":       reason,
	})
}

// write always answers 200; Payme reads success or failure from the
// envelope, never from the HTTP status.
func (h *Handler) write(w http.ResponseWriter, res response) {
	if res.Error != nil {
		h.stats.Failed.Inc()
	} else {
		h.stats.Succeeded.Inc()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(res); err != nil {
		logger.L().Error("failed to encode payme response", zap.Error(err))
	}
}
