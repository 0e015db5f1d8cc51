package notify

import (
	"context"
	"fmt"

	"paygate-be/internal/logger"
	"paygate-be/internal/order"

	"go.uber.org/zap"
)

// Notifier delivers a message to a recipient and reports success or failure.
type Notifier interface {
	Send(ctx context.Context, chatID, text string) error
}

// Dispatcher guards the at-most-once success notification. Both gateway
// handlers call PaymentConfirmed after a performed transition; the store's
// notify claim makes sure only one delivery is ever in flight and the
// Notified flag is set only after a positive acknowledgment.
type Dispatcher struct {
	store    order.Store
	notifier Notifier
}

func NewDispatcher(store order.Store, notifier Notifier) *Dispatcher {
	return &Dispatcher{store: store, notifier: notifier}
}

// PaymentConfirmed attempts the success notification for o. It never fails
// the payment transition: delivery errors are logged and leave the order
// eligible for a retry on the next re-delivered callback. The order lock is
// not held here; the claim in the store is the only guard.
func (d *Dispatcher) PaymentConfirmed(ctx context.Context, o order.Order) {
	if o.ChatID == "" || o.DeliverURL == "" {
		return
	}
	if !d.store.BeginNotify(o.ID) {
		return
	}

	text := fmt.Sprintf("✅ To'lov tasdiqlandi!\nSizning ssilka: %s", o.DeliverURL)
	err := d.notifier.Send(ctx, o.ChatID, text)
	d.store.FinishNotify(o.ID, err == nil)

	if err != nil {
		logger.L().Warn("success notification failed",
			zap.String("order_id", o.ID),
			zap.Error(err),
		)
	}
}
