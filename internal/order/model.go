package order

// State is the gateway-agnostic order lifecycle state.
type State string

const (
	StateNew       State = "new"
	StateCreated   State = "created"
	StatePerformed State = "performed"
	StateCanceled  State = "canceled"
)

// Code maps a lifecycle state to the numeric code Payme expects in
// CreateTransaction/CheckTransaction responses.
func (s State) Code() int {
	switch s {
	case StateCreated:
		return 1
	case StatePerformed:
		return 2
	case StateCanceled:
		return -1
	default:
		return 0
	}
}

// Order is the authoritative record both gateways reconcile against.
// Amount is in minor currency units (tiyin). Times are millisecond epochs.
type Order struct {
	ID           string
	Amount       int64
	State        State
	GatewayTxID  string
	CreateTime   int64
	PerformTime  int64
	CancelTime   int64
	CancelReason *int

	// Optional notification target, set at issuance.
	ChatID     string
	DeliverURL string
	Notified   bool
}

// Transition is the internal vocabulary both protocol adapters translate
// their callbacks into. GatewayTxID is only meaningful for To=StateCreated
// (Payme records its own transaction id; Click reuses the order id and
// leaves it empty).
type Transition struct {
	To           State
	GatewayTxID  string
	Time         int64
	CancelReason *int
}
