package order

import (
	"fmt"
	"sync"
)

// Store is the single source of truth for order state. Both callback
// handlers mutate orders only through Apply, which validates and applies a
// transition atomically per order.
type Store interface {
	NextID() string
	Create(id string, amount int64, chatID, deliverURL string) (Order, error)
	Get(id string) (Order, error)
	GetByGatewayTxID(txID string) (Order, error)
	SetAmount(id string, amount int64) (Order, error)
	Apply(id string, tr Transition) (Order, error)

	// BeginNotify claims the at-most-once success notification for an order.
	// It returns false if the notification was already delivered or another
	// delivery is in flight. FinishNotify releases the claim; ok=true marks
	// the order as notified for good.
	BeginNotify(id string) bool
	FinishNotify(id string, ok bool)
}

type entry struct {
	mu        sync.Mutex
	o         Order
	notifying bool
}

type memoryStore struct {
	mu      sync.RWMutex
	orders  map[string]*entry
	counter uint64
}

// NewMemoryStore returns an in-process Store. Orders live for the process
// lifetime; durability is a deployment concern, not this store's.
func NewMemoryStore() Store {
	return &memoryStore{orders: make(map[string]*entry)}
}

// NextID issues the next 7-digit zero-padded order id (0000001, 0000002, ...).
func (s *memoryStore) NextID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counter++
	return fmt.Sprintf("%07d", s.counter)
}

func (s *memoryStore) Create(id string, amount int64, chatID, deliverURL string) (Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.orders[id]; exists {
		return Order{}, ErrAlreadyExists
	}
	o := Order{
		ID:         id,
		Amount:     amount,
		State:      StateNew,
		ChatID:     chatID,
		DeliverURL: deliverURL,
	}
	s.orders[id] = &entry{o: o}
	return o, nil
}

func (s *memoryStore) lookup(id string) *entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orders[id]
}

func (s *memoryStore) Get(id string) (Order, error) {
	e := s.lookup(id)
	if e == nil {
		return Order{}, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.o, nil
}

func (s *memoryStore) GetByGatewayTxID(txID string) (Order, error) {
	if txID == "" {
		return Order{}, ErrTxNotFound
	}
	s.mu.RLock()
	var found *entry
	for _, e := range s.orders {
		e.mu.Lock()
		match := e.o.GatewayTxID == txID
		e.mu.Unlock()
		if match {
			found = e
			break
		}
	}
	s.mu.RUnlock()

	if found == nil {
		return Order{}, ErrTxNotFound
	}
	found.mu.Lock()
	defer found.mu.Unlock()
	return found.o, nil
}

// SetAmount updates the expected amount. Legal only while the order is still
// new: once a gateway has created a transaction the amount is frozen.
func (s *memoryStore) SetAmount(id string, amount int64) (Order, error) {
	e := s.lookup(id)
	if e == nil {
		return Order{}, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.o.State != StateNew {
		return e.o, ErrAmountLocked
	}
	e.o.Amount = amount
	return e.o, nil
}

// Apply validates tr against the lifecycle graph and applies it under the
// order's lock. Re-applying an already-applied transition is a no-op that
// returns the stored result, so gateway retries observe the first
// application's outcome. Illegal moves return ErrStateConflict with no
// mutation.
func (s *memoryStore) Apply(id string, tr Transition) (Order, error) {
	e := s.lookup(id)
	if e == nil {
		return Order{}, ErrNotFound
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	o := &e.o
	switch tr.To {
	case StateCreated:
		switch o.State {
		case StateNew:
			o.State = StateCreated
			o.GatewayTxID = tr.GatewayTxID
			o.CreateTime = tr.Time
		case StateCreated:
			if o.GatewayTxID != tr.GatewayTxID {
				return *o, ErrStateConflict
			}
			// retry of the original create
		default:
			return *o, ErrStateConflict
		}

	case StatePerformed:
		switch o.State {
		case StateCreated:
			o.State = StatePerformed
			o.PerformTime = tr.Time
		case StatePerformed:
			// retry
		default:
			return *o, ErrStateConflict
		}

	case StateCanceled:
		switch o.State {
		case StateCreated, StatePerformed:
			o.State = StateCanceled
			o.CancelTime = tr.Time
			o.CancelReason = tr.CancelReason
		case StateCanceled:
			// retry
		default:
			return *o, ErrStateConflict
		}

	default:
		return *o, ErrStateConflict
	}

	return *o, nil
}

func (s *memoryStore) BeginNotify(id string) bool {
	e := s.lookup(id)
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.o.Notified || e.notifying {
		return false
	}
	e.notifying = true
	return true
}

func (s *memoryStore) FinishNotify(id string, ok bool) {
	e := s.lookup(id)
	if e == nil {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	e.notifying = false
	if ok {
		e.o.Notified = true
	}
}
