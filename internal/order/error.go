package order

import "errors"

var (
	ErrNotFound      = errors.New("order not found")
	ErrTxNotFound    = errors.New("transaction not found")
	ErrAlreadyExists = errors.New("order already exists")
	ErrStateConflict = errors.New("illegal state transition")
	ErrAmountLocked  = errors.New("amount locked after creation")
)
