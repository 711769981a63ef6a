package common

import "errors"

// Error taxonomy shared by the workflow services. Everything else is a
// transport/store failure and gets wrapped with context on the way up;
// no operation retries on its own.
var (
	// ErrNotFound means the target record vanished between read and
	// write time.
	ErrNotFound = errors.New("record not found")

	// ErrInsufficientStock refuses a ticket that would drive a part's
	// stock below zero (or references a part that does not exist).
	ErrInsufficientStock = errors.New("repuesto sin stock")

	// ErrInvalidInput marks operator mistakes in a draft or status
	// value.
	ErrInvalidInput = errors.New("invalid input")
)
