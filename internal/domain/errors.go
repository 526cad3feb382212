package domain

import "errors"

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")

	// ErrOutOfStock indicates a product cannot be added because no purchasable
	// quantity remains.
	ErrOutOfStock = errors.New("out of stock")

	// ErrInsufficientStock indicates a quantity change would exceed the stock
	// cap; the previous state is preserved.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrMutationInFlight indicates a second mutation was attempted on a line
	// item whose previous mutation has not been resolved yet.
	ErrMutationInFlight = errors.New("mutation already in flight")

	// ErrEmptySelection indicates checkout was requested with nothing selected.
	ErrEmptySelection = errors.New("empty selection")

	// ErrGuestCheckout indicates checkout was requested without an
	// authenticated identity.
	ErrGuestCheckout = errors.New("guest checkout not allowed")

	// ErrMalformedResponse indicates an upstream payload did not match the
	// documented shape and is treated as data corruption.
	ErrMalformedResponse = errors.New("malformed response")
)
