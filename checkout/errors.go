package checkout

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrInProgress is returned by Submit while a submission is running
var ErrInProgress = errors.New("checkout: submission already in progress")

// ValidationError lists the customer fields that failed validation. Nothing
// was sent to storage.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "checkout: invalid " + strings.Join(names, ", ")
}

// HeaderInsertError means the order header could not be written. The cart is
// unchanged and the whole checkout can be retried.
type HeaderInsertError struct {
	Err error
}

func (e *HeaderInsertError) Error() string {
	return fmt.Sprintf("checkout: insert order: %v", e.Err)
}

func (e *HeaderInsertError) Unwrap() error { return e.Err }

// LineInsertError means the header OrderID was written but its lines were
// not. The header is left in storage without items.
type LineInsertError struct {
	OrderID string
	Err     error
}

func (e *LineInsertError) Error() string {
	return fmt.Sprintf("checkout: insert items for order %s: %v", e.OrderID, e.Err)
}

func (e *LineInsertError) Unwrap() error { return e.Err }
