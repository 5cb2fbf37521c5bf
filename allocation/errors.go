/*
errors.go - Centralized error types for the allocation engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  The calculator itself never fails; these errors come from the editing
  boundary and from stores.

ERROR CATEGORIES:
  1. Editing errors - bad index, negative value, unknown field/recipient
  2. Parse errors - unknown method names
  3. Store errors - missing owners

USAGE:
  if errors.Is(err, allocation.ErrInvalidRecordIndex) {
      // 400 to the client
  }

SEE ALSO:
  - editor.go: Returns editing errors
  - api/handlers.go: Maps these errors to HTTP statuses
*/
package allocation

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRecordIndex is returned when update/remove targets a position
	// outside the record list.
	ErrInvalidRecordIndex = errors.New("invalid record index")

	// ErrNegativeValue is returned when a record value or pool is negative.
	ErrNegativeValue = errors.New("negative value")

	// ErrUnknownMethod is returned for method names outside Methods.
	ErrUnknownMethod = errors.New("unknown allocation method")

	// ErrUnknownField is returned when an Update names no known field.
	ErrUnknownField = errors.New("unknown record field")

	// ErrUnknownRecipient is returned when a recipient is not in the directory.
	ErrUnknownRecipient = errors.New("unknown recipient")

	// ErrMixedMethods is returned when a single-method set would get a second method.
	ErrMixedMethods = errors.New("allocation set requires a single method")

	// ErrNotFound is returned by stores when the owner of a set does not exist.
	ErrNotFound = errors.New("not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// IndexError reports an out-of-range record index.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("invalid record index %d (set has %d records)", e.Index, e.Len)
}

func (e *IndexError) Unwrap() error { return ErrInvalidRecordIndex }

// ValueError reports a negative record value.
type ValueError struct {
	Index int
	Value decimal.Decimal
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("record %d: negative value %s", e.Index, e.Value)
}

func (e *ValueError) Unwrap() error { return ErrNegativeValue }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRecordIndex) ||
		errors.Is(err, ErrNegativeValue) ||
		errors.Is(err, ErrUnknownMethod) ||
		errors.Is(err, ErrUnknownField) ||
		errors.Is(err, ErrUnknownRecipient) ||
		errors.Is(err, ErrMixedMethods)
}

// IsNotFound returns true if the error indicates a missing owner.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
