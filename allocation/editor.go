/*
editor.go - Copy-on-write editing of allocation sets

PURPOSE:
  The dashboard edits allocation sets one record at a time: add a row,
  change a row's recipient/method/value, delete a row. Every operation here
  returns a NEW Set; the input is never modified, so callers can diff the
  old and new snapshot before persisting.

OPERATIONS:
  AddRecord(set, recipient, method)  append {recipient, method, 0}
  RemoveRecord(set, index)           drop one record
  UpdateRecord(set, index, update)   replace one field of one record

VALIDATION:
  Index out of range   -> *IndexError (ErrInvalidRecordIndex)
  Negative value       -> *ValueError (ErrNegativeValue)
  Unknown field        -> ErrUnknownField
  Totals are NOT validated: over- and under-allocation are valid states.

EDITOR:
  Editor wraps the pure functions with a recipient Directory (default
  recipient, display names) and the optional single-method rule used by
  fixed-cost allocations.

SEE ALSO:
  - calculator.go: Evaluating the edited set
  - directory.go: Name resolution
*/
package allocation

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// UPDATE - One field change on one record
// =============================================================================

// Field names a record field.
type Field string

const (
	FieldRecipient Field = "recipientId"
	FieldMethod    Field = "method"
	FieldValue     Field = "value"
)

// ParseField converts a string to a Field.
func ParseField(s string) (Field, error) {
	switch Field(s) {
	case FieldRecipient, FieldMethod, FieldValue:
		return Field(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
}

// Update describes a change to one field. Only the member matching Field is read.
type Update struct {
	Field         Field
	RecipientID   RecipientID
	RecipientName string
	Method        Method
	Value         decimal.Decimal
}

func SetRecipient(id RecipientID, name string) Update {
	return Update{Field: FieldRecipient, RecipientID: id, RecipientName: name}
}

func SetMethod(m Method) Update { return Update{Field: FieldMethod, Method: m} }

func SetValue(v decimal.Decimal) Update { return Update{Field: FieldValue, Value: v} }

// =============================================================================
// PURE OPERATIONS
// =============================================================================

// AddRecord appends a zero-valued record.
func AddRecord(s Set, recipientID RecipientID, method Method) Set {
	out := s.Clone()
	out.Records = append(out.Records, Record{
		RecipientID: recipientID,
		Method:      method,
		Value:       decimal.Zero,
	})
	return out
}

// RemoveRecord drops the record at index.
func RemoveRecord(s Set, index int) (Set, error) {
	if err := checkIndex(s, index); err != nil {
		return s, err
	}
	out := s
	out.Records = make([]Record, 0, len(s.Records)-1)
	out.Records = append(out.Records, s.Records[:index]...)
	out.Records = append(out.Records, s.Records[index+1:]...)
	return out, nil
}

// UpdateRecord replaces one field of the record at index.
// Applying the same update twice yields the same set as applying it once.
func UpdateRecord(s Set, index int, u Update) (Set, error) {
	if err := checkIndex(s, index); err != nil {
		return s, err
	}

	rec := s.Records[index]
	switch u.Field {
	case FieldRecipient:
		rec.RecipientID = u.RecipientID
		rec.RecipientName = u.RecipientName
	case FieldMethod:
		if !u.Method.Valid() {
			return s, fmt.Errorf("%w: %q", ErrUnknownMethod, u.Method)
		}
		rec.Method = u.Method
	case FieldValue:
		if u.Value.IsNegative() {
			return s, &ValueError{Index: index, Value: u.Value}
		}
		rec.Value = u.Value
	default:
		return s, fmt.Errorf("%w: %q", ErrUnknownField, u.Field)
	}

	out := s.Clone()
	out.Records[index] = rec
	return out, nil
}

func checkIndex(s Set, index int) error {
	if index < 0 || index >= len(s.Records) {
		return &IndexError{Index: index, Len: len(s.Records)}
	}
	return nil
}

// =============================================================================
// EDITOR - Directory-aware editing
// =============================================================================

// Editor applies edits with recipient resolution and method rules.
type Editor struct {
	Directory Directory

	// SingleMethod requires every record of a set to share one method.
	SingleMethod bool
}

// Add appends a new record. An empty recipientID defaults to the first
// directory entry; an empty method defaults to the set's method, then Percentage.
func (e Editor) Add(s Set, recipientID RecipientID, method Method) (Set, error) {
	if recipientID == "" {
		if first, ok := First(e.Directory); ok {
			recipientID = first.ID
		}
	} else if err := e.checkRecipient(recipientID); err != nil {
		return s, err
	}

	current, single := s.Method()
	if method == "" {
		method = Percentage
		if single {
			method = current
		}
	}
	if !method.Valid() {
		return s, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	if e.SingleMethod && single && method != current {
		return s, fmt.Errorf("%w: set uses %s, got %s", ErrMixedMethods, current, method)
	}

	out := AddRecord(s, recipientID, method)
	out.Records[len(out.Records)-1].RecipientName = displayName(e.Directory, recipientID)
	return out, nil
}

// Update changes one field of one record, re-resolving the recipient name
// when the recipient changes.
func (e Editor) Update(s Set, index int, u Update) (Set, error) {
	switch u.Field {
	case FieldRecipient:
		if err := e.checkRecipient(u.RecipientID); err != nil {
			return s, err
		}
		u.RecipientName = displayName(e.Directory, u.RecipientID)
	case FieldMethod:
		if e.SingleMethod && len(s.Records) > 1 {
			if current, ok := s.Method(); !ok || current != u.Method {
				return s, fmt.Errorf("%w: use SwitchMethod to change every record", ErrMixedMethods)
			}
		}
	}
	return UpdateRecord(s, index, u)
}

// Remove drops one record.
func (e Editor) Remove(s Set, index int) (Set, error) {
	return RemoveRecord(s, index)
}

// SwitchMethod changes the method of every record at once. Values are kept.
func (e Editor) SwitchMethod(s Set, method Method) (Set, error) {
	if !method.Valid() {
		return s, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	out := s.Clone()
	for i := range out.Records {
		out.Records[i].Method = method
	}
	return out, nil
}

func (e Editor) checkRecipient(id RecipientID) error {
	if e.Directory == nil {
		return nil
	}
	if _, ok := e.Directory.Name(id); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownRecipient, id)
	}
	return nil
}
