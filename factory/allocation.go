/*
Package factory converts allocation sets to and from their JSON form.

PURPOSE:
  Allocation sets are persisted as a JSON column on their owner (fixed
  cost or employee) and travel over HTTP in the same shape. The factory is
  the single place where that shape is parsed and validated, so a bad
  method name or a negative value never reaches the calculator.

JSON SCHEMA:
  {
    "poolAmount": 150000000,
    "periodMonth": 3,
    "periodYear": 2025,
    "records": [
      {"recipientId": "bu-001", "method": "percentage", "value": 30},
      {"recipientId": "bu-002", "method": "fixed_amount", "value": 25000000},
      {"recipientId": "bu-003", "method": "day_count", "value": 5}
    ]
  }

  Numbers may also be given as strings ("30.5"). Output always uses plain
  JSON numbers. Display names are never part of the JSON.

VALIDATION:
  - method must be one of percentage, fixed_amount, day_count
  - value and poolAmount must be non-negative
  - periodMonth must be 1-12 (0 with periodYear 0 means "no period")

USAGE:
  set, err := factory.ParseSet(raw)
  raw, err := factory.MarshalSet(set)

SEE ALSO:
  - allocation/types.go: Set and Record
  - store/sqlite/sqlite.go: JSON column storage
*/
package factory

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/unit-finance/allocation"
)

// ErrInvalidJSON wraps every parse failure.
var ErrInvalidJSON = errors.New("invalid allocation json")

// =============================================================================
// JSON SCHEMA TYPES
// =============================================================================

// SetJSON is the JSON representation of an allocation set.
type SetJSON struct {
	PoolAmount  decimal.Decimal `json:"poolAmount"`
	PeriodMonth int             `json:"periodMonth"`
	PeriodYear  int             `json:"periodYear"`
	Records     []RecordJSON    `json:"records"`
}

// RecordJSON is the JSON representation of one record.
type RecordJSON struct {
	RecipientID string          `json:"recipientId"`
	Method      string          `json:"method"`
	Value       decimal.Decimal `json:"value"`
}

type setOut struct {
	PoolAmount  json.Number `json:"poolAmount"`
	PeriodMonth int         `json:"periodMonth"`
	PeriodYear  int         `json:"periodYear"`
	Records     []recordOut `json:"records"`
}

type recordOut struct {
	RecipientID string      `json:"recipientId"`
	Method      string      `json:"method"`
	Value       json.Number `json:"value"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseSet parses and validates a JSON allocation set.
// Empty input yields an empty set.
func ParseSet(data []byte) (allocation.Set, error) {
	if len(data) == 0 {
		return allocation.Set{Records: []allocation.Record{}}, nil
	}

	var raw SetJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return allocation.Set{}, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
	}
	return FromJSON(raw)
}

// FromJSON validates a decoded set.
func FromJSON(raw SetJSON) (allocation.Set, error) {
	if raw.PeriodMonth != 0 || raw.PeriodYear != 0 {
		if !allocation.NewPeriod(raw.PeriodYear, raw.PeriodMonth).Valid() {
			return allocation.Set{}, fmt.Errorf("%w: period %d-%d", ErrInvalidJSON, raw.PeriodYear, raw.PeriodMonth)
		}
	}

	set := allocation.Set{
		PoolAmount:  raw.PoolAmount,
		PeriodMonth: raw.PeriodMonth,
		PeriodYear:  raw.PeriodYear,
		Records:     make([]allocation.Record, 0, len(raw.Records)),
	}
	for i, r := range raw.Records {
		method, err := allocation.ParseMethod(r.Method)
		if err != nil {
			return allocation.Set{}, fmt.Errorf("record %d: %w", i, err)
		}
		set.Records = append(set.Records, allocation.Record{
			RecipientID: allocation.RecipientID(r.RecipientID),
			Method:      method,
			Value:       r.Value,
		})
	}
	if err := set.Validate(); err != nil {
		return allocation.Set{}, err
	}
	return set, nil
}

// =============================================================================
// MARSHALING
// =============================================================================

// MarshalSet renders a set as JSON with numeric values.
func MarshalSet(set allocation.Set) ([]byte, error) {
	out := setOut{
		PoolAmount:  json.Number(set.PoolAmount.String()),
		PeriodMonth: set.PeriodMonth,
		PeriodYear:  set.PeriodYear,
		Records:     make([]recordOut, 0, len(set.Records)),
	}
	for _, r := range set.Records {
		out.Records = append(out.Records, recordOut{
			RecipientID: string(r.RecipientID),
			Method:      string(r.Method),
			Value:       json.Number(r.Value.String()),
		})
	}
	return json.Marshal(out)
}
