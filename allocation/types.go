/*
Package allocation provides the cost allocation engine.

PURPOSE:
  This package distributes a pooled quantity (a fixed cost, an employee's
  salary) across recipients (business units, cost centers). The same engine
  serves every owner type: it only sees a pool amount and an ordered list of
  allocation records.

KEY CONCEPTS IN THIS FILE (types.go):
  - Method: How a record's value is interpreted (percentage, fixed amount, days)
  - Record: One recipient's share specification
  - Set: All records belonging to one pool, for one accounting period

DESIGN PRINCIPLES:
  1. Immutability: Sets are snapshots. Editing returns a new Set.
  2. Precision: Uses decimal.Decimal so "sums to exactly 100%" is decidable
  3. Purity: No I/O. Persistence and name lookup are injected by callers.
  4. Permissive: Incomplete or over-allocated sets are valid states, reported
     through Completeness, never rejected.

USAGE:
  set := allocation.Set{
      PoolAmount: decimal.NewFromInt(150_000_000),
      Records: []allocation.Record{
          {RecipientID: "bu-001", Method: allocation.Percentage, Value: decimal.NewFromInt(30)},
      },
  }
  calc := allocation.Calculator{}
  amount := calc.DistributedAmount(set.Records[0], set.PoolAmount) // 45,000,000

SEE ALSO:
  - calculator.go: Distribution and completeness
  - editor.go: Copy-on-write record editing
  - directory.go: Recipient name resolution
*/
package allocation

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// =============================================================================
// METHOD - How a record's value is interpreted
// =============================================================================

type Method string

const (
	Percentage  Method = "percentage"   // value is percentage points (0-100) of the pool
	FixedAmount Method = "fixed_amount" // value is the currency amount itself
	DayCount    Method = "day_count"    // value is working days out of the period
)

// Methods lists the known methods in display order.
var Methods = []Method{Percentage, FixedAmount, DayCount}

// ParseMethod converts a string to a Method.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case Percentage, FixedAmount, DayCount:
		return Method(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownMethod, s)
}

func (m Method) Valid() bool {
	_, err := ParseMethod(string(m))
	return err == nil
}

func (m *Method) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseMethod(s)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// =============================================================================
// IDENTIFIERS
// =============================================================================

type RecipientID string

// =============================================================================
// RECORD - One recipient's share of a pool
// =============================================================================

// Record is one (recipient, method, value) tuple.
// RecipientName is display data injected from a Directory and is not persisted.
type Record struct {
	RecipientID   RecipientID     `json:"recipientId"`
	RecipientName string          `json:"-"`
	Method        Method          `json:"method"`
	Value         decimal.Decimal `json:"value"`
}

// =============================================================================
// SET - All records for one pooled quantity
// =============================================================================

// Set is the collection of records belonging to one pool.
// Record order is display order only.
type Set struct {
	PoolAmount  decimal.Decimal `json:"poolAmount"`
	PeriodMonth int             `json:"periodMonth"`
	PeriodYear  int             `json:"periodYear"`
	Records     []Record        `json:"records"`
}

// NewSet returns an empty set for a pool and period.
func NewSet(pool decimal.Decimal, period Period) Set {
	return Set{
		PoolAmount:  pool,
		PeriodMonth: int(period.Month),
		PeriodYear:  period.Year,
		Records:     []Record{},
	}
}

func (s Set) Period() Period { return NewPeriod(s.PeriodYear, s.PeriodMonth) }
func (s Set) Len() int       { return len(s.Records) }
func (s Set) IsEmpty() bool  { return len(s.Records) == 0 }

// Clone returns a deep copy; the Records slice never aliases the original.
func (s Set) Clone() Set {
	out := s
	out.Records = make([]Record, len(s.Records))
	copy(out.Records, s.Records)
	return out
}

// WithPool returns a copy of the set with a new pool amount.
func (s Set) WithPool(pool decimal.Decimal) Set {
	out := s.Clone()
	out.PoolAmount = pool
	return out
}

// Methods returns the distinct methods used by the set, in Methods order.
func (s Set) Methods() []Method {
	seen := make(map[Method]bool)
	for _, r := range s.Records {
		seen[r.Method] = true
	}
	var out []Method
	for _, m := range Methods {
		if seen[m] {
			out = append(out, m)
		}
	}
	return out
}

// Method returns the single method shared by every record.
// ok is false for empty and mixed-method sets.
func (s Set) Method() (Method, bool) {
	methods := s.Methods()
	if len(methods) != 1 {
		return "", false
	}
	return methods[0], true
}

// Validate checks the hard invariants: known methods and non-negative values.
// Totals are never validated here (see Completeness).
func (s Set) Validate() error {
	if s.PoolAmount.IsNegative() {
		return fmt.Errorf("pool amount: %w", ErrNegativeValue)
	}
	for i, r := range s.Records {
		if !r.Method.Valid() {
			return fmt.Errorf("record %d: %w: %q", i, ErrUnknownMethod, r.Method)
		}
		if r.Value.IsNegative() {
			return &ValueError{Index: i, Value: r.Value}
		}
	}
	return nil
}
