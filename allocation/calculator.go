/*
calculator.go - Distribution and completeness of an allocation set

PURPOSE:
  Turns a pool amount plus allocation records into per-recipient amounts,
  and reports whether the records cover the whole pool.

DISTRIBUTION BY METHOD:
  Percentage:  amount = pool * value / 100
  FixedAmount: amount = value                  (pool ignored)
  DayCount:    amount = pool * value / workingDays

  DayCount multiplies before dividing so that value == workingDays returns
  the pool exactly instead of a rounded daily rate times the day count.

COMPLETENESS:
  Percentage-only:  covered = sum(values) / 100
  FixedAmount-only: covered = totalDistributed / pool
  DayCount-only:    covered = sum(days) / workingDays
  Mixed methods:    no single number; each method gets its own subtotal.

  IsComplete is exact equality. 99.999% is incomplete. An incomplete set is
  a warning state for the UI, never an error.

EXAMPLE:
  pool = 80,000,000
  records = [bu-001 FixedAmount 25,000,000], [bu-002 FixedAmount 30,000,000]
  total = 55,000,000, covered = 0.6875, complete = false, variance = 25,000,000

SEE ALSO:
  - types.go: Set and Record
  - editor.go: Producing new sets
*/
package allocation

import (
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// =============================================================================
// CALCULATOR
// =============================================================================

// Calculator evaluates allocation sets. The zero value uses DefaultWorkingDays.
type Calculator struct {
	// WorkingDays is the DayCount denominator. Zero or negative means DefaultWorkingDays.
	WorkingDays int
}

// ForPeriod returns a calculator whose DayCount denominator is the actual
// number of working days in the period.
func ForPeriod(p Period, cal Calendar) Calculator {
	return Calculator{WorkingDays: WorkingDays(p, cal)}
}

func (c Calculator) workingDays() decimal.Decimal {
	if c.WorkingDays <= 0 {
		return decimal.NewFromInt(DefaultWorkingDays)
	}
	return decimal.NewFromInt(int64(c.WorkingDays))
}

// DistributedAmount converts one record into the amount it receives from pool.
// Negative values are not rejected here.
func (c Calculator) DistributedAmount(r Record, pool decimal.Decimal) decimal.Decimal {
	switch r.Method {
	case Percentage:
		return pool.Mul(r.Value).Div(hundred)
	case FixedAmount:
		return r.Value
	case DayCount:
		return pool.Mul(r.Value).Div(c.workingDays())
	default:
		return decimal.Zero
	}
}

// TotalDistributed sums DistributedAmount over every record in the set.
func (c Calculator) TotalDistributed(s Set) decimal.Decimal {
	total := decimal.Zero
	for _, r := range s.Records {
		total = total.Add(c.DistributedAmount(r, s.PoolAmount))
	}
	return total
}

// =============================================================================
// DISTRIBUTION - Per-record breakdown
// =============================================================================

// Share is the amount one record receives.
type Share struct {
	Index         int
	RecipientID   RecipientID
	RecipientName string
	Method        Method
	Value         decimal.Decimal
	Amount        decimal.Decimal
}

// Distribution describes how a pool is split across the set's records.
type Distribution struct {
	Pool      decimal.Decimal
	Shares    []Share
	Total     decimal.Decimal
	Remaining decimal.Decimal // Pool - Total; negative when over-allocated
}

// Distribute computes every record's share, in record order.
func (c Calculator) Distribute(s Set) Distribution {
	shares := make([]Share, len(s.Records))
	total := decimal.Zero
	for i, r := range s.Records {
		amount := c.DistributedAmount(r, s.PoolAmount)
		shares[i] = Share{
			Index:         i,
			RecipientID:   r.RecipientID,
			RecipientName: r.RecipientName,
			Method:        r.Method,
			Value:         r.Value,
			Amount:        amount,
		}
		total = total.Add(amount)
	}
	return Distribution{
		Pool:      s.PoolAmount,
		Shares:    shares,
		Total:     total,
		Remaining: s.PoolAmount.Sub(total),
	}
}

// ByRecipient sums shares per recipient. A recipient listed twice gets both shares.
func (d Distribution) ByRecipient() map[RecipientID]decimal.Decimal {
	out := make(map[RecipientID]decimal.Decimal, len(d.Shares))
	for _, sh := range d.Shares {
		out[sh.RecipientID] = out[sh.RecipientID].Add(sh.Amount)
	}
	return out
}

// =============================================================================
// COMPLETENESS
// =============================================================================

// CompletenessStatus is a presentation hint derived from the covered fraction.
type CompletenessStatus string

const (
	StatusEmpty    CompletenessStatus = "empty"
	StatusUnder    CompletenessStatus = "under"
	StatusComplete CompletenessStatus = "complete"
	StatusOver     CompletenessStatus = "over"
	StatusMixed    CompletenessStatus = "mixed"
)

// MethodSubtotal is the completeness of the records using one method.
type MethodSubtotal struct {
	Method          Method
	Count           int
	ValueSum        decimal.Decimal
	Distributed     decimal.Decimal
	CoveredFraction decimal.Decimal
	IsComplete      bool
}

// Completeness reports how much of the pool a set covers.
// For mixed sets CoveredFraction is zero, IsComplete is false and only
// ByMethod is meaningful.
type Completeness struct {
	Method          Method // empty for empty or mixed sets
	Mixed           bool
	CoveredFraction decimal.Decimal
	IsComplete      bool
	Distributed     decimal.Decimal
	Variance        decimal.Decimal // Pool - Distributed
	Status          CompletenessStatus
	ByMethod        []MethodSubtotal
}

// Completeness evaluates the set against its pool.
func (c Calculator) Completeness(s Set) Completeness {
	distributed := c.TotalDistributed(s)
	result := Completeness{
		Distributed:     distributed,
		Variance:        s.PoolAmount.Sub(distributed),
		CoveredFraction: decimal.Zero,
	}

	for _, m := range s.Methods() {
		result.ByMethod = append(result.ByMethod, c.subtotal(s, m))
	}

	switch len(result.ByMethod) {
	case 0:
		result.Status = StatusEmpty
	case 1:
		only := result.ByMethod[0]
		result.Method = only.Method
		result.CoveredFraction = only.CoveredFraction
		result.IsComplete = only.IsComplete
		over := only.CoveredFraction.GreaterThan(decimal.NewFromInt(1)) ||
			(only.Method == FixedAmount && only.Distributed.GreaterThan(s.PoolAmount))
		result.Status = statusFor(only.IsComplete, over)
	default:
		result.Mixed = true
		result.Status = StatusMixed
	}
	return result
}

func (c Calculator) subtotal(s Set, m Method) MethodSubtotal {
	sub := MethodSubtotal{Method: m, ValueSum: decimal.Zero, Distributed: decimal.Zero}
	for _, r := range s.Records {
		if r.Method != m {
			continue
		}
		sub.Count++
		sub.ValueSum = sub.ValueSum.Add(r.Value)
		sub.Distributed = sub.Distributed.Add(c.DistributedAmount(r, s.PoolAmount))
	}

	switch m {
	case Percentage:
		sub.CoveredFraction = sub.ValueSum.Div(hundred)
		sub.IsComplete = sub.CoveredFraction.Equal(decimal.NewFromInt(1))
	case FixedAmount:
		if s.PoolAmount.IsZero() {
			sub.CoveredFraction = decimal.Zero
		} else {
			sub.CoveredFraction = sub.Distributed.Div(s.PoolAmount)
		}
		sub.IsComplete = sub.Distributed.Equal(s.PoolAmount)
	case DayCount:
		sub.CoveredFraction = sub.ValueSum.Div(c.workingDays())
		sub.IsComplete = sub.ValueSum.Equal(c.workingDays())
	}
	return sub
}

func statusFor(complete, over bool) CompletenessStatus {
	switch {
	case complete:
		return StatusComplete
	case over:
		return StatusOver
	default:
		return StatusUnder
	}
}
