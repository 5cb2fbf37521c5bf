/*
Package costs models fixed and variable costs.

PURPOSE:
  A variable cost belongs to exactly one business unit. A fixed cost
  (rent, licences, shared services) belongs to nobody and is distributed
  over business units through an allocation set whose pool is the cost
  amount.

RULES:
  - A fixed cost's allocation uses a single method for all its records.
    Changing the method goes through SwitchMethod, never per record.
  - The pool always equals the cost amount. Reprice keeps them in sync.
  - Allocation completeness is reported, never enforced: an incomplete
    fixed cost only distributes what its records cover.

SEE ALSO:
  - allocation/: Calculator and Editor
  - report/: Per-unit aggregation
*/
package costs

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/unit-finance/allocation"
)

// ErrInvalidCost is returned by Validate.
var ErrInvalidCost = errors.New("invalid cost")

// Category groups costs for reporting.
type Category string

const (
	CategoryRent      Category = "rent"
	CategoryUtilities Category = "utilities"
	CategorySoftware  Category = "software"
	CategoryMarketing Category = "marketing"
	CategoryLogistics Category = "logistics"
	CategoryMaterials Category = "materials"
	CategoryOther     Category = "other"
)

// =============================================================================
// FIXED COST
// =============================================================================

// FixedCost is a shared cost distributed over business units.
type FixedCost struct {
	ID          string
	Name        string
	Category    Category
	Amount      decimal.Decimal
	PeriodMonth int
	PeriodYear  int
	Allocation  allocation.Set
}

// NewFixedCost returns a fixed cost with an empty allocation set.
func NewFixedCost(id, name string, category Category, amount decimal.Decimal, period allocation.Period) FixedCost {
	return FixedCost{
		ID:          id,
		Name:        name,
		Category:    category,
		Amount:      amount,
		PeriodMonth: int(period.Month),
		PeriodYear:  period.Year,
		Allocation:  allocation.NewSet(amount, period),
	}
}

func (c FixedCost) Period() allocation.Period { return allocation.NewPeriod(c.PeriodYear, c.PeriodMonth) }

func (c FixedCost) Owner() allocation.Owner {
	return allocation.Owner{Kind: allocation.OwnerFixedCost, ID: c.ID}
}

// Reprice returns a copy with a new amount; the allocation pool follows.
func (c FixedCost) Reprice(amount decimal.Decimal) FixedCost {
	c.Amount = amount
	c.Allocation = c.Allocation.WithPool(amount)
	return c
}

// Normalize returns a copy whose allocation pool and period match the cost.
func (c FixedCost) Normalize() FixedCost {
	c.Allocation = c.Allocation.WithPool(c.Amount)
	c.Allocation.PeriodMonth = c.PeriodMonth
	c.Allocation.PeriodYear = c.PeriodYear
	return c
}

// Validate checks amount, period and the single-method rule.
func (c FixedCost) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidCost)
	}
	if c.Amount.IsNegative() {
		return fmt.Errorf("%w: amount: %w", ErrInvalidCost, allocation.ErrNegativeValue)
	}
	if !c.Period().Valid() {
		return fmt.Errorf("%w: period %d-%d", ErrInvalidCost, c.PeriodYear, c.PeriodMonth)
	}
	if len(c.Allocation.Methods()) > 1 {
		return fmt.Errorf("%w: %w", ErrInvalidCost, allocation.ErrMixedMethods)
	}
	return c.Allocation.Validate()
}

// Editor returns the allocation editor for fixed costs.
func Editor(dir allocation.Directory) allocation.Editor {
	return allocation.Editor{Directory: dir, SingleMethod: true}
}

// =============================================================================
// VARIABLE COST
// =============================================================================

// VariableCost is a cost attributed directly to one business unit.
type VariableCost struct {
	ID             string
	BusinessUnitID string
	Name           string
	Category       Category
	Amount         decimal.Decimal
	PeriodMonth    int
	PeriodYear     int
}

func (c VariableCost) Period() allocation.Period { return allocation.NewPeriod(c.PeriodYear, c.PeriodMonth) }

func (c VariableCost) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidCost)
	}
	if c.BusinessUnitID == "" {
		return fmt.Errorf("%w: business unit is required", ErrInvalidCost)
	}
	if c.Amount.IsNegative() {
		return fmt.Errorf("%w: amount: %w", ErrInvalidCost, allocation.ErrNegativeValue)
	}
	if !c.Period().Valid() {
		return fmt.Errorf("%w: period %d-%d", ErrInvalidCost, c.PeriodYear, c.PeriodMonth)
	}
	return nil
}

// =============================================================================
// AGGREGATION
// =============================================================================

// AllocatedByUnit sums the distributed amounts of every fixed cost per recipient.
func AllocatedByUnit(fixed []FixedCost, calc allocation.Calculator) map[allocation.RecipientID]decimal.Decimal {
	out := make(map[allocation.RecipientID]decimal.Decimal)
	for _, c := range fixed {
		for id, amount := range calc.Distribute(c.Allocation).ByRecipient() {
			out[id] = out[id].Add(amount)
		}
	}
	return out
}

// VariableByUnit sums variable costs per business unit.
func VariableByUnit(variable []VariableCost) map[allocation.RecipientID]decimal.Decimal {
	out := make(map[allocation.RecipientID]decimal.Decimal)
	for _, c := range variable {
		id := allocation.RecipientID(c.BusinessUnitID)
		out[id] = out[id].Add(c.Amount)
	}
	return out
}

// Total sums fixed cost amounts, allocated or not.
func Total(fixed []FixedCost) decimal.Decimal {
	total := decimal.Zero
	for _, c := range fixed {
		total = total.Add(c.Amount)
	}
	return total
}
