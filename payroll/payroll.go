// Package payroll models employees whose salary is allocated over business units.
//
// Unlike fixed costs, an employee allocation may mix methods: a manager can
// spend 50% of the month on one unit and 5 days on another. Completeness
// for such a set is reported per method.
package payroll

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/unit-finance/allocation"
)

// ErrInvalidEmployee is returned by Validate.
var ErrInvalidEmployee = errors.New("invalid employee")

// Employee is a salaried person whose cost is distributed by the allocation set.
// The set's pool is the base salary.
type Employee struct {
	ID             string
	Name           string
	Position       string
	BusinessUnitID string // home unit, used when the allocation is empty
	BaseSalary     decimal.Decimal
	Allocation     allocation.Set
}

// NewEmployee returns an employee with an empty allocation for the period.
func NewEmployee(id, name, position, homeUnit string, salary decimal.Decimal, period allocation.Period) Employee {
	return Employee{
		ID:             id,
		Name:           name,
		Position:       position,
		BusinessUnitID: homeUnit,
		BaseSalary:     salary,
		Allocation:     allocation.NewSet(salary, period),
	}
}

func (e Employee) Owner() allocation.Owner {
	return allocation.Owner{Kind: allocation.OwnerEmployee, ID: e.ID}
}

// Period is the period of the employee's current allocation.
func (e Employee) Period() allocation.Period { return e.Allocation.Period() }

// WithSalary returns a copy with a new base salary; the allocation pool follows.
func (e Employee) WithSalary(salary decimal.Decimal) Employee {
	e.BaseSalary = salary
	e.Allocation = e.Allocation.WithPool(salary)
	return e
}

func (e Employee) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidEmployee)
	}
	if e.BaseSalary.IsNegative() {
		return fmt.Errorf("%w: salary: %w", ErrInvalidEmployee, allocation.ErrNegativeValue)
	}
	if !e.Allocation.PoolAmount.Equal(e.BaseSalary) {
		return fmt.Errorf("%w: allocation pool %s does not match salary %s",
			ErrInvalidEmployee, e.Allocation.PoolAmount, e.BaseSalary)
	}
	return e.Allocation.Validate()
}

// Editor returns the allocation editor for employees. Mixed methods are allowed.
func Editor(dir allocation.Directory) allocation.Editor {
	return allocation.Editor{Directory: dir}
}

// SalaryCostByUnit distributes every salary and sums the result per unit.
// Employees with an empty allocation are charged in full to their home unit.
func SalaryCostByUnit(employees []Employee, calc allocation.Calculator) map[allocation.RecipientID]decimal.Decimal {
	out := make(map[allocation.RecipientID]decimal.Decimal)
	for _, e := range employees {
		if e.Allocation.IsEmpty() {
			if e.BusinessUnitID != "" {
				id := allocation.RecipientID(e.BusinessUnitID)
				out[id] = out[id].Add(e.BaseSalary)
			}
			continue
		}
		for id, amount := range calc.Distribute(e.Allocation).ByRecipient() {
			out[id] = out[id].Add(amount)
		}
	}
	return out
}

// TotalSalaries sums base salaries.
func TotalSalaries(employees []Employee) decimal.Decimal {
	total := decimal.Zero
	for _, e := range employees {
		total = total.Add(e.BaseSalary)
	}
	return total
}
