package payroll_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/unit-finance/allocation"
	"github.com/warp/unit-finance/payroll"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var march = allocation.NewPeriod(2025, 3)

func TestScenario_EmployeeSalaryAllocation(t *testing.T) {
	// GIVEN: An employee earning 25,000,000 split 60% / 40%
	e := payroll.NewEmployee("emp-1", "Dana", "Controller", "bu-001", d("25000000"), march)
	e.Allocation.Records = []allocation.Record{
		{RecipientID: "bu-001", Method: allocation.Percentage, Value: d("60")},
		{RecipientID: "bu-002", Method: allocation.Percentage, Value: d("40")},
	}
	calc := allocation.Calculator{}

	// WHEN: Distributing the salary
	dist := calc.Distribute(e.Allocation)

	// THEN: 15,000,000 and 10,000,000, complete
	require.Len(t, dist.Shares, 2)
	assert.True(t, dist.Shares[0].Amount.Equal(d("15000000")))
	assert.True(t, dist.Shares[1].Amount.Equal(d("10000000")))
	assert.True(t, calc.Completeness(e.Allocation).IsComplete)
	assert.NoError(t, e.Validate())
}

func TestEmployee_MixedMethodsAllowed(t *testing.T) {
	dir := allocation.NewStaticDirectory(
		allocation.Recipient{ID: "bu-001", Name: "Retail"},
		allocation.Recipient{ID: "bu-002", Name: "Wholesale"},
	)
	e := payroll.NewEmployee("emp-1", "Dana", "Controller", "bu-001", d("22000"), march)
	editor := payroll.Editor(dir)

	set, err := editor.Add(e.Allocation, "bu-001", allocation.Percentage)
	require.NoError(t, err)
	set, err = editor.Add(set, "bu-002", allocation.DayCount)
	require.NoError(t, err)

	assert.Len(t, set.Methods(), 2)
	assert.Equal(t, "Wholesale", set.Records[1].RecipientName)
}

func TestEmployee_WithSalaryMovesPool(t *testing.T) {
	e := payroll.NewEmployee("emp-1", "Dana", "Controller", "bu-001", d("100"), march)
	raised := e.WithSalary(d("120"))

	assert.True(t, raised.Allocation.PoolAmount.Equal(d("120")))
	assert.NoError(t, raised.Validate())

	drifted := e
	drifted.BaseSalary = d("130")
	assert.ErrorIs(t, drifted.Validate(), payroll.ErrInvalidEmployee)
}

func TestSalaryCostByUnit(t *testing.T) {
	split := payroll.NewEmployee("emp-1", "Dana", "Controller", "bu-001", d("25000000"), march)
	split.Allocation.Records = []allocation.Record{
		{RecipientID: "bu-001", Method: allocation.Percentage, Value: d("60")},
		{RecipientID: "bu-002", Method: allocation.Percentage, Value: d("40")},
	}
	days := payroll.NewEmployee("emp-2", "Lee", "Analyst", "bu-002", d("22000"), march)
	days.Allocation.Records = []allocation.Record{
		{RecipientID: "bu-002", Method: allocation.DayCount, Value: d("11")},
	}
	unallocated := payroll.NewEmployee("emp-3", "Sam", "Clerk", "bu-003", d("5000"), march)

	by := payroll.SalaryCostByUnit([]payroll.Employee{split, days, unallocated}, allocation.Calculator{WorkingDays: 22})

	assert.True(t, by["bu-001"].Equal(d("15000000")))
	assert.True(t, by["bu-002"].Equal(d("10011000")), "got %s", by["bu-002"])
	assert.True(t, by["bu-003"].Equal(d("5000")), "unallocated salary goes to the home unit")
	assert.True(t, payroll.TotalSalaries([]payroll.Employee{split, days, unallocated}).Equal(d("25027000")))
}
