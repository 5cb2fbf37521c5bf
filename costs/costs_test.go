package costs_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/unit-finance/allocation"
	"github.com/warp/unit-finance/costs"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var march = allocation.NewPeriod(2025, 3)

func units() *allocation.StaticDirectory {
	return allocation.NewStaticDirectory(
		allocation.Recipient{ID: "bu-001", Name: "Retail"},
		allocation.Recipient{ID: "bu-002", Name: "Wholesale"},
	)
}

func TestNewFixedCost_PoolFollowsAmount(t *testing.T) {
	c := costs.NewFixedCost("fc-1", "Office rent", costs.CategoryRent, d("150000000"), march)

	assert.True(t, c.Allocation.PoolAmount.Equal(d("150000000")))
	assert.Equal(t, 3, c.Allocation.PeriodMonth)
	assert.True(t, c.Allocation.IsEmpty())

	repriced := c.Reprice(d("160000000"))
	assert.True(t, repriced.Allocation.PoolAmount.Equal(d("160000000")))
	assert.True(t, c.Allocation.PoolAmount.Equal(d("150000000")), "original untouched")
}

func TestFixedCost_SingleMethodRule(t *testing.T) {
	// GIVEN: A fixed cost allocated by percentage
	c := costs.NewFixedCost("fc-1", "Licences", costs.CategorySoftware, d("1000"), march)
	editor := costs.Editor(units())

	set, err := editor.Add(c.Allocation, "bu-001", allocation.Percentage)
	require.NoError(t, err)
	set, err = editor.Add(set, "bu-002", "")
	require.NoError(t, err)
	assert.Equal(t, allocation.Percentage, set.Records[1].Method)

	// WHEN: Adding a fixed-amount record
	_, err = editor.Add(set, "bu-002", allocation.FixedAmount)

	// THEN: Rejected; switching the whole set works
	assert.ErrorIs(t, err, allocation.ErrMixedMethods)

	switched, err := editor.SwitchMethod(set, allocation.FixedAmount)
	require.NoError(t, err)
	c.Allocation = switched
	assert.NoError(t, c.Validate())
}

func TestFixedCost_ValidateRejectsMixedSet(t *testing.T) {
	c := costs.NewFixedCost("fc-1", "Rent", costs.CategoryRent, d("1000"), march)
	c.Allocation.Records = []allocation.Record{
		{RecipientID: "bu-001", Method: allocation.Percentage, Value: d("50")},
		{RecipientID: "bu-002", Method: allocation.FixedAmount, Value: d("500")},
	}

	err := c.Validate()
	assert.ErrorIs(t, err, costs.ErrInvalidCost)
	assert.ErrorIs(t, err, allocation.ErrMixedMethods)
}

func TestFixedCost_Normalize(t *testing.T) {
	c := costs.FixedCost{Name: "Rent", Amount: d("700"), PeriodMonth: 4, PeriodYear: 2025}
	n := c.Normalize()
	assert.True(t, n.Allocation.PoolAmount.Equal(d("700")))
	assert.Equal(t, allocation.NewPeriod(2025, 4), n.Allocation.Period())
	assert.NotNil(t, n.Allocation.Records)
}

func TestVariableCost_Validate(t *testing.T) {
	ok := costs.VariableCost{Name: "Shipping", BusinessUnitID: "bu-001", Amount: d("10"), PeriodMonth: 3, PeriodYear: 2025}
	assert.NoError(t, ok.Validate())

	noUnit := ok
	noUnit.BusinessUnitID = ""
	assert.ErrorIs(t, noUnit.Validate(), costs.ErrInvalidCost)

	negative := ok
	negative.Amount = d("-1")
	assert.ErrorIs(t, negative.Validate(), allocation.ErrNegativeValue)
}

func TestAllocatedByUnit(t *testing.T) {
	// GIVEN: Scenario 1 (150M at 30/40/20/10) and scenario 2 (55M of 80M fixed amounts)
	rent := costs.NewFixedCost("fc-1", "Rent", costs.CategoryRent, d("150000000"), march)
	rent.Allocation.Records = []allocation.Record{
		{RecipientID: "bu-001", Method: allocation.Percentage, Value: d("30")},
		{RecipientID: "bu-002", Method: allocation.Percentage, Value: d("40")},
		{RecipientID: "bu-003", Method: allocation.Percentage, Value: d("20")},
		{RecipientID: "bu-005", Method: allocation.Percentage, Value: d("10")},
	}
	it := costs.NewFixedCost("fc-2", "IT", costs.CategorySoftware, d("80000000"), march)
	it.Allocation.Records = []allocation.Record{
		{RecipientID: "bu-001", Method: allocation.FixedAmount, Value: d("25000000")},
		{RecipientID: "bu-002", Method: allocation.FixedAmount, Value: d("30000000")},
	}

	// WHEN
	by := costs.AllocatedByUnit([]costs.FixedCost{rent, it}, allocation.Calculator{})

	// THEN: Only the allocated part of the IT cost lands on units
	assert.True(t, by["bu-001"].Equal(d("70000000")), "got %s", by["bu-001"])
	assert.True(t, by["bu-002"].Equal(d("90000000")), "got %s", by["bu-002"])
	assert.True(t, by["bu-003"].Equal(d("30000000")))
	assert.True(t, by["bu-005"].Equal(d("15000000")))
	assert.True(t, costs.Total([]costs.FixedCost{rent, it}).Equal(d("230000000")))
}

func TestVariableByUnit(t *testing.T) {
	by := costs.VariableByUnit([]costs.VariableCost{
		{BusinessUnitID: "bu-001", Amount: d("10")},
		{BusinessUnitID: "bu-001", Amount: d("5.5")},
		{BusinessUnitID: "bu-002", Amount: d("1")},
	})
	assert.True(t, by["bu-001"].Equal(d("15.5")))
	assert.True(t, by["bu-002"].Equal(d("1")))
}
