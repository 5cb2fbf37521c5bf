package report_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/unit-finance/allocation"
	"github.com/warp/unit-finance/costs"
	"github.com/warp/unit-finance/kpi"
	"github.com/warp/unit-finance/payroll"
	"github.com/warp/unit-finance/report"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var march = allocation.NewPeriod(2025, 3)

func assertDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	assert.Truef(t, d(want).Equal(got), "%s: want %s, got %s", field, want, got)
}

func fixture() report.Inputs {
	rent := costs.NewFixedCost("fc-1", "Rent", costs.CategoryRent, d("1000"), march)
	rent.Allocation.Records = []allocation.Record{
		{RecipientID: "bu-001", Method: allocation.Percentage, Value: d("60")},
		{RecipientID: "bu-002", Method: allocation.Percentage, Value: d("40")},
	}
	it := costs.NewFixedCost("fc-2", "IT", costs.CategorySoftware, d("500"), march)
	it.Allocation.Records = []allocation.Record{
		{RecipientID: "bu-001", Method: allocation.FixedAmount, Value: d("300")},
	}
	dana := payroll.NewEmployee("emp-1", "Dana", "Controller", "bu-001", d("2000"), march)
	dana.Allocation.Records = []allocation.Record{
		{RecipientID: "bu-001", Method: allocation.Percentage, Value: d("50")},
		{RecipientID: "bu-002", Method: allocation.Percentage, Value: d("50")},
	}

	return report.Inputs{
		Units: []report.BusinessUnit{
			{ID: "bu-001", Name: "Retail", Active: true},
			{ID: "bu-002", Name: "Wholesale", Active: true},
		},
		Revenue: []report.RevenueSource{
			{BusinessUnitID: "bu-001", Amount: d("5000"), PeriodMonth: 3, PeriodYear: 2025},
			{BusinessUnitID: "bu-001", Amount: d("1000"), PeriodMonth: 3, PeriodYear: 2025},
			{BusinessUnitID: "bu-001", Amount: d("99999"), PeriodMonth: 4, PeriodYear: 2025}, // other period
		},
		VariableCosts: []costs.VariableCost{
			{BusinessUnitID: "bu-002", Name: "Freight", Amount: d("100"), PeriodMonth: 3, PeriodYear: 2025},
		},
		FixedCosts: []costs.FixedCost{rent, it},
		Employees:  []payroll.Employee{dana},
		KPIs: []kpi.KPI{
			{BusinessUnitID: "bu-001", TargetValue: d("5000000000"), ActualValue: d("5200000000"), PeriodMonth: 3, PeriodYear: 2025},
			{BusinessUnitID: "bu-001", TargetValue: d("4500000000"), ActualValue: d("4300000000"), PeriodMonth: 3, PeriodYear: 2025},
		},
	}
}

func TestBuild_UnitSummaries(t *testing.T) {
	// GIVEN: Two units with revenue, costs, a salary and KPIs for March
	// WHEN: Building the March dashboard
	dash := report.Builder{}.Build(march, fixture())

	// THEN: Costs land on units according to their allocations
	require.Len(t, dash.Units, 2)

	retail := dash.Units[0]
	assert.Equal(t, "Retail", retail.Unit.Name)
	assertDecimal(t, "6000", retail.Revenue, "revenue")
	assertDecimal(t, "0", retail.VariableCost, "variable")
	assertDecimal(t, "900", retail.FixedCost, "fixed") // 600 rent + 300 IT
	assertDecimal(t, "1000", retail.SalaryCost, "salary")
	assertDecimal(t, "1900", retail.TotalCost, "total")
	assertDecimal(t, "4100", retail.Profit, "profit")
	require.NotNil(t, retail.Margin)
	assert.Equal(t, "68.33", retail.Margin.StringFixed(2))
	assert.Equal(t, 1, retail.KPIs[kpi.StatusAchieved])
	assert.Equal(t, 1, retail.KPIs[kpi.StatusOnTrack])

	wholesale := dash.Units[1]
	assertDecimal(t, "0", wholesale.Revenue, "revenue")
	assertDecimal(t, "1500", wholesale.TotalCost, "total") // 100 + 400 + 1000
	assertDecimal(t, "-1500", wholesale.Profit, "profit")
	assert.Nil(t, wholesale.Margin, "no revenue, no margin")
}

func TestBuild_TotalsAndUnattributed(t *testing.T) {
	dash := report.Builder{}.Build(march, fixture())

	assertDecimal(t, "6000", dash.Totals.Revenue, "revenue")
	assertDecimal(t, "3400", dash.Totals.TotalCost, "total cost")
	assertDecimal(t, "2600", dash.Totals.Profit, "profit")
	// 200 of the IT cost is not allocated to anyone.
	assertDecimal(t, "200", dash.Totals.Unattributed, "unattributed")
}

func TestBuild_IncompleteAllocations(t *testing.T) {
	dash := report.Builder{}.Build(march, fixture())

	require.Len(t, dash.IncompleteAllocations, 1)
	w := dash.IncompleteAllocations[0]
	assert.Equal(t, allocation.Owner{Kind: allocation.OwnerFixedCost, ID: "fc-2"}, w.Owner)
	assert.Equal(t, "IT", w.Name)
	assertDecimal(t, "0.6", w.Completeness.CoveredFraction, "covered")
}

func TestIncompleteAllocations_MixedEmployee(t *testing.T) {
	balanced := payroll.NewEmployee("emp-1", "Dana", "", "bu-001", d("2200"), march)
	balanced.Allocation.Records = []allocation.Record{
		{RecipientID: "bu-001", Method: allocation.Percentage, Value: d("50")},
		{RecipientID: "bu-002", Method: allocation.DayCount, Value: d("11")},
	}
	short := payroll.NewEmployee("emp-2", "Lee", "", "bu-001", d("2200"), march)
	short.Allocation.Records = []allocation.Record{
		{RecipientID: "bu-001", Method: allocation.Percentage, Value: d("50")},
		{RecipientID: "bu-002", Method: allocation.DayCount, Value: d("5")},
	}

	warnings := report.Builder{}.IncompleteAllocations(march, report.Inputs{
		Employees: []payroll.Employee{short, balanced},
	})

	require.Len(t, warnings, 1)
	assert.Equal(t, "Lee", warnings[0].Name)
	assert.True(t, warnings[0].Completeness.Mixed)
}

func TestBuild_EmptyPeriod(t *testing.T) {
	dash := report.Builder{}.Build(allocation.NewPeriod(2030, 1), fixture())

	require.Len(t, dash.Units, 2)
	assertDecimal(t, "0", dash.Units[0].Revenue, "revenue")
	assert.Nil(t, dash.Totals.Margin)
	assert.Empty(t, dash.IncompleteAllocations)
}

func TestDirectory(t *testing.T) {
	dir := report.Directory([]report.BusinessUnit{{ID: "bu-002", Name: "Wholesale"}, {ID: "bu-001", Name: "Retail"}})

	first, ok := allocation.First(dir)
	require.True(t, ok)
	assert.Equal(t, allocation.RecipientID("bu-002"), first.ID)
}
