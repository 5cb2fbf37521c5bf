package sqlite_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/unit-finance/allocation"
	"github.com/warp/unit-finance/costs"
	"github.com/warp/unit-finance/kpi"
	"github.com/warp/unit-finance/payroll"
	"github.com/warp/unit-finance/report"
	"github.com/warp/unit-finance/store/sqlite"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var march = allocation.NewPeriod(2025, 3)

func newStore(t *testing.T) *sqlite.Store {
	t.Helper()
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedUnits(t *testing.T, store *sqlite.Store) {
	t.Helper()
	ctx := context.Background()
	for _, u := range []report.BusinessUnit{
		{ID: "bu-001", Name: "Retail", Code: "RET", Active: true},
		{ID: "bu-002", Name: "Wholesale", Code: "WHS", Active: true},
		{ID: "bu-009", Name: "Closed Shop", Code: "OLD", Active: false},
	} {
		require.NoError(t, store.SaveBusinessUnit(ctx, u))
	}
}

// =============================================================================
// ENTITY CRUD
// =============================================================================

func TestBusinessUnits_CRUD(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	seedUnits(t, store)

	u, err := store.GetBusinessUnit(ctx, "bu-002")
	require.NoError(t, err)
	assert.Equal(t, "Wholesale", u.Name)
	assert.True(t, u.Active)

	u.Manager = "Kim"
	require.NoError(t, store.SaveBusinessUnit(ctx, u))
	u, err = store.GetBusinessUnit(ctx, "bu-002")
	require.NoError(t, err)
	assert.Equal(t, "Kim", u.Manager)

	require.NoError(t, store.DeleteBusinessUnit(ctx, "bu-002"))
	_, err = store.GetBusinessUnit(ctx, "bu-002")
	assert.ErrorIs(t, err, allocation.ErrNotFound)
	assert.ErrorIs(t, store.DeleteBusinessUnit(ctx, "bu-002"), allocation.ErrNotFound)
}

func TestDirectory_ActiveUnitsInIDOrder(t *testing.T) {
	store := newStore(t)
	seedUnits(t, store)

	dir, err := store.Directory(context.Background())
	require.NoError(t, err)

	recipients := dir.Recipients()
	require.Len(t, recipients, 2)
	assert.Equal(t, allocation.RecipientID("bu-001"), recipients[0].ID)
	_, ok := dir.Name("bu-009")
	assert.False(t, ok, "inactive units are not allocation recipients")
}

func TestFixedCost_RoundTripWithAllocation(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	// GIVEN: A fixed cost with a percentage allocation
	c := costs.NewFixedCost("fc-1", "Office rent", costs.CategoryRent, d("150000000"), march)
	c.Allocation.Records = []allocation.Record{
		{RecipientID: "bu-001", Method: allocation.Percentage, Value: d("30")},
		{RecipientID: "bu-002", Method: allocation.Percentage, Value: d("70")},
	}
	require.NoError(t, store.SaveFixedCost(ctx, c))

	// WHEN: Loading it back
	got, err := store.GetFixedCost(ctx, "fc-1")
	require.NoError(t, err)

	// THEN: Amount, category and allocation survive exactly
	assert.Equal(t, "Office rent", got.Name)
	assert.Equal(t, costs.CategoryRent, got.Category)
	assert.True(t, got.Amount.Equal(d("150000000")))
	assert.True(t, got.Allocation.PoolAmount.Equal(d("150000000")))
	assert.Equal(t, march, got.Allocation.Period())
	require.Len(t, got.Allocation.Records, 2)
	assert.True(t, got.Allocation.Records[1].Value.Equal(d("70")))
}

func TestEmployee_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	e := payroll.NewEmployee("emp-1", "Dana", "Controller", "bu-001", d("25000000"), march)
	e.Allocation.Records = []allocation.Record{
		{RecipientID: "bu-001", Method: allocation.Percentage, Value: d("60")},
		{RecipientID: "bu-002", Method: allocation.DayCount, Value: d("8.5")},
	}
	require.NoError(t, store.SaveEmployee(ctx, e))

	got, err := store.GetEmployee(ctx, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, "Controller", got.Position)
	assert.True(t, got.BaseSalary.Equal(d("25000000")))
	require.Len(t, got.Allocation.Records, 2)
	assert.Equal(t, allocation.DayCount, got.Allocation.Records[1].Method)
	assert.True(t, got.Allocation.Records[1].Value.Equal(d("8.5")))

	require.NoError(t, store.DeleteEmployee(ctx, "emp-1"))
	_, err = store.LoadSet(ctx, e.Owner())
	assert.ErrorIs(t, err, allocation.ErrNotFound, "set is deleted with its owner")
}

func TestKPI_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	k := kpi.KPI{
		ID: "kpi-1", BusinessUnitID: "bu-001", Name: "Revenue", Unit: "IDR",
		TargetValue: d("5000000000"), ActualValue: d("5200000000"),
		PeriodMonth: 3, PeriodYear: 2025, Status: kpi.StatusMissed,
	}
	require.NoError(t, store.SaveKPI(ctx, k))

	got, err := store.GetKPI(ctx, "kpi-1")
	require.NoError(t, err)
	assert.Equal(t, kpi.StatusMissed, got.Status)
	assert.True(t, got.ActualValue.Equal(k.ActualValue))
}

// =============================================================================
// QUERY FILTERS
// =============================================================================

func TestListRevenueSources_Filters(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	for _, r := range []report.RevenueSource{
		{ID: "r1", BusinessUnitID: "bu-001", Name: "Store sales", Amount: d("900"), PeriodMonth: 3, PeriodYear: 2025},
		{ID: "r2", BusinessUnitID: "bu-001", Name: "Online sales", Amount: d("10000"), PeriodMonth: 3, PeriodYear: 2025},
		{ID: "r3", BusinessUnitID: "bu-002", Name: "Bulk sales", Amount: d("5000"), PeriodMonth: 3, PeriodYear: 2025},
		{ID: "r4", BusinessUnitID: "bu-001", Name: "Store sales", Amount: d("700"), PeriodMonth: 4, PeriodYear: 2025},
	} {
		require.NoError(t, store.SaveRevenueSource(ctx, r))
	}

	t.Run("period and unit", func(t *testing.T) {
		q := sqlite.Query{}.Filter(sqlite.InPeriod(march)...).Filter(sqlite.Eq("business_unit_id", "bu-001"))
		list, err := store.ListRevenueSources(ctx, q)
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("numeric ordering on decimal text", func(t *testing.T) {
		list, err := store.ListRevenueSources(ctx, sqlite.Query{OrderBy: "amount", Desc: true})
		require.NoError(t, err)
		require.Len(t, list, 4)
		assert.Equal(t, "r2", list[0].ID, "10000 sorts above 900")
		assert.Equal(t, "r4", list[3].ID)
	})

	t.Run("range", func(t *testing.T) {
		list, err := store.ListRevenueSources(ctx, sqlite.Query{Where: []sqlite.Cond{sqlite.Gte("amount", 900), sqlite.Lte("amount", 5000)}})
		require.NoError(t, err)
		assert.Len(t, list, 2)
	})

	t.Run("like and paging", func(t *testing.T) {
		list, err := store.ListRevenueSources(ctx, sqlite.Query{
			Where:   []sqlite.Cond{sqlite.Like("name", "store")},
			OrderBy: "amount",
			Limit:   1,
			Offset:  1,
		})
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "r1", list[0].ID)
	})

	t.Run("unknown column", func(t *testing.T) {
		_, err := store.ListRevenueSources(ctx, sqlite.Query{Where: []sqlite.Cond{sqlite.Eq("password", "x")}})
		assert.ErrorIs(t, err, sqlite.ErrInvalidQuery)

		_, err = store.ListRevenueSources(ctx, sqlite.Query{OrderBy: "amount; DROP TABLE kpis"})
		assert.ErrorIs(t, err, sqlite.ErrInvalidQuery)
	})
}

func TestLike_WildcardsMatchLiterally(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	for _, u := range []report.BusinessUnit{
		{ID: "bu-001", Name: "50% Outlet", Code: "A", Active: true},
		{ID: "bu-002", Name: "500 Outlet", Code: "B", Active: true},
		{ID: "bu-003", Name: "North_East", Code: "C", Active: true},
		{ID: "bu-004", Name: "NorthXEast", Code: "D", Active: true},
		{ID: "bu-005", Name: `Back\Office`, Code: "E", Active: true},
	} {
		require.NoError(t, store.SaveBusinessUnit(ctx, u))
	}

	for substr, want := range map[string]string{
		"0%":      "bu-001",
		"h_E":     "bu-003",
		`k\O`:    "bu-005",
		"outlet%": "",
	} {
		list, err := store.ListBusinessUnits(ctx, sqlite.Query{Where: []sqlite.Cond{sqlite.Like("name", substr)}})
		require.NoError(t, err, substr)
		if want == "" {
			assert.Empty(t, list, substr)
			continue
		}
		require.Len(t, list, 1, substr)
		assert.Equal(t, want, list[0].ID, substr)
	}
}

// =============================================================================
// ALLOCATION STORE
// =============================================================================

func TestAllocationStore_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	c := costs.NewFixedCost("fc-1", "IT", costs.CategorySoftware, d("80000000"), march)
	require.NoError(t, store.SaveFixedCost(ctx, c))

	// GIVEN: The empty set loaded through the owner
	set, err := store.LoadSet(ctx, c.Owner())
	require.NoError(t, err)
	assert.True(t, set.IsEmpty())

	// WHEN: Saving two fixed-amount records
	set = allocation.AddRecord(set, "bu-001", allocation.FixedAmount)
	set, err = allocation.UpdateRecord(set, 0, allocation.SetValue(d("25000000")))
	require.NoError(t, err)
	set = allocation.AddRecord(set, "bu-002", allocation.FixedAmount)
	set, err = allocation.UpdateRecord(set, 1, allocation.SetValue(d("30000000")))
	require.NoError(t, err)
	require.NoError(t, store.SaveSet(ctx, c.Owner(), set))

	// THEN: Completeness of the stored set is 0.6875
	loaded, err := store.LoadSet(ctx, c.Owner())
	require.NoError(t, err)
	comp := allocation.Calculator{}.Completeness(loaded)
	assert.True(t, comp.CoveredFraction.Equal(d("0.6875")))
	assert.False(t, comp.IsComplete)
}

func TestAllocationStore_PoolFollowsOwner(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	c := costs.NewFixedCost("fc-1", "IT", costs.CategorySoftware, d("100"), march)
	require.NoError(t, store.SaveFixedCost(ctx, c))

	// A set saved with a stale pool still loads with the owner's amount.
	require.NoError(t, store.SaveSet(ctx, c.Owner(), allocation.NewSet(d("1"), march)))
	set, err := store.LoadSet(ctx, c.Owner())
	require.NoError(t, err)
	assert.True(t, set.PoolAmount.Equal(d("100")))
}

func TestAllocationStore_Errors(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	missing := allocation.Owner{Kind: allocation.OwnerFixedCost, ID: "nope"}

	_, err := store.LoadSet(ctx, missing)
	assert.ErrorIs(t, err, allocation.ErrNotFound)
	assert.ErrorIs(t, store.SaveSet(ctx, missing, allocation.Set{}), allocation.ErrNotFound)

	c := costs.NewFixedCost("fc-1", "IT", costs.CategorySoftware, d("100"), march)
	require.NoError(t, store.SaveFixedCost(ctx, c))
	bad := allocation.Set{Records: []allocation.Record{{RecipientID: "bu-001", Method: allocation.Percentage, Value: d("-1")}}}
	assert.ErrorIs(t, store.SaveSet(ctx, c.Owner(), bad), allocation.ErrNegativeValue)
}

func TestListSets(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	require.NoError(t, store.SaveFixedCost(ctx, costs.NewFixedCost("fc-1", "Rent", costs.CategoryRent, d("10"), march)))
	require.NoError(t, store.SaveFixedCost(ctx, costs.NewFixedCost("fc-2", "Rent", costs.CategoryRent, d("10"), march.Next())))
	require.NoError(t, store.SaveEmployee(ctx, payroll.NewEmployee("emp-1", "Dana", "", "bu-001", d("10"), march)))

	sets, err := store.ListSets(ctx, march)
	require.NoError(t, err)
	require.Len(t, sets, 2)
	assert.Equal(t, allocation.OwnerEmployee, sets[0].Owner.Kind)
	assert.Equal(t, allocation.OwnerFixedCost, sets[1].Owner.Kind)
}

// =============================================================================
// HOLIDAYS AND REPORTING
// =============================================================================

func TestCalendar(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)

	require.NoError(t, store.SaveHoliday(ctx, allocation.Holiday{
		ID: "h1", Date: time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC), Name: "Founders Day",
	}))
	require.NoError(t, store.SaveHoliday(ctx, allocation.Holiday{
		ID: "h2", Date: time.Date(2020, 3, 31, 0, 0, 0, 0, time.UTC), Name: "Anniversary", Recurring: true,
	}))

	cal, err := store.Calendar(ctx)
	require.NoError(t, err)
	require.Len(t, cal.Holidays, 2)
	assert.Equal(t, 19, allocation.WorkingDays(march, cal))

	require.NoError(t, store.DeleteHoliday(ctx, "h1"))
	holidays, err := store.ListHolidays(ctx)
	require.NoError(t, err)
	assert.Len(t, holidays, 1)
}

func TestReportInputs(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	seedUnits(t, store)

	require.NoError(t, store.SaveRevenueSource(ctx, report.RevenueSource{ID: "r1", BusinessUnitID: "bu-001", Name: "Sales", Amount: d("100"), PeriodMonth: 3, PeriodYear: 2025}))
	require.NoError(t, store.SaveVariableCost(ctx, costs.VariableCost{ID: "v1", BusinessUnitID: "bu-001", Name: "Freight", Amount: d("10"), PeriodMonth: 3, PeriodYear: 2025}))
	require.NoError(t, store.SaveVariableCost(ctx, costs.VariableCost{ID: "v2", BusinessUnitID: "bu-001", Name: "Freight", Amount: d("10"), PeriodMonth: 4, PeriodYear: 2025}))

	in, err := store.ReportInputs(ctx, march)
	require.NoError(t, err)
	assert.Len(t, in.Units, 3)
	assert.Len(t, in.Revenue, 1)
	assert.Len(t, in.VariableCosts, 1)

	dash := report.Builder{}.Build(march, in)
	assert.True(t, dash.Units[0].Profit.Equal(d("90")))

	require.NoError(t, store.Reset(ctx))
	units, err := store.ListBusinessUnits(ctx, sqlite.Query{})
	require.NoError(t, err)
	assert.Empty(t, units)
}
