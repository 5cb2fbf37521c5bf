/*
Package report aggregates the dashboard numbers per business unit.

PURPOSE:
  Given everything recorded for one period (units, revenue, costs,
  employees, KPIs) the Builder computes, per business unit:

    revenue        sum of revenue sources
    variable cost  sum of the unit's variable costs
    fixed cost     share of every fixed cost allocated to the unit
    salary cost    share of every salary allocated to the unit
    total cost     variable + fixed + salary
    profit         revenue - total cost
    margin         profit / revenue in percent (nil when revenue is zero)

  Incomplete allocation sets are listed as warnings. They never block the
  report: an incomplete fixed cost simply leaves part of its amount
  unattributed, which shows up in Totals.Unattributed.

SEE ALSO:
  - allocation/calculator.go: Distribution and completeness
  - api/handlers_dashboard.go: GET /api/dashboard
*/
package report

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/warp/unit-finance/allocation"
	"github.com/warp/unit-finance/costs"
	"github.com/warp/unit-finance/kpi"
	"github.com/warp/unit-finance/payroll"
)

var hundred = decimal.NewFromInt(100)

// =============================================================================
// INPUT ENTITIES
// =============================================================================

// BusinessUnit is an allocation recipient.
type BusinessUnit struct {
	ID      string
	Name    string
	Code    string
	Manager string
	Active  bool
}

// RevenueSource is revenue earned by one unit in one period.
type RevenueSource struct {
	ID             string
	BusinessUnitID string
	Name           string
	Amount         decimal.Decimal
	PeriodMonth    int
	PeriodYear     int
}

func (r RevenueSource) Period() allocation.Period {
	return allocation.NewPeriod(r.PeriodYear, r.PeriodMonth)
}

// Directory builds a recipient directory from business units, in the given order.
func Directory(units []BusinessUnit) *allocation.StaticDirectory {
	dir := allocation.NewStaticDirectory()
	for _, u := range units {
		dir.Register(allocation.Recipient{ID: allocation.RecipientID(u.ID), Name: u.Name})
	}
	return dir
}

// Inputs is everything the builder reads. Entries outside the requested
// period are ignored.
type Inputs struct {
	Units         []BusinessUnit
	Revenue       []RevenueSource
	VariableCosts []costs.VariableCost
	FixedCosts    []costs.FixedCost
	Employees     []payroll.Employee
	KPIs          []kpi.KPI
}

// =============================================================================
// OUTPUT
// =============================================================================

// UnitSummary is one dashboard row.
type UnitSummary struct {
	Unit         BusinessUnit
	Revenue      decimal.Decimal
	VariableCost decimal.Decimal
	FixedCost    decimal.Decimal
	SalaryCost   decimal.Decimal
	TotalCost    decimal.Decimal
	Profit       decimal.Decimal
	Margin       *decimal.Decimal
	KPIs         map[kpi.Status]int
}

// Totals sums every unit row. Unattributed is cost not distributed to any
// listed unit (incomplete allocations, unknown recipients).
type Totals struct {
	Revenue      decimal.Decimal
	TotalCost    decimal.Decimal
	Profit       decimal.Decimal
	Margin       *decimal.Decimal
	Unattributed decimal.Decimal
}

// AllocationWarning flags a set that does not cover its pool exactly.
type AllocationWarning struct {
	Owner        allocation.Owner
	Name         string
	Completeness allocation.Completeness
}

// Dashboard is the full report for one period.
type Dashboard struct {
	Period                allocation.Period
	Units                 []UnitSummary
	Totals                Totals
	IncompleteAllocations []AllocationWarning
}

// =============================================================================
// BUILDER
// =============================================================================

// Builder computes dashboards. The zero value uses 22 working days.
type Builder struct {
	Calculator allocation.Calculator
}

// Build returns the dashboard for period.
func (b Builder) Build(period allocation.Period, in Inputs) Dashboard {
	in = filter(period, in)
	units := b.unitSummaries(in)

	totals := Totals{Revenue: decimal.Zero, TotalCost: decimal.Zero}
	for _, u := range units {
		totals.Revenue = totals.Revenue.Add(u.Revenue)
		totals.TotalCost = totals.TotalCost.Add(u.TotalCost)
	}
	totals.Profit = totals.Revenue.Sub(totals.TotalCost)
	totals.Margin = margin(totals.Profit, totals.Revenue)

	// Cost recorded for the period but not landing on any listed unit.
	recorded := costs.Total(in.FixedCosts).Add(payroll.TotalSalaries(in.Employees))
	for _, v := range in.VariableCosts {
		recorded = recorded.Add(v.Amount)
	}
	totals.Unattributed = recorded.Sub(totals.TotalCost)

	return Dashboard{
		Period:                period,
		Units:                 units,
		Totals:                totals,
		IncompleteAllocations: b.incomplete(in),
	}
}

// UnitSummaries returns one row per business unit, in input order.
func (b Builder) UnitSummaries(period allocation.Period, in Inputs) []UnitSummary {
	return b.unitSummaries(filter(period, in))
}

// IncompleteAllocations lists every fixed cost and employee of the period
// whose allocation is not complete, ordered by owner.
func (b Builder) IncompleteAllocations(period allocation.Period, in Inputs) []AllocationWarning {
	return b.incomplete(filter(period, in))
}

func (b Builder) unitSummaries(in Inputs) []UnitSummary {
	revenue := make(map[allocation.RecipientID]decimal.Decimal)
	for _, r := range in.Revenue {
		id := allocation.RecipientID(r.BusinessUnitID)
		revenue[id] = revenue[id].Add(r.Amount)
	}
	variable := costs.VariableByUnit(in.VariableCosts)
	fixed := costs.AllocatedByUnit(in.FixedCosts, b.Calculator)
	salary := payroll.SalaryCostByUnit(in.Employees, b.Calculator)

	kpisByUnit := make(map[string][]kpi.KPI)
	for _, k := range in.KPIs {
		kpisByUnit[k.BusinessUnitID] = append(kpisByUnit[k.BusinessUnitID], k)
	}

	out := make([]UnitSummary, 0, len(in.Units))
	for _, u := range in.Units {
		id := allocation.RecipientID(u.ID)
		s := UnitSummary{
			Unit:         u,
			Revenue:      revenue[id],
			VariableCost: variable[id],
			FixedCost:    fixed[id],
			SalaryCost:   salary[id],
			KPIs:         kpi.CountByStatus(kpisByUnit[u.ID]),
		}
		s.TotalCost = s.VariableCost.Add(s.FixedCost).Add(s.SalaryCost)
		s.Profit = s.Revenue.Sub(s.TotalCost)
		s.Margin = margin(s.Profit, s.Revenue)
		out = append(out, s)
	}
	return out
}

func (b Builder) incomplete(in Inputs) []AllocationWarning {
	var out []AllocationWarning
	for _, c := range in.FixedCosts {
		if comp := b.Calculator.Completeness(c.Allocation); !comp.IsComplete {
			out = append(out, AllocationWarning{Owner: c.Owner(), Name: c.Name, Completeness: comp})
		}
	}
	for _, e := range in.Employees {
		comp := b.Calculator.Completeness(e.Allocation)
		if comp.IsComplete || comp.Status == allocation.StatusEmpty {
			continue
		}
		if comp.Mixed && mixedComplete(comp) {
			continue
		}
		out = append(out, AllocationWarning{Owner: e.Owner(), Name: e.Name, Completeness: comp})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Owner.String() < out[j].Owner.String()
	})
	return out
}

// mixedComplete treats a mixed set as complete when its distributed total
// equals the pool.
func mixedComplete(c allocation.Completeness) bool {
	return c.Variance.IsZero()
}

func margin(profit, revenue decimal.Decimal) *decimal.Decimal {
	if revenue.IsZero() {
		return nil
	}
	m := profit.Mul(hundred).Div(revenue)
	return &m
}

func filter(period allocation.Period, in Inputs) Inputs {
	out := Inputs{Units: in.Units}
	for _, r := range in.Revenue {
		if r.Period() == period {
			out.Revenue = append(out.Revenue, r)
		}
	}
	for _, c := range in.VariableCosts {
		if c.Period() == period {
			out.VariableCosts = append(out.VariableCosts, c)
		}
	}
	for _, c := range in.FixedCosts {
		if c.Period() == period {
			out.FixedCosts = append(out.FixedCosts, c)
		}
	}
	for _, e := range in.Employees {
		if e.Period() == period {
			out.Employees = append(out.Employees, e)
		}
	}
	for _, k := range in.KPIs {
		if k.Period() == period {
			out.KPIs = append(out.KPIs, k)
		}
	}
	return out
}
