/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with data for
	demos and end-to-end checks. Every scenario works on five business
	units and the period 2025-01.

AVAILABLE SCENARIOS:

	full-percentage:       150,000,000 rent split 30/40/20/10 (complete)
	partial-fixed-amount:  80,000,000 software cost, 55,000,000 allocated (68.75%)
	employee-split:        25,000,000 salary split 60/40
	kpi-achievement:       Sales KPIs at 104% (achieved) and 95.56% (on track)
	full-month:            All of the above plus revenue, variable costs, a
	                       day-count employee and a KPI without target

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create business units
 3. Create the scenario's costs, employees, revenue and KPIs

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "full-percentage"}

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: ResetDatabase
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"
	"github.com/warp/unit-finance/allocation"
	"github.com/warp/unit-finance/costs"
	"github.com/warp/unit-finance/kpi"
	"github.com/warp/unit-finance/payroll"
	"github.com/warp/unit-finance/report"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarioPeriod = allocation.NewPeriod(2025, 1)

var scenarios = []ScenarioDTO{
	{
		ID:          "full-percentage",
		Name:        "Full Percentage Allocation",
		Description: "Head office rent of 150,000,000 split 30/40/20/10 across four units",
	},
	{
		ID:          "partial-fixed-amount",
		Name:        "Partial Fixed Amount Allocation",
		Description: "Software licences of 80,000,000 with only 55,000,000 allocated",
	},
	{
		ID:          "employee-split",
		Name:        "Employee Salary Split",
		Description: "A 25,000,000 salary charged 60% to Retail and 40% to Wholesale",
	},
	{
		ID:          "kpi-achievement",
		Name:        "KPI Achievement",
		Description: "Sales targets met at 104% and nearly met at 95.56%",
	},
	{
		ID:          "full-month",
		Name:        "Full Month",
		Description: "Every scenario together with revenue and variable costs for a complete dashboard",
	},
}

func init() {
	for i := range scenarios {
		scenarios[i].Period = scenarioPeriod.String()
	}
}

var scenarioUnits = []report.BusinessUnit{
	{ID: "bu-001", Name: "Retail", Code: "RTL", Manager: "A. Pratama", Active: true},
	{ID: "bu-002", Name: "Wholesale", Code: "WHS", Manager: "B. Santoso", Active: true},
	{ID: "bu-003", Name: "Online", Code: "ONL", Manager: "C. Wijaya", Active: true},
	{ID: "bu-004", Name: "Logistics", Code: "LOG", Manager: "D. Halim", Active: true},
	{ID: "bu-005", Name: "Corporate", Code: "CRP", Manager: "E. Kusuma", Active: true},
}

// ListScenarios returns available scenarios.
// GET /api/scenarios
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
// GET /api/scenarios/current
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	current := h.scenario()
	if current == "" {
		writeJSON(w, http.StatusOK, nil)
		return
	}
	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, ScenarioDTO{ID: current, Name: current})
}

// LoadScenario resets the database and loads a predefined scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ScenarioID string `json:"scenario_id"`
	}
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, "Invalid request body", err)
		return
	}

	var loaders []func(context.Context) error
	switch req.ScenarioID {
	case "full-percentage":
		loaders = append(loaders, h.loadFullPercentageScenario)
	case "partial-fixed-amount":
		loaders = append(loaders, h.loadPartialFixedAmountScenario)
	case "employee-split":
		loaders = append(loaders, h.loadEmployeeSplitScenario)
	case "kpi-achievement":
		loaders = append(loaders, h.loadKPIAchievementScenario)
	case "full-month":
		loaders = append(loaders,
			h.loadFullPercentageScenario,
			h.loadPartialFixedAmountScenario,
			h.loadEmployeeSplitScenario,
			h.loadKPIAchievementScenario,
			h.loadFullMonthExtras,
		)
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	ctx := r.Context()
	if err := h.Store.Reset(ctx); err != nil {
		h.handleError(w, r, "Failed to reset database", err)
		return
	}
	h.setScenario("")

	loaders = append([]func(context.Context) error{h.loadScenarioUnits}, loaders...)
	for _, load := range loaders {
		if err := load(ctx); err != nil {
			h.handleError(w, r, fmt.Sprintf("Failed to load scenario %s", req.ScenarioID), err)
			return
		}
	}

	h.setScenario(req.ScenarioID)
	h.Log.Info().Str("scenario", req.ScenarioID).Msg("scenario loaded")
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// =============================================================================
// SCENARIO LOADERS
// =============================================================================

func (h *Handler) loadScenarioUnits(ctx context.Context) error {
	for _, u := range scenarioUnits {
		if err := h.Store.SaveBusinessUnit(ctx, u); err != nil {
			return err
		}
	}
	return nil
}

func (h *Handler) loadFullPercentageScenario(ctx context.Context) error {
	rent := costs.NewFixedCost("fc-rent", "Head office rent", costs.CategoryRent, millions(150), scenarioPeriod)
	rent.Allocation.Records = []allocation.Record{
		record("bu-001", allocation.Percentage, 30),
		record("bu-002", allocation.Percentage, 40),
		record("bu-003", allocation.Percentage, 20),
		record("bu-005", allocation.Percentage, 10),
	}
	return h.saveScenarioFixedCost(ctx, rent)
}

func (h *Handler) loadPartialFixedAmountScenario(ctx context.Context) error {
	software := costs.NewFixedCost("fc-software", "Software licences", costs.CategorySoftware, millions(80), scenarioPeriod)
	software.Allocation.Records = []allocation.Record{
		{RecipientID: "bu-001", Method: allocation.FixedAmount, Value: millions(25)},
		{RecipientID: "bu-002", Method: allocation.FixedAmount, Value: millions(30)},
	}
	return h.saveScenarioFixedCost(ctx, software)
}

func (h *Handler) loadEmployeeSplitScenario(ctx context.Context) error {
	e := payroll.NewEmployee("emp-001", "Finance Manager", "Manager", "bu-001", millions(25), scenarioPeriod)
	e.Allocation.Records = []allocation.Record{
		record("bu-001", allocation.Percentage, 60),
		record("bu-002", allocation.Percentage, 40),
	}
	return h.saveScenarioEmployee(ctx, e)
}

func (h *Handler) loadKPIAchievementScenario(ctx context.Context) error {
	kpis := []kpi.KPI{
		scenarioKPI("kpi-retail-sales", "bu-001", "Monthly sales", millions(5000), millions(5200)),
		scenarioKPI("kpi-wholesale-sales", "bu-002", "Monthly sales", millions(4500), millions(4300)),
	}
	for _, k := range kpis {
		if err := h.Store.SaveKPI(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// loadFullMonthExtras adds revenue, variable costs, a day-count employee
// and a KPI without target on top of the other scenarios.
func (h *Handler) loadFullMonthExtras(ctx context.Context) error {
	revenue := []report.RevenueSource{
		scenarioRevenue("rev-retail", "bu-001", "Store sales", millions(5200)),
		scenarioRevenue("rev-wholesale", "bu-002", "Distributor orders", millions(4300)),
		scenarioRevenue("rev-online", "bu-003", "Marketplace", millions(900)),
	}
	for _, rs := range revenue {
		if err := h.Store.SaveRevenueSource(ctx, rs); err != nil {
			return err
		}
	}

	variable := []costs.VariableCost{
		scenarioVariableCost("vc-retail-stock", "bu-001", "Stock purchases", costs.CategoryMaterials, millions(3100)),
		scenarioVariableCost("vc-wholesale-freight", "bu-002", "Freight", costs.CategoryLogistics, millions(2600)),
		scenarioVariableCost("vc-online-ads", "bu-003", "Online ads", costs.CategoryMarketing, millions(350)),
	}
	for _, c := range variable {
		if err := h.Store.SaveVariableCost(ctx, c); err != nil {
			return err
		}
	}

	driver := payroll.NewEmployee("emp-002", "Delivery Driver", "Driver", "bu-004", millions(22), scenarioPeriod)
	driver.Allocation.Records = []allocation.Record{
		record("bu-004", allocation.DayCount, 14),
		record("bu-003", allocation.DayCount, 8),
	}
	if err := h.saveScenarioEmployee(ctx, driver); err != nil {
		return err
	}

	nps := scenarioKPI("kpi-online-nps", "bu-003", "Net promoter score", decimal.Zero, decimal.NewFromInt(42))
	nps.Unit = "points"
	nps.Status = kpi.StatusOnTrack
	return h.Store.SaveKPI(ctx, nps)
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) saveScenarioFixedCost(ctx context.Context, c costs.FixedCost) error {
	if err := c.Validate(); err != nil {
		return err
	}
	return h.Store.SaveFixedCost(ctx, c)
}

func (h *Handler) saveScenarioEmployee(ctx context.Context, e payroll.Employee) error {
	if err := e.Validate(); err != nil {
		return err
	}
	return h.Store.SaveEmployee(ctx, e)
}

func millions(n int64) decimal.Decimal {
	return decimal.NewFromInt(n).Mul(decimal.NewFromInt(1_000_000))
}

func record(id string, m allocation.Method, value int64) allocation.Record {
	return allocation.Record{RecipientID: allocation.RecipientID(id), Method: m, Value: decimal.NewFromInt(value)}
}

func scenarioKPI(id, unit, name string, target, actual decimal.Decimal) kpi.KPI {
	return kpi.KPI{
		ID:             id,
		BusinessUnitID: unit,
		Name:           name,
		Unit:           "IDR",
		TargetValue:    target,
		ActualValue:    actual,
		PeriodMonth:    int(scenarioPeriod.Month),
		PeriodYear:     scenarioPeriod.Year,
	}
}

func scenarioRevenue(id, unit, name string, amount decimal.Decimal) report.RevenueSource {
	return report.RevenueSource{
		ID:             id,
		BusinessUnitID: unit,
		Name:           name,
		Amount:         amount,
		PeriodMonth:    int(scenarioPeriod.Month),
		PeriodYear:     scenarioPeriod.Year,
	}
}

func scenarioVariableCost(id, unit, name string, cat costs.Category, amount decimal.Decimal) costs.VariableCost {
	return costs.VariableCost{
		ID:             id,
		BusinessUnitID: unit,
		Name:           name,
		Category:       cat,
		Amount:         amount,
		PeriodMonth:    int(scenarioPeriod.Month),
		PeriodYear:     scenarioPeriod.Year,
	}
}
