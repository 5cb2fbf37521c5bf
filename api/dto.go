/*
dto.go - Data Transfer Objects for the HTTP API

PURPOSE:
  Defines the JSON shapes exchanged over HTTP. Domain types carry no JSON
  tags; everything the API renders or accepts goes through these structs.

CONVENTIONS:
  - Money and ratios are decimal.Decimal. They marshal as JSON strings
    ("45000000") and unmarshal from either strings or numbers, so no
    float rounding happens at the boundary.
  - Periods are "YYYY-MM".
  - Dates are ISO 8601 "YYYY-MM-DD".

SEE ALSO:
  - handlers.go: Error mapping and shared helpers
  - factory/allocation.go: Persisted allocation JSON (numeric values)
*/
package api

import (
	"encoding/json"

	"github.com/shopspring/decimal"
	"github.com/warp/unit-finance/allocation"
	"github.com/warp/unit-finance/costs"
	"github.com/warp/unit-finance/kpi"
	"github.com/warp/unit-finance/payroll"
	"github.com/warp/unit-finance/report"
)

// =============================================================================
// BUSINESS UNITS
// =============================================================================

// BusinessUnitDTO represents a business unit.
type BusinessUnitDTO struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	Manager string `json:"manager,omitempty"`
	Active  bool   `json:"active"`
}

// BusinessUnitRequest creates or updates a business unit. Active defaults to true.
type BusinessUnitRequest struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	Manager string `json:"manager,omitempty"`
	Active  *bool  `json:"active,omitempty"`
}

func toBusinessUnitDTO(u report.BusinessUnit) BusinessUnitDTO {
	return BusinessUnitDTO{ID: u.ID, Name: u.Name, Code: u.Code, Manager: u.Manager, Active: u.Active}
}

// =============================================================================
// ALLOCATION
// =============================================================================

// AllocationRecordDTO is one record with its computed share.
type AllocationRecordDTO struct {
	Index         int             `json:"index"`
	RecipientID   string          `json:"recipient_id"`
	RecipientName string          `json:"recipient_name"`
	Method        string          `json:"method"`
	Value         decimal.Decimal `json:"value"`
	Amount        decimal.Decimal `json:"amount"`
}

// MethodSubtotalDTO is the completeness of the records sharing one method.
type MethodSubtotalDTO struct {
	Method          string          `json:"method"`
	Count           int             `json:"count"`
	ValueSum        decimal.Decimal `json:"value_sum"`
	Distributed     decimal.Decimal `json:"distributed"`
	CoveredFraction decimal.Decimal `json:"covered_fraction"`
	IsComplete      bool            `json:"is_complete"`
}

// CompletenessDTO reports how much of the pool is covered.
type CompletenessDTO struct {
	Status          string              `json:"status"`
	Method          string              `json:"method,omitempty"`
	Mixed           bool                `json:"mixed"`
	CoveredFraction decimal.Decimal     `json:"covered_fraction"`
	IsComplete      bool                `json:"is_complete"`
	Distributed     decimal.Decimal     `json:"distributed"`
	Variance        decimal.Decimal     `json:"variance"`
	ByMethod        []MethodSubtotalDTO `json:"by_method"`
}

// AllocationDTO is an allocation set with its evaluation.
type AllocationDTO struct {
	OwnerKind    string                `json:"owner_kind"`
	OwnerID      string                `json:"owner_id"`
	PoolAmount   decimal.Decimal       `json:"pool_amount"`
	Period       string                `json:"period"`
	WorkingDays  int                   `json:"working_days"`
	Records      []AllocationRecordDTO `json:"records"`
	Remaining    decimal.Decimal       `json:"remaining"`
	Completeness CompletenessDTO       `json:"completeness"`
}

// AddRecordRequest appends a record. Empty fields take the editor defaults.
type AddRecordRequest struct {
	RecipientID string `json:"recipient_id,omitempty"`
	Method      string `json:"method,omitempty"`
}

// UpdateRecordRequest changes one field of one record.
// Field is one of "recipientId", "method", "value".
type UpdateRecordRequest struct {
	Field string          `json:"field"`
	Value json.RawMessage `json:"value"`
}

// SwitchMethodRequest changes the method of every record of a fixed cost.
type SwitchMethodRequest struct {
	Method string `json:"method"`
}

// AllocationRecordInput is a record inside an entity create/update request.
type AllocationRecordInput struct {
	RecipientID string          `json:"recipient_id"`
	Method      string          `json:"method"`
	Value       decimal.Decimal `json:"value"`
}

func toCompletenessDTO(c allocation.Completeness) CompletenessDTO {
	dto := CompletenessDTO{
		Status:          string(c.Status),
		Method:          string(c.Method),
		Mixed:           c.Mixed,
		CoveredFraction: c.CoveredFraction,
		IsComplete:      c.IsComplete,
		Distributed:     c.Distributed,
		Variance:        c.Variance,
		ByMethod:        make([]MethodSubtotalDTO, 0, len(c.ByMethod)),
	}
	for _, m := range c.ByMethod {
		dto.ByMethod = append(dto.ByMethod, MethodSubtotalDTO{
			Method:          string(m.Method),
			Count:           m.Count,
			ValueSum:        m.ValueSum,
			Distributed:     m.Distributed,
			CoveredFraction: m.CoveredFraction,
			IsComplete:      m.IsComplete,
		})
	}
	return dto
}

func toAllocationDTO(owner allocation.Owner, set allocation.Set, calc allocation.Calculator) AllocationDTO {
	dist := calc.Distribute(set)
	records := make([]AllocationRecordDTO, 0, len(dist.Shares))
	for _, sh := range dist.Shares {
		records = append(records, AllocationRecordDTO{
			Index:         sh.Index,
			RecipientID:   string(sh.RecipientID),
			RecipientName: sh.RecipientName,
			Method:        string(sh.Method),
			Value:         sh.Value,
			Amount:        sh.Amount,
		})
	}
	return AllocationDTO{
		OwnerKind:    string(owner.Kind),
		OwnerID:      owner.ID,
		PoolAmount:   set.PoolAmount,
		Period:       set.Period().String(),
		WorkingDays:  calc.WorkingDays,
		Records:      records,
		Remaining:    dist.Remaining,
		Completeness: toCompletenessDTO(calc.Completeness(set)),
	}
}

func toRecords(in []AllocationRecordInput) ([]allocation.Record, error) {
	out := make([]allocation.Record, 0, len(in))
	for _, r := range in {
		method, err := allocation.ParseMethod(r.Method)
		if err != nil {
			return nil, err
		}
		out = append(out, allocation.Record{
			RecipientID: allocation.RecipientID(r.RecipientID),
			Method:      method,
			Value:       r.Value,
		})
	}
	return out, nil
}

// =============================================================================
// EMPLOYEES
// =============================================================================

// EmployeeDTO represents an employee with the allocation of their salary.
type EmployeeDTO struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Position       string          `json:"position,omitempty"`
	BusinessUnitID string          `json:"business_unit_id,omitempty"`
	BaseSalary     decimal.Decimal `json:"base_salary"`
	Period         string          `json:"period"`
	Allocation     AllocationDTO   `json:"allocation"`
}

// EmployeeRequest creates or updates an employee. On update, empty strings,
// a missing base_salary and a nil Records keep the current values.
type EmployeeRequest struct {
	ID             string                  `json:"id,omitempty"`
	Name           string                  `json:"name"`
	Position       string                  `json:"position,omitempty"`
	BusinessUnitID string                  `json:"business_unit_id,omitempty"`
	BaseSalary     decimal.NullDecimal     `json:"base_salary"`
	Period         string                  `json:"period"`
	Records        []AllocationRecordInput `json:"records,omitempty"`
}

func toEmployeeDTO(e payroll.Employee, calc allocation.Calculator) EmployeeDTO {
	return EmployeeDTO{
		ID:             e.ID,
		Name:           e.Name,
		Position:       e.Position,
		BusinessUnitID: e.BusinessUnitID,
		BaseSalary:     e.BaseSalary,
		Period:         e.Period().String(),
		Allocation:     toAllocationDTO(e.Owner(), e.Allocation, calc),
	}
}

// =============================================================================
// COSTS
// =============================================================================

// FixedCostDTO represents a shared cost and its distribution.
type FixedCostDTO struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Category   string          `json:"category"`
	Amount     decimal.Decimal `json:"amount"`
	Period     string          `json:"period"`
	Allocation AllocationDTO   `json:"allocation"`
}

// FixedCostRequest creates or updates a fixed cost. On update, empty
// strings, a missing amount and a nil Records keep the current values.
type FixedCostRequest struct {
	ID       string                  `json:"id,omitempty"`
	Name     string                  `json:"name"`
	Category string                  `json:"category"`
	Amount   decimal.NullDecimal     `json:"amount"`
	Period   string                  `json:"period"`
	Records  []AllocationRecordInput `json:"records,omitempty"`
}

func toFixedCostDTO(c costs.FixedCost, calc allocation.Calculator) FixedCostDTO {
	return FixedCostDTO{
		ID:         c.ID,
		Name:       c.Name,
		Category:   string(c.Category),
		Amount:     c.Amount,
		Period:     c.Period().String(),
		Allocation: toAllocationDTO(c.Owner(), c.Allocation, calc),
	}
}

// VariableCostDTO represents a cost charged directly to one unit.
type VariableCostDTO struct {
	ID             string          `json:"id"`
	BusinessUnitID string          `json:"business_unit_id"`
	Name           string          `json:"name"`
	Category       string          `json:"category"`
	Amount         decimal.Decimal `json:"amount"`
	Period         string          `json:"period"`
}

// VariableCostRequest creates or replaces a variable cost.
type VariableCostRequest struct {
	ID             string              `json:"id,omitempty"`
	BusinessUnitID string              `json:"business_unit_id"`
	Name           string              `json:"name"`
	Category       string              `json:"category"`
	Amount         decimal.NullDecimal `json:"amount"`
	Period         string              `json:"period"`
}

func toVariableCostDTO(c costs.VariableCost) VariableCostDTO {
	return VariableCostDTO{
		ID:             c.ID,
		BusinessUnitID: c.BusinessUnitID,
		Name:           c.Name,
		Category:       string(c.Category),
		Amount:         c.Amount,
		Period:         c.Period().String(),
	}
}

// =============================================================================
// REVENUE AND KPIS
// =============================================================================

// RevenueSourceDTO represents revenue earned by one unit.
type RevenueSourceDTO struct {
	ID             string          `json:"id"`
	BusinessUnitID string          `json:"business_unit_id"`
	Name           string          `json:"name"`
	Amount         decimal.Decimal `json:"amount"`
	Period         string          `json:"period"`
}

// RevenueSourceRequest creates or replaces a revenue source.
type RevenueSourceRequest struct {
	ID             string              `json:"id,omitempty"`
	BusinessUnitID string              `json:"business_unit_id"`
	Name           string              `json:"name"`
	Amount         decimal.NullDecimal `json:"amount"`
	Period         string              `json:"period"`
}

func toRevenueSourceDTO(r report.RevenueSource) RevenueSourceDTO {
	return RevenueSourceDTO{
		ID:             r.ID,
		BusinessUnitID: r.BusinessUnitID,
		Name:           r.Name,
		Amount:         r.Amount,
		Period:         r.Period().String(),
	}
}

// KPIDTO represents a KPI with its achievement. AchievementRate is null
// when the target is zero; RateDisplay is then "N/A".
type KPIDTO struct {
	ID              string           `json:"id"`
	BusinessUnitID  string           `json:"business_unit_id"`
	Name            string           `json:"name"`
	Unit            string           `json:"unit,omitempty"`
	TargetValue     decimal.Decimal  `json:"target_value"`
	ActualValue     decimal.Decimal  `json:"actual_value"`
	Period          string           `json:"period"`
	Status          string           `json:"status"`
	StatusComputed  bool             `json:"status_computed"`
	AchievementRate *decimal.Decimal `json:"achievement_rate"`
	RateDisplay     string           `json:"rate_display"`
}

// KPIRequest creates or updates a KPI. Status is the manual status.
type KPIRequest struct {
	ID             string          `json:"id,omitempty"`
	BusinessUnitID string          `json:"business_unit_id"`
	Name           string          `json:"name"`
	Unit           string          `json:"unit,omitempty"`
	TargetValue    decimal.Decimal `json:"target_value"`
	ActualValue    decimal.Decimal `json:"actual_value"`
	Period         string          `json:"period"`
	Status         string          `json:"status,omitempty"`
}

func toKPIDTO(k kpi.KPI) KPIDTO {
	eval := kpi.Evaluate(k)
	dto := KPIDTO{
		ID:              k.ID,
		BusinessUnitID:  k.BusinessUnitID,
		Name:            k.Name,
		Unit:            k.Unit,
		TargetValue:     k.TargetValue,
		ActualValue:     k.ActualValue,
		Period:          k.Period().String(),
		Status:          string(eval.Status),
		StatusComputed:  eval.Computed,
		AchievementRate: eval.Rate,
		RateDisplay:     "N/A",
	}
	if eval.Rate != nil {
		dto.RateDisplay = eval.Rate.StringFixed(2) + "%"
	}
	return dto
}

// =============================================================================
// HOLIDAYS
// =============================================================================

// HolidayDTO represents a non-working day.
type HolidayDTO struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Name      string `json:"name"`
	Recurring bool   `json:"recurring"`
}

// =============================================================================
// DASHBOARD
// =============================================================================

// UnitSummaryDTO is one dashboard row.
type UnitSummaryDTO struct {
	BusinessUnit BusinessUnitDTO  `json:"business_unit"`
	Revenue      decimal.Decimal  `json:"revenue"`
	VariableCost decimal.Decimal  `json:"variable_cost"`
	FixedCost    decimal.Decimal  `json:"fixed_cost"`
	SalaryCost   decimal.Decimal  `json:"salary_cost"`
	TotalCost    decimal.Decimal  `json:"total_cost"`
	Profit       decimal.Decimal  `json:"profit"`
	Margin       *decimal.Decimal `json:"margin"`
	KPIs         map[string]int   `json:"kpis"`
}

// TotalsDTO sums every unit.
type TotalsDTO struct {
	Revenue      decimal.Decimal  `json:"revenue"`
	TotalCost    decimal.Decimal  `json:"total_cost"`
	Profit       decimal.Decimal  `json:"profit"`
	Margin       *decimal.Decimal `json:"margin"`
	Unattributed decimal.Decimal  `json:"unattributed"`
}

// AllocationWarningDTO flags an allocation that does not cover its pool.
type AllocationWarningDTO struct {
	OwnerKind    string          `json:"owner_kind"`
	OwnerID      string          `json:"owner_id"`
	Name         string          `json:"name"`
	Completeness CompletenessDTO `json:"completeness"`
}

// DashboardDTO is the dashboard for one period.
type DashboardDTO struct {
	Period                string                 `json:"period"`
	Units                 []UnitSummaryDTO       `json:"units"`
	Totals                TotalsDTO              `json:"totals"`
	IncompleteAllocations []AllocationWarningDTO `json:"incomplete_allocations"`
}

func toDashboardDTO(d report.Dashboard) DashboardDTO {
	dto := DashboardDTO{
		Period: d.Period.String(),
		Units:  make([]UnitSummaryDTO, 0, len(d.Units)),
		Totals: TotalsDTO{
			Revenue:      d.Totals.Revenue,
			TotalCost:    d.Totals.TotalCost,
			Profit:       d.Totals.Profit,
			Margin:       d.Totals.Margin,
			Unattributed: d.Totals.Unattributed,
		},
		IncompleteAllocations: toWarningDTOs(d.IncompleteAllocations),
	}
	for _, u := range d.Units {
		counts := make(map[string]int, len(kpi.Statuses))
		for _, s := range kpi.Statuses {
			counts[string(s)] = u.KPIs[s]
		}
		dto.Units = append(dto.Units, UnitSummaryDTO{
			BusinessUnit: toBusinessUnitDTO(u.Unit),
			Revenue:      u.Revenue,
			VariableCost: u.VariableCost,
			FixedCost:    u.FixedCost,
			SalaryCost:   u.SalaryCost,
			TotalCost:    u.TotalCost,
			Profit:       u.Profit,
			Margin:       u.Margin,
			KPIs:         counts,
		})
	}
	return dto
}

func toWarningDTOs(warnings []report.AllocationWarning) []AllocationWarningDTO {
	out := make([]AllocationWarningDTO, 0, len(warnings))
	for _, w := range warnings {
		out = append(out, AllocationWarningDTO{
			OwnerKind:    string(w.Owner.Kind),
			OwnerID:      w.Owner.ID,
			Name:         w.Name,
			Completeness: toCompletenessDTO(w.Completeness),
		})
	}
	return out
}

// =============================================================================
// SCENARIOS AND ERRORS
// =============================================================================

// ScenarioDTO represents a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Period      string `json:"period"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}
