package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/unit-finance/allocation"
	"github.com/warp/unit-finance/costs"
	"github.com/warp/unit-finance/kpi"
	"github.com/warp/unit-finance/payroll"
	"github.com/warp/unit-finance/report"
)

// =============================================================================
// BUSINESS UNIT ENDPOINTS
// =============================================================================

// ListBusinessUnits returns business units.
// GET /api/business-units
func (h *Handler) ListBusinessUnits(w http.ResponseWriter, r *http.Request) {
	q, err := listQuery(r, false)
	if err != nil {
		h.handleError(w, r, "Invalid query", err)
		return
	}
	units, err := h.Store.ListBusinessUnits(r.Context(), q)
	if err != nil {
		h.handleError(w, r, "Failed to list business units", err)
		return
	}

	dtos := make([]BusinessUnitDTO, 0, len(units))
	for _, u := range units {
		dtos = append(dtos, toBusinessUnitDTO(u))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetBusinessUnit returns one business unit.
// GET /api/business-units/{id}
func (h *Handler) GetBusinessUnit(w http.ResponseWriter, r *http.Request) {
	u, err := h.Store.GetBusinessUnit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, "Business unit not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toBusinessUnitDTO(u))
}

// CreateBusinessUnit creates a business unit.
// POST /api/business-units
func (h *Handler) CreateBusinessUnit(w http.ResponseWriter, r *http.Request) {
	var req BusinessUnitRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, "Invalid request body", err)
		return
	}

	u := report.BusinessUnit{ID: newID(req.ID), Active: true}
	h.saveBusinessUnit(w, r, applyBusinessUnit(u, req), http.StatusCreated)
}

// UpdateBusinessUnit replaces a business unit's fields.
// PUT /api/business-units/{id}
func (h *Handler) UpdateBusinessUnit(w http.ResponseWriter, r *http.Request) {
	u, err := h.Store.GetBusinessUnit(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, "Business unit not found", err)
		return
	}
	var req BusinessUnitRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, "Invalid request body", err)
		return
	}
	h.saveBusinessUnit(w, r, applyBusinessUnit(u, req), http.StatusOK)
}

// DeleteBusinessUnit deletes a business unit. Allocation records pointing
// to it are kept and show up as unattributed cost.
// DELETE /api/business-units/{id}
func (h *Handler) DeleteBusinessUnit(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteBusinessUnit(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleError(w, r, "Failed to delete business unit", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

func applyBusinessUnit(u report.BusinessUnit, req BusinessUnitRequest) report.BusinessUnit {
	u.Name = req.Name
	u.Code = req.Code
	u.Manager = req.Manager
	if req.Active != nil {
		u.Active = *req.Active
	}
	return u
}

func (h *Handler) saveBusinessUnit(w http.ResponseWriter, r *http.Request, u report.BusinessUnit, status int) {
	if u.Name == "" || u.Code == "" {
		writeError(w, http.StatusBadRequest, "Name and code are required", nil)
		return
	}
	if err := h.Store.SaveBusinessUnit(r.Context(), u); err != nil {
		h.handleError(w, r, "Failed to save business unit", err)
		return
	}
	writeJSON(w, status, toBusinessUnitDTO(u))
}

// checkUnits verifies that every non-empty id is a known business unit.
func (h *Handler) checkUnits(ctx context.Context, ids ...allocation.RecipientID) error {
	dir, err := h.Store.Directory(ctx)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := dir.Name(id); !ok {
			return fmt.Errorf("%w: %s", allocation.ErrUnknownRecipient, id)
		}
	}
	return nil
}

func recipientIDs(records []allocation.Record) []allocation.RecipientID {
	ids := make([]allocation.RecipientID, 0, len(records))
	for _, rec := range records {
		ids = append(ids, rec.RecipientID)
	}
	return ids
}

// addedRecipients returns the recipients in after that before does not
// reference. Records already stored may point at units deleted since.
func addedRecipients(before, after []allocation.Record) []allocation.RecipientID {
	known := make(map[allocation.RecipientID]bool, len(before))
	for _, rec := range before {
		known[rec.RecipientID] = true
	}
	var ids []allocation.RecipientID
	for _, rec := range after {
		if !known[rec.RecipientID] {
			ids = append(ids, rec.RecipientID)
		}
	}
	return ids
}

// =============================================================================
// EMPLOYEE ENDPOINTS
// =============================================================================

// ListEmployees returns employees with their evaluated allocation.
// GET /api/employees
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q, err := listQuery(r, true)
	if err != nil {
		h.handleError(w, r, "Invalid query", err)
		return
	}
	employees, err := h.Store.ListEmployees(ctx, q)
	if err != nil {
		h.handleError(w, r, "Failed to list employees", err)
		return
	}
	v, err := h.newView(ctx)
	if err != nil {
		h.handleError(w, r, "Failed to load allocation context", err)
		return
	}

	dtos := make([]EmployeeDTO, 0, len(employees))
	for _, e := range employees {
		dtos = append(dtos, v.employee(e))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns one employee.
// GET /api/employees/{id}
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	e, err := h.Store.GetEmployee(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, "Employee not found", err)
		return
	}
	h.renderEmployee(w, r, e, http.StatusOK)
}

// CreateEmployee creates an employee. Records, when given, become the
// initial salary allocation.
// POST /api/employees
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req EmployeeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, "Invalid request body", err)
		return
	}
	period, err := parsePeriod(req.Period)
	if err != nil {
		h.handleError(w, r, "Invalid period", err)
		return
	}

	salary, err := requiredAmount("base_salary", req.BaseSalary)
	if err != nil {
		h.handleError(w, r, "Invalid employee", err)
		return
	}

	e := payroll.NewEmployee(newID(req.ID), req.Name, req.Position, req.BusinessUnitID, salary, period)
	if req.Records != nil {
		if e.Allocation.Records, err = toRecords(req.Records); err != nil {
			h.handleError(w, r, "Invalid allocation", err)
			return
		}
	}
	check := append(recipientIDs(e.Allocation.Records), allocation.RecipientID(e.BusinessUnitID))
	h.saveEmployee(w, r, e, check, http.StatusCreated)
}

// UpdateEmployee replaces an employee's fields. Omitted fields and records
// keep their current value; the allocation pool follows the new salary.
// Only units the request newly references are checked against the
// directory.
// PUT /api/employees/{id}
func (h *Handler) UpdateEmployee(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	e, err := h.Store.GetEmployee(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, "Employee not found", err)
		return
	}
	var req EmployeeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, "Invalid request body", err)
		return
	}

	stored := e
	if req.Name != "" {
		e.Name = req.Name
	}
	if req.Position != "" {
		e.Position = req.Position
	}
	if req.BusinessUnitID != "" {
		e.BusinessUnitID = req.BusinessUnitID
	}
	if req.BaseSalary.Valid {
		e = e.WithSalary(req.BaseSalary.Decimal)
	}
	if req.Period != "" {
		period, err := parsePeriod(req.Period)
		if err != nil {
			h.handleError(w, r, "Invalid period", err)
			return
		}
		e.Allocation.PeriodYear, e.Allocation.PeriodMonth = period.Year, int(period.Month)
	}
	if req.Records != nil {
		if e.Allocation.Records, err = toRecords(req.Records); err != nil {
			h.handleError(w, r, "Invalid allocation", err)
			return
		}
	}
	check := addedRecipients(stored.Allocation.Records, e.Allocation.Records)
	if e.BusinessUnitID != stored.BusinessUnitID {
		check = append(check, allocation.RecipientID(e.BusinessUnitID))
	}
	h.saveEmployee(w, r, e, check, http.StatusOK)
}

// DeleteEmployee deletes an employee and their allocation.
// DELETE /api/employees/{id}
func (h *Handler) DeleteEmployee(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteEmployee(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleError(w, r, "Failed to delete employee", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// saveEmployee validates e, checks the given unit ids and persists it.
func (h *Handler) saveEmployee(w http.ResponseWriter, r *http.Request, e payroll.Employee, check []allocation.RecipientID, status int) {
	ctx := r.Context()
	if err := e.Validate(); err != nil {
		h.handleError(w, r, "Invalid employee", err)
		return
	}
	if err := h.checkUnits(ctx, check...); err != nil {
		h.handleError(w, r, "Invalid employee", err)
		return
	}
	if err := h.Store.SaveEmployee(ctx, e); err != nil {
		h.handleError(w, r, "Failed to save employee", err)
		return
	}
	h.renderEmployee(w, r, e, status)
}

func (h *Handler) renderEmployee(w http.ResponseWriter, r *http.Request, e payroll.Employee, status int) {
	v, err := h.newView(r.Context())
	if err != nil {
		h.handleError(w, r, "Failed to load allocation context", err)
		return
	}
	writeJSON(w, status, v.employee(e))
}

// =============================================================================
// FIXED COST ENDPOINTS
// =============================================================================

// ListFixedCosts returns fixed costs with their evaluated allocation.
// GET /api/fixed-costs
func (h *Handler) ListFixedCosts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q, err := listQuery(r, false)
	if err != nil {
		h.handleError(w, r, "Invalid query", err)
		return
	}
	list, err := h.Store.ListFixedCosts(ctx, q)
	if err != nil {
		h.handleError(w, r, "Failed to list fixed costs", err)
		return
	}
	v, err := h.newView(ctx)
	if err != nil {
		h.handleError(w, r, "Failed to load allocation context", err)
		return
	}

	dtos := make([]FixedCostDTO, 0, len(list))
	for _, c := range list {
		dtos = append(dtos, v.fixedCost(c))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetFixedCost returns one fixed cost.
// GET /api/fixed-costs/{id}
func (h *Handler) GetFixedCost(w http.ResponseWriter, r *http.Request) {
	c, err := h.Store.GetFixedCost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, "Fixed cost not found", err)
		return
	}
	h.renderFixedCost(w, r, c, http.StatusOK)
}

// CreateFixedCost creates a fixed cost.
// POST /api/fixed-costs
func (h *Handler) CreateFixedCost(w http.ResponseWriter, r *http.Request) {
	var req FixedCostRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, "Invalid request body", err)
		return
	}
	period, err := parsePeriod(req.Period)
	if err != nil {
		h.handleError(w, r, "Invalid period", err)
		return
	}

	amount, err := requiredAmount("amount", req.Amount)
	if err != nil {
		h.handleError(w, r, "Invalid fixed cost", err)
		return
	}

	c := costs.NewFixedCost(newID(req.ID), req.Name, category(req.Category), amount, period)
	if req.Records != nil {
		if c.Allocation.Records, err = toRecords(req.Records); err != nil {
			h.handleError(w, r, "Invalid allocation", err)
			return
		}
	}
	h.saveFixedCost(w, r, c, recipientIDs(c.Allocation.Records), http.StatusCreated)
}

// UpdateFixedCost replaces a fixed cost's fields. Omitted fields and records
// keep their current value; the allocation pool follows the new amount.
// PUT /api/fixed-costs/{id}
func (h *Handler) UpdateFixedCost(w http.ResponseWriter, r *http.Request) {
	c, err := h.Store.GetFixedCost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, "Fixed cost not found", err)
		return
	}
	var req FixedCostRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, "Invalid request body", err)
		return
	}

	stored := c
	if req.Name != "" {
		c.Name = req.Name
	}
	if req.Category != "" {
		c.Category = category(req.Category)
	}
	if req.Amount.Valid {
		c = c.Reprice(req.Amount.Decimal)
	}
	if req.Period != "" {
		period, err := parsePeriod(req.Period)
		if err != nil {
			h.handleError(w, r, "Invalid period", err)
			return
		}
		c.PeriodYear, c.PeriodMonth = period.Year, int(period.Month)
	}
	if req.Records != nil {
		if c.Allocation.Records, err = toRecords(req.Records); err != nil {
			h.handleError(w, r, "Invalid allocation", err)
			return
		}
	}
	h.saveFixedCost(w, r, c, addedRecipients(stored.Allocation.Records, c.Allocation.Records), http.StatusOK)
}

// DeleteFixedCost deletes a fixed cost and its allocation.
// DELETE /api/fixed-costs/{id}
func (h *Handler) DeleteFixedCost(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteFixedCost(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleError(w, r, "Failed to delete fixed cost", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// saveFixedCost normalizes and validates c, checks the given unit ids and
// persists it.
func (h *Handler) saveFixedCost(w http.ResponseWriter, r *http.Request, c costs.FixedCost, check []allocation.RecipientID, status int) {
	ctx := r.Context()
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		h.handleError(w, r, "Invalid fixed cost", err)
		return
	}
	if err := h.checkUnits(ctx, check...); err != nil {
		h.handleError(w, r, "Invalid fixed cost", err)
		return
	}
	if err := h.Store.SaveFixedCost(ctx, c); err != nil {
		h.handleError(w, r, "Failed to save fixed cost", err)
		return
	}
	h.renderFixedCost(w, r, c, status)
}

func (h *Handler) renderFixedCost(w http.ResponseWriter, r *http.Request, c costs.FixedCost, status int) {
	v, err := h.newView(r.Context())
	if err != nil {
		h.handleError(w, r, "Failed to load allocation context", err)
		return
	}
	writeJSON(w, status, v.fixedCost(c))
}

func category(s string) costs.Category {
	if s == "" {
		return costs.CategoryOther
	}
	return costs.Category(strings.ToLower(s))
}

// =============================================================================
// VARIABLE COST ENDPOINTS
// =============================================================================

// ListVariableCosts returns variable costs.
// GET /api/variable-costs
func (h *Handler) ListVariableCosts(w http.ResponseWriter, r *http.Request) {
	q, err := listQuery(r, true)
	if err != nil {
		h.handleError(w, r, "Invalid query", err)
		return
	}
	list, err := h.Store.ListVariableCosts(r.Context(), q)
	if err != nil {
		h.handleError(w, r, "Failed to list variable costs", err)
		return
	}

	dtos := make([]VariableCostDTO, 0, len(list))
	for _, c := range list {
		dtos = append(dtos, toVariableCostDTO(c))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetVariableCost returns one variable cost.
// GET /api/variable-costs/{id}
func (h *Handler) GetVariableCost(w http.ResponseWriter, r *http.Request) {
	c, err := h.Store.GetVariableCost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, "Variable cost not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toVariableCostDTO(c))
}

// CreateVariableCost creates a variable cost.
// POST /api/variable-costs
func (h *Handler) CreateVariableCost(w http.ResponseWriter, r *http.Request) {
	h.saveVariableCost(w, r, costs.VariableCost{}, http.StatusCreated)
}

// UpdateVariableCost replaces a variable cost's fields.
// PUT /api/variable-costs/{id}
func (h *Handler) UpdateVariableCost(w http.ResponseWriter, r *http.Request) {
	c, err := h.Store.GetVariableCost(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, "Variable cost not found", err)
		return
	}
	h.saveVariableCost(w, r, c, http.StatusOK)
}

// DeleteVariableCost deletes a variable cost.
// DELETE /api/variable-costs/{id}
func (h *Handler) DeleteVariableCost(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteVariableCost(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleError(w, r, "Failed to delete variable cost", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// saveVariableCost decodes the body over c and persists it.
func (h *Handler) saveVariableCost(w http.ResponseWriter, r *http.Request, c costs.VariableCost, status int) {
	ctx := r.Context()
	var req VariableCostRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, "Invalid request body", err)
		return
	}
	period, err := parsePeriod(req.Period)
	if err != nil {
		h.handleError(w, r, "Invalid period", err)
		return
	}

	if c.ID == "" {
		c.ID = newID(req.ID)
	}
	c.BusinessUnitID = req.BusinessUnitID
	c.Name = req.Name
	c.Category = category(req.Category)
	if c.Amount, err = requiredAmount("amount", req.Amount); err != nil {
		h.handleError(w, r, "Invalid variable cost", err)
		return
	}
	c.PeriodYear, c.PeriodMonth = period.Year, int(period.Month)

	if err := c.Validate(); err != nil {
		h.handleError(w, r, "Invalid variable cost", err)
		return
	}
	if err := h.checkUnits(ctx, allocation.RecipientID(c.BusinessUnitID)); err != nil {
		h.handleError(w, r, "Invalid variable cost", err)
		return
	}
	if err := h.Store.SaveVariableCost(ctx, c); err != nil {
		h.handleError(w, r, "Failed to save variable cost", err)
		return
	}
	writeJSON(w, status, toVariableCostDTO(c))
}

// =============================================================================
// REVENUE ENDPOINTS
// =============================================================================

// ListRevenueSources returns revenue sources.
// GET /api/revenue-sources
func (h *Handler) ListRevenueSources(w http.ResponseWriter, r *http.Request) {
	q, err := listQuery(r, true)
	if err != nil {
		h.handleError(w, r, "Invalid query", err)
		return
	}
	list, err := h.Store.ListRevenueSources(r.Context(), q)
	if err != nil {
		h.handleError(w, r, "Failed to list revenue sources", err)
		return
	}

	dtos := make([]RevenueSourceDTO, 0, len(list))
	for _, rs := range list {
		dtos = append(dtos, toRevenueSourceDTO(rs))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetRevenueSource returns one revenue source.
// GET /api/revenue-sources/{id}
func (h *Handler) GetRevenueSource(w http.ResponseWriter, r *http.Request) {
	rs, err := h.Store.GetRevenueSource(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, "Revenue source not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toRevenueSourceDTO(rs))
}

// CreateRevenueSource creates a revenue source.
// POST /api/revenue-sources
func (h *Handler) CreateRevenueSource(w http.ResponseWriter, r *http.Request) {
	h.saveRevenueSource(w, r, report.RevenueSource{}, http.StatusCreated)
}

// UpdateRevenueSource replaces a revenue source's fields.
// PUT /api/revenue-sources/{id}
func (h *Handler) UpdateRevenueSource(w http.ResponseWriter, r *http.Request) {
	rs, err := h.Store.GetRevenueSource(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, "Revenue source not found", err)
		return
	}
	h.saveRevenueSource(w, r, rs, http.StatusOK)
}

// DeleteRevenueSource deletes a revenue source.
// DELETE /api/revenue-sources/{id}
func (h *Handler) DeleteRevenueSource(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteRevenueSource(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleError(w, r, "Failed to delete revenue source", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

func (h *Handler) saveRevenueSource(w http.ResponseWriter, r *http.Request, rs report.RevenueSource, status int) {
	ctx := r.Context()
	var req RevenueSourceRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, "Invalid request body", err)
		return
	}
	period, err := parsePeriod(req.Period)
	if err != nil {
		h.handleError(w, r, "Invalid period", err)
		return
	}

	if rs.ID == "" {
		rs.ID = newID(req.ID)
	}
	rs.BusinessUnitID = req.BusinessUnitID
	rs.Name = req.Name
	if rs.Amount, err = requiredAmount("amount", req.Amount); err != nil {
		h.handleError(w, r, "Invalid revenue source", err)
		return
	}
	rs.PeriodYear, rs.PeriodMonth = period.Year, int(period.Month)

	switch {
	case rs.Name == "" || rs.BusinessUnitID == "":
		writeError(w, http.StatusBadRequest, "Name and business_unit_id are required", nil)
		return
	case rs.Amount.IsNegative():
		h.handleError(w, r, "Invalid revenue source", fmt.Errorf("amount: %w", allocation.ErrNegativeValue))
		return
	}
	if err := h.checkUnits(ctx, allocation.RecipientID(rs.BusinessUnitID)); err != nil {
		h.handleError(w, r, "Invalid revenue source", err)
		return
	}
	if err := h.Store.SaveRevenueSource(ctx, rs); err != nil {
		h.handleError(w, r, "Failed to save revenue source", err)
		return
	}
	writeJSON(w, status, toRevenueSourceDTO(rs))
}

// =============================================================================
// KPI ENDPOINTS
// =============================================================================

// ListKPIs returns KPIs with their achievement rate and status.
// GET /api/kpis
func (h *Handler) ListKPIs(w http.ResponseWriter, r *http.Request) {
	q, err := listQuery(r, true)
	if err != nil {
		h.handleError(w, r, "Invalid query", err)
		return
	}
	list, err := h.Store.ListKPIs(r.Context(), q)
	if err != nil {
		h.handleError(w, r, "Failed to list kpis", err)
		return
	}

	dtos := make([]KPIDTO, 0, len(list))
	for _, k := range list {
		dtos = append(dtos, toKPIDTO(k))
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetKPI returns one KPI.
// GET /api/kpis/{id}
func (h *Handler) GetKPI(w http.ResponseWriter, r *http.Request) {
	k, err := h.Store.GetKPI(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, "KPI not found", err)
		return
	}
	writeJSON(w, http.StatusOK, toKPIDTO(k))
}

// CreateKPI creates a KPI.
// POST /api/kpis
func (h *Handler) CreateKPI(w http.ResponseWriter, r *http.Request) {
	h.saveKPI(w, r, kpi.KPI{}, http.StatusCreated)
}

// UpdateKPI replaces a KPI's fields, typically the actual value.
// PUT /api/kpis/{id}
func (h *Handler) UpdateKPI(w http.ResponseWriter, r *http.Request) {
	k, err := h.Store.GetKPI(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.handleError(w, r, "KPI not found", err)
		return
	}
	h.saveKPI(w, r, k, http.StatusOK)
}

// DeleteKPI deletes a KPI.
// DELETE /api/kpis/{id}
func (h *Handler) DeleteKPI(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteKPI(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleError(w, r, "Failed to delete kpi", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

func (h *Handler) saveKPI(w http.ResponseWriter, r *http.Request, k kpi.KPI, status int) {
	ctx := r.Context()
	var req KPIRequest
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, "Invalid request body", err)
		return
	}
	period, err := parsePeriod(req.Period)
	if err != nil {
		h.handleError(w, r, "Invalid period", err)
		return
	}

	if k.ID == "" {
		k.ID = newID(req.ID)
	}
	k.BusinessUnitID = req.BusinessUnitID
	k.Name = req.Name
	k.Unit = req.Unit
	k.TargetValue = req.TargetValue
	k.ActualValue = req.ActualValue
	k.PeriodYear, k.PeriodMonth = period.Year, int(period.Month)
	k.Status = ""
	if req.Status != "" {
		if k.Status, err = kpi.ParseStatus(req.Status); err != nil {
			h.handleError(w, r, "Invalid kpi", err)
			return
		}
	}

	if err := k.Validate(); err != nil {
		h.handleError(w, r, "Invalid kpi", invalid(err))
		return
	}
	if k.BusinessUnitID == "" {
		writeError(w, http.StatusBadRequest, "business_unit_id is required", nil)
		return
	}
	if err := h.checkUnits(ctx, allocation.RecipientID(k.BusinessUnitID)); err != nil {
		h.handleError(w, r, "Invalid kpi", err)
		return
	}
	if err := h.Store.SaveKPI(ctx, k); err != nil {
		h.handleError(w, r, "Failed to save kpi", err)
		return
	}
	writeJSON(w, status, toKPIDTO(k))
}

// =============================================================================
// HOLIDAY ENDPOINTS
// =============================================================================

// ListHolidays returns all holidays.
// GET /api/holidays
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	holidays, err := h.Store.ListHolidays(r.Context())
	if err != nil {
		h.handleError(w, r, "Failed to get holidays", err)
		return
	}

	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, hol := range holidays {
		dtos = append(dtos, HolidayDTO{
			ID:        hol.ID,
			Date:      hol.Date.Format("2006-01-02"),
			Name:      hol.Name,
			Recurring: hol.Recurring,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"holidays": dtos})
}

// CreateHoliday creates a new holiday. Holidays only change day-count
// allocation when the holiday calendar is enabled.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req HolidayDTO
	if err := decodeJSON(r, &req); err != nil {
		h.handleError(w, r, "Invalid request body", err)
		return
	}
	if req.Date == "" || req.Name == "" {
		writeError(w, http.StatusBadRequest, "Date and name are required", nil)
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	holiday := allocation.Holiday{
		ID:        newID(req.ID),
		Date:      date,
		Name:      req.Name,
		Recurring: req.Recurring,
	}
	if err := h.Store.SaveHoliday(r.Context(), holiday); err != nil {
		h.handleError(w, r, "Failed to create holiday", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"status":  "created",
		"holiday": holiday.ID,
	})
}

// DeleteHoliday deletes a holiday.
// DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.DeleteHoliday(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.handleError(w, r, "Failed to delete holiday", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}
