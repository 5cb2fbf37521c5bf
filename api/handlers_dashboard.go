package api

import (
	"context"
	"net/http"

	"github.com/warp/unit-finance/allocation"
	"github.com/warp/unit-finance/report"
)

// =============================================================================
// DASHBOARD ENDPOINTS
// =============================================================================

// GetDashboard returns per-unit revenue, cost, profit and KPI counts.
// GET /api/dashboard?period=YYYY-MM (defaults to the current month)
func (h *Handler) GetDashboard(w http.ResponseWriter, r *http.Request) {
	period, err := periodParam(r)
	if err != nil {
		h.handleError(w, r, "Invalid period", err)
		return
	}
	dashboard, err := h.buildDashboard(r.Context(), period)
	if err != nil {
		h.handleError(w, r, "Failed to build dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, toDashboardDTO(dashboard))
}

// ListIncompleteAllocations returns the allocation warnings of a period.
// GET /api/allocations/incomplete?period=YYYY-MM
func (h *Handler) ListIncompleteAllocations(w http.ResponseWriter, r *http.Request) {
	period, err := periodParam(r)
	if err != nil {
		h.handleError(w, r, "Invalid period", err)
		return
	}
	warnings, err := h.incompleteAllocations(r.Context(), period)
	if err != nil {
		h.handleError(w, r, "Failed to check allocations", err)
		return
	}
	writeJSON(w, http.StatusOK, toWarningDTOs(warnings))
}

func (h *Handler) buildDashboard(ctx context.Context, period allocation.Period) (report.Dashboard, error) {
	in, err := h.Store.ReportInputs(ctx, period)
	if err != nil {
		return report.Dashboard{}, err
	}
	calc, err := h.calculator(ctx, period)
	if err != nil {
		return report.Dashboard{}, err
	}
	return report.Builder{Calculator: calc}.Build(period, in), nil
}

func (h *Handler) incompleteAllocations(ctx context.Context, period allocation.Period) ([]report.AllocationWarning, error) {
	in, err := h.Store.ReportInputs(ctx, period)
	if err != nil {
		return nil, err
	}
	calc, err := h.calculator(ctx, period)
	if err != nil {
		return nil, err
	}
	return report.Builder{Calculator: calc}.IncompleteAllocations(period, in), nil
}
