/*
handlers.go - HTTP handler context and shared helpers

PURPOSE:
  Exposes the finance engine via REST API. Handlers parse the request,
  call the domain packages (allocation, costs, payroll, kpi, report),
  persist through the SQLite store and render DTOs.

ENDPOINTS:
  Entities (handlers_entities.go):
    /api/business-units, /api/employees, /api/fixed-costs,
    /api/variable-costs, /api/revenue-sources, /api/kpis, /api/holidays

  Allocation editing (handlers_allocation.go):
    /api/fixed-costs/{id}/allocation/...
    /api/employees/{id}/allocation/...

  Reporting (handlers_dashboard.go):
    GET /api/dashboard?period=YYYY-MM
    GET /api/allocations/incomplete?period=YYYY-MM

  Scenarios (scenarios.go):
    /api/scenarios/...

LIST FILTERS:
  Every list endpoint accepts:
    period=YYYY-MM          restrict to one accounting period
    business_unit_id=ID     restrict to one unit (where the entity has one)
    order=COLUMN&desc=true  sort (column whitelist per table)
    limit=N&offset=M        paging

ERROR HANDLING:
  Errors are returned as JSON {error, code, details}:
  - 400: Validation errors, invalid input, unknown recipients
  - 404: Resource not found
  - 500: Internal errors

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/warp/unit-finance/allocation"
	"github.com/warp/unit-finance/config"
	"github.com/warp/unit-finance/costs"
	"github.com/warp/unit-finance/factory"
	"github.com/warp/unit-finance/kpi"
	"github.com/warp/unit-finance/payroll"
	"github.com/warp/unit-finance/store/sqlite"
)

// errInvalidRequest marks malformed input that the domain packages never see.
var errInvalidRequest = errors.New("invalid request")

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store          *sqlite.Store
	WorkingDays    int
	UseCalendar    bool
	AllowedOrigins []string
	Metrics        *Metrics
	Log            zerolog.Logger

	// editMu serializes read-modify-write cycles on allocation sets.
	editMu sync.Mutex

	// Track currently loaded scenario
	scenarioMu      sync.RWMutex
	currentScenario string
}

// NewHandler creates a new handler with the given store and configuration.
func NewHandler(store *sqlite.Store, cfg *config.Config, logger zerolog.Logger) *Handler {
	return &Handler{
		Store:          store,
		WorkingDays:    cfg.WorkingDays,
		UseCalendar:    cfg.UseHolidayCalendar,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Metrics:        NewMetrics(),
		Log:            logger.With().Str("component", "api").Logger(),
	}
}

// calculator returns the allocation calculator for a period. With the
// holiday calendar enabled, working days come from the stored holidays.
func (h *Handler) calculator(ctx context.Context, period allocation.Period) (allocation.Calculator, error) {
	if !h.UseCalendar {
		return allocation.Calculator{WorkingDays: h.WorkingDays}, nil
	}
	cal, err := h.Store.Calendar(ctx)
	if err != nil {
		return allocation.Calculator{}, err
	}
	return allocation.ForPeriod(period, cal), nil
}

// =============================================================================
// HEALTH AND ADMIN
// =============================================================================

// Health reports whether the database is reachable.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "Database unavailable", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ResetDatabase clears all data.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		h.handleError(w, r, "Failed to reset database", err)
		return
	}
	h.setScenario("")
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// RESPONSES
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message, Code: errorCode(status)}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// handleError maps a domain or store error to its HTTP status.
// Internal errors are logged with the request id.
func (h *Handler) handleError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.Log.Error().
			Err(err).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg(message)
	}
	writeError(w, status, message, err)
}

func statusFor(err error) int {
	switch {
	case allocation.IsNotFound(err):
		return http.StatusNotFound
	case isClientError(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func isClientError(err error) bool {
	return allocation.IsClientError(err) ||
		errors.Is(err, errInvalidRequest) ||
		errors.Is(err, sqlite.ErrInvalidQuery) ||
		errors.Is(err, factory.ErrInvalidJSON) ||
		errors.Is(err, costs.ErrInvalidCost) ||
		errors.Is(err, payroll.ErrInvalidEmployee) ||
		errors.Is(err, kpi.ErrUnknownStatus)
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusServiceUnavailable:
		return "unavailable"
	default:
		return "internal"
	}
}

// =============================================================================
// REQUEST PARSING
// =============================================================================

func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: body: %w", errInvalidRequest, err)
	}
	return nil
}

// invalid marks a validation error as a client error.
func invalid(err error) error {
	if err == nil || isClientError(err) {
		return err
	}
	return fmt.Errorf("%w: %w", errInvalidRequest, err)
}

// requiredAmount unwraps an amount that must be present and not null.
func requiredAmount(name string, v decimal.NullDecimal) (decimal.Decimal, error) {
	if !v.Valid {
		return decimal.Zero, fmt.Errorf("%w: %s is required", errInvalidRequest, name)
	}
	return v.Decimal, nil
}

// parsePeriod parses "YYYY-MM". An empty string is rejected.
func parsePeriod(s string) (allocation.Period, error) {
	if s == "" {
		return allocation.Period{}, fmt.Errorf("%w: period is required (YYYY-MM)", errInvalidRequest)
	}
	p, err := allocation.ParsePeriod(s)
	if err != nil {
		return allocation.Period{}, invalid(err)
	}
	return p, nil
}

// periodParam reads ?period=, defaulting to the current month.
func periodParam(r *http.Request) (allocation.Period, error) {
	s := r.URL.Query().Get("period")
	if s == "" {
		return allocation.PeriodOf(time.Now()), nil
	}
	return parsePeriod(s)
}

// listQuery builds a store query from the common list parameters.
func listQuery(r *http.Request, hasUnit bool) (sqlite.Query, error) {
	params := r.URL.Query()
	var q sqlite.Query

	if s := params.Get("period"); s != "" {
		p, err := parsePeriod(s)
		if err != nil {
			return q, err
		}
		q = q.Filter(sqlite.InPeriod(p)...)
	}
	if unit := params.Get("business_unit_id"); unit != "" {
		if !hasUnit {
			return q, fmt.Errorf("%w: business_unit_id filter not supported here", errInvalidRequest)
		}
		q = q.Filter(sqlite.Eq("business_unit_id", unit))
	}
	if name := params.Get("name"); name != "" {
		q = q.Filter(sqlite.Like("name", name))
	}

	q.OrderBy = params.Get("order")
	q.Desc = params.Get("desc") == "true"

	var err error
	if q.Limit, err = intParam(params.Get("limit")); err != nil {
		return q, err
	}
	if q.Offset, err = intParam(params.Get("offset")); err != nil {
		return q, err
	}
	return q, nil
}

func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %q is not a non-negative integer", errInvalidRequest, s)
	}
	return n, nil
}

// newID returns id, or a fresh UUID when id is empty.
func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

// =============================================================================
// SCENARIO STATE
// =============================================================================

func (h *Handler) setScenario(id string) {
	h.scenarioMu.Lock()
	defer h.scenarioMu.Unlock()
	h.currentScenario = id
}

func (h *Handler) scenario() string {
	h.scenarioMu.RLock()
	defer h.scenarioMu.RUnlock()
	return h.currentScenario
}
