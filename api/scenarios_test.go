/*
scenarios_test.go - Tests for demo scenarios

PURPOSE:
	Tests that each scenario sets up the expected state and that the
	scenario endpoints track what is loaded. The numbers checked here are
	the worked examples the dashboard is demonstrated with.
*/
package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/unit-finance/allocation"
	"github.com/warp/unit-finance/store/sqlite"
)

func TestScenarios_EveryScenarioLoads(t *testing.T) {
	_, router := setupTestServer(t)

	for _, s := range scenarios {
		t.Run(s.ID, func(t *testing.T) {
			loadScenario(t, router, s.ID)

			rec := do(t, router, "GET", "/api/scenarios/current", nil)
			require.Equal(t, http.StatusOK, rec.Code)
			current := decodeBody[ScenarioDTO](t, rec)
			assert.Equal(t, s.ID, current.ID)
			assert.Equal(t, "2025-01", current.Period)

			rec = do(t, router, "GET", "/api/business-units", nil)
			assert.Len(t, decodeBody[[]BusinessUnitDTO](t, rec), len(scenarioUnits))
		})
	}
}

func TestScenarios_LoadReplacesPreviousData(t *testing.T) {
	// GIVEN: The full month is loaded
	h, router := setupTestServer(t)
	loadScenario(t, router, "full-month")
	ctx := context.Background()

	// WHEN: Loading a single scenario
	loadScenario(t, router, "kpi-achievement")

	// THEN: Only that scenario's data remains
	fixed, err := h.Store.ListFixedCosts(ctx, sqlite.Query{})
	require.NoError(t, err)
	assert.Empty(t, fixed)

	kpis, err := h.Store.ListKPIs(ctx, sqlite.Query{})
	require.NoError(t, err)
	assert.Len(t, kpis, 2)
}

func TestScenarios_FullMonthAllocationsAreComplete(t *testing.T) {
	h, router := setupTestServer(t)
	loadScenario(t, router, "full-month")
	ctx := context.Background()

	sets, err := h.Store.ListSets(ctx, scenarioPeriod)
	require.NoError(t, err)
	require.Len(t, sets, 4)

	calc := allocation.Calculator{WorkingDays: 22}
	incomplete := 0
	for _, s := range sets {
		if !calc.Completeness(s.Set).IsComplete {
			incomplete++
			assert.Equal(t, "fc-software", s.Owner.ID)
		}
	}
	assert.Equal(t, 1, incomplete)
}

func TestScenarios_UnknownAndReset(t *testing.T) {
	_, router := setupTestServer(t)

	rec := do(t, router, "POST", "/api/scenarios/load", map[string]string{"scenario_id": "nope"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, "GET", "/api/scenarios", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]ScenarioDTO](t, rec), len(scenarios))

	loadScenario(t, router, "employee-split")
	rec = do(t, router, "POST", "/api/scenarios/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, router, "GET", "/api/scenarios/current", nil)
	assert.Equal(t, "null\n", rec.Body.String())
	assert.Equal(t, http.StatusNotFound, do(t, router, "GET", "/api/employees/emp-001", nil).Code)
}
