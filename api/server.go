/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request for tracing
  2. Logger:     zerolog request log (logging.RequestLogger)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. Metrics:    Prometheus request count and latency
  5. CORS:       Cross-origin requests for the dashboard frontend

ROUTE GROUPS:
  /api/business-units/*   Allocation recipients
  /api/employees/*        Employees and salary allocation
  /api/fixed-costs/*      Shared costs and their allocation
  /api/variable-costs/*   Costs charged to one unit
  /api/revenue-sources/*  Revenue per unit
  /api/kpis/*             KPI targets and achievement
  /api/holidays/*         Holiday calendar for day-count allocation
  /api/dashboard          Per-unit profit and loss
  /api/scenarios/*        Demo scenarios
  /metrics                Prometheus
  /healthz                Liveness

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler context and error mapping
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/warp/unit-finance/allocation"
	"github.com/warp/unit-finance/logging"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(logging.RequestLogger(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(h.Metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.Health)
	r.Method("GET", "/metrics", h.Metrics.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		r.Route("/business-units", func(r chi.Router) {
			r.Get("/", h.ListBusinessUnits)
			r.Post("/", h.CreateBusinessUnit)
			r.Get("/{id}", h.GetBusinessUnit)
			r.Put("/{id}", h.UpdateBusinessUnit)
			r.Delete("/{id}", h.DeleteBusinessUnit)
		})

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Put("/{id}", h.UpdateEmployee)
			r.Delete("/{id}", h.DeleteEmployee)
			r.Route("/{id}/allocation", h.allocationRoutes(allocation.OwnerEmployee))
		})

		r.Route("/fixed-costs", func(r chi.Router) {
			r.Get("/", h.ListFixedCosts)
			r.Post("/", h.CreateFixedCost)
			r.Get("/{id}", h.GetFixedCost)
			r.Put("/{id}", h.UpdateFixedCost)
			r.Delete("/{id}", h.DeleteFixedCost)
			r.Route("/{id}/allocation", h.allocationRoutes(allocation.OwnerFixedCost))
		})

		r.Route("/variable-costs", func(r chi.Router) {
			r.Get("/", h.ListVariableCosts)
			r.Post("/", h.CreateVariableCost)
			r.Get("/{id}", h.GetVariableCost)
			r.Put("/{id}", h.UpdateVariableCost)
			r.Delete("/{id}", h.DeleteVariableCost)
		})

		r.Route("/revenue-sources", func(r chi.Router) {
			r.Get("/", h.ListRevenueSources)
			r.Post("/", h.CreateRevenueSource)
			r.Get("/{id}", h.GetRevenueSource)
			r.Put("/{id}", h.UpdateRevenueSource)
			r.Delete("/{id}", h.DeleteRevenueSource)
		})

		r.Route("/kpis", func(r chi.Router) {
			r.Get("/", h.ListKPIs)
			r.Post("/", h.CreateKPI)
			r.Get("/{id}", h.GetKPI)
			r.Put("/{id}", h.UpdateKPI)
			r.Delete("/{id}", h.DeleteKPI)
		})

		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Delete("/{id}", h.DeleteHoliday)
		})

		r.Get("/dashboard", h.GetDashboard)
		r.Get("/allocations/incomplete", h.ListIncompleteAllocations)

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
