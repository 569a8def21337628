/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for frontend

ROUTE GROUPS:
  /api/leave-types      Leave-type catalog
  /api/holidays/*       Company holidays
  /api/employees/*      Employees, balances, own requests
  /api/requests/*       Request reads and decisions
  /api/teams/*          Manager views (requests, calendar)
  /api/admin/*          Allocation provisioning
  /api/scenarios/*      Demo scenarios
  /*                    API index page

SECURITY NOTE:
  No authentication middleware. Identity and manager-of checks are expected
  to run in a gateway in front of this service.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:8080"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Catalog routes
		r.Get("/leave-types", h.ListLeaveTypes)

		// Holiday routes
		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
		})

		// Employee routes
		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/balances", h.GetBalances)
			r.Get("/{id}/requests", h.ListMyRequests)
			r.Post("/{id}/requests", h.SubmitRequest)
		})

		// Request routes
		r.Route("/requests", func(r chi.Router) {
			r.Post("/bulk-approve", h.BulkApprove)
			r.Get("/{code}", h.GetRequest)
			r.Post("/{code}/approve", h.ApproveRequest)
			r.Post("/{code}/reject", h.RejectRequest)
			r.Post("/{code}/cancel", h.CancelRequest)
		})

		// Team routes (manager views)
		r.Route("/teams", func(r chi.Router) {
			r.Get("/{id}/requests", h.ListTeamRequests)
			r.Get("/{id}/calendar", h.GetTeamCalendar)
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Post("/allocations", h.TriggerAllocations)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	// API index page for anyone hitting the root in a browser.
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<!DOCTYPE html>
<html>
<head><title>Leave Engine</title></head>
<body style="font-family: system-ui; max-width: 800px; margin: 50px auto; padding: 20px;">
<h1>Leave Engine API</h1>
<h2>API Endpoints</h2>
<ul>
<li><a href="/api/leave-types">/api/leave-types</a> - Leave-type policies</li>
<li><a href="/api/employees">/api/employees</a> - List employees</li>
<li><a href="/api/holidays">/api/holidays</a> - Company holidays</li>
<li><a href="/api/scenarios">/api/scenarios</a> - Demo scenarios</li>
</ul>
</body>
</html>`))
	})

	return r
}
