package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civicdesk/municipal-booking/internal/api/http/handlers"
	"github.com/civicdesk/municipal-booking/internal/auth"
	"github.com/civicdesk/municipal-booking/internal/config"
)

// NewApp builds the fiber app. Paths are unescaped before routing so
// municipality parameters such as "Vila%20Real" reach handlers decoded.
func NewApp(cfg config.AppConfig) *fiber.App {
	return fiber.New(fiber.Config{
		AppName:      cfg.Name,
		ReadTimeout:  cfg.RequestTimeout(),
		WriteTimeout: cfg.RequestTimeout(),
		UnescapePath: true,
	})
}

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Bookings       *handlers.BookingsHandler
	Employees      *handlers.EmployeesHandler
	Tasks          *handlers.TasksHandler
	Auth           *handlers.AuthHandler
	AuthMiddleware *auth.AuthMiddleware
	Metrics        fiber.Handler
}

// RegisterRoutes wires HTTP routes. Citizen routes stay public; staff routes
// sit behind the auth middleware when it is enabled.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", cfg.Metrics)
	}

	api := app.Group("/api")
	api.Post("/auth/staff/login", cfg.Auth.StaffLogin)

	api.Post("/bookings", cfg.Bookings.Create)
	api.Get("/bookings/:token", cfg.Bookings.Get)
	api.Put("/bookings/:token/cancel", cfg.Bookings.Cancel)
	api.Get("/bookings/:token/history", cfg.Bookings.History)
	api.Get("/admission/:municipality/:date", cfg.Bookings.Admission)

	staff := api.Group("", cfg.AuthMiddleware.Guard(auth.RoleStaff)...)
	staff.Get("/bookings", cfg.Bookings.List)
	staff.Put("/bookings/:token/status", cfg.Bookings.UpdateStatus)

	staff.Post("/employees", cfg.Employees.Create)
	staff.Get("/employees", cfg.Employees.List)
	staff.Get("/employees/municipality/:municipality", cfg.Employees.ListByMunicipality)
	staff.Get("/employees/:id", cfg.Employees.Get)

	staff.Post("/tasks", cfg.Tasks.Assign)
	staff.Get("/tasks", cfg.Tasks.List)
	staff.Get("/tasks/employee/:employeeId", cfg.Tasks.ListByEmployee)
	staff.Get("/tasks/:id", cfg.Tasks.Get)
	staff.Put("/tasks/:id/complete", cfg.Tasks.Complete)
}
