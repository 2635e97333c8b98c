// Package server wires the HTTP routes, the middleware chain and the
// listener lifecycle.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/ukydev/fleet-maintenance/internal/auth"
	"github.com/ukydev/fleet-maintenance/internal/config"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/handlers"
	"github.com/ukydev/fleet-maintenance/internal/middleware"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Dependencies are the collaborators the routes are built from.
type Dependencies struct {
	Auth         *auth.Service
	Users        db.UserCollection
	Vehicles     db.VehicleCollection
	Maintenances db.MaintenanceCollection
	Costs        db.CostCollection
	Interests    db.InterestCollection
	Wiper        db.TenantWiper
	Reminders    handlers.ReminderRunner
}

// Server is the fleet maintenance HTTP API.
type Server struct {
	cfg        *config.Config
	handler    http.Handler
	httpServer *http.Server
}

// New builds the routes and the global middleware chain.
func New(cfg *config.Config, deps Dependencies) *Server {
	authMiddleware := middleware.NewAuthMiddleware(deps.Auth)
	rateLimiter := middleware.NewRateLimitMiddleware()

	mux := http.NewServeMux()
	routes := &router{mux: mux, auth: authMiddleware}

	authHandler := handlers.NewAuthHandler(deps.Auth, deps.Users, deps.Wiper)
	routes.public("POST /api/auth/login", authHandler.Login)
	routes.public("POST /api/auth/register", authHandler.Register)
	routes.handle("POST /api/auth/logout", "", authHandler.Logout)
	routes.handle("GET /api/auth/profile", "", authHandler.GetProfile)
	routes.handle("PUT /api/auth/profile", "", authHandler.UpdateProfile)
	routes.handle("POST /api/auth/change-password", "", authHandler.ChangePassword)

	userHandler := handlers.NewUserHandler(deps.Auth, deps.Users)
	routes.handle("GET /api/users", models.ActionManageUsers, userHandler.List)
	routes.handle("POST /api/users", models.ActionManageUsers, userHandler.Create)
	routes.handle("PUT /api/users/{id}", models.ActionManageUsers, userHandler.Update)
	routes.handle("PATCH /api/users/{id}/active", models.ActionManageUsers, userHandler.SetActive)
	routes.handle("DELETE /api/users/{id}", models.ActionDeleteUser, userHandler.Delete)

	vehicleHandler := handlers.NewVehicleHandler(deps.Vehicles, deps.Maintenances)
	routes.handle("GET /api/vehicles", models.ActionViewVehicles, vehicleHandler.List)
	routes.handle("POST /api/vehicles", models.ActionManageVehicles, vehicleHandler.Create)
	routes.handle("GET /api/vehicles/{id}", models.ActionViewVehicles, vehicleHandler.Get)
	routes.handle("PUT /api/vehicles/{id}", models.ActionManageVehicles, vehicleHandler.Update)
	routes.handle("DELETE /api/vehicles/{id}", models.ActionManageVehicles, vehicleHandler.Delete)

	maintenanceHandler := handlers.NewMaintenanceHandler(deps.Maintenances, deps.Vehicles)
	routes.handle("GET /api/maintenances", models.ActionViewMaintenance, maintenanceHandler.List)
	routes.handle("GET /api/maintenances/summary", models.ActionViewMaintenance, maintenanceHandler.Summary)
	routes.handle("POST /api/maintenances", models.ActionManageMaintenance, maintenanceHandler.Create)
	routes.handle("GET /api/maintenances/{id}", models.ActionViewMaintenance, maintenanceHandler.Get)
	routes.handle("PUT /api/maintenances/{id}", models.ActionManageMaintenance, maintenanceHandler.Update)
	routes.handle("DELETE /api/maintenances/{id}", models.ActionManageMaintenance, maintenanceHandler.Delete)
	routes.handle("POST /api/maintenances/{id}/complete", models.ActionManageMaintenance, maintenanceHandler.Complete)

	costHandler := handlers.NewCostHandler(deps.Costs, deps.Vehicles)
	routes.handle("GET /api/costs", models.ActionViewCosts, costHandler.List)
	routes.handle("GET /api/costs/export", models.ActionViewCosts, costHandler.Export)
	routes.handle("POST /api/costs", models.ActionManageCosts, costHandler.Create)
	routes.handle("GET /api/costs/{id}", models.ActionViewCosts, costHandler.Get)
	routes.handle("PUT /api/costs/{id}", models.ActionManageCosts, costHandler.Update)
	routes.handle("DELETE /api/costs/{id}", models.ActionManageCosts, costHandler.Delete)

	interestHandler := handlers.NewInterestHandler(deps.Interests)
	routes.public("POST /api/interest", interestHandler.Create)

	cronHandler := handlers.NewCronHandler(deps.Reminders)
	routes.public("GET /api/cron/maintenance", cronHandler.Maintenance, middleware.RequireCronSecret(cfg.Cron.Secret))

	routes.public("GET /health", handlers.Health)
	mux.Handle("GET /metrics", promhttp.Handler())

	handler := middleware.Chain(mux,
		middleware.Recovery,
		middleware.RequestLogger,
		middleware.CORS(cfg.Server.CORSAllowedOrigin),
		rateLimiter.RateLimit(cfg.Server.RateLimitRequests, cfg.Server.RateLimitWindowSec),
		authMiddleware.Authenticate,
	)

	return &Server{
		cfg:     cfg,
		handler: handler,
		httpServer: &http.Server{
			Addr:              ":" + cfg.Server.Port,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then drains in-flight requests for
// at most the configured shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", s.httpServer.Addr).Info("HTTP server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	log.Info("Server exited")
	return nil
}

type router struct {
	mux  *http.ServeMux
	auth *middleware.AuthMiddleware
}

// handle registers an authenticated route. An empty action only requires
// a valid token.
func (rt *router) handle(pattern, action string, h http.HandlerFunc) {
	var mws []func(http.Handler) http.Handler
	if action != "" {
		mws = append(mws, rt.auth.RequirePermission(action))
	}
	rt.public(pattern, h, mws...)
}

func (rt *router) public(pattern string, h http.HandlerFunc, mws ...func(http.Handler) http.Handler) {
	mws = append([]func(http.Handler) http.Handler{middleware.Instrument(pattern)}, mws...)
	rt.mux.Handle(pattern, middleware.Chain(h, mws...))
}
