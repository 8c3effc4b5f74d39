package api

import (
	"net/http"
	"quota-api/internal/api/handlers"
	"quota-api/internal/middleware"
	"quota-api/internal/services"

	"github.com/gorilla/mux"
)

type Handlers struct {
	Usage  *handlers.UsageHandler
	Admin  *handlers.AdminHandler
	Health *handlers.HealthHandler
	Ops    *handlers.OpsHandler
}

func SetupRoutes(h Handlers, authService services.AuthService, tokenService *services.AdminTokenService) *mux.Router {
	router := mux.NewRouter()

	// Public routes
	router.HandleFunc("/health", h.Health.HealthCheck).Methods("GET")
	router.HandleFunc("/ops/admin-token", h.Ops.IssueAdminToken).Methods("POST")

	// Admin routes; registered before the user subrouter so the narrower
	// prefix wins.
	adminRouter := router.PathPrefix("/api/v1/admin").Subrouter()
	adminRouter.Use(middleware.AdminMiddleware(authService, tokenService))
	adminRouter.Use(middleware.RequestLogger)

	adminRouter.HandleFunc("/limits", h.Admin.GetGlobalLimits).Methods("GET")
	adminRouter.HandleFunc("/limits", h.Admin.SetGlobalLimit).Methods("POST")
	adminRouter.HandleFunc("/usage/reset", h.Admin.ResetDailyUsage).Methods("POST")
	adminRouter.HandleFunc("/usage", h.Admin.GetUsageByDate).Methods("GET")

	// User routes (protected)
	apiRouter := router.PathPrefix("/api/v1").Subrouter()
	apiRouter.Use(middleware.AuthMiddleware(authService))
	apiRouter.Use(middleware.RequestLogger)

	apiRouter.HandleFunc("/usage/check", h.Usage.CheckUsage).Methods("POST")
	apiRouter.HandleFunc("/usage", h.Usage.GetUsage).Methods("GET")

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "Not found", http.StatusNotFound)
	})

	return router
}
