package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/stanstork/admingate/internal/authz"
	"github.com/stanstork/admingate/internal/handlers"
)

// NewRouter sets up the API routes. Everything under /api/admin passes the
// JWT middleware first and then the admin gate.
func NewRouter(auth *handlers.AuthHandler, admin *handlers.AdminHandler) *mux.Router {
	router := mux.NewRouter()

	// Health check route
	router.HandleFunc("/health", handlers.HealthCheck).Methods(http.MethodGet)

	// Public auth endpoints
	router.HandleFunc("/api/signup", auth.SignUp).Methods(http.MethodPost)
	router.HandleFunc("/api/login", auth.Login).Methods(http.MethodPost)

	// Authenticated endpoints
	api := router.PathPrefix("/api").Subrouter()
	api.Use(auth.JWTMiddleware)
	api.HandleFunc("/me", auth.Me).Methods(http.MethodGet)

	// Admin-only endpoints
	adminRouter := api.PathPrefix("/admin").Subrouter()
	adminRouter.Use(authz.AdminOnly)
	adminRouter.HandleFunc("/users", admin.ListUsers).Methods(http.MethodGet)
	adminRouter.HandleFunc("/users/{userID}", admin.GetUser).Methods(http.MethodGet)
	adminRouter.HandleFunc("/users/{userID}", admin.DeleteUser).Methods(http.MethodDelete)
	adminRouter.HandleFunc("/users/{userID}/role", admin.UpdateUserRole).Methods(http.MethodPut)

	return router
}
