package routes

import (
	"classcrew/internal/handlers"
	"classcrew/internal/middleware"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Auth     *handlers.AuthHandler
	Password *handlers.PasswordHandler
	Recovery *handlers.RecoveryHandler
}

// InitRoutes registers every endpoint. initiateLimit caps recovery initiations
// per client IP per minute; 0 turns the cap off.
func InitRoutes(router *mux.Router, h Handlers, jwtSecret string, initiateLimit int) {
	router.Use(middleware.RequestID, middleware.Recoverer, middleware.Logging, middleware.Metrics)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api").Subrouter()

	// --- public ---
	api.HandleFunc("/register", h.Auth.Register).Methods(http.MethodPost)
	api.HandleFunc("/login", h.Auth.Login).Methods(http.MethodPost)
	api.HandleFunc("/refresh", h.Auth.Refresh).Methods(http.MethodPost)
	api.HandleFunc("/logout", h.Auth.Logout).Methods(http.MethodPost)

	recovery := api.PathPrefix("/password/recovery").Subrouter()
	var initiate http.Handler = http.HandlerFunc(h.Recovery.Initiate)
	if initiateLimit > 0 {
		initiate = middleware.LimitByIP(initiateLimit, time.Minute)(initiate)
	}
	recovery.Handle("/initiate", initiate).Methods(http.MethodPost)
	recovery.HandleFunc("/verify", h.Recovery.Verify).Methods(http.MethodPost)
	recovery.HandleFunc("/reset", h.Recovery.Reset).Methods(http.MethodPost)

	// --- JWT protected ---
	protected := api.PathPrefix("").Subrouter()
	protected.Use(middleware.JWTAuth(jwtSecret))

	protected.HandleFunc("/profile", h.Auth.Profile).Methods(http.MethodGet)
	protected.HandleFunc("/password/change", h.Password.Change).Methods(http.MethodPost)

	admin := protected.PathPrefix("/admin").Subrouter()
	admin.Use(middleware.OnlyRole("admin"))
	admin.HandleFunc("/users", h.Auth.GetUsers).Methods(http.MethodGet)
}
