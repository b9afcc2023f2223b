package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/rickyzatnika/new-spinner/config"
	"github.com/rickyzatnika/new-spinner/middleware"
	"github.com/rickyzatnika/new-spinner/services"
	"github.com/rickyzatnika/new-spinner/store"
	"github.com/rickyzatnika/new-spinner/utils"
)

// Deps is everything the router wires into handlers.
type Deps struct {
	Config config.Config
	Log    *zap.Logger
	Store  store.Store

	Users  *services.UserService
	Prizes *services.PrizeService
	Spins  *services.SpinService
	Admins *services.AdminService

	// Feed serves the admin websocket; nil disables the route.
	Feed http.Handler
	// Counter backs the rate limiters; nil uses per-process memory.
	Counter middleware.Counter
}

func optionsHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

func InitRouter(d Deps) *mux.Router {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Counter == nil {
		d.Counter = middleware.NewMemoryCounter()
	}
	r := mux.NewRouter()

	// Health check endpoint for Docker health checks (root level)
	r.Handle("/health", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		ctx, cancel := context.WithTimeout(req.Context(), 2*time.Second)
		defer cancel()
		status, code, storeState := "healthy", http.StatusOK, "ok"
		if err := d.Store.Ping(ctx); err != nil {
			d.Log.Warn("health check store ping failed", zap.Error(err))
			status, code, storeState = "unhealthy", http.StatusServiceUnavailable, "unreachable"
		}
		utils.WriteJSON(w, code, utils.APIResponse{
			Success: code == http.StatusOK,
			Message: status,
			Data: map[string]interface{}{
				"status":    status,
				"store":     storeState,
				"timestamp": time.Now().Unix(),
				"service":   "lucky-wheel-api",
			},
		})
	})).Methods(http.MethodGet)

	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	origins := d.Config.CORS.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(func(next http.Handler) http.Handler {
		return handlers.CORS(
			handlers.AllowedOrigins(origins),
			handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
			handlers.AllowedHeaders([]string{"Content-Type", "Authorization", "X-Requested-With", "X-Request-ID"}),
		)(next)
	})
	r.Use(middleware.Metrics)

	api := r.PathPrefix("/api").Subrouter()

	// Add catch-all OPTIONS handler for CORS preflight
	api.PathPrefix("/").HandlerFunc(optionsHandler).Methods(http.MethodOptions)

	UsersRoutes(api, d)
	SetAdminRoutes(api, d)

	return r
}
